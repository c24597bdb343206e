package localfs

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/LFroesch/ferry/internal/panel"
)

// MountedDrives returns the paths of all mounted drives/volumes
func MountedDrives() []string {
	var drives []string

	switch runtime.GOOS {
	case "windows":
		// Drive letters A-Z
		for letter := 'A'; letter <= 'Z'; letter++ {
			drive := string(letter) + ":\\"
			if _, err := os.Stat(drive); err == nil {
				drives = append(drives, drive)
			}
		}

	case "darwin":
		drives = append(drives, "/")
		drives = append(drives, subdirs("/Volumes")...)

	default:
		drives = append(drives, "/")

		// /mnt holds WSL drive letters and manual mounts
		drives = append(drives, subdirs("/mnt")...)

		// /media/<user>/<volume>
		for _, userDir := range subdirs("/media") {
			drives = append(drives, subdirs(userDir)...)
		}
	}

	return removeDuplicates(drives)
}

// subdirs lists the accessible directories directly under dir.
func subdirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		p := filepath.Join(dir, entry.Name())
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

// DriveLabel returns a human-readable label for a drive path
func DriveLabel(path string) string {
	if path == "" {
		return ""
	}
	if len(path) >= 2 && path[1] == ':' {
		return strings.ToUpper(path[:1]) + ":"
	}
	if path == "/" {
		return "Root"
	}
	if strings.HasPrefix(path, "/mnt/") {
		// WSL drives like /mnt/c -> "C:"
		letter := strings.TrimPrefix(path, "/mnt/")
		if len(letter) == 1 {
			return strings.ToUpper(letter) + ":"
		}
	}
	return filepath.Base(path)
}

// NormalizeToWSLPath normalizes Windows-style paths to WSL format when
// running on Linux.
// Examples: "L:" -> "/mnt/l", "L:\\" -> "/mnt/l", "L:/foo" -> "/mnt/l/foo"
func NormalizeToWSLPath(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}

	if len(path) >= 2 && path[1] == ':' {
		letter := strings.ToLower(path[:1])
		if len(path) == 2 {
			return "/mnt/" + letter
		}
		if path[2] == '\\' || path[2] == '/' {
			rest := strings.ReplaceAll(path[3:], "\\", "/")
			if rest == "" {
				return "/mnt/" + letter
			}
			return "/mnt/" + letter + "/" + rest
		}
	}

	return path
}

// removeDuplicates drops repeated paths, comparing them in WSL form on Linux.
func removeDuplicates(paths []string) []string {
	seen := make(map[string]bool)
	result := []string{}
	for _, path := range paths {
		key := path
		if runtime.GOOS == "linux" {
			key = NormalizeToWSLPath(path)
		}
		if !seen[key] {
			seen[key] = true
			result = append(result, path)
		}
	}
	return result
}

// mountTable maps mount points to filesystem types.
type mountTable map[string]string

// parseMounts reads the /proc/mounts format:
// "device mountpoint fstype options dump pass".
func parseMounts(r io.Reader) mountTable {
	table := mountTable{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		table[unescapeMount(fields[1])] = fields[2]
	}
	return table
}

var mountEscapes = strings.NewReplacer(`\040`, " ", `\011`, "\t", `\012`, "\n", `\134`, `\`)

func unescapeMount(s string) string {
	return mountEscapes.Replace(s)
}

func readMounts(path string) mountTable {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	return parseMounts(f)
}

// fsType returns the type of the filesystem path lives on, from the longest
// mount point containing it.
func (t mountTable) fsType(path string) string {
	best, fstype := -1, ""
	for mp, typ := range t {
		if !within(path, mp) || len(mp) <= best {
			continue
		}
		best, fstype = len(mp), typ
	}
	return fstype
}

func within(path, dir string) bool {
	if dir == "/" || path == dir {
		return true
	}
	return strings.HasPrefix(path, dir+"/")
}

// classify picks a DriveKind for path from its filesystem type and location.
func classify(path string, mounts mountTable) panel.DriveKind {
	fstype := mounts.fsType(path)
	switch {
	case fstype == "nfs" || fstype == "nfs4" || fstype == "cifs" ||
		strings.HasPrefix(fstype, "smb") || strings.Contains(fstype, "sshfs"):
		return panel.DriveNetwork
	case fstype == "iso9660":
		return panel.DriveCdRom
	case fstype == "udf":
		return panel.DriveOptical
	case fstype == "tmpfs" || fstype == "ramfs":
		return panel.DriveRAM
	case strings.HasPrefix(path, "/media/") || strings.HasPrefix(path, "/run/media/"):
		return panel.DriveRemovable
	default:
		return panel.DriveFixed
	}
}
