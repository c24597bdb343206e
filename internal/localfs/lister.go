// Package localfs enumerates drives and lists directories on this machine.
// The session delegate uses it for the local panel and the peer server uses
// it to answer remote requests.
package localfs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/LFroesch/ferry/internal/panel"
)

const procMounts = "/proc/mounts"

// Lister reads the local filesystem.
type Lister struct {
	ShowHidden bool

	mountsFile string
	homeDir    func() (string, error)
}

// New returns a Lister. Hidden entries are skipped unless showHidden is set.
func New(showHidden bool) *Lister {
	return &Lister{
		ShowHidden: showHidden,
		mountsFile: procMounts,
		homeDir:    os.UserHomeDir,
	}
}

// Drives returns the user's home followed by every mounted volume.
func (l *Lister) Drives() ([]panel.DriveItem, error) {
	mounts := readMounts(l.mountsFile)

	var items []panel.DriveItem
	if l.homeDir != nil {
		if home, err := l.homeDir(); err == nil && home != "" {
			items = append(items, panel.DriveItem{
				Kind:        panel.DriveHome,
				Path:        home,
				DisplayName: "Home",
			})
		}
	}

	for _, path := range MountedDrives() {
		items = append(items, panel.DriveItem{
			Kind:        classify(path, mounts),
			Path:        path,
			DisplayName: DriveLabel(path),
		})
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no drives found")
	}
	return items, nil
}

// List returns the entries of path, directories first and then by name
// ignoring case. Entries that vanish while being read are skipped.
func (l *Lister) List(path string) ([]panel.DirectoryItem, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	items := make([]panel.DirectoryItem, 0, len(entries))
	for _, entry := range entries {
		if !l.ShowHidden && strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		itemPath := filepath.Join(path, entry.Name())

		// Lstat first, then follow symlinks so linked dirs sort as dirs
		info, err := os.Lstat(itemPath)
		if err != nil {
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 {
			if target, err := os.Stat(itemPath); err == nil {
				info = target
			}
		}

		kind := panel.EntryFile
		if info.IsDir() {
			kind = panel.EntryDirectory
		}
		var size uint64
		if kind == panel.EntryFile && info.Size() > 0 {
			size = uint64(info.Size())
		}

		items = append(items, panel.DirectoryItem{
			Kind:     kind,
			Name:     entry.Name(),
			Size:     size,
			Modified: info.ModTime(),
		})
	}

	SortEntries(items)
	return items, nil
}

// SortEntries orders items directories first, then by case-insensitive name.
func SortEntries(items []panel.DirectoryItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].IsDir() != items[j].IsDir() {
			return items[i].IsDir()
		}
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
}
