package localfs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/LFroesch/ferry/internal/panel"
)

func TestList_OrdersDirsFirstThenName(t *testing.T) {
	tempDir := t.TempDir()

	os.Mkdir(filepath.Join(tempDir, "zeta"), 0755)
	os.Mkdir(filepath.Join(tempDir, "Alpha"), 0755)
	os.WriteFile(filepath.Join(tempDir, "b.txt"), []byte("hello"), 0644)
	os.WriteFile(filepath.Join(tempDir, "A.md"), []byte(""), 0644)

	items, err := New(false).List(tempDir)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	var names []string
	for _, item := range items {
		names = append(names, item.Name)
	}
	want := "Alpha,zeta,A.md,b.txt"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}

	if !items[0].IsDir() || items[0].Size != 0 {
		t.Errorf("Alpha = %+v, want a sizeless directory", items[0])
	}
	if items[3].Kind != panel.EntryFile || items[3].Size != 5 {
		t.Errorf("b.txt = %+v, want a 5 byte file", items[3])
	}
	if items[3].Modified.IsZero() {
		t.Error("b.txt has no modification time")
	}
}

func TestList_HiddenEntries(t *testing.T) {
	tempDir := t.TempDir()
	os.WriteFile(filepath.Join(tempDir, ".secret"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(tempDir, "visible"), []byte("x"), 0644)

	items, err := New(false).List(tempDir)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 1 || items[0].Name != "visible" {
		t.Errorf("hidden entry listed: %+v", items)
	}

	items, err = New(true).List(tempDir)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 entries with ShowHidden, got %d", len(items))
	}
}

func TestList_SymlinkToDirSortsAsDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	tempDir := t.TempDir()
	target := filepath.Join(tempDir, "real")
	os.Mkdir(target, 0755)
	os.WriteFile(filepath.Join(tempDir, "a-file"), []byte("x"), 0644)
	if err := os.Symlink(target, filepath.Join(tempDir, "link")); err != nil {
		t.Fatalf("Symlink failed: %v", err)
	}

	items, err := New(false).List(tempDir)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 3 || items[0].Name != "link" || !items[0].IsDir() {
		t.Errorf("expected link first as a directory, got %+v", items)
	}
}

func TestList_MissingDir(t *testing.T) {
	_, err := New(false).List(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap ErrNotExist: %v", err)
	}
}

func TestDrives_IncludesHome(t *testing.T) {
	home := t.TempDir()
	l := New(false)
	l.mountsFile = filepath.Join(t.TempDir(), "missing")
	l.homeDir = func() (string, error) { return home, nil }

	drives, err := l.Drives()
	if err != nil {
		t.Fatalf("Drives failed: %v", err)
	}
	if drives[0].Kind != panel.DriveHome || drives[0].Path != home {
		t.Errorf("first drive = %+v, want home", drives[0])
	}
	if len(drives) < 2 {
		t.Errorf("expected mounted volumes after home, got %+v", drives)
	}
}

func TestDriveLabel(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "Root"},
		{"/mnt/c", "C:"},
		{"/mnt/backup", "backup"},
		{"/media/me/USB", "USB"},
		{`d:\`, "D:"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := DriveLabel(tt.path); got != tt.want {
			t.Errorf("DriveLabel(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestNormalizeToWSLPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"L:", "/mnt/l"},
		{`L:\`, "/mnt/l"},
		{"L:/foo", "/mnt/l/foo"},
		{`C:\Users\me`, "/mnt/c/Users/me"},
		{"/mnt/l", "/mnt/l"},
		{"relative", "relative"},
	}
	for _, tt := range tests {
		if got := NormalizeToWSLPath(tt.in); got != tt.want {
			t.Errorf("NormalizeToWSLPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

const sampleMounts = `/dev/sda1 / ext4 rw,relatime 0 0
tmpfs /tmp tmpfs rw 0 0
server:/export /mnt/nfs nfs4 rw 0 0
//nas/share /mnt/share cifs rw 0 0
me@host:/ /mnt/remote fuse.sshfs rw 0 0
/dev/sr0 /media/me/DVD\040Disc udf ro 0 0
/dev/sr1 /media/me/CD iso9660 ro 0 0
/dev/sdb1 /media/me/USB vfat rw 0 0
garbage
`

func TestClassify(t *testing.T) {
	mounts := parseMounts(strings.NewReader(sampleMounts))

	tests := []struct {
		path string
		want panel.DriveKind
	}{
		{"/", panel.DriveFixed},
		{"/home/me", panel.DriveFixed},
		{"/tmp", panel.DriveRAM},
		{"/mnt/nfs", panel.DriveNetwork},
		{"/mnt/share", panel.DriveNetwork},
		{"/mnt/remote", panel.DriveNetwork},
		{"/media/me/DVD Disc", panel.DriveOptical},
		{"/media/me/CD", panel.DriveCdRom},
		{"/media/me/USB", panel.DriveRemovable},
		{"/mnt/nfsish", panel.DriveFixed},
	}
	for _, tt := range tests {
		if got := classify(tt.path, mounts); got != tt.want {
			t.Errorf("classify(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestClassify_NoMountTable(t *testing.T) {
	if got := classify("/media/me/stick", nil); got != panel.DriveRemovable {
		t.Errorf("got %v, want removable", got)
	}
	if got := classify("/", nil); got != panel.DriveFixed {
		t.Errorf("got %v, want fixed", got)
	}
}

func TestRemoveDuplicates(t *testing.T) {
	got := removeDuplicates([]string{"/", "/mnt/c", "/", "/mnt/c"})
	if len(got) != 2 {
		t.Errorf("expected 2 unique paths, got %v", got)
	}
}
