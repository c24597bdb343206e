// Package panel holds the endpoint value types (drives, directory entries)
// and the per-endpoint listing state the coordinator owns.
package panel

import (
	"fmt"
	"time"
)

// Kind identifies which endpoint a panel, request or mutation belongs to.
type Kind int

const (
	Local Kind = iota
	Remote
)

// Kinds lists every valid Kind in request order.
var Kinds = []Kind{Local, Remote}

// Valid reports whether k names one of the two panels.
func (k Kind) Valid() bool {
	return k == Local || k == Remote
}

func (k Kind) String() string {
	switch k {
	case Local:
		return "local"
	case Remote:
		return "remote"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Ticket identifies one accepted listing request. Results carry the ticket
// of the request they answer so late answers to an earlier request can be
// told apart from the current one.
type Ticket struct {
	Kind Kind
	Seq  uint64
}

func (t Ticket) String() string {
	return fmt.Sprintf("%s#%d", t.Kind, t.Seq)
}

// DriveKind classifies a storage volume.
type DriveKind int

const (
	DriveUnknown DriveKind = iota
	DriveFixed
	DriveRemovable
	DriveOptical
	DriveCdRom
	DriveNetwork
	DriveRAM
	DriveHome
	DriveDesktop
)

func (k DriveKind) String() string {
	switch k {
	case DriveFixed:
		return "fixed"
	case DriveRemovable:
		return "removable"
	case DriveOptical:
		return "optical"
	case DriveCdRom:
		return "cdrom"
	case DriveNetwork:
		return "network"
	case DriveRAM:
		return "ram"
	case DriveHome:
		return "home"
	case DriveDesktop:
		return "desktop"
	default:
		return "unknown"
	}
}

// DriveItem is one volume in a drive list. Path is its identity within a listing.
type DriveItem struct {
	Kind        DriveKind
	Path        string
	DisplayName string
}

// EntryKind classifies a directory entry.
type EntryKind int

const (
	EntryUnknown EntryKind = iota
	EntryFile
	EntryDirectory
)

func (k EntryKind) String() string {
	switch k {
	case EntryFile:
		return "file"
	case EntryDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// DirectoryItem is one entry in a directory listing. Name is its identity
// within a listing; Size only means something for files.
type DirectoryItem struct {
	Kind     EntryKind
	Name     string
	Size     uint64
	Modified time.Time
}

// IsDir reports whether the entry is a directory.
func (d DirectoryItem) IsDir() bool {
	return d.Kind == EntryDirectory
}
