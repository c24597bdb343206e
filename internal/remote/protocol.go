// Package remote is the peer protocol that exposes one machine's drives and
// directories to another ferry instance.
//
// A connection carries a sequence of CBOR data items in each direction. The
// server opens with a hello frame. The client then sends requests, each
// tagged with a fresh id, and the server streams drive or entry frames for
// that id and ends it with a done or error frame. Several requests may be in
// flight on one connection; frames of one request arrive in order.
package remote

import (
	"errors"
	"time"

	"github.com/LFroesch/ferry/internal/panel"
)

// ProtocolVersion is sent in the hello frame. Peers must match exactly.
const ProtocolVersion = 1

var (
	// ErrClosed is returned for requests on a closed or lost connection.
	ErrClosed = errors.New("remote: connection closed")
	// ErrVersion means the peer speaks another protocol version.
	ErrVersion = errors.New("remote: protocol version mismatch")
	// ErrListing wraps a listing error reported by the peer.
	ErrListing = errors.New("remote: listing failed")
)

// Lister is what a Server exposes.
type Lister interface {
	Drives() ([]panel.DriveItem, error)
	List(path string) ([]panel.DirectoryItem, error)
}

const (
	opDrives = "drives"
	opList   = "list"
)

const (
	frameHello = "hello"
	frameDrive = "drive"
	frameEntry = "entry"
	frameDone  = "done"
	frameError = "error"
)

// request is sent by the client.
type request struct {
	ID   string `cbor:"id"`
	Op   string `cbor:"op"`
	Path string `cbor:"path,omitempty"`
}

// frame is sent by the server. Type selects which fields are set:
//
//   - "hello": Version, Host
//   - "drive": ID, Drive
//   - "entry": ID, Entry
//   - "done": ID
//   - "error": ID, Message
type frame struct {
	Type    string     `cbor:"type"`
	ID      string     `cbor:"id,omitempty"`
	Version int        `cbor:"version,omitempty"`
	Host    string     `cbor:"host,omitempty"`
	Drive   *wireDrive `cbor:"drive,omitempty"`
	Entry   *wireEntry `cbor:"entry,omitempty"`
	Message string     `cbor:"message,omitempty"`
}

type wireDrive struct {
	Kind int    `cbor:"kind"`
	Path string `cbor:"path"`
	Name string `cbor:"name,omitempty"`
}

type wireEntry struct {
	Kind     int    `cbor:"kind"`
	Name     string `cbor:"name"`
	Size     uint64 `cbor:"size,omitempty"`
	Modified int64  `cbor:"mtime,omitempty"` // unix nanoseconds
}

func driveToWire(d panel.DriveItem) *wireDrive {
	return &wireDrive{Kind: int(d.Kind), Path: d.Path, Name: d.DisplayName}
}

func driveFromWire(w *wireDrive) panel.DriveItem {
	return panel.DriveItem{Kind: panel.DriveKind(w.Kind), Path: w.Path, DisplayName: w.Name}
}

func entryToWire(e panel.DirectoryItem) *wireEntry {
	w := &wireEntry{Kind: int(e.Kind), Name: e.Name, Size: e.Size}
	if !e.Modified.IsZero() {
		w.Modified = e.Modified.UnixNano()
	}
	return w
}

func entryFromWire(w *wireEntry) panel.DirectoryItem {
	e := panel.DirectoryItem{Kind: panel.EntryKind(w.Kind), Name: w.Name, Size: w.Size}
	if w.Modified != 0 {
		e.Modified = time.Unix(0, w.Modified)
	}
	return e
}
