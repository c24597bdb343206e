package panel

import "fmt"

// Listing names the collection a request targets.
type Listing int

const (
	ListingNone Listing = iota
	ListingDrives
	ListingDirectory
)

func (l Listing) String() string {
	switch l {
	case ListingDrives:
		return "drives"
	case ListingDirectory:
		return "directory"
	default:
		return "none"
	}
}

// Status is the position of a panel in its request cycle:
// Idle -> Requested -> (Populated | Failed) -> Requested ...
type Status int

const (
	StatusIdle Status = iota
	StatusRequested
	StatusPopulated
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusRequested:
		return "requested"
	case StatusPopulated:
		return "populated"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// State is one endpoint's listing state. It is not safe for concurrent use;
// the coordinator only touches it from its dispatcher goroutine.
type State struct {
	kind    Kind
	status  Status
	listing Listing
	seq     uint64
	path    string
	drives  []DriveItem
	entries []DirectoryItem
	err     error
}

// NewState returns an empty, idle State for kind. An invalid kind panics.
func NewState(kind Kind) *State {
	if !kind.Valid() {
		panic(fmt.Sprintf("panel: invalid kind %d", int(kind)))
	}
	return &State{kind: kind}
}

func (s *State) Kind() Kind       { return s.kind }
func (s *State) Status() Status   { return s.status }
func (s *State) Listing() Listing { return s.listing }
func (s *State) Path() string     { return s.path }
func (s *State) Err() error       { return s.err }

// Seq identifies the most recently accepted request. It changes on every
// accepted Begin* call.
func (s *State) Seq() uint64 { return s.seq }

// Ticket names the most recently accepted request.
func (s *State) Ticket() Ticket { return Ticket{Kind: s.kind, Seq: s.seq} }

// Current reports whether t names the request that is still pending.
func (s *State) Current(t Ticket) bool {
	return t.Kind == s.kind && t.Seq == s.seq && s.Pending()
}

// Len is the number of items in the collection the current or last request
// targeted.
func (s *State) Len() int {
	switch s.listing {
	case ListingDrives:
		return len(s.drives)
	case ListingDirectory:
		return len(s.entries)
	default:
		return 0
	}
}

// Pending reports whether a request is outstanding.
func (s *State) Pending() bool {
	return s.status == StatusRequested
}

// BeginDriveRequest starts a drive listing. While another request is pending
// it does nothing and returns false; the outstanding request absorbs this one.
func (s *State) BeginDriveRequest() bool {
	if s.Pending() {
		return false
	}
	s.begin(ListingDrives)
	s.drives = s.drives[:0]
	return true
}

// BeginDirectoryRequest starts a listing of path, coalescing like
// BeginDriveRequest.
func (s *State) BeginDirectoryRequest(path string) bool {
	if s.Pending() {
		return false
	}
	s.begin(ListingDirectory)
	s.path = path
	s.entries = s.entries[:0]
	return true
}

func (s *State) begin(l Listing) {
	s.status = StatusRequested
	s.listing = l
	s.err = nil
	s.seq++
}

// AddDriveItem appends item while a drive listing is pending. Items that
// arrive at any other time are stale and are ignored (false).
func (s *State) AddDriveItem(item DriveItem) bool {
	if !s.Pending() || s.listing != ListingDrives {
		return false
	}
	s.drives = append(s.drives, item)
	return true
}

// AddDirectoryItem appends item while a directory listing is pending.
func (s *State) AddDirectoryItem(item DirectoryItem) bool {
	if !s.Pending() || s.listing != ListingDirectory {
		return false
	}
	s.entries = append(s.entries, item)
	return true
}

// CompleteRequest marks the pending listing as finished.
func (s *State) CompleteRequest() bool {
	if !s.Pending() {
		return false
	}
	s.status = StatusPopulated
	return true
}

// FailRequest ends the pending listing with err. Items received so far stay.
func (s *State) FailRequest(err error) bool {
	if !s.Pending() {
		return false
	}
	s.status = StatusFailed
	s.err = err
	return true
}

// Snapshot copies the state so it can leave the dispatcher goroutine.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Kind:    s.kind,
		Status:  s.status,
		Listing: s.listing,
		Seq:     s.seq,
		Path:    s.path,
		Pending: s.Pending(),
		Err:     s.err,
	}
	if len(s.drives) > 0 {
		snap.Drives = append([]DriveItem(nil), s.drives...)
	}
	if len(s.entries) > 0 {
		snap.Entries = append([]DirectoryItem(nil), s.entries...)
	}
	return snap
}

// Snapshot is an immutable copy of a State.
type Snapshot struct {
	Kind    Kind
	Status  Status
	Listing Listing
	Seq     uint64
	Path    string
	Drives  []DriveItem
	Entries []DirectoryItem
	Pending bool
	Err     error
}
