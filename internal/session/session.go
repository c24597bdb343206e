// Package session implements the coordinator's Delegate: it answers listing
// requests for the local panel from this machine and for the remote panel
// from a connected peer.
package session

import (
	"errors"
	"sync"

	"github.com/LFroesch/ferry/internal/logger"
	"github.com/LFroesch/ferry/internal/panel"
	"github.com/LFroesch/ferry/internal/remote"
)

// ErrNoPeer fails remote requests when no peer is connected.
var ErrNoPeer = errors.New("session: no peer connected")

// Sink receives listing results. *coordinator.Coordinator satisfies it.
type Sink interface {
	AddDriveItem(t panel.Ticket, item panel.DriveItem)
	AddDirectoryItem(t panel.Ticket, item panel.DirectoryItem)
	CompleteRequest(t panel.Ticket)
	FailRequest(t panel.Ticket, err error)
}

// Requester asks for listings. *coordinator.Coordinator satisfies it.
type Requester interface {
	RequestDriveList(kind panel.Kind) bool
}

// LocalLister reads this machine. *localfs.Lister satisfies it.
type LocalLister interface {
	Drives() ([]panel.DriveItem, error)
	List(path string) ([]panel.DirectoryItem, error)
}

// RemoteLister streams a peer's listings. *remote.Client satisfies it.
type RemoteLister interface {
	Drives(s remote.Stream) (string, error)
	List(path string, s remote.Stream) (string, error)
	Cancel(id string) bool
}

// Session routes requests by panel kind.
type Session struct {
	local   LocalLister
	remote  RemoteLister
	onClose func()

	mu     sync.RWMutex
	sink   Sink
	closed bool
	quit   chan struct{}
	// Requests not yet answered, with the peer request id for remote ones.
	live map[panel.Ticket]string

	wg sync.WaitGroup
}

// New returns a Session. peer may be nil when browsing without a peer;
// onClose may be nil.
func New(local LocalLister, peer RemoteLister, onClose func()) *Session {
	if local == nil {
		panic("session: nil local lister")
	}
	return &Session{
		local:   local,
		remote:  peer,
		onClose: onClose,
		quit:    make(chan struct{}),
		live:    make(map[panel.Ticket]string),
	}
}

// Attach sets where results go. It is separate from New because the
// coordinator needs the Session before it exists.
func (s *Session) Attach(sink Sink) {
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()
}

func (s *Session) target() Sink {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	return s.sink
}

// OnDriveListRequest starts the drive listing t names.
func (s *Session) OnDriveListRequest(t panel.Ticket) {
	sink := s.target()
	if sink == nil {
		logger.Warn("Drive request %s with no sink attached", t)
		return
	}

	switch t.Kind {
	case panel.Local:
		s.open(t)
		s.spawn(func() {
			drives, err := s.local.Drives()
			if !s.release(t) {
				logger.Debug("Discarding drives for abandoned %s", t)
				return
			}
			if err != nil {
				sink.FailRequest(t, err)
				return
			}
			for _, d := range drives {
				sink.AddDriveItem(t, d)
			}
			sink.CompleteRequest(t)
		})

	case panel.Remote:
		if s.remote == nil {
			sink.FailRequest(t, ErrNoPeer)
			return
		}
		stream := s.stream(sink, t)
		stream.OnDrive = func(d panel.DriveItem) { sink.AddDriveItem(t, d) }
		s.open(t)
		id, err := s.remote.Drives(stream)
		s.sent(t, id, err, sink)
	}
}

// OnDirectoryListRequest starts the listing of path t names.
func (s *Session) OnDirectoryListRequest(t panel.Ticket, path string) {
	sink := s.target()
	if sink == nil {
		logger.Warn("Listing of %q for %s with no sink attached", path, t)
		return
	}

	switch t.Kind {
	case panel.Local:
		s.open(t)
		s.spawn(func() {
			entries, err := s.local.List(path)
			if !s.release(t) {
				logger.Debug("Discarding listing of %q for abandoned %s", path, t)
				return
			}
			if err != nil {
				sink.FailRequest(t, err)
				return
			}
			for _, e := range entries {
				sink.AddDirectoryItem(t, e)
			}
			sink.CompleteRequest(t)
		})

	case panel.Remote:
		if s.remote == nil {
			sink.FailRequest(t, ErrNoPeer)
			return
		}
		stream := s.stream(sink, t)
		stream.OnEntry = func(e panel.DirectoryItem) { sink.AddDirectoryItem(t, e) }
		s.open(t)
		id, err := s.remote.List(path, stream)
		s.sent(t, id, err, sink)
	}
}

// OnRequestAbandoned stops answering t. A remote stream is cancelled; a
// local listing already on disk finishes but delivers nothing.
func (s *Session) OnRequestAbandoned(t panel.Ticket) {
	s.mu.Lock()
	id, ok := s.live[t]
	delete(s.live, t)
	s.mu.Unlock()

	if !ok {
		return
	}
	logger.Debug("Abandoning %s", t)
	if id != "" && s.remote != nil {
		s.remote.Cancel(id)
	}
}

// stream returns the completion half of a remote stream.
func (s *Session) stream(sink Sink, t panel.Ticket) remote.Stream {
	return remote.Stream{
		OnDone: func() {
			s.release(t)
			sink.CompleteRequest(t)
		},
		OnError: func(err error) {
			s.release(t)
			sink.FailRequest(t, err)
		},
	}
}

func (s *Session) open(t panel.Ticket) {
	s.mu.Lock()
	s.live[t] = ""
	s.mu.Unlock()
}

// sent records the peer request id of t, or fails t when sending failed.
// The stream may already have ended, in which case t is gone from live.
func (s *Session) sent(t panel.Ticket, id string, err error, sink Sink) {
	if err != nil {
		s.release(t)
		sink.FailRequest(t, err)
		return
	}
	s.mu.Lock()
	if _, ok := s.live[t]; ok {
		s.live[t] = id
	}
	s.mu.Unlock()
}

// release forgets t and reports whether it was still wanted.
func (s *Session) release(t panel.Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.live[t]
	delete(s.live, t)
	return ok
}

// spawn runs fn off the caller's goroutine, which is the coordinator's
// dispatcher and must not block on disk or on the network.
func (s *Session) spawn(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

// WatchPeer re-lists the remote drives once lost is closed, so the remote
// panel shows the dropped connection instead of waiting for the next
// navigation. It gives up when the session closes.
func (s *Session) WatchPeer(lost <-chan struct{}, r Requester) {
	s.spawn(func() {
		select {
		case <-lost:
			logger.Warn("Peer connection lost, refreshing remote panel")
			r.RequestDriveList(panel.Remote)
		case <-s.quit:
		}
	})
}

// OnWindowClose runs the onClose callback.
func (s *Session) OnWindowClose() {
	logger.Info("Window close requested")
	if s.onClose != nil {
		s.onClose()
	}
}

// Wait blocks until every listing and watch goroutine has returned.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close detaches the sink, cancels open remote streams and waits for local
// listings. Requests that arrive afterwards are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.Wait()
		return
	}
	s.closed = true
	close(s.quit)
	var ids []string
	for t, id := range s.live {
		if id != "" {
			ids = append(ids, id)
		}
		delete(s.live, t)
	}
	s.mu.Unlock()

	if s.remote != nil {
		for _, id := range ids {
			s.remote.Cancel(id)
		}
	}
	s.Wait()
}
