package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/sync/errgroup"

	"github.com/LFroesch/ferry/internal/logger"
)

// Server answers peer requests from a Lister.
type Server struct {
	lister   Lister
	listener net.Listener
	host     string

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
}

// Listen binds addr. Call Serve to start accepting.
func Listen(addr string, lister Lister) (*Server, error) {
	if lister == nil {
		return nil, errors.New("remote: nil lister")
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	host, err := os.Hostname()
	if err != nil {
		host = "peer"
	}

	return &Server{
		lister:   lister,
		listener: listener,
		host:     host,
		conns:    make(map[net.Conn]struct{}),
	}, nil
}

// Address is the bound address, useful after listening on port 0.
func (s *Server) Address() string {
	return s.listener.Addr().String()
}

// Serve accepts connections until ctx is done or Close is called, then
// waits for every connection handler to return. A listener closed that way
// is not an error.
func (s *Server) Serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	logger.Info("Serving peer requests on %s", s.Address())

	var acceptErr error
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.isClosed() {
				acceptErr = fmt.Errorf("accept: %w", err)
				s.Close()
			}
			break
		}
		if !s.track(conn) {
			conn.Close()
			break
		}
		g.Go(func() error {
			defer s.untrack(conn)
			s.handle(conn)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return acceptErr
}

// Close stops accepting and drops every open connection. It is idempotent.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conns := make([]net.Conn, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	err := s.listener.Close()
	for _, conn := range conns {
		conn.Close()
	}
	return err
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

// peerConn serializes frame writes from concurrent request handlers.
type peerConn struct {
	mu  sync.Mutex
	enc *cbor.Encoder
	err error
}

func (p *peerConn) send(f frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if err := p.enc.Encode(f); err != nil {
		p.err = err
	}
	return p.err
}

func (s *Server) handle(conn net.Conn) {
	remote := conn.RemoteAddr().String()
	logger.Info("Peer connected: %s", remote)
	defer logger.Info("Peer disconnected: %s", remote)

	out := &peerConn{enc: newEncoder(conn)}
	if err := out.send(frame{Type: frameHello, Version: ProtocolVersion, Host: s.host}); err != nil {
		logger.Warn("Hello to %s failed: %v", remote, err)
		return
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	dec := newDecoder(conn)
	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				logger.Warn("Reading request from %s: %v", remote, err)
			}
			// Unblock handlers still writing to a peer that went away.
			conn.Close()
			return
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.answer(out, req)
		}()
	}
}

// answer streams the result of one request.
func (s *Server) answer(out *peerConn, req request) {
	logger.Debug("Peer request %s %s %q", req.ID, req.Op, req.Path)

	fail := func(err error) {
		if sendErr := out.send(frame{Type: frameError, ID: req.ID, Message: err.Error()}); sendErr != nil {
			logger.Debug("Dropping error for %s: %v", req.ID, sendErr)
		}
	}

	switch req.Op {
	case opDrives:
		drives, err := s.lister.Drives()
		if err != nil {
			fail(err)
			return
		}
		for _, d := range drives {
			if out.send(frame{Type: frameDrive, ID: req.ID, Drive: driveToWire(d)}) != nil {
				return
			}
		}

	case opList:
		entries, err := s.lister.List(req.Path)
		if err != nil {
			fail(err)
			return
		}
		for _, e := range entries {
			if out.send(frame{Type: frameEntry, ID: req.ID, Entry: entryToWire(e)}) != nil {
				return
			}
		}

	default:
		fail(fmt.Errorf("unknown op %q", req.Op))
		return
	}

	out.send(frame{Type: frameDone, ID: req.ID})
}
