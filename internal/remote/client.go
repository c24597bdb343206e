package remote

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/LFroesch/ferry/internal/logger"
	"github.com/LFroesch/ferry/internal/panel"
)

// Stream receives the results of one request. Callbacks run on the
// client's read goroutine and must not block; nil callbacks are skipped.
// Exactly one of OnDone or OnError ends the stream.
type Stream struct {
	OnDrive func(panel.DriveItem)
	OnEntry func(panel.DirectoryItem)
	OnDone  func()
	OnError func(error)
}

func (s Stream) done() {
	if s.OnDone != nil {
		s.OnDone()
	}
}

func (s Stream) fail(err error) {
	if s.OnError != nil {
		s.OnError(err)
	}
}

// Client is one connection to a peer Server.
type Client struct {
	conn net.Conn
	host string

	encMu sync.Mutex
	enc   *cbor.Encoder

	mu      sync.Mutex
	streams map[string]Stream
	err     error

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to addr and waits for the server's hello. timeout bounds
// both the dial and the hello; zero means no bound beyond ctx.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	if timeout > 0 {
		conn.SetReadDeadline(time.Now().Add(timeout))
	}
	dec := newDecoder(conn)
	var hello frame
	if err := dec.Decode(&hello); err != nil {
		conn.Close()
		return nil, fmt.Errorf("read hello from %s: %w", addr, err)
	}
	if hello.Type != frameHello {
		conn.Close()
		return nil, fmt.Errorf("%w: expected hello, got %q", ErrVersion, hello.Type)
	}
	if hello.Version != ProtocolVersion {
		conn.Close()
		return nil, fmt.Errorf("%w: peer speaks %d, we speak %d", ErrVersion, hello.Version, ProtocolVersion)
	}
	conn.SetReadDeadline(time.Time{})

	c := &Client{
		conn:    conn,
		host:    hello.Host,
		enc:     newEncoder(conn),
		streams: make(map[string]Stream),
		done:    make(chan struct{}),
	}
	go c.readLoop(dec)

	logger.Info("Connected to peer %s (%s)", hello.Host, addr)
	return c, nil
}

// Host is the peer's hostname from its hello.
func (c *Client) Host() string {
	return c.host
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Drives asks the peer for its drives. It returns the request id, which
// Cancel accepts.
func (c *Client) Drives(s Stream) (string, error) {
	return c.send(request{Op: opDrives}, s)
}

// List asks the peer for the entries of path.
func (c *Client) List(path string, s Stream) (string, error) {
	return c.send(request{Op: opList, Path: path}, s)
}

// Cancel forgets the stream of request id. Frames the peer still sends for
// it are discarded and none of the stream's callbacks run again. It reports
// whether the request was still open.
func (c *Client) Cancel(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.streams[id]; !ok {
		return false
	}
	delete(c.streams, id)
	return true
}

func (c *Client) send(req request, s Stream) (string, error) {
	req.ID = uuid.NewString()

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return "", err
	}
	c.streams[req.ID] = s
	c.mu.Unlock()

	c.encMu.Lock()
	err := c.enc.Encode(req)
	c.encMu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.streams, req.ID)
		c.mu.Unlock()
		return "", fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return req.ID, nil
}

func (c *Client) readLoop(dec *cbor.Decoder) {
	defer close(c.done)
	for {
		var f frame
		if err := dec.Decode(&f); err != nil {
			c.failAll(fmt.Errorf("%w: %v", ErrClosed, err))
			return
		}
		c.deliver(f)
	}
}

func (c *Client) deliver(f frame) {
	c.mu.Lock()
	s, ok := c.streams[f.ID]
	if ok && (f.Type == frameDone || f.Type == frameError) {
		delete(c.streams, f.ID)
	}
	c.mu.Unlock()

	if !ok {
		logger.Debug("Frame %s for unknown request %s", f.Type, f.ID)
		return
	}

	switch f.Type {
	case frameDrive:
		if f.Drive != nil && s.OnDrive != nil {
			s.OnDrive(driveFromWire(f.Drive))
		}
	case frameEntry:
		if f.Entry != nil && s.OnEntry != nil {
			s.OnEntry(entryFromWire(f.Entry))
		}
	case frameDone:
		s.done()
	case frameError:
		s.fail(fmt.Errorf("%w: %s", ErrListing, f.Message))
	default:
		logger.Debug("Ignoring frame type %q", f.Type)
	}
}

// failAll ends every pending stream with err and refuses new requests.
func (c *Client) failAll(err error) {
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	streams := c.streams
	c.streams = make(map[string]Stream)
	c.mu.Unlock()

	if len(streams) > 0 {
		logger.Warn("Peer connection lost with %d requests pending: %v", len(streams), err)
	}
	for _, s := range streams {
		s.fail(err)
	}
}

// Close drops the connection and waits for the read goroutine. Pending
// streams fail with ErrClosed.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		if c.err == nil {
			c.err = ErrClosed
		}
		c.mu.Unlock()
		err = c.conn.Close()
	})
	<-c.done
	return err
}
