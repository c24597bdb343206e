package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/LFroesch/ferry/internal/dispatch"
	"github.com/LFroesch/ferry/internal/logger"
	"github.com/LFroesch/ferry/internal/panel"
	"github.com/LFroesch/ferry/internal/telemetry"
)

// DefaultRequestTimeout bounds a listing whose Delegate never finishes it.
const DefaultRequestTimeout = 30 * time.Second

var (
	// ErrRequestTimeout is recorded on a panel whose listing timed out.
	ErrRequestTimeout = errors.New("coordinator: listing request timed out")
	// ErrStopped is returned by reads after Close or a failed Start.
	ErrStopped = dispatch.ErrStopped
)

// Delegate performs listings for the coordinator. Requests arrive on the
// dispatcher goroutine and must not block it; results come back through
// the coordinator's result methods from any goroutine, tagged with the
// ticket of the request they answer.
type Delegate interface {
	OnDriveListRequest(t panel.Ticket)
	OnDirectoryListRequest(t panel.Ticket, path string)
	// OnRequestAbandoned reports that t timed out or the coordinator shut
	// down. Anything still delivered for t is dropped.
	OnRequestAbandoned(t panel.Ticket)
	OnWindowClose()
}

// Presenter is the presentation layer. Every method is called on the
// dispatcher goroutine.
type Presenter interface {
	// Init creates thread-affine resources. An error aborts Start.
	Init() error
	Relayout(width, height int)
	PanelChanged(kind panel.Kind, snap panel.Snapshot)
	Destroy()
}

// Options tune a Coordinator. The zero value is usable.
type Options struct {
	Tracer         trace.Tracer
	RequestTimeout time.Duration
}

// Coordinator routes lifecycle events, listing requests and listing
// results onto one dispatcher goroutine that owns both panel states.
type Coordinator struct {
	delegate       Delegate
	presenter      Presenter
	dispatcher     *dispatch.Dispatcher
	tracer         trace.Tracer
	requestTimeout time.Duration

	// Owned by the dispatcher goroutine.
	panels    map[panel.Kind]*panel.State
	inflight  map[panel.Kind]*request
	dirty     map[panel.Kind]bool
	created   bool
	destroyed bool
}

// New builds a Coordinator with two empty panels. delegate must be non-nil
// and outlive the Coordinator; a nil presenter is replaced by one that
// ignores everything.
func New(delegate Delegate, presenter Presenter, opts Options) *Coordinator {
	if delegate == nil {
		panic("coordinator: nil delegate")
	}
	if presenter == nil {
		presenter = nopPresenter{}
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer(telemetry.InstrumentationName)
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}

	c := &Coordinator{
		delegate:       delegate,
		presenter:      presenter,
		dispatcher:     dispatch.New(),
		tracer:         opts.Tracer,
		requestTimeout: opts.RequestTimeout,
		panels:         make(map[panel.Kind]*panel.State, len(panel.Kinds)),
		inflight:       make(map[panel.Kind]*request, len(panel.Kinds)),
		dirty:          make(map[panel.Kind]bool, len(panel.Kinds)),
	}
	for _, kind := range panel.Kinds {
		c.panels[kind] = panel.NewState(kind)
	}
	return c
}

// Start runs the dispatcher and the presenter's Init on it. On failure the
// coordinator stays inert: events and results are refused and dropped.
func (c *Coordinator) Start() error {
	return c.dispatcher.Start(dispatch.Hooks{
		Init:    c.presenter.Init,
		Cleanup: c.teardown,
	})
}

// Close stops the dispatcher, discarding tasks still queued, tears the
// panels down and waits. It is idempotent.
func (c *Coordinator) Close() {
	c.dispatcher.Stop()
}

// HandleEvent queues ev for routing on the dispatcher goroutine. It reports
// false when the coordinator is not accepting work.
func (c *Coordinator) HandleEvent(ev Event) bool {
	return c.dispatcher.Post(func() {
		if !Route(handler{c}, ev) {
			logger.Warn("Ignoring unknown lifecycle event %T", ev)
		}
	})
}

// RequestDriveList asks the Delegate for kind's drives.
func (c *Coordinator) RequestDriveList(kind panel.Kind) bool {
	mustBeValid(kind)
	return c.dispatcher.Post(func() { c.requestDrives(kind) })
}

// RequestDirectoryList asks the Delegate for the entries of path on kind.
func (c *Coordinator) RequestDirectoryList(kind panel.Kind, path string) bool {
	mustBeValid(kind)
	return c.dispatcher.Post(func() { c.requestDirectory(kind, path) })
}

// AddDriveItem delivers one drive of the drive listing t names.
func (c *Coordinator) AddDriveItem(t panel.Ticket, item panel.DriveItem) {
	mustBeValid(t.Kind)
	c.mutate(t, "drive item", func(st *panel.State) bool {
		return st.AddDriveItem(item)
	})
}

// AddDirectoryItem delivers one entry of the directory listing t names.
func (c *Coordinator) AddDirectoryItem(t panel.Ticket, item panel.DirectoryItem) {
	mustBeValid(t.Kind)
	c.mutate(t, "directory item", func(st *panel.State) bool {
		return st.AddDirectoryItem(item)
	})
}

// CompleteRequest reports that the listing t names has no more items.
func (c *Coordinator) CompleteRequest(t panel.Ticket) {
	mustBeValid(t.Kind)
	c.mutate(t, "completion", func(st *panel.State) bool {
		if !st.CompleteRequest() {
			return false
		}
		c.finish(t.Kind, st, nil)
		return true
	})
}

// FailRequest ends the listing t names with err.
func (c *Coordinator) FailRequest(t panel.Ticket, err error) {
	mustBeValid(t.Kind)
	if err == nil {
		err = errors.New("listing failed")
	}
	c.mutate(t, "failure", func(st *panel.State) bool {
		if !st.FailRequest(err) {
			return false
		}
		logger.Warn("%s listing of %q failed: %v", t.Kind, st.Path(), err)
		c.finish(t.Kind, st, err)
		return true
	})
}

// Snapshot returns a copy of kind's panel, read on the dispatcher goroutine.
func (c *Coordinator) Snapshot(ctx context.Context, kind panel.Kind) (panel.Snapshot, error) {
	mustBeValid(kind)

	var snap panel.Snapshot
	var ok bool
	err := c.dispatcher.Call(ctx, func() {
		if st := c.state(kind); st != nil {
			snap, ok = st.Snapshot(), true
		}
	})
	if err != nil {
		return panel.Snapshot{}, err
	}
	if !ok {
		return panel.Snapshot{}, ErrStopped
	}
	return snap, nil
}

// Flush waits until every queued task, and every task those tasks queued,
// has run. Responses still in flight inside the Delegate are not awaited.
func (c *Coordinator) Flush(ctx context.Context) error {
	return c.dispatcher.Flush(ctx)
}

// mutate posts a panel mutation. Refused posts, results for any request
// but the pending one, and mutations the panel rejects are stale responses
// and are dropped.
func (c *Coordinator) mutate(t panel.Ticket, what string, apply func(*panel.State) bool) {
	posted := c.dispatcher.Post(func() {
		st := c.state(t.Kind)
		if st == nil {
			logger.Debug("Dropped %s for %s after teardown", what, t)
			return
		}
		if !st.Current(t) {
			logger.Debug("Dropped stale %s for %s, %s panel is at #%d", what, t, t.Kind, st.Seq())
			return
		}
		if !apply(st) {
			logger.Debug("Dropped %s for %s, %s listing pending", what, t, st.Listing())
			return
		}
		c.markDirty(t.Kind)
	})
	if !posted {
		logger.Debug("Dropped %s for %s, dispatcher stopped", what, t)
	}
}

// state returns kind's panel, or nil once the panels are torn down.
func (c *Coordinator) state(kind panel.Kind) *panel.State {
	if c.panels == nil {
		return nil
	}
	st, ok := c.panels[kind]
	if !ok || st.Kind() != kind {
		panic(fmt.Sprintf("coordinator: no %s panel", kind))
	}
	return st
}

// markDirty schedules one PanelChanged for a burst of mutations.
func (c *Coordinator) markDirty(kind panel.Kind) {
	if c.dirty[kind] {
		return
	}
	c.dirty[kind] = true
	c.dispatcher.Post(func() { c.notify(kind) })
}

func (c *Coordinator) notify(kind panel.Kind) {
	c.dirty[kind] = false
	if st := c.state(kind); st != nil {
		c.presenter.PanelChanged(kind, st.Snapshot())
	}
}

// teardown runs on the dispatcher goroutine after the last task.
func (c *Coordinator) teardown() {
	if !c.destroyed {
		c.onDestroying()
	}
	for kind, st := range c.panels {
		if st.Pending() {
			c.delegate.OnRequestAbandoned(st.Ticket())
		}
		c.finish(kind, st, ErrStopped)
	}
	c.panels = nil
}

func mustBeValid(kind panel.Kind) {
	if !kind.Valid() {
		panic(fmt.Sprintf("coordinator: invalid panel kind %d", int(kind)))
	}
}

type nopPresenter struct{}

func (nopPresenter) Init() error                             { return nil }
func (nopPresenter) Relayout(int, int)                       {}
func (nopPresenter) PanelChanged(panel.Kind, panel.Snapshot) {}
func (nopPresenter) Destroy()                                {}
