package coordinator

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/LFroesch/ferry/internal/logger"
	"github.com/LFroesch/ferry/internal/panel"
)

// request tracks the outstanding listing of one panel.
type request struct {
	ticket panel.Ticket
	span   trace.Span
	timer  *time.Timer
}

// handler adapts the coordinator to Handler without exporting the methods.
type handler struct{ c *Coordinator }

func (h handler) OnCreated()                  { h.c.onCreated() }
func (h handler) OnResized(width, height int) { h.c.onResized(width, height) }
func (h handler) OnClosing()                  { h.c.onClosing() }
func (h handler) OnDestroying()               { h.c.onDestroying() }

func (c *Coordinator) onCreated() {
	if c.created {
		logger.Warn("Created delivered twice, ignoring")
		return
	}
	c.created = true
	logger.Info("Browser created, requesting drives")

	for _, kind := range panel.Kinds {
		kind := kind
		c.dispatcher.Post(func() { c.requestDrives(kind) })
	}
}

func (c *Coordinator) onResized(width, height int) {
	w, h, clamped := ClampSize(width, height)
	if clamped {
		logger.Debug("Resize %dx%d below minimum, using %dx%d", width, height, w, h)
	}
	c.presenter.Relayout(w, h)
}

func (c *Coordinator) onClosing() {
	logger.Info("Close requested")
	c.delegate.OnWindowClose()
}

func (c *Coordinator) onDestroying() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.presenter.Destroy()
}

func (c *Coordinator) requestDrives(kind panel.Kind) {
	st := c.state(kind)
	if st == nil {
		return
	}
	if !st.BeginDriveRequest() {
		logger.Debug("%s drive request absorbed by pending %s listing", kind, st.Listing())
		return
	}
	c.track(kind, st, "panel.drive_list")
	c.markDirty(kind)
	c.delegate.OnDriveListRequest(st.Ticket())
}

func (c *Coordinator) requestDirectory(kind panel.Kind, path string) {
	st := c.state(kind)
	if st == nil {
		return
	}
	if !st.BeginDirectoryRequest(path) {
		logger.Debug("%s listing of %q absorbed by pending %s listing", kind, path, st.Listing())
		return
	}
	c.track(kind, st, "panel.directory_list")
	c.markDirty(kind)
	c.delegate.OnDirectoryListRequest(st.Ticket(), path)
}

// track opens a span and arms the timeout for the request st just accepted.
func (c *Coordinator) track(kind panel.Kind, st *panel.State, name string) {
	attrs := []attribute.KeyValue{attribute.String("panel.kind", kind.String())}
	if st.Listing() == panel.ListingDirectory {
		attrs = append(attrs, attribute.String("panel.path", st.Path()))
	}
	_, span := c.tracer.Start(context.Background(), name, trace.WithAttributes(attrs...))

	ticket := st.Ticket()
	c.inflight[kind] = &request{
		ticket: ticket,
		span:   span,
		timer:  c.dispatcher.PostAfter(c.requestTimeout, func() { c.expire(ticket) }),
	}
}

// finish closes the bookkeeping of kind's request, if one is tracked.
func (c *Coordinator) finish(kind panel.Kind, st *panel.State, err error) {
	req, ok := c.inflight[kind]
	if !ok {
		return
	}
	delete(c.inflight, kind)
	logger.Debug("%s finished with %d items", req.ticket, st.Len())

	req.timer.Stop()
	req.span.SetAttributes(attribute.Int("panel.items", st.Len()))
	if err != nil {
		req.span.RecordError(err)
		req.span.SetStatus(codes.Error, err.Error())
	} else {
		req.span.SetStatus(codes.Ok, "")
	}
	req.span.End()
}

// expire fails t if it is still pending. The delegate's work for t keeps
// running; whatever it delivers later no longer matches the panel.
func (c *Coordinator) expire(t panel.Ticket) {
	st := c.state(t.Kind)
	if st == nil || !st.Current(t) {
		return
	}
	logger.Warn("%s %s listing timed out after %s", t, st.Listing(), c.requestTimeout)
	st.FailRequest(ErrRequestTimeout)
	c.finish(t.Kind, st, ErrRequestTimeout)
	c.markDirty(t.Kind)
	c.delegate.OnRequestAbandoned(t)
}

// IsTimeout reports whether err is a listing timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrRequestTimeout)
}
