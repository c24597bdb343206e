package coordinator

// Event is a presentation-layer lifecycle notification.
type Event interface {
	event()
}

// Created is delivered once, after the dispatcher goroutine and the
// presenter's resources exist.
type Created struct{}

// Resized carries the new viewport size in logical units.
type Resized struct {
	Width  int
	Height int
}

// Closing reports that the user asked to close the browser.
type Closing struct{}

// Destroying is delivered once, before the coordinator is released.
type Destroying struct{}

func (Created) event()    {}
func (Resized) event()    {}
func (Closing) event()    {}
func (Destroying) event() {}

// Handler receives routed lifecycle events.
type Handler interface {
	OnCreated()
	OnResized(width, height int)
	OnClosing()
	OnDestroying()
}

// Route calls the Handler method matching ev. It reports false for an
// event type it does not know.
func Route(h Handler, ev Event) bool {
	switch ev := ev.(type) {
	case Created:
		h.OnCreated()
	case Resized:
		h.OnResized(ev.Width, ev.Height)
	case Closing:
		h.OnClosing()
	case Destroying:
		h.OnDestroying()
	default:
		return false
	}
	return true
}
