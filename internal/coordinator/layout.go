package coordinator

// Viewport policy, in logical units. The presenter must not lay the browser
// out below the minimum.
const (
	MinWidth      = 500
	MinHeight     = 400
	DefaultWidth  = 800
	DefaultHeight = 600
)

// ClampSize raises width and height to the minimum viewport. clamped is
// true when either value changed.
func ClampSize(width, height int) (w, h int, clamped bool) {
	w, h = width, height
	if w < MinWidth {
		w = MinWidth
		clamped = true
	}
	if h < MinHeight {
		h = MinHeight
		clamped = true
	}
	return w, h, clamped
}
