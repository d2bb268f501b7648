package canvas

import (
	"layr/internal/domain"
	"layr/internal/geometry"
)

const (
	DefaultZoom = 0.85
	MinZoom     = 0.2
	MaxZoom     = 3.0
	ZoomStep    = 0.1
	// WheelZoomFactor converts a modified wheel delta into a zoom delta.
	WheelZoomFactor = 0.005
)

// ViewportController owns zoom and scroll. Zoom is authoritative here; scroll
// mirrors the host's native scroll position.
type ViewportController struct {
	zoom       float64
	scrollLeft float64
	scrollTop  float64
	rect       geometry.Bounds

	panning     bool
	panStart    domain.Point
	scrollStart domain.Point
}

func NewViewportController(zoom float64) *ViewportController {
	if zoom == 0 {
		zoom = DefaultZoom
	}
	return &ViewportController{zoom: clampZoom(zoom)}
}

func clampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

// Viewport returns the transform tuple for coordinate conversion.
func (v *ViewportController) Viewport() geometry.Viewport {
	return geometry.Viewport{
		Zoom:       v.zoom,
		ScrollLeft: v.scrollLeft,
		ScrollTop:  v.scrollTop,
		Rect:       v.rect,
	}
}

func (v *ViewportController) Zoom() float64 { return v.zoom }

func (v *ViewportController) Scroll() (float64, float64) { return v.scrollLeft, v.scrollTop }

// SetRect records the scroll container's bounding rect in pointer space.
func (v *ViewportController) SetRect(b geometry.Bounds) { v.rect = b }

// SyncScroll records a scroll position reported by the host (scrollbars,
// unmodified wheel).
func (v *ViewportController) SyncScroll(left, top float64) {
	v.scrollLeft, v.scrollTop = left, top
}

// ZoomBy changes zoom by delta, clamped to [MinZoom, MaxZoom]. With an anchor
// pointer, the logical point under the anchor stays where it is.
func (v *ViewportController) ZoomBy(delta float64, anchor *domain.Point) bool {
	return v.SetZoom(v.zoom+delta, anchor)
}

func (v *ViewportController) SetZoom(z float64, anchor *domain.Point) bool {
	z = clampZoom(z)
	if z == v.zoom {
		return false
	}
	if anchor == nil {
		v.zoom = z
		return true
	}
	fixed := geometry.ToLogical(anchor.X, anchor.Y, v.Viewport())
	v.zoom = z
	v.scrollLeft = fixed.X*z - (anchor.X - v.rect.Left)
	v.scrollTop = fixed.Y*z - (anchor.Y - v.rect.Top)
	return true
}

// Wheel handles a wheel event. A modified wheel zooms around the pointer;
// otherwise the deltas scroll natively.
func (v *ViewportController) Wheel(ev WheelEvent) {
	if ev.Ctrl || ev.Meta {
		v.ZoomBy(-ev.DeltaY*WheelZoomFactor, &domain.Point{X: ev.X, Y: ev.Y})
		return
	}
	v.scrollLeft += ev.DeltaX
	v.scrollTop += ev.DeltaY
}

// BeginPan records the pointer and scroll offsets at pan start.
func (v *ViewportController) BeginPan(pointer domain.Point) {
	v.panning = true
	v.panStart = pointer
	v.scrollStart = domain.Point{X: v.scrollLeft, Y: v.scrollTop}
}

// PanTo sets scroll from the total delta since BeginPan, never incrementally.
func (v *ViewportController) PanTo(pointer domain.Point) {
	if !v.panning {
		return
	}
	d := pointer.Sub(v.panStart)
	v.scrollLeft = v.scrollStart.X - d.X
	v.scrollTop = v.scrollStart.Y - d.Y
}

func (v *ViewportController) EndPan() { v.panning = false }

func (v *ViewportController) Panning() bool { return v.panning }

// CenterOn scrolls so the logical rect sits in the middle of the container.
func (v *ViewportController) CenterOn(r domain.Rect) {
	cx := (r.X + r.Width/2) * v.zoom
	cy := (r.Y + r.Height/2) * v.zoom
	v.scrollLeft = cx - v.rect.Width/2
	v.scrollTop = cy - v.rect.Height/2
}
