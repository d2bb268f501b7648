// Package geometry converts between pointer coordinates and logical canvas
// coordinates.
//
// There are four spaces:
//
//   - pointer space: client coordinates reported by input events
//   - scrolled space: pointer space relative to the scroll container origin,
//     plus the container's scroll offsets
//   - zoomed canvas space: identical to scrolled space; content is scaled by Zoom
//   - logical space: zoomed canvas space divided by Zoom
//
// The only origin used is the top-left corner of the scroll container's
// content box (the unscaled, unscrolled canvas root). Any centering padding
// belongs to logical space.
package geometry

import (
	"github.com/gogpu/gg"

	"layr/internal/domain"
)

// Bounds is the scroll container's bounding rect in pointer space.
type Bounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Viewport is the transform tuple consulted by every conversion.
type Viewport struct {
	Zoom       float64 `json:"zoom"`
	ScrollLeft float64 `json:"scrollLeft"`
	ScrollTop  float64 `json:"scrollTop"`
	Rect       Bounds  `json:"rect"`
}

// Matrix maps logical space to pointer space:
//
//	pointer = logical*zoom - scroll + origin
func (vp Viewport) Matrix() gg.Matrix {
	zoom := vp.Zoom
	if zoom == 0 {
		zoom = 1
	}
	return gg.Translate(vp.Rect.Left-vp.ScrollLeft, vp.Rect.Top-vp.ScrollTop).
		Multiply(gg.Scale(zoom, zoom))
}

// ToLogical converts a pointer position to logical canvas coordinates:
// (pointer - origin + scroll) / zoom.
func ToLogical(pointerX, pointerY float64, vp Viewport) domain.Point {
	p := vp.Matrix().Invert().TransformPoint(gg.Pt(pointerX, pointerY))
	return domain.Point{X: p.X, Y: p.Y}
}

// FromLogical converts logical coordinates back to pointer space.
// Used only for rendering.
func FromLogical(logical domain.Point, vp Viewport) (float64, float64) {
	p := vp.Matrix().TransformPoint(gg.Pt(logical.X, logical.Y))
	return p.X, p.Y
}

// Visible returns the logical rect currently shown in the container.
func Visible(vp Viewport) domain.Rect {
	tl := ToLogical(vp.Rect.Left, vp.Rect.Top, vp)
	br := ToLogical(vp.Rect.Left+vp.Rect.Width, vp.Rect.Top+vp.Rect.Height, vp)
	return domain.RectFromCorners(tl, br)
}

// Distance is the euclidean distance between two logical points.
func Distance(a, b domain.Point) float64 {
	return gg.Pt(a.X, a.Y).Distance(gg.Pt(b.X, b.Y))
}
