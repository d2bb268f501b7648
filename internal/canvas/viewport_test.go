package canvas

import (
	"testing"

	"layr/internal/domain"
	"layr/internal/geometry"
)

func TestZoomClamp(t *testing.T) {
	tests := []struct {
		name  string
		start float64
		delta float64
		want  float64
	}{
		{"default", 0, 0, DefaultZoom},
		{"step up", 1, ZoomStep, 1.1},
		{"clamped high", 2.95, 0.5, MaxZoom},
		{"clamped low", 0.3, -1, MinZoom},
		{"start below min", 0.05, 0, MinZoom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewViewportController(tt.start)
			v.ZoomBy(tt.delta, nil)
			if !approx(v.Zoom(), tt.want) {
				t.Errorf("zoom = %v, want %v", v.Zoom(), tt.want)
			}
		})
	}
}

func TestZoomAnchorKeepsPointFixed(t *testing.T) {
	v := NewViewportController(1)
	v.SetRect(geometry.Bounds{Left: 30, Top: 50, Width: 800, Height: 600})
	v.SyncScroll(120, 80)
	anchor := domain.Point{X: 400, Y: 300}
	before := geometry.ToLogical(anchor.X, anchor.Y, v.Viewport())

	for _, d := range []float64{0.7, -1.2, 0.35} {
		v.ZoomBy(d, &anchor)
		after := geometry.ToLogical(anchor.X, anchor.Y, v.Viewport())
		if !approx(after.X, before.X) || !approx(after.Y, before.Y) {
			t.Fatalf("zoom %v: anchor moved from %v to %v", v.Zoom(), before, after)
		}
	}
}

func TestZoomAtLimitIsNoop(t *testing.T) {
	v := NewViewportController(MaxZoom)
	v.SyncScroll(10, 10)
	if v.ZoomBy(1, &domain.Point{X: 500, Y: 500}) {
		t.Error("ZoomBy at the limit reported a change")
	}
	if l, top := v.Scroll(); l != 10 || top != 10 {
		t.Errorf("scroll changed to (%v,%v)", l, top)
	}
}

func TestPanToWithoutBeginIsIgnored(t *testing.T) {
	v := NewViewportController(1)
	v.PanTo(domain.Point{X: 100, Y: 100})
	if l, top := v.Scroll(); l != 0 || top != 0 {
		t.Errorf("scroll = (%v,%v)", l, top)
	}
}

func TestCenterOn(t *testing.T) {
	v := NewViewportController(2)
	v.SetRect(geometry.Bounds{Width: 1000, Height: 800})
	v.CenterOn(domain.Rect{X: 0, Y: 0, Width: 375, Height: 812})
	l, top := v.Scroll()
	if l != 375-500 || top != 812-400 {
		t.Errorf("scroll = (%v,%v)", l, top)
	}
}

func TestParseTool(t *testing.T) {
	tests := []struct {
		in   string
		want Tool
		ok   bool
	}{
		{"cursor", Cursor, true},
		{"Hand", Hand, true},
		{"pen", Pen, true},
		{"eraser", Eraser, true},
		{"text", Text, true},
		{"shape:circle", ShapeTool(domain.ShapeCircle), true},
		{"rectangle", ShapeTool(domain.ShapeRectangle), true},
		{"triangle", ShapeTool(domain.ShapeTriangle), true},
		{"lasso", Tool{}, false},
	}
	for _, tt := range tests {
		got, err := ParseTool(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseTool(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestDocumentHitTestPrefersActive(t *testing.T) {
	d := NewDocument(domain.PlatformMobile)
	d.AddFrame("a", "A")
	d.AddFrame("b", "B")
	d.MoveFrame(1, domain.Point{X: 100, Y: 100})
	d.Select(0)
	if i, ok := d.HitTest(domain.Point{X: 150, Y: 150}); !ok || i != 0 {
		t.Errorf("hit = %d, %v; want active frame 0", i, ok)
	}
	d.Select(-1)
	if i, _ := d.HitTest(domain.Point{X: 150, Y: 150}); i != 1 {
		t.Errorf("hit = %d; want later frame 1", i)
	}
	if _, ok := d.HitTest(domain.Point{X: -5, Y: 0}); ok {
		t.Error("hit outside every frame")
	}
}
