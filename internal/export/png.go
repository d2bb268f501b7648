package export

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"layr/internal/domain"
)

const (
	overviewMargin = 40.0
	// MaxOverviewSide caps the rendered image in pixels.
	MaxOverviewSide = 4096
)

var ErrEmptyCanvas = errors.New("nothing to export")

// Overview describes a rendered canvas overview.
type Overview struct {
	Width  int
	Height int
	Scale  float64
	// Origin is the logical point drawn at the image's top-left margin.
	Origin domain.Point
}

// Extent returns the logical box covering every frame and annotation.
func Extent(data domain.ProjectData) (domain.Rect, bool) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	grow := func(x, y float64) {
		minX, minY = math.Min(minX, x), math.Min(minY, y)
		maxX, maxY = math.Max(maxX, x), math.Max(maxY, y)
	}
	for _, f := range data.Screens {
		r := f.Bounds()
		grow(r.X, r.Y)
		grow(r.X+r.Width, r.Y+r.Height)
	}
	for _, s := range data.Annotations.Strokes {
		if s.IsEraserMark {
			continue
		}
		for _, p := range s.Points {
			grow(p.X, p.Y)
		}
	}
	for _, s := range data.Annotations.Shapes {
		grow(s.X, s.Y)
		grow(s.X+s.Width, s.Y+s.Height)
	}
	for _, l := range data.Annotations.Labels {
		grow(l.X, l.Y)
		grow(l.X+float64(len(l.Text)*7), l.Y+13)
	}
	if math.IsInf(minX, 1) {
		return domain.Rect{}, false
	}
	return domain.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}

// OverviewPNG draws frame outlines with their names plus the annotation layer
// and writes a PNG. Frame contents are not rasterized. scale is pixels per
// logical unit and is reduced when the image would exceed MaxOverviewSide.
func OverviewPNG(w io.Writer, data domain.ProjectData, scale float64) (Overview, error) {
	ext, ok := Extent(data)
	if !ok {
		return Overview{}, ErrEmptyCanvas
	}
	if scale <= 0 {
		scale = 0.25
	}
	longest := math.Max(ext.Width, ext.Height)*scale + 2*overviewMargin
	if longest > MaxOverviewSide {
		scale = (MaxOverviewSide - 2*overviewMargin) / math.Max(ext.Width, ext.Height)
	}
	ov := Overview{
		Width:  pixels(ext.Width*scale + 2*overviewMargin),
		Height: pixels(ext.Height*scale + 2*overviewMargin),
		Scale:  scale,
		Origin: domain.Point{X: ext.X, Y: ext.Y},
	}

	dc := gg.NewContext(ov.Width, ov.Height)
	defer dc.Close()
	dc.SetHexColor("#050505")
	dc.DrawRectangle(0, 0, float64(ov.Width), float64(ov.Height))
	if err := dc.Fill(); err != nil {
		return ov, fmt.Errorf("fill background: %w", err)
	}

	dc.Translate(overviewMargin, overviewMargin)
	dc.Scale(scale, scale)
	dc.Translate(-ext.X, -ext.Y)

	if err := drawFrames(dc, data.Screens, scale); err != nil {
		return ov, err
	}
	if err := drawAnnotations(dc, data.Annotations, scale); err != nil {
		return ov, err
	}

	img := image.NewRGBA(image.Rect(0, 0, ov.Width, ov.Height))
	draw.Draw(img, img.Bounds(), dc.Image(), image.Point{}, draw.Src)
	drawText(img, data, ov)

	if err := png.Encode(w, img); err != nil {
		return ov, fmt.Errorf("encode png: %w", err)
	}
	return ov, nil
}

// pixels rounds up, ignoring float noise from the scale division.
func pixels(v float64) int {
	return int(math.Ceil(v - 1e-6))
}

func drawFrames(dc *gg.Context, frames []domain.ScreenFrame, scale float64) error {
	for _, f := range frames {
		r := f.Bounds()
		dc.SetHexColor("#1a1a1a")
		dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("fill frame %s: %w", f.ID, err)
		}
		dc.SetHexColor("#333333")
		dc.SetLineWidth(2 / scale)
		dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
		if err := dc.Stroke(); err != nil {
			return fmt.Errorf("stroke frame %s: %w", f.ID, err)
		}
	}
	return nil
}

func drawAnnotations(dc *gg.Context, a domain.Annotations, scale float64) error {
	for _, s := range a.Strokes {
		if s.IsEraserMark || len(s.Points) == 0 {
			continue
		}
		dc.SetHexColor(s.Color)
		dc.SetLineWidth(s.StrokeWidth)
		if len(s.Points) == 1 {
			dc.DrawCircle(s.Points[0].X, s.Points[0].Y, s.StrokeWidth/2)
			if err := dc.Fill(); err != nil {
				return fmt.Errorf("draw dot %s: %w", s.ID, err)
			}
			continue
		}
		dc.MoveTo(s.Points[0].X, s.Points[0].Y)
		for _, p := range s.Points[1:] {
			dc.LineTo(p.X, p.Y)
		}
		if err := dc.Stroke(); err != nil {
			return fmt.Errorf("draw stroke %s: %w", s.ID, err)
		}
	}
	for _, s := range a.Shapes {
		dc.SetHexColor(s.Color)
		dc.SetLineWidth(2 / scale)
		switch s.Kind {
		case domain.ShapeCircle:
			dc.DrawEllipse(s.X+s.Width/2, s.Y+s.Height/2, s.Width/2, s.Height/2)
		case domain.ShapeTriangle:
			dc.MoveTo(s.X+s.Width/2, s.Y)
			dc.LineTo(s.X+s.Width, s.Y+s.Height)
			dc.LineTo(s.X, s.Y+s.Height)
			dc.ClosePath()
		default:
			dc.DrawRectangle(s.X, s.Y, s.Width, s.Height)
		}
		if err := dc.Stroke(); err != nil {
			return fmt.Errorf("draw shape %s: %w", s.ID, err)
		}
	}
	return nil
}

// drawText writes frame names and labels at device scale with the 7x13
// bitmap face so text stays legible at any overview scale.
func drawText(img *image.RGBA, data domain.ProjectData, ov Overview) {
	d := &font.Drawer{Dst: img, Face: basicfont.Face7x13}
	at := func(x, y float64) fixed.Point26_6 {
		px := (x-ov.Origin.X)*ov.Scale + overviewMargin
		py := (y-ov.Origin.Y)*ov.Scale + overviewMargin
		return fixed.P(int(px), int(py))
	}
	d.Src = image.NewUniform(gg.Hex("#a3a3a3").Color())
	for _, f := range data.Screens {
		d.Dot = at(f.X, f.Y)
		d.Dot.Y -= fixed.I(4)
		d.DrawString(f.Name)
	}
	d.Src = image.White
	for _, l := range data.Annotations.Labels {
		d.Dot = at(l.X, l.Y)
		d.Dot.Y += fixed.I(13)
		d.DrawString(l.Text)
	}
}
