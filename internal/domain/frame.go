package domain

import "fmt"

type Platform string

const (
	PlatformMobile  Platform = "mobile"
	PlatformDesktop Platform = "desktop"
	PlatformGeneral Platform = "general"
)

// Size is a frame size in logical canvas units.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// platformSizes must match the exported artifact sizes exactly.
var platformSizes = map[Platform]Size{
	PlatformMobile:  {Width: 375, Height: 812},
	PlatformDesktop: {Width: 1440, Height: 900},
	PlatformGeneral: {Width: 1200, Height: 800},
}

// ParsePlatform validates a platform name.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(s)
	if _, ok := platformSizes[p]; !ok {
		return "", fmt.Errorf("unknown platform %q", s)
	}
	return p, nil
}

// Size returns the preset dimensions. Unknown platforms fall back to mobile.
func (p Platform) Size() Size {
	if s, ok := platformSizes[p]; ok {
		return s
	}
	return platformSizes[PlatformMobile]
}

// Point is a position in logical canvas space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// ScreenFrame is one placed mockup screen.
// Position is in logical canvas coordinates: not scaled by zoom, not offset by scroll.
type ScreenFrame struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Content  string   `json:"rawHtml"`
	Type     string   `json:"type"`
	Platform Platform `json:"platform,omitempty"`
	Width    float64  `json:"width,omitempty"`
	Height   float64  `json:"height"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	// FilePath links the frame to an HTML file that is reloaded on change.
	FilePath string `json:"filePath,omitempty"`
}

func (f ScreenFrame) Position() Point { return Point{X: f.X, Y: f.Y} }

// Bounds returns the frame's logical bounding box.
func (f ScreenFrame) Bounds() Rect {
	w := f.Width
	if w == 0 {
		w = f.Platform.Size().Width
	}
	return Rect{X: f.X, Y: f.Y, Width: w, Height: f.Height}
}

// Rect is an axis-aligned box in logical canvas space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// RectFromCorners builds a normalized box from two corners in any order.
func RectFromCorners(a, b Point) Rect {
	r := Rect{X: a.X, Y: a.Y, Width: b.X - a.X, Height: b.Y - a.Y}
	if r.Width < 0 {
		r.X, r.Width = b.X, -r.Width
	}
	if r.Height < 0 {
		r.Y, r.Height = b.Y, -r.Height
	}
	return r
}
