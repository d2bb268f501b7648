package mcpserver

import (
	"math"

	"layr/internal/domain"
)

const (
	GridSize = 30.0
	Padding  = 60.0 // 2 grid cells between frames
	MaxRowW  = 6000.0
)

// LayoutEngine places frames added by agents so they don't overlap the
// frames already on the canvas.
type LayoutEngine struct {
	gridSize float64
	padding  float64
	maxRowW  float64
}

func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{
		gridSize: GridSize,
		padding:  Padding,
		maxRowW:  MaxRowW,
	}
}

// snap rounds v to the nearest grid point.
func (le *LayoutEngine) snap(v float64) float64 {
	return math.Round(v/le.gridSize) * le.gridSize
}

type rect struct {
	x, y, w, h float64
}

func (a rect) intersects(b rect) bool {
	return a.x < b.x+b.w && a.x+a.w > b.x &&
		a.y < b.y+b.h && a.y+a.h > b.y
}

func frameRect(f domain.ScreenFrame) rect {
	b := f.Bounds()
	return rect{b.X, b.Y, b.Width, b.Height}
}

// NextPosition finds the first free grid position, scanning rows top to
// bottom, for a frame of size (w, h).
func (le *LayoutEngine) NextPosition(existing []domain.ScreenFrame, w, h float64) domain.Point {
	if len(existing) == 0 {
		return domain.Point{}
	}

	occupied := make([]rect, len(existing))
	minX, minY := math.Inf(1), math.Inf(1)
	for i, f := range existing {
		occupied[i] = frameRect(f)
		minX = math.Min(minX, f.X)
		minY = math.Min(minY, f.Y)
	}
	originX, originY := le.snap(minX), le.snap(minY)

	candidate := rect{w: w, h: h}
	for y := originY; y < originY+100000; y += le.gridSize {
		for x := originX; x < originX+le.maxRowW; x += le.gridSize {
			candidate.x = le.snap(x)
			candidate.y = le.snap(y)

			overlaps := false
			for _, occ := range occupied {
				padded := rect{
					x: occ.x - le.padding,
					y: occ.y - le.padding,
					w: occ.w + le.padding*2,
					h: occ.h + le.padding*2,
				}
				if candidate.intersects(padded) {
					overlaps = true
					break
				}
			}
			if !overlaps {
				return domain.Point{X: candidate.x, Y: candidate.y}
			}
		}
	}

	maxY := 0.0
	for _, r := range occupied {
		maxY = math.Max(maxY, r.y+r.h)
	}
	return domain.Point{X: originX, Y: le.snap(maxY + le.padding)}
}

// Arrange lays frames out in rows from start, wrapping at the row width, and
// returns one position per frame. Frames themselves are not modified.
func (le *LayoutEngine) Arrange(frames []domain.ScreenFrame, start domain.Point, columns int) []domain.Point {
	out := make([]domain.Point, len(frames))
	x, y := le.snap(start.X), le.snap(start.Y)
	rowHeight := 0.0
	inRow := 0

	for i, f := range frames {
		b := f.Bounds()
		wrap := inRow > 0 && (x+b.Width > le.snap(start.X)+le.maxRowW || (columns > 0 && inRow == columns))
		if wrap {
			x = le.snap(start.X)
			y += le.snap(rowHeight + le.padding)
			rowHeight = 0
			inRow = 0
		}
		out[i] = domain.Point{X: x, Y: y}
		rowHeight = math.Max(rowHeight, b.Height)
		x += le.snap(b.Width + le.padding)
		inRow++
	}
	return out
}
