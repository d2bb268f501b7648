// Package annotate implements the drawing layer: freehand pen strokes,
// whole-stroke erasing, drag-to-create shapes and point text labels.
//
// All coordinates are logical canvas coordinates; callers convert pointer
// positions with geometry.ToLogical before handing them over.
package annotate

import (
	"fmt"

	"github.com/google/uuid"

	"layr/internal/domain"
	"layr/internal/geometry"
)

const (
	DefaultColor       = "#3b82f6"
	DefaultStrokeWidth = 4.0
	// ShapeThreshold is the minimum committed shape width and height.
	ShapeThreshold = 5.0
	// EraseRadiusFactor scales the eraser's stroke width into its hit radius.
	EraseRadiusFactor = 2.0
	PlaceholderText   = "Text"
)

// Settings are applied to new strokes and shapes at creation time only.
type Settings struct {
	Color       string  `json:"color"`
	StrokeWidth float64 `json:"strokeWidth"`
}

func DefaultSettings() Settings {
	return Settings{Color: DefaultColor, StrokeWidth: DefaultStrokeWidth}
}

// Engine owns a layer and creates gestures against it.
type Engine struct {
	layer    *domain.Annotations
	settings Settings
	newID    func() string
}

// New creates an engine editing layer in place.
func New(layer *domain.Annotations) *Engine {
	return &Engine{
		layer:    layer,
		settings: DefaultSettings(),
		newID:    func() string { return uuid.New().String() },
	}
}

// Reset points the engine at a different layer (after undo or load).
func (e *Engine) Reset(layer *domain.Annotations) { e.layer = layer }

func (e *Engine) Layer() *domain.Annotations { return e.layer }

func (e *Engine) Settings() Settings { return e.settings }

// SetColor never alters existing strokes or shapes.
func (e *Engine) SetColor(color string) {
	if color != "" {
		e.settings.Color = color
	}
}

func (e *Engine) SetStrokeWidth(w float64) {
	if w > 0 {
		e.settings.StrokeWidth = w
	}
}

// Gesture is one press-move-release interaction on the layer.
type Gesture interface {
	Move(p domain.Point)
	// End finishes the gesture and reports whether the layer changed.
	End() bool
}

// ── Pen ─────────────────────────────────────────────────────

// PenGesture finds its stroke by ID on every move, so strokes removed or
// reordered by other edits mid-gesture never misdirect samples.
type PenGesture struct {
	e  *Engine
	id string
}

// BeginStroke opens a new stroke at p.
func (e *Engine) BeginStroke(p domain.Point) *PenGesture {
	id := e.newID()
	e.layer.Strokes = append(e.layer.Strokes, domain.Stroke{
		ID:          id,
		Color:       e.settings.Color,
		StrokeWidth: e.settings.StrokeWidth,
		Points:      []domain.Point{p},
	})
	return &PenGesture{e: e, id: id}
}

func (g *PenGesture) stroke() *domain.Stroke {
	for i := range g.e.layer.Strokes {
		if g.e.layer.Strokes[i].ID == g.id {
			return &g.e.layer.Strokes[i]
		}
	}
	return nil
}

// Move appends a raw sample. No resampling or smoothing. Once the stroke has
// been erased or cleared, further samples are dropped.
func (g *PenGesture) Move(p domain.Point) {
	if s := g.stroke(); s != nil {
		s.Points = append(s.Points, p)
	}
}

// End reports a change only while the stroke still exists.
func (g *PenGesture) End() bool { return g.stroke() != nil }

// ── Eraser ──────────────────────────────────────────────────

type EraserGesture struct {
	e      *Engine
	radius float64
	mark   domain.Stroke
	erased int
}

// BeginErase starts erasing at p. The radius is fixed for the gesture.
func (e *Engine) BeginErase(p domain.Point) *EraserGesture {
	g := &EraserGesture{
		e:      e,
		radius: e.settings.StrokeWidth * EraseRadiusFactor,
		mark: domain.Stroke{
			ID:           e.newID(),
			Color:        "transparent",
			StrokeWidth:  e.settings.StrokeWidth,
			IsEraserMark: true,
		},
	}
	g.Move(p)
	return g
}

// Move removes every non-eraser stroke with a point within the radius of p.
func (g *EraserGesture) Move(p domain.Point) {
	g.mark.Points = append(g.mark.Points, p)
	strokes := g.e.layer.Strokes
	kept := strokes[:0]
	for _, s := range strokes {
		if !s.IsEraserMark && strokeNear(s, p, g.radius) {
			g.erased++
			continue
		}
		kept = append(kept, s)
	}
	g.e.layer.Strokes = kept
}

// Mark is the live eraser cursor path. It is never stored in the layer.
func (g *EraserGesture) Mark() domain.Stroke {
	m := g.mark
	m.Points = append([]domain.Point(nil), g.mark.Points...)
	return m
}

func (g *EraserGesture) Erased() int { return g.erased }

func (g *EraserGesture) End() bool { return g.erased > 0 }

func strokeNear(s domain.Stroke, p domain.Point, radius float64) bool {
	for _, q := range s.Points {
		if geometry.Distance(p, q) <= radius {
			return true
		}
	}
	return false
}

// EraseAt removes strokes near p in one shot and returns how many were removed.
func (e *Engine) EraseAt(p domain.Point) int {
	g := e.BeginErase(p)
	g.End()
	return g.erased
}

// ── Shapes ──────────────────────────────────────────────────

type ShapeGesture struct {
	e       *Engine
	kind    domain.ShapeKind
	anchor  domain.Point
	preview domain.Rect
}

func (e *Engine) BeginShape(kind domain.ShapeKind, p domain.Point) *ShapeGesture {
	return &ShapeGesture{e: e, kind: kind, anchor: p, preview: domain.Rect{X: p.X, Y: p.Y}}
}

// Move recomputes the preview box; any drag direction works.
func (g *ShapeGesture) Move(p domain.Point) {
	g.preview = domain.RectFromCorners(g.anchor, p)
}

func (g *ShapeGesture) Kind() domain.ShapeKind { return g.kind }

func (g *ShapeGesture) Preview() domain.Rect { return g.preview }

// End commits the shape when both sides exceed ShapeThreshold and discards it
// silently otherwise.
func (g *ShapeGesture) End() bool {
	if g.preview.Width <= ShapeThreshold || g.preview.Height <= ShapeThreshold {
		return false
	}
	g.e.layer.Shapes = append(g.e.layer.Shapes, domain.Shape{
		ID:    g.e.newID(),
		Kind:  g.kind,
		Color: g.e.settings.Color,
		Rect:  g.preview,
	})
	return true
}

// AddShape commits a shape directly, applying the same threshold.
func (e *Engine) AddShape(kind domain.ShapeKind, r domain.Rect) (domain.Shape, bool) {
	g := e.BeginShape(kind, domain.Point{X: r.X, Y: r.Y})
	g.Move(domain.Point{X: r.X + r.Width, Y: r.Y + r.Height})
	if !g.End() {
		return domain.Shape{}, false
	}
	return e.layer.Shapes[len(e.layer.Shapes)-1], true
}

// ── Text ────────────────────────────────────────────────────

// PlaceLabel creates a label with placeholder text at p and returns it as the
// focus target for inline editing.
func (e *Engine) PlaceLabel(p domain.Point) domain.TextLabel {
	l := domain.TextLabel{ID: e.newID(), X: p.X, Y: p.Y, Text: PlaceholderText}
	e.layer.Labels = append(e.layer.Labels, l)
	return l
}

func (e *Engine) EditLabel(id, text string) error {
	for i := range e.layer.Labels {
		if e.layer.Labels[i].ID == id {
			e.layer.Labels[i].Text = text
			return nil
		}
	}
	return fmt.Errorf("label %s not found", id)
}

func (e *Engine) RemoveLabel(id string) error {
	for i := range e.layer.Labels {
		if e.layer.Labels[i].ID == id {
			e.layer.Labels = append(e.layer.Labels[:i], e.layer.Labels[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("label %s not found", id)
}

// AddStroke stores a complete stroke, e.g. one drawn by an agent.
func (e *Engine) AddStroke(points []domain.Point) (domain.Stroke, error) {
	if len(points) == 0 {
		return domain.Stroke{}, fmt.Errorf("stroke needs at least one point")
	}
	g := e.BeginStroke(points[0])
	for _, p := range points[1:] {
		g.Move(p)
	}
	return *g.stroke(), nil
}

// Clear removes everything from the layer.
func (e *Engine) Clear() {
	*e.layer = domain.Annotations{}
}
