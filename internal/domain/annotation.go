package domain

type ShapeKind string

const (
	ShapeRectangle ShapeKind = "rect"
	ShapeCircle    ShapeKind = "circle"
	ShapeTriangle  ShapeKind = "triangle"
)

// ParseShapeKind accepts the short and long spellings used by clients.
func ParseShapeKind(s string) (ShapeKind, bool) {
	switch s {
	case "rect", "rectangle":
		return ShapeRectangle, true
	case "circle", "ellipse":
		return ShapeCircle, true
	case "triangle":
		return ShapeTriangle, true
	}
	return "", false
}

// Stroke is one freehand pen or eraser gesture.
type Stroke struct {
	ID           string  `json:"id"`
	Color        string  `json:"color"`
	StrokeWidth  float64 `json:"strokeWidth"`
	IsEraserMark bool    `json:"isEraser,omitempty"`
	Points       []Point `json:"points"`
}

type Shape struct {
	ID    string    `json:"id"`
	Kind  ShapeKind `json:"kind"`
	Color string    `json:"color"`
	Rect
}

type TextLabel struct {
	ID   string  `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// Annotations is the drawing layer over the canvas.
type Annotations struct {
	Strokes []Stroke    `json:"strokes,omitempty"`
	Shapes  []Shape     `json:"shapes,omitempty"`
	Labels  []TextLabel `json:"labels,omitempty"`
}

// Clone returns a deep copy that shares no slices with a.
func (a Annotations) Clone() Annotations {
	out := Annotations{
		Shapes: append([]Shape(nil), a.Shapes...),
		Labels: append([]TextLabel(nil), a.Labels...),
	}
	if a.Strokes != nil {
		out.Strokes = make([]Stroke, len(a.Strokes))
		for i, s := range a.Strokes {
			s.Points = append([]Point(nil), s.Points...)
			out.Strokes[i] = s
		}
	}
	return out
}

func (a Annotations) Empty() bool {
	return len(a.Strokes) == 0 && len(a.Shapes) == 0 && len(a.Labels) == 0
}
