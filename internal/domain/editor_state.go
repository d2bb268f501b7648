package domain

// EditorState is the complete state of an open project for rendering.
// Returned to the frontend after every input event.
type EditorState struct {
	ProjectID   string        `json:"projectId"`
	Name        string        `json:"name"`
	Frames      []ScreenFrame `json:"frames"`
	Annotations Annotations   `json:"annotations"`
	Active      int           `json:"active"`
	// RenderOrder lists frame indices bottom to top; ZIndex is per frame.
	RenderOrder []int    `json:"renderOrder"`
	ZIndex      []int    `json:"zIndex"`
	Zoom        float64  `json:"zoom"`
	ScrollLeft  float64  `json:"scrollLeft"`
	ScrollTop   float64  `json:"scrollTop"`
	Tool        string   `json:"tool"`
	Color       string   `json:"color"`
	StrokeWidth float64  `json:"strokeWidth"`
	Platform    Platform `json:"platform"`

	Dragging     bool    `json:"dragging"`
	Panning      bool    `json:"panning"`
	Generating   bool    `json:"generating"`
	CanUndo      bool    `json:"canUndo"`
	ShapePreview *Shape  `json:"shapePreview,omitempty"`
	EraserMark   *Stroke `json:"eraserMark,omitempty"`
}
