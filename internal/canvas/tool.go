package canvas

import (
	"fmt"
	"strings"

	"layr/internal/domain"
)

type ToolKind string

const (
	ToolCursor ToolKind = "cursor"
	ToolHand   ToolKind = "hand"
	ToolPen    ToolKind = "pen"
	ToolEraser ToolKind = "eraser"
	ToolShape  ToolKind = "shape"
	ToolText   ToolKind = "text"
)

// Tool is the single active tool. Shape is set only when Kind is ToolShape.
type Tool struct {
	Kind  ToolKind         `json:"kind"`
	Shape domain.ShapeKind `json:"shape,omitempty"`
}

var (
	Cursor = Tool{Kind: ToolCursor}
	Hand   = Tool{Kind: ToolHand}
	Pen    = Tool{Kind: ToolPen}
	Eraser = Tool{Kind: ToolEraser}
	Text   = Tool{Kind: ToolText}
)

func ShapeTool(kind domain.ShapeKind) Tool {
	return Tool{Kind: ToolShape, Shape: kind}
}

// Annotating reports whether the tool draws on the annotation layer.
func (t Tool) Annotating() bool {
	switch t.Kind {
	case ToolPen, ToolEraser, ToolShape, ToolText:
		return true
	}
	return false
}

func (t Tool) String() string {
	if t.Kind == ToolShape {
		return string(t.Kind) + ":" + string(t.Shape)
	}
	return string(t.Kind)
}

// ParseTool accepts "cursor", "hand", "pen", "eraser", "text", "shape:<kind>"
// and the bare shape names "rect", "circle" and "triangle".
func ParseTool(s string) (Tool, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch ToolKind(s) {
	case ToolCursor, "select", "":
		return Cursor, nil
	case ToolHand, "pan":
		return Hand, nil
	case ToolPen:
		return Pen, nil
	case ToolEraser:
		return Eraser, nil
	case ToolText:
		return Text, nil
	}
	name := strings.TrimPrefix(s, string(ToolShape)+":")
	if kind, ok := domain.ParseShapeKind(name); ok {
		return ShapeTool(kind), nil
	}
	return Tool{}, fmt.Errorf("unknown tool %q", s)
}
