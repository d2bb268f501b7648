package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"layr/internal/canvas"
	"layr/internal/domain"
)

func (s *Server) registerDrawingTools() {
	s.mcp.AddTool(mcp.NewTool("draw_stroke",
		mcp.WithDescription("Draw a freehand pen stroke on the annotation layer (undoable)"),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
		mcp.WithString("points", mcp.Description(`JSON array of logical points, e.g. [[10,20],[30,40]]`), mcp.Required()),
		mcp.WithString("color", mcp.Description("Stroke color, e.g. #ef4444 (also becomes the current ink)")),
		mcp.WithNumber("strokeWidth", mcp.Description("Stroke width in logical pixels")),
	), s.handleDrawStroke)

	s.mcp.AddTool(mcp.NewTool("draw_shape",
		mcp.WithDescription("Draw a rectangle, circle or triangle outline (both sides must exceed 5 units)"),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
		mcp.WithString("kind", mcp.Description("rect, circle or triangle"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("Left edge"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("Top edge"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("Width"), mcp.Required()),
		mcp.WithNumber("height", mcp.Description("Height"), mcp.Required()),
		mcp.WithString("color", mcp.Description("Outline color (also becomes the current ink)")),
	), s.handleDrawShape)

	s.mcp.AddTool(mcp.NewTool("add_label",
		mcp.WithDescription("Place a text label at a logical point"),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
		mcp.WithNumber("x", mcp.Description("Logical X"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("Logical Y"), mcp.Required()),
		mcp.WithString("text", mcp.Description("Label text"), mcp.Required()),
	), s.handleAddLabel)

	s.mcp.AddTool(mcp.NewTool("edit_label",
		mcp.WithDescription("Change the text of a label. Empty text removes it."),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
		mcp.WithString("labelId", mcp.Description("Label ID"), mcp.Required()),
		mcp.WithString("text", mcp.Description("New text")),
	), s.handleEditLabel)

	s.mcp.AddTool(mcp.NewTool("erase_at",
		mcp.WithDescription("Erase every stroke passing near a logical point"),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
		mcp.WithNumber("x", mcp.Description("Logical X"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("Logical Y"), mcp.Required()),
	), s.handleEraseAt)

	s.mcp.AddTool(mcp.NewTool("clear_annotations",
		mcp.WithDescription("Remove all strokes, shapes and labels. Requires user approval."),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleClearAnnotations)
}

// applyInk sets the session's ink from optional color/strokeWidth args.
func applyInk(sess *canvas.Session, args map[string]any) {
	if c := getString(args, "color"); c != "" {
		sess.SetColor(c)
	}
	if w := getFloat(args, "strokeWidth", 0); w > 0 {
		sess.SetStrokeWidth(w)
	}
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleDrawStroke(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	points, err := parsePoints(getString(args, "points"))
	if err != nil {
		return nil, err
	}
	sess, err := s.session(args)
	if err != nil {
		return nil, err
	}
	applyInk(sess, args)
	st, err := sess.AddStroke(points)
	if err != nil {
		return nil, err
	}
	s.emitActivity(ctx, sess.ProjectID(), "draw_stroke")
	return jsonResult(map[string]any{"id": st.ID, "points": len(st.Points), "color": st.Color})
}

func (s *Server) handleDrawShape(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	kind, ok := domain.ParseShapeKind(getString(args, "kind"))
	if !ok {
		return nil, fmt.Errorf("kind must be rect, circle or triangle")
	}
	sess, err := s.session(args)
	if err != nil {
		return nil, err
	}
	applyInk(sess, args)
	r := domain.Rect{
		X:      getFloat(args, "x", 0),
		Y:      getFloat(args, "y", 0),
		Width:  getFloat(args, "width", 0),
		Height: getFloat(args, "height", 0),
	}
	sh, ok := sess.AddShape(kind, r)
	if !ok {
		return nil, fmt.Errorf("shape too small: %.0fx%.0f", r.Width, r.Height)
	}
	s.emitActivity(ctx, sess.ProjectID(), "draw_shape")
	return jsonResult(sh)
}

func (s *Server) handleAddLabel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	text := getString(args, "text")
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}
	p, ok := getPoint(args)
	if !ok {
		return nil, fmt.Errorf("x and y are required")
	}
	sess, err := s.session(args)
	if err != nil {
		return nil, err
	}
	l := sess.AddLabel(p, text)
	s.emitActivity(ctx, sess.ProjectID(), "add_label")
	return jsonResult(l)
}

func (s *Server) handleEditLabel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id := getString(args, "labelId")
	if id == "" {
		return nil, fmt.Errorf("labelId is required")
	}
	sess, err := s.session(args)
	if err != nil {
		return nil, err
	}
	text := getString(args, "text")
	if text == "" {
		err = sess.RemoveLabel(id)
	} else {
		err = sess.EditLabel(id, text)
	}
	if err != nil {
		return nil, err
	}
	s.emitActivity(ctx, sess.ProjectID(), "edit_label")
	return textResult(fmt.Sprintf("Label %s updated", id)), nil
}

func (s *Server) handleEraseAt(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	p, ok := getPoint(args)
	if !ok {
		return nil, fmt.Errorf("x and y are required")
	}
	sess, err := s.session(args)
	if err != nil {
		return nil, err
	}
	n := sess.EraseAt(p)
	if n > 0 {
		s.emitActivity(ctx, sess.ProjectID(), "erase_at")
	}
	return textResult(fmt.Sprintf("Erased %d stroke(s)", n)), nil
}

func (s *Server) handleClearAnnotations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(req.GetArguments())
	if err != nil {
		return nil, err
	}
	a := sess.Annotations()
	if a.Empty() {
		return textResult("Nothing to clear"), nil
	}
	desc := fmt.Sprintf("Clear %d strokes, %d shapes and %d labels", len(a.Strokes), len(a.Shapes), len(a.Labels))
	if err := s.approval.Request("clear_annotations", desc); err != nil {
		return nil, err
	}
	sess.ClearAnnotations()
	s.emitActivity(ctx, sess.ProjectID(), "clear_annotations")
	return textResult("Annotations cleared (undo restores them)"), nil
}
