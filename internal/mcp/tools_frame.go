package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"layr/internal/domain"
)

func (s *Server) registerFrameTools() {
	s.mcp.AddTool(mcp.NewTool("list_frames",
		mcp.WithDescription("List the screen frames of a project in stacking order"),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
	), s.handleListFrames)

	s.mcp.AddTool(mcp.NewTool("get_frame_html",
		mcp.WithDescription("Get the HTML markup of one frame"),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
		mcp.WithString("frameId", mcp.Description("Frame ID")),
		mcp.WithNumber("index", mcp.Description("Frame index, used when frameId is omitted")),
	), s.handleGetFrameHTML)

	s.mcp.AddTool(mcp.NewTool("add_frame",
		mcp.WithDescription("Add a screen frame. Without x/y it is placed in the first free spot."),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
		mcp.WithString("name", mcp.Description("Frame name")),
		mcp.WithString("html", mcp.Description("Tailwind HTML markup for the screen")),
		mcp.WithNumber("x", mcp.Description("Logical X position")),
		mcp.WithNumber("y", mcp.Description("Logical Y position")),
	), s.handleAddFrame)

	s.mcp.AddTool(mcp.NewTool("move_frame",
		mcp.WithDescription("Move a frame to a logical canvas position (undoable)"),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
		mcp.WithString("frameId", mcp.Description("Frame ID")),
		mcp.WithNumber("index", mcp.Description("Frame index, used when frameId is omitted")),
		mcp.WithNumber("x", mcp.Description("Logical X position"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("Logical Y position"), mcp.Required()),
	), s.handleMoveFrame)

	s.mcp.AddTool(mcp.NewTool("arrange_frames",
		mcp.WithDescription("Lay all frames out in a grid as one undoable step"),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
		mcp.WithNumber("columns", mcp.Description("Frames per row (default: as many as fit)")),
	), s.handleArrangeFrames)

	s.mcp.AddTool(mcp.NewTool("rename_frame",
		mcp.WithDescription("Rename a frame"),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
		mcp.WithString("frameId", mcp.Description("Frame ID")),
		mcp.WithNumber("index", mcp.Description("Frame index, used when frameId is omitted")),
		mcp.WithString("name", mcp.Description("New name"), mcp.Required()),
	), s.handleRenameFrame)

	s.mcp.AddTool(mcp.NewTool("set_frame_html",
		mcp.WithDescription("Replace the HTML markup of a frame"),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
		mcp.WithString("frameId", mcp.Description("Frame ID")),
		mcp.WithNumber("index", mcp.Description("Frame index, used when frameId is omitted")),
		mcp.WithString("html", mcp.Description("Tailwind HTML markup"), mcp.Required()),
	), s.handleSetFrameHTML)

	s.mcp.AddTool(mcp.NewTool("link_frame_file",
		mcp.WithDescription("Link a frame to an HTML file on disk; the frame reloads whenever the file is saved"),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
		mcp.WithString("frameId", mcp.Description("Frame ID")),
		mcp.WithNumber("index", mcp.Description("Frame index, used when frameId is omitted")),
		mcp.WithString("path", mcp.Description("Path to an .html file"), mcp.Required()),
	), s.handleLinkFrameFile)

	s.mcp.AddTool(mcp.NewTool("select_frame",
		mcp.WithDescription("Make a frame the active (topmost) one"),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
		mcp.WithString("frameId", mcp.Description("Frame ID")),
		mcp.WithNumber("index", mcp.Description("Frame index, used when frameId is omitted")),
	), s.handleSelectFrame)

	s.mcp.AddTool(mcp.NewTool("delete_frame",
		mcp.WithDescription("Delete a frame. Requires user approval."),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
		mcp.WithString("frameId", mcp.Description("Frame ID")),
		mcp.WithNumber("index", mcp.Description("Frame index, used when frameId is omitted")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteFrame)

	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last layout or annotation change"),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
	), s.handleUndo)
}

func summarizeFrames(frames []domain.ScreenFrame) []frameSummary {
	out := make([]frameSummary, len(frames))
	for i, f := range frames {
		b := f.Bounds()
		out[i] = frameSummary{
			Index:    i,
			ID:       f.ID,
			Name:     f.Name,
			X:        b.X,
			Y:        b.Y,
			Width:    b.Width,
			Height:   b.Height,
			FilePath: f.FilePath,
			Chars:    len(f.Content),
		}
	}
	return out
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListFrames(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(req.GetArguments())
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizeFrames(sess.Frames()))
}

func (s *Server) handleGetFrameHTML(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.session(args)
	if err != nil {
		return nil, err
	}
	i, err := frameIndex(sess, args)
	if err != nil {
		return nil, err
	}
	return textResult(sess.Frames()[i].Content), nil
}

func (s *Server) handleAddFrame(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.session(args)
	if err != nil {
		return nil, err
	}

	pos, ok := getPoint(args)
	if !ok {
		size := sess.State().Platform.Size()
		pos = s.layout.NextPosition(sess.Frames(), size.Width, size.Height)
	}
	i := sess.AddFrameAt(getString(args, "html"), getString(args, "name"), pos)
	f := sess.Frames()[i]

	s.emitActivity(ctx, sess.ProjectID(), "add_frame")
	sum := summarizeFrames([]domain.ScreenFrame{f})[0]
	sum.Index = i
	return jsonResult(sum)
}

func (s *Server) handleMoveFrame(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.session(args)
	if err != nil {
		return nil, err
	}
	i, err := frameIndex(sess, args)
	if err != nil {
		return nil, err
	}
	pos, ok := getPoint(args)
	if !ok {
		return nil, fmt.Errorf("x and y are required")
	}
	if err := sess.MoveFrame(i, pos); err != nil {
		return nil, err
	}
	s.emitActivity(ctx, sess.ProjectID(), "move_frame")
	return textResult(fmt.Sprintf("Frame %d moved to (%.0f, %.0f)", i, pos.X, pos.Y)), nil
}

func (s *Server) handleArrangeFrames(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.session(args)
	if err != nil {
		return nil, err
	}
	frames := sess.Frames()
	if len(frames) == 0 {
		return textResult("No frames to arrange"), nil
	}
	positions := s.layout.Arrange(frames, frames[0].Position(), getInt(args, "columns", 0))
	if err := sess.Arrange(positions); err != nil {
		return nil, err
	}
	s.emitActivity(ctx, sess.ProjectID(), "arrange_frames")
	return jsonResult(summarizeFrames(sess.Frames()))
}

func (s *Server) handleRenameFrame(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name := getString(args, "name")
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	sess, err := s.session(args)
	if err != nil {
		return nil, err
	}
	i, err := frameIndex(sess, args)
	if err != nil {
		return nil, err
	}
	if err := sess.RenameFrame(i, name); err != nil {
		return nil, err
	}
	s.emitActivity(ctx, sess.ProjectID(), "rename_frame")
	return textResult(fmt.Sprintf("Frame %d renamed to %q", i, name)), nil
}

func (s *Server) handleSetFrameHTML(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	html := getString(args, "html")
	if html == "" {
		return nil, fmt.Errorf("html is required")
	}
	sess, err := s.session(args)
	if err != nil {
		return nil, err
	}
	i, err := frameIndex(sess, args)
	if err != nil {
		return nil, err
	}
	if err := sess.SetFrameContent(i, html); err != nil {
		return nil, err
	}
	s.emitActivity(ctx, sess.ProjectID(), "set_frame_html")
	return textResult(fmt.Sprintf("Frame %d updated (%d chars)", i, len(html))), nil
}

func (s *Server) handleLinkFrameFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path := getString(args, "path")
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	sess, err := s.session(args)
	if err != nil {
		return nil, err
	}
	i, err := frameIndex(sess, args)
	if err != nil {
		return nil, err
	}
	if err := s.editor.LinkFrame(sess.ProjectID(), i, path); err != nil {
		return nil, err
	}
	s.emitActivity(ctx, sess.ProjectID(), "link_frame_file")
	return textResult(fmt.Sprintf("Frame %d linked to %s", i, sess.Frames()[i].FilePath)), nil
}

func (s *Server) handleSelectFrame(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.session(args)
	if err != nil {
		return nil, err
	}
	i, err := frameIndex(sess, args)
	if err != nil {
		return nil, err
	}
	if err := sess.Select(i); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Frame %d selected", i)), nil
}

func (s *Server) handleDeleteFrame(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.session(args)
	if err != nil {
		return nil, err
	}
	i, err := frameIndex(sess, args)
	if err != nil {
		return nil, err
	}
	f := sess.Frames()[i]
	meta := fmt.Sprintf(`{"projectId":%q,"frameId":%q}`, sess.ProjectID(), f.ID)
	if err := s.approval.Request("delete_frame", fmt.Sprintf("Delete frame %q", f.Name), meta); err != nil {
		return nil, err
	}

	// the index may have shifted while waiting for approval
	if i, err = frameIndex(sess, map[string]any{"frameId": f.ID}); err != nil {
		return nil, err
	}
	if err := sess.RemoveFrame(i); err != nil {
		return nil, err
	}
	s.emitActivity(ctx, sess.ProjectID(), "delete_frame")
	return textResult(fmt.Sprintf("Frame %q deleted", f.Name)), nil
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if !sess.Undo() {
		return textResult("Nothing to undo"), nil
	}
	s.emitActivity(ctx, sess.ProjectID(), "undo")
	return textResult(fmt.Sprintf("Undone (%d steps left)", sess.HistoryLen())), nil
}
