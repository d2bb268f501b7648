package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"layr/internal/export"
)

func (s *Server) registerExportTools() {
	s.mcp.AddTool(mcp.NewTool("export_frame_html",
		mcp.WithDescription("Export one frame as a standalone HTML page. Returns the page, or writes it when path is given."),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
		mcp.WithString("frameId", mcp.Description("Frame ID")),
		mcp.WithNumber("index", mcp.Description("Frame index, used when frameId is omitted")),
		mcp.WithString("path", mcp.Description("File or directory to write to")),
	), s.handleExportFrameHTML)

	s.mcp.AddTool(mcp.NewTool("export_all_html",
		mcp.WithDescription("Export every frame into one HTML page of iframes"),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
		mcp.WithString("path", mcp.Description("File or directory to write to")),
	), s.handleExportAllHTML)

	s.mcp.AddTool(mcp.NewTool("export_overview_png",
		mcp.WithDescription("Render a PNG overview of frame outlines and annotations"),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
		mcp.WithNumber("scale", mcp.Description("Pixels per logical unit (default 0.25)")),
		mcp.WithString("path", mcp.Description("File or directory to write to; the image is returned inline when omitted")),
	), s.handleExportOverviewPNG)

	s.mcp.AddTool(mcp.NewTool("export_targets",
		mcp.WithDescription("List each frame's DOM id and logical bounds for external screenshot tools"),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
	), s.handleExportTargets)
}

// writeExport writes data to path. A directory path gets name appended.
func writeExport(path, name string, data []byte) (string, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, name)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleExportFrameHTML(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
	page := export.FrameHTML(f)
	path := getString(args, "path")
	if path == "" {
		return textResult(page), nil
	}
	written, err := writeExport(path, export.FileName(f.Name, "html"), []byte(page))
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Frame %q exported to %s", f.Name, written)), nil
}

func (s *Server) handleExportAllHTML(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.session(args)
	if err != nil {
		return nil, err
	}
	frames := sess.Frames()
	if len(frames) == 0 {
		return nil, export.ErrEmptyCanvas
	}
	page := export.AllHTML(frames)
	path := getString(args, "path")
	if path == "" {
		return textResult(page), nil
	}
	written, err := writeExport(path, export.FileName(sess.Project().Name, "html"), []byte(page))
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("%d frames exported to %s", len(frames), written)), nil
}

func (s *Server) handleExportOverviewPNG(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.session(args)
	if err != nil {
		return nil, err
	}
	p := sess.Project()
	var buf bytes.Buffer
	ov, err := export.OverviewPNG(&buf, p.Data, getFloat(args, "scale", 0))
	if err != nil {
		return nil, err
	}

	path := getString(args, "path")
	if path == "" {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewImageContent(base64.StdEncoding.EncodeToString(buf.Bytes()), "image/png"),
				mcp.TextContent{Type: "text", Text: fmt.Sprintf("%dx%d px at scale %.3f", ov.Width, ov.Height, ov.Scale)},
			},
		}, nil
	}
	written, err := writeExport(path, export.FileName(p.Name, "png"), buf.Bytes())
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Overview (%dx%d px) written to %s", ov.Width, ov.Height, written)), nil
}

func (s *Server) handleExportTargets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(req.GetArguments())
	if err != nil {
		return nil, err
	}
	return jsonResult(export.Targets(sess.Frames()))
}
