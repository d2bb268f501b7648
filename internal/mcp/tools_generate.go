package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"layr/internal/domain"
	"layr/internal/generate"
)

func (s *Server) registerGenerateTools() {
	s.mcp.AddTool(mcp.NewTool("generate_screens",
		mcp.WithDescription("Generate 1-5 UI screens from a prompt. Skeleton frames appear immediately and are filled when the generator returns."),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
		mcp.WithString("prompt", mcp.Description("What to design"), mcp.Required()),
		mcp.WithNumber("screenCount", mcp.Description("Number of screens, 1-5 (default 1)")),
		mcp.WithString("platform", mcp.Description("mobile, desktop or general (default: the project's platform)")),
		mcp.WithBoolean("wait", mcp.Description("Block until the screens are filled (default true)")),
	), s.handleGenerateScreens)

	s.mcp.AddTool(mcp.NewTool("cancel_generation",
		mcp.WithDescription("Cancel the pending generation and remove its unfilled skeleton frames"),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
	), s.handleCancelGeneration)
}

type generationResult struct {
	FrameIDs []string       `json:"frameIds"`
	Done     bool           `json:"done"`
	Error    string         `json:"error,omitempty"`
	Frames   []frameSummary `json:"frames,omitempty"`
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleGenerateScreens(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.session(args)
	if err != nil {
		return nil, err
	}
	platform := domain.Platform(getString(args, "platform"))
	if platform == "" {
		platform = sess.State().Platform
	}
	greq := generate.Request{
		Prompt:      getString(args, "prompt"),
		ScreenCount: getInt(args, "screenCount", 1),
		Platform:    platform,
	}
	wait := true
	if _, ok := args["wait"]; ok {
		wait = getBool(args, "wait")
	}

	// a detached generation must outlive this tool call
	gctx := ctx
	if !wait {
		gctx = context.WithoutCancel(ctx)
	}
	g, err := s.editor.Generate(gctx, sess.ProjectID(), greq)
	if err != nil {
		return nil, err
	}
	s.emitActivity(ctx, sess.ProjectID(), "generate_screens")

	res := generationResult{FrameIDs: g.FrameIDs()}
	if !wait {
		return jsonResult(res)
	}
	select {
	case <-g.Done():
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	res.Done = true
	if err := g.Err(); err != nil {
		res.Error = err.Error()
	}
	ids := make(map[string]bool, len(res.FrameIDs))
	for _, id := range res.FrameIDs {
		ids[id] = true
	}
	for i, f := range summarizeFrames(sess.Frames()) {
		if ids[f.ID] {
			f.Index = i
			res.Frames = append(res.Frames, f)
		}
	}
	if err := g.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	return jsonResult(res)
}

func (s *Server) handleCancelGeneration(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if !sess.CancelGeneration() {
		return textResult("No generation in progress"), nil
	}
	s.emitActivity(ctx, sess.ProjectID(), "cancel_generation")
	return textResult("Generation cancelled"), nil
}
