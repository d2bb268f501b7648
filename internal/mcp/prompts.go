package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("design_flow",
		mcp.WithPromptDescription("Generate and lay out a multi-screen user flow"),
		mcp.WithArgument("flow",
			mcp.ArgumentDescription("The flow to design, e.g. onboarding for a banking app"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("platform",
			mcp.ArgumentDescription("mobile, desktop or general"),
		),
	), s.handleDesignFlowPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("review_screens",
		mcp.WithPromptDescription("Review the active project's screens and annotate problems on the canvas"),
	), s.handleReviewPrompt)
}

func (s *Server) handleDesignFlowPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	flow := req.Params.Arguments["flow"]
	platform := req.Params.Arguments["platform"]
	if platform == "" {
		platform = "mobile"
	}
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Design the flow: %s", flow),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Design the "%s" flow as %s screens. Follow these steps:

1. Use create_project (or set_active_project) so the work lands in one project
2. Call generate_screens with a detailed prompt and a screenCount between 1 and 5
3. Inspect the result with list_frames and fix weak screens with set_frame_html
4. Use arrange_frames so the screens read left to right in flow order
5. Add short add_label notes above each frame explaining the step

Keep markup to Tailwind utility classes on a dark background.`, flow, platform),
				},
			},
		},
	}, nil
}

func (s *Server) handleReviewPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Review screens and annotate problems",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: `Review the screens in the active project:

1. Call get_canvas, then read each frame with get_frame_html
2. For each usability or consistency problem, draw_shape a red (#ef4444) rect around the area and add_label a one-line note next to it
3. Finish with export_overview_png so the annotated canvas can be shared

Do not change frame markup during the review.`,
				},
			},
		},
	}, nil
}
