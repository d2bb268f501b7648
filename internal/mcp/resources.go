package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerResources() {
	// ── layr://projects ────────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"layr://projects",
		"All Projects",
		mcp.WithMIMEType("application/json"),
	), s.handleProjectsResource)

	// ── layr://project/{projectId}/frames ──────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"layr://project/{projectId}/frames",
			"Frames of a Project",
		),
		s.handleProjectFramesResource,
	)

	// ── layr://project/{projectId}/frame/{index} ───────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"layr://project/{projectId}/frame/{index}",
			"HTML of a Frame",
			mcp.WithTemplateMIMEType("text/html"),
		),
		s.handleFrameResource,
	)
}

func (s *Server) handleProjectsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	list, err := s.projects.ListProjects()
	if err != nil {
		return nil, err
	}
	data, _ := json.MarshalIndent(list, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "layr://projects",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleProjectFramesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	parts := splitProjectURI(uri)
	if len(parts) != 2 || parts[1] != "frames" {
		return nil, fmt.Errorf("could not extract projectId from URI: %s", uri)
	}
	sess, err := s.editor.Open(parts[0])
	if err != nil {
		return nil, err
	}
	data, _ := json.MarshalIndent(summarizeFrames(sess.Frames()), "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleFrameResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	parts := splitProjectURI(uri)
	if len(parts) != 3 || parts[1] != "frame" {
		return nil, fmt.Errorf("could not extract frame from URI: %s", uri)
	}
	sess, err := s.editor.Open(parts[0])
	if err != nil {
		return nil, err
	}
	var i int
	if _, err := fmt.Sscanf(parts[2], "%d", &i); err != nil {
		return nil, fmt.Errorf("bad frame index %q", parts[2])
	}
	frames := sess.Frames()
	if i < 0 || i >= len(frames) {
		return nil, fmt.Errorf("frame %d out of range", i)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/html",
			Text:     frames[i].Content,
		},
	}, nil
}

// splitProjectURI turns "layr://project/abc/frame/2" into [abc frame 2].
func splitProjectURI(uri string) []string {
	rest, ok := strings.CutPrefix(uri, "layr://project/")
	if !ok || rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}
