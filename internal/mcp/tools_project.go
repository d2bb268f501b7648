package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerProjectTools() {
	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List all projects, most recently updated first"),
	), s.handleListProjects)

	s.mcp.AddTool(mcp.NewTool("create_project",
		mcp.WithDescription("Create a new project and make it the active one"),
		mcp.WithString("name", mcp.Description("Project name (default: Untitled Project)")),
	), s.handleCreateProject)

	s.mcp.AddTool(mcp.NewTool("set_active_project",
		mcp.WithDescription("Set the project subsequent tools act on when projectId is omitted"),
		mcp.WithString("projectId", mcp.Description("Project ID"), mcp.Required()),
	), s.handleSetActiveProject)

	s.mcp.AddTool(mcp.NewTool("get_canvas",
		mcp.WithDescription("Get the frames, annotations and viewport of a project"),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
	), s.handleGetCanvas)

	s.mcp.AddTool(mcp.NewTool("rename_project",
		mcp.WithDescription("Rename a project"),
		mcp.WithString("projectId", mcp.Description("Project ID (defaults to active project)")),
		mcp.WithString("name", mcp.Description("New name"), mcp.Required()),
	), s.handleRenameProject)

	s.mcp.AddTool(mcp.NewTool("delete_project",
		mcp.WithDescription("Delete a project and its undo history. Requires user approval."),
		mcp.WithString("projectId", mcp.Description("Project ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteProject)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.projects.ListProjects()
	if err != nil {
		return nil, err
	}
	return jsonResult(list)
}

func (s *Server) handleCreateProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := s.projects.CreateProject(req.GetString("name", ""))
	if err != nil {
		return nil, err
	}
	s.setActive(p.ID)
	return jsonResult(map[string]string{"id": p.ID, "name": p.Name})
}

func (s *Server) handleSetActiveProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("projectId", "")
	if id == "" {
		return nil, fmt.Errorf("projectId is required")
	}
	sess, err := s.editor.Open(id)
	if err != nil {
		return nil, fmt.Errorf("open project: %w", err)
	}
	s.setActive(id)
	p := sess.Project()
	return textResult(fmt.Sprintf("Active project set to %q (%s), %d frames", p.Name, id, len(p.Data.Screens))), nil
}

type frameSummary struct {
	Index    int     `json:"index"`
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	FilePath string  `json:"filePath,omitempty"`
	Chars    int     `json:"htmlLength"`
}

type canvasSummary struct {
	ProjectID  string         `json:"projectId"`
	Name       string         `json:"name"`
	Platform   string         `json:"platform"`
	Active     int            `json:"active"`
	Frames     []frameSummary `json:"frames"`
	Strokes    int            `json:"strokes"`
	Shapes     int            `json:"shapes"`
	Labels     []string       `json:"labels"`
	CanUndo    bool           `json:"canUndo"`
	Generating bool           `json:"generating"`
}

func (s *Server) handleGetCanvas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(req.GetArguments())
	if err != nil {
		return nil, err
	}
	st := sess.State()
	out := canvasSummary{
		ProjectID:  st.ProjectID,
		Name:       st.Name,
		Platform:   string(st.Platform),
		Active:     st.Active,
		Frames:     summarizeFrames(st.Frames),
		Strokes:    len(st.Annotations.Strokes),
		Shapes:     len(st.Annotations.Shapes),
		Labels:     []string{},
		CanUndo:    st.CanUndo,
		Generating: st.Generating,
	}
	for _, l := range st.Annotations.Labels {
		out.Labels = append(out.Labels, l.Text)
	}
	return jsonResult(out)
}

func (s *Server) handleRenameProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name := getString(args, "name")
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	sess, err := s.session(args)
	if err != nil {
		return nil, err
	}
	sess.Rename(name)
	s.emitActivity(ctx, sess.ProjectID(), "rename_project")
	return textResult(fmt.Sprintf("Project renamed to %q", name)), nil
}

func (s *Server) handleDeleteProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("projectId", "")
	if id == "" {
		return nil, fmt.Errorf("projectId is required")
	}
	p, err := s.projects.OpenProject(id)
	if err != nil {
		return nil, err
	}
	desc := fmt.Sprintf("Delete project %q with %d frames", p.Name, len(p.Data.Screens))
	if err := s.approval.Request("delete_project", desc); err != nil {
		return nil, err
	}

	s.editor.Close(id)
	if err := s.projects.DeleteProject(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.activeProjectID == id {
		s.activeProjectID = ""
	}
	s.mu.Unlock()
	s.emitActivity(ctx, id, "delete_project")
	return textResult(fmt.Sprintf("Project %s deleted", id)), nil
}
