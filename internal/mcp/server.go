package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"layr/internal/canvas"
	"layr/internal/service"
	"layr/internal/storage"
)

// Server is the MCP server for layr. It exposes tools, resources and prompts
// so AI agents can lay out, annotate, generate and export mockup screens.
type Server struct {
	mcp      *server.MCPServer
	emitter  service.EventEmitter
	approval *ApprovalQueue
	layout   *LayoutEngine

	projects *service.ProjectService
	editor   *service.EditorService

	mu              sync.Mutex
	activeProjectID string
}

// Deps holds everything the App layer hands to the MCP server.
type Deps struct {
	Emitter  service.EventEmitter
	Projects *service.ProjectService
	Editor   *service.EditorService
	// Approvals enables database approvals (standalone mode).
	Approvals   *storage.ApprovalStore
	AutoApprove bool
}

// New creates the MCP server with all tools, resources and prompts.
func New(ctx context.Context, deps Deps) *Server {
	emitter := deps.Emitter
	if emitter == nil {
		emitter = noopEmitter{}
	}
	approval := NewApprovalQueue(ctx, emitter)
	if deps.Approvals != nil {
		approval.SetStore(deps.Approvals)
	}
	approval.SetAutoApprove(deps.AutoApprove)

	s := &Server{
		emitter:  emitter,
		approval: approval,
		layout:   NewLayoutEngine(),
		projects: deps.Projects,
		editor:   deps.Editor,
	}

	s.mcp = server.NewMCPServer(
		"layr-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerProjectTools()
	s.registerFrameTools()
	s.registerDrawingTools()
	s.registerGenerateTools()
	s.registerExportTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

func (s *Server) Approve(actionID string) { s.approval.Approve(actionID) }
func (s *Server) Reject(actionID string)  { s.approval.Reject(actionID) }

// ── Helpers ────────────────────────────────────────────────

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, string, any) {}

// emitActivity tells the frontend an agent changed a project.
func (s *Server) emitActivity(ctx context.Context, projectID, tool string) {
	s.emitter.Emit(ctx, "mcp:activity", map[string]string{"projectId": projectID, "tool": tool})
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func (s *Server) setActive(id string) {
	s.mu.Lock()
	s.activeProjectID = id
	s.mu.Unlock()
}

// resolveProjectID returns projectId from the args or the active project.
func (s *Server) resolveProjectID(args map[string]any) (string, error) {
	if pid := getString(args, "projectId"); pid != "" {
		return pid, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeProjectID != "" {
		return s.activeProjectID, nil
	}
	return "", fmt.Errorf("no projectId provided and no active project set (use set_active_project first)")
}

// session resolves the project and opens it in the editor. An already open
// session first picks up any newer version saved by the desktop app.
func (s *Server) session(args map[string]any) (*canvas.Session, error) {
	id, err := s.resolveProjectID(args)
	if err != nil {
		return nil, err
	}
	sess, err := s.editor.Open(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.editor.Refresh(id); err != nil {
		log.Printf("[MCP] refresh %s: %v", id, err)
	}
	return sess, nil
}

// frameIndex resolves "frameId" or "index" against the session's frames.
func frameIndex(sess *canvas.Session, args map[string]any) (int, error) {
	frames := sess.Frames()
	if id := getString(args, "frameId"); id != "" {
		for i, f := range frames {
			if f.ID == id {
				return i, nil
			}
		}
		return -1, fmt.Errorf("frame %s not found", id)
	}
	i := getInt(args, "index", -1)
	if i < 0 || i >= len(frames) {
		return -1, fmt.Errorf("frameId or a valid index (0..%d) is required", len(frames)-1)
	}
	return i, nil
}
