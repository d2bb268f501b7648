package app

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"layr/internal/canvas"
	"layr/internal/config"
	"layr/internal/domain"
	"layr/internal/export"
	"layr/internal/generate"
	"layr/internal/geometry"
	"layr/internal/secret"
	"layr/internal/service"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx     context.Context
	b       *backend
	watcher *projectWatcher
}

// New creates a new App.
func New() *App {
	return &App{}
}

// wailsEmitter forwards service events to the frontend.
type wailsEmitter struct{}

func (wailsEmitter) Emit(ctx context.Context, event string, data any) {
	wailsRuntime.EventsEmit(ctx, event, data)
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	cfg, err := config.Load(config.DefaultDataDir())
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to load config: %v", err)
		return
	}
	b, err := openBackend(ctx, cfg, secret.NewKeychainStore(), wailsEmitter{})
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to open storage: %v", err)
		return
	}
	a.b = b

	size := b.settings.LoadWindowSize()
	wailsRuntime.WindowSetSize(ctx, size.Width, size.Height)

	a.watcher = newProjectWatcher(ctx, b.editor, b.approvals, wailsEmitter{})
	a.watcher.Start()
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.b == nil {
		return
	}
	w, h := wailsRuntime.WindowGetSize(ctx)
	if err := a.b.settings.SaveWindowSize(w, h); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to save window size: %v", err)
	}
	a.b.Close()
}

// ============================================================
// Projects
// ============================================================

func (a *App) ListProjects() ([]domain.ProjectSummary, error) {
	return a.b.projects.ListProjects()
}

func (a *App) CreateProject(name string) (*domain.EditorState, error) {
	p, err := a.b.projects.CreateProject(name)
	if err != nil {
		return nil, err
	}
	return a.OpenProject(p.ID)
}

// OpenProject loads the project into an editor session and returns its state.
func (a *App) OpenProject(id string) (*domain.EditorState, error) {
	sess, err := a.b.editor.Open(id)
	if err != nil {
		return nil, err
	}
	st := sess.State()
	return &st, nil
}

// CloseProject stores the session's drawing settings and drops the session.
func (a *App) CloseProject(id string) error {
	if err := a.b.editor.SaveSettings(id); err != nil {
		wailsRuntime.LogWarningf(a.ctx, "Failed to save editor settings: %v", err)
	}
	a.b.editor.Close(id)
	return nil
}

func (a *App) RenameProject(id, name string) error {
	if err := a.b.projects.RenameProject(id, name); err != nil {
		return err
	}
	if sess, err := a.b.editor.Session(id); err == nil {
		sess.Rename(name)
	}
	return nil
}

func (a *App) DeleteProject(id string) error {
	a.b.editor.Close(id)
	return a.b.projects.DeleteProject(id)
}

// ============================================================
// Editor input
// ============================================================

// edit runs fn on an open session and returns the state afterwards.
func (a *App) edit(id string, fn func(*canvas.Session) error) (*domain.EditorState, error) {
	sess, err := a.b.editor.Session(id)
	if err != nil {
		return nil, err
	}
	if fn != nil {
		if err := fn(sess); err != nil {
			return nil, err
		}
	}
	st := sess.State()
	return &st, nil
}

func (a *App) GetState(id string) (*domain.EditorState, error) {
	return a.edit(id, nil)
}

func (a *App) PointerDown(id string, ev canvas.PointerEvent) (*domain.EditorState, error) {
	return a.edit(id, func(s *canvas.Session) error { s.PointerDown(ev); return nil })
}

func (a *App) PointerMove(id string, ev canvas.PointerEvent) (*domain.EditorState, error) {
	return a.edit(id, func(s *canvas.Session) error { s.PointerMove(ev); return nil })
}

func (a *App) PointerUp(id string, ev canvas.PointerEvent) (*domain.EditorState, error) {
	return a.edit(id, func(s *canvas.Session) error { s.PointerUp(ev); return nil })
}

func (a *App) Wheel(id string, ev canvas.WheelEvent) (*domain.EditorState, error) {
	return a.edit(id, func(s *canvas.Session) error { s.Wheel(ev); return nil })
}

func (a *App) KeyDown(id string, ev canvas.KeyEvent) (*domain.EditorState, error) {
	return a.edit(id, func(s *canvas.Session) error { s.KeyDown(ev); return nil })
}

func (a *App) KeyUp(id string, ev canvas.KeyEvent) (*domain.EditorState, error) {
	return a.edit(id, func(s *canvas.Session) error { s.KeyUp(ev); return nil })
}

// SetTool accepts cursor, hand, pen, eraser, text or a shape kind.
func (a *App) SetTool(id, tool string) (*domain.EditorState, error) {
	t, err := canvas.ParseTool(tool)
	if err != nil {
		return nil, err
	}
	return a.edit(id, func(s *canvas.Session) error { s.SetTool(t); return nil })
}

func (a *App) SetColor(id, color string) (*domain.EditorState, error) {
	return a.edit(id, func(s *canvas.Session) error { s.SetColor(color); return nil })
}

func (a *App) SetStrokeWidth(id string, width float64) (*domain.EditorState, error) {
	return a.edit(id, func(s *canvas.Session) error { s.SetStrokeWidth(width); return nil })
}

func (a *App) SetPlatform(id, platform string) (*domain.EditorState, error) {
	p, err := domain.ParsePlatform(platform)
	if err != nil {
		return nil, err
	}
	return a.edit(id, func(s *canvas.Session) error { s.SetPlatform(p); return nil })
}

func (a *App) ZoomIn(id string) (*domain.EditorState, error) {
	return a.edit(id, func(s *canvas.Session) error { s.ZoomIn(); return nil })
}

func (a *App) ZoomOut(id string) (*domain.EditorState, error) {
	return a.edit(id, func(s *canvas.Session) error { s.ZoomOut(); return nil })
}

func (a *App) SetZoom(id string, zoom float64) (*domain.EditorState, error) {
	return a.edit(id, func(s *canvas.Session) error { s.SetZoom(zoom); return nil })
}

// SetViewportRect reports the on-screen canvas container after a resize.
func (a *App) SetViewportRect(id string, rect geometry.Bounds) (*domain.EditorState, error) {
	return a.edit(id, func(s *canvas.Session) error { s.SetViewportRect(rect); return nil })
}

// SyncScroll reports a scroll made by the user through the scrollbars.
func (a *App) SyncScroll(id string, left, top float64) error {
	sess, err := a.b.editor.Session(id)
	if err != nil {
		return err
	}
	sess.SyncScroll(left, top)
	return nil
}

func (a *App) Recenter(id string) (*domain.EditorState, error) {
	return a.edit(id, func(s *canvas.Session) error { s.Recenter(); return nil })
}

func (a *App) Undo(id string) (*domain.EditorState, error) {
	return a.edit(id, func(s *canvas.Session) error { s.Undo(); return nil })
}

// ============================================================
// Frames
// ============================================================

func (a *App) AddFrame(id string) (*domain.EditorState, error) {
	return a.edit(id, func(s *canvas.Session) error { s.AddFrame("", ""); return nil })
}

func (a *App) SelectFrame(id string, index int) (*domain.EditorState, error) {
	return a.edit(id, func(s *canvas.Session) error { return s.Select(index) })
}

func (a *App) RemoveFrame(id string, index int) (*domain.EditorState, error) {
	return a.edit(id, func(s *canvas.Session) error { return s.RemoveFrame(index) })
}

func (a *App) RenameFrame(id string, index int, name string) (*domain.EditorState, error) {
	return a.edit(id, func(s *canvas.Session) error { return s.RenameFrame(index, name) })
}

func (a *App) SetFrameContent(id string, index int, content string) (*domain.EditorState, error) {
	return a.edit(id, func(s *canvas.Session) error { return s.SetFrameContent(index, content) })
}

// LinkFrame asks for an HTML file and ties frame index to it. An empty
// selection leaves the frame unchanged.
func (a *App) LinkFrame(id string, index int) (*domain.EditorState, error) {
	path, err := a.PickHTMLFile()
	if err != nil || path == "" {
		return a.edit(id, nil)
	}
	if err := a.b.editor.LinkFrame(id, index, path); err != nil {
		return nil, err
	}
	return a.edit(id, nil)
}

func (a *App) PickHTMLFile() (string, error) {
	return wailsRuntime.OpenFileDialog(a.ctx, wailsRuntime.OpenDialogOptions{
		Title: "Link HTML file",
		Filters: []wailsRuntime.FileFilter{
			{DisplayName: "HTML files", Pattern: "*.html;*.htm"},
		},
	})
}

// ============================================================
// Annotations
// ============================================================

func (a *App) EditLabel(id, labelID, text string) (*domain.EditorState, error) {
	return a.edit(id, func(s *canvas.Session) error { return s.EditLabel(labelID, text) })
}

func (a *App) RemoveLabel(id, labelID string) (*domain.EditorState, error) {
	return a.edit(id, func(s *canvas.Session) error { return s.RemoveLabel(labelID) })
}

func (a *App) ClearAnnotations(id string) (*domain.EditorState, error) {
	return a.edit(id, func(s *canvas.Session) error { s.ClearAnnotations(); return nil })
}

// ============================================================
// Generation
// ============================================================

// Generate inserts placeholder frames and fills them in the background.
// Progress and completion arrive as events.
func (a *App) Generate(id, prompt string, screenCount int) (*domain.EditorState, error) {
	sess, err := a.b.editor.Session(id)
	if err != nil {
		return nil, err
	}
	req := generate.Request{Prompt: prompt, ScreenCount: screenCount, Platform: sess.State().Platform}
	if _, err := a.b.editor.Generate(a.ctx, id, req); err != nil {
		return nil, err
	}
	return a.edit(id, nil)
}

func (a *App) CancelGeneration(id string) (*domain.EditorState, error) {
	return a.edit(id, func(s *canvas.Session) error { s.CancelGeneration(); return nil })
}

// SetGeminiKey stores the key in the OS keychain and rebuilds the client.
func (a *App) SetGeminiKey(key string) error {
	if err := a.b.secrets.Set(secret.GeminiKey, []byte(key)); err != nil {
		return fmt.Errorf("store api key: %w", err)
	}
	client, err := newGenerator(a.b.cfg.Generator, a.b.secrets)
	if err != nil {
		return err
	}
	a.b.editor.SetClient(client)
	return nil
}

// ============================================================
// Export
// ============================================================

// ExportFrameHTML saves one frame as a standalone HTML document. It returns
// the chosen path, or "" when the dialog was cancelled.
func (a *App) ExportFrameHTML(id string, index int) (string, error) {
	sess, err := a.b.editor.Session(id)
	if err != nil {
		return "", err
	}
	frames := sess.Frames()
	if index < 0 || index >= len(frames) {
		return "", fmt.Errorf("export frame %d: %w", index, canvas.ErrFrameIndex)
	}
	f := frames[index]
	return a.saveAs(export.FileName(f.Name, "html"), "HTML files", "*.html", []byte(export.FrameHTML(f)))
}

func (a *App) ExportAllHTML(id string) (string, error) {
	sess, err := a.b.editor.Session(id)
	if err != nil {
		return "", err
	}
	p := sess.Project()
	return a.saveAs(export.FileName(p.Name, "html"), "HTML files", "*.html", []byte(export.AllHTML(p.Data.Screens)))
}

func (a *App) ExportOverviewPNG(id string, scale float64) (string, error) {
	sess, err := a.b.editor.Session(id)
	if err != nil {
		return "", err
	}
	p := sess.Project()
	var buf bytes.Buffer
	if _, err := export.OverviewPNG(&buf, p.Data, scale); err != nil {
		return "", err
	}
	return a.saveAs(export.FileName(p.Name, "png"), "PNG images", "*.png", buf.Bytes())
}

// OverviewDataURL renders the overview for an in-app preview.
func (a *App) OverviewDataURL(id string, scale float64) (string, error) {
	sess, err := a.b.editor.Session(id)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := export.OverviewPNG(&buf, sess.Project().Data, scale); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ExportTargets lists frame DOM ids and bounds for the frontend's own capture.
func (a *App) ExportTargets(id string) ([]export.Target, error) {
	sess, err := a.b.editor.Session(id)
	if err != nil {
		return nil, err
	}
	return export.Targets(sess.Frames()), nil
}

func (a *App) saveAs(name, filterName, pattern string, data []byte) (string, error) {
	path, err := wailsRuntime.SaveFileDialog(a.ctx, wailsRuntime.SaveDialogOptions{
		DefaultFilename: name,
		Filters:         []wailsRuntime.FileFilter{{DisplayName: filterName, Pattern: pattern}},
	})
	if err != nil || path == "" {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// ============================================================
// MCP approvals
// ============================================================

// ApproveMCPAction answers a pending request from the standalone MCP server.
func (a *App) ApproveMCPAction(actionID string) error {
	return a.resolveApproval(actionID, true)
}

func (a *App) RejectMCPAction(actionID string) error {
	return a.resolveApproval(actionID, false)
}

func (a *App) resolveApproval(actionID string, approved bool) error {
	if err := a.b.approvals.Resolve(actionID, approved); err != nil {
		return err
	}
	wailsRuntime.EventsEmit(a.ctx, service.EventApprovalDone, map[string]string{"id": actionID})
	return nil
}
