package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"layr/internal/canvas"
	"layr/internal/domain"
	"layr/internal/generate"
)

// ─────────────────────────────────────────────────────────────
// Editor Service: open canvas sessions and their host wiring
// ─────────────────────────────────────────────────────────────

var ErrNotOpen = errors.New("project is not open")

// EditorOptions configure new sessions.
type EditorOptions struct {
	Zoom         float64
	StickyTools  bool
	HistoryLimit int
}

// FileWatcher is the part of watch.Watcher the editor needs.
type FileWatcher interface {
	Watch(path string) error
	Unwatch(path string)
}

// EditorService owns one canvas.Session per open project and routes the
// sessions' host callbacks to storage and frontend events.
type EditorService struct {
	mu       sync.Mutex
	sessions map[string]*canvas.Session

	projects *ProjectService
	settings *SettingsService
	client   generate.Client
	emitter  EventEmitter
	opts     EditorOptions
	ctx      context.Context
	watcher  FileWatcher

	generations runningJobsGuard
}

// NewEditorService creates an EditorService. settings and client may be nil.
func NewEditorService(
	ctx context.Context,
	projects *ProjectService,
	settings *SettingsService,
	client generate.Client,
	emitter EventEmitter,
	opts EditorOptions,
) *EditorService {
	if emitter == nil {
		emitter = nopEmitter{}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &EditorService{
		sessions: make(map[string]*canvas.Session),
		projects: projects,
		settings: settings,
		client:   client,
		emitter:  emitter,
		opts:     opts,
		ctx:      ctx,
	}
}

// SetWatcher enables reloading of file-linked frames.
func (s *EditorService) SetWatcher(w FileWatcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watcher = w
}

// SetClient swaps the generation backend.
func (s *EditorService) SetClient(c generate.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = c
}

// Open returns the session for id, loading the project on first use.
func (s *EditorService) Open(id string) (*canvas.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}

	p, err := s.projects.OpenProject(id)
	if err != nil {
		return nil, err
	}
	seed, journal := s.projects.History(id)
	opts := canvas.Options{
		Zoom:         s.opts.Zoom,
		StickyTools:  s.opts.StickyTools,
		HistoryLimit: s.opts.HistoryLimit,
		Journal:      journal,
		History:      seed,
	}
	var prefs *EditorSettings
	if s.settings != nil {
		e := s.settings.LoadEditorSettings()
		prefs = &e
		opts.Platform = e.Platform
		opts.StickyTools = opts.StickyTools || e.StickyTools
	}

	sess := canvas.NewSession(*p, &sessionHost{svc: s, projectID: id}, opts)
	if prefs != nil {
		sess.SetColor(prefs.Color)
		sess.SetStrokeWidth(prefs.StrokeWidth)
	}
	s.sessions[id] = sess
	s.watchLinked(p.Data.Screens, FileWatcher.Watch)
	log.Printf("[EDITOR] Opened project %s (%d frames, %d undo entries)", id, len(p.Data.Screens), len(seed))
	return sess, nil
}

// Session returns an already open session.
func (s *EditorService) Session(id string) (*canvas.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotOpen)
	}
	return sess, nil
}

// Sessions returns every open session.
func (s *EditorService) Sessions() []*canvas.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*canvas.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// Close cancels any pending generation and forgets the session.
func (s *EditorService) Close(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.CancelGesture()
		sess.CancelGeneration()
		frames := sess.Frames()
		s.mu.Lock()
		s.watchLinked(frames, func(w FileWatcher, path string) error {
			w.Unwatch(path)
			return nil
		})
		s.mu.Unlock()
	}
}

// Refresh reloads an open project from the store when another writer saved
// a newer version. It reports whether the session changed.
func (s *EditorService) Refresh(id string) (bool, error) {
	sess, err := s.Session(id)
	if err != nil {
		return false, err
	}
	p, err := s.projects.OpenProject(id)
	if err != nil {
		return false, err
	}
	if !sess.Reload(*p) {
		return false, nil
	}
	log.Printf("[EDITOR] Reloaded project %s from store", id)
	s.emitter.Emit(s.ctx, EventProjectReloaded, ProjectEvent{ProjectID: id, Value: p.UpdatedAt})
	return true, nil
}

// ── File links ──────────────────────────────────────────────

// LinkFrame ties frame i of an open project to an HTML file, loads the file
// into the frame and watches it for changes.
func (s *EditorService) LinkFrame(id string, i int, path string) error {
	sess, err := s.Session(id)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("read linked file: %w", err)
	}
	var previous string
	if frames := sess.Frames(); i >= 0 && i < len(frames) {
		previous = frames[i].FilePath
	}
	if err := sess.LinkFrame(i, abs); err != nil {
		return err
	}
	sess.ReloadLinked(abs, string(content))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		if previous != "" {
			s.watcher.Unwatch(previous)
		}
		if err := s.watcher.Watch(abs); err != nil {
			return err
		}
	}
	return nil
}

// FileChanged pushes new file content into every frame linked to path.
func (s *EditorService) FileChanged(path, content string) {
	for _, sess := range s.Sessions() {
		if n := sess.ReloadLinked(path, content); n > 0 {
			log.Printf("[EDITOR] Reloaded %d frame(s) from %s", n, path)
			s.emitter.Emit(s.ctx, EventFrameReloaded, ProjectEvent{ProjectID: sess.ProjectID(), Value: path})
		}
	}
}

// watchLinked applies fn to every linked path in frames. Caller holds s.mu.
func (s *EditorService) watchLinked(frames []domain.ScreenFrame, fn func(FileWatcher, string) error) {
	if s.watcher == nil {
		return
	}
	for _, f := range frames {
		if f.FilePath == "" {
			continue
		}
		if err := fn(s.watcher, f.FilePath); err != nil {
			log.Printf("[EDITOR] watch %s: %v", f.FilePath, err)
		}
	}
}

// Generate starts a generation on an open session. The returned Generation
// completes in the background.
func (s *EditorService) Generate(ctx context.Context, id string, req generate.Request) (*canvas.Generation, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()
	if client == nil {
		return nil, errors.New("no generator configured")
	}
	if !s.generations.TryLock(id) {
		return nil, canvas.ErrGenerationPending
	}
	g, err := sess.StartGeneration(ctx, client, req)
	if err != nil {
		s.generations.Unlock(id)
		return nil, err
	}
	go func() {
		<-g.Done()
		s.generations.Unlock(id)
	}()
	return g, nil
}

// Wait blocks until every in-flight generation finishes or ctx is done.
func (s *EditorService) Wait(ctx context.Context) {
	s.generations.WaitAll(ctx)
}

// SaveSettings stores a session's drawing settings as the new defaults.
func (s *EditorService) SaveSettings(id string) error {
	if s.settings == nil {
		return nil
	}
	sess, err := s.Session(id)
	if err != nil {
		return err
	}
	st := sess.State()
	return s.settings.SaveEditorSettings(EditorSettings{
		Color:       st.Color,
		StrokeWidth: st.StrokeWidth,
		Platform:    st.Platform,
		StickyTools: s.opts.StickyTools,
	})
}

// ── Host ────────────────────────────────────────────────────

// sessionHost turns session callbacks into storage writes and events.
// It runs with the session locked and never calls back into it.
type sessionHost struct {
	svc       *EditorService
	projectID string
}

type ScrollEvent struct {
	ProjectID string  `json:"projectId"`
	Left      float64 `json:"left"`
	Top       float64 `json:"top"`
}

type ProjectEvent struct {
	ProjectID string `json:"projectId"`
	Value     any    `json:"value"`
}

func (h *sessionHost) emit(event string, v any) {
	h.svc.emitter.Emit(h.svc.ctx, event, ProjectEvent{ProjectID: h.projectID, Value: v})
}

func (h *sessionHost) Save(p domain.Project) {
	if err := h.svc.projects.SaveProject(h.svc.ctx, p); err != nil {
		log.Printf("[EDITOR] Save %s failed: %v", p.ID, err)
		h.emit(EventAlert, fmt.Sprintf("Could not save project: %v", err))
	}
}

func (h *sessionHost) ScrollTo(left, top float64) {
	h.svc.emitter.Emit(h.svc.ctx, EventScroll, ScrollEvent{ProjectID: h.projectID, Left: left, Top: top})
}

func (h *sessionHost) Capture() func() {
	h.emit(EventCapture, true)
	return func() { h.emit(EventRelease, true) }
}

func (h *sessionHost) FocusLabel(id string) { h.emit(EventFocusLabel, id) }
func (h *sessionHost) Progress(pct int)     { h.emit(EventProgress, pct) }
func (h *sessionHost) Alert(msg string)     { h.emit(EventAlert, msg) }
