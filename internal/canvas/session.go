// Package canvas is the editor core: it routes pointer input to frame drags,
// panning or the annotation layer, and keeps the document, viewport and undo
// history consistent.
package canvas

import (
	"fmt"
	"sync"

	"layr/internal/annotate"
	"layr/internal/domain"
	"layr/internal/geometry"
)

// Host is the surface the session draws on. Host methods are called with the
// session locked and must not call back into it.
type Host interface {
	// Save persists the project after a document mutation.
	Save(p domain.Project)
	// ScrollTo sets the native scroll position directly.
	ScrollTo(left, top float64)
	// Capture routes pointer move/up from the whole window to the session
	// until the returned release func is called. It is called exactly once.
	Capture() (release func())
	// FocusLabel asks the host to open inline editing for a new label.
	FocusLabel(id string)
	// Progress reports generation progress in percent.
	Progress(pct int)
	// Alert shows a blocking error message.
	Alert(msg string)
}

// NopHost ignores everything. Embed it to implement only part of Host.
type NopHost struct{}

func (NopHost) Save(domain.Project)       {}
func (NopHost) ScrollTo(float64, float64) {}
func (NopHost) Capture() func()           { return func() {} }
func (NopHost) FocusLabel(string)         {}
func (NopHost) Progress(int)              {}
func (NopHost) Alert(string)              {}

type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

// PointerEvent carries a pointer position in client coordinates.
type PointerEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button Button  `json:"button"`
}

type WheelEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DeltaX float64 `json:"deltaX"`
	DeltaY float64 `json:"deltaY"`
	Ctrl   bool    `json:"ctrl"`
	Meta   bool    `json:"meta"`
}

type KeyEvent struct {
	Key  string `json:"key"`
	Ctrl bool   `json:"ctrl"`
	Meta bool   `json:"meta"`
}

// PanKey held down turns any press into a pan.
const PanKey = " "

type Options struct {
	Zoom         float64
	Platform     domain.Platform
	StickyTools  bool
	HistoryLimit int
	Journal      Journal
	// History seeds the undo stack, oldest first.
	History [][]byte
}

// Session is one open project. Its methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	project domain.Project
	doc     *Document
	view    *ViewportController
	history *History
	ink     *annotate.Engine
	host    Host

	tool    Tool
	sticky  bool
	panKey  bool
	gesture gesture
	release func()
	gen     *Generation
}

// NewSession opens p for editing.
func NewSession(p domain.Project, host Host, opts Options) *Session {
	if host == nil {
		host = NopHost{}
	}
	doc := NewDocument(opts.Platform)
	doc.Load(p.Data)
	if len(doc.frames) > 0 {
		doc.active = 0
	}
	s := &Session{
		project: p,
		doc:     doc,
		view:    NewViewportController(opts.Zoom),
		history: NewHistory(opts.HistoryLimit, opts.Journal, opts.History),
		host:    host,
		tool:    Cursor,
		sticky:  opts.StickyTools,
	}
	s.ink = annotate.New(doc.Annotations())
	return s
}

// ── State ───────────────────────────────────────────────────

func (s *Session) ProjectID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project.ID
}

// Project returns the project with the current document.
func (s *Session) Project() domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotProject()
}

func (s *Session) snapshotProject() domain.Project {
	p := s.project
	p.Data = s.doc.Data()
	return p
}

// Rename changes the project name.
func (s *Session) Rename(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project.Name = name
	s.save()
}

// State returns everything a renderer needs for one frame.
func (s *Session) State() domain.EditorState {
	s.mu.Lock()
	defer s.mu.Unlock()

	left, top := s.view.Scroll()
	st := domain.EditorState{
		ProjectID:   s.project.ID,
		Name:        s.project.Name,
		Frames:      s.doc.Frames(),
		Annotations: s.doc.annotations.Clone(),
		Active:      s.doc.active,
		RenderOrder: s.doc.RenderOrder(),
		Zoom:        s.view.Zoom(),
		ScrollLeft:  left,
		ScrollTop:   top,
		Tool:        s.tool.String(),
		Color:       s.ink.Settings().Color,
		StrokeWidth: s.ink.Settings().StrokeWidth,
		Platform:    s.doc.platform,
		Dragging:    s.doc.dragging,
		Panning:     s.view.Panning(),
		Generating:  s.gen != nil,
		CanUndo:     s.history.Len() > 0,
	}
	st.ZIndex = make([]int, len(st.Frames))
	for i := range st.ZIndex {
		st.ZIndex[i] = s.doc.ZIndex(i)
	}
	switch g := s.gesture.(type) {
	case *inkGesture:
		switch a := g.g.(type) {
		case *annotate.ShapeGesture:
			r := a.Preview()
			st.ShapePreview = &domain.Shape{Kind: a.Kind(), Color: s.ink.Settings().Color, Rect: r}
		case *annotate.EraserGesture:
			m := a.Mark()
			st.EraserMark = &m
		}
	}
	return st
}

func (s *Session) Tool() Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool
}

// SetTool makes t the only active tool. A gesture in progress is finished
// first.
func (s *Session) SetTool(t Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishGesture()
	s.tool = t
}

func (s *Session) SetColor(c string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ink.SetColor(c)
}

func (s *Session) SetStrokeWidth(w float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ink.SetStrokeWidth(w)
}

func (s *Session) SetPlatform(p domain.Platform) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.SetPlatform(p)
}

func (s *Session) Frames() []domain.ScreenFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Frames()
}

func (s *Session) Annotations() domain.Annotations {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.annotations.Clone()
}

// ── Viewport ────────────────────────────────────────────────

func (s *Session) Viewport() geometry.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Viewport()
}

// SetViewportRect records the scroll container's client rect.
func (s *Session) SetViewportRect(b geometry.Bounds) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.SetRect(b)
}

// SyncScroll records a native scroll the host performed on its own.
func (s *Session) SyncScroll(left, top float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.SyncScroll(left, top)
}

func (s *Session) ZoomIn() float64  { return s.zoomStep(ZoomStep) }
func (s *Session) ZoomOut() float64 { return s.zoomStep(-ZoomStep) }

func (s *Session) zoomStep(delta float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.ZoomBy(delta, nil)
	return s.view.Zoom()
}

// SetZoom sets an absolute zoom, clamped.
func (s *Session) SetZoom(z float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.SetZoom(z, nil)
	return s.view.Zoom()
}

func (s *Session) Wheel(ev WheelEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Wheel(ev)
	s.pushScroll()
}

// Recenter scrolls the first frame into the middle of the viewport.
func (s *Session) Recenter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recenter()
}

func (s *Session) recenter() {
	if len(s.doc.frames) == 0 {
		return
	}
	s.view.CenterOn(s.doc.frames[0].Bounds())
	s.pushScroll()
}

func (s *Session) pushScroll() {
	s.host.ScrollTo(s.view.Scroll())
}

// ── Frames ──────────────────────────────────────────────────

// AddFrame appends a frame with the given content, or the blank new-screen
// content when empty.
func (s *Session) AddFrame(content, name string) int {
	return s.addFrame(content, name, nil)
}

// AddFrameAt is AddFrame with an explicit logical position.
func (s *Session) AddFrameAt(content, name string, pos domain.Point) int {
	return s.addFrame(content, name, &pos)
}

func (s *Session) addFrame(content, name string, pos *domain.Point) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if content == "" {
		content = NewScreenHTML
	}
	if name == "" {
		name = screenName(len(s.doc.frames) + 1)
	}
	s.history.Record(s.doc)
	i := s.doc.AddFrame(content, name)
	if pos != nil {
		s.doc.MoveFrame(i, *pos)
	}
	s.save()
	return i
}

func (s *Session) RemoveFrame(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gesture != nil {
		return ErrGestureActive
	}
	if err := s.doc.checkIndex(i); err != nil {
		return err
	}
	s.history.Record(s.doc)
	if err := s.doc.RemoveFrame(i); err != nil {
		return err
	}
	s.save()
	return nil
}

// MoveFrame places frame i at pos as one undoable step.
func (s *Session) MoveFrame(i int, pos domain.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gesture != nil {
		return ErrGestureActive
	}
	if err := s.doc.checkIndex(i); err != nil {
		return err
	}
	if s.doc.frames[i].Position() == pos {
		return nil
	}
	s.history.Record(s.doc)
	s.doc.MoveFrame(i, pos)
	s.save()
	return nil
}

// Arrange moves every frame at once as one undoable step. positions must
// hold one point per frame.
func (s *Session) Arrange(positions []domain.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gesture != nil {
		return ErrGestureActive
	}
	if len(positions) != len(s.doc.frames) {
		return fmt.Errorf("arrange %d frames with %d positions: %w", len(s.doc.frames), len(positions), ErrFrameIndex)
	}
	changed := false
	for i, p := range positions {
		if s.doc.frames[i].Position() != p {
			changed = true
			break
		}
	}
	if !changed {
		return nil
	}
	s.history.Record(s.doc)
	for i, p := range positions {
		s.doc.MoveFrame(i, p)
	}
	s.save()
	return nil
}

func (s *Session) RenameFrame(i int, name string) error {
	return s.editFrame(i, func() error { return s.doc.RenameFrame(i, name) })
}

func (s *Session) SetFrameContent(i int, content string) error {
	return s.editFrame(i, func() error { return s.doc.SetFrameContent(i, content) })
}

// LinkFrame ties frame i to an HTML file on disk. An empty path unlinks.
func (s *Session) LinkFrame(i int, path string) error {
	return s.editFrame(i, func() error { return s.doc.LinkFrame(i, path) })
}

func (s *Session) editFrame(i int, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.doc.checkIndex(i); err != nil {
		return err
	}
	s.history.Record(s.doc)
	if err := fn(); err != nil {
		return err
	}
	s.save()
	return nil
}

// ReloadLinked replaces the content of every frame linked to path. It is not
// recorded in history. Returns the number of frames updated.
func (s *Session) ReloadLinked(path, content string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.doc.frames {
		if s.doc.frames[i].FilePath == path && s.doc.frames[i].Content != content {
			s.doc.frames[i].Content = content
			n++
		}
	}
	if n > 0 {
		s.save()
	}
	return n
}

// Reload replaces the document with p when p is newer than the open copy.
// It is skipped while a gesture or generation is in flight and is not
// recorded in history.
func (s *Session) Reload(p domain.Project) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID != s.project.ID || p.UpdatedAt <= s.project.UpdatedAt {
		return false
	}
	if s.gesture != nil || s.gen != nil {
		return false
	}
	s.project = p
	s.doc.Load(p.Data)
	if s.doc.active < 0 && len(s.doc.frames) > 0 {
		s.doc.active = 0
	}
	return true
}

func (s *Session) Select(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Select(i)
}

// ── History ─────────────────────────────────────────────────

// Undo restores the previous snapshot. It is a no-op with an empty history or
// while a gesture is in progress.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.undo()
}

func (s *Session) undo() bool {
	if s.gesture != nil {
		return false
	}
	if !s.history.Undo(s.doc) {
		return false
	}
	s.save()
	return true
}

func (s *Session) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Len()
}

// ── Annotations (direct) ────────────────────────────────────

func (s *Session) AddStroke(points []domain.Point) (domain.Stroke, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := Snapshot(s.doc)
	st, err := s.ink.AddStroke(points)
	if err != nil {
		return st, err
	}
	s.commit(before)
	return st, nil
}

// AddShape commits a shape if both sides exceed the threshold.
func (s *Session) AddShape(kind domain.ShapeKind, r domain.Rect) (domain.Shape, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := Snapshot(s.doc)
	sh, ok := s.ink.AddShape(kind, r)
	if ok {
		s.commit(before)
	}
	return sh, ok
}

func (s *Session) AddLabel(p domain.Point, text string) domain.TextLabel {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := Snapshot(s.doc)
	l := s.ink.PlaceLabel(p)
	if text != "" {
		s.ink.EditLabel(l.ID, text)
		l.Text = text
	}
	s.commit(before)
	return l
}

func (s *Session) EditLabel(id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := Snapshot(s.doc)
	if err := s.ink.EditLabel(id, text); err != nil {
		return err
	}
	s.commit(before)
	return nil
}

func (s *Session) RemoveLabel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := Snapshot(s.doc)
	if err := s.ink.RemoveLabel(id); err != nil {
		return err
	}
	s.commit(before)
	return nil
}

// EraseAt removes strokes near a logical point as if the eraser touched it.
func (s *Session) EraseAt(p domain.Point) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := Snapshot(s.doc)
	n := s.ink.EraseAt(p)
	if n > 0 {
		s.commit(before)
	}
	return n
}

func (s *Session) ClearAnnotations() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc.annotations.Empty() {
		return
	}
	before := Snapshot(s.doc)
	s.ink.Clear()
	s.commit(before)
}

// commit records the pre-change snapshot and saves.
func (s *Session) commit(before []byte) {
	s.history.Push(before)
	s.save()
}

func (s *Session) save() {
	s.project.Touch()
	s.host.Save(s.snapshotProject())
}
