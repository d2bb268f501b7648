package canvas

import (
	"errors"

	"layr/internal/annotate"
	"layr/internal/domain"
	"layr/internal/geometry"
)

var ErrGestureActive = errors.New("a gesture is in progress")

// gesture is the interaction bound to the current press. nil means idle.
type gesture interface {
	move(s *Session, ev PointerEvent)
	end(s *Session)
}

// ── Routing ─────────────────────────────────────────────────

// PointerDown starts at most one gesture: pan, frame drag or annotation.
func (s *Session) PointerDown(ev PointerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gesture != nil {
		return
	}
	if ev.Button == ButtonSecondary {
		return
	}

	if ev.Button == ButtonMiddle || s.tool.Kind == ToolHand || s.panKey {
		s.view.BeginPan(domain.Point{X: ev.X, Y: ev.Y})
		s.begin(&panGesture{})
		return
	}

	p := s.toLogical(ev)
	switch s.tool.Kind {
	case ToolCursor:
		i, ok := s.doc.HitTest(p)
		if !ok {
			s.doc.active = -1
			return
		}
		f := s.doc.frames[i]
		s.doc.active = i
		s.doc.dragging = true
		s.begin(&dragGesture{
			index:  i,
			offset: p.Sub(f.Position()),
			start:  f.Position(),
			before: Snapshot(s.doc),
		})
	case ToolPen:
		before := Snapshot(s.doc)
		s.begin(&inkGesture{g: s.ink.BeginStroke(p), before: before})
	case ToolEraser:
		before := Snapshot(s.doc)
		s.begin(&inkGesture{g: s.ink.BeginErase(p), before: before})
	case ToolShape:
		before := Snapshot(s.doc)
		s.begin(&inkGesture{g: s.ink.BeginShape(s.tool.Shape, p), before: before})
	case ToolText:
		before := Snapshot(s.doc)
		l := s.ink.PlaceLabel(p)
		s.commit(before)
		s.host.FocusLabel(l.ID)
		s.revertTool()
	}
}

func (s *Session) PointerMove(ev PointerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gesture != nil {
		s.gesture.move(s, ev)
	}
}

// PointerUp ends the gesture. Hosts deliver it from window scope, so it
// arrives even when the pointer left the canvas.
func (s *Session) PointerUp(ev PointerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishGesture()
}

// CancelGesture ends the current gesture as if the pointer was released at
// its last position.
func (s *Session) CancelGesture() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishGesture()
}

// Gesturing reports whether a press is in progress.
func (s *Session) Gesturing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gesture != nil
}

func (s *Session) KeyDown(ev KeyEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case ev.Key == PanKey:
		s.panKey = true
	case ev.Key == "Escape":
		s.finishGesture()
		s.tool = Cursor
	case (ev.Ctrl || ev.Meta) && (ev.Key == "z" || ev.Key == "Z"):
		s.undo()
	case ev.Key == "Delete" || ev.Key == "Backspace":
		if s.gesture != nil || s.doc.checkIndex(s.doc.active) != nil {
			return
		}
		before := Snapshot(s.doc)
		if err := s.doc.RemoveFrame(s.doc.active); err != nil {
			Logger().Warn("delete key: remove frame", "error", err)
			return
		}
		s.commit(before)
	}
}

func (s *Session) KeyUp(ev KeyEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.Key == PanKey {
		s.panKey = false
	}
}

func (s *Session) toLogical(ev PointerEvent) domain.Point {
	return geometry.ToLogical(ev.X, ev.Y, s.view.Viewport())
}

// begin installs g and acquires window-scope pointer capture for it.
func (s *Session) begin(g gesture) {
	s.gesture = g
	s.release = s.host.Capture()
}

// finishGesture ends the current gesture, if any, and releases capture
// exactly once.
func (s *Session) finishGesture() {
	g := s.gesture
	if g == nil {
		return
	}
	s.gesture = nil
	g.end(s)
	if release := s.release; release != nil {
		s.release = nil
		release()
	}
}

func (s *Session) revertTool() {
	if !s.sticky {
		s.tool = Cursor
	}
}

// ── Gestures ────────────────────────────────────────────────

type panGesture struct{}

func (panGesture) move(s *Session, ev PointerEvent) {
	s.view.PanTo(domain.Point{X: ev.X, Y: ev.Y})
	s.pushScroll()
}

func (panGesture) end(s *Session) { s.view.EndPan() }

// dragGesture moves one frame. The pre-drag snapshot is committed on release.
type dragGesture struct {
	index  int
	offset domain.Point
	start  domain.Point
	before []byte
}

func (g *dragGesture) move(s *Session, ev PointerEvent) {
	s.doc.MoveFrame(g.index, s.toLogical(ev).Sub(g.offset))
}

func (g *dragGesture) end(s *Session) {
	s.doc.dragging = false
	f, ok := s.doc.Frame(g.index)
	if !ok || f.Position() == g.start {
		return
	}
	s.commit(g.before)
}

// inkGesture wraps a pen, eraser or shape gesture from the annotation engine.
type inkGesture struct {
	g      annotate.Gesture
	before []byte
}

func (g *inkGesture) move(s *Session, ev PointerEvent) {
	g.g.Move(s.toLogical(ev))
}

func (g *inkGesture) end(s *Session) {
	if g.g.End() {
		s.commit(g.before)
	}
	s.revertTool()
}
