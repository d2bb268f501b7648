package canvas

import (
	"context"
	"errors"
	"fmt"

	"layr/internal/generate"
)

var ErrGenerationPending = errors.New("a generation is already in progress")

// Generation is one outstanding generate call and the skeleton frames it
// will fill.
type Generation struct {
	ids    []string
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// FrameIDs returns the IDs of the placeholder frames, in screen order.
func (g *Generation) FrameIDs() []string { return g.ids }

// Done is closed once the generation resolved, failed or was cancelled.
func (g *Generation) Done() <-chan struct{} { return g.done }

// Err is valid after Done is closed.
func (g *Generation) Err() error { return g.err }

// StartGeneration validates req, inserts one skeleton frame per requested
// screen before returning, and fills them from client in the background.
// Only one generation may be outstanding per session.
func (s *Session) StartGeneration(ctx context.Context, client generate.Client, req generate.Request) (*Generation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.gen != nil {
		s.mu.Unlock()
		return nil, ErrGenerationPending
	}
	s.finishGesture()
	s.doc.SetPlatform(req.Platform)
	s.history.Record(s.doc)
	first := len(s.doc.frames)
	ids := s.doc.appendCascade(req.ScreenCount, SkeletonHTML)
	s.doc.active = first

	gctx, cancel := context.WithCancel(ctx)
	g := &Generation{ids: ids, cancel: cancel, done: make(chan struct{})}
	s.gen = g
	s.save()
	s.recenter()
	s.host.Progress(10)
	Logger().Info("generation started", "project", s.project.ID, "screens", req.ScreenCount, "platform", req.Platform)
	s.mu.Unlock()

	go func() {
		screens, err := client.Generate(gctx, req)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen != g {
			return
		}
		if err != nil {
			s.failGeneration(g, err)
			return
		}
		s.host.Progress(70)
		s.resolveGeneration(g, screens)
	}()
	return g, nil
}

// resolveGeneration fills the placeholders by ID. Missing screens get the
// error placeholder. Frames the user deleted meanwhile are skipped.
func (s *Session) resolveGeneration(g *Generation, screens []string) {
	for i, id := range g.ids {
		idx := s.doc.IndexOf(id)
		if idx < 0 {
			continue
		}
		f := &s.doc.frames[idx]
		if i < len(screens) && screens[i] != "" {
			f.Content = screens[i]
			f.Name = generate.ScreenName(screens[i], screenName(i+1))
		} else {
			f.Content = ErrorHTML(i + 1)
		}
	}
	if len(screens) < len(g.ids) {
		Logger().Warn("generator returned fewer screens than requested", "want", len(g.ids), "got", len(screens))
	}
	s.save()
	s.host.Progress(100)
	s.endGeneration(g, nil)
}

// failGeneration leaves the skeletons in place and surfaces the error.
func (s *Session) failGeneration(g *Generation, err error) {
	Logger().Error("generation failed", "error", err)
	s.host.Alert(fmt.Sprintf("Generation failed: %v", err))
	s.endGeneration(g, err)
}

func (s *Session) endGeneration(g *Generation, err error) {
	s.gen = nil
	g.err = err
	g.cancel()
	close(g.done)
}

// CancelGeneration aborts the outstanding generation and removes its
// placeholders that still show skeleton content. It reports whether anything
// was pending.
func (s *Session) CancelGeneration() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.gen
	if g == nil {
		return false
	}
	s.finishGesture()
	for _, id := range g.ids {
		if idx := s.doc.IndexOf(id); idx >= 0 && s.doc.frames[idx].Content == SkeletonHTML {
			s.doc.RemoveFrame(idx)
		}
	}
	s.save()
	s.endGeneration(g, context.Canceled)
	return true
}

// Generating reports whether a generation is outstanding.
func (s *Session) Generating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen != nil
}
