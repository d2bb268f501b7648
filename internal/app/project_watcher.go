package app

import (
	"context"
	"log"
	"sync"
	"time"

	"layr/internal/service"
	"layr/internal/storage"
)

// projectWatcher polls for writes made by another process (the standalone
// MCP server) and pushes them to the frontend: newer project versions reload
// open sessions, and pending MCP approvals are announced once each.
type projectWatcher struct {
	ctx       context.Context
	editor    *service.EditorService
	approvals *storage.ApprovalStore
	emitter   service.EventEmitter
	interval  time.Duration

	mu     sync.Mutex
	stopCh chan struct{}
	// approvals already announced, dropped once no longer pending
	emitted map[string]bool
}

func newProjectWatcher(ctx context.Context, editor *service.EditorService, approvals *storage.ApprovalStore, emitter service.EventEmitter) *projectWatcher {
	return &projectWatcher{
		ctx:       ctx,
		editor:    editor,
		approvals: approvals,
		emitter:   emitter,
		interval:  2 * time.Second,
		emitted:   map[string]bool{},
	}
}

// Start begins the polling loop. Should be called once on app startup.
func (w *projectWatcher) Start() {
	w.stopCh = make(chan struct{})
	go w.pollLoop()
}

func (w *projectWatcher) Stop() {
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}

func (w *projectWatcher) pollLoop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	stop := w.stopCh

	for {
		select {
		case <-ticker.C:
			w.check()
		case <-stop:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *projectWatcher) check() {
	// ── Open projects ───────────────────────────────────
	for _, sess := range w.editor.Sessions() {
		if _, err := w.editor.Refresh(sess.ProjectID()); err != nil {
			log.Printf("[WATCH] refresh %s: %v", sess.ProjectID(), err)
		}
	}

	// ── Pending MCP approvals ───────────────────────────
	if w.approvals == nil {
		return
	}
	pending, err := w.approvals.Pending()
	if err != nil {
		log.Printf("[WATCH] %v", err)
		return
	}
	live := make(map[string]bool, len(pending))
	for _, a := range pending {
		live[a.ID] = true
		w.mu.Lock()
		sent := w.emitted[a.ID]
		w.emitted[a.ID] = true
		w.mu.Unlock()
		if !sent {
			w.emitter.Emit(w.ctx, service.EventApproval, a)
		}
	}

	w.mu.Lock()
	for id := range w.emitted {
		if !live[id] {
			delete(w.emitted, id)
		}
	}
	w.mu.Unlock()
}
