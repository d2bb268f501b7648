package service

import (
	"context"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples services from wailsRuntime
// ─────────────────────────────────────────────────────────────

// Events sent to the frontend.
const (
	EventProjectSaved  = "project:saved"
	EventScroll        = "canvas:scroll"
	EventCapture       = "canvas:capture"
	EventRelease       = "canvas:release"
	EventFocusLabel    = "canvas:focus-label"
	EventProgress      = "generation:progress"
	EventAlert         = "editor:alert"
	EventFrameReloaded = "frame:reloaded"
	EventHistoryPruned = "history:pruned"

	EventProjectReloaded = "project:reloaded"
	EventApproval        = "mcp:approval-required"
	EventApprovalDone    = "mcp:approval-dismissed"
)

// EventEmitter is implemented by the App via wailsRuntime.EventsEmit.
// Services take it instead of a Wails context so they can be tested with
// MockEmitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// MockEmitter records every emission. Safe for use from generation
// goroutines.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Named returns the payloads emitted under event, in order.
func (m *MockEmitter) Named(event string) []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []any
	for _, e := range m.Events {
		if e.Event == event {
			out = append(out, e.Data)
		}
	}
	return out
}

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, string, any) {}
