package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"layr/internal/service"
	"layr/internal/storage"
)

// PendingAction is a destructive tool call awaiting the user's answer.
type PendingAction struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	Metadata    string `json:"metadata"`
}

// ApprovalQueue gates destructive tools behind a user confirmation.
//   - In-process (MCP inside the desktop app): channels plus frontend events
//   - Standalone MCP: rows in mcp_approvals that the desktop app answers
type ApprovalQueue struct {
	mu      sync.Mutex
	pending map[string]chan bool
	ctx     context.Context
	emitter service.EventEmitter
	store   *storage.ApprovalStore
	auto    bool

	timeout time.Duration
	poll    time.Duration
}

func NewApprovalQueue(ctx context.Context, emitter service.EventEmitter) *ApprovalQueue {
	return &ApprovalQueue{
		pending: make(map[string]chan bool),
		ctx:     ctx,
		emitter: emitter,
		timeout: 120 * time.Second,
		poll:    500 * time.Millisecond,
	}
}

// SetStore switches to cross-process approvals through the database.
func (q *ApprovalQueue) SetStore(store *storage.ApprovalStore) {
	q.store = store
}

// SetAutoApprove skips confirmation entirely.
func (q *ApprovalQueue) SetAutoApprove(v bool) {
	q.auto = v
}

// Request blocks until the action is approved, rejected or times out.
func (q *ApprovalQueue) Request(tool, description string, metadata ...string) error {
	if q.auto {
		return nil
	}
	id := uuid.New().String()
	meta := "{}"
	if len(metadata) > 0 && metadata[0] != "" {
		meta = metadata[0]
	}
	if q.store != nil {
		return q.requestViaStore(id, tool, description, meta)
	}
	return q.requestViaChannel(id, tool, description, meta)
}

func (q *ApprovalQueue) requestViaStore(id, tool, description, metadata string) error {
	err := q.store.Create(&storage.Approval{ID: id, Tool: tool, Description: description, Metadata: metadata})
	if err != nil {
		return err
	}
	defer q.store.Delete(id)

	deadline := time.Now().Add(q.timeout)
	ticker := time.NewTicker(q.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			status, err := q.store.Status(id)
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("approval for %s was withdrawn", tool)
			}
			switch status {
			case storage.ApprovalApproved:
				return nil
			case storage.ApprovalRejected:
				return fmt.Errorf("action rejected by user: %s", tool)
			}
			if time.Now().After(deadline) {
				return fmt.Errorf("action timed out after %s: %s", q.timeout, tool)
			}
		case <-q.ctx.Done():
			return fmt.Errorf("context cancelled")
		}
	}
}

func (q *ApprovalQueue) requestViaChannel(id, tool, description, metadata string) error {
	ch := make(chan bool, 1)
	q.mu.Lock()
	q.pending[id] = ch
	q.mu.Unlock()
	defer q.cleanup(id)

	q.emitter.Emit(q.ctx, service.EventApproval, PendingAction{
		ID:          id,
		Tool:        tool,
		Description: description,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Metadata:    metadata,
	})

	select {
	case approved := <-ch:
		if !approved {
			return fmt.Errorf("action rejected by user: %s", tool)
		}
		return nil
	case <-time.After(q.timeout):
		q.emitter.Emit(q.ctx, service.EventApprovalDone, map[string]string{"id": id})
		return fmt.Errorf("action timed out after %s: %s", q.timeout, tool)
	case <-q.ctx.Done():
		return fmt.Errorf("context cancelled")
	}
}

// Approve answers a pending in-process action.
func (q *ApprovalQueue) Approve(actionID string) { q.answer(actionID, true) }

// Reject answers a pending in-process action.
func (q *ApprovalQueue) Reject(actionID string) { q.answer(actionID, false) }

func (q *ApprovalQueue) answer(id string, approved bool) {
	q.mu.Lock()
	ch, ok := q.pending[id]
	q.mu.Unlock()
	if ok {
		select {
		case ch <- approved:
		default:
		}
	}
}

func (q *ApprovalQueue) cleanup(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}
