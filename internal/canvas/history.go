package canvas

import (
	"encoding/json"
	"fmt"

	"layr/internal/domain"
)

// HistoryLimit is the number of undo snapshots retained.
const HistoryLimit = 20

// Journal mirrors the undo stack to durable storage.
type Journal interface {
	Append(snapshot []byte) error
	DropLast() error
}

// History is a bounded stack of serialized document snapshots. Serializing
// whole documents guarantees a snapshot never aliases live frames.
type History struct {
	entries [][]byte
	limit   int
	journal Journal
}

// NewHistory creates a history seeded with previously journaled entries
// (oldest first). A limit of zero uses HistoryLimit.
func NewHistory(limit int, journal Journal, seed [][]byte) *History {
	if limit <= 0 {
		limit = HistoryLimit
	}
	h := &History{limit: limit, journal: journal}
	h.entries = append(h.entries, seed...)
	h.trim()
	return h
}

// Snapshot serializes the document's current state.
func Snapshot(d *Document) []byte {
	data, err := json.Marshal(d.Data())
	if err != nil {
		// ProjectData holds only strings, numbers and slices of them.
		panic(fmt.Sprintf("marshal snapshot: %v", err))
	}
	return data
}

// Push records a snapshot taken earlier, dropping the oldest past the limit.
func (h *History) Push(snapshot []byte) {
	h.entries = append(h.entries, snapshot)
	h.trim()
	if h.journal != nil {
		if err := h.journal.Append(snapshot); err != nil {
			Logger().Warn("history journal append failed", "error", err)
		}
	}
}

// Record pushes a snapshot of d as it is now.
func (h *History) Record(d *Document) { h.Push(Snapshot(d)) }

// Undo pops the most recent snapshot into d. It returns false when there is
// nothing to undo.
func (h *History) Undo(d *Document) bool {
	n := len(h.entries)
	if n == 0 {
		return false
	}
	last := h.entries[n-1]
	h.entries = h.entries[:n-1]
	if h.journal != nil {
		if err := h.journal.DropLast(); err != nil {
			Logger().Warn("history journal drop failed", "error", err)
		}
	}
	var data domain.ProjectData
	if err := json.Unmarshal(last, &data); err != nil {
		Logger().Error("discarding unreadable history entry", "error", err)
		return false
	}
	d.Load(data)
	return true
}

func (h *History) Len() int { return len(h.entries) }

func (h *History) trim() {
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append([][]byte(nil), h.entries[over:]...)
	}
}
