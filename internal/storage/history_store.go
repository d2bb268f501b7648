package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultHistoryLimit matches the editor's in-memory undo bound.
const DefaultHistoryLimit = 20

// HistoryStore keeps each project's undo stack so it survives a restart.
// Entries are ordered by seq; the newest is the next to be undone.
type HistoryStore struct {
	db    *DB
	limit int
}

func NewHistoryStore(db *DB, limit int) *HistoryStore {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &HistoryStore{db: db, limit: limit}
}

// Load returns the stored snapshots for a project, oldest first.
func (s *HistoryStore) Load(projectID string) ([][]byte, error) {
	rows, err := s.db.query(
		`SELECT snapshot FROM history_entries WHERE project_id = ? ORDER BY seq ASC`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var snap string
		if err := rows.Scan(&snap); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		out = append(out, []byte(snap))
	}
	return out, rows.Err()
}

// Append pushes a snapshot and prunes the oldest entries past the limit.
func (s *HistoryStore) Append(projectID string, snapshot []byte) error {
	var seq sql.NullInt64
	if err := s.db.queryRow(
		`SELECT MAX(seq) FROM history_entries WHERE project_id = ?`, projectID,
	).Scan(&seq); err != nil {
		return fmt.Errorf("read history seq: %w", err)
	}
	_, err := s.db.exec(
		`INSERT INTO history_entries (id, project_id, seq, snapshot, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), projectID, seq.Int64+1, string(snapshot), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return s.prune(projectID)
}

// DropLast removes the newest entry. An empty stack is not an error.
func (s *HistoryStore) DropLast(projectID string) error {
	var id string
	err := s.db.queryRow(
		`SELECT id FROM history_entries WHERE project_id = ? ORDER BY seq DESC LIMIT 1`, projectID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find last history entry: %w", err)
	}
	if _, err := s.db.exec(`DELETE FROM history_entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("drop history entry: %w", err)
	}
	return nil
}

// Clear removes all history for a project.
func (s *HistoryStore) Clear(projectID string) error {
	_, err := s.db.exec(`DELETE FROM history_entries WHERE project_id = ?`, projectID)
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// PruneOlderThan deletes entries created before cutoff across all projects.
func (s *HistoryStore) PruneOlderThan(cutoff time.Time) (int64, error) {
	res, err := s.db.exec(`DELETE FROM history_entries WHERE created_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Journal binds the store to one project.
func (s *HistoryStore) Journal(projectID string) *ProjectJournal {
	return &ProjectJournal{store: s, projectID: projectID}
}

// prune keeps the newest limit entries. Ids are collected before any delete
// so no rows cursor is open during the writes.
func (s *HistoryStore) prune(projectID string) error {
	var count int
	if err := s.db.queryRow(
		`SELECT COUNT(*) FROM history_entries WHERE project_id = ?`, projectID,
	).Scan(&count); err != nil {
		return fmt.Errorf("count history: %w", err)
	}
	if count <= s.limit {
		return nil
	}

	rows, err := s.db.query(
		`SELECT id FROM history_entries WHERE project_id = ? ORDER BY seq ASC LIMIT ?`,
		projectID, count-s.limit,
	)
	if err != nil {
		return fmt.Errorf("select stale history: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan stale history: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	for _, id := range ids {
		if _, err := s.db.exec(`DELETE FROM history_entries WHERE id = ?`, id); err != nil {
			return fmt.Errorf("prune history entry: %w", err)
		}
	}
	return nil
}

// ProjectJournal mirrors one editor session's undo stack.
type ProjectJournal struct {
	store     *HistoryStore
	projectID string
}

func (j *ProjectJournal) Append(snapshot []byte) error {
	return j.store.Append(j.projectID, snapshot)
}

func (j *ProjectJournal) DropLast() error {
	return j.store.DropLast(j.projectID)
}
