package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"layr/internal/domain"
)

// ErrNotFound is returned when a project id has no row.
var ErrNotFound = domain.ErrNotFound

// ProjectStore implements domain.ProjectStore over SQL.
type ProjectStore struct {
	db *DB
}

func NewProjectStore(db *DB) *ProjectStore {
	return &ProjectStore{db: db}
}

func (s *ProjectStore) CreateProject(p *domain.Project) error {
	if p.UpdatedAt == 0 {
		p.Touch()
	}
	data, err := encodeData(p.Data)
	if err != nil {
		return err
	}
	_, err = s.db.exec(
		`INSERT INTO projects (id, name, screen_count, data, updated_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, len(p.Data.Screens), data, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// GetProject loads one project. Undecodable data yields the project with an
// empty document and an error wrapping domain.ErrMalformedData.
func (s *ProjectStore) GetProject(id string) (*domain.Project, error) {
	p := &domain.Project{}
	var raw string
	err := s.db.queryRow(
		`SELECT id, name, data, updated_at FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &raw, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	data, err := domain.DecodeProjectData([]byte(raw))
	if err != nil {
		return p, fmt.Errorf("project %s: %w: %v", id, domain.ErrMalformedData, err)
	}
	p.Data = data
	return p, nil
}

// ListProjects returns summaries, most recently updated first.
func (s *ProjectStore) ListProjects() ([]domain.ProjectSummary, error) {
	rows, err := s.db.query(`SELECT id, name, updated_at, screen_count FROM projects ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []domain.ProjectSummary
	for rows.Next() {
		var p domain.ProjectSummary
		if err := rows.Scan(&p.ID, &p.Name, &p.UpdatedAt, &p.ScreenCount); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateProject overwrites name and data. UpdatedAt is kept as given so the
// editor's save time is what gets stored.
func (s *ProjectStore) UpdateProject(p *domain.Project) error {
	if p.UpdatedAt == 0 {
		p.Touch()
	}
	data, err := encodeData(p.Data)
	if err != nil {
		return err
	}
	res, err := s.db.exec(
		`UPDATE projects SET name = ?, screen_count = ?, data = ?, updated_at = ? WHERE id = ?`,
		p.Name, len(p.Data.Screens), data, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	// MySQL counts changed rows, not matched ones
	if s.db.driver == DriverMySQL {
		return nil
	}
	return requireRow(res, p.ID)
}

func (s *ProjectStore) DeleteProject(id string) error {
	if _, err := s.db.exec(`DELETE FROM history_entries WHERE project_id = ?`, id); err != nil {
		return fmt.Errorf("delete project history: %w", err)
	}
	res, err := s.db.exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return requireRow(res, id)
}

func encodeData(d domain.ProjectData) (string, error) {
	if d.Screens == nil {
		d.Screens = []domain.ScreenFrame{}
	}
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode project data: %w", err)
	}
	return string(b), nil
}

// requireRow maps zero affected rows to ErrNotFound.
func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil || n > 0 {
		return nil
	}
	return fmt.Errorf("project %s: %w", id, ErrNotFound)
}
