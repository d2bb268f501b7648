package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"layr/internal/canvas"
	"layr/internal/domain"
	"layr/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Project Service: project list and persistence
// ─────────────────────────────────────────────────────────────

const DefaultProjectName = "Untitled Project"

// ProjectService manages projects. The store may be SQL or Mongo; undo
// history always lives in the SQL history table when one is configured.
type ProjectService struct {
	store   domain.ProjectStore
	history *storage.HistoryStore
	emitter EventEmitter
}

// NewProjectService creates a ProjectService. history may be nil.
func NewProjectService(store domain.ProjectStore, history *storage.HistoryStore, emitter EventEmitter) *ProjectService {
	if emitter == nil {
		emitter = nopEmitter{}
	}
	return &ProjectService{store: store, history: history, emitter: emitter}
}

func (s *ProjectService) ListProjects() ([]domain.ProjectSummary, error) {
	list, err := s.store.ListProjects()
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.ProjectSummary{}
	}
	return list, nil
}

func (s *ProjectService) CreateProject(name string) (*domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultProjectName
	}
	p := &domain.Project{
		ID:   uuid.New().String(),
		Name: name,
		Data: domain.ProjectData{Screens: []domain.ScreenFrame{}},
	}
	p.Touch()
	if err := s.store.CreateProject(p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

// OpenProject loads a project for editing. Data that cannot be decoded opens
// as an empty document instead of failing.
func (s *ProjectService) OpenProject(id string) (*domain.Project, error) {
	p, err := s.store.GetProject(id)
	if errors.Is(err, domain.ErrMalformedData) && p != nil {
		log.Printf("[STORE] %v; opening empty document", err)
		p.Data = domain.ProjectData{Screens: []domain.ScreenFrame{}}
		return p, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SaveProject writes the editor's current project and notifies the frontend.
func (s *ProjectService) SaveProject(ctx context.Context, p domain.Project) error {
	if err := s.store.UpdateProject(&p); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	s.emitter.Emit(ctx, EventProjectSaved, domain.ProjectSummary{
		ID:          p.ID,
		Name:        p.Name,
		UpdatedAt:   p.UpdatedAt,
		ScreenCount: len(p.Data.Screens),
	})
	return nil
}

func (s *ProjectService) RenameProject(id, name string) error {
	p, err := s.OpenProject(id)
	if err != nil {
		return err
	}
	p.Name = strings.TrimSpace(name)
	if p.Name == "" {
		p.Name = DefaultProjectName
	}
	p.Touch()
	return s.store.UpdateProject(p)
}

func (s *ProjectService) DeleteProject(id string) error {
	if s.history != nil {
		if err := s.history.Clear(id); err != nil {
			return err
		}
	}
	return s.store.DeleteProject(id)
}

// History returns the stored undo snapshots and a journal that keeps them in
// sync. Both are nil without a history store.
func (s *ProjectService) History(id string) ([][]byte, canvas.Journal) {
	if s.history == nil {
		return nil, nil
	}
	seed, err := s.history.Load(id)
	if err != nil {
		log.Printf("[STORE] load history for %s: %v", id, err)
		seed = nil
	}
	return seed, s.history.Journal(id)
}
