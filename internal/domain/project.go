package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// Project is the persisted unit: one canvas document plus metadata.
// UpdatedAt is unix milliseconds, as stored by the browser editor.
type Project struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	UpdatedAt int64       `json:"updatedAt"`
	Data      ProjectData `json:"data"`
}

type ProjectData struct {
	Screens     []ScreenFrame `json:"screens"`
	Annotations Annotations   `json:"annotations"`
}

// Touch stamps the project with the current time.
func (p *Project) Touch() {
	p.UpdatedAt = time.Now().UnixMilli()
}

// DecodeProjectData parses stored project data. Empty input is an empty document.
func DecodeProjectData(raw []byte) (ProjectData, error) {
	var d ProjectData
	if len(raw) == 0 {
		return d, nil
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return ProjectData{}, err
	}
	for i := range d.Screens {
		if d.Screens[i].Height < 0 {
			return ProjectData{}, errors.New("negative frame height")
		}
	}
	return d, nil
}

// ProjectSummary is the list view of a project.
type ProjectSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	UpdatedAt   int64  `json:"updatedAt"`
	ScreenCount int    `json:"screenCount"`
}

var (
	ErrNotFound      = errors.New("not found")
	ErrMalformedData = errors.New("malformed project data")
)

// ProjectStore persists projects. GetProject returns the project with empty
// data and an error wrapping ErrMalformedData when the stored document cannot
// be decoded.
type ProjectStore interface {
	CreateProject(p *Project) error
	GetProject(id string) (*Project, error)
	ListProjects() ([]ProjectSummary, error)
	UpdateProject(p *Project) error
	DeleteProject(id string) error
}
