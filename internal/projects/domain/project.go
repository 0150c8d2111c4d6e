package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	sharedDomain "github.com/aawohq/aawo/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("project not found")
	ErrEmptyName     = errors.New("project name cannot be empty")
	ErrNameTooLong   = errors.New("project name exceeds 120 characters")
	ErrDuplicateName = errors.New("project name already exists")
	ErrInvalidColor  = errors.New("project color must be a #RRGGBB hex value")
)

const MaxNameLength = 120

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Project groups related tasks. Names are unique per owner.
type Project struct {
	sharedDomain.BaseEntity
	name        string
	description string
	color       string
}

// NewProject creates a project.
func NewProject(name string) (*Project, error) {
	p := &Project{BaseEntity: sharedDomain.NewBaseEntity()}
	if err := p.SetName(name); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Project) Name() string        { return p.name }
func (p *Project) Description() string { return p.description }
func (p *Project) Color() string       { return p.color }

// SetName renames the project.
func (p *Project) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if len([]rune(name)) > MaxNameLength {
		return ErrNameTooLong
	}
	p.name = name
	p.Touch()
	return nil
}

// SetDescription updates the description.
func (p *Project) SetDescription(description string) {
	p.description = strings.TrimSpace(description)
	p.Touch()
}

// SetColor sets the display color, empty clears it.
func (p *Project) SetColor(color string) error {
	color = strings.TrimSpace(color)
	if color != "" && !colorPattern.MatchString(color) {
		return ErrInvalidColor
	}
	p.color = color
	p.Touch()
	return nil
}

// RehydrateProject recreates a project from persisted state.
func RehydrateProject(id uuid.UUID, name, description, color string, createdAt, updatedAt time.Time) *Project {
	return &Project{
		BaseEntity:  sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		name:        name,
		description: description,
		color:       color,
	}
}
