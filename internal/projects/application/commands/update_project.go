package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/projects/domain"
)

// UpdateProjectCommand changes project fields. Nil pointers leave the
// field untouched.
type UpdateProjectCommand struct {
	ID          uuid.UUID
	Name        *string
	Description *string
	Color       *string
}

// UpdateProjectHandler handles project updates.
type UpdateProjectHandler struct {
	projects domain.Repository
	logger   *slog.Logger
}

// NewUpdateProjectHandler creates the handler.
func NewUpdateProjectHandler(projects domain.Repository, logger *slog.Logger) *UpdateProjectHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UpdateProjectHandler{projects: projects, logger: logger}
}

// Handle applies the requested field changes.
func (h *UpdateProjectHandler) Handle(ctx context.Context, cmd UpdateProjectCommand) (*domain.Project, error) {
	project, err := h.projects.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}

	if cmd.Name != nil && *cmd.Name != project.Name() {
		existing, err := h.projects.FindByName(ctx, *cmd.Name)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if existing != nil && existing.ID() != project.ID() {
			return nil, domain.ErrDuplicateName
		}
		if err := project.SetName(*cmd.Name); err != nil {
			return nil, err
		}
	}
	if cmd.Description != nil {
		project.SetDescription(*cmd.Description)
	}
	if cmd.Color != nil {
		if err := project.SetColor(*cmd.Color); err != nil {
			return nil, err
		}
	}

	if err := h.projects.Save(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}
