package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aawohq/aawo/internal/projects/domain"
)

// CreateProjectCommand creates a new project.
type CreateProjectCommand struct {
	Name        string
	Description string
	Color       string
}

// CreateProjectHandler handles project creation.
type CreateProjectHandler struct {
	projects domain.Repository
	logger   *slog.Logger
}

// NewCreateProjectHandler creates the handler.
func NewCreateProjectHandler(projects domain.Repository, logger *slog.Logger) *CreateProjectHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateProjectHandler{projects: projects, logger: logger}
}

// Handle creates the project, rejecting duplicate names.
func (h *CreateProjectHandler) Handle(ctx context.Context, cmd CreateProjectCommand) (*domain.Project, error) {
	project, err := domain.NewProject(cmd.Name)
	if err != nil {
		return nil, err
	}
	project.SetDescription(cmd.Description)
	if err := project.SetColor(cmd.Color); err != nil {
		return nil, err
	}

	existing, err := h.projects.FindByName(ctx, project.Name())
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateName
	}

	if err := h.projects.Save(ctx, project); err != nil {
		return nil, err
	}
	h.logger.Info("project created", "project_id", project.ID(), "name", project.Name())
	return project, nil
}
