package queries

import (
	"context"

	"github.com/aawohq/aawo/internal/projects/domain"
)

// ListProjectsHandler lists all projects.
type ListProjectsHandler struct {
	projects domain.Repository
}

// NewListProjectsHandler creates the handler.
func NewListProjectsHandler(projects domain.Repository) *ListProjectsHandler {
	return &ListProjectsHandler{projects: projects}
}

// Handle returns every project ordered by name.
func (h *ListProjectsHandler) Handle(ctx context.Context) ([]*domain.Project, error) {
	return h.projects.List(ctx)
}
