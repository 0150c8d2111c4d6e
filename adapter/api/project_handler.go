package api

import (
	"log/slog"
	"net/http"

	"github.com/aawohq/aawo/internal/projects/application/commands"
	"github.com/aawohq/aawo/internal/projects/application/queries"
)

// ProjectHandler serves the project CRUD endpoints.
type ProjectHandler struct {
	createProject *commands.CreateProjectHandler
	updateProject *commands.UpdateProjectHandler
	deleteProject *commands.DeleteProjectHandler
	getProject    *queries.GetProjectHandler
	listProjects  *queries.ListProjectsHandler
	logger        *slog.Logger
}

// NewProjectHandler creates the handler.
func NewProjectHandler(
	createProject *commands.CreateProjectHandler,
	updateProject *commands.UpdateProjectHandler,
	deleteProject *commands.DeleteProjectHandler,
	getProject *queries.GetProjectHandler,
	listProjects *queries.ListProjectsHandler,
	logger *slog.Logger,
) *ProjectHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectHandler{
		createProject: createProject,
		updateProject: updateProject,
		deleteProject: deleteProject,
		getProject:    getProject,
		listProjects:  listProjects,
		logger:        logger,
	}
}

// Create handles POST /api/v1/projects.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Color       string `json:"color"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.createProject.Handle(r.Context(), commands.CreateProjectCommand{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectDTO(created))
}

// Get handles GET /api/v1/projects/{projectID}.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "projectID")
	if !ok {
		return
	}
	found, err := h.getProject.Handle(r.Context(), id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(found))
}

// List handles GET /api/v1/projects.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.listProjects.Handle(r.Context())
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	out := make([]projectDTO, 0, len(projects))
	for _, project := range projects {
		out = append(out, toProjectDTO(project))
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": out})
}

// Update handles PATCH /api/v1/projects/{projectID}.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "projectID")
	if !ok {
		return
	}
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Color       *string `json:"color"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.updateProject.Handle(r.Context(), commands.UpdateProjectCommand{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(updated))
}

// Delete handles DELETE /api/v1/projects/{projectID}.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "projectID")
	if !ok {
		return
	}
	if err := h.deleteProject.Handle(r.Context(), id); err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
