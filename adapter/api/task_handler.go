package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/productivity/application/commands"
	"github.com/aawohq/aawo/internal/productivity/application/queries"
)

// TaskHandler serves the task CRUD endpoints.
type TaskHandler struct {
	createTask   *commands.CreateTaskHandler
	updateTask   *commands.UpdateTaskHandler
	changeStatus *commands.ChangeTaskStatusHandler
	deleteTask   *commands.DeleteTaskHandler
	getTask      *queries.GetTaskHandler
	listTasks    *queries.ListTasksHandler
	logger       *slog.Logger
}

// NewTaskHandler creates the handler.
func NewTaskHandler(
	createTask *commands.CreateTaskHandler,
	updateTask *commands.UpdateTaskHandler,
	changeStatus *commands.ChangeTaskStatusHandler,
	deleteTask *commands.DeleteTaskHandler,
	getTask *queries.GetTaskHandler,
	listTasks *queries.ListTasksHandler,
	logger *slog.Logger,
) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		createTask:   createTask,
		updateTask:   updateTask,
		changeStatus: changeStatus,
		deleteTask:   deleteTask,
		getTask:      getTask,
		listTasks:    listTasks,
		logger:       logger,
	}
}

type taskWriteRequest struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Priority      *int       `json:"priority"`
	EffortMinutes *int       `json:"effort_minutes"`
	DueAt         *time.Time `json:"due_at"`
	ClearDueAt    bool       `json:"clear_due_at"`
	ProjectID     *uuid.UUID `json:"project_id"`
	ClearProject  bool       `json:"clear_project_id"`
	Assignee      *string    `json:"assignee"`
	Version       *int       `json:"version"`
}

// Create handles POST /api/v1/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskWriteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == nil {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	cmd := commands.CreateTaskCommand{
		Title:         *req.Title,
		Priority:      req.Priority,
		EffortMinutes: req.EffortMinutes,
		DueAt:         req.DueAt,
		ProjectID:     req.ProjectID,
		Source:        "user",
	}
	if req.Description != nil {
		cmd.Description = *req.Description
	}
	if req.Assignee != nil {
		cmd.Assignee = *req.Assignee
	}

	created, err := h.createTask.Handle(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskDTO(created))
}

// Get handles GET /api/v1/tasks/{taskID}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "taskID")
	if !ok {
		return
	}
	found, err := h.getTask.Handle(r.Context(), id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(found))
}

// List handles GET /api/v1/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	query := queries.ListTasksQuery{
		Limit: parseIntParam(r, "limit", 0),
	}
	if statuses := r.URL.Query().Get("status"); statuses != "" {
		query.Statuses = strings.Split(statuses, ",")
	}
	if projectID := r.URL.Query().Get("project_id"); projectID != "" {
		id, err := uuid.Parse(projectID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid project_id")
			return
		}
		query.ProjectID = &id
	}
	dueBefore, err := parseTimeParam(r, "due_before")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	query.DueBefore = dueBefore

	tasks, err := h.listTasks.Handle(r.Context(), query)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": toTaskDTOs(tasks)})
}

// Update handles PATCH /api/v1/tasks/{taskID}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "taskID")
	if !ok {
		return
	}
	var req taskWriteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cmd := commands.UpdateTaskCommand{
		ID:             id,
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		EffortMinutes:  req.EffortMinutes,
		DueAt:          req.DueAt,
		ClearDueAt:     req.ClearDueAt,
		ProjectID:      req.ProjectID,
		ClearProjectID: req.ClearProject,
		Assignee:       req.Assignee,
		Version:        req.Version,
	}

	updated, err := h.updateTask.Handle(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(updated))
}

// ChangeStatus handles POST /api/v1/tasks/{taskID}/status.
func (h *TaskHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "taskID")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	changed, err := h.changeStatus.Handle(r.Context(), commands.ChangeTaskStatusCommand{ID: id, Status: req.Status})
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(changed))
}

// Delete handles DELETE /api/v1/tasks/{taskID}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "taskID")
	if !ok {
		return
	}
	if err := h.deleteTask.Handle(r.Context(), id); err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
