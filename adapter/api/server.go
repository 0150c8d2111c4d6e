// Package api exposes the aawo HTTP API.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/aawohq/aawo/pkg/observability"
)

// Server is the HTTP API server.
type Server struct {
	mux    *http.ServeMux
	server *http.Server
	logger *slog.Logger
	health *observability.HealthRegistry
}

// Handlers bundles the route handlers the server mounts.
type Handlers struct {
	Tasks     *TaskHandler
	Projects  *ProjectHandler
	Schedule  *ScheduleHandler
	Meetings  *MeetingHandler
	Approvals *ApprovalHandler
	Assistant *AssistantHandler
	Profile   *ProfileHandler
	Calendar  *CalendarHandler
	Briefing  *BriefingHandler
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "127.0.0.1:8787",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates the API server and mounts all routes.
func NewServer(cfg ServerConfig, handlers Handlers, health *observability.HealthRegistry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		health: health,
	}
	s.registerRoutes(handlers)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) registerRoutes(h Handlers) {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	if h.Tasks != nil {
		s.mux.HandleFunc("POST /api/v1/tasks", h.Tasks.Create)
		s.mux.HandleFunc("GET /api/v1/tasks", h.Tasks.List)
		s.mux.HandleFunc("GET /api/v1/tasks/{taskID}", h.Tasks.Get)
		s.mux.HandleFunc("PATCH /api/v1/tasks/{taskID}", h.Tasks.Update)
		s.mux.HandleFunc("POST /api/v1/tasks/{taskID}/status", h.Tasks.ChangeStatus)
		s.mux.HandleFunc("DELETE /api/v1/tasks/{taskID}", h.Tasks.Delete)
	}

	if h.Projects != nil {
		s.mux.HandleFunc("POST /api/v1/projects", h.Projects.Create)
		s.mux.HandleFunc("GET /api/v1/projects", h.Projects.List)
		s.mux.HandleFunc("GET /api/v1/projects/{projectID}", h.Projects.Get)
		s.mux.HandleFunc("PATCH /api/v1/projects/{projectID}", h.Projects.Update)
		s.mux.HandleFunc("DELETE /api/v1/projects/{projectID}", h.Projects.Delete)
	}

	if h.Schedule != nil {
		s.mux.HandleFunc("POST /api/v1/blocks", h.Schedule.CreateBlock)
		s.mux.HandleFunc("GET /api/v1/blocks", h.Schedule.ListBlocks)
		s.mux.HandleFunc("GET /api/v1/blocks/{blockID}", h.Schedule.GetBlock)
		s.mux.HandleFunc("POST /api/v1/blocks/{blockID}/move", h.Schedule.MoveBlock)
		s.mux.HandleFunc("DELETE /api/v1/blocks/{blockID}", h.Schedule.DeleteBlock)

		s.mux.HandleFunc("POST /api/v1/scheduling/proposals", h.Schedule.GenerateProposal)
		s.mux.HandleFunc("GET /api/v1/scheduling/proposals", h.Schedule.ListProposals)
		s.mux.HandleFunc("GET /api/v1/scheduling/proposals/{proposalID}", h.Schedule.GetProposal)
		s.mux.HandleFunc("POST /api/v1/scheduling/proposals/{proposalID}/apply", h.Schedule.ApplyProposal)
		s.mux.HandleFunc("GET /api/v1/scheduling/free-slots", h.Schedule.FreeSlots)
	}

	if h.Meetings != nil {
		s.mux.HandleFunc("POST /api/v1/meetings", h.Meetings.Ingest)
		s.mux.HandleFunc("GET /api/v1/meetings", h.Meetings.List)
		s.mux.HandleFunc("GET /api/v1/meetings/{meetingID}", h.Meetings.Get)
		s.mux.HandleFunc("GET /api/v1/meetings/{meetingID}/candidates", h.Meetings.Candidates)
	}

	if h.Approvals != nil {
		s.mux.HandleFunc("GET /api/v1/approvals", h.Approvals.List)
		s.mux.HandleFunc("GET /api/v1/approvals/{approvalID}", h.Approvals.Get)
		s.mux.HandleFunc("POST /api/v1/approvals/{approvalID}/approve", h.Approvals.Approve)
		s.mux.HandleFunc("POST /api/v1/approvals/{approvalID}/reject", h.Approvals.Reject)
	}

	if h.Assistant != nil {
		s.mux.HandleFunc("POST /api/v1/assistant/chat", h.Assistant.Chat)
		s.mux.HandleFunc("POST /api/v1/nli/command", h.Assistant.Command)
	}

	if h.Profile != nil {
		s.mux.HandleFunc("GET /api/v1/profile", h.Profile.Get)
		s.mux.HandleFunc("PUT /api/v1/profile", h.Profile.Put)
	}

	if h.Calendar != nil {
		s.mux.HandleFunc("GET /api/v1/graph/auth-url", h.Calendar.AuthURL)
		s.mux.HandleFunc("GET /api/v1/graph/callback", h.Calendar.Callback)
		s.mux.HandleFunc("GET /api/v1/graph/status", h.Calendar.Status)
		s.mux.HandleFunc("DELETE /api/v1/graph/connection", h.Calendar.Disconnect)
		s.mux.HandleFunc("POST /api/v1/graph/ping", h.Calendar.Ping)
		s.mux.HandleFunc("POST /api/v1/graph/import/events", h.Calendar.ImportEvents)
		s.mux.HandleFunc("GET /api/v1/graph/todo/lists", h.Calendar.TodoLists)
		s.mux.HandleFunc("POST /api/v1/graph/import/todo", h.Calendar.ImportTodo)
		s.mux.HandleFunc("GET /api/v1/sync/status", h.Calendar.SyncStatus)
	}

	if h.Briefing != nil {
		s.mux.HandleFunc("GET /api/v1/briefing/daily", h.Briefing.Daily)
		s.mux.HandleFunc("GET /api/v1/audit", h.Briefing.Audit)
	}
}

// Handler exposes the mux, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if s.health != nil {
		results := s.health.Check(r.Context())
		checks := make(map[string]string, len(results))
		healthy := true
		for name, result := range results {
			checks[name] = string(result.Status)
			if result.Status == observability.HealthStatusUnhealthy {
				healthy = false
			}
		}
		response["checks"] = checks
		if !healthy {
			response["status"] = "degraded"
			writeJSON(w, http.StatusServiceUnavailable, response)
			return
		}
	}
	writeJSON(w, http.StatusOK, response)
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting api server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down api server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}
