package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aawohq/aawo/internal/calendar/application/oauth"
	calendarDomain "github.com/aawohq/aawo/internal/calendar/domain"
	"github.com/aawohq/aawo/internal/calendar/infrastructure/microsoft"
)

// defaultImportWindowDays bounds a calendar import when the caller
// gives no window.
const defaultImportWindowDays = 14

// CalendarHandler serves the Microsoft Graph connection and import
// endpoints.
type CalendarHandler struct {
	oauth      *oauth.Service
	importer   *microsoft.Importer
	mirror     calendarDomain.Mirror
	syncStatus calendarDomain.SyncStatusRepository
	logger     *slog.Logger
}

// NewCalendarHandler creates the handler.
func NewCalendarHandler(
	oauthService *oauth.Service,
	importer *microsoft.Importer,
	mirror calendarDomain.Mirror,
	syncStatus calendarDomain.SyncStatusRepository,
	logger *slog.Logger,
) *CalendarHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CalendarHandler{
		oauth:      oauthService,
		importer:   importer,
		mirror:     mirror,
		syncStatus: syncStatus,
		logger:     logger,
	}
}

// AuthURL handles GET /api/v1/graph/auth-url.
func (h *CalendarHandler) AuthURL(w http.ResponseWriter, r *http.Request) {
	if !h.oauth.Configured() {
		writeError(w, http.StatusConflict, "microsoft graph credentials are not configured")
		return
	}
	authURL, err := h.oauth.AuthURL(r.Context())
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"auth_url": authURL})
}

// Callback handles GET /api/v1/graph/callback.
func (h *CalendarHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	status, err := h.oauth.CompleteAuth(r.Context(), code, state)
	if err != nil {
		h.logger.Error("oauth callback failed", "error", err)
		writeError(w, http.StatusBadRequest, "authorization failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Status handles GET /api/v1/graph/status.
func (h *CalendarHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.oauth.Status(r.Context())
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Disconnect handles DELETE /api/v1/graph/connection.
func (h *CalendarHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.oauth.Disconnect(r.Context()); err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Ping handles POST /api/v1/graph/ping. It makes a live round trip to
// the provider.
func (h *CalendarHandler) Ping(w http.ResponseWriter, r *http.Request) {
	connected := h.mirror.IsConnected(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"connected": connected})
}

// ImportEvents handles POST /api/v1/graph/import/events.
func (h *CalendarHandler) ImportEvents(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Start *time.Time `json:"start"`
		End   *time.Time `json:"end"`
	}
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}

	now := time.Now().UTC()
	start := now
	end := now.AddDate(0, 0, defaultImportWindowDays)
	if req.Start != nil {
		start = *req.Start
	}
	if req.End != nil {
		end = *req.End
	}
	if !end.After(start) {
		writeError(w, http.StatusBadRequest, "end must be after start")
		return
	}

	summary, err := h.importer.ImportCalendar(r.Context(), start, end)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// TodoLists handles GET /api/v1/graph/todo/lists.
func (h *CalendarHandler) TodoLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.importer.ListTodoLists(r.Context())
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lists": lists})
}

// ImportTodo handles POST /api/v1/graph/import/todo.
func (h *CalendarHandler) ImportTodo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ListID string `json:"list_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ListID == "" {
		writeError(w, http.StatusBadRequest, "list_id is required")
		return
	}

	summary, err := h.importer.ImportTodo(r.Context(), req.ListID)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// SyncStatus handles GET /api/v1/sync/status.
func (h *CalendarHandler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.syncStatus.Load(r.Context())
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
