package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aawohq/aawo/internal/briefing"
	"github.com/aawohq/aawo/internal/shared/audit"
)

// BriefingHandler serves the daily briefing and the audit log.
type BriefingHandler struct {
	briefing *briefing.Service
	auditLog audit.Repository
	logger   *slog.Logger
}

// NewBriefingHandler creates the handler. The audit repository may be
// nil when auditing is disabled.
func NewBriefingHandler(briefingService *briefing.Service, auditLog audit.Repository, logger *slog.Logger) *BriefingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BriefingHandler{briefing: briefingService, auditLog: auditLog, logger: logger}
}

// Daily handles GET /api/v1/briefing/daily.
func (h *BriefingHandler) Daily(w http.ResponseWriter, r *http.Request) {
	daily, err := h.briefing.BuildDaily(r.Context(), time.Now().UTC())
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, daily)
}

// Audit handles GET /api/v1/audit.
func (h *BriefingHandler) Audit(w http.ResponseWriter, r *http.Request) {
	if h.auditLog == nil {
		writeJSON(w, http.StatusOK, map[string]any{"entries": []audit.Entry{}})
		return
	}
	entries, err := h.auditLog.List(r.Context(), parseIntParam(r, "limit", 100))
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
