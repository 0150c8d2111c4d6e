package api

import (
	"log/slog"
	"net/http"
	"time"

	profileDomain "github.com/aawohq/aawo/internal/profile/domain"
	schedulingDomain "github.com/aawohq/aawo/internal/scheduling/domain"
)

// ProfileHandler serves the single user profile.
type ProfileHandler struct {
	profiles profileDomain.Repository
	logger   *slog.Logger
}

// NewProfileHandler creates the handler.
func NewProfileHandler(profiles profileDomain.Repository, logger *slog.Logger) *ProfileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// Get handles GET /api/v1/profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Load(r.Context())
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(profile))
}

// Put handles PUT /api/v1/profile. The whole profile is replaced;
// omitted fields fall back to their defaults.
func (h *ProfileHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Timezone    string                            `json:"timezone"`
		WorkWindows schedulingDomain.WeekSchedule     `json:"work_windows"`
		Lunch       *schedulingDomain.ClockRange      `json:"lunch"`
		DeepWork    []schedulingDomain.DeepWorkWindow `json:"deep_work"`
		SlotMinutes int                               `json:"slot_minutes"`
		Autonomy    string                            `json:"autonomy"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	defaults := profileDomain.DefaultProfile()
	if req.Timezone == "" {
		req.Timezone = defaults.Timezone
	}
	if req.WorkWindows == nil {
		req.WorkWindows = defaults.WorkWindows
	}
	if req.SlotMinutes == 0 {
		req.SlotMinutes = defaults.SlotMinutes
	}
	autonomy, err := profileDomain.ParseAutonomy(req.Autonomy)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	profile := &profileDomain.Profile{
		Timezone:    req.Timezone,
		WorkWindows: req.WorkWindows,
		Lunch:       req.Lunch,
		DeepWork:    req.DeepWork,
		SlotMinutes: req.SlotMinutes,
		Autonomy:    autonomy,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := profile.Validate(); err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	if err := h.profiles.Save(r.Context(), profile); err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(profile))
}
