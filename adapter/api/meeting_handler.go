package api

import (
	"log/slog"
	"net/http"

	"github.com/aawohq/aawo/internal/meetings/application/commands"
	"github.com/aawohq/aawo/internal/meetings/application/queries"
)

// MeetingHandler serves meeting ingestion and candidate listing.
type MeetingHandler struct {
	ingest         *commands.IngestMeetingHandler
	getMeeting     *queries.GetMeetingHandler
	listMeetings   *queries.ListMeetingsHandler
	listCandidates *queries.ListCandidatesHandler
	logger         *slog.Logger
}

// NewMeetingHandler creates the handler.
func NewMeetingHandler(
	ingest *commands.IngestMeetingHandler,
	getMeeting *queries.GetMeetingHandler,
	listMeetings *queries.ListMeetingsHandler,
	listCandidates *queries.ListCandidatesHandler,
	logger *slog.Logger,
) *MeetingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MeetingHandler{
		ingest:         ingest,
		getMeeting:     getMeeting,
		listMeetings:   listMeetings,
		listCandidates: listCandidates,
		logger:         logger,
	}
}

// Ingest handles POST /api/v1/meetings. Extraction runs in the
// background, so the answer is 202 with the meeting id.
func (h *MeetingHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string `json:"title"`
		RawText string `json:"raw_text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	meetingID, err := h.ingest.Handle(r.Context(), commands.IngestMeetingCommand{
		Title:   req.Title,
		RawText: req.RawText,
	})
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"meeting_id": meetingID.String(),
		"status":     "pending",
	})
}

// Get handles GET /api/v1/meetings/{meetingID}.
func (h *MeetingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "meetingID")
	if !ok {
		return
	}
	meeting, err := h.getMeeting.Handle(r.Context(), id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toMeetingDTO(meeting))
}

// List handles GET /api/v1/meetings.
func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	meetings, err := h.listMeetings.Handle(r.Context(), parseIntParam(r, "limit", 50))
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	out := make([]meetingDTO, 0, len(meetings))
	for _, meeting := range meetings {
		out = append(out, toMeetingDTO(meeting))
	}
	writeJSON(w, http.StatusOK, map[string]any{"meetings": out})
}

// Candidates handles GET /api/v1/meetings/{meetingID}/candidates.
func (h *MeetingHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "meetingID")
	if !ok {
		return
	}
	// 404 for unknown meetings rather than an empty list.
	if _, err := h.getMeeting.Handle(r.Context(), id); err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	candidates, err := h.listCandidates.Handle(r.Context(), id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	out := make([]candidateDTO, 0, len(candidates))
	for _, candidate := range candidates {
		out = append(out, toCandidateDTO(candidate))
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": out})
}
