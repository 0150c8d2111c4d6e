package queries

import (
	"context"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/meetings/domain"
)

// GetMeetingHandler fetches a meeting.
type GetMeetingHandler struct {
	meetings domain.Repository
}

// NewGetMeetingHandler creates the handler.
func NewGetMeetingHandler(meetings domain.Repository) *GetMeetingHandler {
	return &GetMeetingHandler{meetings: meetings}
}

// Handle returns the meeting by id.
func (h *GetMeetingHandler) Handle(ctx context.Context, id uuid.UUID) (*domain.Meeting, error) {
	return h.meetings.FindMeetingByID(ctx, id)
}

// ListMeetingsHandler lists recent meetings.
type ListMeetingsHandler struct {
	meetings domain.Repository
}

// NewListMeetingsHandler creates the handler.
func NewListMeetingsHandler(meetings domain.Repository) *ListMeetingsHandler {
	return &ListMeetingsHandler{meetings: meetings}
}

// Handle returns meetings, newest first.
func (h *ListMeetingsHandler) Handle(ctx context.Context, limit int) ([]*domain.Meeting, error) {
	return h.meetings.ListMeetings(ctx, limit)
}

// ListCandidatesHandler lists a meeting's extracted candidates.
type ListCandidatesHandler struct {
	meetings domain.Repository
}

// NewListCandidatesHandler creates the handler.
func NewListCandidatesHandler(meetings domain.Repository) *ListCandidatesHandler {
	return &ListCandidatesHandler{meetings: meetings}
}

// Handle returns candidates for the meeting in creation order.
func (h *ListCandidatesHandler) Handle(ctx context.Context, meetingID uuid.UUID) ([]*domain.MeetingCandidate, error) {
	if _, err := h.meetings.FindMeetingByID(ctx, meetingID); err != nil {
		return nil, err
	}
	return h.meetings.ListCandidates(ctx, meetingID)
}
