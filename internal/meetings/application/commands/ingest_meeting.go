package commands

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/meetings/application/services"
	"github.com/aawohq/aawo/internal/meetings/domain"
)

// IngestMeetingCommand submits a raw meeting note.
type IngestMeetingCommand struct {
	Title   string
	RawText string
}

// IngestMeetingHandler accepts the note and runs extraction in the
// background. The HTTP layer answers 202 with the meeting id.
type IngestMeetingHandler struct {
	meetings  domain.Repository
	processor *services.Processor
	logger    *slog.Logger
}

// NewIngestMeetingHandler creates the handler.
func NewIngestMeetingHandler(meetings domain.Repository, processor *services.Processor, logger *slog.Logger) *IngestMeetingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestMeetingHandler{meetings: meetings, processor: processor, logger: logger}
}

// Handle persists the pending meeting and kicks off extraction.
func (h *IngestMeetingHandler) Handle(ctx context.Context, cmd IngestMeetingCommand) (uuid.UUID, error) {
	meeting, err := domain.NewMeeting(cmd.Title, cmd.RawText)
	if err != nil {
		return uuid.Nil, err
	}
	if err := h.meetings.SaveMeeting(ctx, meeting); err != nil {
		return uuid.Nil, err
	}
	h.logger.Info("meeting note accepted", "meeting_id", meeting.ID())

	// Extraction survives the request: it runs on a detached context.
	go h.processor.Process(context.WithoutCancel(ctx), meeting.ID())
	return meeting.ID(), nil
}
