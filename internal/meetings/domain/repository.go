package domain

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists meetings and their candidates.
type Repository interface {
	SaveMeeting(ctx context.Context, meeting *Meeting) error
	FindMeetingByID(ctx context.Context, id uuid.UUID) (*Meeting, error)
	ListMeetings(ctx context.Context, limit int) ([]*Meeting, error)

	SaveCandidate(ctx context.Context, candidate *MeetingCandidate) error
	FindCandidateByID(ctx context.Context, id uuid.UUID) (*MeetingCandidate, error)
	ListCandidates(ctx context.Context, meetingID uuid.UUID) ([]*MeetingCandidate, error)
}
