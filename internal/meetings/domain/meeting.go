package domain

import (
	"errors"
	"strings"
	"time"

	sharedDomain "github.com/aawohq/aawo/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("meeting not found")
	ErrCandidateNotFound = errors.New("meeting candidate not found")
	ErrEmptyNote         = errors.New("meeting note cannot be empty")
	ErrNotProcessing     = errors.New("meeting is not being processed")
)

// Status is the meeting extraction lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusExtracted  Status = "extracted"
	StatusFailed     Status = "failed"
)

// Meeting is an ingested meeting note with its extraction state.
type Meeting struct {
	sharedDomain.BaseEntity
	title      string
	status     Status
	rawText    string
	transcript string
	errMessage string
}

// NewMeeting creates a pending meeting from a raw note.
func NewMeeting(title, rawText string) (*Meeting, error) {
	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return nil, ErrEmptyNote
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "회의록 " + time.Now().Format("2006-01-02 15:04")
	}
	return &Meeting{
		BaseEntity: sharedDomain.NewBaseEntity(),
		title:      title,
		status:     StatusPending,
		rawText:    rawText,
	}, nil
}

func (m *Meeting) Title() string      { return m.title }
func (m *Meeting) Status() Status     { return m.status }
func (m *Meeting) RawText() string    { return m.rawText }
func (m *Meeting) Transcript() string { return m.transcript }
func (m *Meeting) ErrMessage() string { return m.errMessage }

// StartProcessing moves the meeting into processing and records the
// normalized transcript.
func (m *Meeting) StartProcessing(transcript string) {
	m.status = StatusProcessing
	m.transcript = transcript
	m.Touch()
}

// MarkExtracted finishes processing successfully.
func (m *Meeting) MarkExtracted() error {
	if m.status != StatusProcessing {
		return ErrNotProcessing
	}
	m.status = StatusExtracted
	m.Touch()
	return nil
}

// MarkFailed finishes processing with an error.
func (m *Meeting) MarkFailed(message string) {
	m.status = StatusFailed
	m.errMessage = message
	m.Touch()
}

// RehydrateMeeting recreates a meeting from persisted state.
func RehydrateMeeting(id uuid.UUID, title string, status Status, rawText, transcript, errMessage string, createdAt, updatedAt time.Time) *Meeting {
	return &Meeting{
		BaseEntity: sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		title:      title,
		status:     status,
		rawText:    rawText,
		transcript: transcript,
		errMessage: errMessage,
	}
}
