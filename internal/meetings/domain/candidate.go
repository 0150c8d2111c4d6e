package domain

import (
	"time"

	sharedDomain "github.com/aawohq/aawo/internal/shared/domain"
	"github.com/google/uuid"
)

// CandidateSource records which extractor produced a candidate.
type CandidateSource string

const (
	CandidateSourceLLM  CandidateSource = "llm"
	CandidateSourceRule CandidateSource = "rule"
)

// CandidateStatus is the candidate resolution state.
type CandidateStatus string

const (
	CandidateStatusPending     CandidateStatus = "pending"
	CandidateStatusAutoCreated CandidateStatus = "auto_created"
	CandidateStatusApproved    CandidateStatus = "approved"
	CandidateStatusRejected    CandidateStatus = "rejected"
)

// MeetingCandidate is an action item extracted from a meeting note.
type MeetingCandidate struct {
	sharedDomain.BaseEntity
	meetingID     uuid.UUID
	title         string
	assignee      string
	dueAt         *time.Time
	effortMinutes int
	confidence    float64
	rationale     string
	source        CandidateSource
	status        CandidateStatus
	taskID        *uuid.UUID
}

// NewMeetingCandidate creates a pending candidate.
func NewMeetingCandidate(meetingID uuid.UUID, title, assignee string, dueAt *time.Time, effortMinutes int, confidence float64, rationale string, source CandidateSource) *MeetingCandidate {
	return &MeetingCandidate{
		BaseEntity:    sharedDomain.NewBaseEntity(),
		meetingID:     meetingID,
		title:         title,
		assignee:      assignee,
		dueAt:         dueAt,
		effortMinutes: effortMinutes,
		confidence:    confidence,
		rationale:     rationale,
		source:        source,
		status:        CandidateStatusPending,
	}
}

func (c *MeetingCandidate) MeetingID() uuid.UUID    { return c.meetingID }
func (c *MeetingCandidate) Title() string           { return c.title }
func (c *MeetingCandidate) Assignee() string        { return c.assignee }
func (c *MeetingCandidate) DueAt() *time.Time       { return c.dueAt }
func (c *MeetingCandidate) EffortMinutes() int      { return c.effortMinutes }
func (c *MeetingCandidate) Confidence() float64     { return c.confidence }
func (c *MeetingCandidate) Rationale() string       { return c.rationale }
func (c *MeetingCandidate) Source() CandidateSource { return c.source }
func (c *MeetingCandidate) Status() CandidateStatus { return c.status }
func (c *MeetingCandidate) TaskID() *uuid.UUID      { return c.taskID }

// MarkAutoCreated links the candidate to its auto-created task.
func (c *MeetingCandidate) MarkAutoCreated(taskID uuid.UUID) {
	c.status = CandidateStatusAutoCreated
	c.taskID = &taskID
	c.Touch()
}

// MarkApproved links the candidate to the task created on approval.
func (c *MeetingCandidate) MarkApproved(taskID uuid.UUID) {
	c.status = CandidateStatusApproved
	c.taskID = &taskID
	c.Touch()
}

// MarkRejected discards the candidate.
func (c *MeetingCandidate) MarkRejected() {
	c.status = CandidateStatusRejected
	c.Touch()
}

// RehydrateMeetingCandidate recreates a candidate from persisted state.
func RehydrateMeetingCandidate(
	id, meetingID uuid.UUID,
	title, assignee string,
	dueAt *time.Time,
	effortMinutes int,
	confidence float64,
	rationale string,
	source CandidateSource,
	status CandidateStatus,
	taskID *uuid.UUID,
	createdAt, updatedAt time.Time,
) *MeetingCandidate {
	return &MeetingCandidate{
		BaseEntity:    sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		meetingID:     meetingID,
		title:         title,
		assignee:      assignee,
		dueAt:         dueAt,
		effortMinutes: effortMinutes,
		confidence:    confidence,
		rationale:     rationale,
		source:        source,
		status:        status,
		taskID:        taskID,
	}
}
