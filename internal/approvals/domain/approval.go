package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sharedDomain "github.com/aawohq/aawo/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("approval request not found")
	ErrAlreadyResolved = errors.New("approval request is already resolved")
	ErrEmptyTitle      = errors.New("approval title cannot be empty")
	ErrUnknownKind     = errors.New("unknown approval kind")
)

// ReasonSupersededByNewCommand marks clarifications displaced by a
// newer chat command.
const ReasonSupersededByNewCommand = "clarification_superseded_by_new_command"

// Kind classifies what an approval request is asking for.
type Kind string

const (
	KindActionItem        Kind = "action_item"
	KindReschedule        Kind = "reschedule"
	KindChatPendingAction Kind = "chat_pending_action"
	KindChatClarification Kind = "chat_clarification"
	KindOther             Kind = "other"
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindActionItem, KindReschedule, KindChatPendingAction, KindChatClarification, KindOther:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Status is the approval lifecycle state. Resolution is terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ActionItemPayload carries a meeting candidate awaiting confirmation.
type ActionItemPayload struct {
	MeetingID     uuid.UUID  `json:"meeting_id"`
	CandidateID   uuid.UUID  `json:"candidate_id"`
	Title         string     `json:"title"`
	Assignee      string     `json:"assignee,omitempty"`
	DueAt         *time.Time `json:"due_at,omitempty"`
	EffortMinutes int        `json:"effort_minutes"`
	Confidence    float64    `json:"confidence"`
}

// ReschedulePayload points at a draft proposal awaiting confirmation.
type ReschedulePayload struct {
	ProposalID uuid.UUID `json:"proposal_id"`
	Summary    string    `json:"summary,omitempty"`
}

// ChatPendingActionPayload stores a planned action awaiting confirmation.
type ChatPendingActionPayload struct {
	Action      json.RawMessage `json:"action"`
	Description string          `json:"description,omitempty"`
}

// ChatClarificationPayload stores an ambiguous chat command and the
// question asked back to the user.
type ChatClarificationPayload struct {
	OriginalText string `json:"original_text"`
	Question     string `json:"question"`
}

// ApprovalRequest is a pending decision surfaced to the user.
type ApprovalRequest struct {
	sharedDomain.BaseEntity
	kind       Kind
	status     Status
	title      string
	payload    json.RawMessage
	reason     string
	resolvedAt *time.Time
}

// NewApprovalRequest creates a pending request. The payload shape
// depends on the kind.
func NewApprovalRequest(kind Kind, title string, payload any) (*ApprovalRequest, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal approval payload: %w", err)
	}
	return &ApprovalRequest{
		BaseEntity: sharedDomain.NewBaseEntity(),
		kind:       kind,
		status:     StatusPending,
		title:      title,
		payload:    raw,
	}, nil
}

func (a *ApprovalRequest) Kind() Kind               { return a.kind }
func (a *ApprovalRequest) Status() Status           { return a.status }
func (a *ApprovalRequest) Title() string            { return a.title }
func (a *ApprovalRequest) Payload() json.RawMessage { return a.payload }
func (a *ApprovalRequest) Reason() string           { return a.reason }
func (a *ApprovalRequest) ResolvedAt() *time.Time   { return a.resolvedAt }

// IsPending reports whether the request can still be resolved.
func (a *ApprovalRequest) IsPending() bool { return a.status == StatusPending }

// DecodePayload unmarshals the stored payload into dst.
func (a *ApprovalRequest) DecodePayload(dst any) error {
	return json.Unmarshal(a.payload, dst)
}

// Approve resolves the request positively.
func (a *ApprovalRequest) Approve() error {
	return a.resolve(StatusApproved, "")
}

// Reject resolves the request negatively with an optional reason.
func (a *ApprovalRequest) Reject(reason string) error {
	return a.resolve(StatusRejected, reason)
}

// Supersede auto-rejects the request because a newer one replaced it.
func (a *ApprovalRequest) Supersede(reason string) error {
	return a.resolve(StatusRejected, reason)
}

func (a *ApprovalRequest) resolve(status Status, reason string) error {
	if a.status != StatusPending {
		return ErrAlreadyResolved
	}
	now := time.Now().UTC()
	a.status = status
	a.reason = reason
	a.resolvedAt = &now
	a.Touch()
	return nil
}

// RehydrateApprovalRequest recreates a request from persisted state.
func RehydrateApprovalRequest(
	id uuid.UUID,
	kind Kind,
	status Status,
	title string,
	payload json.RawMessage,
	reason string,
	resolvedAt *time.Time,
	createdAt, updatedAt time.Time,
) *ApprovalRequest {
	return &ApprovalRequest{
		BaseEntity: sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		kind:       kind,
		status:     status,
		title:      title,
		payload:    payload,
		reason:     reason,
		resolvedAt: resolvedAt,
	}
}
