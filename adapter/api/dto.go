package api

import (
	"encoding/json"
	"time"

	approvalsDomain "github.com/aawohq/aawo/internal/approvals/domain"
	meetingsDomain "github.com/aawohq/aawo/internal/meetings/domain"
	profileDomain "github.com/aawohq/aawo/internal/profile/domain"
	"github.com/aawohq/aawo/internal/productivity/domain/task"
	projectsDomain "github.com/aawohq/aawo/internal/projects/domain"
	schedulingDomain "github.com/aawohq/aawo/internal/scheduling/domain"
)

type taskDTO struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Status        string     `json:"status"`
	Priority      int        `json:"priority"`
	EffortMinutes int        `json:"effort_minutes"`
	DueAt         *time.Time `json:"due_at,omitempty"`
	ProjectID     *string    `json:"project_id,omitempty"`
	Assignee      string     `json:"assignee,omitempty"`
	Source        string     `json:"source"`
	Version       int        `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func toTaskDTO(t *task.Task) taskDTO {
	dto := taskDTO{
		ID:            t.ID().String(),
		Title:         t.Title(),
		Description:   t.Description(),
		Status:        string(t.Status()),
		Priority:      int(t.Priority()),
		EffortMinutes: t.EffortMinutes(),
		DueAt:         t.DueAtUTC(),
		Assignee:      t.Assignee(),
		Source:        string(t.Source()),
		Version:       t.Version(),
		CreatedAt:     t.CreatedAt(),
		UpdatedAt:     t.UpdatedAt(),
	}
	if t.ProjectID() != nil {
		id := t.ProjectID().String()
		dto.ProjectID = &id
	}
	return dto
}

func toTaskDTOs(tasks []*task.Task) []taskDTO {
	out := make([]taskDTO, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskDTO(t))
	}
	return out
}

type projectDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProjectDTO(p *projectsDomain.Project) projectDTO {
	return projectDTO{
		ID:          p.ID().String(),
		Name:        p.Name(),
		Description: p.Description(),
		Color:       p.Color(),
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   p.UpdatedAt(),
	}
}

type blockDTO struct {
	ID               string    `json:"id"`
	TaskID           *string   `json:"task_id,omitempty"`
	Title            string    `json:"title"`
	StartsAt         time.Time `json:"starts_at"`
	EndsAt           time.Time `json:"ends_at"`
	BlockType        string    `json:"block_type"`
	Status           string    `json:"status"`
	Locked           bool      `json:"locked"`
	Source           string    `json:"source"`
	ExternalProvider string    `json:"external_provider,omitempty"`
	ExternalID       string    `json:"external_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toBlockDTO(b *schedulingDomain.CalendarBlock) blockDTO {
	dto := blockDTO{
		ID:               b.ID().String(),
		Title:            b.Title(),
		StartsAt:         b.StartsAt(),
		EndsAt:           b.EndsAt(),
		BlockType:        string(b.Type()),
		Status:           string(b.Status()),
		Locked:           b.Locked(),
		Source:           string(b.Source()),
		ExternalProvider: b.ExternalProvider(),
		ExternalID:       b.ExternalID(),
		CreatedAt:        b.CreatedAt(),
		UpdatedAt:        b.UpdatedAt(),
	}
	if b.TaskID() != nil {
		id := b.TaskID().String()
		dto.TaskID = &id
	}
	return dto
}

func toBlockDTOs(blocks []*schedulingDomain.CalendarBlock) []blockDTO {
	out := make([]blockDTO, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, toBlockDTO(b))
	}
	return out
}

type intervalDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func toIntervalDTOs(intervals []schedulingDomain.Interval) []intervalDTO {
	out := make([]intervalDTO, 0, len(intervals))
	for _, iv := range intervals {
		out = append(out, intervalDTO{Start: iv.Start, End: iv.End})
	}
	return out
}

type proposedChangeDTO struct {
	ID         string                              `json:"id"`
	TaskID     *string                             `json:"task_id,omitempty"`
	ChangeType string                              `json:"change_type"`
	Payload    schedulingDomain.CreateBlockPayload `json:"payload"`
}

type proposalDTO struct {
	ID          string              `json:"id"`
	Status      string              `json:"status"`
	Strategy    string              `json:"strategy"`
	Summary     string              `json:"summary,omitempty"`
	Explanation string              `json:"explanation,omitempty"`
	Objective   float64             `json:"objective"`
	Horizon     intervalDTO         `json:"horizon"`
	Changes     []proposedChangeDTO `json:"changes"`
	AppliedAt   *time.Time          `json:"applied_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

func toProposalDTO(p *schedulingDomain.SchedulingProposal) proposalDTO {
	dto := proposalDTO{
		ID:          p.ID().String(),
		Status:      string(p.Status()),
		Strategy:    string(p.Strategy()),
		Summary:     p.Summary(),
		Explanation: p.Explanation(),
		Objective:   p.Objective(),
		Horizon:     intervalDTO{Start: p.Horizon().Start, End: p.Horizon().End},
		Changes:     make([]proposedChangeDTO, 0, len(p.Changes())),
		AppliedAt:   p.AppliedAt(),
		CreatedAt:   p.CreatedAt(),
	}
	for _, change := range p.Changes() {
		changeDTO := proposedChangeDTO{
			ID:         change.ID.String(),
			ChangeType: string(change.Type),
			Payload:    change.Payload,
		}
		if change.TaskID != nil {
			id := change.TaskID.String()
			changeDTO.TaskID = &id
		}
		dto.Changes = append(dto.Changes, changeDTO)
	}
	return dto
}

type meetingDTO struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toMeetingDTO(m *meetingsDomain.Meeting) meetingDTO {
	return meetingDTO{
		ID:        m.ID().String(),
		Title:     m.Title(),
		Status:    string(m.Status()),
		Error:     m.ErrMessage(),
		CreatedAt: m.CreatedAt(),
		UpdatedAt: m.UpdatedAt(),
	}
}

type candidateDTO struct {
	ID            string     `json:"id"`
	MeetingID     string     `json:"meeting_id"`
	Title         string     `json:"title"`
	Assignee      string     `json:"assignee,omitempty"`
	DueAt         *time.Time `json:"due_at,omitempty"`
	EffortMinutes int        `json:"effort_minutes"`
	Confidence    float64    `json:"confidence"`
	Rationale     string     `json:"rationale,omitempty"`
	Source        string     `json:"source"`
	Status        string     `json:"status"`
	TaskID        *string    `json:"task_id,omitempty"`
}

func toCandidateDTO(c *meetingsDomain.MeetingCandidate) candidateDTO {
	dto := candidateDTO{
		ID:            c.ID().String(),
		MeetingID:     c.MeetingID().String(),
		Title:         c.Title(),
		Assignee:      c.Assignee(),
		DueAt:         c.DueAt(),
		EffortMinutes: c.EffortMinutes(),
		Confidence:    c.Confidence(),
		Rationale:     c.Rationale(),
		Source:        string(c.Source()),
		Status:        string(c.Status()),
	}
	if c.TaskID() != nil {
		id := c.TaskID().String()
		dto.TaskID = &id
	}
	return dto
}

type approvalDTO struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Status     string          `json:"status"`
	Title      string          `json:"title"`
	Payload    json.RawMessage `json:"payload"`
	Reason     string          `json:"reason,omitempty"`
	ResolvedAt *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func toApprovalDTO(a *approvalsDomain.ApprovalRequest) approvalDTO {
	return approvalDTO{
		ID:         a.ID().String(),
		Kind:       string(a.Kind()),
		Status:     string(a.Status()),
		Title:      a.Title(),
		Payload:    a.Payload(),
		Reason:     a.Reason(),
		ResolvedAt: a.ResolvedAt(),
		CreatedAt:  a.CreatedAt(),
	}
}

type profileDTO struct {
	Timezone    string                            `json:"timezone"`
	WorkWindows schedulingDomain.WeekSchedule     `json:"work_windows"`
	Lunch       *schedulingDomain.ClockRange      `json:"lunch,omitempty"`
	DeepWork    []schedulingDomain.DeepWorkWindow `json:"deep_work"`
	SlotMinutes int                               `json:"slot_minutes"`
	Autonomy    string                            `json:"autonomy"`
	UpdatedAt   time.Time                         `json:"updated_at"`
}

func toProfileDTO(p *profileDomain.Profile) profileDTO {
	return profileDTO{
		Timezone:    p.Timezone,
		WorkWindows: p.WorkWindows,
		Lunch:       p.Lunch,
		DeepWork:    p.DeepWork,
		SlotMinutes: p.SlotMinutes,
		Autonomy:    string(p.Autonomy),
		UpdatedAt:   p.UpdatedAt,
	}
}
