package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aawohq/aawo/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("task not found")
	ErrEmptyTitle        = errors.New("task title cannot be empty")
	ErrTitleTooLong      = errors.New("task title exceeds 500 characters")
	ErrInvalidPriority   = errors.New("task priority must be between P1 and P4")
	ErrInvalidEffort     = errors.New("task effort must be between 15 and 480 minutes")
	ErrInvalidTransition = errors.New("invalid task status transition")
	ErrUnknownStatus     = errors.New("unknown task status")
	ErrVersionConflict   = errors.New("task was modified concurrently")
)

const (
	MaxTitleLength   = 500
	MinEffortMinutes = 15
	MaxEffortMinutes = 480
	DefaultEffort    = 60
)

// Status is the task lifecycle state.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusDone       Status = "done"
	StatusCanceled   Status = "canceled"
)

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusCanceled
}

// transitions lists the allowed status moves.
var transitions = map[Status][]Status{
	StatusTodo:       {StatusInProgress, StatusBlocked, StatusCanceled},
	StatusInProgress: {StatusDone, StatusBlocked},
	StatusBlocked:    {StatusTodo, StatusInProgress, StatusCanceled},
}

// CanTransition reports whether from → to is an allowed move.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusTodo, StatusInProgress, StatusBlocked, StatusDone, StatusCanceled:
		return Status(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// Priority ranks tasks from P1 (highest) to P4 (lowest).
type Priority int

const (
	PriorityP1 Priority = 1
	PriorityP2 Priority = 2
	PriorityP3 Priority = 3
	PriorityP4 Priority = 4

	DefaultPriority = PriorityP2
)

// NewPriority validates a priority rank.
func NewPriority(p int) (Priority, error) {
	if p < 1 || p > 4 {
		return 0, ErrInvalidPriority
	}
	return Priority(p), nil
}

func (p Priority) String() string { return fmt.Sprintf("P%d", int(p)) }

// Source records where a task came from.
type Source string

const (
	SourceUser    Source = "user"
	SourceMeeting Source = "meeting"
	SourceImport  Source = "import"
	SourceChat    Source = "chat"
)

// Task is a unit of work with scheduling-relevant attributes.
type Task struct {
	domain.BaseEntity
	title         string
	description   string
	status        Status
	priority      Priority
	effortMinutes int
	dueAt         *time.Time
	projectID     *uuid.UUID
	assignee      string
	source        Source
	version       int
}

// NewTask creates a task in todo with defaults applied.
func NewTask(title string, source Source) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if len([]rune(title)) > MaxTitleLength {
		return nil, ErrTitleTooLong
	}
	if source == "" {
		source = SourceUser
	}
	return &Task{
		BaseEntity:    domain.NewBaseEntity(),
		title:         title,
		status:        StatusTodo,
		priority:      DefaultPriority,
		effortMinutes: DefaultEffort,
		source:        source,
		version:       1,
	}, nil
}

func (t *Task) Title() string         { return t.title }
func (t *Task) Description() string   { return t.description }
func (t *Task) Status() Status        { return t.status }
func (t *Task) Priority() Priority    { return t.priority }
func (t *Task) EffortMinutes() int    { return t.effortMinutes }
func (t *Task) DueAt() *time.Time     { return t.dueAt }
func (t *Task) ProjectID() *uuid.UUID { return t.projectID }
func (t *Task) Assignee() string      { return t.assignee }
func (t *Task) Source() Source        { return t.source }
func (t *Task) Version() int          { return t.version }

// DueAtUTC returns the due date normalized to UTC for comparisons.
func (t *Task) DueAtUTC() *time.Time {
	if t.dueAt == nil {
		return nil
	}
	utc := t.dueAt.UTC()
	return &utc
}

// SetTitle renames the task.
func (t *Task) SetTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	if len([]rune(title)) > MaxTitleLength {
		return ErrTitleTooLong
	}
	t.title = title
	t.Touch()
	return nil
}

// SetDescription updates the description.
func (t *Task) SetDescription(description string) {
	t.description = strings.TrimSpace(description)
	t.Touch()
}

// SetPriority updates the priority rank.
func (t *Task) SetPriority(p Priority) error {
	if p < PriorityP1 || p > PriorityP4 {
		return ErrInvalidPriority
	}
	t.priority = p
	t.Touch()
	return nil
}

// SetEffort updates the effort estimate in minutes.
func (t *Task) SetEffort(minutes int) error {
	if minutes < MinEffortMinutes || minutes > MaxEffortMinutes {
		return ErrInvalidEffort
	}
	t.effortMinutes = minutes
	t.Touch()
	return nil
}

// SetDueAt updates or clears the due date.
func (t *Task) SetDueAt(dueAt *time.Time) {
	t.dueAt = dueAt
	t.Touch()
}

// SetProjectID assigns or clears the parent project.
func (t *Task) SetProjectID(projectID *uuid.UUID) {
	t.projectID = projectID
	t.Touch()
}

// SetAssignee updates the assignee name.
func (t *Task) SetAssignee(assignee string) {
	t.assignee = strings.TrimSpace(assignee)
	t.Touch()
}

// TransitionTo moves the task through the status graph.
func (t *Task) TransitionTo(next Status) error {
	if t.status == next {
		return nil
	}
	if !CanTransition(t.status, next) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, t.status, next)
	}
	t.status = next
	t.Touch()
	return nil
}

// Complete moves the task to done, via in_progress when needed.
func (t *Task) Complete() error {
	if t.status == StatusDone {
		return nil
	}
	if t.status == StatusTodo || t.status == StatusBlocked {
		if err := t.TransitionTo(StatusInProgress); err != nil {
			return err
		}
	}
	return t.TransitionTo(StatusDone)
}

// Cancel moves the task to canceled, via blocked for in-progress tasks.
func (t *Task) Cancel() error {
	if t.status == StatusCanceled {
		return nil
	}
	if t.status == StatusInProgress {
		if err := t.TransitionTo(StatusBlocked); err != nil {
			return err
		}
	}
	return t.TransitionTo(StatusCanceled)
}

// BumpVersion increments the optimistic concurrency counter.
func (t *Task) BumpVersion() {
	t.version++
}

// RehydrateTask recreates a task from persisted state.
func RehydrateTask(
	id uuid.UUID,
	title, description string,
	status Status,
	priority Priority,
	effortMinutes int,
	dueAt *time.Time,
	projectID *uuid.UUID,
	assignee string,
	source Source,
	version int,
	createdAt, updatedAt time.Time,
) *Task {
	return &Task{
		BaseEntity:    domain.RehydrateBaseEntity(id, createdAt, updatedAt),
		title:         title,
		description:   description,
		status:        status,
		priority:      priority,
		effortMinutes: effortMinutes,
		dueAt:         dueAt,
		projectID:     projectID,
		assignee:      assignee,
		source:        source,
		version:       version,
	}
}
