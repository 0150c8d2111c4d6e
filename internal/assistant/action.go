package assistant

import (
	"encoding/json"
	"time"
)

// ActionKind names one thing the assistant can do in a turn.
type ActionKind string

const (
	ActionCreateTask          ActionKind = "create_task"
	ActionCreateEvent         ActionKind = "create_event"
	ActionUpdateTask          ActionKind = "update_task"
	ActionDeleteTask          ActionKind = "delete_task"
	ActionStartTask           ActionKind = "start_task"
	ActionCompleteTask        ActionKind = "complete_task"
	ActionUpdatePriority      ActionKind = "update_priority"
	ActionUpdateDue           ActionKind = "update_due"
	ActionListTasks           ActionKind = "list_tasks"
	ActionListEvents          ActionKind = "list_events"
	ActionFindFreeTime        ActionKind = "find_free_time"
	ActionMoveEvent           ActionKind = "move_event"
	ActionDeleteEvent         ActionKind = "delete_event"
	ActionUpdateEvent         ActionKind = "update_event"
	ActionRescheduleRequest   ActionKind = "reschedule_request"
	ActionRescheduleAfterHour ActionKind = "reschedule_after_hour"
	ActionDeleteDuplicates    ActionKind = "delete_duplicate_tasks"
	ActionRegisterMeetingNote ActionKind = "register_meeting_note"
	ActionDailyBriefing       ActionKind = "daily_briefing"
	ActionClarification       ActionKind = "clarification"
	ActionChat                ActionKind = "chat"
	ActionUnknown             ActionKind = "unknown"
)

// Action is one planned step. Fields are a superset across kinds; each
// handler reads the ones its kind defines.
type Action struct {
	Kind ActionKind `json:"kind"`

	// Task fields.
	Title         string     `json:"title,omitempty"`
	Keyword       string     `json:"keyword,omitempty"`
	Due           *time.Time `json:"due,omitempty"`
	DueText       string     `json:"due_text,omitempty"`
	EffortMinutes int        `json:"effort_minutes,omitempty"`
	Priority      string     `json:"priority,omitempty"`
	Description   string     `json:"description,omitempty"`

	// Event fields.
	Start           *time.Time `json:"start,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`

	// Scheduling fields.
	TimeHint   string `json:"time_hint,omitempty"`
	CutoffHour *int   `json:"cutoff_hour,omitempty"`
	TargetDate string `json:"target_date,omitempty"`

	// Meeting note body.
	MeetingNote string `json:"meeting_note,omitempty"`

	// Clarification / chat reply text.
	Question string `json:"question,omitempty"`
	Reply    string `json:"reply,omitempty"`
}

// singletonKinds may appear at most once per turn and never alongside
// each other.
var singletonKinds = map[ActionKind]bool{
	ActionRegisterMeetingNote: true,
	ActionRescheduleAfterHour: true,
	ActionRescheduleRequest:   true,
	ActionDeleteDuplicates:    true,
	ActionFindFreeTime:        true,
	ActionDailyBriefing:       true,
	ActionClarification:       true,
}

// maxActionsPerTurn bounds how many planned actions one message runs.
const maxActionsPerTurn = 5

// Plan is the planner output for one user turn.
type Plan struct {
	Actions []Action `json:"actions"`
	// Note carries the clarifying question when no action is confident.
	Note string `json:"note,omitempty"`
	// Source records whether the plan came from the LLM or the rules.
	Source string `json:"source,omitempty"`
}

// MarshalStored serializes an action for a pending-action approval
// payload.
func (a Action) MarshalStored() (json.RawMessage, error) {
	return json.Marshal(a)
}

// genericKeywords are one-word targeting hints too vague to resolve a
// task with. Plans using them are turned into clarifications.
var genericKeywords = map[string]bool{
	"task":  true,
	"tasks": true,
	"일":     true,
	"작업":    true,
	"할일":    true,
	"업무":    true,
	"미팅":    true,
	"회의":    true,
	"그거":    true,
	"이거":    true,
	"meeting": true,
	"event":   true,
	"일정":      true,
}

// isGenericKeyword reports whether the hint cannot identify a task.
func isGenericKeyword(keyword string) bool {
	return genericKeywords[normalizeKeyword(keyword)]
}
