package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aawohq/aawo/internal/llm"
)

const plannerSystemPrompt = `너는 개인 업무 비서의 플래너다. 사용자의 한국어 또는 영어 메시지를
읽고 실행할 액션 목록을 JSON으로만 답한다.

형식:
{"actions":[{"kind":"...", ...}], "note":"..."}

kind 목록: create_task, create_event, update_task, delete_task,
start_task, complete_task, update_priority, update_due, list_tasks,
list_events, find_free_time, move_event, delete_event, update_event,
reschedule_request, reschedule_after_hour, delete_duplicate_tasks,
register_meeting_note, daily_briefing, clarification, chat, unknown

규칙:
- 대상 작업은 keyword 필드에 사용자가 말한 구체적 제목 일부를 담는다.
- 시각은 RFC3339(start, due), 길이는 duration_minutes/effort_minutes.
- reschedule_after_hour는 cutoff_hour(0-23)가 필수다.
- 회의록이 들어오면 register_meeting_note 하나만 만들고 meeting_note에 원문을 담는다.
- 의도가 불분명하면 clarification 하나만 만들고 question에 되물을 내용을 담는다.
- 잡담이면 chat 하나를 만들고 reply에 짧은 한국어 답을 담는다.
- 액션은 5개 이하.`

// Planner turns one user message into a plan, preferring the LLM and
// falling back to rules.
type Planner struct {
	llm    *llm.Client
	logger *slog.Logger
}

// NewPlanner creates the planner. The LLM client may be nil.
func NewPlanner(client *llm.Client, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{llm: client, logger: logger}
}

// Plan builds the action plan for a message.
func (p *Planner) Plan(ctx context.Context, message string, snapshot *worldSnapshot, history []Turn, loc *time.Location) Plan {
	// Meeting notes bypass the LLM entirely: the note is the payload
	// and nothing else in the message should be acted on.
	if looksLikeMeetingNote(message) {
		return Plan{
			Actions: []Action{{Kind: ActionRegisterMeetingNote, MeetingNote: message}},
			Source:  "rule",
		}
	}

	if p.llm != nil && p.llm.Enabled() {
		plan, err := p.planWithLLM(ctx, message, snapshot, history, loc)
		if err == nil {
			return normalizePlan(plan, "llm")
		}
		p.logger.Warn("llm planning failed, using rule fallback", "error", err)
	}

	return normalizePlan(classify(message, loc), "rule")
}

func (p *Planner) planWithLLM(ctx context.Context, message string, snapshot *worldSnapshot, history []Turn, loc *time.Location) (Plan, error) {
	var b strings.Builder
	if snapshot != nil {
		b.WriteString(snapshot.Render(loc))
		b.WriteString("\n")
	}
	if len(history) > 0 {
		b.WriteString("최근 대화:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Text)
		}
		b.WriteString("\n")
	}
	b.WriteString("사용자 메시지: ")
	b.WriteString(message)

	var plan Plan
	err := p.llm.CompleteJSON(ctx, llm.Request{
		Purpose:     llm.PurposePlanning,
		System:      plannerSystemPrompt,
		User:        b.String(),
		Temperature: 0.2,
	}, &plan)
	if err != nil {
		return Plan{}, err
	}
	if len(plan.Actions) == 0 {
		return Plan{}, fmt.Errorf("llm plan carried no actions")
	}
	return plan, nil
}

// normalizePlan enforces the hard plan rules regardless of where the
// plan came from.
func normalizePlan(plan Plan, source string) Plan {
	plan.Source = source

	// Meeting notes are holistic: the first one wins, everything else
	// is dropped.
	for _, action := range plan.Actions {
		if action.Kind == ActionRegisterMeetingNote {
			plan.Actions = []Action{action}
			return plan
		}
	}

	// A clarification turn asks one question and nothing more.
	for _, action := range plan.Actions {
		if action.Kind == ActionClarification {
			plan.Actions = []Action{action}
			return plan
		}
	}

	seen := map[ActionKind]bool{}
	kept := plan.Actions[:0]
	for _, action := range plan.Actions {
		if singletonKinds[action.Kind] {
			if seen[action.Kind] {
				continue
			}
			seen[action.Kind] = true
		}
		if taskTargetingKinds[action.Kind] && action.Keyword != "" && isGenericKeyword(action.Keyword) {
			kept = append(kept, Action{
				Kind:     ActionClarification,
				Question: fmt.Sprintf("어떤 작업을 말씀하시는지 제목을 조금 더 구체적으로 알려주세요. (%q)", action.Keyword),
			})
			continue
		}
		kept = append(kept, action)
		if len(kept) == maxActionsPerTurn {
			break
		}
	}
	plan.Actions = kept

	// Generic-keyword rejection above may have injected a
	// clarification mid-list; re-apply exclusivity.
	for _, action := range plan.Actions {
		if action.Kind == ActionClarification {
			plan.Actions = []Action{action}
			break
		}
	}
	return plan
}

// taskTargetingKinds resolve a task from a keyword and so need a
// usable one.
var taskTargetingKinds = map[ActionKind]bool{
	ActionCompleteTask:   true,
	ActionDeleteTask:     true,
	ActionStartTask:      true,
	ActionUpdateTask:     true,
	ActionUpdatePriority: true,
	ActionUpdateDue:      true,
}
