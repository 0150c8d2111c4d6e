package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	approvalsDomain "github.com/aawohq/aawo/internal/approvals/domain"
	"github.com/aawohq/aawo/internal/briefing"
	calendarDomain "github.com/aawohq/aawo/internal/calendar/domain"
	meetingsDomain "github.com/aawohq/aawo/internal/meetings/domain"
	meetingsServices "github.com/aawohq/aawo/internal/meetings/application/services"
	"github.com/aawohq/aawo/internal/productivity/domain/task"
	profileDomain "github.com/aawohq/aawo/internal/profile/domain"
	schedulingCommands "github.com/aawohq/aawo/internal/scheduling/application/commands"
	schedulingServices "github.com/aawohq/aawo/internal/scheduling/application/services"
	schedulingDomain "github.com/aawohq/aawo/internal/scheduling/domain"
	"github.com/aawohq/aawo/internal/shared/application"
	"github.com/aawohq/aawo/internal/shared/audit"
	"github.com/aawohq/aawo/pkg/observability"
)

// ExecutedAction reports one completed action back to the client.
type ExecutedAction struct {
	Type   string         `json:"type"`
	Detail map[string]any `json:"detail,omitempty"`
}

// ChatResult is the assistant's answer for one turn.
type ChatResult struct {
	Reply   string           `json:"reply"`
	Actions []ExecutedAction `json:"actions"`
	Refresh []string         `json:"refresh"`
}

func (r *ChatResult) addAction(actionType string, detail map[string]any) {
	r.Actions = append(r.Actions, ExecutedAction{Type: actionType, Detail: detail})
}

func (r *ChatResult) addRefresh(surfaces ...string) {
	for _, surface := range surfaces {
		found := false
		for _, existing := range r.Refresh {
			if existing == surface {
				found = true
				break
			}
		}
		if !found {
			r.Refresh = append(r.Refresh, surface)
		}
	}
}

// Executor runs planned actions against the rest of the system.
type Executor struct {
	tasks     task.Repository
	blocks    schedulingDomain.BlockRepository
	proposals schedulingDomain.ProposalRepository
	approvals approvalsDomain.Repository
	profiles  profileDomain.Repository
	meetings  meetingsDomain.Repository

	generate  *schedulingCommands.GenerateProposalHandler
	applier   *schedulingServices.ProposalApplier
	finder    *schedulingServices.FreeSlotFinder
	processor *meetingsServices.Processor
	briefing  *briefing.Service
	mirror    calendarDomain.Mirror

	history *History
	uow     application.UnitOfWork
	auditor *audit.Recorder
	logger  *slog.Logger
	metrics observability.Metrics
	now     func() time.Time
}

// ExecutorDeps wires the executor's collaborators.
type ExecutorDeps struct {
	Tasks     task.Repository
	Blocks    schedulingDomain.BlockRepository
	Proposals schedulingDomain.ProposalRepository
	Approvals approvalsDomain.Repository
	Profiles  profileDomain.Repository
	Meetings  meetingsDomain.Repository
	Generate  *schedulingCommands.GenerateProposalHandler
	Applier   *schedulingServices.ProposalApplier
	Finder    *schedulingServices.FreeSlotFinder
	Processor *meetingsServices.Processor
	Briefing  *briefing.Service
	Mirror    calendarDomain.Mirror
	History   *History
	UoW       application.UnitOfWork
	Auditor   *audit.Recorder
	Logger    *slog.Logger
	Metrics   observability.Metrics
}

// NewExecutor creates the executor.
func NewExecutor(deps ExecutorDeps) *Executor {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &Executor{
		tasks:     deps.Tasks,
		blocks:    deps.Blocks,
		proposals: deps.Proposals,
		approvals: deps.Approvals,
		profiles:  deps.Profiles,
		meetings:  deps.Meetings,
		generate:  deps.Generate,
		applier:   deps.Applier,
		finder:    deps.Finder,
		processor: deps.Processor,
		briefing:  deps.Briefing,
		mirror:    deps.Mirror,
		history:   deps.History,
		uow:       deps.UoW,
		auditor:   deps.Auditor,
		logger:    logger,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// confirmationKinds queue a pending-action approval instead of
// executing directly.
var confirmationKinds = map[ActionKind]string{
	ActionRescheduleAfterHour: "늦은 일정 재배치",
	ActionDeleteDuplicates:    "중복 작업 정리",
}

// Execute runs a plan. A clarification or confirmation short-circuits
// the remaining actions.
func (e *Executor) Execute(ctx context.Context, message string, plan Plan, skipConfirmation bool) (*ChatResult, error) {
	result := &ChatResult{}

	for _, action := range plan.Actions {
		e.resolveReference(ctx, message, &action)

		if question := e.validate(ctx, action); question != "" {
			return e.clarify(ctx, message, question)
		}

		if description, ok := confirmationKinds[action.Kind]; ok && !skipConfirmation {
			return e.requestConfirmation(ctx, message, action, description)
		}

		var (
			reply string
			err   error
		)
		switch action.Kind {
		case ActionCreateTask:
			reply, err = e.createTask(ctx, message, action, result)
		case ActionUpdateTask, ActionUpdateDue, ActionUpdatePriority:
			reply, err = e.updateTask(ctx, action, result)
		case ActionStartTask:
			reply, err = e.startTask(ctx, action, result)
		case ActionCompleteTask:
			reply, err = e.completeTask(ctx, action, result)
		case ActionDeleteTask:
			reply, err = e.deleteTask(ctx, action, result)
		case ActionDeleteDuplicates:
			reply, err = e.deleteDuplicateTasks(ctx, result)
		case ActionListTasks:
			reply, err = e.listTasks(ctx, result)
		case ActionCreateEvent:
			reply, err = e.createEvent(ctx, action, result)
		case ActionMoveEvent, ActionUpdateEvent:
			reply, err = e.moveEvent(ctx, action, result)
		case ActionDeleteEvent:
			reply, err = e.deleteEvent(ctx, action, result)
		case ActionListEvents:
			reply, err = e.listEvents(ctx, result)
		case ActionFindFreeTime:
			reply, err = e.findFreeTime(ctx, action, result)
		case ActionRescheduleRequest:
			reply, err = e.rescheduleRequest(ctx, action, skipConfirmation, result)
		case ActionRescheduleAfterHour:
			reply, err = e.rescheduleAfterHour(ctx, action, result)
		case ActionRegisterMeetingNote:
			reply, err = e.registerMeetingNote(ctx, message, action, result)
		case ActionDailyBriefing:
			reply, err = e.dailyBriefing(ctx, result)
		case ActionChat:
			reply = action.Reply
			if reply == "" {
				reply = "무엇을 도와드릴까요?"
			}
		case ActionClarification:
			return e.clarify(ctx, message, action.Question)
		default:
			reply = "요청 의도를 명확히 파악하지 못했습니다. 예시: '내일 오전 보고서 작업 추가', " +
				"'보고서 작업 완료 처리', '이번주 일정 재배치', '회의록: ...'"
		}
		if err != nil {
			if errors.Is(err, errTurnHandled) {
				return result, nil
			}
			return nil, err
		}
		if reply != "" {
			if result.Reply != "" {
				result.Reply += " "
			}
			result.Reply += reply
		}
		e.metrics.Counter(observability.MetricActionsExecuted, 1,
			observability.T("kind", string(action.Kind)))
	}

	if result.Reply == "" {
		result.Reply = "처리할 내용이 없습니다."
	}
	return result, nil
}

// validate returns a clarifying question when the action cannot run as
// planned, empty string otherwise.
func (e *Executor) validate(ctx context.Context, action Action) string {
	switch action.Kind {
	case ActionRescheduleAfterHour:
		if action.CutoffHour == nil || *action.CutoffHour < 0 || *action.CutoffHour > 23 {
			return "몇 시 이후의 일정을 재배치할까요? 예: '18시 이후 일정 재배치'"
		}
	case ActionUpdateDue:
		if action.Due == nil && strings.TrimSpace(action.DueText) == "" {
			return "새 기한을 찾지 못했습니다. 언제로 바꿀까요?"
		}
	case ActionUpdatePriority:
		if action.Priority == "" {
			return "우선순위 값을 찾지 못했습니다. 낮음/중간/높음/긴급 중 하나로 요청해 주세요."
		}
		if _, ok := priorityWords[normalizeKeyword(action.Priority)]; !ok {
			return "지원하지 않는 우선순위입니다. 낮음/중간/높음/긴급 중 하나로 요청해 주세요."
		}
	case ActionCreateEvent:
		if action.Start == nil {
			return "일정 시작 시각을 찾지 못했습니다. 언제로 잡을까요?"
		}
	case ActionMoveEvent, ActionUpdateEvent:
		if action.Start == nil {
			return "옮길 시각을 찾지 못했습니다. 언제로 옮길까요?"
		}
		if strings.TrimSpace(action.Keyword) == "" {
			return "어떤 일정을 옮길지 제목을 알려주세요."
		}
	case ActionDeleteEvent:
		if strings.TrimSpace(action.Keyword) == "" {
			return "어떤 일정을 삭제할지 제목을 알려주세요."
		}
	}
	return ""
}

// referenceTokens mark a follow-up pointing at the previous task.
var referenceTokens = []string{"그거", "이거", "방금 거", "방금거", "아까 거", "that one", "this one"}

// resolveReference swaps a referential or generic keyword for the task
// title remembered from recent turns.
func (e *Executor) resolveReference(ctx context.Context, message string, action *Action) {
	if !taskTargetingKinds[action.Kind] {
		return
	}
	referential := false
	for _, token := range referenceTokens {
		if strings.Contains(message, token) {
			referential = true
			break
		}
	}
	if !referential {
		return
	}
	if title := e.history.LastTaskTitle(ctx); title != "" {
		action.Keyword = title
	}
}

func (e *Executor) clarify(ctx context.Context, message, question string) (*ChatResult, error) {
	request, err := approvalsDomain.NewApprovalRequest(
		approvalsDomain.KindChatClarification,
		question,
		approvalsDomain.ChatClarificationPayload{OriginalText: message, Question: question},
	)
	if err != nil {
		return nil, err
	}
	if err := e.approvals.Save(ctx, request); err != nil {
		return nil, fmt.Errorf("save clarification: %w", err)
	}

	result := &ChatResult{Reply: question}
	result.addAction("clarification_requested", map[string]any{"approval_id": request.ID().String()})
	result.addRefresh("approvals")
	return result, nil
}

func (e *Executor) requestConfirmation(ctx context.Context, message string, action Action, description string) (*ChatResult, error) {
	stored, err := action.MarshalStored()
	if err != nil {
		return nil, err
	}
	request, err := approvalsDomain.NewApprovalRequest(
		approvalsDomain.KindChatPendingAction,
		description,
		approvalsDomain.ChatPendingActionPayload{Action: stored, Description: message},
	)
	if err != nil {
		return nil, err
	}
	if err := e.approvals.Save(ctx, request); err != nil {
		return nil, fmt.Errorf("save pending action: %w", err)
	}

	result := &ChatResult{
		Reply: fmt.Sprintf("%s 작업을 진행할까요? '네'라고 답하면 실행합니다.", description),
	}
	result.addAction("confirmation_requested", map[string]any{
		"approval_id": request.ID().String(),
		"kind":        string(action.Kind),
	})
	result.addRefresh("approvals")
	return result, nil
}

// errTurnHandled signals that a handler already produced the final
// result for this turn (an ambiguity clarification) and remaining
// actions must not run.
var errTurnHandled = errors.New("turn handled")

// taskMatch is the outcome of a keyword lookup.
type taskMatch struct {
	task       *task.Task
	candidates []*task.Task
}

// findTask resolves a task from a free-text keyword: first tasks whose
// title appears in the keyword or vice versa, then the most recently
// updated open task as a fallback.
func (e *Executor) findTask(ctx context.Context, keyword string) (*taskMatch, error) {
	all, err := e.tasks.List(ctx, task.Filter{IncludeNoDue: true})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	key := strings.TrimSpace(keyword)
	if key != "" {
		var matches []*task.Task
		loweredKey := strings.ToLower(key)
		for _, t := range all {
			if t.Status() == task.StatusCanceled {
				continue
			}
			title := strings.ToLower(t.Title())
			if strings.Contains(title, loweredKey) || strings.Contains(loweredKey, title) ||
				(t.Description() != "" && strings.Contains(strings.ToLower(t.Description()), loweredKey)) {
				matches = append(matches, t)
			}
		}
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].UpdatedAt().After(matches[j].UpdatedAt())
		})
		if len(matches) == 1 {
			return &taskMatch{task: matches[0]}, nil
		}
		if len(matches) > 1 {
			return &taskMatch{candidates: matches}, nil
		}
	}

	var fallback *task.Task
	for _, t := range all {
		if t.Status() != task.StatusTodo && t.Status() != task.StatusInProgress {
			continue
		}
		if fallback == nil || t.UpdatedAt().After(fallback.UpdatedAt()) {
			fallback = t
		}
	}
	if fallback == nil {
		return &taskMatch{}, nil
	}
	return &taskMatch{task: fallback}, nil
}

// ambiguityQuestion lists candidate titles for the user to pick from.
func ambiguityQuestion(candidates []*task.Task) string {
	titles := make([]string, 0, 3)
	for i, t := range candidates {
		if i >= 3 {
			break
		}
		titles = append(titles, fmt.Sprintf("%q", t.Title()))
	}
	return fmt.Sprintf("해당하는 작업이 여러 개입니다: %s. 어떤 작업인지 제목으로 알려주세요.", strings.Join(titles, ", "))
}

func (e *Executor) rememberTask(ctx context.Context, t *task.Task) {
	if e.history == nil || t == nil {
		return
	}
	e.history.RememberTask(ctx, t.Title())
}
