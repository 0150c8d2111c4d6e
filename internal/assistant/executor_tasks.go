package assistant

import (
	"context"
	"fmt"
	"sort"
	"strings"

	meetingsServices "github.com/aawohq/aawo/internal/meetings/application/services"
	"github.com/aawohq/aawo/internal/productivity/domain/task"
	"github.com/aawohq/aawo/internal/shared/application"
	"github.com/aawohq/aawo/internal/shared/audit"
	"github.com/aawohq/aawo/pkg/observability"
)

func (e *Executor) createTask(ctx context.Context, message string, action Action, result *ChatResult) (string, error) {
	profile, err := e.profiles.Load(ctx)
	if err != nil {
		return "", err
	}
	loc := profile.Location()

	title := strings.TrimSpace(action.Title)
	if title == "" {
		title = strings.TrimSpace(message)
	}
	if title == "" {
		title = "새 작업"
	}

	created, err := task.NewTask(title, task.SourceChat)
	if err != nil {
		return "", err
	}

	effort := action.EffortMinutes
	if effort <= 0 {
		effort = 60
	}
	if effort < 15 {
		effort = 15
	}
	if effort > 480 {
		effort = 480
	}
	if err := created.SetEffort(effort); err != nil {
		return "", err
	}

	if priority, ok := priorityWords[normalizeKeyword(action.Priority)]; ok {
		if err := created.SetPriority(priority); err != nil {
			return "", err
		}
	}

	due := action.Due
	if due == nil {
		source := action.DueText
		if strings.TrimSpace(source) == "" {
			source = message
		}
		due = meetingsServices.ParseDuePhrase(source, e.now().In(loc), loc)
	}
	created.SetDueAt(due)

	if action.Description != "" {
		created.SetDescription(action.Description)
	}

	err = application.WithUnitOfWork(ctx, e.uow, func(txCtx context.Context) error {
		return e.tasks.Save(txCtx, created)
	})
	if err != nil {
		return "", fmt.Errorf("save task: %w", err)
	}

	e.metrics.Counter(observability.MetricTasksCreated, 1, observability.T("source", "chat"))
	e.auditor.Record(ctx, audit.ActorAssistant, "task.created", "task", created.ID().String(),
		map[string]any{"title": created.Title()})
	e.rememberTask(ctx, created)

	result.addAction("task_created", map[string]any{"task_id": created.ID().String(), "title": created.Title()})
	result.addRefresh("tasks")
	return fmt.Sprintf("할일을 생성했습니다: %s", created.Title()), nil
}

// resolveTarget finds the task an action points at. An ambiguous
// multi-match writes a clarification into result and returns
// errTurnHandled so the turn stops there.
func (e *Executor) resolveTarget(ctx context.Context, action Action, result *ChatResult) (*task.Task, error) {
	match, err := e.findTask(ctx, action.Keyword)
	if err != nil {
		return nil, err
	}
	if len(match.candidates) > 1 {
		clarified, err := e.clarify(ctx, action.Keyword, ambiguityQuestion(match.candidates))
		if err != nil {
			return nil, err
		}
		*result = *clarified
		return nil, errTurnHandled
	}
	return match.task, nil
}

func (e *Executor) completeTask(ctx context.Context, action Action, result *ChatResult) (string, error) {
	target, err := e.resolveTarget(ctx, action, result)
	if err != nil {
		return "", err
	}
	if target == nil {
		return "완료 처리할 할일을 찾지 못했습니다. 작업 제목을 조금 더 구체적으로 말해 주세요.", nil
	}

	if err := target.Complete(); err != nil {
		return "", err
	}
	target.BumpVersion()
	err = application.WithUnitOfWork(ctx, e.uow, func(txCtx context.Context) error {
		return e.tasks.Save(txCtx, target)
	})
	if err != nil {
		return "", fmt.Errorf("save task: %w", err)
	}

	e.metrics.Counter(observability.MetricTasksCompleted, 1)
	e.auditor.Record(ctx, audit.ActorAssistant, "task.completed", "task", target.ID().String(), nil)
	e.rememberTask(ctx, target)

	result.addAction("task_completed", map[string]any{"task_id": target.ID().String(), "title": target.Title()})
	result.addRefresh("tasks")
	return fmt.Sprintf("완료 처리했습니다: %s", target.Title()), nil
}

func (e *Executor) startTask(ctx context.Context, action Action, result *ChatResult) (string, error) {
	target, err := e.resolveTarget(ctx, action, result)
	if err != nil {
		return "", err
	}
	if target == nil {
		return "시작할 할일을 찾지 못했습니다.", nil
	}

	if err := target.TransitionTo(task.StatusInProgress); err != nil {
		return "", err
	}
	target.BumpVersion()
	err = application.WithUnitOfWork(ctx, e.uow, func(txCtx context.Context) error {
		return e.tasks.Save(txCtx, target)
	})
	if err != nil {
		return "", fmt.Errorf("save task: %w", err)
	}

	e.auditor.Record(ctx, audit.ActorAssistant, "task.started", "task", target.ID().String(), nil)
	e.rememberTask(ctx, target)

	result.addAction("task_started", map[string]any{"task_id": target.ID().String(), "title": target.Title()})
	result.addRefresh("tasks")
	return fmt.Sprintf("시작 처리했습니다: %s", target.Title()), nil
}

// updateTask covers update_task, update_due and update_priority.
func (e *Executor) updateTask(ctx context.Context, action Action, result *ChatResult) (string, error) {
	target, err := e.resolveTarget(ctx, action, result)
	if err != nil {
		return "", err
	}
	if target == nil {
		return "변경할 할일을 찾지 못했습니다.", nil
	}

	var changes []string

	if action.Kind == ActionUpdatePriority || (action.Kind == ActionUpdateTask && action.Priority != "") {
		priority, ok := priorityWords[normalizeKeyword(action.Priority)]
		if !ok {
			return "지원하지 않는 우선순위입니다. 낮음/중간/높음/긴급 중 하나로 요청해 주세요.", nil
		}
		if err := target.SetPriority(priority); err != nil {
			return "", err
		}
		changes = append(changes, fmt.Sprintf("우선순위 %s", priority))
	}

	if action.Kind == ActionUpdateDue || (action.Kind == ActionUpdateTask && (action.Due != nil || action.DueText != "")) {
		due := action.Due
		if due == nil {
			profile, err := e.profiles.Load(ctx)
			if err != nil {
				return "", err
			}
			loc := profile.Location()
			due = meetingsServices.ParseDuePhrase(action.DueText, e.now().In(loc), loc)
		}
		if due == nil {
			return "새 기한을 해석하지 못했습니다. 예: '보고서 기한 내일로 변경'", nil
		}
		target.SetDueAt(due)
		changes = append(changes, fmt.Sprintf("기한 %s", due.Format("01-02 15:04")))
	}

	if action.Kind == ActionUpdateTask {
		if action.Title != "" && action.Title != target.Title() {
			if err := target.SetTitle(action.Title); err != nil {
				return "", err
			}
			changes = append(changes, "제목")
		}
		if action.EffortMinutes > 0 {
			if err := target.SetEffort(action.EffortMinutes); err != nil {
				return "", err
			}
			changes = append(changes, fmt.Sprintf("예상 소요 %d분", action.EffortMinutes))
		}
		if action.Description != "" {
			target.SetDescription(action.Description)
			changes = append(changes, "설명")
		}
	}

	if len(changes) == 0 {
		return "변경할 내용을 찾지 못했습니다.", nil
	}

	target.BumpVersion()
	err = application.WithUnitOfWork(ctx, e.uow, func(txCtx context.Context) error {
		return e.tasks.Save(txCtx, target)
	})
	if err != nil {
		return "", fmt.Errorf("save task: %w", err)
	}

	e.auditor.Record(ctx, audit.ActorAssistant, "task.updated", "task", target.ID().String(),
		map[string]any{"changes": changes})
	e.rememberTask(ctx, target)

	result.addAction("task_updated", map[string]any{"task_id": target.ID().String(), "changes": changes})
	result.addRefresh("tasks")
	return fmt.Sprintf("변경했습니다: %s (%s)", target.Title(), strings.Join(changes, ", ")), nil
}

func (e *Executor) deleteTask(ctx context.Context, action Action, result *ChatResult) (string, error) {
	target, err := e.resolveTarget(ctx, action, result)
	if err != nil {
		return "", err
	}
	if target == nil {
		return "삭제할 할일을 찾지 못했습니다.", nil
	}

	linked, err := e.blocks.FindByTaskID(ctx, target.ID())
	if err != nil {
		return "", fmt.Errorf("list linked blocks: %w", err)
	}

	title := target.Title()
	err = application.WithUnitOfWork(ctx, e.uow, func(txCtx context.Context) error {
		for _, block := range linked {
			block.DetachTask()
			if err := e.blocks.Save(txCtx, block); err != nil {
				return err
			}
		}
		return e.tasks.Delete(txCtx, target.ID())
	})
	if err != nil {
		return "", fmt.Errorf("delete task: %w", err)
	}

	e.auditor.Record(ctx, audit.ActorAssistant, "task.deleted", "task", target.ID().String(),
		map[string]any{"title": title, "detached_blocks": len(linked)})

	result.addAction("task_deleted", map[string]any{"task_id": target.ID().String(), "title": title})
	result.addRefresh("tasks", "calendar")
	return fmt.Sprintf("삭제했습니다: %s", title), nil
}

func (e *Executor) listTasks(ctx context.Context, result *ChatResult) (string, error) {
	open, err := e.tasks.List(ctx, task.Filter{
		Statuses:     []task.Status{task.StatusTodo, task.StatusInProgress, task.StatusBlocked},
		IncludeNoDue: true,
		Limit:        10,
	})
	if err != nil {
		return "", fmt.Errorf("list tasks: %w", err)
	}
	if len(open) == 0 {
		return "열린 할일이 없습니다.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "열린 할일 %d건:", len(open))
	for _, t := range open {
		fmt.Fprintf(&b, "\n- [%s] %s (%s)", t.Status(), t.Title(), t.Priority())
	}
	result.addAction("tasks_listed", map[string]any{"count": len(open)})
	return b.String(), nil
}

// statusRank orders statuses for duplicate-keeper selection: further
// along wins.
var statusRank = map[task.Status]int{
	task.StatusDone:       4,
	task.StatusInProgress: 3,
	task.StatusBlocked:    2,
	task.StatusTodo:       1,
	task.StatusCanceled:   0,
}

func (e *Executor) deleteDuplicateTasks(ctx context.Context, result *ChatResult) (string, error) {
	all, err := e.tasks.List(ctx, task.Filter{IncludeNoDue: true})
	if err != nil {
		return "", fmt.Errorf("list tasks: %w", err)
	}

	groups := map[string][]*task.Task{}
	for _, t := range all {
		if t.Status() == task.StatusCanceled {
			continue
		}
		key := normalizeTitleKey(t.Title())
		if len([]rune(key)) < 3 {
			continue
		}
		groups[key] = append(groups[key], t)
	}

	canceled := 0
	merged := 0
	err = application.WithUnitOfWork(ctx, e.uow, func(txCtx context.Context) error {
		for _, group := range groups {
			if len(group) < 2 {
				continue
			}
			keeper := pickKeeper(group)
			for _, dup := range group {
				if dup.ID() == keeper.ID() {
					continue
				}
				// Done copies cannot be canceled; leave them untouched.
				if dup.Status() == task.StatusDone {
					continue
				}
				mergeIntoKeeper(keeper, dup)

				linked, err := e.blocks.FindByTaskID(txCtx, dup.ID())
				if err != nil {
					return err
				}
				for _, block := range linked {
					block.ReparentTask(keeper.ID())
					if err := e.blocks.Save(txCtx, block); err != nil {
						return err
					}
				}

				if err := dup.Cancel(); err != nil {
					return err
				}
				dup.BumpVersion()
				if err := e.tasks.Save(txCtx, dup); err != nil {
					return err
				}
				canceled++
			}
			keeper.BumpVersion()
			if err := e.tasks.Save(txCtx, keeper); err != nil {
				return err
			}
			merged++
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("deduplicate tasks: %w", err)
	}

	if canceled == 0 {
		return "중복된 작업을 찾지 못했습니다.", nil
	}

	e.auditor.Record(ctx, audit.ActorAssistant, "task.deduplicated", "task", "",
		map[string]any{"canceled": canceled, "groups": merged})

	result.addAction("duplicates_removed", map[string]any{"canceled": canceled, "groups": merged})
	result.addRefresh("tasks", "calendar")
	return fmt.Sprintf("중복 작업 %d건을 정리했습니다. (그룹 %d개)", canceled, merged), nil
}

// normalizeTitleKey lowercases and strips whitespace and punctuation
// so near-identical titles group together.
func normalizeTitleKey(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r == ' ' || r == '\t':
		case strings.ContainsRune(".,!?-_()[]{}:;'\"", r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// pickKeeper selects the best task of a duplicate group by
// (status rank, priority, has-due, description length, updated_at).
func pickKeeper(group []*task.Task) *task.Task {
	sorted := make([]*task.Task, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if statusRank[a.Status()] != statusRank[b.Status()] {
			return statusRank[a.Status()] > statusRank[b.Status()]
		}
		if a.Priority() != b.Priority() {
			return a.Priority() < b.Priority()
		}
		aDue, bDue := a.DueAtUTC() != nil, b.DueAtUTC() != nil
		if aDue != bDue {
			return aDue
		}
		if len(a.Description()) != len(b.Description()) {
			return len(a.Description()) > len(b.Description())
		}
		return a.UpdatedAt().After(b.UpdatedAt())
	})
	return sorted[0]
}

// mergeIntoKeeper copies fields the keeper is missing from a duplicate.
func mergeIntoKeeper(keeper, dup *task.Task) {
	if keeper.Description() == "" && dup.Description() != "" {
		keeper.SetDescription(dup.Description())
	}
	if keeper.DueAtUTC() == nil && dup.DueAtUTC() != nil {
		due := *dup.DueAtUTC()
		keeper.SetDueAt(&due)
	}
	if dup.Priority() < keeper.Priority() {
		_ = keeper.SetPriority(dup.Priority())
	}
}
