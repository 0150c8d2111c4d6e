package assistant

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	approvalsDomain "github.com/aawohq/aawo/internal/approvals/domain"
	"github.com/aawohq/aawo/internal/productivity/domain/task"
	profileDomain "github.com/aawohq/aawo/internal/profile/domain"
	schedulingCommands "github.com/aawohq/aawo/internal/scheduling/application/commands"
	schedulingServices "github.com/aawohq/aawo/internal/scheduling/application/services"
	schedulingDomain "github.com/aawohq/aawo/internal/scheduling/domain"
)

type memTasks struct {
	mu    sync.Mutex
	items []*task.Task
}

func (m *memTasks) Save(ctx context.Context, t *task.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.items {
		if existing.ID() == t.ID() {
			m.items[i] = t
			return nil
		}
	}
	m.items = append(m.items, t)
	return nil
}

func (m *memTasks) FindByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.items {
		if t.ID() == id {
			return t, nil
		}
	}
	return nil, task.ErrNotFound
}

func (m *memTasks) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*task.Task
	for _, t := range m.items {
		for _, id := range ids {
			if t.ID() == id {
				out = append(out, t)
				break
			}
		}
	}
	return out, nil
}

func (m *memTasks) List(ctx context.Context, filter task.Filter) ([]*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*task.Task
	for _, t := range m.items {
		if len(filter.Statuses) > 0 {
			matched := false
			for _, status := range filter.Statuses {
				if t.Status() == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, t)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *memTasks) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.items {
		if t.ID() == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return task.ErrNotFound
}

type memBlocks struct {
	mu    sync.Mutex
	items []*schedulingDomain.CalendarBlock
}

func (m *memBlocks) Save(ctx context.Context, block *schedulingDomain.CalendarBlock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.items {
		if existing.ID() == block.ID() {
			m.items[i] = block
			return nil
		}
	}
	m.items = append(m.items, block)
	return nil
}

func (m *memBlocks) FindByID(ctx context.Context, id uuid.UUID) (*schedulingDomain.CalendarBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, block := range m.items {
		if block.ID() == id {
			return block, nil
		}
	}
	return nil, schedulingDomain.ErrBlockNotFound
}

func (m *memBlocks) FindOccupying(ctx context.Context, interval schedulingDomain.Interval) ([]*schedulingDomain.CalendarBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*schedulingDomain.CalendarBlock
	for _, block := range m.items {
		if block.IsOccupying() && block.Interval().Overlaps(interval) {
			out = append(out, block)
		}
	}
	return out, nil
}

func (m *memBlocks) FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]*schedulingDomain.CalendarBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*schedulingDomain.CalendarBlock
	for _, block := range m.items {
		if id := block.TaskID(); id != nil && *id == taskID {
			out = append(out, block)
		}
	}
	return out, nil
}

func (m *memBlocks) FindByExternalID(ctx context.Context, provider, externalID string) (*schedulingDomain.CalendarBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, block := range m.items {
		if block.ExternalProvider() == provider && block.ExternalID() == externalID {
			return block, nil
		}
	}
	return nil, schedulingDomain.ErrBlockNotFound
}

func (m *memBlocks) List(ctx context.Context, interval *schedulingDomain.Interval, includeDeleted bool) ([]*schedulingDomain.CalendarBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*schedulingDomain.CalendarBlock
	for _, block := range m.items {
		if !includeDeleted && block.Status() == schedulingDomain.BlockStatusDeleted {
			continue
		}
		if interval != nil && !block.Interval().Overlaps(*interval) {
			continue
		}
		out = append(out, block)
	}
	return out, nil
}

type memProposals struct {
	mu    sync.Mutex
	items []*schedulingDomain.SchedulingProposal
}

func (m *memProposals) Save(ctx context.Context, proposal *schedulingDomain.SchedulingProposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.items {
		if existing.ID() == proposal.ID() {
			m.items[i] = proposal
			return nil
		}
	}
	m.items = append(m.items, proposal)
	return nil
}

func (m *memProposals) FindByID(ctx context.Context, id uuid.UUID) (*schedulingDomain.SchedulingProposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, proposal := range m.items {
		if proposal.ID() == id {
			return proposal, nil
		}
	}
	return nil, schedulingDomain.ErrProposalNotFound
}

func (m *memProposals) List(ctx context.Context, status *schedulingDomain.ProposalStatus, limit int) ([]*schedulingDomain.SchedulingProposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*schedulingDomain.SchedulingProposal
	for _, proposal := range m.items {
		if status != nil && proposal.Status() != *status {
			continue
		}
		out = append(out, proposal)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type memApprovals struct {
	mu    sync.Mutex
	items []*approvalsDomain.ApprovalRequest
}

func (m *memApprovals) Save(ctx context.Context, request *approvalsDomain.ApprovalRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.items {
		if existing.ID() == request.ID() {
			m.items[i] = request
			return nil
		}
	}
	m.items = append(m.items, request)
	return nil
}

func (m *memApprovals) FindByID(ctx context.Context, id uuid.UUID) (*approvalsDomain.ApprovalRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, request := range m.items {
		if request.ID() == id {
			return request, nil
		}
	}
	return nil, approvalsDomain.ErrNotFound
}

func (m *memApprovals) List(ctx context.Context, filter approvalsDomain.Filter) ([]*approvalsDomain.ApprovalRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*approvalsDomain.ApprovalRequest
	for _, request := range m.items {
		if filter.Status != nil && request.Status() != *filter.Status {
			continue
		}
		if filter.Kind != nil && request.Kind() != *filter.Kind {
			continue
		}
		out = append(out, request)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *memApprovals) CountPending(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, request := range m.items {
		if request.IsPending() {
			count++
		}
	}
	return count, nil
}

type memProfiles struct {
	mu      sync.Mutex
	profile *profileDomain.Profile
}

func (m *memProfiles) Load(ctx context.Context) (*profileDomain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		m.profile = profileDomain.DefaultProfile()
	}
	return m.profile, nil
}

func (m *memProfiles) Save(ctx context.Context, p *profileDomain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = p
	return nil
}

type passthroughUoW struct{}

func (passthroughUoW) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (passthroughUoW) Commit(ctx context.Context) error                   { return nil }
func (passthroughUoW) Rollback(ctx context.Context) error                 { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type executorFixture struct {
	executor  *Executor
	tasks     *memTasks
	blocks    *memBlocks
	proposals *memProposals
	approvals *memApprovals
	history   *History
}

func newExecutorFixture(t *testing.T) *executorFixture {
	t.Helper()
	tasks := &memTasks{}
	blocks := &memBlocks{}
	proposals := &memProposals{}
	approvals := &memApprovals{}
	profiles := &memProfiles{}
	history := NewHistory(nil, discardLogger())
	generate := schedulingCommands.NewGenerateProposalHandler(tasks, blocks, proposals, profiles,
		schedulingServices.NewEngine(discardLogger()), schedulingServices.NewFreeSlotFinder(0),
		passthroughUoW{}, discardLogger())
	executor := NewExecutor(ExecutorDeps{
		Tasks:     tasks,
		Blocks:    blocks,
		Proposals: proposals,
		Approvals: approvals,
		Profiles:  profiles,
		Generate:  generate,
		History:   history,
		UoW:       passthroughUoW{},
		Logger:    discardLogger(),
	})
	return &executorFixture{
		executor:  executor,
		tasks:     tasks,
		blocks:    blocks,
		proposals: proposals,
		approvals: approvals,
		history:   history,
	}
}

func seedTask(t *testing.T, repo *memTasks, title string) *task.Task {
	t.Helper()
	created, err := task.NewTask(title, task.SourceUser)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), created))
	return created
}

func singlePlan(action Action) Plan {
	return Plan{Actions: []Action{action}}
}

func TestExecute_CreateTask(t *testing.T) {
	f := newExecutorFixture(t)

	result, err := f.executor.Execute(context.Background(), "보고서 작성 추가해줘",
		singlePlan(Action{Kind: ActionCreateTask, Title: "보고서 작성"}), false)
	require.NoError(t, err)

	assert.Contains(t, result.Reply, "할일을 생성했습니다: 보고서 작성")
	assert.Contains(t, result.Refresh, "tasks")
	require.Len(t, f.tasks.items, 1)
	created := f.tasks.items[0]
	assert.Equal(t, task.SourceChat, created.Source())
	assert.Equal(t, 60, created.EffortMinutes())
}

func TestExecute_CreateTaskAppliesPriorityWord(t *testing.T) {
	f := newExecutorFixture(t)

	_, err := f.executor.Execute(context.Background(), "긴급 보고서",
		singlePlan(Action{Kind: ActionCreateTask, Title: "긴급 보고서", Priority: "긴급"}), false)
	require.NoError(t, err)

	require.Len(t, f.tasks.items, 1)
	assert.Equal(t, task.PriorityP1, f.tasks.items[0].Priority())
}

func TestExecute_CompleteTaskByKeyword(t *testing.T) {
	f := newExecutorFixture(t)
	target := seedTask(t, f.tasks, "주간 보고서")
	seedTask(t, f.tasks, "디자인 리뷰")

	result, err := f.executor.Execute(context.Background(), "보고서 완료했어",
		singlePlan(Action{Kind: ActionCompleteTask, Keyword: "보고서"}), false)
	require.NoError(t, err)

	assert.Contains(t, result.Reply, "완료 처리했습니다: 주간 보고서")
	assert.Equal(t, task.StatusDone, target.Status())
	assert.Equal(t, "주간 보고서", f.history.LastTaskTitle(context.Background()))
}

func TestExecute_AmbiguousKeywordAsksBack(t *testing.T) {
	f := newExecutorFixture(t)
	first := seedTask(t, f.tasks, "보고서 초안")
	second := seedTask(t, f.tasks, "보고서 검토")

	result, err := f.executor.Execute(context.Background(), "보고서 완료",
		singlePlan(Action{Kind: ActionCompleteTask, Keyword: "보고서"}), false)
	require.NoError(t, err)

	assert.Contains(t, result.Reply, "여러 개")
	require.Len(t, result.Actions, 1)
	assert.Equal(t, "clarification_requested", result.Actions[0].Type)
	assert.Equal(t, task.StatusTodo, first.Status())
	assert.Equal(t, task.StatusTodo, second.Status())

	pending, err := f.approvals.CountPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
	assert.Equal(t, approvalsDomain.KindChatClarification, f.approvals.items[0].Kind())
}

func TestExecute_ReferenceTokenTargetsLastTask(t *testing.T) {
	f := newExecutorFixture(t)
	target := seedTask(t, f.tasks, "주간 보고서")
	seedTask(t, f.tasks, "디자인 리뷰")
	f.history.RememberTask(context.Background(), "주간 보고서")

	result, err := f.executor.Execute(context.Background(), "방금 거 완료해줘",
		singlePlan(Action{Kind: ActionCompleteTask, Keyword: "그거"}), false)
	require.NoError(t, err)

	assert.Contains(t, result.Reply, "완료 처리했습니다: 주간 보고서")
	assert.Equal(t, task.StatusDone, target.Status())
}

func TestExecute_UpdatePriority(t *testing.T) {
	f := newExecutorFixture(t)
	target := seedTask(t, f.tasks, "주간 보고서")

	result, err := f.executor.Execute(context.Background(), "보고서 우선순위 긴급",
		singlePlan(Action{Kind: ActionUpdatePriority, Keyword: "주간 보고서", Priority: "긴급"}), false)
	require.NoError(t, err)

	assert.Contains(t, result.Reply, "변경했습니다")
	assert.Equal(t, task.PriorityP1, target.Priority())
}

func TestExecute_DeleteTaskDetachesBlocks(t *testing.T) {
	f := newExecutorFixture(t)
	target := seedTask(t, f.tasks, "주간 보고서")

	taskID := target.ID()
	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	block, err := schedulingDomain.NewCalendarBlock("주간 보고서",
		schedulingDomain.Interval{Start: start, End: start.Add(time.Hour)},
		schedulingDomain.BlockTypeTask, schedulingDomain.BlockSourceScheduler, &taskID)
	require.NoError(t, err)
	require.NoError(t, f.blocks.Save(context.Background(), block))

	result, err := f.executor.Execute(context.Background(), "주간 보고서 지워줘",
		singlePlan(Action{Kind: ActionDeleteTask, Keyword: "주간 보고서"}), false)
	require.NoError(t, err)

	assert.Contains(t, result.Reply, "삭제했습니다: 주간 보고서")
	assert.Empty(t, f.tasks.items)
	assert.Nil(t, block.TaskID())
}

func TestExecute_DestructiveKindsAskForConfirmation(t *testing.T) {
	f := newExecutorFixture(t)
	seedTask(t, f.tasks, "보고서 작성")
	seedTask(t, f.tasks, "보고서 작성!")

	result, err := f.executor.Execute(context.Background(), "중복 작업 정리해줘",
		singlePlan(Action{Kind: ActionDeleteDuplicates}), false)
	require.NoError(t, err)

	assert.Contains(t, result.Reply, "'네'")
	require.Len(t, f.approvals.items, 1)
	request := f.approvals.items[0]
	assert.Equal(t, approvalsDomain.KindChatPendingAction, request.Kind())
	assert.True(t, request.IsPending())

	// Nothing was touched yet.
	for _, item := range f.tasks.items {
		assert.Equal(t, task.StatusTodo, item.Status())
	}
}

func TestExecute_DeleteDuplicatesWhenConfirmed(t *testing.T) {
	f := newExecutorFixture(t)
	seedTask(t, f.tasks, "보고서 작성")
	seedTask(t, f.tasks, "보고서 작성!")
	seedTask(t, f.tasks, "디자인 리뷰")

	result, err := f.executor.Execute(context.Background(), "네",
		singlePlan(Action{Kind: ActionDeleteDuplicates}), true)
	require.NoError(t, err)

	assert.Contains(t, result.Reply, "중복 작업 1건을 정리했습니다")
	canceled := 0
	for _, item := range f.tasks.items {
		if item.Status() == task.StatusCanceled {
			canceled++
		}
	}
	assert.Equal(t, 1, canceled)
}

func TestExecute_DeleteDuplicatesLeavesDoneCopies(t *testing.T) {
	f := newExecutorFixture(t)
	keeper := seedTask(t, f.tasks, "보고서 작성")
	dup := seedTask(t, f.tasks, "보고서 작성!")
	for _, done := range []*task.Task{keeper, dup} {
		require.NoError(t, done.TransitionTo(task.StatusInProgress))
		require.NoError(t, done.TransitionTo(task.StatusDone))
	}

	dupID := dup.ID()
	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	block, err := schedulingDomain.NewCalendarBlock("보고서 작성 실행",
		schedulingDomain.Interval{Start: start, End: start.Add(time.Hour)},
		schedulingDomain.BlockTypeTask, schedulingDomain.BlockSourceScheduler, &dupID)
	require.NoError(t, err)
	require.NoError(t, f.blocks.Save(context.Background(), block))

	result, err := f.executor.Execute(context.Background(), "네",
		singlePlan(Action{Kind: ActionDeleteDuplicates}), true)
	require.NoError(t, err)

	assert.Contains(t, result.Reply, "중복된 작업을 찾지 못했습니다")
	assert.Equal(t, task.StatusDone, keeper.Status())
	assert.Equal(t, task.StatusDone, dup.Status())
	require.NotNil(t, block.TaskID())
	assert.Equal(t, dupID, *block.TaskID())
}

func TestExecute_RescheduleQueuesApprovalAtDefaultAutonomy(t *testing.T) {
	f := newExecutorFixture(t)
	seedTask(t, f.tasks, "주간 보고서")
	// Monday 09:00 KST, well inside the default work windows.
	f.executor.now = func() time.Time {
		return time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	}

	result, err := f.executor.Execute(context.Background(), "이번주 일정 재배치",
		singlePlan(Action{Kind: ActionRescheduleRequest}), false)
	require.NoError(t, err)

	assert.Contains(t, result.Reply, "승인 요청")
	require.Len(t, f.approvals.items, 1)
	request := f.approvals.items[0]
	assert.Equal(t, approvalsDomain.KindReschedule, request.Kind())
	assert.True(t, request.IsPending())

	// The default profile (L2) never applies directly.
	assert.Empty(t, f.blocks.items)
	require.Len(t, f.proposals.items, 1)
	assert.Equal(t, schedulingDomain.ProposalStatusDraft, f.proposals.items[0].Status())
}

func TestExecute_AfterHourWithoutCutoffAsksBack(t *testing.T) {
	f := newExecutorFixture(t)

	result, err := f.executor.Execute(context.Background(), "저녁 일정 재배치",
		singlePlan(Action{Kind: ActionRescheduleAfterHour}), false)
	require.NoError(t, err)

	assert.Contains(t, result.Reply, "몇 시")
	require.Len(t, f.approvals.items, 1)
	assert.Equal(t, approvalsDomain.KindChatClarification, f.approvals.items[0].Kind())
}

func TestExecute_CreateEvent(t *testing.T) {
	f := newExecutorFixture(t)
	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)

	result, err := f.executor.Execute(context.Background(), "내일 팀 미팅 잡아줘",
		singlePlan(Action{Kind: ActionCreateEvent, Title: "팀 미팅", Start: &start, DurationMinutes: 30}), false)
	require.NoError(t, err)

	assert.Contains(t, result.Reply, "일정을 추가했습니다: 팀 미팅")
	require.Len(t, f.blocks.items, 1)
	block := f.blocks.items[0]
	assert.Equal(t, schedulingDomain.BlockTypeMeeting, block.Type())
	assert.Equal(t, schedulingDomain.BlockSourceUser, block.Source())
	assert.Equal(t, 30, block.Interval().Minutes())
}

func TestExecute_CreateEventRefusesConflict(t *testing.T) {
	f := newExecutorFixture(t)
	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)

	existing, err := schedulingDomain.NewCalendarBlock("기존 미팅",
		schedulingDomain.Interval{Start: start, End: start.Add(time.Hour)},
		schedulingDomain.BlockTypeMeeting, schedulingDomain.BlockSourceUser, nil)
	require.NoError(t, err)
	require.NoError(t, f.blocks.Save(context.Background(), existing))

	overlap := start.Add(30 * time.Minute)
	result, err := f.executor.Execute(context.Background(), "미팅 추가",
		singlePlan(Action{Kind: ActionCreateEvent, Title: "새 미팅", Start: &overlap}), false)
	require.NoError(t, err)

	assert.Contains(t, result.Reply, "이미 일정이 있습니다: 기존 미팅")
	assert.Len(t, f.blocks.items, 1)
}

func TestExecute_MoveEventRefusesImported(t *testing.T) {
	f := newExecutorFixture(t)
	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)

	imported, err := schedulingDomain.NewImportedBlock("외부 일정",
		schedulingDomain.Interval{Start: start, End: start.Add(time.Hour)},
		"microsoft", "evt-1")
	require.NoError(t, err)
	require.NoError(t, f.blocks.Save(context.Background(), imported))

	newStart := start.Add(2 * time.Hour)
	result, err := f.executor.Execute(context.Background(), "외부 일정 옮겨줘",
		singlePlan(Action{Kind: ActionMoveEvent, Keyword: "외부 일정", Start: &newStart}), false)
	require.NoError(t, err)

	assert.Contains(t, result.Reply, "옮길 수 없습니다")
	assert.True(t, imported.Interval().Start.Equal(start))
}

func TestExecute_UnknownKindListsExamples(t *testing.T) {
	f := newExecutorFixture(t)

	result, err := f.executor.Execute(context.Background(), "음",
		singlePlan(Action{Kind: ActionUnknown}), false)
	require.NoError(t, err)

	assert.Contains(t, result.Reply, "예시")
}

func TestExecute_EmptyPlan(t *testing.T) {
	f := newExecutorFixture(t)

	result, err := f.executor.Execute(context.Background(), "...", Plan{}, false)
	require.NoError(t, err)
	assert.Equal(t, "처리할 내용이 없습니다.", result.Reply)
}

func TestNormalizeTitleKey(t *testing.T) {
	assert.Equal(t, normalizeTitleKey("보고서 작성"), normalizeTitleKey("보고서 작성!"))
	assert.Equal(t, normalizeTitleKey("Weekly Report"), normalizeTitleKey("weekly report"))
	assert.NotEqual(t, normalizeTitleKey("보고서 작성"), normalizeTitleKey("보고서 검토"))
}

func TestPickKeeper_PrefersProgressAndPriority(t *testing.T) {
	first, err := task.NewTask("보고서 작성", task.SourceUser)
	require.NoError(t, err)
	second, err := task.NewTask("보고서 작성", task.SourceUser)
	require.NoError(t, err)
	require.NoError(t, second.TransitionTo(task.StatusInProgress))

	keeper := pickKeeper([]*task.Task{first, second})
	assert.Equal(t, second.ID(), keeper.ID())

	third, err := task.NewTask("보고서 작성", task.SourceUser)
	require.NoError(t, err)
	require.NoError(t, third.SetPriority(task.PriorityP1))
	keeper = pickKeeper([]*task.Task{first, third})
	assert.Equal(t, third.ID(), keeper.ID())
}
