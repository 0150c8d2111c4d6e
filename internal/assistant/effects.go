package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	approvalsCommands "github.com/aawohq/aawo/internal/approvals/application/commands"
	approvalsDomain "github.com/aawohq/aawo/internal/approvals/domain"
	meetingsDomain "github.com/aawohq/aawo/internal/meetings/domain"
	"github.com/aawohq/aawo/internal/productivity/domain/task"
	schedulingServices "github.com/aawohq/aawo/internal/scheduling/application/services"
	schedulingDomain "github.com/aawohq/aawo/internal/scheduling/domain"
	"github.com/aawohq/aawo/internal/shared/application"
	"github.com/aawohq/aawo/internal/shared/audit"
	"github.com/aawohq/aawo/pkg/observability"
)

// ApprovalEffects runs the side effects of approved requests. It
// closes the loop between the approvals context and the rest of the
// system without the approvals package importing any of it.
type ApprovalEffects struct {
	executor *Executor
	applier  *schedulingServices.ProposalApplier
	meetings meetingsDomain.Repository
	tasks    task.Repository
	slots    *schedulingServices.NextSlotFinder
	auditor  *audit.Recorder
	logger   *slog.Logger
}

var _ approvalsCommands.ResolutionEffects = (*ApprovalEffects)(nil)

// NewApprovalEffects creates the effects runner.
func NewApprovalEffects(
	executor *Executor,
	applier *schedulingServices.ProposalApplier,
	meetings meetingsDomain.Repository,
	tasks task.Repository,
	slots *schedulingServices.NextSlotFinder,
	auditor *audit.Recorder,
	logger *slog.Logger,
) *ApprovalEffects {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApprovalEffects{
		executor: executor,
		applier:  applier,
		meetings: meetings,
		tasks:    tasks,
		slots:    slots,
		auditor:  auditor,
		logger:   logger,
	}
}

// ApproveActionItem turns an approved meeting candidate into a task.
func (e *ApprovalEffects) ApproveActionItem(ctx context.Context, request *approvalsDomain.ApprovalRequest) (string, error) {
	var payload approvalsDomain.ActionItemPayload
	if err := request.DecodePayload(&payload); err != nil {
		return "", fmt.Errorf("decode action item payload: %w", err)
	}

	candidate, err := e.meetings.FindCandidateByID(ctx, payload.CandidateID)
	if err != nil {
		return "", err
	}

	created, err := task.NewTask(candidate.Title(), task.SourceMeeting)
	if err != nil {
		return "", err
	}
	if candidate.EffortMinutes() > 0 {
		if err := created.SetEffort(candidate.EffortMinutes()); err != nil {
			return "", err
		}
	}
	created.SetDueAt(candidate.DueAt())
	created.SetAssignee(candidate.Assignee())

	err = application.WithUnitOfWork(ctx, e.executor.uow, func(txCtx context.Context) error {
		if err := e.tasks.Save(txCtx, created); err != nil {
			return err
		}
		candidate.MarkApproved(created.ID())
		return e.meetings.SaveCandidate(txCtx, candidate)
	})
	if err != nil {
		return "", fmt.Errorf("approve candidate: %w", err)
	}

	placed := e.placeBlock(ctx, created)

	e.executor.metrics.Counter(observability.MetricTasksCreated, 1, observability.T("source", "meeting"))
	e.auditor.Record(ctx, audit.ActorUser, "approval.action_item", "task", created.ID().String(),
		map[string]any{"candidate_id": payload.CandidateID})

	reply := fmt.Sprintf("작업을 생성했습니다: %s", created.Title())
	if placed != nil {
		reply += fmt.Sprintf(" 실행 시간 %s 예약.", formatLocal(ctx, e.executor, placed.Interval().Start))
	}
	return reply, nil
}

// placeBlock reserves the next open slot for the new task. The task
// is already saved, so a full calendar or a save failure only logs.
func (e *ApprovalEffects) placeBlock(ctx context.Context, created *task.Task) *schedulingDomain.CalendarBlock {
	if e.slots == nil {
		return nil
	}
	slot, err := e.slots.Find(ctx, e.executor.now(), created.EffortMinutes())
	if err != nil {
		e.logger.Warn("next slot lookup failed", "task_id", created.ID(), "error", err)
		return nil
	}
	if slot == nil {
		e.logger.Info("no open slot for approved task", "task_id", created.ID())
		return nil
	}
	taskID := created.ID()
	block, err := schedulingDomain.NewCalendarBlock(
		created.Title()+" 실행", *slot, schedulingDomain.BlockTypeTask, schedulingDomain.BlockSourceScheduler, &taskID,
	)
	if err != nil {
		e.logger.Warn("block create failed", "task_id", created.ID(), "error", err)
		return nil
	}
	if err := e.executor.blocks.Save(ctx, block); err != nil {
		e.logger.Warn("block save failed", "task_id", created.ID(), "block_id", block.ID(), "error", err)
		return nil
	}
	return block
}

// ApproveReschedule applies the proposal the approval points at.
func (e *ApprovalEffects) ApproveReschedule(ctx context.Context, request *approvalsDomain.ApprovalRequest) (string, error) {
	var payload approvalsDomain.ReschedulePayload
	if err := request.DecodePayload(&payload); err != nil {
		return "", fmt.Errorf("decode reschedule payload: %w", err)
	}

	applied, err := e.applier.Apply(ctx, payload.ProposalID)
	if err != nil {
		return "", fmt.Errorf("apply proposal: %w", err)
	}
	mirrored := e.executor.mirrorBlocks(ctx, applied.CreatedBlocks)

	e.auditor.Record(ctx, audit.ActorUser, "approval.reschedule", "scheduling_proposal", payload.ProposalID.String(),
		map[string]any{"created_blocks": len(applied.CreatedBlocks)})

	reply := fmt.Sprintf("재배치를 적용했습니다. 새 일정 %d건 생성", len(applied.CreatedBlocks))
	if mirrored > 0 {
		reply += fmt.Sprintf(", Outlook 동기화 %d건", mirrored)
	}
	return reply + ".", nil
}

// ApprovePendingAction re-runs the stored action with confirmation
// suppressed.
func (e *ApprovalEffects) ApprovePendingAction(ctx context.Context, request *approvalsDomain.ApprovalRequest) (string, error) {
	var payload approvalsDomain.ChatPendingActionPayload
	if err := request.DecodePayload(&payload); err != nil {
		return "", fmt.Errorf("decode pending action payload: %w", err)
	}

	var action Action
	if err := json.Unmarshal(payload.Action, &action); err != nil {
		return "", fmt.Errorf("decode stored action: %w", err)
	}

	result, err := e.executor.Execute(ctx, payload.Description, Plan{Actions: []Action{action}}, true)
	if err != nil {
		return "", err
	}
	return result.Reply, nil
}

// ApproveClarification only acknowledges; the user answers a
// clarification with a new message, not with an approval.
func (e *ApprovalEffects) ApproveClarification(ctx context.Context, request *approvalsDomain.ApprovalRequest) (string, error) {
	return "확인했습니다. 원하시는 내용을 다시 말씀해 주세요.", nil
}
