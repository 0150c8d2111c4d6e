package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	approvalsDomain "github.com/aawohq/aawo/internal/approvals/domain"
	meetingsDomain "github.com/aawohq/aawo/internal/meetings/domain"
	schedulingCommands "github.com/aawohq/aawo/internal/scheduling/application/commands"
	schedulingDomain "github.com/aawohq/aawo/internal/scheduling/domain"
	"github.com/aawohq/aawo/internal/shared/application"
	"github.com/aawohq/aawo/internal/shared/audit"
	"github.com/aawohq/aawo/pkg/observability"
)

const rescheduleHorizonDays = 2

const afterHourHorizonDays = 14

func (e *Executor) rescheduleRequest(ctx context.Context, action Action, skipConfirmation bool, result *ChatResult) (string, error) {
	profile, err := e.profiles.Load(ctx)
	if err != nil {
		return "", err
	}

	now := e.now()
	proposal, err := e.generate.Handle(ctx, schedulingCommands.GenerateProposalCommand{
		HorizonStart: now,
		HorizonEnd:   now.AddDate(0, 0, rescheduleHorizonDays),
	})
	if err != nil {
		return "", fmt.Errorf("generate proposal: %w", err)
	}
	if len(proposal.Changes()) == 0 {
		return "재배치할 제안을 만들지 못했습니다. 기간을 더 넓혀 다시 요청해 주세요.", nil
	}

	if profile.Autonomy.RequiresApproval() && !skipConfirmation {
		request, err := approvalsDomain.NewApprovalRequest(
			approvalsDomain.KindReschedule,
			proposal.Summary(),
			approvalsDomain.ReschedulePayload{ProposalID: proposal.ID(), Summary: proposal.Summary()},
		)
		if err != nil {
			return "", err
		}
		if err := e.approvals.Save(ctx, request); err != nil {
			return "", fmt.Errorf("save reschedule approval: %w", err)
		}

		result.addAction("reschedule_approval_requested", map[string]any{"approval_id": request.ID().String()})
		result.addRefresh("approvals", "calendar")
		return fmt.Sprintf("재배치 제안을 생성했고 승인 요청을 올렸습니다. (%s)", proposal.Summary()), nil
	}

	applied, err := e.applier.Apply(ctx, proposal.ID())
	if err != nil {
		return "", fmt.Errorf("apply proposal: %w", err)
	}

	mirrored := e.mirrorBlocks(ctx, applied.CreatedBlocks)

	e.auditor.Record(ctx, audit.ActorAssistant, "proposal.applied", "scheduling_proposal", proposal.ID().String(),
		map[string]any{"created_blocks": len(applied.CreatedBlocks)})

	result.addAction("reschedule_applied", map[string]any{
		"proposal_id":    proposal.ID().String(),
		"created_blocks": len(applied.CreatedBlocks),
	})
	result.addRefresh("calendar")

	reply := fmt.Sprintf("재배치를 적용했습니다. 새 일정 %d건 생성", len(applied.CreatedBlocks))
	if mirrored > 0 {
		reply += fmt.Sprintf(", Outlook 동기화 %d건", mirrored)
	}
	if hint := strings.TrimSpace(action.TimeHint); hint != "" {
		reply += fmt.Sprintf(" (요청: %s)", hint)
	}
	return reply + ".", nil
}

// rescheduleAfterHour clears late blocks and re-places their tasks
// into earlier slots. Runs only after the user confirmed.
func (e *Executor) rescheduleAfterHour(ctx context.Context, action Action, result *ChatResult) (string, error) {
	profile, err := e.profiles.Load(ctx)
	if err != nil {
		return "", err
	}
	loc := profile.Location()
	cutoff := *action.CutoffHour

	now := e.now()
	horizon := schedulingDomain.Interval{Start: now, End: now.AddDate(0, 0, afterHourHorizonDays)}
	upcoming, err := e.blocks.FindOccupying(ctx, horizon)
	if err != nil {
		return "", fmt.Errorf("list blocks: %w", err)
	}

	var late []*schedulingDomain.CalendarBlock
	var taskIDs []uuid.UUID
	skippedNoTask := 0
	for _, block := range upcoming {
		if block.Source() == schedulingDomain.BlockSourceImport || block.Type() == schedulingDomain.BlockTypeExternal {
			continue
		}
		iv := block.Interval()
		startHour := iv.Start.In(loc).Hour()
		endLocal := iv.End.In(loc)
		endHour := endLocal.Hour()
		if endLocal.Minute() > 0 || endLocal.Second() > 0 {
			endHour++
		}
		if startHour < cutoff && endHour <= cutoff {
			continue
		}
		if block.TaskID() == nil {
			skippedNoTask++
			continue
		}
		late = append(late, block)
		taskIDs = append(taskIDs, *block.TaskID())
	}

	if len(late) == 0 {
		reply := fmt.Sprintf("%d시 이후의 재배치할 일정이 없습니다.", cutoff)
		if skippedNoTask > 0 {
			reply += fmt.Sprintf(" (작업 연결이 없어 건너뛴 일정 %d건)", skippedNoTask)
		}
		return reply, nil
	}

	// Delete the late blocks first, remote copy included, so the new
	// placements do not collide with them.
	if e.mirror != nil && e.mirror.IsConnected(ctx) {
		if _, err := e.mirror.Delete(ctx, late); err != nil {
			return "", fmt.Errorf("delete remote blocks: %w", err)
		}
	} else {
		for _, block := range late {
			if block.ExternalID() != "" {
				return "원격 캘린더 연결이 끊겨 있어 동기화된 일정을 정리할 수 없습니다.", nil
			}
			block.MarkDeleted()
		}
	}
	err = application.WithUnitOfWork(ctx, e.uow, func(txCtx context.Context) error {
		for _, block := range late {
			if err := e.blocks.Save(txCtx, block); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("save deleted blocks: %w", err)
	}

	proposal, err := e.generate.Handle(ctx, schedulingCommands.GenerateProposalCommand{
		HorizonStart: now,
		HorizonEnd:   now.AddDate(0, 0, afterHourHorizonDays),
		TaskIDs:      taskIDs,
	})
	if err != nil {
		return "", fmt.Errorf("generate proposal: %w", err)
	}

	created := 0
	if len(proposal.Changes()) > 0 {
		applied, err := e.applier.Apply(ctx, proposal.ID())
		if err != nil {
			return "", fmt.Errorf("apply proposal: %w", err)
		}
		created = len(applied.CreatedBlocks)
		e.mirrorBlocks(ctx, applied.CreatedBlocks)
	}

	e.auditor.Record(ctx, audit.ActorAssistant, "schedule.after_hour", "calendar_block", "",
		map[string]any{"cutoff_hour": cutoff, "removed": len(late), "created": created})

	result.addAction("late_blocks_rescheduled", map[string]any{
		"cutoff_hour": cutoff,
		"removed":     len(late),
		"created":     created,
	})
	result.addRefresh("calendar")

	reply := fmt.Sprintf("%d시 이후 일정 %d건을 정리하고 %d건을 다시 배치했습니다.", cutoff, len(late), created)
	if skippedNoTask > 0 {
		reply += fmt.Sprintf(" 작업 연결이 없어 건너뛴 일정 %d건.", skippedNoTask)
	}
	return reply, nil
}

func (e *Executor) dailyBriefing(ctx context.Context, result *ChatResult) (string, error) {
	daily, err := e.briefing.BuildDaily(ctx, e.now())
	if err != nil {
		return "", fmt.Errorf("build briefing: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s 브리핑: %s", daily.Date, daily.Summary)
	for _, top := range daily.TopTasks {
		fmt.Fprintf(&b, "\n- %s (%s)", top.Title, top.Reason)
	}
	for _, risk := range daily.Risks {
		fmt.Fprintf(&b, "\n⚠ %s", risk)
	}

	result.addAction("briefing_built", map[string]any{"date": daily.Date})
	return b.String(), nil
}

// registerMeetingNote runs the meeting pipeline synchronously so the
// reply can report what happened.
func (e *Executor) registerMeetingNote(ctx context.Context, message string, action Action, result *ChatResult) (string, error) {
	note := action.MeetingNote
	if strings.TrimSpace(note) == "" {
		note = message
	}

	meeting, err := meetingsDomain.NewMeeting("", note)
	if err != nil {
		return "", err
	}
	if err := e.meetings.SaveMeeting(ctx, meeting); err != nil {
		return "", fmt.Errorf("save meeting: %w", err)
	}

	e.processor.Process(ctx, meeting.ID())

	candidates, err := e.meetings.ListCandidates(ctx, meeting.ID())
	if err != nil {
		return "", fmt.Errorf("list candidates: %w", err)
	}
	autoCreated := 0
	pending := 0
	var createdTaskIDs []uuid.UUID
	for _, candidate := range candidates {
		switch candidate.Status() {
		case meetingsDomain.CandidateStatusAutoCreated:
			autoCreated++
			if id := candidate.TaskID(); id != nil {
				createdTaskIDs = append(createdTaskIDs, *id)
			}
		case meetingsDomain.CandidateStatusPending:
			pending++
		}
	}

	e.auditor.Record(ctx, audit.ActorAssistant, "meeting.registered", "meeting", meeting.ID().String(),
		map[string]any{"candidates": len(candidates), "auto_created": autoCreated, "pending": pending})
	e.metrics.Counter(observability.MetricMeetingsIngested, 1, observability.T("origin", "chat"))

	result.addAction("meeting_registered", map[string]any{"meeting_id": meeting.ID().String()})
	result.addAction("action_items_processed", map[string]any{
		"detected":         len(candidates),
		"auto_tasks":       autoCreated,
		"approval_pending": pending,
	})
	result.addRefresh("calendar", "tasks", "approvals")

	return fmt.Sprintf("회의록을 등록했고 액션아이템 %d건을 처리했습니다. 자동 반영 %d건, 승인 대기 %d건.",
		len(candidates), autoCreated, pending), nil
}

// mirrorBlocks pushes blocks to the remote calendar, best effort.
// Returns how many got a remote copy.
func (e *Executor) mirrorBlocks(ctx context.Context, blocks []*schedulingDomain.CalendarBlock) int {
	if e.mirror == nil || len(blocks) == 0 || !e.mirror.IsConnected(ctx) {
		return 0
	}
	mirrorResult, err := e.mirror.Mirror(ctx, blocks)
	if err != nil {
		e.logger.Warn("mirror push failed", "error", err)
		return 0
	}
	for _, block := range blocks {
		if block.ExternalID() != "" {
			if err := e.blocks.Save(ctx, block); err != nil {
				e.logger.Warn("failed to save mirrored block", "block_id", block.ID(), "error", err)
			}
		}
	}
	return mirrorResult.Created + mirrorResult.Updated
}
