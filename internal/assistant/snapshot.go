package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	approvalsDomain "github.com/aawohq/aawo/internal/approvals/domain"
	"github.com/aawohq/aawo/internal/productivity/domain/task"
	schedulingDomain "github.com/aawohq/aawo/internal/scheduling/domain"
)

const (
	snapshotMaxTasks     = 40
	snapshotMaxBlocks    = 60
	snapshotMaxApprovals = 20
)

// worldSnapshot is the compact state the planner sees.
type worldSnapshot struct {
	Now       time.Time
	Tasks     []*task.Task
	Blocks    []*schedulingDomain.CalendarBlock
	Approvals []*approvalsDomain.ApprovalRequest
}

func buildSnapshot(
	ctx context.Context,
	tasks task.Repository,
	blocks schedulingDomain.BlockRepository,
	approvals approvalsDomain.Repository,
	now time.Time,
) (*worldSnapshot, error) {
	openTasks, err := tasks.List(ctx, task.Filter{
		Statuses:     []task.Status{task.StatusTodo, task.StatusInProgress, task.StatusBlocked},
		IncludeNoDue: true,
		Limit:        snapshotMaxTasks,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot tasks: %w", err)
	}

	horizon := schedulingDomain.Interval{Start: now, End: now.AddDate(0, 0, 14)}
	upcoming, err := blocks.FindOccupying(ctx, horizon)
	if err != nil {
		return nil, fmt.Errorf("snapshot blocks: %w", err)
	}
	if len(upcoming) > snapshotMaxBlocks {
		upcoming = upcoming[:snapshotMaxBlocks]
	}

	status := approvalsDomain.StatusPending
	pending, err := approvals.List(ctx, approvalsDomain.Filter{Status: &status, Limit: snapshotMaxApprovals})
	if err != nil {
		return nil, fmt.Errorf("snapshot approvals: %w", err)
	}

	return &worldSnapshot{Now: now, Tasks: openTasks, Blocks: upcoming, Approvals: pending}, nil
}

// Render formats the snapshot as compact prompt text.
func (s *worldSnapshot) Render(loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "현재 시각: %s\n", s.Now.In(loc).Format("2006-01-02 15:04 (Mon)"))

	b.WriteString("열린 작업:\n")
	if len(s.Tasks) == 0 {
		b.WriteString("- 없음\n")
	}
	for _, t := range s.Tasks {
		due := "기한 없음"
		if d := t.DueAtUTC(); d != nil {
			due = d.In(loc).Format("01-02 15:04")
		}
		fmt.Fprintf(&b, "- [%s] %s (%s, %d분, 기한 %s)\n", t.Status(), t.Title(), t.Priority(), t.EffortMinutes(), due)
	}

	b.WriteString("예정 일정:\n")
	if len(s.Blocks) == 0 {
		b.WriteString("- 없음\n")
	}
	for _, blk := range s.Blocks {
		iv := blk.Interval()
		fmt.Fprintf(&b, "- %s ~ %s %s (%s)\n",
			iv.Start.In(loc).Format("01-02 15:04"), iv.End.In(loc).Format("15:04"), blk.Title(), blk.Type())
	}

	if len(s.Approvals) > 0 {
		fmt.Fprintf(&b, "대기 중 승인 %d건\n", len(s.Approvals))
	}
	return b.String()
}
