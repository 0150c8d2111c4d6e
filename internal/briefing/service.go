package briefing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	approvalsDomain "github.com/aawohq/aawo/internal/approvals/domain"
	"github.com/aawohq/aawo/internal/productivity/domain/task"
	profileDomain "github.com/aawohq/aawo/internal/profile/domain"
	schedulingDomain "github.com/aawohq/aawo/internal/scheduling/domain"
)

// maxRecommendedSlotMinutes caps the recommended focus slot length.
const maxRecommendedSlotMinutes = 90

// TopTask is one recommended task with an optional suggested slot.
type TopTask struct {
	TaskID           string                     `json:"task_id"`
	Title            string                     `json:"title"`
	Reason           string                     `json:"reason"`
	RecommendedBlock *schedulingDomain.Interval `json:"recommended_block,omitempty"`
}

// Snapshot summarizes how the day's hours divide up.
type Snapshot struct {
	MeetingMinutes int `json:"meeting_minutes"`
	FocusMinutes   int `json:"focus_minutes"`
	FreeMinutes    int `json:"free_minutes"`
}

// Briefing is the daily morning digest.
type Briefing struct {
	Date             string    `json:"date"`
	TopTasks         []TopTask `json:"top_tasks"`
	Risks            []string  `json:"risks"`
	Reminders        []string  `json:"reminders"`
	PendingApprovals int       `json:"pending_approvals"`
	Snapshot         Snapshot  `json:"snapshot"`
	Summary          string    `json:"summary"`
}

// Service assembles daily briefings.
type Service struct {
	tasks     task.Repository
	blocks    schedulingDomain.BlockRepository
	approvals approvalsDomain.Repository
	profiles  profileDomain.Repository
	logger    *slog.Logger
}

// NewService creates the briefing service.
func NewService(
	tasks task.Repository,
	blocks schedulingDomain.BlockRepository,
	approvals approvalsDomain.Repository,
	profiles profileDomain.Repository,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{tasks: tasks, blocks: blocks, approvals: approvals, profiles: profiles, logger: logger}
}

// BuildDaily composes the briefing for the date containing now.
func (s *Service) BuildDaily(ctx context.Context, now time.Time) (*Briefing, error) {
	profile, err := s.profiles.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	loc := profile.Location()
	local := now.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	day := schedulingDomain.Interval{Start: dayStart, End: dayStart.AddDate(0, 0, 1)}

	openTasks, err := s.tasks.List(ctx, task.Filter{
		Statuses:     []task.Status{task.StatusTodo, task.StatusInProgress},
		IncludeNoDue: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	sortByPriorityThenDue(openTasks)

	dayBlocks, err := s.blocks.FindOccupying(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}

	pending, err := s.approvals.CountPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("count approvals: %w", err)
	}

	windows := schedulingDomain.ResolveWorkWindows(profile.WorkWindows, profile.Lunch, day, loc)
	busy := make([]schedulingDomain.Interval, 0, len(dayBlocks))
	var busyMinutes, focusMinutes, meetingMinutes int
	for _, b := range dayBlocks {
		iv := b.Interval()
		busy = append(busy, iv)
		busyMinutes += clippedMinutes(iv, day)
		switch b.Type() {
		case schedulingDomain.BlockTypeTask, schedulingDomain.BlockTypeFocus:
			focusMinutes += iv.Minutes()
		case schedulingDomain.BlockTypeMeeting, schedulingDomain.BlockTypeExternal:
			meetingMinutes += iv.Minutes()
		}
	}

	workMinutes := schedulingDomain.TotalMinutes(windows)
	freeMinutes := workMinutes - busyMinutes
	if freeMinutes < 0 {
		freeMinutes = 0
	}
	freeSlot := firstFreeSlot(windows, busy)

	b := &Briefing{
		Date:             dayStart.Format("2006-01-02"),
		PendingApprovals: pending,
		Snapshot: Snapshot{
			MeetingMinutes: meetingMinutes,
			FocusMinutes:   focusMinutes,
			FreeMinutes:    freeMinutes,
		},
	}

	for i, t := range openTasks {
		if i >= 5 {
			break
		}
		top := TopTask{
			TaskID: t.ID().String(),
			Title:  t.Title(),
			Reason: fmt.Sprintf("우선순위=%s, 예상소요=%d분", t.Priority(), t.EffortMinutes()),
		}
		if freeSlot != nil {
			top.RecommendedBlock = freeSlot
		}
		b.TopTasks = append(b.TopTasks, top)
	}

	var dueToday, overdue []*task.Task
	for _, t := range openTasks {
		due := t.DueAtUTC()
		if due == nil {
			continue
		}
		localDue := due.In(loc)
		switch {
		case localDue.Before(dayStart):
			overdue = append(overdue, t)
		case localDue.Before(day.End):
			dueToday = append(dueToday, t)
		}
	}
	if len(overdue) > 0 {
		b.Risks = append(b.Risks, fmt.Sprintf("기한 경과 작업 %d건", len(overdue)))
	}
	if len(dueToday) >= 3 {
		b.Risks = append(b.Risks, "오늘 마감 작업이 3건 이상입니다")
	}
	if freeMinutes < 120 {
		b.Risks = append(b.Risks, "가용 집중 시간이 2시간 미만입니다")
	}
	for i, t := range dueToday {
		if i >= 3 {
			break
		}
		b.Reminders = append(b.Reminders, t.Title()+" 마감이 오늘입니다")
	}

	b.Summary = summarize(b, len(dayBlocks))
	return b, nil
}

func sortByPriorityThenDue(tasks []*task.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Priority() != tasks[j].Priority() {
			return tasks[i].Priority() < tasks[j].Priority()
		}
		di, dj := tasks[i].DueAtUTC(), tasks[j].DueAtUTC()
		switch {
		case di == nil && dj == nil:
			return false
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.Before(*dj)
		}
	})
}

func clippedMinutes(iv, bound schedulingDomain.Interval) int {
	start := iv.Start
	if bound.Start.After(start) {
		start = bound.Start
	}
	end := iv.End
	if bound.End.Before(end) {
		end = bound.End
	}
	if !end.After(start) {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}

// firstFreeSlot returns the earliest free gap, capped at 90 minutes.
func firstFreeSlot(windows, busy []schedulingDomain.Interval) *schedulingDomain.Interval {
	free := schedulingDomain.Subtract(windows, busy)
	if len(free) == 0 {
		return nil
	}
	slot := free[0]
	if slot.Minutes() > maxRecommendedSlotMinutes {
		slot.End = slot.Start.Add(maxRecommendedSlotMinutes * time.Minute)
	}
	return &slot
}

func summarize(b *Briefing, blockCount int) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("오늘 일정 %d건", blockCount))
	parts = append(parts, fmt.Sprintf("집중 가능 시간 %d분", b.Snapshot.FreeMinutes))
	if len(b.Reminders) > 0 {
		parts = append(parts, fmt.Sprintf("오늘 마감 %d건", len(b.Reminders)))
	}
	if b.PendingApprovals > 0 {
		parts = append(parts, fmt.Sprintf("대기 중 승인 %d건", b.PendingApprovals))
	}
	return strings.Join(parts, ", ")
}
