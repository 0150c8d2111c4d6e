package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	meetingsServices "github.com/aawohq/aawo/internal/meetings/application/services"
	schedulingDomain "github.com/aawohq/aawo/internal/scheduling/domain"
	"github.com/aawohq/aawo/internal/shared/application"
	"github.com/aawohq/aawo/internal/shared/audit"
	"github.com/aawohq/aawo/pkg/observability"
)

const (
	defaultEventMinutes = 60
	minEventMinutes     = 30
	maxEventMinutes     = 120

	freeTimeDayStartHour = 9
	freeTimeDayEndHour   = 18
	maxFreeSlots         = 3
)

func clampEventMinutes(minutes int) int {
	if minutes <= 0 {
		return defaultEventMinutes
	}
	if minutes < minEventMinutes {
		return minEventMinutes
	}
	if minutes > maxEventMinutes {
		return maxEventMinutes
	}
	return minutes
}

func (e *Executor) createEvent(ctx context.Context, action Action, result *ChatResult) (string, error) {
	title := strings.TrimSpace(action.Title)
	if title == "" {
		title = "새 일정"
	}
	duration := clampEventMinutes(action.DurationMinutes)
	interval := schedulingDomain.Interval{
		Start: action.Start.UTC(),
		End:   action.Start.UTC().Add(time.Duration(duration) * time.Minute),
	}

	overlapping, err := e.blocks.FindOccupying(ctx, interval)
	if err != nil {
		return "", fmt.Errorf("check overlap: %w", err)
	}
	if len(overlapping) > 0 {
		return fmt.Sprintf("해당 시간에 이미 일정이 있습니다: %s. 다른 시간으로 요청해 주세요.", overlapping[0].Title()), nil
	}

	block, err := schedulingDomain.NewCalendarBlock(title, interval, schedulingDomain.BlockTypeMeeting, schedulingDomain.BlockSourceUser, nil)
	if err != nil {
		return "", err
	}

	err = application.WithUnitOfWork(ctx, e.uow, func(txCtx context.Context) error {
		return e.blocks.Save(txCtx, block)
	})
	if err != nil {
		return "", fmt.Errorf("save block: %w", err)
	}

	mirrored := false
	if e.mirror != nil && e.mirror.IsConnected(ctx) {
		if _, err := e.mirror.Mirror(ctx, []*schedulingDomain.CalendarBlock{block}); err != nil {
			e.logger.Warn("event mirror failed", "block_id", block.ID(), "error", err)
		} else if block.ExternalID() != "" {
			mirrored = true
			if err := e.blocks.Save(ctx, block); err != nil {
				return "", fmt.Errorf("save mirrored block: %w", err)
			}
		}
	}

	e.metrics.Counter(observability.MetricBlocksScheduled, 1, observability.T("origin", "chat"))
	e.auditor.Record(ctx, audit.ActorAssistant, "block.created", "calendar_block", block.ID().String(),
		map[string]any{"title": title, "start": interval.Start})

	result.addAction("event_created", map[string]any{"block_id": block.ID().String(), "title": title})
	result.addRefresh("calendar")

	reply := fmt.Sprintf("일정을 추가했습니다: %s (%s, %d분)", title, formatLocal(ctx, e, interval.Start), duration)
	if mirrored {
		reply += " Outlook에도 반영했습니다."
	}
	return reply, nil
}

func (e *Executor) moveEvent(ctx context.Context, action Action, result *ChatResult) (string, error) {
	block, err := e.findBlock(ctx, action.Keyword)
	if err != nil {
		return "", err
	}
	if block == nil {
		return "옮길 일정을 찾지 못했습니다. 일정 제목을 조금 더 구체적으로 말해 주세요.", nil
	}
	if block.Source() == schedulingDomain.BlockSourceImport {
		return fmt.Sprintf("외부 캘린더에서 가져온 일정(%s)은 여기서 옮길 수 없습니다.", block.Title()), nil
	}

	duration := action.DurationMinutes
	if duration <= 0 {
		duration = block.Interval().Minutes()
	}
	duration = clampEventMinutes(duration)
	interval := schedulingDomain.Interval{
		Start: action.Start.UTC(),
		End:   action.Start.UTC().Add(time.Duration(duration) * time.Minute),
	}

	overlapping, err := e.blocks.FindOccupying(ctx, interval)
	if err != nil {
		return "", fmt.Errorf("check overlap: %w", err)
	}
	for _, other := range overlapping {
		if other.ID() != block.ID() {
			return fmt.Sprintf("해당 시간에 이미 일정이 있습니다: %s.", other.Title()), nil
		}
	}

	if err := block.MoveTo(interval); err != nil {
		return "", err
	}
	err = application.WithUnitOfWork(ctx, e.uow, func(txCtx context.Context) error {
		return e.blocks.Save(txCtx, block)
	})
	if err != nil {
		return "", fmt.Errorf("save block: %w", err)
	}

	if e.mirror != nil && e.mirror.IsConnected(ctx) && block.ExternalID() != "" {
		if _, err := e.mirror.Mirror(ctx, []*schedulingDomain.CalendarBlock{block}); err != nil {
			e.logger.Warn("event mirror failed", "block_id", block.ID(), "error", err)
		} else if err := e.blocks.Save(ctx, block); err != nil {
			return "", fmt.Errorf("save mirrored block: %w", err)
		}
	}

	e.auditor.Record(ctx, audit.ActorAssistant, "block.moved", "calendar_block", block.ID().String(),
		map[string]any{"start": interval.Start})

	result.addAction("event_moved", map[string]any{"block_id": block.ID().String(), "title": block.Title()})
	result.addRefresh("calendar")
	return fmt.Sprintf("일정을 옮겼습니다: %s → %s", block.Title(), formatLocal(ctx, e, interval.Start)), nil
}

// deleteEvent removes a block, remote copy first. A disconnected
// mirror or a failed remote delete aborts so the remote copy is never
// orphaned.
func (e *Executor) deleteEvent(ctx context.Context, action Action, result *ChatResult) (string, error) {
	block, err := e.findBlock(ctx, action.Keyword)
	if err != nil {
		return "", err
	}
	if block == nil {
		return "삭제할 일정을 찾지 못했습니다.", nil
	}

	if block.ExternalID() != "" && block.Source() != schedulingDomain.BlockSourceImport {
		if e.mirror == nil || !e.mirror.IsConnected(ctx) {
			return "원격 캘린더 연결이 끊겨 있어 일정을 삭제할 수 없습니다. 연결 후 다시 시도해 주세요.", nil
		}
		if _, err := e.mirror.Delete(ctx, []*schedulingDomain.CalendarBlock{block}); err != nil {
			return "", fmt.Errorf("delete remote event: %w", err)
		}
	} else {
		block.MarkDeleted()
	}

	err = application.WithUnitOfWork(ctx, e.uow, func(txCtx context.Context) error {
		return e.blocks.Save(txCtx, block)
	})
	if err != nil {
		return "", fmt.Errorf("save block: %w", err)
	}

	e.auditor.Record(ctx, audit.ActorAssistant, "block.deleted", "calendar_block", block.ID().String(),
		map[string]any{"title": block.Title()})

	result.addAction("event_deleted", map[string]any{"block_id": block.ID().String(), "title": block.Title()})
	result.addRefresh("calendar")
	return fmt.Sprintf("일정을 삭제했습니다: %s", block.Title()), nil
}

func (e *Executor) listEvents(ctx context.Context, result *ChatResult) (string, error) {
	profile, err := e.profiles.Load(ctx)
	if err != nil {
		return "", err
	}
	loc := profile.Location()
	now := e.now()
	horizon := schedulingDomain.Interval{Start: now, End: now.AddDate(0, 0, 7)}

	upcoming, err := e.blocks.FindOccupying(ctx, horizon)
	if err != nil {
		return "", fmt.Errorf("list blocks: %w", err)
	}
	if len(upcoming) == 0 {
		return "앞으로 7일간 예정된 일정이 없습니다.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "예정 일정 %d건:", len(upcoming))
	for i, block := range upcoming {
		if i >= 10 {
			break
		}
		iv := block.Interval()
		fmt.Fprintf(&b, "\n- %s ~ %s %s",
			iv.Start.In(loc).Format("01-02 15:04"), iv.End.In(loc).Format("15:04"), block.Title())
	}
	result.addAction("events_listed", map[string]any{"count": len(upcoming)})
	return b.String(), nil
}

func (e *Executor) findFreeTime(ctx context.Context, action Action, result *ChatResult) (string, error) {
	profile, err := e.profiles.Load(ctx)
	if err != nil {
		return "", err
	}
	loc := profile.Location()

	day := e.now().In(loc)
	if action.TargetDate != "" {
		if parsed, err := time.ParseInLocation("2006-01-02", action.TargetDate, loc); err == nil {
			day = parsed
		}
	} else if due := meetingsServices.ParseDuePhrase(action.TimeHint, e.now().In(loc), loc); due != nil {
		day = due.In(loc)
	}

	duration := clampEventMinutes(action.DurationMinutes)
	windowStart := time.Date(day.Year(), day.Month(), day.Day(), freeTimeDayStartHour, 0, 0, 0, loc)
	windowEnd := time.Date(day.Year(), day.Month(), day.Day(), freeTimeDayEndHour, 0, 0, 0, loc)
	if now := e.now().In(loc); now.After(windowStart) && now.Before(windowEnd) {
		windowStart = now
	}
	if !windowEnd.After(windowStart) {
		return "해당 날짜에 확인할 수 있는 업무 시간이 없습니다.", nil
	}
	window := schedulingDomain.Interval{Start: windowStart.UTC(), End: windowEnd.UTC()}

	busyBlocks, err := e.blocks.FindOccupying(ctx, window)
	if err != nil {
		return "", fmt.Errorf("list blocks: %w", err)
	}
	busy := make([]schedulingDomain.Interval, 0, len(busyBlocks))
	for _, block := range busyBlocks {
		busy = append(busy, block.Interval())
	}

	free := schedulingDomain.Subtract([]schedulingDomain.Interval{window}, busy)
	var slots []schedulingDomain.Interval
	for _, gap := range free {
		cursor := gap.Start
		for len(slots) < maxFreeSlots && !cursor.Add(time.Duration(duration)*time.Minute).After(gap.End) {
			slots = append(slots, schedulingDomain.Interval{
				Start: cursor,
				End:   cursor.Add(time.Duration(duration) * time.Minute),
			})
			cursor = cursor.Add(time.Duration(profile.SlotMinutes) * time.Minute)
		}
		if len(slots) >= maxFreeSlots {
			break
		}
	}

	if len(slots) == 0 {
		return fmt.Sprintf("%s에는 %d분짜리 빈 시간이 없습니다.", day.Format("01-02"), duration), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s 기준 %d분 가능한 시간:", day.Format("01-02"), duration)
	for _, slot := range slots {
		fmt.Fprintf(&b, "\n- %s ~ %s",
			slot.Start.In(loc).Format("15:04"), slot.End.In(loc).Format("15:04"))
	}
	result.addAction("free_slots_found", map[string]any{"count": len(slots)})
	return b.String(), nil
}

// findBlock resolves an upcoming block by exact title match first,
// contains second.
func (e *Executor) findBlock(ctx context.Context, keyword string) (*schedulingDomain.CalendarBlock, error) {
	key := strings.TrimSpace(keyword)
	if key == "" {
		return nil, nil
	}
	now := e.now()
	horizon := schedulingDomain.Interval{Start: now.AddDate(0, 0, -1), End: now.AddDate(0, 0, 14)}
	candidates, err := e.blocks.FindOccupying(ctx, horizon)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}

	loweredKey := strings.ToLower(key)
	for _, block := range candidates {
		if strings.EqualFold(block.Title(), key) {
			return block, nil
		}
	}
	for _, block := range candidates {
		title := strings.ToLower(block.Title())
		if strings.Contains(title, loweredKey) || strings.Contains(loweredKey, title) {
			return block, nil
		}
	}
	return nil, nil
}

func formatLocal(ctx context.Context, e *Executor, t time.Time) string {
	profile, err := e.profiles.Load(ctx)
	if err != nil {
		return t.Format("01-02 15:04")
	}
	return t.In(profile.Location()).Format("01-02 15:04")
}
