package assistant

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aawohq/aawo/internal/productivity/domain/task"
)

// priorityWords maps user-facing priority names to ranks.
var priorityWords = map[string]task.Priority{
	"긴급":       task.PriorityP1,
	"critical": task.PriorityP1,
	"높음":       task.PriorityP2,
	"high":     task.PriorityP2,
	"중간":       task.PriorityP3,
	"medium":   task.PriorityP3,
	"낮음":       task.PriorityP4,
	"low":      task.PriorityP4,
}

var cutoffHourPattern = regexp.MustCompile(`(\d{1,2})\s*시\s*(이후|넘어|지나)`)

// looksLikeMeetingNote reports whether the message is a pasted meeting
// note rather than a command.
func looksLikeMeetingNote(text string) bool {
	lowered := strings.ToLower(text)
	if strings.Contains(text, "회의록") || strings.Contains(lowered, "meeting notes") || strings.Contains(text, "회의 내용") {
		return true
	}
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	speakerLike := 0
	for _, line := range lines {
		if idx := strings.Index(line, ":"); idx > 0 && len([]rune(line[:idx])) <= 20 {
			speakerLike++
		}
	}
	return len(lines) >= 2 && speakerLike >= 1
}

// classify is the rule cascade used when no LLM answer is available.
func classify(message string, loc *time.Location) Plan {
	text := strings.TrimSpace(message)
	lowered := strings.ToLower(text)

	if looksLikeMeetingNote(text) {
		return Plan{Actions: []Action{{Kind: ActionRegisterMeetingNote, MeetingNote: text}}}
	}

	if containsAny(text, "브리핑", "오늘 요약") || strings.Contains(lowered, "briefing") {
		return Plan{Actions: []Action{{Kind: ActionDailyBriefing}}}
	}

	if containsAny(text, "중복") && containsAny(text, "삭제", "정리", "지워") {
		return Plan{Actions: []Action{{Kind: ActionDeleteDuplicates}}}
	}

	if matches := cutoffHourPattern.FindStringSubmatch(text); matches != nil && containsAny(text, "재배치", "옮겨", "조정", "비워") {
		if hour, err := strconv.Atoi(matches[1]); err == nil && hour >= 0 && hour <= 23 {
			return Plan{Actions: []Action{{Kind: ActionRescheduleAfterHour, CutoffHour: &hour, TimeHint: text}}}
		}
	}

	if containsAny(text, "우선순위") || strings.Contains(lowered, "priority") {
		action := Action{Kind: ActionUpdatePriority, Keyword: text}
		for word := range priorityWords {
			if strings.Contains(text, word) || strings.Contains(lowered, word) {
				action.Priority = word
				break
			}
		}
		return Plan{Actions: []Action{action}}
	}

	if containsAny(text, "완료") || strings.Contains(lowered, "done") {
		return Plan{Actions: []Action{{Kind: ActionCompleteTask, Keyword: text}}}
	}

	if containsAny(text, "시작") || strings.Contains(lowered, "start") {
		return Plan{Actions: []Action{{Kind: ActionStartTask, Keyword: text}}}
	}

	if containsAny(text, "빈 시간", "빈시간", "언제 가능") || strings.Contains(lowered, "free time") {
		return Plan{Actions: []Action{{Kind: ActionFindFreeTime, TimeHint: text, DurationMinutes: 60}}}
	}

	if containsAny(text, "삭제", "지워") {
		if containsAny(text, "일정", "미팅", "회의") {
			return Plan{Actions: []Action{{Kind: ActionDeleteEvent, Keyword: text}}}
		}
		return Plan{Actions: []Action{{Kind: ActionDeleteTask, Keyword: text}}}
	}

	if containsAny(text, "재배치", "조정") || strings.Contains(lowered, "reschedule") {
		return Plan{Actions: []Action{{Kind: ActionRescheduleRequest, TimeHint: text}}}
	}

	if containsAny(text, "목록", "리스트") || strings.Contains(lowered, "list") {
		if containsAny(text, "일정", "미팅", "회의") || strings.Contains(lowered, "event") {
			return Plan{Actions: []Action{{Kind: ActionListEvents}}}
		}
		return Plan{Actions: []Action{{Kind: ActionListTasks}}}
	}

	if containsAny(text, "추가", "만들", "등록") || strings.Contains(lowered, "create task") {
		return Plan{Actions: []Action{{
			Kind:          ActionCreateTask,
			Title:         text,
			EffortMinutes: 60,
			Priority:      "medium",
		}}}
	}

	if containsAny(text, "일정") {
		return Plan{Actions: []Action{{Kind: ActionRescheduleRequest, TimeHint: text}}}
	}

	return Plan{Actions: []Action{{Kind: ActionUnknown}}}
}

func containsAny(text string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

// normalizeKeyword lowercases and strips particles off a one-word
// targeting hint.
func normalizeKeyword(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}
