package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aawohq/aawo/internal/meetings/domain"
)

// actionHints are the verbs and request phrases that flag a transcript
// line as a likely action item.
var actionHints = []string{
	"해야", "해주세요", "해줘",
	"작성", "정리", "검토", "전달", "공유", "준비",
	"fix", "review", "send", "prepare", "update",
}

var (
	assigneePattern   = regexp.MustCompile(`([A-Za-z가-힣0-9_]{2,20})(님|이|가|는|은|께서)`)
	effortHoursRe     = regexp.MustCompile(`(\d+)\s*시간`)
	effortMinutesRe   = regexp.MustCompile(`(\d+)\s*분`)
	dueKeywordRe      = regexp.MustCompile(`(오늘|내일|모레|이번\s*주\s*[월화수목금토일]요일|다음\s*주\s*[월화수목금토일]요일|\d{1,2}/\d{1,2}|\d{4}-\d{2}-\d{2})`)
	discourseMarkerRe = regexp.MustCompile(`^(그러면|그럼|일단|음|어)\s*`)
	whitespaceRe      = regexp.MustCompile(`\s+`)
)

var weekdayNames = map[rune]time.Weekday{
	'월': time.Monday, '화': time.Tuesday, '수': time.Wednesday,
	'목': time.Thursday, '금': time.Friday, '토': time.Saturday, '일': time.Sunday,
}

// DraftItem is an extracted action item before it becomes a candidate.
type DraftItem struct {
	Title         string
	Assignee      string
	DueAt         *time.Time
	EffortMinutes int
	Confidence    float64
	Rationale     string
}

// RuleExtractor is the deterministic fallback extractor.
type RuleExtractor struct {
	location *time.Location
}

// NewRuleExtractor creates an extractor resolving relative dates in loc.
func NewRuleExtractor(loc *time.Location) *RuleExtractor {
	if loc == nil {
		loc = time.UTC
	}
	return &RuleExtractor{location: loc}
}

// Extract scans transcript lines for action hints and deadline phrases.
func (e *RuleExtractor) Extract(utterances []domain.Utterance, base time.Time) []DraftItem {
	base = base.In(e.location)
	seen := make(map[string]struct{})
	var items []DraftItem

	for _, u := range utterances {
		text := strings.TrimSpace(u.Text)
		if text == "" {
			continue
		}
		lowered := strings.ToLower(text)
		hasHint := false
		for _, hint := range actionHints {
			if strings.Contains(lowered, hint) || strings.Contains(text, hint) {
				hasHint = true
				break
			}
		}
		if !hasHint && !strings.Contains(text, "까지") {
			continue
		}

		title := extractTitle(text)
		if len([]rune(title)) < 6 {
			continue
		}
		key := strings.ToLower(title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		assignee := u.Speaker
		hasAssignee := false
		if m := assigneePattern.FindStringSubmatch(text); m != nil {
			assignee = m[1]
			hasAssignee = true
		}
		dueAt := e.parseDue(text, base)
		effort := parseEffort(text)

		items = append(items, DraftItem{
			Title:         title,
			Assignee:      assignee,
			DueAt:         dueAt,
			EffortMinutes: effort,
			Confidence:    confidence(dueAt != nil, hasAssignee, hasHint, effort),
			Rationale:     rationale(dueAt != nil, hasAssignee, hasHint),
		})
	}
	return items
}

func extractTitle(line string) string {
	cleaned := strings.TrimSpace(whitespaceRe.ReplaceAllString(line, " "))
	cleaned = discourseMarkerRe.ReplaceAllString(cleaned, "")
	runes := []rune(cleaned)
	if len(runes) > 120 {
		cleaned = string(runes[:117]) + "..."
	}
	return cleaned
}

// ParseDuePhrase resolves a Korean deadline phrase ("내일", "다음주
// 금요일", "3/15") against a base time. Nil when no phrase matches.
func ParseDuePhrase(text string, base time.Time, loc *time.Location) *time.Time {
	return NewRuleExtractor(loc).parseDue(text, base)
}

// parseDue resolves the first deadline phrase against the base time,
// preserving the base's time of day.
func (e *RuleExtractor) parseDue(text string, base time.Time) *time.Time {
	m := dueKeywordRe.FindString(text)
	if m == "" {
		return nil
	}
	normalized := whitespaceRe.ReplaceAllString(m, "")

	switch {
	case normalized == "오늘":
		return &base
	case normalized == "내일":
		due := base.AddDate(0, 0, 1)
		return &due
	case normalized == "모레":
		due := base.AddDate(0, 0, 2)
		return &due
	case strings.HasPrefix(normalized, "이번주"), strings.HasPrefix(normalized, "다음주"):
		day, ok := weekdayNames[[]rune(normalized)[3]]
		if !ok {
			return nil
		}
		due := nextWeekday(base, day, strings.HasPrefix(normalized, "다음주"))
		return &due
	case strings.Contains(normalized, "/"):
		parts := strings.SplitN(normalized, "/", 2)
		month, err1 := strconv.Atoi(parts[0])
		day, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || month < 1 || month > 12 || day < 1 || day > 31 {
			return nil
		}
		due := time.Date(base.Year(), time.Month(month), day, base.Hour(), base.Minute(), 0, 0, e.location)
		if due.Before(base) {
			due = due.AddDate(1, 0, 0)
		}
		return &due
	default:
		parsed, err := time.ParseInLocation("2006-01-02", normalized, e.location)
		if err != nil {
			return nil
		}
		due := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), base.Hour(), base.Minute(), 0, 0, e.location)
		return &due
	}
}

// nextWeekday finds the upcoming occurrence of day after base. "다음 주"
// pushes past the current week.
func nextWeekday(base time.Time, day time.Weekday, nextWeek bool) time.Time {
	delta := (int(day) - int(base.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	if nextWeek && delta < 7 {
		delta += 7
	}
	return base.AddDate(0, 0, delta)
}

func parseEffort(text string) int {
	if m := effortHoursRe.FindStringSubmatch(text); m != nil {
		hours, _ := strconv.Atoi(m[1])
		return clampInt(hours*60, 30, 480)
	}
	if m := effortMinutesRe.FindStringSubmatch(text); m != nil {
		minutes, _ := strconv.Atoi(m[1])
		return clampInt(minutes, 15, 480)
	}
	return 60
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func confidence(hasDue, hasAssignee, hasHint bool, effortMinutes int) float64 {
	score := 0.35
	if hasHint {
		score += 0.25
	}
	if hasDue {
		score += 0.2
	}
	if hasAssignee {
		score += 0.15
	}
	if effortMinutes > 180 {
		score -= 0.1
	}
	if score < 0.2 {
		return 0.2
	}
	if score > 0.95 {
		return 0.95
	}
	return score
}

func rationale(hasDue, hasAssignee, hasHint bool) string {
	var parts []string
	if hasHint {
		parts = append(parts, "행동 동사/요청 표현 감지")
	}
	if hasDue {
		parts = append(parts, "마감 관련 표현 감지")
	}
	if hasAssignee {
		parts = append(parts, "담당자 표현 감지")
	}
	if len(parts) == 0 {
		parts = append(parts, "회의 맥락에서 후속 액션 가능성")
	}
	return strings.Join(parts, ", ")
}
