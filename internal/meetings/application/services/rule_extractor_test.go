package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aawohq/aawo/internal/meetings/domain"
)

func seoul(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	return loc
}

func utter(speaker, text string) domain.Utterance {
	return domain.Utterance{Speaker: speaker, Text: text}
}

func TestExtract_ActionHintAndDue(t *testing.T) {
	loc := seoul(t)
	base := time.Date(2026, 1, 5, 10, 0, 0, 0, loc) // Monday

	extractor := NewRuleExtractor(loc)
	items := extractor.Extract([]domain.Utterance{
		utter("김철수", "민수님이 내일까지 주간 보고서 작성 부탁드립니다"),
		utter("박영희", "네 알겠습니다"),
	}, base)

	require.Len(t, items, 1)
	item := items[0]
	assert.Equal(t, "민수님", item.Assignee)
	require.NotNil(t, item.DueAt)
	assert.Equal(t, 6, item.DueAt.Day())
	assert.Equal(t, 60, item.EffortMinutes)
	// hint + due + assignee: 0.35 + 0.25 + 0.2 + 0.15
	assert.InDelta(t, 0.95, item.Confidence, 0.001)
	assert.Contains(t, item.Rationale, "행동 동사")
}

func TestExtract_EffortParsing(t *testing.T) {
	loc := seoul(t)
	base := time.Date(2026, 1, 5, 10, 0, 0, 0, loc)
	extractor := NewRuleExtractor(loc)

	items := extractor.Extract([]domain.Utterance{
		utter("이수진", "데이터 마이그레이션 준비는 3시간 정도 걸릴 것 같아요"),
		utter("이수진", "릴리스 노트 정리는 20분이면 됩니다"),
	}, base)

	require.Len(t, items, 2)
	assert.Equal(t, 180, items[0].EffortMinutes)
	assert.Equal(t, 20, items[1].EffortMinutes)
}

func TestExtract_LargeEffortLowersConfidence(t *testing.T) {
	loc := seoul(t)
	base := time.Date(2026, 1, 5, 10, 0, 0, 0, loc)
	extractor := NewRuleExtractor(loc)

	items := extractor.Extract([]domain.Utterance{
		utter("참석자", "전체 아키텍처 검토 5시간 잡고 진행해주세요"),
	}, base)

	require.Len(t, items, 1)
	assert.Equal(t, 300, items[0].EffortMinutes)
	// hint only, effort > 180: 0.35 + 0.25 − 0.1
	assert.InDelta(t, 0.5, items[0].Confidence, 0.001)
}

func TestExtract_SkipsShortAndDuplicateTitles(t *testing.T) {
	loc := seoul(t)
	base := time.Date(2026, 1, 5, 10, 0, 0, 0, loc)
	extractor := NewRuleExtractor(loc)

	items := extractor.Extract([]domain.Utterance{
		utter("참석자", "검토"),
		utter("참석자", "주간 보고서 검토 부탁드려요"),
		utter("참석자", "주간 보고서 검토 부탁드려요"),
	}, base)

	require.Len(t, items, 1)
}

func TestExtract_IgnoresLinesWithoutHints(t *testing.T) {
	loc := seoul(t)
	base := time.Date(2026, 1, 5, 10, 0, 0, 0, loc)
	extractor := NewRuleExtractor(loc)

	items := extractor.Extract([]domain.Utterance{
		utter("참석자", "오늘 날씨가 좋네요 다들 잘 지내시죠"),
	}, base)
	assert.Empty(t, items)
}

func TestExtract_TitleTruncation(t *testing.T) {
	loc := seoul(t)
	base := time.Date(2026, 1, 5, 10, 0, 0, 0, loc)
	extractor := NewRuleExtractor(loc)

	long := "보고서 작성 " + strings.Repeat("가", 150)
	items := extractor.Extract([]domain.Utterance{utter("참석자", long)}, base)

	require.Len(t, items, 1)
	runes := []rune(items[0].Title)
	assert.Len(t, runes, 120)
	assert.True(t, strings.HasSuffix(items[0].Title, "..."))
}

func TestParseDue_Phrases(t *testing.T) {
	loc := seoul(t)
	base := time.Date(2026, 1, 5, 10, 30, 0, 0, loc) // Monday
	extractor := NewRuleExtractor(loc)

	tests := []struct {
		text    string
		wantDay int
		wantMon time.Month
	}{
		{"오늘까지 부탁해요", 5, time.January},
		{"모레까지 공유 부탁", 7, time.January},
		{"이번 주 금요일까지 전달", 9, time.January},
		{"다음 주 월요일까지 정리", 12, time.January},
		{"2026-02-10까지 검토", 10, time.February},
		{"3/1까지 준비", 1, time.March},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			due := extractor.parseDue(tt.text, base)
			require.NotNil(t, due)
			assert.Equal(t, tt.wantDay, due.Day())
			assert.Equal(t, tt.wantMon, due.Month())
		})
	}
}
