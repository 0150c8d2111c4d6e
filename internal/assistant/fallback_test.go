package assistant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seoul(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	return loc
}

func TestClassify_Cascade(t *testing.T) {
	loc := seoul(t)

	tests := []struct {
		name    string
		message string
		want    ActionKind
	}{
		{"briefing", "오늘 브리핑 보여줘", ActionDailyBriefing},
		{"duplicates", "중복 작업 정리해줘", ActionDeleteDuplicates},
		{"after hour", "18시 이후 일정 재배치해줘", ActionRescheduleAfterHour},
		{"priority", "보고서 우선순위 긴급으로", ActionUpdatePriority},
		{"complete", "보고서 작성 완료 처리", ActionCompleteTask},
		{"start", "보고서 작성 시작했어", ActionStartTask},
		{"free time", "내일 빈 시간 찾아줘", ActionFindFreeTime},
		{"delete event", "내일 미팅 삭제해줘", ActionDeleteEvent},
		{"delete task", "보고서 작성 지워줘", ActionDeleteTask},
		{"reschedule", "이번주 일정 조정해줘", ActionRescheduleRequest},
		{"list events", "이번주 일정 목록", ActionListEvents},
		{"list tasks", "할일 목록 보여줘", ActionListTasks},
		{"create task", "보고서 작성 추가해줘", ActionCreateTask},
		{"bare schedule word", "일정이 너무 빡빡해", ActionRescheduleRequest},
		{"unknown", "음 그렇군요", ActionUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := classify(tt.message, loc)
			require.Len(t, plan.Actions, 1)
			assert.Equal(t, tt.want, plan.Actions[0].Kind)
		})
	}
}

func TestClassify_AfterHourCarriesCutoff(t *testing.T) {
	plan := classify("20시 이후 일정 비워줘", seoul(t))
	require.Len(t, plan.Actions, 1)
	action := plan.Actions[0]
	assert.Equal(t, ActionRescheduleAfterHour, action.Kind)
	require.NotNil(t, action.CutoffHour)
	assert.Equal(t, 20, *action.CutoffHour)
}

func TestClassify_PriorityWordExtracted(t *testing.T) {
	plan := classify("보고서 우선순위 낮음으로 바꿔줘", seoul(t))
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, ActionUpdatePriority, plan.Actions[0].Kind)
	assert.Equal(t, "낮음", plan.Actions[0].Priority)
}

func TestLooksLikeMeetingNote(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"keyword", "회의록: 스프린트 계획", true},
		{"english keyword", "Meeting Notes from today", true},
		{"speaker lines", "김팀장: 다음주까지 보고서 부탁해요\n이대리: 네 알겠습니다", true},
		{"single line command", "보고서 작성 추가해줘", false},
		{"multi line no speakers", "안녕하세요\n오늘 날씨가 좋네요", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, looksLikeMeetingNote(tt.text))
		})
	}
}

func TestClassify_MeetingNoteWinsOverKeywords(t *testing.T) {
	note := "회의록\n김팀장: 보고서 작성 추가 부탁해요\n이대리: 완료하겠습니다"
	plan := classify(note, seoul(t))
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, ActionRegisterMeetingNote, plan.Actions[0].Kind)
	assert.Equal(t, note, plan.Actions[0].MeetingNote)
}
