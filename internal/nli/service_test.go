package nli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRules(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Intent
	}{
		{"create korean", "내일 오전에 보고서 작성 작업 추가해줘", IntentCreateTask},
		{"create english", "create task weekly report", IntentCreateTask},
		{"complete", "보고서 작성 완료했어", IntentCompleteTask},
		{"delete", "보고서 작성 지워줘", IntentDeleteTask},
		{"list", "할일 목록 보여줘", IntentListTasks},
		{"time hint", "내일 오후에 여유 있게 잡아줘", IntentReschedule},
		{"unknown", "음 그렇구나", IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseRules(tt.text).Intent)
		})
	}
}

func TestParseRules_StripsCommandTokensFromTitle(t *testing.T) {
	command := parseRules("보고서 작성 작업 추가해줘")
	require.Equal(t, IntentCreateTask, command.Intent)
	assert.Equal(t, "보고서 작성", command.Title)
}

func TestParseRules_EmptyTitleFallsBack(t *testing.T) {
	command := parseRules("작업 추가")
	require.Equal(t, IntentCreateTask, command.Intent)
	assert.Equal(t, "새 작업", command.Title)
}

func TestHasDueCue(t *testing.T) {
	assert.True(t, hasDueCue("금요일까지 보고서"))
	assert.True(t, hasDueCue("마감 내일"))
	assert.True(t, hasDueCue("due Friday"))
	assert.False(t, hasDueCue("보고서 작성 추가"))
}

func TestValidIntent(t *testing.T) {
	assert.True(t, validIntent(IntentCreateTask))
	assert.True(t, validIntent(IntentUnknown))
	assert.False(t, validIntent(Intent("make_coffee")))
	assert.False(t, validIntent(Intent("")))
}
