package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePlan_MeetingNoteIsExclusive(t *testing.T) {
	plan := normalizePlan(Plan{Actions: []Action{
		{Kind: ActionCreateTask, Title: "보고서"},
		{Kind: ActionRegisterMeetingNote, MeetingNote: "회의록 본문"},
		{Kind: ActionDailyBriefing},
	}}, "llm")

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, ActionRegisterMeetingNote, plan.Actions[0].Kind)
	assert.Equal(t, "llm", plan.Source)
}

func TestNormalizePlan_ClarificationIsExclusive(t *testing.T) {
	plan := normalizePlan(Plan{Actions: []Action{
		{Kind: ActionClarification, Question: "어떤 작업인가요?"},
		{Kind: ActionCreateTask, Title: "보고서"},
	}}, "llm")

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, ActionClarification, plan.Actions[0].Kind)
}

func TestNormalizePlan_DropsDuplicateSingletons(t *testing.T) {
	plan := normalizePlan(Plan{Actions: []Action{
		{Kind: ActionDailyBriefing},
		{Kind: ActionDailyBriefing},
		{Kind: ActionListTasks},
	}}, "rule")

	require.Len(t, plan.Actions, 2)
	assert.Equal(t, ActionDailyBriefing, plan.Actions[0].Kind)
	assert.Equal(t, ActionListTasks, plan.Actions[1].Kind)
}

func TestNormalizePlan_GenericKeywordBecomesClarification(t *testing.T) {
	plan := normalizePlan(Plan{Actions: []Action{
		{Kind: ActionCompleteTask, Keyword: "작업"},
		{Kind: ActionListTasks},
	}}, "llm")

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, ActionClarification, plan.Actions[0].Kind)
	assert.NotEmpty(t, plan.Actions[0].Question)
}

func TestNormalizePlan_SpecificKeywordSurvives(t *testing.T) {
	plan := normalizePlan(Plan{Actions: []Action{
		{Kind: ActionCompleteTask, Keyword: "주간 보고서"},
	}}, "llm")

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, ActionCompleteTask, plan.Actions[0].Kind)
}

func TestNormalizePlan_CapsActionCount(t *testing.T) {
	var actions []Action
	for i := 0; i < 8; i++ {
		actions = append(actions, Action{Kind: ActionCreateTask, Title: "작업"})
	}
	plan := normalizePlan(Plan{Actions: actions}, "llm")
	assert.Len(t, plan.Actions, maxActionsPerTurn)
}

func TestIsGenericKeyword(t *testing.T) {
	assert.True(t, isGenericKeyword("작업"))
	assert.True(t, isGenericKeyword(" Task "))
	assert.True(t, isGenericKeyword("그거"))
	assert.False(t, isGenericKeyword("주간 보고서"))
	assert.False(t, isGenericKeyword(""))
}
