package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeetingCandidateCarriesRationale(t *testing.T) {
	meetingID := uuid.New()
	candidate := NewMeetingCandidate(meetingID, "보고서 정리", "김과장", nil, 60, 0.82,
		"[llm] 발화에 담당과 기한이 명시됨", CandidateSourceLLM)

	assert.Equal(t, CandidateStatusPending, candidate.Status())
	assert.Equal(t, "[llm] 발화에 담당과 기한이 명시됨", candidate.Rationale())

	rehydrated := RehydrateMeetingCandidate(
		candidate.ID(), meetingID,
		candidate.Title(), candidate.Assignee(), nil,
		candidate.EffortMinutes(), candidate.Confidence(),
		candidate.Rationale(), candidate.Source(), candidate.Status(), nil,
		time.Now().UTC(), time.Now().UTC(),
	)
	assert.Equal(t, candidate.Rationale(), rehydrated.Rationale())
}

func TestMeetingCandidateApproval(t *testing.T) {
	candidate := NewMeetingCandidate(uuid.New(), "자료 조사", "", nil, 30, 0.5,
		"[rule] 동사 패턴", CandidateSourceRule)

	taskID := uuid.New()
	candidate.MarkApproved(taskID)
	assert.Equal(t, CandidateStatusApproved, candidate.Status())
	require.NotNil(t, candidate.TaskID())
	assert.Equal(t, taskID, *candidate.TaskID())
}
