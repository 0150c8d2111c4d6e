package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovalLifecycle(t *testing.T) {
	req, err := NewApprovalRequest(KindReschedule, "일정 재배치 승인", ReschedulePayload{ProposalID: uuid.New()})
	require.NoError(t, err)
	assert.True(t, req.IsPending())
	assert.Nil(t, req.ResolvedAt())

	require.NoError(t, req.Approve())
	assert.Equal(t, StatusApproved, req.Status())
	assert.NotNil(t, req.ResolvedAt())

	assert.ErrorIs(t, req.Reject("늦음"), ErrAlreadyResolved)
	assert.ErrorIs(t, req.Approve(), ErrAlreadyResolved)
}

func TestApprovalReject(t *testing.T) {
	req, err := NewApprovalRequest(KindActionItem, "할 일 추가 확인", ActionItemPayload{Title: "보고서"})
	require.NoError(t, err)

	require.NoError(t, req.Reject("중복"))
	assert.Equal(t, StatusRejected, req.Status())
	assert.Equal(t, "중복", req.Reason())
}

func TestApprovalSupersede(t *testing.T) {
	req, err := NewApprovalRequest(KindChatClarification, "어느 작업인가요?", ChatClarificationPayload{
		OriginalText: "그거 지워줘",
		Question:     "어떤 작업을 지울까요?",
	})
	require.NoError(t, err)

	require.NoError(t, req.Supersede(ReasonSupersededByNewCommand))
	assert.Equal(t, StatusRejected, req.Status())
	assert.Equal(t, ReasonSupersededByNewCommand, req.Reason())
}

func TestApprovalPayloadRoundTrip(t *testing.T) {
	proposalID := uuid.New()
	req, err := NewApprovalRequest(KindReschedule, "재배치", ReschedulePayload{ProposalID: proposalID})
	require.NoError(t, err)

	var payload ReschedulePayload
	require.NoError(t, req.DecodePayload(&payload))
	assert.Equal(t, proposalID, payload.ProposalID)
}

func TestNewApprovalRequest_EmptyTitle(t *testing.T) {
	_, err := NewApprovalRequest(KindOther, "  ", map[string]string{})
	assert.ErrorIs(t, err, ErrEmptyTitle)
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("action_item")
	require.NoError(t, err)
	assert.Equal(t, KindActionItem, kind)

	_, err = ParseKind("nonsense")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
