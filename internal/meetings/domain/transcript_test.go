package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTranscript(t *testing.T) {
	raw := "김철수: 보고서 작성 부탁드려요\n\n회의는 14:00에 시작\n박영희: 네 알겠습니다"
	utterances := BuildTranscript(raw)

	require.Len(t, utterances, 3)
	assert.Equal(t, "김철수", utterances[0].Speaker)
	assert.Equal(t, "보고서 작성 부탁드려요", utterances[0].Text)
	assert.Equal(t, time.Duration(0), utterances[0].Timestamp)

	// "14:00" is a time, not a speaker prefix.
	assert.Equal(t, DefaultSpeaker, utterances[1].Speaker)
	assert.Equal(t, 20*time.Second, utterances[1].Timestamp)

	assert.Equal(t, "박영희", utterances[2].Speaker)
	assert.Equal(t, 40*time.Second, utterances[2].Timestamp)
}

func TestFormatTranscript(t *testing.T) {
	utterances := BuildTranscript("첫 줄\n둘째 줄\n셋째 줄\n넷째 줄")
	out := FormatTranscript(utterances)
	assert.Contains(t, out, "[00:00] 참석자: 첫 줄")
	assert.Contains(t, out, "[01:00] 참석자: 넷째 줄")
}

func TestMeetingLifecycle(t *testing.T) {
	m, err := NewMeeting("", "내일까지 보고서 정리")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, m.Status())
	assert.NotEmpty(t, m.Title())

	m.StartProcessing("[00:00] 참석자: 내일까지 보고서 정리")
	assert.Equal(t, StatusProcessing, m.Status())

	require.NoError(t, m.MarkExtracted())
	assert.Equal(t, StatusExtracted, m.Status())

	assert.ErrorIs(t, m.MarkExtracted(), ErrNotProcessing)
}

func TestNewMeeting_EmptyNote(t *testing.T) {
	_, err := NewMeeting("회의", "   ")
	assert.ErrorIs(t, err, ErrEmptyNote)
}
