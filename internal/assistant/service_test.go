package assistant

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	approvalsDomain "github.com/aawohq/aawo/internal/approvals/domain"
	meetingsDomain "github.com/aawohq/aawo/internal/meetings/domain"
	"github.com/aawohq/aawo/internal/productivity/domain/task"
	schedulingServices "github.com/aawohq/aawo/internal/scheduling/application/services"
	schedulingDomain "github.com/aawohq/aawo/internal/scheduling/domain"
)

func TestClassifyDecision(t *testing.T) {
	tests := []struct {
		message     string
		affirmative bool
		decisive    bool
	}{
		{"네", true, true},
		{"네.", true, true},
		{"좋아요!", true, true},
		{"YES", true, true},
		{"아니요", false, true},
		{"취소", false, true},
		{"no", false, true},
		{"네 그런데 내일로 옮겨줘", false, false},
		{"보고서 작성 추가", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			affirmative, decisive := classifyDecision(tt.message)
			assert.Equal(t, tt.decisive, decisive)
			if decisive {
				assert.Equal(t, tt.affirmative, affirmative)
			}
		})
	}
}

func TestHasConcreteAction(t *testing.T) {
	assert.False(t, hasConcreteAction(Plan{}))
	assert.False(t, hasConcreteAction(Plan{Actions: []Action{{Kind: ActionUnknown}}}))
	assert.False(t, hasConcreteAction(Plan{Actions: []Action{{Kind: ActionClarification}, {Kind: ActionChat}}}))
	assert.True(t, hasConcreteAction(Plan{Actions: []Action{{Kind: ActionChat}, {Kind: ActionCreateTask}}}))
}

func TestApprovePendingAction_RunsStoredAction(t *testing.T) {
	f := newExecutorFixture(t)
	effects := NewApprovalEffects(f.executor, nil, nil, f.tasks, nil, nil, discardLogger())

	stored, err := Action{Kind: ActionCreateTask, Title: "보고서 작성"}.MarshalStored()
	require.NoError(t, err)
	request, err := approvalsDomain.NewApprovalRequest(
		approvalsDomain.KindChatPendingAction,
		"작업 생성",
		approvalsDomain.ChatPendingActionPayload{Action: stored, Description: "보고서 작성 추가해줘"},
	)
	require.NoError(t, err)

	reply, err := effects.ApprovePendingAction(context.Background(), request)
	require.NoError(t, err)

	assert.Contains(t, reply, "할일을 생성했습니다: 보고서 작성")
	require.Len(t, f.tasks.items, 1)
	assert.Equal(t, task.SourceChat, f.tasks.items[0].Source())
}

type memMeetings struct {
	mu         sync.Mutex
	meetings   []*meetingsDomain.Meeting
	candidates []*meetingsDomain.MeetingCandidate
}

func (m *memMeetings) SaveMeeting(ctx context.Context, meeting *meetingsDomain.Meeting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meetings = append(m.meetings, meeting)
	return nil
}

func (m *memMeetings) FindMeetingByID(ctx context.Context, id uuid.UUID) (*meetingsDomain.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, meeting := range m.meetings {
		if meeting.ID() == id {
			return meeting, nil
		}
	}
	return nil, meetingsDomain.ErrNotFound
}

func (m *memMeetings) ListMeetings(ctx context.Context, limit int) ([]*meetingsDomain.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meetings, nil
}

func (m *memMeetings) SaveCandidate(ctx context.Context, candidate *meetingsDomain.MeetingCandidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.candidates {
		if existing.ID() == candidate.ID() {
			m.candidates[i] = candidate
			return nil
		}
	}
	m.candidates = append(m.candidates, candidate)
	return nil
}

func (m *memMeetings) FindCandidateByID(ctx context.Context, id uuid.UUID) (*meetingsDomain.MeetingCandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, candidate := range m.candidates {
		if candidate.ID() == id {
			return candidate, nil
		}
	}
	return nil, meetingsDomain.ErrCandidateNotFound
}

func (m *memMeetings) ListCandidates(ctx context.Context, meetingID uuid.UUID) ([]*meetingsDomain.MeetingCandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*meetingsDomain.MeetingCandidate
	for _, candidate := range m.candidates {
		if candidate.MeetingID() == meetingID {
			out = append(out, candidate)
		}
	}
	return out, nil
}

func TestApproveActionItem_CreatesTaskAndReservesSlot(t *testing.T) {
	f := newExecutorFixture(t)
	meetings := &memMeetings{}
	meeting, err := meetingsDomain.NewMeeting("", "회의록: 보고서 정리는 제가 하겠습니다")
	require.NoError(t, err)
	require.NoError(t, meetings.SaveMeeting(context.Background(), meeting))
	candidate := meetingsDomain.NewMeetingCandidate(meeting.ID(), "보고서 정리", "", nil, 60, 0.9,
		"[rule] 약속 표현", meetingsDomain.CandidateSourceRule)
	require.NoError(t, meetings.SaveCandidate(context.Background(), candidate))

	slots := schedulingServices.NewNextSlotFinder(f.blocks)
	effects := NewApprovalEffects(f.executor, nil, meetings, f.tasks, slots, nil, discardLogger())

	request, err := approvalsDomain.NewApprovalRequest(
		approvalsDomain.KindActionItem,
		"보고서 정리",
		approvalsDomain.ActionItemPayload{MeetingID: meeting.ID(), CandidateID: candidate.ID(), Title: "보고서 정리", EffortMinutes: 60},
	)
	require.NoError(t, err)

	reply, err := effects.ApproveActionItem(context.Background(), request)
	require.NoError(t, err)

	assert.Contains(t, reply, "작업을 생성했습니다: 보고서 정리")
	assert.Contains(t, reply, "실행 시간")
	require.Len(t, f.tasks.items, 1)
	created := f.tasks.items[0]
	assert.Equal(t, task.SourceMeeting, created.Source())
	assert.Equal(t, meetingsDomain.CandidateStatusApproved, candidate.Status())

	require.Len(t, f.blocks.items, 1)
	block := f.blocks.items[0]
	assert.Equal(t, "보고서 정리 실행", block.Title())
	assert.Equal(t, schedulingDomain.BlockTypeTask, block.Type())
	assert.Equal(t, 60, block.Interval().Minutes())
	require.NotNil(t, block.TaskID())
	assert.Equal(t, created.ID(), *block.TaskID())
}

func TestApproveActionItem_FullCalendarStillCreatesTask(t *testing.T) {
	f := newExecutorFixture(t)
	meetings := &memMeetings{}
	meeting, err := meetingsDomain.NewMeeting("", "회의록")
	require.NoError(t, err)
	require.NoError(t, meetings.SaveMeeting(context.Background(), meeting))
	candidate := meetingsDomain.NewMeetingCandidate(meeting.ID(), "자료 조사", "", nil, 30, 0.8,
		"[rule] 동사 패턴", meetingsDomain.CandidateSourceRule)
	require.NoError(t, meetings.SaveCandidate(context.Background(), candidate))

	now := time.Now().UTC().Truncate(time.Hour)
	busy, err := schedulingDomain.NewCalendarBlock("마감 주간",
		schedulingDomain.Interval{Start: now.Add(-time.Hour), End: now.AddDate(0, 0, 3)},
		schedulingDomain.BlockTypeMeeting, schedulingDomain.BlockSourceUser, nil)
	require.NoError(t, err)
	require.NoError(t, f.blocks.Save(context.Background(), busy))

	slots := schedulingServices.NewNextSlotFinder(f.blocks)
	effects := NewApprovalEffects(f.executor, nil, meetings, f.tasks, slots, nil, discardLogger())

	request, err := approvalsDomain.NewApprovalRequest(
		approvalsDomain.KindActionItem,
		"자료 조사",
		approvalsDomain.ActionItemPayload{MeetingID: meeting.ID(), CandidateID: candidate.ID(), Title: "자료 조사"},
	)
	require.NoError(t, err)

	reply, err := effects.ApproveActionItem(context.Background(), request)
	require.NoError(t, err)

	assert.NotContains(t, reply, "실행 시간")
	require.Len(t, f.tasks.items, 1)
	assert.Len(t, f.blocks.items, 1)
}

func TestApproveClarification_OnlyAcknowledges(t *testing.T) {
	f := newExecutorFixture(t)
	effects := NewApprovalEffects(f.executor, nil, nil, f.tasks, nil, nil, discardLogger())

	request, err := approvalsDomain.NewApprovalRequest(
		approvalsDomain.KindChatClarification,
		"어떤 작업인가요?",
		approvalsDomain.ChatClarificationPayload{OriginalText: "그거 완료", Question: "어떤 작업인가요?"},
	)
	require.NoError(t, err)

	reply, err := effects.ApproveClarification(context.Background(), request)
	require.NoError(t, err)
	assert.NotEmpty(t, reply)
	assert.Empty(t, f.tasks.items)
}
