package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	approvalsDomain "github.com/aawohq/aawo/internal/approvals/domain"
	"github.com/aawohq/aawo/internal/meetings/domain"
	"github.com/aawohq/aawo/internal/productivity/domain/task"
	schedulingServices "github.com/aawohq/aawo/internal/scheduling/application/services"
	schedulingDomain "github.com/aawohq/aawo/internal/scheduling/domain"
	"github.com/aawohq/aawo/pkg/observability"
)

const (
	// AutoCreateConfidence is the minimum confidence for creating a
	// task without asking.
	AutoCreateConfidence = 0.75
	// LargeEffortMinutes forces an approval regardless of confidence.
	LargeEffortMinutes = 240
)

// Processor runs meeting extraction end to end: transcript
// normalization, LLM extraction with rule fallback, candidate
// persistence and the auto-create / approval split.
type Processor struct {
	meetings  domain.Repository
	tasks     task.Repository
	blocks    schedulingDomain.BlockRepository
	approvals approvalsDomain.Repository
	slots     *schedulingServices.NextSlotFinder
	llm       *LLMExtractor
	rules     *RuleExtractor
	logger    *slog.Logger
	metrics   observability.Metrics
}

// NewProcessor creates the processor. The LLM extractor may be nil.
func NewProcessor(
	meetings domain.Repository,
	tasks task.Repository,
	blocks schedulingDomain.BlockRepository,
	approvals approvalsDomain.Repository,
	slots *schedulingServices.NextSlotFinder,
	llmExtractor *LLMExtractor,
	rules *RuleExtractor,
	logger *slog.Logger,
	metrics observability.Metrics,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if rules == nil {
		rules = NewRuleExtractor(time.UTC)
	}
	return &Processor{
		meetings:  meetings,
		tasks:     tasks,
		blocks:    blocks,
		approvals: approvals,
		slots:     slots,
		llm:       llmExtractor,
		rules:     rules,
		logger:    logger,
		metrics:   metrics,
	}
}

// Process extracts action items for the meeting. Failures mark the
// meeting failed and file an approval describing the error.
func (p *Processor) Process(ctx context.Context, meetingID uuid.UUID) {
	meeting, err := p.meetings.FindMeetingByID(ctx, meetingID)
	if err != nil {
		p.logger.Error("meeting not found for processing", "meeting_id", meetingID, "error", err)
		return
	}

	utterances := domain.BuildTranscript(meeting.RawText())
	meeting.StartProcessing(domain.FormatTranscript(utterances))
	if err := p.meetings.SaveMeeting(ctx, meeting); err != nil {
		p.logger.Error("failed to save processing meeting", "meeting_id", meetingID, "error", err)
		return
	}

	if err := observability.TimeOperation(ctx, p.logger, p.metrics, "meeting.extract", func() error {
		return p.extract(ctx, meeting, utterances)
	}); err != nil {
		p.fail(ctx, meeting, err)
		return
	}

	if err := meeting.MarkExtracted(); err != nil {
		p.fail(ctx, meeting, err)
		return
	}
	if err := p.meetings.SaveMeeting(ctx, meeting); err != nil {
		p.logger.Error("failed to save extracted meeting", "meeting_id", meetingID, "error", err)
	}
	p.metrics.Counter(observability.MetricMeetingsIngested, 1)
}

func (p *Processor) extract(ctx context.Context, meeting *domain.Meeting, utterances []domain.Utterance) error {
	base := time.Now()
	source := domain.CandidateSourceRule
	var drafts []DraftItem

	if p.llm != nil && p.llm.Available() {
		llmDrafts, err := p.llm.Extract(ctx, utterances, base)
		if err == nil {
			drafts = llmDrafts
			source = domain.CandidateSourceLLM
		} else {
			p.logger.Warn("llm extraction failed, falling back to rules",
				"meeting_id", meeting.ID(), "error", err)
			drafts = p.rules.Extract(utterances, base)
		}
	} else {
		drafts = p.rules.Extract(utterances, base)
	}

	for _, draft := range drafts {
		if err := p.handleDraft(ctx, meeting, draft, source); err != nil {
			return err
		}
	}
	p.logger.Info("meeting extracted",
		"meeting_id", meeting.ID(),
		"candidates", len(drafts),
		"source", string(source),
	)
	return nil
}

func (p *Processor) handleDraft(ctx context.Context, meeting *domain.Meeting, draft DraftItem, source domain.CandidateSource) error {
	candidate := domain.NewMeetingCandidate(
		meeting.ID(), draft.Title, draft.Assignee, draft.DueAt, draft.EffortMinutes, draft.Confidence, draft.Rationale, source,
	)
	if err := p.meetings.SaveCandidate(ctx, candidate); err != nil {
		return fmt.Errorf("save candidate: %w", err)
	}
	p.metrics.Counter(observability.MetricCandidatesCreated, 1, observability.T("source", string(source)))

	if draft.Confidence >= AutoCreateConfidence && draft.EffortMinutes < LargeEffortMinutes {
		return p.autoCreate(ctx, candidate)
	}
	return p.queueApproval(ctx, meeting, candidate)
}

func (p *Processor) autoCreate(ctx context.Context, candidate *domain.MeetingCandidate) error {
	t, err := task.NewTask(candidate.Title(), task.SourceMeeting)
	if err != nil {
		return fmt.Errorf("create task from candidate: %w", err)
	}
	if err := t.SetEffort(candidate.EffortMinutes()); err != nil {
		return err
	}
	t.SetDueAt(candidate.DueAt())
	t.SetAssignee(candidate.Assignee())
	if err := p.tasks.Save(ctx, t); err != nil {
		return err
	}

	candidate.MarkAutoCreated(t.ID())
	if err := p.meetings.SaveCandidate(ctx, candidate); err != nil {
		return err
	}
	p.placeBlock(ctx, t)
	p.metrics.Counter(observability.MetricTasksCreated, 1, observability.T("source", "meeting"))
	return nil
}

// placeBlock reserves the next open slot for the task. The task is
// already saved, so a full calendar or a save failure only logs.
func (p *Processor) placeBlock(ctx context.Context, t *task.Task) {
	if p.slots == nil || p.blocks == nil {
		return
	}
	slot, err := p.slots.Find(ctx, time.Now().UTC(), t.EffortMinutes())
	if err != nil {
		p.logger.Warn("next slot lookup failed", "task_id", t.ID(), "error", err)
		return
	}
	if slot == nil {
		p.logger.Info("no open slot for auto-created task", "task_id", t.ID())
		return
	}
	taskID := t.ID()
	block, err := schedulingDomain.NewCalendarBlock(
		t.Title()+" 실행", *slot, schedulingDomain.BlockTypeTask, schedulingDomain.BlockSourceScheduler, &taskID,
	)
	if err != nil {
		p.logger.Warn("block create failed", "task_id", t.ID(), "error", err)
		return
	}
	if err := p.blocks.Save(ctx, block); err != nil {
		p.logger.Warn("block save failed", "task_id", t.ID(), "block_id", block.ID(), "error", err)
	}
}

func (p *Processor) queueApproval(ctx context.Context, meeting *domain.Meeting, candidate *domain.MeetingCandidate) error {
	request, err := approvalsDomain.NewApprovalRequest(
		approvalsDomain.KindActionItem,
		candidate.Title(),
		approvalsDomain.ActionItemPayload{
			MeetingID:     meeting.ID(),
			CandidateID:   candidate.ID(),
			Title:         candidate.Title(),
			Assignee:      candidate.Assignee(),
			DueAt:         candidate.DueAt(),
			EffortMinutes: candidate.EffortMinutes(),
			Confidence:    candidate.Confidence(),
		},
	)
	if err != nil {
		return err
	}
	return p.approvals.Save(ctx, request)
}

func (p *Processor) fail(ctx context.Context, meeting *domain.Meeting, cause error) {
	meeting.MarkFailed(cause.Error())
	if err := p.meetings.SaveMeeting(ctx, meeting); err != nil {
		p.logger.Error("failed to save failed meeting", "meeting_id", meeting.ID(), "error", err)
	}

	request, err := approvalsDomain.NewApprovalRequest(
		approvalsDomain.KindOther,
		"회의록 분석 실패: "+meeting.Title(),
		map[string]string{
			"meeting_id": meeting.ID().String(),
			"error":      cause.Error(),
			"reason":     "extraction_failed",
		},
	)
	if err != nil {
		p.logger.Error("failed to build failure approval", "meeting_id", meeting.ID(), "error", err)
		return
	}
	if err := p.approvals.Save(ctx, request); err != nil {
		p.logger.Error("failed to save failure approval", "meeting_id", meeting.ID(), "error", err)
	}
}
