package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	approvalsCommands "github.com/aawohq/aawo/internal/approvals/application/commands"
	approvalsDomain "github.com/aawohq/aawo/internal/approvals/domain"
	profileDomain "github.com/aawohq/aawo/internal/profile/domain"
)

// Service is the chat entry point: it resolves pending confirmations,
// plans the message and executes the plan.
type Service struct {
	planner  *Planner
	executor *Executor
	history  *History
	resolver *approvalsCommands.ResolveApprovalHandler
	profiles profileDomain.Repository
	logger   *slog.Logger
}

// NewService creates the chat service.
func NewService(
	planner *Planner,
	executor *Executor,
	history *History,
	resolver *approvalsCommands.ResolveApprovalHandler,
	profiles profileDomain.Repository,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		planner:  planner,
		executor: executor,
		history:  history,
		resolver: resolver,
		profiles: profiles,
		logger:   logger,
	}
}

// Chat handles one user message.
func (s *Service) Chat(ctx context.Context, message string) (*ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return &ChatResult{Reply: "요청 내용을 입력해 주세요."}, nil
	}

	s.history.Append(ctx, Turn{Role: "user", Text: message})

	// A bare yes/no resolves the newest pending confirmation first.
	if affirmative, decisive := classifyDecision(message); decisive {
		result, handled, err := s.resolvePending(ctx, affirmative)
		if err != nil {
			return nil, err
		}
		if handled {
			s.history.Append(ctx, Turn{Role: "assistant", Text: result.Reply})
			return result, nil
		}
	}

	snapshot, err := buildSnapshot(ctx, s.executor.tasks, s.executor.blocks, s.executor.approvals, time.Now().UTC())
	if err != nil {
		s.logger.Warn("snapshot failed, planning without world state", "error", err)
		snapshot = nil
	}

	profile, err := s.profiles.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	history := s.history.Recent(ctx)
	plan := s.planner.Plan(ctx, message, snapshot, history, profile.Location())

	// A concrete new command makes any pending clarification moot.
	if hasConcreteAction(plan) {
		if err := approvalsCommands.SupersedePendingClarifications(ctx, s.executor.approvals); err != nil {
			s.logger.Warn("failed to supersede clarifications", "error", err)
		}
	}

	result, err := s.executor.Execute(ctx, message, plan, false)
	if err != nil {
		return nil, err
	}

	s.history.Append(ctx, Turn{Role: "assistant", Text: result.Reply})
	return result, nil
}

// resolvePending applies a yes/no answer to the newest pending
// confirmation-style approval, if one exists.
func (s *Service) resolvePending(ctx context.Context, approve bool) (*ChatResult, bool, error) {
	status := approvalsDomain.StatusPending
	pending, err := s.executor.approvals.List(ctx, approvalsDomain.Filter{Status: &status})
	if err != nil {
		return nil, false, fmt.Errorf("list approvals: %w", err)
	}

	var candidates []*approvalsDomain.ApprovalRequest
	for _, request := range pending {
		if request.Kind() == approvalsDomain.KindChatPendingAction || request.Kind() == approvalsDomain.KindReschedule {
			candidates = append(candidates, request)
		}
	}
	if len(candidates) == 0 {
		return nil, false, nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt().After(candidates[j].CreatedAt())
	})

	reason := ""
	if !approve {
		reason = "user_declined_in_chat"
	}
	resolved, err := s.resolver.Handle(ctx, approvalsCommands.ResolveApprovalCommand{
		ID:      candidates[0].ID(),
		Approve: approve,
		Reason:  reason,
	})
	if err != nil {
		return nil, false, err
	}

	result := &ChatResult{Reply: resolved.Reply}
	result.addAction("approval_resolved", map[string]any{
		"approval_id": candidates[0].ID().String(),
		"approved":    approve,
	})
	result.addRefresh("approvals", "calendar", "tasks")
	return result, true, nil
}

var affirmativeWords = []string{"네", "예", "응", "좋아", "좋아요", "그래", "승인", "진행해", "진행해줘", "ok", "yes", "y"}

var negativeWords = []string{"아니", "아니요", "아냐", "취소", "거절", "하지마", "no", "n"}

// classifyDecision reports whether the message is a bare yes or no.
func classifyDecision(message string) (affirmative, decisive bool) {
	cleaned := strings.ToLower(strings.Trim(strings.TrimSpace(message), ".!~ "))
	for _, word := range affirmativeWords {
		if cleaned == word {
			return true, true
		}
	}
	for _, word := range negativeWords {
		if cleaned == word {
			return false, true
		}
	}
	return false, false
}

// hasConcreteAction reports whether the plan carries at least one
// actionable intent.
func hasConcreteAction(plan Plan) bool {
	for _, action := range plan.Actions {
		switch action.Kind {
		case ActionUnknown, ActionClarification, ActionChat:
		default:
			return true
		}
	}
	return false
}
