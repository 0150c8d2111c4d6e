package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/approvals/domain"
)

// ResolutionEffects runs the side effects of approving a request. Each
// method receives the already-approved request and returns a
// user-facing reply.
type ResolutionEffects interface {
	ApproveActionItem(ctx context.Context, request *domain.ApprovalRequest) (string, error)
	ApproveReschedule(ctx context.Context, request *domain.ApprovalRequest) (string, error)
	ApprovePendingAction(ctx context.Context, request *domain.ApprovalRequest) (string, error)
	ApproveClarification(ctx context.Context, request *domain.ApprovalRequest) (string, error)
}

// ResolveApprovalCommand resolves a pending approval request.
type ResolveApprovalCommand struct {
	ID      uuid.UUID
	Approve bool
	Reason  string
}

// ResolveApprovalResult reports the resolution and any reply produced
// by the approval's side effects.
type ResolveApprovalResult struct {
	Request *domain.ApprovalRequest
	Reply   string
}

// ResolveApprovalHandler resolves approval requests and runs their
// side effects.
type ResolveApprovalHandler struct {
	approvals domain.Repository
	effects   ResolutionEffects
	logger    *slog.Logger
}

// NewResolveApprovalHandler creates the handler. Effects may be nil
// when approvals carry no side effects (kind other).
func NewResolveApprovalHandler(approvals domain.Repository, effects ResolutionEffects, logger *slog.Logger) *ResolveApprovalHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResolveApprovalHandler{approvals: approvals, effects: effects, logger: logger}
}

// Handle resolves the request. Approval side effects run after the
// status flip; a failing effect rolls the decision back so the request
// stays actionable.
func (h *ResolveApprovalHandler) Handle(ctx context.Context, cmd ResolveApprovalCommand) (*ResolveApprovalResult, error) {
	request, err := h.approvals.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}

	if !cmd.Approve {
		if err := request.Reject(cmd.Reason); err != nil {
			return nil, err
		}
		if err := h.approvals.Save(ctx, request); err != nil {
			return nil, err
		}
		h.logger.Info("approval rejected", "approval_id", request.ID(), "kind", string(request.Kind()))
		return &ResolveApprovalResult{Request: request, Reply: "요청을 거절했습니다."}, nil
	}

	if err := request.Approve(); err != nil {
		return nil, err
	}

	reply, err := h.runEffects(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("approval %s effects: %w", request.ID(), err)
	}

	if err := h.approvals.Save(ctx, request); err != nil {
		return nil, err
	}
	h.logger.Info("approval approved", "approval_id", request.ID(), "kind", string(request.Kind()))
	return &ResolveApprovalResult{Request: request, Reply: reply}, nil
}

func (h *ResolveApprovalHandler) runEffects(ctx context.Context, request *domain.ApprovalRequest) (string, error) {
	if h.effects == nil {
		return "요청을 승인했습니다.", nil
	}
	switch request.Kind() {
	case domain.KindActionItem:
		return h.effects.ApproveActionItem(ctx, request)
	case domain.KindReschedule:
		return h.effects.ApproveReschedule(ctx, request)
	case domain.KindChatPendingAction:
		return h.effects.ApprovePendingAction(ctx, request)
	case domain.KindChatClarification:
		return h.effects.ApproveClarification(ctx, request)
	default:
		return "요청을 승인했습니다.", nil
	}
}

// SupersedePendingClarifications resolves every pending clarification
// because a newer chat command arrived.
func SupersedePendingClarifications(ctx context.Context, approvals domain.Repository) error {
	status := domain.StatusPending
	kind := domain.KindChatClarification
	pending, err := approvals.List(ctx, domain.Filter{Status: &status, Kind: &kind})
	if err != nil {
		return err
	}
	for _, request := range pending {
		if err := request.Supersede(domain.ReasonSupersededByNewCommand); err != nil {
			continue
		}
		if err := approvals.Save(ctx, request); err != nil {
			return err
		}
	}
	return nil
}
