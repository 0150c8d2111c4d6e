package queries

import (
	"context"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/approvals/domain"
)

// ListApprovalsQuery filters approval listings.
type ListApprovalsQuery struct {
	Status string
	Kind   string
	Limit  int
}

// ListApprovalsHandler lists approval requests.
type ListApprovalsHandler struct {
	approvals domain.Repository
}

// NewListApprovalsHandler creates the handler.
func NewListApprovalsHandler(approvals domain.Repository) *ListApprovalsHandler {
	return &ListApprovalsHandler{approvals: approvals}
}

// Handle returns approvals matching the filter, newest first.
func (h *ListApprovalsHandler) Handle(ctx context.Context, q ListApprovalsQuery) ([]*domain.ApprovalRequest, error) {
	filter := domain.Filter{Limit: q.Limit}
	if q.Status != "" {
		status := domain.Status(q.Status)
		filter.Status = &status
	}
	if q.Kind != "" {
		kind, err := domain.ParseKind(q.Kind)
		if err != nil {
			return nil, err
		}
		filter.Kind = &kind
	}
	return h.approvals.List(ctx, filter)
}

// GetApprovalHandler fetches a single approval request.
type GetApprovalHandler struct {
	approvals domain.Repository
}

// NewGetApprovalHandler creates the handler.
func NewGetApprovalHandler(approvals domain.Repository) *GetApprovalHandler {
	return &GetApprovalHandler{approvals: approvals}
}

// Handle returns the approval by id.
func (h *GetApprovalHandler) Handle(ctx context.Context, id uuid.UUID) (*domain.ApprovalRequest, error) {
	return h.approvals.FindByID(ctx, id)
}
