package queries

import (
	"context"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/scheduling/domain"
)

// GetProposalHandler fetches a proposal with its changes.
type GetProposalHandler struct {
	proposals domain.ProposalRepository
}

// NewGetProposalHandler creates the handler.
func NewGetProposalHandler(proposals domain.ProposalRepository) *GetProposalHandler {
	return &GetProposalHandler{proposals: proposals}
}

// Handle returns the proposal by id.
func (h *GetProposalHandler) Handle(ctx context.Context, id uuid.UUID) (*domain.SchedulingProposal, error) {
	return h.proposals.FindByID(ctx, id)
}

// ListProposalsHandler lists recent proposals.
type ListProposalsHandler struct {
	proposals domain.ProposalRepository
}

// NewListProposalsHandler creates the handler.
func NewListProposalsHandler(proposals domain.ProposalRepository) *ListProposalsHandler {
	return &ListProposalsHandler{proposals: proposals}
}

// Handle lists proposals, optionally filtered by status.
func (h *ListProposalsHandler) Handle(ctx context.Context, status *domain.ProposalStatus, limit int) ([]*domain.SchedulingProposal, error) {
	return h.proposals.List(ctx, status, limit)
}
