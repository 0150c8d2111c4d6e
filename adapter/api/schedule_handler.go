package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/scheduling/application/commands"
	"github.com/aawohq/aawo/internal/scheduling/application/queries"
	"github.com/aawohq/aawo/internal/scheduling/application/services"
	"github.com/aawohq/aawo/internal/scheduling/domain"
)

// ScheduleHandler serves calendar blocks, proposals and free slots.
type ScheduleHandler struct {
	createBlock   *commands.CreateBlockHandler
	moveBlock     *commands.MoveBlockHandler
	deleteBlock   *commands.DeleteBlockHandler
	generate      *commands.GenerateProposalHandler
	applier       *services.ProposalApplier
	getBlock      *queries.GetBlockHandler
	listBlocks    *queries.ListBlocksHandler
	getProposal   *queries.GetProposalHandler
	listProposals *queries.ListProposalsHandler
	freeSlots     *queries.FreeSlotsHandler
	logger        *slog.Logger
}

// ScheduleHandlerConfig holds dependencies for the schedule handler.
type ScheduleHandlerConfig struct {
	CreateBlock   *commands.CreateBlockHandler
	MoveBlock     *commands.MoveBlockHandler
	DeleteBlock   *commands.DeleteBlockHandler
	Generate      *commands.GenerateProposalHandler
	Applier       *services.ProposalApplier
	GetBlock      *queries.GetBlockHandler
	ListBlocks    *queries.ListBlocksHandler
	GetProposal   *queries.GetProposalHandler
	ListProposals *queries.ListProposalsHandler
	FreeSlots     *queries.FreeSlotsHandler
	Logger        *slog.Logger
}

// NewScheduleHandler creates the handler.
func NewScheduleHandler(cfg ScheduleHandlerConfig) *ScheduleHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &ScheduleHandler{
		createBlock:   cfg.CreateBlock,
		moveBlock:     cfg.MoveBlock,
		deleteBlock:   cfg.DeleteBlock,
		generate:      cfg.Generate,
		applier:       cfg.Applier,
		getBlock:      cfg.GetBlock,
		listBlocks:    cfg.ListBlocks,
		getProposal:   cfg.GetProposal,
		listProposals: cfg.ListProposals,
		freeSlots:     cfg.FreeSlots,
		logger:        cfg.Logger,
	}
}

// CreateBlock handles POST /api/v1/blocks.
func (h *ScheduleHandler) CreateBlock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title     string     `json:"title"`
		StartsAt  time.Time  `json:"starts_at"`
		EndsAt    time.Time  `json:"ends_at"`
		BlockType string     `json:"block_type"`
		TaskID    *uuid.UUID `json:"task_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.createBlock.Handle(r.Context(), commands.CreateBlockCommand{
		Title:     req.Title,
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
		BlockType: req.BlockType,
		TaskID:    req.TaskID,
		Source:    "user",
	})
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBlockDTO(created))
}

// GetBlock handles GET /api/v1/blocks/{blockID}.
func (h *ScheduleHandler) GetBlock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "blockID")
	if !ok {
		return
	}
	block, err := h.getBlock.Handle(r.Context(), id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toBlockDTO(block))
}

// ListBlocks handles GET /api/v1/blocks.
func (h *ScheduleHandler) ListBlocks(w http.ResponseWriter, r *http.Request) {
	from, err := parseTimeParam(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	blocks, err := h.listBlocks.Handle(r.Context(), queries.ListBlocksQuery{
		From:           from,
		To:             to,
		IncludeDeleted: parseBoolParam(r, "include_deleted", false),
	})
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"blocks": toBlockDTOs(blocks)})
}

// MoveBlock handles POST /api/v1/blocks/{blockID}/move.
func (h *ScheduleHandler) MoveBlock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "blockID")
	if !ok {
		return
	}
	var req struct {
		StartsAt time.Time `json:"starts_at"`
		EndsAt   time.Time `json:"ends_at"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	moved, err := h.moveBlock.Handle(r.Context(), commands.MoveBlockCommand{
		BlockID:  id,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
	})
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toBlockDTO(moved))
}

// DeleteBlock handles DELETE /api/v1/blocks/{blockID}.
func (h *ScheduleHandler) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "blockID")
	if !ok {
		return
	}
	if err := h.deleteBlock.Handle(r.Context(), commands.DeleteBlockCommand{BlockID: id}); err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GenerateProposal handles POST /api/v1/scheduling/proposals.
func (h *ScheduleHandler) GenerateProposal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HorizonStart time.Time   `json:"horizon_start"`
		HorizonEnd   time.Time   `json:"horizon_end"`
		Strategy     string      `json:"strategy"`
		TaskIDs      []uuid.UUID `json:"task_ids"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	proposal, err := h.generate.Handle(r.Context(), commands.GenerateProposalCommand{
		HorizonStart: req.HorizonStart,
		HorizonEnd:   req.HorizonEnd,
		Strategy:     req.Strategy,
		TaskIDs:      req.TaskIDs,
	})
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProposalDTO(proposal))
}

// GetProposal handles GET /api/v1/scheduling/proposals/{proposalID}.
func (h *ScheduleHandler) GetProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "proposalID")
	if !ok {
		return
	}
	proposal, err := h.getProposal.Handle(r.Context(), id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProposalDTO(proposal))
}

// ListProposals handles GET /api/v1/scheduling/proposals.
func (h *ScheduleHandler) ListProposals(w http.ResponseWriter, r *http.Request) {
	var status *domain.ProposalStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.ProposalStatus(raw)
		status = &s
	}

	proposals, err := h.listProposals.Handle(r.Context(), status, parseIntParam(r, "limit", 20))
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	out := make([]proposalDTO, 0, len(proposals))
	for _, proposal := range proposals {
		out = append(out, toProposalDTO(proposal))
	}
	writeJSON(w, http.StatusOK, map[string]any{"proposals": out})
}

// ApplyProposal handles POST /api/v1/scheduling/proposals/{proposalID}/apply.
func (h *ScheduleHandler) ApplyProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "proposalID")
	if !ok {
		return
	}

	applied, err := h.applier.Apply(r.Context(), id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"proposal":       toProposalDTO(applied.Proposal),
		"created_blocks": toBlockDTOs(applied.CreatedBlocks),
		"updated_blocks": toBlockDTOs(applied.UpdatedBlocks),
		"skipped":        len(applied.SkippedChanges),
	})
}

// FreeSlots handles GET /api/v1/scheduling/free-slots.
func (h *ScheduleHandler) FreeSlots(w http.ResponseWriter, r *http.Request) {
	from, err := parseTimeParam(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if from == nil || to == nil {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}

	slots, err := h.freeSlots.Handle(r.Context(), queries.FreeSlotsQuery{From: *from, To: *to})
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": toIntervalDTOs(slots)})
}
