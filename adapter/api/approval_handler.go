package api

import (
	"log/slog"
	"net/http"

	"github.com/aawohq/aawo/internal/approvals/application/commands"
	"github.com/aawohq/aawo/internal/approvals/application/queries"
)

// ApprovalHandler serves the approval inbox.
type ApprovalHandler struct {
	resolve       *commands.ResolveApprovalHandler
	getApproval   *queries.GetApprovalHandler
	listApprovals *queries.ListApprovalsHandler
	logger        *slog.Logger
}

// NewApprovalHandler creates the handler.
func NewApprovalHandler(
	resolve *commands.ResolveApprovalHandler,
	getApproval *queries.GetApprovalHandler,
	listApprovals *queries.ListApprovalsHandler,
	logger *slog.Logger,
) *ApprovalHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApprovalHandler{
		resolve:       resolve,
		getApproval:   getApproval,
		listApprovals: listApprovals,
		logger:        logger,
	}
}

// List handles GET /api/v1/approvals.
func (h *ApprovalHandler) List(w http.ResponseWriter, r *http.Request) {
	approvals, err := h.listApprovals.Handle(r.Context(), queries.ListApprovalsQuery{
		Status: r.URL.Query().Get("status"),
		Kind:   r.URL.Query().Get("kind"),
		Limit:  parseIntParam(r, "limit", 50),
	})
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	out := make([]approvalDTO, 0, len(approvals))
	for _, approval := range approvals {
		out = append(out, toApprovalDTO(approval))
	}
	writeJSON(w, http.StatusOK, map[string]any{"approvals": out})
}

// Get handles GET /api/v1/approvals/{approvalID}.
func (h *ApprovalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "approvalID")
	if !ok {
		return
	}
	approval, err := h.getApproval.Handle(r.Context(), id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toApprovalDTO(approval))
}

// Approve handles POST /api/v1/approvals/{approvalID}/approve.
func (h *ApprovalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.resolveRequest(w, r, true)
}

// Reject handles POST /api/v1/approvals/{approvalID}/reject.
func (h *ApprovalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolveRequest(w, r, false)
}

func (h *ApprovalHandler) resolveRequest(w http.ResponseWriter, r *http.Request, approve bool) {
	id, ok := pathUUID(w, r, "approvalID")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// An empty body is fine for approvals.
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.resolve.Handle(r.Context(), commands.ResolveApprovalCommand{
		ID:      id,
		Approve: approve,
		Reason:  req.Reason,
	})
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"approval": toApprovalDTO(result.Request),
		"reply":    result.Reply,
	})
}
