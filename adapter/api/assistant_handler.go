package api

import (
	"log/slog"
	"net/http"

	"github.com/aawohq/aawo/internal/assistant"
	"github.com/aawohq/aawo/internal/nli"
)

// AssistantHandler serves the chat assistant and the one-shot natural
// language command endpoint.
type AssistantHandler struct {
	chat   *assistant.Service
	nli    *nli.Service
	logger *slog.Logger
}

// NewAssistantHandler creates the handler.
func NewAssistantHandler(chat *assistant.Service, nliService *nli.Service, logger *slog.Logger) *AssistantHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssistantHandler{chat: chat, nli: nliService, logger: logger}
}

// Chat handles POST /api/v1/assistant/chat.
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	result, err := h.chat.Chat(r.Context(), req.Message)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Command handles POST /api/v1/nli/command.
func (h *AssistantHandler) Command(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.nli.Command(r.Context(), req.Text)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
