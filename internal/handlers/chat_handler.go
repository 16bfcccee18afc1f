package handlers

import (
	"bytes"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/interfaces"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// ChatHandler handles chat-related HTTP requests
type ChatHandler struct {
	chatService  interfaces.ChatService
	tenantHeader string
	markdown     goldmark.Markdown
	logger       arbor.ILogger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(
	chatService interfaces.ChatService,
	tenantHeader string,
	logger arbor.ILogger,
) *ChatHandler {
	return &ChatHandler{
		chatService:  chatService,
		tenantHeader: tenantHeader,
		markdown:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger:       logger,
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

// ChatHandler handles POST /api/chat requests
func (h *ChatHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	tenantID, ok := RequireTenant(w, r, h.tenantHeader)
	if !ok {
		return
	}

	var req chatRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	h.logger.Debug().
		Str("tenant_id", tenantID).
		Int("message_length", len(req.Message)).
		Msg("Processing chat request")

	result, err := h.chatService.Chat(r.Context(), tenantID, req.Message)
	if err != nil {
		status, message := StatusForError(err)
		h.logger.Warn().Err(err).Str("tenant_id", tenantID).Int("status", status).Msg("Chat request failed")
		WriteError(w, status, message)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"answer":      result.Answer,
		"answer_html": h.renderAnswer(result.Answer),
		"model":       result.ModelID,
	})
}

// HistoryHandler handles GET /api/chat/history requests
func (h *ChatHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	tenantID, ok := RequireTenant(w, r, h.tenantHeader)
	if !ok {
		return
	}

	turns, err := h.chatService.History(r.Context(), tenantID)
	if err != nil {
		status, message := StatusForError(err)
		h.logger.Error().Err(err).Str("tenant_id", tenantID).Msg("Failed to load conversation history")
		WriteError(w, status, message)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"turns":   turns,
		"count":   len(turns),
	})
}

// renderAnswer converts the markdown answer to HTML. Raw HTML in the answer is
// escaped by goldmark's default renderer. Falls back to empty on render failure.
func (h *ChatHandler) renderAnswer(answer string) string {
	var buf bytes.Buffer
	if err := h.markdown.Convert([]byte(answer), &buf); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to render answer markdown")
		return ""
	}
	return buf.String()
}
