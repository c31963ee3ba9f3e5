package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/fieldops/fieldops/internal/auth"
	"github.com/fieldops/fieldops/internal/domain"
	"github.com/fieldops/fieldops/internal/relay"
)

// ListConversations returns the caller's conversations, most recent
// first, with participants and last message.
// GET /api/conversations
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())

	convs, err := h.relay.ListConversations(r.Context(), claims.UserID)
	if err != nil {
		slog.Error("Failed to list conversations", "user_id", claims.UserID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}
	if convs == nil {
		convs = []*domain.Conversation{}
	}
	JSON(w, http.StatusOK, convs)
}

// ConversationMessages returns a conversation's messages ascending by
// send time. Only participants may read a conversation.
// GET /api/conversations/{id}/messages
func (h *Handler) ConversationMessages(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	conv, err := h.relay.Conversation(r.Context(), id)
	if err != nil {
		if errors.Is(err, relay.ErrNotFound) {
			Error(w, http.StatusNotFound, "conversation not found")
			return
		}
		slog.Error("Failed to load conversation", "conversation_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !conv.HasParticipant(claims.UserID) {
		Error(w, http.StatusForbidden, "not a participant")
		return
	}

	messages, err := h.relay.ListMessages(r.Context(), id)
	if err != nil {
		slog.Error("Failed to list conversation messages", "conversation_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	if messages == nil {
		messages = []*domain.Message{}
	}
	JSON(w, http.StatusOK, messages)
}
