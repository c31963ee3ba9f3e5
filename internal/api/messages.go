package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/fieldops/fieldops/internal/auth"
	"github.com/fieldops/fieldops/internal/domain"
	"github.com/fieldops/fieldops/internal/relay"
)

// ListMessages returns every message in the caller's conversations,
// newest first.
// GET /api/messages
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())

	messages, err := h.relay.ListVisible(r.Context(), claims.UserID)
	if err != nil {
		slog.Error("Failed to list messages", "user_id", claims.UserID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	if messages == nil {
		messages = []*domain.Message{} // encode an empty array, not null
	}
	JSON(w, http.StatusOK, messages)
}

type sendMessageRequest struct {
	RecipientID int64  `json:"recipientId"`
	Content     string `json:"content"`
}

// SendMessage creates or reuses the conversation with the recipient and
// appends the message.
// POST /api/messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())

	var req sendMessageRequest
	if err := decodeBody(r, &req); err != nil || req.RecipientID <= 0 || req.Content == "" {
		Error(w, http.StatusBadRequest, "recipientId and content are required")
		return
	}
	if req.RecipientID == claims.UserID {
		Error(w, http.StatusBadRequest, "cannot message yourself")
		return
	}

	recipient, err := h.repo.GetUserByID(r.Context(), req.RecipientID)
	if err != nil {
		slog.Error("Failed to look up recipient", "recipient_id", req.RecipientID, "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if recipient == nil {
		Error(w, http.StatusBadRequest, "unknown recipient")
		return
	}

	conv, err := h.relay.GetOrCreateConversation(r.Context(), claims.UserID, req.RecipientID)
	if err != nil {
		slog.Error("Failed to get or create conversation", "user_id", claims.UserID, "recipient_id", req.RecipientID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to open conversation")
		return
	}

	msg, err := h.relay.SendMessage(r.Context(), conv.ID, claims.UserID, req.Content)
	if err != nil {
		if errors.Is(err, relay.ErrEmptyContent) {
			Error(w, http.StatusBadRequest, "content cannot be blank")
			return
		}
		slog.Error("Failed to send message", "conversation_id", conv.ID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to send message")
		return
	}

	JSON(w, http.StatusOK, msg)
}

// MarkRead flips a message's read flag.
// PATCH /api/messages/{id}
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid message id")
		return
	}

	msg, err := h.relay.MarkRead(r.Context(), id)
	if err != nil {
		if errors.Is(err, relay.ErrNotFound) {
			Error(w, http.StatusNotFound, "message not found")
			return
		}
		slog.Error("Failed to mark message read", "message_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "failed to update message")
		return
	}

	JSON(w, http.StatusOK, msg)
}

// ListUnread returns the caller's unread messages, newest first. Kept for
// clients that cannot hold a websocket and still poll a notification
// count.
// GET /api/messages/unread
func (h *Handler) ListUnread(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())

	messages, err := h.relay.ListReceived(r.Context(), claims.UserID)
	if err != nil {
		slog.Error("Failed to list unread messages", "user_id", claims.UserID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list unread messages")
		return
	}
	if messages == nil {
		messages = []*domain.Message{}
	}
	JSON(w, http.StatusOK, messages)
}
