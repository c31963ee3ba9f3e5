// Package relay implements conversation lookup-or-create, message append,
// listing, read-state transitions, and push notification fan-out.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fieldops/fieldops/internal/domain"
	"github.com/fieldops/fieldops/internal/store"
)

var (
	// ErrNotFound indicates a missing conversation or message.
	ErrNotFound = errors.New("relay: not found")
	// ErrEmptyContent rejects blank message bodies.
	ErrEmptyContent = errors.New("relay: empty content")
	// ErrSelfConversation rejects a conversation with a single participant.
	ErrSelfConversation = errors.New("relay: conversation requires two distinct participants")
	// ErrNotParticipant rejects access to a conversation by an outsider.
	ErrNotParticipant = errors.New("relay: user is not a participant")
)

// Relay coordinates the message store and the notification channel. All
// state lives in the injected repository; Relay itself is stateless and
// safe for concurrent use.
type Relay struct {
	repo     store.Repository
	notifier Notifier
}

// New creates a Relay backed by repo, publishing delivery events to
// notifier.
func New(repo store.Repository, notifier Notifier) *Relay {
	return &Relay{repo: repo, notifier: notifier}
}

// GetOrCreateConversation finds or creates the single conversation for
// the unordered pair {a, b}. Concurrent first-contact calls from both
// sides converge on one conversation: the storage layer's pair uniqueness
// constraint turns the loser's insert into a re-fetch.
func (r *Relay) GetOrCreateConversation(ctx context.Context, a, b int64) (*domain.Conversation, error) {
	if a == b {
		return nil, ErrSelfConversation
	}
	low, high := domain.CanonicalPair(a, b)

	conv, err := r.repo.GetConversationByPair(ctx, low, high)
	if err != nil {
		return nil, fmt.Errorf("lookup conversation: %w", err)
	}
	if conv != nil {
		return conv, nil
	}

	conv, err = r.repo.CreateConversation(ctx, low, high)
	if err != nil {
		if store.IsUniqueConstraint(err) {
			// Lost the race: the other side created it first.
			conv, err = r.repo.GetConversationByPair(ctx, low, high)
			if err != nil {
				return nil, fmt.Errorf("refetch conversation: %w", err)
			}
			if conv == nil {
				return nil, fmt.Errorf("conversation vanished after constraint violation")
			}
			return conv, nil
		}
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

// ListMessages returns a conversation's messages ascending by send time.
func (r *Relay) ListMessages(ctx context.Context, conversationID int64) ([]*domain.Message, error) {
	conv, err := r.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("lookup conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrNotFound
	}
	return r.repo.ListMessages(ctx, conversationID)
}

// Conversation returns a conversation by id, or ErrNotFound.
func (r *Relay) Conversation(ctx context.Context, id int64) (*domain.Conversation, error) {
	conv, err := r.repo.GetConversation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrNotFound
	}
	return conv, nil
}

// SendMessage appends a message with read=false and wakes the recipient's
// subscription. Content must be non-blank; the sender must participate in
// the conversation.
func (r *Relay) SendMessage(ctx context.Context, conversationID, senderID int64, content string) (*domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	conv, err := r.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("lookup conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrNotFound
	}
	if !conv.HasParticipant(senderID) {
		return nil, ErrNotParticipant
	}

	msg, err := r.repo.CreateMessage(ctx, conversationID, senderID, content, time.Now())
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	// Delivery is a wake-up, not the source of truth: the message is
	// already durable, so a failed publish only delays the recipient
	// until their next fetch.
	recipient := conv.OtherParticipant(senderID)
	if err := r.notifier.Publish(ctx, recipient, MessageEvent{Type: EventMessage, Message: msg}); err != nil {
		slog.Warn("Failed to publish message event", "recipient", recipient, "message_id", msg.ID, "error", err)
	}

	return msg, nil
}

// MarkRead flips a message's read flag to true. Calling it on an
// already-read message is a no-op; the updated message is returned either
// way.
func (r *Relay) MarkRead(ctx context.Context, messageID int64) (*domain.Message, error) {
	msg, err := r.repo.MarkMessageRead(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	if msg == nil {
		return nil, ErrNotFound
	}
	return msg, nil
}

// ListReceived returns unread messages addressed to the user across all
// their conversations, newest first. Backs the notification count for
// clients that poll instead of subscribing.
func (r *Relay) ListReceived(ctx context.Context, userID int64) ([]*domain.Message, error) {
	return r.repo.ListUnreadMessages(ctx, userID)
}

// ListVisible returns every message in the user's conversations, newest
// first.
func (r *Relay) ListVisible(ctx context.Context, userID int64) ([]*domain.Message, error) {
	return r.repo.ListVisibleMessages(ctx, userID)
}

// ListConversations returns the user's conversations, most recent first,
// with participants and last message attached.
func (r *Relay) ListConversations(ctx context.Context, userID int64) ([]*domain.Conversation, error) {
	return r.repo.ListConversations(ctx, userID)
}

// Subscribe opens a live event feed for the user. The returned cancel
// function must be called when the subscriber goes away.
func (r *Relay) Subscribe(userID int64) (<-chan MessageEvent, func(), error) {
	return r.notifier.Subscribe(userID)
}
