package relay

import (
	"context"
	"sync"

	"github.com/fieldops/fieldops/internal/domain"
)

// EventMessage is the event type for a newly stored message.
const EventMessage = "message"

// MessageEvent is the payload pushed to a recipient's subscription when
// a message arrives for them.
type MessageEvent struct {
	Type    string          `json:"type"`
	Message *domain.Message `json:"message"`
}

// Notifier is the publish/subscribe channel keyed by user id that
// replaces client-side polling. Publish is fire-and-forget: the store is
// the source of truth and a missed event only costs latency.
type Notifier interface {
	// Publish delivers an event to all current subscribers of userID.
	Publish(ctx context.Context, userID int64, ev MessageEvent) error

	// Subscribe opens an event feed for userID. The cancel function
	// releases the subscription and closes the channel.
	Subscribe(userID int64) (<-chan MessageEvent, func(), error)
}

// subscriberBuffer is the per-subscriber channel capacity. A subscriber
// that falls this far behind starts losing events and must rely on a
// fetch to catch up.
const subscriberBuffer = 16

// Hub is an in-process Notifier for single-instance deployments.
type Hub struct {
	mu   sync.RWMutex
	subs map[int64]map[chan MessageEvent]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int64]map[chan MessageEvent]struct{})}
}

// Publish delivers the event to every subscriber of userID. A full
// subscriber buffer drops the event rather than blocking the sender.
func (h *Hub) Publish(_ context.Context, userID int64, ev MessageEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[userID] {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribe opens a buffered event feed for userID.
func (h *Hub) Subscribe(userID int64) (<-chan MessageEvent, func(), error) {
	ch := make(chan MessageEvent, subscriberBuffer)

	h.mu.Lock()
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[chan MessageEvent]struct{})
		h.subs[userID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[userID]; ok {
			if _, present := set[ch]; present {
				delete(set, ch)
				close(ch)
				if len(set) == 0 {
					delete(h.subs, userID)
				}
			}
		}
	}
	return ch, cancel, nil
}
