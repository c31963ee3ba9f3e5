package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
)

const subjectPrefix = "fieldops.messages"

// NATSNotifier is a Notifier backed by a NATS connection, for deployments
// running more than one server instance behind a load balancer: an event
// published on one instance reaches subscribers connected to another.
// Core NATS, not JetStream - messages are durable in the store already,
// the bus only carries wake-ups.
type NATSNotifier struct {
	nc *nats.Conn
}

// NewNATSNotifier connects to the NATS server at url.
func NewNATSNotifier(url string) (*NATSNotifier, error) {
	nc, err := nats.Connect(url, nats.Name("fieldops-server"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSNotifier{nc: nc}, nil
}

func subjectFor(userID int64) string {
	return fmt.Sprintf("%s.%d", subjectPrefix, userID)
}

// Publish sends the event to the recipient's subject.
func (n *NATSNotifier) Publish(_ context.Context, userID int64, ev MessageEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal message event: %w", err)
	}
	if err := n.nc.Publish(subjectFor(userID), data); err != nil {
		return fmt.Errorf("publish to %s: %w", subjectFor(userID), err)
	}
	return nil
}

// Subscribe opens a feed on the user's subject. Undecodable payloads are
// logged and skipped.
func (n *NATSNotifier) Subscribe(userID int64) (<-chan MessageEvent, func(), error) {
	ch := make(chan MessageEvent, subscriberBuffer)

	// The callback can race with cancel; the mutex keeps writes off a
	// closed channel.
	var mu sync.Mutex
	closed := false

	sub, err := n.nc.Subscribe(subjectFor(userID), func(msg *nats.Msg) {
		var ev MessageEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			slog.Warn("Dropping undecodable message event", "subject", msg.Subject, "error", err)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- ev:
		default:
		}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("subscribe to %s: %w", subjectFor(userID), err)
	}

	cancel := func() {
		if err := sub.Unsubscribe(); err != nil {
			slog.Warn("Failed to unsubscribe", "subject", subjectFor(userID), "error", err)
		}
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			close(ch)
		}
	}
	return ch, cancel, nil
}

// Close drains and closes the NATS connection.
func (n *NATSNotifier) Close() {
	if n.nc != nil {
		n.nc.Close()
	}
}
