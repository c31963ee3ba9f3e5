package relay

import (
	"context"
	"testing"
	"time"

	"github.com/fieldops/fieldops/internal/domain"
)

func testEvent(id int64) MessageEvent {
	return MessageEvent{Type: EventMessage, Message: &domain.Message{ID: id}}
}

func TestHubPublishSubscribe(t *testing.T) {
	hub := NewHub()

	ch, cancel, err := hub.Subscribe(7)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer cancel()

	if err := hub.Publish(context.Background(), 7, testEvent(1)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Message.ID != 1 {
			t.Errorf("Expected message 1, got %d", ev.Message.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("Event not delivered")
	}
}

func TestHubPublishOtherUser(t *testing.T) {
	hub := NewHub()

	ch, cancel, err := hub.Subscribe(7)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer cancel()

	if err := hub.Publish(context.Background(), 8, testEvent(1)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case ev := <-ch:
		t.Errorf("Event for user 8 delivered to user 7: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubCancelClosesChannel(t *testing.T) {
	hub := NewHub()

	ch, cancel, err := hub.Subscribe(7)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Error("Expected closed channel after cancel")
	}

	// Publishing after cancel must not panic or block.
	if err := hub.Publish(context.Background(), 7, testEvent(1)); err != nil {
		t.Fatalf("Publish after cancel failed: %v", err)
	}

	// Double cancel is safe.
	cancel()
}

func TestHubSlowConsumerDropsEvents(t *testing.T) {
	hub := NewHub()

	ch, cancel, err := hub.Subscribe(7)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer cancel()

	// Nobody reads: the buffer fills, then publishes drop instead of
	// blocking.
	for i := 0; i < subscriberBuffer+10; i++ {
		if err := hub.Publish(context.Background(), 7, testEvent(int64(i))); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	if got := len(ch); got != subscriberBuffer {
		t.Errorf("Expected %d buffered events, got %d", subscriberBuffer, got)
	}
}

func TestHubMultipleSubscribers(t *testing.T) {
	hub := NewHub()

	ch1, cancel1, _ := hub.Subscribe(7)
	ch2, cancel2, _ := hub.Subscribe(7)
	defer cancel1()
	defer cancel2()

	if err := hub.Publish(context.Background(), 7, testEvent(1)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	for i, ch := range []<-chan MessageEvent{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Message.ID != 1 {
				t.Errorf("Subscriber %d: expected message 1, got %d", i, ev.Message.ID)
			}
		case <-time.After(time.Second):
			t.Fatalf("Subscriber %d: event not delivered", i)
		}
	}
}
