package relay

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fieldops/fieldops/internal/domain"
	"github.com/fieldops/fieldops/internal/store"
)

func newTestRelay(t *testing.T) (*Relay, store.Repository, *Hub) {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	hub := NewHub()
	return New(repo, hub), repo, hub
}

func createUser(t *testing.T, repo store.Repository, identifiant string) *domain.User {
	t.Helper()
	user := &domain.User{
		Identifiant:  identifiant,
		Nom:          "Durand",
		Prenom:       "Claire",
		Email:        identifiant + "@example.com",
		PasswordHash: "x",
	}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func TestGetOrCreateConversationIdempotent(t *testing.T) {
	rly, repo, _ := newTestRelay(t)
	ctx := context.Background()

	a := createUser(t, repo, "alice")
	b := createUser(t, repo, "bob")

	first, err := rly.GetOrCreateConversation(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("GetOrCreateConversation failed: %v", err)
	}

	// Same pair, both orders, must return the same conversation.
	second, err := rly.GetOrCreateConversation(ctx, b.ID, a.ID)
	if err != nil {
		t.Fatalf("GetOrCreateConversation failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("Expected same conversation, got %d and %d", first.ID, second.ID)
	}
}

func TestGetOrCreateConversationConcurrent(t *testing.T) {
	rly, repo, _ := newTestRelay(t)
	ctx := context.Background()

	a := createUser(t, repo, "alice")
	b := createUser(t, repo, "bob")

	// Both sides open first contact at once; the uniqueness constraint
	// must collapse the race into a single conversation.
	var wg sync.WaitGroup
	ids := make([]int64, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int, x, y int64) {
			defer wg.Done()
			conv, err := rly.GetOrCreateConversation(ctx, x, y)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = conv.ID
		}(i, a.ID, b.ID)
		a, b = b, a
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("goroutine %d: %v", i, err)
		}
	}
	if ids[0] != ids[1] {
		t.Errorf("Race produced two conversations: %d and %d", ids[0], ids[1])
	}
}

func TestGetOrCreateConversationSelf(t *testing.T) {
	rly, repo, _ := newTestRelay(t)
	a := createUser(t, repo, "alice")

	_, err := rly.GetOrCreateConversation(context.Background(), a.ID, a.ID)
	if !errors.Is(err, ErrSelfConversation) {
		t.Errorf("Expected ErrSelfConversation, got %v", err)
	}
}

func TestSendAndListMessages(t *testing.T) {
	rly, repo, _ := newTestRelay(t)
	ctx := context.Background()

	a := createUser(t, repo, "alice")
	b := createUser(t, repo, "bob")
	conv, err := rly.GetOrCreateConversation(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("GetOrCreateConversation failed: %v", err)
	}

	empty, err := rly.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Fresh conversation should be empty, got %d messages", len(empty))
	}

	msg, err := rly.SendMessage(ctx, conv.ID, a.ID, "hello")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if msg.Contenu != "hello" || msg.Lu || msg.Expediteur.ID != a.ID {
		t.Errorf("Unexpected message: %+v", msg)
	}

	messages, err := rly.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(messages) != 1 || messages[0].Contenu != "hello" {
		t.Errorf("Expected exactly the sent message, got %+v", messages)
	}
}

func TestSendMessageValidation(t *testing.T) {
	rly, repo, _ := newTestRelay(t)
	ctx := context.Background()

	a := createUser(t, repo, "alice")
	b := createUser(t, repo, "bob")
	outsider := createUser(t, repo, "carol")
	conv, err := rly.GetOrCreateConversation(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("GetOrCreateConversation failed: %v", err)
	}

	if _, err := rly.SendMessage(ctx, conv.ID, a.ID, "   "); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("Expected ErrEmptyContent, got %v", err)
	}
	if _, err := rly.SendMessage(ctx, conv.ID, outsider.ID, "hi"); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("Expected ErrNotParticipant, got %v", err)
	}
	if _, err := rly.SendMessage(ctx, 9999, a.ID, "hi"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSendMessageNotifiesRecipient(t *testing.T) {
	rly, repo, _ := newTestRelay(t)
	ctx := context.Background()

	a := createUser(t, repo, "alice")
	b := createUser(t, repo, "bob")
	conv, err := rly.GetOrCreateConversation(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("GetOrCreateConversation failed: %v", err)
	}

	events, cancel, err := rly.Subscribe(b.ID)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer cancel()

	sent, err := rly.SendMessage(ctx, conv.ID, a.ID, "ping")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Type != EventMessage {
			t.Errorf("Expected %q event, got %q", EventMessage, ev.Type)
		}
		if ev.Message == nil || ev.Message.ID != sent.ID {
			t.Errorf("Expected message %d, got %+v", sent.ID, ev.Message)
		}
	case <-time.After(time.Second):
		t.Fatal("No event delivered to recipient")
	}
}

func TestMarkReadAndListReceived(t *testing.T) {
	rly, repo, _ := newTestRelay(t)
	ctx := context.Background()

	a := createUser(t, repo, "alice")
	b := createUser(t, repo, "bob")
	conv, err := rly.GetOrCreateConversation(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("GetOrCreateConversation failed: %v", err)
	}

	msg, err := rly.SendMessage(ctx, conv.ID, a.ID, "hello")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	received, err := rly.ListReceived(ctx, b.ID)
	if err != nil {
		t.Fatalf("ListReceived failed: %v", err)
	}
	if len(received) != 1 || received[0].ID != msg.ID {
		t.Fatalf("Expected one received message, got %+v", received)
	}

	// Alice sent it; it must not appear in her own unread list.
	own, err := rly.ListReceived(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListReceived failed: %v", err)
	}
	if len(own) != 0 {
		t.Errorf("Sender must not receive their own message, got %+v", own)
	}

	read, err := rly.MarkRead(ctx, msg.ID)
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if !read.Lu {
		t.Error("Expected lu=true after MarkRead")
	}

	// Idempotent re-mark.
	if _, err := rly.MarkRead(ctx, msg.ID); err != nil {
		t.Fatalf("Second MarkRead failed: %v", err)
	}

	after, err := rly.ListReceived(ctx, b.ID)
	if err != nil {
		t.Fatalf("ListReceived failed: %v", err)
	}
	if len(after) != 0 {
		t.Errorf("Read message still listed as received: %+v", after)
	}

	if _, err := rly.MarkRead(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown message, got %v", err)
	}
}
