package core

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/akazarov/roomchat/internal/store"
	"github.com/akazarov/roomchat/internal/store/sqlite"
)

// generalRoomID is the id of the room seeded by a fresh store.
const generalRoomID int64 = 1

func newTestStore(t testing.TB) store.Store {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTestHub(t testing.TB, st store.Store) *Hub {
	t.Helper()

	logger := zerolog.Nop()
	hub := NewHub(st, &logger, Options{HistoryLimit: 20, EventBuffer: 16})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	return hub
}

func createTestUser(t testing.TB, st store.Store, username string) *store.User {
	t.Helper()

	user, err := st.CreateUser(context.Background(), username, "hash")
	if err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

// connect registers an authenticated client for the given user.
func connect(t testing.TB, hub *Hub, user *store.User) *Client {
	t.Helper()

	client := hub.NewClient("conn-" + user.Username)
	if err := hub.Authenticate(client.ID, Identity{UserID: user.ID, Username: user.Username}); err != nil {
		t.Fatalf("failed to bind session for %s: %v", user.Username, err)
	}
	hub.RegisterClient(client)
	t.Cleanup(func() { close(client.Commands) })
	return client
}

func mustEvent(t testing.TB, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustNoEvent fails if any event at all arrives within the wait window.
func mustNoEvent(t testing.TB, ch <-chan *Event, wait time.Duration) {
	t.Helper()

	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil {
				t.Fatalf("unexpected event: %+v", ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}
