package core

import (
	"context"
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestHubJoinBroadcastIncludesSender(t *testing.T) {
	st := newTestStore(t)
	hub := newTestHub(t, st)

	aliceUser := createTestUser(t, st, "alice")
	bobUser := createTestUser(t, st, "bob")

	alice := connect(t, hub, aliceUser)
	bob := connect(t, hub, bobUser)

	alice.Commands <- Command{Kind: CommandJoinRoom, RoomID: generalRoomID}
	bob.Commands <- Command{Kind: CommandJoinRoom, RoomID: generalRoomID}

	mustEvent(t, alice.Events, EventHistory)
	mustEvent(t, bob.Events, EventHistory)

	alice.Commands <- Command{Kind: CommandSendMessage, RoomID: generalRoomID, Body: "hi"}

	for _, c := range []*Client{alice, bob} {
		ev := mustEvent(t, c.Events, EventRoomMessage)
		msg := ev.Message
		if msg.Author != "alice" || msg.Body != "hi" || msg.RoomID != generalRoomID {
			t.Fatalf("unexpected message event: %+v", msg)
		}
		if msg.FileURL != "" {
			t.Fatalf("expected empty file url, got %q", msg.FileURL)
		}
	}

	stored, err := st.ListRecent(context.Background(), generalRoomID, 10)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(stored) != 1 || stored[0].Username != "alice" || stored[0].Body != "hi" {
		t.Fatalf("unexpected stored messages: %+v", stored)
	}
}

func TestHubSendWithoutJoinRejected(t *testing.T) {
	st := newTestStore(t)
	hub := newTestHub(t, st)

	charlie := connect(t, hub, createTestUser(t, st, "charlie"))

	charlie.Commands <- Command{Kind: CommandSendMessage, RoomID: generalRoomID, Body: "sneaky"}

	ev := mustEvent(t, charlie.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeNotInRoom {
		t.Fatalf("expected not_in_room error, got %+v", ev)
	}

	// No persistence on rejection.
	stored, err := st.ListRecent(context.Background(), generalRoomID, 10)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("expected empty log, got %+v", stored)
	}
}

func TestHubUnauthenticatedCommandRejected(t *testing.T) {
	st := newTestStore(t)
	hub := newTestHub(t, st)

	// Registered but never authenticated.
	ghost := hub.NewClient("conn-ghost")
	hub.RegisterClient(ghost)

	ghost.Commands <- Command{Kind: CommandJoinRoom, RoomID: generalRoomID}

	ev := mustEvent(t, ghost.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %+v", ev)
	}
	if hub.Registry().IsMember(ghost.ID, generalRoomID) {
		t.Fatal("unauthenticated connection must not gain membership")
	}
}

func TestHubJoinUnknownRoom(t *testing.T) {
	st := newTestStore(t)
	hub := newTestHub(t, st)

	alice := connect(t, hub, createTestUser(t, st, "alice"))

	alice.Commands <- Command{Kind: CommandJoinRoom, RoomID: 999}

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeRoomNotFound {
		t.Fatalf("expected room_not_found error, got %+v", ev)
	}
}

func TestHubJoinIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	hub := newTestHub(t, st)

	alice := connect(t, hub, createTestUser(t, st, "alice"))

	alice.Commands <- Command{Kind: CommandJoinRoom, RoomID: generalRoomID}
	mustEvent(t, alice.Events, EventHistory)

	// Second join: no error, no duplicate history.
	alice.Commands <- Command{Kind: CommandJoinRoom, RoomID: generalRoomID}
	mustNoEvent(t, alice.Events, 200*time.Millisecond)

	alice.Commands <- Command{Kind: CommandSendMessage, RoomID: generalRoomID, Body: "once"}

	mustEvent(t, alice.Events, EventRoomMessage)
	// A duplicated membership would deliver the echo twice.
	mustNoEvent(t, alice.Events, 200*time.Millisecond)
}

func TestHubHistoryBackfillOnJoin(t *testing.T) {
	st := newTestStore(t)
	hub := newTestHub(t, st)

	aliceUser := createTestUser(t, st, "alice")
	for _, body := range []string{"first", "second", "third"} {
		if _, err := st.AppendMessage(context.Background(), generalRoomID, aliceUser.ID, body, ""); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	bob := connect(t, hub, createTestUser(t, st, "bob"))
	bob.Commands <- Command{Kind: CommandJoinRoom, RoomID: generalRoomID}

	ev := mustEvent(t, bob.Events, EventHistory)
	if len(ev.Messages) != 3 {
		t.Fatalf("expected 3 history messages, got %d", len(ev.Messages))
	}
	for i, want := range []string{"first", "second", "third"} {
		if ev.Messages[i].Body != want {
			t.Fatalf("history out of order: %+v", ev.Messages)
		}
	}
}

func TestHubDisconnectRemovesMembership(t *testing.T) {
	st := newTestStore(t)
	hub := newTestHub(t, st)

	alice := connect(t, hub, createTestUser(t, st, "alice"))
	bob := connect(t, hub, createTestUser(t, st, "bob"))

	alice.Commands <- Command{Kind: CommandJoinRoom, RoomID: generalRoomID}
	bob.Commands <- Command{Kind: CommandJoinRoom, RoomID: generalRoomID}
	mustEvent(t, alice.Events, EventHistory)
	mustEvent(t, bob.Events, EventHistory)

	hub.UnregisterClient(bob)

	// Wait for the hub to process the unregister: its Events channel closes.
	deadline := time.After(2 * time.Second)
	for open := true; open; {
		select {
		case _, ok := <-bob.Events:
			open = ok
		case <-deadline:
			t.Fatal("bob's event channel was not closed on unregister")
		}
	}

	if hub.Registry().IsMember(bob.ID, generalRoomID) {
		t.Fatal("disconnected connection still a room member")
	}

	// A later broadcast only reaches alice; delivery skips bob without error.
	alice.Commands <- Command{Kind: CommandSendMessage, RoomID: generalRoomID, Body: "still here"}
	ev := mustEvent(t, alice.Events, EventRoomMessage)
	if ev.Message.Body != "still here" {
		t.Fatalf("unexpected echo: %+v", ev.Message)
	}
}

func TestHubDisconnectReleasesPumpGoroutine(t *testing.T) {
	st := newTestStore(t)
	hub := newTestHub(t, st)
	user := createTestUser(t, st, "alice")

	baseline := runtime.NumGoroutine()

	for i := range 20 {
		client := hub.NewClient(fmt.Sprintf("conn-%d", i))
		if err := hub.Authenticate(client.ID, Identity{UserID: user.ID, Username: user.Username}); err != nil {
			t.Fatalf("bind session: %v", err)
		}
		hub.RegisterClient(client)

		client.Commands <- Command{Kind: CommandJoinRoom, RoomID: generalRoomID}
		mustEvent(t, client.Events, EventHistory)

		// The transport's disconnect sequence: stop writing commands, then
		// unregister.
		close(client.Commands)
		hub.UnregisterClient(client)
		for range client.Events {
		}
	}

	// Unrelated runtime goroutines may come and go; leaked pumps would add 20.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if runtime.NumGoroutine() <= baseline+2 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("goroutines leaked after disconnects: baseline %d, now %d", baseline, runtime.NumGoroutine())
}

func TestHubSlowConsumerDropIsPerMember(t *testing.T) {
	st := newTestStore(t)
	logger := zerolog.Nop()
	hub := NewHub(st, &logger, Options{HistoryLimit: 20, EventBuffer: 1})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	alice := connect(t, hub, createTestUser(t, st, "alice"))
	slow := connect(t, hub, createTestUser(t, st, "slow"))

	alice.Commands <- Command{Kind: CommandJoinRoom, RoomID: generalRoomID}
	mustEvent(t, alice.Events, EventHistory)

	// slow joins but never reads; the history event fills its whole queue.
	slow.Commands <- Command{Kind: CommandJoinRoom, RoomID: generalRoomID}
	deadline := time.Now().Add(2 * time.Second)
	for !hub.Registry().IsMember(slow.ID, generalRoomID) {
		if time.Now().After(deadline) {
			t.Fatal("slow join was not processed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	alice.Commands <- Command{Kind: CommandSendMessage, RoomID: generalRoomID, Body: "one"}
	alice.Commands <- Command{Kind: CommandSendMessage, RoomID: generalRoomID, Body: "two"}

	// Delivery to the full queue is dropped; everyone else still gets both.
	for _, want := range []string{"one", "two"} {
		ev := mustEvent(t, alice.Events, EventRoomMessage)
		if ev.Message.Body != want {
			t.Fatalf("expected echo %q, got %+v", want, ev.Message)
		}
	}

	// slow's queue held only the history event; the broadcasts are gone.
	mustEvent(t, slow.Events, EventHistory)
	mustNoEvent(t, slow.Events, 200*time.Millisecond)

	// Persistence is unaffected by per-member delivery drops.
	stored, err := st.ListRecent(context.Background(), generalRoomID, 10)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored messages, got %d", len(stored))
	}
}

func TestHubUnregisterIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	hub := newTestHub(t, st)

	alice := connect(t, hub, createTestUser(t, st, "alice"))

	hub.UnregisterClient(alice)
	// Second unregister for the same client must be a no-op, not a double close.
	hub.UnregisterClient(alice)

	deadline := time.After(2 * time.Second)
	for open := true; open; {
		select {
		case _, ok := <-alice.Events:
			open = ok
		case <-deadline:
			t.Fatal("alice's event channel was not closed")
		}
	}
}
