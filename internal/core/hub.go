package core

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/akazarov/roomchat/internal/store"
)

// Options tune hub behavior.
type Options struct {
	// HistoryLimit is how many recent messages a connection receives on join.
	HistoryLimit int
	// EventBuffer bounds each connection's outbound queue.
	EventBuffer int
}

const (
	defaultHistoryLimit = 50
	defaultEventBuffer  = 32
)

type clientCommand struct {
	client *Client
	cmd    Command
}

// Hub coordinates the chat core: it serializes room membership changes and
// runs the persist-then-broadcast path for every message. All state mutation
// happens on the Run goroutine; registry and sessions are additionally
// synchronized so the transport and tests may read them directly.
type Hub struct {
	store    store.Store
	registry *Registry
	sessions *Sessions
	log      *zerolog.Logger
	opts     Options

	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	commands   chan clientCommand
	done       chan struct{}
}

// NewHub creates a hub backed by the given store.
func NewHub(st store.Store, logger *zerolog.Logger, opts Options) *Hub {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = defaultEventBuffer
	}
	return &Hub{
		store:      st,
		registry:   NewRegistry(),
		sessions:   NewSessions(),
		log:        logger,
		opts:       opts,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan clientCommand),
		done:       make(chan struct{}),
	}
}

// NewClient constructs a client sized for this hub's outbound queue.
func (h *Hub) NewClient(id string) *Client {
	return NewClient(id, h.opts.EventBuffer)
}

// Authenticate binds a connection to an authenticated user identity. Must be
// called before the connection's first command; unbound connections have every
// command rejected.
func (h *Hub) Authenticate(connID string, id Identity) error {
	return h.sessions.Bind(connID, id)
}

// RegisterClient adds a connection to the hub.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient removes a connection, releasing its session binding and all
// room memberships exactly once. Safe to call multiple times.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Registry exposes the membership table for transport-side checks and tests.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Run processes registrations and commands until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c.ID] = c
			go h.pump(ctx, c)
		case c := <-h.unregister:
			h.drop(c)
		case env := <-h.commands:
			h.handle(ctx, env.client, env.cmd)
		}
	}
}

// pump forwards one client's commands into the hub loop.
func (h *Hub) pump(ctx context.Context, c *Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			select {
			case h.commands <- clientCommand{client: c, cmd: cmd}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)
	h.registry.LeaveAll(c.ID)
	h.sessions.Release(c.ID)
	close(c.Events)
	h.log.Debug().Str("conn_id", c.ID).Msg("connection unregistered")
}

func (h *Hub) handle(ctx context.Context, c *Client, cmd Command) {
	if _, ok := h.clients[c.ID]; !ok {
		// Commands racing an unregister target a gone connection; ignore.
		return
	}

	identity, ok := h.sessions.Current(c.ID)
	if !ok {
		h.enqueue(c, &Event{Kind: EventError, Error: coreError(ErrCodeUnauthorized, "connection is not authenticated")})
		return
	}

	switch cmd.Kind {
	case CommandJoinRoom:
		h.handleJoin(ctx, c, cmd.RoomID)
	case CommandSendMessage:
		h.handleSend(ctx, c, identity, cmd)
	default:
		h.enqueue(c, &Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "unknown command")})
	}
}

func (h *Hub) handleJoin(ctx context.Context, c *Client, roomID int64) {
	if _, err := h.store.GetRoomByID(ctx, roomID); err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			h.enqueue(c, &Event{Kind: EventError, Error: coreError(ErrCodeRoomNotFound, "room not found")})
			return
		}
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("room lookup failed")
		h.enqueue(c, &Event{Kind: EventError, Error: coreError(ErrCodeInternal, "room lookup failed")})
		return
	}

	if !h.registry.Join(c.ID, roomID) {
		// Already a member; join is idempotent and history is not re-sent.
		return
	}

	recent, err := h.store.ListRecent(ctx, roomID, h.opts.HistoryLimit)
	if err != nil {
		h.log.Warn().Err(err).Int64("room_id", roomID).Msg("history backfill failed")
		return
	}
	h.enqueue(c, &Event{
		Kind:     EventHistory,
		RoomID:   roomID,
		Messages: messagesFromStore(recent),
	})
}

// handleSend runs the broadcast path: membership check, durable append, then
// fan-out to the room's current member snapshot including the sender. Delivery
// is best-effort per member; persistence never waits on it.
func (h *Hub) handleSend(ctx context.Context, c *Client, identity Identity, cmd Command) {
	if !h.registry.IsMember(c.ID, cmd.RoomID) {
		h.enqueue(c, &Event{Kind: EventError, Error: coreError(ErrCodeNotInRoom, "join the room before sending")})
		return
	}

	stored, err := h.store.AppendMessage(ctx, cmd.RoomID, identity.UserID, cmd.Body, cmd.FileURL)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			h.enqueue(c, &Event{Kind: EventError, Error: coreError(ErrCodeRoomNotFound, "room not found")})
			return
		}
		h.log.Error().Err(err).Int64("room_id", cmd.RoomID).Msg("message append failed")
		h.enqueue(c, &Event{Kind: EventError, Error: coreError(ErrCodeInternal, "message not saved")})
		return
	}

	event := &Event{
		Kind:    EventRoomMessage,
		RoomID:  cmd.RoomID,
		Message: messageFromStore(stored),
	}
	for _, connID := range h.registry.MembersOf(cmd.RoomID) {
		member, ok := h.clients[connID]
		if !ok {
			// Member disconnected between snapshot and delivery.
			continue
		}
		h.enqueue(member, event)
	}
}

// enqueue performs a non-blocking delivery to one connection. A full queue
// drops the event for that connection only.
func (h *Hub) enqueue(c *Client, ev *Event) {
	select {
	case c.Events <- ev:
	default:
		h.log.Warn().Str("conn_id", c.ID).Msg("slow consumer, event dropped")
	}
}

func messageFromStore(m *store.Message) Message {
	return Message{
		ID:        m.ID,
		RoomID:    m.RoomID,
		Author:    m.Username,
		Body:      m.Body,
		FileURL:   m.FileURL,
		CreatedAt: m.CreatedAt,
	}
}

func messagesFromStore(ms []*store.Message) []Message {
	out := make([]Message, 0, len(ms))
	for _, m := range ms {
		out = append(out, messageFromStore(m))
	}
	return out
}
