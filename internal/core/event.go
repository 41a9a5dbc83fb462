package core

// EventKind is a notification the core emits to connections.
type EventKind int

const (
	// EventRoomMessage carries one broadcast chat message.
	EventRoomMessage EventKind = iota
	// EventHistory delivers recent room messages to a connection upon joining.
	EventHistory
	// EventError notifies a connection about a domain error.
	EventError
)

// Event is sent to connections to describe what happened in the system.
type Event struct {
	Kind     EventKind
	RoomID   int64
	Message  Message
	Messages []Message // for EventHistory
	Error    *CoreError
}
