package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom subscribes the connection to a room.
	CommandJoinRoom CommandKind = iota
	// CommandSendMessage delivers a chat message to room participants.
	CommandSendMessage
)

// Command represents an action requested by a connection.
type Command struct {
	Kind    CommandKind
	RoomID  int64
	Body    string
	FileURL string
}
