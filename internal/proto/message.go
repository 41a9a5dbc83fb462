// Package proto defines the websocket wire protocol.
package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin = "join"
	InboundTypeSend = "send_message"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventReceiveMessage = "receive_message"
	EventHistory        = "history"
)

// JoinData requests to join a specific room.
type JoinData struct {
	RoomID int64 `json:"room_id"`
}

// SendData is a chat message from the client.
type SendData struct {
	RoomID  int64  `json:"room_id"`
	Content string `json:"content"`
	FileURL string `json:"file_url,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// ReceiveMessage is delivered to every member of a room when a message is
// broadcast. Timestamp is the presentation form (HH:MM); the stored record
// keeps full precision.
type ReceiveMessage struct {
	ID        int64  `json:"id,omitempty"`
	RoomID    int64  `json:"room_id"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	FileURL   string `json:"file_url"`
	Timestamp string `json:"timestamp"`
}

// History delivers recent room messages to a client upon joining.
type History struct {
	RoomID   int64            `json:"room_id"`
	Messages []ReceiveMessage `json:"messages"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
