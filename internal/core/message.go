package core

import "time"

// Message is the domain model for a chat message.
type Message struct {
	ID        int64
	RoomID    int64
	Author    string
	Body      string
	FileURL   string
	CreatedAt time.Time
}
