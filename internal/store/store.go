package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room already exists")
)

// User represents a registered user.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Room represents a chat room. Rooms are never deleted.
type Room struct {
	ID        int64
	Name      string
	OwnerID   *int64 // nil for seeded rooms
	CreatedAt time.Time
}

// Message represents a persisted chat message. Username is the author's
// handle, denormalized for delivery.
type Message struct {
	ID        int64
	RoomID    int64
	UserID    int64
	Username  string
	Body      string
	FileURL   string
	CreatedAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// RoomStore handles room persistence.
type RoomStore interface {
	// CreateRoom creates a new room.
	CreateRoom(ctx context.Context, name string, ownerID *int64) (*Room, error)

	// GetRoomByID retrieves a room by ID.
	GetRoomByID(ctx context.Context, id int64) (*Room, error)

	// GetRoomByName retrieves a room by name.
	GetRoomByName(ctx context.Context, name string) (*Room, error)

	// ListRooms lists all rooms, newest first.
	ListRooms(ctx context.Context) ([]*Room, error)
}

// MessageStore is the durable append-only message log.
type MessageStore interface {
	// AppendMessage validates that room and author exist, assigns the
	// server-side timestamp and id, and appends the message. The returned
	// record is the stored one.
	AppendMessage(ctx context.Context, roomID, userID int64, body, fileURL string) (*Message, error)

	// ListRecent returns the last limit messages of a room in chronological
	// order.
	ListRecent(ctx context.Context, roomID int64, limit int) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	RoomStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
