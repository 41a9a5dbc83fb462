package core

import "errors"

// Error codes for domain errors delivered to clients.
const (
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeRoomNotFound = "room_not_found"
	ErrCodeNotInRoom    = "not_in_room"
	ErrCodeBadRequest   = "bad_request"
	ErrCodeInternal     = "internal_error"
)

// ErrSessionBound is returned when a connection tries to bind twice.
var ErrSessionBound = errors.New("session already bound")

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
