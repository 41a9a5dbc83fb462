package core

import "sync"

// Identity is the authenticated user an established connection acts as.
type Identity struct {
	UserID   int64
	Username string
}

// Sessions binds live connections to authenticated user identities. A binding
// is established once, at authentication, and never reassigned.
type Sessions struct {
	mu     sync.RWMutex
	byConn map[string]Identity
}

// NewSessions constructs an empty session table.
func NewSessions() *Sessions {
	return &Sessions{byConn: make(map[string]Identity)}
}

// Bind associates a connection with a user identity for the connection's
// lifetime. Rebinding an already bound connection returns ErrSessionBound.
func (s *Sessions) Bind(connID string, id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byConn[connID]; exists {
		return ErrSessionBound
	}
	s.byConn[connID] = id
	return nil
}

// Current returns the identity bound to the connection, if any.
func (s *Sessions) Current(connID string) (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byConn[connID]
	return id, ok
}

// Release drops the binding for a closed connection.
func (s *Sessions) Release(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byConn, connID)
}
