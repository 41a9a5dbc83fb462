package core

import "sync"

// Registry tracks which live connections belong to which room. Membership is
// purely in-memory and dies with the connection.
type Registry struct {
	mu    sync.RWMutex
	rooms map[int64]map[string]struct{}
	// conns mirrors rooms so LeaveAll does not scan every room.
	conns map[string]map[int64]struct{}
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[int64]map[string]struct{}),
		conns: make(map[string]map[int64]struct{}),
	}
}

// Join adds the connection to the room's member set. Idempotent; returns true
// if the connection was newly added.
func (r *Registry) Join(connID string, roomID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[roomID] = members
	}
	if _, exists := members[connID]; exists {
		return false
	}
	members[connID] = struct{}{}

	joined, ok := r.conns[connID]
	if !ok {
		joined = make(map[int64]struct{})
		r.conns[connID] = joined
	}
	joined[roomID] = struct{}{}
	return true
}

// Leave removes the connection from the room. Idempotent; returns true if the
// connection was a member.
func (r *Registry) Leave(connID string, roomID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(connID, roomID)
}

// LeaveAll removes the connection from every room it is a member of. Called on
// disconnect.
func (r *Registry) LeaveAll(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomID := range r.conns[connID] {
		r.leaveLocked(connID, roomID)
	}
}

func (r *Registry) leaveLocked(connID string, roomID int64) bool {
	members, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	if _, exists := members[connID]; !exists {
		return false
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}

	if joined, ok := r.conns[connID]; ok {
		delete(joined, roomID)
		if len(joined) == 0 {
			delete(r.conns, connID)
		}
	}
	return true
}

// IsMember reports whether the connection is currently in the room.
func (r *Registry) IsMember(connID string, roomID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[roomID][connID]
	return ok
}

// MembersOf returns a point-in-time snapshot of the room's member set, safe to
// iterate while joins and leaves continue on other goroutines.
func (r *Registry) MembersOf(roomID int64) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[roomID]
	snapshot := make([]string, 0, len(members))
	for connID := range members {
		snapshot = append(snapshot, connID)
	}
	return snapshot
}
