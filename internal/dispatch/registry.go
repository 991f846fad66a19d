package dispatch

import (
	"sync"

	"github.com/google/uuid"

	"github.com/jmalhado/crisiscast/internal/protocol"
)

// Handle identifies one live connection inside the registry.
type Handle struct {
	id string
}

// ID returns the opaque connection identifier.
func (h *Handle) ID() string {
	if h == nil {
		return ""
	}
	return h.id
}

type connection struct {
	out   chan<- protocol.Envelope
	rooms map[string]struct{}
}

// Registry tracks live connections and the rooms each one has joined.
// It is the single owner of room membership; the router reads membership
// snapshots concurrently with join/leave traffic.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*connection
	rooms map[string]map[string]chan<- protocol.Envelope
}

// NewRegistry initializes an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*connection),
		rooms: make(map[string]map[string]chan<- protocol.Envelope),
	}
}

// Register allocates a handle for a newly opened transport session.
// Outbound envelopes for the connection are delivered on out.
func (r *Registry) Register(out chan<- protocol.Envelope) *Handle {
	h := &Handle{id: uuid.NewString()}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[h.id] = &connection{
		out:   out,
		rooms: make(map[string]struct{}),
	}
	return h
}

// JoinRoom adds the connection to a room. Joining a room already joined,
// or joining on a deregistered handle, is a no-op.
func (r *Registry) JoinRoom(h *Handle, room string) {
	if h == nil || room == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[h.id]
	if !ok {
		return
	}
	if _, joined := conn.rooms[room]; joined {
		return
	}
	conn.rooms[room] = struct{}{}
	if _, ok := r.rooms[room]; !ok {
		r.rooms[room] = make(map[string]chan<- protocol.Envelope)
	}
	r.rooms[room][h.id] = conn.out
}

// LeaveRoom removes the connection from a room. Leaving a room not
// joined is a no-op.
func (r *Registry) LeaveRoom(h *Handle, room string) {
	if h == nil || room == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[h.id]
	if !ok {
		return
	}
	if _, joined := conn.rooms[room]; !joined {
		return
	}
	delete(conn.rooms, room)
	r.removeMemberLocked(room, h.id)
}

// Deregister removes the connection from every room it was in and
// forgets the handle. Safe to call once per handle and concurrently
// with an in-flight fanout.
func (r *Registry) Deregister(h *Handle) {
	if h == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[h.id]
	if !ok {
		return
	}
	for room := range conn.rooms {
		r.removeMemberLocked(room, h.id)
	}
	delete(r.conns, h.id)
}

// Members returns a snapshot of outbound channels for the room. Joins
// and leaves after the snapshot is taken do not affect an in-flight
// fanout.
func (r *Registry) Members(room string) []chan<- protocol.Envelope {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[room]
	if len(members) == 0 {
		return nil
	}
	out := make([]chan<- protocol.Envelope, 0, len(members))
	for _, ch := range members {
		out = append(out, ch)
	}
	return out
}

// Rooms reports the rooms currently joined by the handle.
func (r *Registry) Rooms(h *Handle) []string {
	if h == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[h.id]
	if !ok {
		return nil
	}
	rooms := make([]string, 0, len(conn.rooms))
	for room := range conn.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (r *Registry) removeMemberLocked(room, connID string) {
	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
}
