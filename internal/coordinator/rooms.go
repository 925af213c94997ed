// internal/coordinator/rooms.go
package coordinator

import (
	"sync"

	"github.com/google/uuid"
)

// Rooms tracks which connections are subscribed to each match's
// broadcasts. Broadcasting enqueues onto per-client channels, so callers
// holding a session lock get their broadcasts observed in mutation order.
type Rooms struct {
	mu      sync.Mutex
	members map[uuid.UUID]map[*Client]struct{}
}

// NewRooms initializes an empty room set.
func NewRooms() *Rooms {
	return &Rooms{
		members: make(map[uuid.UUID]map[*Client]struct{}),
	}
}

// Subscribe adds a client to a match's room.
func (r *Rooms) Subscribe(matchID uuid.UUID, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.members[matchID]
	if !ok {
		room = make(map[*Client]struct{})
		r.members[matchID] = room
	}
	room[c] = struct{}{}
}

// Unsubscribe removes a client from one room.
func (r *Rooms) Unsubscribe(matchID uuid.UUID, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.members[matchID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(r.members, matchID)
		}
	}
}

// RemoveClient removes a client from every room (disconnect, ban,
// superseded connection).
func (r *Rooms) RemoveClient(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for matchID, room := range r.members {
		delete(room, c)
		if len(room) == 0 {
			delete(r.members, matchID)
		}
	}
}

// Broadcast enqueues a message to every room member.
func (r *Rooms) Broadcast(matchID uuid.UUID, msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for c := range r.members[matchID] {
		c.Send(msg)
	}
}

// Drop discards a room's membership entirely (match ended or deleted).
func (r *Rooms) Drop(matchID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, matchID)
}
