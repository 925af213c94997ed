// internal/coordinator/registry.go
package coordinator

import (
	"sync"

	"github.com/google/uuid"
)

// Registry maps user ids to their single live connection. It is global
// process state, mutated by authentication, disconnect, and ban events.
type Registry struct {
	mu     sync.Mutex
	byUser map[uuid.UUID]*Client
}

// NewRegistry initializes an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[uuid.UUID]*Client),
	}
}

// Register records a client, silently superseding any prior record for
// the same user. The superseded client, if any, is returned so the caller
// can sever it.
func (r *Registry) Register(c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.byUser[c.UserID]
	if old == c {
		return nil
	}
	r.byUser[c.UserID] = c
	return old
}

// Lookup returns the live client for a user id. Absence means "not
// currently connected", never a fault.
func (r *Registry) Lookup(userID uuid.UUID) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byUser[userID]
	return c, ok
}

// Unregister removes a client's record, but only if it is still the
// current one: a disconnect racing a superseding authentication must not
// evict the newer connection. Reports whether the record was removed.
func (r *Registry) Unregister(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.byUser[c.UserID]; ok && cur == c {
		delete(r.byUser, c.UserID)
		return true
	}
	return false
}

// Remove evicts a user's record unconditionally (ban path), returning it.
func (r *Registry) Remove(userID uuid.UUID) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byUser[userID]
	if ok {
		delete(r.byUser, userID)
	}
	return c, ok
}

// Snapshot returns the current clients. The slice is a copy; the clients
// are shared.
func (r *Registry) Snapshot() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Client, 0, len(r.byUser))
	for _, c := range r.byUser {
		out = append(out, c)
	}
	return out
}

// ConnectedIDs reports which user ids currently hold a live connection.
func (r *Registry) ConnectedIDs() map[uuid.UUID]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]bool, len(r.byUser))
	for id := range r.byUser {
		out[id] = true
	}
	return out
}
