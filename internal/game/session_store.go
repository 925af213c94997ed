// internal/game/session_store.go
package game

import (
	"sync"

	"github.com/google/uuid"
)

// SessionStore manages live sessions in memory, keyed by match id.
// The store mutex only guards the map; each session carries its own
// mutex so concurrent matches stay independent.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewSessionStore initializes and returns an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Get retrieves the session for a match, if one exists.
func (s *SessionStore) Get(matchID uuid.UUID) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[matchID]
	return sess, ok
}

// GetOrCreate retrieves the session for a match, lazily creating a
// waiting one on first use.
func (s *SessionStore) GetOrCreate(matchID uuid.UUID) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[matchID]; ok {
		return sess
	}
	sess := NewSession(matchID)
	s.sessions[matchID] = sess
	return sess
}

// Remove deletes the session for a match and returns it, if present.
func (s *SessionStore) Remove(matchID uuid.UUID) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[matchID]
	if ok {
		delete(s.sessions, matchID)
	}
	return sess, ok
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
