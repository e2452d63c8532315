// Package sessionstore keeps per-session conversation history in memory.
// Sessions live for the process lifetime; a reset clears all of them.
package sessionstore

import (
	"sync"

	"github.com/dipa-ai/dipa/internal/domain/entities"
)

// InMemoryStore implements ports.SessionStore with a mutex-guarded map.
// One writer per session is assumed; the lock only protects the map and
// history slices from racing readers.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*entities.Session
}

// NewInMemoryStore creates an empty session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*entities.Session)}
}

// GetOrCreate ensures the session for id exists and returns a snapshot.
// The snapshot's history is a copy, so it never races with Append.
func (s *InMemoryStore) GetOrCreate(id string) entities.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.getOrCreateLocked(id)
	history := make([]entities.Message, len(session.History))
	copy(history, session.History)
	return entities.Session{ID: session.ID, History: history}
}

func (s *InMemoryStore) getOrCreateLocked(id string) *entities.Session {
	session, ok := s.sessions[id]
	if !ok {
		session = &entities.Session{ID: id}
		s.sessions[id] = session
	}
	return session
}

// Append adds a message to the session's ordered history.
func (s *InMemoryStore) Append(id string, msg entities.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.getOrCreateLocked(id)
	session.History = append(session.History, msg)
}

// History returns a copy of the session's messages in insertion order.
// The copy keeps callers from observing later appends.
func (s *InMemoryStore) History(id string) []entities.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil
	}
	history := make([]entities.Message, len(session.History))
	copy(history, session.History)
	return history
}

// ClearAll removes every session.
func (s *InMemoryStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*entities.Session)
}

// Len returns the number of live sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
