package repository

import (
	"context"
	"sync"

	"placement-service/internal/adaptive"
)

// MemorySessionStore is a mutex-guarded in-memory session store. It is
// the default for single-instance deployments and for tests.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*adaptive.DiagnosticSession
}

// NewMemorySessionStore creates an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*adaptive.DiagnosticSession),
	}
}

func (s *MemorySessionStore) Get(ctx context.Context, sessionID string) (*adaptive.DiagnosticSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *MemorySessionStore) Put(ctx context.Context, session *adaptive.DiagnosticSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.SessionID] = session
	return nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// Len returns the number of stored sessions.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
