// Package session provides SessionStore implementations.
package session

import (
	"sync"

	"github.com/KrishimitraAgent/KrishimitraBackend/core"
)

// InMemorySessionStore keeps sessions in a process-local map keyed by the
// (userID, sessionID) identity pair. Suitable for development, tests and
// single-instance deployments; state does not survive restarts.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

// NewInMemorySessionStore creates an empty in-memory store.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[string]*core.Session)}
}

func sessionKey(userID, sessionID string) string {
	// NUL is not a legal identifier character, so the composite is unambiguous.
	return userID + "\x00" + sessionID
}

// Create registers a new session for the identity pair. Returns
// core.ErrSessionExists if the pair already has one.
func (s *InMemorySessionStore) Create(userID, sessionID string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey(userID, sessionID)
	if _, exists := s.sessions[key]; exists {
		return nil, core.ErrSessionExists
	}

	sess := core.NewSession(userID, sessionID)
	s.sessions[key] = sess
	return sess, nil
}

// Get returns the session for the identity pair or core.ErrSessionNotFound.
// It never creates.
func (s *InMemorySessionStore) Get(userID, sessionID string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, exists := s.sessions[sessionKey(userID, sessionID)]
	if !exists {
		return nil, core.ErrSessionNotFound
	}
	return sess, nil
}

// GetOrCreate returns the existing session for the pair or creates one. The
// check and insert happen under one lock, so concurrent callers for the same
// pair all receive the same session.
func (s *InMemorySessionStore) GetOrCreate(userID, sessionID string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey(userID, sessionID)
	if sess, exists := s.sessions[key]; exists {
		return sess, nil
	}

	sess := core.NewSession(userID, sessionID)
	s.sessions[key] = sess
	return sess, nil
}

// AppendEvent appends an event to the session's history.
func (s *InMemorySessionStore) AppendEvent(userID, sessionID string, event core.Event) error {
	sess, err := s.Get(userID, sessionID)
	if err != nil {
		return err
	}
	sess.AddEvent(event)
	return nil
}

// ApplyDelta merges state mutations into the session.
func (s *InMemorySessionStore) ApplyDelta(userID, sessionID string, delta map[string]any) error {
	sess, err := s.Get(userID, sessionID)
	if err != nil {
		return err
	}
	sess.MergeState(delta)
	return nil
}
