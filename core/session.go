package core

import (
	"sync"
	"time"
)

// Session represents one conversation thread for a (user, session) identity
// pair: an ordered event history plus arbitrary key/value scratch state. It
// is safe for concurrent access, though callers are expected to serialize
// turns against the same session (see runner docs).
//
// Contract:
//   - State mutations update the Updated timestamp
//   - GetEvents returns a defensive copy to avoid external mutation
//   - GetConversationHistory filters events to user/assistant/tool roles
//   - Clone performs deep copies of maps/slices for safe divergence
type Session struct {
	ID      string         `json:"id"`
	UserID  string         `json:"user_id"`
	State   map[string]any `json:"state"`
	Events  []Event        `json:"events"`
	Created time.Time      `json:"created"`
	Updated time.Time      `json:"updated"`
	mu      sync.RWMutex
}

// NewSession creates a session for the given identity pair.
func NewSession(userID, sessionID string) *Session {
	now := time.Now()
	return &Session{
		ID:      sessionID,
		UserID:  userID,
		State:   map[string]any{},
		Events:  []Event{},
		Created: now,
		Updated: now,
	}
}

// GetState returns the value and existence flag for a state key.
func (s *Session) GetState(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.State[key]
	return v, ok
}

// SetState sets a key/value pair in session state.
func (s *Session) SetState(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State[key] = value
	s.Updated = time.Now()
}

// MergeState merges the provided key/value pairs into State.
func (s *Session) MergeState(delta map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range delta {
		s.State[k] = v
	}
	s.Updated = time.Now()
}

// AddEvent appends an event to the history.
func (s *Session) AddEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, ev)
	s.Updated = time.Now()
}

// GetEvents returns a defensive copy of the full event slice.
func (s *Session) GetEvents() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]Event, len(s.Events))
	copy(events, s.Events)
	return events
}

// GetConversationHistory returns events suitable for providing conversational
// context to the capability (user/assistant/tool roles only).
func (s *Session) GetConversationHistory() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	allowed := map[string]bool{"user": true, "assistant": true, "tool": true}
	res := make([]Event, 0, len(s.Events))
	for _, ev := range s.Events {
		if ev.Content == nil || !allowed[ev.Content.Role] {
			continue
		}
		res = append(res, ev)
	}
	return res
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{
		ID:      s.ID,
		UserID:  s.UserID,
		State:   make(map[string]any, len(s.State)),
		Events:  make([]Event, len(s.Events)),
		Created: s.Created,
		Updated: s.Updated,
	}
	for k, v := range s.State {
		clone.State[k] = v
	}
	copy(clone.Events, s.Events)
	return clone
}

// SessionStore persists sessions and their evolving state / event history.
// Sessions are keyed by the (userID, sessionID) identity pair.
//
// Get never auto-creates: a missing pair yields ErrSessionNotFound so the
// caller owns the create-if-absent decision. GetOrCreate is the idempotent
// variant used at the runner boundary; concurrent calls for the same pair
// produce exactly one session.
type SessionStore interface {
	Create(userID, sessionID string) (*Session, error)
	Get(userID, sessionID string) (*Session, error)
	GetOrCreate(userID, sessionID string) (*Session, error)
	AppendEvent(userID, sessionID string, event Event) error
	ApplyDelta(userID, sessionID string, delta map[string]any) error
}
