package core

import (
	"context"
	"fmt"
	"maps"

	"github.com/KrishimitraAgent/KrishimitraBackend/logging"
)

// TurnContext encapsulates the mutable, per-turn execution scope passed to an
// Agent's Run method. It aggregates:
//   - The ambient cancellation Context
//   - Identifiers (UserID, SessionID, TurnID, agent info)
//   - The inbound user Content
//   - Emission / resumption coordination channels
//   - Backing services (session store, artifact store) for persistence
//   - A working Session snapshot and a pending StateDelta to commit
//
// State mutations performed via SetState accumulate in StateDelta until
// EmitEvent attaches them to the next emitted event.
type TurnContext struct {
	Context           context.Context
	UserID, SessionID string
	TurnID            string
	Agent             AgentInfo
	UserContent       Content
	Emit              chan<- Event
	Resume            <-chan struct{}
	SessionStore      SessionStore
	ArtifactStore     ArtifactStore
	Session           *Session
	StateDelta        map[string]any
	Artifacts         []string

	logger logging.Logger
}

// NewTurnContext constructs a TurnContext with empty delta buffers.
func NewTurnContext(
	ctx context.Context,
	userID, sessionID, turnID string,
	agent AgentInfo,
	userContent Content,
	emit chan<- Event,
	resume <-chan struct{},
	sess *Session,
	sessionStore SessionStore,
	artifactStore ArtifactStore,
	logger logging.Logger,
) *TurnContext {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &TurnContext{
		Context:       ctx,
		UserID:        userID,
		SessionID:     sessionID,
		TurnID:        turnID,
		Agent:         agent,
		UserContent:   userContent,
		Emit:          emit,
		Resume:        resume,
		Session:       sess,
		SessionStore:  sessionStore,
		ArtifactStore: artifactStore,
		StateDelta:    map[string]any{},
		Artifacts:     []string{},
		logger:        logger,
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (tc *TurnContext) Done() <-chan struct{} { return tc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (tc *TurnContext) Err() error { return tc.Context.Err() }

// Logger returns the logger bound to this turn.
func (tc *TurnContext) Logger() logging.Logger { return tc.logger }

// GetState returns a staged (delta) value if present, else the persisted
// session value.
func (tc *TurnContext) GetState(k string) (any, bool) {
	if v, ok := tc.StateDelta[k]; ok {
		return v, true
	}
	if tc.Session != nil {
		return tc.Session.GetState(k)
	}
	return nil, false
}

// SetState stages a state mutation in the in-memory delta buffer.
func (tc *TurnContext) SetState(k string, v any) { tc.StateDelta[k] = v }

// ApplyStateDelta merges all pairs from d into the staged StateDelta.
func (tc *TurnContext) ApplyStateDelta(d map[string]any) { maps.Copy(tc.StateDelta, d) }

// SaveArtifact stores bytes in the ArtifactStore and stages the id for the
// next emitted event.
func (tc *TurnContext) SaveArtifact(id string, data []byte) error {
	if tc.ArtifactStore == nil {
		return fmt.Errorf("artifact store not configured")
	}
	if err := tc.ArtifactStore.Save(tc.SessionID, id, data); err != nil {
		return err
	}
	tc.Artifacts = append(tc.Artifacts, id)
	return nil
}

// GetArtifact retrieves previously saved artifact bytes.
func (tc *TurnContext) GetArtifact(id string) ([]byte, error) {
	if tc.ArtifactStore == nil {
		return nil, fmt.Errorf("artifact store not configured")
	}
	return tc.ArtifactStore.Get(tc.SessionID, id)
}

// RefreshSession reloads the session snapshot from the SessionStore.
func (tc *TurnContext) RefreshSession() error {
	if tc.SessionStore == nil {
		return fmt.Errorf("session store not configured")
	}
	s, err := tc.SessionStore.Get(tc.UserID, tc.SessionID)
	if err != nil {
		return err
	}
	tc.Session = s
	return nil
}

// EmitEvent merges pending StateDelta / Artifacts into the event and emits
// it, blocking until the runner accepts it or the turn is cancelled.
func (tc *TurnContext) EmitEvent(ev Event) error {
	if len(tc.StateDelta) > 0 {
		if ev.Actions.StateDelta == nil {
			ev.Actions.StateDelta = map[string]any{}
		}
		maps.Copy(ev.Actions.StateDelta, tc.StateDelta)
	}
	if len(tc.Artifacts) > 0 {
		if ev.Actions.ArtifactDelta == nil {
			ev.Actions.ArtifactDelta = map[string]int{}
		}
		for _, id := range tc.Artifacts {
			ev.Actions.ArtifactDelta[id] = 1
		}
	}

	select {
	case <-tc.Context.Done():
		return tc.Context.Err()
	case tc.Emit <- ev:
	}

	tc.StateDelta = map[string]any{}
	tc.Artifacts = []string{}
	return nil
}

// WaitForResume blocks until the runner confirms persistence of the last
// emitted event, or the turn is cancelled.
func (tc *TurnContext) WaitForResume() error {
	if tc.Resume == nil {
		return nil
	}
	select {
	case <-tc.Resume:
		return nil
	case <-tc.Context.Done():
		return tc.Context.Err()
	}
}

// Clone returns a shallow copy with deep-copied delta buffers.
func (tc *TurnContext) Clone() *TurnContext {
	c := &TurnContext{
		Context:       tc.Context,
		UserID:        tc.UserID,
		SessionID:     tc.SessionID,
		TurnID:        tc.TurnID,
		Agent:         tc.Agent,
		UserContent:   tc.UserContent,
		Emit:          tc.Emit,
		Resume:        tc.Resume,
		SessionStore:  tc.SessionStore,
		ArtifactStore: tc.ArtifactStore,
		Session:       tc.Session,
		StateDelta:    map[string]any{},
		Artifacts:     []string{},
		logger:        tc.logger,
	}
	maps.Copy(c.StateDelta, tc.StateDelta)
	c.Artifacts = append(c.Artifacts, tc.Artifacts...)
	return c
}
