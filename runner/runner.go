// Package runner coordinates turn execution: it resolves the session,
// persists the inbound user event, dispatches the root agent, applies event
// side-effects in durable order and guarantees exactly one terminal event per
// turn.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/KrishimitraAgent/KrishimitraBackend/artifact"
	"github.com/KrishimitraAgent/KrishimitraBackend/core"
	"github.com/KrishimitraAgent/KrishimitraBackend/logging"
	"github.com/KrishimitraAgent/KrishimitraBackend/session"
)

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// EventBufferSize sets channel buffering for delivered events.
	EventBufferSize int
	// TurnTimeout bounds one full turn; expiry aborts with the timeout
	// condition.
	TurnTimeout time.Duration
	// SessionStore persists sessions, keyed by (user, session).
	SessionStore core.SessionStore
	// ArtifactStore persists binary artifacts.
	ArtifactStore core.ArtifactStore
	// Logger receives structured runner logs.
	Logger logging.Logger
}

// Runner drives agent turns. Public methods are safe for concurrent use, but
// callers must serialize turns against the same (user, session) pair; the
// runner does not interleave-protect a single conversation.
type Runner struct {
	agent core.Agent

	eventBufferSize int
	turnTimeout     time.Duration

	sessionStore  core.SessionStore
	artifactStore core.ArtifactStore
	logger        logging.Logger

	activeTurns map[string]context.CancelFunc
	mu          sync.Mutex
}

// New constructs a Runner with optional overrides. Defaults: in-memory
// stores, 90s turn timeout.
func New(agent core.Agent, optFns ...func(o *Options)) *Runner {
	opts := Options{
		EventBufferSize: 100,
		TurnTimeout:     90 * time.Second,
		SessionStore:    session.NewInMemorySessionStore(),
		ArtifactStore:   artifact.NewInMemoryArtifactStore(),
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		agent:           agent,
		eventBufferSize: opts.EventBufferSize,
		turnTimeout:     opts.TurnTimeout,
		sessionStore:    opts.SessionStore,
		artifactStore:   opts.ArtifactStore,
		logger:          opts.Logger,
		activeTurns:     make(map[string]context.CancelFunc),
	}
}

// Run starts an asynchronous turn for the identity pair. The session is
// created if absent. The returned channel delivers the turn's events in
// persisted order and closes after the terminal event.
func (r *Runner) Run(
	ctx context.Context,
	userID, sessionID string,
	userContent core.Content,
) (string, <-chan core.Event, error) {
	sess, err := r.sessionStore.GetOrCreate(userID, sessionID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	turnID := core.NewID()

	// The user event is durable before any agent work begins.
	userEvent := core.NewUserContentEvent(turnID, &userContent)
	if err := r.sessionStore.AppendEvent(userID, sessionID, userEvent); err != nil {
		return "", nil, fmt.Errorf("failed to append user event: %w", err)
	}

	var turnCtx context.Context
	var cancel context.CancelFunc
	if r.turnTimeout > 0 {
		turnCtx, cancel = context.WithTimeout(ctx, r.turnTimeout)
	} else {
		turnCtx, cancel = context.WithCancel(ctx)
	}
	r.mu.Lock()
	r.activeTurns[turnID] = cancel
	r.mu.Unlock()

	out := make(chan core.Event, r.eventBufferSize)
	// Unbuffered: the agent's EmitEvent blocks until the runner takes the
	// event, which keeps persisted order identical to emission order.
	agentEmit := make(chan core.Event)
	resumeCh := make(chan struct{})

	tc := core.NewTurnContext(
		turnCtx,
		userID, sessionID, turnID,
		core.AgentInfo{Name: r.agent.Name(), Type: "coordinator"},
		userContent,
		agentEmit,
		resumeCh,
		sess,
		r.sessionStore,
		r.artifactStore,
		r.logger,
	)

	agentDone := make(chan error, 1)
	go func() { agentDone <- r.agent.Run(tc) }()

	go func() {
		defer func() {
			close(out)
			cancel()
			r.mu.Lock()
			delete(r.activeTurns, turnID)
			r.mu.Unlock()
		}()
		r.processEvents(tc, agentEmit, resumeCh, agentDone, out)
	}()

	r.logger.Info("runner.turn.dispatched",
		"turn", turnID, "user", userID, "session", sessionID, "agent", r.agent.Name())

	return turnID, out, nil
}

// Cancel aborts a running turn by ID.
func (r *Runner) Cancel(turnID string) error {
	r.mu.Lock()
	cancel, exists := r.activeTurns[turnID]
	r.mu.Unlock()
	if !exists {
		return fmt.Errorf("turn %s not found", turnID)
	}
	cancel()
	return nil
}

// processEvents is the turn's single writer against the session: it persists
// each emitted event, applies its state delta, resumes the agent and forwards
// the event. It closes the turn with an abort event when the agent fails or
// the deadline expires, so consumers always see exactly one terminal event.
func (r *Runner) processEvents(
	tc *core.TurnContext,
	agentEmit <-chan core.Event,
	resumeCh chan<- struct{},
	agentDone <-chan error,
	out chan<- core.Event,
) {
	for {
		select {
		case <-tc.Done():
			r.abort(tc, out, core.ConditionOf(tc.Err()), tc.Err())
			return

		case err := <-agentDone:
			if err != nil {
				r.abort(tc, out, core.ConditionOf(err), err)
				return
			}
			// Emission is synchronous, so a clean return means every event
			// including the terminal one has already been handled.
			return

		case ev := <-agentEmit:
			if err := r.persistEvent(tc, ev); err != nil {
				r.abort(tc, out, core.ConditionPersistenceUnavailable, err)
				return
			}

			select {
			case resumeCh <- struct{}{}:
			case <-tc.Done():
				r.abort(tc, out, core.ConditionOf(tc.Err()), tc.Err())
				return
			}

			select {
			case out <- ev:
			case <-tc.Done():
				r.abort(tc, out, core.ConditionOf(tc.Err()), tc.Err())
				return
			}

			if ev.IsTerminal() {
				// Let the agent goroutine unwind before closing the stream.
				select {
				case <-agentDone:
				case <-tc.Done():
				}
				r.logger.Info("runner.turn.complete",
					"turn", tc.TurnID, "terminal_event", ev.ID)
				return
			}
		}
	}
}

// persistEvent appends the event and applies its side-effects.
func (r *Runner) persistEvent(tc *core.TurnContext, ev core.Event) error {
	if len(ev.Actions.StateDelta) > 0 {
		if err := r.sessionStore.ApplyDelta(tc.UserID, tc.SessionID, ev.Actions.StateDelta); err != nil {
			return fmt.Errorf("failed to apply state delta: %w", err)
		}
	}
	if err := r.sessionStore.AppendEvent(tc.UserID, tc.SessionID, ev); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	r.logger.Debug("runner.event.persisted",
		"turn", tc.TurnID, "event_id", ev.ID, "author", ev.Author)
	return nil
}

// abort emits the turn's terminal abort event. Persistence is best effort;
// delivery to the consumer is what closes the turn.
func (r *Runner) abort(tc *core.TurnContext, out chan<- core.Event, cond core.Condition, cause error) {
	ev := core.NewAbortEvent(tc.TurnID, r.agent.Name(), cond, cause)

	if err := r.sessionStore.AppendEvent(tc.UserID, tc.SessionID, ev); err != nil {
		r.logger.Warn("runner.abort.persist_failed",
			"turn", tc.TurnID, "error", err.Error())
	}

	errMsg := ""
	if cause != nil {
		errMsg = cause.Error()
	}
	r.logger.Error("runner.turn.aborted",
		"turn", tc.TurnID, "condition", string(cond), "error", errMsg)

	out <- ev
}
