// Package krishimitra provides a high-level façade over the farm assistant:
// it assembles the coordinator/delegate hierarchy and a runner, exposing
// synchronous chat and streaming entry points. Most applications interact
// with this package by:
//  1. Creating a Backend via New() with their model and store dependencies
//  2. Calling Chat for request/response turns or ChatStream for event streams
//
// Defaults (in-memory session and artifact stores, no-op logger) are safe
// for local development and tests; production deployments supply durable
// stores and a structured logger.
package krishimitra

import (
	"context"
	"time"

	"github.com/KrishimitraAgent/KrishimitraBackend/core"
	"github.com/KrishimitraAgent/KrishimitraBackend/farm"
	"github.com/KrishimitraAgent/KrishimitraBackend/logging"
	"github.com/KrishimitraAgent/KrishimitraBackend/runner"
)

// Options configures the Backend.
type Options struct {
	// SessionStore persists conversations; defaults to in-memory.
	SessionStore core.SessionStore
	// ArtifactStore persists binary attachments; defaults to in-memory.
	ArtifactStore core.ArtifactStore
	// Logger receives structured logs; defaults to no-op.
	Logger logging.Logger
	// TurnTimeout bounds one turn end to end.
	TurnTimeout time.Duration
}

// Backend bundles the assembled assistant and its runner.
type Backend struct {
	assistant core.Agent
	runner    *runner.Runner
}

// New assembles the assistant hierarchy from deps and wraps it in a runner.
func New(deps farm.Deps, optFns ...func(o *Options)) (*Backend, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	assistant, err := farm.NewAssistant(deps)
	if err != nil {
		return nil, err
	}

	r := runner.New(assistant, func(o *runner.Options) {
		if opts.SessionStore != nil {
			o.SessionStore = opts.SessionStore
		}
		if opts.ArtifactStore != nil {
			o.ArtifactStore = opts.ArtifactStore
		}
		if opts.Logger != nil {
			o.Logger = opts.Logger
		}
		if opts.TurnTimeout > 0 {
			o.TurnTimeout = opts.TurnTimeout
		}
	})

	return &Backend{assistant: assistant, runner: r}, nil
}

// Chat executes one turn synchronously and returns its summary.
func (b *Backend) Chat(ctx context.Context, userID, sessionID, message string) (*runner.TurnResult, error) {
	return b.runner.RunTurn(ctx, userID, sessionID, core.NewUserText(message))
}

// ChatContent is Chat for multi-part input (e.g. text plus a crop photo).
func (b *Backend) ChatContent(ctx context.Context, userID, sessionID string, content core.Content) (*runner.TurnResult, error) {
	return b.runner.RunTurn(ctx, userID, sessionID, content)
}

// ChatStream starts a turn and returns its id and live event stream.
func (b *Backend) ChatStream(ctx context.Context, userID, sessionID string, content core.Content) (string, <-chan core.Event, error) {
	return b.runner.Run(ctx, userID, sessionID, content)
}

// Runner exposes the underlying runner for advanced integrations such as the
// HTTP server.
func (b *Backend) Runner() *runner.Runner { return b.runner }
