package core

import (
	"context"
	"errors"
	"fmt"
)

// Condition classifies why a turn failed or was cut short. Conditions are
// machine-readable and cross the HTTP boundary unchanged.
type Condition string

const (
	// ConditionCapabilityUnavailable marks the language-model backend as
	// unreachable or erroring. Not retried within a turn.
	ConditionCapabilityUnavailable Condition = "capability_unavailable"

	// ConditionPersistenceUnavailable marks a document-store failure on the
	// effectful-once tool path. Fatal to the turn.
	ConditionPersistenceUnavailable Condition = "persistence_unavailable"

	// ConditionToolNetwork marks a pure-fetch tool I/O failure. Surfaced as a
	// failed tool result the agent may narrate, not a hard abort.
	ConditionToolNetwork Condition = "tool_network_error"

	// ConditionValidation marks malformed tool arguments rejected before
	// dispatch.
	ConditionValidation Condition = "validation_error"

	// ConditionTimeout marks per-turn deadline expiry.
	ConditionTimeout Condition = "timeout"
)

// ErrSessionNotFound is returned by SessionStore.Get when no session exists
// for the identity pair. Callers recover via create-if-absent; the condition
// never reaches the end user as an error.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExists is returned by SessionStore.Create when the identity pair
// already has a session. Sessions are created at most once per pair.
var ErrSessionExists = errors.New("session already exists")

// TurnError wraps an underlying failure with its turn-level condition.
type TurnError struct {
	Condition Condition
	Err       error
}

func (e *TurnError) Error() string {
	if e.Err == nil {
		return string(e.Condition)
	}
	return fmt.Sprintf("%s: %v", e.Condition, e.Err)
}

func (e *TurnError) Unwrap() error { return e.Err }

// NewTurnError wraps err with the given condition.
func NewTurnError(cond Condition, err error) *TurnError {
	return &TurnError{Condition: cond, Err: err}
}

// ConditionOf extracts the turn condition from err, defaulting to
// capability-unavailable for unclassified failures. Context deadline expiry
// maps to the timeout condition.
func ConditionOf(err error) Condition {
	var te *TurnError
	if errors.As(err, &te) {
		return te.Condition
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ConditionTimeout
	}
	return ConditionCapabilityUnavailable
}
