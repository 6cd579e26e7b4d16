package runner

import (
	"context"

	"github.com/KrishimitraAgent/KrishimitraBackend/core"
)

// TurnStatus classifies how a turn ended.
type TurnStatus string

const (
	// StatusFinalized means the capability produced a final assistant
	// response.
	StatusFinalized TurnStatus = "finalized"

	// StatusTerminated means an effectful-once tool ended the turn after
	// completing its side-effect; metadata carries the turn result.
	StatusTerminated TurnStatus = "terminated"

	// StatusAborted means the turn failed; Condition names the cause.
	StatusAborted TurnStatus = "aborted"
)

// TurnResult is the synchronous summary of one turn.
type TurnResult struct {
	TurnID    string
	Status    TurnStatus
	FinalText string
	Condition core.Condition
	Metadata  map[string]string
	Events    []core.Event
}

// RunTurn executes one turn to completion and summarizes its terminal event.
// It is the API the HTTP surface uses; streaming consumers use Run directly.
func (r *Runner) RunTurn(
	ctx context.Context,
	userID, sessionID string,
	userContent core.Content,
) (*TurnResult, error) {
	turnID, events, err := r.Run(ctx, userID, sessionID, userContent)
	if err != nil {
		return nil, err
	}

	result := &TurnResult{TurnID: turnID}
	var terminal *core.Event

	for ev := range events {
		result.Events = append(result.Events, ev)
		if ev.IsTerminal() && terminal == nil {
			e := ev
			terminal = &e
		}
	}

	if terminal == nil {
		result.Status = StatusAborted
		result.Condition = core.ConditionCapabilityUnavailable
		return result, nil
	}

	switch {
	case terminal.IsAbort():
		result.Status = StatusAborted
		result.Condition = core.Condition(*terminal.ErrorCode)
	case terminal.IsEndTurnSignal():
		result.Status = StatusTerminated
		result.Metadata = terminal.Actions.TurnMetadata
	default:
		result.Status = StatusFinalized
		if terminal.Content != nil {
			result.FinalText = terminal.Content.Text()
		}
	}

	return result, nil
}
