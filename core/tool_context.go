package core

import (
	"context"
	"fmt"
	"maps"

	"github.com/KrishimitraAgent/KrishimitraBackend/logging"
)

// ToolContext provides a constrained, auditable surface for tool
// implementations invoked by an agent. It accumulates EventActions (state
// deltas, transfers, the end-turn signal) without directly mutating the
// underlying session until the enclosing flow applies them to the tool's
// function-response event.
type ToolContext struct {
	turnCtx        *TurnContext
	functionCallID string
	agentInfo      AgentInfo
	eventActions   EventActions
}

// NewToolContext constructs a tool context bound to a parent TurnContext and
// unique functionCallID.
func NewToolContext(turnCtx *TurnContext, functionCallID string) *ToolContext {
	return &ToolContext{
		turnCtx:        turnCtx,
		functionCallID: functionCallID,
		agentInfo:      turnCtx.Agent,
		eventActions:   EventActions{},
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.turnCtx.Context }

// UserID returns the user id associated with the tool invocation.
func (tc *ToolContext) UserID() string { return tc.turnCtx.UserID }

// SessionID returns the session id associated with the tool invocation.
func (tc *ToolContext) SessionID() string { return tc.turnCtx.SessionID }

// TurnID returns the turn id associated with the tool invocation.
func (tc *ToolContext) TurnID() string { return tc.turnCtx.TurnID }

// FunctionCallID returns the function call id correlating the capability's
// request with this execution.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// AgentName returns the invoking agent's name.
func (tc *ToolContext) AgentName() string { return tc.agentInfo.Name }

// Logger returns the logger bound to the enclosing turn.
func (tc *ToolContext) Logger() logging.Logger { return tc.turnCtx.Logger() }

// GetState retrieves the state associated with the given key.
func (tc *ToolContext) GetState(k string) (any, bool) { return tc.turnCtx.GetState(k) }

// SetState records a state mutation both on the turn context (for immediate
// visibility) and in the local EventActions delta for emission.
func (tc *ToolContext) SetState(k string, v any) {
	tc.turnCtx.SetState(k, v)
	if tc.eventActions.StateDelta == nil {
		tc.eventActions.StateDelta = map[string]any{}
	}
	tc.eventActions.StateDelta[k] = v
}

// Actions returns the event actions accumulated in the tool context.
func (tc *ToolContext) Actions() *EventActions { return &tc.eventActions }

// TransferToAgent signals orchestration to hand the turn to another agent.
func (tc *ToolContext) TransferToAgent(name string) {
	tc.eventActions.TransferToAgent = &name
	tc.Logger().Info("tool.transfer.request",
		"from_agent", tc.AgentName(), "to_agent", name, "fc_id", tc.functionCallID)
}

// EndTurn signals that the turn must terminate immediately after this tool
// call, bypassing any further capability-side response generation. Metadata
// (e.g. the dedup key of a persisted record) is carried on the terminal
// event as the turn result.
func (tc *ToolContext) EndTurn(metadata map[string]string) {
	b := true
	tc.eventActions.EndTurn = &b
	if len(metadata) > 0 {
		if tc.eventActions.TurnMetadata == nil {
			tc.eventActions.TurnMetadata = map[string]string{}
		}
		maps.Copy(tc.eventActions.TurnMetadata, metadata)
	}
	tc.Logger().Info("tool.end_turn.request",
		"agent", tc.AgentName(), "fc_id", tc.functionCallID)
}

// SaveArtifact persists artifact bytes and records the delta for emission.
func (tc *ToolContext) SaveArtifact(id string, data []byte) error {
	if tc.turnCtx.ArtifactStore == nil {
		return fmt.Errorf("artifact store not configured")
	}
	if err := tc.turnCtx.ArtifactStore.Save(tc.SessionID(), id, data); err != nil {
		return err
	}
	if tc.eventActions.ArtifactDelta == nil {
		tc.eventActions.ArtifactDelta = map[string]int{}
	}
	tc.eventActions.ArtifactDelta[id] = len(data)
	return nil
}

// LoadArtifact retrieves a persisted artifact by id.
func (tc *ToolContext) LoadArtifact(id string) ([]byte, error) {
	if tc.turnCtx.ArtifactStore == nil {
		return nil, fmt.Errorf("artifact store not configured")
	}
	return tc.turnCtx.ArtifactStore.Get(tc.SessionID(), id)
}

// GetSessionHistory returns conversation history for context.
func (tc *ToolContext) GetSessionHistory() []Event {
	if tc.turnCtx.Session == nil {
		return nil
	}
	return tc.turnCtx.Session.GetConversationHistory()
}

// ApplyActions merges accumulated EventActions into the provided event. The
// flow calls this when finalizing a tool's function-response event so the
// transfer / end-turn signals travel with it.
func (tc *ToolContext) ApplyActions(ev *Event) {
	if len(tc.eventActions.StateDelta) > 0 {
		if ev.Actions.StateDelta == nil {
			ev.Actions.StateDelta = map[string]any{}
		}
		maps.Copy(ev.Actions.StateDelta, tc.eventActions.StateDelta)
	}
	if len(tc.eventActions.ArtifactDelta) > 0 {
		if ev.Actions.ArtifactDelta == nil {
			ev.Actions.ArtifactDelta = map[string]int{}
		}
		maps.Copy(ev.Actions.ArtifactDelta, tc.eventActions.ArtifactDelta)
	}
	if tc.eventActions.TransferToAgent != nil {
		ev.Actions.TransferToAgent = tc.eventActions.TransferToAgent
	}
	if tc.eventActions.EndTurn != nil {
		ev.Actions.EndTurn = tc.eventActions.EndTurn
		if len(tc.eventActions.TurnMetadata) > 0 {
			if ev.Actions.TurnMetadata == nil {
				ev.Actions.TurnMetadata = map[string]string{}
			}
			maps.Copy(ev.Actions.TurnMetadata, tc.eventActions.TurnMetadata)
		}
	}
}
