// Package flow provides the execution pipeline that drives an agent's model
// loop: assembling requests through processors, invoking the capability,
// executing requested tools and reacting to orchestration signals (transfer,
// end-turn).
//
// Flows emit events through the TurnContext and pause after each emission
// until the runner confirms persistence, so a consumer reading the turn
// stream always observes events in durable order.
package flow

import (
	"time"

	"github.com/KrishimitraAgent/KrishimitraBackend/core"
	"github.com/KrishimitraAgent/KrishimitraBackend/model"
	"github.com/KrishimitraAgent/KrishimitraBackend/tool"
)

// Flow defines the interface for agent execution flows.
//
// A flow drives the complete pipeline of one agent turn, from request
// assembly to the terminal event. On success the flow has emitted exactly
// one terminal event; on error the caller owns emitting the abort.
type Flow interface {
	Run(turnCtx *core.TurnContext) error
}

// FlowAgent defines the interface that agents must implement to work with
// flows. It exposes agent capabilities without leaking the implementation.
type FlowAgent interface {
	// GetName returns the agent's display name.
	GetName() string

	// GetLLM returns the language model capability.
	GetLLM() model.Model

	// ResolveInstructions produces the system prompt for this turn.
	ResolveInstructions(turnCtx *core.TurnContext) (string, error)

	// GetTools returns the registered tools for function calling.
	GetTools() map[string]tool.Tool

	// GetSubAgents returns the transferable delegates. Every child agent is
	// eligible, whether or not it runs a model flow itself.
	GetSubAgents() []core.Agent

	// IsTransferEnabled reports whether this agent may hand turns to
	// delegates.
	IsTransferEnabled() bool

	// GuardsRawOutput reports whether final responses that look like raw
	// structured data must be suppressed.
	GuardsRawOutput() bool

	// GetOutputKey returns the session state key for saving final responses,
	// or "" when responses are not mirrored into state.
	GetOutputKey() string

	// MaxHistoryMessages returns the conversation history window size.
	MaxHistoryMessages() int

	// ToolTimeout bounds a single tool execution; zero means unbounded.
	ToolTimeout() time.Duration

	// ExecuteTool executes a named tool with JSON-encoded arguments.
	ExecuteTool(toolCtx *core.ToolContext, toolName string, args string) (interface{}, error)

	// TransferToAgent hands the remainder of the turn to a named delegate.
	TransferToAgent(turnCtx *core.TurnContext, agentName string) error
}

// RequestProcessor mutates the model request before capability invocation.
type RequestProcessor interface {
	// Name returns the processor's identifier.
	Name() string
	// ProcessRequest modifies the request before the model call.
	ProcessRequest(turnCtx *core.TurnContext, req *model.Request, agent FlowAgent) error
}
