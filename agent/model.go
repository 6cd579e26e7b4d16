package agent

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/KrishimitraAgent/KrishimitraBackend/core"
	"github.com/KrishimitraAgent/KrishimitraBackend/flow"
	"github.com/KrishimitraAgent/KrishimitraBackend/model"
	"github.com/KrishimitraAgent/KrishimitraBackend/tool"
)

// ModelAgentOptions configures a ModelAgent instance. Use functional options
// with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	Instruction        Instruction
	ToolTimeout        time.Duration
	OutputKey          string
	MaxHistoryMessages int
	AllowTransfer      bool
	GuardRawOutput     bool
	Tools              map[string]tool.Tool
}

// ModelAgent integrates with a language-model capability to process natural
// language turns. It supports function calling with registered tools,
// transfer to delegates, session state output keys and template-based prompt
// customization. ModelAgent embeds BaseAgent for hierarchy management.
type ModelAgent struct {
	BaseAgent
	llm                model.Model
	instruction        Instruction
	tools              map[string]tool.Tool
	toolTimeout        time.Duration
	outputKey          string
	maxHistoryMessages int
	allowTransfer      bool
	guardRawOutput     bool
}

// NewModelAgent creates a new model-backed agent. Defaults: 15s tool timeout,
// 20-message history window, transfers disabled (leaf delegate).
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instruction:        NewInstructionFromText(fmt.Sprintf("You are %s, a helpful assistant.", name)),
		ToolTimeout:        15 * time.Second,
		MaxHistoryMessages: 20,
		Tools:              make(map[string]tool.Tool),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &ModelAgent{
		BaseAgent:          NewBaseAgent(name),
		llm:                llm,
		instruction:        opts.Instruction,
		toolTimeout:        opts.ToolTimeout,
		outputKey:          opts.OutputKey,
		maxHistoryMessages: opts.MaxHistoryMessages,
		allowTransfer:      opts.AllowTransfer,
		guardRawOutput:     opts.GuardRawOutput,
		tools:              opts.Tools,
	}
}

// RegisterTool adds a function tool to the agent's capability set.
func (a *ModelAgent) RegisterTool(t tool.Tool) {
	a.tools[t.Name()] = t
}

// RegisterTools adds multiple tools to the agent's capability set.
func (a *ModelAgent) RegisterTools(tools ...tool.Tool) {
	for _, t := range tools {
		a.RegisterTool(t)
	}
}

// HasTool checks if a tool is registered with the agent.
func (a *ModelAgent) HasTool(name string) bool {
	_, exists := a.tools[name]
	return exists
}

// GetName returns the agent's display name.
func (a *ModelAgent) GetName() string { return a.Name() }

// GetLLM returns the language model capability.
func (a *ModelAgent) GetLLM() model.Model { return a.llm }

// GetTools returns a copy of the registered tools.
func (a *ModelAgent) GetTools() map[string]tool.Tool {
	tools := make(map[string]tool.Tool, len(a.tools))
	for name, t := range a.tools {
		tools[name] = t
	}
	return tools
}

// GetSubAgents returns the transferable child agents.
func (a *ModelAgent) GetSubAgents() []core.Agent {
	return a.SubAgents()
}

// IsTransferEnabled reports whether the agent may hand turns to delegates.
func (a *ModelAgent) IsTransferEnabled() bool { return a.allowTransfer }

// GuardsRawOutput reports whether raw structured payloads in final responses
// are suppressed.
func (a *ModelAgent) GuardsRawOutput() bool { return a.guardRawOutput }

// GetOutputKey returns the session state key for saving final responses.
func (a *ModelAgent) GetOutputKey() string { return a.outputKey }

// MaxHistoryMessages returns the conversation history window size.
func (a *ModelAgent) MaxHistoryMessages() int { return a.maxHistoryMessages }

// ToolTimeout bounds a single tool execution.
func (a *ModelAgent) ToolTimeout() time.Duration { return a.toolTimeout }

// ResolveInstructions produces the final system prompt by resolving static or
// dynamic instruction sources.
func (a *ModelAgent) ResolveInstructions(turnCtx *core.TurnContext) (string, error) {
	return a.instruction.Resolve(turnCtx)
}

// ExecuteTool deserializes JSON arguments and invokes the named tool,
// returning its result or an error if the tool is unknown or rejects the
// arguments.
func (a *ModelAgent) ExecuteTool(toolCtx *core.ToolContext, toolName string, args string) (interface{}, error) {
	t, exists := a.tools[toolName]
	if !exists {
		return nil, fmt.Errorf("tool %s not found", toolName)
	}

	argsMap := make(map[string]interface{})
	if args != "" {
		if err := json.Unmarshal([]byte(args), &argsMap); err != nil {
			return nil, fmt.Errorf("failed to unmarshal args: %w", err)
		}
	}

	return t.Call(toolCtx, argsMap)
}

// TransferToAgent delegates the remainder of the turn to a named descendant
// agent using the same turn context (shared session state, emit channel). The
// delegate emits its own terminal event.
func (a *ModelAgent) TransferToAgent(turnCtx *core.TurnContext, agentName string) error {
	if agentName == a.Name() {
		return fmt.Errorf("agent %q cannot transfer to itself", a.Name())
	}
	targetAgent := a.FindAgent(agentName)
	if targetAgent == nil {
		return fmt.Errorf("agent %q not found in hierarchy", agentName)
	}

	turnCtx.Logger().Info("agent.transfer",
		"from_agent", a.Name(), "to_agent", agentName, "turn", turnCtx.TurnID)

	return targetAgent.Run(turnCtx)
}

// Run implements core.Agent. It selects the flow matching the agent's
// capabilities and drives it to the turn's terminal event.
func (a *ModelAgent) Run(turnCtx *core.TurnContext) error {
	turnCtx.Agent = core.AgentInfo{Name: a.Name(), Type: agentType(a)}

	turnCtx.Logger().Debug("agent.run.start", "agent", a.Name(), "turn", turnCtx.TurnID)

	selector := flow.NewSelector()
	fl := selector.SelectFlow(a)

	if err := fl.Run(turnCtx); err != nil {
		turnCtx.Logger().Error("agent.run.error", "agent", a.Name(), "error", err.Error())
		return err
	}

	turnCtx.Logger().Debug("agent.run.complete", "agent", a.Name(), "turn", turnCtx.TurnID)
	return nil
}

func agentType(a *ModelAgent) string {
	if a.allowTransfer || len(a.SubAgents()) > 0 {
		return "coordinator"
	}
	return "delegate"
}
