package flow

import (
	"github.com/KrishimitraAgent/KrishimitraBackend/core"
	"github.com/KrishimitraAgent/KrishimitraBackend/model"
	"github.com/KrishimitraAgent/KrishimitraBackend/tool"
)

// TransferToolInjector exposes the transfer_to_agent tool to agents that may
// delegate. The roster is rebuilt per request from the agent's current
// sub-agent set, so routing descriptions always match the wired hierarchy.
type TransferToolInjector struct{}

// NewTransferToolInjector creates a new transfer tool injector.
func NewTransferToolInjector() *TransferToolInjector { return &TransferToolInjector{} }

// Name returns the processor's identifier.
func (p *TransferToolInjector) Name() string { return "transfer_tool_injector" }

// ProcessRequest appends the transfer tool definition when the agent has
// delegates and transfers are enabled.
func (p *TransferToolInjector) ProcessRequest(turnCtx *core.TurnContext, req *model.Request, agent FlowAgent) error {
	t := transferTool(agent)
	if t == nil {
		return nil
	}
	req.Tools = append(req.Tools, model.ToolDefinition{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		},
	})
	return nil
}

// transferTool builds the transfer_to_agent tool for the agent's current
// roster, or nil when the agent cannot delegate.
func transferTool(agent FlowAgent) tool.Tool {
	if !agent.IsTransferEnabled() {
		return nil
	}
	subAgents := agent.GetSubAgents()
	if len(subAgents) == 0 {
		return nil
	}
	roster := make([]tool.RosterEntry, 0, len(subAgents))
	for _, sub := range subAgents {
		roster = append(roster, tool.RosterEntry{
			Name:        sub.Name(),
			Description: sub.Description(),
		})
	}
	return tool.NewTransferToAgentTool(roster)
}
