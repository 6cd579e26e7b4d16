package tool

import (
	"fmt"

	"github.com/KrishimitraAgent/KrishimitraBackend/core"
)

// transferToAgentTool requests orchestration transfer to a named delegate.
// The coordinator's flow injects it with the current delegate roster so the
// capability can route by intent.
type transferToAgentTool struct {
	roster []RosterEntry
}

// RosterEntry names one transferable delegate with its routing description.
type RosterEntry struct {
	Name        string
	Description string
}

// NewTransferToAgentTool constructs the transfer tool for the given roster.
func NewTransferToAgentTool(roster []RosterEntry) Tool {
	return &transferToAgentTool{roster: roster}
}

func (t *transferToAgentTool) Name() string { return "transfer_to_agent" }

func (t *transferToAgentTool) Description() string {
	desc := "Hand the conversation to the sub-agent best suited for the request. Available agents:"
	for _, e := range t.roster {
		desc += fmt.Sprintf("\n- %s: %s", e.Name, e.Description)
	}
	return desc
}

func (t *transferToAgentTool) Parameters() map[string]any {
	names := make([]string, 0, len(t.roster))
	for _, e := range t.roster {
		names = append(names, e.Name)
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"agent_name": map[string]any{
				"type":        "string",
				"description": "Target agent name",
				"enum":        names,
			},
		},
		"required": []string{"agent_name"},
	}
}

func (t *transferToAgentTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	raw, ok := args["agent_name"]
	if !ok {
		return nil, fmt.Errorf("missing required field 'agent_name'")
	}
	agentName, ok := raw.(string)
	if !ok || agentName == "" {
		return nil, fmt.Errorf("field 'agent_name' must be a non-empty string")
	}
	for _, e := range t.roster {
		if e.Name == agentName {
			tc.TransferToAgent(agentName)
			return map[string]any{"transferred": true, "agent_name": agentName}, nil
		}
	}
	return nil, fmt.Errorf("unknown agent %q", agentName)
}
