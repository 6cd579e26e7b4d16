package flow

// Selector determines which flow to use based on agent capabilities.
type Selector struct{}

// NewSelector creates a new flow selector.
func NewSelector() *Selector { return &Selector{} }

// SelectFlow chooses the appropriate flow for the given agent:
//   - SingleAgentFlow for leaf agents without transfers or sub-agents
//   - MultiAgentFlow for agents with transfer capabilities or sub-agents
func (s *Selector) SelectFlow(agent FlowAgent) Flow {
	if !agent.IsTransferEnabled() && len(agent.GetSubAgents()) == 0 {
		return NewSingleAgentFlow(agent)
	}
	return NewMultiAgentFlow(agent)
}
