package flow

// SingleAgentFlow executes a standalone agent with no transfers or
// delegation. It wires the default processors for instruction resolution and
// content assembly.
type SingleAgentFlow struct{ *BaseFlow }

// NewSingleAgentFlow creates a new basic single-agent flow.
func NewSingleAgentFlow(agent FlowAgent) *SingleAgentFlow {
	baseFlow := NewBaseFlow(agent)
	baseFlow.AddRequestProcessor(NewInstructionsProcessor())
	baseFlow.AddRequestProcessor(NewContentsProcessor())
	return &SingleAgentFlow{BaseFlow: baseFlow}
}
