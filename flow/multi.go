package flow

// MultiAgentFlow drives an agent that may perform tool calls and transfer
// control to delegates. It extends the single-agent pipeline with dynamic
// injection of the transfer tool.
type MultiAgentFlow struct{ *BaseFlow }

// NewMultiAgentFlow creates a new multi-agent flow with default processors.
func NewMultiAgentFlow(agent FlowAgent) *MultiAgentFlow {
	baseFlow := NewBaseFlow(agent)
	baseFlow.AddRequestProcessor(NewInstructionsProcessor())
	baseFlow.AddRequestProcessor(NewContentsProcessor())
	baseFlow.AddRequestProcessor(NewTransferToolInjector())
	return &MultiAgentFlow{BaseFlow: baseFlow}
}
