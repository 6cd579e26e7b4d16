package core

// Agent is the contract every conversational capability in the backend
// implements, from the LLM-backed coordinator down to the deterministic mood
// responder.
//
// Agents receive input through a TurnContext, process it, and emit events to
// communicate results back to the runner. The sub-agent methods support the
// coordinator/delegate hierarchy: the coordinator is the single root, and
// leaf delegates declare empty sub-agent sets. An agent must never appear in
// its own sub-agent set.
//
// Implementations must respect context cancellation and emit at most one
// terminal event per turn.
type Agent interface {
	Name() string
	Description() string
	Run(turnCtx *TurnContext) error
	SetSubAgents(children ...Agent) error
	SubAgents() []Agent
	Parent() Agent
	FindAgent(name string) Agent
}

// AgentInfo carries identifying details about an agent used in contexts and
// events. Name is the external identifier; Type categorizes the
// implementation (e.g. "coordinator", "delegate").
type AgentInfo struct{ Name, Type string }
