// Package agent provides the concrete agent implementations the backend
// composes into a coordinator/delegate hierarchy: the LLM-backed ModelAgent
// and the deterministic StaticAgent.
package agent

import (
	"fmt"
	"sync"

	"github.com/KrishimitraAgent/KrishimitraBackend/core"
)

// BaseAgent bundles shared hierarchy management and identity helpers. Embed
// it in concrete agent implementations and supply a Run method to satisfy the
// core.Agent interface. All exported methods are goroutine-safe.
type BaseAgent struct {
	name        string
	description string
	mu          sync.Mutex
	parent      core.Agent
	subAgents   []core.Agent
}

// NewBaseAgent constructs a BaseAgent with a generated description
// (customizable via SetDescription).
func NewBaseAgent(name string) BaseAgent {
	return BaseAgent{
		name:        name,
		description: fmt.Sprintf("Agent %s", name),
	}
}

// Name returns the human-readable name for this agent.
func (b *BaseAgent) Name() string { return b.name }

// Description returns a detailed description of this agent's purpose. The
// coordinator's routing capability sees this text, so it should state what
// requests the agent handles.
func (b *BaseAgent) Description() string { return b.description }

// SetDescription updates the agent's description.
func (b *BaseAgent) SetDescription(desc string) { b.description = desc }

// SetSubAgents atomically replaces the child agent set, clearing any previous
// parent links then assigning this agent as the parent of each new child. It
// enforces a single-parent rule and rejects self-delegation.
func (b *BaseAgent) SetSubAgents(children ...core.Agent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, child := range children {
		if child.Name() == b.name {
			return fmt.Errorf("agent %q cannot be its own sub-agent", b.name)
		}
	}

	for _, child := range b.subAgents {
		if setter, ok := child.(interface{ setParent(core.Agent) }); ok {
			setter.setParent(nil)
		}
	}
	b.subAgents = nil

	for _, child := range children {
		if setter, ok := child.(interface{ setParent(core.Agent) }); ok {
			setter.setParent(&agentWrapper{b})
		}
		b.subAgents = append(b.subAgents, child)
	}

	return nil
}

// setParent sets the internal parent reference.
func (b *BaseAgent) setParent(p core.Agent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.parent = p
}

// Parent returns the current parent agent or nil if this agent is root.
func (b *BaseAgent) Parent() core.Agent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.parent
}

// SubAgents returns a shallow copy of current child agents for safe iteration.
func (b *BaseAgent) SubAgents() []core.Agent {
	b.mu.Lock()
	defer b.mu.Unlock()
	result := make([]core.Agent, len(b.subAgents))
	copy(result, b.subAgents)
	return result
}

// FindAgent performs a depth-first search over the subtree rooted at this
// agent (including itself) returning the first agent whose Name matches.
// Returns nil if no match is found.
func (b *BaseAgent) FindAgent(name string) core.Agent {
	if b.name == name {
		return &agentWrapper{b}
	}
	for _, child := range b.SubAgents() {
		if child.Name() == name {
			return child
		}
		if found := child.FindAgent(name); found != nil {
			return found
		}
	}
	return nil
}

// agentWrapper wraps BaseAgent to satisfy core.Agent for hierarchy references.
type agentWrapper struct{ *BaseAgent }

// Run reports an error; BaseAgent is not directly executable.
func (w *agentWrapper) Run(_ *core.TurnContext) error {
	return fmt.Errorf("cannot execute BaseAgent directly - embed it in a concrete agent with Run implementation")
}
