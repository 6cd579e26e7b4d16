package agent

import (
	"fmt"

	"github.com/KrishimitraAgent/KrishimitraBackend/core"
)

// Responder produces a deterministic reply for the given user input.
// Implementations must be pure with respect to the turn: same input and
// state, same reply.
type Responder interface {
	Respond(turnCtx *core.TurnContext, input string) (string, error)
}

// ResponderFunc adapts a function to the Responder interface.
type ResponderFunc func(turnCtx *core.TurnContext, input string) (string, error)

// Respond implements Responder.
func (f ResponderFunc) Respond(turnCtx *core.TurnContext, input string) (string, error) {
	return f(turnCtx, input)
}

// StaticAgent is a delegate that answers without a language-model capability.
// It runs its Responder over the user input and emits the result as the
// turn's final response. Used where replies must be rule-driven and
// reproducible, such as the farmer mood check-in.
type StaticAgent struct {
	BaseAgent
	responder Responder
	outputKey string
}

// StaticAgentOptions configures a StaticAgent instance.
type StaticAgentOptions struct {
	OutputKey string
}

// NewStaticAgent creates a deterministic agent around the given responder.
func NewStaticAgent(name string, responder Responder, optFns ...func(o *StaticAgentOptions)) *StaticAgent {
	opts := StaticAgentOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &StaticAgent{
		BaseAgent: NewBaseAgent(name),
		responder: responder,
		outputKey: opts.OutputKey,
	}
}

// Run implements core.Agent. It emits exactly one terminal event carrying the
// responder's reply.
func (a *StaticAgent) Run(turnCtx *core.TurnContext) error {
	turnCtx.Agent = core.AgentInfo{Name: a.Name(), Type: "delegate"}

	if a.responder == nil {
		return fmt.Errorf("agent %q has no responder", a.Name())
	}

	input := latestUserText(turnCtx)
	reply, err := a.responder.Respond(turnCtx, input)
	if err != nil {
		return fmt.Errorf("responder for %q: %w", a.Name(), err)
	}

	if a.outputKey != "" {
		turnCtx.SetState(a.outputKey, reply)
	}

	ev := core.NewEvent(turnCtx.TurnID, a.Name())
	ev.Content = &core.Content{Role: "assistant", Parts: []core.Part{core.TextPart{Text: reply}}}
	complete := true
	ev.TurnComplete = &complete

	if err := turnCtx.EmitEvent(ev); err != nil {
		return err
	}
	return turnCtx.WaitForResume()
}

// latestUserText finds the most recent user utterance, falling back to the
// turn's inbound content.
func latestUserText(turnCtx *core.TurnContext) string {
	if turnCtx.Session != nil {
		history := turnCtx.Session.GetConversationHistory()
		for i := len(history) - 1; i >= 0; i-- {
			ev := history[i]
			if ev.Content != nil && ev.Content.Role == "user" {
				if text := ev.Content.Text(); text != "" {
					return text
				}
			}
		}
	}
	return turnCtx.UserContent.Text()
}
