package flow

import (
	"fmt"

	"github.com/KrishimitraAgent/KrishimitraBackend/core"
	internalutil "github.com/KrishimitraAgent/KrishimitraBackend/internal/util"
	"github.com/KrishimitraAgent/KrishimitraBackend/model"
)

// InstructionsProcessor resolves the agent's system prompt and renders state
// templates into it.
type InstructionsProcessor struct{}

// NewInstructionsProcessor creates a new instructions processor.
func NewInstructionsProcessor() *InstructionsProcessor { return &InstructionsProcessor{} }

// Name returns the processor's identifier.
func (p *InstructionsProcessor) Name() string { return "instructions" }

// ProcessRequest sets the request instructions from the agent's resolved
// instruction source, substituting {{.key}} markers with session state.
func (p *InstructionsProcessor) ProcessRequest(turnCtx *core.TurnContext, req *model.Request, agent FlowAgent) error {
	instructions, err := agent.ResolveInstructions(turnCtx)
	if err != nil {
		return fmt.Errorf("failed to resolve instruction: %w", err)
	}

	turnCtx.Logger().Debug("flow.instruction.resolved",
		"agent", agent.GetName(), "length", len(instructions))

	if turnCtx.Session != nil && turnCtx.Session.State != nil {
		rendered, tplErr := internalutil.RenderTemplate(instructions, turnCtx.Session.State)
		if tplErr != nil {
			return fmt.Errorf("failed to render template: %w", tplErr)
		}
		req.Instructions = rendered
	} else {
		req.Instructions = instructions
	}

	return nil
}

// ContentsProcessor assembles the conversation window sent to the capability.
type ContentsProcessor struct{}

// NewContentsProcessor creates a new contents processor.
func NewContentsProcessor() *ContentsProcessor { return &ContentsProcessor{} }

// Name returns the processor's identifier.
func (p *ContentsProcessor) Name() string { return "contents" }

// ProcessRequest adds the trailing window of conversation history to the
// request. The current user input is already part of the persisted history
// because the runner appends it before dispatch.
func (p *ContentsProcessor) ProcessRequest(turnCtx *core.TurnContext, req *model.Request, agent FlowAgent) error {
	var contents []core.Content

	if turnCtx.Session != nil {
		events := turnCtx.Session.GetConversationHistory()
		if max := agent.MaxHistoryMessages(); max > 0 && len(events) > max {
			events = events[len(events)-max:]
		}
		for _, ev := range events {
			if ev.Content != nil && len(ev.Content.Parts) > 0 {
				contents = append(contents, *ev.Content)
			}
		}
	}

	if len(contents) == 0 {
		contents = append(contents, turnCtx.UserContent)
	}

	req.Contents = contents
	return nil
}
