package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KrishimitraAgent/KrishimitraBackend/core"
	"github.com/KrishimitraAgent/KrishimitraBackend/model"
	"github.com/KrishimitraAgent/KrishimitraBackend/tool"
)

// defaultMaxModelCalls bounds the capability-call loop of one turn so a
// looping capability cannot spin forever.
const defaultMaxModelCalls = 8

// guardedFallbackText replaces a final response that leaked raw structured
// data instead of a narrated summary.
const guardedFallbackText = "I found the data you asked for but could not put it into words this time. Please ask again."

// BaseFlow is the request -> model -> (tool loop) cycle shared by all flows.
// Events are emitted through the TurnContext and each emission waits for the
// runner's resume signal before the flow proceeds.
type BaseFlow struct {
	agent             FlowAgent
	requestProcessors []RequestProcessor
	maxModelCalls     int
}

// NewBaseFlow creates a flow around the given agent with no processors.
func NewBaseFlow(agent FlowAgent) *BaseFlow {
	return &BaseFlow{agent: agent, maxModelCalls: defaultMaxModelCalls}
}

// AddRequestProcessor appends a request processor; registration order defines
// execution order.
func (f *BaseFlow) AddRequestProcessor(processor RequestProcessor) {
	f.requestProcessors = append(f.requestProcessors, processor)
}

// Run drives model calls until a terminal event has been emitted or the call
// budget is exhausted. A non-nil error means no terminal event was emitted
// and the caller must abort the turn.
func (f *BaseFlow) Run(turnCtx *core.TurnContext) error {
	limit := f.maxModelCalls
	if limit <= 0 {
		limit = defaultMaxModelCalls
	}
	for call := 0; call < limit; call++ {
		done, err := f.runOnce(turnCtx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return core.NewTurnError(core.ConditionCapabilityUnavailable,
		fmt.Errorf("model call limit reached after %d calls", limit))
}

// runOnce performs one model call including any requested tool executions.
// It reports done=true once a terminal event has been emitted.
func (f *BaseFlow) runOnce(turnCtx *core.TurnContext) (bool, error) {
	// Reload so request processors see everything persisted so far,
	// including tool responses from the previous iteration.
	if err := turnCtx.RefreshSession(); err != nil {
		return false, core.NewTurnError(core.ConditionPersistenceUnavailable, err)
	}

	req := new(model.Request)
	for _, processor := range f.requestProcessors {
		if err := processor.ProcessRequest(turnCtx, req, f.agent); err != nil {
			return false, core.NewTurnError(core.ConditionCapabilityUnavailable,
				fmt.Errorf("request processor %s: %w", processor.Name(), err))
		}
	}

	for _, t := range f.agent.GetTools() {
		req.Tools = append(req.Tools, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}

	resp, err := f.generate(turnCtx, *req)
	if err != nil {
		return false, err
	}

	ev := core.NewEvent(turnCtx.TurnID, f.agent.GetName())
	content := resp.Content
	ev.Content = &content

	fnCalls := ev.GetFunctionCalls()
	if len(fnCalls) == 0 {
		return true, f.finalize(turnCtx, ev)
	}

	// Emit the assistant event carrying the calls before executing them so
	// the persisted stream shows the request/response pairing in order.
	if err := turnCtx.EmitEvent(ev); err != nil {
		return false, err
	}
	if err := turnCtx.WaitForResume(); err != nil {
		return false, err
	}

	for _, fnCall := range fnCalls {
		done, err := f.executeCall(turnCtx, fnCall)
		if done || err != nil {
			return done, err
		}
	}
	return false, nil
}

// generate performs a single capability invocation.
func (f *BaseFlow) generate(turnCtx *core.TurnContext, req model.Request) (model.Response, error) {
	respCh, errCh := f.agent.GetLLM().Generate(turnCtx.Context, req)

	select {
	case resp, ok := <-respCh:
		if !ok {
			if err, ok := <-errCh; ok && err != nil {
				return model.Response{}, core.NewTurnError(conditionFor(err), err)
			}
			return model.Response{}, core.NewTurnError(core.ConditionCapabilityUnavailable,
				fmt.Errorf("capability returned no response"))
		}
		return resp, nil
	case err, ok := <-errCh:
		if ok && err != nil {
			return model.Response{}, core.NewTurnError(conditionFor(err), err)
		}
		resp, ok := <-respCh
		if !ok {
			return model.Response{}, core.NewTurnError(core.ConditionCapabilityUnavailable,
				fmt.Errorf("capability returned no response"))
		}
		return resp, nil
	case <-turnCtx.Done():
		return model.Response{}, core.NewTurnError(conditionFor(turnCtx.Err()), turnCtx.Err())
	}
}

// finalize emits the turn's final assistant response.
func (f *BaseFlow) finalize(turnCtx *core.TurnContext, ev core.Event) error {
	text := ""
	if ev.Content != nil {
		text = ev.Content.Text()
	}

	if f.agent.GuardsRawOutput() && looksLikeRawData(text) {
		turnCtx.Logger().Warn("flow.output.guarded", "agent", f.agent.GetName(), "length", len(text))
		text = guardedFallbackText
		ev.Content = &core.Content{Role: "assistant", Parts: []core.Part{core.TextPart{Text: text}}}
	}

	if key := f.agent.GetOutputKey(); key != "" && text != "" {
		turnCtx.SetState(key, text)
	}

	complete := true
	ev.TurnComplete = &complete
	if err := turnCtx.EmitEvent(ev); err != nil {
		return err
	}
	return turnCtx.WaitForResume()
}

// executeCall runs one requested tool and emits its function-response event.
// It reports done=true when the tool terminated the turn or transferred it.
func (f *BaseFlow) executeCall(turnCtx *core.TurnContext, fnCall core.FunctionCall) (bool, error) {
	execCtx := turnCtx
	if d := f.agent.ToolTimeout(); d > 0 {
		ctx, cancel := context.WithTimeout(turnCtx.Context, d)
		defer cancel()
		execCtx = turnCtx.Clone()
		execCtx.Context = ctx
	}
	toolCtx := core.NewToolContext(execCtx, fnCall.ID)

	start := time.Now()
	var result interface{}
	var err error
	if t := transferTool(f.agent); t != nil && fnCall.Name == t.Name() {
		// Injected per request, never part of the agent's own registry.
		var args map[string]interface{}
		if args, err = decodeArgs(fnCall.Arguments); err == nil {
			result, err = t.Call(toolCtx, args)
		}
	} else {
		result, err = f.agent.ExecuteTool(toolCtx, fnCall.Name, fnCall.Arguments)
	}
	turnCtx.Logger().Info("flow.tool.executed",
		"agent", f.agent.GetName(),
		"tool", fnCall.Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil)

	if err != nil {
		var toolErr *tool.ToolError
		if errors.As(err, &toolErr) && toolErr.IsFatal() {
			return false, core.NewTurnError(core.ConditionPersistenceUnavailable, toolErr)
		}
		// Non-fatal failures go back to the capability as a failed result it
		// can narrate or retry.
	}

	respEv := core.NewFunctionResponseEvent(f.agent.GetName(), fnCall.ID, fnCall.Name, result, err)
	respEv.TurnID = turnCtx.TurnID
	toolCtx.ApplyActions(&respEv)

	if err := turnCtx.EmitEvent(respEv); err != nil {
		return false, err
	}
	if err := turnCtx.WaitForResume(); err != nil {
		return false, err
	}

	if respEv.IsEndTurnSignal() {
		return true, nil
	}
	if target := respEv.Actions.TransferToAgent; target != nil {
		return true, f.agent.TransferToAgent(turnCtx, *target)
	}
	return false, nil
}

func decodeArgs(raw string) (map[string]interface{}, error) {
	args := make(map[string]interface{})
	if raw == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal args: %w", err)
	}
	return args, nil
}

func conditionFor(err error) core.Condition {
	if errors.Is(err, context.DeadlineExceeded) {
		return core.ConditionTimeout
	}
	return core.ConditionCapabilityUnavailable
}

// looksLikeRawData heuristically detects unprocessed structured payloads in a
// final response.
func looksLikeRawData(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return true
	}
	return strings.Contains(trimmed, `"records"`)
}
