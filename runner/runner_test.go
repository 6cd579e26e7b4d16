package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/KrishimitraAgent/KrishimitraBackend/agent"
	"github.com/KrishimitraAgent/KrishimitraBackend/core"
	"github.com/KrishimitraAgent/KrishimitraBackend/model"
	"github.com/KrishimitraAgent/KrishimitraBackend/session"
	"github.com/KrishimitraAgent/KrishimitraBackend/tool"
)

func finalResponse(text string) model.Response {
	return model.Response{
		Content:      core.Content{Role: "assistant", Parts: []core.Part{core.TextPart{Text: text}}},
		FinishReason: "stop",
	}
}

func toolCallResponse(id, name, args string) model.Response {
	return model.Response{
		Content: core.Content{Role: "assistant", Parts: []core.Part{
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: id, Name: name, Arguments: args}},
		}},
		FinishReason: "tool_calls",
	}
}

func TestRunner_FinalizedTurnPersistsOutput(t *testing.T) {
	llm := model.NewMockModel("worker")
	llm.Enqueue(finalResponse("Onion is trading at 1450 per quintal in Pune."))

	a := agent.NewModelAgent("crop_price_agent", llm, func(o *agent.ModelAgentOptions) {
		o.OutputKey = "last_price_summary"
	})

	sessions := session.NewInMemorySessionStore()
	r := New(a, func(o *Options) { o.SessionStore = sessions })

	result, err := r.RunTurn(context.Background(), "farmer-1", "s1", core.NewUserText("onion price in pune"))
	assert.NoError(t, err)
	assert.Equal(t, StatusFinalized, result.Status)
	assert.Contains(t, result.FinalText, "1450")
	assert.NotEmpty(t, result.TurnID)

	sess, err := sessions.Get("farmer-1", "s1")
	assert.NoError(t, err)

	v, ok := sess.GetState("last_price_summary")
	assert.True(t, ok, "output key must be persisted")
	assert.Equal(t, result.FinalText, v)

	// User event first, final response last, all bound to the turn.
	events := sess.GetEvents()
	if assert.Len(t, events, 2) {
		assert.Equal(t, "user", events[0].Content.Role)
		assert.True(t, events[1].IsFinalResponse())
		assert.Equal(t, result.TurnID, events[0].TurnID)
		assert.Equal(t, result.TurnID, events[1].TurnID)
	}
}

func TestRunner_ToolLoopEmitsPairedEvents(t *testing.T) {
	llm := model.NewMockModel("worker")
	llm.Enqueue(toolCallResponse("fc-1", "lookup", `{"q":"onion"}`))
	llm.Enqueue(finalResponse("Found one record."))

	lookup := tool.NewFunctionTool("lookup", "test lookup",
		map[string]any{"type": "object", "properties": map[string]any{
			"q": map[string]any{"type": "string"},
		}},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			return map[string]any{"count": 1}, nil
		})

	a := agent.NewModelAgent("crop_price_agent", llm, func(o *agent.ModelAgentOptions) {
		o.Tools = map[string]tool.Tool{"lookup": lookup}
	})

	r := New(a)
	result, err := r.RunTurn(context.Background(), "farmer-1", "s1", core.NewUserText("onion price"))
	assert.NoError(t, err)
	assert.Equal(t, StatusFinalized, result.Status)
	assert.Equal(t, 2, llm.Calls())

	// Delivered order: call event, response event, final.
	if assert.Len(t, result.Events, 3) {
		assert.Len(t, result.Events[0].GetFunctionCalls(), 1)
		responses := result.Events[1].GetFunctionResponses()
		if assert.Len(t, responses, 1) {
			assert.Equal(t, "fc-1", responses[0].ID)
		}
		assert.True(t, result.Events[2].IsTerminal())
	}
}

func TestRunner_EndTurnToolTerminatesWithMetadata(t *testing.T) {
	llm := model.NewMockModel("worker")
	llm.Enqueue(toolCallResponse("fc-1", "store_record", `{"text":"analysis"}`))

	store := tool.NewFunctionTool("store_record", "store then halt",
		map[string]any{"type": "object", "properties": map[string]any{
			"text": map[string]any{"type": "string"},
		}},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			toolCtx.EndTurn(map[string]string{"doc_id": "abc123", "status": "stored"})
			return map[string]any{"doc_id": "abc123"}, nil
		})

	a := agent.NewModelAgent("crop_disease_agent", llm, func(o *agent.ModelAgentOptions) {
		o.Tools = map[string]tool.Tool{"store_record": store}
	})

	r := New(a)
	result, err := r.RunTurn(context.Background(), "farmer-1", "s1", core.NewUserText("my crop is sick"))
	assert.NoError(t, err)

	assert.Equal(t, StatusTerminated, result.Status)
	assert.Equal(t, "abc123", result.Metadata["doc_id"])
	assert.Equal(t, "stored", result.Metadata["status"])
	assert.Empty(t, result.FinalText)

	// The capability gets no say after the halt.
	assert.Equal(t, 1, llm.Calls())

	terminals := 0
	for _, ev := range result.Events {
		if ev.IsTerminal() {
			terminals++
		}
	}
	assert.Equal(t, 1, terminals)
}

func TestRunner_TransferRoutesToDelegate(t *testing.T) {
	router := model.NewMockModel("router")
	router.Enqueue(toolCallResponse("fc-1", "transfer_to_agent", `{"agent_name":"greetor_agent"}`))

	workerLLM := model.NewMockModel("worker")
	workerLLM.Enqueue(finalResponse("Namaste! How can I help your farm today?"))

	greetor := agent.NewModelAgent("greetor_agent", workerLLM)
	greetor.SetDescription("Greets the farmer")

	coordinator := agent.NewModelAgent("farming_coordinator", router, func(o *agent.ModelAgentOptions) {
		o.AllowTransfer = true
	})
	assert.NoError(t, coordinator.SetSubAgents(greetor))

	r := New(coordinator)
	result, err := r.RunTurn(context.Background(), "farmer-1", "s1", core.NewUserText("hello"))
	assert.NoError(t, err)

	assert.Equal(t, StatusFinalized, result.Status)
	assert.Contains(t, result.FinalText, "Namaste")
	assert.Equal(t, 1, router.Calls(), "coordinator speaks once, then hands over")

	// The delegate authors the terminal event.
	last := result.Events[len(result.Events)-1]
	assert.Equal(t, "greetor_agent", last.Author)
}

func TestRunner_CapabilityFailureAborts(t *testing.T) {
	a := agent.NewModelAgent("crop_price_agent", model.FailingModel{Message: "backend down"})

	sessions := session.NewInMemorySessionStore()
	r := New(a, func(o *Options) { o.SessionStore = sessions })

	result, err := r.RunTurn(context.Background(), "farmer-1", "s1", core.NewUserText("hi"))
	assert.NoError(t, err)

	assert.Equal(t, StatusAborted, result.Status)
	assert.Equal(t, core.ConditionCapabilityUnavailable, result.Condition)

	// The abort event is persisted alongside the user event.
	sess, _ := sessions.Get("farmer-1", "s1")
	events := sess.GetEvents()
	if assert.Len(t, events, 2) {
		assert.True(t, events[1].IsAbort())
	}
}

func TestRunner_FatalToolErrorAborts(t *testing.T) {
	llm := model.NewMockModel("worker")
	llm.Enqueue(toolCallResponse("fc-1", "store_record", `{}`))

	store := tool.NewFunctionTool("store_record", "store then halt",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			return nil, tool.NewToolError("store_record", "mongo down", "PERSISTENCE_ERROR")
		})

	a := agent.NewModelAgent("crop_disease_agent", llm, func(o *agent.ModelAgentOptions) {
		o.Tools = map[string]tool.Tool{"store_record": store}
	})

	r := New(a)
	result, err := r.RunTurn(context.Background(), "farmer-1", "s1", core.NewUserText("my crop is sick"))
	assert.NoError(t, err)

	assert.Equal(t, StatusAborted, result.Status)
	assert.Equal(t, core.ConditionPersistenceUnavailable, result.Condition)
}

type blockingModel struct{}

func (blockingModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	respCh := make(chan model.Response)
	errCh := make(chan error, 1)
	go func() {
		defer close(respCh)
		defer close(errCh)
		<-ctx.Done()
		errCh <- ctx.Err()
	}()
	return respCh, errCh
}

func (blockingModel) Info() model.Info {
	return model.Info{Name: "blocking", Provider: "mock"}
}

func TestRunner_TurnTimeoutAborts(t *testing.T) {
	a := agent.NewModelAgent("crop_price_agent", blockingModel{})

	r := New(a, func(o *Options) { o.TurnTimeout = 50 * time.Millisecond })

	result, err := r.RunTurn(context.Background(), "farmer-1", "s1", core.NewUserText("hi"))
	assert.NoError(t, err)

	assert.Equal(t, StatusAborted, result.Status)
	assert.Equal(t, core.ConditionTimeout, result.Condition)
}

func TestRunner_CancelAbortsTurn(t *testing.T) {
	a := agent.NewModelAgent("crop_price_agent", blockingModel{})
	r := New(a)

	turnID, events, err := r.Run(context.Background(), "farmer-1", "s1", core.NewUserText("hi"))
	assert.NoError(t, err)
	assert.NoError(t, r.Cancel(turnID))

	var terminal *core.Event
	for ev := range events {
		if ev.IsTerminal() {
			e := ev
			terminal = &e
		}
	}
	if assert.NotNil(t, terminal) {
		assert.True(t, terminal.IsAbort())
	}

	assert.Error(t, r.Cancel("no-such-turn"))
}
