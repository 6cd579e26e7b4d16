package flow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/KrishimitraAgent/KrishimitraBackend/core"
	"github.com/KrishimitraAgent/KrishimitraBackend/model"
	"github.com/KrishimitraAgent/KrishimitraBackend/tool"
)

type fakeAgent struct {
	name            string
	llm             model.Model
	instructions    string
	tools           map[string]tool.Tool
	subAgents       []core.Agent
	transferEnabled bool
	guardRawOutput  bool
	outputKey       string
	maxHistory      int
}

func (a *fakeAgent) GetName() string          { return a.name }
func (a *fakeAgent) GetLLM() model.Model      { return a.llm }
func (a *fakeAgent) GetTools() map[string]tool.Tool {
	return a.tools
}
func (a *fakeAgent) GetSubAgents() []core.Agent { return a.subAgents }
func (a *fakeAgent) IsTransferEnabled() bool    { return a.transferEnabled }
func (a *fakeAgent) GuardsRawOutput() bool      { return a.guardRawOutput }
func (a *fakeAgent) GetOutputKey() string       { return a.outputKey }
func (a *fakeAgent) MaxHistoryMessages() int    { return a.maxHistory }
func (a *fakeAgent) ToolTimeout() time.Duration { return 0 }

func (a *fakeAgent) ResolveInstructions(_ *core.TurnContext) (string, error) {
	return a.instructions, nil
}

func (a *fakeAgent) ExecuteTool(toolCtx *core.ToolContext, toolName, args string) (interface{}, error) {
	t, ok := a.tools[toolName]
	if !ok {
		return nil, nil
	}
	return t.Call(toolCtx, map[string]any{})
}

func (a *fakeAgent) TransferToAgent(_ *core.TurnContext, _ string) error { return nil }

// fakeDelegate is a minimal core.Agent child for roster tests.
type fakeDelegate struct {
	name        string
	description string
}

func (d *fakeDelegate) Name() string                      { return d.name }
func (d *fakeDelegate) Description() string               { return d.description }
func (d *fakeDelegate) Run(_ *core.TurnContext) error     { return nil }
func (d *fakeDelegate) SetSubAgents(_ ...core.Agent) error { return nil }
func (d *fakeDelegate) SubAgents() []core.Agent           { return nil }
func (d *fakeDelegate) Parent() core.Agent                { return nil }
func (d *fakeDelegate) FindAgent(_ string) core.Agent     { return nil }

func newFlowTurnContext(sess *core.Session) *core.TurnContext {
	return core.NewTurnContext(
		context.Background(),
		"farmer-1", "s1", "turn-1",
		core.AgentInfo{},
		core.NewUserText("hello"),
		nil, nil,
		sess,
		nil, nil, nil,
	)
}

func TestInstructionsProcessor_RendersState(t *testing.T) {
	sess := core.NewSession("farmer-1", "s1")
	sess.SetState("farmer_mood", "hopeful")

	a := &fakeAgent{
		name:         "farmer_mood_agent",
		instructions: "The farmer's last recorded mood was {{.farmer_mood}}.",
	}

	req := new(model.Request)
	err := NewInstructionsProcessor().ProcessRequest(newFlowTurnContext(sess), req, a)
	assert.NoError(t, err)
	assert.Equal(t, "The farmer's last recorded mood was hopeful.", req.Instructions)
}

func TestInstructionsProcessor_PlainTextUnchanged(t *testing.T) {
	a := &fakeAgent{name: "greetor_agent", instructions: "You greet farmers warmly."}

	req := new(model.Request)
	err := NewInstructionsProcessor().ProcessRequest(newFlowTurnContext(core.NewSession("farmer-1", "s1")), req, a)
	assert.NoError(t, err)
	assert.Equal(t, "You greet farmers warmly.", req.Instructions)
}

func TestContentsProcessor_WindowsHistory(t *testing.T) {
	sess := core.NewSession("farmer-1", "s1")
	for i := 0; i < 6; i++ {
		sess.AddEvent(core.NewMessageEvent("greetor_agent", "reply"))
	}
	content := core.NewUserText("latest question")
	sess.AddEvent(core.NewUserContentEvent("turn-1", &content))

	a := &fakeAgent{name: "greetor_agent", maxHistory: 3}

	req := new(model.Request)
	err := NewContentsProcessor().ProcessRequest(newFlowTurnContext(sess), req, a)
	assert.NoError(t, err)

	// Trailing window, newest last.
	if assert.Len(t, req.Contents, 3) {
		assert.Equal(t, "user", req.Contents[2].Role)
		assert.Equal(t, "latest question", req.Contents[2].Text())
	}
}

func TestContentsProcessor_FallsBackToUserContent(t *testing.T) {
	a := &fakeAgent{name: "greetor_agent", maxHistory: 20}

	req := new(model.Request)
	err := NewContentsProcessor().ProcessRequest(newFlowTurnContext(core.NewSession("farmer-1", "s1")), req, a)
	assert.NoError(t, err)

	if assert.Len(t, req.Contents, 1) {
		assert.Equal(t, "hello", req.Contents[0].Text())
	}
}

func TestTransferToolInjector(t *testing.T) {
	coordinator := &fakeAgent{
		name:            "farming_coordinator",
		transferEnabled: true,
		subAgents: []core.Agent{
			&fakeDelegate{name: "greetor_agent", description: "Greets farmers"},
			&fakeDelegate{name: "farmer_mood_agent", description: "Handles mood check-ins"},
		},
	}

	req := new(model.Request)
	err := NewTransferToolInjector().ProcessRequest(newFlowTurnContext(nil), req, coordinator)
	assert.NoError(t, err)
	if assert.Len(t, req.Tools, 1) {
		assert.Equal(t, "transfer_to_agent", req.Tools[0].Function.Name)
		assert.Contains(t, req.Tools[0].Function.Description, "greetor_agent")
		// Children that answer without a model loop still appear in the roster.
		assert.Contains(t, req.Tools[0].Function.Description, "farmer_mood_agent")
	}

	// Leaf agents get nothing injected.
	req = new(model.Request)
	leaf := &fakeAgent{name: "greetor_agent"}
	assert.NoError(t, NewTransferToolInjector().ProcessRequest(newFlowTurnContext(nil), req, leaf))
	assert.Empty(t, req.Tools)

	// Transfer enabled but no delegates wired: nothing to offer.
	req = new(model.Request)
	lonely := &fakeAgent{name: "farming_coordinator", transferEnabled: true}
	assert.NoError(t, NewTransferToolInjector().ProcessRequest(newFlowTurnContext(nil), req, lonely))
	assert.Empty(t, req.Tools)
}

func TestSelector(t *testing.T) {
	s := NewSelector()

	leaf := &fakeAgent{name: "greetor_agent"}
	_, ok := s.SelectFlow(leaf).(*SingleAgentFlow)
	assert.True(t, ok, "leaf agents run the single-agent flow")

	coordinator := &fakeAgent{
		name:            "farming_coordinator",
		transferEnabled: true,
		subAgents:       []core.Agent{&fakeDelegate{name: "greetor_agent"}},
	}
	_, ok = s.SelectFlow(coordinator).(*MultiAgentFlow)
	assert.True(t, ok, "delegating agents run the multi-agent flow")
}

func TestLooksLikeRawData(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{`{"records": [{"commodity":"Onion"}]}`, true},
		{`[{"commodity":"Onion"}]`, true},
		{`Here is the raw payload: "records" follows`, true},
		{"Onion is trading at 1450 per quintal in Pune.", false},
		{"", false},
		{"   ", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, looksLikeRawData(tc.text), "text: %q", tc.text)
	}
}
