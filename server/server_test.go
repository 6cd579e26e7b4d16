package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KrishimitraAgent/KrishimitraBackend/agent"
	"github.com/KrishimitraAgent/KrishimitraBackend/core"
	"github.com/KrishimitraAgent/KrishimitraBackend/model"
	"github.com/KrishimitraAgent/KrishimitraBackend/runner"
)

func newTestServer(llm model.Model) *Server {
	a := agent.NewModelAgent("greetor_agent", llm)
	r := runner.New(a)
	return New(":0", r, nil)
}

func postChat(t *testing.T, s *Server, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	s.handleChat(rec, req)
	return rec
}

func TestHandleChat_Success(t *testing.T) {
	llm := model.NewMockModel("worker")
	llm.Enqueue(model.Response{
		Content:      core.Content{Role: "assistant", Parts: []core.Part{core.TextPart{Text: "Namaste!"}}},
		FinishReason: "stop",
	})

	rec := postChat(t, newTestServer(llm), ChatRequest{
		InputMessage: "hello",
		UserID:       "farmer-1",
		SessionID:    "s1",
	})

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(runner.StatusFinalized), resp.Status)
	assert.Equal(t, "Namaste!", resp.Response)
	assert.NotEmpty(t, resp.TurnID)
}

func TestHandleChat_ValidationFailures(t *testing.T) {
	s := newTestServer(model.NewMockModel("worker"))

	cases := []struct {
		name string
		req  ChatRequest
	}{
		{"missing user_id", ChatRequest{InputMessage: "hi", SessionID: "s1"}},
		{"missing session_id", ChatRequest{InputMessage: "hi", UserID: "farmer-1"}},
		{"no message or image", ChatRequest{UserID: "farmer-1", SessionID: "s1"}},
		{"image without mime type", ChatRequest{UserID: "farmer-1", SessionID: "s1", Image: "aGVsbG8="}},
		{"image not base64", ChatRequest{UserID: "farmer-1", SessionID: "s1", Image: "%%%", ImageMimeType: "image/jpeg"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postChat(t, s, tc.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp map[string]string
			assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "validation_error", resp["reason"])
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestHandleChat_InvalidJSON(t *testing.T) {
	s := newTestServer(model.NewMockModel("worker"))

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	s.handleChat(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChat_MethodNotAllowed(t *testing.T) {
	s := newTestServer(model.NewMockModel("worker"))

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	rec := httptest.NewRecorder()
	s.handleChat(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleChat_AbortedTurn(t *testing.T) {
	s := newTestServer(model.FailingModel{Message: "backend down"})

	rec := postChat(t, s, ChatRequest{
		InputMessage: "hello",
		UserID:       "farmer-1",
		SessionID:    "s1",
	})

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp map[string]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(core.ConditionCapabilityUnavailable), resp["reason"])
}

func TestHandleChat_TerminatedTurnCarriesMetadata(t *testing.T) {
	llm := model.NewMockModel("worker")
	llm.Enqueue(model.Response{
		Content: core.Content{Role: "assistant", Parts: []core.Part{
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "fc-1", Name: "halt", Arguments: `{}`}},
		}},
		FinishReason: "tool_calls",
	})

	a := agent.NewModelAgent("crop_disease_agent", llm)
	a.RegisterTool(haltTool{})
	s := New(":0", runner.New(a), nil)

	rec := postChat(t, s, ChatRequest{
		InputMessage: "store my analysis",
		UserID:       "farmer-1",
		SessionID:    "s1",
	})

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(runner.StatusTerminated), resp.Status)
	assert.Equal(t, "abc123", resp.Metadata["doc_id"])
	assert.Contains(t, resp.Response, "abc123")
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(model.NewMockModel("worker"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.handleHealth(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

type haltTool struct{}

func (haltTool) Name() string        { return "halt" }
func (haltTool) Description() string { return "halts the turn" }
func (haltTool) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (haltTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	tc.EndTurn(map[string]string{"doc_id": "abc123", "status": "stored"})
	return map[string]any{"doc_id": "abc123"}, nil
}
