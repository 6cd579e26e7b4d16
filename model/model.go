// Package model defines the normalized request/response types exchanged with
// language-model capabilities, and the Model interface every provider
// adapter implements. The backend treats the capability as an opaque black
// box: routing decisions and tool selection happen inside it, driven only by
// the instructions, roster and tool schemas supplied here.
package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/KrishimitraAgent/KrishimitraBackend/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the
// model. Parameters is a minimal JSON Schema object.
type FunctionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Request captures the normalized model input produced by flows.
type Request struct {
	Instructions string           `json:"instructions"`
	Contents     []core.Content   `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a completion emitted by a model.
type Response struct {
	ID           string       `json:"id"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", ...
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "gemini", "openai", "anthropic", "mock"
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by flows and agents to drive
// generation. Generate emits exactly one Response (or one error) per call;
// both channels are closed when the call completes.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests and examples.
// It supports two modes: canned text completions keyed by the last user
// input (AddResponse), and an explicit scripted sequence of responses
// consumed one per Generate call (Enqueue). Scripted responses take
// precedence, which lets tests drive tool-call loops deterministically.
type MockModel struct {
	info      Info
	mu        sync.Mutex
	responses map[string]string
	script    []Response
	calls     int
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      "mock",
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input text.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Enqueue appends a scripted response consumed by the next Generate call.
func (m *MockModel) Enqueue(resp Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, resp)
}

// Calls reports how many times Generate has been invoked.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		m.mu.Lock()
		m.calls++
		var scripted *Response
		if len(m.script) > 0 {
			r := m.script[0]
			m.script = m.script[1:]
			scripted = &r
		}
		m.mu.Unlock()

		if scripted != nil {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
			case respCh <- *scripted:
			}
			return
		}

		if len(req.Contents) == 0 {
			errCh <- fmt.Errorf("no contents provided")
			return
		}
		last := req.Contents[len(req.Contents)-1]
		inputText := last.Text()

		m.mu.Lock()
		full := m.responses[inputText]
		m.mu.Unlock()
		if full == "" {
			full = fmt.Sprintf("Mock response to: %s", inputText)
		}

		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- Response{
			Content:      core.Content{Role: "assistant", Parts: []core.Part{core.TextPart{Text: full}}},
			FinishReason: "stop",
		}:
		}
	}()

	return respCh, errCh
}

// Info implements the Model interface.
func (m *MockModel) Info() Info { return m.info }

// FailingModel always errors; it simulates an unreachable capability.
type FailingModel struct{ Message string }

// Generate implements Model by emitting a single error.
func (m FailingModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response)
	errCh := make(chan error, 1)
	msg := m.Message
	if msg == "" {
		msg = "capability unreachable"
	}
	errCh <- fmt.Errorf("%s", msg)
	close(respCh)
	close(errCh)
	return respCh, errCh
}

// Info implements the Model interface.
func (m FailingModel) Info() Info {
	return Info{Name: "failing", Provider: "mock", SupportsTools: false}
}
