// Package gemini provides a model.Model implementation backed by the Google
// Gemini API. It is the primary capability for the farm assistant: it
// supports function calling and inline image input, which the crop doctor
// relies on for photo diagnosis.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/KrishimitraAgent/KrishimitraBackend/core"
	"github.com/KrishimitraAgent/KrishimitraBackend/model"
)

// Options configure the Gemini model adapter.
type Options struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

// Model wraps the Gemini API behind the generic model.Model interface.
type Model struct {
	client *genai.Client
	opts   Options
}

// NewModel creates a new Gemini model with a fresh client.
func NewModel(ctx context.Context, apiKey string, optFns ...func(o *Options)) (*Model, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return NewModelFromClient(client, optFns...), nil
}

// NewModelFromClient creates a new Gemini model from an existing client.
func NewModelFromClient(client *genai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:           "gemini-2.0-flash",
		Temperature:     0.7,
		MaxOutputTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements model.Model. It emits exactly one Response or one
// error and closes both channels.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		if len(req.Contents) == 0 {
			errCh <- fmt.Errorf("no contents provided")
			return
		}

		gm := m.client.GenerativeModel(m.opts.Model)
		gm.SetTemperature(m.opts.Temperature)
		gm.SetMaxOutputTokens(m.opts.MaxOutputTokens)
		if req.Instructions != "" {
			gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.Instructions)}}
		}
		if len(req.Tools) > 0 {
			gm.Tools = buildTools(req.Tools)
		}

		history, last := splitContents(req.Contents)
		cs := gm.StartChat()
		cs.History = history

		resp, err := cs.SendMessage(ctx, last...)
		if err != nil {
			errCh <- fmt.Errorf("gemini api error: %w", err)
			return
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			errCh <- fmt.Errorf("no candidates returned")
			return
		}

		cand := resp.Candidates[0]
		var parts []core.Part
		hasCalls := false
		for _, p := range cand.Content.Parts {
			switch v := p.(type) {
			case genai.Text:
				if string(v) != "" {
					parts = append(parts, core.TextPart{Text: string(v)})
				}
			case genai.FunctionCall:
				args := "{}"
				if v.Args != nil {
					if b, err := json.Marshal(v.Args); err == nil {
						args = string(b)
					}
				}
				// Gemini carries no call ID on the wire; mint one so the
				// function-response pairing machinery still works.
				parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
					ID:        uuid.NewString(),
					Name:      v.Name,
					Arguments: args,
				}})
				hasCalls = true
			}
		}

		finish := "stop"
		if hasCalls {
			finish = "tool_calls"
		} else if cand.FinishReason != genai.FinishReasonStop && cand.FinishReason != genai.FinishReasonUnspecified {
			finish = strings.ToLower(cand.FinishReason.String())
		}

		r := model.Response{
			Content:      core.Content{Role: "assistant", Parts: parts},
			FinishReason: finish,
		}
		if resp.UsageMetadata != nil {
			r.Usage = &model.TokenUsage{
				PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
				CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
				TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
			}
		}
		out <- r
	}()

	return out, errCh
}

// splitContents converts normalized contents to Gemini chat history plus the
// trailing message parts to send.
func splitContents(contents []core.Content) ([]*genai.Content, []genai.Part) {
	converted := make([]*genai.Content, 0, len(contents))
	for _, c := range contents {
		gc := &genai.Content{Role: roleFor(c.Role)}
		for _, p := range c.Parts {
			if gp := convertPart(p); gp != nil {
				gc.Parts = append(gc.Parts, gp)
			}
		}
		if len(gc.Parts) > 0 {
			converted = append(converted, gc)
		}
	}
	if len(converted) == 0 {
		return nil, []genai.Part{genai.Text("")}
	}
	last := converted[len(converted)-1]
	return converted[:len(converted)-1], last.Parts
}

func roleFor(role string) string {
	if role == "assistant" {
		return "model"
	}
	// Gemini accepts tool results in a user-role message.
	return "user"
}

func convertPart(p core.Part) genai.Part {
	switch v := p.(type) {
	case core.TextPart:
		if v.Text == "" {
			return nil
		}
		return genai.Text(v.Text)
	case core.FilePart:
		if len(v.File.Bytes) == 0 {
			return nil
		}
		return genai.Blob{MIMEType: v.File.MimeType, Data: v.File.Bytes}
	case core.FunctionCallPart:
		args := map[string]any{}
		if v.FunctionCall.Arguments != "" {
			_ = json.Unmarshal([]byte(v.FunctionCall.Arguments), &args)
		}
		return genai.FunctionCall{Name: v.FunctionCall.Name, Args: args}
	case core.FunctionResponsePart:
		resp, ok := v.FunctionResponse.Response.(map[string]any)
		if !ok {
			resp = map[string]any{"result": v.FunctionResponse.Response}
		}
		if v.FunctionResponse.Error != "" {
			resp["error"] = v.FunctionResponse.Error
		}
		return genai.FunctionResponse{Name: v.FunctionResponse.Name, Response: resp}
	}
	return nil
}

// buildTools converts normalized tool definitions to Gemini declarations.
func buildTools(tools []model.ToolDefinition) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  mapToSchema(t.Function.Parameters),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// mapToSchema converts the JSON-schema-shaped map used by tools into the
// typed genai.Schema. Only the subset the tools emit is handled.
func mapToSchema(spec map[string]any) *genai.Schema {
	if spec == nil {
		return &genai.Schema{Type: genai.TypeObject}
	}
	schema := &genai.Schema{Type: typeFor(spec["type"])}
	if d, ok := spec["description"].(string); ok {
		schema.Description = d
	}
	if enum, ok := spec["enum"]; ok {
		schema.Enum = toStringSlice(enum)
	}
	if props, ok := spec["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if pm, ok := raw.(map[string]any); ok {
				schema.Properties[name] = mapToSchema(pm)
			}
		}
	}
	if required, ok := spec["required"]; ok {
		schema.Required = toStringSlice(required)
	}
	if items, ok := spec["items"].(map[string]any); ok {
		schema.Items = mapToSchema(items)
	}
	return schema
}

func typeFor(raw any) genai.Type {
	t, _ := raw.(string)
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

func toStringSlice(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "gemini",
		SupportsTools: true,
	}
}
