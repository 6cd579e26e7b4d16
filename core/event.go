package core

import (
	"time"

	"github.com/google/uuid"
)

// EventActions encodes side-effects or orchestration signals attached to an
// Event. All fields are optional pointers / maps so absence can be
// distinguished from zero values. The runner interprets these after the event
// is persisted.
type EventActions struct {
	StateDelta      map[string]any    `json:"state_delta,omitempty"`
	ArtifactDelta   map[string]int    `json:"artifact_delta,omitempty"`
	TransferToAgent *string           `json:"transfer_to_agent,omitempty"`
	EndTurn         *bool             `json:"end_turn,omitempty"`
	TurnMetadata    map[string]string `json:"turn_metadata,omitempty"`
}

// Event is the unit of communication between agents, the runner and external
// clients. After emission it must be treated as immutable. It captures:
//   - Correlation (TurnID, ID, Author)
//   - Conversational content (optional role-based Parts)
//   - Orchestration directives (Actions), including the end-turn signal an
//     effectful-once tool raises to stop the turn
//   - Error metadata for aborted turns
//
// A turn's event stream is ordered and single-pass; exactly one terminal
// event (IsTerminal) closes it.
type Event struct {
	ID           string       `json:"id"`
	TurnID       string       `json:"turn_id"`
	Author       string       `json:"author"`
	Actions      EventActions `json:"actions"`
	Timestamp    time.Time    `json:"timestamp"`
	Content      *Content     `json:"content,omitempty"`
	TurnComplete *bool        `json:"turn_complete,omitempty"`
	ErrorCode    *string      `json:"error_code,omitempty"`
	ErrorMessage *string      `json:"error_message,omitempty"`
}

// NewEvent creates a bare event authored by 'author' bound to a turn.
// Prefer the helper constructors for common semantic categories.
func NewEvent(turnID, author string) Event {
	return Event{
		ID:        NewID(),
		TurnID:    turnID,
		Author:    author,
		Timestamp: time.Now().UTC(),
		Actions:   EventActions{},
	}
}

// NewMessageEvent creates an assistant-authored text message event.
func NewMessageEvent(author, message string) Event {
	e := NewEvent("", author)
	e.Content = &Content{Role: "assistant", Parts: []Part{TextPart{Text: message}}}
	return e
}

// NewUserContentEvent creates a user-authored event with arbitrary Content.
func NewUserContentEvent(turnID string, content *Content) Event {
	e := NewEvent(turnID, "user")
	e.Content = content
	return e
}

// NewFunctionResponseEvent records the completion result (or error) of a tool
// invocation. If err is non-nil its message is copied into the response.
func NewFunctionResponseEvent(author, id, functionName string, result interface{}, err error) Event {
	e := NewEvent("", author)
	fr := FunctionResponse{ID: id, Name: functionName, Response: result}
	if err != nil {
		fr.Error = err.Error()
	}
	e.Content = &Content{Role: "tool", Parts: []Part{FunctionResponsePart{FunctionResponse: fr}}}
	return e
}

// NewAbortEvent creates a terminal event describing an aborted turn.
func NewAbortEvent(turnID, author string, cond Condition, err error) Event {
	e := NewEvent(turnID, author)
	code := string(cond)
	e.ErrorCode = &code
	if err != nil {
		msg := err.Error()
		e.ErrorMessage = &msg
	}
	return e
}

// NewID generates a unique identifier for events and turns.
func NewID() string { return uuid.NewString() }

// GetFunctionCalls returns any FunctionCall parts contained within the event
// content preserving their original order.
func (e Event) GetFunctionCalls() []FunctionCall {
	if e.Content == nil {
		return nil
	}
	var calls []FunctionCall
	for _, p := range e.Content.Parts {
		if fc, ok := p.(FunctionCallPart); ok {
			calls = append(calls, fc.FunctionCall)
		}
	}
	return calls
}

// GetFunctionResponses returns any FunctionResponse parts contained within
// the event content preserving their original order.
func (e Event) GetFunctionResponses() []FunctionResponse {
	if e.Content == nil {
		return nil
	}
	var responses []FunctionResponse
	for _, p := range e.Content.Parts {
		if fr, ok := p.(FunctionResponsePart); ok {
			responses = append(responses, fr.FunctionResponse)
		}
	}
	return responses
}

// IsFinalResponse reports whether this event carries the turn's final
// assistant response (no pending tool calls or responses).
func (e Event) IsFinalResponse() bool {
	if e.TurnComplete == nil || !*e.TurnComplete {
		return false
	}
	return len(e.GetFunctionCalls()) == 0 && len(e.GetFunctionResponses()) == 0
}

// IsEndTurnSignal reports whether an effectful-once tool requested immediate
// turn termination via this event.
func (e Event) IsEndTurnSignal() bool { return e.Actions.EndTurn != nil && *e.Actions.EndTurn }

// IsAbort reports whether this event marks the turn as aborted.
func (e Event) IsAbort() bool { return e.ErrorCode != nil }

// IsTerminal reports whether consumers must stop reading the turn's event
// stream after this event. Exactly one terminal event is produced per turn.
func (e Event) IsTerminal() bool {
	return e.IsFinalResponse() || e.IsEndTurnSignal() || e.IsAbort()
}

// UnixSeconds returns the timestamp as fractional seconds since Unix epoch.
func (e Event) UnixSeconds() float64 { return float64(e.Timestamp.UnixNano()) / 1e9 }
