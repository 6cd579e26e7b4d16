package core

import (
	"context"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func TestEvent_IsFinalResponse(t *testing.T) {
	ev := NewMessageEvent("greetor_agent", "Namaste!")
	if ev.IsFinalResponse() {
		t.Error("event without TurnComplete should not be final")
	}

	ev.TurnComplete = boolPtr(true)
	if !ev.IsFinalResponse() {
		t.Error("completed text event should be final")
	}
	if !ev.IsTerminal() {
		t.Error("final response should be terminal")
	}

	// Pending tool calls keep the turn open even when marked complete.
	withCall := NewEvent("turn-1", "crop_price_agent")
	withCall.TurnComplete = boolPtr(true)
	withCall.Content = &Content{Role: "assistant", Parts: []Part{
		FunctionCallPart{FunctionCall: FunctionCall{ID: "c1", Name: "get_commodity_prices"}},
	}}
	if withCall.IsFinalResponse() {
		t.Error("event with function calls should not be final")
	}
}

func TestEvent_IsEndTurnSignal(t *testing.T) {
	ev := NewFunctionResponseEvent("crop_disease_agent", "c1", "store_crop_analysis",
		map[string]any{"status": "stored"}, nil)
	if ev.IsEndTurnSignal() {
		t.Error("plain tool response should not end the turn")
	}

	ev.Actions.EndTurn = boolPtr(true)
	ev.Actions.TurnMetadata = map[string]string{"doc_id": "abc"}
	if !ev.IsEndTurnSignal() || !ev.IsTerminal() {
		t.Error("end-turn tagged event should be terminal")
	}
	if ev.IsFinalResponse() {
		t.Error("end-turn event carries a tool response, not a final text")
	}

	off := NewEvent("turn-1", "crop_disease_agent")
	off.Actions.EndTurn = boolPtr(false)
	if off.IsEndTurnSignal() {
		t.Error("EndTurn=false should not signal termination")
	}
}

func TestEvent_IsAbort(t *testing.T) {
	ev := NewAbortEvent("turn-1", "runner", ConditionTimeout, context.DeadlineExceeded)
	if !ev.IsAbort() || !ev.IsTerminal() {
		t.Error("abort event should be terminal")
	}
	if *ev.ErrorCode != string(ConditionTimeout) {
		t.Errorf("unexpected error code %q", *ev.ErrorCode)
	}
	if ev.ErrorMessage == nil || *ev.ErrorMessage == "" {
		t.Error("cause message should be recorded")
	}
}

func TestEvent_GetFunctionCallsAndResponses(t *testing.T) {
	ev := NewEvent("turn-1", "farming_coordinator")
	ev.Content = &Content{Role: "assistant", Parts: []Part{
		TextPart{Text: "routing"},
		FunctionCallPart{FunctionCall: FunctionCall{ID: "c1", Name: "transfer_to_agent", Arguments: `{"agent_name":"greetor_agent"}`}},
		FunctionCallPart{FunctionCall: FunctionCall{ID: "c2", Name: "get_commodity_prices"}},
	}}

	calls := ev.GetFunctionCalls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].Name != "transfer_to_agent" || calls[1].Name != "get_commodity_prices" {
		t.Errorf("call order not preserved: %+v", calls)
	}

	resp := NewFunctionResponseEvent("crop_price_agent", "c2", "get_commodity_prices",
		map[string]any{"count": 1}, nil)
	responses := resp.GetFunctionResponses()
	if len(responses) != 1 || responses[0].Name != "get_commodity_prices" {
		t.Fatalf("unexpected responses: %+v", responses)
	}
}
