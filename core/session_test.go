package core

import "testing"

func TestSession_ApplyStateDeltaAndClone(t *testing.T) {
	s := NewSession("farmer-1", "s1")

	s.MergeState(map[string]any{"a": 1, "b": "x"})
	if v, ok := s.GetState("a"); !ok || v.(int) != 1 {
		t.Fatalf("State not applied: %+v", s.State)
	}

	clone := s.Clone()
	if clone == s {
		t.Error("Clone should be a different pointer")
	}

	clone.SetState("c", 2)
	if _, exists := s.GetState("c"); exists {
		t.Error("Original should not have clone's new key")
	}
}

func TestSession_AddEventAndHistory(t *testing.T) {
	content := NewUserText("hi")
	userEv := NewUserContentEvent("turn-123", &content)
	assistantEv := NewMessageEvent("assistant", "hello")

	s := NewSession("farmer-1", "s2")
	s.AddEvent(assistantEv)
	s.AddEvent(userEv)

	all := s.GetEvents()
	if len(all) != 2 {
		t.Fatalf("expected 2 events, got %d", len(all))
	}
	orig := all[0].Author
	all[0].Author = "changed"
	if s.GetEvents()[0].Author != orig {
		t.Error("events slice should be copied on read")
	}

	history := s.GetConversationHistory()
	foundUser := false
	for _, hev := range history {
		if hev.Content != nil && hev.Content.Role == "user" {
			foundUser = true
		}
	}
	if !foundUser {
		t.Error("expected user event in history")
	}
}

func TestSession_HistoryFiltersRoles(t *testing.T) {
	s := NewSession("farmer-1", "s3")

	sysEv := NewEvent("turn-1", "system")
	sysEv.Content = &Content{Role: "system", Parts: []Part{TextPart{Text: "internal"}}}
	s.AddEvent(sysEv)
	s.AddEvent(NewMessageEvent("assistant", "visible"))

	history := s.GetConversationHistory()
	if len(history) != 1 {
		t.Fatalf("expected 1 history event, got %d", len(history))
	}
	if history[0].Content.Role != "assistant" {
		t.Errorf("unexpected role %q", history[0].Content.Role)
	}
}
