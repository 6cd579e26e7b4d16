package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/KrishimitraAgent/KrishimitraBackend/core"
)

func TestInMemorySessionStore_GetNeverCreates(t *testing.T) {
	store := NewInMemorySessionStore()

	if _, err := store.Get("farmer-1", "s1"); !errors.Is(err, core.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	// A failed Get must leave no trace.
	if _, err := store.Get("farmer-1", "s1"); !errors.Is(err, core.ErrSessionNotFound) {
		t.Fatalf("Get created a session as a side effect: %v", err)
	}
}

func TestInMemorySessionStore_CreateOnce(t *testing.T) {
	store := NewInMemorySessionStore()

	sess, err := store.Create("farmer-1", "s1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.UserID != "farmer-1" || sess.ID != "s1" {
		t.Errorf("identity not set: %+v", sess)
	}

	if _, err := store.Create("farmer-1", "s1"); !errors.Is(err, core.ErrSessionExists) {
		t.Fatalf("expected ErrSessionExists, got %v", err)
	}

	// Same session id under a different user is a distinct session.
	if _, err := store.Create("farmer-2", "s1"); err != nil {
		t.Fatalf("distinct user pair rejected: %v", err)
	}
}

func TestInMemorySessionStore_GetOrCreateIdempotent(t *testing.T) {
	store := NewInMemorySessionStore()

	first, err := store.GetOrCreate("farmer-1", "s1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	second, err := store.GetOrCreate("farmer-1", "s1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if first != second {
		t.Error("GetOrCreate returned different sessions for the same pair")
	}
}

func TestInMemorySessionStore_GetOrCreateConcurrent(t *testing.T) {
	store := NewInMemorySessionStore()

	const n = 16
	results := make([]*core.Session, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess, err := store.GetOrCreate("farmer-1", "s1")
			if err != nil {
				t.Errorf("GetOrCreate: %v", err)
				return
			}
			results[i] = sess
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent GetOrCreate produced more than one session")
		}
	}
}

func TestInMemorySessionStore_AppendEventAndApplyDelta(t *testing.T) {
	store := NewInMemorySessionStore()

	if err := store.AppendEvent("farmer-1", "s1", core.NewMessageEvent("greetor_agent", "hi")); !errors.Is(err, core.ErrSessionNotFound) {
		t.Fatalf("AppendEvent on missing session: %v", err)
	}
	if err := store.ApplyDelta("farmer-1", "s1", map[string]any{"k": "v"}); !errors.Is(err, core.ErrSessionNotFound) {
		t.Fatalf("ApplyDelta on missing session: %v", err)
	}

	if _, err := store.Create("farmer-1", "s1"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.AppendEvent("farmer-1", "s1", core.NewMessageEvent("greetor_agent", "hi")); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if err := store.ApplyDelta("farmer-1", "s1", map[string]any{"farmer_mood": "hopeful"}); err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}

	sess, err := store.Get("farmer-1", "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(sess.GetEvents()) != 1 {
		t.Errorf("expected 1 event, got %d", len(sess.GetEvents()))
	}
	if v, ok := sess.GetState("farmer_mood"); !ok || v != "hopeful" {
		t.Errorf("delta not applied: %v %v", v, ok)
	}
}
