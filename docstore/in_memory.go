package docstore

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"
)

// InMemoryStore is a process-local Store used in tests and development.
type InMemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

// NewInMemoryStore creates an empty in-memory document store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{collections: make(map[string]map[string]map[string]any)}
}

// Exists implements Store.
func (s *InMemoryStore) Exists(_ context.Context, collection, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, ok := s.collections[collection]
	if !ok {
		return false, nil
	}
	_, ok = docs[key]
	return ok, nil
}

// Set implements Store.
func (s *InMemoryStore) Set(_ context.Context, collection, key string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]map[string]any)
		s.collections[collection] = docs
	}
	cp := make(map[string]any, len(fields))
	maps.Copy(cp, fields)
	docs[key] = cp
	return nil
}

// Add implements Store.
func (s *InMemoryStore) Add(ctx context.Context, collection string, fields map[string]any) error {
	return s.Set(ctx, collection, uuid.NewString(), fields)
}

// Get returns a copy of the stored document, primarily for assertions in
// tests.
func (s *InMemoryStore) Get(collection, key string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, ok := s.collections[collection]
	if !ok {
		return nil, false
	}
	doc, ok := docs[key]
	if !ok {
		return nil, false
	}
	cp := make(map[string]any, len(doc))
	maps.Copy(cp, doc)
	return cp, true
}

// Count returns the number of documents in a collection.
func (s *InMemoryStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}
