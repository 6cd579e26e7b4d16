// Package artifact provides ArtifactStore implementations for binary blobs
// such as uploaded crop photos and wildlife camera frames.
package artifact

import (
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned when a requested artifact does not exist.
var ErrNotFound = errors.New("artifact not found")

// InMemoryArtifactStore keeps artifacts in a process-local nested map scoped
// by session. Bytes are copied on write and read so callers cannot alias the
// stored buffers.
type InMemoryArtifactStore struct {
	mu        sync.RWMutex
	artifacts map[string]map[string][]byte
}

// NewInMemoryArtifactStore creates an empty in-memory artifact store.
func NewInMemoryArtifactStore() *InMemoryArtifactStore {
	return &InMemoryArtifactStore{artifacts: make(map[string]map[string][]byte)}
}

// Save stores artifact bytes under the session/artifact pair, replacing any
// previous value.
func (s *InMemoryArtifactStore) Save(sessionID, artifactID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.artifacts[sessionID]
	if !ok {
		bucket = make(map[string][]byte)
		s.artifacts[sessionID] = bucket
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	bucket[artifactID] = cp
	return nil
}

// Get retrieves artifact bytes or ErrNotFound.
func (s *InMemoryArtifactStore) Get(sessionID, artifactID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bucket, ok := s.artifacts[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	data, ok := bucket[artifactID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// List returns the sorted artifact ids stored for a session.
func (s *InMemoryArtifactStore) List(sessionID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bucket, ok := s.artifacts[sessionID]
	if !ok {
		return nil, nil
	}
	ids := make([]string, 0, len(bucket))
	for id := range bucket {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes an artifact. Deleting a missing artifact is a no-op.
func (s *InMemoryArtifactStore) Delete(sessionID, artifactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bucket, ok := s.artifacts[sessionID]; ok {
		delete(bucket, artifactID)
	}
	return nil
}
