// Package docstore abstracts the document database used for durable farm
// records: crop disease analyses, wildlife detections and alerts.
//
// The interface is deliberately small. Exists-then-Set is the idempotent
// write pattern used by the effectful-once store path: callers derive a
// deterministic key from the record content, skip the write when the key is
// already present, and treat both paths as success.
package docstore

import "context"

// Store is the document persistence contract.
type Store interface {
	// Exists reports whether a document with the given key is present in the
	// collection.
	Exists(ctx context.Context, collection, key string) (bool, error)

	// Set writes the fields under the given key, replacing any existing
	// document. Writing the same key and fields twice is harmless.
	Set(ctx context.Context, collection, key string, fields map[string]any) error

	// Add appends a document with a store-generated identifier.
	Add(ctx context.Context, collection string, fields map[string]any) error
}
