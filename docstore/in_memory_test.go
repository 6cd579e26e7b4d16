package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryStore_ExistsSet(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	ok, err := store.Exists(ctx, "crop_analysis", "k1")
	assert.NoError(t, err)
	assert.False(t, ok)

	err = store.Set(ctx, "crop_analysis", "k1", map[string]any{"analysis": "leaf blight"})
	assert.NoError(t, err)

	ok, err = store.Exists(ctx, "crop_analysis", "k1")
	assert.NoError(t, err)
	assert.True(t, ok)

	doc, found := store.Get("crop_analysis", "k1")
	assert.True(t, found)
	assert.Equal(t, "leaf blight", doc["analysis"])
	assert.Equal(t, 1, store.Count("crop_analysis"))
}

func TestInMemoryStore_SetReplaces(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	assert.NoError(t, store.Set(ctx, "c", "k", map[string]any{"v": 1}))
	assert.NoError(t, store.Set(ctx, "c", "k", map[string]any{"v": 2}))

	doc, _ := store.Get("c", "k")
	assert.Equal(t, 2, doc["v"])
	assert.Equal(t, 1, store.Count("c"))
}

func TestInMemoryStore_AddGeneratesKeys(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	assert.NoError(t, store.Add(ctx, "detections", map[string]any{"animal": "boar"}))
	assert.NoError(t, store.Add(ctx, "detections", map[string]any{"animal": "leopard"}))
	assert.Equal(t, 2, store.Count("detections"))
}

func TestInMemoryStore_CopiesFields(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	fields := map[string]any{"status": "new"}
	assert.NoError(t, store.Set(ctx, "alerts", "k", fields))
	fields["status"] = "mutated"

	doc, _ := store.Get("alerts", "k")
	assert.Equal(t, "new", doc["status"])

	doc["status"] = "mutated-read"
	again, _ := store.Get("alerts", "k")
	assert.Equal(t, "new", again["status"])
}
