package vectorstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial-product-advisor/internal/services/vectorstore"
)

func TestGenerateID(t *testing.T) {
	id := vectorstore.GenerateID("credit_cards", "HDFC", "Millennia")
	assert.Equal(t, "897a37581e925374fcd5672c2e843972", id)
	assert.Equal(t, id, vectorstore.GenerateID("credit_cards", "HDFC", "Millennia"))
	assert.NotEqual(t, id, vectorstore.GenerateID("credit_cards", "HDFC", "Regalia"))
}

func TestNewMetadata(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	meta := vectorstore.NewMetadata("p1", "fixed_deposits", "SBI Fixed Deposit", "SBI", now)

	assert.Equal(t, "p1", meta[vectorstore.MetaProductID])
	assert.Equal(t, "SBI", meta[vectorstore.MetaBankName])
	assert.Equal(t, "2026-01-02T03:04:05Z", meta[vectorstore.MetaCreatedAt])
	assert.Equal(t, meta[vectorstore.MetaCreatedAt], meta[vectorstore.MetaUpdatedAt])
}

func seededStore(t *testing.T) *vectorstore.MemoryStore {
	t.Helper()
	store := vectorstore.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.EnsureIndex(ctx, 2))
	require.NoError(t, store.Upsert(ctx, []vectorstore.Vector{
		{ID: "a", Values: []float32{1, 0}, Metadata: vectorstore.Metadata{"product_type": "credit_cards"}},
		{ID: "b", Values: []float32{0.7, 0.7}, Metadata: vectorstore.Metadata{"product_type": "mutual_funds"}},
		{ID: "c", Values: []float32{0, 1}, Metadata: vectorstore.Metadata{"product_type": "credit_cards"}},
	}))
	return store
}

func TestMemoryStore_QueryRanksByCosine(t *testing.T) {
	store := seededStore(t)

	matches, err := store.Query(context.Background(), []float32{1, 0.1}, 3, nil)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{matches[0].ID, matches[1].ID, matches[2].ID})
	assert.InDelta(t, 0.995, matches[0].Score, 0.001)
}

func TestMemoryStore_FilterAndTopK(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	matches, err := store.Query(ctx, []float32{0, 1}, 10, map[string]string{"product_type": "credit_cards"})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "c", matches[0].ID)

	matches, err = store.Query(ctx, []float32{0, 1}, 1, nil)
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	matches, err = store.Query(ctx, []float32{0, 1}, 10, map[string]string{"product_type": "loans"})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMemoryStore_UpsertReplacesAndDeletes(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []vectorstore.Vector{{ID: "a", Values: []float32{0, 1}}}))
	assert.Equal(t, 3, store.Len())

	matches, err := store.Query(ctx, []float32{0, 1}, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "a", matches[0].ID)

	require.NoError(t, store.Delete(ctx, []string{"a", "missing"}))
	assert.Equal(t, 2, store.Len())
}

func TestMemoryStore_DimensionMismatch(t *testing.T) {
	store := seededStore(t)
	err := store.Upsert(context.Background(), []vectorstore.Vector{{ID: "x", Values: []float32{1, 2, 3}}})
	assert.Error(t, err)
	assert.Equal(t, 3, store.Len())

	assert.Error(t, store.EnsureIndex(context.Background(), 0))
}

func TestMemoryStore_ZeroVector(t *testing.T) {
	store := seededStore(t)
	matches, err := store.Query(context.Background(), []float32{0, 0}, 10, nil)
	require.NoError(t, err)
	for _, m := range matches {
		assert.Equal(t, 0.0, m.Score)
	}
}
