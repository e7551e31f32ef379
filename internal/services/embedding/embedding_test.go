package embedding_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial-product-advisor/internal/services/embedding"
)

func TestOpenAIEmbedder_Embed(t *testing.T) {
	var gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotModel, _ = body["model"].(string)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object": "list", "model": "test-model",
			"data": [{"object": "embedding", "index": 0, "embedding": [0.25, -0.5, 1]}],
			"usage": {"prompt_tokens": 3, "total_tokens": 3}}`))
	}))
	defer server.Close()

	embedder, err := embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
		APIKey:  "sk-test",
		BaseURL: server.URL,
		Model:   "test-model",
	})
	require.NoError(t, err)

	vec, err := embedder.Embed(context.Background(), "cashback credit card")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -0.5, 1}, vec)
	assert.Equal(t, "test-model", gotModel)
}

func TestOpenAIEmbedder_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	embedder, err := embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{APIKey: "sk-bad", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = embedder.Embed(context.Background(), "x")
	assert.Error(t, err)
}

func TestNewOpenAIEmbedder_RequiresKey(t *testing.T) {
	_, err := embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{})
	assert.Error(t, err)
}

type countingEmbedder struct {
	calls int
	err   error
}

func (e *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text)), 0.5}, nil
}

type mapStore struct {
	data   map[string][]byte
	getErr error
}

func (s *mapStore) Get(_ context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	v, ok := s.data[key]
	if !ok {
		return nil, embedding.ErrKeyNotFound
	}
	return v, nil
}

func (s *mapStore) Set(_ context.Context, key string, value []byte) error {
	s.data[key] = value
	return nil
}

func TestCachedEmbedder_HitAfterMiss(t *testing.T) {
	inner := &countingEmbedder{}
	store := &mapStore{data: map[string][]byte{}}
	cached := embedding.NewCachedEmbedder(inner, store, nil)
	ctx := context.Background()

	first, err := cached.Embed(ctx, "fixed deposit")
	require.NoError(t, err)
	second, err := cached.Embed(ctx, "fixed deposit")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []float32{13, 0.5}, second)
	assert.Equal(t, 1, inner.calls)
	assert.Len(t, store.data, 1)

	_, err = cached.Embed(ctx, "mutual fund")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedEmbedder_StoreErrorFallsThrough(t *testing.T) {
	inner := &countingEmbedder{}
	store := &mapStore{data: map[string][]byte{}, getErr: errors.New("connection refused")}
	cached := embedding.NewCachedEmbedder(inner, store, nil)

	vec, err := cached.Embed(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 0.5}, vec)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedEmbedder_CorruptEntryRecomputed(t *testing.T) {
	inner := &countingEmbedder{}
	store := &mapStore{data: map[string][]byte{}}
	cached := embedding.NewCachedEmbedder(inner, store, nil)
	ctx := context.Background()

	_, err := cached.Embed(ctx, "abc")
	require.NoError(t, err)
	for k := range store.data {
		store.data[k] = []byte{1, 2, 3}
	}

	_, err = cached.Embed(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedEmbedder_InnerError(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("quota exceeded")}
	cached := embedding.NewCachedEmbedder(inner, &mapStore{data: map[string][]byte{}}, nil)

	_, err := cached.Embed(context.Background(), "abc")
	assert.ErrorIs(t, err, inner.err)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()

	store, err := embedding.NewRedisStore(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0, time.Minute)
	require.NoError(t, err)
	defer store.Close()

	key := "advisor:test:" + time.Now().Format("150405.000000")
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, embedding.ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, key, []byte{1, 2, 3, 4}))
	data, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)
}
