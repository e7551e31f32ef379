package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"financial-product-advisor/internal/metrics"
)

// MemoryStore keeps vectors in process and ranks them by cosine similarity.
// Contents are lost on restart.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	order     []string
	vectors   map[string]Vector
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{vectors: make(map[string]Vector)}
}

// EnsureIndex fixes the expected dimension.
func (s *MemoryStore) EnsureIndex(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension %d", dimension)
	}
	s.mu.Lock()
	s.dimension = dimension
	s.mu.Unlock()
	return nil
}

// Upsert inserts or replaces vectors by id.
func (s *MemoryStore) Upsert(_ context.Context, vectors []Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range vectors {
		if s.dimension > 0 && len(v.Values) != s.dimension {
			metrics.VectorStoreRequestsTotal.WithLabelValues("memory", "upsert", "error").Inc()
			return fmt.Errorf("vector %s has dimension %d, index expects %d", v.ID, len(v.Values), s.dimension)
		}
	}
	for _, v := range vectors {
		if _, exists := s.vectors[v.ID]; !exists {
			s.order = append(s.order, v.ID)
		}
		values := make([]float32, len(v.Values))
		copy(values, v.Values)
		s.vectors[v.ID] = Vector{ID: v.ID, Values: values, Metadata: copyMetadata(v.Metadata)}
	}
	metrics.VectorStoreRequestsTotal.WithLabelValues("memory", "upsert", "ok").Inc()
	return nil
}

// Query returns the topK most similar vectors passing the exact-match filter.
func (s *MemoryStore) Query(_ context.Context, vector []float32, topK int, filter map[string]string) ([]Match, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	s.mu.RLock()
	matches := make([]Match, 0, len(s.order))
	for _, id := range s.order {
		stored := s.vectors[id]
		if !matchesFilter(stored.Metadata, filter) {
			continue
		}
		matches = append(matches, Match{
			ID:       id,
			Score:    cosine(vector, stored.Values),
			Metadata: copyMetadata(stored.Metadata),
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	metrics.VectorStoreRequestsTotal.WithLabelValues("memory", "query", "ok").Inc()
	return matches, nil
}

// Delete removes vectors; unknown ids are ignored.
func (s *MemoryStore) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := s.vectors[id]; ok {
			drop[id] = true
			delete(s.vectors, id)
		}
	}
	if len(drop) > 0 {
		kept := s.order[:0]
		for _, id := range s.order {
			if !drop[id] {
				kept = append(kept, id)
			}
		}
		s.order = kept
	}
	metrics.VectorStoreRequestsTotal.WithLabelValues("memory", "delete", "ok").Inc()
	return nil
}

// Len returns the number of stored vectors.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// cosine returns 0 when either vector has zero norm or the lengths differ.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func copyMetadata(m Metadata) Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
