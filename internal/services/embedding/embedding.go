// Package embedding turns product and query text into vectors.
package embedding

import (
	"context"
	"errors"
)

// Embedder maps text to a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ErrKeyNotFound is returned by cache stores on a miss.
var ErrKeyNotFound = errors.New("key not found")
