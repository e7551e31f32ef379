// Package vectorstore persists product embeddings and answers similarity
// queries, either through Cloudflare Vectorize or an in-process fallback.
package vectorstore

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"time"
)

// Metadata keys attached to every product vector.
const (
	MetaProductID   = "product_id"
	MetaProductType = "product_type"
	MetaProductName = "product_name"
	MetaBankName    = "bank_name"
	MetaCreatedAt   = "created_at"
	MetaUpdatedAt   = "updated_at"
)

// Metadata is the flat string map stored alongside a vector.
type Metadata map[string]string

// Vector is one (id, values, metadata) triple.
type Vector struct {
	ID       string    `json:"id"`
	Values   []float32 `json:"values"`
	Metadata Metadata  `json:"metadata,omitempty"`
}

// Match is a query hit.
type Match struct {
	ID       string   `json:"id"`
	Score    float64  `json:"score"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// Store is implemented by CloudflareStore and MemoryStore.
type Store interface {
	EnsureIndex(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, vectors []Vector) error
	Query(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]Match, error)
	Delete(ctx context.Context, ids []string) error
}

// DefaultTopK is used when a query asks for zero or fewer results.
const DefaultTopK = 10

// GenerateID returns a stable id for a product: the hex MD5 of
// "<type>_<bank>_<name>".
func GenerateID(productType, bank, name string) string {
	sum := md5.Sum([]byte(productType + "_" + bank + "_" + name))
	return hex.EncodeToString(sum[:])
}

// NewMetadata builds the metadata for a product vector stamped at now.
func NewMetadata(productID, productType, productName, bankName string, now time.Time) Metadata {
	ts := now.UTC().Format(time.RFC3339)
	return Metadata{
		MetaProductID:   productID,
		MetaProductType: productType,
		MetaProductName: productName,
		MetaBankName:    bankName,
		MetaCreatedAt:   ts,
		MetaUpdatedAt:   ts,
	}
}

// matchesFilter reports whether every filter entry equals the metadata value.
func matchesFilter(meta Metadata, filter map[string]string) bool {
	for k, v := range filter {
		if meta[k] != v {
			return false
		}
	}
	return true
}
