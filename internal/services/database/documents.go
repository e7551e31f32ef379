package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"financial-product-advisor/internal/models"
)

const createDocumentsTable = `
	CREATE TABLE IF NOT EXISTS raw_documents (
		key          TEXT PRIMARY KEY,
		content      BYTEA NOT NULL,
		content_type TEXT NOT NULL DEFAULT 'application/json',
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// DocumentRepository stores raw product documents keyed like object storage
// paths ("hdfc/cards.json").
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// EnsureSchema creates the raw_documents table when missing.
func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createDocumentsTable); err != nil {
		return fmt.Errorf("failed to create raw_documents table: %w", err)
	}
	return nil
}

// ReadDocument returns the content stored under key.
func (r *DocumentRepository) ReadDocument(ctx context.Context, key string) ([]byte, error) {
	var content []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT content FROM raw_documents WHERE key = $1`, key,
	).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", models.ErrSourceNotFound, key)
		}
		return nil, fmt.Errorf("failed to get document %s: %w", key, err)
	}
	return content, nil
}

// ListDocuments returns every stored key in order.
func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key FROM raw_documents ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan document key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// UpsertDocuments writes documents in one transaction, replacing existing keys.
func (r *DocumentRepository) UpsertDocuments(ctx context.Context, docs map[string][]byte, contentType func(key string) string) error {
	now := time.Now().UTC()
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for key, content := range docs {
			_, err := tx.Exec(ctx, `
				INSERT INTO raw_documents (key, content, content_type, updated_at)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (key) DO UPDATE
				SET content = EXCLUDED.content,
					content_type = EXCLUDED.content_type,
					updated_at = EXCLUDED.updated_at`,
				key, content, contentType(key), now,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert document %s: %w", key, err)
			}
		}
		return nil
	})
}
