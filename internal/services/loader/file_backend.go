package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"financial-product-advisor/internal/models"
)

// FileBackend serves documents from a local data directory.
type FileBackend struct {
	root string
}

// NewFileBackend creates a backend rooted at dir.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{root: dir}
}

// ReadDocument reads root/key.
func (b *FileBackend) ReadDocument(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(b.root, filepath.FromSlash(key)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", models.ErrSourceNotFound, key)
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// ListDocuments returns every regular file under root as a slash separated key.
// A missing root lists nothing.
func (b *FileBackend) ListDocuments(ctx context.Context) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(b.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(b.root, p)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", b.root, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// MemoryBackend holds documents in memory. Used by seeding dry runs and tests.
type MemoryBackend struct {
	Documents map[string][]byte
}

// ReadDocument returns the stored document.
func (b *MemoryBackend) ReadDocument(_ context.Context, key string) ([]byte, error) {
	data, ok := b.Documents[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrSourceNotFound, key)
	}
	return data, nil
}

// ListDocuments returns the stored keys, sorted.
func (b *MemoryBackend) ListDocuments(context.Context) ([]string, error) {
	keys := make([]string, 0, len(b.Documents))
	for k := range b.Documents {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
