// Package loader reads raw product records for each category from a
// document backend (local files, S3 or Postgres).
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/utils"
)

// Backend stores product documents addressed by slash separated keys such as
// "hdfc/cards.json". ReadDocument wraps models.ErrSourceNotFound for missing keys.
type Backend interface {
	ReadDocument(ctx context.Context, key string) ([]byte, error)
	ListDocuments(ctx context.Context) ([]string, error)
}

// Loader returns the raw records of one category. The source filter semantics
// are category specific; an empty source means everything.
type Loader interface {
	Category() models.ProductCategory
	Load(ctx context.Context, source string) ([]models.RawRecord, error)
	AvailableSources(ctx context.Context) ([]string, error)
}

// New returns the loader for an implemented category.
func New(category models.ProductCategory, backend Backend, logger *zap.Logger) (Loader, error) {
	switch category {
	case models.CategoryCreditCards:
		return NewCreditCardLoader(backend, logger), nil
	case models.CategoryFixedDeposits:
		return NewFixedDepositLoader(backend, logger), nil
	case models.CategoryMutualFunds:
		return NewMutualFundLoader(backend, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedCategory, category)
	}
}

// Document extensions, in lookup order.
var documentExtensions = []string{".json", ".csv"}

// readRecords loads base+".json", falling back to base+".csv".
func readRecords(ctx context.Context, backend Backend, base string) ([]models.RawRecord, error) {
	var lastErr error
	for _, ext := range documentExtensions {
		key := base + ext
		data, err := backend.ReadDocument(ctx, key)
		if err != nil {
			lastErr = err
			if errors.Is(err, models.ErrSourceNotFound) {
				continue
			}
			return nil, err
		}
		return DecodeDocument(key, data)
	}
	return nil, lastErr
}

// DecodeDocument parses a JSON or CSV document into records. A JSON object is
// one record; list entries that are not objects become nil records so the
// processor can reject them individually.
func DecodeDocument(key string, data []byte) ([]models.RawRecord, error) {
	if strings.EqualFold(path.Ext(key), ".csv") {
		rows, errs := utils.NewCSVParser().ParseRecords(string(data))
		if rows == nil && len(errs) > 0 {
			return nil, fmt.Errorf("failed to parse %s: %w", key, errors.Join(errs...))
		}
		records := make([]models.RawRecord, len(rows))
		for i, row := range rows {
			records[i] = row
		}
		return records, nil
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", key, err)
	}

	switch v := decoded.(type) {
	case map[string]any:
		return []models.RawRecord{v}, nil
	case []any:
		records := make([]models.RawRecord, len(v))
		for i, item := range v {
			if m, ok := item.(map[string]any); ok {
				records[i] = m
			}
		}
		return records, nil
	default:
		return nil, fmt.Errorf("%w: %s", models.ErrMalformedDocument, key)
	}
}

// containsFold reports whether any field contains needle, case-insensitively.
func containsFold(needle string, fields ...string) bool {
	needle = strings.ToLower(needle)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
