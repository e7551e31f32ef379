package manager

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/services/processor"
	"financial-product-advisor/internal/services/vectorstore"
)

// depositDescriber is implemented by the fixed deposit processor.
type depositDescriber interface {
	ExtractFeatures(raw models.RawRecord) processor.FixedDepositFeatures
	Describe(bankName string, f processor.FixedDepositFeatures) string
}

// InitializeVectorStore embeds every product of every category and upserts
// the vectors. It returns the number of vectors written. Without an
// embedder it does nothing and returns zero. A failing category is logged
// and skipped.
func (m *ProductManager) InitializeVectorStore(ctx context.Context) (int, error) {
	if m.embedder == nil {
		m.logger.Warn("No embedding function configured, skipping vector store population")
		return 0, nil
	}

	if err := m.store.EnsureIndex(ctx, m.dimension); err != nil {
		return 0, fmt.Errorf("failed to ensure vector index: %w", err)
	}

	total := 0
	for _, category := range m.order {
		n, err := m.embedCategory(ctx, category)
		if err != nil {
			m.logger.Warn("Failed to embed category",
				zap.String("category", string(category)),
				zap.Error(err),
			)
			continue
		}
		m.logger.Info("Embedded products",
			zap.String("category", string(category)),
			zap.Int("count", n),
		)
		total += n
	}

	m.logger.Info("Vector store populated", zap.Int("total", total))
	return total, nil
}

func (m *ProductManager) embedCategory(ctx context.Context, category models.ProductCategory) (int, error) {
	p := m.pipelines[category]

	raw, err := p.Loader.Load(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", category, err)
	}

	describer, _ := p.Processor.(depositDescriber)
	now := m.now()

	vectors := make([]vectorstore.Vector, 0, len(raw))
	for i, record := range raw {
		product, err := p.Processor.Process(record, "", i)
		if err != nil {
			m.logger.Warn("Skipping product for embedding",
				zap.String("category", string(category)),
				zap.Int("record_index", i),
				zap.Error(err),
			)
			continue
		}

		var extra []string
		if describer != nil {
			extra = append(extra, describer.Describe(product.Provider(), describer.ExtractFeatures(record)))
		}

		values, err := m.embedder.Embed(ctx, EmbeddingText(product, extra...))
		if err != nil {
			m.logger.Warn("Failed to embed product",
				zap.String("category", string(category)),
				zap.String("name", product.Info().Name),
				zap.Error(err),
			)
			continue
		}

		info := product.Info()
		vectors = append(vectors, vectorstore.Vector{
			ID:       vectorstore.GenerateID(string(category), product.Provider(), info.Name),
			Values:   values,
			Metadata: vectorstore.NewMetadata(info.ID, string(category), info.Name, product.Provider(), now),
		})
	}

	if len(vectors) == 0 {
		return 0, nil
	}
	if err := m.store.Upsert(ctx, vectors); err != nil {
		return 0, fmt.Errorf("upsert %s vectors: %w", category, err)
	}
	return len(vectors), nil
}

// SearchSimilar embeds query and returns the nearest stored products.
func (m *ProductManager) SearchSimilar(ctx context.Context, query string, topK int, filter map[string]string) ([]vectorstore.Match, error) {
	if m.embedder == nil {
		return nil, models.ErrNoEmbedder
	}
	vec, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return m.store.Query(ctx, vec, topK, filter)
}

// EmbeddingText renders a product as " | " joined text: name, description,
// category, features, any extra lines, then the category attributes.
// Empty parts are dropped.
func EmbeddingText(product models.Product, extra ...string) string {
	info := product.Info()
	parts := []string{info.Name, info.Description, "Category: " + string(info.Category)}
	if len(info.Features) > 0 {
		parts = append(parts, "Features: "+strings.Join(info.Features, "; "))
	}
	parts = append(parts, extra...)
	parts = append(parts, product.EmbeddingAttributes()...)

	kept := parts[:0]
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, " | ")
}
