// Package manager orchestrates loading, scoring and ranking across product
// categories and populates the vector store.
package manager

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"financial-product-advisor/internal/metrics"
	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/services/embedding"
	"financial-product-advisor/internal/services/loader"
	"financial-product-advisor/internal/services/processor"
	"financial-product-advisor/internal/services/ranker"
	"financial-product-advisor/internal/services/vectorstore"
	"financial-product-advisor/internal/utils"
)

const (
	// DefaultMaxResults applies when a request asks for zero or fewer results.
	DefaultMaxResults = 10

	// DefaultVectorDimension matches OpenAI's small embedding models.
	DefaultVectorDimension = 1536

	maxStatsSources = 10
)

// Pipeline is the loader, processor and ranker of one category.
type Pipeline struct {
	Loader    loader.Loader
	Processor processor.Processor
	Ranker    ranker.Ranker
}

// RecommendRequest is the input of Recommend. A nil Categories means every
// implemented category; an empty non-nil slice means none.
type RecommendRequest struct {
	Query       string                   `json:"query"`
	Categories  []models.ProductCategory `json:"categories,omitempty"`
	Preferences models.UserPreferences   `json:"preferences,omitempty"`
	MaxResults  int                      `json:"max_results,omitempty"`
}

// ProductManager is safe for concurrent Recommend calls when its loaders
// are. InitializeVectorStore should not run concurrently with itself.
type ProductManager struct {
	pipelines  map[models.ProductCategory]Pipeline
	order      []models.ProductCategory
	embedder   embedding.Embedder
	store      vectorstore.Store
	dimension  int
	maxResults int
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures a ProductManager.
type Option func(*ProductManager)

// WithEmbedder sets the embedding function used for vector search.
func WithEmbedder(e embedding.Embedder) Option {
	return func(m *ProductManager) { m.embedder = e }
}

// WithVectorStore replaces the default in-memory vector store.
func WithVectorStore(s vectorstore.Store) Option {
	return func(m *ProductManager) {
		if s != nil {
			m.store = s
		}
	}
}

// WithVectorDimension sets the dimension used when creating the index.
func WithVectorDimension(d int) Option {
	return func(m *ProductManager) {
		if d > 0 {
			m.dimension = d
		}
	}
}

// WithDefaultMaxResults overrides DefaultMaxResults.
func WithDefaultMaxResults(n int) Option {
	return func(m *ProductManager) {
		if n > 0 {
			m.maxResults = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *ProductManager) { m.logger = utils.OrNop(l) }
}

// WithClock overrides the clock used for vector metadata timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *ProductManager) { m.now = now }
}

// New builds a manager with the standard pipeline of every implemented
// category reading from backend.
func New(backend loader.Backend, opts ...Option) (*ProductManager, error) {
	m := newManager(opts)
	for _, category := range models.ImplementedCategories() {
		l, err := loader.New(category, backend, m.logger)
		if err != nil {
			return nil, err
		}
		p, err := processor.New(category)
		if err != nil {
			return nil, err
		}
		r, err := ranker.New(category)
		if err != nil {
			return nil, err
		}
		m.addPipeline(Pipeline{Loader: l, Processor: p, Ranker: r})
	}
	return m, nil
}

// NewWithPipelines builds a manager over explicit pipelines, keyed by the
// loader's category. A later pipeline for the same category replaces the earlier one.
func NewWithPipelines(pipelines []Pipeline, opts ...Option) *ProductManager {
	m := newManager(opts)
	for _, p := range pipelines {
		m.addPipeline(p)
	}
	return m
}

func newManager(opts []Option) *ProductManager {
	m := &ProductManager{
		pipelines:  make(map[models.ProductCategory]Pipeline),
		store:      vectorstore.NewMemoryStore(),
		dimension:  DefaultVectorDimension,
		maxResults: DefaultMaxResults,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *ProductManager) addPipeline(p Pipeline) {
	category := p.Loader.Category()
	if _, exists := m.pipelines[category]; !exists {
		m.order = append(m.order, category)
	}
	m.pipelines[category] = p
}

// Categories lists the categories with a pipeline.
func (m *ProductManager) Categories() []models.ProductCategory {
	return append([]models.ProductCategory(nil), m.order...)
}

// Loader returns the loader of a category.
func (m *ProductManager) Loader(category models.ProductCategory) (loader.Loader, bool) {
	p, ok := m.pipelines[category]
	return p.Loader, ok
}

// Recommend scores and ranks products of the requested categories and merges
// them. Failures are contained per record and per category; the worst outcome
// is an empty product list.
func (m *ProductManager) Recommend(ctx context.Context, req RecommendRequest) models.Recommendation {
	start := time.Now()
	defer func() {
		metrics.RecommendationDuration.Observe(time.Since(start).Seconds())
	}()

	categories := req.Categories
	if categories == nil {
		categories = m.order
	}
	prefs := req.Preferences
	if prefs == nil {
		prefs = models.UserPreferences{}
	}
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = m.maxResults
	}

	var all []models.ScoredProduct
	seen := make(map[models.ProductCategory]bool, len(categories))
	for _, category := range categories {
		if seen[category] {
			continue
		}
		seen[category] = true

		ranked, err := m.processCategory(ctx, category, req.Query, prefs)
		if err != nil {
			metrics.CategoryFailuresTotal.WithLabelValues(string(category)).Inc()
			m.logger.Warn("Skipping category",
				zap.String("category", string(category)),
				zap.Error(err),
			)
			continue
		}
		all = append(all, ranked...)
	}

	models.SortByScore(all)

	totalFound := len(all)
	products := all
	if len(products) > maxResults {
		products = products[:maxResults]
	}
	if products == nil {
		products = []models.ScoredProduct{}
	}

	status := "ok"
	if len(products) == 0 {
		status = "empty"
	}
	metrics.RecommendationsTotal.WithLabelValues(status).Inc()

	m.logger.Info("Recommendation complete",
		zap.String("query", req.Query),
		zap.Int("total_found", totalFound),
		zap.Int("returned", len(products)),
	)

	return models.Recommendation{
		Products:       products,
		TotalFound:     totalFound,
		QueryProcessed: req.Query,
		Reasoning:      recommendationReasoning(req.Query, products, totalFound),
	}
}

// processCategory runs load, process, score and rank for one category.
func (m *ProductManager) processCategory(ctx context.Context, category models.ProductCategory, query string, prefs models.UserPreferences) ([]models.ScoredProduct, error) {
	p, ok := m.pipelines[category]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedCategory, category)
	}

	source := prefs.String(category.SourceKey())
	raw, err := p.Loader.Load(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", category, err)
	}

	scored := make([]models.ScoredProduct, 0, len(raw))
	for i, record := range raw {
		product, score, err := scoreRecord(p.Processor, record, source, i, prefs)
		if err != nil {
			metrics.ProductsProcessedTotal.WithLabelValues(string(category), "rejected").Inc()
			m.logger.Warn("Skipping product",
				zap.String("category", string(category)),
				zap.Int("record_index", i),
				zap.String("name", recordName(record)),
				zap.Error(err),
			)
			continue
		}
		metrics.ProductsProcessedTotal.WithLabelValues(string(category), "ok").Inc()
		scored = append(scored, models.ScoredProduct{
			Product:   product,
			Score:     score,
			Reasoning: fmt.Sprintf("Base score: %.1f", score),
		})
	}

	return p.Ranker.Rank(scored, query, prefs), nil
}

func scoreRecord(p processor.Processor, record models.RawRecord, source string, index int, prefs models.UserPreferences) (models.Product, float64, error) {
	product, err := p.Process(record, source, index)
	if err != nil {
		return nil, 0, err
	}
	score, err := p.Score(product, prefs)
	if err != nil {
		return nil, 0, err
	}
	return product, score, nil
}

func recordName(record models.RawRecord) string {
	if name := utils.ToString(record["name"]); name != "" {
		return name
	}
	return "Unknown"
}

// recommendationReasoning summarizes the shown products, naming categories
// in order of first appearance.
func recommendationReasoning(query string, products []models.ScoredProduct, totalFound int) string {
	if len(products) == 0 {
		return fmt.Sprintf("No products found matching '%s'. Try different search terms.", query)
	}

	var categories []string
	seen := make(map[models.ProductCategory]bool)
	for _, p := range products {
		category := p.Product.Info().Category
		if !seen[category] {
			seen[category] = true
			categories = append(categories, string(category))
		}
	}

	return fmt.Sprintf("Found %d products matching '%s'. Showing top %d recommendations from %d categories: %s. Top recommendation score: %.1f/100.",
		totalFound, query, len(products), len(categories), strings.Join(categories, ", "), products[0].Score)
}

// CategoryStats reports raw record and source counts for every known
// category. Categories without a pipeline or with failing loaders carry an
// error message instead.
func (m *ProductManager) CategoryStats(ctx context.Context) map[models.ProductCategory]models.CategoryStats {
	stats := make(map[models.ProductCategory]models.CategoryStats)
	for _, category := range models.ValidCategories() {
		s, err := m.categoryStats(ctx, category)
		if err != nil {
			stats[category] = models.CategoryStats{Sources: []string{}, Error: err.Error()}
			continue
		}
		stats[category] = s
	}
	return stats
}

func (m *ProductManager) categoryStats(ctx context.Context, category models.ProductCategory) (models.CategoryStats, error) {
	p, ok := m.pipelines[category]
	if !ok {
		return models.CategoryStats{}, fmt.Errorf("%w: %s", models.ErrUnsupportedCategory, category)
	}

	raw, err := p.Loader.Load(ctx, "")
	if err != nil {
		return models.CategoryStats{}, err
	}
	sources, err := p.Loader.AvailableSources(ctx)
	if err != nil {
		return models.CategoryStats{}, err
	}

	sample := sources
	if len(sample) > maxStatsSources {
		sample = sample[:maxStatsSources]
	}
	if sample == nil {
		sample = []string{}
	}
	return models.CategoryStats{
		TotalProducts:    len(raw),
		AvailableSources: len(sources),
		Sources:          sample,
	}, nil
}
