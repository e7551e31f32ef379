package manager_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/services/loader"
	"financial-product-advisor/internal/services/manager"
	"financial-product-advisor/internal/services/vectorstore"
	"financial-product-advisor/internal/utils"
)

// fakeLoader returns fixed records and remembers the last source filter.
type fakeLoader struct {
	category   models.ProductCategory
	records    []models.RawRecord
	sources    []string
	err        error
	lastSource string
}

func (l *fakeLoader) Category() models.ProductCategory { return l.category }

func (l *fakeLoader) Load(_ context.Context, source string) ([]models.RawRecord, error) {
	l.lastSource = source
	return l.records, l.err
}

func (l *fakeLoader) AvailableSources(context.Context) ([]string, error) {
	return l.sources, nil
}

// scoreProcessor takes the score from the record's "score" field and
// rejects records marked "bad".
type scoreProcessor struct {
	category models.ProductCategory
}

func (p scoreProcessor) Category() models.ProductCategory { return p.category }

func (p scoreProcessor) Process(raw models.RawRecord, source string, index int) (models.Product, error) {
	if raw == nil || raw["bad"] != nil {
		return nil, models.ErrInvalidRecord
	}
	name := utils.ToString(raw["name"])
	info := models.ProductInfo{
		ID:       models.NewProductID(p.category, source, name, index),
		Name:     name,
		Category: p.category,
		Features: []string{"feature"},
	}
	switch p.category {
	case models.CategoryFixedDeposits:
		return &models.FixedDeposit{ProductInfo: info, BankName: "Bank"}, nil
	case models.CategoryMutualFunds:
		return &models.MutualFund{ProductInfo: info, AMC: "AMC", RiskLevel: "Low"}, nil
	default:
		return &models.CreditCard{ProductInfo: info, Bank: "Bank"}, nil
	}
}

func (p scoreProcessor) Score(product models.Product, _ models.UserPreferences) (float64, error) {
	return scores[product.Info().Name], nil
}

var scores = map[string]float64{}

// sortRanker keeps base scores and only sorts.
type sortRanker struct {
	category models.ProductCategory
}

func (r sortRanker) Category() models.ProductCategory { return r.category }

func (r sortRanker) Rank(products []models.ScoredProduct, _ string, _ models.UserPreferences) []models.ScoredProduct {
	out := append([]models.ScoredProduct(nil), products...)
	models.SortByScore(out)
	return out
}

func pipeline(category models.ProductCategory, named map[string]float64, order ...string) (manager.Pipeline, *fakeLoader) {
	l := &fakeLoader{category: category}
	for _, name := range order {
		scores[name] = named[name]
		l.records = append(l.records, models.RawRecord{"name": name})
	}
	return manager.Pipeline{
		Loader:    l,
		Processor: scoreProcessor{category: category},
		Ranker:    sortRanker{category: category},
	}, l
}

func TestRecommend_EmptyCategoriesAndPreferences(t *testing.T) {
	cards, _ := pipeline(models.CategoryCreditCards, map[string]float64{"Card": 80}, "Card")
	m := manager.NewWithPipelines([]manager.Pipeline{cards})

	rec := m.Recommend(context.Background(), manager.RecommendRequest{
		Query:       "",
		Categories:  []models.ProductCategory{},
		Preferences: models.UserPreferences{},
		MaxResults:  5,
	})

	assert.Empty(t, rec.Products)
	assert.NotNil(t, rec.Products)
	assert.Equal(t, 0, rec.TotalFound)
	assert.Equal(t, "No products found matching ''. Try different search terms.", rec.Reasoning)
}

func TestRecommend_TruncatesAfterCounting(t *testing.T) {
	named := map[string]float64{"A": 10, "B": 50, "C": 30, "D": 90, "E": 70}
	cards, _ := pipeline(models.CategoryCreditCards, named, "A", "B", "C", "D", "E")
	m := manager.NewWithPipelines([]manager.Pipeline{cards})

	rec := m.Recommend(context.Background(), manager.RecommendRequest{Query: "cards", MaxResults: 2})

	require.Len(t, rec.Products, 2)
	assert.Equal(t, "D", rec.Products[0].Product.Info().Name)
	assert.Equal(t, "E", rec.Products[1].Product.Info().Name)
	assert.Equal(t, 5, rec.TotalFound)
	assert.Equal(t, "cards", rec.QueryProcessed)
	assert.Equal(t,
		"Found 5 products matching 'cards'. Showing top 2 recommendations from 1 categories: credit_cards. Top recommendation score: 90.0/100.",
		rec.Reasoning)
}

func TestRecommend_DefaultMaxResults(t *testing.T) {
	named := map[string]float64{}
	var order []string
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("Card %02d", i)
		named[name] = float64(i)
		order = append(order, name)
	}
	cards, _ := pipeline(models.CategoryCreditCards, named, order...)

	rec := manager.NewWithPipelines([]manager.Pipeline{cards}).
		Recommend(context.Background(), manager.RecommendRequest{})
	assert.Len(t, rec.Products, manager.DefaultMaxResults)
	assert.Equal(t, 12, rec.TotalFound)

	rec = manager.NewWithPipelines([]manager.Pipeline{cards}, manager.WithDefaultMaxResults(3)).
		Recommend(context.Background(), manager.RecommendRequest{})
	assert.Len(t, rec.Products, 3)
}

func TestRecommend_StableMergeAcrossCategories(t *testing.T) {
	cards, _ := pipeline(models.CategoryCreditCards, map[string]float64{"card-1": 50, "card-2": 40}, "card-1", "card-2")
	deposits, _ := pipeline(models.CategoryFixedDeposits, map[string]float64{"fd-1": 50}, "fd-1")
	m := manager.NewWithPipelines([]manager.Pipeline{cards, deposits})

	rec := m.Recommend(context.Background(), manager.RecommendRequest{Query: "q"})

	names := make([]string, len(rec.Products))
	for i, p := range rec.Products {
		names[i] = p.Product.Info().Name
	}
	assert.Equal(t, []string{"card-1", "fd-1", "card-2"}, names)
	assert.Contains(t, rec.Reasoning, "from 2 categories: credit_cards, fixed_deposits.")
	assert.Equal(t, "Base score: 50.0", rec.Products[0].Reasoning)
}

func TestRecommend_CategoryFailureIsContained(t *testing.T) {
	cards, _ := pipeline(models.CategoryCreditCards, map[string]float64{"ok-card": 60}, "ok-card")
	deposits, depositLoader := pipeline(models.CategoryFixedDeposits, nil)
	depositLoader.err = errors.New("disk on fire")
	m := manager.NewWithPipelines([]manager.Pipeline{deposits, cards})

	rec := m.Recommend(context.Background(), manager.RecommendRequest{})

	require.Len(t, rec.Products, 1)
	assert.Equal(t, "ok-card", rec.Products[0].Product.Info().Name)
}

func TestRecommend_RecordFailureIsContained(t *testing.T) {
	cards, cardLoader := pipeline(models.CategoryCreditCards, map[string]float64{"good": 60, "also-good": 20}, "good", "also-good")
	cardLoader.records = append(cardLoader.records, models.RawRecord{"name": "broken", "bad": true}, nil)
	m := manager.NewWithPipelines([]manager.Pipeline{cards})

	rec := m.Recommend(context.Background(), manager.RecommendRequest{})

	assert.Len(t, rec.Products, 2)
	assert.Equal(t, 2, rec.TotalFound)
}

func TestRecommend_SourcePreferenceAndReservedCategories(t *testing.T) {
	cards, cardLoader := pipeline(models.CategoryCreditCards, map[string]float64{"hdfc-card": 60}, "hdfc-card")
	m := manager.NewWithPipelines([]manager.Pipeline{cards})

	rec := m.Recommend(context.Background(), manager.RecommendRequest{
		Categories:  []models.ProductCategory{models.CategoryInsurance, models.CategoryCreditCards, models.CategoryCreditCards},
		Preferences: models.UserPreferences{"credit_cards_source": "hdfc"},
	})

	assert.Equal(t, "hdfc", cardLoader.lastSource)
	assert.Len(t, rec.Products, 1)
}

func TestRecommend_TotalFoundInvariant(t *testing.T) {
	named := map[string]float64{"a": 1, "b": 2, "c": 3}
	cards, _ := pipeline(models.CategoryCreditCards, named, "a", "b", "c")
	m := manager.NewWithPipelines([]manager.Pipeline{cards})

	for maxResults := 1; maxResults <= 5; maxResults++ {
		rec := m.Recommend(context.Background(), manager.RecommendRequest{MaxResults: maxResults})
		assert.GreaterOrEqual(t, rec.TotalFound, len(rec.Products))
		assert.Equal(t, rec.TotalFound <= maxResults, rec.TotalFound == len(rec.Products))
		for i := 1; i < len(rec.Products); i++ {
			assert.GreaterOrEqual(t, rec.Products[i-1].Score, rec.Products[i].Score)
		}
	}
}

func TestCategoryStats(t *testing.T) {
	cards, cardLoader := pipeline(models.CategoryCreditCards, map[string]float64{"x": 1, "y": 2}, "x", "y")
	for i := 0; i < 12; i++ {
		cardLoader.sources = append(cardLoader.sources, fmt.Sprintf("bank-%02d", i))
	}
	deposits, depositLoader := pipeline(models.CategoryFixedDeposits, nil)
	depositLoader.err = errors.New("unreachable")
	m := manager.NewWithPipelines([]manager.Pipeline{cards, deposits})

	stats := m.CategoryStats(context.Background())

	assert.Len(t, stats, len(models.ValidCategories()))

	cc := stats[models.CategoryCreditCards]
	assert.Equal(t, 2, cc.TotalProducts)
	assert.Equal(t, 12, cc.AvailableSources)
	assert.Len(t, cc.Sources, 10)
	assert.Empty(t, cc.Error)

	fd := stats[models.CategoryFixedDeposits]
	assert.Equal(t, "unreachable", fd.Error)
	assert.Equal(t, 0, fd.TotalProducts)
	assert.Empty(t, fd.Sources)

	assert.Contains(t, stats[models.CategoryInsurance].Error, "not supported")
	assert.Contains(t, stats[models.CategoryMutualFunds].Error, "not supported")
}

// lengthEmbedder maps text to a two-dimensional vector.
type lengthEmbedder struct {
	texts []string
}

func (e *lengthEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.texts = append(e.texts, text)
	if strings.Contains(text, "deposit") {
		return []float32{0, 1}, nil
	}
	return []float32{1, 0}, nil
}

func TestInitializeVectorStore_NoEmbedder(t *testing.T) {
	cards, _ := pipeline(models.CategoryCreditCards, map[string]float64{"x": 1}, "x")
	store := vectorstore.NewMemoryStore()
	m := manager.NewWithPipelines([]manager.Pipeline{cards}, manager.WithVectorStore(store))

	n, err := m.InitializeVectorStore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, store.Len())

	_, err = m.SearchSimilar(context.Background(), "x", 5, nil)
	assert.ErrorIs(t, err, models.ErrNoEmbedder)
}

func TestInitializeVectorStore_AndSearch(t *testing.T) {
	cards, _ := pipeline(models.CategoryCreditCards, map[string]float64{"travel card": 1}, "travel card")
	deposits, _ := pipeline(models.CategoryFixedDeposits, map[string]float64{"deposit plan": 1}, "deposit plan")
	broken, brokenLoader := pipeline(models.CategoryMutualFunds, nil)
	brokenLoader.err = errors.New("no funds file")

	store := vectorstore.NewMemoryStore()
	embedder := &lengthEmbedder{}
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	m := manager.NewWithPipelines([]manager.Pipeline{cards, deposits, broken},
		manager.WithVectorStore(store),
		manager.WithEmbedder(embedder),
		manager.WithVectorDimension(2),
		manager.WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	n, err := m.InitializeVectorStore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, store.Len())

	matches, err := m.SearchSimilar(ctx, "fixed deposit", 1, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, vectorstore.GenerateID("fixed_deposits", "Bank", "deposit plan"), matches[0].ID)
	assert.Equal(t, "deposit plan", matches[0].Metadata[vectorstore.MetaProductName])
	assert.Equal(t, "2026-03-01T00:00:00Z", matches[0].Metadata[vectorstore.MetaCreatedAt])

	matches, err = m.SearchSimilar(ctx, "anything", 5, map[string]string{vectorstore.MetaProductType: "credit_cards"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "travel card", matches[0].Metadata[vectorstore.MetaProductName])
}

func TestEmbeddingText(t *testing.T) {
	fund := &models.MutualFund{
		ProductInfo: models.ProductInfo{
			Name:     "Axis Bluechip Fund",
			Category: models.CategoryMutualFunds,
			Features: []string{"3Y Returns: 12%", "Risk: Very High"},
		},
		AMC:       "Axis",
		RiskLevel: "Very High",
	}

	assert.Equal(t,
		"Axis Bluechip Fund | Category: mutual_funds | Features: 3Y Returns: 12%; Risk: Very High | Bank: Axis | Risk: Very High",
		manager.EmbeddingText(fund))
	assert.Contains(t, manager.EmbeddingText(fund, "extra line"), "Risk: Very High | extra line | Bank: Axis")
}

func TestNew_WithMemoryBackend(t *testing.T) {
	backend := &loader.MemoryBackend{Documents: map[string][]byte{
		"hdfc/cards.json": []byte(`[
			{"name": "Example Card", "bank": "HDFC", "annual_fee": 0,
			 "description": "Earn 5% cashback on fuel, lounge access, welcome bonus"},
			{"name": "Plain Card", "description": "Basic card"}
		]`),
		"fixed-deposit/fd.json": []byte(`[
			{"bank_name": "SBI", "roi_in_percentage_max_tenure": "7.5",
			 "roi_in_percentage_senior_citizen_max_tenure": "8.1",
			 "tenure_from_days": 365, "tenure_to_days": 1825}
		]`),
		"mutual-funds/funds.json": []byte(`[
			{"name": "Axis Bluechip Fund", "amc": "Axis", "category": "Large Cap",
			 "risk_level": "Moderate", "rating": 4, "returns_3y": 12.5, "expense_ratio": 0.6}
		]`),
	}}

	m, err := manager.New(backend)
	require.NoError(t, err)
	assert.Equal(t, models.ImplementedCategories(), m.Categories())

	rec := m.Recommend(context.Background(), manager.RecommendRequest{Query: "cashback card"})
	require.Len(t, rec.Products, 4)
	assert.Equal(t, 4, rec.TotalFound)
	for i := 1; i < len(rec.Products); i++ {
		assert.GreaterOrEqual(t, rec.Products[i-1].Score, rec.Products[i].Score)
	}
	for _, p := range rec.Products {
		assert.GreaterOrEqual(t, p.Score, 0.0)
		assert.LessOrEqual(t, p.Score, 100.0)
	}
	assert.True(t, strings.HasPrefix(rec.Reasoning, "Found 4 products matching 'cashback card'."))

	l, ok := m.Loader(models.CategoryFixedDeposits)
	require.True(t, ok)
	assert.IsType(t, &loader.FixedDepositLoader{}, l)
}
