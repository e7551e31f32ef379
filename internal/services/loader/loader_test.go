package loader_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/services/loader"
)

func memoryBackend(docs map[string]string) *loader.MemoryBackend {
	b := &loader.MemoryBackend{Documents: make(map[string][]byte, len(docs))}
	for k, v := range docs {
		b.Documents[k] = []byte(v)
	}
	return b
}

func TestNew_ClosedSet(t *testing.T) {
	backend := memoryBackend(nil)
	for _, category := range models.ImplementedCategories() {
		l, err := loader.New(category, backend, nil)
		require.NoError(t, err)
		assert.Equal(t, category, l.Category())
	}

	_, err := loader.New(models.CategoryInsurance, backend, nil)
	assert.ErrorIs(t, err, models.ErrUnsupportedCategory)
}

func TestDecodeDocument(t *testing.T) {
	records, err := loader.DecodeDocument("a.json", []byte(`{"name": "One"}`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "One", records[0]["name"])

	records, err = loader.DecodeDocument("a.json", []byte(`[{"name": "One"}, 5, {"name": "Two"}]`))
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Nil(t, records[1])
	assert.Equal(t, "Two", records[2]["name"])

	records, err = loader.DecodeDocument("a.csv", []byte("name,bank\nMoneyback,HDFC\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "HDFC", records[0]["bank"])

	_, err = loader.DecodeDocument("a.json", []byte(`"just a string"`))
	assert.ErrorIs(t, err, models.ErrMalformedDocument)

	_, err = loader.DecodeDocument("a.json", []byte(`{broken`))
	assert.Error(t, err)
}

func TestCreditCardLoader(t *testing.T) {
	backend := memoryBackend(map[string]string{
		"hdfc/cards.json":        `[{"name": "Millennia", "description": "5% cashback"}]`,
		"ICICI/cards.csv":        "name,bank\nCoral,ICICI Bank\n",
		"yes_bank/cards.json":    `[{"name": "Prosperity"}]`,
		"broken/cards.json":      `{not json`,
		"fixed-deposit/fd.json":  `[]`,
		"hdfc/nested/cards.json": `[]`,
	})
	l := loader.NewCreditCardLoader(backend, nil)
	ctx := context.Background()

	t.Run("sources", func(t *testing.T) {
		sources, err := l.AvailableSources(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"broken", "hdfc", "icici", "yes_bank"}, sources)
	})

	t.Run("single bank is case insensitive", func(t *testing.T) {
		records, err := l.Load(ctx, "HDFC")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Millennia", records[0]["name"])
		assert.Equal(t, "Hdfc", records[0]["bank"])
	})

	t.Run("csv fallback keeps explicit bank", func(t *testing.T) {
		records, err := l.Load(ctx, "icici")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "ICICI Bank", records[0]["bank"])
	})

	t.Run("bank name is title cased", func(t *testing.T) {
		records, err := l.Load(ctx, "yes_bank")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Yes Bank", records[0]["bank"])
	})

	t.Run("unknown bank lists available banks", func(t *testing.T) {
		_, err := l.Load(ctx, "citi")
		require.ErrorIs(t, err, models.ErrSourceNotFound)
		assert.Contains(t, err.Error(), "hdfc, icici")
	})

	t.Run("all banks skip broken ones", func(t *testing.T) {
		records, err := l.Load(ctx, "")
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})

	t.Run("counts", func(t *testing.T) {
		counts, err := l.CardCounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"broken": 0, "hdfc": 1, "icici": 1, "yes_bank": 1}, counts)
	})
}

const depositsJSON = `[
	{"_source": {"bank_name": "SBI", "about": "State Bank of India offers deposits",
		"roi_in_percentage_max_tenure": "7.0%", "roi_in_percentage_senior_citizen_max_tenure": "7.5%",
		"tenure_from_days": 7}},
	{"bank_name": "Bajaj Finance", "about": "Bajaj Finance Limited is an NBFC",
		"roi_in_percentage_max_tenure": "8.35%", "tenure_from_days": 365},
	{"bank_name": "Tiny", "about": "Tiny Ltd", "roi_in_percentage_min_tenure": "3%", "tenure_from_days": 1000}
]`

func TestFixedDepositLoader(t *testing.T) {
	l := loader.NewFixedDepositLoader(memoryBackend(map[string]string{
		"fixed-deposit/fd.json": depositsJSON,
	}), nil)
	ctx := context.Background()

	t.Run("unwraps search index records", func(t *testing.T) {
		records, err := l.Load(ctx, "")
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "SBI", records[0]["bank_name"])
	})

	t.Run("filters on bank name and about", func(t *testing.T) {
		records, err := l.Load(ctx, "state bank")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "SBI", records[0]["bank_name"])

		records, err = l.Load(ctx, "bajaj")
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("sources", func(t *testing.T) {
		sources, err := l.AvailableSources(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Bajaj Finance Limited", "State Bank of India"}, sources)
	})

	t.Run("by min rate", func(t *testing.T) {
		records, err := l.ByMinRate(ctx, 7.2)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "Bajaj Finance", records[0]["bank_name"])
		assert.Equal(t, "SBI", records[1]["bank_name"])
	})

	t.Run("by tenure", func(t *testing.T) {
		records, err := l.ByTenure(ctx, 300, 1000)
		require.NoError(t, err)
		assert.Len(t, records, 2)

		records, err = l.ByTenure(ctx, 0, 0)
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})

	t.Run("missing document", func(t *testing.T) {
		empty := loader.NewFixedDepositLoader(memoryBackend(nil), nil)
		_, err := empty.Load(ctx, "")
		assert.ErrorIs(t, err, models.ErrSourceNotFound)
	})
}

func TestExtractBankName(t *testing.T) {
	testCases := []struct {
		about    string
		expected string
	}{
		{"HDFC Bank is a private bank", "HDFC Bank"},
		{"Deposits by Punjab National Bank", "Punjab National Bank"},
		{"Shriram Finance Limited offers FDs", "Shriram Finance Limited"},
		{"Abc Ltd", ""},
		{"A deposit scheme", ""},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.about, func(t *testing.T) {
			assert.Equal(t, tc.expected, loader.ExtractBankName(tc.about))
		})
	}
}

const fundsJSON = `[
	{"name": "Axis Bluechip Fund", "amc": "Axis", "category": "Large Cap", "risk_level": "Very High", "rating": 4},
	{"name": "SBI Small Cap Fund", "amc": "SBI", "category": "Small Cap", "risk_level": "Very High", "rating": 5},
	{"name": "Mystery Fund", "amc": "Unknown", "rating": 2}
]`

func TestMutualFundLoader(t *testing.T) {
	l := loader.NewMutualFundLoader(memoryBackend(map[string]string{
		"mutual-funds/funds.json": fundsJSON,
	}), nil)
	ctx := context.Background()

	records, err := l.Load(ctx, "")
	require.NoError(t, err)
	assert.Len(t, records, 3)

	records, err = l.Load(ctx, "small cap")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "SBI Small Cap Fund", records[0]["name"])

	records, err = l.Load(ctx, "axis")
	require.NoError(t, err)
	assert.Len(t, records, 1)

	sources, err := l.AvailableSources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Axis", "Large Cap", "SBI", "Small Cap"}, sources)

	groups, err := l.GroupBy(ctx, "risk_level")
	require.NoError(t, err)
	assert.Len(t, groups["Very High"], 2)
	assert.Len(t, groups["Unknown"], 1)

	top, err := l.TopRated(ctx, 4)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "SBI Small Cap Fund", top[0]["name"])
}

func TestFileBackend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "hdfc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hdfc", "cards.json"), []byte(`[{"name": "Regalia"}]`), 0o644))

	backend := loader.NewFileBackend(dir)
	ctx := context.Background()

	keys, err := backend.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"hdfc/cards.json"}, keys)

	data, err := backend.ReadDocument(ctx, "hdfc/cards.json")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name": "Regalia"}]`, string(data))

	_, err = backend.ReadDocument(ctx, "sbi/cards.json")
	assert.ErrorIs(t, err, models.ErrSourceNotFound)

	missing := loader.NewFileBackend(filepath.Join(dir, "nope"))
	keys, err = missing.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}
