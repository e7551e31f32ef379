package loader

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/utils"
)

const fundsDocument = "mutual-funds/funds"

// MutualFundLoader reads mutual-funds/funds.json.
type MutualFundLoader struct {
	backend Backend
	logger  *zap.Logger
}

// NewMutualFundLoader creates a mutual fund loader.
func NewMutualFundLoader(backend Backend, logger *zap.Logger) *MutualFundLoader {
	return &MutualFundLoader{backend: backend, logger: utils.OrNop(logger)}
}

// Category returns models.CategoryMutualFunds.
func (l *MutualFundLoader) Category() models.ProductCategory {
	return models.CategoryMutualFunds
}

// Load returns funds whose category, AMC or name contains source.
func (l *MutualFundLoader) Load(ctx context.Context, source string) ([]models.RawRecord, error) {
	records, err := readRecords(ctx, l.backend, fundsDocument)
	if err != nil {
		return nil, err
	}
	if source == "" {
		return records, nil
	}

	var funds []models.RawRecord
	for _, record := range records {
		if record == nil {
			continue
		}
		if containsFold(source,
			utils.ToString(record["category"]),
			utils.ToString(record["amc"]),
			utils.ToString(record["name"])) {
			funds = append(funds, record)
		}
	}

	l.logger.Debug("Filtered mutual funds",
		zap.String("source", source),
		zap.Int("count", len(funds)),
	)

	return funds, nil
}

// AvailableSources lists fund categories and AMCs, sorted.
func (l *MutualFundLoader) AvailableSources(ctx context.Context) ([]string, error) {
	records, err := l.Load(ctx, "")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var sources []string
	add := func(s string) {
		if s != "" && s != "Unknown" && !seen[s] {
			seen[s] = true
			sources = append(sources, s)
		}
	}
	for _, record := range records {
		if record == nil {
			continue
		}
		add(utils.ToString(record["category"]))
		add(utils.ToString(record["amc"]))
	}
	sort.Strings(sources)
	return sources, nil
}

// GroupBy groups funds by the text value of field; missing values group
// under "Unknown". Use "category" or "risk_level".
func (l *MutualFundLoader) GroupBy(ctx context.Context, field string) (map[string][]models.RawRecord, error) {
	records, err := l.Load(ctx, "")
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]models.RawRecord)
	for _, record := range records {
		if record == nil {
			continue
		}
		key := utils.ToString(record[field])
		if key == "" {
			key = "Unknown"
		}
		groups[key] = append(groups[key], record)
	}
	return groups, nil
}

// TopRated returns funds rated at least minRating, highest first.
func (l *MutualFundLoader) TopRated(ctx context.Context, minRating float64) ([]models.RawRecord, error) {
	records, err := l.Load(ctx, "")
	if err != nil {
		return nil, err
	}

	var top []models.RawRecord
	for _, record := range records {
		if record == nil {
			continue
		}
		if rating := utils.ToFloat(record["rating"]); rating != nil && *rating >= minRating {
			top = append(top, record)
		}
	}
	sort.SliceStable(top, func(i, j int) bool {
		return *utils.ToFloat(top[i]["rating"]) > *utils.ToFloat(top[j]["rating"])
	})
	return top, nil
}
