// Package processor converts raw product records into typed products and
// computes their base scores.
package processor

import (
	"fmt"
	"strings"

	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/utils"
)

// Score bounds shared by all categories.
const (
	MinScore = 0.0
	MaxScore = 100.0
)

// Processor normalizes raw records and scores products of one category.
// Process is total over field maps: missing or malformed fields degrade to
// absent values. Score depends only on the product and the preferences.
type Processor interface {
	Category() models.ProductCategory
	Process(raw models.RawRecord, source string, index int) (models.Product, error)
	Score(product models.Product, prefs models.UserPreferences) (float64, error)
}

// New returns the processor for an implemented category.
func New(category models.ProductCategory) (Processor, error) {
	switch category {
	case models.CategoryCreditCards:
		return NewCreditCardProcessor(), nil
	case models.CategoryFixedDeposits:
		return NewFixedDepositProcessor(), nil
	case models.CategoryMutualFunds:
		return NewMutualFundProcessor(), nil
	default:
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedCategory, category)
	}
}

// matchesAny reports whether name contains any of the keywords, case-insensitively.
func matchesAny(name string, keywords []string) bool {
	return utils.ContainsAny(strings.ToLower(name), keywords...)
}

func clampScore(score float64) float64 {
	return utils.Clamp(score, MinScore, MaxScore)
}

func firstString(raw models.RawRecord, keys ...string) string {
	for _, key := range keys {
		if s := utils.ToString(raw[key]); s != "" {
			return s
		}
	}
	return ""
}
