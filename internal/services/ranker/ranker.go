// Package ranker re-scores products of one category against the user's query
// and preferences.
package ranker

import (
	"fmt"
	"strings"

	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/utils"
)

// Ranker layers query and preference boosts on top of base scores.
// The output has the same length as the input, sorted by score descending.
type Ranker interface {
	Category() models.ProductCategory
	Rank(products []models.ScoredProduct, query string, prefs models.UserPreferences) []models.ScoredProduct
}

// New returns the ranker for an implemented category.
func New(category models.ProductCategory) (Ranker, error) {
	switch category {
	case models.CategoryCreditCards:
		return NewCreditCardRanker(), nil
	case models.CategoryFixedDeposits:
		return NewFixedDepositRanker(), nil
	case models.CategoryMutualFunds:
		return NewMutualFundRanker(), nil
	default:
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedCategory, category)
	}
}

// phrase is appended to the reasoning when the boost exceeds threshold.
type phrase struct {
	threshold float64
	text      string
}

// keywordGroup maps a label to the words that signal it.
type keywordGroup struct {
	label    string
	keywords []string
}

// rerank applies boost to every product, clamps, appends the phrase matching
// the improvement and sorts. Thresholds must be in descending order.
func rerank(products []models.ScoredProduct, boost func(models.ScoredProduct) float64, phrases []phrase) []models.ScoredProduct {
	ranked := make([]models.ScoredProduct, len(products))

	for i, sp := range products {
		enhanced := utils.Clamp(sp.Score+boost(sp), 0, 100)
		ranked[i] = sp.Rescored(enhanced, sp.Reasoning+phraseFor(enhanced-sp.Score, phrases))
	}

	models.SortByScore(ranked)
	return ranked
}

func phraseFor(improvement float64, phrases []phrase) string {
	for _, p := range phrases {
		if improvement > p.threshold {
			return p.text
		}
	}
	return ""
}

func queryWords(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// nameMatches reports whether any query word occurs in the product name.
func nameMatches(name string, words []string) bool {
	lower := strings.ToLower(name)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func contains(list []string, word string) bool {
	for _, item := range list {
		if item == word {
			return true
		}
	}
	return false
}

// capUnit bounds a signal to [0, 1].
func capUnit(v float64) float64 {
	return utils.Clamp(v, 0, 1)
}
