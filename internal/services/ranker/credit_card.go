package ranker

import (
	"strings"

	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/utils"
)

// Credit card boost multipliers.
const (
	CardQueryMultiplier      = 5.0
	CardPreferenceMultiplier = 3.0
	CardCategoryMultiplier   = 2.0
)

var (
	cardQueryKeywords = []keywordGroup{
		{"cashback", []string{"cashback", "cash back", "rewards"}},
		{"travel", []string{"travel", "miles", "airline", "hotel"}},
		{"fuel", []string{"fuel", "petrol", "gas"}},
		{"dining", []string{"dining", "restaurant", "food"}},
		{"shopping", []string{"shopping", "online", "ecommerce"}},
		{"premium", []string{"premium", "luxury", "exclusive"}},
		{"no annual fee", []string{"no annual fee", "free", "zero fee"}},
	}

	incomeRangeKeywords = map[string][]string{
		"premium": {"premium", "privilege", "signature"},
		"mid":     {"select", "classic"},
		"entry":   {"student", "basic", "starter"},
	}

	spendCategoryBonus = []struct {
		category string
		bonus    float64
	}{
		{"travel", 0.3},
		{"dining", 0.2},
		{"fuel", 0.2},
		{"online shopping", 0.25},
		{"groceries", 0.15},
	}

	cardPhrases = []phrase{
		{3, " Highly relevant to your query and preferences."},
		{1, " Good match for your requirements."},
		{0, " Partially matches your preferences."},
	}
)

// CreditCardRanker ranks credit cards.
type CreditCardRanker struct{}

// NewCreditCardRanker creates a credit card ranker.
func NewCreditCardRanker() *CreditCardRanker {
	return &CreditCardRanker{}
}

// Category returns models.CategoryCreditCards.
func (r *CreditCardRanker) Category() models.ProductCategory {
	return models.CategoryCreditCards
}

// Rank boosts cards by query relevance, preference fit and spend category coverage.
func (r *CreditCardRanker) Rank(products []models.ScoredProduct, query string, prefs models.UserPreferences) []models.ScoredProduct {
	words := queryWords(query)
	return rerank(products, func(sp models.ScoredProduct) float64 {
		return r.QueryRelevance(sp.Product, words)*CardQueryMultiplier +
			r.PreferenceAlignment(sp.Product, prefs)*CardPreferenceMultiplier +
			r.CategoryOptimization(sp.Product)*CardCategoryMultiplier
	}, cardPhrases)
}

// QueryRelevance scores name hits and query words that name a benefit the
// card's features mention.
func (r *CreditCardRanker) QueryRelevance(product models.Product, words []string) float64 {
	if len(words) == 0 {
		return 0
	}

	info := product.Info()
	score := 0.0
	if nameMatches(info.Name, words) {
		score += 0.3
	}

	featureText := info.FeatureText()
	for _, word := range words {
		for _, group := range cardQueryKeywords {
			if contains(group.keywords, word) && strings.Contains(featureText, group.label) {
				score += 0.1
			}
		}
	}

	return capUnit(score)
}

// PreferenceAlignment checks fee tolerance, income range and spending categories.
func (r *CreditCardRanker) PreferenceAlignment(product models.Product, prefs models.UserPreferences) float64 {
	info := product.Info()
	featureText := info.FeatureText()
	score := 0.0

	if prefs.Has(models.PrefMaxAnnualFee) {
		score += feeAlignment(product, prefs.Float(models.PrefMaxAnnualFee), featureText)
	}

	if keywords, ok := incomeRangeKeywords[prefs.Lower(models.PrefIncomeRange)]; ok {
		if utils.ContainsAny(strings.ToLower(info.Name), keywords...) {
			score += 0.3
		}
	}

	for _, category := range prefs.StringSlice(models.PrefSpendingCategories) {
		if strings.Contains(featureText, strings.ToLower(category)) {
			score += 0.1
		}
	}

	return capUnit(score)
}

// feeAlignment prefers the parsed annual fee and falls back to feature text.
func feeAlignment(product models.Product, maxFee *float64, featureText string) float64 {
	if card, ok := product.(*models.CreditCard); ok && card.AnnualFee != nil {
		switch {
		case *card.AnnualFee <= 0:
			return 0.4
		case maxFee == nil || *card.AnnualFee <= *maxFee:
			return 0.2
		default:
			return 0
		}
	}

	switch {
	case strings.Contains(featureText, "no annual fee"):
		return 0.4
	case strings.Contains(featureText, "annual fee"):
		return 0.2
	}
	return 0
}

// CategoryOptimization adds fixed bonuses for high-value spend categories.
func (r *CreditCardRanker) CategoryOptimization(product models.Product) float64 {
	featureText := product.Info().FeatureText()
	score := 0.0
	for _, c := range spendCategoryBonus {
		if strings.Contains(featureText, c.category) {
			score += c.bonus
		}
	}
	return capUnit(score)
}
