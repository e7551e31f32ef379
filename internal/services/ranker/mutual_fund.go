package ranker

import (
	"strings"

	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/utils"
)

// Mutual fund boost multipliers.
const (
	FundGoalMultiplier    = 4.0
	FundHorizonMultiplier = 3.0
	FundQueryMultiplier   = 2.0
	FundSIPMultiplier     = 1.0
)

var (
	goalCategoryKeywords = map[string][]string{
		"wealth creation":      {"equity", "growth", "large cap", "mid cap", "small cap"},
		"retirement":           {"equity", "balanced", "hybrid", "retirement"},
		"tax saving":           {"elss", "tax", "saving"},
		"regular income":       {"debt", "income", "dividend", "monthly income"},
		"capital preservation": {"debt", "liquid", "ultra short", "low duration"},
		"child education":      {"equity", "children", "education"},
		"emergency fund":       {"liquid", "ultra short", "overnight"},
	}

	fundQueryKeywords = []keywordGroup{
		{"sip", []string{"sip", "systematic"}},
		{"tax saving", []string{"elss", "tax"}},
		{"large cap", []string{"large cap", "blue chip"}},
		{"small cap", []string{"small cap"}},
		{"mid cap", []string{"mid cap"}},
		{"debt", []string{"debt", "bond", "fixed income"}},
		{"equity", []string{"equity", "stock"}},
		{"balanced", []string{"balanced", "hybrid"}},
		{"sectoral", []string{"sectoral", "thematic"}},
		{"index", []string{"index", "passive"}},
	}

	fundPhrases = []phrase{
		{3, " Excellent alignment with your investment goals and risk profile."},
		{1.5, " Good match for your investment strategy."},
		{0.5, " Suitable for your investment preferences."},
	}
)

// MutualFundRanker ranks mutual funds.
type MutualFundRanker struct{}

// NewMutualFundRanker creates a mutual fund ranker.
func NewMutualFundRanker() *MutualFundRanker {
	return &MutualFundRanker{}
}

// Category returns models.CategoryMutualFunds.
func (r *MutualFundRanker) Category() models.ProductCategory {
	return models.CategoryMutualFunds
}

// Rank boosts funds by goal and horizon fit, query relevance and SIP suitability.
func (r *MutualFundRanker) Rank(products []models.ScoredProduct, query string, prefs models.UserPreferences) []models.ScoredProduct {
	words := queryWords(query)
	return rerank(products, func(sp models.ScoredProduct) float64 {
		return r.GoalAlignment(sp.Product, prefs)*FundGoalMultiplier +
			r.HorizonOptimization(sp.Product, prefs)*FundHorizonMultiplier +
			r.QueryRelevance(sp.Product, words)*FundQueryMultiplier +
			r.SIPSuitability(sp.Product, prefs)*FundSIPMultiplier
	}, fundPhrases)
}

// GoalAlignment checks the investment_goal keywords against name, fund
// category and features.
func (r *MutualFundRanker) GoalAlignment(product models.Product, prefs models.UserPreferences) float64 {
	goal := strings.ReplaceAll(prefs.Lower(models.PrefInvestmentGoal), "_", " ")
	keywords, ok := goalCategoryKeywords[goal]
	if !ok {
		return 0
	}

	info := product.Info()
	fundCategory := ""
	if fund, ok := product.(*models.MutualFund); ok {
		fundCategory = strings.ToLower(fund.FundCategory)
	}
	name := strings.ToLower(info.Name)
	features := info.FeatureText()

	for _, k := range keywords {
		if strings.Contains(name, k) || strings.Contains(fundCategory, k) || strings.Contains(features, k) {
			return 0.3
		}
	}
	return 0
}

// HorizonOptimization rewards funds suited to the investment_horizon and
// penalizes mismatches. Never negative.
func (r *MutualFundRanker) HorizonOptimization(product models.Product, prefs models.UserPreferences) float64 {
	horizon := strings.ReplaceAll(prefs.Lower(models.PrefInvestmentHorizon), "_", " ")
	if horizon == "" {
		return 0
	}

	text := product.Info().SearchText()
	score := 0.0

	switch horizon {
	case "short term", "1-3 years":
		if utils.ContainsAny(text, "debt", "liquid", "short term", "conservative") {
			score += 0.5
		} else if utils.ContainsAny(text, "equity", "aggressive") {
			score -= 0.2
		}
	case "medium term", "3-7 years":
		if utils.ContainsAny(text, "balanced", "hybrid", "moderate") {
			score += 0.5
		} else if utils.ContainsAny(text, "large cap", "diversified") {
			score += 0.3
		}
	case "long term", "7+ years":
		if utils.ContainsAny(text, "equity", "growth", "small cap", "mid cap") {
			score += 0.5
		} else if utils.ContainsAny(text, "debt", "liquid") {
			score -= 0.1
		}
	}

	return max(score, 0)
}

// QueryRelevance scores name hits and fund vocabulary shared by query and product.
func (r *MutualFundRanker) QueryRelevance(product models.Product, words []string) float64 {
	if len(words) == 0 {
		return 0
	}

	info := product.Info()
	score := 0.0
	if nameMatches(info.Name, words) {
		score += 0.3
	}

	text := info.SearchText()
	for _, word := range words {
		for _, group := range fundQueryKeywords {
			if contains(group.keywords, word) {
				if utils.ContainsAny(text, group.keywords...) {
					score += 0.2
				}
				break
			}
		}
	}

	return capUnit(score)
}

// SIPSuitability favors diversified equity funds when investment_type asks for SIP.
func (r *MutualFundRanker) SIPSuitability(product models.Product, prefs models.UserPreferences) float64 {
	if !strings.Contains(prefs.Lower(models.PrefInvestmentType), "sip") {
		return 0
	}

	text := product.Info().SearchText()
	score := 0.0
	if utils.ContainsAny(text, "equity", "growth", "diversified") {
		score += 0.4
	}
	if utils.ContainsAny(text, "large cap", "diversified", "bluechip") {
		score += 0.3
	}
	if fund, ok := product.(*models.MutualFund); ok && strings.Contains(strings.ToLower(fund.RiskLevel), "very high") {
		score -= 0.1
	}

	return max(score, 0)
}
