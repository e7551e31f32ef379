package ranker

import (
	"strings"

	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/utils"
)

// Fixed deposit boost multipliers.
const (
	DepositTenureMultiplier = 3.0
	DepositAmountMultiplier = 2.0
	DepositSeniorMultiplier = 2.0
	DepositQueryMultiplier  = 2.0
	DepositSafetyMultiplier = 1.0
)

// Investment amount thresholds in rupees.
const (
	highValueDeposit = 100000.0
	regularDeposit   = 25000.0
)

var (
	tenureKeywords = map[string][]string{
		"short_term":  {"7 days", "15 days", "30 days", "1 month", "3 months", "6 months"},
		"medium_term": {"1 year", "2 years", "3 years", "18 months"},
		"long_term":   {"4 years", "5 years", "7 years", "10 years"},
	}

	flexibleTenureTerms = []string{"flexible", "auto renewal", "premature withdrawal"}

	seniorKeywords = []string{
		"senior citizen", "senior", "additional rate", "extra interest",
		"higher rate for senior", "bonus rate",
	}

	depositQueryKeywords = []keywordGroup{
		{"high interest", []string{"high", "best", "maximum", "top"}},
		{"short term", []string{"short", "quick", "immediate"}},
		{"long term", []string{"long", "extended", "multi-year"}},
		{"flexible", []string{"flexible", "premature", "withdrawal"}},
		{"safe", []string{"safe", "secure", "guaranteed"}},
		{"senior citizen", []string{"senior", "citizen", "elderly"}},
	}

	safeInstitutions = []string{
		"sbi", "state bank", "pnb", "punjab national", "bank of baroda",
		"canara bank", "union bank", "indian bank", "government",
	}
	insuredTerms = []string{"dicgc", "insured", "deposit insurance"}
	ratingTerms  = []string{"aaa", "aa+", "stable rating"}

	depositPhrases = []phrase{
		{2, " Excellent match for your deposit requirements and risk profile."},
		{1, " Good alignment with your investment preferences."},
		{0.5, " Suitable option for your deposit needs."},
	}
)

// FixedDepositRanker ranks fixed deposits.
type FixedDepositRanker struct{}

// NewFixedDepositRanker creates a fixed deposit ranker.
func NewFixedDepositRanker() *FixedDepositRanker {
	return &FixedDepositRanker{}
}

// Category returns models.CategoryFixedDeposits.
func (r *FixedDepositRanker) Category() models.ProductCategory {
	return models.CategoryFixedDeposits
}

// Rank boosts deposits by tenure, amount and senior citizen fit, query
// relevance and institutional safety.
func (r *FixedDepositRanker) Rank(products []models.ScoredProduct, query string, prefs models.UserPreferences) []models.ScoredProduct {
	words := queryWords(query)
	return rerank(products, func(sp models.ScoredProduct) float64 {
		return r.TenureAlignment(sp.Product, prefs)*DepositTenureMultiplier +
			r.AmountAlignment(sp.Product, prefs)*DepositAmountMultiplier +
			r.SeniorCitizenBoost(sp.Product, prefs)*DepositSeniorMultiplier +
			r.QueryRelevance(sp.Product, words)*DepositQueryMultiplier +
			r.SafetyBoost(sp.Product)*DepositSafetyMultiplier
	}, depositPhrases)
}

// TenureAlignment matches the preferred investment_tenure bucket.
func (r *FixedDepositRanker) TenureAlignment(product models.Product, prefs models.UserPreferences) float64 {
	tenure := normalizeTenure(prefs.String(models.PrefInvestmentTenure))
	if tenure == "" {
		return 0
	}

	text := product.Info().SearchText()
	score := 0.0
	if utils.ContainsAny(text, tenureKeywords[tenure]...) {
		score += 0.5
	}
	if utils.ContainsAny(text, flexibleTenureTerms...) {
		score += 0.3
	}
	return capUnit(score)
}

// normalizeTenure turns "Short term" or "short-term" into "short_term".
func normalizeTenure(tenure string) string {
	normalized := strings.ToLower(strings.TrimSpace(tenure))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	return strings.ReplaceAll(normalized, "-", "_")
}

// AmountAlignment matches the investment_amount band against feature wording.
func (r *FixedDepositRanker) AmountAlignment(product models.Product, prefs models.UserPreferences) float64 {
	amount := prefs.Float(models.PrefInvestmentAmount)
	if amount == nil || *amount == 0 {
		return 0
	}

	text := product.Info().FeatureText()
	switch {
	case *amount >= highValueDeposit:
		if utils.ContainsAny(text, "high value", "premium", "bulk deposit") {
			return 0.5
		}
	case *amount >= regularDeposit:
		if utils.ContainsAny(text, "regular", "standard") {
			return 0.4
		}
	default:
		if utils.ContainsAny(text, "minimum", "small", "low amount") {
			return 0.4
		}
	}
	return 0
}

// SeniorCitizenBoost rewards senior citizen benefits for senior users.
func (r *FixedDepositRanker) SeniorCitizenBoost(product models.Product, prefs models.UserPreferences) float64 {
	if !prefs.Bool(models.PrefIsSeniorCitizen) {
		return 0
	}
	if utils.ContainsAny(product.Info().SearchText(), seniorKeywords...) {
		return 0.3
	}
	return 0
}

// QueryRelevance scores deposit vocabulary in the query and name hits.
func (r *FixedDepositRanker) QueryRelevance(product models.Product, words []string) float64 {
	if len(words) == 0 {
		return 0
	}

	info := product.Info()
	compact := strings.ReplaceAll(info.SearchText(), " ", "")
	score := 0.0

	for _, word := range words {
		for _, group := range depositQueryKeywords {
			if contains(group.keywords, word) {
				if strings.Contains(compact, strings.ReplaceAll(group.label, " ", "")) {
					score += 0.2
				}
				break
			}
		}
	}

	if nameMatches(info.Name, words) {
		score += 0.3
	}

	return capUnit(score)
}

// SafetyBoost favors public sector banks, insured deposits and strong ratings.
func (r *FixedDepositRanker) SafetyBoost(product models.Product) float64 {
	text := product.Info().SearchText()
	score := 0.0
	if utils.ContainsAny(text, safeInstitutions...) {
		score += 0.4
	}
	if utils.ContainsAny(text, insuredTerms...) {
		score += 0.3
	}
	if utils.ContainsAny(text, ratingTerms...) {
		score += 0.3
	}
	return capUnit(score)
}
