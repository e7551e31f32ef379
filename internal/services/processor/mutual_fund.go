package processor

import (
	"fmt"
	"math"
	"strings"

	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/utils"
)

// Mutual fund component weights and caps.
const (
	mfPerformanceWeight = 0.4
	mfRatingWeight      = 0.25
	mfRiskWeight        = 0.2
	mfExpenseWeight     = 0.1
	mfStabilityWeight   = 0.05

	mfPerformanceCap = 50.0
	mf5YMultiplier   = 2.0
	mf5YCap          = 50.0
	mf3YMultiplier   = 1.5
	mf3YCap          = 40.0
	mf1YCap          = 30.0

	mfRatingPoints = 25.0
	mfMaxRating    = 5

	mfExpenseUnknown = 5.0

	mfManyHoldings = 50

	// DefaultRiskTolerance is assumed when the user states none.
	DefaultRiskTolerance = "moderate risk"
	defaultRiskOrdinal   = 3
)

var riskOrdinals = map[string]int{
	"low risk":             1,
	"low to moderate risk": 2,
	"moderate risk":        3,
	"moderately high risk": 4,
	"high risk":            5,
	"very high risk":       6,
}

// RiskOrdinal maps a risk label to 1 (low) through 6 (very high).
// Unknown labels are treated as moderate.
func RiskOrdinal(label string) int {
	if ordinal, ok := riskOrdinals[strings.ToLower(strings.TrimSpace(label))]; ok {
		return ordinal
	}
	return defaultRiskOrdinal
}

// MutualFundProcessor handles mutual fund records.
type MutualFundProcessor struct{}

// NewMutualFundProcessor creates a mutual fund processor.
func NewMutualFundProcessor() *MutualFundProcessor {
	return &MutualFundProcessor{}
}

// Category returns models.CategoryMutualFunds.
func (p *MutualFundProcessor) Category() models.ProductCategory {
	return models.CategoryMutualFunds
}

// Process builds a MutualFund. Returns are percentage strings, ratings are
// clamped to 0..5.
func (p *MutualFundProcessor) Process(raw models.RawRecord, source string, index int) (models.Product, error) {
	if raw == nil {
		return nil, models.ErrInvalidRecord
	}

	name := utils.ToString(raw["name"])

	amc := utils.ToString(raw["amc"])
	if amc == "" {
		amc = "Unknown"
	}
	riskLevel := utils.ToString(raw["risk_level"])
	if riskLevel == "" {
		riskLevel = "Unknown"
	}

	fund := &models.MutualFund{
		ProductInfo: models.ProductInfo{
			ID:          models.NewProductID(models.CategoryMutualFunds, source, name, index),
			Name:        name,
			Description: utils.ToString(raw["description"]),
			Category:    models.CategoryMutualFunds,
			Features:    fundFeatures(raw),
			Source:      source,
		},
		AMC:              amc,
		RiskLevel:        riskLevel,
		FundCategory:     utils.ToString(raw["category"]),
		Rating:           clampRating(raw["rating"]),
		Returns1Y:        utils.ParseRate(raw["returns_1y"]),
		Returns3Y:        utils.ParseRate(raw["returns_3y"]),
		Returns5Y:        utils.ParseRate(raw["returns_5y"]),
		NAV:              utils.ToFloat(raw["nav"]),
		AUM:              utils.ToFloat(raw["aum"]),
		ExpenseRatio:     utils.ParseRate(raw["expense_ratio"]),
		MinInvestment:    utils.ToFloat(raw["min_investment"]),
		FundManager:      utils.ToString(raw["fund_manager"]),
		InceptionDate:    utils.ToString(raw["inception_date"]),
		Holdings:         utils.ToStringSlice(raw["holdings"]),
		SectorAllocation: utils.ToStringSlice(raw["sector_allocation"]),
	}

	return fund, nil
}

func clampRating(v any) int {
	rating := utils.ToInt(v)
	if rating == nil {
		return 0
	}
	return min(max(*rating, 0), mfMaxRating)
}

func fundFeatures(raw models.RawRecord) []string {
	var features []string

	add := func(key, format string) {
		if v := utils.ToString(raw[key]); v != "" && v != "0" {
			features = append(features, fmt.Sprintf(format, v))
		}
	}

	add("returns_3y", "3Y Returns: %s")
	add("returns_5y", "5Y Returns: %s")
	add("rating", "Rating: %s/5 stars")
	add("risk_level", "Risk: %s")
	add("expense_ratio", "Expense Ratio: %s%%")
	add("min_investment", "Min Investment: ₹%s")
	add("fund_manager", "Fund Manager: %s")

	return features
}

// Score blends performance, rating, risk alignment with the user's
// risk_tolerance, expense ratio and stability.
func (p *MutualFundProcessor) Score(product models.Product, prefs models.UserPreferences) (float64, error) {
	fund, ok := product.(*models.MutualFund)
	if !ok {
		return 0, fmt.Errorf("%w: expected mutual fund, got %T", models.ErrCategoryMismatch, product)
	}

	score := PerformanceScore(fund)*mfPerformanceWeight +
		RatingScore(fund.Rating)*mfRatingWeight +
		RiskAlignmentScore(fund.RiskLevel, prefs)*mfRiskWeight +
		ExpenseScore(fund.ExpenseRatio)*mfExpenseWeight +
		StabilityScore(fund)*mfStabilityWeight

	return clampScore(score), nil
}

// PerformanceScore prefers the longest available return period.
func PerformanceScore(fund *models.MutualFund) float64 {
	var score float64
	switch {
	case fund.Returns5Y != nil:
		score = min(*fund.Returns5Y*mf5YMultiplier, mf5YCap)
	case fund.Returns3Y != nil:
		score = min(*fund.Returns3Y*mf3YMultiplier, mf3YCap)
	case fund.Returns1Y != nil:
		score = min(*fund.Returns1Y, mf1YCap)
	}
	return min(score, mfPerformanceCap)
}

// RatingScore scales a 0..5 rating to 25 points.
func RatingScore(rating int) float64 {
	if rating <= 0 {
		return 0
	}
	return float64(rating) / mfMaxRating * mfRatingPoints
}

// RiskAlignmentScore is 20 when the fund's risk matches the user's
// tolerance, dropping by 5 per step of difference down to 5.
func RiskAlignmentScore(riskLevel string, prefs models.UserPreferences) float64 {
	tolerance := prefs.String(models.PrefRiskTolerance)
	if tolerance == "" {
		tolerance = DefaultRiskTolerance
	}

	diff := math.Abs(float64(RiskOrdinal(riskLevel) - RiskOrdinal(tolerance)))
	switch diff {
	case 0:
		return 20
	case 1:
		return 15
	case 2:
		return 10
	default:
		return 5
	}
}

// ExpenseScore rewards low expense ratios.
func ExpenseScore(expenseRatio *float64) float64 {
	if expenseRatio == nil {
		return mfExpenseUnknown
	}
	switch r := *expenseRatio; {
	case r <= 0.5:
		return 10
	case r <= 1.0:
		return 8
	case r <= 1.5:
		return 6
	case r <= 2.0:
		return 4
	default:
		return 2
	}
}

// StabilityScore adds points for fund size, a named manager and broad holdings.
func StabilityScore(fund *models.MutualFund) float64 {
	score := 0.0
	if fund.AUM != nil {
		switch aum := *fund.AUM; {
		case aum >= 10000:
			score += 3
		case aum >= 5000:
			score += 2
		case aum >= 1000:
			score += 1
		}
	}
	if fund.FundManager != "" {
		score++
	}
	if len(fund.Holdings) > mfManyHoldings {
		score++
	}
	return score
}
