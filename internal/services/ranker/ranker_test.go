package ranker_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/services/ranker"
)

func card(name string, features ...string) *models.CreditCard {
	return &models.CreditCard{
		ProductInfo: models.ProductInfo{Name: name, Category: models.CategoryCreditCards, Features: features},
		Bank:        "Test Bank",
	}
}

func deposit(name string, features ...string) *models.FixedDeposit {
	return &models.FixedDeposit{
		ProductInfo: models.ProductInfo{Name: name, Category: models.CategoryFixedDeposits, Features: features},
	}
}

func fund(name, category, risk string, features ...string) *models.MutualFund {
	return &models.MutualFund{
		ProductInfo:  models.ProductInfo{Name: name, Category: models.CategoryMutualFunds, Features: features},
		FundCategory: category,
		RiskLevel:    risk,
	}
}

func scored(p models.Product, score float64) models.ScoredProduct {
	return models.ScoredProduct{Product: p, Score: score, Reasoning: "Base score"}
}

func TestNew_ClosedCategorySet(t *testing.T) {
	for _, category := range models.ImplementedCategories() {
		r, err := ranker.New(category)
		require.NoError(t, err)
		assert.Equal(t, category, r.Category())
	}
	_, err := ranker.New(models.CategoryLoans)
	assert.ErrorIs(t, err, models.ErrUnsupportedCategory)
}

func TestRank_EmptyInput(t *testing.T) {
	for _, category := range models.ImplementedCategories() {
		r, _ := ranker.New(category)
		assert.Empty(t, r.Rank(nil, "anything", nil))
		assert.Empty(t, r.Rank([]models.ScoredProduct{}, "", models.UserPreferences{}))
	}
}

func TestRank_KeepsEveryProductAndSorts(t *testing.T) {
	products := []models.ScoredProduct{
		scored(card("Basic Card"), 40),
		scored(card("Travel Card", "Travel rewards", "Airport lounge access"), 55),
		scored(card("Cashback Card", "Up to 5% cashback"), 50),
		scored(card("Dining Card", "dining offers"), 99.5),
	}

	ranked := ranker.NewCreditCardRanker().Rank(products, "cashback travel", models.UserPreferences{
		models.PrefSpendingCategories: []any{"travel", "dining"},
	})

	require.Len(t, ranked, len(products))
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
	for _, sp := range ranked {
		assert.LessOrEqual(t, sp.Score, 100.0)
		assert.GreaterOrEqual(t, sp.Score, 0.0)
	}
	assert.Equal(t, "Dining Card", ranked[0].Product.Info().Name)
	assert.Equal(t, 100.0, ranked[0].Score)
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	products := []models.ScoredProduct{scored(card("Cashback Card", "cashback"), 50)}
	_ = ranker.NewCreditCardRanker().Rank(products, "cashback", nil)
	assert.Equal(t, 50.0, products[0].Score)
	assert.Equal(t, "Base score", products[0].Reasoning)
}

func TestCreditCardRanker_QueryRelevance(t *testing.T) {
	r := ranker.NewCreditCardRanker()
	c := card("Millennia Card", "5% cashback on shopping", "Fuel surcharge waiver")

	assert.Equal(t, 0.0, r.QueryRelevance(c, nil))
	// name hit plus "rewards" -> cashback, "petrol" -> fuel
	assert.InDelta(t, 0.5, r.QueryRelevance(c, []string{"millennia", "rewards", "petrol"}), 1e-9)
	assert.InDelta(t, 0.1, r.QueryRelevance(c, []string{"online"}), 1e-9)
}

func TestCreditCardRanker_PreferenceAlignment(t *testing.T) {
	r := ranker.NewCreditCardRanker()
	fee := 0.0

	free := card("Regalia Premium", "travel", "dining")
	free.AnnualFee = &fee

	prefs := models.UserPreferences{
		models.PrefMaxAnnualFee:       1000,
		models.PrefIncomeRange:        "premium",
		models.PrefSpendingCategories: "travel, dining, movies",
	}
	// fee 0.4 + income 0.3 + two categories 0.2
	assert.InDelta(t, 0.9, r.PreferenceAlignment(free, prefs), 1e-9)

	expensive := card("Classic", "annual fee waived on spend")
	assert.InDelta(t, 0.2, r.PreferenceAlignment(expensive, models.UserPreferences{models.PrefMaxAnnualFee: 500}), 1e-9)

	assert.Equal(t, 0.0, r.PreferenceAlignment(expensive, nil))
}

func TestCreditCardRanker_CategoryOptimization(t *testing.T) {
	r := ranker.NewCreditCardRanker()
	all := card("All", "travel", "dining", "fuel", "online shopping", "groceries")
	assert.Equal(t, 1.0, r.CategoryOptimization(all))
	assert.InDelta(t, 0.25, r.CategoryOptimization(card("Web", "online shopping")), 1e-9)
}

func TestCreditCardRanker_ReasoningPhrases(t *testing.T) {
	r := ranker.NewCreditCardRanker()

	tests := []struct {
		name     string
		product  models.Product
		query    string
		expected string
	}{
		{"no boost", card("Plain"), "", "Base score"},
		{"partial", card("Plain", "groceries"), "", "Base score Partially matches your preferences."},
		{"good", card("Plain", "travel", "dining", "fuel"), "", "Base score Good match for your requirements."},
		{"high", card("Cashback Card", "cashback", "travel"), "cashback rewards", "Base score Highly relevant to your query and preferences."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked := r.Rank([]models.ScoredProduct{scored(tt.product, 50)}, tt.query, nil)
			require.Len(t, ranked, 1)
			assert.Equal(t, tt.expected, ranked[0].Reasoning)
		})
	}
}

func TestFixedDepositRanker_Signals(t *testing.T) {
	r := ranker.NewFixedDepositRanker()
	sbi := deposit("SBI Fixed Deposit", "Interest rate up to 7.1%", "Senior citizen rate: 7.6%", "Minimum tenure: 7 days", "DICGC insured")

	assert.InDelta(t, 0.5, r.TenureAlignment(sbi, models.UserPreferences{models.PrefInvestmentTenure: "Short term"}), 1e-9)
	assert.Equal(t, 0.0, r.TenureAlignment(sbi, models.UserPreferences{models.PrefInvestmentTenure: "long-term"}))
	assert.Equal(t, 0.0, r.TenureAlignment(sbi, nil))

	assert.InDelta(t, 0.3, r.SeniorCitizenBoost(sbi, models.UserPreferences{models.PrefIsSeniorCitizen: true}), 1e-9)
	assert.Equal(t, 0.0, r.SeniorCitizenBoost(sbi, models.UserPreferences{models.PrefIsSeniorCitizen: false}))

	// sbi 0.4 + insured 0.3
	assert.InDelta(t, 0.7, r.SafetyBoost(sbi), 1e-9)

	// "senior" hits the senior citizen group, "sbi" hits the name
	assert.InDelta(t, 0.5, r.QueryRelevance(sbi, []string{"senior", "sbi"}), 1e-9)
}

func TestFixedDepositRanker_AmountAlignment(t *testing.T) {
	r := ranker.NewFixedDepositRanker()
	d := deposit("X Fixed Deposit", "Minimum deposit of ₹1000", "Premium rates")

	assert.InDelta(t, 0.5, r.AmountAlignment(d, models.UserPreferences{models.PrefInvestmentAmount: 200000}), 1e-9)
	assert.Equal(t, 0.0, r.AmountAlignment(d, models.UserPreferences{models.PrefInvestmentAmount: 50000}))
	assert.InDelta(t, 0.4, r.AmountAlignment(d, models.UserPreferences{models.PrefInvestmentAmount: "10000"}), 1e-9)
	assert.Equal(t, 0.0, r.AmountAlignment(d, models.UserPreferences{models.PrefInvestmentAmount: 0}))
}

func TestFixedDepositRanker_Rank(t *testing.T) {
	r := ranker.NewFixedDepositRanker()
	products := []models.ScoredProduct{
		scored(deposit("Small Finance Fixed Deposit", "Interest rate up to 8%"), 70),
		scored(deposit("SBI Fixed Deposit", "Senior citizen rate: 7.5%"), 69.5),
	}

	ranked := r.Rank(products, "safe", models.UserPreferences{models.PrefIsSeniorCitizen: "yes"})
	require.Len(t, ranked, 2)
	// SBI: senior 0.3*2 + safety 0.4 = +1.0
	assert.Equal(t, "SBI Fixed Deposit", ranked[0].Product.Info().Name)
	assert.InDelta(t, 70.5, ranked[0].Score, 1e-9)
	assert.True(t, strings.HasSuffix(ranked[0].Reasoning, " Suitable option for your deposit needs."))
	assert.Equal(t, "Base score", ranked[1].Reasoning)
}

func TestMutualFundRanker_GoalAlignment(t *testing.T) {
	r := ranker.NewMutualFundRanker()
	elss := fund("Quant Tax Plan", "ELSS", "Very High Risk")

	assert.InDelta(t, 0.3, r.GoalAlignment(elss, models.UserPreferences{models.PrefInvestmentGoal: "Tax Saving"}), 1e-9)
	assert.InDelta(t, 0.3, r.GoalAlignment(elss, models.UserPreferences{models.PrefInvestmentGoal: "tax_saving"}), 1e-9)
	assert.Equal(t, 0.0, r.GoalAlignment(elss, models.UserPreferences{models.PrefInvestmentGoal: "emergency fund"}))
	assert.Equal(t, 0.0, r.GoalAlignment(elss, nil))
}

func TestMutualFundRanker_HorizonPenaltyFloorsAtZero(t *testing.T) {
	r := ranker.NewMutualFundRanker()
	equity := fund("Bold Equity Fund", "Equity", "High Risk")
	liquid := fund("Parking Liquid Fund", "Liquid", "Low Risk")

	short := models.UserPreferences{models.PrefInvestmentHorizon: "short term"}
	long := models.UserPreferences{models.PrefInvestmentHorizon: "7+ years"}
	medium := models.UserPreferences{models.PrefInvestmentHorizon: "3-7 years"}

	assert.Equal(t, 0.0, r.HorizonOptimization(equity, short))
	assert.InDelta(t, 0.5, r.HorizonOptimization(liquid, short), 1e-9)
	assert.InDelta(t, 0.5, r.HorizonOptimization(equity, long), 1e-9)
	assert.Equal(t, 0.0, r.HorizonOptimization(liquid, long))
	assert.InDelta(t, 0.3, r.HorizonOptimization(fund("Diversified Flexi", "", ""), medium), 1e-9)
}

func TestMutualFundRanker_QueryAndSIP(t *testing.T) {
	r := ranker.NewMutualFundRanker()
	bluechip := fund("Large Cap Equity Fund", "Large Cap", "Very High Risk", "Risk: Very High Risk")

	// name hit 0.3, "equity" group 0.2
	assert.InDelta(t, 0.5, r.QueryRelevance(bluechip, []string{"equity"}), 1e-9)
	assert.Equal(t, 0.0, r.QueryRelevance(bluechip, []string{"thematic"}))

	sip := models.UserPreferences{models.PrefInvestmentType: "Monthly SIP"}
	// equity 0.4 + large cap 0.3 - very high risk 0.1
	assert.InDelta(t, 0.6, r.SIPSuitability(bluechip, sip), 1e-9)
	assert.Equal(t, 0.0, r.SIPSuitability(bluechip, models.UserPreferences{models.PrefInvestmentType: "lumpsum"}))
}

func TestMutualFundRanker_RankPhrases(t *testing.T) {
	r := ranker.NewMutualFundRanker()
	products := []models.ScoredProduct{
		scored(fund("Steady Debt Fund", "Debt", "Low Risk"), 60),
		scored(fund("Growth Equity Fund", "Equity", "High Risk"), 58),
	}

	ranked := r.Rank(products, "equity", models.UserPreferences{
		models.PrefInvestmentGoal:    "wealth creation",
		models.PrefInvestmentHorizon: "long term",
	})

	require.Len(t, ranked, 2)
	// goal 1.2 + horizon 1.5 + query (name 0.3 + group 0.2) 1.0 = 3.7
	assert.Equal(t, "Growth Equity Fund", ranked[0].Product.Info().Name)
	assert.InDelta(t, 61.7, ranked[0].Score, 1e-9)
	assert.True(t, strings.HasSuffix(ranked[0].Reasoning, "Excellent alignment with your investment goals and risk profile."))
	assert.Equal(t, 60.0, ranked[1].Score)
}
