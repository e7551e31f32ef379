package processor

import (
	"fmt"
	"strings"

	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/utils"
)

// Fixed deposit scoring weights.
const (
	fdRateMultiplier = 8.0
	fdRateCap        = 50.0

	fdSeniorPremium = 20.0
	fdSeniorSame    = 10.0

	fdTenureWide     = 20.0
	fdTenureMedium   = 15.0
	fdTenureNarrow   = 10.0
	fdTenureWideDays = 1000
	fdTenureMidDays  = 365

	fdReputableBank = 10.0
	fdOtherBank     = 5.0
)

var depositReputableBanks = []string{"sbi", "hdfc", "icici", "axis", "kotak", "pnb"}

// FixedDepositProcessor handles fixed deposit records.
type FixedDepositProcessor struct{}

// NewFixedDepositProcessor creates a fixed deposit processor.
func NewFixedDepositProcessor() *FixedDepositProcessor {
	return &FixedDepositProcessor{}
}

// Category returns models.CategoryFixedDeposits.
func (p *FixedDepositProcessor) Category() models.ProductCategory {
	return models.CategoryFixedDeposits
}

// Process builds a FixedDeposit. Rates are percentage strings; unparsable
// rates are left absent.
func (p *FixedDepositProcessor) Process(raw models.RawRecord, source string, index int) (models.Product, error) {
	if raw == nil {
		return nil, models.ErrInvalidRecord
	}

	bankName := firstString(raw, "bank_name", "bank")
	if bankName == "" {
		bankName = "Unknown Bank"
	}
	name := bankName + " Fixed Deposit"

	maxRate := utils.ParseRate(raw["roi_in_percentage_max_tenure"])
	seniorRate := utils.ParseRate(raw["roi_in_percentage_senior_citizen_max_tenure"])
	tenureFrom := positiveInt(raw["tenure_from_days"])

	deposit := &models.FixedDeposit{
		ProductInfo: models.ProductInfo{
			ID:          models.NewProductID(models.CategoryFixedDeposits, source, name, index),
			Name:        name,
			Description: utils.ToString(raw["about"]),
			Category:    models.CategoryFixedDeposits,
			Features:    depositFeatures(maxRate, seniorRate, tenureFrom),
			Source:      source,
		},
		BankName:          bankName,
		InterestRateMin:   utils.ParseRate(raw["roi_in_percentage_min_tenure"]),
		InterestRateMax:   maxRate,
		TenureFromDays:    tenureFrom,
		TenureToDays:      positiveInt(raw["tenure_to_days"]),
		SeniorCitizenRate: seniorRate,
	}

	return deposit, nil
}

func depositFeatures(maxRate, seniorRate *float64, tenureFrom *int) []string {
	var features []string

	if maxRate != nil && *maxRate != 0 {
		features = append(features, fmt.Sprintf("Interest rate up to %s%%", utils.FormatNumber(*maxRate)))
	}
	if seniorRate != nil && maxRate != nil && *seniorRate > *maxRate {
		features = append(features, fmt.Sprintf("Senior citizen rate: %s%%", utils.FormatNumber(*seniorRate)))
	}
	if tenureFrom != nil {
		years := float64(*tenureFrom) / 365
		if years >= 1 {
			features = append(features, fmt.Sprintf("Minimum tenure: %.1f years", years))
		} else {
			features = append(features, fmt.Sprintf("Minimum tenure: %d days", *tenureFrom))
		}
	}

	return features
}

// Score computes the base score from the best rate, senior citizen premium,
// tenure range and bank credibility.
func (p *FixedDepositProcessor) Score(product models.Product, _ models.UserPreferences) (float64, error) {
	deposit, ok := product.(*models.FixedDeposit)
	if !ok {
		return 0, fmt.Errorf("%w: expected fixed deposit, got %T", models.ErrCategoryMismatch, product)
	}

	score := 0.0

	if deposit.InterestRateMax != nil && *deposit.InterestRateMax > 0 {
		score += min(*deposit.InterestRateMax*fdRateMultiplier, fdRateCap)
	}

	if deposit.SeniorCitizenRate != nil && deposit.InterestRateMax != nil {
		if *deposit.SeniorCitizenRate > *deposit.InterestRateMax {
			score += fdSeniorPremium
		} else {
			score += fdSeniorSame
		}
	}

	if deposit.TenureFromDays != nil && deposit.TenureToDays != nil {
		switch tenureRange := *deposit.TenureToDays - *deposit.TenureFromDays; {
		case tenureRange > fdTenureWideDays:
			score += fdTenureWide
		case tenureRange > fdTenureMidDays:
			score += fdTenureMedium
		default:
			score += fdTenureNarrow
		}
	}

	if matchesAny(deposit.BankName, depositReputableBanks) {
		score += fdReputableBank
	} else {
		score += fdOtherBank
	}

	return clampScore(score), nil
}

// positiveInt returns v as an int when it is a number greater than zero.
func positiveInt(v any) *int {
	i := utils.ToInt(v)
	if i == nil || *i <= 0 {
		return nil
	}
	return i
}

// BankType classifies deposit-taking banks.
type BankType string

const (
	BankTypePublic  BankType = "Public"
	BankTypePrivate BankType = "Private"
	BankTypeOther   BankType = "Other"
)

var (
	privateBankKeywords = []string{"axis", "icici", "hdfc", "kotak", "yes", "indusind"}
	publicBankKeywords  = []string{"sbi", "pnb", "bob", "canara", "union", "indian"}

	defaultCreditRating = map[BankType]float64{
		BankTypePublic:  4.0,
		BankTypePrivate: 3.5,
		BankTypeOther:   3.0,
	}

	averageMarketRate = map[BankType]float64{
		BankTypePublic:  6.5,
		BankTypePrivate: 7.0,
		BankTypeOther:   6.0,
	}
)

const (
	defaultMarketRate     = 6.5
	defaultMinTenureDays  = 7
	defaultMaxTenureDays  = 3650
	defaultMinDeposit     = 1000.0
	defaultMaxDepositCr   = 100.0
	flexibilityTenureCap  = 5.0
	flexibilityDepositCap = 5.0
)

// FixedDepositFeatures is the richer attribute set used to write searchable
// descriptions. It does not feed the base score.
type FixedDepositFeatures struct {
	InterestRate      float64  `json:"interest_rate"`
	SeniorCitizenRate float64  `json:"senior_citizen_rate"`
	MinTenureDays     int      `json:"min_tenure_days"`
	MaxTenureDays     int      `json:"max_tenure_days"`
	MinDeposit        float64  `json:"min_deposit"`
	MaxDepositCrores  float64  `json:"max_deposit_crores"`
	BankType          BankType `json:"bank_type"`
	CreditRating      float64  `json:"credit_rating"`
	RatePremium       float64  `json:"rate_premium"`
	FlexibilityScore  float64  `json:"flexibility_score"`
}

// ExtractFeatures computes FixedDepositFeatures from a raw record, applying
// market defaults for anything missing.
func (p *FixedDepositProcessor) ExtractFeatures(raw models.RawRecord) FixedDepositFeatures {
	f := FixedDepositFeatures{
		InterestRate:     extractDepositRate(raw),
		MinTenureDays:    firstPositiveInt(raw, defaultMinTenureDays, "tenure_from_days", "min_tenure"),
		MaxTenureDays:    firstPositiveInt(raw, defaultMaxTenureDays, "tenure_to_days", "max_tenure"),
		MinDeposit:       firstPositive(raw, defaultMinDeposit, "deposit_min", "min_deposit"),
		MaxDepositCrores: firstPositive(raw, defaultMaxDepositCr, "deposit_max_in_crores", "max_deposit"),
		BankType:         bankTypeOf(raw),
	}

	f.SeniorCitizenRate = firstPositive(raw, 0, "roi_senior_citizens_in_percentage", "senior_citizen_rate", "senior_rate")
	if f.SeniorCitizenRate == 0 {
		if senior := utils.ParseRate(raw["roi_in_percentage_senior_citizen_max_tenure"]); senior != nil && *senior > 0 {
			f.SeniorCitizenRate = *senior
		} else {
			f.SeniorCitizenRate = f.InterestRate
		}
	}

	f.CreditRating = firstPositive(raw, defaultCreditRating[f.BankType], "credit_rating_mapping", "rating", "credit_rating")

	avg, ok := averageMarketRate[f.BankType]
	if !ok {
		avg = defaultMarketRate
	}
	f.RatePremium = max(0, f.InterestRate-avg)

	tenureScore := max(0, flexibilityTenureCap-float64(f.MinTenureDays)/365)
	depositScore := min(flexibilityDepositCap, f.MaxDepositCrores/20)
	f.FlexibilityScore = (tenureScore + depositScore) / 2

	return f
}

// Describe renders the features as a " | " separated searchable description.
func (p *FixedDepositProcessor) Describe(bankName string, f FixedDepositFeatures) string {
	parts := []string{"Fixed Deposit: " + bankName}

	if f.InterestRate > 0 {
		parts = append(parts, fmt.Sprintf("INTEREST RATE: %s%%", utils.FormatNumber(f.InterestRate)))
	}
	if f.SeniorCitizenRate > f.InterestRate {
		parts = append(parts, fmt.Sprintf("SENIOR CITIZEN RATE: %s%%", utils.FormatNumber(f.SeniorCitizenRate)))
	}
	if f.MinTenureDays > 0 {
		parts = append(parts, fmt.Sprintf("TENURE: %d to %d days", f.MinTenureDays, f.MaxTenureDays))
	}
	if f.MinDeposit > 0 {
		parts = append(parts, fmt.Sprintf("MIN DEPOSIT: ₹%s", utils.FormatNumber(f.MinDeposit)))
	}
	if f.MaxDepositCrores > 0 {
		parts = append(parts, fmt.Sprintf("MAX DEPOSIT: ₹%s Cr", utils.FormatNumber(f.MaxDepositCrores)))
	}
	if f.BankType != "" {
		parts = append(parts, "BANK TYPE: "+string(f.BankType))
	}
	if f.CreditRating > 0 {
		parts = append(parts, "RATING: "+utils.FormatNumber(f.CreditRating))
	}

	return strings.Join(parts, " | ")
}

func extractDepositRate(raw models.RawRecord) float64 {
	if rate := firstPositive(raw, 0, "roi_in_percentage", "interest_rate", "rate"); rate > 0 {
		return rate
	}
	if rate := utils.ParseRate(raw["roi_in_percentage_max_tenure"]); rate != nil && *rate > 0 {
		return *rate
	}
	if rate := utils.ExtractInterestRate(firstString(raw, "description", "about")); rate != nil {
		return *rate
	}
	return 0
}

func bankTypeOf(raw models.RawRecord) BankType {
	if explicit := utils.ToString(raw["bank_type"]); explicit != "" {
		lower := strings.ToLower(explicit)
		return BankType(strings.ToUpper(lower[:1]) + lower[1:])
	}

	bankName := strings.ToLower(firstString(raw, "bank_name", "bank"))
	switch {
	case utils.ContainsAny(bankName, privateBankKeywords...):
		return BankTypePrivate
	case utils.ContainsAny(bankName, publicBankKeywords...):
		return BankTypePublic
	default:
		return BankTypeOther
	}
}

func firstPositive(raw models.RawRecord, fallback float64, keys ...string) float64 {
	for _, key := range keys {
		if v := utils.ToFloat(raw[key]); v != nil && *v > 0 {
			return *v
		}
	}
	return fallback
}

func firstPositiveInt(raw models.RawRecord, fallback int, keys ...string) int {
	for _, key := range keys {
		if v := positiveInt(raw[key]); v != nil {
			return *v
		}
	}
	return fallback
}
