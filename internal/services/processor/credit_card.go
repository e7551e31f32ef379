package processor

import (
	"fmt"
	"strings"

	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/utils"
)

// Credit card scoring weights.
const (
	ccCashbackMultiplier = 5.0
	ccCashbackCap        = 30.0

	ccFeeFree     = 25.0
	ccFeeLow      = 20.0
	ccFeeModerate = 10.0
	ccFeeHigh     = 5.0
	ccFeeUnknown  = 15.0

	ccFuelBenefit    = 5.0
	ccLoungeBenefit  = 10.0
	ccWelcomeBenefit = 5.0
	ccBenefitCap     = 20.0

	ccPointsPerFeature = 2.0
	ccFeatureCap       = 15.0

	ccReputableBank = 10.0
	ccOtherBank     = 5.0

	maxCardFeatures = 10
)

var cardReputableBanks = []string{"sbi", "hdfc", "icici", "axis", "kotak"}

// CreditCardProcessor handles credit card records.
type CreditCardProcessor struct{}

// NewCreditCardProcessor creates a credit card processor.
func NewCreditCardProcessor() *CreditCardProcessor {
	return &CreditCardProcessor{}
}

// Category returns models.CategoryCreditCards.
func (p *CreditCardProcessor) Category() models.ProductCategory {
	return models.CategoryCreditCards
}

// Process builds a CreditCard from a raw record. Fee and cashback come from
// explicit fields when present, otherwise from the description text.
func (p *CreditCardProcessor) Process(raw models.RawRecord, source string, index int) (models.Product, error) {
	if raw == nil {
		return nil, models.ErrInvalidRecord
	}

	name := utils.ToString(raw["name"])
	bank := firstString(raw, "bank", "issuer")
	if bank == "" {
		bank = "Unknown Bank"
	}
	description := utils.ToString(raw["description"])
	explicitFeatures := utils.ToStringSlice(raw["features"])

	annualFee := utils.ToFloat(raw["annual_fee"])
	if annualFee == nil {
		annualFee = utils.ExtractAnnualFee(description)
	}

	cashback := utils.ToFloat(raw["cashback_rate"])
	if cashback == nil {
		cashback = utils.ExtractCashbackRate(description)
	}

	benefitText := description + " " + strings.Join(explicitFeatures, " ")

	card := &models.CreditCard{
		ProductInfo: models.ProductInfo{
			ID:          models.NewProductID(models.CategoryCreditCards, source, name, index),
			Name:        name,
			Description: description,
			Category:    models.CategoryCreditCards,
			Features:    cardFeatures(explicitFeatures, description),
			Source:      source,
		},
		Bank:                bank,
		AnnualFee:           annualFee,
		CashbackRate:        cashback,
		WelcomeBenefit:      utils.ExtractWelcomeBenefit(description),
		FuelSurchargeWaiver: utils.MentionsFuelBenefit(benefitText),
		LoungeAccess:        utils.MentionsLoungeAccess(benefitText),
	}

	return card, nil
}

// cardFeatures keeps explicit features first and appends description-derived ones.
func cardFeatures(explicit []string, description string) []string {
	features := append([]string(nil), explicit...)

	if description != "" {
		if rate := utils.ExtractPercentCashback(description); rate != "" {
			features = append(features, fmt.Sprintf("Up to %s%% cashback", rate))
		}
		if utils.MentionsFuelBenefit(description) {
			features = append(features, "Fuel surcharge waiver")
		}
		if utils.MentionsLoungeAccess(description) {
			features = append(features, "Airport lounge access")
		}
		if strings.Contains(strings.ToLower(description), "welcome") {
			features = append(features, "Welcome benefits")
		}
	}

	if len(features) > maxCardFeatures {
		features = features[:maxCardFeatures]
	}
	return features
}

// Score computes the base score from cashback, fee, benefits, feature count
// and bank reputation.
func (p *CreditCardProcessor) Score(product models.Product, _ models.UserPreferences) (float64, error) {
	card, ok := product.(*models.CreditCard)
	if !ok {
		return 0, fmt.Errorf("%w: expected credit card, got %T", models.ErrCategoryMismatch, product)
	}

	score := 0.0

	if card.CashbackRate != nil && *card.CashbackRate > 0 {
		score += min(*card.CashbackRate*ccCashbackMultiplier, ccCashbackCap)
	}

	score += annualFeeScore(card.AnnualFee)

	benefits := 0.0
	if card.FuelSurchargeWaiver {
		benefits += ccFuelBenefit
	}
	if card.LoungeAccess {
		benefits += ccLoungeBenefit
	}
	if card.WelcomeBenefit != "" {
		benefits += ccWelcomeBenefit
	}
	score += min(benefits, ccBenefitCap)

	score += min(float64(len(card.Features))*ccPointsPerFeature, ccFeatureCap)

	if matchesAny(card.Bank, cardReputableBanks) {
		score += ccReputableBank
	} else {
		score += ccOtherBank
	}

	return clampScore(score), nil
}

// annualFeeScore favors lower fees; an unknown fee gets the benefit of the doubt.
func annualFeeScore(fee *float64) float64 {
	switch {
	case fee == nil:
		return ccFeeUnknown
	case *fee <= 0:
		return ccFeeFree
	case *fee <= 500:
		return ccFeeLow
	case *fee <= 2000:
		return ccFeeModerate
	default:
		return ccFeeHigh
	}
}
