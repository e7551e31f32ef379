package models

import (
	"strings"

	"financial-product-advisor/internal/utils"
)

// Preference keys read by processors and rankers.
const (
	PrefRiskTolerance      = "risk_tolerance"
	PrefInvestmentGoal     = "investment_goal"
	PrefInvestmentHorizon  = "investment_horizon"
	PrefInvestmentTenure   = "investment_tenure"
	PrefInvestmentAmount   = "investment_amount"
	PrefInvestmentType     = "investment_type"
	PrefIsSeniorCitizen    = "is_senior_citizen"
	PrefSpendingCategories = "spending_categories"
	PrefIncomeRange        = "income_range"
	PrefMaxAnnualFee       = "max_annual_fee"
)

// UserPreferences is an open set of named signals. Missing or empty values
// mean "no preference"; accessors return neutral defaults instead of errors.
type UserPreferences map[string]any

// Has reports whether key is present with a non-nil value.
func (p UserPreferences) Has(key string) bool {
	if p == nil {
		return false
	}
	v, ok := p[key]
	return ok && v != nil
}

// String returns the trimmed text value of key.
func (p UserPreferences) String(key string) string {
	if p == nil {
		return ""
	}
	return utils.ToString(p[key])
}

// Lower returns the lower-cased text value of key.
func (p UserPreferences) Lower(key string) string {
	return strings.ToLower(p.String(key))
}

// Float returns the numeric value of key, or nil.
func (p UserPreferences) Float(key string) *float64 {
	if p == nil {
		return nil
	}
	return utils.ToFloat(p[key])
}

// Bool returns the boolean value of key, false when absent.
func (p UserPreferences) Bool(key string) bool {
	if p == nil {
		return false
	}
	return utils.ToBool(p[key])
}

// StringSlice returns the list value of key. A comma separated string is split.
func (p UserPreferences) StringSlice(key string) []string {
	if p == nil {
		return nil
	}
	if s, ok := p[key].(string); ok {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return utils.ToStringSlice(p[key])
}

// ParsePreference converts a CLI or query string "key=value" value into a typed
// preference value.
func ParsePreference(value string) any {
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	if f := utils.ToFloat(value); f != nil {
		return *f
	}
	if strings.Contains(value, ",") {
		return strings.Split(value, ",")
	}
	return value
}
