package models

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// RawRecord is one heterogeneous product record as read from a data source.
type RawRecord map[string]any

// productNamespace seeds the name-based product identifiers.
var productNamespace = uuid.MustParse("6f1c2a5e-3b7d-4f0a-9c1e-8d2b4a6e0f13")

// NewProductID derives a stable identifier from the product's category,
// source, name and position in its batch. Two same-named products in
// one batch get different identifiers.
func NewProductID(category ProductCategory, source, name string, index int) string {
	key := strings.Join([]string{string(category), strings.ToLower(source), strings.ToLower(name), strconv.Itoa(index)}, "|")
	return uuid.NewSHA1(productNamespace, []byte(key)).String()
}

// ProductInfo holds the attributes shared by every product category.
type ProductInfo struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    ProductCategory `json:"category"`
	Features    []string        `json:"features"`
	Source      string          `json:"source,omitempty"`
}

// Product is implemented by CreditCard, FixedDeposit and MutualFund only.
type Product interface {
	// Info returns the shared attributes.
	Info() ProductInfo
	// Provider names the bank or fund house offering the product.
	Provider() string
	// EmbeddingAttributes lists category-specific lines for the embedding text.
	EmbeddingAttributes() []string

	sealed()
}

// Info returns the shared product attributes.
func (p ProductInfo) Info() ProductInfo { return p }

// FeatureText joins the features in lower case for keyword matching.
func (p ProductInfo) FeatureText() string {
	return strings.ToLower(strings.Join(p.Features, " "))
}

// SearchText is the lower-cased name followed by the feature text.
func (p ProductInfo) SearchText() string {
	return strings.ToLower(p.Name) + " " + p.FeatureText()
}

// CreditCard is a credit card product.
type CreditCard struct {
	ProductInfo
	Bank                string   `json:"bank"`
	AnnualFee           *float64 `json:"annual_fee,omitempty"`
	CashbackRate        *float64 `json:"cashback_rate,omitempty"`
	WelcomeBenefit      string   `json:"welcome_benefit,omitempty"`
	FuelSurchargeWaiver bool     `json:"fuel_surcharge_waiver"`
	LoungeAccess        bool     `json:"lounge_access"`
}

func (c *CreditCard) sealed() {}

// Provider returns the issuing bank.
func (c *CreditCard) Provider() string { return c.Bank }

// EmbeddingAttributes returns the bank line.
func (c *CreditCard) EmbeddingAttributes() []string {
	return []string{"Bank: " + c.Bank}
}

// FixedDeposit is a bank fixed deposit product.
type FixedDeposit struct {
	ProductInfo
	BankName          string   `json:"bank_name"`
	InterestRateMin   *float64 `json:"interest_rate_min,omitempty"`
	InterestRateMax   *float64 `json:"interest_rate_max,omitempty"`
	TenureFromDays    *int     `json:"tenure_from_days,omitempty"`
	TenureToDays      *int     `json:"tenure_to_days,omitempty"`
	SeniorCitizenRate *float64 `json:"senior_citizen_rate,omitempty"`
}

func (f *FixedDeposit) sealed() {}

// Provider returns the bank name.
func (f *FixedDeposit) Provider() string { return f.BankName }

// EmbeddingAttributes returns the bank line.
func (f *FixedDeposit) EmbeddingAttributes() []string {
	return []string{"Bank: " + f.BankName}
}

// MutualFund is a mutual fund scheme.
type MutualFund struct {
	ProductInfo
	AMC              string   `json:"amc"`
	RiskLevel        string   `json:"risk_level"`
	FundCategory     string   `json:"fund_category,omitempty"`
	Rating           int      `json:"rating"`
	Returns1Y        *float64 `json:"returns_1y,omitempty"`
	Returns3Y        *float64 `json:"returns_3y,omitempty"`
	Returns5Y        *float64 `json:"returns_5y,omitempty"`
	NAV              *float64 `json:"nav,omitempty"`
	AUM              *float64 `json:"aum,omitempty"`
	ExpenseRatio     *float64 `json:"expense_ratio,omitempty"`
	MinInvestment    *float64 `json:"min_investment,omitempty"`
	FundManager      string   `json:"fund_manager,omitempty"`
	InceptionDate    string   `json:"inception_date,omitempty"`
	Holdings         []string `json:"holdings,omitempty"`
	SectorAllocation []string `json:"sector_allocation,omitempty"`
}

func (m *MutualFund) sealed() {}

// Provider returns the asset management company.
func (m *MutualFund) Provider() string { return m.AMC }

// EmbeddingAttributes returns the fund house and risk lines.
func (m *MutualFund) EmbeddingAttributes() []string {
	return []string{"Bank: " + m.AMC, "Risk: " + m.RiskLevel}
}
