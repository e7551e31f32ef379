// Package models defines the data structures for the financial product advisor.
package models

import "strings"

// ProductCategory represents the kind of financial product.
type ProductCategory string

const (
	CategoryCreditCards   ProductCategory = "credit_cards"
	CategoryFixedDeposits ProductCategory = "fixed_deposits"
	CategoryMutualFunds   ProductCategory = "mutual_funds"
	CategoryInsurance     ProductCategory = "insurance"
	CategoryLoans         ProductCategory = "loans"
)

// IsValid checks if the product category is one of the known values.
func (c ProductCategory) IsValid() bool {
	switch c {
	case CategoryCreditCards, CategoryFixedDeposits, CategoryMutualFunds, CategoryInsurance, CategoryLoans:
		return true
	}
	return false
}

// IsImplemented reports whether the category has a processing pipeline.
// Insurance and loans are reserved.
func (c ProductCategory) IsImplemented() bool {
	switch c {
	case CategoryCreditCards, CategoryFixedDeposits, CategoryMutualFunds:
		return true
	}
	return false
}

// DisplayName returns the category name with spaces, e.g. "credit cards".
func (c ProductCategory) DisplayName() string {
	return strings.ReplaceAll(string(c), "_", " ")
}

// SourceKey returns the preference key holding the source filter for this category.
func (c ProductCategory) SourceKey() string {
	return string(c) + "_source"
}

// ImplementedCategories returns the categories that can be recommended, in pipeline order.
func ImplementedCategories() []ProductCategory {
	return []ProductCategory{
		CategoryCreditCards,
		CategoryFixedDeposits,
		CategoryMutualFunds,
	}
}

// ValidCategories returns every known product category.
func ValidCategories() []ProductCategory {
	return []ProductCategory{
		CategoryCreditCards,
		CategoryFixedDeposits,
		CategoryMutualFunds,
		CategoryInsurance,
		CategoryLoans,
	}
}

// NormalizeCategory converts various category spellings to standard values.
func NormalizeCategory(category string) ProductCategory {
	normalized := strings.ToLower(strings.TrimSpace(category))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")

	categoryMap := map[string]ProductCategory{
		"credit_card":    CategoryCreditCards,
		"cards":          CategoryCreditCards,
		"cc":             CategoryCreditCards,
		"fixed_deposit":  CategoryFixedDeposits,
		"fd":             CategoryFixedDeposits,
		"fds":            CategoryFixedDeposits,
		"deposits":       CategoryFixedDeposits,
		"mutual_fund":    CategoryMutualFunds,
		"mf":             CategoryMutualFunds,
		"funds":          CategoryMutualFunds,
		"loan":           CategoryLoans,
		"insurance_plan": CategoryInsurance,
	}

	if mapped, ok := categoryMap[normalized]; ok {
		return mapped
	}

	return ProductCategory(normalized)
}
