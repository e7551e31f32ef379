package models

import "sort"

// ScoredProduct pairs a product with a score in [0, 100] and a short
// explanation. Values are never mutated; re-scoring builds a new one.
type ScoredProduct struct {
	Product   Product `json:"product"`
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// Rescored returns a copy with a new score and reasoning.
func (s ScoredProduct) Rescored(score float64, reasoning string) ScoredProduct {
	return ScoredProduct{Product: s.Product, Score: score, Reasoning: reasoning}
}

// TopFeatures returns up to n features for display.
func (s ScoredProduct) TopFeatures(n int) []string {
	features := s.Product.Info().Features
	if len(features) > n {
		features = features[:n]
	}
	return features
}

// SortByScore sorts products by score, highest first. Equal scores keep
// their relative order.
func SortByScore(products []ScoredProduct) {
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Score > products[j].Score
	})
}

// Recommendation is the merged result returned for a query.
type Recommendation struct {
	Products       []ScoredProduct `json:"products"`
	TotalFound     int             `json:"total_found"`
	QueryProcessed string          `json:"query_processed"`
	Reasoning      string          `json:"reasoning"`
}

// CategoryStats summarizes one category's raw data for display.
type CategoryStats struct {
	TotalProducts    int      `json:"total_products"`
	AvailableSources int      `json:"available_sources"`
	Sources          []string `json:"sources"`
	Error            string   `json:"error,omitempty"`
}
