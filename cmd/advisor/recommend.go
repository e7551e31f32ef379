package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/services/manager"
)

var (
	recommendQuery      string
	recommendCategories []string
	recommendPrefs      []string
	recommendMax        int
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend products for a query and preferences",
	Example: `  advisor recommend -q "cashback card" -c credit_cards -p max_annual_fee=500 -n 5
  advisor recommend -q "senior citizen" -c fd -p is_senior_citizen=true -p fixed_deposits_source=sbi`,
	RunE: runRecommend,
}

func init() {
	recommendCmd.Flags().StringVarP(&recommendQuery, "query", "q", "", "free text query")
	recommendCmd.Flags().StringSliceVarP(&recommendCategories, "category", "c", nil, "categories to search (default all)")
	recommendCmd.Flags().StringArrayVarP(&recommendPrefs, "pref", "p", nil, "preference as key=value, repeatable")
	recommendCmd.Flags().IntVarP(&recommendMax, "max-results", "n", 0, "maximum number of results (default from DEFAULT_MAX_RESULTS)")
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	prefs, err := parsePreferences(recommendPrefs)
	if err != nil {
		return err
	}
	categories, err := parseCategories(recommendCategories)
	if err != nil {
		return err
	}

	m, cleanup, err := buildManager(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	rec := m.Recommend(cmd.Context(), manager.RecommendRequest{
		Query:       recommendQuery,
		Categories:  categories,
		Preferences: prefs,
		MaxResults:  recommendMax,
	})

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), rec)
	}
	printRecommendation(cmd.OutOrStdout(), rec)
	return nil
}

func printRecommendation(w io.Writer, rec models.Recommendation) {
	fmt.Fprintln(w, rec.Reasoning)
	for i, p := range rec.Products {
		info := p.Product.Info()
		fmt.Fprintf(w, "\n%2d. %s [%s] %.1f/100\n", i+1, info.Name, info.Category.DisplayName(), p.Score)
		if provider := p.Product.Provider(); provider != "" {
			fmt.Fprintf(w, "    Provider: %s\n", provider)
		}
		if features := p.TopFeatures(3); len(features) > 0 {
			fmt.Fprintf(w, "    %s\n", strings.Join(features, "; "))
		}
		fmt.Fprintf(w, "    %s\n", p.Reasoning)
	}
}
