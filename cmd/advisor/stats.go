package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"financial-product-advisor/internal/models"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show product and source counts per category",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, cleanup, err := buildManager(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		stats := m.CategoryStats(cmd.Context())
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), stats)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CATEGORY\tPRODUCTS\tSOURCES\tDETAILS")
		for _, category := range models.ValidCategories() {
			s := stats[category]
			details := strings.Join(s.Sources, ", ")
			if s.Error != "" {
				details = "error: " + s.Error
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", category, s.TotalProducts, s.AvailableSources, details)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
