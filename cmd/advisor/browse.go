package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/services/loader"
	"financial-product-advisor/internal/services/manager"
	"financial-product-advisor/internal/utils"
)

var (
	browseMinRate   float64
	browseMinDays   int
	browseMaxDays   int
	browseMinRating float64
	browseGroupBy   string
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Inspect raw product data without scoring",
}

var browseCardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "Count credit cards per bank",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, cleanup, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		counts, err := loader.NewCreditCardLoader(b, utils.GetLogger()).CardCounts(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), counts)
		}

		banks := make([]string, 0, len(counts))
		for bank := range counts {
			banks = append(banks, bank)
		}
		sort.Strings(banks)

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "BANK\tCARDS")
		for _, bank := range banks {
			fmt.Fprintf(tw, "%s\t%d\n", bank, counts[bank])
		}
		return tw.Flush()
	},
}

var browseDepositsCmd = &cobra.Command{
	Use:   "deposits",
	Short: "List fixed deposits by minimum rate or tenure window (days)",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, cleanup, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		l := loader.NewFixedDepositLoader(b, utils.GetLogger())
		var records []models.RawRecord
		if cmd.Flags().Changed("min-days") || cmd.Flags().Changed("max-days") {
			records, err = l.ByTenure(cmd.Context(), browseMinDays, browseMaxDays)
		} else {
			records, err = l.ByMinRate(cmd.Context(), browseMinRate)
		}
		if err != nil {
			return err
		}
		return printRecords(cmd.OutOrStdout(), records,
			"bank_name", "roi_in_percentage_max_tenure", "roi_in_percentage_senior_citizen_max_tenure", "tenure_from_days", "tenure_to_days")
	},
}

var browseFundsCmd = &cobra.Command{
	Use:   "funds",
	Short: "List top rated mutual funds, or group them by a field",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, cleanup, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		l := loader.NewMutualFundLoader(b, utils.GetLogger())
		if browseGroupBy != "" {
			groups, err := l.GroupBy(cmd.Context(), browseGroupBy)
			if err != nil {
				return err
			}
			counts := make(map[string]int, len(groups))
			for key, records := range groups {
				counts[key] = len(records)
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), counts)
			}
			keys := make([]string, 0, len(counts))
			for key := range counts {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "%s\tFUNDS\n", browseGroupBy)
			for _, key := range keys {
				fmt.Fprintf(tw, "%s\t%d\n", key, counts[key])
			}
			return tw.Flush()
		}

		records, err := l.TopRated(cmd.Context(), browseMinRating)
		if err != nil {
			return err
		}
		return printRecords(cmd.OutOrStdout(), records, "name", "amc", "category", "rating", "risk_level")
	},
}

func init() {
	browseDepositsCmd.Flags().Float64Var(&browseMinRate, "min-rate", 0, "minimum interest rate in percent")
	browseDepositsCmd.Flags().IntVar(&browseMinDays, "min-days", 0, "minimum tenure start in days")
	browseDepositsCmd.Flags().IntVar(&browseMaxDays, "max-days", 0, "maximum tenure start in days (0 means unbounded)")
	browseFundsCmd.Flags().Float64Var(&browseMinRating, "min-rating", 4, "minimum rating")
	browseFundsCmd.Flags().StringVar(&browseGroupBy, "group-by", "", "group by field, e.g. category or risk_level")

	browseCmd.AddCommand(browseCardsCmd, browseDepositsCmd, browseFundsCmd)
	rootCmd.AddCommand(browseCmd)
}

func openBackend(cmd *cobra.Command) (loader.Backend, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	b, closeFn, err := manager.NewBackend(cmd.Context(), cfg, utils.GetLogger())
	if err != nil {
		return nil, nil, err
	}
	if closeFn == nil {
		closeFn = func() {}
	}
	return b, closeFn, nil
}

func printRecords(w io.Writer, records []models.RawRecord, columns ...string) error {
	if jsonOutput {
		return printJSON(w, records)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, column := range columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, column)
	}
	fmt.Fprintln(tw)
	for _, record := range records {
		for i, column := range columns {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, utils.ToString(record[column]))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
