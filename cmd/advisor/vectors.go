package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"financial-product-advisor/internal/services/vectorstore"
)

var (
	searchTopK     int
	searchCategory string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed every product and populate the vector store",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, cleanup, err := buildManager(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		n, err := m.InitializeVectorStore(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d products\n", n)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find products similar to a query in the vector store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, cleanup, err := buildManager(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		var filter map[string]string
		if searchCategory != "" {
			category, err := parseCategories([]string{searchCategory})
			if err != nil {
				return err
			}
			filter = map[string]string{vectorstore.MetaProductType: string(category[0])}
		}

		matches, err := m.SearchSimilar(cmd.Context(), args[0], searchTopK, filter)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), matches)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SCORE\tTYPE\tNAME\tBANK")
		for _, match := range matches {
			fmt.Fprintf(tw, "%.3f\t%s\t%s\t%s\n", match.Score,
				match.Metadata[vectorstore.MetaProductType],
				match.Metadata[vectorstore.MetaProductName],
				match.Metadata[vectorstore.MetaBankName])
		}
		return tw.Flush()
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", vectorstore.DefaultTopK, "number of matches")
	searchCmd.Flags().StringVarP(&searchCategory, "category", "c", "", "restrict to one category")
	rootCmd.AddCommand(indexCmd, searchCmd)
}
