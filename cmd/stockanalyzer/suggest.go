package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/newthinker/stockanalyzer/internal/suggest"
	"github.com/spf13/cobra"
)

var suggestAll bool

var suggestCmd = &cobra.Command{
	Use:   "suggest [query]",
	Short: "List ticker suggestions matching a query",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSuggest,
}

func init() {
	suggestCmd.Flags().BoolVar(&suggestAll, "all", false, "list every known ticker instead of the top matches")
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	query := ""
	if len(args) == 1 {
		query = args[0]
	}

	results := suggest.Search(query)
	if suggestAll {
		results = suggest.Popular()
	}
	if len(results) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No suggestions for %q\n", query)
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TICKER\tNAME")
	for _, s := range results {
		fmt.Fprintf(tw, "%s\t%s\n", s.Ticker, s.Name)
	}
	return tw.Flush()
}
