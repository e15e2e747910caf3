package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var companyCmd = &cobra.Command{
	Use:   "company [ticker]",
	Short: "Look up a company profile and print it as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompany,
}

func init() {
	rootCmd.AddCommand(companyCmd)
}

func runCompany(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	assembler, err := newAssembler(cfg, log, nil)
	if err != nil {
		return err
	}

	info, err := assembler.CompanyInfo(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("looking up %s: %w", args[0], err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}
