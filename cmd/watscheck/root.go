package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "watscheck",
		Short:         "Validate WATS test reports before they are submitted",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	persistent := cmd.PersistentFlags()
	persistent.String("config", "", "config file (default ./.watscheck.yml when present)")
	persistent.String("profile", "", "validation profile (standard|strict|lenient)")
	persistent.String("log-level", "", "log level (debug|info|warn|error)")
	persistent.String("log-mode", "", "log encoding (dev|prod)")
	persistent.String("ledger", "", "ledger database path")

	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newSchemaCmd())
	cmd.AddCommand(newCodesCmd())
	cmd.AddCommand(newRepairCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newRenumberCmd())

	return cmd
}
