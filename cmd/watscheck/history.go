package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/watscheck/internal/ledger"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded validation runs, newest first",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	flags := cmd.Flags()
	flags.Int("limit", 20, "number of runs to show")
	flags.String("sn", "", "only runs for this serial number")
	flags.Bool("json", false, "print as JSON")
	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	led, err := ledger.Open(e.cfg.Ledger.Path)
	if err != nil {
		return err
	}
	defer led.Close()

	flags := cmd.Flags()
	limit, _ := flags.GetInt("limit")
	sn, _ := flags.GetString("sn")
	runs, err := led.Recent(cmd.Context(), ledger.Query{SN: sn, Limit: limit})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := flags.GetBool("json"); asJSON {
		if runs == nil {
			runs = []ledger.Run{}
		}
		b, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s\n", b)
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No recorded runs")
		return nil
	}
	fmt.Fprintf(out, "%-5s %-30s %-14s %5s %-20s %s\n", "ID", "CHECKED", "VERDICT", "SCORE", "SN", "FILE")
	for _, r := range runs {
		fmt.Fprintf(out, "%-5d %-30s %-14s %5d %-20s %s\n", r.ID, r.CreatedAt, r.Verdict, r.Score, r.SN, r.File)
	}
	return nil
}
