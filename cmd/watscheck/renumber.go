package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/watscheck/internal/report"
)

func newRenumberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "renumber <report.json>",
		Short: "Rewrite step ids to document order",
		Args:  cobra.ExactArgs(1),
		RunE:  runRenumber,
	}
	flags := cmd.Flags()
	flags.StringP("out", "o", "", "write the result to a file instead of stdout")
	flags.BoolP("in-place", "i", false, "overwrite the input file")
	return cmd
}

func runRenumber(cmd *cobra.Command, args []string) error {
	raw, err := readInput(args[0])
	if err != nil {
		return err
	}
	out, changed, err := report.Renumber(raw)
	if err != nil {
		return exitWith(exitCodeBadInput, err)
	}

	if inPlace, _ := cmd.Flags().GetBool("in-place"); inPlace {
		if changed > 0 {
			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], out, info.Mode().Perm()); err != nil {
				return fmt.Errorf("write %s: %w", args[0], err)
			}
		}
	} else {
		w, closeOut, err := output(cmd)
		if err != nil {
			return err
		}
		if _, err := w.Write(out); err != nil {
			closeOut()
			return err
		}
		if err := closeOut(); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d step id(s) changed\n", args[0], changed)
	return nil
}
