package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/watscheck/internal/llm"
	"github.com/dshills/watscheck/internal/report"
)

func newRepairCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repair <report.json>",
		Short: "Ask a language model to fix a report that fails validation",
		Args:  cobra.ExactArgs(1),
		RunE:  runRepair,
	}
	flags := cmd.Flags()
	flags.String("provider", "", "LLM provider (anthropic|openai|google)")
	flags.String("model", "", "model name (provider default when empty)")
	flags.Int("max-tokens", 0, "maximum tokens in the answer")
	flags.StringP("out", "o", "", "write the repaired report to a file instead of stdout")
	return cmd
}

func runRepair(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	raw, err := readInput(args[0])
	if err != nil {
		return err
	}
	_, vs, err := report.Parse(raw, report.WithProfile(e.prof))
	if err != nil && !errors.Is(err, report.ErrMalformed) {
		return err
	}
	if err == nil && len(vs) == 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s is already valid\n", args[0])
		return nil
	}

	res, err := llm.Repair(cmd.Context(), raw, vs, e.prof, llm.Options{
		Provider:    e.cfg.LLM.Provider,
		Model:       e.cfg.LLM.Model,
		MaxTokens:   intFlag(cmd.Flags(), "max-tokens", e.cfg.LLM.MaxTokens),
		Temperature: e.cfg.LLM.Temperature,
		Log:         e.log,
	})
	switch {
	case errors.Is(err, llm.ErrInvalidModelOutput):
		return exitWith(exitCodeBadOutput, err)
	case err != nil:
		return exitWith(exitCodeAPIError, err)
	}

	w, closeOut, err := output(cmd)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s", res.Raw); err != nil {
		closeOut()
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: fixed %d violation(s) in %d attempt(s)\n", args[0], len(vs), res.Attempts)
	return closeOut()
}
