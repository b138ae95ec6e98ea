package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/watscheck/internal/schema"
)

func newCodesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codes [vocabulary]",
		Short: "List the codes accepted by each closed vocabulary",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCodes,
	}
	cmd.Flags().Bool("json", false, "print as JSON")
	return cmd
}

func runCodes(cmd *cobra.Command, args []string) error {
	vocabs := schema.Vocabularies()
	if len(args) == 1 {
		var match []schema.Vocabulary
		for _, v := range vocabs {
			if strings.EqualFold(v.Name, args[0]) {
				match = append(match, v)
			}
		}
		if len(match) == 0 {
			names := make([]string, len(vocabs))
			for i, v := range vocabs {
				names[i] = v.Name
			}
			return exitWith(exitCodeBadInput, fmt.Errorf("unknown vocabulary %q (valid: %s)", args[0], strings.Join(names, ", ")))
		}
		vocabs = match
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		b, err := json.MarshalIndent(vocabs, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s\n", b)
		return err
	}
	for _, v := range vocabs {
		fmt.Fprintf(out, "%s (%s): %s\n", v.Name, v.Field, strings.Join(quoted(v.Codes), ", "))
	}
	return nil
}

func quoted(codes []string) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = fmt.Sprintf("%q", c)
	}
	return out
}
