package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/watscheck/internal/schema"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the report format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := schema.JSONSchema()
			if err != nil {
				return err
			}
			w, closeOut, err := output(cmd)
			if err != nil {
				return err
			}
			if _, err := w.Write(b); err != nil {
				closeOut()
				return fmt.Errorf("write schema: %w", err)
			}
			return closeOut()
		},
	}
	cmd.Flags().StringP("out", "o", "", "write the schema to a file instead of stdout")
	return cmd
}
