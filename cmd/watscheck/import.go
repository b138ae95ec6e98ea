package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/dshills/watscheck/internal/csvimport"
	"github.com/dshills/watscheck/internal/verdict"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Convert 305-style CSV rows into validated WATS reports",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	flags := cmd.Flags()
	flags.String("out-dir", ".", "directory for the generated reports")
	flags.Int("process-code", 0, "process code for every report")
	flags.String("location", "", "location for every report (default: Site column)")
	flags.String("purpose", "", "purpose for every report")
	flags.String("operator", "", "operator when the Operator column is empty")
	flags.Bool("dry-run", false, "convert and validate without writing files")
	return cmd
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func runImport(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	flags := cmd.Flags()
	im := &csvimport.Importer{
		Defaults: csvimport.Defaults{
			ProcessCode: intFlag(flags, "process-code", e.cfg.Import.ProcessCode),
			Location:    stringFlag(flags, "location", e.cfg.Import.Location),
			Purpose:     stringFlag(flags, "purpose", e.cfg.Import.Purpose),
			Operator:    stringFlag(flags, "operator", e.cfg.Import.Operator),
		},
		Profile: &e.prof,
		Log:     e.log,
	}
	res, err := im.ImportFile(args[0])
	if err != nil {
		var te csvimport.TableErrors
		if errors.As(err, &te) {
			for _, t := range te {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", args[0], t.Error())
			}
		}
		return exitWith(exitCodeBadInput, err)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}

	outDir, _ := flags.GetString("out-dir")
	dryRun, _ := flags.GetBool("dry-run")
	if !dryRun {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return exitWith(exitCodeBadInput, fmt.Errorf("create %s: %w", outDir, err))
		}
	}

	out := cmd.OutOrStdout()
	bad := 0
	for _, row := range res.Rows {
		for _, w := range row.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: line %d: %s\n", row.Line, w)
		}
		for _, te := range row.Errors {
			fmt.Fprintf(out, "  %s\n", te.Error())
		}
		if !row.OK() {
			bad++
		}
		if row.Report == nil {
			fmt.Fprintf(out, "line %d: not converted\n", row.Line)
			continue
		}

		name := fmt.Sprintf("row-%d.json", row.Line)
		if sn := unsafeName.ReplaceAllString(row.Report.SN, "_"); sn != "" && sn != "_" {
			name = fmt.Sprintf("%s-%d.json", sn, row.Line)
		}
		path := filepath.Join(outDir, name)
		if !dryRun {
			if err := os.WriteFile(path, row.JSON, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
		}
		sum := verdict.Summarize(row.Violations)
		fmt.Fprintf(out, "line %d: %s %s -> %s\n", row.Line, row.Report.SN, sum.Verdict, path)
		for _, v := range row.Violations {
			fmt.Fprintf(out, "  %s\n", v.Error())
		}
	}

	e.log.Info("import finished", "file", args[0], "rows", len(res.Rows), "failed", bad)
	if bad > 0 {
		return exitWith(exitCodeFailOn, fmt.Errorf("%d of %d rows did not convert cleanly", bad, len(res.Rows)))
	}
	return nil
}
