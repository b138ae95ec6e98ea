package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/watscheck/internal/config"
	"github.com/dshills/watscheck/internal/ledger"
	"github.com/dshills/watscheck/internal/profile"
	"github.com/dshills/watscheck/internal/render"
	"github.com/dshills/watscheck/internal/report"
	"github.com/dshills/watscheck/internal/verdict"
	"github.com/dshills/watscheck/internal/violation"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <report.json>...",
		Short: "Check WATS report documents and list every violation",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runValidate,
	}
	flags := cmd.Flags()
	flags.String("format", config.FormatText, "output format (text|json|markdown|annotated)")
	flags.String("fail-on", "", "exit 2 when a verdict is at least this severe; VALID never fails (default NONCONFORMING)")
	flags.Bool("record", false, "record each run in the ledger")
	flags.StringP("out", "o", "", "write output to a file instead of stdout")
	return cmd
}

// checked is one validated document.
type checked struct {
	res *render.Result
	raw []byte
	vs  violation.List
	ok  bool // raw was readable JSON
}

func checkDocument(file string, raw []byte, prof profile.Profile) (checked, error) {
	_, vs, err := report.Parse(raw, report.WithProfile(prof))
	if errors.Is(err, report.ErrMalformed) {
		return checked{res: render.Malformed(file, prof.Name, err), raw: raw}, nil
	}
	if err != nil {
		return checked{}, err
	}
	res, err := render.Assemble(file, prof.Name, raw, vs)
	if err != nil {
		return checked{}, err
	}
	return checked{res: res, raw: raw, vs: vs, ok: true}, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	threshold, err := verdict.ParseVerdict(e.cfg.FailOn)
	if err != nil {
		return exitWith(exitCodeBadInput, err)
	}
	format := strings.ToLower(e.cfg.Format)
	if !slices.Contains(config.Formats, format) {
		return exitWith(exitCodeBadInput, fmt.Errorf("unknown format %q (valid: %s)", e.cfg.Format, strings.Join(config.Formats, ", ")))
	}

	var led *ledger.Ledger
	if e.cfg.Ledger.Record {
		if led, err = ledger.Open(e.cfg.Ledger.Path); err != nil {
			return err
		}
		defer led.Close()
	}

	docs := make([]checked, 0, len(args))
	for _, file := range args {
		raw, err := readInput(file)
		if err != nil {
			return err
		}
		doc, err := checkDocument(file, raw, e.prof)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		e.log.Info("validated", "file", file, "verdict", doc.res.Summary.Verdict, "violations", doc.res.Summary.Total)
		if led != nil {
			run, err := led.Record(cmd.Context(), ledger.RecordParams{
				File: file, Raw: raw, Profile: e.prof.Name, Summary: doc.res.Summary,
			})
			if err != nil {
				return err
			}
			e.log.Debug("recorded", "run", run.ID)
		}
		docs = append(docs, doc)
	}

	w, closeOut, err := output(cmd)
	if err != nil {
		return err
	}
	if err := writeResults(w, format, docs); err != nil {
		closeOut()
		return err
	}
	if err := closeOut(); err != nil {
		return err
	}

	var failed []string
	for _, d := range docs {
		if verdict.Fails(d.res.Summary.Verdict, threshold) {
			failed = append(failed, fmt.Sprintf("%s is %s", d.res.Input.File, d.res.Summary.Verdict))
		}
	}
	if len(failed) > 0 {
		return exitWith(exitCodeFailOn, fmt.Errorf("%s (fail-on %s)", strings.Join(failed, "; "), threshold))
	}
	return nil
}

func writeResults(w io.Writer, format string, docs []checked) error {
	switch format {
	case config.FormatJSON:
		var (
			b   []byte
			err error
		)
		if len(docs) == 1 {
			b, err = render.RenderJSON(docs[0].res)
		} else {
			results := make([]*render.Result, len(docs))
			for i, d := range docs {
				results[i] = d.res
			}
			b, err = json.MarshalIndent(results, "", "  ")
		}
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err
	case config.FormatMarkdown:
		for _, d := range docs {
			if _, err := io.WriteString(w, render.RenderMarkdown(d.res)); err != nil {
				return err
			}
		}
	case config.FormatAnnotated:
		for _, d := range docs {
			if !d.ok {
				if _, err := io.WriteString(w, render.RenderText(d.res)); err != nil {
					return err
				}
				continue
			}
			src, err := render.NewSource(d.raw)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "%s\n%s", render.SummaryLine(d.res), src.Annotate(d.vs)); err != nil {
				return err
			}
		}
	default:
		for _, d := range docs {
			if _, err := io.WriteString(w, render.RenderText(d.res)); err != nil {
				return err
			}
		}
	}
	return nil
}
