package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tidwall/sjson"

	"github.com/dshills/watscheck/internal/llm"
	"github.com/dshills/watscheck/internal/render"
	"github.com/dshills/watscheck/internal/report"
	"github.com/dshills/watscheck/internal/verdict"
	"github.com/dshills/watscheck/internal/violation"
)

const (
	validReport   = "../../testdata/reports/valid.json"
	invalidReport = "../../testdata/reports/invalid.json"
	brokenJSON    = "../../testdata/reports/malformed.json"
	misnumbered   = "../../testdata/reports/misnumbered.json"
	csv305        = "../../testdata/305.csv"
)

// run executes the command tree with args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

func TestValidate_Valid(t *testing.T) {
	out, _, err := run(t, "validate", validReport)
	if code := exitCode(err); code != 0 {
		t.Fatalf("expected exit 0, got %d: %v", code, err)
	}
	want := validReport + ": VALID (score 100, 0 violations)\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestValidate_InvalidFailsByDefault(t *testing.T) {
	out, _, err := run(t, "validate", invalidReport)
	if code := exitCode(err); code != exitCodeFailOn {
		t.Fatalf("expected exit %d, got %d: %v", exitCodeFailOn, code, err)
	}
	for _, want := range []string{"INCONSISTENT (score 83, 2 violations)", "[CONSISTENCY] result", "[RANGE] processCode"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidate_FailOnThreshold(t *testing.T) {
	cases := []struct {
		failOn string
		want   int
	}{
		{"MALFORMED", 0},
		{"INCONSISTENT", exitCodeFailOn},
		{"valid", 0},
		{"BOGUS", exitCodeBadInput},
	}
	for _, tc := range cases {
		_, _, err := run(t, "validate", "--fail-on", tc.failOn, invalidReport)
		if code := exitCode(err); code != tc.want {
			t.Errorf("--fail-on %s: expected exit %d, got %d: %v", tc.failOn, tc.want, code, err)
		}
	}
}

func TestValidate_JSON(t *testing.T) {
	out, _, _ := run(t, "validate", "--format", "json", invalidReport)
	var res render.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("parse output: %v\n%s", err, out)
	}
	if res.Summary.Verdict != verdict.VerdictInconsistent || res.Summary.Total != 2 {
		t.Errorf("summary = %+v", res.Summary)
	}
	if res.Summary.Counts[violation.Consistency] != 1 || res.Summary.Counts[violation.Range] != 1 {
		t.Errorf("counts = %v", res.Summary.Counts)
	}
	if res.Input.Profile != "standard" {
		t.Errorf("profile = %q", res.Input.Profile)
	}
}

func TestValidate_JSONMultipleFiles(t *testing.T) {
	out, _, _ := run(t, "validate", "--format", "json", validReport, invalidReport)
	var res []render.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(res) != 2 || res[0].Summary.Verdict != verdict.VerdictValid {
		t.Errorf("unexpected results %+v", res)
	}
}

func TestValidate_Annotated(t *testing.T) {
	out, _, _ := run(t, "validate", "--format", "annotated", invalidReport)
	if !strings.Contains(out, "\n>") || !strings.Contains(out, "^ CONSISTENCY: result (P) and root step status (F) must match") {
		t.Errorf("annotated output:\n%s", out)
	}
}

func TestValidate_Markdown(t *testing.T) {
	out, _, _ := run(t, "validate", "--format", "markdown", invalidReport)
	if !strings.Contains(out, "**Verdict:** INCONSISTENT") || !strings.Contains(out, "| Line | Kind | Path | Step | Message |") {
		t.Errorf("markdown output:\n%s", out)
	}
}

func TestValidate_Malformed(t *testing.T) {
	out, _, err := run(t, "validate", brokenJSON)
	if code := exitCode(err); code != exitCodeFailOn {
		t.Errorf("expected exit %d, got %d", exitCodeFailOn, code)
	}
	if !strings.Contains(out, "MALFORMED") || !strings.Contains(out, "invalid JSON") {
		t.Errorf("output:\n%s", out)
	}
}

func TestValidate_UndecodableValueDoesNotAbortBatch(t *testing.T) {
	raw, err := os.ReadFile(validReport)
	if err != nil {
		t.Fatal(err)
	}
	raw, err = sjson.SetRawBytes(raw, "root.steps.0.loop", []byte(`{"num":100000000000000000000,"endingIndex":1,"passed":1,"failed":0}`))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "loop.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, "validate", path, validReport)
	if code := exitCode(err); code != exitCodeFailOn {
		t.Fatalf("expected exit %d, got %d: %v", exitCodeFailOn, code, err)
	}
	if !strings.Contains(out, "[RANGE] root.steps[0].loop.num") || !strings.Contains(out, validReport+": VALID") {
		t.Errorf("output:\n%s", out)
	}
}

func TestValidate_BadInput(t *testing.T) {
	cases := [][]string{
		{"validate", "does-not-exist.json"},
		{"validate", "--format", "yaml", validReport},
		{"validate", "--profile", "paranoid", validReport},
		{"validate", "--config", "missing.yml", validReport},
	}
	for _, args := range cases {
		if _, _, err := run(t, args...); exitCode(err) != exitCodeBadInput {
			t.Errorf("%v: expected exit %d, got %v", args, exitCodeBadInput, err)
		}
	}
}

func TestValidate_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watscheck.yml")
	if err := os.WriteFile(path, []byte("format: json\nfail_on: MALFORMED\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _, err := run(t, "validate", "--config", path, invalidReport)
	if err != nil {
		t.Fatalf("expected exit 0 under fail_on MALFORMED, got %v", err)
	}
	if !strings.HasPrefix(out, "{") {
		t.Errorf("expected JSON output from config, got:\n%s", out)
	}
}

func TestValidate_RecordAndHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	if _, _, err := run(t, "validate", "--record", "--ledger", db, validReport); err != nil {
		t.Fatalf("validate: %v", err)
	}
	run(t, "validate", "--record", "--ledger", db, invalidReport)

	out, _, err := run(t, "history", "--ledger", db, "--json")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var runs []struct {
		File    string `json:"file"`
		Verdict string `json:"verdict"`
		SN      string `json:"sn"`
	}
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("parse history: %v\n%s", err, out)
	}
	if len(runs) != 2 || runs[0].File != invalidReport || runs[0].Verdict != "INCONSISTENT" || runs[1].SN != "SN000123" {
		t.Errorf("runs = %+v", runs)
	}

	text, _, err := run(t, "history", "--ledger", db, "--sn", "nobody")
	if err != nil || text != "No recorded runs\n" {
		t.Errorf("history --sn nobody = %q, %v", text, err)
	}
}

func TestSchema(t *testing.T) {
	out, _, err := run(t, "schema")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"title": "WATS report"`) {
		t.Errorf("schema output missing title")
	}
}

func TestCodes(t *testing.T) {
	out, _, err := run(t, "codes", "stepgroup")
	if err != nil {
		t.Fatal(err)
	}
	if out != "StepGroup (group): \"S\", \"M\", \"C\"\n" {
		t.Errorf("got %q", out)
	}
	if _, _, err := run(t, "codes", "Colour"); exitCode(err) != exitCodeBadInput {
		t.Errorf("expected bad input for unknown vocabulary, got %v", err)
	}
}

func TestRenumber(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "fixed.json")
	_, stderr, err := run(t, "renumber", "-o", dst, misnumbered)
	if err != nil {
		t.Fatalf("renumber: %v", err)
	}
	if !strings.Contains(stderr, "2 step id(s) changed") {
		t.Errorf("stderr = %q", stderr)
	}
	if _, _, err := run(t, "validate", dst); err != nil {
		t.Errorf("renumbered report does not validate: %v", err)
	}
	if _, _, err := run(t, "validate", misnumbered); exitCode(err) != exitCodeFailOn {
		t.Errorf("original should fail identity checks, got %v", err)
	}
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	out, _, err := run(t, "import", "--out-dir", dir, csv305)
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	for _, name := range []string{"SN1-2.json", "SN2-3.json"} {
		path := filepath.Join(dir, name)
		if _, _, err := run(t, "validate", path); err != nil {
			t.Errorf("%s does not validate: %v", name, err)
		}
	}
	if !strings.Contains(out, "line 3: SN2 VALID") {
		t.Errorf("import output:\n%s", out)
	}
}

func TestImport_DryRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "never")
	if _, _, err := run(t, "import", "--dry-run", "--out-dir", dir, csv305); err != nil {
		t.Fatalf("import: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("dry run created %s", dir)
	}
}

// mockProvider answers from a fixed list.
type mockProvider struct {
	answers []string
	err     error
	calls   int
}

func (m *mockProvider) Complete(context.Context, llm.Request) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.calls >= len(m.answers) {
		return "", fmt.Errorf("mock: no more answers")
	}
	m.calls++
	return m.answers[m.calls-1], nil
}

func injectProvider(t *testing.T, p llm.Provider) {
	t.Helper()
	orig := llm.NewProvider
	llm.NewProvider = func(_, _ string) (llm.Provider, error) { return p, nil }
	t.Cleanup(func() { llm.NewProvider = orig })
}

func TestRepair(t *testing.T) {
	good, err := os.ReadFile(validReport)
	if err != nil {
		t.Fatal(err)
	}
	injectProvider(t, &mockProvider{answers: []string{"```json\n" + string(good) + "\n```"}})

	out, stderr, err := run(t, "repair", invalidReport)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if _, vs, err := report.Parse([]byte(out)); err != nil || len(vs) != 0 {
		t.Errorf("repaired output does not validate: %v %v", err, vs)
	}
	if !strings.Contains(stderr, "fixed 2 violation(s) in 1 attempt(s)") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRepair_ExitCodes(t *testing.T) {
	injectProvider(t, &mockProvider{answers: []string{"not json", "still not json"}})
	if _, _, err := run(t, "repair", invalidReport); exitCode(err) != exitCodeBadOutput {
		t.Errorf("expected exit %d, got %v", exitCodeBadOutput, err)
	}

	injectProvider(t, &mockProvider{err: errors.New("simulated API error")})
	if _, _, err := run(t, "repair", invalidReport); exitCode(err) != exitCodeAPIError {
		t.Errorf("expected exit %d, got %v", exitCodeAPIError, err)
	}
}

func TestRepair_AlreadyValid(t *testing.T) {
	injectProvider(t, &mockProvider{err: errors.New("must not be called")})
	out, stderr, err := run(t, "repair", validReport)
	if err != nil || out != "" || !strings.Contains(stderr, "already valid") {
		t.Errorf("out %q stderr %q err %v", out, stderr, err)
	}
}
