// Package render maps violations back onto the source document and produces
// text, annotated, JSON and Markdown output.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dshills/watscheck/internal/verdict"
	"github.com/dshills/watscheck/internal/violation"
)

// Tool and Version identify the producer in JSON output.
const (
	Tool    = "watscheck"
	Version = "0.3.0"
)

// Result is the assembled outcome of validating one document.
type Result struct {
	Tool     string          `json:"tool"`
	Version  string          `json:"version"`
	Input    Input           `json:"input"`
	Summary  verdict.Summary `json:"summary"`
	Findings []Finding       `json:"findings"`
}

// Input records what was validated.
type Input struct {
	File    string `json:"file"`
	Profile string `json:"profile"`
}

// Finding is one violation with its display context.
type Finding struct {
	Kind    violation.Kind `json:"kind"`
	Path    string         `json:"path"`
	Line    int            `json:"line"`
	Step    *StepRef       `json:"step,omitempty"`
	Value   string         `json:"value"`
	Message string         `json:"message"`
}

// Assemble builds a Result for raw and its violations. raw must be valid JSON.
func Assemble(file, profileName string, raw []byte, vs violation.List) (*Result, error) {
	src, err := NewSource(raw)
	if err != nil {
		return nil, err
	}
	doc := gjson.ParseBytes(raw)
	res := &Result{
		Tool:     Tool,
		Version:  Version,
		Input:    Input{File: file, Profile: profileName},
		Summary:  verdict.Summarize(vs),
		Findings: make([]Finding, 0, len(vs)),
	}
	for _, v := range vs {
		res.Findings = append(res.Findings, Finding{
			Kind:    v.Kind,
			Path:    v.Path.String(),
			Line:    src.Locate(v.Path),
			Step:    EnclosingStep(v.Path, doc),
			Value:   CurrentValue(v.Path, doc),
			Message: v.Message,
		})
	}
	return res, nil
}

// Malformed builds the Result for a document that could not be read as
// JSON at all. The cause becomes a single structural finding at the root.
func Malformed(file, profileName string, cause error) *Result {
	vs := violation.List{violation.New(violation.Structural, nil, "%v", cause)}
	return &Result{
		Tool:    Tool,
		Version: Version,
		Input:   Input{File: file, Profile: profileName},
		Summary: verdict.Summarize(vs),
		Findings: []Finding{{
			Kind:    violation.Structural,
			Path:    "",
			Value:   "<unreadable>",
			Message: vs[0].Message,
		}},
	}
}

// RenderJSON produces a pretty-printed JSON representation of the result.
func RenderJSON(res *Result) ([]byte, error) {
	if res == nil {
		return nil, fmt.Errorf("render: nil result")
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: json marshal: %w", err)
	}
	return b, nil
}

const separator = "----------------------------------------------------------------------------------------------------"

// SummaryLine is the one-line verdict shown above text and annotated output.
func SummaryLine(res *Result) string {
	return fmt.Sprintf("%s: %s (score %d, %d violation%s)", res.Input.File, res.Summary.Verdict,
		res.Summary.Score, res.Summary.Total, plural(res.Summary.Total))
}

// RenderText produces the terminal listing: a summary line followed by one
// block per finding.
func RenderText(res *Result) string {
	if res == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(SummaryLine(res) + "\n")
	for _, f := range res.Findings {
		sb.WriteString(separator + "\n")
		fmt.Fprintf(&sb, "[%s] %s (line %d)\n", f.Kind, f.Path, f.Line)
		name := lastSegment(f.Path)
		if f.Step != nil {
			fmt.Fprintf(&sb, "Step ID: %s, Name: %q\n", f.Step.ID, f.Step.Name)
		} else {
			fmt.Fprintf(&sb, "Field Name: %s\n", name)
		}
		fmt.Fprintf(&sb, "    -> %q: %s\n", name, f.Value)
		fmt.Fprintf(&sb, "    -> %s\n", f.Message)
	}
	if len(res.Findings) > 0 {
		sb.WriteString(separator + "\n")
	}
	return sb.String()
}

// RenderMarkdown produces a GitHub-flavoured Markdown summary of the result.
// Every finding appears in the output.
func RenderMarkdown(res *Result) string {
	if res == nil {
		return ""
	}
	var sb strings.Builder

	sb.WriteString("## WATS Report Check\n\n")
	fmt.Fprintf(&sb, "**File:** `%s`  \n", res.Input.File)
	fmt.Fprintf(&sb, "**Verdict:** %s  \n", res.Summary.Verdict)
	fmt.Fprintf(&sb, "**Score:** %d/100  \n", res.Summary.Score)
	parts := make([]string, 0, len(violation.Kinds))
	for _, k := range violation.Kinds {
		parts = append(parts, fmt.Sprintf("**%s:** %d", titleCase(string(k)), res.Summary.Counts[k]))
	}
	sb.WriteString(strings.Join(parts, " | ") + "\n\n")

	if len(res.Findings) > 0 {
		sb.WriteString("## Findings\n\n")
		sb.WriteString("| Line | Kind | Path | Step | Message |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, f := range res.Findings {
			step := ""
			if f.Step != nil {
				step = fmt.Sprintf("%s %s", f.Step.ID, f.Step.Name)
			}
			fmt.Fprintf(&sb, "| %d | %s | `%s` | %s | %s |\n", f.Line, f.Kind, f.Path, mdEscape(step), mdEscape(f.Message))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func lastSegment(path string) string {
	if i := strings.LastIndexAny(path, ".["); i >= 0 {
		return strings.TrimSuffix(path[i+1:], "]")
	}
	return path
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return s[:1] + strings.ToLower(s[1:])
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// mdEscape replaces characters that would break Markdown table cells.
func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}
