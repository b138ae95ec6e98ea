// Package llm asks a language model to repair a report that failed
// validation. The answer is re-validated locally and the model gets one more
// attempt with the remaining violations before the repair is abandoned.
package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/dshills/watscheck/internal/logger"
	"github.com/dshills/watscheck/internal/profile"
	"github.com/dshills/watscheck/internal/render"
	"github.com/dshills/watscheck/internal/report"
	"github.com/dshills/watscheck/internal/schema"
	"github.com/dshills/watscheck/internal/violation"
)

// ErrInvalidModelOutput is returned when both the first answer and the retry
// still fail validation. The CLI exits with code 5.
var ErrInvalidModelOutput = errors.New("llm: invalid model output after repair attempt")

// Request is one completion call.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Provider is the interface for LLM backends.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// NewProvider is the factory for creating LLM providers. Tests replace it and
// restore the original with t.Cleanup.
var NewProvider func(providerName, model string) (Provider, error) = defaultNewProvider

// Options configures a Repair call.
type Options struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
	Log         *logger.Logger
}

// ValidationError records one reason a model answer was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// Result is a repaired report.
type Result struct {
	Raw      []byte
	Report   *schema.Report
	Attempts int
}

// Repair sends raw and its violations to the model and returns the first
// answer that validates cleanly under prof.
func Repair(ctx context.Context, raw []byte, vs violation.List, prof profile.Profile, opts Options) (*Result, error) {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	provider, err := NewProvider(opts.Provider, opts.Model)
	if err != nil {
		return nil, fmt.Errorf("llm: create provider: %w", err)
	}

	sysPrompt, err := buildSystemPrompt(prof)
	if err != nil {
		return nil, err
	}
	userPrompt := buildUserPrompt(raw, vs)
	log.Debug("repair prompt", "system", sysPrompt, "user", userPrompt)

	req := Request{System: sysPrompt, User: userPrompt, MaxTokens: opts.MaxTokens, Temperature: opts.Temperature}
	answer, err := provider.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("llm: complete: %w", err)
	}
	res, errs := ValidateResponse(answer, prof)
	if len(errs) == 0 {
		res.Attempts = 1
		return res, nil
	}
	log.Info("model answer rejected, retrying", "errors", len(errs))

	req.User = buildRepairPrompt(userPrompt, answer, errs)
	answer, err = provider.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("llm: repair complete: %w", err)
	}
	res, errs = ValidateResponse(answer, prof)
	if len(errs) == 0 {
		res.Attempts = 2
		return res, nil
	}
	log.Warn("model answer rejected twice", "errors", len(errs))
	return nil, ErrInvalidModelOutput
}

// fenceRe matches a markdown code fence block (``` or ~~~) with an optional
// language tag and captures its content.
var fenceRe = regexp.MustCompile("(?s)^(?:`{3}|~{3})[^\\n]*\\n(.*?)(?:`{3}|~{3})\\s*$")

// openFenceRe matches an opening fence line whose closing fence was truncated.
var openFenceRe = regexp.MustCompile("^(?:`{3}|~{3})[^\\n]*\\n")

// stripMarkdownFences removes the code fences models like to wrap JSON in.
func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	if loc := openFenceRe.FindStringIndex(s); loc != nil {
		return strings.TrimSpace(s[loc[1]:])
	}
	return s
}

// invalidJSONEscapeRe matches a backslash followed by a character that is not
// a JSON escape. Serial numbers and file paths in comments pick these up.
var invalidJSONEscapeRe = regexp.MustCompile(`\\([^"\\/bfnrtu])`)

func fixInvalidJSONEscapes(s string) string {
	return invalidJSONEscapeRe.ReplaceAllString(s, `\\$1`)
}

// ValidateResponse parses a model answer as a report. A nil error slice means
// the answer is a clean report and res is set.
func ValidateResponse(answer string, prof profile.Profile) (*Result, []ValidationError) {
	body := []byte(stripMarkdownFences(answer))

	rep, vs, err := report.Parse(body, report.WithProfile(prof))
	if errors.Is(err, report.ErrMalformed) {
		fixed := []byte(fixInvalidJSONEscapes(string(body)))
		rep, vs, err = report.Parse(fixed, report.WithProfile(prof))
		if err == nil {
			body = fixed
		}
	}
	if err != nil {
		return nil, []ValidationError{{Field: "json_parse", Message: err.Error()}}
	}
	if len(vs) > 0 {
		errs := make([]ValidationError, 0, len(vs))
		for _, v := range vs {
			field := v.Path.String()
			if field == "" {
				field = "document"
			}
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("%s: %s", v.Kind, v.Message)})
		}
		return nil, errs
	}
	return &Result{Raw: pretty.Pretty(body), Report: rep}, nil
}

func buildSystemPrompt(prof profile.Profile) (string, error) {
	js, err := schema.JSONSchema()
	if err != nil {
		return "", fmt.Errorf("llm: schema: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("You repair WATS test reports so that they pass validation.\n\n")
	sb.WriteString("Output ONLY the corrected report as JSON. " +
		"No prose, no markdown, no explanation outside the JSON.\n\n")
	sb.WriteString("Change as little as possible. Keep every measured value, limit and timestamp " +
		"unless a rule forces a change. Never invent measurements. When a status disagrees with " +
		"its limits, correct the status, not the value.\n\n")
	sb.WriteString("Step ids are numbered in document order starting at 0 for the root step.\n\n")
	if prof.SystemPromptAddendum != "" {
		sb.WriteString(prof.SystemPromptAddendum)
		sb.WriteString("\n\n")
	}
	sb.WriteString("The report must conform to this JSON schema:\n")
	sb.Write(js)
	return sb.String(), nil
}

func buildUserPrompt(raw []byte, vs violation.List) string {
	var sb strings.Builder
	sb.WriteString("REPORT:\n")
	if gjson.ValidBytes(raw) {
		sb.Write(pretty.Pretty(raw))
	} else {
		sb.Write(raw)
		sb.WriteString("\n(the report above is not valid JSON)\n")
	}
	fmt.Fprintf(&sb, "\nVIOLATIONS (%d):\n", len(vs))
	for i, v := range vs {
		fmt.Fprintf(&sb, "%d. %s at %s\n", i+1, v.Kind, v.Path)
		sb.WriteString(render.Message(v, raw))
	}
	sb.WriteString("\nProduce the corrected report now.")
	return sb.String()
}

// buildRepairPrompt repeats the original request with the rejected answer and
// the reasons it was rejected.
func buildRepairPrompt(originalUserPrompt, previousResponse string, errs []ValidationError) string {
	var sb strings.Builder
	sb.WriteString(originalUserPrompt)
	sb.WriteString("\n\nYour previous response was:\n")
	sb.WriteString(previousResponse)
	sb.WriteString("\n\nThat response was invalid. Errors:\n")
	for _, e := range errs {
		fmt.Fprintf(&sb, "  - %s\n", e.Error())
	}
	sb.WriteString("\nPlease output only the corrected JSON report. Do not repeat the errors.")
	return sb.String()
}

// Default models per provider, used when no model is configured.
const (
	DefaultAnthropicModel = "claude-sonnet-4-5"
	DefaultOpenAIModel    = "gpt-4o"
	DefaultGoogleModel    = "gemini-1.5-pro"
)

func defaultNewProvider(providerName, model string) (Provider, error) {
	switch strings.ToLower(providerName) {
	case "anthropic", "":
		return newAnthropicProvider(orDefault(model, DefaultAnthropicModel))
	case "openai":
		return newOpenAIProvider(orDefault(model, DefaultOpenAIModel))
	case "google":
		return newGoogleProvider(orDefault(model, DefaultGoogleModel))
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", providerName)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
