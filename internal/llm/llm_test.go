package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/tidwall/sjson"

	"github.com/dshills/watscheck/internal/profile"
	"github.com/dshills/watscheck/internal/report"
)

// mockProvider returns responses in order; the last entry repeats once the
// list is exhausted.
type mockProvider struct {
	responses []string
	err       error
	requests  []Request
}

func (m *mockProvider) Complete(_ context.Context, req Request) (string, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", fmt.Errorf("mockProvider: no responses configured")
	}
	idx := len(m.requests) - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

func installMock(t *testing.T, mp *mockProvider) {
	t.Helper()
	orig := NewProvider
	NewProvider = func(_, _ string) (Provider, error) { return mp, nil }
	t.Cleanup(func() { NewProvider = orig })
}

func validReport(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile("../report/testdata/valid.json")
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

// brokenReport disagrees with its root step status.
func brokenReport(t *testing.T) []byte {
	t.Helper()
	out, err := sjson.SetBytes([]byte(validReport(t)), "result", "P")
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestStripMarkdownFences(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"~~~\n{\"a\":1}\n~~~\n", "{\"a\":1}"},
		{"```json\n{\"a\":1}", "{\"a\":1}"},
		{"```\n```", ""},
	}
	for _, tc := range cases {
		if got := stripMarkdownFences(tc.in); got != tc.want {
			t.Errorf("stripMarkdownFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFixInvalidJSONEscapes(t *testing.T) {
	got := fixInvalidJSONEscapes(`{"sn":"A\7","ok":"x\ny\"z"}`)
	want := `{"sn":"A\\7","ok":"x\ny\"z"}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestValidateResponse_Clean(t *testing.T) {
	res, errs := ValidateResponse("```json\n"+validReport(t)+"\n```", profile.Standard())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if res.Report == nil || res.Report.SN != "SN000123" {
		t.Errorf("report not decoded: %+v", res.Report)
	}
	if len(res.Raw) == 0 {
		t.Error("expected repaired bytes")
	}
}

func TestValidateResponse_InvalidJSON(t *testing.T) {
	res, errs := ValidateResponse("not json", profile.Standard())
	if res != nil {
		t.Error("expected nil result for invalid JSON")
	}
	if len(errs) != 1 || errs[0].Field != "json_parse" {
		t.Errorf("expected one json_parse error, got %v", errs)
	}
}

func TestValidateResponse_RepairsEscapes(t *testing.T) {
	answer := strings.Replace(validReport(t), `"FX-3"`, `"FX\3"`, 1)
	res, errs := ValidateResponse(answer, profile.Standard())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if got := *res.Report.UUT.FixtureID; got != `FX\3` {
		t.Errorf("fixtureId = %q", got)
	}
}

func TestValidateResponse_Violations(t *testing.T) {
	_, errs := ValidateResponse(string(brokenReport(t)), profile.Standard())
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	if errs[0].Field != "result" || !strings.HasPrefix(errs[0].Message, "CONSISTENCY") {
		t.Errorf("unexpected error %v", errs[0])
	}
}

func TestBuildUserPrompt_ListsViolations(t *testing.T) {
	raw := brokenReport(t)
	_, vs, err := report.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	prompt := buildUserPrompt(raw, vs)
	for _, want := range []string{"REPORT:", "VIOLATIONS (1):", "1. CONSISTENCY at result", "Field Name: result"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildSystemPrompt_IncludesProfileAndSchema(t *testing.T) {
	strict, err := profile.Load("strict")
	if err != nil {
		t.Fatal(err)
	}
	sys, err := buildSystemPrompt(strict)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sys, strict.SystemPromptAddendum) {
		t.Error("system prompt missing profile addendum")
	}
	if !strings.Contains(sys, `"WATS report"`) {
		t.Error("system prompt missing JSON schema")
	}
}

func TestRepair_FirstAnswerAccepted(t *testing.T) {
	mp := &mockProvider{responses: []string{validReport(t)}}
	installMock(t, mp)

	res, err := Repair(context.Background(), brokenReport(t), nil, profile.Standard(), Options{MaxTokens: 100})
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if res.Attempts != 1 || len(mp.requests) != 1 {
		t.Errorf("attempts = %d, calls = %d", res.Attempts, len(mp.requests))
	}
	if mp.requests[0].MaxTokens != 100 {
		t.Errorf("max tokens not passed through: %d", mp.requests[0].MaxTokens)
	}
}

func TestRepair_RetryAfterInvalidAnswer(t *testing.T) {
	mp := &mockProvider{responses: []string{string(brokenReport(t)), validReport(t)}}
	installMock(t, mp)

	res, err := Repair(context.Background(), brokenReport(t), nil, profile.Standard(), Options{})
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if res.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", res.Attempts)
	}
	retry := mp.requests[1].User
	if !strings.Contains(retry, "Your previous response was") || !strings.Contains(retry, "validation: result:") {
		t.Errorf("retry prompt does not carry the rejection:\n%s", retry)
	}
}

func TestRepair_BothAnswersInvalid(t *testing.T) {
	mp := &mockProvider{responses: []string{"bad json"}}
	installMock(t, mp)

	_, err := Repair(context.Background(), brokenReport(t), nil, profile.Standard(), Options{})
	if !errors.Is(err, ErrInvalidModelOutput) {
		t.Errorf("expected ErrInvalidModelOutput, got %v", err)
	}
	if len(mp.requests) != 2 {
		t.Errorf("expected 2 calls, got %d", len(mp.requests))
	}
}

func TestRepair_ProviderError(t *testing.T) {
	boom := errors.New("rate limited")
	installMock(t, &mockProvider{err: boom})

	_, err := Repair(context.Background(), brokenReport(t), nil, profile.Standard(), Options{})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped provider error, got %v", err)
	}
}

func TestDefaultNewProvider_Unknown(t *testing.T) {
	if _, err := defaultNewProvider("llama", ""); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestDefaultNewProvider_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := defaultNewProvider("openai", ""); err == nil {
		t.Error("expected error when the API key is missing")
	}
}
