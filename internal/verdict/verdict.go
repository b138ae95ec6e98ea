// Package verdict provides deterministic scoring and verdict determination
// for a list of violations.
package verdict

import (
	"fmt"
	"strings"

	"github.com/dshills/watscheck/internal/violation"
)

// Verdict is the overall judgement of a report document.
type Verdict string

const (
	VerdictValid         Verdict = "VALID"
	VerdictNonconforming Verdict = "NONCONFORMING"
	VerdictInconsistent  Verdict = "INCONSISTENT"
	VerdictMalformed     Verdict = "MALFORMED"
)

// ComputeScore calculates a quality score from violation counts.
// Start at 100; subtract 20 per STRUCTURAL, 15 per CONSISTENCY, 10 per IDENTITY,
// 5 per UNIQUENESS and 2 per RANGE; clamp to [0, 100].
func ComputeScore(counts map[violation.Kind]int) int {
	score := 100 -
		counts[violation.Structural]*20 -
		counts[violation.Consistency]*15 -
		counts[violation.Identity]*10 -
		counts[violation.Uniqueness]*5 -
		counts[violation.Range]*2
	if score < 0 {
		return 0
	}
	return score
}

// VerdictOrdinal returns the numeric ordinal for a verdict.
// VALID=0, NONCONFORMING=1, INCONSISTENT=2, MALFORMED=3.
// Used by --fail-on: exit 2 if VerdictOrdinal(actual) >= VerdictOrdinal(threshold).
func VerdictOrdinal(v Verdict) int {
	switch v {
	case VerdictValid:
		return 0
	case VerdictNonconforming:
		return 1
	case VerdictInconsistent:
		return 2
	case VerdictMalformed:
		return 3
	default:
		return -1
	}
}

// ParseVerdict accepts a verdict name in any case.
func ParseVerdict(s string) (Verdict, error) {
	v := Verdict(strings.ToUpper(strings.TrimSpace(s)))
	if VerdictOrdinal(v) < 0 {
		return "", fmt.Errorf("verdict: unknown verdict %q (valid: VALID, NONCONFORMING, INCONSISTENT, MALFORMED)", s)
	}
	return v, nil
}

// DetermineVerdict applies the verdict rules to a violation list.
//
// Rules (in order of precedence):
//  1. Any STRUCTURAL violation → MALFORMED
//  2. Any CONSISTENCY or IDENTITY violation → INCONSISTENT
//  3. Any other violation → NONCONFORMING
//  4. Otherwise → VALID
func DetermineVerdict(vs violation.List) Verdict {
	counts := vs.Counts()
	switch {
	case counts[violation.Structural] > 0:
		return VerdictMalformed
	case counts[violation.Consistency] > 0 || counts[violation.Identity] > 0:
		return VerdictInconsistent
	case len(vs) > 0:
		return VerdictNonconforming
	}
	return VerdictValid
}

// Summary holds the computed verdict and violation counts.
type Summary struct {
	Verdict Verdict                `json:"verdict"`
	Score   int                    `json:"score"`
	Total   int                    `json:"total"`
	Counts  map[violation.Kind]int `json:"counts"`
}

// Summarize computes the summary of vs.
func Summarize(vs violation.List) Summary {
	counts := vs.Counts()
	return Summary{
		Verdict: DetermineVerdict(vs),
		Score:   ComputeScore(counts),
		Total:   len(vs),
		Counts:  counts,
	}
}

// Fails reports whether a verdict meets or exceeds the fail threshold.
func Fails(actual, threshold Verdict) bool {
	if threshold == VerdictValid {
		return false
	}
	return VerdictOrdinal(actual) >= VerdictOrdinal(threshold)
}
