package verdict

import (
	"testing"

	"github.com/dshills/watscheck/internal/violation"
)

func TestComputeScore(t *testing.T) {
	cases := []struct {
		counts map[violation.Kind]int
		want   int
	}{
		{nil, 100},
		{map[violation.Kind]int{violation.Structural: 1}, 80},
		{map[violation.Kind]int{violation.Consistency: 1}, 85},
		{map[violation.Kind]int{violation.Range: 1}, 98},
		{map[violation.Kind]int{violation.Structural: 5}, 0},
		{map[violation.Kind]int{violation.Identity: 1, violation.Uniqueness: 1, violation.Range: 1}, 83},
		{map[violation.Kind]int{violation.Range: 51}, 0},
	}
	for _, c := range cases {
		if got := ComputeScore(c.counts); got != c.want {
			t.Errorf("ComputeScore(%v) = %d, want %d", c.counts, got, c.want)
		}
	}
}

func TestVerdictOrdinal(t *testing.T) {
	ordered := []Verdict{VerdictValid, VerdictNonconforming, VerdictInconsistent, VerdictMalformed}
	for i := 1; i < len(ordered); i++ {
		if VerdictOrdinal(ordered[i-1]) >= VerdictOrdinal(ordered[i]) {
			t.Errorf("%s should rank below %s", ordered[i-1], ordered[i])
		}
	}
	if VerdictOrdinal("BOGUS") != -1 {
		t.Error("unknown verdict should have ordinal -1")
	}
}

func list(kinds ...violation.Kind) violation.List {
	var l violation.List
	for _, k := range kinds {
		l.Add(k, violation.Path{"x"}, "m")
	}
	return l
}

func TestDetermineVerdict(t *testing.T) {
	cases := []struct {
		name string
		vs   violation.List
		want Verdict
	}{
		{"none", nil, VerdictValid},
		{"range", list(violation.Range), VerdictNonconforming},
		{"uniqueness", list(violation.Uniqueness, violation.Range), VerdictNonconforming},
		{"identity", list(violation.Range, violation.Identity), VerdictInconsistent},
		{"consistency", list(violation.Consistency), VerdictInconsistent},
		{"structural wins", list(violation.Consistency, violation.Structural), VerdictMalformed},
	}
	for _, c := range cases {
		if got := DetermineVerdict(c.vs); got != c.want {
			t.Errorf("%s: got %s, want %s", c.name, got, c.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(list(violation.Range, violation.Range, violation.Consistency))
	if s.Verdict != VerdictInconsistent || s.Total != 3 || s.Score != 81 || s.Counts[violation.Range] != 2 {
		t.Errorf("got %+v", s)
	}
}

func TestFails(t *testing.T) {
	cases := []struct {
		actual, threshold Verdict
		want              bool
	}{
		{VerdictValid, VerdictNonconforming, false},
		{VerdictNonconforming, VerdictNonconforming, true},
		{VerdictNonconforming, VerdictInconsistent, false},
		{VerdictMalformed, VerdictInconsistent, true},
		{VerdictMalformed, VerdictValid, false},
	}
	for _, c := range cases {
		if got := Fails(c.actual, c.threshold); got != c.want {
			t.Errorf("Fails(%s, %s) = %v, want %v", c.actual, c.threshold, got, c.want)
		}
	}
}

func TestParseVerdict(t *testing.T) {
	v, err := ParseVerdict("inconsistent")
	if err != nil || v != VerdictInconsistent {
		t.Errorf("got %v, %v", v, err)
	}
	if _, err := ParseVerdict("aligned"); err == nil {
		t.Error("expected error")
	}
}
