package render

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/dshills/watscheck/internal/violation"
)

// prettyOptions re-serializes a document with stable key order and one
// value per line so every path maps to a single source line.
var prettyOptions = &pretty.Options{Width: 0, Prefix: "", Indent: "    ", SortKeys: true}

// Source is a document re-serialized for display.
type Source struct {
	Raw   []byte
	Lines []string
	text  string
}

// NewSource pretty-prints raw with sorted keys. raw must be valid JSON.
func NewSource(raw []byte) (*Source, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("render: source is not valid JSON")
	}
	text := strings.TrimRight(string(pretty.PrettyOptions(raw, prettyOptions)), "\n")
	return &Source{Raw: raw, Lines: strings.Split(text, "\n"), text: text}, nil
}

// Locate returns the 1-based line of the value at p. A path that does not
// exist resolves to its nearest existing ancestor. It returns 0 when nothing
// along the path exists.
func (s *Source) Locate(p violation.Path) int {
	return locate(p, s.text)
}

// Locate finds the line of p in lines of a pretty-printed document.
func Locate(p violation.Path, lines []string) int {
	return locate(p, strings.Join(lines, "\n"))
}

func locate(p violation.Path, text string) int {
	for q := p; ; q = q.Parent() {
		if len(q) == 0 {
			if gjson.Valid(text) {
				return 1
			}
			return 0
		}
		r := gjson.Get(text, q.GJSON())
		if r.Exists() && r.Index > 0 {
			return strings.Count(text[:r.Index], "\n") + 1
		}
	}
}

// Annotate returns the pretty source with line numbers and a marker under
// every line that carries a violation.
func (s *Source) Annotate(vs violation.List) string {
	marks := make(map[int][]violation.Violation)
	for _, v := range vs {
		line := s.Locate(v.Path)
		marks[line] = append(marks[line], v)
	}
	width := len(fmt.Sprint(len(s.Lines)))
	var sb strings.Builder
	for i, line := range s.Lines {
		n := i + 1
		flag := " "
		if len(marks[n]) > 0 {
			flag = ">"
		}
		fmt.Fprintf(&sb, "%s %*d | %s\n", flag, width, n, line)
		for _, v := range marks[n] {
			indent := len(line) - len(strings.TrimLeft(line, " "))
			fmt.Fprintf(&sb, "  %*s | %s^ %s: %s\n", width, "", strings.Repeat(" ", indent), v.Kind, v.Message)
		}
	}
	if orphans := marks[0]; len(orphans) > 0 {
		for _, v := range orphans {
			fmt.Fprintf(&sb, "? %s: %s: %s\n", v.Kind, v.Path, v.Message)
		}
	}
	return sb.String()
}
