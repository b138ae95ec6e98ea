// Package violation models addressable validation failures.
package violation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies a violation.
type Kind string

const (
	Structural  Kind = "STRUCTURAL"
	Range       Kind = "RANGE"
	Consistency Kind = "CONSISTENCY"
	Uniqueness  Kind = "UNIQUENESS"
	Identity    Kind = "IDENTITY"
)

// Kinds lists every kind in severity order.
var Kinds = []Kind{Structural, Consistency, Identity, Uniqueness, Range}

// ParseKind accepts a kind name in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("violation: unknown kind %q", s)
}

// Path addresses a value in a report document. Elements are object keys
// (string) or array indices (int).
type Path []any

// Key returns a copy of p extended with an object key.
func (p Path) Key(k string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, k)
}

// Index returns a copy of p extended with an array index.
func (p Path) Index(i int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, i)
}

// String renders p as root.steps[3].numericMeas[0].status.
func (p Path) String() string {
	var b strings.Builder
	for _, e := range p {
		switch v := e.(type) {
		case int:
			fmt.Fprintf(&b, "[%d]", v)
		default:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			fmt.Fprint(&b, v)
		}
	}
	return b.String()
}

// GJSON renders p in gjson path syntax (root.steps.3.status).
func (p Path) GJSON() string {
	parts := make([]string, len(p))
	for i, e := range p {
		switch v := e.(type) {
		case int:
			parts[i] = strconv.Itoa(v)
		default:
			parts[i] = gjsonEscape(fmt.Sprint(v))
		}
	}
	return strings.Join(parts, ".")
}

func gjsonEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Field returns the last key of p, or "" if p ends in an index or is empty.
func (p Path) Field() string {
	for i := len(p) - 1; i >= 0; i-- {
		if s, ok := p[i].(string); ok {
			return s
		}
	}
	return ""
}

// Parent returns p without its last element.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

// Equal reports whether p and q address the same value.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// UnmarshalJSON restores integer indices that encoding/json decodes as float64.
func (p *Path) UnmarshalJSON(b []byte) error {
	var raw []any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Path, len(raw))
	for i, e := range raw {
		switch v := e.(type) {
		case float64:
			out[i] = int(v)
		case string:
			out[i] = v
		default:
			return fmt.Errorf("violation: path element %v has type %T", e, e)
		}
	}
	*p = out
	return nil
}

// Violation is one validation failure at one location.
type Violation struct {
	Kind    Kind   `json:"kind"`
	Path    Path   `json:"path"`
	Message string `json:"message"`
}

func (v Violation) Error() string {
	if len(v.Path) == 0 {
		return fmt.Sprintf("%s: %s", v.Kind, v.Message)
	}
	return fmt.Sprintf("%s: %s: %s", v.Kind, v.Path, v.Message)
}

// New builds a violation with a formatted message.
func New(kind Kind, at Path, format string, args ...any) Violation {
	return Violation{Kind: kind, Path: at, Message: fmt.Sprintf(format, args...)}
}

// List collects every violation found in one pass.
type List []Violation

// Add appends a violation built by New.
func (l *List) Add(kind Kind, at Path, format string, args ...any) {
	*l = append(*l, New(kind, at, format, args...))
}

// Merge appends all of other.
func (l *List) Merge(other List) {
	*l = append(*l, other...)
}

// Of returns the violations of the given kind.
func (l List) Of(kind Kind) List {
	var out List
	for _, v := range l {
		if v.Kind == kind {
			out = append(out, v)
		}
	}
	return out
}

// At returns the violations whose path equals p.
func (l List) At(p Path) List {
	var out List
	for _, v := range l {
		if v.Path.Equal(p) {
			out = append(out, v)
		}
	}
	return out
}

// Counts tallies violations per kind.
func (l List) Counts() map[Kind]int {
	m := make(map[Kind]int, len(Kinds))
	for _, v := range l {
		m[v.Kind]++
	}
	return m
}

func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no violations"
	case 1:
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", l[0].Error(), len(l)-1)
}

// Err returns l as an error, or nil when it is empty.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}
