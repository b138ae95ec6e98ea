// Package rule evaluates declarative field constraints against raw JSON objects.
//
// A Set lists the fields of one object. Check walks every field and returns all
// violations rather than stopping at the first. Null counts as absent.
package rule

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/dshills/watscheck/internal/violation"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInteger
	kindDecimal
	kindBool
	kindEnum
	kindObject
	kindArray
)

var integerLiteral = regexp.MustCompile(`^-?\d+$`)

// Int32 bounds used by several WATS fields.
const (
	MinInt32 = -2147483648
	MaxInt32 = 2147483647
)

// Field describes the constraints on one object member.
type Field struct {
	Name string

	kind     valueKind
	required bool
	minLen   int
	maxLen   int
	min, max *decimal.Decimal
	minExcl  bool
	maxExcl  bool
	pattern  *regexp.Regexp
	codes    []string
}

func newField(name string, k valueKind) *Field {
	return &Field{Name: name, kind: k, maxLen: -1}
}

func String(name string) *Field  { return newField(name, kindString) }
func Integer(name string) *Field { return newField(name, kindInteger) }
func Decimal(name string) *Field { return newField(name, kindDecimal) }
func Bool(name string) *Field    { return newField(name, kindBool) }
func Object(name string) *Field  { return newField(name, kindObject) }
func Array(name string) *Field   { return newField(name, kindArray) }

// Enum accepts only the given codes.
func Enum(name string, codes []string) *Field {
	f := newField(name, kindEnum)
	f.codes = codes
	return f
}

func (f *Field) Required() *Field { f.required = true; return f }

// Length bounds the rune count of a string or the element count of an array.
// A negative max means unbounded.
func (f *Field) Length(min, max int) *Field {
	f.minLen, f.maxLen = min, max
	return f
}

// MaxLength is Length(0, max).
func (f *Field) MaxLength(max int) *Field { return f.Length(0, max) }

// Between bounds a number inclusively.
func (f *Field) Between(min, max int64) *Field {
	lo, hi := decimal.NewFromInt(min), decimal.NewFromInt(max)
	f.min, f.max = &lo, &hi
	return f
}

// Min sets an inclusive lower bound.
func (f *Field) Min(v int64) *Field {
	d := decimal.NewFromInt(v)
	f.min, f.minExcl = &d, false
	return f
}

// Above sets an exclusive lower bound.
func (f *Field) Above(v int64) *Field {
	d := decimal.NewFromInt(v)
	f.min, f.minExcl = &d, true
	return f
}

// Below sets an exclusive upper bound.
func (f *Field) Below(v int64) *Field {
	d := decimal.NewFromInt(v)
	f.max, f.maxExcl = &d, true
	return f
}

// Int32 bounds an integer to the signed 32-bit range.
func (f *Field) Int32() *Field { return f.Between(MinInt32, MaxInt32) }

// Pattern requires a string to match re.
func (f *Field) Pattern(re *regexp.Regexp) *Field { f.pattern = re; return f }

// Check validates the member of obj named f.Name.
// It returns the member and whether it is present and valid.
func (f *Field) Check(obj gjson.Result, at violation.Path) (gjson.Result, bool, violation.List) {
	var out violation.List
	v := obj.Get(f.Name)
	p := at.Key(f.Name)
	if Absent(v) {
		if f.required {
			out.Add(violation.Structural, p, "field required")
		}
		return v, false, out
	}

	switch f.kind {
	case kindString, kindEnum:
		if v.Type != gjson.String {
			out.Add(violation.Structural, p, "expected a string, got %s", TypeName(v))
			return v, false, out
		}
	case kindInteger:
		if v.Type != gjson.Number || !integerLiteral.MatchString(v.Raw) {
			out.Add(violation.Structural, p, "expected an integer, got %s", describe(v))
			return v, false, out
		}
	case kindDecimal:
		if v.Type != gjson.Number {
			out.Add(violation.Structural, p, "expected a number, got %s", TypeName(v))
			return v, false, out
		}
	case kindBool:
		if !v.IsBool() {
			out.Add(violation.Structural, p, "expected a boolean, got %s", TypeName(v))
			return v, false, out
		}
	case kindObject:
		if !v.IsObject() {
			out.Add(violation.Structural, p, "expected an object, got %s", TypeName(v))
			return v, false, out
		}
	case kindArray:
		if !v.IsArray() {
			out.Add(violation.Structural, p, "expected an array, got %s", TypeName(v))
			return v, false, out
		}
	}

	n := len(out)
	switch f.kind {
	case kindString:
		f.checkLength(utf8.RuneCountInString(v.Str), "characters", p, &out)
		if f.pattern != nil && !f.pattern.MatchString(v.Str) {
			out.Add(violation.Range, p, "value %q does not match pattern %s", v.Str, f.pattern)
		}
	case kindEnum:
		if !contains(f.codes, v.Str) {
			out.Add(violation.Range, p, "invalid value %q, expected one of: %s", v.Str, strings.Join(quote(f.codes), ", "))
		}
	case kindInteger, kindDecimal:
		d, err := decimal.NewFromString(v.Raw)
		if err != nil {
			out.Add(violation.Structural, p, "unparseable number %s", v.Raw)
			break
		}
		f.checkRange(d, p, &out)
	case kindArray:
		f.checkLength(len(v.Array()), "items", p, &out)
	}
	return v, len(out) == n, out
}

func (f *Field) checkLength(n int, unit string, p violation.Path, out *violation.List) {
	if n < f.minLen {
		out.Add(violation.Range, p, "must have at least %d %s, got %d", f.minLen, unit, n)
	}
	if f.maxLen >= 0 && n > f.maxLen {
		out.Add(violation.Range, p, "must have at most %d %s, got %d", f.maxLen, unit, n)
	}
}

func (f *Field) checkRange(d decimal.Decimal, p violation.Path, out *violation.List) {
	if f.min != nil {
		if f.minExcl && d.LessThanOrEqual(*f.min) {
			out.Add(violation.Range, p, "must be greater than %s, got %s", f.min, d)
		} else if !f.minExcl && d.LessThan(*f.min) {
			out.Add(violation.Range, p, "must be greater than or equal to %s, got %s", f.min, d)
		}
	}
	if f.max != nil {
		if f.maxExcl && d.GreaterThanOrEqual(*f.max) {
			out.Add(violation.Range, p, "must be less than %s, got %s", f.max, d)
		} else if !f.maxExcl && d.GreaterThan(*f.max) {
			out.Add(violation.Range, p, "must be less than or equal to %s, got %s", f.max, d)
		}
	}
}

// Set is the field list of one object type.
type Set []*Field

// Check validates every field of s against obj. Members whose name matches a
// field only when case is ignored are rejected: encoding/json would bind them
// to that field without them ever being checked.
func (s Set) Check(obj gjson.Result, at violation.Path) violation.List {
	var out violation.List
	for _, f := range s {
		_, _, vs := f.Check(obj, at)
		out.Merge(vs)
	}
	if !obj.IsObject() {
		return out
	}
	obj.ForEach(func(key, _ gjson.Result) bool {
		if s.Lookup(key.Str) != nil {
			return true
		}
		for _, f := range s {
			if strings.EqualFold(f.Name, key.Str) {
				out.Add(violation.Structural, at.Key(key.Str), "unknown key %q, the field is spelled %q", key.Str, f.Name)
				break
			}
		}
		return true
	})
	return out
}

// DuplicateKeys reports every object member, at any depth below v, whose name
// already appeared in the same object. Lookups see the first occurrence while
// decoding keeps the last, so a document with repeated keys can not be trusted.
func DuplicateKeys(v gjson.Result, at violation.Path) violation.List {
	var out violation.List
	switch {
	case v.IsObject():
		seen := make(map[string]bool)
		v.ForEach(func(key, val gjson.Result) bool {
			p := at.Key(key.Str)
			if seen[key.Str] {
				out.Add(violation.Structural, p, "key %q appears more than once", key.Str)
			}
			seen[key.Str] = true
			out.Merge(DuplicateKeys(val, p))
			return true
		})
	case v.IsArray():
		for i, item := range v.Array() {
			out.Merge(DuplicateKeys(item, at.Index(i)))
		}
	}
	return out
}

// Lookup returns the field named name, or nil.
func (s Set) Lookup(name string) *Field {
	for _, f := range s {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Absent reports whether v is missing or null.
func Absent(v gjson.Result) bool {
	return !v.Exists() || v.Type == gjson.Null
}

// Valid reports whether field name of obj is present and passes s.
func (s Set) Valid(obj gjson.Result, name string) bool {
	f := s.Lookup(name)
	if f == nil {
		return false
	}
	_, ok, _ := f.Check(obj, nil)
	return ok
}

// Number parses a JSON number into a decimal.
func Number(v gjson.Result) (decimal.Decimal, bool) {
	if v.Type != gjson.Number {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(v.Raw)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// TypeName names the JSON type of v.
func TypeName(v gjson.Result) string {
	switch {
	case !v.Exists():
		return "nothing"
	case v.Type == gjson.Null:
		return "null"
	case v.Type == gjson.String:
		return "string"
	case v.Type == gjson.Number:
		return "number"
	case v.IsBool():
		return "boolean"
	case v.IsArray():
		return "array"
	case v.IsObject():
		return "object"
	}
	return "unknown"
}

func describe(v gjson.Result) string {
	if v.Type == gjson.Number {
		return fmt.Sprintf("number %s", v.Raw)
	}
	return TypeName(v)
}

func contains(codes []string, s string) bool {
	for _, c := range codes {
		if c == s {
			return true
		}
	}
	return false
}

func quote(codes []string) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = fmt.Sprintf("%q", c)
	}
	return out
}
