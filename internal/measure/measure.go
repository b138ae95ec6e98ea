// Package measure validates boolean, string and numeric measurements and
// checks their declared status against the value/limit evaluation.
package measure

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/dshills/watscheck/internal/rule"
	"github.com/dshills/watscheck/internal/schema"
	"github.com/dshills/watscheck/internal/violation"
)

var (
	booleanFields = rule.Set{
		rule.String("name").MaxLength(100),
		rule.Enum("status", schema.MeasureStatusCodes()).Required(),
	}
	stringFields = rule.Set{
		rule.Enum("compOp", schema.StringCompOpCodes()).Required(),
		rule.String("name").Length(1, 100),
		rule.Enum("status", schema.MeasureStatusCodes()).Required(),
		rule.String("value").Required().MaxLength(100),
		rule.String("limit").MaxLength(100),
	}
	numericFields = rule.Set{
		rule.Enum("compOp", schema.NumericCompOpCodes()).Required(),
		rule.String("name").Length(1, 100),
		rule.Enum("status", schema.MeasureStatusCodes()).Required(),
		rule.String("unit").Required().Length(1, 20),
		rule.Decimal("value").Required(),
		rule.Decimal("lowLimit"),
		rule.Decimal("highLimit"),
	}
)

// Entry is what list-level checks need to know about one measurement.
type Entry struct {
	Name     string
	HasName  bool
	Status   schema.MeasureStatus
	StatusOK bool
}

// Validate checks one measurement record of the given kind.
func Validate(kind schema.PayloadKind, node gjson.Result, at violation.Path) (Entry, violation.List) {
	var out violation.List
	if !node.IsObject() {
		out.Add(violation.Structural, at, "expected a measurement object, got %s", rule.TypeName(node))
		return Entry{}, out
	}

	var fields rule.Set
	switch kind {
	case schema.PayloadBoolean:
		fields = booleanFields
	case schema.PayloadString:
		fields = stringFields
	case schema.PayloadNumeric:
		fields = numericFields
	default:
		out.Add(violation.Structural, at, "unknown measurement kind %q", kind)
		return Entry{}, out
	}
	out.Merge(fields.Check(node, at))

	e := Entry{}
	if name := node.Get("name"); name.Type == gjson.String && name.Str != "" {
		e.Name, e.HasName = name.Str, true
	}
	if fields.Valid(node, "status") {
		e.Status, e.StatusOK = schema.MeasureStatus(node.Get("status").Str), true
	}

	switch kind {
	case schema.PayloadString:
		out.Merge(checkString(node, at, e))
	case schema.PayloadNumeric:
		out.Merge(checkNumeric(node, at, e))
	}
	return e, out
}

func checkString(node gjson.Result, at violation.Path, e Entry) violation.List {
	var out violation.List
	if !e.StatusOK || !stringFields.Valid(node, "compOp") {
		return out
	}
	op := schema.StringCompOp(node.Get("compOp").Str)
	if e.Status == schema.MeasureSkipped || op.IsLog() {
		return out
	}
	if rule.Absent(node.Get("limit")) {
		out.Add(violation.Structural, at.Key("limit"), "operator %s compares against a limit; limit is required", op)
		return out
	}
	if !stringFields.Valid(node, "value") || !stringFields.Valid(node, "limit") {
		return out
	}
	pass := EvaluateString(op, node.Get("value").Str, node.Get("limit").Str)
	if StatusFor(pass) != e.Status {
		out.Add(violation.Consistency, at.Key("status"),
			"status %s does not match evaluation of value %q %s limit %q (expected %s)",
			e.Status, node.Get("value").Str, op, node.Get("limit").Str, StatusFor(pass))
	}
	return out
}

func checkNumeric(node gjson.Result, at violation.Path, e Entry) violation.List {
	var out violation.List
	if !e.StatusOK || !numericFields.Valid(node, "compOp") {
		return out
	}
	op := schema.NumericCompOp(node.Get("compOp").Str)
	if e.Status == schema.MeasureSkipped || op.IsLog() {
		return out
	}

	low, high := node.Get("lowLimit"), node.Get("highLimit")
	if op.IsSingleLimit() {
		if rule.Absent(low) {
			out.Add(violation.Structural, at.Key("lowLimit"), "%s is a single-limit operator; lowLimit is required", op)
		}
		if !rule.Absent(high) {
			out.Add(violation.Structural, at.Key("highLimit"), "%s is a single-limit operator; highLimit is not supported", op)
		}
	} else {
		if rule.Absent(low) {
			out.Add(violation.Structural, at.Key("lowLimit"), "%s is a dual-limit operator; lowLimit and highLimit are both required", op)
		}
		if rule.Absent(high) {
			out.Add(violation.Structural, at.Key("highLimit"), "%s is a dual-limit operator; lowLimit and highLimit are both required", op)
		}
	}
	if len(out) > 0 {
		return out
	}

	value, okV := rule.Number(node.Get("value"))
	lowD, okL := rule.Number(low)
	highD := decimal.Zero
	okH := true
	if op.IsDualLimit() {
		highD, okH = rule.Number(high)
	}
	if !okV || !okL || !okH {
		return out
	}

	pass := EvaluateNumeric(op, value, lowD, highD)
	if StatusFor(pass) == e.Status {
		return out
	}
	var expr string
	if op.IsDualLimit() {
		lo, hi := dualSymbols(op)
		expr = fmt.Sprintf("%s %s %s %s %s", lowD, lo, value, hi, highD)
	} else {
		expr = fmt.Sprintf("%s %s %s", value, singleSymbols[op], lowD)
	}
	msg := fmt.Sprintf("status %s does not match evaluation of %s (expected %s)", e.Status, expr, StatusFor(pass))
	fields := []string{"status", "value", "lowLimit"}
	if op.IsDualLimit() {
		fields = append(fields, "highLimit")
	}
	for _, f := range fields {
		out = append(out, violation.Violation{Kind: violation.Consistency, Path: at.Key(f), Message: msg})
	}
	return out
}

var singleSymbols = map[schema.NumericCompOp]string{
	schema.NumericEQ: "==", schema.NumericEqual: "==", schema.NumericNE: "!=",
	schema.NumericLT: "<", schema.NumericLE: "<=", schema.NumericGT: ">", schema.NumericGE: ">=",
}

var pairSymbols = map[string]string{"LT": "<", "LE": "<=", "GT": ">", "GE": ">="}

// dualSymbols splits GELE into the relations "<=" and "<=" read left to right
// in "low ? value ? high".
func dualSymbols(op schema.NumericCompOp) (string, string) {
	first, second := string(op)[:2], string(op)[2:]
	flip := map[string]string{"LT": ">", "LE": ">=", "GT": "<", "GE": "<="}
	return flip[first], pairSymbols[second]
}

// ValidateList checks a measurement list of a step and the rules that tie
// the measurements to each other and to the step status. at addresses the
// list itself; stepStatus is empty when the step status is missing or invalid.
func ValidateList(kind schema.PayloadKind, list gjson.Result, at violation.Path, stepStatus schema.StepStatus) violation.List {
	var out violation.List
	items := list.Array()
	entries := make([]Entry, len(items))
	for i, item := range items {
		e, vs := Validate(kind, item, at.Index(i))
		entries[i] = e
		out.Merge(vs)
	}

	if len(entries) > 1 {
		out.Merge(checkNames(entries, at))
	}
	out.Merge(checkStepStatus(entries, at, stepStatus))
	return out
}

func checkNames(entries []Entry, at violation.Path) violation.List {
	var out violation.List
	seen := make(map[string][]int)
	for i, e := range entries {
		if !e.HasName {
			out.Add(violation.Structural, at.Index(i).Key("name"),
				"name is required when a step has more than one measurement (index %d)", i)
			continue
		}
		seen[e.Name] = append(seen[e.Name], i)
	}
	names := make([]string, 0, len(seen))
	for name, idx := range seen {
		if len(idx) > 1 {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(a, b int) bool { return seen[names[a]][0] < seen[names[b]][0] })
	for _, name := range names {
		idx := seen[name]
		for _, i := range idx {
			out.Add(violation.Uniqueness, at.Index(i).Key("name"),
				"measurement name %q is used more than once (indices %s)", name, joinInts(idx))
		}
	}
	return out
}

func checkStepStatus(entries []Entry, at violation.Path, stepStatus schema.StepStatus) violation.List {
	var out violation.List
	if stepStatus != schema.StepPassed && stepStatus != schema.StepFailed {
		return out
	}
	if len(entries) == 1 {
		e := entries[0]
		if e.StatusOK && e.Status != schema.MeasureSkipped && string(e.Status) != string(stepStatus) {
			out.Add(violation.Consistency, at.Index(0).Key("status"),
				"measurement status %s does not match step status %s", e.Status, stepStatus)
		}
		return out
	}

	failed := 0
	for _, e := range entries {
		if e.StatusOK && e.Status == schema.MeasureFailed {
			failed++
		}
	}
	switch stepStatus {
	case schema.StepFailed:
		if failed == 0 && allStatusesKnown(entries) {
			out.Add(violation.Consistency, at.Parent().Key("status"),
				"step status is F but none of its %d measurements failed", len(entries))
		}
	case schema.StepPassed:
		for i, e := range entries {
			if e.StatusOK && e.Status == schema.MeasureFailed {
				out.Add(violation.Consistency, at.Index(i).Key("status"),
					"measurement failed but step status is P")
			}
		}
	}
	return out
}

func allStatusesKnown(entries []Entry) bool {
	for _, e := range entries {
		if !e.StatusOK {
			return false
		}
	}
	return true
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}
