// Package step validates the recursive step tree of a report.
package step

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dshills/watscheck/internal/measure"
	"github.com/dshills/watscheck/internal/profile"
	"github.com/dshills/watscheck/internal/rule"
	"github.com/dshills/watscheck/internal/schema"
	"github.com/dshills/watscheck/internal/violation"
)

// Counter hands out step ids in document order. Use one per validation pass.
type Counter struct {
	next int
}

// Next returns the id the next step in pre-order must carry.
func (c *Counter) Next() int {
	n := c.next
	c.next++
	return n
}

// Seen returns how many steps have been numbered.
func (c *Counter) Seen() int { return c.next }

// ValidateTree validates the tree rooted at node with a fresh counter.
func ValidateTree(node gjson.Result, at violation.Path, prof profile.Profile) violation.List {
	var out violation.List
	if prof.RootSeqCall && node.IsObject() && rule.Absent(node.Get("seqCall")) {
		out.Add(violation.Structural, at.Key("seqCall"), "the root step must be a sequence call")
	}
	out.Merge(Validate(node, at, &Counter{}, prof))
	return out
}

// Validate checks node and its whole subtree, numbering steps through ids.
func Validate(node gjson.Result, at violation.Path, ids *Counter, prof profile.Profile) violation.List {
	var out violation.List
	expected := ids.Next()
	if !node.IsObject() {
		out.Add(violation.Structural, at, "expected a step object, got %s", rule.TypeName(node))
		return out
	}

	out.Merge(stepFields.Check(node, at))

	if prof.StepIDOrder && stepFields.Valid(node, "id") {
		if got := node.Get("id").Int(); got != int64(expected) {
			out.Add(violation.Identity, at.Key("id"),
				"step id does not match the order of steps: got id=%d, expected %d", got, expected)
		}
	}
	if prof.RecommendedStepTypes && stepFields.Valid(node, "stepType") {
		if st := node.Get("stepType").Str; !schema.IsRecommendedStepType(st) {
			out.Add(violation.Range, at.Key("stepType"), "stepType %q is not a recommended step type", st)
		}
	}

	var status schema.StepStatus
	if stepFields.Valid(node, "status") {
		status = schema.StepStatus(node.Get("status").Str)
	}

	out.Merge(checkPayloads(node, at, status))
	out.Merge(checkObject(node, "loop", loopFields, at))
	out.Merge(checkObject(node, "messagePopup", messagePopupFields, at))
	out.Merge(checkObject(node, "callExe", callExeFields, at))
	out.Merge(checkObject(node, "seqCall", seqCallFields, at))
	out.Merge(checkChart(node, at))
	out.Merge(checkObject(node, "attachment", attachmentFields, at))

	if present(node.Get("chart")) && present(node.Get("attachment")) {
		out.Add(violation.Structural, at.Key("attachment"), "attachment can not be used together with chart")
	}

	if caused := node.Get("causedUUTFailure"); caused.Type == gjson.True {
		switch status {
		case schema.StepPassed, schema.StepDone, schema.StepSkipped:
			out.Add(violation.Consistency, at.Key("causedUUTFailure"),
				"a step with status %s can not have caused a UUT failure", status)
		}
	}

	out.Merge(checkChildren(node, at, ids, prof))
	return out
}

// present reports whether a payload field is set. Empty lists do not count.
func present(v gjson.Result) bool {
	if rule.Absent(v) {
		return false
	}
	if v.IsArray() {
		return len(v.Array()) > 0
	}
	return true
}

func checkPayloads(node gjson.Result, at violation.Path, status schema.StepStatus) violation.List {
	var out violation.List
	var kinds []schema.PayloadKind
	for _, k := range schema.PayloadKinds {
		if present(node.Get(string(k))) {
			kinds = append(kinds, k)
		}
	}
	if len(kinds) > 1 {
		out.Add(violation.Structural, at.Key(string(kinds[1])),
			"%s and %s can not be used in the same step", kinds[0], kinds[1])
	}
	for _, k := range []schema.PayloadKind{schema.PayloadBoolean, schema.PayloadString, schema.PayloadNumeric} {
		list := node.Get(string(k))
		if list.IsArray() {
			out.Merge(measure.ValidateList(k, list, at.Key(string(k)), status))
		}
	}
	return out
}

func checkObject(node gjson.Result, name string, fields rule.Set, at violation.Path) violation.List {
	v := node.Get(name)
	if !v.IsObject() {
		return nil
	}
	return fields.Check(v, at.Key(name))
}

func checkChart(node gjson.Result, at violation.Path) violation.List {
	chart := node.Get("chart")
	if !chart.IsObject() {
		return nil
	}
	p := at.Key("chart")
	out := chartFields.Check(chart, p)
	series := chart.Get("series")
	if !series.IsArray() {
		return out
	}
	for i, s := range series.Array() {
		sp := p.Key("series").Index(i)
		if !s.IsObject() {
			out.Add(violation.Structural, sp, "expected a series object, got %s", rule.TypeName(s))
			continue
		}
		out.Merge(seriesFields.Check(s, sp))
		if !seriesFields.Valid(s, "xdata") || !seriesFields.Valid(s, "ydata") {
			continue
		}
		nx := strings.Count(s.Get("xdata").Str, ";") + 1
		ny := strings.Count(s.Get("ydata").Str, ";") + 1
		if nx > maxSeriesPoints {
			out.Add(violation.Range, sp.Key("xdata"), "x data can not have more than %d entries, got %d", maxSeriesPoints, nx)
		}
		if ny > maxSeriesPoints {
			out.Add(violation.Range, sp.Key("ydata"), "y data can not have more than %d entries, got %d", maxSeriesPoints, ny)
		}
		if nx != ny {
			out.Add(violation.Range, sp.Key("ydata"), "the number of x and y entries do not match: x=%d, y=%d", nx, ny)
		}
	}
	return out
}

func checkChildren(node gjson.Result, at violation.Path, ids *Counter, prof profile.Profile) violation.List {
	var out violation.List
	steps := node.Get("steps")
	hasSeqCall := !rule.Absent(node.Get("seqCall"))

	if !rule.Absent(steps) && !hasSeqCall {
		out.Add(violation.Structural, at.Key("steps"), "steps can only be used together with seqCall")
	}
	if hasSeqCall && !present(steps) && !prof.EmptySequences {
		out.Add(violation.Structural, at.Key("steps"), "a sequence call must contain at least one step")
	}
	if !steps.IsArray() {
		return out
	}

	children := steps.Array()
	byName := make(map[string][]int)
	var order []string
	for i, child := range children {
		out.Merge(Validate(child, at.Key("steps").Index(i), ids, prof))
		if name := child.Get("name"); name.Type == gjson.String && name.Str != "" {
			if _, seen := byName[name.Str]; !seen {
				order = append(order, name.Str)
			}
			byName[name.Str] = append(byName[name.Str], i)
		}
	}
	for _, name := range order {
		idx := byName[name]
		if len(idx) < 2 {
			continue
		}
		for _, i := range idx {
			out.Add(violation.Uniqueness, at.Key("steps").Index(i).Key("name"),
				"step name %q is used by more than one sibling (indices %s)", name, joinInts(idx))
		}
	}
	return out
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ", ")
}
