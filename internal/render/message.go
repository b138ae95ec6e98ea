package render

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dshills/watscheck/internal/violation"
)

// StepRef identifies the step a violation belongs to.
type StepRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EnclosingStep returns the nearest object along p that has a stepType key,
// not counting the value at p itself unless p ends inside it.
func EnclosingStep(p violation.Path, doc gjson.Result) *StepRef {
	var ref *StepRef
	cur := doc
	for _, e := range p {
		if cur.IsObject() && cur.Get("stepType").Exists() {
			ref = &StepRef{ID: cur.Get("id").Raw, Name: cur.Get("name").String()}
		}
		cur = child(cur, e)
		if !cur.Exists() {
			break
		}
	}
	return ref
}

func child(v gjson.Result, e any) gjson.Result {
	switch k := e.(type) {
	case int:
		if !v.IsArray() {
			return gjson.Result{}
		}
		arr := v.Array()
		if k < 0 || k >= len(arr) {
			return gjson.Result{}
		}
		return arr[k]
	default:
		if !v.IsObject() {
			return gjson.Result{}
		}
		return v.Get(violation.Path{k}.GJSON())
	}
}

// CurrentValue summarizes the value at p for display.
func CurrentValue(p violation.Path, doc gjson.Result) string {
	name := lastElement(p)
	v := doc
	if len(p) > 0 {
		v = doc.Get(p.GJSON())
	}
	switch {
	case !v.Exists():
		return "<missing>"
	case v.IsArray():
		return fmt.Sprintf("%q list object", name)
	case v.IsObject():
		return fmt.Sprintf("%q dict object", name)
	}
	return v.Raw
}

func lastElement(p violation.Path) string {
	if len(p) == 0 {
		return ""
	}
	return fmt.Sprint(p[len(p)-1])
}

// Describe renders a violation for a human reader: the enclosing step (or
// the field name when there is none), the current value and the rule message.
func Describe(v violation.Violation, doc gjson.Result) string {
	var sb strings.Builder
	name := lastElement(v.Path)
	if ref := EnclosingStep(v.Path, doc); ref != nil {
		fmt.Fprintf(&sb, "Step ID: %s, Name: %q\n", ref.ID, ref.Name)
	} else {
		fmt.Fprintf(&sb, "Field Name: %s\n", name)
	}
	fmt.Fprintf(&sb, "    -> %q: %s\n", name, CurrentValue(v.Path, doc))
	fmt.Fprintf(&sb, "    -> %s\n", v.Message)
	return sb.String()
}

// Message is Describe over raw document bytes.
func Message(v violation.Violation, raw []byte) string {
	return Describe(v, gjson.ParseBytes(raw))
}
