package report

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/watscheck/internal/violation"
)

// Renumber rewrites every step id under root to its pre-order position and
// returns the edited document with the number of ids that changed. Other
// bytes of the document are left as they are.
func Renumber(raw []byte) ([]byte, int, error) {
	if !gjson.ValidBytes(raw) {
		return nil, 0, fmt.Errorf("report: renumber: %w: invalid JSON", ErrMalformed)
	}
	root := gjson.GetBytes(raw, "root")
	if !root.IsObject() {
		return nil, 0, fmt.Errorf("report: renumber: %w: no root step", ErrMalformed)
	}

	type slot struct {
		path violation.Path
		id   gjson.Result
	}
	var slots []slot
	var walk func(node gjson.Result, at violation.Path)
	walk = func(node gjson.Result, at violation.Path) {
		slots = append(slots, slot{path: at.Key("id"), id: node.Get("id")})
		if !node.IsObject() {
			return
		}
		for i, child := range node.Get("steps").Array() {
			walk(child, at.Key("steps").Index(i))
		}
	}
	walk(root, violation.Path{"root"})

	out := raw
	changed := 0
	for want, s := range slots {
		if s.id.Type == gjson.Number && s.id.Raw == fmt.Sprint(want) {
			continue
		}
		parent := gjson.GetBytes(out, s.path.Parent().GJSON())
		if !parent.IsObject() {
			continue
		}
		var err error
		out, err = sjson.SetBytes(out, s.path.GJSON(), want)
		if err != nil {
			return nil, 0, fmt.Errorf("report: renumber %s: %w", s.path, err)
		}
		changed++
	}
	return out, changed, nil
}
