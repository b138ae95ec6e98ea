package schema

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Number is a decimal that encodes as a bare JSON number. A Number decoded
// from JSON keeps its literal, so 1.50 encodes as 1.50 and not 1.5. Compare
// values with Equal.
type Number struct {
	decimal.Decimal
	lit string
}

// NewNumber wraps d.
func NewNumber(d decimal.Decimal) Number { return Number{Decimal: d} }

// ParseNumber parses a decimal literal such as "14.97" or "-1e3".
func ParseNumber(s string) (Number, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Number{}, fmt.Errorf("schema: number %q: %w", s, err)
	}
	return Number{Decimal: d}, nil
}

// MustNumber is ParseNumber for literals known to be valid.
func MustNumber(s string) Number {
	n, err := ParseNumber(s)
	if err != nil {
		panic(err)
	}
	return n
}

// NumberPtr is a convenience for optional fields.
func NumberPtr(s string) *Number {
	n := MustNumber(s)
	return &n
}

func (n Number) MarshalJSON() ([]byte, error) {
	if n.lit != "" {
		return []byte(n.lit), nil
	}
	return []byte(n.String()), nil
}

func (n *Number) UnmarshalJSON(b []byte) error {
	if err := n.Decimal.UnmarshalJSON(b); err != nil {
		return err
	}
	n.lit = ""
	if len(b) > 0 && b[0] != '"' {
		n.lit = string(b)
	}
	return nil
}
