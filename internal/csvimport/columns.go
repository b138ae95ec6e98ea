package csvimport

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

type columnKind int

const (
	colHeader columnKind = iota
	colMisc
	colSub
	colLimit
	colEval
	colSecTime
	colText
	colUnsupported
)

// column is one classified header cell.
type column struct {
	index     int
	header    string
	kind      columnKind
	name      string
	low, high decimal.Decimal
	unit      string
}

// headerColumns map onto report and UUT fields.
var headerColumns = map[string]bool{
	"PartNumber": true, "SerialNumber": true, "Revision": true, "StationName": true,
	"Operator": true, "TestSocket": true, "ExecutionTime": true, "TestComment": true,
	"Batch": true, "DateTime": true, "UTCOffset": true, "Result": true,
}

// miscColumns are header columns with no report field; they become miscInfos.
var miscColumns = map[string]bool{
	"ProjectName": true, "ItemName": true, "PONo": true, "EAN": true, "UPC": true,
	"FWVer": true, "FWVers": true, "SWVersion": true, "ProtocolVersion": true,
	"StationType": true, "Site": true,
}

var (
	suffixName  = regexp.MustCompile(`^[A-Za-z\d]{1,20}$`)
	limitSuffix = regexp.MustCompile(`^([^~]+)~(\S+) (.+)$`)
)

var textSuffixes = map[string]bool{"Comment": true, "File": true, "Image": true}

var responseSuffixes = map[string]bool{
	"ResponseLog": true, "ResponseLin": true, "ResponseLinLog": true, "ResponseLogLog": true,
}

// classify sorts a header cell into a column kind.
func classify(index int, header string) (column, error) {
	c := column{index: index, header: header}
	h := strings.TrimSpace(header)

	switch {
	case headerColumns[h]:
		c.kind = colHeader
		return c, nil
	case miscColumns[h]:
		c.kind, c.name = colMisc, h
		return c, nil
	}

	if prefix, rest, ok := strings.Cut(h, "_"); ok {
		switch strings.ToLower(prefix) {
		case "misc", "sub":
			if !suffixName.MatchString(rest) {
				return c, fmt.Errorf("%q must be 1-20 letters or digits after the prefix", rest)
			}
			c.kind, c.name = colMisc, rest
			if strings.EqualFold(prefix, "sub") {
				c.kind = colSub
			}
			return c, nil
		}
	}

	open := strings.LastIndex(h, "(")
	if open <= 0 || !strings.HasSuffix(h, ")") {
		return c, fmt.Errorf("not a 305 header, Misc_, SUB_ or test column")
	}
	c.name = strings.TrimSpace(h[:open])
	if c.name == "" || utf8.RuneCountInString(c.name) > 100 {
		return c, fmt.Errorf("test name must be 1-100 characters")
	}
	suffix := h[open+1 : len(h)-1]

	switch {
	case suffix == "Eval":
		c.kind = colEval
	case suffix == "Sec_Time":
		c.kind, c.unit = colSecTime, "s"
	case textSuffixes[suffix]:
		c.kind = colText
	case responseSuffixes[suffix]:
		c.kind = colUnsupported
	default:
		m := limitSuffix.FindStringSubmatch(suffix)
		if m == nil {
			return c, fmt.Errorf("test column must end in (low~high unit)")
		}
		var err error
		if c.low, err = decimal.NewFromString(strings.TrimSpace(m[1])); err != nil {
			return c, fmt.Errorf("low limit %q is not a number", m[1])
		}
		if c.high, err = decimal.NewFromString(m[2]); err != nil {
			return c, fmt.Errorf("high limit %q is not a number", m[2])
		}
		c.kind, c.unit = colLimit, strings.TrimSpace(m[3])
	}
	return c, nil
}
