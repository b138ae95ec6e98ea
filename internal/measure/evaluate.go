package measure

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dshills/watscheck/internal/schema"
)

// StatusFor maps an evaluation result to a measurement status.
func StatusFor(pass bool) schema.MeasureStatus {
	if pass {
		return schema.MeasurePassed
	}
	return schema.MeasureFailed
}

// EvaluateString reports whether value passes op against limit.
// Log operators always pass.
func EvaluateString(op schema.StringCompOp, value, limit string) bool {
	switch op {
	case schema.StringEQ, schema.StringEqual, schema.StringCaseSensit:
		return value == limit
	case schema.StringNE:
		return value != limit
	case schema.StringIgnoreCase:
		return strings.ToUpper(value) == strings.ToUpper(limit)
	}
	return true
}

// EvaluateNumeric reports whether value passes op. Single-limit operators
// compare value against low; high is ignored. Dual-limit operators read as
// "low <op1> value <op2> high", so the limits are positional and low need
// not be smaller than high. Log operators always pass.
func EvaluateNumeric(op schema.NumericCompOp, value, low, high decimal.Decimal) bool {
	switch op {
	case schema.NumericEQ, schema.NumericEqual:
		return value.Equal(low)
	case schema.NumericNE:
		return !value.Equal(low)
	case schema.NumericLT:
		return value.LessThan(low)
	case schema.NumericLE:
		return value.LessThanOrEqual(low)
	case schema.NumericGT:
		return value.GreaterThan(low)
	case schema.NumericGE:
		return value.GreaterThanOrEqual(low)

	case schema.NumericLTGT:
		return low.GreaterThan(value) && value.GreaterThan(high)
	case schema.NumericLTGE:
		return low.GreaterThan(value) && value.GreaterThanOrEqual(high)
	case schema.NumericLEGT:
		return low.GreaterThanOrEqual(value) && value.GreaterThan(high)
	case schema.NumericLEGE:
		return low.GreaterThanOrEqual(value) && value.GreaterThanOrEqual(high)
	case schema.NumericGTLT:
		return low.LessThan(value) && value.LessThan(high)
	case schema.NumericGTLE:
		return low.LessThan(value) && value.LessThanOrEqual(high)
	case schema.NumericGELT:
		return low.LessThanOrEqual(value) && value.LessThan(high)
	case schema.NumericGELE:
		return low.LessThanOrEqual(value) && value.LessThanOrEqual(high)
	}
	return true
}

// NumericStatus computes the status a numeric measurement should declare.
// Skipped measurements keep their status.
func NumericStatus(m schema.NumericMeasurement) schema.MeasureStatus {
	if m.Status == schema.MeasureSkipped {
		return m.Status
	}
	if m.CompOp.IsLog() {
		return schema.MeasurePassed
	}
	var low, high decimal.Decimal
	if m.LowLimit != nil {
		low = m.LowLimit.Decimal
	}
	if m.HighLimit != nil {
		high = m.HighLimit.Decimal
	}
	return StatusFor(EvaluateNumeric(m.CompOp, m.Value.Decimal, low, high))
}

// StringStatus computes the status a string measurement should declare.
func StringStatus(m schema.StringMeasurement) schema.MeasureStatus {
	if m.Status == schema.MeasureSkipped {
		return m.Status
	}
	if m.CompOp.IsLog() {
		return schema.MeasurePassed
	}
	limit := ""
	if m.Limit != nil {
		limit = *m.Limit
	}
	return StatusFor(EvaluateString(m.CompOp, m.Value, limit))
}
