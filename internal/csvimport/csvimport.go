// Package csvimport converts 305-style CSV exports into WATS reports. Each
// data row becomes one report whose tests hang off a single sequence call,
// and every report goes through the same validation as a hand-written one.
package csvimport

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tidwall/pretty"

	"github.com/dshills/watscheck/internal/logger"
	"github.com/dshills/watscheck/internal/measure"
	"github.com/dshills/watscheck/internal/profile"
	"github.com/dshills/watscheck/internal/report"
	"github.com/dshills/watscheck/internal/schema"
	"github.com/dshills/watscheck/internal/violation"
)

// Defaults fill report fields the CSV format has no column for.
type Defaults struct {
	ProcessCode int
	Location    string
	Purpose     string
	Operator    string
}

// Importer converts CSV data. The zero value uses the standard profile,
// random report ids and a no-op logger.
type Importer struct {
	Defaults Defaults
	Profile  *profile.Profile
	Log      *logger.Logger
	NewID    func() uuid.UUID
}

// Row is the outcome of one data row.
type Row struct {
	Line       int
	Report     *schema.Report
	JSON       []byte
	Violations violation.List
	Errors     []TableError
	Warnings   []string
}

// OK reports whether the row converted without cell errors and validated cleanly.
func (r Row) OK() bool { return len(r.Errors) == 0 && len(r.Violations) == 0 }

// Result is the outcome of a whole file.
type Result struct {
	Delimiter rune
	Warnings  []string
	Rows      []Row
}

// ImportFile reads and converts the CSV file at path.
func (im *Importer) ImportFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csvimport: open %s: %w", path, err)
	}
	defer f.Close()
	return im.ImportReader(f)
}

// ImportReader converts CSV data from r. Table shape problems abort the
// import with TableErrors; cell problems are recorded on the row.
func (im *Importer) ImportReader(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("csvimport: read: %w", err)
	}
	delim, err := SniffDelimiter(data)
	if err != nil {
		return nil, err
	}
	recs, err := readTable(data, delim)
	if err != nil {
		return nil, err
	}

	log := im.log()
	res := &Result{Delimiter: delim}
	var cols []column
	var errs TableErrors
	for i, h := range recs[0].fields {
		c, err := classify(i, h)
		if err != nil {
			errs = append(errs, TableError{Line: recs[0].line, Column: h, Message: err.Error()})
			continue
		}
		if c.kind == colUnsupported {
			res.Warnings = append(res.Warnings, fmt.Sprintf("column %q: response graphs are not imported", h))
			log.Warn("unsupported column skipped", "column", h)
			continue
		}
		cols = append(cols, c)
	}
	if len(errs) > 0 {
		return nil, errs
	}

	for _, rec := range recs[1:] {
		row := im.convert(rec, cols)
		log.Debug("row imported", "line", row.Line, "errors", len(row.Errors), "violations", len(row.Violations))
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func (im *Importer) log() *logger.Logger {
	if im.Log == nil {
		return logger.Nop()
	}
	return im.Log
}

// rowBuilder accumulates one report and the problems found on the way.
type rowBuilder struct {
	line   int
	values map[string]string
	rep    schema.Report
	row    Row
}

func (b *rowBuilder) fail(col, format string, args ...any) {
	b.row.Errors = append(b.row.Errors, TableError{Line: b.line, Column: col, Message: fmt.Sprintf(format, args...)})
}

func (im *Importer) convert(rec record, cols []column) Row {
	b := &rowBuilder{line: rec.line, values: map[string]string{}}
	b.row.Line = rec.line
	for _, c := range cols {
		if c.kind == colHeader {
			b.values[strings.TrimSpace(c.header)] = strings.TrimSpace(rec.fields[c.index])
		}
	}

	newID := im.NewID
	if newID == nil {
		newID = uuid.New
	}
	b.rep = schema.Report{
		Type:        schema.ReportTest,
		ID:          newID(),
		PN:          b.values["PartNumber"],
		SN:          b.values["SerialNumber"],
		Rev:         b.values["Revision"],
		ProcessCode: im.Defaults.ProcessCode,
		MachineName: b.values["StationName"],
		Location:    im.Defaults.Location,
		Purpose:     im.Defaults.Purpose,
	}
	b.header(im.Defaults)

	root := schema.Step{
		Group:    schema.GroupMain,
		StepType: "SequenceCall",
		Name:     "MainSequence Callback",
		SeqCall:  &schema.SeqCall{Path: "305", Name: "MainSequence", Version: "1.0"},
	}
	for _, c := range cols {
		cell := strings.TrimSpace(rec.fields[c.index])
		switch c.kind {
		case colHeader:
		case colMisc:
			if cell != "" {
				b.rep.MiscInfos = append(b.rep.MiscInfos, schema.MiscInfo{Description: c.name, Text: cell})
			}
			if c.name == "Site" && b.rep.Location == "" && cell != "" {
				b.rep.Location = "Site " + cell
			}
		case colSub:
			if cell != "" {
				b.rep.SubUnits = append(b.rep.SubUnits, schema.SubUnit{PartType: c.name, PN: c.name, Rev: b.rep.Rev, SN: cell})
			}
		default:
			if cell == "" {
				b.row.Warnings = append(b.row.Warnings, fmt.Sprintf("column %q has no value; step skipped", c.header))
				continue
			}
			if s, ok := b.testStep(c, cell); ok {
				root.Steps = append(root.Steps, s)
			}
		}
	}

	root.Status = schema.StepPassed
	for _, s := range root.Steps {
		if s.Status == schema.StepFailed {
			root.Status = schema.StepFailed
			break
		}
	}
	root.AssignIDs()
	b.rep.Root = root
	b.result(root.Status)

	raw, err := json.Marshal(&b.rep)
	if err != nil {
		b.fail("", "encode report: %v", err)
		return b.row
	}
	prof := profile.Standard()
	if im.Profile != nil {
		prof = *im.Profile
	}
	_, vs, err := report.Parse(raw, report.WithProfile(prof))
	if err != nil {
		b.fail("", "%v", err)
	}
	b.row.Report = &b.rep
	b.row.JSON = pretty.Pretty(raw)
	b.row.Violations = vs
	im.log().Debug("row converted", "line", rec.line, "sn", b.rep.SN, "steps", root.Count(), "violations", len(vs))
	return b.row
}

var dateTime = regexp.MustCompile(`^(\d{2,4})-(\d{1,2})-(\d{1,2}) (\d{1,2}):(\d{1,2})(?::(\d{1,2}))?$`)

// header fills start times and UUT fields from the header columns.
func (b *rowBuilder) header(d Defaults) {
	offset := 0
	if v := b.values["UTCOffset"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < -14 || n > 14 {
			b.fail("UTCOffset", "%q must be a whole number of hours between -14 and 14", v)
		} else {
			offset = n
		}
	}
	if v := b.values["DateTime"]; v == "" {
		b.fail("DateTime", "value is required")
	} else if t, ok := parseDateTime(v, offset); !ok {
		b.fail("DateTime", "%q is not YYYY-MM-DD HH:MM[:SS]", v)
	} else {
		b.rep.Start = t.Format("2006-01-02T15:04:05-07:00")
		b.rep.StartUTC = t.UTC().Format("2006-01-02T15:04:05Z07:00")
	}

	b.rep.UUT.User = d.Operator
	if v := b.values["Operator"]; v != "" {
		b.rep.UUT.User = v
	}
	if v := b.values["TestSocket"]; v != "" {
		if n, err := strconv.Atoi(v); err != nil {
			b.fail("TestSocket", "%q is not an integer", v)
		} else {
			b.rep.UUT.TestSocketIndex = &n
		}
	}
	if v := b.values["ExecutionTime"]; v != "" {
		if n, err := schema.ParseNumber(v); err != nil {
			b.fail("ExecutionTime", "%q is not a number", v)
		} else {
			b.rep.UUT.ExecTime = &n
		}
	}
	if v := b.values["TestComment"]; v != "" {
		b.rep.UUT.Comment = &v
	}
	if v := b.values["Batch"]; v != "" {
		b.rep.UUT.BatchSN = &v
	}
}

func parseDateTime(s string, offsetHours int) (time.Time, bool) {
	m := dateTime.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	n := make([]int, 6)
	for i, part := range m[1:] {
		if part == "" {
			continue
		}
		n[i], _ = strconv.Atoi(part)
	}
	if len(m[1]) == 2 {
		n[0] += 2000
	}
	zone := time.FixedZone("", offsetHours*3600)
	t := time.Date(n[0], time.Month(n[1]), n[2], n[3], n[4], n[5], 0, zone)
	if t.Month() != time.Month(n[1]) || t.Day() != n[2] || t.Hour() != n[3] || t.Minute() != n[4] {
		return time.Time{}, false
	}
	return t, true
}

// result sets the report result from the Result column, or from the root
// status when the column is absent or unreadable.
func (b *rowBuilder) result(rootStatus schema.StepStatus) {
	b.rep.Result = schema.ResultStatus(rootStatus)
	v := b.values["Result"]
	switch strings.ToUpper(v) {
	case "":
	case "1", "P", "PASS", "PASSED":
		b.rep.Result = schema.ResultPassed
	case "0", "F", "FAIL", "FAILED":
		b.rep.Result = schema.ResultFailed
	default:
		b.fail("Result", "%q is not 1/0 or P/F", v)
	}
}

// testStep builds the step for one test cell.
func (b *rowBuilder) testStep(c column, cell string) (schema.Step, bool) {
	s := schema.Step{Group: schema.GroupMain, Name: c.name}
	switch c.kind {
	case colEval:
		status, ok := map[string]schema.MeasureStatus{
			"1": schema.MeasurePassed, "0": schema.MeasureFailed, "2": schema.MeasureSkipped,
		}[cell]
		if !ok {
			b.fail(c.header, "%q must be 1 (pass), 0 (fail) or 2 (skipped)", cell)
			return s, false
		}
		s.StepType = "ET_PFT"
		s.BooleanMeas = []schema.BooleanMeasurement{{Status: status}}
		s.Status = schema.StepStatus(status)
	case colText:
		s.StepType = "ET_SVT"
		s.StringMeas = []schema.StringMeasurement{{CompOp: schema.StringLog, Status: schema.MeasurePassed, Value: cell}}
		s.Status = schema.StepPassed
	case colLimit, colSecTime:
		v, err := decimal.NewFromString(cell)
		if err != nil {
			b.fail(c.header, "%q is not a number", cell)
			return s, false
		}
		m := schema.NumericMeasurement{CompOp: schema.NumericLog, Unit: c.unit, Value: schema.NewNumber(v)}
		if c.kind == colLimit {
			m.CompOp = schema.NumericGELE
			m.LowLimit = &schema.Number{Decimal: c.low}
			m.HighLimit = &schema.Number{Decimal: c.high}
		}
		m.Status = measure.NumericStatus(m)
		s.StepType = "ET_NLT"
		s.NumericMeas = []schema.NumericMeasurement{m}
		s.Status = schema.StepStatus(m.Status)
	default:
		return s, false
	}
	return s, true
}
