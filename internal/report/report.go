// Package report parses and validates complete WATS report documents.
//
// Parse collects every violation in the document. Only input that is not a
// JSON object at all aborts with ErrMalformed.
package report

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/dshills/watscheck/internal/profile"
	"github.com/dshills/watscheck/internal/rule"
	"github.com/dshills/watscheck/internal/schema"
	"github.com/dshills/watscheck/internal/step"
	"github.com/dshills/watscheck/internal/violation"
)

// ErrMalformed is returned when the input can not be read as a report document.
var ErrMalformed = errors.New("malformed report")

var headerFields = rule.Set{
	rule.Enum("type", schema.ReportTypeCodes()).Required(),
	rule.String("id").Required(),
	rule.String("pn").Required().Length(1, 100),
	rule.String("sn").Required().Length(1, 100),
	rule.String("rev").Required().Length(1, 100),
	rule.String("productName").Length(1, 100),
	rule.Integer("processCode").Required().Min(0).Below(32767),
	rule.String("processCodeFormat").Length(1, 100),
	rule.String("processName").Length(1, 100),
	rule.Enum("result", schema.ResultStatusCodes()).Required(),
	rule.String("machineName").Required().Length(1, 100),
	rule.String("location").Required().Length(1, 100),
	rule.String("purpose").Required().Length(1, 100),
	rule.String("origin").Length(1, 100),
	rule.String("start").Required().Pattern(step.Timestamp),
	rule.String("startUTC").Pattern(step.Timestamp),
	rule.Object("root").Required(),
	rule.Object("uut").Required(),
	rule.Array("miscInfos"),
	rule.Array("subUnits"),
	rule.Array("assets"),
	rule.Array("additionalData"),
}

var uutFields = rule.Set{
	rule.Decimal("execTime").Min(0),
	rule.Integer("testSocketIndex").Between(-1, 32767),
	rule.String("batchSN").MaxLength(100),
	rule.String("comment").MaxLength(5000),
	rule.Integer("errorCode").Int32(),
	rule.String("errorMessage").MaxLength(200),
	rule.String("fixtureId").MaxLength(100),
	rule.String("user").Required().Length(1, 100),
	rule.Integer("batchFailCount").Between(0, rule.MaxInt32),
	rule.Integer("batchLoopIndex").Between(0, rule.MaxInt32),
}

type options struct {
	profile profile.Profile
}

// Option configures Parse.
type Option func(*options)

// WithProfile selects the validation profile. The default is profile.Standard.
func WithProfile(p profile.Profile) Option {
	return func(o *options) { o.profile = p }
}

// Parse validates raw and decodes it into a Report. The report is returned
// only when there are no violations. A non-nil error always wraps ErrMalformed;
// violations are never returned as the error.
func Parse(raw []byte, opts ...Option) (*schema.Report, violation.List, error) {
	o := options{profile: profile.Standard()}
	for _, opt := range opts {
		opt(&o)
	}

	if !gjson.ValidBytes(raw) {
		return nil, nil, fmt.Errorf("report: %w: invalid JSON", ErrMalformed)
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, nil, fmt.Errorf("report: %w: expected an object, got %s", ErrMalformed, rule.TypeName(doc))
	}

	vs := Validate(doc, o.profile)
	if len(vs) > 0 {
		return nil, vs, nil
	}
	var r schema.Report
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, violation.List{decodeViolation(err)}, nil
	}
	return &r, nil, nil
}

// decodeViolation turns a decode failure of an otherwise clean document into a
// violation, so callers always get either a report or a list.
func decodeViolation(err error) violation.Violation {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) && te.Field != "" {
		return violation.New(violation.Structural, nil, "value %s does not fit field %s (%s)", te.Value, te.Field, te.Type)
	}
	return violation.New(violation.Structural, nil, "document does not decode: %v", err)
}

// Validate checks a parsed document and returns every violation.
func Validate(doc gjson.Result, prof profile.Profile) violation.List {
	out := rule.DuplicateKeys(doc, nil)
	out.Merge(headerFields.Check(doc, nil))

	if id := doc.Get("id"); headerFields.Valid(doc, "id") {
		if _, err := uuid.Parse(id.Str); err != nil {
			out.Add(violation.Range, violation.Path{"id"}, "id %q is not a valid UUID", id.Str)
		}
	}

	if uut := doc.Get("uut"); uut.IsObject() {
		out.Merge(uutFields.Check(uut, violation.Path{"uut"}))
	}

	root := doc.Get("root")
	if root.IsObject() {
		out.Merge(step.ValidateTree(root, violation.Path{"root"}, prof))
	}

	out.Merge(checkMiscInfos(doc.Get("miscInfos")))
	out.Merge(checkList(doc.Get("subUnits"), "subUnits", subUnitFields))
	out.Merge(checkList(doc.Get("assets"), "assets", assetFields))
	out.Merge(checkAdditionalData(doc.Get("additionalData")))

	if headerFields.Valid(doc, "result") && root.IsObject() {
		result := doc.Get("result").Str
		if status := root.Get("status"); status.Type == gjson.String && schema.StepStatus(status.Str).Valid() && status.Str != result {
			out.Add(violation.Consistency, violation.Path{"result"},
				"result (%s) and root step status (%s) must match", result, status.Str)
		}
	}
	return out
}
