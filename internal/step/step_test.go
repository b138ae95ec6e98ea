package step

import (
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/dshills/watscheck/internal/profile"
	"github.com/dshills/watscheck/internal/violation"
)

func run(t *testing.T, doc string) violation.List {
	t.Helper()
	if !gjson.Valid(doc) {
		t.Fatalf("fixture is not valid JSON: %s", doc)
	}
	return ValidateTree(gjson.Parse(doc), violation.Path{"root"}, profile.Standard())
}

func paths(vs violation.List) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v.Kind) + " " + v.Path.String()
	}
	return out
}

const validTree = `{
	"id": 0, "group": "M", "stepType": "SequenceCall", "name": "MainSequence", "status": "P",
	"seqCall": {"path": "main.seq", "name": "main", "version": "1.0"},
	"steps": [
		{"id": 1, "group": "M", "stepType": "ET_NLT", "name": "Voltage", "status": "P",
		 "numericMeas": [{"compOp": "GELE", "status": "P", "unit": "V", "value": 14.97, "lowLimit": 4, "highLimit": 16}]},
		{"id": 2, "group": "M", "stepType": "SequenceCall", "name": "Sub", "status": "P",
		 "seqCall": {"path": "sub.seq", "name": "sub", "version": "1.0"},
		 "steps": [
			{"id": 3, "group": "M", "stepType": "ET_PFT", "name": "Check", "status": "P", "booleanMeas": [{"status": "P"}]}
		 ]},
		{"id": 4, "group": "C", "stepType": "Action", "name": "Cleanup", "status": "D"}
	]
}`

func TestValidate_ValidTree(t *testing.T) {
	if vs := run(t, validTree); len(vs) != 0 {
		t.Errorf("unexpected violations: %v", paths(vs))
	}
}

func TestValidate_MissingRequiredFields(t *testing.T) {
	vs := run(t, `{"id": 0}`)
	want := []string{"root.group", "root.stepType", "root.name", "root.status"}
	if len(vs) != len(want) {
		t.Fatalf("got %v", paths(vs))
	}
	for i, w := range want {
		if vs[i].Path.String() != w || vs[i].Kind != violation.Structural {
			t.Errorf("violation %d: got %s", i, paths(vs)[i])
		}
	}
}

func TestValidate_IdentityUsesDocumentOrder(t *testing.T) {
	doc := strings.Replace(validTree, `"id": 3`, `"id": 7`, 1)
	vs := run(t, doc)
	if len(vs) != 1 || vs[0].Kind != violation.Identity {
		t.Fatalf("got %v", paths(vs))
	}
	if vs[0].Path.String() != "root.steps[1].steps[0].id" {
		t.Errorf("path: %s", vs[0].Path)
	}
	if !strings.Contains(vs[0].Message, "got id=7, expected 3") {
		t.Errorf("message: %s", vs[0].Message)
	}
}

func TestValidate_IdentityIgnoredByLenient(t *testing.T) {
	doc := strings.Replace(validTree, `"id": 3`, `"id": 7`, 1)
	lenient, _ := profile.Load("lenient")
	if vs := ValidateTree(gjson.Parse(doc), violation.Path{"root"}, lenient); len(vs) != 0 {
		t.Errorf("unexpected: %v", paths(vs))
	}
}

func TestValidate_PayloadConflictReportsFirstPair(t *testing.T) {
	doc := `{"id": 0, "group": "M", "stepType": "Action", "name": "x", "status": "P",
		"messagePopup": {"button": 1, "response": "OK"},
		"booleanMeas": [{"status": "P"}],
		"callExe": {"exitCode": 0}}`
	vs := run(t, doc).Of(violation.Structural)
	if len(vs) != 1 {
		t.Fatalf("got %v", paths(vs))
	}
	if vs[0].Path.String() != "root.booleanMeas" || !strings.Contains(vs[0].Message, "messagePopup and booleanMeas") {
		t.Errorf("got %s: %s", vs[0].Path, vs[0].Message)
	}
}

func TestValidate_EmptyListIsNotAPayload(t *testing.T) {
	doc := `{"id": 0, "group": "M", "stepType": "Action", "name": "x", "status": "P",
		"booleanMeas": [], "callExe": {"exitCode": 0}}`
	if vs := run(t, doc); len(vs) != 0 {
		t.Errorf("unexpected: %v", paths(vs))
	}
}

func TestValidate_StepsWithoutSeqCall(t *testing.T) {
	doc := `{"id": 0, "group": "M", "stepType": "Action", "name": "x", "status": "P",
		"steps": [{"id": 1, "group": "M", "stepType": "Action", "name": "y", "status": "P"}]}`
	vs := run(t, doc)
	if len(vs) != 1 || vs[0].Path.String() != "root.steps" || vs[0].Kind != violation.Structural {
		t.Errorf("got %v", paths(vs))
	}
}

func TestValidate_SeqCallWithoutSteps(t *testing.T) {
	doc := `{"id": 0, "group": "M", "stepType": "SequenceCall", "name": "x", "status": "P",
		"seqCall": {"path": "a", "name": "a", "version": "1"}}`
	if vs := run(t, doc); len(vs) != 0 {
		t.Errorf("standard profile: unexpected %v", paths(vs))
	}
	strict, _ := profile.Load("strict")
	vs := ValidateTree(gjson.Parse(doc), violation.Path{"root"}, strict)
	if len(vs) != 1 || vs[0].Path.String() != "root.steps" {
		t.Errorf("strict profile: got %v", paths(vs))
	}
}

func TestValidate_StrictRootAndStepType(t *testing.T) {
	doc := `{"id": 0, "group": "M", "stepType": "MyIcon", "name": "x", "status": "P"}`
	strict, _ := profile.Load("strict")
	vs := ValidateTree(gjson.Parse(doc), violation.Path{"root"}, strict)
	got := strings.Join(paths(vs), "; ")
	if len(vs) != 2 || !strings.Contains(got, "root.seqCall") || !strings.Contains(got, "root.stepType") {
		t.Errorf("got %s", got)
	}
}

func TestValidate_SiblingNamesUnique(t *testing.T) {
	doc := `{"id": 0, "group": "M", "stepType": "SequenceCall", "name": "Main", "status": "P",
		"seqCall": {"path": "a", "name": "a", "version": "1"},
		"steps": [
			{"id": 1, "group": "M", "stepType": "Action", "name": "Main", "status": "P"},
			{"id": 2, "group": "M", "stepType": "Action", "name": "A", "status": "P"},
			{"id": 3, "group": "M", "stepType": "Action", "name": "A", "status": "P"}
		]}`
	vs := run(t, doc)
	if len(vs) != 2 {
		t.Fatalf("got %v", paths(vs))
	}
	if vs[0].Path.String() != "root.steps[1].name" || vs[1].Path.String() != "root.steps[2].name" {
		t.Errorf("got %v", paths(vs))
	}
	if vs[0].Kind != violation.Uniqueness {
		t.Errorf("kind: %s", vs[0].Kind)
	}
}

func TestValidate_ChartAttachmentExclusive(t *testing.T) {
	base := `{"id": 0, "group": "M", "stepType": "Action", "name": "x", "status": "P"`
	chart := `"chart": {"chartType": "Line", "label": "IV", "xLabel": "V", "xUnit": "V", "yLabel": "I", "yUnit": "A",
		"series": [{"dataType": "XYG", "name": "s", "xdata": "1;2;3", "ydata": "0.1;0.2;0.3"}]}`
	attachment := `"attachment": {"name": "log.txt", "contentType": "text/plain", "data": "aGVsbG8="}`

	if vs := run(t, base+","+chart+"}"); len(vs) != 0 {
		t.Errorf("chart only: %v", paths(vs))
	}
	if vs := run(t, base+","+attachment+"}"); len(vs) != 0 {
		t.Errorf("attachment only: %v", paths(vs))
	}
	vs := run(t, base+","+chart+","+attachment+"}")
	if len(vs) != 1 || vs[0].Kind != violation.Structural || vs[0].Path.String() != "root.attachment" {
		t.Errorf("both: %v", paths(vs))
	}
}

func TestValidate_ChartSeries(t *testing.T) {
	doc := `{"id": 0, "group": "M", "stepType": "Action", "name": "x", "status": "P",
		"chart": {"chartType": "Line", "label": "IV", "xLabel": "V", "xUnit": "V", "yLabel": "I", "yUnit": "A",
		"series": [{"dataType": "XYG", "name": "s", "xdata": "1;2;3", "ydata": "0.1;0.2"},
		           {"dataType": "XY", "name": "t", "xdata": "1;a", "ydata": "1"}]}}`
	vs := run(t, doc)
	want := []string{
		"RANGE root.chart.series[0].ydata",
		"RANGE root.chart.series[1].dataType",
		"RANGE root.chart.series[1].xdata",
	}
	got := paths(vs)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestValidate_CausedUUTFailure(t *testing.T) {
	for _, status := range []string{"P", "D", "S"} {
		doc := `{"id": 0, "group": "M", "stepType": "Action", "name": "x", "status": "` + status + `", "causedUUTFailure": true}`
		vs := run(t, doc)
		if len(vs) != 1 || vs[0].Kind != violation.Consistency || vs[0].Path.Field() != "causedUUTFailure" {
			t.Errorf("status %s: got %v", status, paths(vs))
		}
	}
	doc := `{"id": 0, "group": "M", "stepType": "Action", "name": "x", "status": "F", "causedUUTFailure": true}`
	if vs := run(t, doc); len(vs) != 0 {
		t.Errorf("failed step: %v", paths(vs))
	}
}

func TestValidate_NonObjectChildKeepsNumbering(t *testing.T) {
	doc := `{"id": 0, "group": "M", "stepType": "SequenceCall", "name": "x", "status": "P",
		"seqCall": {"path": "a", "name": "a", "version": "1"},
		"steps": [42, {"id": 2, "group": "M", "stepType": "Action", "name": "y", "status": "P"}]}`
	vs := run(t, doc)
	if len(vs) != 1 || vs[0].Path.String() != "root.steps[0]" {
		t.Errorf("got %v", paths(vs))
	}
}

func TestValidate_CollectsAcrossSubtree(t *testing.T) {
	doc := `{"id": 0, "group": "M", "stepType": "SequenceCall", "name": "x", "status": "P",
		"seqCall": {"path": "a", "name": "a", "version": "1"},
		"steps": [
			{"id": 1, "group": "X", "stepType": "Action", "name": "a", "status": "P"},
			{"id": 2, "group": "M", "stepType": "Action", "name": "b", "status": "Q"},
			{"id": 9, "group": "M", "stepType": "Action", "name": "c", "status": "P", "totTime": -1}
		]}`
	vs := run(t, doc)
	if len(vs) != 4 {
		t.Errorf("expected 4 violations, got %v", paths(vs))
	}
}
