package schema_test

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/dshills/watscheck/internal/schema"
)

func TestVocabularies_DeclarationOrder(t *testing.T) {
	want := map[string]string{
		"ReportType":    "T,R",
		"StepGroup":     "S,M,C",
		"StepStatus":    "P,F,E,T,S,D,U",
		"ResultStatus":  "P,F,E,T",
		"MeasureStatus": "P,F,S",
		"ChartType":     "Line,LineLogX,LineLogY,LineLogXY",
	}
	for _, v := range schema.Vocabularies() {
		exp, ok := want[v.Name]
		if !ok {
			continue
		}
		if got := strings.Join(v.Codes, ","); got != exp {
			t.Errorf("%s codes: got %q, want %q", v.Name, got, exp)
		}
	}
}

func TestVocabularies_CodesAreCopies(t *testing.T) {
	codes := schema.StepStatusCodes()
	codes[0] = "X"
	if schema.StepStatusCodes()[0] != "P" {
		t.Error("mutating returned codes changed the vocabulary")
	}
}

func TestEnumValid(t *testing.T) {
	if !schema.StepStatus("D").Valid() {
		t.Error("D should be a valid step status")
	}
	if schema.MeasureStatus("D").Valid() {
		t.Error("D should not be a valid measure status")
	}
	if schema.ResultStatus("S").Valid() {
		t.Error("S should not be a valid result status")
	}
	if !schema.StringCompOp("LOG DATA").Valid() {
		t.Error("LOG DATA should be a valid string operator")
	}
	if schema.NumericCompOp("gele").Valid() {
		t.Error("operators are case sensitive")
	}
}

func TestNumericCompOp_Arity(t *testing.T) {
	tests := []struct {
		op     schema.NumericCompOp
		log    bool
		single bool
		dual   bool
	}{
		{schema.NumericLog, true, false, false},
		{schema.NumericLogData, true, false, false},
		{schema.NumericEQ, false, true, false},
		{schema.NumericEqual, false, true, false},
		{schema.NumericGE, false, true, false},
		{schema.NumericGELE, false, false, true},
		{schema.NumericLTGT, false, false, true},
		{"BOGUS", false, false, false},
	}
	for _, tc := range tests {
		if tc.op.IsLog() != tc.log || tc.op.IsSingleLimit() != tc.single || tc.op.IsDualLimit() != tc.dual {
			t.Errorf("%s: got log=%v single=%v dual=%v", tc.op, tc.op.IsLog(), tc.op.IsSingleLimit(), tc.op.IsDualLimit())
		}
	}
}

func TestAssignIDs_PreOrder(t *testing.T) {
	root := schema.Step{
		Name: "root",
		Steps: []schema.Step{
			{Name: "a", Steps: []schema.Step{{Name: "a1"}, {Name: "a2"}}},
			{Name: "b"},
			{Name: "c", Steps: []schema.Step{{Name: "c1"}}},
		},
	}
	if n := root.AssignIDs(); n != 7 {
		t.Fatalf("AssignIDs returned %d, want 7", n)
	}
	var order []string
	var ids []int
	root.Walk(func(s *schema.Step) bool {
		order = append(order, s.Name)
		ids = append(ids, s.ID)
		return true
	})
	if got := strings.Join(order, ","); got != "root,a,a1,a2,b,c,c1" {
		t.Errorf("walk order: %s", got)
	}
	for i, id := range ids {
		if id != i {
			t.Errorf("node %d (%s) has id %d", i, order[i], id)
		}
	}
	if root.Count() != 7 {
		t.Errorf("Count: got %d", root.Count())
	}
}

func TestNumber_MarshalsBare(t *testing.T) {
	m := schema.NumericMeasurement{
		CompOp:   schema.NumericGELE,
		Status:   schema.MeasurePassed,
		Unit:     "V",
		Value:    schema.MustNumber("14.97"),
		LowLimit: schema.NumberPtr("4"),
	}
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, `"value":14.97`) || !strings.Contains(s, `"lowLimit":4`) {
		t.Errorf("numbers not encoded bare: %s", s)
	}
	if strings.Contains(s, "highLimit") {
		t.Errorf("absent highLimit was serialized: %s", s)
	}

	var back schema.NumericMeasurement
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Value.Equal(m.Value.Decimal) {
		t.Errorf("value: got %s", back.Value)
	}
}

func TestNumber_KeepsLiteral(t *testing.T) {
	for _, lit := range []string{"1.50", "1e3", "-0.000", "42"} {
		var first schema.Number
		if err := json.Unmarshal([]byte(lit), &first); err != nil {
			t.Fatalf("%s: %v", lit, err)
		}
		b, err := json.Marshal(first)
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != lit {
			t.Errorf("%s encoded as %s", lit, b)
		}
		var second schema.Number
		if err := json.Unmarshal(b, &second); err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("%s changed on round trip: %#v vs %#v", lit, first, second)
		}
	}
	if b, _ := json.Marshal(schema.MustNumber("1.50")); string(b) != "1.5" {
		t.Errorf("constructed number: %s", b)
	}
}

func TestParseNumber_Invalid(t *testing.T) {
	if _, err := schema.ParseNumber("abc"); err == nil {
		t.Error("expected error")
	}
}

func TestJSONSchema(t *testing.T) {
	b, err := schema.JSONSchema()
	if err != nil {
		t.Fatalf("JSONSchema: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	s := string(b)
	for _, want := range []string{`"GELE"`, `"uuid"`, `"numericMeas"`, `"LineLogXY"`} {
		if !strings.Contains(s, want) {
			t.Errorf("schema missing %s", want)
		}
	}
	if !strings.HasSuffix(s, "\n") {
		t.Error("schema should end with a newline")
	}
}
