package schema

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
)

// JSONSchema generates the JSON Schema of the report wire format.
func JSONSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(uuid.UUID{}) {
				return &jsonschema.Schema{Type: "string", Format: "uuid"}
			}
			return nil
		},
	}
	s := reflector.Reflect(&Report{})
	s.Title = "WATS report"
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("schema: marshal json schema: %w", err)
	}
	b = append(b, byte('\n'))
	return b, nil
}

func (Number) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "number"}
}

func enumSchema(codes []string) *jsonschema.Schema {
	enum := make([]any, len(codes))
	for i, c := range codes {
		enum[i] = c
	}
	return &jsonschema.Schema{Type: "string", Enum: enum}
}

func (ReportType) JSONSchema() *jsonschema.Schema         { return enumSchema(reportTypeCodes) }
func (StepGroup) JSONSchema() *jsonschema.Schema          { return enumSchema(stepGroupCodes) }
func (StepStatus) JSONSchema() *jsonschema.Schema         { return enumSchema(stepStatusCodes) }
func (ResultStatus) JSONSchema() *jsonschema.Schema       { return enumSchema(resultStatusCodes) }
func (MeasureStatus) JSONSchema() *jsonschema.Schema      { return enumSchema(measureCodes) }
func (StringCompOp) JSONSchema() *jsonschema.Schema       { return enumSchema(stringOpCodes) }
func (NumericCompOp) JSONSchema() *jsonschema.Schema      { return enumSchema(numericOpCodes) }
func (ChartType) JSONSchema() *jsonschema.Schema          { return enumSchema(chartTypeCodes) }
func (AdditionalDataType) JSONSchema() *jsonschema.Schema { return enumSchema(dataTypeCodes) }
