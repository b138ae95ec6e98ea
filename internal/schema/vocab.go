package schema

import "slices"

// ReportType distinguishes test reports from repair reports.
type ReportType string

const (
	ReportTest   ReportType = "T"
	ReportRepair ReportType = "R"
)

// StepGroup is the sequence group a step executed in.
type StepGroup string

const (
	GroupSetup   StepGroup = "S"
	GroupMain    StepGroup = "M"
	GroupCleanup StepGroup = "C"
)

// StepStatus is the outcome of a single step.
type StepStatus string

const (
	StepPassed     StepStatus = "P"
	StepFailed     StepStatus = "F"
	StepError      StepStatus = "E"
	StepTerminated StepStatus = "T"
	StepSkipped    StepStatus = "S"
	StepDone       StepStatus = "D"
	StepUnknown    StepStatus = "U"
)

// ResultStatus is the overall outcome of a report.
type ResultStatus string

const (
	ResultPassed     ResultStatus = "P"
	ResultFailed     ResultStatus = "F"
	ResultError      ResultStatus = "E"
	ResultTerminated ResultStatus = "T"
)

// MeasureStatus is the outcome of one measurement. It is a subset of StepStatus.
type MeasureStatus string

const (
	MeasurePassed  MeasureStatus = "P"
	MeasureFailed  MeasureStatus = "F"
	MeasureSkipped MeasureStatus = "S"
)

// StringCompOp selects how a string measurement is compared against its limit.
type StringCompOp string

const (
	StringLog        StringCompOp = "LOG"
	StringLogData    StringCompOp = "LOG DATA"
	StringEQ         StringCompOp = "EQ"
	StringEqual      StringCompOp = "Equal"
	StringNE         StringCompOp = "NE"
	StringCaseSensit StringCompOp = "CASESENSIT"
	StringIgnoreCase StringCompOp = "IGNORECASE"
)

// NumericCompOp selects how a numeric measurement is compared against its limits.
// Dual-limit codes name the relation of lowLimit and highLimit to the value in order,
// e.g. GELE holds when lowLimit <= value <= highLimit.
type NumericCompOp string

const (
	NumericLog     NumericCompOp = "LOG"
	NumericLogData NumericCompOp = "LOG DATA"
	NumericEQ      NumericCompOp = "EQ"
	NumericEqual   NumericCompOp = "Equal"
	NumericNE      NumericCompOp = "NE"
	NumericLT      NumericCompOp = "LT"
	NumericLE      NumericCompOp = "LE"
	NumericGT      NumericCompOp = "GT"
	NumericGE      NumericCompOp = "GE"
	NumericLTGT    NumericCompOp = "LTGT"
	NumericLTGE    NumericCompOp = "LTGE"
	NumericLEGT    NumericCompOp = "LEGT"
	NumericLEGE    NumericCompOp = "LEGE"
	NumericGTLT    NumericCompOp = "GTLT"
	NumericGTLE    NumericCompOp = "GTLE"
	NumericGELT    NumericCompOp = "GELT"
	NumericGELE    NumericCompOp = "GELE"
)

// ChartType is the axis scaling of a chart.
type ChartType string

const (
	ChartLine      ChartType = "Line"
	ChartLineLogX  ChartType = "LineLogX"
	ChartLineLogY  ChartType = "LineLogY"
	ChartLineLogXY ChartType = "LineLogXY"
)

// AdditionalDataType is the value type of an additional data property.
type AdditionalDataType string

const (
	DataNumber AdditionalDataType = "Number"
	DataString AdditionalDataType = "String"
	DataBool   AdditionalDataType = "Bool"
	DataObj    AdditionalDataType = "Obj"
	DataArray  AdditionalDataType = "Array"
)

// SeriesDataType is the only series encoding the service accepts.
const SeriesDataType = "XYG"

var (
	reportTypeCodes   = []string{"T", "R"}
	stepGroupCodes    = []string{"S", "M", "C"}
	stepStatusCodes   = []string{"P", "F", "E", "T", "S", "D", "U"}
	resultStatusCodes = []string{"P", "F", "E", "T"}
	measureCodes      = []string{"P", "F", "S"}
	stringOpCodes     = []string{"LOG", "LOG DATA", "EQ", "Equal", "NE", "CASESENSIT", "IGNORECASE"}
	numericOpCodes    = []string{
		"LOG", "LOG DATA", "EQ", "Equal", "NE", "LT", "LE", "GT", "GE",
		"LTGT", "LTGE", "LEGT", "LEGE", "GTLT", "GTLE", "GELT", "GELE",
	}
	chartTypeCodes = []string{"Line", "LineLogX", "LineLogY", "LineLogXY"}
	dataTypeCodes  = []string{"Number", "String", "Bool", "Obj", "Array"}

	// stepTypeCodes are the icon names the service knows how to render.
	stepTypeCodes = []string{
		"SequenceCall", "WATS_SeqCall", "Action", "ET_A", "Label", "CallExecutable",
		"MessagePopup", "PropertyLoader", "GenericStep", "AdditionalResults", "Statement",
		"NI_Wait", "Wait", "WATS_XYGMNLT", "WATSFile", "ET_PFT", "ET_MPFT", "ET_SVT",
		"ET_MSVT", "ET_NLT", "ET_MNLT", "ET_XMLPT", "NumericLimitTest", "StringValueTest",
		"PassFailTest",
	}
)

func (t ReportType) Valid() bool    { return slices.Contains(reportTypeCodes, string(t)) }
func (g StepGroup) Valid() bool     { return slices.Contains(stepGroupCodes, string(g)) }
func (s StepStatus) Valid() bool    { return slices.Contains(stepStatusCodes, string(s)) }
func (s ResultStatus) Valid() bool  { return slices.Contains(resultStatusCodes, string(s)) }
func (s MeasureStatus) Valid() bool { return slices.Contains(measureCodes, string(s)) }
func (o StringCompOp) Valid() bool  { return slices.Contains(stringOpCodes, string(o)) }
func (o NumericCompOp) Valid() bool { return slices.Contains(numericOpCodes, string(o)) }
func (c ChartType) Valid() bool     { return slices.Contains(chartTypeCodes, string(c)) }

func (t AdditionalDataType) Valid() bool { return slices.Contains(dataTypeCodes, string(t)) }

// IsLog reports whether the operator only records the value.
func (o StringCompOp) IsLog() bool { return o == StringLog || o == StringLogData }

// IsLog reports whether the operator only records the value.
func (o NumericCompOp) IsLog() bool { return o == NumericLog || o == NumericLogData }

// IsSingleLimit reports whether the operator compares against lowLimit only.
func (o NumericCompOp) IsSingleLimit() bool {
	switch o {
	case NumericEQ, NumericEqual, NumericNE, NumericLT, NumericLE, NumericGT, NumericGE:
		return true
	}
	return false
}

// IsDualLimit reports whether the operator needs both lowLimit and highLimit.
func (o NumericCompOp) IsDualLimit() bool {
	return o.Valid() && !o.IsLog() && !o.IsSingleLimit()
}

// IsRecommendedStepType reports whether name is one of the step types with a known icon.
func IsRecommendedStepType(name string) bool { return slices.Contains(stepTypeCodes, name) }

// Vocabulary lists the codes accepted in one wire field.
type Vocabulary struct {
	Name  string   `json:"name"`
	Field string   `json:"field"`
	Codes []string `json:"codes"`
}

// Vocabularies returns every closed code set in declaration order.
func Vocabularies() []Vocabulary {
	return []Vocabulary{
		{Name: "ReportType", Field: "type", Codes: ReportTypeCodes()},
		{Name: "StepGroup", Field: "group", Codes: StepGroupCodes()},
		{Name: "StepStatus", Field: "status", Codes: StepStatusCodes()},
		{Name: "ResultStatus", Field: "result", Codes: ResultStatusCodes()},
		{Name: "MeasureStatus", Field: "status", Codes: MeasureStatusCodes()},
		{Name: "StringCompOp", Field: "compOp", Codes: StringCompOpCodes()},
		{Name: "NumericCompOp", Field: "compOp", Codes: NumericCompOpCodes()},
		{Name: "ChartType", Field: "chartType", Codes: ChartTypeCodes()},
		{Name: "AdditionalDataType", Field: "type", Codes: AdditionalDataTypeCodes()},
		{Name: "StepType", Field: "stepType", Codes: StepTypeCodes()},
	}
}

func ReportTypeCodes() []string         { return slices.Clone(reportTypeCodes) }
func StepGroupCodes() []string          { return slices.Clone(stepGroupCodes) }
func StepStatusCodes() []string         { return slices.Clone(stepStatusCodes) }
func ResultStatusCodes() []string       { return slices.Clone(resultStatusCodes) }
func MeasureStatusCodes() []string      { return slices.Clone(measureCodes) }
func StringCompOpCodes() []string       { return slices.Clone(stringOpCodes) }
func NumericCompOpCodes() []string      { return slices.Clone(numericOpCodes) }
func ChartTypeCodes() []string          { return slices.Clone(chartTypeCodes) }
func AdditionalDataTypeCodes() []string { return slices.Clone(dataTypeCodes) }
func StepTypeCodes() []string           { return slices.Clone(stepTypeCodes) }
