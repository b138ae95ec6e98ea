// Package schema defines the wire types of a WATS test report.
//
// Field names and nesting are the external contract of the reporting service and
// must not change. Optional fields are pointers or omitempty so an absent field
// stays absent when a report is serialized again.
package schema

import (
	"github.com/google/uuid"
)

// Report is the document root: one unit-under-test execution.
type Report struct {
	Type              ReportType   `json:"type"`
	ID                uuid.UUID    `json:"id"`
	PN                string       `json:"pn"`
	SN                string       `json:"sn"`
	Rev               string       `json:"rev"`
	ProductName       string       `json:"productName,omitempty"`
	ProcessCode       int          `json:"processCode"`
	ProcessCodeFormat string       `json:"processCodeFormat,omitempty"`
	ProcessName       string       `json:"processName,omitempty"`
	Result            ResultStatus `json:"result"`
	MachineName       string       `json:"machineName"`
	Location          string       `json:"location"`
	Purpose           string       `json:"purpose"`
	Origin            string       `json:"origin,omitempty"`
	Start             string       `json:"start"`
	StartUTC          string       `json:"startUTC,omitempty"`
	Root              Step         `json:"root"`
	UUT               UUT          `json:"uut"`

	MiscInfos      []MiscInfo       `json:"miscInfos,omitempty"`
	SubUnits       []SubUnit        `json:"subUnits,omitempty"`
	Assets         []Asset          `json:"assets,omitempty"`
	AdditionalData []AdditionalData `json:"additionalData,omitempty"`
}

// UUT describes the execution context of the unit under test.
type UUT struct {
	ExecTime        *Number `json:"execTime,omitempty"`
	TestSocketIndex *int    `json:"testSocketIndex,omitempty"`
	BatchSN         *string `json:"batchSN,omitempty"`
	Comment         *string `json:"comment,omitempty"`
	ErrorCode       *int    `json:"errorCode,omitempty"`
	ErrorMessage    *string `json:"errorMessage,omitempty"`
	FixtureID       *string `json:"fixtureId,omitempty"`
	User            string  `json:"user"`
	BatchFailCount  *int    `json:"batchFailCount,omitempty"`
	BatchLoopIndex  *int    `json:"batchLoopIndex,omitempty"`
}

// MiscInfo is a free-form key/value pair shown on the report header.
// At least one of Text and Numeric is set.
type MiscInfo struct {
	Description string  `json:"description"`
	Text        string  `json:"text,omitempty"`
	Numeric     *Number `json:"numeric,omitempty"`
}

// SubUnit is a part assembled into the unit under test.
type SubUnit struct {
	PartType string `json:"partType"`
	PN       string `json:"pn"`
	Rev      string `json:"rev"`
	SN       string `json:"sn"`
}

// Asset is a piece of test equipment and how often it has been used.
type Asset struct {
	AssetSN    string `json:"assetSN"`
	UsageCount int    `json:"usageCount"`
}

// AdditionalData is a named tree of typed properties.
type AdditionalData struct {
	Name  string               `json:"name"`
	Props []AdditionalDataProp `json:"props"`
}

// AdditionalDataProp is one property of an AdditionalData tree.
type AdditionalDataProp struct {
	Name    string               `json:"name"`
	Type    AdditionalDataType   `json:"type"`
	Flags   *int                 `json:"flags,omitempty"`
	Value   *string              `json:"value,omitempty"`
	Comment *string              `json:"comment,omitempty"`
	Props   []AdditionalDataProp `json:"props,omitempty"`
	Array   []any                `json:"array,omitempty"`
}

// Step is one node of the execution tree. At most one payload
// (MessagePopup, a measurement list, CallExe or SeqCall) is set, and
// Steps is only used together with SeqCall.
type Step struct {
	ID               int        `json:"id"`
	Group            StepGroup  `json:"group"`
	StepType         string     `json:"stepType"`
	Name             string     `json:"name"`
	Status           StepStatus `json:"status"`
	Start            string     `json:"start,omitempty"`
	ErrorCode        *int       `json:"errorCode,omitempty"`
	ErrorMessage     string     `json:"errorMessage,omitempty"`
	TSGuid           *string    `json:"tsGuid,omitempty"`
	TotTime          *Number    `json:"totTime,omitempty"`
	CausedSeqFailure *bool      `json:"causedSeqFailure,omitempty"`
	CausedUUTFailure *bool      `json:"causedUUTFailure,omitempty"`
	ReportText       string     `json:"reportText,omitempty"`
	Loop             *LoopInfo  `json:"loop,omitempty"`

	MessagePopup *MessagePopup        `json:"messagePopup,omitempty"`
	BooleanMeas  []BooleanMeasurement `json:"booleanMeas,omitempty"`
	StringMeas   []StringMeasurement  `json:"stringMeas,omitempty"`
	NumericMeas  []NumericMeasurement `json:"numericMeas,omitempty"`
	CallExe      *CallExe             `json:"callExe,omitempty"`
	SeqCall      *SeqCall             `json:"seqCall,omitempty"`
	Steps        []Step               `json:"steps,omitempty"`

	Chart      *Chart      `json:"chart,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// LoopInfo records the iteration a looped step ran in.
type LoopInfo struct {
	Idx         *int `json:"idx,omitempty"`
	Num         int  `json:"num"`
	EndingIndex int  `json:"endingIndex"`
	Passed      int  `json:"passed"`
	Failed      int  `json:"failed"`
}

// MessagePopup records an operator dialog and the answer given.
type MessagePopup struct {
	Button       int     `json:"button"`
	ButtonFormat *string `json:"buttonFormat,omitempty"`
	Response     string  `json:"response"`
}

// CallExe records an external program call.
type CallExe struct {
	ExitCode       int     `json:"exitCode"`
	ExitCodeFormat *string `json:"exitCodeFormat,omitempty"`
}

// SeqCall marks a step as a sequence container.
type SeqCall struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Chart is an XY graph attached to a step.
type Chart struct {
	ChartType ChartType     `json:"chartType"`
	Label     string        `json:"label"`
	XLabel    string        `json:"xLabel"`
	XUnit     string        `json:"xUnit"`
	YLabel    string        `json:"yLabel"`
	YUnit     string        `json:"yUnit"`
	Series    []ChartSeries `json:"series,omitempty"`
}

// ChartSeries holds semicolon separated x and y values.
type ChartSeries struct {
	DataType string `json:"dataType"`
	Name     string `json:"name"`
	XData    string `json:"xdata"`
	YData    string `json:"ydata"`
}

// Attachment is a base64 encoded file attached to a step.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        string `json:"data"`
}

// BooleanMeasurement is a pass/fail measurement.
type BooleanMeasurement struct {
	Name   string        `json:"name,omitempty"`
	Status MeasureStatus `json:"status"`
}

// StringMeasurement compares a string value against a limit.
type StringMeasurement struct {
	CompOp StringCompOp  `json:"compOp"`
	Name   string        `json:"name,omitempty"`
	Status MeasureStatus `json:"status"`
	Value  string        `json:"value"`
	Limit  *string       `json:"limit,omitempty"`
}

// NumericMeasurement compares a decimal value against one or two limits.
type NumericMeasurement struct {
	CompOp    NumericCompOp `json:"compOp"`
	Name      string        `json:"name,omitempty"`
	Status    MeasureStatus `json:"status"`
	Unit      string        `json:"unit"`
	Value     Number        `json:"value"`
	LowLimit  *Number       `json:"lowLimit,omitempty"`
	HighLimit *Number       `json:"highLimit,omitempty"`
}
