package step

import (
	"regexp"

	"github.com/dshills/watscheck/internal/rule"
	"github.com/dshills/watscheck/internal/schema"
)

// Timestamp matches the date, optional time, fraction and UTC offset the
// service accepts in start fields.
var Timestamp = regexp.MustCompile(`^(\d{2,4}-\d{1,2}-\d{1,2})(T\d{2}:\d{2}:\d{2}(\.\d{1,10})?(Z|[+-]\d{1,2}:?\d{2})?)?$`)

var seriesData = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:;[+-]?(?:\d+(?:\.\d*)?|\.\d+))*$`)

const maxSeriesPoints = 10000

var stepFields = rule.Set{
	rule.Integer("id").Required().Between(0, rule.MaxInt32),
	rule.Enum("group", schema.StepGroupCodes()).Required(),
	rule.String("stepType").Required().Length(1, 100),
	rule.String("name").Required().Length(1, 100),
	rule.Enum("status", schema.StepStatusCodes()).Required(),
	rule.String("start").Pattern(Timestamp),
	rule.Integer("errorCode").Int32(),
	rule.String("errorMessage").Length(1, 200),
	rule.String("tsGuid").MaxLength(30),
	rule.Decimal("totTime").Min(0),
	rule.Bool("causedSeqFailure"),
	rule.Bool("causedUUTFailure"),
	rule.String("reportText").Length(1, 5000),
	rule.Object("loop"),
	rule.Object("messagePopup"),
	rule.Array("booleanMeas"),
	rule.Array("stringMeas"),
	rule.Array("numericMeas"),
	rule.Object("callExe"),
	rule.Object("seqCall"),
	rule.Array("steps"),
	rule.Object("chart"),
	rule.Object("attachment"),
}

var loopFields = rule.Set{
	rule.Integer("idx").Int32(),
	rule.Integer("num").Required().Int32(),
	rule.Integer("endingIndex").Required().Int32(),
	rule.Integer("passed").Required().Int32(),
	rule.Integer("failed").Required().Int32(),
}

var messagePopupFields = rule.Set{
	rule.Integer("button").Required().Between(-32768, 32767),
	rule.String("buttonFormat"),
	rule.String("response").Required().Length(1, 100),
}

var callExeFields = rule.Set{
	rule.Integer("exitCode").Required().Int32(),
	rule.String("exitCodeFormat"),
}

var seqCallFields = rule.Set{
	rule.String("path").Required().Length(1, 500),
	rule.String("name").Required().Length(1, 200),
	rule.String("version").Required().Length(1, 30),
}

var chartFields = rule.Set{
	rule.Enum("chartType", schema.ChartTypeCodes()).Required(),
	rule.String("label").Required().Length(1, 100),
	rule.String("xLabel").Required().Length(1, 50),
	rule.String("xUnit").Required().Length(1, 20),
	rule.String("yLabel").Required().Length(1, 50),
	rule.String("yUnit").Required().Length(1, 20),
	rule.Array("series").MaxLength(10),
}

var seriesFields = rule.Set{
	rule.Enum("dataType", []string{schema.SeriesDataType}).Required(),
	rule.String("name").Required().Length(1, 100),
	rule.String("xdata").Required().Pattern(seriesData),
	rule.String("ydata").Required().Pattern(seriesData),
}

var attachmentFields = rule.Set{
	rule.String("name").Required().Length(1, 100),
	rule.String("contentType").Required().Length(1, 100),
	rule.String("data").Required(),
}
