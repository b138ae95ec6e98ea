package report

import (
	"github.com/tidwall/gjson"

	"github.com/dshills/watscheck/internal/rule"
	"github.com/dshills/watscheck/internal/schema"
	"github.com/dshills/watscheck/internal/violation"
)

var miscInfoFields = rule.Set{
	rule.String("description").Required().Length(1, 100),
	rule.String("text").Length(1, 100),
	rule.Decimal("numeric").Int32(),
}

var subUnitFields = rule.Set{
	rule.String("partType").Required().Length(1, 50),
	rule.String("pn").Required().Length(1, 100),
	rule.String("rev").Required().Length(1, 100),
	rule.String("sn").Required().Length(1, 100),
}

var assetFields = rule.Set{
	rule.String("assetSN").Required().Length(1, 100),
	rule.Integer("usageCount").Required().Above(0).Below(1000),
}

var additionalDataFields = rule.Set{
	rule.String("name").Required().Length(1, 100),
	rule.Array("props").Required(),
}

var propFields = rule.Set{
	rule.String("name").Required(),
	rule.Enum("type", schema.AdditionalDataTypeCodes()).Required(),
	rule.Integer("flags").Int32(),
	rule.String("value"),
	rule.String("comment"),
	rule.Array("props"),
	rule.Array("array"),
}

func checkList(list gjson.Result, name string, fields rule.Set) violation.List {
	var out violation.List
	if !list.IsArray() {
		return out
	}
	for i, item := range list.Array() {
		at := violation.Path{name}.Index(i)
		if !item.IsObject() {
			out.Add(violation.Structural, at, "expected an object, got %s", rule.TypeName(item))
			continue
		}
		out.Merge(fields.Check(item, at))
	}
	return out
}

func checkMiscInfos(list gjson.Result) violation.List {
	out := checkList(list, "miscInfos", miscInfoFields)
	if !list.IsArray() {
		return out
	}
	for i, item := range list.Array() {
		if !item.IsObject() {
			continue
		}
		if rule.Absent(item.Get("text")) && rule.Absent(item.Get("numeric")) {
			out.Add(violation.Structural, violation.Path{"miscInfos"}.Index(i).Key("text"),
				`either "text" or "numeric" requires a value`)
		}
	}
	return out
}

func checkAdditionalData(list gjson.Result) violation.List {
	out := checkList(list, "additionalData", additionalDataFields)
	if !list.IsArray() {
		return out
	}
	for i, item := range list.Array() {
		if props := item.Get("props"); props.IsArray() {
			out.Merge(checkProps(props, violation.Path{"additionalData"}.Index(i).Key("props")))
		}
	}
	return out
}

func checkProps(props gjson.Result, at violation.Path) violation.List {
	var out violation.List
	for i, prop := range props.Array() {
		p := at.Index(i)
		if !prop.IsObject() {
			out.Add(violation.Structural, p, "expected a property object, got %s", rule.TypeName(prop))
			continue
		}
		out.Merge(propFields.Check(prop, p))
		if !propFields.Valid(prop, "type") {
			continue
		}
		switch schema.AdditionalDataType(prop.Get("type").Str) {
		case schema.DataNumber, schema.DataString, schema.DataBool:
			if rule.Absent(prop.Get("value")) {
				out.Add(violation.Structural, p.Key("value"), "value is required for type %s", prop.Get("type").Str)
			}
		case schema.DataObj:
			if !rule.Absent(prop.Get("array")) {
				out.Add(violation.Structural, p.Key("array"), "array is only used by type Array")
			}
		case schema.DataArray:
			if !rule.Absent(prop.Get("props")) {
				out.Add(violation.Structural, p.Key("props"), "props is only used by type Obj")
			}
		}
		if sub := prop.Get("props"); sub.IsArray() {
			out.Merge(checkProps(sub, p.Key("props")))
		}
	}
	return out
}
