package agenda

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/beevik/etree"
	"github.com/emersion/go-ical"
)

// XCalNamespace is the RFC 6321 namespace
const XCalNamespace = "urn:ietf:params:xml:ns:icalendar-2.0"

// xcalValueTypes names the value element of properties that are not text
var xcalValueTypes = map[string]string{
	ical.PropDateTimeStart:  "date-time",
	ical.PropDateTimeEnd:    "date-time",
	ical.PropDateTimeStamp:  "date-time",
	ical.PropCreated:        "date-time",
	ical.PropLastModified:   "date-time",
	ical.PropRecurrenceID:   "date-time",
	ical.PropDuration:       "duration",
	ical.PropRecurrenceRule: "recur",
	ical.PropURL:            "uri",
}

// XCal renders a calendar as an xCal document
func XCal(cal *ical.Calendar) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	root := doc.CreateElement("icalendar")
	root.CreateAttr("xmlns", XCalNamespace)

	writeComponent(root, cal.Component)
	return doc
}

// WriteXCal encodes the feed of items as indented xCal
func WriteXCal(w io.Writer, items []Item, opts FeedOptions) error {
	doc := XCal(Feed(items, opts))
	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write xCal: %w", err)
	}
	return nil
}

func writeComponent(parent *etree.Element, comp *ical.Component) {
	elem := parent.CreateElement(strings.ToLower(comp.Name))

	names := make([]string, 0, len(comp.Props))
	for name := range comp.Props {
		names = append(names, name)
	}
	slices.Sort(names)

	props := elem.CreateElement("properties")
	for _, name := range names {
		for _, prop := range comp.Props[name] {
			writeProp(props, &prop)
		}
	}

	if len(comp.Children) > 0 {
		children := elem.CreateElement("components")
		for _, child := range comp.Children {
			writeComponent(children, child)
		}
	}
}

func writeProp(parent *etree.Element, prop *ical.Prop) {
	elem := parent.CreateElement(strings.ToLower(prop.Name))

	var paramNames []string
	for name := range prop.Params {
		if name != ical.ParamValue {
			paramNames = append(paramNames, name)
		}
	}
	if len(paramNames) > 0 {
		slices.Sort(paramNames)
		params := elem.CreateElement("parameters")
		for _, name := range paramNames {
			param := params.CreateElement(strings.ToLower(name))
			for _, v := range prop.Params[name] {
				param.CreateElement("text").SetText(v)
			}
		}
	}

	valueType, ok := xcalValueTypes[prop.Name]
	if !ok {
		valueType = "text"
	}
	switch valueType {
	case "date-time":
		if prop.ValueType() == ical.ValueDate {
			elem.CreateElement("date").SetText(xcalDate(prop.Value))
		} else {
			elem.CreateElement("date-time").SetText(xcalDate(prop.Value))
		}
	case "recur":
		writeRecur(elem.CreateElement("recur"), prop.Value)
	case "text":
		text, err := prop.Text()
		if err != nil {
			text = prop.Value
		}
		elem.CreateElement("text").SetText(text)
	default:
		elem.CreateElement(valueType).SetText(prop.Value)
	}
}

// writeRecur splits an RRULE value into one element per part and value
func writeRecur(elem *etree.Element, value string) {
	for _, part := range strings.Split(value, ";") {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(key)
		if key == "until" {
			elem.CreateElement(key).SetText(xcalDate(val))
			continue
		}
		for _, v := range strings.Split(val, ",") {
			elem.CreateElement(key).SetText(v)
		}
	}
}

// xcalDate turns 20240101T180000Z into 2024-01-01T18:00:00Z and 20240601
// into 2024-06-01
func xcalDate(v string) string {
	switch {
	case len(v) == 8:
		return v[0:4] + "-" + v[4:6] + "-" + v[6:8]
	case len(v) >= 15 && v[8] == 'T':
		return v[0:4] + "-" + v[4:6] + "-" + v[6:8] + "T" + v[9:11] + ":" + v[11:13] + ":" + v[13:15] + v[15:]
	}
	return v
}
