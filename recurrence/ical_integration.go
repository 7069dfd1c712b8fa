package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/samber/mo"
)

// ExtractBaseEvent reads DTSTART, DTEND or DURATION, and RRULE from an
// iCalendar component
func ExtractBaseEvent(comp *ical.Component) (BaseEvent, error) {
	start, err := comp.Props.DateTime(ical.PropDateTimeStart, nil)
	if err != nil {
		return BaseEvent{}, fmt.Errorf("failed to read DTSTART: %w", err)
	}
	if start.IsZero() {
		return BaseEvent{}, fmt.Errorf("component %s has no DTSTART", comp.Name)
	}

	base := BaseEvent{Start: start, End: mo.None[time.Time]()}

	if end, err := comp.Props.DateTime(ical.PropDateTimeEnd, nil); err == nil && !end.IsZero() {
		// An all-day event whose DTEND repeats the start date lasts the whole day
		if isAllDayDate(start) && dateOf(start) == dateOf(end) {
			end = start.AddDate(0, 0, 1)
		}
		base.End = mo.Some(end)
	} else if durationProp := comp.Props.Get(ical.PropDuration); durationProp != nil {
		duration, err := durationProp.Duration()
		if err != nil {
			return BaseEvent{}, fmt.Errorf("failed to read DURATION: %w", err)
		}
		base.End = mo.Some(start.Add(duration))
	}

	if rruleProp := comp.Props.Get(ical.PropRecurrenceRule); rruleProp != nil && strings.TrimSpace(rruleProp.Value) != "" {
		rule, err := ParseRRule(rruleProp.Value, start)
		if err != nil {
			return BaseEvent{}, fmt.Errorf("failed to read RRULE %q: %w", rruleProp.Value, err)
		}
		base.Rule = rule
	}

	return base, nil
}

// ApplyToComponent writes the event's DTSTART, DTEND and RRULE, replacing
// any previous values
func ApplyToComponent(comp *ical.Component, base BaseEvent) {
	comp.Props.SetDateTime(ical.PropDateTimeStart, base.Start)

	if end, ok := base.End.Get(); ok {
		comp.Props.SetDateTime(ical.PropDateTimeEnd, end)
	} else {
		comp.Props.Del(ical.PropDateTimeEnd)
	}
	comp.Props.Del(ical.PropDuration)

	if base.Rule == nil {
		comp.Props.Del(ical.PropRecurrenceRule)
		return
	}
	// the value is set raw; SetText would escape the separators
	prop := ical.NewProp(ical.PropRecurrenceRule)
	prop.Value = base.Rule.RRuleString(base.Start)
	comp.Props.Set(prop)
}

// isAllDayDate checks if a time represents an all-day date (time part is midnight)
func isAllDayDate(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0
}
