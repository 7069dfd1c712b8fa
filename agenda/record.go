package agenda

import (
	"fmt"
	"strings"
	"time"

	"github.com/cyp0633/vereincal/recurrence"
	"github.com/samber/mo"
)

// Record is an association event as stored by the membership backend.
// The serialized field names follow the backend's entity.
type Record struct {
	ID            int        `json:"id" yaml:"id"`
	AssociationID int        `json:"vereinId" yaml:"vereinId"`
	Title         string     `json:"titel" yaml:"titel"`
	Description   string     `json:"beschreibung,omitempty" yaml:"beschreibung,omitempty"`
	Start         time.Time  `json:"startdatum" yaml:"startdatum"`
	End           *time.Time `json:"enddatum,omitempty" yaml:"enddatum,omitempty"`
	Location      string     `json:"ort,omitempty" yaml:"ort,omitempty"`

	Recurring bool `json:"istWiederholend" yaml:"istWiederholend"`

	// RecurrenceType is one of daily, weekly, monthly or yearly.
	// RecurrenceDays lists weekdays as "Mon,Wed,Fri".
	RecurrenceType     string     `json:"wiederholungTyp,omitempty" yaml:"wiederholungTyp,omitempty"`
	RecurrenceInterval *int       `json:"wiederholungInterval,omitempty" yaml:"wiederholungInterval,omitempty"`
	RecurrenceEnd      *time.Time `json:"wiederholungEnde,omitempty" yaml:"wiederholungEnde,omitempty"`
	RecurrenceDays     string     `json:"wiederholungTage,omitempty" yaml:"wiederholungTage,omitempty"`
	RecurrenceMonthDay *int       `json:"wiederholungMonatTag,omitempty" yaml:"wiederholungMonatTag,omitempty"`
}

// BaseEvent converts the record into the engine's input. Records that
// are not recurring, or carry no recurrence type, map to a single event.
// Invalid recurrence fields fail with recurrence.ErrInvalidRule.
func (r Record) BaseEvent() (recurrence.BaseEvent, error) {
	base := recurrence.BaseEvent{Start: r.Start, End: mo.None[time.Time]()}
	if r.End != nil {
		base.End = mo.Some(*r.End)
	}
	if !r.Recurring || strings.TrimSpace(r.RecurrenceType) == "" {
		return base, nil
	}

	freq, err := recurrence.ParseFrequency(r.RecurrenceType)
	if err != nil {
		return recurrence.BaseEvent{}, fmt.Errorf("event %d: %w", r.ID, err)
	}

	var opts []recurrence.RuleOption
	if r.RecurrenceInterval != nil {
		opts = append(opts, recurrence.WithInterval(*r.RecurrenceInterval))
	}
	if r.RecurrenceEnd != nil {
		opts = append(opts, recurrence.WithEndDate(*r.RecurrenceEnd))
	}
	if freq == recurrence.Weekly && strings.TrimSpace(r.RecurrenceDays) != "" {
		days, err := ParseWeekdays(r.RecurrenceDays)
		if err != nil {
			return recurrence.BaseEvent{}, fmt.Errorf("event %d: %w", r.ID, err)
		}
		opts = append(opts, recurrence.WithWeekdays(days...))
	}
	if freq == recurrence.Monthly && r.RecurrenceMonthDay != nil {
		opts = append(opts, recurrence.WithDayOfMonth(*r.RecurrenceMonthDay))
	}

	rule, err := recurrence.NewRule(freq, opts...)
	if err != nil {
		return recurrence.BaseEvent{}, fmt.Errorf("event %d: %w", r.ID, err)
	}
	base.Rule = rule
	return base, nil
}

var weekdayNames = map[string]time.Weekday{
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
	"sun": time.Sunday, "sunday": time.Sunday,
}

// ParseWeekdays reads a comma-separated list such as "Mon,Wed,Fri".
// Names are case-insensitive and may be written out in full.
func ParseWeekdays(s string) ([]time.Weekday, error) {
	var days []time.Weekday
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		day, ok := weekdayNames[name]
		if !ok {
			return nil, &recurrence.RuleError{Violations: []recurrence.Violation{{
				Field:  "weekdays",
				Reason: fmt.Sprintf("unknown weekday %q", strings.TrimSpace(part)),
			}}}
		}
		days = append(days, day)
	}
	return days, nil
}

// FormatWeekdays writes days Monday first as "Mon,Wed,Fri", dropping
// duplicates
func FormatWeekdays(days []time.Weekday) string {
	set := recurrence.NewWeekdaySet(days...)
	codes := make([]string, 0, set.Len())
	for _, d := range set.Days() {
		codes = append(codes, d.String()[:3])
	}
	return strings.Join(codes, ",")
}
