package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/mo"
)

// Frequency is the calendar unit a rule repeats in
type Frequency int

const (
	Daily Frequency = iota + 1
	Weekly
	Monthly
	Yearly
)

func (f Frequency) String() string {
	switch f {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Yearly:
		return "yearly"
	default:
		return fmt.Sprintf("Frequency(%d)", int(f))
	}
}

func (f Frequency) valid() bool {
	return f >= Daily && f <= Yearly
}

// ParseFrequency accepts "daily", "weekly", "monthly" and "yearly" in any case
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "monthly":
		return Monthly, nil
	case "yearly":
		return Yearly, nil
	}
	return 0, &RuleError{Violations: []Violation{{Field: "frequency", Reason: fmt.Sprintf("unknown value %q", s)}}}
}

// WeekdaySet is a set of weekdays. Iteration order is Monday first,
// Sunday last.
type WeekdaySet uint8

// NewWeekdaySet builds a set, ignoring values outside Sunday..Saturday
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		if validWeekday(d) {
			s |= 1 << uint(d)
		}
	}
	return s
}

func (s WeekdaySet) Has(d time.Weekday) bool {
	return validWeekday(d) && s&(1<<uint(d)) != 0
}

func (s WeekdaySet) Len() int {
	n := 0
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			n++
		}
	}
	return n
}

func (s WeekdaySet) IsEmpty() bool {
	return s == 0
}

// Days lists the members ordered Monday..Sunday
func (s WeekdaySet) Days() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for i := 0; i < 7; i++ {
		d := weekdayAt(i)
		if s.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

// offsets returns the member positions within a Monday-based week
func (s WeekdaySet) offsets() []int {
	out := make([]int, 0, 7)
	for i := 0; i < 7; i++ {
		if s.Has(weekdayAt(i)) {
			out = append(out, i)
		}
	}
	return out
}

func validWeekday(d time.Weekday) bool {
	return d >= time.Sunday && d <= time.Saturday
}

// weekdayAt maps a Monday-based offset (0..6) to a weekday
func weekdayAt(offset int) time.Weekday {
	return time.Weekday((offset + 1) % 7)
}

// mondayOffset maps a weekday to its Monday-based offset (0..6)
func mondayOffset(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// Occurrence is one concrete happening of an event
type Occurrence struct {
	Start time.Time
	End   mo.Option[time.Time]
}

// EndOrStart returns End when present, otherwise Start
func (o Occurrence) EndOrStart() time.Time {
	return o.End.OrElse(o.Start)
}

// BaseEvent is the anchor of all recurrence math. A nil Rule means a
// single, non-recurring event.
type BaseEvent struct {
	Start time.Time
	End   mo.Option[time.Time]
	Rule  *Rule
}

// Duration is End minus Start. Missing or inverted ends count as zero.
func (b BaseEvent) Duration() time.Duration {
	end, ok := b.End.Get()
	if !ok || end.Before(b.Start) {
		return 0
	}
	return end.Sub(b.Start)
}

// IsRecurring reports whether the event carries a rule
func (b BaseEvent) IsRecurring() bool {
	return b.Rule != nil
}

// clippedAway reports whether the rule's end date falls before the base
// date, leaving no occurrence at all
func (b BaseEvent) clippedAway() bool {
	if b.Rule == nil {
		return false
	}
	end, ok := b.Rule.endDate.Get()
	return ok && end.before(dateOf(b.Start))
}

// occurrenceAt builds the occurrence starting at start
func (b BaseEvent) occurrenceAt(start time.Time) Occurrence {
	occ := Occurrence{Start: start, End: mo.None[time.Time]()}
	if b.End.IsPresent() {
		occ.End = mo.Some(start.Add(b.Duration()))
	}
	return occ
}

// Status is where an event sits relative to a reference instant
type Status int

const (
	StatusUpcoming Status = iota + 1
	StatusOngoing
	StatusPast
)

func (s Status) String() string {
	switch s {
	case StatusUpcoming:
		return "upcoming"
	case StatusOngoing:
		return "ongoing"
	case StatusPast:
		return "past"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
