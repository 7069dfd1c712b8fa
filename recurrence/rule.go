package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/mo"
)

// Rule describes how a base event repeats. Rules are immutable; build
// them with NewRule.
type Rule struct {
	freq       Frequency
	interval   int
	endDate    mo.Option[civilDate]
	weekdays   WeekdaySet
	dayOfMonth int // 0 when unset
}

// RuleOption configures a rule under construction
type RuleOption func(*ruleBuilder)

type ruleBuilder struct {
	interval    int
	endDate     mo.Option[civilDate]
	weekdays    []time.Weekday
	hasWeekdays bool
	dayOfMonth  mo.Option[int]
}

// WithInterval repeats every n-th unit. Defaults to 1.
func WithInterval(n int) RuleOption {
	return func(b *ruleBuilder) {
		b.interval = n
	}
}

// WithEndDate bounds the series inclusively by the calendar date of t.
// The time-of-day of t is ignored.
func WithEndDate(t time.Time) RuleOption {
	return func(b *ruleBuilder) {
		b.endDate = mo.Some(dateOf(t))
	}
}

// WithWeekdays selects the weekdays of a weekly rule
func WithWeekdays(days ...time.Weekday) RuleOption {
	return func(b *ruleBuilder) {
		b.weekdays = append([]time.Weekday(nil), days...)
		b.hasWeekdays = true
	}
}

// WithDayOfMonth selects the day (1-31) of a monthly rule
func WithDayOfMonth(day int) RuleOption {
	return func(b *ruleBuilder) {
		b.dayOfMonth = mo.Some(day)
	}
}

// NewRule validates the options and builds a rule. All violations are
// reported together in a *RuleError.
func NewRule(freq Frequency, opts ...RuleOption) (*Rule, error) {
	b := ruleBuilder{interval: 1}
	for _, opt := range opts {
		opt(&b)
	}

	var violations []Violation
	if !freq.valid() {
		violations = append(violations, Violation{Field: "frequency", Reason: fmt.Sprintf("unknown value %d", int(freq))})
	}
	if b.interval < 1 {
		violations = append(violations, Violation{Field: "interval", Reason: fmt.Sprintf("must be at least 1, got %d", b.interval)})
	}
	if day, ok := b.dayOfMonth.Get(); ok && (day < 1 || day > 31) {
		violations = append(violations, Violation{Field: "dayOfMonth", Reason: fmt.Sprintf("must be within 1..31, got %d", day)})
	}
	if b.hasWeekdays {
		if len(b.weekdays) == 0 {
			violations = append(violations, Violation{Field: "weekdays", Reason: "must not be empty"})
		}
		for _, d := range b.weekdays {
			if !validWeekday(d) {
				violations = append(violations, Violation{Field: "weekdays", Reason: fmt.Sprintf("invalid weekday %d", int(d))})
			}
		}
	}
	if len(violations) > 0 {
		return nil, &RuleError{Violations: violations}
	}

	r := &Rule{
		freq:     freq,
		interval: b.interval,
		endDate:  b.endDate,
	}
	// weekdays and day-of-month only shape their own frequency
	if freq == Weekly && b.hasWeekdays {
		r.weekdays = NewWeekdaySet(b.weekdays...)
	}
	if freq == Monthly {
		r.dayOfMonth = b.dayOfMonth.OrEmpty()
	}
	return r, nil
}

// MustRule is NewRule that panics on invalid input. Meant for fixtures.
func MustRule(freq Frequency, opts ...RuleOption) *Rule {
	r, err := NewRule(freq, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Rule) Frequency() Frequency {
	return r.freq
}

func (r *Rule) Interval() int {
	return r.interval
}

// EndDate returns the inclusive end date at midnight UTC
func (r *Rule) EndDate() mo.Option[time.Time] {
	d, ok := r.endDate.Get()
	if !ok {
		return mo.None[time.Time]()
	}
	return mo.Some(d.utcMidnight())
}

// Weekdays returns the explicit weekdays of a weekly rule, Monday first.
// Empty means the weekday of the base start.
func (r *Rule) Weekdays() []time.Weekday {
	return r.weekdays.Days()
}

// DayOfMonth returns the explicit day of a monthly rule
func (r *Rule) DayOfMonth() mo.Option[int] {
	if r.dayOfMonth == 0 {
		return mo.None[int]()
	}
	return mo.Some(r.dayOfMonth)
}

// Equal reports whether both rules generate the same series
func (r *Rule) Equal(o *Rule) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.freq == o.freq &&
		r.interval == o.interval &&
		r.endDate == o.endDate &&
		r.weekdays == o.weekdays &&
		r.dayOfMonth == o.dayOfMonth
}

func (r *Rule) String() string {
	if r == nil {
		return "none"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s/%d", r.freq, r.interval)
	if !r.weekdays.IsEmpty() {
		names := make([]string, 0, 7)
		for _, d := range r.weekdays.Days() {
			names = append(names, weekdayCode(d))
		}
		fmt.Fprintf(&sb, " on %s", strings.Join(names, ","))
	}
	if r.dayOfMonth != 0 {
		fmt.Fprintf(&sb, " day %d", r.dayOfMonth)
	}
	if d, ok := r.endDate.Get(); ok {
		fmt.Fprintf(&sb, " until %s", d)
	}
	return sb.String()
}

// weekdaysFor resolves the effective weekday set against an anchor
func (r *Rule) weekdaysFor(anchor civilDate) WeekdaySet {
	if r.weekdays.IsEmpty() {
		return NewWeekdaySet(anchor.weekday())
	}
	return r.weekdays
}

// dayFor resolves the effective day of month against an anchor
func (r *Rule) dayFor(anchor civilDate) int {
	if r.dayOfMonth != 0 {
		return r.dayOfMonth
	}
	return anchor.day
}
