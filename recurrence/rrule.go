package recurrence

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// rruleWeekdays is indexed by Monday-based offset
var rruleWeekdays = [7]rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

// ROption encodes the rule as an RFC 5545 recurrence anchored at dtstart.
//
// Day-of-month clamping has no direct RRULE form, so days past the 28th
// become BYMONTHDAY=28,...,d;BYSETPOS=-1, which picks the d-th day or the
// month's last day when it is shorter. Yearly rules anchored on Feb 29
// use the same trick on February.
func (r *Rule) ROption(dtstart time.Time) *rrule.ROption {
	anchor := dateOf(dtstart)
	opt := &rrule.ROption{
		Dtstart:  dtstart,
		Interval: r.interval,
		Wkst:     rrule.MO,
	}

	switch r.freq {
	case Daily:
		opt.Freq = rrule.DAILY
	case Weekly:
		opt.Freq = rrule.WEEKLY
		for _, off := range r.weekdays.offsets() {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays[off])
		}
	case Monthly:
		opt.Freq = rrule.MONTHLY
		day := r.dayFor(anchor)
		switch {
		case day > 28:
			opt.Bymonthday = dayRange(28, day)
			opt.Bysetpos = []int{-1}
		case r.dayOfMonth != 0:
			opt.Bymonthday = []int{day}
		}
	case Yearly:
		opt.Freq = rrule.YEARLY
		if anchor.month == time.February && anchor.day == 29 {
			opt.Bymonth = []int{2}
			opt.Bymonthday = []int{28, 29}
			opt.Bysetpos = []int{-1}
		}
	}

	if end, ok := r.endDate.Get(); ok {
		opt.Until = lastInstantOf(end, dtstart.Location())
	}
	return opt
}

// RRule builds an rrule-go iterator for the rule anchored at dtstart
func (r *Rule) RRule(dtstart time.Time) (*rrule.RRule, error) {
	return rrule.NewRRule(*r.ROption(dtstart))
}

// RRuleString is the RRULE value of the rule, without the "RRULE:" prefix
func (r *Rule) RRuleString(dtstart time.Time) string {
	return r.ROption(dtstart).RRuleString()
}

// ParseRRule decodes an RRULE value, with or without the "RRULE:" prefix.
// Relative dates in the value are read in dtstart's location.
func ParseRRule(value string, dtstart time.Time) (*Rule, error) {
	value = strings.TrimPrefix(strings.TrimSpace(value), "RRULE:")
	opt, err := rrule.StrToROptionInLocation(value, dtstart.Location())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedRule, err)
	}
	return RuleFromROption(opt, dtstart)
}

// RuleFromROption converts the subset of RFC 5545 that ROption produces
// back into a Rule. COUNT, time-of-day parts and other selectors are
// rejected with ErrUnsupportedRule.
func RuleFromROption(opt *rrule.ROption, dtstart time.Time) (*Rule, error) {
	if opt == nil {
		return nil, fmt.Errorf("%w: empty rule", ErrUnsupportedRule)
	}
	unsupported := func(part string) error {
		return fmt.Errorf("%w: %s is not supported", ErrUnsupportedRule, part)
	}
	switch {
	case opt.Count != 0:
		return nil, unsupported("COUNT")
	case len(opt.Byhour) > 0, len(opt.Byminute) > 0, len(opt.Bysecond) > 0:
		return nil, unsupported("time-of-day selectors")
	case len(opt.Byyearday) > 0, len(opt.Byweekno) > 0, len(opt.Byeaster) > 0:
		return nil, unsupported("BYYEARDAY/BYWEEKNO/BYEASTER")
	}

	anchor := dateOf(dtstart)
	opts := []RuleOption{WithInterval(max(opt.Interval, 1))}
	if !opt.Until.IsZero() {
		opts = append(opts, WithEndDate(opt.Until.In(dtstart.Location())))
	}

	var freq Frequency
	switch opt.Freq {
	case rrule.DAILY:
		freq = Daily
		if len(opt.Byweekday) > 0 || len(opt.Bymonthday) > 0 || len(opt.Bymonth) > 0 || len(opt.Bysetpos) > 0 {
			return nil, unsupported("selectors on DAILY")
		}
	case rrule.WEEKLY:
		freq = Weekly
		if len(opt.Bymonthday) > 0 || len(opt.Bymonth) > 0 || len(opt.Bysetpos) > 0 {
			return nil, unsupported("selectors on WEEKLY")
		}
		if opt.Wkst.Day() != rrule.MO.Day() && opt.Interval > 1 {
			return nil, unsupported("WKST other than MO")
		}
		if len(opt.Byweekday) > 0 {
			days := make([]time.Weekday, 0, len(opt.Byweekday))
			for _, wd := range opt.Byweekday {
				if wd.N() != 0 {
					return nil, unsupported("BYDAY with ordinals")
				}
				days = append(days, weekdayAt(wd.Day()))
			}
			opts = append(opts, WithWeekdays(days...))
		}
	case rrule.MONTHLY:
		freq = Monthly
		if len(opt.Byweekday) > 0 || len(opt.Bymonth) > 0 {
			return nil, unsupported("BYDAY/BYMONTH on MONTHLY")
		}
		day, err := monthDayFrom(opt)
		if err != nil {
			return nil, err
		}
		if day != 0 && (day != anchor.day || len(opt.Bymonthday) == 1) {
			opts = append(opts, WithDayOfMonth(day))
		}
	case rrule.YEARLY:
		freq = Yearly
		if len(opt.Byweekday) > 0 {
			return nil, unsupported("BYDAY on YEARLY")
		}
		leapDay := anchor.month == time.February && anchor.day == 29
		plain := len(opt.Bymonth) == 0 && len(opt.Bymonthday) == 0 && len(opt.Bysetpos) == 0
		clamped := slices.Equal(opt.Bymonth, []int{2}) &&
			slices.Equal(opt.Bymonthday, []int{28, 29}) &&
			slices.Equal(opt.Bysetpos, []int{-1})
		if !plain && !(leapDay && clamped) {
			return nil, unsupported("selectors on YEARLY")
		}
	default:
		return nil, unsupported(fmt.Sprintf("FREQ=%v", opt.Freq))
	}

	return NewRule(freq, opts...)
}

// monthDayFrom reads a single BYMONTHDAY or the clamped 28..d form
func monthDayFrom(opt *rrule.ROption) (int, error) {
	switch {
	case len(opt.Bymonthday) == 0 && len(opt.Bysetpos) == 0:
		return 0, nil
	case len(opt.Bymonthday) == 1 && len(opt.Bysetpos) == 0:
		return opt.Bymonthday[0], nil
	case slices.Equal(opt.Bysetpos, []int{-1}) && len(opt.Bymonthday) > 1:
		days := slices.Clone(opt.Bymonthday)
		slices.Sort(days)
		last := days[len(days)-1]
		if slices.Equal(days, dayRange(28, last)) {
			return last, nil
		}
	}
	return 0, fmt.Errorf("%w: BYMONTHDAY=%v BYSETPOS=%v", ErrUnsupportedRule, opt.Bymonthday, opt.Bysetpos)
}

func dayRange(from, to int) []int {
	days := make([]int, 0, to-from+1)
	for d := from; d <= to; d++ {
		days = append(days, d)
	}
	return days
}
