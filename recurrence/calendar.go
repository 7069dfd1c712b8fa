package recurrence

import "time"

// civilDate is a calendar date with no time-of-day or zone
type civilDate struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) civilDate {
	y, m, d := t.Date()
	return civilDate{year: y, month: m, day: d}
}

// newDate folds out-of-range months and days the way time.Date does
func newDate(year int, month time.Month, day int) civilDate {
	return dateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

func (d civilDate) utcMidnight() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

func (d civilDate) before(o civilDate) bool {
	return d.compare(o) < 0
}

func (d civilDate) after(o civilDate) bool {
	return d.compare(o) > 0
}

func (d civilDate) compare(o civilDate) int {
	switch {
	case d.year != o.year:
		return cmpInt(d.year, o.year)
	case d.month != o.month:
		return cmpInt(int(d.month), int(o.month))
	default:
		return cmpInt(d.day, o.day)
	}
}

func (d civilDate) addDays(n int) civilDate {
	return newDate(d.year, d.month, d.day+n)
}

func (d civilDate) weekday() time.Weekday {
	return d.utcMidnight().Weekday()
}

// daysUntil counts calendar days from d to o (negative when o is earlier)
func (d civilDate) daysUntil(o civilDate) int {
	return int(o.utcMidnight().Sub(d.utcMidnight()).Hours() / 24)
}

// monthIndex is a running month number, used for month differences
func (d civilDate) monthIndex() int {
	return d.year*12 + int(d.month) - 1
}

// at combines the date with the wall clock of ref in ref's location
func (d civilDate) at(ref time.Time) time.Time {
	return time.Date(d.year, d.month, d.day, ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location())
}

// startOfDay is local midnight of d in loc
func (d civilDate) startOfDay(loc *time.Location) time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, loc)
}

func (d civilDate) String() string {
	return d.utcMidnight().Format(time.DateOnly)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func isLeapYear(year int) bool {
	return daysIn(year, time.February) == 29
}

// clampedDate keeps day within the month, moving it to the month's last
// day when the month is too short
func clampedDate(year int, month time.Month, day int) civilDate {
	// month may be out of range after arithmetic
	first := newDate(year, month, 1)
	if last := daysIn(first.year, first.month); day > last {
		day = last
	}
	return civilDate{year: first.year, month: first.month, day: day}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
