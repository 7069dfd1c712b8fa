package recurrence

import (
	"fmt"
	"iter"
	"time"
)

// Occurrences yields every occurrence of base whose start lies within
// [rangeStart, rangeEnd], in ascending order. The sequence is finite for
// any finite range and may be ranged over any number of times.
//
// The base start is always the first occurrence of a recurring series.
// Generated dates before it are dropped, and dates after the rule's end
// date are excluded.
func Occurrences(base BaseEvent, rangeStart, rangeEnd time.Time) iter.Seq[Occurrence] {
	return func(yield func(Occurrence) bool) {
		if rangeEnd.Before(rangeStart) {
			return
		}
		if base.Rule == nil {
			if inRange(base.Start, rangeStart, rangeEnd) {
				yield(base.occurrenceAt(base.Start))
			}
			return
		}

		s := newSeries(base, rangeStart, rangeEnd)
		if s.limit.before(s.anchor) {
			return
		}

		anchorPending := inRange(base.Start, rangeStart, rangeEnd)
		if anchorPending {
			if !yield(base.occurrenceAt(base.Start)) {
				return
			}
		}

		for date := range s.dates() {
			if date.after(s.limit) {
				return
			}
			if date.compare(s.anchor) == 0 {
				// the anchor is handled above
				continue
			}
			start := date.at(base.Start)
			if start.Before(rangeStart) {
				continue
			}
			if start.After(rangeEnd) {
				return
			}
			if !yield(base.occurrenceAt(start)) {
				return
			}
		}
	}
}

// FirstAfter returns the first occurrence starting strictly after after
// and no later than horizonEnd.
func FirstAfter(base BaseEvent, after, horizonEnd time.Time) (Occurrence, error) {
	for occ := range Occurrences(base, after, horizonEnd) {
		if occ.Start.After(after) {
			return occ, nil
		}
	}
	return Occurrence{}, fmt.Errorf("%w: nothing after %s up to %s",
		ErrNoOccurrenceWithinHorizon, after.Format(time.RFC3339), horizonEnd.Format(time.RFC3339))
}

// LastAtOrBefore returns the latest occurrence starting at or before at,
// looking back no further than horizonStart. The search window starts at
// one rule step and doubles until it reaches the horizon.
func LastAtOrBefore(base BaseEvent, at, horizonStart time.Time) (Occurrence, error) {
	notFound := fmt.Errorf("%w: nothing from %s back to %s",
		ErrNoOccurrenceWithinHorizon, at.Format(time.RFC3339), horizonStart.Format(time.RFC3339))

	if at.Before(base.Start) || at.Before(horizonStart) {
		return Occurrence{}, notFound
	}
	if base.Rule == nil {
		if base.Start.Before(horizonStart) {
			return Occurrence{}, notFound
		}
		return base.occurrenceAt(base.Start), nil
	}

	upper := at
	if end, ok := base.Rule.endDate.Get(); ok {
		if last := lastInstantOf(end, base.Start.Location()); last.Before(upper) {
			upper = last
		}
	}
	lower := horizonStart
	if base.Start.After(lower) {
		lower = base.Start
	}
	if upper.Before(lower) {
		return Occurrence{}, notFound
	}

	span := upper.Sub(lower)
	window := base.Rule.step()
	for {
		from := lower
		if window < span {
			from = upper.Add(-window)
		}

		var (
			last  Occurrence
			found bool
		)
		for occ := range Occurrences(base, from, upper) {
			last, found = occ, true
		}
		if found {
			return last, nil
		}
		if !from.After(lower) {
			return Occurrence{}, notFound
		}
		if window > span/2 {
			window = span
		} else {
			window *= 2
		}
	}
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// series holds the resolved calendar bounds of one enumeration
type series struct {
	rule   *Rule
	anchor civilDate
	// lower is the earliest date worth generating
	lower civilDate
	// limit is the latest date that may be emitted
	limit civilDate
}

func newSeries(base BaseEvent, rangeStart, rangeEnd time.Time) series {
	loc := base.Start.Location()
	s := series{
		rule:   base.Rule,
		anchor: dateOf(base.Start),
		lower:  dateOf(rangeStart.In(loc)),
		limit:  dateOf(rangeEnd.In(loc)),
	}
	if s.lower.before(s.anchor) {
		s.lower = s.anchor
	}
	if end, ok := base.Rule.endDate.Get(); ok && end.before(s.limit) {
		s.limit = end
	}
	return s
}

// dates yields the pattern dates from lower onwards in ascending order.
// It never stops by itself; callers stop once a date passes limit.
func (s series) dates() iter.Seq[civilDate] {
	switch s.rule.freq {
	case Daily:
		return s.daily()
	case Weekly:
		return s.weekly()
	case Monthly:
		return s.monthly()
	default:
		return s.yearly()
	}
}

func (s series) daily() iter.Seq[civilDate] {
	n := s.rule.interval
	return func(yield func(civilDate) bool) {
		gap := s.anchor.daysUntil(s.lower)
		k := (gap + n - 1) / n
		for {
			if !yield(s.anchor.addDays(k * n)) {
				return
			}
			k++
		}
	}
}

func (s series) weekly() iter.Seq[civilDate] {
	n := s.rule.interval
	offsets := s.rule.weekdaysFor(s.anchor).offsets()
	monday := s.anchor.addDays(-mondayOffset(s.anchor.weekday()))
	return func(yield func(civilDate) bool) {
		weeks := floorDiv(monday.daysUntil(s.lower), 7)
		for block := floorDiv(weeks, n); ; block++ {
			weekStart := monday.addDays(block * n * 7)
			for _, off := range offsets {
				date := weekStart.addDays(off)
				if date.before(s.lower) {
					continue
				}
				if !yield(date) {
					return
				}
			}
		}
	}
}

func (s series) monthly() iter.Seq[civilDate] {
	n := s.rule.interval
	day := s.rule.dayFor(s.anchor)
	first := s.anchor.monthIndex()
	return func(yield func(civilDate) bool) {
		for k := floorDiv(s.lower.monthIndex()-first, n); ; k++ {
			idx := first + k*n
			date := clampedDate(idx/12, time.Month(idx%12+1), day)
			if date.before(s.lower) {
				continue
			}
			if !yield(date) {
				return
			}
		}
	}
}

func (s series) yearly() iter.Seq[civilDate] {
	n := s.rule.interval
	return func(yield func(civilDate) bool) {
		for k := floorDiv(s.lower.year-s.anchor.year, n); ; k++ {
			date := clampedDate(s.anchor.year+k*n, s.anchor.month, s.anchor.day)
			if date.before(s.lower) {
				continue
			}
			if !yield(date) {
				return
			}
		}
	}
}

// step approximates one repetition of the rule, rounded up
func (r *Rule) step() time.Duration {
	day := 24 * time.Hour
	switch r.freq {
	case Daily:
		return time.Duration(r.interval) * day
	case Weekly:
		return time.Duration(r.interval) * 7 * day
	case Monthly:
		return time.Duration(r.interval) * 31 * day
	default:
		return time.Duration(r.interval) * 366 * day
	}
}
