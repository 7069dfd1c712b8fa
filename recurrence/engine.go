package recurrence

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/mo"
)

// Engine classifies events against a reference instant. It holds no
// per-event state; every method is a function of its arguments and the
// engine configuration, and an Engine may be shared between goroutines.
type Engine struct {
	config EngineConfig
	cache  *ExpansionCache
	logger *slog.Logger
}

// NewEngine creates a new recurrence engine instance
func NewEngine(opts ...Option) *Engine {
	return NewEngineWithConfig(DefaultEngineConfig, opts...)
}

func (e *Engine) Config() EngineConfig {
	return e.config
}

// Close stops the expansion cache, if any
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

// DateInfo is the full classification of an event at one instant
type DateInfo struct {
	Status Status
	// Current is the occurrence a view should show: the ongoing one,
	// otherwise the next one, otherwise the last one
	Current   mo.Option[Occurrence]
	Next      mo.Option[Occurrence]
	Last      mo.Option[Occurrence]
	DaysUntil mo.Option[int]
	// DaysSince counts days since Last started; unset for upcoming events
	DaysSince mo.Option[int]
	// IsToday reports whether an occurrence starts on now's date
	IsToday  bool
	Duration time.Duration
}

// Status reports whether base is upcoming, ongoing or past at now
func (e *Engine) Status(base BaseEvent, now time.Time) Status {
	status, _ := e.classify(base, now)
	return status
}

// NextOccurrence returns the first occurrence starting after now within
// the horizon. None means the event has no further occurrences.
func (e *Engine) NextOccurrence(base BaseEvent, now time.Time) mo.Option[Occurrence] {
	if base.clippedAway() {
		return mo.None[Occurrence]()
	}
	if now.Before(base.Start) {
		return mo.Some(base.occurrenceAt(base.Start))
	}
	occ, err := FirstAfter(base, now, now.Add(e.config.Horizon))
	if err != nil {
		if errors.Is(err, ErrNoOccurrenceWithinHorizon) {
			e.logger.Debug("no further occurrence",
				"rule", base.Rule.String(),
				"now", now,
				"horizon", e.config.Horizon)
		}
		return mo.None[Occurrence]()
	}
	return mo.Some(occ)
}

// DaysUntil counts calendar days from now's date to the next occurrence's
// date, both taken in the event's location
func (e *Engine) DaysUntil(base BaseEvent, now time.Time) mo.Option[int] {
	next, ok := e.NextOccurrence(base, now).Get()
	if !ok {
		return mo.None[int]()
	}
	return mo.Some(daysBetween(now, next.Start, base.Start.Location()))
}

// Evaluate gathers status, neighbouring occurrences and countdowns in one call
func (e *Engine) Evaluate(base BaseEvent, now time.Time) DateInfo {
	loc := base.Start.Location()
	status, current := e.classify(base, now)

	info := DateInfo{
		Status:    status,
		Current:   current,
		Next:      e.NextOccurrence(base, now),
		Last:      e.lastAtOrBefore(base, now),
		DaysUntil: mo.None[int](),
		DaysSince: mo.None[int](),
		Duration:  base.Duration(),
	}
	if next, ok := info.Next.Get(); ok {
		info.DaysUntil = mo.Some(daysBetween(now, next.Start, loc))
	}
	if last, ok := info.Last.Get(); ok && status != StatusUpcoming {
		info.DaysSince = mo.Some(daysBetween(last.Start, now, loc))
	}
	if current.IsAbsent() {
		if next, ok := info.Next.Get(); ok {
			info.Current = mo.Some(next)
		} else {
			info.Current = info.Last
		}
	}

	today := dateOf(now.In(loc))
	for range Occurrences(base, today.startOfDay(loc), lastInstantOf(today, loc)) {
		info.IsToday = true
		break
	}
	return info
}

// UpcomingOccurrences lists up to count occurrences starting from the
// beginning of now's day, within the horizon
func (e *Engine) UpcomingOccurrences(base BaseEvent, now time.Time, count int) []Occurrence {
	if count <= 0 {
		return nil
	}
	loc := base.Start.Location()
	from := dateOf(now.In(loc)).startOfDay(loc)

	out := make([]Occurrence, 0, count)
	for occ := range Occurrences(base, from, now.Add(e.config.Horizon)) {
		out = append(out, occ)
		if len(out) == count {
			break
		}
	}
	return out
}

// Expand collects the occurrences starting within [rangeStart, rangeEnd].
// It fails with ErrTooManyOccurrences when the range holds more than
// MaxOccurrences.
func (e *Engine) Expand(base BaseEvent, rangeStart, rangeEnd time.Time) ([]Occurrence, error) {
	const op = "expand"
	if e.cache != nil {
		if cached, ok := e.cache.Get(op, base, rangeStart, rangeEnd); ok {
			e.logger.Debug("expansion cache hit", "rule", base.Rule.String())
			return cached, nil
		}
	}

	var out []Occurrence
	for occ := range Occurrences(base, rangeStart, rangeEnd) {
		if e.config.MaxOccurrences > 0 && len(out) == e.config.MaxOccurrences {
			return nil, fmt.Errorf("%w: more than %d between %s and %s",
				ErrTooManyOccurrences, e.config.MaxOccurrences,
				rangeStart.Format(time.RFC3339), rangeEnd.Format(time.RFC3339))
		}
		out = append(out, occ)
	}

	if e.cache != nil {
		e.cache.Set(op, base, rangeStart, rangeEnd, out)
	}
	return out, nil
}

// classify returns the status and, when ongoing, the covering occurrence
func (e *Engine) classify(base BaseEvent, now time.Time) (Status, mo.Option[Occurrence]) {
	if base.clippedAway() {
		return StatusPast, mo.None[Occurrence]()
	}
	if e.config.Granularity == GranularityDay {
		return e.classifyByDay(base, now)
	}

	if now.Before(base.Start) {
		return StatusUpcoming, mo.None[Occurrence]()
	}
	if last, ok := e.lastAtOrBefore(base, now).Get(); ok && !now.After(last.EndOrStart()) {
		return StatusOngoing, mo.Some(last)
	}
	if e.NextOccurrence(base, now).IsPresent() {
		return StatusUpcoming, mo.None[Occurrence]()
	}
	return StatusPast, mo.None[Occurrence]()
}

func (e *Engine) classifyByDay(base BaseEvent, now time.Time) (Status, mo.Option[Occurrence]) {
	loc := base.Start.Location()
	today := dateOf(now.In(loc))
	endOfToday := lastInstantOf(today, loc)

	if today.before(dateOf(base.Start)) {
		return StatusUpcoming, mo.None[Occurrence]()
	}
	if last, ok := e.lastAtOrBefore(base, endOfToday).Get(); ok {
		if !dateOf(last.EndOrStart().In(loc)).before(today) {
			return StatusOngoing, mo.Some(last)
		}
	}
	if _, err := FirstAfter(base, endOfToday, now.Add(e.config.Horizon)); err == nil {
		return StatusUpcoming, mo.None[Occurrence]()
	}
	return StatusPast, mo.None[Occurrence]()
}

func (e *Engine) lastAtOrBefore(base BaseEvent, at time.Time) mo.Option[Occurrence] {
	occ, err := LastAtOrBefore(base, at, at.Add(-e.config.Horizon))
	if err != nil {
		return mo.None[Occurrence]()
	}
	return mo.Some(occ)
}

// daysBetween counts calendar days from from's date to to's date in loc
func daysBetween(from, to time.Time, loc *time.Location) int {
	return dateOf(from.In(loc)).daysUntil(dateOf(to.In(loc)))
}

// lastInstantOf is the final nanosecond of d in loc
func lastInstantOf(d civilDate, loc *time.Location) time.Time {
	return d.addDays(1).startOfDay(loc).Add(-time.Nanosecond)
}
