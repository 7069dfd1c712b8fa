/*
Package recurrence computes the concrete occurrences of recurring events
and classifies events as upcoming, ongoing or past.

# Rules

A Rule repeats a base event daily, weekly, monthly or yearly:

	rule, err := recurrence.NewRule(recurrence.Weekly,
		recurrence.WithInterval(2),
		recurrence.WithWeekdays(time.Monday, time.Wednesday, time.Friday),
		recurrence.WithEndDate(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)),
	)
	if errors.Is(err, recurrence.ErrInvalidRule) {
		// err is a *recurrence.RuleError naming the violated fields
	}

Monthly rules whose day does not exist in a month fall on that month's
last day, and yearly rules anchored on February 29 fall on February 28
in common years.

# Occurrences

Occurrences always takes a finite range, so it cannot run forever:

	base := recurrence.BaseEvent{Start: start, End: mo.Some(end), Rule: rule}
	for occ := range recurrence.Occurrences(base, from, to) {
		fmt.Println(occ.Start)
	}

# Classification

An Engine answers the questions list and dashboard views ask. The reference
instant is always passed in; the engine never reads the clock.

	engine := recurrence.NewEngine()
	status := engine.Status(base, now)
	next := engine.NextOccurrence(base, now) // mo.None when nothing is left
	days := engine.DaysUntil(base, now)

Searches are bounded by EngineConfig.Horizon (five years by default).

# Descriptions

Describe returns a language-neutral summary; Render fills it in through a
caller-supplied Translator.
*/
package recurrence
