package recurrence

import (
	"slices"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hour, minute int) time.Time {
	return time.Date(y, m, d, hour, minute, 0, 0, time.UTC)
}

func endOf(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 23, 59, 59, 0, time.UTC)
}

func startsOf(base BaseEvent, from, to time.Time) []time.Time {
	var out []time.Time
	for occ := range Occurrences(base, from, to) {
		out = append(out, occ.Start)
	}
	return out
}

func TestOccurrences_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		base     BaseEvent
		from, to time.Time
		expected []time.Time
	}{
		{
			name: "weekly on Mon, Wed, Fri",
			base: BaseEvent{
				Start: at(2024, 1, 1, 9, 0),
				Rule:  MustRule(Weekly, WithWeekdays(time.Monday, time.Wednesday, time.Friday)),
			},
			from: date(2024, 1, 1),
			to:   endOf(2024, 1, 14),
			expected: []time.Time{
				at(2024, 1, 1, 9, 0), at(2024, 1, 3, 9, 0), at(2024, 1, 5, 9, 0),
				at(2024, 1, 8, 9, 0), at(2024, 1, 10, 9, 0), at(2024, 1, 12, 9, 0),
			},
		},
		{
			name: "monthly on the 31st clamps to the last day",
			base: BaseEvent{
				Start: at(2024, 1, 31, 10, 0),
				Rule:  MustRule(Monthly, WithDayOfMonth(31)),
			},
			from: date(2024, 1, 1),
			to:   endOf(2024, 4, 30),
			expected: []time.Time{
				at(2024, 1, 31, 10, 0), at(2024, 2, 29, 10, 0),
				at(2024, 3, 31, 10, 0), at(2024, 4, 30, 10, 0),
			},
		},
		{
			name: "every third day until the 10th",
			base: BaseEvent{
				Start: at(2024, 1, 1, 8, 0),
				Rule:  MustRule(Daily, WithInterval(3), WithEndDate(date(2024, 1, 10))),
			},
			from: date(2024, 1, 1),
			to:   endOf(2024, 1, 31),
			expected: []time.Time{
				at(2024, 1, 1, 8, 0), at(2024, 1, 4, 8, 0),
				at(2024, 1, 7, 8, 0), at(2024, 1, 10, 8, 0),
			},
		},
		{
			name: "every other week starting mid-week",
			base: BaseEvent{
				Start: at(2024, 1, 3, 19, 0),
				Rule:  MustRule(Weekly, WithInterval(2), WithWeekdays(time.Monday, time.Wednesday)),
			},
			from: date(2024, 1, 1),
			to:   endOf(2024, 1, 31),
			expected: []time.Time{
				at(2024, 1, 3, 19, 0), at(2024, 1, 15, 19, 0), at(2024, 1, 17, 19, 0),
				at(2024, 1, 29, 19, 0), at(2024, 1, 31, 19, 0),
			},
		},
		{
			name: "weekly defaults to the base weekday",
			base: BaseEvent{
				Start: at(2024, 1, 4, 18, 30),
				Rule:  MustRule(Weekly),
			},
			from: date(2024, 1, 1),
			to:   endOf(2024, 1, 25),
			expected: []time.Time{
				at(2024, 1, 4, 18, 30), at(2024, 1, 11, 18, 30),
				at(2024, 1, 18, 18, 30), at(2024, 1, 25, 18, 30),
			},
		},
		{
			name: "anchor outside the weekday set is still the first occurrence",
			base: BaseEvent{
				Start: at(2024, 1, 2, 9, 0),
				Rule:  MustRule(Weekly, WithWeekdays(time.Monday, time.Wednesday)),
			},
			from: date(2024, 1, 1),
			to:   endOf(2024, 1, 10),
			expected: []time.Time{
				at(2024, 1, 2, 9, 0), at(2024, 1, 3, 9, 0),
				at(2024, 1, 8, 9, 0), at(2024, 1, 10, 9, 0),
			},
		},
		{
			name: "monthly day later than the anchor day",
			base: BaseEvent{
				Start: at(2024, 1, 10, 20, 0),
				Rule:  MustRule(Monthly, WithDayOfMonth(15)),
			},
			from: date(2024, 1, 1),
			to:   endOf(2024, 3, 31),
			expected: []time.Time{
				at(2024, 1, 10, 20, 0), at(2024, 1, 15, 20, 0),
				at(2024, 2, 15, 20, 0), at(2024, 3, 15, 20, 0),
			},
		},
		{
			name: "monthly day earlier than the anchor day",
			base: BaseEvent{
				Start: at(2024, 1, 10, 20, 0),
				Rule:  MustRule(Monthly, WithDayOfMonth(5)),
			},
			from: date(2024, 1, 1),
			to:   endOf(2024, 3, 31),
			expected: []time.Time{
				at(2024, 1, 10, 20, 0), at(2024, 2, 5, 20, 0), at(2024, 3, 5, 20, 0),
			},
		},
		{
			name: "quarterly from the base day",
			base: BaseEvent{
				Start: at(2024, 1, 15, 19, 0),
				Rule:  MustRule(Monthly, WithInterval(3)),
			},
			from: date(2024, 1, 1),
			to:   endOf(2024, 12, 31),
			expected: []time.Time{
				at(2024, 1, 15, 19, 0), at(2024, 4, 15, 19, 0),
				at(2024, 7, 15, 19, 0), at(2024, 10, 15, 19, 0),
			},
		},
		{
			name: "yearly from Feb 29",
			base: BaseEvent{
				Start: at(2024, 2, 29, 12, 0),
				Rule:  MustRule(Yearly),
			},
			from: date(2024, 1, 1),
			to:   endOf(2028, 12, 31),
			expected: []time.Time{
				at(2024, 2, 29, 12, 0), at(2025, 2, 28, 12, 0), at(2026, 2, 28, 12, 0),
				at(2027, 2, 28, 12, 0), at(2028, 2, 29, 12, 0),
			},
		},
		{
			name: "range starting far after the anchor",
			base: BaseEvent{
				Start: at(2024, 1, 1, 7, 0),
				Rule:  MustRule(Daily, WithInterval(2)),
			},
			from: date(2024, 3, 1),
			to:   endOf(2024, 3, 6),
			expected: []time.Time{
				at(2024, 3, 1, 7, 0), at(2024, 3, 3, 7, 0), at(2024, 3, 5, 7, 0),
			},
		},
		{
			name: "range boundary inside a day excludes earlier occurrences",
			base: BaseEvent{
				Start: at(2024, 1, 1, 9, 0),
				Rule:  MustRule(Daily),
			},
			from:     at(2024, 1, 3, 10, 0),
			to:       at(2024, 1, 5, 9, 0),
			expected: []time.Time{at(2024, 1, 4, 9, 0), at(2024, 1, 5, 9, 0)},
		},
		{
			name:     "non-recurring in range",
			base:     BaseEvent{Start: at(2024, 5, 1, 18, 0)},
			from:     date(2024, 5, 1),
			to:       endOf(2024, 5, 31),
			expected: []time.Time{at(2024, 5, 1, 18, 0)},
		},
		{
			name:     "non-recurring out of range",
			base:     BaseEvent{Start: at(2024, 5, 1, 18, 0)},
			from:     date(2024, 6, 1),
			to:       endOf(2024, 6, 30),
			expected: nil,
		},
		{
			name: "reversed range",
			base: BaseEvent{
				Start: at(2024, 1, 1, 9, 0),
				Rule:  MustRule(Daily),
			},
			from:     date(2024, 2, 1),
			to:       date(2024, 1, 1),
			expected: nil,
		},
		{
			name: "end date before the base start",
			base: BaseEvent{
				Start: at(2024, 1, 5, 9, 0),
				Rule:  MustRule(Daily, WithEndDate(date(2024, 1, 1))),
			},
			from:     date(2024, 1, 1),
			to:       endOf(2024, 1, 31),
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, startsOf(tt.base, tt.from, tt.to))
		})
	}
}

func TestOccurrences_CopiesDuration(t *testing.T) {
	base := BaseEvent{
		Start: at(2024, 1, 1, 9, 0),
		End:   mo.Some(at(2024, 1, 1, 10, 30)),
		Rule:  MustRule(Weekly),
	}

	got := slices.Collect(Occurrences(base, date(2024, 1, 1), endOf(2024, 1, 31)))
	require.Len(t, got, 5)
	for _, occ := range got {
		end, ok := occ.End.Get()
		require.True(t, ok)
		assert.Equal(t, 90*time.Minute, end.Sub(occ.Start))
		assert.Equal(t, 9, occ.Start.Hour())
	}

	single := slices.Collect(Occurrences(BaseEvent{Start: at(2024, 1, 1, 9, 0)}, date(2024, 1, 1), endOf(2024, 1, 1)))
	require.Len(t, single, 1)
	assert.True(t, single[0].End.IsAbsent())
}

func TestOccurrences_UsesEventLocation(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	base := BaseEvent{
		Start: time.Date(2024, 1, 1, 23, 30, 0, 0, cet),
		Rule:  MustRule(Daily),
	}

	got := startsOf(base, at(2024, 1, 1, 22, 30), at(2024, 1, 2, 22, 30))
	require.Len(t, got, 2)
	assert.Equal(t, time.Date(2024, 1, 1, 23, 30, 0, 0, cet), got[0])
	assert.Equal(t, time.Date(2024, 1, 2, 23, 30, 0, 0, cet), got[1])
	assert.Equal(t, cet, got[1].Location())
}

func TestOccurrences_StrictlyAscendingAndRestartable(t *testing.T) {
	bases := []BaseEvent{
		{Start: at(2024, 1, 1, 9, 0), Rule: MustRule(Daily, WithInterval(4))},
		{Start: at(2024, 1, 3, 9, 0), Rule: MustRule(Weekly, WithInterval(3), WithWeekdays(time.Sunday, time.Monday, time.Saturday))},
		{Start: at(2023, 8, 30, 9, 0), Rule: MustRule(Monthly, WithDayOfMonth(30))},
		{Start: at(2020, 2, 29, 9, 0), Rule: MustRule(Yearly, WithInterval(1))},
		{Start: at(2024, 1, 2, 9, 0), Rule: MustRule(Weekly, WithWeekdays(time.Monday))},
	}
	from, to := date(2023, 1, 1), endOf(2030, 12, 31)

	for _, base := range bases {
		t.Run(base.Rule.String(), func(t *testing.T) {
			first := slices.Collect(Occurrences(base, from, to))
			second := slices.Collect(Occurrences(base, from, to))
			require.NotEmpty(t, first)
			assert.Equal(t, first, second)
			for i := 1; i < len(first); i++ {
				assert.True(t, first[i].Start.After(first[i-1].Start),
					"occurrence %d (%s) not after %s", i, first[i].Start, first[i-1].Start)
			}
		})
	}
}

func TestOccurrences_MonthlyClampProperty(t *testing.T) {
	base := BaseEvent{
		Start: at(2023, 1, 31, 18, 0),
		Rule:  MustRule(Monthly, WithDayOfMonth(31)),
	}

	got := slices.Collect(Occurrences(base, date(2023, 1, 1), endOf(2026, 12, 31)))
	require.Len(t, got, 48)
	for _, occ := range got {
		y, m, d := occ.Start.Date()
		assert.Equal(t, daysIn(y, m), d, "%s should fall on the month's last day", occ.Start)
	}
}

func TestOccurrences_LeapDayProperty(t *testing.T) {
	base := BaseEvent{
		Start: at(2000, 2, 29, 10, 0),
		Rule:  MustRule(Yearly),
	}

	for occ := range Occurrences(base, date(2000, 1, 1), endOf(2100, 12, 31)) {
		assert.Equal(t, time.February, occ.Start.Month())
		if isLeapYear(occ.Start.Year()) {
			assert.Equal(t, 29, occ.Start.Day(), occ.Start.String())
		} else {
			assert.Equal(t, 28, occ.Start.Day(), occ.Start.String())
		}
	}
}

func TestOccurrences_StopsEarly(t *testing.T) {
	base := BaseEvent{Start: at(2024, 1, 1, 9, 0), Rule: MustRule(Daily)}

	var got []time.Time
	for occ := range Occurrences(base, date(2024, 1, 1), endOf(2999, 12, 31)) {
		got = append(got, occ.Start)
		if len(got) == 3 {
			break
		}
	}
	assert.Equal(t, []time.Time{at(2024, 1, 1, 9, 0), at(2024, 1, 2, 9, 0), at(2024, 1, 3, 9, 0)}, got)
}

func TestFirstAfter(t *testing.T) {
	base := BaseEvent{
		Start: at(2024, 1, 1, 9, 0),
		Rule:  MustRule(Daily, WithEndDate(date(2024, 1, 10))),
	}

	occ, err := FirstAfter(base, at(2024, 1, 1, 9, 0), endOf(2024, 12, 31))
	require.NoError(t, err)
	assert.Equal(t, at(2024, 1, 2, 9, 0), occ.Start)

	_, err = FirstAfter(base, at(2024, 1, 10, 9, 0), endOf(2024, 12, 31))
	assert.ErrorIs(t, err, ErrNoOccurrenceWithinHorizon)

	_, err = FirstAfter(base, at(2024, 1, 3, 10, 0), at(2024, 1, 4, 8, 0))
	assert.ErrorIs(t, err, ErrNoOccurrenceWithinHorizon)
}

func TestLastAtOrBefore(t *testing.T) {
	tests := []struct {
		name     string
		base     BaseEvent
		at       time.Time
		horizon  time.Time
		expected time.Time
		wantErr  bool
	}{
		{
			name:     "weekly",
			base:     BaseEvent{Start: at(2024, 1, 1, 9, 0), Rule: MustRule(Weekly)},
			at:       at(2024, 1, 10, 12, 0),
			horizon:  date(2019, 1, 1),
			expected: at(2024, 1, 8, 9, 0),
		},
		{
			name:     "exact start counts",
			base:     BaseEvent{Start: at(2024, 1, 1, 9, 0), Rule: MustRule(Weekly)},
			at:       at(2024, 1, 8, 9, 0),
			horizon:  date(2019, 1, 1),
			expected: at(2024, 1, 8, 9, 0),
		},
		{
			name:     "yearly leap day",
			base:     BaseEvent{Start: at(2024, 2, 29, 9, 0), Rule: MustRule(Yearly)},
			at:       date(2030, 6, 1),
			horizon:  date(2020, 1, 1),
			expected: at(2030, 2, 28, 9, 0),
		},
		{
			name:     "ended series",
			base:     BaseEvent{Start: at(2024, 1, 1, 9, 0), Rule: MustRule(Daily, WithEndDate(date(2024, 1, 10)))},
			at:       date(2025, 6, 1),
			horizon:  date(2020, 6, 1),
			expected: at(2024, 1, 10, 9, 0),
		},
		{
			name: "end date keeps a sub-second start on its last day",
			base: BaseEvent{
				Start: time.Date(2024, 1, 1, 23, 59, 59, 500_000_000, time.UTC),
				Rule:  MustRule(Daily, WithEndDate(date(2024, 1, 3))),
			},
			at:       date(2024, 1, 10),
			horizon:  date(2023, 1, 1),
			expected: time.Date(2024, 1, 3, 23, 59, 59, 500_000_000, time.UTC),
		},
		{
			name:     "non-recurring",
			base:     BaseEvent{Start: at(2024, 1, 1, 9, 0)},
			at:       date(2024, 3, 1),
			horizon:  date(2020, 1, 1),
			expected: at(2024, 1, 1, 9, 0),
		},
		{
			name:    "before the base start",
			base:    BaseEvent{Start: at(2024, 1, 1, 9, 0), Rule: MustRule(Daily)},
			at:      date(2023, 12, 1),
			horizon: date(2020, 1, 1),
			wantErr: true,
		},
		{
			name:    "outside the horizon",
			base:    BaseEvent{Start: at(2010, 1, 1, 9, 0), Rule: MustRule(Daily, WithEndDate(date(2010, 1, 5)))},
			at:      date(2024, 1, 1),
			horizon: date(2019, 1, 1),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occ, err := LastAtOrBefore(tt.base, tt.at, tt.horizon)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoOccurrenceWithinHorizon)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, occ.Start)
		})
	}
}
