package recurrence

import (
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"
)

// Description is a language-neutral summary of a rule, ready for a
// presentation layer to localize
type Description struct {
	Recurring  bool                 `json:"recurring"`
	Frequency  string               `json:"frequency,omitempty"`
	Interval   int                  `json:"interval,omitempty"`
	Weekdays   []string             `json:"weekdays,omitempty"`
	DayOfMonth mo.Option[int]       `json:"dayOfMonth"`
	EndDate    mo.Option[time.Time] `json:"endDate"`
}

// NonRecurring describes an event without a rule
var NonRecurring = Description{
	DayOfMonth: mo.None[int](),
	EndDate:    mo.None[time.Time](),
}

// Describe summarises rule. Weekdays are only reported for weekly rules
// and the day of month only for monthly ones.
func Describe(rule *Rule) Description {
	if rule == nil {
		return NonRecurring
	}

	d := Description{
		Recurring:  true,
		Frequency:  rule.freq.String(),
		Interval:   rule.interval,
		DayOfMonth: rule.DayOfMonth(),
		EndDate:    rule.EndDate(),
	}
	for _, day := range rule.Weekdays() {
		d.Weekdays = append(d.Weekdays, weekdayCode(day))
	}
	return d
}

// Translation keys understood by Render
const (
	KeyDaily       = "recurrence.daily"
	KeyEveryNDays  = "recurrence.everyNDays"
	KeyWeekly      = "recurrence.weekly"
	KeyEveryNWeeks = "recurrence.everyNWeeks"
	KeyWeeklyOn    = "recurrence.weeklyOn"
	KeyMonthly     = "recurrence.monthly"
	KeyEveryNMonth = "recurrence.everyNMonths"
	KeyMonthlyOn   = "recurrence.monthlyOn"
	KeyYearly      = "recurrence.yearly"
	KeyEveryNYears = "recurrence.everyNYears"
	KeyUntil       = "recurrence.until"
)

// Translator maps a translation key to a localized template. Templates
// may contain {n}, {days} and {day} placeholders.
type Translator interface {
	Translate(key string) string
}

// TranslatorFunc adapts a plain function to Translator
type TranslatorFunc func(key string) string

func (f TranslatorFunc) Translate(key string) string {
	return f(key)
}

// MessageKey picks the translation key for the description. It is empty
// for non-recurring events.
func (d Description) MessageKey() string {
	if !d.Recurring {
		return ""
	}
	single := d.Interval <= 1
	switch d.Frequency {
	case "daily":
		if single {
			return KeyDaily
		}
		return KeyEveryNDays
	case "weekly":
		if len(d.Weekdays) > 0 {
			return KeyWeeklyOn
		}
		if single {
			return KeyWeekly
		}
		return KeyEveryNWeeks
	case "monthly":
		if d.DayOfMonth.IsPresent() {
			return KeyMonthlyOn
		}
		if single {
			return KeyMonthly
		}
		return KeyEveryNMonth
	case "yearly":
		if single {
			return KeyYearly
		}
		return KeyEveryNYears
	}
	return ""
}

// Render fills the translated template for the description and appends
// the end date, formatted as YYYY-MM-DD. Non-recurring events render as
// the empty string.
func (d Description) Render(t Translator) string {
	key := d.MessageKey()
	if key == "" {
		return ""
	}

	r := strings.NewReplacer(
		"{n}", strconv.Itoa(d.Interval),
		"{days}", strings.Join(d.Weekdays, ","),
		"{day}", strconv.Itoa(d.DayOfMonth.OrEmpty()),
	)
	text := r.Replace(t.Translate(key))

	if end, ok := d.EndDate.Get(); ok {
		text += " " + t.Translate(KeyUntil) + " " + end.Format(time.DateOnly)
	}
	return text
}

// weekdayCode is the three-letter English code of a weekday, e.g. "Mon"
func weekdayCode(d time.Weekday) string {
	return d.String()[:3]
}
