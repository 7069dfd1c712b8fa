package agenda

import (
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/cyp0633/vereincal/recurrence"
	"github.com/samber/mo"
)

// Agenda turns stored event records into the rows of an event list
type Agenda struct {
	engine *recurrence.Engine
	logger *slog.Logger
}

// Option configures an Agenda
type Option func(*Agenda)

// WithLogger sets the logger for the agenda
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agenda) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an agenda backed by engine. A nil engine uses the
// day-granularity preset.
func New(engine *recurrence.Engine, opts ...Option) *Agenda {
	if engine == nil {
		engine = recurrence.NewEngineWithConfig(recurrence.DayGranularityConfig)
	}
	a := &Agenda{
		engine: engine,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Item is one evaluated record
type Item struct {
	Record Record
	Base   recurrence.BaseEvent
	Status recurrence.Status
	// Current is the occurrence the row shows: ongoing, next or last
	Current     mo.Option[recurrence.Occurrence]
	Next        mo.Option[recurrence.Occurrence]
	DaysUntil   mo.Option[int]
	Description recurrence.Description
}

// Active reports whether the item still has something to attend
func (i Item) Active() bool {
	return i.Status != recurrence.StatusPast
}

// Build evaluates every record at now. Records whose recurrence fields
// are invalid are logged and left out.
func (a *Agenda) Build(records []Record, now time.Time) []Item {
	items := make([]Item, 0, len(records))
	for _, rec := range records {
		base, err := rec.BaseEvent()
		if err != nil {
			a.logger.Warn("skipping event with invalid recurrence",
				"id", rec.ID,
				"title", rec.Title,
				"error", err)
			continue
		}

		info := a.engine.Evaluate(base, now)
		items = append(items, Item{
			Record:      rec,
			Base:        base,
			Status:      info.Status,
			Current:     info.Current,
			Next:        info.Next,
			DaysUntil:   info.DaysUntil,
			Description: recurrence.Describe(base.Rule),
		})
	}

	a.logger.Debug("agenda built",
		"records", len(records),
		"items", len(items))
	return items
}

// Upcoming lists the next count occurrences of item from now's day on
func (a *Agenda) Upcoming(item Item, now time.Time, count int) []recurrence.Occurrence {
	return a.engine.UpcomingOccurrences(item.Base, now, count)
}

// Sort orders items in place: upcoming and ongoing ones first, then past
// ones, each group chronologically by the occurrence it shows
func Sort(items []Item) {
	slices.SortStableFunc(items, func(x, y Item) int {
		if x.Active() != y.Active() {
			if x.Active() {
				return -1
			}
			return 1
		}
		return x.start().Compare(y.start())
	})
}

func (i Item) start() time.Time {
	if occ, ok := i.Current.Get(); ok {
		return occ.Start
	}
	return i.Base.Start
}

// FilterMode selects which items Filter keeps
type FilterMode int

const (
	FilterAll FilterMode = iota
	// FilterUpcoming keeps upcoming and ongoing items
	FilterUpcoming
	FilterPast
)

// Filter returns the items matching mode, preserving their order
func Filter(items []Item, mode FilterMode) []Item {
	if mode == FilterAll {
		return slices.Clone(items)
	}
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Active() == (mode == FilterUpcoming) {
			out = append(out, item)
		}
	}
	return out
}

// Stats summarises an event list
type Stats struct {
	Total    int `json:"total"`
	Upcoming int `json:"upcoming"`
	Ongoing  int `json:"ongoing"`
	Past     int `json:"past"`
	// ThisMonth counts items whose shown occurrence starts in now's month
	ThisMonth int `json:"thisMonth"`
}

// ComputeStats counts items by status and by month of their shown occurrence
func ComputeStats(items []Item, now time.Time) Stats {
	stats := Stats{Total: len(items)}
	year, month, _ := now.Date()
	for _, item := range items {
		switch item.Status {
		case recurrence.StatusUpcoming:
			stats.Upcoming++
		case recurrence.StatusOngoing:
			stats.Ongoing++
		case recurrence.StatusPast:
			stats.Past++
		}
		y, m, _ := item.start().In(now.Location()).Date()
		if y == year && m == month {
			stats.ThisMonth++
		}
	}
	return stats
}
