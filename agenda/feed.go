package agenda

import (
	"fmt"
	"io"
	"time"

	"github.com/cyp0633/vereincal/recurrence"
	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

// DefaultProductID identifies feeds written by this package
const DefaultProductID = "-//vereincal//Event Feed//EN"

// FeedOptions controls the calendar envelope of a feed
type FeedOptions struct {
	ProductID string
	// Name is written as the calendar's NAME property when set
	Name string
	// Namespace seeds the event UIDs; uuid.NameSpaceURL when unset
	Namespace uuid.UUID
	// Stamp is every event's DTSTAMP; time.Now when zero
	Stamp time.Time
}

// EventUID derives a stable UID for a record, so re-exported feeds update
// events instead of duplicating them
func EventUID(namespace uuid.UUID, rec Record) string {
	if namespace == uuid.Nil {
		namespace = uuid.NameSpaceURL
	}
	name := fmt.Sprintf("verein/%d/veranstaltung/%d", rec.AssociationID, rec.ID)
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

// Feed builds a VCALENDAR holding one VEVENT per item. Recurring items
// carry their rule as RRULE rather than being expanded.
func Feed(items []Item, opts FeedOptions) *ical.Calendar {
	if opts.ProductID == "" {
		opts.ProductID = DefaultProductID
	}
	if opts.Stamp.IsZero() {
		opts.Stamp = time.Now()
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, opts.ProductID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	if opts.Name != "" {
		cal.Props.SetText(ical.PropName, opts.Name)
	}

	for _, item := range items {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, EventUID(opts.Namespace, item.Record))
		event.Props.SetDateTime(ical.PropDateTimeStamp, opts.Stamp.UTC())
		event.Props.SetText(ical.PropSummary, item.Record.Title)
		if item.Record.Location != "" {
			event.Props.SetText(ical.PropLocation, item.Record.Location)
		}
		if item.Record.Description != "" {
			event.Props.SetText(ical.PropDescription, item.Record.Description)
		}
		recurrence.ApplyToComponent(event.Component, item.Base)

		cal.Children = append(cal.Children, event.Component)
	}
	return cal
}

// WriteFeed encodes the feed of items to w
func WriteFeed(w io.Writer, items []Item, opts FeedOptions) error {
	if err := ical.NewEncoder(w).Encode(Feed(items, opts)); err != nil {
		return fmt.Errorf("failed to encode feed: %w", err)
	}
	return nil
}

// ReadFeed decodes a calendar and returns the base event of every VEVENT,
// keyed by UID
func ReadFeed(r io.Reader) (map[string]recurrence.BaseEvent, error) {
	cal, err := ical.NewDecoder(r).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}

	out := make(map[string]recurrence.BaseEvent)
	for _, event := range cal.Events() {
		uid, err := event.Props.Text(ical.PropUID)
		if err != nil {
			return nil, fmt.Errorf("failed to read UID: %w", err)
		}
		base, err := recurrence.ExtractBaseEvent(event.Component)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", uid, err)
		}
		out[uid] = base
	}
	return out, nil
}
