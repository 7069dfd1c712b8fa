package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cyp0633/vereincal/agenda"
	"github.com/cyp0633/vereincal/recurrence"
	"github.com/lmittmann/tint"
	"gopkg.in/yaml.v3"
)

// input is the layout of the events file
type input struct {
	Name         string            `yaml:"name"`
	Translations map[string]string `yaml:"translations"`
	Events       []agenda.Record   `yaml:"events"`
}

func main() {
	var (
		path     = flag.String("events", "example/events.yaml", "events file")
		icsOut   = flag.String("ics", "", "write an iCalendar feed to this file")
		xcalOut  = flag.String("xcal", "", "write an xCal feed to this file")
		nowFlag  = flag.String("now", "", "reference time (RFC 3339), defaults to the current time")
		upcoming = flag.Int("upcoming", 3, "occurrences to list per active event")
		debug    = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))

	if err := run(logger, *path, *icsOut, *xcalOut, *nowFlag, *upcoming); err != nil {
		logger.Error("example failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, path, icsOut, xcalOut, nowFlag string, upcoming int) error {
	in, err := load(path)
	if err != nil {
		return err
	}

	now := time.Now()
	if nowFlag != "" {
		if now, err = time.Parse(time.RFC3339, nowFlag); err != nil {
			return fmt.Errorf("invalid -now: %w", err)
		}
	}

	engine := recurrence.NewEngineWithConfig(recurrence.CachedEngineConfig, recurrence.WithLogger(logger))
	defer engine.Close()

	a := agenda.New(engine, agenda.WithLogger(logger))
	items := a.Build(in.Events, now)
	agenda.Sort(items)

	translate := recurrence.TranslatorFunc(func(key string) string {
		if text, ok := in.Translations[key]; ok {
			return text
		}
		return key
	})

	fmt.Printf("%s, %s\n\n", in.Name, now.Format("Mon 2006-01-02 15:04"))
	for _, item := range items {
		printItem(a, item, now, translate, upcoming)
	}

	stats := agenda.ComputeStats(items, now)
	fmt.Printf("\n%d events: %d upcoming, %d ongoing, %d past, %d this month\n",
		stats.Total, stats.Upcoming, stats.Ongoing, stats.Past, stats.ThisMonth)

	opts := agenda.FeedOptions{Name: in.Name, Stamp: now}
	if icsOut != "" {
		if err := writeFile(icsOut, func(f *os.File) error { return agenda.WriteFeed(f, items, opts) }); err != nil {
			return err
		}
		logger.Info("wrote iCalendar feed", "path", icsOut, "events", len(items))
	}
	if xcalOut != "" {
		if err := writeFile(xcalOut, func(f *os.File) error { return agenda.WriteXCal(f, items, opts) }); err != nil {
			return err
		}
		logger.Info("wrote xCal feed", "path", xcalOut, "events", len(items))
	}
	return nil
}

func load(path string) (*input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	var in input
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &in, nil
}

func printItem(a *agenda.Agenda, item agenda.Item, now time.Time, t recurrence.Translator, upcoming int) {
	line := fmt.Sprintf("%-9s %-28s", item.Status, item.Record.Title)
	if occ, ok := item.Current.Get(); ok {
		line += " " + occ.Start.Format("2006-01-02 15:04")
	}
	if days, ok := item.DaysUntil.Get(); ok {
		line += fmt.Sprintf("  in %d days", days)
	}
	if text := item.Description.Render(t); text != "" {
		line += "  (" + text + ")"
	}
	fmt.Println(line)

	if item.Base.IsRecurring() && item.Active() {
		var dates []string
		for _, occ := range a.Upcoming(item, now, upcoming) {
			dates = append(dates, occ.Start.Format("Jan 2"))
		}
		if len(dates) > 0 {
			fmt.Printf("%10s next: %s\n", "", strings.Join(dates, ", "))
		}
	}
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
