package recurrence

import (
	"io"
	"log/slog"
	"time"
)

// Granularity selects how the classifier compares occurrences with now
type Granularity int

const (
	// GranularityInstant compares exact timestamps
	GranularityInstant Granularity = iota
	// GranularityDay compares calendar dates in the event's location, so
	// an event without an end is ongoing for its whole start day
	GranularityDay
)

func (g Granularity) String() string {
	if g == GranularityDay {
		return "day"
	}
	return "instant"
}

// DefaultHorizon bounds every search for a next or previous occurrence
const DefaultHorizon = 5 * 365 * 24 * time.Hour

// EngineConfig holds configuration options for the recurrence engine
type EngineConfig struct {
	// Horizon is how far before and after now the classifier looks
	Horizon     time.Duration
	Granularity Granularity

	// MaxOccurrences caps a single Expand call (0 = unlimited)
	MaxOccurrences int

	// Cache configuration
	CacheEnabled bool
	CacheConfig  CacheConfig
}

// DefaultEngineConfig provides sensible defaults for production use
var DefaultEngineConfig = EngineConfig{
	Horizon:        DefaultHorizon,
	Granularity:    GranularityInstant,
	MaxOccurrences: 1000,
	CacheEnabled:   false,
}

// DayGranularityConfig evaluates status by date, the way list and
// dashboard views display events
var DayGranularityConfig = EngineConfig{
	Horizon:        DefaultHorizon,
	Granularity:    GranularityDay,
	MaxOccurrences: 1000,
	CacheEnabled:   false,
}

// CachedEngineConfig memoises Expand results for views that re-expand the
// same events on every request
var CachedEngineConfig = EngineConfig{
	Horizon:        DefaultHorizon,
	Granularity:    GranularityDay,
	MaxOccurrences: 1000,
	CacheEnabled:   true,
	CacheConfig:    DefaultCacheConfig,
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger for the engine
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngineWithConfig creates a new recurrence engine with custom configuration
func NewEngineWithConfig(config EngineConfig, opts ...Option) *Engine {
	if config.Horizon <= 0 {
		config.Horizon = DefaultHorizon
	}

	e := &Engine{
		config: config,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if config.CacheEnabled {
		e.cache = NewExpansionCache(config.CacheConfig)
	}
	return e
}
