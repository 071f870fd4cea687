package planner

import (
	"errors"
	"time"
)

// DefaultMaxAttempts bounds the retries of a whole-meal regeneration.
const DefaultMaxAttempts = 10

var (
	ErrInvalidDay       = errors.New("day index must be between 0 and 6")
	ErrInvalidMealKind  = errors.New("invalid meal kind")
	ErrInvalidComponent = errors.New("invalid component")
)

// Engine generates and regenerates weekly menus. It holds no per-user state:
// preferences, the week and the regeneration history are passed in by the caller.
type Engine struct {
	rnd         RandomSource
	now         func() time.Time
	filter      CandidateFilter
	maxAttempts int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRandomSource replaces the default time-seeded source.
func WithRandomSource(rnd RandomSource) Option {
	return func(e *Engine) { e.rnd = rnd }
}

// WithClock sets the clock used to find "today" for display ordering.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithPotatoException lets potato dishes share a meal with other potato dishes.
func WithPotatoException(allow bool) Option {
	return func(e *Engine) { e.filter.AllowPotatoException = allow }
}

// WithMaxAttempts bounds whole-meal regeneration retries. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.maxAttempts = n
		}
	}
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:         time.Now,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rnd == nil {
		e.rnd = NewRandomSource(0)
	}
	return e
}

// Today is the canonical index of the engine clock's current day.
func (e *Engine) Today() int {
	return TodayIndex(e.now())
}

// Generate assembles a fresh week and fixes literal repeats between days
// that end up adjacent once the week is shown starting from today.
func (e *Engine) Generate(prefs Preferences) WeekMenu {
	prefs = prefs.Normalize()
	week := e.assembleWeek(prefs)
	return e.FixDisplayAdjacency(week, e.Today(), prefs)
}
