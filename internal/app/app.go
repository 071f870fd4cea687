package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"menu-planner/internal/lock"
	"menu-planner/internal/planner"
	"menu-planner/internal/shared"
)

var (
	// ErrRegenerationInFlight rejects an operation while a regeneration holds the gate.
	ErrRegenerationInFlight = errors.New("a regeneration is already in flight")
	// ErrNoMenu is returned when an operation needs a week that was never generated.
	ErrNoMenu = errors.New("no menu has been generated yet")
)

// persistTimeout bounds a save that outlives the request that triggered it.
const persistTimeout = 10 * time.Second

// PlanStore persists weeks and regeneration histories per owner.
type PlanStore interface {
	SaveWeek(ctx context.Context, ownerID string, week planner.WeekMenu) error
	LoadWeek(ctx context.Context, ownerID string) (planner.WeekMenu, bool, error)
	DeleteWeek(ctx context.Context, ownerID string) error
	SaveHistory(ctx context.Context, ownerID string, history planner.RegenerationHistory) error
	LoadHistory(ctx context.Context, ownerID string) (planner.RegenerationHistory, error)
	ListOwners(ctx context.Context) ([]string, error)
}

// PreferenceStore reads and writes preference snapshots.
type PreferenceStore interface {
	Get(ctx context.Context, ownerID string) (planner.Preferences, bool, error)
	Save(ctx context.Context, ownerID string, prefs planner.Preferences) (planner.Preferences, error)
}

// MetricsRecorder receives one entry per operation.
type MetricsRecorder interface {
	RecordMeta(ctx context.Context, meta shared.OperationMeta) error
}

type session struct {
	week    planner.WeekMenu
	history planner.RegenerationHistory
}

// App holds the application's dependencies and the per-owner sessions.
type App struct {
	engine  *planner.Engine
	plans   PlanStore
	prefs   PreferenceStore
	gate    lock.Gate
	metrics MetricsRecorder
	logger  *zap.Logger
	// distributed is set when other processes regenerate through the same gate;
	// sessions are then reloaded from the store on every access.
	distributed bool

	mu       sync.Mutex
	sessions map[string]*session
}

// NewApp creates and initializes a new App instance. metrics may be nil.
func NewApp(
	engine *planner.Engine,
	plans PlanStore,
	prefs PreferenceStore,
	gate lock.Gate,
	metrics MetricsRecorder,
	logger *zap.Logger,
) *App {
	return &App{
		engine:      engine,
		plans:       plans,
		prefs:       prefs,
		gate:        gate,
		metrics:     metrics,
		logger:      logger,
		distributed: gate.Shared(),
		sessions:    make(map[string]*session),
	}
}

// Engine exposes the menu engine, e.g. for its clock.
func (a *App) Engine() *planner.Engine {
	return a.engine
}

// Plans exposes the configured plan store.
func (a *App) Plans() PlanStore {
	return a.plans
}

// sessionLocked returns the owner's session, loading it on first use, or on
// every call when the gate is shared. The caller must hold a.mu.
func (a *App) sessionLocked(ctx context.Context, ownerID string) (*session, error) {
	if s, ok := a.sessions[ownerID]; ok && !a.distributed {
		return s, nil
	}
	week, _, err := a.plans.LoadWeek(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	history, err := a.plans.LoadHistory(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	s := &session{week: week, history: history}
	a.sessions[ownerID] = s
	return s, nil
}

// acquire takes the system-wide gate.
func (a *App) acquire(ctx context.Context) (func(), error) {
	release, err := a.gate.TryAcquire(ctx)
	if errors.Is(err, lock.ErrBusy) {
		return nil, ErrRegenerationInFlight
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acquire regeneration gate: %w", err)
	}
	return release, nil
}

// finish persists the result of a gated operation and releases the gate.
// A shared gate is held until the store is written so the next holder, in
// any process, loads the new state.
func (a *App) finish(ctx context.Context, release func(), ownerID string, week *planner.WeekMenu, history *planner.RegenerationHistory) bool {
	if a.distributed {
		defer release()
	} else {
		release()
	}
	return a.persist(ctx, ownerID, week, history)
}

func (a *App) preferences(ctx context.Context, ownerID string) (planner.Preferences, error) {
	prefs, _, err := a.prefs.Get(ctx, ownerID)
	if err != nil {
		return planner.Preferences{}, err
	}
	return prefs, nil
}

// Generate builds a fresh week from the owner's saved preferences and
// replaces the session week. It is rejected while a regeneration is in
// flight but does not take the gate, so generates never exclude each other.
func (a *App) Generate(ctx context.Context, ownerID string) (week planner.WeekMenu, err error) {
	start := time.Now()
	outcome := shared.OutcomeOK
	defer func() { a.record(ctx, shared.OpGenerate, ownerID, outcome, err, start) }()

	busy, err := a.gate.Busy(ctx)
	if err != nil {
		return planner.WeekMenu{}, fmt.Errorf("failed to check regeneration gate: %w", err)
	}
	if busy {
		return planner.WeekMenu{}, ErrRegenerationInFlight
	}
	prefs, err := a.preferences(ctx, ownerID)
	if err != nil {
		return planner.WeekMenu{}, err
	}

	week = a.engine.Generate(prefs)

	a.mu.Lock()
	s, err := a.sessionLocked(ctx, ownerID)
	if err != nil {
		a.mu.Unlock()
		return planner.WeekMenu{}, err
	}
	s.week = week
	a.mu.Unlock()

	if !a.persist(ctx, ownerID, &week, nil) {
		outcome = shared.OutcomeDegraded
	}
	return week, nil
}

// RegenerateMeal rebuilds one meal of one day.
func (a *App) RegenerateMeal(ctx context.Context, ownerID string, day int, kind planner.MealKind) (meal planner.Meal, err error) {
	start := time.Now()
	outcome := shared.OutcomeOK
	defer func() { a.record(ctx, shared.OpRegenerateMeal, ownerID, outcome, err, start) }()

	release, err := a.acquire(ctx)
	if err != nil {
		return planner.Meal{}, err
	}
	week, err := a.withSession(ctx, ownerID, func(s *session, prefs planner.Preferences) error {
		var err error
		meal, err = a.engine.RegenerateMeal(&s.week, day, kind, prefs)
		return err
	})
	if err != nil {
		release()
		return planner.Meal{}, err
	}

	if !a.finish(ctx, release, ownerID, &week, nil) {
		outcome = shared.OutcomeDegraded
	}
	return meal, nil
}

// RegenerateComponent replaces the primary dish, vegetable dish, or both of
// a lunch or dinner course and updates the owner's regeneration history.
func (a *App) RegenerateComponent(ctx context.Context, ownerID string, day int, kind planner.MealKind, comp planner.Component) (course planner.Course, err error) {
	start := time.Now()
	outcome := shared.OutcomeOK
	defer func() { a.record(ctx, shared.OpRegenerateComponent, ownerID, outcome, err, start) }()

	release, err := a.acquire(ctx)
	if err != nil {
		return planner.Course{}, err
	}
	var history planner.RegenerationHistory
	week, err := a.withSession(ctx, ownerID, func(s *session, prefs planner.Preferences) error {
		var err error
		course, err = a.engine.RegenerateComponent(&s.week, &s.history, day, kind, comp, prefs)
		history = planner.RegenerationHistory{
			Primary:   append([]string(nil), s.history.Primary...),
			Vegetable: append([]string(nil), s.history.Vegetable...),
		}
		return err
	})
	if err != nil {
		release()
		return planner.Course{}, err
	}

	if !a.finish(ctx, release, ownerID, &week, &history) {
		outcome = shared.OutcomeDegraded
	}
	return course, nil
}

// withSession runs fn against the owner's generated week and returns a copy
// of the week afterwards.
func (a *App) withSession(ctx context.Context, ownerID string, fn func(*session, planner.Preferences) error) (planner.WeekMenu, error) {
	prefs, err := a.preferences(ctx, ownerID)
	if err != nil {
		return planner.WeekMenu{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.sessionLocked(ctx, ownerID)
	if err != nil {
		return planner.WeekMenu{}, err
	}
	if s.week.IsEmpty() {
		return planner.WeekMenu{}, ErrNoMenu
	}
	if err := fn(s, prefs); err != nil {
		return planner.WeekMenu{}, err
	}
	return s.week, nil
}

// Week returns the owner's current week in Monday-first order.
// found is false if nothing was generated yet.
func (a *App) Week(ctx context.Context, ownerID string) (planner.WeekMenu, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.sessionLocked(ctx, ownerID)
	if err != nil {
		return planner.WeekMenu{}, false, err
	}
	return s.week, !s.week.IsEmpty(), nil
}

// DisplayWeek returns the owner's week starting at today.
func (a *App) DisplayWeek(ctx context.Context, ownerID string, today int) ([]planner.DisplayDay, error) {
	week, found, err := a.Week(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoMenu
	}
	return planner.DisplayOrder(week, today), nil
}

// Day returns a single day of the owner's week.
func (a *App) Day(ctx context.Context, ownerID string, day int) (planner.Meal, error) {
	if day < 0 || day >= planner.DaysInWeek {
		return planner.Meal{}, fmt.Errorf("%w: %d", planner.ErrInvalidDay, day)
	}
	week, found, err := a.Week(ctx, ownerID)
	if err != nil {
		return planner.Meal{}, err
	}
	if !found {
		return planner.Meal{}, ErrNoMenu
	}
	return week[day], nil
}

// ClearWeek discards the owner's week.
func (a *App) ClearWeek(ctx context.Context, ownerID string) error {
	a.mu.Lock()
	if s, ok := a.sessions[ownerID]; ok {
		s.week = planner.WeekMenu{}
	}
	a.mu.Unlock()

	if err := a.plans.DeleteWeek(ctx, ownerID); err != nil {
		a.logger.Warn("Failed to delete stored week", zap.String("owner_id", ownerID), zap.Error(err))
	}
	return nil
}

// ClearHistory empties the owner's regeneration history. It is rejected while
// a regeneration is in flight since the history is part of its state.
func (a *App) ClearHistory(ctx context.Context, ownerID string) error {
	release, err := a.acquire(ctx)
	if err != nil {
		return err
	}
	a.mu.Lock()
	s, err := a.sessionLocked(ctx, ownerID)
	if err == nil {
		s.history.Clear()
	}
	a.mu.Unlock()
	if err != nil {
		release()
		return err
	}

	a.finish(ctx, release, ownerID, nil, &planner.RegenerationHistory{})
	return nil
}

// History returns a copy of the owner's regeneration history.
func (a *App) History(ctx context.Context, ownerID string) (planner.RegenerationHistory, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.sessionLocked(ctx, ownerID)
	if err != nil {
		return planner.RegenerationHistory{}, err
	}
	return planner.RegenerationHistory{
		Primary:   append([]string(nil), s.history.Primary...),
		Vegetable: append([]string(nil), s.history.Vegetable...),
	}, nil
}

// Preferences returns the owner's saved preferences, empty if none.
func (a *App) Preferences(ctx context.Context, ownerID string) (planner.Preferences, error) {
	return a.preferences(ctx, ownerID)
}

// SavePreferences replaces the owner's preferences. The current week is left
// untouched until the next Generate.
func (a *App) SavePreferences(ctx context.Context, ownerID string, prefs planner.Preferences) (planner.Preferences, error) {
	return a.prefs.Save(ctx, ownerID, prefs)
}

// persist hands the result to the plan store. Failures are logged and never
// undo the in-memory result. It reports whether everything was saved.
func (a *App) persist(ctx context.Context, ownerID string, week *planner.WeekMenu, history *planner.RegenerationHistory) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	ok := true
	if week != nil {
		if err := a.plans.SaveWeek(ctx, ownerID, *week); err != nil {
			a.logger.Warn("Failed to persist week", zap.String("owner_id", ownerID), zap.Error(err))
			ok = false
		}
	}
	if history != nil {
		if err := a.plans.SaveHistory(ctx, ownerID, *history); err != nil {
			a.logger.Warn("Failed to persist regeneration history", zap.String("owner_id", ownerID), zap.Error(err))
			ok = false
		}
	}
	return ok
}

func (a *App) record(ctx context.Context, op, ownerID, outcome string, err error, start time.Time) {
	switch {
	case errors.Is(err, ErrRegenerationInFlight):
		outcome = shared.OutcomeBusy
	case err != nil:
		outcome = shared.OutcomeError
	}
	meta := shared.OperationMeta{
		Operation: op,
		OwnerID:   ownerID,
		Outcome:   outcome,
		Latency:   time.Since(start),
	}
	if err == nil {
		a.logger.Info("Menu operation completed",
			zap.String("operation", op),
			zap.String("owner_id", ownerID),
			zap.String("outcome", outcome),
			zap.Duration("latency", meta.Latency))
	}
	if a.metrics == nil {
		return
	}
	if err := a.metrics.RecordMeta(context.WithoutCancel(ctx), meta); err != nil {
		a.logger.Warn("Failed to record metrics", zap.String("operation", op), zap.Error(err))
	}
}
