package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"menu-planner/internal/planner"
	"menu-planner/internal/shared"
)

// WeekSource lists owners with a stored week and loads their weeks.
type WeekSource interface {
	ListOwners(ctx context.Context) ([]string, error)
	LoadWeek(ctx context.Context, ownerID string) (planner.WeekMenu, bool, error)
}

// Sender delivers a reminder outside the app, e.g. as a chat message.
type Sender interface {
	SendReminder(ctx context.Context, ownerID string, msg Message) error
}

// Recorder receives one entry per owner reminded.
type Recorder interface {
	RecordMeta(ctx context.Context, meta shared.OperationMeta) error
}

// Scheduler fires the reminder once a day at a fixed local time of day.
type Scheduler struct {
	weeks  WeekSource
	inbox  *Repository
	sender Sender
	rec    Recorder
	at     time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewScheduler creates a Scheduler firing at the given offset from local
// midnight. sender may be nil.
func NewScheduler(weeks WeekSource, inbox *Repository, sender Sender, at time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		weeks:  weeks,
		inbox:  inbox,
		sender: sender,
		at:     at,
		logger: logger,
		now:    time.Now,
	}
}

// SetRecorder makes RunOnce record a reminder metric per owner.
func (s *Scheduler) SetRecorder(r Recorder) {
	s.rec = r
}

// NextRun returns the first firing time strictly after now.
func NextRun(now time.Time, at time.Duration) time.Time {
	y, m, d := now.Date()
	h, mins := int(at/time.Hour), int(at%time.Hour/time.Minute)
	next := time.Date(y, m, d, h, mins, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(y, m, d+1, h, mins, 0, 0, now.Location())
	}
	return next
}

// Run blocks until ctx is cancelled, firing RunOnce every day at the
// configured time. The timer is re-armed after each run so clock changes
// are picked up.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next := NextRun(s.now(), s.at)
		s.logger.Info("Next reminder scheduled", zap.Time("at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			sent := s.RunOnce(ctx)
			s.logger.Info("Reminders sent", zap.Int("count", sent))
		}
	}
}

// RunOnce stores and sends the reminder to every owner with a stored week.
// Failures for one owner are logged and do not stop the others. It returns
// how many reminders were stored.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	owners, err := s.weeks.ListOwners(ctx)
	if err != nil {
		s.logger.Warn("Failed to list owners for reminders", zap.Error(err))
		return 0
	}

	now := s.now()
	stored := 0
	for _, owner := range owners {
		start := time.Now()
		ok := s.remind(ctx, owner, now)
		if ok {
			stored++
		}
		s.record(ctx, owner, ok, start)
	}
	return stored
}

// remind reports whether the reminder reached the owner's inbox. A failed
// chat delivery is logged only.
func (s *Scheduler) remind(ctx context.Context, owner string, now time.Time) bool {
	week, _, err := s.weeks.LoadWeek(ctx, owner)
	if err != nil {
		s.logger.Warn("Failed to load week for reminder", zap.String("owner_id", owner), zap.Error(err))
		return false
	}
	msg := FormatTomorrow(week, now)

	if _, err := s.inbox.Add(ctx, owner, msg); err != nil {
		s.logger.Warn("Failed to store reminder", zap.String("owner_id", owner), zap.Error(err))
		return false
	}

	if s.sender != nil {
		if err := s.sender.SendReminder(ctx, owner, msg); err != nil {
			s.logger.Warn("Failed to send reminder", zap.String("owner_id", owner), zap.Error(err))
		}
	}
	return true
}

func (s *Scheduler) record(ctx context.Context, owner string, ok bool, start time.Time) {
	if s.rec == nil {
		return
	}
	outcome := shared.OutcomeOK
	if !ok {
		outcome = shared.OutcomeError
	}
	meta := shared.OperationMeta{
		Operation: shared.OpReminder,
		OwnerID:   owner,
		Outcome:   outcome,
		Latency:   time.Since(start),
	}
	if err := s.rec.RecordMeta(ctx, meta); err != nil {
		s.logger.Warn("Failed to record reminder metric", zap.String("owner_id", owner), zap.Error(err))
	}
}
