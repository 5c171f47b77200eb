// Package scheduler triggers acquisition of today's puzzle on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/acquirer"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/cache"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/logger"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/puzzle"
)

// tickTimeout bounds one scheduled acquisition.
const tickTimeout = 2 * time.Minute

// Acquirer acquires the puzzle for a date.
type Acquirer interface {
	Acquire(ctx context.Context, date puzzle.Date) acquirer.Result
}

// Config configures the scheduler.
type Config struct {
	// Specs are standard five-field cron expressions.
	Specs []string
	// Location decides both when specs fire and which day is today.
	Location *time.Location
	// AlwaysRefetch acquires even when today already holds a scraped record.
	AlwaysRefetch bool
}

// TickResult is the outcome of one tick.
type TickResult struct {
	Date    puzzle.Date
	Skipped bool
	Result  acquirer.Result
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the clock used to compute today.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// Scheduler runs ticks on cron schedules in the puzzle timezone.
type Scheduler struct {
	cron     *cron.Cron
	acquirer Acquirer
	store    cache.Store
	cfg      Config
	logger   logger.Logger
	now      func() time.Time

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler and registers every spec.
func New(cfg Config, acq Acquirer, store cache.Store, log logger.Logger, opts ...Option) (*Scheduler, error) {
	if len(cfg.Specs) == 0 {
		return nil, errors.New("at least one schedule spec is required")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if log == nil {
		log = logger.NewNop()
	}

	cronLog := cronLogger{log: log}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		acquirer: acq,
		store:    store,
		cfg:      cfg,
		logger:   log,
		now:      time.Now,
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, spec := range cfg.Specs {
		if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
			return nil, fmt.Errorf("add schedule %q: %w", spec, err)
		}
	}
	return s, nil
}

// Start starts the cron loop. Ticks run under a context derived from ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("Scheduler started",
		logger.Strings("specs", s.cfg.Specs),
		logger.String("timezone", s.cfg.Location.String()),
		logger.Bool("always_refetch", s.cfg.AlwaysRefetch),
	)
	for _, next := range s.NextRuns() {
		s.logger.Debug("Next scheduled run", logger.Time("at", next))
	}
}

// Stop stops the cron loop and waits for a running tick to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()

	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		defer cancel()
	}

	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}

// NextRuns returns the next fire time of every registered spec.
func (s *Scheduler) NextRuns() []time.Time {
	entries := s.cron.Entries()
	runs := make([]time.Time, 0, len(entries))
	now := s.now().In(s.cfg.Location)
	for _, e := range entries {
		runs = append(runs, e.Schedule.Next(now))
	}
	return runs
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	parent := s.ctx
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(parent, tickTimeout)
	defer cancel()
	s.RunNow(ctx)
}

// RunNow runs one tick synchronously: acquire today unless it already holds a
// usable scraped record and AlwaysRefetch is off.
func (s *Scheduler) RunNow(ctx context.Context) TickResult {
	today := puzzle.Today(s.now(), s.cfg.Location)
	log := s.logger.With(logger.String("date", today.String()))

	if !s.cfg.AlwaysRefetch && s.alreadyScraped(ctx, today) {
		log.Debug("Today's puzzle already scraped, skipping tick")
		return TickResult{Date: today, Skipped: true}
	}

	res := s.acquirer.Acquire(ctx, today)
	log.Debug("Scheduled acquisition finished",
		logger.String("run_id", res.RunID),
		logger.String("reason", string(res.Reason)),
	)
	return TickResult{Date: today, Result: res}
}

func (s *Scheduler) alreadyScraped(ctx context.Context, today puzzle.Date) bool {
	rec, err := s.store.Get(ctx, today)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			s.logger.Warn("Cache lookup before tick failed",
				logger.String("date", today.String()),
				logger.Error(err),
			)
		}
		return false
	}
	return rec.Provenance == puzzle.ProvenanceScraped && rec.Validate() == nil
}

// cronLogger adapts Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(keysAndValues []any) []logger.Field {
	fields := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields = append(fields, logger.Any(key, keysAndValues[i+1]))
	}
	return fields
}
