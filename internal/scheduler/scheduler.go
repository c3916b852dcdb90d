// Package scheduler runs recurring catalog harvests on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"catgraph/internal/config"
)

// Harvester runs one scheduled harvest.
type Harvester interface {
	HarvestSchedule(ctx context.Context, s config.Schedule) error
}

// RunResult reports the outcome of one scheduled run.
type RunResult struct {
	Schedule config.Schedule
	Started  time.Time
	Duration time.Duration
	Err      error
}

// Entry is a registered schedule with its next activation.
type Entry struct {
	Schedule config.Schedule
	Next     time.Time
}

// Scheduler manages cron-based harvests. Runs are serialized, and a
// schedule that is still running skips its next activation.
type Scheduler struct {
	cron    *cron.Cron
	svc     Harvester
	logger  *slog.Logger
	results chan RunResult
	runMu   sync.Mutex

	mu      sync.Mutex
	ctx     context.Context
	entries map[string]registered
}

type registered struct {
	id       cron.EntryID
	schedule config.Schedule
}

// New creates a scheduler. Results of runs are delivered on Results; when
// nobody reads them they are only logged.
func New(svc Harvester, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		svc:     svc,
		logger:  logger,
		results: make(chan RunResult, 16),
		ctx:     context.Background(),
		entries: make(map[string]registered),
	}
}

// Validate checks a schedule before it is stored.
func Validate(s config.Schedule) error {
	if _, err := cron.ParseStandard(s.Cron); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.Cron, err)
	}
	if _, _, err := config.ParseImportToken(config.ImportToken(s.Connection, s.Container)); err != nil {
		return err
	}
	return nil
}

// Start registers schedules and starts the cron loop. Runs use ctx, so
// cancelling it aborts in-flight harvests.
func (s *Scheduler) Start(ctx context.Context, schedules []config.Schedule) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	if err := s.Reload(schedules); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("harvest scheduler started", "schedules", len(s.Entries()))
	return nil
}

// Stop stops the cron loop and waits for running harvests to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("harvest scheduler stopped")
}

// Results returns the channel run outcomes are published on.
func (s *Scheduler) Results() <-chan RunResult { return s.results }

// Reload replaces all registered schedules. Invalid schedules are logged and
// skipped; it fails only when none of a non-empty list is valid.
func (s *Scheduler) Reload(schedules []config.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.entries {
		s.cron.Remove(r.id)
	}
	s.entries = make(map[string]registered)

	for _, sc := range schedules {
		key := sc.Cron + " " + config.ImportToken(sc.Connection, sc.Container)
		if _, dup := s.entries[key]; dup {
			continue
		}
		if err := Validate(sc); err != nil {
			s.logger.Warn("invalid schedule", "cron", sc.Cron, "connection", sc.Connection, "container", sc.Container, "error", err)
			continue
		}
		id, err := s.cron.AddJob(sc.Cron, s.job(sc))
		if err != nil {
			s.logger.Warn("invalid cron schedule", "cron", sc.Cron, "error", err)
			continue
		}
		s.entries[key] = registered{id: id, schedule: sc}
		s.logger.Info("scheduled harvest", "connection", sc.Connection, "container", sc.Container, "cron", sc.Cron)
	}
	if len(schedules) > 0 && len(s.entries) == 0 {
		return fmt.Errorf("no valid schedules")
	}
	return nil
}

// Entries lists the registered schedules with their next activation.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID := make(map[cron.EntryID]config.Schedule, len(s.entries))
	for _, r := range s.entries {
		byID[r.id] = r.schedule
	}
	var out []Entry
	for _, e := range s.cron.Entries() {
		if sc, ok := byID[e.ID]; ok {
			out = append(out, Entry{Schedule: sc, Next: e.Next})
		}
	}
	return out
}

// RunNow executes a schedule immediately on the calling goroutine.
func (s *Scheduler) RunNow(sc config.Schedule) RunResult {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	return s.run(ctx, sc)
}

func (s *Scheduler) job(sc config.Schedule) cron.Job {
	return cron.FuncJob(func() {
		s.RunNow(sc)
	})
}

func (s *Scheduler) run(ctx context.Context, sc config.Schedule) RunResult {
	res := RunResult{Schedule: sc, Started: time.Now()}
	res.Err = s.harvest(ctx, sc)
	res.Duration = time.Since(res.Started)
	if res.Err != nil {
		s.logger.Warn("scheduled harvest failed", "connection", sc.Connection, "container", sc.Container, "error", res.Err)
	} else {
		s.logger.Info("scheduled harvest finished", "connection", sc.Connection, "container", sc.Container, "duration", res.Duration)
	}
	select {
	case s.results <- res:
	default:
		s.logger.Debug("scheduler result dropped, channel full")
	}
	return res
}

// harvest runs one harvest while holding runMu. The lock is released even
// when the harvest panics.
func (s *Scheduler) harvest(ctx context.Context, sc config.Schedule) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.svc.HarvestSchedule(ctx, sc)
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
