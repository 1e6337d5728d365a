// Package scheduler refreshes the analysis snapshot on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ELevine-RE/levine-marketing-dashboard/internal/logger"
)

// Job is the work run on every tick.
type Job func(ctx context.Context) error

// Status describes the last and next run.
type Status struct {
	Spec      string    `json:"spec"`
	Timezone  string    `json:"timezone"`
	LastRun   time.Time `json:"last_run,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	Next      time.Time `json:"next,omitempty"`
	Runs      int       `json:"runs"`
}

// Scheduler runs a Job on a cron spec. Overlapping ticks are skipped.
type Scheduler struct {
	job Job
	log *logger.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
	status  Status
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a scheduler for job.
func New(job Job, log *logger.Logger) *Scheduler {
	return &Scheduler{job: job, log: logger.OrNop(log)}
}

// UpdateSchedule sets the cron spec (standard five fields or a descriptor
// such as "@daily") evaluated in timezone. Any running schedule is replaced.
func (s *Scheduler) UpdateSchedule(spec, timezone string) error {
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wasRunning := s.cron != nil && s.ctx != nil
	if s.cron != nil {
		s.cron.Stop()
	}

	cl := cronLogger{s.log}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	id, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.entryID = id
	s.status.Spec = spec
	s.status.Timezone = loc.String()

	if wasRunning {
		s.cron.Start()
	}
	return nil
}

// Start begins ticking. ctx is passed to every run and cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.log.Info("scheduler started", "spec", s.status.Spec, "timezone", s.status.Timezone)
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.ctx, s.cancel = nil, nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	done := c.Stop()
	if cancel != nil {
		cancel()
	}
	<-done.Done()
}

// RunNow runs the job synchronously, outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context) error {
	return s.run(ctx)
}

// Status returns a snapshot of the schedule state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	if s.cron != nil {
		st.Next = s.cron.Entry(s.entryID).Next
	}
	return st
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	_ = s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) error {
	start := time.Now()
	err := s.job(ctx)

	s.mu.Lock()
	s.status.LastRun = start
	s.status.Runs++
	s.status.LastError = ""
	if err != nil {
		s.status.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error("scheduled refresh failed", "error", err, "elapsed", time.Since(start).String())
		return err
	}
	s.log.Info("scheduled refresh complete", "elapsed", time.Since(start).String())
	return nil
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.log.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
