package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work, e.g. an evaluation run.
type Job func(ctx context.Context) error

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule accepts a 5- or 6-field cron expression ("0 9 * * 1-5") or a
// descriptor ("@daily", "@every 6h").
func ParseSchedule(spec string) (cron.Schedule, error) {
	sched, err := parser.Parse(strings.TrimSpace(spec))
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return sched, nil
}

// Scheduler owns the watch loop: it runs the job once immediately and then at
// every activation of the cron schedule. Runs never overlap; an activation
// that passes while a run is still going is skipped.
type Scheduler struct {
	job      Job
	schedule cron.Schedule
	spec     string
	logger   *slog.Logger
	now      func() time.Time
}

// NewScheduler creates a scheduler for spec.
func NewScheduler(job Job, spec string, logger *slog.Logger) (*Scheduler, error) {
	sched, err := ParseSchedule(spec)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		job:      job,
		schedule: sched,
		spec:     spec,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Run starts the loop. It returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "schedule", s.spec)

	// Run one immediate cycle.
	s.runOnce(ctx)

	for {
		now := s.now()
		next := s.schedule.Next(now)
		wait := next.Sub(now)
		s.logger.Info("next run scheduled", "at", next.Format(time.RFC3339), "in", wait.Round(time.Second))

		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(wait):
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := s.now()
	if err := s.job(ctx); err != nil {
		s.logger.Error("scheduled run failed", "error", err)
		return
	}
	s.logger.Info("scheduled run complete", "elapsed", s.now().Sub(start).Round(time.Millisecond))
}
