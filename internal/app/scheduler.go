package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the periodic pipeline triggers. It accepts standard
// 5-field cron expressions plus descriptors like "@every 6h"; an empty
// expression disables the trigger.
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

// NewScheduler creates an idle scheduler. Jobs fire only after Start.
func NewScheduler(log *slog.Logger) *Scheduler {
	parser := cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)
	return &Scheduler{
		cron: cron.New(cron.WithParser(parser)),
		log:  log.With("component", "scheduler"),
	}
}

// Add registers a named job under the given expression.
// An empty expression is a no-op, not an error.
func (s *Scheduler) Add(expr, name string, job func(ctx context.Context)) error {
	if expr == "" {
		s.log.Info("scheduled trigger disabled", slog.String("job", name))
		return nil
	}

	_, err := s.cron.AddFunc(expr, func() {
		start := time.Now()
		s.log.Info("scheduled job starting", slog.String("job", name))
		job(context.Background())
		s.log.Info("scheduled job finished",
			slog.String("job", name),
			slog.Duration("elapsed", time.Since(start)),
		)
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, expr, err)
	}

	s.log.Info("scheduled trigger registered",
		slog.String("job", name), slog.String("schedule", expr))
	return nil
}

// Start begins firing registered jobs in their own goroutines.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling new runs and waits for in-flight jobs, up to the
// deadline of ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stopped with jobs still running")
	}
}
