// Package scheduler provides a fixed-delay job runner that never overlaps
// runs of the same job: the delay starts only after the previous run
// finishes. In a multi-instance deployment this is insufficient on its own;
// a distributed lock or leader election is still required.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Job is one unit of scheduled work. A failing run is logged and skipped;
// the scheduler itself never stops on job errors.
type Job func(ctx context.Context) error

// FixedDelayRunner runs a named job with a fixed delay between completions.
type FixedDelayRunner struct {
	name   string
	delay  time.Duration
	job    Job
	logger *slog.Logger
}

// NewFixedDelayRunner creates a runner for the given job.
func NewFixedDelayRunner(
	name string,
	delay time.Duration,
	job Job,
	logger *slog.Logger,
) *FixedDelayRunner {
	return &FixedDelayRunner{
		name:   name,
		delay:  delay,
		job:    job,
		logger: logger,
	}
}

// Run blocks until the context is cancelled, executing the job with the
// configured delay between the end of one run and the start of the next.
func (r *FixedDelayRunner) Run(ctx context.Context) error {
	if r.logger != nil {
		r.logger.Info("starting scheduled job",
			slog.String("job", r.name),
			slog.Duration("delay", r.delay),
		)
	}

	timer := time.NewTimer(r.delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			if r.logger != nil {
				r.logger.Info("stopping scheduled job", slog.String("job", r.name))
			}
			return ctx.Err()
		case <-timer.C:
		}

		if err := r.job(ctx); err != nil && ctx.Err() == nil {
			if r.logger != nil {
				r.logger.Error("scheduled job run failed",
					slog.String("job", r.name),
					slog.Any("error", err),
				)
			}
		}

		timer.Reset(r.delay)
	}
}
