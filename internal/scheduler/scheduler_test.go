package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFixedDelayRunner_Run(t *testing.T) {
	logger := slog.Default()

	t.Run("StopsOnCancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		var runs atomic.Int64
		runner := NewFixedDelayRunner("test_job", time.Millisecond, func(ctx context.Context) error {
			if runs.Add(1) >= 3 {
				cancel()
			}
			return nil
		}, logger)

		err := runner.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.GreaterOrEqual(t, runs.Load(), int64(3))
	})

	t.Run("JobErrorDoesNotStopLoop", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		var runs atomic.Int64
		runner := NewFixedDelayRunner("failing_job", time.Millisecond, func(ctx context.Context) error {
			if runs.Add(1) >= 3 {
				cancel()
			}
			return errors.New("boom")
		}, logger)

		err := runner.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.GreaterOrEqual(t, runs.Load(), int64(3))
	})

	t.Run("CancelBeforeFirstRun", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var runs atomic.Int64
		runner := NewFixedDelayRunner("idle_job", time.Hour, func(ctx context.Context) error {
			runs.Add(1)
			return nil
		}, logger)

		err := runner.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int64(0), runs.Load())
	})
}
