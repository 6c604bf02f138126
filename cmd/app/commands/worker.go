package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/allisson/signatures/internal/app"
	"github.com/allisson/signatures/internal/config"
	"github.com/allisson/signatures/internal/scheduler"
)

// RunWorker starts the background worker loops: the expiration sweep over
// stale signature requests, the degraded-provider reactivation probe, and the
// outbox relay. Blocks until receiving SIGINT/SIGTERM; all loops stop when
// the signal context is cancelled.
func RunWorker(ctx context.Context, version string) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting worker", slog.String("version", version))

	defer closeContainer(container, logger)

	sweeper, err := container.ExpirationSweeper()
	if err != nil {
		return fmt.Errorf("failed to initialize expiration sweeper: %w", err)
	}

	reactivator, err := container.Reactivator()
	if err != nil {
		return fmt.Errorf("failed to initialize reactivator: %w", err)
	}

	outbox, err := container.OutboxUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize outbox: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runners := []*scheduler.FixedDelayRunner{
		scheduler.NewFixedDelayRunner("expiration_sweep", cfg.SweepInterval, sweeper.Sweep, logger),
		scheduler.NewFixedDelayRunner("provider_reactivation", cfg.ReactivationInterval, reactivator.ProbeAll, logger),
		scheduler.NewFixedDelayRunner("outbox_relay", cfg.OutboxRelayInterval, outbox.ProcessEvents, logger),
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, runner := range runners {
		group.Go(func() error {
			return runner.Run(groupCtx)
		})
	}

	if err := group.Wait(); err != nil && err != context.Canceled {
		return fmt.Errorf("worker error: %w", err)
	}

	logger.Info("worker stopped")
	return nil
}
