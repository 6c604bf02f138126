package commands

import (
	"context"
	"fmt"

	"github.com/allisson/signatures/internal/app"
	"github.com/allisson/signatures/internal/config"
)

// RunSweepExpired executes one expiration sweep and exits. Useful for
// operating the sweep from an external scheduler instead of the worker.
func RunSweepExpired(ctx context.Context) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()

	defer closeContainer(container, logger)

	sweeper, err := container.ExpirationSweeper()
	if err != nil {
		return fmt.Errorf("failed to initialize expiration sweeper: %w", err)
	}

	if err := sweeper.Sweep(ctx); err != nil {
		return fmt.Errorf("expiration sweep failed: %w", err)
	}

	logger.Info("expiration sweep completed")
	return nil
}
