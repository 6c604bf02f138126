package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/allisson/signatures/internal/errors"
	"github.com/allisson/signatures/internal/metrics"
	outboxDomain "github.com/allisson/signatures/internal/outbox/domain"
	outboxUsecase "github.com/allisson/signatures/internal/outbox/usecase"
	providerDomain "github.com/allisson/signatures/internal/provider/domain"
	providerService "github.com/allisson/signatures/internal/provider/service"
	"github.com/allisson/signatures/internal/resilience/domain"
	"github.com/allisson/signatures/internal/resilience/service"
)

// Reactivator probes degraded providers and restores the ones that answer
// healthy. It backs both the periodic scheduler sweep and manual admin
// reactivation.
type Reactivator struct {
	probeTimeout time.Duration
	caller       *providerService.BoundedCaller
	degraded     *service.DegradedModeManager
	breakers     *service.BreakerCoordinator
	outbox       outboxUsecase.Publisher
	metrics      metrics.BusinessMetrics
	logger       *slog.Logger
}

// NewReactivator creates a reactivator.
func NewReactivator(
	probeTimeout time.Duration,
	caller *providerService.BoundedCaller,
	degraded *service.DegradedModeManager,
	breakers *service.BreakerCoordinator,
	outbox outboxUsecase.Publisher,
	m metrics.BusinessMetrics,
	logger *slog.Logger,
) *Reactivator {
	if m == nil {
		m = metrics.NewNoOpBusinessMetrics()
	}
	return &Reactivator{
		probeTimeout: probeTimeout,
		caller:       caller,
		degraded:     degraded,
		breakers:     breakers,
		outbox:       outbox,
		metrics:      m,
		logger:       logger,
	}
}

// ProbeAll health-checks every degraded provider and reactivates the healthy
// ones. One provider's failure never blocks the rest of the sweep.
func (r *Reactivator) ProbeAll(ctx context.Context) error {
	providers := r.degraded.DegradedProviders()
	if len(providers) == 0 {
		return nil
	}

	var reactivated int64
	for _, provider := range providers {
		if err := r.Reactivate(ctx, provider); err != nil {
			if r.logger != nil {
				r.logger.Info("provider not reactivated",
					slog.String("provider", string(provider)),
					slog.Any("error", err),
				)
			}
			continue
		}
		reactivated++
	}

	r.metrics.RecordCount(ctx, "reactivation", "providers_reactivated", reactivated)
	return nil
}

// Reactivate probes one provider and restores it on a healthy answer: the
// provider leaves the degraded set and its breaker is reset to closed. The
// degraded set check happens after the probe, so a breaker that re-opened
// mid-probe wins and the stale probe result is discarded.
func (r *Reactivator) Reactivate(ctx context.Context, provider providerDomain.ProviderType) error {
	if _, ok := providerDomain.ChannelFor(provider); !ok {
		return providerDomain.ErrUnknownProvider
	}

	if status := r.caller.CheckHealth(ctx, provider, r.probeTimeout); status != providerDomain.HealthUp {
		r.metrics.RecordOperation(ctx, "reactivation", "health_probe", "error")
		return errors.Wrap(errors.ErrUnavailable, "provider health probe failed")
	}
	r.metrics.RecordOperation(ctx, "reactivation", "health_probe", "success")

	// Read before AttemptReactivation: restoring the last degraded provider
	// clears the since timestamp.
	since := r.degraded.DegradedSince()

	if !r.degraded.AttemptReactivation(provider) {
		return domain.ErrProviderNotDegraded
	}

	if err := r.breakers.Reset(provider); err != nil {
		return err
	}

	var downtime time.Duration
	if since != nil {
		downtime = time.Since(*since)
	}

	if r.logger != nil {
		r.logger.Info("provider reactivated",
			slog.String("provider", string(provider)),
			slog.Duration("downtime", downtime),
		)
	}

	event, err := outboxDomain.NewOutboxEvent(
		"provider", string(provider),
		outboxDomain.EventProviderReactivated, map[string]any{
			"provider":    provider,
			"downtime_ms": downtime.Milliseconds(),
		})
	if err == nil {
		err = r.outbox.Publish(ctx, event)
	}
	if err != nil && r.logger != nil {
		// The provider is already restored; the event is best effort here.
		r.logger.Error("failed to publish provider reactivation event",
			slog.String("provider", string(provider)),
			slog.Any("error", err),
		)
	}

	return nil
}
