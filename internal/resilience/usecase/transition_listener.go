// Package usecase wires breaker transitions into the degraded mode manager,
// the outbox, and metrics, and implements the reactivation scheduler and the
// admin surface.
package usecase

import (
	"context"
	"log/slog"

	"github.com/allisson/signatures/internal/metrics"
	outboxDomain "github.com/allisson/signatures/internal/outbox/domain"
	outboxUsecase "github.com/allisson/signatures/internal/outbox/usecase"
	"github.com/allisson/signatures/internal/resilience/domain"
	"github.com/allisson/signatures/internal/resilience/service"
)

// transitionEventTypes maps breaker transition kinds to outbox event types.
var transitionEventTypes = map[domain.BreakerTransitionKind]string{
	domain.TransitionOpened:         outboxDomain.EventBreakerOpened,
	domain.TransitionHalfOpen:       outboxDomain.EventBreakerHalfOpen,
	domain.TransitionClosed:         outboxDomain.EventBreakerClosed,
	domain.TransitionFailedRecovery: outboxDomain.EventBreakerFailedRecov,
	domain.TransitionReset:          outboxDomain.EventBreakerReset,
}

// NewTransitionListener returns the listener wired onto every breaker at
// startup. An OPENED transition marks the provider degraded; a CLOSED
// transition (successful half-open recovery) clears it. Every transition is
// published and counted. Publish failures are logged and swallowed: the
// provider call that caused the transition must never fail on observability.
func NewTransitionListener(
	degraded *service.DegradedModeManager,
	outbox outboxUsecase.Publisher,
	m metrics.BusinessMetrics,
	logger *slog.Logger,
) service.TransitionListener {
	if m == nil {
		m = metrics.NewNoOpBusinessMetrics()
	}

	return func(transition domain.BreakerTransition) {
		ctx := context.Background()

		switch transition.Kind {
		case domain.TransitionOpened:
			degraded.MarkDegraded(transition.Provider, "circuit breaker opened")
		case domain.TransitionClosed:
			degraded.AttemptReactivation(transition.Provider)
		}

		m.RecordOperation(ctx, "breaker", "transition_"+string(transition.Kind), "success")

		if logger != nil {
			logger.Info("circuit breaker transition",
				slog.String("provider", string(transition.Provider)),
				slog.String("kind", string(transition.Kind)),
				slog.String("from", string(transition.FromState)),
				slog.String("to", string(transition.ToState)),
				slog.Float64("failure_rate", transition.FailureRate),
			)
		}

		eventType, ok := transitionEventTypes[transition.Kind]
		if !ok {
			return
		}

		event, err := outboxDomain.NewOutboxEvent(
			"circuit_breaker", string(transition.Provider), eventType, map[string]any{
				"provider":     transition.Provider,
				"from_state":   transition.FromState,
				"to_state":     transition.ToState,
				"at":           transition.At,
				"failure_rate": transition.FailureRate,
				"threshold":    transition.Threshold,
				"downtime_ms":  transition.Downtime.Milliseconds(),
			})
		if err == nil {
			err = outbox.Publish(ctx, event)
		}
		if err != nil && logger != nil {
			logger.Error("failed to publish breaker transition event",
				slog.String("provider", string(transition.Provider)),
				slog.String("kind", string(transition.Kind)),
				slog.Any("error", err),
			)
		}
	}
}
