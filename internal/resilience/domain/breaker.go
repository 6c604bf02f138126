// Package domain defines the resilience entities: circuit breaker state,
// breaker transition events, and the system degraded mode.
package domain

import (
	"time"

	providerDomain "github.com/allisson/signatures/internal/provider/domain"
)

// BreakerState is the call-gating state of one provider's circuit breaker.
type BreakerState string

const (
	// BreakerClosed permits calls; failures accumulate in the sliding window.
	BreakerClosed BreakerState = "CLOSED"
	// BreakerOpen rejects all calls immediately.
	BreakerOpen BreakerState = "OPEN"
	// BreakerHalfOpen permits a bounded number of test calls.
	BreakerHalfOpen BreakerState = "HALF_OPEN"
)

// BreakerConfig holds the tunables of one circuit breaker.
type BreakerConfig struct {
	// WindowSize is the number of calls kept in the count-based sliding window.
	WindowSize int
	// MinimumCalls is how many calls must be buffered before the failure
	// rate is evaluated.
	MinimumCalls int
	// FailureRateThreshold is the failure percentage (0-100) at which a
	// closed breaker opens.
	FailureRateThreshold float64
	// OpenWait is how long an open breaker waits before permitting
	// half-open test calls.
	OpenWait time.Duration
	// HalfOpenCalls is the number of test calls permitted in half-open.
	HalfOpenCalls int
}

// DefaultBreakerConfig returns the breaker tunables used when none are configured.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		WindowSize:           10,
		MinimumCalls:         4,
		FailureRateThreshold: 50.0,
		OpenWait:             30 * time.Second,
		HalfOpenCalls:        3,
	}
}

// BreakerSnapshot is a point-in-time view of one breaker's metrics.
type BreakerSnapshot struct {
	Provider        providerDomain.ProviderType
	State           BreakerState
	BufferedCalls   int
	FailedCalls     int
	SuccessfulCalls int
	FailureRate     float64
	TransitionedAt  time.Time
}

// BreakerTransitionKind identifies a breaker transition event.
type BreakerTransitionKind string

const (
	TransitionOpened         BreakerTransitionKind = "OPENED"
	TransitionHalfOpen       BreakerTransitionKind = "HALF_OPEN"
	TransitionClosed         BreakerTransitionKind = "CLOSED"
	TransitionFailedRecovery BreakerTransitionKind = "FAILED_RECOVERY"
	TransitionReset          BreakerTransitionKind = "RESET"
)

// BreakerTransition is the typed event emitted on every breaker state change.
// Emission failure is logged and never fails the provider call that caused
// the transition.
type BreakerTransition struct {
	Kind            BreakerTransitionKind
	Provider        providerDomain.ProviderType
	FromState       BreakerState
	ToState         BreakerState
	At              time.Time
	FailureRate     float64
	BufferedCalls   int
	FailedCalls     int
	SuccessfulCalls int

	// Threshold is set on OPENED transitions: the rate that was crossed.
	Threshold float64
	// PermittedCalls is set on HALF_OPEN transitions.
	PermittedCalls int
	// Downtime is set on CLOSED transitions: time spent outside CLOSED.
	Downtime time.Duration
}
