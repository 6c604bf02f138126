// Package service implements the resilience components: per-provider circuit
// breakers, the degraded mode manager, provider selection, and fallback loop
// detection.
package service

import (
	"sync"
	"time"

	providerDomain "github.com/allisson/signatures/internal/provider/domain"
	"github.com/allisson/signatures/internal/resilience/domain"
)

// Clock supplies the current time. Injected for testability.
type Clock func() time.Time

// TransitionListener receives breaker transition events. Listeners must not
// block; failures inside a listener are the listener's problem and never
// affect the call that caused the transition.
type TransitionListener func(transition domain.BreakerTransition)

// CircuitBreaker is the call-gating state machine for one provider.
// Safe for concurrent use: many in-flight requests report outcomes into the
// same sliding window.
type CircuitBreaker struct {
	provider providerDomain.ProviderType
	config   domain.BreakerConfig
	clock    Clock

	mu             sync.Mutex
	state          domain.BreakerState
	window         []bool // ring buffer of outcomes, true means failure
	head           int
	buffered       int
	failed         int
	remaining      int // test call permits left in half-open
	testSuccesses  int
	transitionedAt time.Time
	downSince      time.Time // first moment the breaker left CLOSED

	listeners []TransitionListener
}

// NewCircuitBreaker creates a closed breaker for the given provider.
func NewCircuitBreaker(
	provider providerDomain.ProviderType,
	config domain.BreakerConfig,
	clock Clock,
) *CircuitBreaker {
	if clock == nil {
		clock = time.Now
	}
	if config.WindowSize <= 0 {
		config = domain.DefaultBreakerConfig()
	}
	return &CircuitBreaker{
		provider:       provider,
		config:         config,
		clock:          clock,
		state:          domain.BreakerClosed,
		window:         make([]bool, config.WindowSize),
		transitionedAt: clock(),
	}
}

// Subscribe registers a transition listener. Not safe to call concurrently
// with breaker operation; wire listeners during startup.
func (b *CircuitBreaker) Subscribe(listener TransitionListener) {
	b.listeners = append(b.listeners, listener)
}

// Allow reports whether a call may proceed right now. An open breaker whose
// wait has elapsed transitions to half-open here; there is no background
// timer. Returns ErrCircuitOpen when the call must be rejected.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()

	switch b.state {
	case domain.BreakerClosed:
		b.mu.Unlock()
		return nil

	case domain.BreakerOpen:
		if b.clock().Sub(b.transitionedAt) < b.config.OpenWait {
			b.mu.Unlock()
			return domain.ErrCircuitOpen
		}
		transition := b.transitionLocked(domain.BreakerHalfOpen, domain.TransitionHalfOpen)
		b.remaining = b.config.HalfOpenCalls
		b.testSuccesses = 0
		b.remaining--
		b.mu.Unlock()
		b.notify(transition)
		return nil

	case domain.BreakerHalfOpen:
		if b.remaining <= 0 {
			b.mu.Unlock()
			return domain.ErrCircuitOpen
		}
		b.remaining--
		b.mu.Unlock()
		return nil
	}

	b.mu.Unlock()
	return nil
}

// RecordSuccess reports a successful call outcome.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()

	switch b.state {
	case domain.BreakerClosed:
		b.pushLocked(false)

	case domain.BreakerHalfOpen:
		b.testSuccesses++
		if b.testSuccesses >= b.config.HalfOpenCalls {
			transition := b.transitionLocked(domain.BreakerClosed, domain.TransitionClosed)
			transition.Downtime = b.clock().Sub(b.downSince)
			b.clearWindowLocked()
			b.mu.Unlock()
			b.notify(transition)
			return
		}
	}

	b.mu.Unlock()
}

// RecordFailure reports a failed call outcome.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()

	switch b.state {
	case domain.BreakerClosed:
		b.pushLocked(true)
		if b.buffered >= b.config.MinimumCalls && b.failureRateLocked() >= b.config.FailureRateThreshold {
			b.downSince = b.clock()
			transition := b.transitionLocked(domain.BreakerOpen, domain.TransitionOpened)
			transition.Threshold = b.config.FailureRateThreshold
			b.mu.Unlock()
			b.notify(transition)
			return
		}

	case domain.BreakerHalfOpen:
		// Any test call failure sends the breaker straight back to open.
		transition := b.transitionLocked(domain.BreakerOpen, domain.TransitionFailedRecovery)
		b.mu.Unlock()
		b.notify(transition)
		return
	}

	b.mu.Unlock()
}

// Reset forces the breaker to closed and clears the sliding window,
// regardless of current metrics.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	transition := b.transitionLocked(domain.BreakerClosed, domain.TransitionReset)
	b.clearWindowLocked()
	b.mu.Unlock()
	b.notify(transition)
}

// Available is a pure read: it reports whether a call could proceed without
// mutating any breaker state. An open breaker whose wait has elapsed counts
// as available because the next Allow would permit a test call.
func (b *CircuitBreaker) Available() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case domain.BreakerOpen:
		return b.clock().Sub(b.transitionedAt) >= b.config.OpenWait
	case domain.BreakerHalfOpen:
		return b.remaining > 0
	default:
		return true
	}
}

// State returns the current breaker state.
func (b *CircuitBreaker) State() domain.BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot returns a point-in-time view of the breaker metrics.
func (b *CircuitBreaker) Snapshot() domain.BreakerSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return domain.BreakerSnapshot{
		Provider:        b.provider,
		State:           b.state,
		BufferedCalls:   b.buffered,
		FailedCalls:     b.failed,
		SuccessfulCalls: b.buffered - b.failed,
		FailureRate:     b.failureRateLocked(),
		TransitionedAt:  b.transitionedAt,
	}
}

// pushLocked records one outcome into the ring buffer.
func (b *CircuitBreaker) pushLocked(failure bool) {
	if b.buffered == len(b.window) {
		// Evict the oldest outcome.
		if b.window[b.head] {
			b.failed--
		}
	} else {
		b.buffered++
	}
	b.window[b.head] = failure
	b.head = (b.head + 1) % len(b.window)
	if failure {
		b.failed++
	}
}

// failureRateLocked returns the failure percentage of the buffered calls.
func (b *CircuitBreaker) failureRateLocked() float64 {
	if b.buffered == 0 {
		return 0
	}
	return float64(b.failed) / float64(b.buffered) * 100
}

// clearWindowLocked discards all buffered outcomes.
func (b *CircuitBreaker) clearWindowLocked() {
	b.head = 0
	b.buffered = 0
	b.failed = 0
	for i := range b.window {
		b.window[i] = false
	}
}

// transitionLocked moves the breaker to a new state and builds the event.
func (b *CircuitBreaker) transitionLocked(
	to domain.BreakerState,
	kind domain.BreakerTransitionKind,
) domain.BreakerTransition {
	now := b.clock()
	transition := domain.BreakerTransition{
		Kind:            kind,
		Provider:        b.provider,
		FromState:       b.state,
		ToState:         to,
		At:              now,
		FailureRate:     b.failureRateLocked(),
		BufferedCalls:   b.buffered,
		FailedCalls:     b.failed,
		SuccessfulCalls: b.buffered - b.failed,
		PermittedCalls:  b.config.HalfOpenCalls,
	}
	b.state = to
	b.transitionedAt = now
	return transition
}

// notify delivers a transition to every listener.
func (b *CircuitBreaker) notify(transition domain.BreakerTransition) {
	for _, listener := range b.listeners {
		listener(transition)
	}
}
