package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	providerDomain "github.com/allisson/signatures/internal/provider/domain"
	"github.com/allisson/signatures/internal/resilience/domain"
)

// fakeClock is a manually advanced clock for breaker tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func testBreakerConfig() domain.BreakerConfig {
	return domain.BreakerConfig{
		WindowSize:           10,
		MinimumCalls:         4,
		FailureRateThreshold: 50.0,
		OpenWait:             30 * time.Second,
		HalfOpenCalls:        3,
	}
}

func newTestBreaker(clock *fakeClock) *CircuitBreaker {
	return NewCircuitBreaker(providerDomain.ProviderSMS, testBreakerConfig(), clock.Now)
}

func TestCircuitBreaker_OpensOnFailureRate(t *testing.T) {
	clock := newFakeClock()
	breaker := newTestBreaker(clock)

	var transitions []domain.BreakerTransition
	breaker.Subscribe(func(tr domain.BreakerTransition) {
		transitions = append(transitions, tr)
	})

	// Three failures: below minimum calls, still closed.
	for i := 0; i < 3; i++ {
		require.NoError(t, breaker.Allow())
		breaker.RecordFailure()
	}
	assert.Equal(t, domain.BreakerClosed, breaker.State())

	// Fourth failure reaches minimum calls at 100% failure rate.
	require.NoError(t, breaker.Allow())
	breaker.RecordFailure()

	assert.Equal(t, domain.BreakerOpen, breaker.State())
	require.Len(t, transitions, 1)
	assert.Equal(t, domain.TransitionOpened, transitions[0].Kind)
	assert.Equal(t, 50.0, transitions[0].Threshold)
	assert.Equal(t, 100.0, transitions[0].FailureRate)
}

func TestCircuitBreaker_StaysClosedBelowThreshold(t *testing.T) {
	clock := newFakeClock()
	breaker := newTestBreaker(clock)

	// 3 successes and 1 failure: 25% rate, under the 50% threshold.
	for i := 0; i < 3; i++ {
		require.NoError(t, breaker.Allow())
		breaker.RecordSuccess()
	}
	require.NoError(t, breaker.Allow())
	breaker.RecordFailure()

	assert.Equal(t, domain.BreakerClosed, breaker.State())
}

func TestCircuitBreaker_SlidingWindowEvictsOldOutcomes(t *testing.T) {
	clock := newFakeClock()
	breaker := newTestBreaker(clock)

	// Fill the window with failures below the open threshold trigger point,
	// then push successes until the failures are evicted.
	for i := 0; i < 2; i++ {
		breaker.RecordFailure()
	}
	for i := 0; i < 10; i++ {
		breaker.RecordSuccess()
	}

	snapshot := breaker.Snapshot()
	assert.Equal(t, 10, snapshot.BufferedCalls)
	assert.Equal(t, 0, snapshot.FailedCalls)
	assert.Equal(t, 0.0, snapshot.FailureRate)
}

func TestCircuitBreaker_OpenRejectsUntilWaitElapses(t *testing.T) {
	clock := newFakeClock()
	breaker := newTestBreaker(clock)

	for i := 0; i < 4; i++ {
		breaker.RecordFailure()
	}
	require.Equal(t, domain.BreakerOpen, breaker.State())

	assert.ErrorIs(t, breaker.Allow(), domain.ErrCircuitOpen)
	assert.False(t, breaker.Available())

	clock.Advance(29 * time.Second)
	assert.ErrorIs(t, breaker.Allow(), domain.ErrCircuitOpen)

	// Wait elapsed: the breaker moves lazily to half-open on the next Allow.
	clock.Advance(time.Second)
	assert.True(t, breaker.Available())
	require.NoError(t, breaker.Allow())
	assert.Equal(t, domain.BreakerHalfOpen, breaker.State())
}

func TestCircuitBreaker_HalfOpenBudget(t *testing.T) {
	clock := newFakeClock()
	breaker := newTestBreaker(clock)

	for i := 0; i < 4; i++ {
		breaker.RecordFailure()
	}
	clock.Advance(30 * time.Second)

	// Three test call permits, then rejection.
	require.NoError(t, breaker.Allow())
	require.NoError(t, breaker.Allow())
	require.NoError(t, breaker.Allow())
	assert.ErrorIs(t, breaker.Allow(), domain.ErrCircuitOpen)
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	clock := newFakeClock()
	breaker := newTestBreaker(clock)

	var transitions []domain.BreakerTransition
	breaker.Subscribe(func(tr domain.BreakerTransition) {
		transitions = append(transitions, tr)
	})

	for i := 0; i < 4; i++ {
		breaker.RecordFailure()
	}
	clock.Advance(30 * time.Second)
	clock.Advance(10 * time.Second)

	// All test calls succeed: breaker closes with a clean window.
	for i := 0; i < 3; i++ {
		require.NoError(t, breaker.Allow())
		breaker.RecordSuccess()
	}

	assert.Equal(t, domain.BreakerClosed, breaker.State())
	snapshot := breaker.Snapshot()
	assert.Equal(t, 0, snapshot.BufferedCalls)

	last := transitions[len(transitions)-1]
	assert.Equal(t, domain.TransitionClosed, last.Kind)
	assert.Equal(t, 40*time.Second, last.Downtime)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := newFakeClock()
	breaker := newTestBreaker(clock)

	var transitions []domain.BreakerTransition
	breaker.Subscribe(func(tr domain.BreakerTransition) {
		transitions = append(transitions, tr)
	})

	for i := 0; i < 4; i++ {
		breaker.RecordFailure()
	}
	clock.Advance(30 * time.Second)

	require.NoError(t, breaker.Allow())
	breaker.RecordSuccess()
	require.NoError(t, breaker.Allow())
	breaker.RecordFailure()

	assert.Equal(t, domain.BreakerOpen, breaker.State())
	last := transitions[len(transitions)-1]
	assert.Equal(t, domain.TransitionFailedRecovery, last.Kind)

	// The wait restarts from the failed recovery.
	assert.ErrorIs(t, breaker.Allow(), domain.ErrCircuitOpen)
}

func TestCircuitBreaker_Reset(t *testing.T) {
	clock := newFakeClock()
	breaker := newTestBreaker(clock)

	for i := 0; i < 4; i++ {
		breaker.RecordFailure()
	}
	require.Equal(t, domain.BreakerOpen, breaker.State())

	breaker.Reset()

	assert.Equal(t, domain.BreakerClosed, breaker.State())
	assert.NoError(t, breaker.Allow())
	assert.Equal(t, 0, breaker.Snapshot().BufferedCalls)
}
