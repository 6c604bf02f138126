package service

import (
	"context"

	providerDomain "github.com/allisson/signatures/internal/provider/domain"
	"github.com/allisson/signatures/internal/resilience/domain"
)

// BreakerCoordinator owns one circuit breaker per provider and gates calls
// through them.
type BreakerCoordinator struct {
	breakers map[providerDomain.ProviderType]*CircuitBreaker
}

// NewBreakerCoordinator creates a coordinator with a closed breaker for every
// provider in the registry.
func NewBreakerCoordinator(config domain.BreakerConfig, clock Clock) *BreakerCoordinator {
	breakers := make(map[providerDomain.ProviderType]*CircuitBreaker)
	for _, provider := range providerDomain.AllProviders() {
		breakers[provider] = NewCircuitBreaker(provider, config, clock)
	}
	return &BreakerCoordinator{breakers: breakers}
}

// Subscribe registers a transition listener on every breaker. Wire listeners
// during startup, before calls flow.
func (c *BreakerCoordinator) Subscribe(listener TransitionListener) {
	for _, breaker := range c.breakers {
		breaker.Subscribe(listener)
	}
}

// Breaker returns the breaker for a provider.
func (c *BreakerCoordinator) Breaker(
	provider providerDomain.ProviderType,
) (*CircuitBreaker, bool) {
	breaker, ok := c.breakers[provider]
	return breaker, ok
}

// Execute runs fn gated by the provider's breaker. A rejected call returns
// ErrCircuitOpen without invoking fn. The call outcome feeds the breaker's
// sliding window; permanent failures (4xx-class) count as failures too since
// they indicate the provider rejected us.
func (c *BreakerCoordinator) Execute(
	ctx context.Context,
	provider providerDomain.ProviderType,
	fn func(ctx context.Context) providerDomain.CallResult,
) (providerDomain.CallResult, error) {
	breaker, ok := c.breakers[provider]
	if !ok {
		return providerDomain.CallResult{}, providerDomain.ErrUnknownProvider
	}

	if err := breaker.Allow(); err != nil {
		return providerDomain.CallResult{}, err
	}

	result := fn(ctx)
	if result.Success {
		breaker.RecordSuccess()
	} else {
		breaker.RecordFailure()
	}
	return result, nil
}

// Available is a pure read of whether the provider's breaker would permit a call.
func (c *BreakerCoordinator) Available(provider providerDomain.ProviderType) bool {
	breaker, ok := c.breakers[provider]
	if !ok {
		return false
	}
	return breaker.Available()
}

// Reset forces the provider's breaker to closed, clearing its window.
func (c *BreakerCoordinator) Reset(provider providerDomain.ProviderType) error {
	breaker, ok := c.breakers[provider]
	if !ok {
		return providerDomain.ErrUnknownProvider
	}
	breaker.Reset()
	return nil
}

// Snapshots returns a point-in-time view of every breaker.
func (c *BreakerCoordinator) Snapshots() []domain.BreakerSnapshot {
	snapshots := make([]domain.BreakerSnapshot, 0, len(c.breakers))
	for _, provider := range providerDomain.AllProviders() {
		snapshots = append(snapshots, c.breakers[provider].Snapshot())
	}
	return snapshots
}
