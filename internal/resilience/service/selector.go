package service

import (
	providerDomain "github.com/allisson/signatures/internal/provider/domain"
	"github.com/allisson/signatures/internal/resilience/domain"
)

// ProviderSelector resolves a channel to an available provider, consulting
// the degraded mode manager and the breaker coordinator.
type ProviderSelector struct {
	degraded *DegradedModeManager
	breakers *BreakerCoordinator
}

// NewProviderSelector creates a selector over the given availability sources.
func NewProviderSelector(
	degraded *DegradedModeManager,
	breakers *BreakerCoordinator,
) *ProviderSelector {
	return &ProviderSelector{
		degraded: degraded,
		breakers: breakers,
	}
}

// SelectProvider maps the channel to its provider through the fixed bijection
// and checks availability. Returns a NoProviderError carrying the channel and
// reason when the provider cannot serve calls right now.
func (s *ProviderSelector) SelectProvider(
	channel providerDomain.Channel,
) (providerDomain.ProviderType, error) {
	provider, ok := providerDomain.ProviderFor(channel)
	if !ok {
		return "", providerDomain.ErrUnknownChannel
	}

	if s.degraded.IsDegraded(provider) {
		return "", &domain.NoProviderError{
			Channel: channel,
			Reason:  "provider is degraded",
		}
	}

	if !s.breakers.Available(provider) {
		return "", &domain.NoProviderError{
			Channel: channel,
			Reason:  "circuit breaker is open",
		}
	}

	return provider, nil
}

// IsProviderAvailable is a pure read of the current degraded and breaker
// state. It never mutates anything.
func (s *ProviderSelector) IsProviderAvailable(provider providerDomain.ProviderType) bool {
	if _, ok := providerDomain.ChannelFor(provider); !ok {
		return false
	}
	if s.degraded.IsDegraded(provider) {
		return false
	}
	return s.breakers.Available(provider)
}
