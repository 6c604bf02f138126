// Package service defines the provider port and the bounded-timeout caller
// that invokes it.
package service

import (
	"context"

	"github.com/allisson/signatures/internal/provider/domain"
)

// ProviderClient is the port a concrete channel provider implements.
// Implementations live outside the core (SMS gateways, push services); the
// simulated clients in this package stand in for local development and tests.
type ProviderClient interface {
	// SendChallenge delivers a challenge and returns the outcome as a value.
	// Transport failures are reported through CallResult, not an error;
	// the error return covers context cancellation only.
	SendChallenge(ctx context.Context, delivery domain.ChallengeDelivery) domain.CallResult

	// CheckHealth probes the provider within the context deadline.
	CheckHealth(ctx context.Context) domain.HealthStatus
}

// ClientRegistry maps provider types to their clients.
type ClientRegistry map[domain.ProviderType]ProviderClient

// Client returns the client for a provider.
func (r ClientRegistry) Client(provider domain.ProviderType) (ProviderClient, bool) {
	client, ok := r[provider]
	return client, ok
}
