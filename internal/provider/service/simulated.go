package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/signatures/internal/provider/domain"
)

// SimulatedClient is an in-process provider used for local development and
// tests. Failure behavior can be toggled at runtime.
type SimulatedClient struct {
	provider domain.ProviderType
	latency  time.Duration

	mu      sync.Mutex
	failing bool
}

// NewSimulatedClient creates a healthy simulated client.
func NewSimulatedClient(provider domain.ProviderType, latency time.Duration) *SimulatedClient {
	return &SimulatedClient{
		provider: provider,
		latency:  latency,
	}
}

// SetFailing toggles failure mode.
func (c *SimulatedClient) SetFailing(failing bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failing = failing
}

// SendChallenge simulates a delivery with the configured latency.
func (c *SimulatedClient) SendChallenge(
	ctx context.Context,
	delivery domain.ChallengeDelivery,
) domain.CallResult {
	if c.latency > 0 {
		select {
		case <-time.After(c.latency):
		case <-ctx.Done():
			return domain.CallResult{
				Provider:  c.provider,
				Success:   false,
				ErrorCode: "CALL_TIMEOUT",
				Kind:      domain.FailureTransient,
			}
		}
	}

	c.mu.Lock()
	failing := c.failing
	c.mu.Unlock()

	if failing {
		return domain.CallResult{
			Provider:  c.provider,
			Success:   false,
			ErrorCode: "PROVIDER_ERROR",
			Kind:      domain.FailureTransient,
		}
	}

	return domain.CallResult{
		Provider: c.provider,
		Success:  true,
		Proof:    fmt.Sprintf("sim-%s-%s", delivery.ChallengeID, uuid.Must(uuid.NewV7())),
	}
}

// CheckHealth reports UP unless failure mode is on.
func (c *SimulatedClient) CheckHealth(ctx context.Context) domain.HealthStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return domain.HealthDown
	}
	return domain.HealthUp
}

// NewSimulatedRegistry builds a registry with one simulated client per provider.
func NewSimulatedRegistry(latency time.Duration) ClientRegistry {
	registry := make(ClientRegistry)
	for _, provider := range domain.AllProviders() {
		registry[provider] = NewSimulatedClient(provider, latency)
	}
	return registry
}
