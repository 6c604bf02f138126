package service

import (
	"context"
	"time"

	"github.com/allisson/signatures/internal/metrics"
	"github.com/allisson/signatures/internal/provider/domain"
)

// BoundedCaller invokes provider clients with a hard timeout. When the
// deadline expires the caller is unblocked immediately and the outcome is
// reported as a transient failure; the underlying call is allowed to finish
// on its own goroutine with the result discarded.
type BoundedCaller struct {
	registry ClientRegistry
	timeout  time.Duration
	metrics  metrics.BusinessMetrics
}

// NewBoundedCaller creates a caller over the given registry.
func NewBoundedCaller(registry ClientRegistry, timeout time.Duration) *BoundedCaller {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &BoundedCaller{
		registry: registry,
		timeout:  timeout,
		metrics:  metrics.NewNoOpBusinessMetrics(),
	}
}

// WithMetrics enables outcome and latency recording for provider calls.
func (c *BoundedCaller) WithMetrics(m metrics.BusinessMetrics) *BoundedCaller {
	if m != nil {
		c.metrics = m
	}
	return c
}

// observe records one provider call's outcome and latency.
func (c *BoundedCaller) observe(ctx context.Context, result domain.CallResult) domain.CallResult {
	status := "success"
	if !result.Success {
		status = "error"
	}
	c.metrics.RecordOperation(ctx, "provider", "send_challenge", status)
	c.metrics.RecordDuration(ctx, "provider", "send_challenge", result.Latency, status)
	return result
}

// SendChallenge delivers a challenge through the provider's client, bounded
// by the configured timeout.
func (c *BoundedCaller) SendChallenge(
	ctx context.Context,
	provider domain.ProviderType,
	delivery domain.ChallengeDelivery,
) domain.CallResult {
	client, ok := c.registry.Client(provider)
	if !ok {
		return c.observe(ctx, domain.CallResult{
			Provider:  provider,
			Success:   false,
			ErrorCode: "UNKNOWN_PROVIDER",
			Kind:      domain.FailurePermanent,
		})
	}

	start := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)

	results := make(chan domain.CallResult, 1)
	go func() {
		defer cancel()
		results <- client.SendChallenge(callCtx, delivery)
	}()

	return c.observe(ctx, c.awaitResult(callCtx, provider, start, results))
}

// awaitResult waits for the call result or the deadline. The worker goroutine
// cancels the context right after delivering, so both channels can be ready
// at once; a result already delivered always wins over the deadline.
func (c *BoundedCaller) awaitResult(
	callCtx context.Context,
	provider domain.ProviderType,
	start time.Time,
	results <-chan domain.CallResult,
) domain.CallResult {
	finish := func(result domain.CallResult) domain.CallResult {
		result.Provider = provider
		result.Latency = time.Since(start)
		return result
	}

	select {
	case result := <-results:
		return finish(result)
	case <-callCtx.Done():
		select {
		case result := <-results:
			return finish(result)
		default:
		}
		// The goroutine finishes asynchronously; its result is discarded.
		return domain.CallResult{
			Provider:  provider,
			Success:   false,
			ErrorCode: "CALL_TIMEOUT",
			Kind:      domain.FailureTransient,
			Latency:   time.Since(start),
		}
	}
}

// CheckHealth probes a provider within the given timeout.
func (c *BoundedCaller) CheckHealth(
	ctx context.Context,
	provider domain.ProviderType,
	timeout time.Duration,
) domain.HealthStatus {
	client, ok := c.registry.Client(provider)
	if !ok {
		return domain.HealthDown
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)

	statuses := make(chan domain.HealthStatus, 1)
	go func() {
		defer cancel()
		statuses <- client.CheckHealth(probeCtx)
	}()

	select {
	case status := <-statuses:
		return status
	case <-probeCtx.Done():
		select {
		case status := <-statuses:
			return status
		default:
		}
		return domain.HealthDown
	}
}
