package service

import (
	providerDomain "github.com/allisson/signatures/internal/provider/domain"
	"github.com/allisson/signatures/internal/resilience/domain"
)

// DefaultFallbackMaxAttempts bounds one routing cycle when no limit is configured.
const DefaultFallbackMaxAttempts = 3

// FallbackTracker bounds and de-duplicates provider attempts within one
// routing cycle for one signature request. It is scoped to a single request's
// processing flow and holds no cross-request state, so it needs no locking.
type FallbackTracker struct {
	maxAttempts int
	attempted   []providerDomain.ProviderType
}

// NewFallbackTracker creates a tracker with the given attempt budget.
// A budget below 1 falls back to the default.
func NewFallbackTracker(maxAttempts int) *FallbackTracker {
	if maxAttempts < 1 {
		maxAttempts = DefaultFallbackMaxAttempts
	}
	return &FallbackTracker{maxAttempts: maxAttempts}
}

// RecordAttempt registers a provider attempt. It fails with a
// FallbackLoopError when the provider was already tried (the SMS→VOICE→SMS
// cycle) or when the budget is exhausted.
func (t *FallbackTracker) RecordAttempt(provider providerDomain.ProviderType) error {
	if provider == "" {
		return providerDomain.ErrUnknownProvider
	}

	if t.HasAttempted(provider) {
		return &domain.FallbackLoopError{
			Provider:  provider,
			Attempted: t.AttemptedProviders(),
			Reason:    "provider already attempted in this cycle",
		}
	}

	if len(t.attempted) >= t.maxAttempts {
		return &domain.FallbackLoopError{
			Provider:  provider,
			Attempted: t.AttemptedProviders(),
			Reason:    "max attempts exceeded",
		}
	}

	t.attempted = append(t.attempted, provider)
	return nil
}

// HasAttempted reports whether the provider was already tried this cycle.
func (t *FallbackTracker) HasAttempted(provider providerDomain.ProviderType) bool {
	for _, p := range t.attempted {
		if p == provider {
			return true
		}
	}
	return false
}

// AttemptedProviders returns a copy of the attempted set in attempt order.
func (t *FallbackTracker) AttemptedProviders() []providerDomain.ProviderType {
	out := make([]providerDomain.ProviderType, len(t.attempted))
	copy(out, t.attempted)
	return out
}

// AttemptCount returns how many providers were tried this cycle.
func (t *FallbackTracker) AttemptCount() int {
	return len(t.attempted)
}

// Reset clears the tracker for reuse on a new request.
func (t *FallbackTracker) Reset() {
	t.attempted = t.attempted[:0]
}
