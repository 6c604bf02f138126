package domain

import (
	"fmt"

	"github.com/allisson/signatures/internal/errors"
	providerDomain "github.com/allisson/signatures/internal/provider/domain"
)

var (
	// ErrCircuitOpen indicates the provider's breaker is rejecting calls.
	ErrCircuitOpen = errors.Wrap(errors.ErrUnavailable, "circuit breaker is open")

	// ErrNoAvailableProvider indicates no provider can serve the channel.
	ErrNoAvailableProvider = errors.Wrap(errors.ErrUnavailable, "no available provider")

	// ErrProviderNotDegraded indicates a reactivation attempt for a provider
	// the manager does not consider degraded.
	ErrProviderNotDegraded = errors.Wrap(errors.ErrConflict, "provider is not degraded")
)

// FallbackLoopError is raised when a routing cycle would retry an already
// attempted provider or exceed the fallback budget.
type FallbackLoopError struct {
	Provider  providerDomain.ProviderType
	Attempted []providerDomain.ProviderType
	Reason    string
}

// Error implements the error interface.
func (e *FallbackLoopError) Error() string {
	return fmt.Sprintf("fallback loop detected: %s (provider=%s, attempted=%v)",
		e.Reason, e.Provider, e.Attempted)
}

// Unwrap makes FallbackLoopError match errors.ErrConflict.
func (e *FallbackLoopError) Unwrap() error {
	return errors.ErrConflict
}

// NoProviderError carries the channel and reason of a failed selection.
type NoProviderError struct {
	Channel providerDomain.Channel
	Reason  string
}

// Error implements the error interface.
func (e *NoProviderError) Error() string {
	return fmt.Sprintf("no available provider for channel %s: %s", e.Channel, e.Reason)
}

// Unwrap makes NoProviderError match ErrNoAvailableProvider.
func (e *NoProviderError) Unwrap() error {
	return ErrNoAvailableProvider
}
