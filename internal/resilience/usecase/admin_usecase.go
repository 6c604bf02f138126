package usecase

import (
	"context"

	providerDomain "github.com/allisson/signatures/internal/provider/domain"
	"github.com/allisson/signatures/internal/resilience/domain"
	"github.com/allisson/signatures/internal/resilience/service"
)

// AdminUseCase is the operator surface over the resilience state: degraded
// mode inspection and override, manual provider reactivation, and breaker
// resets.
type AdminUseCase struct {
	degraded    *service.DegradedModeManager
	breakers    *service.BreakerCoordinator
	reactivator *Reactivator
}

// NewAdminUseCase creates the admin use case.
func NewAdminUseCase(
	degraded *service.DegradedModeManager,
	breakers *service.BreakerCoordinator,
	reactivator *Reactivator,
) *AdminUseCase {
	return &AdminUseCase{
		degraded:    degraded,
		breakers:    breakers,
		reactivator: reactivator,
	}
}

// Status returns the current mode and degraded provider set.
func (uc *AdminUseCase) Status() domain.DegradedStatus {
	return uc.degraded.Status()
}

// EnterMaintenance forces MAINTENANCE mode. Unlike DEGRADED it is never
// exited automatically.
func (uc *AdminUseCase) EnterMaintenance(reason string) {
	uc.degraded.EnterMaintenanceMode(reason)
}

// ExitMaintenance returns the system to NORMAL and clears the degraded set.
func (uc *AdminUseCase) ExitMaintenance() {
	uc.degraded.ExitDegradedMode()
}

// ReactivateProvider manually probes and restores one degraded provider.
func (uc *AdminUseCase) ReactivateProvider(ctx context.Context, name string) error {
	provider, ok := providerDomain.ParseProviderType(name)
	if !ok {
		return providerDomain.ErrUnknownProvider
	}
	if !uc.degraded.IsDegraded(provider) {
		return domain.ErrProviderNotDegraded
	}
	return uc.reactivator.Reactivate(ctx, provider)
}

// ResetBreaker forces one provider's breaker back to closed.
func (uc *AdminUseCase) ResetBreaker(name string) error {
	provider, ok := providerDomain.ParseProviderType(name)
	if !ok {
		return providerDomain.ErrUnknownProvider
	}
	return uc.breakers.Reset(provider)
}

// BreakerSnapshots returns a point-in-time view of every breaker.
func (uc *AdminUseCase) BreakerSnapshots() []domain.BreakerSnapshot {
	return uc.breakers.Snapshots()
}
