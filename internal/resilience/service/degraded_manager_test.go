package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	providerDomain "github.com/allisson/signatures/internal/provider/domain"
	"github.com/allisson/signatures/internal/resilience/domain"
)

func TestDegradedModeManager_MarkDegraded(t *testing.T) {
	clock := newFakeClock()
	manager := NewDegradedModeManager(clock.Now)

	manager.MarkDegraded(providerDomain.ProviderSMS, "circuit breaker opened")

	status := manager.Status()
	assert.Equal(t, domain.ModeDegraded, status.Mode)
	assert.Equal(t, "circuit breaker opened", status.Reason)
	require.NotNil(t, status.Since)
	assert.Equal(t, clock.Now(), *status.Since)
	assert.True(t, manager.IsDegraded(providerDomain.ProviderSMS))

	// A second degraded provider keeps the original since/reason.
	clock.Advance(10)
	manager.MarkDegraded(providerDomain.ProviderPush, "circuit breaker opened")
	assert.Equal(t, *status.Since, *manager.Status().Since)
	assert.Len(t, manager.DegradedProviders(), 2)
}

func TestDegradedModeManager_AttemptReactivation(t *testing.T) {
	t.Run("Success_RemovesProvider", func(t *testing.T) {
		manager := NewDegradedModeManager(newFakeClock().Now)
		manager.MarkDegraded(providerDomain.ProviderSMS, "breaker opened")
		manager.MarkDegraded(providerDomain.ProviderPush, "breaker opened")

		assert.True(t, manager.AttemptReactivation(providerDomain.ProviderSMS))

		assert.False(t, manager.IsDegraded(providerDomain.ProviderSMS))
		// Other provider still degraded: mode stays DEGRADED.
		assert.Equal(t, domain.ModeDegraded, manager.Status().Mode)
	})

	t.Run("LastProviderRestoresNormalMode", func(t *testing.T) {
		manager := NewDegradedModeManager(newFakeClock().Now)
		manager.MarkDegraded(providerDomain.ProviderSMS, "breaker opened")

		assert.True(t, manager.AttemptReactivation(providerDomain.ProviderSMS))

		status := manager.Status()
		assert.Equal(t, domain.ModeNormal, status.Mode)
		assert.Nil(t, status.Since)
		assert.Empty(t, status.Reason)
	})

	t.Run("False_WhenNotDegraded", func(t *testing.T) {
		manager := NewDegradedModeManager(newFakeClock().Now)

		assert.False(t, manager.AttemptReactivation(providerDomain.ProviderSMS))
	})

	t.Run("MaintenanceModeSurvivesReactivation", func(t *testing.T) {
		manager := NewDegradedModeManager(newFakeClock().Now)
		manager.MarkDegraded(providerDomain.ProviderSMS, "breaker opened")
		manager.EnterMaintenanceMode("planned window")

		assert.True(t, manager.AttemptReactivation(providerDomain.ProviderSMS))

		// Admin-forced maintenance is never exited automatically.
		assert.Equal(t, domain.ModeMaintenance, manager.Status().Mode)
	})
}

func TestDegradedModeManager_ModeOverrides(t *testing.T) {
	manager := NewDegradedModeManager(newFakeClock().Now)

	manager.EnterMaintenanceMode("planned window")
	assert.Equal(t, domain.ModeMaintenance, manager.Status().Mode)

	// Idempotent: a repeated call keeps the original reason.
	manager.EnterMaintenanceMode("another reason")
	assert.Equal(t, "planned window", manager.Status().Reason)

	manager.MarkDegraded(providerDomain.ProviderSMS, "breaker opened")
	manager.ExitDegradedMode()

	status := manager.Status()
	assert.Equal(t, domain.ModeNormal, status.Mode)
	assert.Empty(t, status.DegradedProviders)
}
