package domain

import (
	"time"

	providerDomain "github.com/allisson/signatures/internal/provider/domain"
)

// SystemMode is the process-wide operational mode.
type SystemMode string

const (
	// ModeNormal means every provider is assumed healthy.
	ModeNormal SystemMode = "NORMAL"
	// ModeDegraded means at least one provider is unavailable.
	ModeDegraded SystemMode = "DEGRADED"
	// ModeMaintenance is an admin-forced degradation.
	ModeMaintenance SystemMode = "MAINTENANCE"
)

// DegradedStatus is a read-only view of the degraded mode singleton.
type DegradedStatus struct {
	Mode              SystemMode
	Since             *time.Time
	Reason            string
	DegradedProviders []providerDomain.ProviderType
}
