package service

import (
	"sync"
	"time"

	providerDomain "github.com/allisson/signatures/internal/provider/domain"
	"github.com/allisson/signatures/internal/resilience/domain"
)

// DegradedModeManager holds the process-wide operational mode and the set of
// degraded providers. Created once at startup, mutated by breaker transitions
// and admin action, read on every provider selection.
type DegradedModeManager struct {
	clock Clock

	mu       sync.RWMutex
	mode     domain.SystemMode
	since    *time.Time
	reason   string
	degraded map[providerDomain.ProviderType]struct{}
}

// NewDegradedModeManager creates a manager in NORMAL mode.
func NewDegradedModeManager(clock Clock) *DegradedModeManager {
	if clock == nil {
		clock = time.Now
	}
	return &DegradedModeManager{
		clock:    clock,
		mode:     domain.ModeNormal,
		degraded: make(map[providerDomain.ProviderType]struct{}),
	}
}

// EnterDegradedMode sets the system mode to DEGRADED with the given reason.
// Idempotent: an already degraded system keeps its original since/reason.
func (m *DegradedModeManager) EnterDegradedMode(reason string) {
	m.enterMode(domain.ModeDegraded, reason)
}

// EnterMaintenanceMode sets the admin-forced MAINTENANCE mode.
func (m *DegradedModeManager) EnterMaintenanceMode(reason string) {
	m.enterMode(domain.ModeMaintenance, reason)
}

func (m *DegradedModeManager) enterMode(mode domain.SystemMode, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode == mode {
		return
	}
	now := m.clock()
	m.mode = mode
	m.since = &now
	m.reason = reason
}

// ExitDegradedMode resets the system to NORMAL and clears the degraded set.
func (m *DegradedModeManager) ExitDegradedMode() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = domain.ModeNormal
	m.since = nil
	m.reason = ""
	m.degraded = make(map[providerDomain.ProviderType]struct{})
}

// MarkDegraded adds a provider to the degraded set and moves the system to
// DEGRADED if it was NORMAL.
func (m *DegradedModeManager) MarkDegraded(provider providerDomain.ProviderType, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.degraded[provider] = struct{}{}
	if m.mode == domain.ModeNormal {
		now := m.clock()
		m.mode = domain.ModeDegraded
		m.since = &now
		m.reason = reason
	}
}

// AttemptReactivation removes the provider from the degraded set, but only if
// the manager still expects it to be degraded. Returns false with no state
// change otherwise: a concurrent breaker-driven re-open between the caller's
// health probe and this call must not be silently undone.
func (m *DegradedModeManager) AttemptReactivation(provider providerDomain.ProviderType) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.degraded[provider]; !ok {
		return false
	}
	delete(m.degraded, provider)

	// Last degraded provider healed: return to NORMAL unless an admin forced
	// maintenance.
	if len(m.degraded) == 0 && m.mode == domain.ModeDegraded {
		m.mode = domain.ModeNormal
		m.since = nil
		m.reason = ""
	}
	return true
}

// IsDegraded reports whether the provider is currently in the degraded set.
func (m *DegradedModeManager) IsDegraded(provider providerDomain.ProviderType) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.degraded[provider]
	return ok
}

// DegradedSince returns when the provider entered the degraded set's mode.
// The per-provider timestamp is approximated by the mode's since timestamp.
func (m *DegradedModeManager) DegradedSince() *time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.since
}

// Status returns a read-only view of the current mode.
func (m *DegradedModeManager) Status() domain.DegradedStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	providers := make([]providerDomain.ProviderType, 0, len(m.degraded))
	for _, provider := range providerDomain.AllProviders() {
		if _, ok := m.degraded[provider]; ok {
			providers = append(providers, provider)
		}
	}

	return domain.DegradedStatus{
		Mode:              m.mode,
		Since:             m.since,
		Reason:            m.reason,
		DegradedProviders: providers,
	}
}

// DegradedProviders returns the degraded set in registry order.
func (m *DegradedModeManager) DegradedProviders() []providerDomain.ProviderType {
	return m.Status().DegradedProviders
}
