// Package http provides the operator HTTP surface over resilience state:
// degraded mode, provider reactivation, and circuit breakers.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"

	"github.com/allisson/signatures/internal/httputil"
	"github.com/allisson/signatures/internal/resilience/domain"
	resilienceUseCase "github.com/allisson/signatures/internal/resilience/usecase"
	customValidation "github.com/allisson/signatures/internal/validation"
)

// AdminHandler handles HTTP requests for resilience administration.
type AdminHandler struct {
	adminUseCase *resilienceUseCase.AdminUseCase
	logger       *slog.Logger
}

// NewAdminHandler creates a new resilience admin handler.
func NewAdminHandler(useCase *resilienceUseCase.AdminUseCase, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		adminUseCase: useCase,
		logger:       logger,
	}
}

// DegradedStatusResponse represents the system operational mode in API responses.
type DegradedStatusResponse struct {
	Mode              string     `json:"mode"`
	Since             *time.Time `json:"since,omitempty"`
	Reason            string     `json:"reason,omitempty"`
	DegradedProviders []string   `json:"degraded_providers"`
}

// BreakerSnapshotResponse represents one circuit breaker's state in API responses.
type BreakerSnapshotResponse struct {
	Provider        string    `json:"provider"`
	State           string    `json:"state"`
	BufferedCalls   int       `json:"buffered_calls"`
	FailedCalls     int       `json:"failed_calls"`
	SuccessfulCalls int       `json:"successful_calls"`
	FailureRate     float64   `json:"failure_rate"`
	TransitionedAt  time.Time `json:"transitioned_at"`
}

// MaintenanceRequest contains the parameters for entering maintenance mode.
type MaintenanceRequest struct {
	Reason string `json:"reason"`
}

// Validate checks if the maintenance request is valid.
func (r *MaintenanceRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Reason, validation.Required, customValidation.NotBlank),
	)
}

// StatusHandler returns the current operational mode and degraded provider set.
// GET /v1/admin/degraded-mode
func (h *AdminHandler) StatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, mapStatusToResponse(h.adminUseCase.Status()))
}

// EnterMaintenanceHandler forces the system into MAINTENANCE mode.
// POST /v1/admin/degraded-mode/maintenance
func (h *AdminHandler) EnterMaintenanceHandler(c *gin.Context) {
	var req MaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	h.adminUseCase.EnterMaintenance(req.Reason)
	c.JSON(http.StatusOK, mapStatusToResponse(h.adminUseCase.Status()))
}

// ExitMaintenanceHandler returns the system to NORMAL mode.
// DELETE /v1/admin/degraded-mode/maintenance
func (h *AdminHandler) ExitMaintenanceHandler(c *gin.Context) {
	h.adminUseCase.ExitMaintenance()
	c.JSON(http.StatusOK, mapStatusToResponse(h.adminUseCase.Status()))
}

// ReactivateProviderHandler manually probes and restores a degraded provider.
// POST /v1/admin/providers/:provider/reactivate
func (h *AdminHandler) ReactivateProviderHandler(c *gin.Context) {
	if err := h.adminUseCase.ReactivateProvider(c.Request.Context(), c.Param("provider")); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, mapStatusToResponse(h.adminUseCase.Status()))
}

// ListBreakersHandler returns a snapshot of every circuit breaker.
// GET /v1/admin/breakers
func (h *AdminHandler) ListBreakersHandler(c *gin.Context) {
	snapshots := h.adminUseCase.BreakerSnapshots()

	data := make([]BreakerSnapshotResponse, 0, len(snapshots))
	for _, snapshot := range snapshots {
		data = append(data, BreakerSnapshotResponse{
			Provider:        string(snapshot.Provider),
			State:           string(snapshot.State),
			BufferedCalls:   snapshot.BufferedCalls,
			FailedCalls:     snapshot.FailedCalls,
			SuccessfulCalls: snapshot.SuccessfulCalls,
			FailureRate:     snapshot.FailureRate,
			TransitionedAt:  snapshot.TransitionedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": data})
}

// ResetBreakerHandler forces a provider's breaker back to closed.
// POST /v1/admin/breakers/:provider/reset
func (h *AdminHandler) ResetBreakerHandler(c *gin.Context) {
	if err := h.adminUseCase.ResetBreaker(c.Param("provider")); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.Data(http.StatusNoContent, "application/json", nil)
}

func mapStatusToResponse(status domain.DegradedStatus) DegradedStatusResponse {
	providers := make([]string, 0, len(status.DegradedProviders))
	for _, provider := range status.DegradedProviders {
		providers = append(providers, string(provider))
	}

	return DegradedStatusResponse{
		Mode:              string(status.Mode),
		Since:             status.Since,
		Reason:            status.Reason,
		DegradedProviders: providers,
	}
}
