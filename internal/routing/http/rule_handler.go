// Package http provides HTTP handlers for routing rule management.
// Rule changes are out-of-band: in-flight routing evaluations keep the rule
// set they loaded and new requests pick up changes on the next evaluation.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/signatures/internal/httputil"
	"github.com/allisson/signatures/internal/routing/http/dto"
	routingUseCase "github.com/allisson/signatures/internal/routing/usecase"
	customValidation "github.com/allisson/signatures/internal/validation"
)

// RuleHandler handles HTTP requests for routing rule management.
type RuleHandler struct {
	ruleUseCase routingUseCase.RuleUseCase
	logger      *slog.Logger
}

// NewRuleHandler creates a new routing rule handler with required dependencies.
func NewRuleHandler(useCase routingUseCase.RuleUseCase, logger *slog.Logger) *RuleHandler {
	return &RuleHandler{
		ruleUseCase: useCase,
		logger:      logger,
	}
}

// CreateHandler creates a new routing rule.
// POST /v1/routing-rules
// Returns 201 Created. The condition is parsed at write time; a syntax error
// is rejected here rather than surfacing during request routing.
func (h *RuleHandler) CreateHandler(c *gin.Context) {
	var req dto.RoutingRuleRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	rule := req.ToDomain()
	if err := h.ruleUseCase.Create(c.Request.Context(), rule); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapRuleToResponse(rule))
}

// GetHandler retrieves a routing rule by id.
// GET /v1/routing-rules/:id
func (h *RuleHandler) GetHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	rule, err := h.ruleUseCase.Get(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRuleToResponse(rule))
}

// ListHandler retrieves routing rules with pagination.
// GET /v1/routing-rules?offset=0&limit=50
func (h *RuleHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	rules, err := h.ruleUseCase.List(c.Request.Context(), limit, offset)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRulesToListResponse(rules))
}

// UpdateHandler updates an existing routing rule.
// PUT /v1/routing-rules/:id
func (h *RuleHandler) UpdateHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.RoutingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	rule := req.ToDomain()
	rule.ID = id
	if err := h.ruleUseCase.Update(c.Request.Context(), rule); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRuleToResponse(rule))
}

// DeleteHandler removes a routing rule.
// DELETE /v1/routing-rules/:id
// Returns 204 No Content.
func (h *RuleHandler) DeleteHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.ruleUseCase.Delete(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}
