// Package http provides HTTP handlers for signature request operations.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/signatures/internal/httputil"
	"github.com/allisson/signatures/internal/signature/http/dto"
	signatureUseCase "github.com/allisson/signatures/internal/signature/usecase"
	customValidation "github.com/allisson/signatures/internal/validation"
)

// SignatureHandler handles HTTP requests for signature request operations.
type SignatureHandler struct {
	signatureUseCase signatureUseCase.SignatureUseCase
	logger           *slog.Logger
}

// NewSignatureHandler creates a new signature handler with required dependencies.
func NewSignatureHandler(
	useCase signatureUseCase.SignatureUseCase,
	logger *slog.Logger,
) *SignatureHandler {
	return &SignatureHandler{
		signatureUseCase: useCase,
		logger:           logger,
	}
}

// CreateHandler creates a signature request and dispatches its first challenge.
// POST /v1/signature-requests
// Returns 201 Created with the aggregate, including its routing timeline. A
// request that could not be dispatched comes back PENDING_DEGRADED, still 201.
func (h *SignatureHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateSignatureRequestRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	request, err := h.signatureUseCase.CreateSignatureRequest(
		c.Request.Context(),
		signatureUseCase.CreateSignatureRequestInput{
			CustomerID:  req.CustomerID,
			Amount:      req.Amount,
			Currency:    req.Currency,
			MerchantID:  req.MerchantID,
			OrderID:     req.OrderID,
			Description: req.Description,
		},
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapSignatureRequestToResponse(request))
}

// GetHandler retrieves a signature request with challenges and timeline.
// GET /v1/signature-requests/:id
func (h *SignatureHandler) GetHandler(c *gin.Context) {
	id, ok := h.parseID(c, c.Param("id"))
	if !ok {
		return
	}

	request, err := h.signatureUseCase.Get(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSignatureRequestToResponse(request))
}

// CompleteHandler verifies a one-time code and finalizes the signature.
// POST /v1/signature-requests/:id/complete
func (h *SignatureHandler) CompleteHandler(c *gin.Context) {
	id, ok := h.parseID(c, c.Param("id"))
	if !ok {
		return
	}

	var req dto.CompleteSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	challengeID, ok := h.parseID(c, req.ChallengeID)
	if !ok {
		return
	}

	request, err := h.signatureUseCase.CompleteSignature(c.Request.Context(), id, challengeID, req.Code)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSignatureRequestToResponse(request))
}

// AbortHandler cancels a pending signature request.
// POST /v1/signature-requests/:id/abort
func (h *SignatureHandler) AbortHandler(c *gin.Context) {
	id, ok := h.parseID(c, c.Param("id"))
	if !ok {
		return
	}

	var req dto.AbortSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	request, err := h.signatureUseCase.Abort(c.Request.Context(), id, req.Reason, req.Details)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSignatureRequestToResponse(request))
}

func (h *SignatureHandler) parseID(c *gin.Context, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return uuid.Nil, false
	}
	return id, true
}
