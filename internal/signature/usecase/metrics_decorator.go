package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/signatures/internal/metrics"
	"github.com/allisson/signatures/internal/signature/domain"
)

// signatureUseCaseWithMetrics decorates SignatureUseCase with metrics instrumentation.
type signatureUseCaseWithMetrics struct {
	next    SignatureUseCase
	metrics metrics.BusinessMetrics
}

// NewSignatureUseCaseWithMetrics wraps a SignatureUseCase with metrics recording.
func NewSignatureUseCaseWithMetrics(
	useCase SignatureUseCase,
	m metrics.BusinessMetrics,
) SignatureUseCase {
	return &signatureUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// CreateSignatureRequest records metrics for request creation.
func (s *signatureUseCaseWithMetrics) CreateSignatureRequest(
	ctx context.Context,
	input CreateSignatureRequestInput,
) (*domain.SignatureRequest, error) {
	start := time.Now()
	request, err := s.next.CreateSignatureRequest(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signature", "create_request", status)
	s.metrics.RecordDuration(ctx, "signature", "create_request", time.Since(start), status)

	if err == nil {
		if request.Status == domain.RequestPendingDegraded {
			s.metrics.RecordOperation(ctx, "signature", "create_request_degraded", "success")
		}
		if fallbacks := countTimelineEvents(request.Timeline, domain.EventFallbackAttempted); fallbacks > 0 {
			s.metrics.RecordCount(ctx, "fallback", "attempts", fallbacks)
		}
	}

	return request, err
}

// countTimelineEvents counts timeline entries of one kind.
func countTimelineEvents(timeline []domain.TimelineEvent, kind domain.TimelineEventKind) int64 {
	var n int64
	for _, event := range timeline {
		if event.Kind == kind {
			n++
		}
	}
	return n
}

// Get records metrics for request retrieval.
func (s *signatureUseCaseWithMetrics) Get(
	ctx context.Context,
	id uuid.UUID,
) (*domain.SignatureRequest, error) {
	start := time.Now()
	request, err := s.next.Get(ctx, id)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signature", "get_request", status)
	s.metrics.RecordDuration(ctx, "signature", "get_request", time.Since(start), status)

	return request, err
}

// CompleteSignature records metrics for code verification.
func (s *signatureUseCaseWithMetrics) CompleteSignature(
	ctx context.Context,
	requestID, challengeID uuid.UUID,
	code string,
) (*domain.SignatureRequest, error) {
	start := time.Now()
	request, err := s.next.CompleteSignature(ctx, requestID, challengeID, code)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signature", "complete_signature", status)
	s.metrics.RecordDuration(ctx, "signature", "complete_signature", time.Since(start), status)

	return request, err
}

// Abort records metrics for request cancellation.
func (s *signatureUseCaseWithMetrics) Abort(
	ctx context.Context,
	id uuid.UUID,
	reason, details string,
) (*domain.SignatureRequest, error) {
	start := time.Now()
	request, err := s.next.Abort(ctx, id, reason, details)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signature", "abort_request", status)
	s.metrics.RecordDuration(ctx, "signature", "abort_request", time.Since(start), status)

	return request, err
}
