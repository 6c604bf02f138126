// Package usecase implements the signature request orchestration: request
// creation with routing and provider fallback, code verification, abort, and
// the expiration sweep.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/signatures/internal/signature/domain"
)

// SignatureRequestRepository defines aggregate persistence operations. The
// aggregate is always loaded and saved whole, challenges and timeline included.
type SignatureRequestRepository interface {
	Create(ctx context.Context, request *domain.SignatureRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SignatureRequest, error)
	// Update persists the aggregate with optimistic concurrency: it fails
	// with a conflict when the stored version no longer matches.
	Update(ctx context.Context, request *domain.SignatureRequest) error
	// FindExpiredActiveIDs returns ids of non-terminal requests whose
	// deadline passed before now, oldest first.
	FindExpiredActiveIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

// CreateSignatureRequestInput carries the attributes of a new request.
type CreateSignatureRequestInput struct {
	CustomerID  string
	Amount      float64
	Currency    string
	MerchantID  string
	OrderID     string
	Description string
}

// SignatureUseCase defines the signature orchestration surface.
type SignatureUseCase interface {
	// CreateSignatureRequest creates a request, routes it to a channel, and
	// dispatches the first challenge, falling back across providers when
	// delivery fails. A request with no deliverable channel is returned in
	// PENDING_DEGRADED rather than rejected.
	CreateSignatureRequest(
		ctx context.Context,
		input CreateSignatureRequestInput,
	) (*domain.SignatureRequest, error)

	// Get returns the aggregate with its challenges and timeline.
	Get(ctx context.Context, id uuid.UUID) (*domain.SignatureRequest, error)

	// CompleteSignature verifies the submitted one-time code against the
	// challenge and finalizes the request as SIGNED. Wrong codes are counted;
	// the challenge fails permanently once the attempt budget is spent.
	CompleteSignature(
		ctx context.Context,
		requestID, challengeID uuid.UUID,
		code string,
	) (*domain.SignatureRequest, error)

	// Abort cancels a pending request and fails its active challenge.
	Abort(ctx context.Context, id uuid.UUID, reason, details string) (*domain.SignatureRequest, error)
}
