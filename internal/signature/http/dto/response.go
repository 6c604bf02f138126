package dto

import (
	"time"

	signatureDomain "github.com/allisson/signatures/internal/signature/domain"
)

// TransactionResponse represents the approved transaction context in API responses.
type TransactionResponse struct {
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	MerchantID    string  `json:"merchant_id"`
	OrderID       string  `json:"order_id"`
	Description   string  `json:"description,omitempty"`
	IntegrityHash string  `json:"integrity_hash"`
}

// ChallengeResponse represents a signature challenge in API responses.
// The one-time code is never included.
type ChallengeResponse struct {
	ID          string     `json:"id"`
	Channel     string     `json:"channel"`
	Provider    string     `json:"provider"`
	Status      string     `json:"status"`
	ErrorCode   string     `json:"error_code,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`
}

// TimelineEventResponse represents one audit trail entry in API responses.
type TimelineEventResponse struct {
	ID     string    `json:"id"`
	Kind   string    `json:"kind"`
	Detail string    `json:"detail"`
	At     time.Time `json:"at"`
}

// SignatureRequestResponse represents a signature request in API responses.
type SignatureRequestResponse struct {
	ID          string                  `json:"id"`
	CustomerRef string                  `json:"customer_ref"`
	Transaction TransactionResponse     `json:"transaction"`
	Status      string                  `json:"status"`
	Challenges  []ChallengeResponse     `json:"challenges"`
	Timeline    []TimelineEventResponse `json:"timeline"`
	CreatedAt   time.Time               `json:"created_at"`
	ExpiresAt   time.Time               `json:"expires_at"`
	SignedAt    *time.Time              `json:"signed_at,omitempty"`
	AbortedAt   *time.Time              `json:"aborted_at,omitempty"`
	AbortReason string                  `json:"abort_reason,omitempty"`
}

// MapSignatureRequestToResponse converts a domain signature request to an API response.
func MapSignatureRequestToResponse(request *signatureDomain.SignatureRequest) SignatureRequestResponse {
	challenges := make([]ChallengeResponse, 0, len(request.Challenges))
	for _, challenge := range request.Challenges {
		challenges = append(challenges, ChallengeResponse{
			ID:          challenge.ID.String(),
			Channel:     string(challenge.Channel),
			Provider:    string(challenge.Provider),
			Status:      string(challenge.Status),
			ErrorCode:   challenge.ErrorCode,
			CreatedAt:   challenge.CreatedAt,
			SentAt:      challenge.SentAt,
			CompletedAt: challenge.CompletedAt,
			ExpiresAt:   challenge.ExpiresAt,
		})
	}

	timeline := make([]TimelineEventResponse, 0, len(request.Timeline))
	for _, event := range request.Timeline {
		timeline = append(timeline, TimelineEventResponse{
			ID:     event.ID.String(),
			Kind:   string(event.Kind),
			Detail: event.Detail,
			At:     event.At,
		})
	}

	return SignatureRequestResponse{
		ID:          request.ID.String(),
		CustomerRef: request.CustomerRef,
		Transaction: TransactionResponse{
			Amount:        request.Transaction.Amount,
			Currency:      request.Transaction.Currency,
			MerchantID:    request.Transaction.MerchantID,
			OrderID:       request.Transaction.OrderID,
			Description:   request.Transaction.Description,
			IntegrityHash: request.Transaction.IntegrityHash,
		},
		Status:      string(request.Status),
		Challenges:  challenges,
		Timeline:    timeline,
		CreatedAt:   request.CreatedAt,
		ExpiresAt:   request.ExpiresAt,
		SignedAt:    request.SignedAt,
		AbortedAt:   request.AbortedAt,
		AbortReason: request.AbortReason,
	}
}
