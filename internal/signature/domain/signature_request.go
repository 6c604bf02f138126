// Package domain implements the SignatureRequest aggregate and its owned
// SignatureChallenge entities.
//
// A request is created PENDING and mutated only through its own methods.
// SIGNED, ABORTED, and EXPIRED are terminal. The documented CHALLENGED status
// is intentionally not modeled: a request stays PENDING through challenge
// creation and sending. PENDING_DEGRADED is a non-terminal sibling of PENDING
// entered when no provider is available; abort and expiry remain legal from it.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	providerDomain "github.com/allisson/signatures/internal/provider/domain"
)

// RequestStatus is the lifecycle state of a signature request.
type RequestStatus string

const (
	RequestPending         RequestStatus = "PENDING"
	RequestPendingDegraded RequestStatus = "PENDING_DEGRADED"
	RequestSigned          RequestStatus = "SIGNED"
	RequestAborted         RequestStatus = "ABORTED"
	RequestExpired         RequestStatus = "EXPIRED"
)

// SignatureRequest is the aggregate root for one transaction approval.
// Invariants: at most one challenge is PENDING or SENT at any time; ExpiresAt
// is immutable once set and inherited by every child challenge; terminal
// states accept no further mutation.
type SignatureRequest struct {
	ID uuid.UUID
	// CustomerRef is the pseudonymized customer identifier.
	CustomerRef string
	Transaction TransactionContext
	Status      RequestStatus
	Challenges  []*SignatureChallenge
	Timeline    []TimelineEvent
	CreatedAt   time.Time
	ExpiresAt   time.Time
	SignedAt    *time.Time
	AbortedAt   *time.Time
	AbortReason string
	// Version supports optimistic concurrency in the persistence layer.
	Version int
}

// NewSignatureRequest creates a PENDING request with a fixed TTL.
func NewSignatureRequest(
	customerRef string,
	transaction TransactionContext,
	ttl time.Duration,
	now time.Time,
) *SignatureRequest {
	request := &SignatureRequest{
		ID:          uuid.Must(uuid.NewV7()),
		CustomerRef: customerRef,
		Transaction: transaction,
		Status:      RequestPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	request.AppendTimeline(EventRequestCreated, "signature request created", now)
	return request
}

// AppendTimeline records an audit event. The timeline is append-only.
func (r *SignatureRequest) AppendTimeline(kind TimelineEventKind, detail string, at time.Time) {
	r.Timeline = append(r.Timeline, NewTimelineEvent(kind, detail, at))
}

// ActiveChallenge returns the challenge with status PENDING or SENT, if any.
func (r *SignatureRequest) ActiveChallenge() *SignatureChallenge {
	for _, challenge := range r.Challenges {
		if challenge.IsActive() {
			return challenge
		}
	}
	return nil
}

// ChallengeByID returns the owned challenge with the given id.
func (r *SignatureRequest) ChallengeByID(id uuid.UUID) (*SignatureChallenge, error) {
	for _, challenge := range r.Challenges {
		if challenge.ID == id {
			return challenge, nil
		}
	}
	return nil, ErrChallengeNotFound
}

// CreateChallenge adds a new PENDING challenge with a fresh one-time code and
// the parent's deadline. Fails when another challenge is still active or the
// request is finalized.
func (r *SignatureRequest) CreateChallenge(
	channel providerDomain.Channel,
	provider providerDomain.ProviderType,
	code string,
	now time.Time,
) (*SignatureChallenge, error) {
	if r.IsFinal() {
		return nil, ErrRequestFinalized
	}
	if r.ActiveChallenge() != nil {
		return nil, ErrChallengeAlreadyActive
	}

	challenge := &SignatureChallenge{
		ID:        uuid.Must(uuid.NewV7()),
		RequestID: r.ID,
		Channel:   channel,
		Provider:  provider,
		Status:    ChallengePending,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: r.ExpiresAt,
	}
	r.Challenges = append(r.Challenges, challenge)
	r.AppendTimeline(EventChallengeCreated,
		fmt.Sprintf("challenge created on channel %s via %s", channel, provider), now)
	return challenge, nil
}

// CompleteSignature transitions the request to SIGNED. The challenge must
// belong to this request and already be COMPLETED. Not idempotent: a second
// call on a SIGNED request fails, so the completion event is emitted once.
func (r *SignatureRequest) CompleteSignature(challengeID uuid.UUID, now time.Time) error {
	challenge, err := r.ChallengeByID(challengeID)
	if err != nil {
		return err
	}
	if challenge.Status != ChallengeCompleted {
		return ErrChallengeTransition
	}
	if r.Status != RequestPending && r.Status != RequestPendingDegraded {
		return ErrRequestFinalized
	}

	r.Status = RequestSigned
	r.SignedAt = &now
	r.AppendTimeline(EventSignatureCompleted,
		fmt.Sprintf("signature completed via challenge %s", challengeID), now)
	return nil
}

// Abort cancels the request. Legal only while PENDING (or PENDING_DEGRADED);
// every active challenge is failed with SIGNATURE_ABORTED.
func (r *SignatureRequest) Abort(reason, details string, now time.Time) error {
	if r.Status != RequestPending && r.Status != RequestPendingDegraded {
		return ErrRequestFinalized
	}

	for _, challenge := range r.Challenges {
		if challenge.IsActive() {
			_ = challenge.Fail(ErrorCodeSignatureAborted)
		}
	}

	r.Status = RequestAborted
	r.AbortedAt = &now
	r.AbortReason = reason

	detail := reason
	if details != "" {
		detail = fmt.Sprintf("%s: %s", reason, details)
	}
	r.AppendTimeline(EventSignatureAborted, detail, now)
	return nil
}

// Expire transitions the request to EXPIRED. Legal only once the deadline has
// passed; active challenges are expired alongside (already-terminal ones are
// skipped, keeping the operation idempotent at the challenge level).
func (r *SignatureRequest) Expire(now time.Time) error {
	if r.IsFinal() {
		return ErrRequestFinalized
	}
	if !now.After(r.ExpiresAt) {
		return ErrTTLNotExceeded
	}

	for _, challenge := range r.Challenges {
		if challenge.IsActive() {
			_ = challenge.Expire()
		}
	}

	r.Status = RequestExpired
	r.AppendTimeline(EventRequestExpired, "request ttl exceeded", now)
	return nil
}

// MarkDegraded moves a PENDING request to PENDING_DEGRADED when no provider
// is available. Idempotent.
func (r *SignatureRequest) MarkDegraded(reason string, now time.Time) error {
	if r.Status == RequestPendingDegraded {
		return nil
	}
	if r.Status != RequestPending {
		return ErrRequestFinalized
	}
	r.Status = RequestPendingDegraded
	r.AppendTimeline(EventRequestDegraded, reason, now)
	return nil
}

// IsFinal reports whether the request reached a terminal state.
func (r *SignatureRequest) IsFinal() bool {
	switch r.Status {
	case RequestSigned, RequestAborted, RequestExpired:
		return true
	default:
		return false
	}
}

// IsExpired reports whether the request deadline has passed.
func (r *SignatureRequest) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
