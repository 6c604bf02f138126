package domain

import (
	"crypto/subtle"
	"time"

	"github.com/google/uuid"

	providerDomain "github.com/allisson/signatures/internal/provider/domain"
)

// ChallengeStatus is the lifecycle state of one out-of-band challenge.
type ChallengeStatus string

const (
	ChallengePending   ChallengeStatus = "PENDING"
	ChallengeSent      ChallengeStatus = "SENT"
	ChallengeCompleted ChallengeStatus = "COMPLETED"
	ChallengeFailed    ChallengeStatus = "FAILED"
	ChallengeExpired   ChallengeStatus = "EXPIRED"
)

// Error codes recorded on failed or expired challenges.
const (
	ErrorCodeTTLExceeded         = "TTL_EXCEEDED"
	ErrorCodeSignatureAborted    = "SIGNATURE_ABORTED"
	ErrorCodeMaxAttemptsExceeded = "MAX_ATTEMPTS_EXCEEDED"
)

// SignatureChallenge is one verification attempt owned by a SignatureRequest.
// It is created only through the aggregate and never persisted independently
// of its parent.
type SignatureChallenge struct {
	ID          uuid.UUID
	RequestID   uuid.UUID
	Channel     providerDomain.Channel
	Provider    providerDomain.ProviderType
	Status      ChallengeStatus
	Code        string
	Proof       string
	ErrorCode   string
	CreatedAt   time.Time
	SentAt      *time.Time
	CompletedAt *time.Time
	// ExpiresAt is copied from the parent request and never changes.
	ExpiresAt time.Time
}

// MarkAsSent transitions PENDING→SENT, recording the provider proof.
func (c *SignatureChallenge) MarkAsSent(result providerDomain.CallResult, now time.Time) error {
	if c.Status != ChallengePending {
		return ErrChallengeTransition
	}
	c.Status = ChallengeSent
	c.Proof = result.Proof
	c.SentAt = &now
	return nil
}

// Complete transitions SENT→COMPLETED, recording the non-repudiation proof.
func (c *SignatureChallenge) Complete(proof string, now time.Time) error {
	if c.Status != ChallengeSent {
		return ErrChallengeTransition
	}
	c.Status = ChallengeCompleted
	if proof != "" {
		c.Proof = proof
	}
	c.CompletedAt = &now
	return nil
}

// Fail transitions PENDING or SENT to FAILED with the given error code.
func (c *SignatureChallenge) Fail(errorCode string) error {
	if !c.IsActive() {
		return ErrChallengeTransition
	}
	c.Status = ChallengeFailed
	c.ErrorCode = errorCode
	return nil
}

// Expire transitions PENDING or SENT to EXPIRED with code TTL_EXCEEDED.
func (c *SignatureChallenge) Expire() error {
	if !c.IsActive() {
		return ErrChallengeTransition
	}
	c.Status = ChallengeExpired
	c.ErrorCode = ErrorCodeTTLExceeded
	return nil
}

// IsActive reports whether the challenge is PENDING or SENT.
func (c *SignatureChallenge) IsActive() bool {
	return c.Status == ChallengePending || c.Status == ChallengeSent
}

// IsExpired reports whether the challenge deadline has passed.
func (c *SignatureChallenge) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// ValidateCode is a pure, constant-time equality check against the stored
// one-time code. No side effect; returns false on empty input.
func (c *SignatureChallenge) ValidateCode(candidate string) bool {
	if candidate == "" || c.Code == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Code), []byte(candidate)) == 1
}
