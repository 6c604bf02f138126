package domain

import (
	"github.com/allisson/signatures/internal/errors"
)

var (
	// ErrRequestNotFound indicates the signature request does not exist.
	ErrRequestNotFound = errors.Wrap(errors.ErrNotFound, "signature request not found")

	// ErrChallengeNotFound indicates the challenge does not exist or does not
	// belong to the request.
	ErrChallengeNotFound = errors.Wrap(errors.ErrNotFound, "signature challenge not found")

	// ErrChallengeAlreadyActive indicates a challenge with status PENDING or
	// SENT already exists on the request.
	ErrChallengeAlreadyActive = errors.Wrap(errors.ErrConflict, "challenge already active")

	// ErrRequestFinalized indicates the request reached a terminal state and
	// accepts no further mutation.
	ErrRequestFinalized = errors.Wrap(errors.ErrInvalidTransition, "signature request is finalized")

	// ErrChallengeTransition indicates an illegal challenge state transition.
	ErrChallengeTransition = errors.Wrap(errors.ErrInvalidTransition, "illegal challenge transition")

	// ErrTTLNotExceeded indicates an expiry attempt before the deadline.
	ErrTTLNotExceeded = errors.Wrap(errors.ErrInvalidTransition, "ttl not exceeded")

	// ErrInvalidCode indicates a wrong one-time code submission.
	ErrInvalidCode = errors.Wrap(errors.ErrInvalidInput, "invalid one-time code")

	// ErrMaxCodeAttemptsExceeded indicates the challenge was failed after too
	// many wrong codes.
	ErrMaxCodeAttemptsExceeded = errors.Wrap(errors.ErrInvalidInput, "max code attempts exceeded")
)
