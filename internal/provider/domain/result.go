package domain

import "time"

// FailureKind classifies a provider call failure for retry and breaker accounting.
type FailureKind string

const (
	// FailureTransient covers timeouts, 5xx responses, and network errors.
	// Transient failures feed the breaker and may be retried.
	FailureTransient FailureKind = "TRANSIENT"
	// FailurePermanent covers authentication and malformed-input errors
	// (4xx-class). Never retried.
	FailurePermanent FailureKind = "PERMANENT"
)

// CallResult is the outcome of one provider call, captured as a value rather
// than an exception so it can feed the breaker's failure accounting.
type CallResult struct {
	Provider  ProviderType
	Success   bool
	Proof     string
	ErrorCode string
	Kind      FailureKind
	Latency   time.Duration
}

// HealthStatus is the outcome of a provider health probe.
type HealthStatus string

const (
	HealthUp   HealthStatus = "UP"
	HealthDown HealthStatus = "DOWN"
)

// ChallengeDelivery carries everything a provider needs to deliver a challenge.
type ChallengeDelivery struct {
	ChallengeID string
	Channel     Channel
	CustomerRef string
	Code        string
	Description string
}
