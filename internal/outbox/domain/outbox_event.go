// Package domain defines the transactional outbox event envelope.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxEventStatus represents the relay status of an outbox event.
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "pending"
	OutboxEventStatusProcessed OutboxEventStatus = "processed"
	OutboxEventStatusFailed    OutboxEventStatus = "failed"
)

// Event types emitted by the core.
const (
	EventChallengeCreated    = "signature.challenge_created"
	EventSignatureCompleted  = "signature.completed"
	EventSignatureAborted    = "signature.aborted"
	EventSignatureExpired    = "signature.expired"
	EventSignatureDegraded   = "signature.degraded"
	EventBreakerOpened       = "breaker.opened"
	EventBreakerHalfOpen     = "breaker.half_open"
	EventBreakerClosed       = "breaker.closed"
	EventBreakerFailedRecov  = "breaker.failed_recovery"
	EventBreakerReset        = "breaker.reset"
	EventProviderReactivated = "provider.reactivated"
)

// OutboxEvent is one durably stored domain event. It is written in the same
// transaction as the aggregate mutation that produced it and forwarded to
// the messaging backbone by a separate relay, giving at-least-once delivery
// without distributed transactions.
type OutboxEvent struct {
	ID            uuid.UUID
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       string
	Status        OutboxEventStatus
	Retries       int
	LastError     *string
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewOutboxEvent builds a pending event with a JSON payload.
func NewOutboxEvent(aggregateType, aggregateID, eventType string, payload any) (*OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:            uuid.Must(uuid.NewV7()),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       string(body),
		Status:        OutboxEventStatusPending,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}, nil
}
