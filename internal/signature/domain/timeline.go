package domain

import (
	"time"

	"github.com/google/uuid"
)

// TimelineEventKind identifies an entry in a request's routing timeline.
type TimelineEventKind string

const (
	EventRequestCreated     TimelineEventKind = "REQUEST_CREATED"
	EventRuleMatched        TimelineEventKind = "RULE_MATCHED"
	EventRuleError          TimelineEventKind = "RULE_ERROR"
	EventDefaultChannelUsed TimelineEventKind = "DEFAULT_CHANNEL_USED"
	EventChallengeCreated   TimelineEventKind = "CHALLENGE_CREATED"
	EventChallengeSent      TimelineEventKind = "CHALLENGE_SENT"
	EventChallengeFailed    TimelineEventKind = "CHALLENGE_FAILED"
	EventFallbackAttempted  TimelineEventKind = "FALLBACK_ATTEMPTED"
	EventSignatureCompleted TimelineEventKind = "SIGNATURE_COMPLETED"
	EventSignatureAborted   TimelineEventKind = "SIGNATURE_ABORTED"
	EventRequestExpired     TimelineEventKind = "REQUEST_EXPIRED"
	EventRequestDegraded    TimelineEventKind = "REQUEST_DEGRADED"
)

// TimelineEvent is one append-only audit entry. The ordered timeline is the
// audit trail surfaced on query; entries are never updated or removed.
type TimelineEvent struct {
	ID     uuid.UUID
	Kind   TimelineEventKind
	Detail string
	At     time.Time
}

// NewTimelineEvent creates a timeline entry with a time-ordered id.
func NewTimelineEvent(kind TimelineEventKind, detail string, at time.Time) TimelineEvent {
	return TimelineEvent{
		ID:     uuid.Must(uuid.NewV7()),
		Kind:   kind,
		Detail: detail,
		At:     at,
	}
}
