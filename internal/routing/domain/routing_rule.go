// Package domain defines routing rules and decisions.
package domain

import (
	"time"

	"github.com/google/uuid"

	providerDomain "github.com/allisson/signatures/internal/provider/domain"
	signatureDomain "github.com/allisson/signatures/internal/signature/domain"
)

// RoutingRule maps a boolean condition over the transaction context to a
// target channel. Rules are immutable for one evaluation pass; mutation
// happens out-of-band and is picked up on the next load.
type RoutingRule struct {
	ID   uuid.UUID
	Name string
	// Condition is an expression in the whitelisted routing grammar,
	// e.g. `amount > 1000 && currency == "EUR"`.
	Condition string
	Channel   providerDomain.Channel
	// Priority orders evaluation; lower runs first.
	Priority  int
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the rule's static fields. The condition itself is parsed
// by the routing evaluator.
func (r *RoutingRule) Validate() error {
	if r.Name == "" {
		return ErrRuleNameEmpty
	}
	if r.Condition == "" {
		return ErrRuleConditionEmpty
	}
	if _, ok := providerDomain.ParseChannel(string(r.Channel)); !ok {
		return providerDomain.ErrUnknownChannel
	}
	return nil
}

// Decision is the outcome of one routing evaluation pass. Events form the
// audit trail regardless of outcome and are appended to the request timeline.
type Decision struct {
	Channel     providerDomain.Channel
	MatchedRule *RoutingRule
	Events      []signatureDomain.TimelineEvent
}
