package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	providerDomain "github.com/allisson/signatures/internal/provider/domain"
	"github.com/allisson/signatures/internal/routing/domain"
	routingService "github.com/allisson/signatures/internal/routing/service"
	signatureDomain "github.com/allisson/signatures/internal/signature/domain"
)

// decisionEngine evaluates prioritized rules against the transaction context.
// The first matching rule wins; a broken rule is logged and skipped; when
// nothing matches, the configured default channel is used.
type decisionEngine struct {
	ruleRepo       RuleRepository
	evaluator      *routingService.Evaluator
	defaultChannel providerDomain.Channel
	clock          func() time.Time
	logger         *slog.Logger
}

// NewDecisionEngine creates a decision engine. A misconfigured default
// channel falls back to SMS; a nil clock falls back to time.Now.
func NewDecisionEngine(
	ruleRepo RuleRepository,
	evaluator *routingService.Evaluator,
	defaultChannel string,
	clock func() time.Time,
	logger *slog.Logger,
) DecisionEngine {
	channel, ok := providerDomain.ParseChannel(defaultChannel)
	if !ok {
		channel = providerDomain.ChannelSMS
	}
	if clock == nil {
		clock = time.Now
	}
	return &decisionEngine{
		ruleRepo:       ruleRepo,
		evaluator:      evaluator,
		defaultChannel: channel,
		clock:          clock,
		logger:         logger,
	}
}

// Decide loads enabled rules in priority order and short-circuits on the
// first match. Every pass produces an ordered timeline regardless of outcome.
func (e *decisionEngine) Decide(
	ctx context.Context,
	tx signatureDomain.TransactionContext,
) (*domain.Decision, error) {
	rules, err := e.ruleRepo.FindAllActiveOrderedByPriority(ctx)
	if err != nil {
		return nil, err
	}

	decision := &domain.Decision{}
	now := e.clock().UTC()

	for _, rule := range rules {
		matched, err := e.evaluateRule(rule, tx)
		if err != nil {
			// A single bad rule never aborts routing.
			if e.logger != nil {
				e.logger.Warn("rule evaluation failed",
					slog.String("rule_id", rule.ID.String()),
					slog.String("rule_name", rule.Name),
					slog.Any("error", err),
				)
			}
			decision.Events = append(decision.Events, signatureDomain.NewTimelineEvent(
				signatureDomain.EventRuleError,
				fmt.Sprintf("rule %q (priority %d) failed: %v", rule.Name, rule.Priority, err),
				now,
			))
			continue
		}

		if matched {
			decision.Channel = rule.Channel
			decision.MatchedRule = rule
			decision.Events = append(decision.Events, signatureDomain.NewTimelineEvent(
				signatureDomain.EventRuleMatched,
				fmt.Sprintf("rule %q (priority %d) matched, channel %s",
					rule.Name, rule.Priority, rule.Channel),
				now,
			))
			return decision, nil
		}
	}

	decision.Channel = e.defaultChannel
	decision.Events = append(decision.Events, signatureDomain.NewTimelineEvent(
		signatureDomain.EventDefaultChannelUsed,
		fmt.Sprintf("no rule matched, default channel %s", e.defaultChannel),
		now,
	))
	return decision, nil
}

// evaluateRule parses and evaluates one condition.
func (e *decisionEngine) evaluateRule(
	rule *domain.RoutingRule,
	tx signatureDomain.TransactionContext,
) (bool, error) {
	expr, err := e.evaluator.Parse(rule.Condition)
	if err != nil {
		return false, err
	}
	return e.evaluator.Evaluate(expr, tx)
}
