package usecase

import (
	"context"
	"time"

	"github.com/allisson/signatures/internal/metrics"
	"github.com/allisson/signatures/internal/routing/domain"
	signatureDomain "github.com/allisson/signatures/internal/signature/domain"
)

// decisionEngineWithMetrics decorates DecisionEngine with metrics instrumentation.
type decisionEngineWithMetrics struct {
	next    DecisionEngine
	metrics metrics.BusinessMetrics
}

// NewDecisionEngineWithMetrics wraps a DecisionEngine with metrics recording.
func NewDecisionEngineWithMetrics(engine DecisionEngine, m metrics.BusinessMetrics) DecisionEngine {
	return &decisionEngineWithMetrics{
		next:    engine,
		metrics: m,
	}
}

// Decide records the decision outcome and latency.
func (d *decisionEngineWithMetrics) Decide(
	ctx context.Context,
	tx signatureDomain.TransactionContext,
) (*domain.Decision, error) {
	start := time.Now()
	decision, err := d.next.Decide(ctx, tx)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "routing", "decide", status)
	d.metrics.RecordDuration(ctx, "routing", "decide", time.Since(start), status)

	if err == nil {
		outcome := "rule_matched"
		if decision.MatchedRule == nil {
			outcome = "default_channel_used"
		}
		d.metrics.RecordOperation(ctx, "routing", outcome, "success")
	}

	return decision, err
}
