package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	metricsMocks "github.com/allisson/signatures/internal/metrics/mocks"
	providerDomain "github.com/allisson/signatures/internal/provider/domain"
	"github.com/allisson/signatures/internal/routing/domain"
	signatureDomain "github.com/allisson/signatures/internal/signature/domain"
)

// stubDecisionEngine returns canned decisions so the decorator can be tested alone.
type stubDecisionEngine struct {
	decision *domain.Decision
	err      error
}

func (s *stubDecisionEngine) Decide(ctx context.Context, tx signatureDomain.TransactionContext) (*domain.Decision, error) {
	return s.decision, s.err
}

func TestDecisionEngineWithMetrics(t *testing.T) {
	ctx := context.Background()
	tx := signatureDomain.NewTransactionContext(1500.00, "EUR", "merchant-1", "order-42", "laptop purchase")

	t.Run("RecordsRuleMatched", func(t *testing.T) {
		decision := &domain.Decision{
			Channel:     providerDomain.ChannelPush,
			MatchedRule: &domain.RoutingRule{Name: "high-amount"},
		}

		m := new(metricsMocks.MockBusinessMetrics)
		m.On("RecordOperation", ctx, "routing", "decide", "success")
		m.On("RecordDuration", ctx, "routing", "decide", mock.Anything, "success")
		m.On("RecordOperation", ctx, "routing", "rule_matched", "success")

		engine := NewDecisionEngineWithMetrics(&stubDecisionEngine{decision: decision}, m)
		result, err := engine.Decide(ctx, tx)

		require.NoError(t, err)
		assert.Equal(t, providerDomain.ChannelPush, result.Channel)
		m.AssertExpectations(t)
	})

	t.Run("RecordsDefaultChannelUsed", func(t *testing.T) {
		decision := &domain.Decision{Channel: providerDomain.ChannelSMS}

		m := new(metricsMocks.MockBusinessMetrics)
		m.On("RecordOperation", ctx, "routing", "decide", "success")
		m.On("RecordDuration", ctx, "routing", "decide", mock.Anything, "success")
		m.On("RecordOperation", ctx, "routing", "default_channel_used", "success")

		engine := NewDecisionEngineWithMetrics(&stubDecisionEngine{decision: decision}, m)
		_, err := engine.Decide(ctx, tx)

		require.NoError(t, err)
		m.AssertExpectations(t)
	})

	t.Run("RecordsError", func(t *testing.T) {
		m := new(metricsMocks.MockBusinessMetrics)
		m.On("RecordOperation", ctx, "routing", "decide", "error")
		m.On("RecordDuration", ctx, "routing", "decide", mock.Anything, "error")

		engine := NewDecisionEngineWithMetrics(&stubDecisionEngine{err: assert.AnError}, m)
		_, err := engine.Decide(ctx, tx)

		assert.ErrorIs(t, err, assert.AnError)
		m.AssertExpectations(t)
	})
}
