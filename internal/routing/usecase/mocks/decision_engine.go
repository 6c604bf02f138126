package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/signatures/internal/routing/domain"
	signatureDomain "github.com/allisson/signatures/internal/signature/domain"
)

// MockDecisionEngine is a mock implementation of DecisionEngine for testing.
type MockDecisionEngine struct {
	mock.Mock
}

// Decide mocks the Decide method of DecisionEngine.
func (m *MockDecisionEngine) Decide(ctx context.Context, tx signatureDomain.TransactionContext) (*domain.Decision, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Decision), args.Error(1)
}
