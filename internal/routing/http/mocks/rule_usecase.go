// Package mocks provides mock implementations for testing routing HTTP handlers.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/signatures/internal/routing/domain"
)

// MockRuleUseCase is a mock implementation of RuleUseCase for testing.
type MockRuleUseCase struct {
	mock.Mock
}

// Create mocks the Create method of RuleUseCase.
func (m *MockRuleUseCase) Create(ctx context.Context, rule *domain.RoutingRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

// Get mocks the Get method of RuleUseCase.
func (m *MockRuleUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.RoutingRule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RoutingRule), args.Error(1)
}

// List mocks the List method of RuleUseCase.
func (m *MockRuleUseCase) List(ctx context.Context, limit, offset int) ([]*domain.RoutingRule, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RoutingRule), args.Error(1)
}

// Update mocks the Update method of RuleUseCase.
func (m *MockRuleUseCase) Update(ctx context.Context, rule *domain.RoutingRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

// Delete mocks the Delete method of RuleUseCase.
func (m *MockRuleUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
