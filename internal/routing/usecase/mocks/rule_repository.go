// Package mocks provides mock implementations for testing routing use cases.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/signatures/internal/routing/domain"
)

// MockRuleRepository is a mock implementation of RuleRepository for testing.
type MockRuleRepository struct {
	mock.Mock
}

// Create mocks the Create method of RuleRepository.
func (m *MockRuleRepository) Create(ctx context.Context, rule *domain.RoutingRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

// GetByID mocks the GetByID method of RuleRepository.
func (m *MockRuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RoutingRule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RoutingRule), args.Error(1)
}

// List mocks the List method of RuleRepository.
func (m *MockRuleRepository) List(ctx context.Context, limit, offset int) ([]*domain.RoutingRule, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RoutingRule), args.Error(1)
}

// Update mocks the Update method of RuleRepository.
func (m *MockRuleRepository) Update(ctx context.Context, rule *domain.RoutingRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

// Delete mocks the Delete method of RuleRepository.
func (m *MockRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// FindAllActiveOrderedByPriority mocks the FindAllActiveOrderedByPriority method of RuleRepository.
func (m *MockRuleRepository) FindAllActiveOrderedByPriority(ctx context.Context) ([]*domain.RoutingRule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RoutingRule), args.Error(1)
}
