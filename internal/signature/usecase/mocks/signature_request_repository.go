// Package mocks provides mock implementations for testing signature use cases.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/signatures/internal/signature/domain"
)

// MockSignatureRequestRepository is a mock implementation of SignatureRequestRepository for testing.
type MockSignatureRequestRepository struct {
	mock.Mock
}

// Create mocks the Create method of SignatureRequestRepository.
func (m *MockSignatureRequestRepository) Create(ctx context.Context, request *domain.SignatureRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

// GetByID mocks the GetByID method of SignatureRequestRepository.
func (m *MockSignatureRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SignatureRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SignatureRequest), args.Error(1)
}

// Update mocks the Update method of SignatureRequestRepository.
func (m *MockSignatureRequestRepository) Update(ctx context.Context, request *domain.SignatureRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

// FindExpiredActiveIDs mocks the FindExpiredActiveIDs method of SignatureRequestRepository.
func (m *MockSignatureRequestRepository) FindExpiredActiveIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}
