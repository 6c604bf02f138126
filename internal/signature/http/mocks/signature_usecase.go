// Package mocks provides mock implementations for testing signature HTTP handlers.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/signatures/internal/signature/domain"
	"github.com/allisson/signatures/internal/signature/usecase"
)

// MockSignatureUseCase is a mock implementation of SignatureUseCase for testing.
type MockSignatureUseCase struct {
	mock.Mock
}

// CreateSignatureRequest mocks the CreateSignatureRequest method of SignatureUseCase.
func (m *MockSignatureUseCase) CreateSignatureRequest(
	ctx context.Context,
	input usecase.CreateSignatureRequestInput,
) (*domain.SignatureRequest, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SignatureRequest), args.Error(1)
}

// Get mocks the Get method of SignatureUseCase.
func (m *MockSignatureUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.SignatureRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SignatureRequest), args.Error(1)
}

// CompleteSignature mocks the CompleteSignature method of SignatureUseCase.
func (m *MockSignatureUseCase) CompleteSignature(
	ctx context.Context,
	requestID, challengeID uuid.UUID,
	code string,
) (*domain.SignatureRequest, error) {
	args := m.Called(ctx, requestID, challengeID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SignatureRequest), args.Error(1)
}

// Abort mocks the Abort method of SignatureUseCase.
func (m *MockSignatureUseCase) Abort(
	ctx context.Context,
	id uuid.UUID,
	reason, details string,
) (*domain.SignatureRequest, error) {
	args := m.Called(ctx, id, reason, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SignatureRequest), args.Error(1)
}
