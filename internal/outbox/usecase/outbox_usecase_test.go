package usecase

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	databaseMocks "github.com/allisson/signatures/internal/database/mocks"
	"github.com/allisson/signatures/internal/outbox/domain"
	"github.com/allisson/signatures/internal/outbox/usecase/mocks"
)

func testConfig() Config {
	return Config{
		Interval:      time.Second,
		BatchSize:     10,
		MaxRetries:    3,
		RetryInterval: time.Second,
	}
}

func testEvent(t *testing.T) *domain.OutboxEvent {
	t.Helper()
	event, err := domain.NewOutboxEvent(
		"signature_request", "request-1", domain.EventSignatureCompleted,
		map[string]string{"request_id": "request-1"},
	)
	require.NoError(t, err)
	return event
}

func newTestUseCase(repo *mocks.MockOutboxEventRepository, processor *mocks.MockEventProcessor) *OutboxUseCase {
	txManager := new(databaseMocks.MockTxManager)
	txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)
	return NewOutboxUseCase(testConfig(), txManager, repo, processor, slog.Default())
}

func TestOutboxUseCase_Publish(t *testing.T) {
	ctx := context.Background()
	event := testEvent(t)

	mockRepo := new(mocks.MockOutboxEventRepository)
	mockRepo.On("Create", ctx, event).Return(nil)

	uc := newTestUseCase(mockRepo, new(mocks.MockEventProcessor))

	require.NoError(t, uc.Publish(ctx, event))
	mockRepo.AssertExpectations(t)
}

func TestOutboxUseCase_ProcessEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		event := testEvent(t)

		mockRepo := new(mocks.MockOutboxEventRepository)
		mockProcessor := new(mocks.MockEventProcessor)
		mockRepo.On("GetPendingEvents", mock.Anything, 10).Return([]*domain.OutboxEvent{event}, nil)
		mockProcessor.On("Process", mock.Anything, event).Return(nil)
		mockRepo.On("Update", mock.Anything, event).Return(nil)

		uc := newTestUseCase(mockRepo, mockProcessor)

		require.NoError(t, uc.ProcessEvents(ctx))
		assert.Equal(t, domain.OutboxEventStatusProcessed, event.Status)
		require.NotNil(t, event.ProcessedAt)
		mockRepo.AssertExpectations(t)
		mockProcessor.AssertExpectations(t)
	})

	t.Run("NoPendingEvents", func(t *testing.T) {
		mockRepo := new(mocks.MockOutboxEventRepository)
		mockRepo.On("GetPendingEvents", mock.Anything, 10).Return([]*domain.OutboxEvent{}, nil)

		uc := newTestUseCase(mockRepo, new(mocks.MockEventProcessor))

		require.NoError(t, uc.ProcessEvents(ctx))
		mockRepo.AssertNotCalled(t, "Update")
	})

	t.Run("ProcessorErrorIncrementsRetries", func(t *testing.T) {
		event := testEvent(t)

		mockRepo := new(mocks.MockOutboxEventRepository)
		mockProcessor := new(mocks.MockEventProcessor)
		mockRepo.On("GetPendingEvents", mock.Anything, 10).Return([]*domain.OutboxEvent{event}, nil)
		mockProcessor.On("Process", mock.Anything, event).Return(errors.New("broker down"))
		mockRepo.On("Update", mock.Anything, event).Return(nil)

		uc := newTestUseCase(mockRepo, mockProcessor)

		require.NoError(t, uc.ProcessEvents(ctx))
		assert.Equal(t, 1, event.Retries)
		assert.Equal(t, domain.OutboxEventStatusPending, event.Status)
		require.NotNil(t, event.LastError)
		assert.Equal(t, "broker down", *event.LastError)
	})

	t.Run("RetryBudgetMarksFailed", func(t *testing.T) {
		event := testEvent(t)
		event.Retries = 2

		mockRepo := new(mocks.MockOutboxEventRepository)
		mockProcessor := new(mocks.MockEventProcessor)
		mockRepo.On("GetPendingEvents", mock.Anything, 10).Return([]*domain.OutboxEvent{event}, nil)
		mockProcessor.On("Process", mock.Anything, event).Return(errors.New("broker down"))
		mockRepo.On("Update", mock.Anything, event).Return(nil)

		uc := newTestUseCase(mockRepo, mockProcessor)

		require.NoError(t, uc.ProcessEvents(ctx))
		assert.Equal(t, 3, event.Retries)
		assert.Equal(t, domain.OutboxEventStatusFailed, event.Status)
	})

	t.Run("OneFailureDoesNotBlockOthers", func(t *testing.T) {
		failing := testEvent(t)
		healthy := testEvent(t)

		mockRepo := new(mocks.MockOutboxEventRepository)
		mockProcessor := new(mocks.MockEventProcessor)
		mockRepo.On("GetPendingEvents", mock.Anything, 10).Return([]*domain.OutboxEvent{failing, healthy}, nil)
		mockProcessor.On("Process", mock.Anything, failing).Return(errors.New("boom"))
		mockProcessor.On("Process", mock.Anything, healthy).Return(nil)
		mockRepo.On("Update", mock.Anything, failing).Return(nil)
		mockRepo.On("Update", mock.Anything, healthy).Return(nil)

		uc := newTestUseCase(mockRepo, mockProcessor)

		require.NoError(t, uc.ProcessEvents(ctx))
		assert.Equal(t, domain.OutboxEventStatusProcessed, healthy.Status)
		assert.Equal(t, 1, failing.Retries)
	})

	t.Run("RepositoryErrorAbortsBatch", func(t *testing.T) {
		mockRepo := new(mocks.MockOutboxEventRepository)
		mockRepo.On("GetPendingEvents", mock.Anything, 10).Return(nil, errors.New("db down"))

		uc := newTestUseCase(mockRepo, new(mocks.MockEventProcessor))

		assert.Error(t, uc.ProcessEvents(ctx))
	})
}

func TestLoggingEventProcessor_Process(t *testing.T) {
	ctx := context.Background()
	processor := NewLoggingEventProcessor(slog.Default())

	t.Run("Success", func(t *testing.T) {
		require.NoError(t, processor.Process(ctx, testEvent(t)))
	})

	t.Run("Error_InvalidPayload", func(t *testing.T) {
		event := testEvent(t)
		event.Payload = "{not json"
		assert.Error(t, processor.Process(ctx, event))
	})
}

func TestNewOutboxEvent(t *testing.T) {
	event, err := domain.NewOutboxEvent(
		"signature_request", "request-1", domain.EventChallengeCreated,
		map[string]string{"challenge_id": "challenge-1"},
	)

	require.NoError(t, err)
	assert.Equal(t, "signature_request", event.AggregateType)
	assert.Equal(t, "request-1", event.AggregateID)
	assert.Equal(t, domain.EventChallengeCreated, event.EventType)
	assert.Equal(t, domain.OutboxEventStatusPending, event.Status)
	assert.JSONEq(t, `{"challenge_id":"challenge-1"}`, event.Payload)
	assert.False(t, event.CreatedAt.IsZero())
}
