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

	"github.com/allisson/signatures/internal/counter"
	databaseMocks "github.com/allisson/signatures/internal/database/mocks"
	apperrors "github.com/allisson/signatures/internal/errors"
	outboxDomain "github.com/allisson/signatures/internal/outbox/domain"
	outboxMocks "github.com/allisson/signatures/internal/outbox/usecase/mocks"
	providerDomain "github.com/allisson/signatures/internal/provider/domain"
	providerService "github.com/allisson/signatures/internal/provider/service"
	"github.com/allisson/signatures/internal/pseudonym"
	resilienceDomain "github.com/allisson/signatures/internal/resilience/domain"
	resilienceService "github.com/allisson/signatures/internal/resilience/service"
	routingDomain "github.com/allisson/signatures/internal/routing/domain"
	routingMocks "github.com/allisson/signatures/internal/routing/usecase/mocks"
	"github.com/allisson/signatures/internal/signature/domain"
	"github.com/allisson/signatures/internal/signature/usecase/mocks"
)

// usecaseFixture wires the use case over mocked persistence and real
// resilience components backed by the simulated provider registry.
type usecaseFixture struct {
	repo      *mocks.MockSignatureRequestRepository
	engine    *routingMocks.MockDecisionEngine
	publisher *outboxMocks.MockPublisher
	registry  providerService.ClientRegistry
	degraded  *resilienceService.DegradedModeManager
	attempts  counter.AttemptCounter
	uc        SignatureUseCase
}

func newUsecaseFixture(t *testing.T) *usecaseFixture {
	t.Helper()

	txManager := new(databaseMocks.MockTxManager)
	txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)

	coordinator := resilienceService.NewBreakerCoordinator(resilienceDomain.BreakerConfig{
		WindowSize:           10,
		MinimumCalls:         4,
		FailureRateThreshold: 50.0,
		OpenWait:             30 * time.Second,
		HalfOpenCalls:        2,
	}, time.Now)
	degraded := resilienceService.NewDegradedModeManager(time.Now)
	selector := resilienceService.NewProviderSelector(degraded, coordinator)

	registry := providerService.NewSimulatedRegistry(0)
	caller := providerService.NewBoundedCaller(registry, time.Second)

	pseudonymizer, err := pseudonym.NewPseudonymizer([]byte("0123456789abcdef"))
	require.NoError(t, err)

	fixture := &usecaseFixture{
		repo:      new(mocks.MockSignatureRequestRepository),
		engine:    new(routingMocks.MockDecisionEngine),
		publisher: new(outboxMocks.MockPublisher),
		registry:  registry,
		degraded:  degraded,
		attempts:  counter.NewMemoryCounter(time.Minute),
	}

	fixture.uc = NewSignatureUseCase(
		Config{
			RequestTTL:          5 * time.Minute,
			OTPLength:           6,
			OTPMaxAttempts:      3,
			FallbackMaxAttempts: 4,
		},
		txManager,
		fixture.repo,
		fixture.engine,
		selector,
		coordinator,
		caller,
		fixture.publisher,
		fixture.attempts,
		pseudonymizer,
		time.Now,
		slog.Default(),
	)
	return fixture
}

func (f *usecaseFixture) setFailing(provider providerDomain.ProviderType, failing bool) {
	f.registry[provider].(*providerService.SimulatedClient).SetFailing(failing)
}

func (f *usecaseFixture) decideChannel(channel providerDomain.Channel) {
	f.engine.On("Decide", mock.Anything, mock.Anything).Return(&routingDomain.Decision{
		Channel: channel,
		Events: []domain.TimelineEvent{
			domain.NewTimelineEvent(domain.EventDefaultChannelUsed, "default channel used", time.Now()),
		},
	}, nil)
}

func eventOfType(eventType string) any {
	return mock.MatchedBy(func(event *outboxDomain.OutboxEvent) bool {
		return event.EventType == eventType
	})
}

func createInput() CreateSignatureRequestInput {
	return CreateSignatureRequestInput{
		CustomerID:  "customer-1",
		Amount:      1500.00,
		Currency:    "EUR",
		MerchantID:  "merchant-1",
		OrderID:     "order-42",
		Description: "laptop purchase",
	}
}

func TestSignatureUseCase_CreateSignatureRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		fixture := newUsecaseFixture(t)
		fixture.decideChannel(providerDomain.ChannelSMS)
		fixture.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
		fixture.publisher.On("Publish", mock.Anything, eventOfType(outboxDomain.EventChallengeCreated)).Return(nil)

		request, err := fixture.uc.CreateSignatureRequest(ctx, createInput())

		require.NoError(t, err)
		assert.Equal(t, domain.RequestPending, request.Status)

		challenge := request.ActiveChallenge()
		require.NotNil(t, challenge)
		assert.Equal(t, domain.ChallengeSent, challenge.Status)
		assert.Equal(t, providerDomain.ChannelSMS, challenge.Channel)
		assert.Equal(t, providerDomain.ProviderSMS, challenge.Provider)
		assert.NotEmpty(t, challenge.Code)

		// The raw customer id never reaches persistence.
		assert.NotEqual(t, "customer-1", request.CustomerRef)

		fixture.repo.AssertExpectations(t)
		fixture.publisher.AssertExpectations(t)
	})

	t.Run("Success_FallbackOnProviderFailure", func(t *testing.T) {
		fixture := newUsecaseFixture(t)
		fixture.setFailing(providerDomain.ProviderSMS, true)
		fixture.decideChannel(providerDomain.ChannelSMS)
		fixture.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
		fixture.publisher.On("Publish", mock.Anything, eventOfType(outboxDomain.EventChallengeCreated)).Return(nil)

		request, err := fixture.uc.CreateSignatureRequest(ctx, createInput())

		require.NoError(t, err)
		assert.Equal(t, domain.RequestPending, request.Status)

		challenge := request.ActiveChallenge()
		require.NotNil(t, challenge)
		assert.Equal(t, providerDomain.ChannelPush, challenge.Channel)

		require.Len(t, request.Challenges, 2)
		assert.Equal(t, domain.ChallengeFailed, request.Challenges[0].Status)

		kinds := timelineKinds(request)
		assert.Contains(t, kinds, domain.EventChallengeFailed)
		assert.Contains(t, kinds, domain.EventFallbackAttempted)
		assert.Contains(t, kinds, domain.EventChallengeSent)
	})

	t.Run("Success_SkipsDegradedProviderWithoutChallenge", func(t *testing.T) {
		fixture := newUsecaseFixture(t)
		fixture.degraded.MarkDegraded(providerDomain.ProviderSMS, "manual test")
		fixture.decideChannel(providerDomain.ChannelSMS)
		fixture.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
		fixture.publisher.On("Publish", mock.Anything, eventOfType(outboxDomain.EventChallengeCreated)).Return(nil)

		request, err := fixture.uc.CreateSignatureRequest(ctx, createInput())

		require.NoError(t, err)
		// The degraded provider is skipped before a challenge is created.
		require.Len(t, request.Challenges, 1)
		assert.Equal(t, providerDomain.ChannelPush, request.Challenges[0].Channel)
	})

	t.Run("Success_DegradedWhenAllProvidersFail", func(t *testing.T) {
		fixture := newUsecaseFixture(t)
		for _, provider := range []providerDomain.ProviderType{
			providerDomain.ProviderSMS,
			providerDomain.ProviderPush,
			providerDomain.ProviderVoice,
			providerDomain.ProviderBiometric,
		} {
			fixture.setFailing(provider, true)
		}
		fixture.decideChannel(providerDomain.ChannelSMS)
		fixture.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
		fixture.publisher.On("Publish", mock.Anything, eventOfType(outboxDomain.EventSignatureDegraded)).Return(nil)

		request, err := fixture.uc.CreateSignatureRequest(ctx, createInput())

		require.NoError(t, err)
		assert.Equal(t, domain.RequestPendingDegraded, request.Status)
		assert.Nil(t, request.ActiveChallenge())
		fixture.publisher.AssertExpectations(t)
	})

	t.Run("Error_EmptyCustomerID", func(t *testing.T) {
		fixture := newUsecaseFixture(t)

		input := createInput()
		input.CustomerID = ""
		_, err := fixture.uc.CreateSignatureRequest(ctx, input)

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		fixture.repo.AssertNotCalled(t, "Create")
	})

	t.Run("Error_DecisionEngineFailure", func(t *testing.T) {
		fixture := newUsecaseFixture(t)
		fixture.engine.On("Decide", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

		_, err := fixture.uc.CreateSignatureRequest(ctx, createInput())

		assert.Error(t, err)
		fixture.repo.AssertNotCalled(t, "Create")
	})

	t.Run("Error_RepositoryFailure", func(t *testing.T) {
		fixture := newUsecaseFixture(t)
		fixture.decideChannel(providerDomain.ChannelSMS)
		fixture.repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))

		_, err := fixture.uc.CreateSignatureRequest(ctx, createInput())

		assert.Error(t, err)
	})
}

func timelineKinds(request *domain.SignatureRequest) []domain.TimelineEventKind {
	kinds := make([]domain.TimelineEventKind, 0, len(request.Timeline))
	for _, event := range request.Timeline {
		kinds = append(kinds, event.Kind)
	}
	return kinds
}

// sentRequest builds a PENDING request with a SENT challenge carrying the code.
func sentRequest(t *testing.T, code string, ttl time.Duration) *domain.SignatureRequest {
	t.Helper()
	now := time.Now()

	transaction := domain.NewTransactionContext(1500.00, "EUR", "merchant-1", "order-42", "laptop purchase")
	request := domain.NewSignatureRequest("customer-ref-1", transaction, ttl, now)

	challenge, err := request.CreateChallenge(providerDomain.ChannelSMS, providerDomain.ProviderSMS, code, now)
	require.NoError(t, err)
	require.NoError(t, challenge.MarkAsSent(providerDomain.CallResult{
		Provider: providerDomain.ProviderSMS,
		Success:  true,
		Proof:    "proof-1",
	}, now))

	return request
}

func TestSignatureUseCase_CompleteSignature(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		fixture := newUsecaseFixture(t)
		request := sentRequest(t, "123456", 5*time.Minute)
		challenge := request.ActiveChallenge()

		fixture.repo.On("GetByID", mock.Anything, request.ID).Return(request, nil)
		fixture.repo.On("Update", mock.Anything, request).Return(nil)
		fixture.publisher.On("Publish", mock.Anything, eventOfType(outboxDomain.EventSignatureCompleted)).Return(nil)

		result, err := fixture.uc.CompleteSignature(ctx, request.ID, challenge.ID, "123456")

		require.NoError(t, err)
		assert.Equal(t, domain.RequestSigned, result.Status)
		assert.Equal(t, domain.ChallengeCompleted, challenge.Status)
		require.NotNil(t, result.SignedAt)
		fixture.publisher.AssertExpectations(t)
	})

	t.Run("Error_WrongCode", func(t *testing.T) {
		fixture := newUsecaseFixture(t)
		request := sentRequest(t, "123456", 5*time.Minute)
		challenge := request.ActiveChallenge()

		fixture.repo.On("GetByID", mock.Anything, request.ID).Return(request, nil)

		_, err := fixture.uc.CompleteSignature(ctx, request.ID, challenge.ID, "999999")

		assert.ErrorIs(t, err, domain.ErrInvalidCode)
		assert.Equal(t, domain.ChallengeSent, challenge.Status)
		fixture.repo.AssertNotCalled(t, "Update")
	})

	t.Run("Error_MaxAttemptsFailsChallenge", func(t *testing.T) {
		fixture := newUsecaseFixture(t)
		request := sentRequest(t, "123456", 5*time.Minute)
		challenge := request.ActiveChallenge()

		fixture.repo.On("GetByID", mock.Anything, request.ID).Return(request, nil)
		fixture.repo.On("Update", mock.Anything, request).Return(nil)

		_, err := fixture.uc.CompleteSignature(ctx, request.ID, challenge.ID, "999999")
		assert.ErrorIs(t, err, domain.ErrInvalidCode)

		_, err = fixture.uc.CompleteSignature(ctx, request.ID, challenge.ID, "999999")
		assert.ErrorIs(t, err, domain.ErrInvalidCode)

		_, err = fixture.uc.CompleteSignature(ctx, request.ID, challenge.ID, "999999")
		assert.ErrorIs(t, err, domain.ErrMaxCodeAttemptsExceeded)
		assert.Equal(t, domain.ChallengeFailed, challenge.Status)
		assert.Equal(t, domain.ErrorCodeMaxAttemptsExceeded, challenge.ErrorCode)
	})

	t.Run("Success_CorrectCodeOnLastPermittedTry", func(t *testing.T) {
		fixture := newUsecaseFixture(t)
		request := sentRequest(t, "123456", 5*time.Minute)
		challenge := request.ActiveChallenge()

		fixture.repo.On("GetByID", mock.Anything, request.ID).Return(request, nil)
		fixture.repo.On("Update", mock.Anything, request).Return(nil)
		fixture.publisher.On("Publish", mock.Anything, eventOfType(outboxDomain.EventSignatureCompleted)).Return(nil)

		_, err := fixture.uc.CompleteSignature(ctx, request.ID, challenge.ID, "999999")
		assert.ErrorIs(t, err, domain.ErrInvalidCode)

		_, err = fixture.uc.CompleteSignature(ctx, request.ID, challenge.ID, "999999")
		assert.ErrorIs(t, err, domain.ErrInvalidCode)

		result, err := fixture.uc.CompleteSignature(ctx, request.ID, challenge.ID, "123456")
		require.NoError(t, err)
		assert.Equal(t, domain.RequestSigned, result.Status)
	})

	t.Run("Error_ExpiredRequestIsLazilyExpired", func(t *testing.T) {
		fixture := newUsecaseFixture(t)
		request := sentRequest(t, "123456", -time.Minute)
		challenge := request.Challenges[0]

		fixture.repo.On("GetByID", mock.Anything, request.ID).Return(request, nil)
		fixture.repo.On("Update", mock.Anything, request).Return(nil)
		fixture.publisher.On("Publish", mock.Anything, eventOfType(outboxDomain.EventSignatureExpired)).Return(nil)

		_, err := fixture.uc.CompleteSignature(ctx, request.ID, challenge.ID, "123456")

		assert.ErrorIs(t, err, domain.ErrRequestFinalized)
		assert.Equal(t, domain.RequestExpired, request.Status)
		fixture.repo.AssertExpectations(t)
		fixture.publisher.AssertExpectations(t)
	})

	t.Run("Error_FinalizedRequest", func(t *testing.T) {
		fixture := newUsecaseFixture(t)
		request := sentRequest(t, "123456", 5*time.Minute)
		challenge := request.Challenges[0]
		require.NoError(t, challenge.Complete("", time.Now()))
		require.NoError(t, request.CompleteSignature(challenge.ID, time.Now()))

		fixture.repo.On("GetByID", mock.Anything, request.ID).Return(request, nil)

		_, err := fixture.uc.CompleteSignature(ctx, request.ID, challenge.ID, "123456")

		assert.ErrorIs(t, err, domain.ErrRequestFinalized)
		fixture.repo.AssertNotCalled(t, "Update")
	})

	t.Run("Error_RequestNotFound", func(t *testing.T) {
		fixture := newUsecaseFixture(t)
		request := sentRequest(t, "123456", 5*time.Minute)

		fixture.repo.On("GetByID", mock.Anything, request.ID).Return(nil, domain.ErrRequestNotFound)

		_, err := fixture.uc.CompleteSignature(ctx, request.ID, request.Challenges[0].ID, "123456")

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("Error_UnknownChallenge", func(t *testing.T) {
		fixture := newUsecaseFixture(t)
		request := sentRequest(t, "123456", 5*time.Minute)
		other := sentRequest(t, "654321", 5*time.Minute)

		fixture.repo.On("GetByID", mock.Anything, request.ID).Return(request, nil)

		_, err := fixture.uc.CompleteSignature(ctx, request.ID, other.Challenges[0].ID, "123456")

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("Success_ResetsAttemptCounter", func(t *testing.T) {
		fixture := newUsecaseFixture(t)
		request := sentRequest(t, "123456", 5*time.Minute)
		challenge := request.ActiveChallenge()

		fixture.repo.On("GetByID", mock.Anything, request.ID).Return(request, nil)
		fixture.repo.On("Update", mock.Anything, request).Return(nil)
		fixture.publisher.On("Publish", mock.Anything, eventOfType(outboxDomain.EventSignatureCompleted)).Return(nil)

		_, err := fixture.uc.CompleteSignature(ctx, request.ID, challenge.ID, "999999")
		assert.ErrorIs(t, err, domain.ErrInvalidCode)

		_, err = fixture.uc.CompleteSignature(ctx, request.ID, challenge.ID, "123456")
		require.NoError(t, err)

		// The counter starts over after a successful verification.
		n, err := fixture.attempts.Increment(ctx, challenge.ID.String())
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestSignatureUseCase_Abort(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		fixture := newUsecaseFixture(t)
		request := sentRequest(t, "123456", 5*time.Minute)
		challenge := request.ActiveChallenge()

		fixture.repo.On("GetByID", mock.Anything, request.ID).Return(request, nil)
		fixture.repo.On("Update", mock.Anything, request).Return(nil)
		fixture.publisher.On("Publish", mock.Anything, eventOfType(outboxDomain.EventSignatureAborted)).Return(nil)

		result, err := fixture.uc.Abort(ctx, request.ID, "customer_cancelled", "changed their mind")

		require.NoError(t, err)
		assert.Equal(t, domain.RequestAborted, result.Status)
		assert.Equal(t, "customer_cancelled", result.AbortReason)
		assert.Equal(t, domain.ChallengeFailed, challenge.Status)
		fixture.publisher.AssertExpectations(t)
	})

	t.Run("Error_AlreadyFinalized", func(t *testing.T) {
		fixture := newUsecaseFixture(t)
		request := sentRequest(t, "123456", 5*time.Minute)
		challenge := request.Challenges[0]
		require.NoError(t, challenge.Complete("", time.Now()))
		require.NoError(t, request.CompleteSignature(challenge.ID, time.Now()))

		fixture.repo.On("GetByID", mock.Anything, request.ID).Return(request, nil)

		_, err := fixture.uc.Abort(ctx, request.ID, "customer_cancelled", "")

		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
		fixture.repo.AssertNotCalled(t, "Update")
	})
}

func TestSignatureUseCase_Get(t *testing.T) {
	ctx := context.Background()
	fixture := newUsecaseFixture(t)
	request := sentRequest(t, "123456", 5*time.Minute)

	fixture.repo.On("GetByID", ctx, request.ID).Return(request, nil)

	result, err := fixture.uc.Get(ctx, request.ID)

	require.NoError(t, err)
	assert.Equal(t, request, result)
}
