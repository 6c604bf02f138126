package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/signatures/internal/counter"
	"github.com/allisson/signatures/internal/database"
	"github.com/allisson/signatures/internal/errors"
	outboxDomain "github.com/allisson/signatures/internal/outbox/domain"
	outboxUsecase "github.com/allisson/signatures/internal/outbox/usecase"
	providerDomain "github.com/allisson/signatures/internal/provider/domain"
	providerService "github.com/allisson/signatures/internal/provider/service"
	"github.com/allisson/signatures/internal/pseudonym"
	resilienceService "github.com/allisson/signatures/internal/resilience/service"
	routingUsecase "github.com/allisson/signatures/internal/routing/usecase"
	"github.com/allisson/signatures/internal/signature/domain"
)

// Config holds the signature orchestration tunables.
type Config struct {
	RequestTTL          time.Duration
	OTPLength           int
	OTPMaxAttempts      int
	FallbackMaxAttempts int
}

// signatureUseCase implements SignatureUseCase.
type signatureUseCase struct {
	config         Config
	txManager      database.TxManager
	requestRepo    SignatureRequestRepository
	decisionEngine routingUsecase.DecisionEngine
	selector       *resilienceService.ProviderSelector
	breakers       *resilienceService.BreakerCoordinator
	caller         *providerService.BoundedCaller
	outbox         outboxUsecase.Publisher
	attempts       counter.AttemptCounter
	pseudonymizer  pseudonym.Pseudonymizer
	clock          func() time.Time
	logger         *slog.Logger
}

// NewSignatureUseCase creates the signature orchestration use case.
func NewSignatureUseCase(
	config Config,
	txManager database.TxManager,
	requestRepo SignatureRequestRepository,
	decisionEngine routingUsecase.DecisionEngine,
	selector *resilienceService.ProviderSelector,
	breakers *resilienceService.BreakerCoordinator,
	caller *providerService.BoundedCaller,
	outbox outboxUsecase.Publisher,
	attempts counter.AttemptCounter,
	pseudonymizer pseudonym.Pseudonymizer,
	clock func() time.Time,
	logger *slog.Logger,
) SignatureUseCase {
	if clock == nil {
		clock = time.Now
	}
	return &signatureUseCase{
		config:         config,
		txManager:      txManager,
		requestRepo:    requestRepo,
		decisionEngine: decisionEngine,
		selector:       selector,
		breakers:       breakers,
		caller:         caller,
		outbox:         outbox,
		attempts:       attempts,
		pseudonymizer:  pseudonymizer,
		clock:          clock,
		logger:         logger,
	}
}

// CreateSignatureRequest builds the aggregate, routes the transaction to a
// channel, and dispatches the first challenge with bounded provider fallback.
// Exhausting every channel degrades the request instead of rejecting it; the
// caller always gets the persisted aggregate back.
func (uc *signatureUseCase) CreateSignatureRequest(
	ctx context.Context,
	input CreateSignatureRequestInput,
) (*domain.SignatureRequest, error) {
	if input.CustomerID == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "customer id is required")
	}

	transaction := domain.NewTransactionContext(
		input.Amount, input.Currency, input.MerchantID, input.OrderID, input.Description)

	now := uc.clock()
	request := domain.NewSignatureRequest(
		uc.pseudonymizer.Hash(input.CustomerID), transaction, uc.config.RequestTTL, now)

	decision, err := uc.decisionEngine.Decide(ctx, transaction)
	if err != nil {
		return nil, err
	}
	request.Timeline = append(request.Timeline, decision.Events...)

	uc.dispatchChallenge(ctx, request, decision.Channel)

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.requestRepo.Create(ctx, request); err != nil {
			return err
		}

		if challenge := request.ActiveChallenge(); challenge != nil {
			err := uc.publishEvent(ctx, request, outboxDomain.EventChallengeCreated, map[string]any{
				"request_id":   request.ID.String(),
				"challenge_id": challenge.ID.String(),
				"channel":      challenge.Channel,
				"provider":     challenge.Provider,
				"expires_at":   challenge.ExpiresAt,
			})
			if err != nil {
				return err
			}
		}

		if request.Status == domain.RequestPendingDegraded {
			err := uc.publishEvent(ctx, request, outboxDomain.EventSignatureDegraded, map[string]any{
				"request_id": request.ID.String(),
				"status":     request.Status,
			})
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return request, nil
}

// dispatchChallenge walks the circular channel order starting at the routed
// channel, trying each channel's provider at most once within a bounded
// cycle. Every attempt, failure, and fallback lands on the timeline. When the
// cycle ends without a sent challenge the request is degraded.
func (uc *signatureUseCase) dispatchChallenge(
	ctx context.Context,
	request *domain.SignatureRequest,
	channel providerDomain.Channel,
) {
	tracker := resilienceService.NewFallbackTracker(uc.config.FallbackMaxAttempts)

	for {
		now := uc.clock()

		provider, ok := providerDomain.ProviderFor(channel)
		if !ok {
			_ = request.MarkDegraded(
				fmt.Sprintf("no provider serves channel %s", channel), now)
			return
		}

		if err := tracker.RecordAttempt(provider); err != nil {
			_ = request.MarkDegraded(
				fmt.Sprintf("no provider available: %v", err), now)
			return
		}

		if _, err := uc.selector.SelectProvider(channel); err != nil {
			next := providerDomain.NextFallbackChannel(channel)
			request.AppendTimeline(domain.EventFallbackAttempted,
				fmt.Sprintf("channel %s unavailable (%v), trying %s", channel, err, next), now)
			channel = next
			continue
		}

		code, err := domain.GenerateOneTimeCode(uc.config.OTPLength)
		if err != nil {
			if uc.logger != nil {
				uc.logger.Error("one-time code generation failed", slog.Any("error", err))
			}
			_ = request.MarkDegraded("one-time code generation failed", now)
			return
		}

		challenge, err := request.CreateChallenge(channel, provider, code, now)
		if err != nil {
			_ = request.MarkDegraded(fmt.Sprintf("challenge creation failed: %v", err), now)
			return
		}

		result, err := uc.breakers.Execute(ctx, provider, func(ctx context.Context) providerDomain.CallResult {
			return uc.caller.SendChallenge(ctx, provider, providerDomain.ChallengeDelivery{
				ChallengeID: challenge.ID.String(),
				Channel:     channel,
				CustomerRef: request.CustomerRef,
				Code:        code,
				Description: request.Transaction.Description,
			})
		})

		now = uc.clock()

		if err != nil {
			// The breaker opened between selection and the call.
			_ = challenge.Fail("CIRCUIT_OPEN")
			next := providerDomain.NextFallbackChannel(channel)
			request.AppendTimeline(domain.EventChallengeFailed,
				fmt.Sprintf("provider %s rejected by circuit breaker", provider), now)
			request.AppendTimeline(domain.EventFallbackAttempted,
				fmt.Sprintf("falling back from %s to %s", channel, next), now)
			channel = next
			continue
		}

		if result.Success {
			_ = challenge.MarkAsSent(result, now)
			request.AppendTimeline(domain.EventChallengeSent,
				fmt.Sprintf("challenge sent on channel %s via %s", channel, provider), now)
			return
		}

		_ = challenge.Fail(result.ErrorCode)
		next := providerDomain.NextFallbackChannel(channel)
		request.AppendTimeline(domain.EventChallengeFailed,
			fmt.Sprintf("provider %s failed: %s", provider, result.ErrorCode), now)
		request.AppendTimeline(domain.EventFallbackAttempted,
			fmt.Sprintf("falling back from %s to %s", channel, next), now)
		channel = next
	}
}

// Get loads the aggregate with challenges and timeline.
func (uc *signatureUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.SignatureRequest, error) {
	return uc.requestRepo.GetByID(ctx, id)
}

// CompleteSignature verifies the one-time code and finalizes the request.
// Only wrong submissions consume the attempt budget, so a correct code on the
// last permitted try still signs. State produced by a failed verification
// (lazy expiry, forced challenge failure) is committed even though the caller
// gets an error back.
func (uc *signatureUseCase) CompleteSignature(
	ctx context.Context,
	requestID, challengeID uuid.UUID,
	code string,
) (*domain.SignatureRequest, error) {
	var request *domain.SignatureRequest
	var opErr error

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		request, err = uc.requestRepo.GetByID(ctx, requestID)
		if err != nil {
			return err
		}

		challenge, err := request.ChallengeByID(challengeID)
		if err != nil {
			return err
		}

		now := uc.clock()

		if request.IsExpired(now) {
			if expireErr := request.Expire(now); expireErr == nil {
				if err := uc.requestRepo.Update(ctx, request); err != nil {
					return err
				}
				err := uc.publishEvent(ctx, request, outboxDomain.EventSignatureExpired, map[string]any{
					"request_id": request.ID.String(),
					"status":     request.Status,
				})
				if err != nil {
					return err
				}
			}
			opErr = domain.ErrRequestFinalized
			return nil
		}

		if request.IsFinal() {
			opErr = domain.ErrRequestFinalized
			return nil
		}

		if !challenge.ValidateCode(code) {
			attempts, err := uc.attempts.Increment(ctx, challenge.ID.String())
			if err != nil {
				return err
			}

			if attempts >= int64(uc.config.OTPMaxAttempts) {
				if failErr := challenge.Fail(domain.ErrorCodeMaxAttemptsExceeded); failErr == nil {
					request.AppendTimeline(domain.EventChallengeFailed,
						"challenge failed after too many wrong codes", now)
					if err := uc.requestRepo.Update(ctx, request); err != nil {
						return err
					}
				}
				opErr = domain.ErrMaxCodeAttemptsExceeded
				return nil
			}

			opErr = domain.ErrInvalidCode
			return nil
		}

		if err := challenge.Complete("", now); err != nil {
			opErr = err
			return nil
		}
		if err := request.CompleteSignature(challengeID, now); err != nil {
			opErr = err
			return nil
		}

		if err := uc.requestRepo.Update(ctx, request); err != nil {
			return err
		}

		err = uc.publishEvent(ctx, request, outboxDomain.EventSignatureCompleted, map[string]any{
			"request_id":   request.ID.String(),
			"challenge_id": challenge.ID.String(),
			"proof":        challenge.Proof,
			"signed_at":    request.SignedAt,
		})
		if err != nil {
			return err
		}

		if err := uc.attempts.Reset(ctx, challenge.ID.String()); err != nil && uc.logger != nil {
			uc.logger.Warn("failed to reset attempt counter",
				slog.String("challenge_id", challenge.ID.String()),
				slog.Any("error", err),
			)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	if opErr != nil {
		return nil, opErr
	}

	return request, nil
}

// Abort cancels a pending request with an audited reason.
func (uc *signatureUseCase) Abort(
	ctx context.Context,
	id uuid.UUID,
	reason, details string,
) (*domain.SignatureRequest, error) {
	var request *domain.SignatureRequest

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		request, err = uc.requestRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if err := request.Abort(reason, details, uc.clock()); err != nil {
			return err
		}

		if err := uc.requestRepo.Update(ctx, request); err != nil {
			return err
		}

		return uc.publishEvent(ctx, request, outboxDomain.EventSignatureAborted, map[string]any{
			"request_id": request.ID.String(),
			"reason":     reason,
		})
	})
	if err != nil {
		return nil, err
	}

	return request, nil
}

// publishEvent appends a domain event to the outbox within the ambient transaction.
func (uc *signatureUseCase) publishEvent(
	ctx context.Context,
	request *domain.SignatureRequest,
	eventType string,
	payload any,
) error {
	event, err := outboxDomain.NewOutboxEvent("signature_request", request.ID.String(), eventType, payload)
	if err != nil {
		return err
	}
	return uc.outbox.Publish(ctx, event)
}
