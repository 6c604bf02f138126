package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/signatures/internal/database"
	"github.com/allisson/signatures/internal/metrics"
	outboxDomain "github.com/allisson/signatures/internal/outbox/domain"
	outboxUsecase "github.com/allisson/signatures/internal/outbox/usecase"
	"github.com/allisson/signatures/internal/signature/domain"
)

// ExpirationSweeper finalizes requests whose deadline passed without a
// signature. Lazy expiry on read handles requests that are touched; the
// sweeper guarantees the rest converge too.
type ExpirationSweeper struct {
	batchSize   int
	txManager   database.TxManager
	requestRepo SignatureRequestRepository
	outbox      outboxUsecase.Publisher
	metrics     metrics.BusinessMetrics
	clock       func() time.Time
	logger      *slog.Logger
}

// NewExpirationSweeper creates a sweeper.
func NewExpirationSweeper(
	batchSize int,
	txManager database.TxManager,
	requestRepo SignatureRequestRepository,
	outbox outboxUsecase.Publisher,
	m metrics.BusinessMetrics,
	clock func() time.Time,
	logger *slog.Logger,
) *ExpirationSweeper {
	if clock == nil {
		clock = time.Now
	}
	if m == nil {
		m = metrics.NewNoOpBusinessMetrics()
	}
	return &ExpirationSweeper{
		batchSize:   batchSize,
		txManager:   txManager,
		requestRepo: requestRepo,
		outbox:      outbox,
		metrics:     m,
		clock:       clock,
		logger:      logger,
	}
}

// Sweep expires one batch of stale requests. Each request is handled in its
// own transaction so one failure never blocks the rest of the batch; the
// failed request is retried on the next tick.
func (s *ExpirationSweeper) Sweep(ctx context.Context) error {
	now := s.clock()

	ids, err := s.requestRepo.FindExpiredActiveIDs(ctx, now, s.batchSize)
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		return nil
	}

	var expired, failed int64
	for _, id := range ids {
		if err := s.expireOne(ctx, id); err != nil {
			failed++
			if s.logger != nil {
				s.logger.Error("failed to expire signature request",
					slog.String("request_id", id.String()),
					slog.Any("error", err),
				)
			}
			continue
		}
		expired++
	}

	s.metrics.RecordCount(ctx, "signature", "sweep_expired", expired)
	if failed > 0 {
		s.metrics.RecordCount(ctx, "signature", "sweep_failed", failed)
	}

	if s.logger != nil {
		s.logger.Info("expiration sweep finished",
			slog.Int64("expired", expired),
			slog.Int64("failed", failed),
		)
	}

	return nil
}

// expireOne re-loads the request inside its own transaction and expires it.
// A request finalized between the scan and the load is skipped.
func (s *ExpirationSweeper) expireOne(ctx context.Context, id uuid.UUID) error {
	return s.txManager.WithTx(ctx, func(ctx context.Context) error {
		request, err := s.requestRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if request.IsFinal() {
			return nil
		}

		now := s.clock()
		if err := request.Expire(now); err != nil {
			return err
		}

		if err := s.requestRepo.Update(ctx, request); err != nil {
			return err
		}

		event, err := outboxDomain.NewOutboxEvent(
			"signature_request", request.ID.String(),
			outboxDomain.EventSignatureExpired, map[string]any{
				"request_id": request.ID.String(),
				"status":     domain.RequestExpired,
			})
		if err != nil {
			return err
		}
		return s.outbox.Publish(ctx, event)
	})
}
