// Package repository implements signature request persistence. The aggregate
// is stored across three tables (requests, challenges, timeline events) and
// always loaded and saved whole. Repositories support both PostgreSQL and
// MySQL with optimistic concurrency on the request row.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/signatures/internal/database"
	apperrors "github.com/allisson/signatures/internal/errors"
	signatureDomain "github.com/allisson/signatures/internal/signature/domain"
)

// PostgreSQLSignatureRequestRepository implements SignatureRequest persistence
// for PostgreSQL databases.
type PostgreSQLSignatureRequestRepository struct {
	db *sql.DB
}

// NewPostgreSQLSignatureRequestRepository creates a new PostgreSQL SignatureRequest repository instance.
func NewPostgreSQLSignatureRequestRepository(db *sql.DB) *PostgreSQLSignatureRequestRepository {
	return &PostgreSQLSignatureRequestRepository{db: db}
}

// Create inserts the aggregate: the request row, its challenges, and its timeline.
func (p *PostgreSQLSignatureRequestRepository) Create(
	ctx context.Context,
	request *signatureDomain.SignatureRequest,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO signature_requests (id, customer_ref, amount, currency, merchant_id,
			  order_id, description, integrity_hash, status, created_at, expires_at,
			  signed_at, aborted_at, abort_reason, version)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := querier.ExecContext(
		ctx,
		query,
		request.ID,
		request.CustomerRef,
		request.Transaction.Amount,
		request.Transaction.Currency,
		request.Transaction.MerchantID,
		request.Transaction.OrderID,
		request.Transaction.Description,
		request.Transaction.IntegrityHash,
		request.Status,
		request.CreatedAt,
		request.ExpiresAt,
		request.SignedAt,
		request.AbortedAt,
		request.AbortReason,
		request.Version,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create signature request")
	}

	if err := p.saveChallenges(ctx, querier, request); err != nil {
		return err
	}
	return p.saveTimeline(ctx, querier, request)
}

// GetByID loads the whole aggregate.
func (p *PostgreSQLSignatureRequestRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*signatureDomain.SignatureRequest, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, customer_ref, amount, currency, merchant_id, order_id, description,
			  integrity_hash, status, created_at, expires_at, signed_at, aborted_at,
			  abort_reason, version
			  FROM signature_requests
			  WHERE id = $1`

	var request signatureDomain.SignatureRequest
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&request.ID,
		&request.CustomerRef,
		&request.Transaction.Amount,
		&request.Transaction.Currency,
		&request.Transaction.MerchantID,
		&request.Transaction.OrderID,
		&request.Transaction.Description,
		&request.Transaction.IntegrityHash,
		&request.Status,
		&request.CreatedAt,
		&request.ExpiresAt,
		&request.SignedAt,
		&request.AbortedAt,
		&request.AbortReason,
		&request.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, signatureDomain.ErrRequestNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get signature request")
	}

	if err := p.loadChallenges(ctx, querier, &request); err != nil {
		return nil, err
	}
	if err := p.loadTimeline(ctx, querier, &request); err != nil {
		return nil, err
	}

	return &request, nil
}

// Update persists the aggregate with optimistic concurrency. A version
// mismatch fails with a conflict and changes nothing.
func (p *PostgreSQLSignatureRequestRepository) Update(
	ctx context.Context,
	request *signatureDomain.SignatureRequest,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE signature_requests
			  SET status = $1, signed_at = $2, aborted_at = $3, abort_reason = $4,
			      version = version + 1
			  WHERE id = $5 AND version = $6`

	result, err := querier.ExecContext(
		ctx,
		query,
		request.Status,
		request.SignedAt,
		request.AbortedAt,
		request.AbortReason,
		request.ID,
		request.Version,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update signature request")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to update signature request")
	}
	if affected == 0 {
		return apperrors.Wrap(apperrors.ErrConflict, "signature request version mismatch")
	}
	request.Version++

	if err := p.saveChallenges(ctx, querier, request); err != nil {
		return err
	}
	return p.saveTimeline(ctx, querier, request)
}

// FindExpiredActiveIDs returns ids of non-terminal requests past their
// deadline, oldest deadline first.
func (p *PostgreSQLSignatureRequestRepository) FindExpiredActiveIDs(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]uuid.UUID, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id
			  FROM signature_requests
			  WHERE status IN ($1, $2) AND expires_at < $3
			  ORDER BY expires_at ASC
			  LIMIT $4`

	rows, err := querier.QueryContext(ctx, query,
		signatureDomain.RequestPending, signatureDomain.RequestPendingDegraded, now, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to find expired signature requests")
	}
	defer rows.Close() //nolint:errcheck

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan expired signature request id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate expired signature request ids")
	}

	return ids, nil
}

// saveChallenges upserts every owned challenge. Challenges are never removed
// from an aggregate, so an upsert covers both new and transitioned rows.
func (p *PostgreSQLSignatureRequestRepository) saveChallenges(
	ctx context.Context,
	querier database.Querier,
	request *signatureDomain.SignatureRequest,
) error {
	query := `INSERT INTO signature_challenges (id, request_id, channel, provider, status, code,
			  proof, error_code, created_at, sent_at, completed_at, expires_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			  ON CONFLICT (id) DO UPDATE
			  SET status = EXCLUDED.status, proof = EXCLUDED.proof,
			      error_code = EXCLUDED.error_code, sent_at = EXCLUDED.sent_at,
			      completed_at = EXCLUDED.completed_at`

	for _, challenge := range request.Challenges {
		_, err := querier.ExecContext(
			ctx,
			query,
			challenge.ID,
			challenge.RequestID,
			challenge.Channel,
			challenge.Provider,
			challenge.Status,
			challenge.Code,
			challenge.Proof,
			challenge.ErrorCode,
			challenge.CreatedAt,
			challenge.SentAt,
			challenge.CompletedAt,
			challenge.ExpiresAt,
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to save signature challenge")
		}
	}
	return nil
}

// saveTimeline inserts timeline entries, skipping already stored ones. The
// timeline is append-only so entries never change after insert.
func (p *PostgreSQLSignatureRequestRepository) saveTimeline(
	ctx context.Context,
	querier database.Querier,
	request *signatureDomain.SignatureRequest,
) error {
	query := `INSERT INTO signature_timeline_events (id, request_id, kind, detail, occurred_at)
			  VALUES ($1, $2, $3, $4, $5)
			  ON CONFLICT (id) DO NOTHING`

	for _, event := range request.Timeline {
		_, err := querier.ExecContext(ctx, query, event.ID, request.ID, event.Kind, event.Detail, event.At)
		if err != nil {
			return apperrors.Wrap(err, "failed to save timeline event")
		}
	}
	return nil
}

func (p *PostgreSQLSignatureRequestRepository) loadChallenges(
	ctx context.Context,
	querier database.Querier,
	request *signatureDomain.SignatureRequest,
) error {
	query := `SELECT id, request_id, channel, provider, status, code, proof, error_code,
			  created_at, sent_at, completed_at, expires_at
			  FROM signature_challenges
			  WHERE request_id = $1
			  ORDER BY created_at ASC, id ASC`

	rows, err := querier.QueryContext(ctx, query, request.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to load signature challenges")
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var challenge signatureDomain.SignatureChallenge
		err := rows.Scan(
			&challenge.ID,
			&challenge.RequestID,
			&challenge.Channel,
			&challenge.Provider,
			&challenge.Status,
			&challenge.Code,
			&challenge.Proof,
			&challenge.ErrorCode,
			&challenge.CreatedAt,
			&challenge.SentAt,
			&challenge.CompletedAt,
			&challenge.ExpiresAt,
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to scan signature challenge")
		}
		request.Challenges = append(request.Challenges, &challenge)
	}
	return rows.Err()
}

func (p *PostgreSQLSignatureRequestRepository) loadTimeline(
	ctx context.Context,
	querier database.Querier,
	request *signatureDomain.SignatureRequest,
) error {
	query := `SELECT id, kind, detail, occurred_at
			  FROM signature_timeline_events
			  WHERE request_id = $1
			  ORDER BY occurred_at ASC, id ASC`

	rows, err := querier.QueryContext(ctx, query, request.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to load timeline events")
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var event signatureDomain.TimelineEvent
		if err := rows.Scan(&event.ID, &event.Kind, &event.Detail, &event.At); err != nil {
			return apperrors.Wrap(err, "failed to scan timeline event")
		}
		request.Timeline = append(request.Timeline, event)
	}
	return rows.Err()
}
