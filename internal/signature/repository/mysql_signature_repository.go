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

// MySQLSignatureRequestRepository implements SignatureRequest persistence for
// MySQL databases.
type MySQLSignatureRequestRepository struct {
	db *sql.DB
}

// NewMySQLSignatureRequestRepository creates a new MySQL SignatureRequest repository instance.
func NewMySQLSignatureRequestRepository(db *sql.DB) *MySQLSignatureRequestRepository {
	return &MySQLSignatureRequestRepository{db: db}
}

// Create inserts the aggregate: the request row, its challenges, and its timeline.
func (m *MySQLSignatureRequestRepository) Create(
	ctx context.Context,
	request *signatureDomain.SignatureRequest,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO signature_requests (id, customer_ref, amount, currency, merchant_id,
			  order_id, description, integrity_hash, status, created_at, expires_at,
			  signed_at, aborted_at, abort_reason, version)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		request.ID.String(),
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

	if err := m.saveChallenges(ctx, querier, request); err != nil {
		return err
	}
	return m.saveTimeline(ctx, querier, request)
}

// GetByID loads the whole aggregate.
func (m *MySQLSignatureRequestRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*signatureDomain.SignatureRequest, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, customer_ref, amount, currency, merchant_id, order_id, description,
			  integrity_hash, status, created_at, expires_at, signed_at, aborted_at,
			  abort_reason, version
			  FROM signature_requests
			  WHERE id = ?`

	var request signatureDomain.SignatureRequest
	err := querier.QueryRowContext(ctx, query, id.String()).Scan(
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

	if err := m.loadChallenges(ctx, querier, &request); err != nil {
		return nil, err
	}
	if err := m.loadTimeline(ctx, querier, &request); err != nil {
		return nil, err
	}

	return &request, nil
}

// Update persists the aggregate with optimistic concurrency. A version
// mismatch fails with a conflict and changes nothing.
func (m *MySQLSignatureRequestRepository) Update(
	ctx context.Context,
	request *signatureDomain.SignatureRequest,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE signature_requests
			  SET status = ?, signed_at = ?, aborted_at = ?, abort_reason = ?,
			      version = version + 1
			  WHERE id = ? AND version = ?`

	result, err := querier.ExecContext(
		ctx,
		query,
		request.Status,
		request.SignedAt,
		request.AbortedAt,
		request.AbortReason,
		request.ID.String(),
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

	if err := m.saveChallenges(ctx, querier, request); err != nil {
		return err
	}
	return m.saveTimeline(ctx, querier, request)
}

// FindExpiredActiveIDs returns ids of non-terminal requests past their
// deadline, oldest deadline first.
func (m *MySQLSignatureRequestRepository) FindExpiredActiveIDs(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]uuid.UUID, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id
			  FROM signature_requests
			  WHERE status IN (?, ?) AND expires_at < ?
			  ORDER BY expires_at ASC
			  LIMIT ?`

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

// saveChallenges upserts every owned challenge.
func (m *MySQLSignatureRequestRepository) saveChallenges(
	ctx context.Context,
	querier database.Querier,
	request *signatureDomain.SignatureRequest,
) error {
	query := `INSERT INTO signature_challenges (id, request_id, channel, provider, status, code,
			  proof, error_code, created_at, sent_at, completed_at, expires_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE
			  status = VALUES(status), proof = VALUES(proof), error_code = VALUES(error_code),
			  sent_at = VALUES(sent_at), completed_at = VALUES(completed_at)`

	for _, challenge := range request.Challenges {
		_, err := querier.ExecContext(
			ctx,
			query,
			challenge.ID.String(),
			challenge.RequestID.String(),
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

// saveTimeline inserts timeline entries, skipping already stored ones.
func (m *MySQLSignatureRequestRepository) saveTimeline(
	ctx context.Context,
	querier database.Querier,
	request *signatureDomain.SignatureRequest,
) error {
	query := `INSERT IGNORE INTO signature_timeline_events (id, request_id, kind, detail, occurred_at)
			  VALUES (?, ?, ?, ?, ?)`

	for _, event := range request.Timeline {
		_, err := querier.ExecContext(ctx, query,
			event.ID.String(), request.ID.String(), event.Kind, event.Detail, event.At)
		if err != nil {
			return apperrors.Wrap(err, "failed to save timeline event")
		}
	}
	return nil
}

func (m *MySQLSignatureRequestRepository) loadChallenges(
	ctx context.Context,
	querier database.Querier,
	request *signatureDomain.SignatureRequest,
) error {
	query := `SELECT id, request_id, channel, provider, status, code, proof, error_code,
			  created_at, sent_at, completed_at, expires_at
			  FROM signature_challenges
			  WHERE request_id = ?
			  ORDER BY created_at ASC, id ASC`

	rows, err := querier.QueryContext(ctx, query, request.ID.String())
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

func (m *MySQLSignatureRequestRepository) loadTimeline(
	ctx context.Context,
	querier database.Querier,
	request *signatureDomain.SignatureRequest,
) error {
	query := `SELECT id, kind, detail, occurred_at
			  FROM signature_timeline_events
			  WHERE request_id = ?
			  ORDER BY occurred_at ASC, id ASC`

	rows, err := querier.QueryContext(ctx, query, request.ID.String())
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
