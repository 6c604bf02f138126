package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/signatures/internal/errors"
	providerDomain "github.com/allisson/signatures/internal/provider/domain"
	signatureDomain "github.com/allisson/signatures/internal/signature/domain"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testRequest(t *testing.T) *signatureDomain.SignatureRequest {
	t.Helper()
	now := time.Now()
	transaction := signatureDomain.NewTransactionContext(
		1500.00, "EUR", "merchant-1", "order-42", "laptop purchase")
	request := signatureDomain.NewSignatureRequest("customer-ref-1", transaction, 5*time.Minute, now)

	_, err := request.CreateChallenge(
		providerDomain.ChannelSMS, providerDomain.ProviderSMS, "123456", now)
	require.NoError(t, err)
	return request
}

// expectAggregateWrites registers the challenge and timeline statements that
// follow every request row write.
func expectAggregateWrites(mock sqlmock.Sqlmock, request *signatureDomain.SignatureRequest) {
	for range request.Challenges {
		mock.ExpectExec("INSERT INTO signature_challenges").
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	for range request.Timeline {
		mock.ExpectExec("INSERT INTO signature_timeline_events").
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
}

func TestPostgreSQLSignatureRequestRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		request := testRequest(t)

		mock.ExpectExec("INSERT INTO signature_requests").
			WillReturnResult(sqlmock.NewResult(0, 1))
		expectAggregateWrites(mock, request)

		repo := NewPostgreSQLSignatureRequestRepository(db)

		require.NoError(t, repo.Create(ctx, request))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_InsertFailure", func(t *testing.T) {
		db, mock := newMockDB(t)
		request := testRequest(t)

		mock.ExpectExec("INSERT INTO signature_requests").
			WillReturnError(assert.AnError)

		repo := NewPostgreSQLSignatureRequestRepository(db)

		assert.Error(t, repo.Create(ctx, request))
	})
}

func TestPostgreSQLSignatureRequestRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		request := testRequest(t)
		challenge := request.Challenges[0]

		mock.ExpectQuery("SELECT (.+) FROM signature_requests").
			WithArgs(request.ID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "customer_ref", "amount", "currency", "merchant_id", "order_id",
				"description", "integrity_hash", "status", "created_at", "expires_at",
				"signed_at", "aborted_at", "abort_reason", "version",
			}).AddRow(
				request.ID, request.CustomerRef, request.Transaction.Amount,
				request.Transaction.Currency, request.Transaction.MerchantID,
				request.Transaction.OrderID, request.Transaction.Description,
				request.Transaction.IntegrityHash, request.Status, request.CreatedAt,
				request.ExpiresAt, nil, nil, "", request.Version,
			))
		mock.ExpectQuery("SELECT (.+) FROM signature_challenges").
			WithArgs(request.ID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "request_id", "channel", "provider", "status", "code", "proof",
				"error_code", "created_at", "sent_at", "completed_at", "expires_at",
			}).AddRow(
				challenge.ID, challenge.RequestID, challenge.Channel, challenge.Provider,
				challenge.Status, challenge.Code, challenge.Proof, challenge.ErrorCode,
				challenge.CreatedAt, nil, nil, challenge.ExpiresAt,
			))
		mock.ExpectQuery("SELECT (.+) FROM signature_timeline_events").
			WithArgs(request.ID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "detail", "occurred_at"}).
				AddRow(request.Timeline[0].ID, request.Timeline[0].Kind,
					request.Timeline[0].Detail, request.Timeline[0].At))

		repo := NewPostgreSQLSignatureRequestRepository(db)
		loaded, err := repo.GetByID(ctx, request.ID)

		require.NoError(t, err)
		assert.Equal(t, request.ID, loaded.ID)
		assert.Equal(t, request.Status, loaded.Status)
		require.Len(t, loaded.Challenges, 1)
		assert.Equal(t, challenge.ID, loaded.Challenges[0].ID)
		require.Len(t, loaded.Timeline, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		id := uuid.Must(uuid.NewV7())

		mock.ExpectQuery("SELECT (.+) FROM signature_requests").
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		repo := NewPostgreSQLSignatureRequestRepository(db)
		_, err := repo.GetByID(ctx, id)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestPostgreSQLSignatureRequestRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_IncrementsVersion", func(t *testing.T) {
		db, mock := newMockDB(t)
		request := testRequest(t)
		request.Version = 3

		mock.ExpectExec("UPDATE signature_requests").
			WillReturnResult(sqlmock.NewResult(0, 1))
		expectAggregateWrites(mock, request)

		repo := NewPostgreSQLSignatureRequestRepository(db)

		require.NoError(t, repo.Update(ctx, request))
		assert.Equal(t, 4, request.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_VersionConflict", func(t *testing.T) {
		db, mock := newMockDB(t)
		request := testRequest(t)
		request.Version = 3

		mock.ExpectExec("UPDATE signature_requests").
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewPostgreSQLSignatureRequestRepository(db)
		err := repo.Update(ctx, request)

		assert.ErrorIs(t, err, apperrors.ErrConflict)
		assert.Equal(t, 3, request.Version)
	})
}

func TestPostgreSQLSignatureRequestRepository_FindExpiredActiveIDs(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		first := uuid.Must(uuid.NewV7())
		second := uuid.Must(uuid.NewV7())

		mock.ExpectQuery("SELECT id").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(first).AddRow(second))

		repo := NewPostgreSQLSignatureRequestRepository(db)
		ids, err := repo.FindExpiredActiveIDs(ctx, time.Now(), 100)

		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{first, second}, ids)
	})

	t.Run("Success_NoMatches", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectQuery("SELECT id").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		repo := NewPostgreSQLSignatureRequestRepository(db)
		ids, err := repo.FindExpiredActiveIDs(ctx, time.Now(), 100)

		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}
