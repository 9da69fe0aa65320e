package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
	"github.com/yigit/ebdashboard/internal/pkg/dberrors"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestPurchaseRequestRepository_TransitionConflict(t *testing.T) {
	mock := newMock(t)
	repo := NewPurchaseRequestRepository(mock)
	reviewer := int64(9)

	mock.ExpectQuery("UPDATE purchase_requests SET status").
		WithArgs("approved", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), int64(7), "pending").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT status FROM purchase_requests").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow("rejected"))

	pr, err := repo.Transition(context.Background(), models.StatusTransition{
		RequestID:  7,
		To:         models.StatusApproved,
		ReviewedBy: &reviewer,
		At:         time.Now(),
	})

	assert.Nil(t, pr)
	var conflict *TransitionConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, models.StatusRejected, conflict.Current)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseRequestRepository_TransitionMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewPurchaseRequestRepository(mock)

	mock.ExpectQuery("UPDATE purchase_requests SET status").
		WithArgs("cancelled", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), int64(404), "pending").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT status FROM purchase_requests").
		WithArgs(int64(404)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Transition(context.Background(), models.StatusTransition{
		RequestID: 404,
		To:        models.StatusCancelled,
		At:        time.Now(),
	})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseRequestRepository_CountApprovedSince(t *testing.T) {
	mock := newMock(t)
	repo := NewPurchaseRequestRepository(mock)
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM purchase_requests WHERE status").
		WithArgs("approved", since).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

	n, err := repo.CountApprovedSince(context.Background(), since)

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseRequestRepository_ListEmptyShortCircuits(t *testing.T) {
	mock := newMock(t)
	repo := NewPurchaseRequestRepository(mock)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM purchase_requests WHERE").
		WithArgs("pending", int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))

	items, total, err := repo.List(context.Background(), models.PurchaseRequestFilter{
		Status:    models.StatusPending,
		StudentID: 5,
	})

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepository_ApplyApprovedPurchase(t *testing.T) {
	tests := []struct {
		name     string
		result   pgconn.CommandTag
		execErr  error
		expected bool
		wantErr  bool
	}{
		{name: "within limit", result: pgxmock.NewResult("UPDATE", 1), expected: true},
		{name: "guard rejected", result: pgxmock.NewResult("UPDATE", 0), expected: false},
		{
			name:     "check constraint",
			execErr:  &pgconn.PgError{Code: "23514", ConstraintName: dberrors.ConstraintStudentsWithinLimit},
			expected: false,
		},
		{name: "driver failure", execErr: errors.New("connection reset"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			repo := NewStudentRepository(mock)

			exp := mock.ExpectExec("UPDATE students SET used_purchase_amount = used_purchase_amount \\+").
				WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), int64(1), pgxmock.AnyArg())
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(tt.result)
			}

			ok, err := repo.ApplyApprovedPurchase(context.Background(), 1, decimal.NewFromInt(150), time.Now())

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, ok)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStudentRepository_IncrementRequestCountMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewStudentRepository(mock)

	mock.ExpectExec("UPDATE students SET purchase_requests_count = purchase_requests_count \\+ 1").
		WithArgs(pgxmock.AnyArg(), int64(99)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.IncrementRequestCount(context.Background(), 99, time.Now())

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_CreateDuplicateRequest(t *testing.T) {
	mock := newMock(t)
	repo := NewTransactionRepository(mock)
	requestID := int64(12)

	mock.ExpectQuery("INSERT INTO transactions").
		WithArgs(int64(1), pgxmock.AnyArg(), "purchase", "", "", "completed", "", &requestID, pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: dberrors.ConstraintTransactionsRequest})

	err := repo.Create(context.Background(), &models.Transaction{
		StudentID: 1,
		Amount:    decimal.NewFromInt(100),
		Type:      models.TransactionPurchase,
		RequestID: &requestID,
		CreatedAt: time.Now(),
	})

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_CreateReturnsID(t *testing.T) {
	mock := newMock(t)
	repo := NewTransactionRepository(mock)

	mock.ExpectQuery("INSERT INTO transactions").
		WithArgs(int64(1), pgxmock.AnyArg(), "income", "", "", "completed", "", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(41)))

	tx := &models.Transaction{StudentID: 1, Amount: decimal.NewFromInt(20), Type: models.TransactionIncome, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(context.Background(), tx))

	assert.Equal(t, int64(41), tx.ID)
	assert.Equal(t, models.TransactionStatusCompleted, tx.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_EmailExists(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("student@uni.edu").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.EmailExists(context.Background(), "student@uni.edu")

	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
