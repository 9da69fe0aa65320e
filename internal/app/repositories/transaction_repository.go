package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/db"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
	"github.com/yigit/ebdashboard/internal/pkg/dberrors"
	"github.com/yigit/ebdashboard/internal/pkg/logger"
)

var transactionColumns = []string{
	"id", "student_id", "amount", "type", "category", "description", "status", "reference", "request_id", "created_at",
}

type transactionRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewTransactionRepository creates a PostgreSQL TransactionRepository
func NewTransactionRepository(conn db.DBTX) TransactionRepository {
	return &transactionRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var t models.Transaction
	var txType string
	err := row.Scan(&t.ID, &t.StudentID, &t.Amount, &txType, &t.Category, &t.Description, &t.Status, &t.Reference, &t.RequestID, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Type = models.TransactionType(txType)
	return &t, nil
}

// Create appends a ledger entry. A second entry for the same request is reported as a conflict.
func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	if tx.Status == "" {
		tx.Status = models.TransactionStatusCompleted
	}

	sql, args, err := r.sb.Insert("transactions").
		Columns("student_id", "amount", "type", "category", "description", "status", "reference", "request_id", "created_at").
		Values(tx.StudentID, tx.Amount, string(tx.Type), tx.Category, tx.Description, tx.Status, tx.Reference, tx.RequestID, tx.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create transaction query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&tx.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintTransactionsRequest) {
			return apperrors.NewConflictError(apperrors.ErrConflict, "Transaction already recorded for this request")
		}
		logger.Error().Err(err).Int64("studentID", tx.StudentID).Msg("Error executing create transaction query")
		return fmt.Errorf("error creating transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) list(ctx context.Context, query squirrel.SelectBuilder) ([]models.Transaction, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list transactions query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list transactions query")
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	txs := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txs = append(txs, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return txs, nil
}

func (r *transactionRepository) ListByStudent(ctx context.Context, studentID int64, limit int) ([]models.Transaction, error) {
	query := r.sb.Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"student_id": studentID}).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	return r.list(ctx, query)
}

func (r *transactionRepository) ListByStudentSince(ctx context.Context, studentID int64, since time.Time) ([]models.Transaction, error) {
	query := r.sb.Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"student_id": studentID}).
		Where(squirrel.GtOrEq{"created_at": since}).
		OrderBy("created_at DESC", "id DESC")
	return r.list(ctx, query)
}

func (r *transactionRepository) ListRecent(ctx context.Context, limit int) ([]models.Transaction, error) {
	query := r.sb.Select(transactionColumns...).
		From("transactions").
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	return r.list(ctx, query)
}

func (r *transactionRepository) CountByRequest(ctx context.Context, requestID int64) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE request_id = $1`, requestID).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting transactions for request: %w", err)
	}
	return n, nil
}

func (r *transactionRepository) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.db, "transactions")
}
