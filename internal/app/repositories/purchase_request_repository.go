package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/db"
	"github.com/yigit/ebdashboard/internal/domain"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
	"github.com/yigit/ebdashboard/internal/pkg/helpers"
	"github.com/yigit/ebdashboard/internal/pkg/logger"
)

var purchaseRequestColumns = []string{
	"id", "student_id", "company_id", "items", "total_amount", "status", "reason_for_rejection",
	"reviewed_by", "reviewed_at", "notes", "requested_at", "updated_at",
}

type purchaseRequestRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewPurchaseRequestRepository creates a PostgreSQL PurchaseRequestRepository
func NewPurchaseRequestRepository(conn db.DBTX) PurchaseRequestRepository {
	return &purchaseRequestRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanPurchaseRequest(row pgx.Row) (*models.PurchaseRequest, error) {
	var pr models.PurchaseRequest
	var status string
	err := row.Scan(
		&pr.ID, &pr.StudentID, &pr.CompanyID, &pr.Items, &pr.TotalAmount, &status, &pr.ReasonForRejection,
		&pr.ReviewedBy, &pr.ReviewedAt, &pr.Notes, &pr.RequestedAt, &pr.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	pr.Status = models.PurchaseStatus(status)
	return &pr, nil
}

func (r *purchaseRequestRepository) Create(ctx context.Context, request *models.PurchaseRequest) error {
	sql, args, err := r.sb.Insert("purchase_requests").
		Columns("student_id", "company_id", "items", "total_amount", "status", "notes", "requested_at", "updated_at").
		Values(request.StudentID, request.CompanyID, request.Items, request.TotalAmount,
			string(request.Status), request.Notes, request.RequestedAt, request.RequestedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create purchase request query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&request.ID); err != nil {
		logger.Error().Err(err).Int64("studentID", request.StudentID).Msg("Error executing create purchase request query")
		return fmt.Errorf("error creating purchase request: %w", err)
	}
	request.UpdatedAt = request.RequestedAt
	return nil
}

func (r *purchaseRequestRepository) GetByID(ctx context.Context, id int64) (*models.PurchaseRequest, error) {
	sql, args, err := r.sb.Select(purchaseRequestColumns...).From("purchase_requests").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get purchase request query: %w", err)
	}

	pr, err := scanPurchaseRequest(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("Purchase request not found")
		}
		return nil, fmt.Errorf("error getting purchase request: %w", err)
	}
	return pr, nil
}

func filterConditions(filter models.PurchaseRequestFilter) squirrel.And {
	where := squirrel.And{}
	if filter.Status != "" {
		where = append(where, squirrel.Eq{"status": string(filter.Status)})
	}
	if filter.StudentID > 0 {
		where = append(where, squirrel.Eq{"student_id": filter.StudentID})
	}
	if filter.CompanyID > 0 {
		where = append(where, squirrel.Eq{"company_id": filter.CompanyID})
	}
	return where
}

// List returns one page of requests, newest first, plus the total matching count
func (r *purchaseRequestRepository) List(ctx context.Context, filter models.PurchaseRequestFilter) ([]models.PurchaseRequest, int64, error) {
	where := filterConditions(filter)

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("purchase_requests").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count purchase requests query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count purchase requests query")
		return nil, 0, fmt.Errorf("failed to count purchase requests: %w", err)
	}
	if total == 0 {
		return []models.PurchaseRequest{}, 0, nil
	}

	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.PageSize)
	sql, args, err := r.sb.Select(purchaseRequestColumns...).
		From("purchase_requests").
		Where(where).
		OrderBy("requested_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list purchase requests query: %w", err)
	}

	requests, err := r.query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (r *purchaseRequestRepository) query(ctx context.Context, sql string, args ...interface{}) ([]models.PurchaseRequest, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing purchase request query")
		return nil, fmt.Errorf("failed to query purchase requests: %w", err)
	}
	defer rows.Close()

	requests := []models.PurchaseRequest{}
	for rows.Next() {
		pr, err := scanPurchaseRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase request row: %w", err)
		}
		requests = append(requests, *pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchase request rows: %w", err)
	}
	return requests, nil
}

// Transition is a single conditional UPDATE: it only matches while status is still pending.
// When nothing matched, a follow-up read tells a missing request from a lost race.
func (r *purchaseRequestRepository) Transition(ctx context.Context, t models.StatusTransition) (*models.PurchaseRequest, error) {
	if !domain.CanTransition(models.StatusPending, t.To) {
		return nil, apperrors.NewValidationError("Unsupported target status: " + string(t.To))
	}

	sql, args, err := r.sb.Update("purchase_requests").
		Set("status", string(t.To)).
		Set("reviewed_by", t.ReviewedBy).
		Set("reviewed_at", t.At).
		Set("reason_for_rejection", t.ReasonForRejection).
		Set("updated_at", t.At).
		Where(squirrel.Eq{"id": t.RequestID}).
		Where(squirrel.Eq{"status": string(models.StatusPending)}).
		Suffix("RETURNING " + strings.Join(purchaseRequestColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build transition query: %w", err)
	}

	pr, err := scanPurchaseRequest(r.db.QueryRow(ctx, sql, args...))
	if err == nil {
		return pr, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		logger.Error().Err(err).Int64("requestID", t.RequestID).Str("to", string(t.To)).Msg("Error executing transition query")
		return nil, fmt.Errorf("error transitioning purchase request: %w", err)
	}

	var current string
	err = r.db.QueryRow(ctx, `SELECT status FROM purchase_requests WHERE id = $1`, t.RequestID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("Purchase request not found")
		}
		return nil, fmt.Errorf("error reading purchase request status: %w", err)
	}
	return nil, &TransitionConflictError{Current: models.PurchaseStatus(current)}
}

func (r *purchaseRequestRepository) AggregateByStatus(ctx context.Context, studentID int64) (map[models.PurchaseStatus]models.StatusAggregate, error) {
	query := r.sb.Select("status", "COUNT(*)", "COALESCE(SUM(total_amount), 0)").
		From("purchase_requests").
		GroupBy("status")
	if studentID > 0 {
		query = query.Where(squirrel.Eq{"student_id": studentID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build aggregate query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error aggregating purchase requests: %w", err)
	}
	defer rows.Close()

	result := make(map[models.PurchaseStatus]models.StatusAggregate, len(models.AllPurchaseStatuses))
	for rows.Next() {
		var status string
		var agg models.StatusAggregate
		if err := rows.Scan(&status, &agg.Count, &agg.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate row: %w", err)
		}
		result[models.PurchaseStatus(status)] = agg
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating aggregate rows: %w", err)
	}

	for _, status := range models.AllPurchaseStatuses {
		if _, ok := result[status]; !ok {
			result[status] = models.StatusAggregate{TotalAmount: decimal.Zero}
		}
	}
	return result, nil
}

func (r *purchaseRequestRepository) CountApprovedSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM purchase_requests WHERE status = $1 AND requested_at >= $2`,
		string(models.StatusApproved), since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting recent approvals: %w", err)
	}
	return n, nil
}

func (r *purchaseRequestRepository) ListApprovedWithoutTransaction(ctx context.Context, limit int) ([]models.PurchaseRequest, error) {
	cols := make([]string, 0, len(purchaseRequestColumns))
	for _, c := range purchaseRequestColumns {
		cols = append(cols, "pr."+c)
	}

	query := r.sb.Select(cols...).
		From("purchase_requests pr").
		LeftJoin("transactions t ON t.request_id = pr.id").
		Where(squirrel.Eq{"pr.status": string(models.StatusApproved)}).
		Where("t.id IS NULL").
		OrderBy("pr.id ASC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build orphan approvals query: %w", err)
	}
	return r.query(ctx, sql, args...)
}
