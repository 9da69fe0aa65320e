package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/db"
	"github.com/yigit/ebdashboard/internal/domain"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
	"github.com/yigit/ebdashboard/internal/pkg/dberrors"
	"github.com/yigit/ebdashboard/internal/pkg/helpers"
	"github.com/yigit/ebdashboard/internal/pkg/logger"
)

var creditColumns = []string{
	"id", "farm_code", "baseline_emission", "actual_emission", "credits_generated", "status",
	"verification_date", "sold_date", "sold_to", "created_at", "updated_at",
}

type creditRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewCreditRepository creates a PostgreSQL CreditRepository
func NewCreditRepository(conn db.DBTX) CreditRepository {
	return &creditRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanCredit(row pgx.Row) (*models.CarbonCredit, error) {
	var c models.CarbonCredit
	var status string
	err := row.Scan(
		&c.ID, &c.FarmCode, &c.BaselineEmission, &c.ActualEmission, &c.CreditsGenerated, &status,
		&c.VerificationDate, &c.SoldDate, &c.SoldTo, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Status = models.CreditStatus(status)
	return &c, nil
}

func (r *creditRepository) Create(ctx context.Context, credit *models.CarbonCredit) error {
	sql, args, err := r.sb.Insert("carbon_credits").
		Columns("farm_code", "baseline_emission", "actual_emission", "credits_generated", "status", "created_at", "updated_at").
		Values(credit.FarmCode, credit.BaselineEmission, credit.ActualEmission, credit.CreditsGenerated,
			string(credit.Status), credit.CreatedAt, credit.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create credit query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&credit.ID); err != nil {
		if dberrors.IsForeignKeyViolation(err, dberrors.ConstraintCreditsFarm) {
			return apperrors.NewNotFoundError("Farm not found")
		}
		logger.Error().Err(err).Str("farmCode", credit.FarmCode).Msg("Error executing create credit query")
		return fmt.Errorf("error creating carbon credit: %w", err)
	}
	credit.UpdatedAt = credit.CreatedAt
	return nil
}

func (r *creditRepository) GetByID(ctx context.Context, id int64) (*models.CarbonCredit, error) {
	sql, args, err := r.sb.Select(creditColumns...).From("carbon_credits").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get credit query: %w", err)
	}

	credit, err := scanCredit(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("Carbon credit not found")
		}
		return nil, fmt.Errorf("error getting carbon credit: %w", err)
	}
	return credit, nil
}

// List returns one page of credits, newest first
func (r *creditRepository) List(ctx context.Context, filter models.CreditFilter) ([]models.CarbonCredit, int64, error) {
	where := squirrel.And{}
	if filter.Status != "" {
		where = append(where, squirrel.Eq{"status": string(filter.Status)})
	}
	if filter.FarmCode != "" {
		where = append(where, squirrel.Eq{"farm_code": filter.FarmCode})
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("carbon_credits").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count credits query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count carbon credits: %w", err)
	}
	if total == 0 {
		return []models.CarbonCredit{}, 0, nil
	}

	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.PageSize)
	sql, args, err := r.sb.Select(creditColumns...).
		From("carbon_credits").
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list credits query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list credits query")
		return nil, 0, fmt.Errorf("failed to query carbon credits: %w", err)
	}
	defer rows.Close()

	credits := []models.CarbonCredit{}
	for rows.Next() {
		c, err := scanCredit(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan credit row: %w", err)
		}
		credits = append(credits, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating credit rows: %w", err)
	}
	return credits, total, nil
}

func (r *creditRepository) Transition(ctx context.Context, t models.CreditTransition) (*models.CarbonCredit, error) {
	if !domain.CanAdvanceCredit(t.From, t.To) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("Cannot move a credit from %s to %s", t.From, t.To))
	}

	query := r.sb.Update("carbon_credits").
		Set("status", string(t.To)).
		Set("updated_at", t.At)
	switch t.To {
	case models.CreditStatusVerified:
		query = query.Set("verification_date", t.At)
	case models.CreditStatusSold:
		query = query.Set("sold_date", t.At).Set("sold_to", t.SoldTo)
	}
	sql, args, err := query.
		Where(squirrel.Eq{"id": t.CreditID}).
		Where(squirrel.Eq{"status": string(t.From)}).
		Suffix("RETURNING " + strings.Join(creditColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build credit transition query: %w", err)
	}

	credit, err := scanCredit(r.db.QueryRow(ctx, sql, args...))
	if err == nil {
		return credit, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		logger.Error().Err(err).Int64("creditID", t.CreditID).Str("to", string(t.To)).Msg("Error executing credit transition query")
		return nil, fmt.Errorf("error transitioning carbon credit: %w", err)
	}

	var current string
	err = r.db.QueryRow(ctx, `SELECT status FROM carbon_credits WHERE id = $1`, t.CreditID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("Carbon credit not found")
		}
		return nil, fmt.Errorf("error reading carbon credit status: %w", err)
	}
	return nil, CreditConflict(models.CreditStatus(current))
}

func (r *creditRepository) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.db, "carbon_credits")
}

// CreditConflict reports a lost credit compare-and-set, carrying the stored status
func CreditConflict(current models.CreditStatus) error {
	return apperrors.NewInvalidStateError(fmt.Sprintf("Carbon credit is already %s", current), string(current))
}
