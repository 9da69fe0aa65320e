package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/db"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
	"github.com/yigit/ebdashboard/internal/pkg/dberrors"
	"github.com/yigit/ebdashboard/internal/pkg/helpers"
	"github.com/yigit/ebdashboard/internal/pkg/logger"
)

var farmColumns = []string{
	"id", "farm_code", "farm_name", "farmer_name", "email", "phone", "farm_size", "farm_type",
	"address", "latitude", "longitude", "user_id", "status", "registration_date", "updated_at",
}

type farmRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewFarmRepository creates a PostgreSQL FarmRepository
func NewFarmRepository(conn db.DBTX) FarmRepository {
	return &farmRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanFarm(row pgx.Row) (*models.Farm, error) {
	var f models.Farm
	var farmType, status string
	err := row.Scan(
		&f.ID, &f.FarmCode, &f.FarmName, &f.FarmerName, &f.Email, &f.Phone, &f.FarmSize, &farmType,
		&f.Address, &f.Latitude, &f.Longitude, &f.UserID, &status, &f.RegistrationDate, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	f.FarmType = models.FarmType(farmType)
	f.Status = models.FarmStatus(status)
	return &f, nil
}

func (r *farmRepository) Create(ctx context.Context, farm *models.Farm) error {
	sql, args, err := r.sb.Insert("farms").
		Columns("farm_code", "farm_name", "farmer_name", "email", "phone", "farm_size", "farm_type",
			"address", "latitude", "longitude", "user_id", "status", "registration_date", "updated_at").
		Values(farm.FarmCode, farm.FarmName, farm.FarmerName, farm.Email, farm.Phone, farm.FarmSize, string(farm.FarmType),
			farm.Address, farm.Latitude, farm.Longitude, farm.UserID, string(farm.Status), farm.RegistrationDate, farm.RegistrationDate).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create farm query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&farm.ID); err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintFarmsEmail):
			return apperrors.NewConflictError(apperrors.ErrConflict, "A farm with this email is already registered")
		case dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintFarmsCode):
			return apperrors.NewConflictError(apperrors.ErrConflict, "Farm code already in use")
		}
		logger.Error().Err(err).Str("email", farm.Email).Msg("Error executing create farm query")
		return fmt.Errorf("error creating farm: %w", err)
	}
	farm.UpdatedAt = farm.RegistrationDate
	return nil
}

func (r *farmRepository) GetByCode(ctx context.Context, code string) (*models.Farm, error) {
	sql, args, err := r.sb.Select(farmColumns...).From("farms").Where(squirrel.Eq{"farm_code": code}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get farm query: %w", err)
	}

	farm, err := scanFarm(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("Farm not found")
		}
		return nil, fmt.Errorf("error getting farm: %w", err)
	}
	return farm, nil
}

func (r *farmRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM farms WHERE email = $1)`, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking farm email: %w", err)
	}
	return exists, nil
}

// List returns one page of farms, newest registration first
func (r *farmRepository) List(ctx context.Context, filter models.FarmFilter) ([]models.Farm, int64, error) {
	where := squirrel.And{}
	if filter.Status != "" {
		where = append(where, squirrel.Eq{"status": string(filter.Status)})
	}
	if filter.FarmType != "" {
		where = append(where, squirrel.Eq{"farm_type": string(filter.FarmType)})
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("farms").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count farms query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count farms: %w", err)
	}
	if total == 0 {
		return []models.Farm{}, 0, nil
	}

	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.PageSize)
	sql, args, err := r.sb.Select(farmColumns...).
		From("farms").
		Where(where).
		OrderBy("registration_date DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list farms query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list farms query")
		return nil, 0, fmt.Errorf("failed to query farms: %w", err)
	}
	defer rows.Close()

	farms := []models.Farm{}
	for rows.Next() {
		f, err := scanFarm(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan farm row: %w", err)
		}
		farms = append(farms, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating farm rows: %w", err)
	}
	return farms, total, nil
}

func (r *farmRepository) UpdateStatus(ctx context.Context, code string, status models.FarmStatus, at time.Time) (*models.Farm, error) {
	sql, args, err := r.sb.Update("farms").
		Set("status", string(status)).
		Set("updated_at", at).
		Where(squirrel.Eq{"farm_code": code}).
		Suffix("RETURNING " + strings.Join(farmColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update farm status query: %w", err)
	}

	farm, err := scanFarm(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("Farm not found")
		}
		logger.Error().Err(err).Str("farmCode", code).Msg("Error executing update farm status query")
		return nil, fmt.Errorf("error updating farm status: %w", err)
	}
	return farm, nil
}

func (r *farmRepository) Delete(ctx context.Context, code string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM farms WHERE farm_code = $1`, code)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err, dberrors.ConstraintCreditsFarm) {
			return apperrors.NewConflictError(apperrors.ErrConflict, "Farm has carbon credits and cannot be deleted")
		}
		logger.Error().Err(err).Str("farmCode", code).Msg("Error executing delete farm query")
		return fmt.Errorf("error deleting farm: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("Farm not found")
	}
	return nil
}

func (r *farmRepository) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.db, "farms")
}
