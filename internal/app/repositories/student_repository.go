package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/db"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
	"github.com/yigit/ebdashboard/internal/pkg/dberrors"
	"github.com/yigit/ebdashboard/internal/pkg/helpers"
	"github.com/yigit/ebdashboard/internal/pkg/logger"
)

var studentColumns = []string{
	"id", "user_id", "name", "email", "year", "interests", "gpa", "completed_courses",
	"purchase_limit", "used_purchase_amount", "total_purchases", "purchase_requests_count",
	"last_purchase_date", "created_at", "updated_at",
}

type studentRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a PostgreSQL StudentRepository
func NewStudentRepository(conn db.DBTX) StudentRepository {
	return &studentRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanStudent(row pgx.Row) (*models.Student, error) {
	var s models.Student
	var userID *int64
	var year string
	err := row.Scan(
		&s.ID, &userID, &s.Name, &s.Email, &year, &s.Interests, &s.GPA, &s.CompletedCourses,
		&s.PurchaseLimit, &s.UsedPurchaseAmount, &s.TotalPurchases, &s.PurchaseRequestsCount,
		&s.LastPurchaseDate, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if userID != nil {
		s.UserID = *userID
	}
	s.Year = models.Year(year)
	return &s, nil
}

func nullableID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.Interests == nil {
		student.Interests = []string{}
	}
	if student.CompletedCourses == nil {
		student.CompletedCourses = []int64{}
	}

	sql, args, err := r.sb.Insert("students").
		Columns("user_id", "name", "email", "year", "interests", "gpa", "completed_courses", "purchase_limit").
		Values(nullableID(student.UserID), student.Name, student.Email, string(student.Year),
			student.Interests, student.GPA, student.CompletedCourses, student.PurchaseLimit).
		Suffix("RETURNING id, used_purchase_amount, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create student query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&student.ID, &student.UsedPurchaseAmount, &student.CreatedAt, &student.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintStudentsUserID) {
			return apperrors.NewConflictError(apperrors.ErrConflict, "User already has a student profile")
		}
		logger.Error().Err(err).Int64("userID", student.UserID).Msg("Error executing create student query")
		return fmt.Errorf("error creating student: %w", err)
	}
	return nil
}

func (r *studentRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.Student, error) {
	sql, args, err := r.sb.Select(studentColumns...).From("students").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get student query: %w", err)
	}

	student, err := scanStudent(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("Student not found")
		}
		return nil, fmt.Errorf("error getting student: %w", err)
	}
	return student, nil
}

func (r *studentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

func (r *studentRepository) GetByUserID(ctx context.Context, userID int64) (*models.Student, error) {
	return r.getOne(ctx, squirrel.Eq{"user_id": userID})
}

// execOne runs an update and maps zero affected rows to NotFound
func (r *studentRepository) execOne(ctx context.Context, op string, query squirrel.UpdateBuilder) error {
	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build %s query: %w", op, err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("op", op).Msg("Error executing student update")
		return fmt.Errorf("error executing %s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("Student not found")
	}
	return nil
}

func (r *studentRepository) UpdateProfile(ctx context.Context, student *models.Student) error {
	if student.Interests == nil {
		student.Interests = []string{}
	}
	query := r.sb.Update("students").
		Set("name", student.Name).
		Set("year", string(student.Year)).
		Set("interests", student.Interests).
		Set("gpa", student.GPA).
		Set("updated_at", student.UpdatedAt).
		Where(squirrel.Eq{"id": student.ID})
	return r.execOne(ctx, "update student profile", query)
}

func (r *studentRepository) IncrementRequestCount(ctx context.Context, id int64, at time.Time) error {
	query := r.sb.Update("students").
		Set("purchase_requests_count", squirrel.Expr("purchase_requests_count + 1")).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id})
	return r.execOne(ctx, "increment request count", query)
}

func (r *studentRepository) ApplyApprovedPurchase(ctx context.Context, id int64, amount decimal.Decimal, at time.Time) (bool, error) {
	sql, args, err := r.sb.Update("students").
		Set("used_purchase_amount", squirrel.Expr("used_purchase_amount + ?", amount)).
		Set("total_purchases", squirrel.Expr("total_purchases + 1")).
		Set("last_purchase_date", at).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Expr("used_purchase_amount + ? <= purchase_limit", amount)).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build apply purchase query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsCheckViolation(err, dberrors.ConstraintStudentsWithinLimit) {
			return false, nil
		}
		logger.Error().Err(err).Int64("studentID", id).Msg("Error applying approved purchase")
		return false, fmt.Errorf("error applying approved purchase: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *studentRepository) ResetUsage(ctx context.Context, id int64, at time.Time) error {
	query := r.sb.Update("students").
		Set("used_purchase_amount", decimal.Zero).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id})
	return r.execOne(ctx, "reset usage", query)
}

func (r *studentRepository) UpdateLimit(ctx context.Context, id int64, limit decimal.Decimal, at time.Time) (bool, error) {
	sql, args, err := r.sb.Update("students").
		Set("purchase_limit", limit).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.LtOrEq{"used_purchase_amount": limit}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build update limit query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsCheckViolation(err, dberrors.ConstraintStudentsWithinLimit) {
			return false, nil
		}
		return false, fmt.Errorf("error updating purchase limit: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *studentRepository) AddCompletedCourse(ctx context.Context, id, courseID int64, at time.Time) error {
	sql, args, err := r.sb.Update("students").
		Set("completed_courses", squirrel.Expr("array_append(completed_courses, ?::bigint)", courseID)).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Expr("NOT (?::bigint = ANY(completed_courses))", courseID)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build add completed course query: %w", err)
	}

	// zero rows means the course was already recorded; the service checks existence first
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error adding completed course: %w", err)
	}
	return nil
}

func (r *studentRepository) List(ctx context.Context, page, size int) ([]models.Student, int64, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []models.Student{}, 0, nil
	}

	offset, limit := helpers.CalculateOffsetLimit(page, size)
	sql, args, err := r.sb.Select(studentColumns...).
		From("students").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list students query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list students query")
		return nil, 0, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	students := []models.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan student row: %w", err)
		}
		students = append(students, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating student rows: %w", err)
	}
	return students, total, nil
}

func (r *studentRepository) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.db, "students")
}
