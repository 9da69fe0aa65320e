package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/db"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
	"github.com/yigit/ebdashboard/internal/pkg/dberrors"
	"github.com/yigit/ebdashboard/internal/pkg/logger"
)

var courseColumns = []string{
	"id", "code", "title", "description", "tags", "difficulty", "recommended_for_years", "created_at",
}

type courseRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a PostgreSQL CourseRepository
func NewCourseRepository(conn db.DBTX) CourseRepository {
	return &courseRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	var c models.Course
	var difficulty string
	var years []string
	if err := row.Scan(&c.ID, &c.Code, &c.Title, &c.Description, &c.Tags, &difficulty, &years, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Difficulty = models.Difficulty(difficulty)
	c.RecommendedForYears = make([]models.Year, 0, len(years))
	for _, y := range years {
		c.RecommendedForYears = append(c.RecommendedForYears, models.Year(y))
	}
	return &c, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	tags := course.Tags
	if tags == nil {
		tags = []string{}
	}
	years := make([]string, 0, len(course.RecommendedForYears))
	for _, y := range course.RecommendedForYears {
		years = append(years, string(y))
	}

	sql, args, err := r.sb.Insert("courses").
		Columns("code", "title", "description", "tags", "difficulty", "recommended_for_years").
		Values(course.Code, course.Title, course.Description, tags, string(course.Difficulty), years).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create course query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&course.ID, &course.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintCoursesCode) {
			return apperrors.NewConflictError(apperrors.ErrCodeAlreadyExists, fmt.Sprintf("Course code %s already exists", course.Code))
		}
		logger.Error().Err(err).Str("code", course.Code).Msg("Error executing create course query")
		return fmt.Errorf("error creating course: %w", err)
	}
	return nil
}

func (r *courseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns...).From("courses").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get course query: %w", err)
	}

	course, err := scanCourse(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("Course not found")
		}
		return nil, fmt.Errorf("error getting course: %w", err)
	}
	return course, nil
}

// List returns the catalogue in insertion order, which is the tie-break order for recommendations
func (r *courseRepository) List(ctx context.Context) ([]models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns...).From("courses").OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list courses query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing courses: %w", err)
	}
	defer rows.Close()

	courses := []models.Course{}
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course row: %w", err)
		}
		courses = append(courses, *course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating course rows: %w", err)
	}
	return courses, nil
}
