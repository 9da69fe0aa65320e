package services

import (
	"context"
	"strings"

	"github.com/yigit/ebdashboard/internal/app/auth"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/app/models/dto"
	"github.com/yigit/ebdashboard/internal/app/repositories"
	"github.com/yigit/ebdashboard/internal/domain"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
	"github.com/yigit/ebdashboard/internal/pkg/logger"
)

// CourseService manages the course catalogue and recommendations
type CourseService interface {
	List(ctx context.Context) ([]models.Course, error)
	Create(ctx context.Context, actor auth.Actor, req *dto.CreateCourseRequest) (*models.Course, error)
	Recommend(ctx context.Context, actor auth.Actor, studentID int64, limit int) (*dto.RecommendationResponse, error)
}

type courseServiceImpl struct {
	repos *repositories.Repositories
}

// NewCourseService creates a new CourseService
func NewCourseService(repos *repositories.Repositories) CourseService {
	return &courseServiceImpl{repos: repos}
}

// List returns the whole catalogue ordered by id
func (s *courseServiceImpl) List(ctx context.Context) ([]models.Course, error) {
	courses, err := s.repos.Courses.List(ctx)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to list courses")
	}
	return courses, nil
}

// Create adds a course. Administrators only.
func (s *courseServiceImpl) Create(ctx context.Context, actor auth.Actor, req *dto.CreateCourseRequest) (*models.Course, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if !req.Difficulty.IsValid() {
		return nil, apperrors.NewValidationError("difficulty must be one of: intro, intermediate, advanced")
	}
	for _, year := range req.RecommendedForYears {
		if !year.IsValid() {
			return nil, apperrors.NewValidationError("Unknown recommended year: " + string(year))
		}
	}

	course := &models.Course{
		Code:                strings.ToUpper(strings.TrimSpace(req.Code)),
		Title:               strings.TrimSpace(req.Title),
		Description:         req.Description,
		Tags:                normalizeInterests(req.Tags),
		Difficulty:          req.Difficulty,
		RecommendedForYears: req.RecommendedForYears,
	}
	if course.Code == "" || course.Title == "" {
		return nil, apperrors.NewValidationError("code and title are required")
	}

	if err := s.repos.Courses.Create(ctx, course); err != nil {
		return nil, apperrors.Internalize(err, "Failed to create course")
	}
	logger.Info().Int64("courseID", course.ID).Str("code", course.Code).Msg("Course created")
	return course, nil
}

// Recommend ranks the catalogue for a student. Students may only ask for themselves.
func (s *courseServiceImpl) Recommend(ctx context.Context, actor auth.Actor, studentID int64, limit int) (*dto.RecommendationResponse, error) {
	if err := auth.CanViewStudent(actor, studentID); err != nil {
		return nil, err
	}

	student, err := s.repos.Students.GetByID(ctx, studentID)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to load student")
	}
	courses, err := s.repos.Courses.List(ctx)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to list courses")
	}

	scored := domain.Recommend(student, courses, limit)
	recommendations := make([]dto.RecommendedCourse, 0, len(scored))
	for _, sc := range scored {
		recommendations = append(recommendations, dto.RecommendedCourse{Course: sc.Course, Score: sc.Score, Reason: sc.Reason})
	}
	return &dto.RecommendationResponse{StudentID: student.ID, Recommendations: recommendations}, nil
}
