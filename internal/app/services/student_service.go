package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yigit/ebdashboard/internal/app/auth"
	"github.com/yigit/ebdashboard/internal/app/models/dto"
	"github.com/yigit/ebdashboard/internal/app/repositories"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
	"github.com/yigit/ebdashboard/internal/pkg/logger"
)

// StudentService manages student profiles and purchase limits
type StudentService interface {
	GetMe(ctx context.Context, actor auth.Actor) (*dto.StudentResponse, error)
	Get(ctx context.Context, actor auth.Actor, id int64) (*dto.StudentResponse, error)
	UpdateProfile(ctx context.Context, actor auth.Actor, req *dto.UpdateStudentProfileRequest) (*dto.StudentResponse, error)
	UpdateLimit(ctx context.Context, actor auth.Actor, id int64, limit decimal.Decimal) (*dto.StudentResponse, error)
	ResetUsage(ctx context.Context, actor auth.Actor, id int64) (*dto.StudentResponse, error)
	CompleteCourse(ctx context.Context, actor auth.Actor, courseID int64) (*dto.StudentResponse, error)
}

type studentServiceImpl struct {
	repos *repositories.Repositories
	now   Clock
}

// NewStudentService creates a new StudentService
func NewStudentService(repos *repositories.Repositories, now Clock) StudentService {
	if now == nil {
		now = SystemClock
	}
	return &studentServiceImpl{repos: repos, now: now}
}

func (s *studentServiceImpl) load(ctx context.Context, id int64) (*dto.StudentResponse, error) {
	student, err := s.repos.Students.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to load student")
	}
	resp := dto.NewStudentResponse(student)
	return &resp, nil
}

// GetMe returns the calling student's profile
func (s *studentServiceImpl) GetMe(ctx context.Context, actor auth.Actor) (*dto.StudentResponse, error) {
	if err := auth.RequireStudent(actor); err != nil {
		return nil, err
	}
	return s.load(ctx, actor.StudentID)
}

// Get returns a profile; students only see their own
func (s *studentServiceImpl) Get(ctx context.Context, actor auth.Actor, id int64) (*dto.StudentResponse, error) {
	if err := auth.CanViewStudent(actor, id); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// UpdateProfile edits the calling student's name, year, interests and GPA
func (s *studentServiceImpl) UpdateProfile(ctx context.Context, actor auth.Actor, req *dto.UpdateStudentProfileRequest) (*dto.StudentResponse, error) {
	if err := auth.RequireStudent(actor); err != nil {
		return nil, err
	}
	if !req.Year.IsValid() {
		return nil, apperrors.NewValidationError("year must be one of: freshman, sophomore, junior, senior, grad")
	}
	if req.GPA < 0 || req.GPA > 4 {
		return nil, apperrors.NewValidationError("gpa must be between 0 and 4")
	}

	student, err := s.repos.Students.GetByID(ctx, actor.StudentID)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to load student")
	}

	student.Name = strings.TrimSpace(req.Name)
	student.Year = req.Year
	student.Interests = normalizeInterests(req.Interests)
	student.GPA = req.GPA
	student.UpdatedAt = s.now()

	if err := s.repos.Students.UpdateProfile(ctx, student); err != nil {
		return nil, apperrors.Internalize(err, "Failed to update student profile")
	}
	return s.load(ctx, student.ID)
}

// UpdateLimit sets a new purchase limit. It may not drop below what is already used.
func (s *studentServiceImpl) UpdateLimit(ctx context.Context, actor auth.Actor, id int64, limit decimal.Decimal) (*dto.StudentResponse, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if limit.IsNegative() {
		return nil, apperrors.NewValidationError("purchaseLimit must not be negative")
	}

	updated, err := s.repos.Students.UpdateLimit(ctx, id, limit, s.now())
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to update purchase limit")
	}
	if !updated {
		student, err := s.repos.Students.GetByID(ctx, id)
		if err != nil {
			return nil, apperrors.Internalize(err, "Failed to load student")
		}
		return nil, apperrors.NewValidationError("purchaseLimit must not be below the used amount of " +
			student.UsedPurchaseAmount.StringFixed(2))
	}

	logger.Info().Int64("studentID", id).Int64("adminID", actor.UserID).Str("limit", limit.StringFixed(2)).Msg("Purchase limit updated")
	return s.load(ctx, id)
}

// ResetUsage zeroes a student's used amount, e.g. at the start of a term
func (s *studentServiceImpl) ResetUsage(ctx context.Context, actor auth.Actor, id int64) (*dto.StudentResponse, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.repos.Students.ResetUsage(ctx, id, s.now()); err != nil {
		return nil, apperrors.Internalize(err, "Failed to reset purchase usage")
	}

	logger.Info().Int64("studentID", id).Int64("adminID", actor.UserID).Msg("Purchase usage reset")
	return s.load(ctx, id)
}

// CompleteCourse records a catalogue course as completed by the calling student
func (s *studentServiceImpl) CompleteCourse(ctx context.Context, actor auth.Actor, courseID int64) (*dto.StudentResponse, error) {
	if err := auth.RequireStudent(actor); err != nil {
		return nil, err
	}
	if _, err := s.repos.Courses.GetByID(ctx, courseID); err != nil {
		return nil, apperrors.Internalize(err, "Failed to load course")
	}
	if err := s.repos.Students.AddCompletedCourse(ctx, actor.StudentID, courseID, s.now()); err != nil {
		return nil, apperrors.Internalize(err, "Failed to record completed course")
	}
	return s.load(ctx, actor.StudentID)
}
