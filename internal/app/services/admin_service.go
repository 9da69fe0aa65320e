package services

import (
	"context"

	"github.com/yigit/ebdashboard/internal/app/auth"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/app/models/dto"
	"github.com/yigit/ebdashboard/internal/app/repositories"
	"github.com/yigit/ebdashboard/internal/domain"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
	"github.com/yigit/ebdashboard/internal/pkg/helpers"
	"github.com/yigit/ebdashboard/internal/pkg/logger"
)

const activitySourceLimit = 10

// AdminService covers account management and the activity feed. Every
// operation requires the admin role.
type AdminService interface {
	ListUsers(ctx context.Context, actor auth.Actor, filter models.UserFilter) (*dto.UserListResponse, error)
	GetUser(ctx context.Context, actor auth.Actor, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, actor auth.Actor, id int64, req *dto.UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, actor auth.Actor, id int64) error
	ListStudents(ctx context.Context, actor auth.Actor, page, size int) (*dto.StudentListResponse, error)
	Activity(ctx context.Context, actor auth.Actor) (*dto.ActivityResponse, error)
}

type adminServiceImpl struct {
	repos *repositories.Repositories
	now   Clock
}

// NewAdminService creates a new AdminService
func NewAdminService(repos *repositories.Repositories, now Clock) AdminService {
	if now == nil {
		now = SystemClock
	}
	return &adminServiceImpl{repos: repos, now: now}
}

func (s *adminServiceImpl) ListUsers(ctx context.Context, actor auth.Actor, filter models.UserFilter) (*dto.UserListResponse, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if filter.Role != "" && !filter.Role.IsValid() {
		return nil, apperrors.NewValidationError("Unknown role filter: " + string(filter.Role))
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	users, total, err := s.repos.Users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to list users")
	}
	return &dto.UserListResponse{
		Users:      users,
		Pagination: helpers.NewPaginationInfo(total, filter.Page, filter.PageSize),
	}, nil
}

func (s *adminServiceImpl) GetUser(ctx context.Context, actor auth.Actor, id int64) (*models.User, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.repos.Users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to load user")
	}
	return user, nil
}

// UpdateUser changes role and active flag. Accounts cannot be moved into or
// out of the student role because that role is tied to a student profile.
func (s *adminServiceImpl) UpdateUser(ctx context.Context, actor auth.Actor, id int64, req *dto.UpdateUserRequest) (*models.User, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if req.Role == nil && req.IsActive == nil {
		return nil, apperrors.NewValidationError("Nothing to update")
	}
	if req.Role != nil && !req.Role.IsValid() {
		return nil, apperrors.NewValidationError("Unknown role: " + string(*req.Role))
	}
	if id == actor.UserID {
		if req.IsActive != nil && !*req.IsActive {
			return nil, apperrors.NewValidationError("You cannot deactivate your own account")
		}
		if req.Role != nil && *req.Role != models.RoleAdmin {
			return nil, apperrors.NewValidationError("You cannot remove your own admin role")
		}
	}

	user, err := s.repos.Users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to load user")
	}
	if req.Role != nil && *req.Role != user.Role &&
		(user.Role == models.RoleStudent || *req.Role == models.RoleStudent) {
		return nil, apperrors.NewValidationError("Student accounts cannot change role")
	}

	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedAt = s.now()
	if err := s.repos.Users.Update(ctx, user); err != nil {
		return nil, apperrors.Internalize(err, "Failed to update user")
	}

	logger.Info().
		Int64("userID", user.ID).
		Str("role", string(user.Role)).
		Bool("isActive", user.IsActive).
		Int64("adminID", actor.UserID).
		Msg("User updated")
	return user, nil
}

func (s *adminServiceImpl) DeleteUser(ctx context.Context, actor auth.Actor, id int64) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	if id == actor.UserID {
		return apperrors.NewValidationError("You cannot delete your own account")
	}
	if err := s.repos.Users.Delete(ctx, id); err != nil {
		return apperrors.Internalize(err, "Failed to delete user")
	}
	logger.Info().Int64("userID", id).Int64("adminID", actor.UserID).Msg("User deleted")
	return nil
}

func (s *adminServiceImpl) ListStudents(ctx context.Context, actor auth.Actor, page, size int) (*dto.StudentListResponse, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	page, size = normalizePage(page, size)

	students, total, err := s.repos.Students.List(ctx, page, size)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to list students")
	}
	resp := &dto.StudentListResponse{
		Students:   make([]dto.StudentResponse, 0, len(students)),
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}
	for i := range students {
		resp.Students = append(resp.Students, dto.NewStudentResponse(&students[i]))
	}
	return resp, nil
}

// Activity merges the latest purchase requests and ledger entries into one feed, newest first
func (s *adminServiceImpl) Activity(ctx context.Context, actor auth.Actor) (*dto.ActivityResponse, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}

	requests, _, err := s.repos.PurchaseRequests.List(ctx, models.PurchaseRequestFilter{Page: 1, PageSize: activitySourceLimit})
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to load purchase requests")
	}
	txs, err := s.repos.Transactions.ListRecent(ctx, activitySourceLimit)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to load transactions")
	}

	names := map[int64]string{}
	nameOf := func(studentID int64) string {
		if name, ok := names[studentID]; ok {
			return name
		}
		name := ""
		if student, err := s.repos.Students.GetByID(ctx, studentID); err == nil {
			name = student.Name
		} else if !apperrors.IsNotFound(err) {
			logger.Warn().Err(err).Int64("studentID", studentID).Msg("Failed to resolve student name for activity feed")
		}
		names[studentID] = name
		return name
	}

	events := make([]domain.ActivityEvent, 0, len(requests)+len(txs))
	for _, pr := range requests {
		events = append(events, domain.PurchaseActivity(pr, nameOf(pr.StudentID)))
	}
	for _, t := range txs {
		events = append(events, domain.TransactionActivity(t, nameOf(t.StudentID)))
	}
	return &dto.ActivityResponse{Activity: domain.MergeActivity(events, domain.ActivityLimit)}, nil
}
