package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/yigit/ebdashboard/internal/app/auth"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/app/models/dto"
	"github.com/yigit/ebdashboard/internal/app/repositories"
	"github.com/yigit/ebdashboard/internal/domain"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
	"github.com/yigit/ebdashboard/internal/pkg/helpers"
	"github.com/yigit/ebdashboard/internal/pkg/logger"
)

// FarmService manages the partner farm registry
type FarmService interface {
	Register(ctx context.Context, actor auth.Actor, req *dto.RegisterFarmRequest) (*models.Farm, error)
	List(ctx context.Context, filter models.FarmFilter) (*dto.FarmListResponse, error)
	Get(ctx context.Context, code string) (*models.Farm, error)
	UpdateStatus(ctx context.Context, actor auth.Actor, code string, status models.FarmStatus) (*models.Farm, error)
	Delete(ctx context.Context, actor auth.Actor, code string) error
}

type farmServiceImpl struct {
	repos *repositories.Repositories
	now   Clock
}

// NewFarmService creates a new FarmService
func NewFarmService(repos *repositories.Repositories, now Clock) FarmService {
	if now == nil {
		now = SystemClock
	}
	return &farmServiceImpl{repos: repos, now: now}
}

// Register adds a farm pending verification, linked to the calling account
func (s *farmServiceImpl) Register(ctx context.Context, actor auth.Actor, req *dto.RegisterFarmRequest) (*models.Farm, error) {
	if req.Latitude == nil || req.Longitude == nil {
		return nil, apperrors.NewValidationError("latitude and longitude are required")
	}
	if err := domain.ValidateCoordinates(*req.Latitude, *req.Longitude); err != nil {
		return nil, err
	}
	if err := domain.ValidateFarmSize(req.FarmSize); err != nil {
		return nil, err
	}
	if !req.FarmType.IsValid() {
		return nil, apperrors.NewValidationError("Unknown farm type: " + string(req.FarmType))
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.repos.Farms.EmailExists(ctx, email)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to check farm email")
	}
	if exists {
		return nil, apperrors.NewConflictError(apperrors.ErrConflict, "A farm with this email is already registered")
	}

	now := s.now()
	farm := &models.Farm{
		FarmCode:         domain.NewFarmCode(now, uuid.NewString()),
		FarmName:         strings.TrimSpace(req.FarmName),
		FarmerName:       strings.TrimSpace(req.FarmerName),
		Email:            email,
		Phone:            strings.TrimSpace(req.Phone),
		FarmSize:         req.FarmSize,
		FarmType:         req.FarmType,
		Address:          strings.TrimSpace(req.Address),
		Latitude:         *req.Latitude,
		Longitude:        *req.Longitude,
		Status:           models.FarmStatusPendingVerification,
		RegistrationDate: now,
	}
	if actor.UserID > 0 {
		userID := actor.UserID
		farm.UserID = &userID
	}
	if farm.FarmName == "" || farm.FarmerName == "" {
		return nil, apperrors.NewValidationError("farmName and farmerName are required")
	}

	if err := s.repos.Farms.Create(ctx, farm); err != nil {
		return nil, apperrors.Internalize(err, "Failed to register farm")
	}
	logger.Info().Str("farmCode", farm.FarmCode).Str("farmType", string(farm.FarmType)).Msg("Farm registered")
	return farm, nil
}

// List returns a filtered page of farms
func (s *farmServiceImpl) List(ctx context.Context, filter models.FarmFilter) (*dto.FarmListResponse, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperrors.NewValidationError("Unknown status filter: " + string(filter.Status))
	}
	if filter.FarmType != "" && !filter.FarmType.IsValid() {
		return nil, apperrors.NewValidationError("Unknown farm type filter: " + string(filter.FarmType))
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	farms, total, err := s.repos.Farms.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to list farms")
	}
	return &dto.FarmListResponse{
		Farms:      farms,
		Pagination: helpers.NewPaginationInfo(total, filter.Page, filter.PageSize),
	}, nil
}

func (s *farmServiceImpl) Get(ctx context.Context, code string) (*models.Farm, error) {
	farm, err := s.repos.Farms.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to load farm")
	}
	return farm, nil
}

// UpdateStatus sets a farm's verification status. Administrators only.
func (s *farmServiceImpl) UpdateStatus(ctx context.Context, actor auth.Actor, code string, status models.FarmStatus) (*models.Farm, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, apperrors.NewValidationError("Invalid status")
	}

	farm, err := s.repos.Farms.UpdateStatus(ctx, strings.TrimSpace(code), status, s.now())
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to update farm status")
	}
	logger.Info().Str("farmCode", farm.FarmCode).Str("status", string(status)).Int64("adminID", actor.UserID).Msg("Farm status updated")
	return farm, nil
}

// Delete removes a farm without credits. Administrators only.
func (s *farmServiceImpl) Delete(ctx context.Context, actor auth.Actor, code string) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	if err := s.repos.Farms.Delete(ctx, strings.TrimSpace(code)); err != nil {
		return apperrors.Internalize(err, "Failed to delete farm")
	}
	logger.Info().Str("farmCode", code).Int64("adminID", actor.UserID).Msg("Farm deleted")
	return nil
}
