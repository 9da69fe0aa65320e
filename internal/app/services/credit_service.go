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
	"github.com/yigit/ebdashboard/internal/pkg/helpers"
	"github.com/yigit/ebdashboard/internal/pkg/logger"
	"github.com/yigit/ebdashboard/internal/pkg/metrics"
)

// CreditService issues carbon credits to partner farms and tracks their lifecycle
type CreditService interface {
	Generate(ctx context.Context, actor auth.Actor, req *dto.GenerateCreditsRequest) (*models.CarbonCredit, error)
	List(ctx context.Context, filter models.CreditFilter) (*dto.CreditListResponse, error)
	Get(ctx context.Context, id int64) (*models.CarbonCredit, error)
	UpdateStatus(ctx context.Context, actor auth.Actor, id int64, req *dto.UpdateCreditStatusRequest) (*models.CarbonCredit, error)
}

type creditServiceImpl struct {
	repos *repositories.Repositories
	now   Clock
}

// NewCreditService creates a new CreditService
func NewCreditService(repos *repositories.Repositories, now Clock) CreditService {
	if now == nil {
		now = SystemClock
	}
	return &creditServiceImpl{repos: repos, now: now}
}

// Generate records a pending credit for the reduction below the farm's baseline.
// A farm that emitted more than its baseline gets a zero-tonne record.
func (s *creditServiceImpl) Generate(ctx context.Context, actor auth.Actor, req *dto.GenerateCreditsRequest) (*models.CarbonCredit, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if err := domain.ValidateEmission("baselineEmission", req.BaselineEmission); err != nil {
		return nil, err
	}
	if err := domain.ValidateEmission("actualEmission", req.ActualEmission); err != nil {
		return nil, err
	}

	farm, err := s.repos.Farms.GetByCode(ctx, strings.TrimSpace(req.FarmID))
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to load farm")
	}
	if farm.Status != models.FarmStatusActive {
		return nil, apperrors.NewInvalidStateError("Credits can only be generated for active farms", string(farm.Status))
	}

	credit := &models.CarbonCredit{
		FarmCode:         farm.FarmCode,
		BaselineEmission: req.BaselineEmission,
		ActualEmission:   req.ActualEmission,
		CreditsGenerated: domain.CreditsGenerated(req.BaselineEmission, req.ActualEmission),
		Status:           models.CreditStatusPending,
		CreatedAt:        s.now(),
	}
	if err := s.repos.Credits.Create(ctx, credit); err != nil {
		return nil, apperrors.Internalize(err, "Failed to generate carbon credits")
	}

	tonnes, _ := credit.CreditsGenerated.Float64()
	metrics.RecordCreditsGenerated(tonnes)
	logger.Info().
		Int64("creditID", credit.ID).
		Str("farmCode", credit.FarmCode).
		Str("credits", credit.CreditsGenerated.StringFixed(2)).
		Msg("Carbon credits generated")
	return credit, nil
}

// List returns a filtered page of credits
func (s *creditServiceImpl) List(ctx context.Context, filter models.CreditFilter) (*dto.CreditListResponse, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperrors.NewValidationError("Unknown status filter: " + string(filter.Status))
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	credits, total, err := s.repos.Credits.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to list carbon credits")
	}
	return &dto.CreditListResponse{
		Credits:    credits,
		Pagination: helpers.NewPaginationInfo(total, filter.Page, filter.PageSize),
	}, nil
}

func (s *creditServiceImpl) Get(ctx context.Context, id int64) (*models.CarbonCredit, error) {
	credit, err := s.repos.Credits.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to load carbon credit")
	}
	return credit, nil
}

// UpdateStatus moves a credit one step forward: pending to verified, verified to sold
func (s *creditServiceImpl) UpdateStatus(ctx context.Context, actor auth.Actor, id int64, req *dto.UpdateCreditStatusRequest) (*models.CarbonCredit, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if !req.Status.IsValid() || req.Status == models.CreditStatusPending {
		return nil, apperrors.NewValidationError("Invalid status")
	}
	soldTo := strings.TrimSpace(req.SoldTo)
	if req.Status == models.CreditStatusSold && soldTo == "" {
		return nil, apperrors.NewValidationError("soldTo is required when selling credits")
	}

	current, err := s.repos.Credits.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to load carbon credit")
	}
	if next, ok := domain.NextCreditStatus(current.Status); !ok || next != req.Status {
		return nil, repositories.CreditConflict(current.Status)
	}

	credit, err := s.repos.Credits.Transition(ctx, models.CreditTransition{
		CreditID: id,
		From:     current.Status,
		To:       req.Status,
		SoldTo:   soldTo,
		At:       s.now(),
	})
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to update carbon credit")
	}

	metrics.RecordCreditTransition(string(req.Status))
	logger.Info().
		Int64("creditID", id).
		Str("from", string(current.Status)).
		Str("to", string(req.Status)).
		Int64("adminID", actor.UserID).
		Msg("Carbon credit status updated")
	return credit, nil
}
