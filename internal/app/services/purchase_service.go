package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yigit/ebdashboard/internal/app/auth"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/app/models/dto"
	"github.com/yigit/ebdashboard/internal/app/repositories"
	"github.com/yigit/ebdashboard/internal/domain"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
	"github.com/yigit/ebdashboard/internal/pkg/email"
	"github.com/yigit/ebdashboard/internal/pkg/helpers"
	"github.com/yigit/ebdashboard/internal/pkg/logger"
	"github.com/yigit/ebdashboard/internal/pkg/metrics"
)

// errLimitGuard marks an approval whose guarded counter update matched no row
var errLimitGuard = errors.New("approval exceeds purchase limit")

// PurchaseService defines the purchase request lifecycle
type PurchaseService interface {
	Create(ctx context.Context, actor auth.Actor, req *dto.CreatePurchaseRequestRequest) (*models.PurchaseRequest, error)
	List(ctx context.Context, filter models.PurchaseRequestFilter) (*dto.PurchaseRequestListResponse, error)
	ListMine(ctx context.Context, actor auth.Actor, status models.PurchaseStatus, page, size int) (*dto.PurchaseRequestListResponse, error)
	Get(ctx context.Context, actor auth.Actor, id int64) (*models.PurchaseRequest, error)
	Approve(ctx context.Context, actor auth.Actor, id int64) (*models.PurchaseRequest, error)
	Reject(ctx context.Context, actor auth.Actor, id int64, reason string) (*models.PurchaseRequest, error)
	Cancel(ctx context.Context, actor auth.Actor, id int64) (*models.PurchaseRequest, error)
	Stats(ctx context.Context) (*dto.PurchaseStatsResponse, error)
}

type purchaseServiceImpl struct {
	repos       *repositories.Repositories
	tx          repositories.TxManager
	mailer      email.EmailService
	statsWindow time.Duration
	now         Clock
}

// NewPurchaseService creates a new PurchaseService. mailer may be nil.
func NewPurchaseService(
	repos *repositories.Repositories,
	tx repositories.TxManager,
	mailer email.EmailService,
	statsWindow time.Duration,
	now Clock,
) PurchaseService {
	if now == nil {
		now = SystemClock
	}
	if statsWindow <= 0 {
		statsWindow = DefaultStatsWindow
	}
	return &purchaseServiceImpl{
		repos:       repos,
		tx:          tx,
		mailer:      mailer,
		statsWindow: statsWindow,
		now:         now,
	}
}

// Create validates and submits a new pending request for the calling student
func (s *purchaseServiceImpl) Create(ctx context.Context, actor auth.Actor, req *dto.CreatePurchaseRequestRequest) (*models.PurchaseRequest, error) {
	if err := auth.RequireStudent(actor); err != nil {
		return nil, err
	}

	items := req.ToItems()
	if err := domain.ValidateItems(items); err != nil {
		return nil, err
	}
	if req.CompanyID <= 0 {
		return nil, apperrors.NewValidationError("companyId must be a positive id")
	}

	student, err := s.repos.Students.GetByID(ctx, actor.StudentID)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to load student")
	}

	total := domain.TotalAmount(items)
	if !domain.CanAfford(student, total) {
		metrics.RecordLimitRejection()
		return nil, apperrors.NewLimitExceededError(domain.AvailableAmount(student), total)
	}

	now := s.now()
	request := &models.PurchaseRequest{
		StudentID:   student.ID,
		CompanyID:   req.CompanyID,
		Items:       items,
		TotalAmount: total,
		Status:      models.StatusPending,
		Notes:       strings.TrimSpace(req.Notes),
		RequestedAt: now,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos *repositories.Repositories) error {
		if err := repos.PurchaseRequests.Create(ctx, request); err != nil {
			return err
		}
		return repos.Students.IncrementRequestCount(ctx, student.ID, now)
	})
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to create purchase request")
	}

	logger.Info().
		Int64("requestID", request.ID).
		Int64("studentID", student.ID).
		Str("total", total.StringFixed(2)).
		Msg("Purchase request created")
	return request, nil
}

// List returns a filtered page of requests for reviewers
func (s *purchaseServiceImpl) List(ctx context.Context, filter models.PurchaseRequestFilter) (*dto.PurchaseRequestListResponse, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperrors.NewValidationError("Unknown status filter: " + string(filter.Status))
	}

	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	requests, total, err := s.repos.PurchaseRequests.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to list purchase requests")
	}

	return &dto.PurchaseRequestListResponse{
		Requests:   requests,
		Pagination: helpers.NewPaginationInfo(total, filter.Page, filter.PageSize),
	}, nil
}

// ListMine returns the calling student's own requests, newest first
func (s *purchaseServiceImpl) ListMine(ctx context.Context, actor auth.Actor, status models.PurchaseStatus, page, size int) (*dto.PurchaseRequestListResponse, error) {
	if err := auth.RequireStudent(actor); err != nil {
		return nil, err
	}
	return s.List(ctx, models.PurchaseRequestFilter{
		Status:    status,
		StudentID: actor.StudentID,
		Page:      page,
		PageSize:  size,
	})
}

// Get returns one request; students may only see their own
func (s *purchaseServiceImpl) Get(ctx context.Context, actor auth.Actor, id int64) (*models.PurchaseRequest, error) {
	request, err := s.repos.PurchaseRequests.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to load purchase request")
	}
	if err := auth.CanViewRequest(actor, request); err != nil {
		return nil, err
	}
	return request, nil
}

// Approve moves a pending request to approved, charges the student's limit and
// writes the ledger entry, all in one unit of work.
func (s *purchaseServiceImpl) Approve(ctx context.Context, actor auth.Actor, id int64) (*models.PurchaseRequest, error) {
	if err := auth.RequireReviewer(actor); err != nil {
		return nil, err
	}

	now := s.now()
	reviewer := actor.UserID
	var approved *models.PurchaseRequest

	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos *repositories.Repositories) error {
		request, err := repos.PurchaseRequests.Transition(ctx, models.StatusTransition{
			RequestID:  id,
			To:         models.StatusApproved,
			ReviewedBy: &reviewer,
			At:         now,
		})
		if err != nil {
			return transitionError(err, domain.AlreadyInStateMessage)
		}

		applied, err := repos.Students.ApplyApprovedPurchase(ctx, request.StudentID, request.TotalAmount, now)
		if err != nil {
			return err
		}
		if !applied {
			approved = request
			return errLimitGuard
		}

		requestID := request.ID
		entry := &models.Transaction{
			StudentID:   request.StudentID,
			Amount:      request.TotalAmount,
			Type:        models.TransactionPurchase,
			Category:    "purchase",
			Description: domain.ApprovalDescription(request.Items),
			Status:      models.TransactionStatusCompleted,
			Reference:   domain.RequestReference(request.ID),
			RequestID:   &requestID,
			CreatedAt:   now,
		}
		if err := repos.Transactions.Create(ctx, entry); err != nil {
			return err
		}

		approved = request
		return nil
	})

	if errors.Is(err, errLimitGuard) {
		metrics.RecordLimitRejection()
		metrics.RecordTransition(string(models.StatusApproved), "limit_exceeded")
		return nil, s.limitExceeded(ctx, approved)
	}
	if err != nil {
		metrics.RecordTransition(string(models.StatusApproved), outcome(err))
		return nil, apperrors.Internalize(err, "Failed to approve purchase request")
	}

	metrics.RecordTransition(string(models.StatusApproved), "ok")
	logger.Info().
		Int64("requestID", approved.ID).
		Int64("studentID", approved.StudentID).
		Int64("reviewerID", reviewer).
		Str("total", approved.TotalAmount.StringFixed(2)).
		Msg("Purchase request approved")

	s.notify(ctx, approved)
	return approved, nil
}

// limitExceeded reads the student after rollback so the error reports current figures
func (s *purchaseServiceImpl) limitExceeded(ctx context.Context, request *models.PurchaseRequest) error {
	student, err := s.repos.Students.GetByID(ctx, request.StudentID)
	if err != nil {
		return apperrors.Internalize(err, "Failed to load student")
	}
	return apperrors.NewLimitExceededError(domain.AvailableAmount(student), request.TotalAmount)
}

// Reject moves a pending request to rejected with a mandatory reason
func (s *purchaseServiceImpl) Reject(ctx context.Context, actor auth.Actor, id int64, reason string) (*models.PurchaseRequest, error) {
	if err := auth.RequireReviewer(actor); err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("Rejection reason is required")
	}

	reviewer := actor.UserID
	request, err := s.repos.PurchaseRequests.Transition(ctx, models.StatusTransition{
		RequestID:          id,
		To:                 models.StatusRejected,
		ReviewedBy:         &reviewer,
		ReasonForRejection: &reason,
		At:                 s.now(),
	})
	if err != nil {
		err = transitionError(err, domain.AlreadyInStateMessage)
		metrics.RecordTransition(string(models.StatusRejected), outcome(err))
		return nil, err
	}

	metrics.RecordTransition(string(models.StatusRejected), "ok")
	logger.Info().Int64("requestID", request.ID).Int64("reviewerID", reviewer).Msg("Purchase request rejected")

	s.notify(ctx, request)
	return request, nil
}

// Cancel lets the owning student withdraw a pending request
func (s *purchaseServiceImpl) Cancel(ctx context.Context, actor auth.Actor, id int64) (*models.PurchaseRequest, error) {
	existing, err := s.repos.PurchaseRequests.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to load purchase request")
	}
	if err := auth.CanCancelRequest(actor, existing); err != nil {
		return nil, err
	}

	request, err := s.repos.PurchaseRequests.Transition(ctx, models.StatusTransition{
		RequestID: id,
		To:        models.StatusCancelled,
		At:        s.now(),
	})
	if err != nil {
		err = transitionError(err, domain.CannotCancelMessage)
		metrics.RecordTransition(string(models.StatusCancelled), outcome(err))
		return nil, err
	}

	metrics.RecordTransition(string(models.StatusCancelled), "ok")
	logger.Info().Int64("requestID", request.ID).Int64("studentID", actor.StudentID).Msg("Purchase request cancelled")
	return request, nil
}

// Stats summarises requests across all students
func (s *purchaseServiceImpl) Stats(ctx context.Context) (*dto.PurchaseStatsResponse, error) {
	aggregates, err := s.repos.PurchaseRequests.AggregateByStatus(ctx, 0)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to load purchase statistics")
	}

	recent, err := s.repos.PurchaseRequests.CountApprovedSince(ctx, s.now().Add(-s.statsWindow))
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to load purchase statistics")
	}

	return &dto.PurchaseStatsResponse{
		StatusCounts:        statusCounts(aggregates),
		TotalApprovedAmount: aggregates[models.StatusApproved].TotalAmount,
		RecentApprovedCount: recent,
		PendingCount:        aggregates[models.StatusPending].Count,
	}, nil
}

// notify emails the student about a review decision. Failures are logged only.
func (s *purchaseServiceImpl) notify(ctx context.Context, request *models.PurchaseRequest) {
	if s.mailer == nil {
		return
	}

	student, err := s.repos.Students.GetByID(ctx, request.StudentID)
	if err != nil {
		logger.Warn().Err(err).Int64("requestID", request.ID).Msg("Could not load student for notification")
		return
	}

	names := make([]string, 0, len(request.Items))
	for _, item := range request.Items {
		names = append(names, item.Name)
	}
	msg := email.PurchaseMessage{
		Reference: domain.RequestReference(request.ID),
		Items:     names,
		Total:     request.TotalAmount.StringFixed(2),
		Available: domain.AvailableAmount(student).StringFixed(2),
	}

	switch request.Status {
	case models.StatusApproved:
		err = s.mailer.SendPurchaseApprovedEmail(student.Email, student.Name, msg)
	case models.StatusRejected:
		if request.ReasonForRejection != nil {
			msg.Reason = *request.ReasonForRejection
		}
		err = s.mailer.SendPurchaseRejectedEmail(student.Email, student.Name, msg)
	default:
		return
	}
	if err != nil {
		logger.Warn().Err(err).Int64("requestID", request.ID).Str("status", string(request.Status)).Msg("Failed to send purchase notification")
	}
}

// transitionError maps a lost compare-and-set to InvalidState carrying the stored status
func transitionError(err error, message func(models.PurchaseStatus) string) error {
	var conflict *repositories.TransitionConflictError
	if errors.As(err, &conflict) {
		return apperrors.NewInvalidStateError(message(conflict.Current), string(conflict.Current))
	}
	return apperrors.Internalize(err, "Failed to update purchase request")
}

// outcome labels a failed transition for metrics
func outcome(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrLimitExceeded):
		return "limit_exceeded"
	default:
		return "error"
	}
}

func statusCounts(aggregates map[models.PurchaseStatus]models.StatusAggregate) []dto.StatusCount {
	counts := make([]dto.StatusCount, 0, len(models.AllPurchaseStatuses))
	for _, status := range models.AllPurchaseStatuses {
		counts = append(counts, dto.StatusCount{Status: status, Count: aggregates[status].Count})
	}
	return counts
}
