package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/app/repositories"
	"github.com/yigit/ebdashboard/internal/domain"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
	"github.com/yigit/ebdashboard/internal/pkg/metrics"
)

// reconcileBatchSize bounds how many orphaned approvals one pass repairs
const reconcileBatchSize = 100

// ReconciliationService repairs approved requests whose ledger entry is missing
type ReconciliationService interface {
	Run(ctx context.Context) (int, error)
}

type reconciliationServiceImpl struct {
	repos  *repositories.Repositories
	tx     repositories.TxManager
	logger zerolog.Logger
	now    Clock
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(repos *repositories.Repositories, tx repositories.TxManager, logger zerolog.Logger, now Clock) ReconciliationService {
	if now == nil {
		now = SystemClock
	}
	return &reconciliationServiceImpl{repos: repos, tx: tx, logger: logger, now: now}
}

// Run writes the missing purchase transaction for each orphaned approval and returns how many it repaired.
// Student counters are not touched; a repaired request is logged so an operator can review them.
func (s *reconciliationServiceImpl) Run(ctx context.Context) (int, error) {
	orphans, err := s.repos.PurchaseRequests.ListApprovedWithoutTransaction(ctx, reconcileBatchSize)
	if err != nil {
		metrics.RecordReconcile(0, false)
		return 0, apperrors.Internalize(err, "Failed to scan approved purchase requests")
	}

	repaired := 0
	for i := range orphans {
		if err := ctx.Err(); err != nil {
			metrics.RecordReconcile(repaired, false)
			return repaired, err
		}

		request := orphans[i]
		err := s.tx.WithinTx(ctx, func(ctx context.Context, repos *repositories.Repositories) error {
			return repos.Transactions.Create(ctx, s.ledgerEntry(&request))
		})
		if errors.Is(err, apperrors.ErrConflict) {
			// another pass or a late approval wrote it first
			continue
		}
		if err != nil {
			metrics.RecordReconcile(repaired, false)
			return repaired, apperrors.Internalize(err, "Failed to repair purchase transaction")
		}

		repaired++
		s.logger.Warn().
			Int64("requestID", request.ID).
			Int64("studentID", request.StudentID).
			Str("total", request.TotalAmount.StringFixed(2)).
			Msg("Recorded missing purchase transaction; review student counters")
	}

	metrics.RecordReconcile(repaired, true)
	if repaired > 0 || len(orphans) > 0 {
		s.logger.Info().Int("found", len(orphans)).Int("repaired", repaired).Msg("Reconciliation pass finished")
	}
	return repaired, nil
}

func (s *reconciliationServiceImpl) ledgerEntry(request *models.PurchaseRequest) *models.Transaction {
	createdAt := s.now()
	if request.ReviewedAt != nil {
		createdAt = *request.ReviewedAt
	}
	requestID := request.ID
	return &models.Transaction{
		StudentID:   request.StudentID,
		Amount:      request.TotalAmount,
		Type:        models.TransactionPurchase,
		Category:    "purchase",
		Description: domain.ApprovalDescription(request.Items),
		Status:      models.TransactionStatusCompleted,
		Reference:   domain.RequestReference(request.ID),
		RequestID:   &requestID,
		CreatedAt:   createdAt,
	}
}
