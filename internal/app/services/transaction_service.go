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
)

// TransactionService exposes a student's ledger
type TransactionService interface {
	List(ctx context.Context, actor auth.Actor, limit int) (*dto.TransactionListResponse, error)
	Create(ctx context.Context, actor auth.Actor, req *dto.CreateTransactionRequest) (*models.Transaction, error)
	Summary(ctx context.Context, actor auth.Actor, period domain.Period) (*dto.TransactionSummaryResponse, error)
}

type transactionServiceImpl struct {
	repos *repositories.Repositories
	now   Clock
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(repos *repositories.Repositories, now Clock) TransactionService {
	if now == nil {
		now = SystemClock
	}
	return &transactionServiceImpl{repos: repos, now: now}
}

// List returns the calling student's entries, newest first
func (s *transactionServiceImpl) List(ctx context.Context, actor auth.Actor, limit int) (*dto.TransactionListResponse, error) {
	if err := auth.RequireStudent(actor); err != nil {
		return nil, err
	}
	txs, err := s.repos.Transactions.ListByStudent(ctx, actor.StudentID, limit)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to list transactions")
	}
	return &dto.TransactionListResponse{Transactions: txs}, nil
}

// Create records a manual income or expense entry. Purchase entries only come from approvals.
func (s *transactionServiceImpl) Create(ctx context.Context, actor auth.Actor, req *dto.CreateTransactionRequest) (*models.Transaction, error) {
	if err := auth.RequireStudent(actor); err != nil {
		return nil, err
	}
	if req.Type != models.TransactionIncome && req.Type != models.TransactionExpense {
		return nil, apperrors.NewValidationError("type must be one of: income, expense")
	}
	if !req.Amount.IsPositive() {
		return nil, apperrors.NewValidationError("amount must be positive")
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = string(req.Type)
	}

	tx := &models.Transaction{
		StudentID:   actor.StudentID,
		Amount:      req.Amount.Round(2),
		Type:        req.Type,
		Category:    category,
		Description: strings.TrimSpace(req.Description),
		Status:      models.TransactionStatusCompleted,
		CreatedAt:   s.now(),
	}
	if err := s.repos.Transactions.Create(ctx, tx); err != nil {
		return nil, apperrors.Internalize(err, "Failed to create transaction")
	}
	return tx, nil
}

// Summary totals the calling student's ledger over the period
func (s *transactionServiceImpl) Summary(ctx context.Context, actor auth.Actor, period domain.Period) (*dto.TransactionSummaryResponse, error) {
	if err := auth.RequireStudent(actor); err != nil {
		return nil, err
	}

	since := period.Since(s.now())
	txs, err := s.repos.Transactions.ListByStudentSince(ctx, actor.StudentID, since)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to summarise transactions")
	}
	return &dto.TransactionSummaryResponse{
		Period:  period,
		Summary: domain.SummarizeTransactions(txs, since),
	}, nil
}
