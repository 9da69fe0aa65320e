package services

import (
	"context"

	"github.com/yigit/ebdashboard/internal/app/auth"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/app/models/dto"
	"github.com/yigit/ebdashboard/internal/app/repositories"
	"github.com/yigit/ebdashboard/internal/domain"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
)

const (
	recentTransactionsLimit = 5
	recentUsersLimit        = 5
	spendingTrendMonths     = 12
)

// DashboardService builds the read-only dashboard views
type DashboardService interface {
	Overview(ctx context.Context, actor auth.Actor, period domain.Period) (*dto.DashboardOverviewResponse, error)
	MonthlySpending(ctx context.Context, actor auth.Actor) (*dto.MonthlySpendingResponse, error)
	AdminStats(ctx context.Context, actor auth.Actor) (*dto.AdminStatsResponse, error)
}

type dashboardServiceImpl struct {
	repos *repositories.Repositories
	now   Clock
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(repos *repositories.Repositories, now Clock) DashboardService {
	if now == nil {
		now = SystemClock
	}
	return &dashboardServiceImpl{repos: repos, now: now}
}

// Overview combines the ledger summary, credit usage and request counts of the calling student
func (s *dashboardServiceImpl) Overview(ctx context.Context, actor auth.Actor, period domain.Period) (*dto.DashboardOverviewResponse, error) {
	if err := auth.RequireStudent(actor); err != nil {
		return nil, err
	}

	student, err := s.repos.Students.GetByID(ctx, actor.StudentID)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to load student")
	}

	since := period.Since(s.now())
	periodTxs, err := s.repos.Transactions.ListByStudentSince(ctx, student.ID, since)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to load transactions")
	}
	recent, err := s.repos.Transactions.ListByStudent(ctx, student.ID, recentTransactionsLimit)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to load transactions")
	}
	aggregates, err := s.repos.PurchaseRequests.AggregateByStatus(ctx, student.ID)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to load purchase requests")
	}

	overview := dto.PurchaseOverview{StatusCounts: statusCounts(aggregates)}
	for _, sc := range overview.StatusCounts {
		overview.Total += sc.Count
	}

	return &dto.DashboardOverviewResponse{
		Period:             period,
		TransactionSummary: domain.SummarizeTransactions(periodTxs, since),
		Credit:             domain.NewCreditOverview(student),
		Purchases:          overview,
		RecentTransactions: recent,
	}, nil
}

// MonthlySpending returns the last twelve months of spending, oldest first
func (s *dashboardServiceImpl) MonthlySpending(ctx context.Context, actor auth.Actor) (*dto.MonthlySpendingResponse, error) {
	if err := auth.RequireStudent(actor); err != nil {
		return nil, err
	}

	now := s.now()
	since := now.AddDate(0, -spendingTrendMonths, 0)
	txs, err := s.repos.Transactions.ListByStudentSince(ctx, actor.StudentID, since)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to load transactions")
	}
	return &dto.MonthlySpendingResponse{Months: domain.MonthlySpending(txs, now, spendingTrendMonths)}, nil
}

// AdminStats returns system-wide counts for administrators
func (s *dashboardServiceImpl) AdminStats(ctx context.Context, actor auth.Actor) (*dto.AdminStatsResponse, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}

	resp := &dto.AdminStatsResponse{}
	var err error
	if resp.Users, err = s.repos.Users.Count(ctx); err != nil {
		return nil, apperrors.Internalize(err, "Failed to count users")
	}
	if resp.Students, err = s.repos.Students.Count(ctx); err != nil {
		return nil, apperrors.Internalize(err, "Failed to count students")
	}
	if resp.Transactions, err = s.repos.Transactions.Count(ctx); err != nil {
		return nil, apperrors.Internalize(err, "Failed to count transactions")
	}
	if resp.Farms, err = s.repos.Farms.Count(ctx); err != nil {
		return nil, apperrors.Internalize(err, "Failed to count farms")
	}
	if resp.CarbonCredits, err = s.repos.Credits.Count(ctx); err != nil {
		return nil, apperrors.Internalize(err, "Failed to count carbon credits")
	}
	if resp.RecentUsers, _, err = s.repos.Users.List(ctx, models.UserFilter{Page: 1, PageSize: recentUsersLimit}); err != nil {
		return nil, apperrors.Internalize(err, "Failed to load recent users")
	}
	resp.ServerTime = s.now()

	aggregates, err := s.repos.PurchaseRequests.AggregateByStatus(ctx, 0)
	if err != nil {
		return nil, apperrors.Internalize(err, "Failed to load purchase requests")
	}
	resp.ByStatus = make([]dto.StatusAmount, 0, len(models.AllPurchaseStatuses))
	for _, status := range models.AllPurchaseStatuses {
		agg := aggregates[status]
		resp.ByStatus = append(resp.ByStatus, dto.StatusAmount{Status: status, Count: agg.Count, TotalAmount: agg.TotalAmount})
		resp.PurchaseRequests += agg.Count
	}
	return resp, nil
}
