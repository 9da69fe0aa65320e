package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/domain"
)

// PurchaseOverview counts one student's requests per status
type PurchaseOverview struct {
	StatusCounts []StatusCount `json:"statusCounts"`
	Total        int64         `json:"total"`
}

// DashboardOverviewResponse is the student dashboard landing view
type DashboardOverviewResponse struct {
	Period             domain.Period             `json:"period"`
	TransactionSummary domain.TransactionSummary `json:"transactionSummary"`
	Credit             domain.CreditOverview     `json:"credit"`
	Purchases          PurchaseOverview          `json:"purchases"`
	RecentTransactions []models.Transaction      `json:"recentTransactions"`
}

// MonthlySpendingResponse is the spending trend, oldest month first
type MonthlySpendingResponse struct {
	Months []domain.MonthlyAmount `json:"months"`
}

// StatusAmount is the count and total of requests in one status
type StatusAmount struct {
	Status      models.PurchaseStatus `json:"status"`
	Count       int64                 `json:"count"`
	TotalAmount decimal.Decimal       `json:"totalAmount"`
}

// AdminStatsResponse is the system-wide overview for administrators
type AdminStatsResponse struct {
	Users            int64          `json:"users"`
	Students         int64          `json:"students"`
	PurchaseRequests int64          `json:"purchaseRequests"`
	Transactions     int64          `json:"transactions"`
	Farms            int64          `json:"farms"`
	CarbonCredits    int64          `json:"carbonCredits"`
	ByStatus         []StatusAmount `json:"byStatus"`
	RecentUsers      []models.User  `json:"recentUsers"`
	ServerTime       time.Time      `json:"serverTime"`
}
