package dto

import (
	"github.com/shopspring/decimal"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/domain"
)

// CreateTransactionRequest records a manual ledger entry
type CreateTransactionRequest struct {
	Amount      decimal.Decimal        `json:"amount" swaggertype:"number" example:"25.00"`
	Type        models.TransactionType `json:"type" binding:"required,oneof=income expense"`
	Category    string                 `json:"category" binding:"max=50"`
	Description string                 `json:"description" binding:"max=500"`
}

// TransactionListResponse lists a student's ledger, newest first
type TransactionListResponse struct {
	Transactions []models.Transaction `json:"transactions"`
}

// TransactionSummaryResponse totals the ledger over a period
type TransactionSummaryResponse struct {
	Period  domain.Period             `json:"period"`
	Summary domain.TransactionSummary `json:"summary"`
}
