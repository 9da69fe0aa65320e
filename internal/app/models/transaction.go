package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry
type TransactionType string

const (
	TransactionPurchase TransactionType = "purchase"
	TransactionIncome   TransactionType = "income"
	TransactionExpense  TransactionType = "expense"
)

// TransactionStatusCompleted is the only status the ledger records
const TransactionStatusCompleted = "completed"

// Transaction is an immutable ledger entry based on the 'transactions' table
type Transaction struct {
	ID          int64           `json:"id" db:"id"`
	StudentID   int64           `json:"studentId" db:"student_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Type        TransactionType `json:"type" db:"type"`
	Category    string          `json:"category" db:"category"`
	Description string          `json:"description" db:"description"`
	Status      string          `json:"status" db:"status"`
	Reference   string          `json:"reference" db:"reference"`
	RequestID   *int64          `json:"requestId,omitempty" db:"request_id"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}
