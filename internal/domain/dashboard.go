package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yigit/ebdashboard/internal/app/models"
)

// Period selects the window of a transaction summary
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod maps a query value to a Period, defaulting to month
func ParsePeriod(raw string) Period {
	switch Period(raw) {
	case PeriodWeek, PeriodYear:
		return Period(raw)
	}
	return PeriodMonth
}

// Since returns the start of the period ending at now
func (p Period) Since(now time.Time) time.Time {
	switch p {
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodYear:
		return now.AddDate(-1, 0, 0)
	}
	return now.AddDate(0, -1, 0)
}

// TransactionSummary totals ledger entries by direction
type TransactionSummary struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
	Count   int             `json:"count"`
}

// SummarizeTransactions folds entries created at or after since.
// Purchases count as expense.
func SummarizeTransactions(txs []models.Transaction, since time.Time) TransactionSummary {
	summary := TransactionSummary{Income: decimal.Zero, Expense: decimal.Zero}
	for _, tx := range txs {
		if tx.CreatedAt.Before(since) {
			continue
		}
		summary.Count++
		if tx.Type == models.TransactionIncome {
			summary.Income = summary.Income.Add(tx.Amount)
		} else {
			summary.Expense = summary.Expense.Add(tx.Amount)
		}
	}
	summary.Net = summary.Income.Sub(summary.Expense)
	return summary
}

// CreditOverview describes how much of the purchase limit is used
type CreditOverview struct {
	Limit          decimal.Decimal `json:"limit"`
	Used           decimal.Decimal `json:"used"`
	Available      decimal.Decimal `json:"available"`
	PercentageUsed float64         `json:"percentageUsed"`
}

// NewCreditOverview derives the credit overview from a student's counters
func NewCreditOverview(student *models.Student) CreditOverview {
	overview := CreditOverview{
		Limit:     student.PurchaseLimit,
		Used:      student.UsedPurchaseAmount,
		Available: AvailableAmount(student),
	}
	if student.PurchaseLimit.IsPositive() {
		pct, _ := student.UsedPurchaseAmount.Div(student.PurchaseLimit).Mul(decimal.NewFromInt(100)).Round(2).Float64()
		overview.PercentageUsed = pct
	}
	return overview
}

// MonthlyAmount is the spending of one calendar month
type MonthlyAmount struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

// MonthlySpending buckets expense and purchase entries into the last `months`
// calendar months ending with the month of now, oldest first. Empty months are zero.
func MonthlySpending(txs []models.Transaction, now time.Time, months int) []MonthlyAmount {
	if months <= 0 {
		return nil
	}
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(months - 1), 0)

	buckets := make([]MonthlyAmount, months)
	index := make(map[string]int, months)
	for i := 0; i < months; i++ {
		key := monthKey(start.AddDate(0, i, 0))
		buckets[i] = MonthlyAmount{Month: key, Amount: decimal.Zero}
		index[key] = i
	}

	for _, tx := range txs {
		if tx.Type == models.TransactionIncome {
			continue
		}
		i, ok := index[monthKey(tx.CreatedAt.In(now.Location()))]
		if !ok {
			continue
		}
		buckets[i].Amount = buckets[i].Amount.Add(tx.Amount)
	}
	return buckets
}

func monthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}
