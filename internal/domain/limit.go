package domain

import (
	"github.com/shopspring/decimal"
	"github.com/yigit/ebdashboard/internal/app/models"
)

// CanAfford reports whether amount fits the student's remaining purchase limit.
// The amount sign is not checked; callers validate it.
func CanAfford(student *models.Student, amount decimal.Decimal) bool {
	return student.UsedPurchaseAmount.Add(amount).LessThanOrEqual(student.PurchaseLimit)
}

// AvailableAmount is max(0, limit - used), derived on every read
func AvailableAmount(student *models.Student) decimal.Decimal {
	available := student.PurchaseLimit.Sub(student.UsedPurchaseAmount)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available
}

// ApprovalRate is approved purchases as a percentage of submitted requests, 0 with no requests
func ApprovalRate(student *models.Student) float64 {
	if student.PurchaseRequestsCount == 0 {
		return 0
	}
	return float64(student.TotalPurchases) / float64(student.PurchaseRequestsCount) * 100
}

// AveragePurchaseAmount is used amount divided by approved purchases, 0 with none
func AveragePurchaseAmount(student *models.Student) decimal.Decimal {
	if student.TotalPurchases == 0 {
		return decimal.Zero
	}
	return student.UsedPurchaseAmount.Div(decimal.NewFromInt(int64(student.TotalPurchases))).Round(2)
}
