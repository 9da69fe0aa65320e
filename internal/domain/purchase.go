package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
)

// ValidateItems checks the line items of a new purchase request
func ValidateItems(items []models.PurchaseItem) error {
	if len(items) == 0 {
		return apperrors.NewValidationError("At least one item is required")
	}
	for i, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return apperrors.NewValidationError(fmt.Sprintf("Item %d: name is required", i+1))
		}
		if item.Quantity < 1 {
			return apperrors.NewValidationError(fmt.Sprintf("Item %d: quantity must be at least 1", i+1))
		}
		if item.PricePerUnit.IsNegative() {
			return apperrors.NewValidationError(fmt.Sprintf("Item %d: price per unit must not be negative", i+1))
		}
		if !item.PricePerUnit.Equal(item.PricePerUnit.Round(2)) {
			return apperrors.NewValidationError(fmt.Sprintf("Item %d: price per unit must be in whole cents", i+1))
		}
	}
	return nil
}

// TotalAmount is the sum of quantity * pricePerUnit over all items. Items are in
// whole cents after ValidateItems, so the sum is exact at the stored NUMERIC(12,2) scale.
func TotalAmount(items []models.PurchaseItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.PricePerUnit.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// IsTerminal reports whether no further transition is possible from status
func IsTerminal(status models.PurchaseStatus) bool {
	return status != models.StatusPending
}

// CanTransition reports whether the lifecycle allows moving from one status to another
func CanTransition(from, to models.PurchaseStatus) bool {
	if IsTerminal(from) {
		return false
	}
	switch to {
	case models.StatusApproved, models.StatusRejected, models.StatusCancelled:
		return true
	}
	return false
}

// ApprovalDescription is the ledger description written when a request is approved
func ApprovalDescription(items []models.PurchaseItem) string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return "Purchase approved: " + strings.Join(names, ", ")
}

// RequestReference links a ledger entry back to its purchase request
func RequestReference(requestID int64) string {
	return fmt.Sprintf("PR-%d", requestID)
}

// AlreadyInStateMessage is the review error message for a non-pending request
func AlreadyInStateMessage(status models.PurchaseStatus) string {
	return fmt.Sprintf("Purchase request is already %s", status)
}

// CannotCancelMessage is the cancel error message for a non-pending request
func CannotCancelMessage(status models.PurchaseStatus) string {
	return fmt.Sprintf("Cannot cancel a %s request", status)
}
