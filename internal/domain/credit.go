package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
)

// ValidateEmission checks one emission figure: not negative and at most two decimals
func ValidateEmission(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return apperrors.NewValidationError(fmt.Sprintf("%s cannot be negative", field))
	}
	if !v.Equal(v.Round(2)) {
		return apperrors.NewValidationError(fmt.Sprintf("%s must have at most two decimal places", field))
	}
	return nil
}

// CreditsGenerated is max(0, baseline - actual)
func CreditsGenerated(baseline, actual decimal.Decimal) decimal.Decimal {
	reduction := baseline.Sub(actual)
	if reduction.IsNegative() {
		return decimal.Zero
	}
	return reduction
}

// NextCreditStatus is the only status a credit may move to from current.
// Sold credits have none.
func NextCreditStatus(current models.CreditStatus) (models.CreditStatus, bool) {
	switch current {
	case models.CreditStatusPending:
		return models.CreditStatusVerified, true
	case models.CreditStatusVerified:
		return models.CreditStatusSold, true
	}
	return "", false
}

// CanAdvanceCredit reports whether a credit may move from one status to another
func CanAdvanceCredit(from, to models.CreditStatus) bool {
	next, ok := NextCreditStatus(from)
	return ok && next == to
}
