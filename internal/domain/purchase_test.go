package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
)

func TestTotalAmount(t *testing.T) {
	items := []models.PurchaseItem{{Name: "Laptop", Quantity: 2, PricePerUnit: decimal.NewFromInt(500)}}
	assert.True(t, TotalAmount(items).Equal(decimal.NewFromInt(1000)))

	mixed := []models.PurchaseItem{
		{Name: "Seeds", Quantity: 3, PricePerUnit: decimal.RequireFromString("2.50")},
		{Name: "Compost", Quantity: 1, PricePerUnit: decimal.RequireFromString("12.25")},
		{Name: "Flyer", Quantity: 10, PricePerUnit: decimal.Zero},
	}
	assert.Equal(t, "19.75", TotalAmount(mixed).StringFixed(2))
}

func TestValidateItems(t *testing.T) {
	valid := models.PurchaseItem{Name: "Seeds", Quantity: 1, PricePerUnit: decimal.NewFromInt(1)}

	tests := []struct {
		name    string
		items   []models.PurchaseItem
		wantErr bool
	}{
		{name: "valid", items: []models.PurchaseItem{valid}},
		{name: "free item", items: []models.PurchaseItem{{Name: "Flyer", Quantity: 1, PricePerUnit: decimal.Zero}}},
		{name: "empty list", items: nil, wantErr: true},
		{name: "blank name", items: []models.PurchaseItem{{Name: "  ", Quantity: 1}}, wantErr: true},
		{name: "zero quantity", items: []models.PurchaseItem{{Name: "Seeds", Quantity: 0}}, wantErr: true},
		{name: "whole cents", items: []models.PurchaseItem{{Name: "Seeds", Quantity: 3, PricePerUnit: decimal.RequireFromString("1.500")}}},
		{name: "sub-cent price", items: []models.PurchaseItem{{Name: "Seeds", Quantity: 3, PricePerUnit: decimal.RequireFromString("0.005")}}, wantErr: true},
		{name: "negative price", items: []models.PurchaseItem{valid, {Name: "Refund", Quantity: 1, PricePerUnit: decimal.NewFromInt(-1)}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItems(tt.items)
			if tt.wantErr {
				assert.True(t, errors.Is(err, apperrors.ErrValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTransitions(t *testing.T) {
	for _, to := range []models.PurchaseStatus{models.StatusApproved, models.StatusRejected, models.StatusCancelled} {
		assert.True(t, CanTransition(models.StatusPending, to))
		for _, from := range []models.PurchaseStatus{models.StatusApproved, models.StatusRejected, models.StatusCancelled} {
			assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
			assert.True(t, IsTerminal(from))
		}
	}
	assert.False(t, CanTransition(models.StatusPending, models.StatusPending))
	assert.False(t, IsTerminal(models.StatusPending))
}

func TestLedgerText(t *testing.T) {
	items := []models.PurchaseItem{{Name: "Seeds"}, {Name: "Compost"}}
	assert.Equal(t, "Purchase approved: Seeds, Compost", ApprovalDescription(items))
	assert.Equal(t, "PR-42", RequestReference(42))
	assert.Equal(t, "Purchase request is already approved", AlreadyInStateMessage(models.StatusApproved))
	assert.Equal(t, "Cannot cancel a rejected request", CannotCancelMessage(models.StatusRejected))
}
