package dto

import (
	"github.com/shopspring/decimal"
	"github.com/yigit/ebdashboard/internal/app/models"
)

// GenerateCreditsRequest records measured emissions for a farm
type GenerateCreditsRequest struct {
	FarmID           string          `json:"farmId" binding:"required"`
	BaselineEmission decimal.Decimal `json:"baselineEmission"`
	ActualEmission   decimal.Decimal `json:"actualEmission"`
}

// UpdateCreditStatusRequest advances a credit. SoldTo is required when selling.
type UpdateCreditStatusRequest struct {
	Status models.CreditStatus `json:"status" binding:"required,oneof=verified sold"`
	SoldTo string              `json:"soldTo" binding:"omitempty,max=200"`
}

// CreditListResponse is one page of carbon credits
type CreditListResponse struct {
	Credits    []models.CarbonCredit `json:"credits"`
	Pagination PaginationInfo        `json:"pagination"`
}
