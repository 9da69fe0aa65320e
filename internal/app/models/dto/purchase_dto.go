package dto

import (
	"github.com/shopspring/decimal"
	"github.com/yigit/ebdashboard/internal/app/models"
)

// PurchaseItemRequest is one requested line item
type PurchaseItemRequest struct {
	Name         string          `json:"name" example:"Soil moisture sensor"`
	Quantity     int             `json:"quantity" example:"2"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit" swaggertype:"number" example:"49.90"`
}

// CreatePurchaseRequestRequest submits a purchase request for review
type CreatePurchaseRequestRequest struct {
	Items     []PurchaseItemRequest `json:"items"`
	CompanyID int64                 `json:"companyId" example:"3"`
	Notes     string                `json:"notes" binding:"max=1000"`
}

// ToItems converts request items to model items
func (r CreatePurchaseRequestRequest) ToItems() []models.PurchaseItem {
	items := make([]models.PurchaseItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, models.PurchaseItem{Name: it.Name, Quantity: it.Quantity, PricePerUnit: it.PricePerUnit})
	}
	return items
}

// RejectPurchaseRequestRequest carries the mandatory rejection reason
type RejectPurchaseRequestRequest struct {
	Reason string `json:"reason" example:"Vendor not approved"`
}

// PurchaseRequestListResponse is one page of purchase requests
type PurchaseRequestListResponse struct {
	Requests   []models.PurchaseRequest `json:"requests"`
	Pagination PaginationInfo           `json:"pagination"`
}

// StatusCount is the number of requests in one status
type StatusCount struct {
	Status models.PurchaseStatus `json:"status"`
	Count  int64                 `json:"count"`
}

// PurchaseStatsResponse summarises the whole purchase workflow
type PurchaseStatsResponse struct {
	StatusCounts        []StatusCount   `json:"statusCounts"`
	TotalApprovedAmount decimal.Decimal `json:"totalApprovedAmount"`
	RecentApprovedCount int64           `json:"recentApprovedCount"`
	PendingCount        int64           `json:"pendingCount"`
}
