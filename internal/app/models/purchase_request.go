package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseStatus is the lifecycle state of a purchase request
type PurchaseStatus string

const (
	StatusPending   PurchaseStatus = "pending"
	StatusApproved  PurchaseStatus = "approved"
	StatusRejected  PurchaseStatus = "rejected"
	StatusCancelled PurchaseStatus = "cancelled"
)

// AllPurchaseStatuses lists every status in lifecycle order
var AllPurchaseStatuses = []PurchaseStatus{StatusPending, StatusApproved, StatusRejected, StatusCancelled}

// IsValid reports whether s is a known status
func (s PurchaseStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// PurchaseItem is one line of a purchase request
type PurchaseItem struct {
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
}

// PurchaseRequest defines the model based on the 'purchase_requests' table.
// TotalAmount is computed once at creation and never recomputed.
type PurchaseRequest struct {
	ID                 int64           `json:"id" db:"id"`
	StudentID          int64           `json:"studentId" db:"student_id"`
	CompanyID          int64           `json:"companyId" db:"company_id"`
	Items              []PurchaseItem  `json:"items" db:"items"`
	TotalAmount        decimal.Decimal `json:"totalAmount" db:"total_amount"`
	Status             PurchaseStatus  `json:"status" db:"status"`
	ReasonForRejection *string         `json:"reasonForRejection,omitempty" db:"reason_for_rejection"`
	ReviewedBy         *int64          `json:"reviewedBy,omitempty" db:"reviewed_by"`
	ReviewedAt         *time.Time      `json:"reviewedAt,omitempty" db:"reviewed_at"`
	Notes              string          `json:"notes" db:"notes"`
	RequestedAt        time.Time       `json:"requestedAt" db:"requested_at"`
	UpdatedAt          time.Time       `json:"updatedAt" db:"updated_at"`
}

// PurchaseRequestFilter narrows list queries. Zero values mean "any".
type PurchaseRequestFilter struct {
	Status    PurchaseStatus
	StudentID int64
	CompanyID int64
	Page      int
	PageSize  int
}

// StatusTransition describes a compare-and-set move out of the pending state
type StatusTransition struct {
	RequestID          int64
	To                 PurchaseStatus
	ReviewedBy         *int64
	ReasonForRejection *string
	At                 time.Time
}

// StatusAggregate is the count and summed total of requests in one status
type StatusAggregate struct {
	Count       int64
	TotalAmount decimal.Decimal
}
