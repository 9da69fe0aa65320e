package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Student defines the student profile based on the 'students' table.
// The available purchase amount is never stored; see domain.AvailableAmount.
type Student struct {
	ID                    int64           `json:"id" db:"id"`
	UserID                int64           `json:"userId" db:"user_id"`
	Name                  string          `json:"name" db:"name"`
	Email                 string          `json:"email" db:"email"`
	Year                  Year            `json:"year" db:"year"`
	Interests             []string        `json:"interests" db:"interests"`
	GPA                   float64         `json:"gpa" db:"gpa"`
	CompletedCourses      []int64         `json:"completedCourses" db:"completed_courses"`
	PurchaseLimit         decimal.Decimal `json:"purchaseLimit" db:"purchase_limit"`
	UsedPurchaseAmount    decimal.Decimal `json:"usedPurchaseAmount" db:"used_purchase_amount"`
	TotalPurchases        int             `json:"totalPurchases" db:"total_purchases"`
	PurchaseRequestsCount int             `json:"purchaseRequestsCount" db:"purchase_requests_count"`
	LastPurchaseDate      *time.Time      `json:"lastPurchaseDate,omitempty" db:"last_purchase_date"`
	CreatedAt             time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt             time.Time       `json:"updatedAt" db:"updated_at"`
}

// HasCompleted reports whether the course id is in the student's completed list
func (s *Student) HasCompleted(courseID int64) bool {
	for _, id := range s.CompletedCourses {
		if id == courseID {
			return true
		}
	}
	return false
}
