package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/domain"
)

// StudentResponse is a student profile with its derived purchase figures
type StudentResponse struct {
	ID                      int64           `json:"id"`
	UserID                  int64           `json:"userId,omitempty"`
	Name                    string          `json:"name"`
	Email                   string          `json:"email"`
	Year                    models.Year     `json:"year"`
	Interests               []string        `json:"interests"`
	GPA                     float64         `json:"gpa"`
	CompletedCourses        []int64         `json:"completedCourses"`
	PurchaseLimit           decimal.Decimal `json:"purchaseLimit"`
	UsedPurchaseAmount      decimal.Decimal `json:"usedPurchaseAmount"`
	AvailablePurchaseAmount decimal.Decimal `json:"availablePurchaseAmount"`
	TotalPurchases          int             `json:"totalPurchases"`
	PurchaseRequestsCount   int             `json:"purchaseRequestsCount"`
	ApprovalRate            float64         `json:"approvalRate"`
	AveragePurchaseAmount   decimal.Decimal `json:"averagePurchaseAmount"`
	LastPurchaseDate        *time.Time      `json:"lastPurchaseDate,omitempty"`
	CreatedAt               time.Time       `json:"createdAt"`
}

// NewStudentResponse converts a student model and computes the derived fields
func NewStudentResponse(s *models.Student) StudentResponse {
	return StudentResponse{
		ID:                      s.ID,
		UserID:                  s.UserID,
		Name:                    s.Name,
		Email:                   s.Email,
		Year:                    s.Year,
		Interests:               s.Interests,
		GPA:                     s.GPA,
		CompletedCourses:        s.CompletedCourses,
		PurchaseLimit:           s.PurchaseLimit,
		UsedPurchaseAmount:      s.UsedPurchaseAmount,
		AvailablePurchaseAmount: domain.AvailableAmount(s),
		TotalPurchases:          s.TotalPurchases,
		PurchaseRequestsCount:   s.PurchaseRequestsCount,
		ApprovalRate:            domain.ApprovalRate(s),
		AveragePurchaseAmount:   domain.AveragePurchaseAmount(s),
		LastPurchaseDate:        s.LastPurchaseDate,
		CreatedAt:               s.CreatedAt,
	}
}

// UpdateStudentProfileRequest changes the fields a student may edit
type UpdateStudentProfileRequest struct {
	Name      string      `json:"name" binding:"required,max=100"`
	Year      models.Year `json:"year" binding:"required,oneof=freshman sophomore junior senior grad"`
	Interests []string    `json:"interests"`
	GPA       float64     `json:"gpa" binding:"gte=0,lte=4"`
}

// UpdatePurchaseLimitRequest sets a student's purchase limit
type UpdatePurchaseLimitRequest struct {
	PurchaseLimit decimal.Decimal `json:"purchaseLimit"`
}

// CompleteCourseRequest marks a course as completed by the calling student
type CompleteCourseRequest struct {
	CourseID int64 `json:"courseId" binding:"required,min=1"`
}
