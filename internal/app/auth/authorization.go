package auth

import (
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
)

// Actor is the authenticated caller as established by the JWT middleware
type Actor struct {
	UserID    int64
	Role      models.Role
	StudentID int64
}

// IsStudent reports whether the actor acts as a student
func (a Actor) IsStudent() bool {
	return a.Role == models.RoleStudent
}

// RequireStudent rejects callers without a student profile
func RequireStudent(actor Actor) error {
	if !actor.IsStudent() || actor.StudentID <= 0 {
		return apperrors.NewForbiddenError("Only students can perform this action")
	}
	return nil
}

// RequireReviewer rejects callers that may not approve or reject purchases
func RequireReviewer(actor Actor) error {
	if !actor.Role.CanReviewPurchases() {
		return apperrors.NewForbiddenError("Only administrators or companies can review purchase requests")
	}
	return nil
}

// RequireAdmin rejects callers that are not administrators
func RequireAdmin(actor Actor) error {
	if actor.Role != models.RoleAdmin {
		return apperrors.NewForbiddenError("Administrator access required")
	}
	return nil
}

// CanViewStudent allows students to see only their own profile; other roles see any
func CanViewStudent(actor Actor, studentID int64) error {
	if actor.IsStudent() && actor.StudentID != studentID {
		return apperrors.NewForbiddenError("You can only view your own profile")
	}
	return nil
}

// CanViewRequest allows students to see only their own requests; other roles see any
func CanViewRequest(actor Actor, request *models.PurchaseRequest) error {
	if actor.IsStudent() && request.StudentID != actor.StudentID {
		return apperrors.NewForbiddenError("You can only view your own purchase requests")
	}
	return nil
}

// CanCancelRequest allows only the owning student to cancel
func CanCancelRequest(actor Actor, request *models.PurchaseRequest) error {
	if !actor.IsStudent() || request.StudentID != actor.StudentID {
		return apperrors.NewForbiddenError("You can only cancel your own purchase requests")
	}
	return nil
}
