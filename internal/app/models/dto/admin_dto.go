package dto

import (
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/domain"
)

// UpdateUserRequest changes the administrator-managed fields of an account.
// Omitted fields keep their current value.
type UpdateUserRequest struct {
	Role     *models.Role `json:"role" binding:"omitempty,oneof=admin company student"`
	IsActive *bool        `json:"isActive"`
}

// UserListResponse is one page of accounts
type UserListResponse struct {
	Users      []models.User  `json:"users"`
	Pagination PaginationInfo `json:"pagination"`
}

// StudentListResponse is one page of student profiles
type StudentListResponse struct {
	Students   []StudentResponse `json:"students"`
	Pagination PaginationInfo    `json:"pagination"`
}

// ActivityResponse is the merged feed of recent purchases and transactions
type ActivityResponse struct {
	Activity []domain.ActivityEvent `json:"activity"`
}
