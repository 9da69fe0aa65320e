package dto

import (
	"time"

	"github.com/yigit/ebdashboard/internal/app/models"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest registers an account. Student accounts also create the student profile,
// so name and year are required for that role.
type RegisterRequest struct {
	Username  string      `json:"username" binding:"required,min=3,max=50"`
	Email     string      `json:"email" binding:"required,email"`
	Password  string      `json:"password" binding:"required,min=6"`
	Role      models.Role `json:"role" binding:"required,oneof=student company"`
	Name      string      `json:"name" binding:"omitempty,max=100"`
	Year      models.Year `json:"year" binding:"omitempty,oneof=freshman sophomore junior senior grad"`
	Interests []string    `json:"interests"`
	GPA       float64     `json:"gpa" binding:"gte=0,lte=4"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType" example:"Bearer"`
	ExpiresIn   int64  `json:"expiresIn" example:"86400"`
}

// UserResponse represents basic user information
type UserResponse struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	StudentID   *int64     `json:"studentId,omitempty"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  UserResponse  `json:"user"`
}

// NewUserResponse converts a user model, attaching the student profile id when present
func NewUserResponse(user *models.User, studentID int64) UserResponse {
	resp := UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Role:        string(user.Role),
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
	if studentID > 0 {
		resp.StudentID = &studentID
	}
	return resp
}
