package models

import (
	"time"
)

// User defines the account model based on the 'users' table
type User struct {
	ID          int64      `json:"id" db:"id" example:"1"`
	Username    string     `json:"username" db:"username" example:"jdoe"`
	Email       string     `json:"email" db:"email" example:"jdoe@campus.edu"`
	Password    string     `json:"-" db:"password"`
	Role        Role       `json:"role" db:"role" example:"student"`
	IsActive    bool       `json:"isActive" db:"is_active" example:"true"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// UserFilter narrows account listings. A zero Role means "any".
type UserFilter struct {
	Role     Role
	Page     int
	PageSize int
}
