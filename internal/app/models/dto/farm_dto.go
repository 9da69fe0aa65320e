package dto

import "github.com/yigit/ebdashboard/internal/app/models"

// RegisterFarmRequest registers a partner farm. Coordinates are pointers so
// that 0 stays a valid latitude or longitude while still being required.
type RegisterFarmRequest struct {
	FarmName   string          `json:"farmName" binding:"required,max=100"`
	FarmerName string          `json:"farmerName" binding:"required,max=200"`
	Email      string          `json:"email" binding:"required,email"`
	Phone      string          `json:"phone" binding:"omitempty,max=50"`
	FarmSize   float64         `json:"farmSize" binding:"required"`
	FarmType   models.FarmType `json:"farmType" binding:"required,oneof=crop livestock mixed dairy poultry organic other"`
	Address    string          `json:"address"`
	Latitude   *float64        `json:"latitude" binding:"required"`
	Longitude  *float64        `json:"longitude" binding:"required"`
}

// UpdateFarmStatusRequest changes a farm's verification status
type UpdateFarmStatusRequest struct {
	Status models.FarmStatus `json:"status" binding:"required"`
}

// FarmListResponse is one page of farms
type FarmListResponse struct {
	Farms      []models.Farm  `json:"farms"`
	Pagination PaginationInfo `json:"pagination"`
}
