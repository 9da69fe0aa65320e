package models

import "time"

// FarmType classifies what a partner farm produces
type FarmType string

const (
	FarmTypeCrop      FarmType = "crop"
	FarmTypeLivestock FarmType = "livestock"
	FarmTypeMixed     FarmType = "mixed"
	FarmTypeDairy     FarmType = "dairy"
	FarmTypePoultry   FarmType = "poultry"
	FarmTypeOrganic   FarmType = "organic"
	FarmTypeOther     FarmType = "other"
)

// IsValid reports whether t is a known farm type
func (t FarmType) IsValid() bool {
	switch t {
	case FarmTypeCrop, FarmTypeLivestock, FarmTypeMixed, FarmTypeDairy, FarmTypePoultry, FarmTypeOrganic, FarmTypeOther:
		return true
	}
	return false
}

// FarmStatus is the verification state of a registered farm
type FarmStatus string

const (
	FarmStatusPendingVerification FarmStatus = "pending_verification"
	FarmStatusActive              FarmStatus = "active"
	FarmStatusInactive            FarmStatus = "inactive"
)

// IsValid reports whether s is a known farm status
func (s FarmStatus) IsValid() bool {
	switch s {
	case FarmStatusPendingVerification, FarmStatusActive, FarmStatusInactive:
		return true
	}
	return false
}

// Farm is a registered partner farm based on the 'farms' table.
// FarmCode is the public identifier, e.g. FARM-M8K2J1QZ-3FA9C1.
type Farm struct {
	ID               int64      `json:"-" db:"id"`
	FarmCode         string     `json:"farmId" db:"farm_code" example:"FARM-M8K2J1QZ-3FA9C1"`
	FarmName         string     `json:"farmName" db:"farm_name" example:"Green Acres"`
	FarmerName       string     `json:"farmerName" db:"farmer_name" example:"Jane Doe"`
	Email            string     `json:"email" db:"email" example:"jane@greenacres.org"`
	Phone            string     `json:"phone,omitempty" db:"phone"`
	FarmSize         float64    `json:"farmSize" db:"farm_size" example:"12.5"`
	FarmType         FarmType   `json:"farmType" db:"farm_type" example:"organic"`
	Address          string     `json:"address,omitempty" db:"address"`
	Latitude         float64    `json:"latitude" db:"latitude" example:"39.93"`
	Longitude        float64    `json:"longitude" db:"longitude" example:"32.85"`
	UserID           *int64     `json:"userId,omitempty" db:"user_id"`
	Status           FarmStatus `json:"status" db:"status" example:"pending_verification"`
	RegistrationDate time.Time  `json:"registrationDate" db:"registration_date"`
	UpdatedAt        time.Time  `json:"updatedAt" db:"updated_at"`
}

// FarmFilter narrows farm listings. Zero values mean "any".
type FarmFilter struct {
	Status   FarmStatus
	FarmType FarmType
	Page     int
	PageSize int
}
