package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditStatus is the lifecycle state of a batch of carbon credits
type CreditStatus string

const (
	CreditStatusPending  CreditStatus = "pending"
	CreditStatusVerified CreditStatus = "verified"
	CreditStatusSold     CreditStatus = "sold"
)

// IsValid reports whether s is a known credit status
func (s CreditStatus) IsValid() bool {
	switch s {
	case CreditStatusPending, CreditStatusVerified, CreditStatusSold:
		return true
	}
	return false
}

// CarbonCredit records the emission reduction measured for one farm,
// based on the 'carbon_credits' table. Emissions are in tonnes of CO2e.
type CarbonCredit struct {
	ID               int64           `json:"id" db:"id"`
	FarmCode         string          `json:"farmId" db:"farm_code"`
	BaselineEmission decimal.Decimal `json:"baselineEmission" db:"baseline_emission"`
	ActualEmission   decimal.Decimal `json:"actualEmission" db:"actual_emission"`
	CreditsGenerated decimal.Decimal `json:"creditsGenerated" db:"credits_generated"`
	Status           CreditStatus    `json:"status" db:"status"`
	VerificationDate *time.Time      `json:"verificationDate,omitempty" db:"verification_date"`
	SoldDate         *time.Time      `json:"soldDate,omitempty" db:"sold_date"`
	SoldTo           string          `json:"soldTo,omitempty" db:"sold_to"`
	CreatedAt        time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time       `json:"updatedAt" db:"updated_at"`
}

// CreditFilter narrows credit listings. Zero values mean "any".
type CreditFilter struct {
	Status   CreditStatus
	FarmCode string
	Page     int
	PageSize int
}

// CreditTransition is a compare-and-set move from one credit status to the next
type CreditTransition struct {
	CreditID int64
	From     CreditStatus
	To       CreditStatus
	SoldTo   string
	At       time.Time
}
