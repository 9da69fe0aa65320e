package models

// Role defines the user role type
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
	RoleCompany Role = "company"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleAdmin, RoleCompany:
		return true
	}
	return false
}

// CanReviewPurchases reports whether the role may approve or reject purchase requests
func (r Role) CanReviewPurchases() bool {
	return r == RoleAdmin || r == RoleCompany
}

// Year is the academic year of a student
type Year string

const (
	YearFreshman  Year = "freshman"
	YearSophomore Year = "sophomore"
	YearJunior    Year = "junior"
	YearSenior    Year = "senior"
	YearGrad      Year = "grad"
)

// IsValid reports whether y is a known academic year
func (y Year) IsValid() bool {
	switch y {
	case YearFreshman, YearSophomore, YearJunior, YearSenior, YearGrad:
		return true
	}
	return false
}

// Difficulty is the level of a course
type Difficulty string

const (
	DifficultyIntro        Difficulty = "intro"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// IsValid reports whether d is a known difficulty
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyIntro, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}
