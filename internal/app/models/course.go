package models

import "time"

// Course represents a catalogue entry used by the recommendation scorer
type Course struct {
	ID                  int64      `json:"id" db:"id"`
	Code                string     `json:"code" db:"code"`
	Title               string     `json:"title" db:"title"`
	Description         string     `json:"description" db:"description"`
	Tags                []string   `json:"tags" db:"tags"`
	Difficulty          Difficulty `json:"difficulty" db:"difficulty"`
	RecommendedForYears []Year     `json:"recommendedForYears" db:"recommended_for_years"`
	CreatedAt           time.Time  `json:"createdAt" db:"created_at"`
}
