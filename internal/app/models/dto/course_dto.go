package dto

import "github.com/yigit/ebdashboard/internal/app/models"

// CreateCourseRequest adds a course to the catalogue
type CreateCourseRequest struct {
	Code                string            `json:"code" binding:"required,coursecode"`
	Title               string            `json:"title" binding:"required,max=200"`
	Description         string            `json:"description"`
	Tags                []string          `json:"tags"`
	Difficulty          models.Difficulty `json:"difficulty" binding:"required,oneof=intro intermediate advanced"`
	RecommendedForYears []models.Year     `json:"recommendedForYears" binding:"dive,oneof=freshman sophomore junior senior grad"`
}

// RecommendedCourse is one ranked recommendation
type RecommendedCourse struct {
	Course models.Course `json:"course"`
	Score  int           `json:"score"`
	Reason string        `json:"reason"`
}

// RecommendationResponse lists a student's ranked recommendations
type RecommendationResponse struct {
	StudentID       int64               `json:"studentId"`
	Recommendations []RecommendedCourse `json:"recommendations"`
}
