package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yigit/ebdashboard/internal/app/models"
)

// Scoring weights
const (
	completedScore     = -9999
	exclusionThreshold = -1000
	interestWeight     = 30
	yearWeight         = 20
	gpaWeight          = 10
	introWeight        = 5
	highGPA            = 3.5

	// DefaultRecommendationLimit applies when the caller passes a non-positive limit
	DefaultRecommendationLimit = 5
)

// ScoredCourse is a course with its score and the human-readable reasons behind it
type ScoredCourse struct {
	Course models.Course `json:"course"`
	Score  int           `json:"score"`
	Reason string        `json:"reason"`
}

// Score rates how well a course fits a student. Completed courses short-circuit.
func Score(student *models.Student, course models.Course) ScoredCourse {
	if student.HasCompleted(course.ID) {
		return ScoredCourse{Course: course, Score: completedScore, Reason: "already completed"}
	}

	score := 0
	var reasons []string

	interests := make(map[string]struct{}, len(student.Interests))
	for _, interest := range student.Interests {
		interests[strings.ToLower(strings.TrimSpace(interest))] = struct{}{}
	}

	var matched []string
	for _, tag := range course.Tags {
		if _, ok := interests[strings.ToLower(tag)]; ok {
			matched = append(matched, tag)
		}
	}
	if len(matched) > 0 {
		score += interestWeight * len(matched)
		reasons = append(reasons, "matches interests: "+strings.Join(matched, ", "))
	}

	for _, year := range course.RecommendedForYears {
		if year == student.Year {
			score += yearWeight
			reasons = append(reasons, fmt.Sprintf("recommended for %s", student.Year))
			break
		}
	}

	if student.GPA >= highGPA && course.Difficulty != models.DifficultyAdvanced {
		score += gpaWeight
		reasons = append(reasons, "high GPA fit")
	}

	earlyYear := student.Year == models.YearFreshman || student.Year == models.YearSophomore
	if earlyYear && course.Difficulty == models.DifficultyIntro {
		score += introWeight
		reasons = append(reasons, "intro-level for early year")
	}

	if score == 0 {
		reasons = []string{"no strong match"}
	}

	return ScoredCourse{Course: course, Score: score, Reason: strings.Join(reasons, "; ")}
}

// Recommend scores every course, drops completed ones and returns the best matches.
// Ties keep the input order.
func Recommend(student *models.Student, courses []models.Course, limit int) []ScoredCourse {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}

	scored := make([]ScoredCourse, 0, len(courses))
	for _, course := range courses {
		sc := Score(student, course)
		if sc.Score > exclusionThreshold {
			scored = append(scored, sc)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
