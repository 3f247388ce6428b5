package domain

import "time"

// ModuleProgress is the completion summary of a single module.
type ModuleProgress struct {
	ModuleID             int64   `json:"moduleId"`
	ModuleTitle          string  `json:"moduleTitle"`
	TotalLessons         int     `json:"totalLessons"`
	CompletedLessons     int     `json:"completedLessons"`
	CompletionPercentage float64 `json:"completionPercentage"`
}

// CourseProgressReport is recomputed on every request.
type CourseProgressReport struct {
	CourseID                    int64            `json:"courseId"`
	CourseTitle                 string           `json:"courseTitle"`
	TotalModules                int              `json:"totalModules"`
	TotalLessons                int              `json:"totalLessons"`
	CompletedLessons            int              `json:"completedLessons"`
	OverallCompletionPercentage float64          `json:"overallCompletionPercentage"`
	Modules                     []ModuleProgress `json:"moduleProgress"`
}

// CompletionPercentage is completed/total*100, and 0 for an empty scope.
func CompletionPercentage(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}

type AttemptResult struct {
	AttemptID     int64     `json:"attemptId"`
	Score         float64   `json:"score"`
	Passed        bool      `json:"passed"`
	AttemptNumber int       `json:"attemptNumber"`
	CompletedAt   time.Time `json:"completedAt"`
}

// AssessmentResultSummary is a user's standing on one assessment.
type AssessmentResultSummary struct {
	AssessmentID    int64         `json:"assessmentId"`
	AssessmentTitle string        `json:"assessmentTitle"`
	CourseTitle     string        `json:"courseTitle"`
	Latest          AttemptResult `json:"latestResult"`
	AttemptCount    int           `json:"allAttempts"`
}

// AttemptGraded is emitted once an attempt is scored.
type AttemptGraded struct {
	CourseID        int64     `json:"courseId"`
	AttemptID       int64     `json:"attemptId"`
	UserID          int64     `json:"userId"`
	AssessmentID    int64     `json:"assessmentId"`
	AssessmentTitle string    `json:"assessmentTitle"`
	Score           float64   `json:"score"`
	Passed          bool      `json:"passed"`
	CompletedAt     time.Time `json:"completedAt"`
}

// Page bounds list results.
type Page struct {
	Skip  int
	Limit int
}

const DefaultPageLimit = 100

func (p Page) Normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	return p
}
