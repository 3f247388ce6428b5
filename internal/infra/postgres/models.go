package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"lms-grading-service/internal/domain"
)

type attemptRow struct {
	bun.BaseModel `bun:"table:user_assessments"`

	ID           int64      `bun:"id,pk,autoincrement"`
	UserID       int64      `bun:"user_id,notnull"`
	AssessmentID int64      `bun:"assessment_id,notnull"`
	Status       string     `bun:"status,notnull"`
	Score        *float64   `bun:"score"`
	StartedAt    time.Time  `bun:"started_at,notnull"`
	EndedAt      *time.Time `bun:"ended_at"`
}

func newAttemptRow(a domain.Attempt) *attemptRow {
	return &attemptRow{
		ID:           a.ID,
		UserID:       a.UserID,
		AssessmentID: a.AssessmentID,
		Status:       string(a.Status),
		Score:        a.Score,
		StartedAt:    a.StartedAt,
		EndedAt:      a.EndedAt,
	}
}

func (r *attemptRow) toDomain() domain.Attempt {
	return domain.Attempt{
		ID:           r.ID,
		UserID:       r.UserID,
		AssessmentID: r.AssessmentID,
		Status:       domain.AttemptStatus(r.Status),
		Score:        r.Score,
		StartedAt:    r.StartedAt,
		EndedAt:      r.EndedAt,
	}
}

type attemptAnswerRow struct {
	bun.BaseModel `bun:"table:user_answers"`

	ID           int64    `bun:"id,pk,autoincrement"`
	AttemptID    int64    `bun:"user_assessment_id,notnull"`
	QuestionID   int64    `bun:"question_id,notnull"`
	AnswerID     *int64   `bun:"answer_id"`
	TextAnswer   *string  `bun:"text_answer"`
	IsCorrect    *bool    `bun:"is_correct"`
	PointsEarned *float64 `bun:"points_earned"`
}

func newAttemptAnswerRow(a domain.AttemptAnswer) attemptAnswerRow {
	return attemptAnswerRow{
		AttemptID:    a.AttemptID,
		QuestionID:   a.QuestionID,
		AnswerID:     a.AnswerID,
		TextAnswer:   a.TextAnswer,
		IsCorrect:    a.IsCorrect,
		PointsEarned: a.PointsEarned,
	}
}

func (r attemptAnswerRow) toDomain() domain.AttemptAnswer {
	return domain.AttemptAnswer{
		ID:           r.ID,
		AttemptID:    r.AttemptID,
		QuestionID:   r.QuestionID,
		AnswerID:     r.AnswerID,
		TextAnswer:   r.TextAnswer,
		IsCorrect:    r.IsCorrect,
		PointsEarned: r.PointsEarned,
	}
}

type lessonCompletionRow struct {
	bun.BaseModel `bun:"table:lesson_completions"`

	ID                   int64     `bun:"id,pk,autoincrement"`
	UserID               int64     `bun:"user_id,notnull"`
	LessonID             int64     `bun:"lesson_id,notnull"`
	Notes                *string   `bun:"notes"`
	CompletionPercentage int       `bun:"completion_percentage,notnull"`
	CompletedAt          time.Time `bun:"completed_at,notnull"`
}

func (r *lessonCompletionRow) toDomain() domain.LessonCompletion {
	return domain.LessonCompletion{
		ID:                   r.ID,
		UserID:               r.UserID,
		LessonID:             r.LessonID,
		Notes:                r.Notes,
		CompletionPercentage: r.CompletionPercentage,
		CompletedAt:          r.CompletedAt,
	}
}
