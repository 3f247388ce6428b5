package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"lms-grading-service/internal/app"
	"lms-grading-service/internal/domain"
)

// Store implements app.Store on top of bun. Every unit of work is a read-committed transaction.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	opts := &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	return s.db.RunInTx(ctx, opts, func(ctx context.Context, btx bun.Tx) error {
		return fn(ctx, &tx{db: btx})
	})
}

type tx struct {
	db bun.IDB
}

func (t *tx) ActiveAttempt(ctx context.Context, userID, assessmentID int64) (*domain.Attempt, error) {
	var row attemptRow
	err := t.db.NewSelect().Model(&row).
		Where("user_id = ?", userID).
		Where("assessment_id = ?", assessmentID).
		Where("status = ?", string(domain.AttemptInProgress)).
		OrderExpr("id ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select active attempt: %w", err)
	}
	attempt := row.toDomain()
	return &attempt, nil
}

// CreateAttempt relies on the partial unique index over in-progress attempts:
// a concurrent start loses the insert and reads the winner's row instead.
func (t *tx) CreateAttempt(ctx context.Context, attempt domain.Attempt) (domain.Attempt, bool, error) {
	attempt.Status = domain.AttemptInProgress
	res, err := t.db.NewInsert().Model(newAttemptRow(attempt)).
		On("CONFLICT (user_id, assessment_id) WHERE status = 'in_progress' DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return domain.Attempt{}, false, fmt.Errorf("insert attempt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Attempt{}, false, fmt.Errorf("insert attempt: %w", err)
	}

	active, err := t.ActiveAttempt(ctx, attempt.UserID, attempt.AssessmentID)
	if err != nil {
		return domain.Attempt{}, false, err
	}
	if active == nil {
		return domain.Attempt{}, false, fmt.Errorf("insert attempt: no in-progress row for user %d assessment %d", attempt.UserID, attempt.AssessmentID)
	}
	return *active, n == 1, nil
}

func (t *tx) Attempt(ctx context.Context, id int64) (domain.Attempt, error) {
	return t.attempt(ctx, id, false)
}

func (t *tx) AttemptForUpdate(ctx context.Context, id int64) (domain.Attempt, error) {
	return t.attempt(ctx, id, true)
}

func (t *tx) attempt(ctx context.Context, id int64, lock bool) (domain.Attempt, error) {
	var row attemptRow
	q := t.db.NewSelect().Model(&row).Where("id = ?", id)
	if lock {
		q = q.For("UPDATE")
	}
	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("select attempt: %w", err)
	}
	return row.toDomain(), nil
}

func (t *tx) CompleteAttempt(ctx context.Context, attempt domain.Attempt) error {
	res, err := t.db.NewUpdate().Table("user_assessments").
		Set("status = ?", string(domain.AttemptCompleted)).
		Set("score = ?", attempt.Score).
		Set("ended_at = ?", attempt.EndedAt).
		Where("id = ?", attempt.ID).
		Where("status = ?", string(domain.AttemptInProgress)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("complete attempt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete attempt: %w", err)
	}
	if n == 0 {
		return domain.ErrAlreadySubmitted
	}
	return nil
}

func (t *tx) InsertAttemptAnswers(ctx context.Context, answers []domain.AttemptAnswer) ([]domain.AttemptAnswer, error) {
	if len(answers) == 0 {
		return []domain.AttemptAnswer{}, nil
	}
	rows := make([]attemptAnswerRow, len(answers))
	for i, a := range answers {
		rows[i] = newAttemptAnswerRow(a)
	}
	if _, err := t.db.NewInsert().Model(&rows).Returning("id").Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert attempt answers: %w", err)
	}
	saved := make([]domain.AttemptAnswer, len(rows))
	for i, r := range rows {
		saved[i] = r.toDomain()
	}
	return saved, nil
}

func (t *tx) AttemptAnswers(ctx context.Context, attemptID int64) ([]domain.AttemptAnswer, error) {
	var rows []attemptAnswerRow
	err := t.db.NewSelect().Model(&rows).
		Where("user_assessment_id = ?", attemptID).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select attempt answers: %w", err)
	}
	out := make([]domain.AttemptAnswer, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (t *tx) CompletedAttemptsByUser(ctx context.Context, userID int64) ([]domain.Attempt, error) {
	return t.completedAttempts(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID)
	})
}

func (t *tx) CompletedAttemptsByAssessments(ctx context.Context, assessmentIDs []int64) ([]domain.Attempt, error) {
	if len(assessmentIDs) == 0 {
		return []domain.Attempt{}, nil
	}
	return t.completedAttempts(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("assessment_id IN (?)", bun.In(assessmentIDs))
	})
}

func (t *tx) completedAttempts(ctx context.Context, filter func(*bun.SelectQuery) *bun.SelectQuery) ([]domain.Attempt, error) {
	var rows []attemptRow
	q := t.db.NewSelect().Model(&rows).Where("status = ?", string(domain.AttemptCompleted))
	err := filter(q).OrderExpr("ended_at ASC, id ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select completed attempts: %w", err)
	}
	out := make([]domain.Attempt, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

func (t *tx) LessonCompletion(ctx context.Context, userID, lessonID int64) (*domain.LessonCompletion, error) {
	var row lessonCompletionRow
	err := t.db.NewSelect().Model(&row).
		Where("user_id = ?", userID).
		Where("lesson_id = ?", lessonID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select lesson completion: %w", err)
	}
	completion := row.toDomain()
	return &completion, nil
}

func (t *tx) SaveLessonCompletion(ctx context.Context, completion domain.LessonCompletion) (domain.LessonCompletion, error) {
	row := &lessonCompletionRow{
		UserID:               completion.UserID,
		LessonID:             completion.LessonID,
		Notes:                completion.Notes,
		CompletionPercentage: completion.CompletionPercentage,
		CompletedAt:          completion.CompletedAt,
	}
	_, err := t.db.NewInsert().Model(row).
		On("CONFLICT (user_id, lesson_id) DO UPDATE").
		Set("notes = EXCLUDED.notes").
		Set("completion_percentage = EXCLUDED.completion_percentage").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.LessonCompletion{}, fmt.Errorf("upsert lesson completion: %w", err)
	}
	return row.toDomain(), nil
}

func (t *tx) CompletedLessonIDs(ctx context.Context, userID int64, lessonIDs []int64) (map[int64]struct{}, error) {
	done := make(map[int64]struct{})
	if len(lessonIDs) == 0 {
		return done, nil
	}
	var ids []int64
	err := t.db.NewSelect().Table("lesson_completions").Column("lesson_id").
		Where("user_id = ?", userID).
		Where("lesson_id IN (?)", bun.In(lessonIDs)).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("select completed lessons: %w", err)
	}
	for _, id := range ids {
		done[id] = struct{}{}
	}
	return done, nil
}
