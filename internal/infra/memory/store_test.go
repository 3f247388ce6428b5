package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"lms-grading-service/internal/app"
	"lms-grading-service/internal/domain"
)

func TestStoreRollbackLeavesNoTrace(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(ctx context.Context, tx app.Tx) error {
		if _, _, err := tx.CreateAttempt(ctx, domain.Attempt{UserID: 1, AssessmentID: 7, StartedAt: time.Now()}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	err = store.WithinTx(ctx, func(ctx context.Context, tx app.Tx) error {
		active, err := tx.ActiveAttempt(ctx, 1, 7)
		if err != nil {
			return err
		}
		if active != nil {
			t.Fatalf("expected rolled back attempt to be gone, got %+v", active)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
}

func TestStoreCreateAttemptReturnsActive(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var first, second domain.Attempt
	var createdFirst, createdSecond bool
	err := store.WithinTx(ctx, func(ctx context.Context, tx app.Tx) error {
		var err error
		first, createdFirst, err = tx.CreateAttempt(ctx, domain.Attempt{UserID: 1, AssessmentID: 7})
		if err != nil {
			return err
		}
		second, createdSecond, err = tx.CreateAttempt(ctx, domain.Attempt{UserID: 1, AssessmentID: 7})
		return err
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !createdFirst || createdSecond {
		t.Fatalf("expected only the first call to create, got %v/%v", createdFirst, createdSecond)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same attempt, got %d and %d", first.ID, second.ID)
	}
}

func TestStoreCompleteAttemptOnce(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var attempt domain.Attempt
	_ = store.WithinTx(ctx, func(ctx context.Context, tx app.Tx) error {
		var err error
		attempt, _, err = tx.CreateAttempt(ctx, domain.Attempt{UserID: 1, AssessmentID: 7})
		return err
	})

	score := 50.0
	ended := time.Now()
	attempt.Score = &score
	attempt.EndedAt = &ended
	complete := func() error {
		return store.WithinTx(ctx, func(ctx context.Context, tx app.Tx) error {
			return tx.CompleteAttempt(ctx, attempt)
		})
	}
	if err := complete(); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := complete(); !errors.Is(err, domain.ErrAlreadySubmitted) {
		t.Fatalf("expected already submitted, got %v", err)
	}

	_ = store.WithinTx(ctx, func(ctx context.Context, tx app.Tx) error {
		done, err := tx.CompletedAttemptsByUser(ctx, 1)
		if err != nil {
			return err
		}
		if len(done) != 1 || *done[0].Score != 50 {
			t.Fatalf("unexpected completed attempts %+v", done)
		}
		return nil
	})
}

func TestStoreLessonCompletionUpsert(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	firstAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	save := func(pct int) domain.LessonCompletion {
		var saved domain.LessonCompletion
		err := store.WithinTx(ctx, func(ctx context.Context, tx app.Tx) error {
			var err error
			saved, err = tx.SaveLessonCompletion(ctx, domain.LessonCompletion{
				UserID: 1, LessonID: 3, CompletionPercentage: pct, CompletedAt: firstAt.Add(time.Duration(pct) * time.Hour),
			})
			return err
		})
		if err != nil {
			t.Fatalf("save: %v", err)
		}
		return saved
	}

	a := save(40)
	b := save(90)
	if a.ID != b.ID {
		t.Fatalf("expected one record, got ids %d and %d", a.ID, b.ID)
	}
	if b.CompletionPercentage != 90 {
		t.Fatalf("expected updated percentage, got %d", b.CompletionPercentage)
	}
	if !b.CompletedAt.Equal(a.CompletedAt) {
		t.Fatalf("expected completion time kept, got %v", b.CompletedAt)
	}

	_ = store.WithinTx(ctx, func(ctx context.Context, tx app.Tx) error {
		done, err := tx.CompletedLessonIDs(ctx, 1, []int64{3, 4})
		if err != nil {
			return err
		}
		if _, ok := done[3]; !ok || len(done) != 1 {
			t.Fatalf("unexpected completed lessons %v", done)
		}
		return nil
	})
}
