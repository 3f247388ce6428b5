package memory

import (
	"context"
	"sort"
	"sync"

	"lms-grading-service/internal/app"
	"lms-grading-service/internal/domain"
)

// Store is an in-memory implementation of app.Store.
// Units of work are serialized and run against a private copy of the state,
// which replaces the live state only when the unit of work succeeds.
type Store struct {
	mu    sync.Mutex
	state *state
}

type completionKey struct {
	userID   int64
	lessonID int64
}

type state struct {
	seq         int64
	attempts    map[int64]domain.Attempt
	answers     map[int64][]domain.AttemptAnswer
	completions map[completionKey]domain.LessonCompletion
}

func NewStore() *Store {
	return &Store{state: &state{
		attempts:    make(map[int64]domain.Attempt),
		answers:     make(map[int64][]domain.AttemptAnswer),
		completions: make(map[completionKey]domain.LessonCompletion),
	}}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.state.clone()
	if err := fn(ctx, &tx{st: draft}); err != nil {
		return err
	}
	s.state = draft
	return nil
}

func (st *state) clone() *state {
	next := &state{
		seq:         st.seq,
		attempts:    make(map[int64]domain.Attempt, len(st.attempts)),
		answers:     make(map[int64][]domain.AttemptAnswer, len(st.answers)),
		completions: make(map[completionKey]domain.LessonCompletion, len(st.completions)),
	}
	for k, v := range st.attempts {
		next.attempts[k] = v
	}
	for k, v := range st.answers {
		next.answers[k] = v
	}
	for k, v := range st.completions {
		next.completions[k] = v
	}
	return next
}

func (st *state) nextID() int64 {
	st.seq++
	return st.seq
}

type tx struct {
	st *state
}

func (t *tx) ActiveAttempt(_ context.Context, userID, assessmentID int64) (*domain.Attempt, error) {
	var found *domain.Attempt
	for _, a := range t.st.attempts {
		if a.UserID == userID && a.AssessmentID == assessmentID && a.Status == domain.AttemptInProgress {
			if found == nil || a.ID < found.ID {
				a := a
				found = &a
			}
		}
	}
	return found, nil
}

func (t *tx) CreateAttempt(ctx context.Context, attempt domain.Attempt) (domain.Attempt, bool, error) {
	existing, _ := t.ActiveAttempt(ctx, attempt.UserID, attempt.AssessmentID)
	if existing != nil {
		return *existing, false, nil
	}
	attempt.ID = t.st.nextID()
	attempt.Status = domain.AttemptInProgress
	t.st.attempts[attempt.ID] = attempt
	return attempt, true, nil
}

func (t *tx) Attempt(_ context.Context, id int64) (domain.Attempt, error) {
	a, ok := t.st.attempts[id]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return a, nil
}

// AttemptForUpdate needs no row lock: units of work already run one at a time.
func (t *tx) AttemptForUpdate(ctx context.Context, id int64) (domain.Attempt, error) {
	return t.Attempt(ctx, id)
}

func (t *tx) CompleteAttempt(_ context.Context, attempt domain.Attempt) error {
	current, ok := t.st.attempts[attempt.ID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	if current.Status != domain.AttemptInProgress {
		return domain.ErrAlreadySubmitted
	}
	current.Status = domain.AttemptCompleted
	current.Score = attempt.Score
	current.EndedAt = attempt.EndedAt
	t.st.attempts[attempt.ID] = current
	return nil
}

func (t *tx) InsertAttemptAnswers(_ context.Context, answers []domain.AttemptAnswer) ([]domain.AttemptAnswer, error) {
	saved := make([]domain.AttemptAnswer, len(answers))
	for i, a := range answers {
		if _, ok := t.st.attempts[a.AttemptID]; !ok {
			return nil, domain.ErrAttemptNotFound
		}
		a.ID = t.st.nextID()
		saved[i] = a
	}
	for _, a := range saved {
		// fresh slice so the committed state never shares a backing array with a draft
		existing := t.st.answers[a.AttemptID]
		next := make([]domain.AttemptAnswer, len(existing), len(existing)+1)
		copy(next, existing)
		t.st.answers[a.AttemptID] = append(next, a)
	}
	return saved, nil
}

func (t *tx) AttemptAnswers(_ context.Context, attemptID int64) ([]domain.AttemptAnswer, error) {
	out := make([]domain.AttemptAnswer, len(t.st.answers[attemptID]))
	copy(out, t.st.answers[attemptID])
	return out, nil
}

func (t *tx) CompletedAttemptsByUser(_ context.Context, userID int64) ([]domain.Attempt, error) {
	return t.completed(func(a domain.Attempt) bool { return a.UserID == userID }), nil
}

func (t *tx) CompletedAttemptsByAssessments(_ context.Context, assessmentIDs []int64) ([]domain.Attempt, error) {
	wanted := make(map[int64]struct{}, len(assessmentIDs))
	for _, id := range assessmentIDs {
		wanted[id] = struct{}{}
	}
	return t.completed(func(a domain.Attempt) bool {
		_, ok := wanted[a.AssessmentID]
		return ok
	}), nil
}

func (t *tx) completed(match func(domain.Attempt) bool) []domain.Attempt {
	out := make([]domain.Attempt, 0)
	for _, a := range t.st.attempts {
		if a.Status == domain.AttemptCompleted && match(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EndedAt.Equal(*out[j].EndedAt) {
			return out[i].EndedAt.Before(*out[j].EndedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (t *tx) LessonCompletion(_ context.Context, userID, lessonID int64) (*domain.LessonCompletion, error) {
	c, ok := t.st.completions[completionKey{userID, lessonID}]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (t *tx) SaveLessonCompletion(_ context.Context, completion domain.LessonCompletion) (domain.LessonCompletion, error) {
	key := completionKey{completion.UserID, completion.LessonID}
	if existing, ok := t.st.completions[key]; ok {
		existing.Notes = completion.Notes
		existing.CompletionPercentage = completion.CompletionPercentage
		t.st.completions[key] = existing
		return existing, nil
	}
	completion.ID = t.st.nextID()
	t.st.completions[key] = completion
	return completion, nil
}

func (t *tx) CompletedLessonIDs(_ context.Context, userID int64, lessonIDs []int64) (map[int64]struct{}, error) {
	done := make(map[int64]struct{})
	for _, id := range lessonIDs {
		if _, ok := t.st.completions[completionKey{userID, id}]; ok {
			done[id] = struct{}{}
		}
	}
	return done, nil
}
