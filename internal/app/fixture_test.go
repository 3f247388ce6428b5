package app_test

import (
	"context"
	"errors"
	"time"

	"lms-grading-service/internal/app"
	"lms-grading-service/internal/domain"
	"lms-grading-service/internal/infra/memory"
)

var (
	student    = domain.Caller{UserID: 5, Role: domain.RoleStudent}
	outsider   = domain.Caller{UserID: 6, Role: domain.RoleStudent}
	withdrawn  = domain.Caller{UserID: 7, Role: domain.RoleStudent}
	instructor = domain.Caller{UserID: 2, Role: domain.RoleInstructor}
	stranger   = domain.Caller{UserID: 3, Role: domain.RoleInstructor}
	admin      = domain.Caller{UserID: 9, Role: domain.RoleAdmin}
)

func ptr[T any](v T) *T { return &v }

// steppingClock advances one minute on every reading.
func steppingClock() func() time.Time {
	now := time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func sampleContent() memory.Content {
	return memory.Content{
		Courses: []domain.Course{
			{ID: 1, Title: "Go Basics", CreatorID: instructor.UserID, Published: true},
			{ID: 2, Title: "Empty Course", CreatorID: instructor.UserID, Published: true},
		},
		Modules: []domain.Module{
			{ID: 100, CourseID: 1, Title: "Syntax", OrderIndex: 1, Lessons: []domain.Lesson{
				{ID: 1000, Title: "Variables", Order: 1},
				{ID: 1001, Title: "Loops", Order: 2},
			}},
			{ID: 101, CourseID: 1, Title: "Concurrency", OrderIndex: 2, Lessons: []domain.Lesson{
				{ID: 1002, Title: "Channels", Order: 1},
				{ID: 1003, Title: "Select", Order: 2},
			}},
			{ID: 200, CourseID: 2, Title: "Nothing yet", OrderIndex: 1},
		},
		Assessments: []domain.Assessment{
			{
				ID: 10, CourseID: 1, Title: "Syntax quiz", PassingScore: 70, Published: true,
				Questions: []domain.Question{
					{ID: 1, Text: "What is 2 + 2?", Type: domain.MultipleChoice, Points: 10, Answers: []domain.Answer{
						{ID: 11, Text: "3"}, {ID: 12, Text: "4", Correct: true, Explanation: ptr("arithmetic")},
					}},
					{ID: 2, Text: "Go has generics", Type: domain.TrueFalse, Points: 10, Answers: []domain.Answer{
						{ID: 21, Text: "true", Correct: true}, {ID: 22, Text: "false"},
					}},
				},
			},
			{
				ID: 20, CourseID: 1, Title: "Concurrency quiz", PassingScore: 70, Published: true,
				Questions: []domain.Question{
					{ID: 3, Text: "Explain select", Type: domain.ShortAnswer, Points: 5},
				},
			},
			{ID: 30, CourseID: 1, Title: "Draft quiz"},
		},
		Enrollments: []domain.Enrollment{
			{ID: 1, UserID: student.UserID, CourseID: 1},
			{ID: 2, UserID: student.UserID, CourseID: 2},
			{ID: 3, UserID: withdrawn.UserID, CourseID: 1, Status: domain.EnrollmentWithdrawn},
		},
	}
}

func allCorrect() []domain.SubmittedAnswer {
	return []domain.SubmittedAnswer{
		{QuestionID: 1, AnswerID: ptr[int64](12)},
		{QuestionID: 2, AnswerID: ptr[int64](21)},
	}
}

func allWrong() []domain.SubmittedAnswer {
	return []domain.SubmittedAnswer{
		{QuestionID: 1, AnswerID: ptr[int64](11)},
		{QuestionID: 2, AnswerID: ptr[int64](22)},
	}
}

// failingStore wraps a store and fails CompleteAttempt, after the answers were written.
type failingStore struct {
	app.Store
	err error
}

func (s failingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, tx app.Tx) error {
		return fn(ctx, failingTx{Tx: tx, err: s.err})
	})
}

type failingTx struct {
	app.Tx
	err error
}

func (t failingTx) CompleteAttempt(context.Context, domain.Attempt) error {
	return t.err
}

// readOnlyStore refuses row locks, as a store would while another unit of work holds them.
type readOnlyStore struct {
	app.Store
}

func (s readOnlyStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, tx app.Tx) error {
		return fn(ctx, readOnlyTx{Tx: tx})
	})
}

type readOnlyTx struct {
	app.Tx
}

func (readOnlyTx) AttemptForUpdate(context.Context, int64) (domain.Attempt, error) {
	return domain.Attempt{}, errRowLocked
}

var errRowLocked = errors.New("row locked")

type brokenFeed struct {
	app.ResultFeed
}

func (brokenFeed) Publish(context.Context, domain.AttemptGraded) error {
	return context.DeadlineExceeded
}
