package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"lms-grading-service/internal/domain"
)

// Catalog is the read-only content tree (courses, modules, lessons, assessments, enrollments).
type Catalog interface {
	Assessment(ctx context.Context, id int64) (domain.Assessment, error)
	AssessmentsByCourse(ctx context.Context, courseID int64) ([]domain.Assessment, error)
	Course(ctx context.Context, id int64) (domain.Course, error)
	// CourseModules returns the course's modules, ordered, with their lessons.
	CourseModules(ctx context.Context, courseID int64) ([]domain.Module, error)
	Lesson(ctx context.Context, id int64) (domain.Lesson, error)
	// Enrollment returns nil without error when the user is not enrolled.
	Enrollment(ctx context.Context, userID, courseID int64) (*domain.Enrollment, error)
}

// Store runs a unit of work: fn's writes commit together when it returns nil and are discarded otherwise.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the attempt and progress data access available inside a unit of work.
type Tx interface {
	// ActiveAttempt returns nil without error when no attempt is in progress.
	ActiveAttempt(ctx context.Context, userID, assessmentID int64) (*domain.Attempt, error)
	// CreateAttempt inserts an in-progress attempt unless one already exists, in which
	// case the existing attempt is returned with created=false.
	CreateAttempt(ctx context.Context, attempt domain.Attempt) (saved domain.Attempt, created bool, err error)
	// Attempt loads an attempt without locking it.
	Attempt(ctx context.Context, id int64) (domain.Attempt, error)
	// AttemptForUpdate loads and locks an attempt for the rest of the unit of work.
	AttemptForUpdate(ctx context.Context, id int64) (domain.Attempt, error)
	// CompleteAttempt persists status, score and end time; it fails with
	// domain.ErrAlreadySubmitted if the attempt is no longer in progress.
	CompleteAttempt(ctx context.Context, attempt domain.Attempt) error
	InsertAttemptAnswers(ctx context.Context, answers []domain.AttemptAnswer) ([]domain.AttemptAnswer, error)
	AttemptAnswers(ctx context.Context, attemptID int64) ([]domain.AttemptAnswer, error)
	// CompletedAttemptsByUser is ordered by end time, then id, ascending.
	CompletedAttemptsByUser(ctx context.Context, userID int64) ([]domain.Attempt, error)
	// CompletedAttemptsByAssessments is ordered by end time, then id, ascending.
	CompletedAttemptsByAssessments(ctx context.Context, assessmentIDs []int64) ([]domain.Attempt, error)

	// LessonCompletion returns nil without error when the lesson is not completed.
	LessonCompletion(ctx context.Context, userID, lessonID int64) (*domain.LessonCompletion, error)
	// SaveLessonCompletion inserts or, on (user, lesson) conflict, updates notes and percentage.
	SaveLessonCompletion(ctx context.Context, completion domain.LessonCompletion) (domain.LessonCompletion, error)
	CompletedLessonIDs(ctx context.Context, userID int64, lessonIDs []int64) (map[int64]struct{}, error)
}

// ResultFeed fans graded attempts out to live subscribers of a course.
type ResultFeed interface {
	Publish(ctx context.Context, event domain.AttemptGraded) error
	// Subscribe returns a channel of events for courseID.
	// The caller must invoke the returned cancel function to avoid leaks.
	Subscribe(ctx context.Context, courseID int64) (<-chan domain.AttemptGraded, func(), error)
}

// Metrics receives engine-level measurements.
type Metrics interface {
	AttemptStarted()
	AttemptGraded(score float64, passed bool)
	SubmissionRejected(kind domain.Kind)
	LessonCompleted()
}

type nopMetrics struct{}

func (nopMetrics) AttemptStarted()                {}
func (nopMetrics) AttemptGraded(float64, bool)    {}
func (nopMetrics) SubmissionRejected(domain.Kind) {}
func (nopMetrics) LessonCompleted()               {}

type options struct {
	log     *zap.Logger
	now     func() time.Time
	feed    ResultFeed
	metrics Metrics
}

// Option configures the services.
type Option func(*options)

func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithFeed(feed ResultFeed) Option {
	return func(o *options) { o.feed = feed }
}

func WithMetrics(m Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(opts []Option) options {
	o := options{
		log:     zap.NewNop(),
		now:     time.Now,
		metrics: nopMetrics{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.feed == nil {
		o.feed = NewLocalFeed()
	}
	return o
}
