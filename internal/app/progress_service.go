package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"lms-grading-service/internal/domain"
	"lms-grading-service/internal/policy"
)

// ProgressService derives completion figures from lesson completions and the course tree.
type ProgressService struct {
	catalog Catalog
	store   Store
	metrics Metrics
	log     *zap.Logger
	now     func() time.Time
}

func NewProgressService(catalog Catalog, store Store, opts ...Option) *ProgressService {
	o := buildOptions(opts)
	return &ProgressService{
		catalog: catalog,
		store:   store,
		metrics: o.metrics,
		log:     o.log.Named("progress"),
		now:     o.now,
	}
}

// CourseProgress computes per-module and overall completion for the caller. Nothing is cached.
func (s *ProgressService) CourseProgress(ctx context.Context, caller domain.Caller, courseID int64) (domain.CourseProgressReport, error) {
	course, err := s.catalog.Course(ctx, courseID)
	if err != nil {
		return domain.CourseProgressReport{}, err
	}
	if err := s.requireEnrollment(ctx, caller, courseID); err != nil {
		return domain.CourseProgressReport{}, err
	}

	modules, err := s.catalog.CourseModules(ctx, courseID)
	if err != nil {
		return domain.CourseProgressReport{}, err
	}
	lessonIDs := make([]int64, 0)
	for _, m := range modules {
		for _, l := range m.Lessons {
			lessonIDs = append(lessonIDs, l.ID)
		}
	}

	var completed map[int64]struct{}
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		completed, err = tx.CompletedLessonIDs(ctx, caller.UserID, lessonIDs)
		return err
	})
	if err != nil {
		return domain.CourseProgressReport{}, err
	}
	return buildProgressReport(course, modules, completed), nil
}

func buildProgressReport(course domain.Course, modules []domain.Module, completed map[int64]struct{}) domain.CourseProgressReport {
	report := domain.CourseProgressReport{
		CourseID:     course.ID,
		CourseTitle:  course.Title,
		TotalModules: len(modules),
		Modules:      make([]domain.ModuleProgress, 0, len(modules)),
	}
	for _, m := range modules {
		done := 0
		for _, l := range m.Lessons {
			if _, ok := completed[l.ID]; ok {
				done++
			}
		}
		report.TotalLessons += len(m.Lessons)
		report.CompletedLessons += done
		report.Modules = append(report.Modules, domain.ModuleProgress{
			ModuleID:             m.ID,
			ModuleTitle:          m.Title,
			TotalLessons:         len(m.Lessons),
			CompletedLessons:     done,
			CompletionPercentage: domain.CompletionPercentage(done, len(m.Lessons)),
		})
	}
	report.OverallCompletionPercentage = domain.CompletionPercentage(report.CompletedLessons, report.TotalLessons)
	return report
}

// MarkLessonComplete records a completion, updating the existing record for (caller, lesson) if any.
func (s *ProgressService) MarkLessonComplete(ctx context.Context, caller domain.Caller, lessonID int64, input domain.LessonCompletionInput) (domain.LessonCompletion, error) {
	if err := input.Validate(); err != nil {
		return domain.LessonCompletion{}, err
	}
	lesson, err := s.catalog.Lesson(ctx, lessonID)
	if err != nil {
		return domain.LessonCompletion{}, err
	}
	if err := s.requireEnrollment(ctx, caller, lesson.CourseID); err != nil {
		return domain.LessonCompletion{}, err
	}

	var (
		saved   domain.LessonCompletion
		updated bool
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		existing, err := tx.LessonCompletion(ctx, caller.UserID, lessonID)
		if err != nil {
			return err
		}

		record := domain.LessonCompletion{
			UserID:               caller.UserID,
			LessonID:             lessonID,
			CompletionPercentage: domain.DefaultCompletionPercentage,
			CompletedAt:          s.now(),
		}
		if existing != nil {
			record = *existing
			updated = true
		}
		if input.Notes != nil {
			record.Notes = input.Notes
		}
		if input.CompletionPercentage != nil {
			record.CompletionPercentage = *input.CompletionPercentage
		}

		saved, err = tx.SaveLessonCompletion(ctx, record)
		return err
	})
	if err != nil {
		return domain.LessonCompletion{}, err
	}

	if !updated {
		s.metrics.LessonCompleted()
	}
	s.log.Debug("lesson completion saved",
		zap.Int64("user_id", caller.UserID),
		zap.Int64("lesson_id", lessonID),
		zap.Bool("updated", updated),
		zap.Int("completion_percentage", saved.CompletionPercentage))
	return saved, nil
}

func (s *ProgressService) requireEnrollment(ctx context.Context, caller domain.Caller, courseID int64) error {
	if !policy.NeedsEnrollment(caller) {
		return nil
	}
	enrollment, err := s.catalog.Enrollment(ctx, caller.UserID, courseID)
	if err != nil {
		return err
	}
	return policy.RequireEnrollment(caller, enrollment)
}
