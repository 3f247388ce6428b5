package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms-grading-service/internal/app"
	"lms-grading-service/internal/domain"
	"lms-grading-service/internal/infra/memory"
)

func newProgressService() *app.ProgressService {
	return app.NewProgressService(memory.NewStaticCatalog(sampleContent()), memory.NewStore(), app.WithClock(steppingClock()))
}

func TestCourseProgressGrowsWithCompletions(t *testing.T) {
	ctx := context.Background()
	service := newProgressService()

	report, err := service.CourseProgress(ctx, student, 1)
	require.NoError(t, err)
	assert.Equal(t, "Go Basics", report.CourseTitle)
	assert.Equal(t, 2, report.TotalModules)
	assert.Equal(t, 4, report.TotalLessons)
	assert.Equal(t, 0.0, report.OverallCompletionPercentage)

	previous := report.OverallCompletionPercentage
	for _, lessonID := range []int64{1000, 1002, 1001, 1003} {
		_, err := service.MarkLessonComplete(ctx, student, lessonID, domain.LessonCompletionInput{})
		require.NoError(t, err)

		report, err = service.CourseProgress(ctx, student, 1)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, report.OverallCompletionPercentage, previous)
		previous = report.OverallCompletionPercentage
	}
	assert.Equal(t, 100.0, report.OverallCompletionPercentage)
	for _, m := range report.Modules {
		assert.Equal(t, 100.0, m.CompletionPercentage)
		assert.Equal(t, m.TotalLessons, m.CompletedLessons)
	}
}

func TestCourseProgressPerModule(t *testing.T) {
	ctx := context.Background()
	service := newProgressService()

	_, err := service.MarkLessonComplete(ctx, student, 1000, domain.LessonCompletionInput{})
	require.NoError(t, err)

	report, err := service.CourseProgress(ctx, student, 1)
	require.NoError(t, err)
	require.Len(t, report.Modules, 2)
	assert.Equal(t, int64(100), report.Modules[0].ModuleID)
	assert.Equal(t, 50.0, report.Modules[0].CompletionPercentage)
	assert.Equal(t, 0.0, report.Modules[1].CompletionPercentage)
	assert.Equal(t, 25.0, report.OverallCompletionPercentage)

	// another learner's completions are not counted
	other, err := service.CourseProgress(ctx, instructor, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, other.CompletedLessons)
}

func TestCourseProgressWithoutLessons(t *testing.T) {
	report, err := newProgressService().CourseProgress(context.Background(), student, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalLessons)
	assert.Equal(t, 0.0, report.OverallCompletionPercentage)
	require.Len(t, report.Modules, 1)
	assert.Equal(t, 0.0, report.Modules[0].CompletionPercentage)
}

func TestCourseProgressChecks(t *testing.T) {
	ctx := context.Background()
	service := newProgressService()

	_, err := service.CourseProgress(ctx, student, 404)
	assert.ErrorIs(t, err, domain.ErrCourseNotFound)
	_, err = service.CourseProgress(ctx, outsider, 1)
	assert.ErrorIs(t, err, domain.ErrNotEnrolled)
	_, err = service.CourseProgress(ctx, withdrawn, 1)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = service.CourseProgress(ctx, admin, 1)
	assert.NoError(t, err)
}

func TestMarkLessonCompleteUpserts(t *testing.T) {
	ctx := context.Background()
	service := newProgressService()

	first, err := service.MarkLessonComplete(ctx, student, 1000, domain.LessonCompletionInput{
		Notes:                ptr("halfway"),
		CompletionPercentage: ptr(50),
	})
	require.NoError(t, err)
	assert.Equal(t, 50, first.CompletionPercentage)

	second, err := service.MarkLessonComplete(ctx, student, 1000, domain.LessonCompletionInput{
		CompletionPercentage: ptr(90),
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 90, second.CompletionPercentage)
	assert.Equal(t, "halfway", *second.Notes)
	assert.Equal(t, first.CompletedAt, second.CompletedAt)

	report, err := service.CourseProgress(ctx, student, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, report.CompletedLessons)
}

func TestMarkLessonCompleteDefaultsAndChecks(t *testing.T) {
	ctx := context.Background()
	service := newProgressService()

	completion, err := service.MarkLessonComplete(ctx, student, 1001, domain.LessonCompletionInput{})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCompletionPercentage, completion.CompletionPercentage)
	assert.Nil(t, completion.Notes)
	assert.False(t, completion.CompletedAt.IsZero())

	_, err = service.MarkLessonComplete(ctx, student, 404, domain.LessonCompletionInput{})
	assert.ErrorIs(t, err, domain.ErrLessonNotFound)
	_, err = service.MarkLessonComplete(ctx, outsider, 1001, domain.LessonCompletionInput{})
	assert.ErrorIs(t, err, domain.ErrNotEnrolled)
	_, err = service.MarkLessonComplete(ctx, student, 1001, domain.LessonCompletionInput{CompletionPercentage: ptr(-1)})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = service.MarkLessonComplete(ctx, instructor, 1001, domain.LessonCompletionInput{CompletionPercentage: ptr(0)})
	assert.NoError(t, err)
}
