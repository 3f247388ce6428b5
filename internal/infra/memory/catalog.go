package memory

import (
	"context"
	"sort"

	"lms-grading-service/internal/domain"
)

// Content is the seed data for a StaticCatalog.
type Content struct {
	Courses     []domain.Course
	Modules     []domain.Module // lessons nested under their module
	Assessments []domain.Assessment
	Enrollments []domain.Enrollment
}

// StaticCatalog is an app.Catalog backed by in-memory content (useful for tests/demos).
type StaticCatalog struct {
	courses     map[int64]domain.Course
	modules     map[int64][]domain.Module
	lessons     map[int64]domain.Lesson
	assessments map[int64]domain.Assessment
	enrollments map[[2]int64]domain.Enrollment
}

func NewStaticCatalog(content Content) *StaticCatalog {
	c := &StaticCatalog{
		courses:     make(map[int64]domain.Course),
		modules:     make(map[int64][]domain.Module),
		lessons:     make(map[int64]domain.Lesson),
		assessments: make(map[int64]domain.Assessment),
		enrollments: make(map[[2]int64]domain.Enrollment),
	}
	for _, course := range content.Courses {
		c.courses[course.ID] = course
	}
	for _, m := range content.Modules {
		m.Lessons = append([]domain.Lesson(nil), m.Lessons...)
		for i := range m.Lessons {
			m.Lessons[i].ModuleID = m.ID
			m.Lessons[i].CourseID = m.CourseID
			c.lessons[m.Lessons[i].ID] = m.Lessons[i]
		}
		sort.SliceStable(m.Lessons, func(i, j int) bool { return m.Lessons[i].Order < m.Lessons[j].Order })
		c.modules[m.CourseID] = append(c.modules[m.CourseID], m)
	}
	for courseID := range c.modules {
		mods := c.modules[courseID]
		sort.SliceStable(mods, func(i, j int) bool { return mods[i].OrderIndex < mods[j].OrderIndex })
	}
	for _, a := range content.Assessments {
		c.assessments[a.ID] = linked(a)
	}
	for _, e := range content.Enrollments {
		if e.Status == "" {
			e.Status = domain.EnrollmentActive
		}
		c.enrollments[[2]int64{e.UserID, e.CourseID}] = e
	}
	return c
}

// linked copies a seeded assessment and fills in the parent ids of its questions and answers.
// Scores and points are kept as seeded, zeros included.
func linked(a domain.Assessment) domain.Assessment {
	questions := make([]domain.Question, len(a.Questions))
	for i, q := range a.Questions {
		q.AssessmentID = a.ID
		answers := make([]domain.Answer, len(q.Answers))
		for j, opt := range q.Answers {
			opt.QuestionID = q.ID
			answers[j] = opt
		}
		q.Answers = answers
		questions[i] = q
	}
	a.Questions = questions
	return a
}

func (c *StaticCatalog) Assessment(_ context.Context, id int64) (domain.Assessment, error) {
	if a, ok := c.assessments[id]; ok {
		return a, nil
	}
	return domain.Assessment{}, domain.ErrAssessmentNotFound
}

func (c *StaticCatalog) AssessmentsByCourse(_ context.Context, courseID int64) ([]domain.Assessment, error) {
	out := make([]domain.Assessment, 0)
	for _, a := range c.assessments {
		if a.CourseID == courseID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *StaticCatalog) Course(_ context.Context, id int64) (domain.Course, error) {
	if course, ok := c.courses[id]; ok {
		return course, nil
	}
	return domain.Course{}, domain.ErrCourseNotFound
}

func (c *StaticCatalog) CourseModules(_ context.Context, courseID int64) ([]domain.Module, error) {
	return c.modules[courseID], nil
}

func (c *StaticCatalog) Lesson(_ context.Context, id int64) (domain.Lesson, error) {
	if l, ok := c.lessons[id]; ok {
		return l, nil
	}
	return domain.Lesson{}, domain.ErrLessonNotFound
}

func (c *StaticCatalog) Enrollment(_ context.Context, userID, courseID int64) (*domain.Enrollment, error) {
	if e, ok := c.enrollments[[2]int64{userID, courseID}]; ok {
		return &e, nil
	}
	return nil, nil
}
