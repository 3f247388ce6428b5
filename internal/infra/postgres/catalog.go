package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lms-grading-service/internal/domain"
)

// Catalog reads the content tree from Postgres.
type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

const assessmentColumns = `id, course_id, module_id, title, COALESCE(description, ''), time_limit, passing_score, published`

func (c *Catalog) Assessment(ctx context.Context, id int64) (domain.Assessment, error) {
	row := c.pool.QueryRow(ctx, `SELECT `+assessmentColumns+` FROM assessments WHERE id=$1`, id)
	assessment, err := scanAssessment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Assessment{}, domain.ErrAssessmentNotFound
	}
	if err != nil {
		return domain.Assessment{}, fmt.Errorf("load assessment: %w", err)
	}
	if err := c.loadQuestions(ctx, &assessment); err != nil {
		return domain.Assessment{}, err
	}
	return assessment, nil
}

// AssessmentsByCourse returns the course's assessments without their questions.
func (c *Catalog) AssessmentsByCourse(ctx context.Context, courseID int64) ([]domain.Assessment, error) {
	rows, err := c.pool.Query(ctx, `SELECT `+assessmentColumns+` FROM assessments WHERE course_id=$1 ORDER BY id`, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course assessments: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Assessment, 0)
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAssessment(row pgx.Row) (domain.Assessment, error) {
	var (
		a         domain.Assessment
		moduleID  *int64
		timeLimit *int32
	)
	if err := row.Scan(&a.ID, &a.CourseID, &moduleID, &a.Title, &a.Description, &timeLimit, &a.PassingScore, &a.Published); err != nil {
		return domain.Assessment{}, err
	}
	a.ModuleID = moduleID
	if timeLimit != nil {
		minutes := int(*timeLimit)
		a.TimeLimitMinutes = &minutes
	}
	return a, nil
}

func (c *Catalog) loadQuestions(ctx context.Context, a *domain.Assessment) error {
	rows, err := c.pool.Query(ctx, `
		SELECT q.id, q.question_text, q.question_type, q.points,
		       an.id, an.answer_text, an.is_correct, an.explanation
		FROM questions q
		LEFT JOIN answers an ON an.question_id = q.id
		WHERE q.assessment_id = $1
		ORDER BY q.id, an.id`, a.ID)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	a.Questions = make([]domain.Question, 0)
	for rows.Next() {
		var (
			q           domain.Question
			rawType     string
			answerID    *int64
			answerText  *string
			correct     *bool
			explanation *string
		)
		if err := rows.Scan(&q.ID, &q.Text, &rawType, &q.Points, &answerID, &answerText, &correct, &explanation); err != nil {
			return fmt.Errorf("scan question: %w", err)
		}
		if n := len(a.Questions); n == 0 || a.Questions[n-1].ID != q.ID {
			q.AssessmentID = a.ID
			if q.Type, err = domain.ParseQuestionType(rawType); err != nil {
				return fmt.Errorf("question %d: %w", q.ID, err)
			}
			a.Questions = append(a.Questions, q)
		}
		if answerID == nil {
			continue
		}
		current := &a.Questions[len(a.Questions)-1]
		current.Answers = append(current.Answers, domain.Answer{
			ID:          *answerID,
			QuestionID:  current.ID,
			Text:        deref(answerText),
			Correct:     correct != nil && *correct,
			Explanation: explanation,
		})
	}
	return rows.Err()
}

func (c *Catalog) Course(ctx context.Context, id int64) (domain.Course, error) {
	var course domain.Course
	err := c.pool.QueryRow(ctx, `SELECT id, title, creator_id, published FROM courses WHERE id=$1`, id).
		Scan(&course.ID, &course.Title, &course.CreatorID, &course.Published)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Course{}, domain.ErrCourseNotFound
	}
	if err != nil {
		return domain.Course{}, fmt.Errorf("load course: %w", err)
	}
	return course, nil
}

func (c *Catalog) CourseModules(ctx context.Context, courseID int64) ([]domain.Module, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT m.id, m.title, m.order_index, l.id, l.title, l."order"
		FROM modules m
		LEFT JOIN lessons l ON l.module_id = m.id
		WHERE m.course_id = $1
		ORDER BY m.order_index, m.id, l."order", l.id`, courseID)
	if err != nil {
		return nil, fmt.Errorf("load modules: %w", err)
	}
	defer rows.Close()

	modules := make([]domain.Module, 0)
	for rows.Next() {
		var (
			m           domain.Module
			orderIndex  int32
			lessonID    *int64
			lessonTitle *string
			lessonOrder *int32
		)
		if err := rows.Scan(&m.ID, &m.Title, &orderIndex, &lessonID, &lessonTitle, &lessonOrder); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		if n := len(modules); n == 0 || modules[n-1].ID != m.ID {
			m.CourseID = courseID
			m.OrderIndex = int(orderIndex)
			m.Lessons = make([]domain.Lesson, 0)
			modules = append(modules, m)
		}
		if lessonID == nil {
			continue
		}
		current := &modules[len(modules)-1]
		lesson := domain.Lesson{ID: *lessonID, ModuleID: current.ID, CourseID: courseID, Title: deref(lessonTitle)}
		if lessonOrder != nil {
			lesson.Order = int(*lessonOrder)
		}
		current.Lessons = append(current.Lessons, lesson)
	}
	return modules, rows.Err()
}

func (c *Catalog) Lesson(ctx context.Context, id int64) (domain.Lesson, error) {
	var (
		lesson domain.Lesson
		order  int32
	)
	err := c.pool.QueryRow(ctx, `
		SELECT l.id, l.module_id, m.course_id, l.title, l."order"
		FROM lessons l JOIN modules m ON m.id = l.module_id
		WHERE l.id = $1`, id).
		Scan(&lesson.ID, &lesson.ModuleID, &lesson.CourseID, &lesson.Title, &order)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lesson{}, domain.ErrLessonNotFound
	}
	if err != nil {
		return domain.Lesson{}, fmt.Errorf("load lesson: %w", err)
	}
	lesson.Order = int(order)
	return lesson, nil
}

func (c *Catalog) Enrollment(ctx context.Context, userID, courseID int64) (*domain.Enrollment, error) {
	var (
		e      domain.Enrollment
		status string
	)
	err := c.pool.QueryRow(ctx, `SELECT id, user_id, course_id, status FROM enrollments WHERE user_id=$1 AND course_id=$2`, userID, courseID).
		Scan(&e.ID, &e.UserID, &e.CourseID, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load enrollment: %w", err)
	}
	e.Status = domain.EnrollmentStatus(status)
	return &e, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
