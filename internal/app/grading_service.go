package app

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"lms-grading-service/internal/domain"
	"lms-grading-service/internal/policy"
)

// GradingService owns the attempt lifecycle: start, submit and result reporting.
type GradingService struct {
	catalog Catalog
	store   Store
	feed    ResultFeed
	metrics Metrics
	log     *zap.Logger
	now     func() time.Time
}

func NewGradingService(catalog Catalog, store Store, opts ...Option) *GradingService {
	o := buildOptions(opts)
	return &GradingService{
		catalog: catalog,
		store:   store,
		feed:    o.feed,
		metrics: o.metrics,
		log:     o.log.Named("grading"),
		now:     o.now,
	}
}

// View returns an assessment for display. Students never see the answer key.
func (s *GradingService) View(ctx context.Context, caller domain.Caller, assessmentID int64) (domain.Assessment, error) {
	assessment, err := s.catalog.Assessment(ctx, assessmentID)
	if err != nil {
		return domain.Assessment{}, err
	}
	if err := policy.CanViewAssessment(caller, assessment); err != nil {
		return domain.Assessment{}, err
	}
	if caller.IsStudent() {
		return withoutAnswerKey(assessment), nil
	}
	return assessment, nil
}

// Start opens an attempt, or returns the caller's attempt that is already in progress.
func (s *GradingService) Start(ctx context.Context, caller domain.Caller, assessmentID int64) (domain.Attempt, error) {
	assessment, err := s.catalog.Assessment(ctx, assessmentID)
	if err != nil {
		return domain.Attempt{}, err
	}
	var enrollment *domain.Enrollment
	if policy.NeedsEnrollment(caller) {
		enrollment, err = s.catalog.Enrollment(ctx, caller.UserID, assessment.CourseID)
		if err != nil {
			return domain.Attempt{}, err
		}
	}
	if err := policy.CanStartAssessment(caller, assessment, enrollment); err != nil {
		return domain.Attempt{}, err
	}

	var (
		attempt domain.Attempt
		created bool
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		existing, err := tx.ActiveAttempt(ctx, caller.UserID, assessmentID)
		if err != nil {
			return err
		}
		if existing != nil {
			attempt = *existing
			return nil
		}
		attempt, created, err = tx.CreateAttempt(ctx, domain.Attempt{
			UserID:       caller.UserID,
			AssessmentID: assessmentID,
			Status:       domain.AttemptInProgress,
			StartedAt:    s.now(),
		})
		return err
	})
	if err != nil {
		return domain.Attempt{}, err
	}

	if created {
		s.metrics.AttemptStarted()
		s.log.Info("attempt started",
			zap.Int64("attempt_id", attempt.ID),
			zap.Int64("user_id", caller.UserID),
			zap.Int64("assessment_id", assessmentID))
	}
	return attempt, nil
}

// Submit grades an in-progress attempt and completes it in a single unit of work.
func (s *GradingService) Submit(ctx context.Context, caller domain.Caller, attemptID int64, answers []domain.SubmittedAnswer) (domain.Attempt, error) {
	var (
		attempt    domain.Attempt
		assessment domain.Assessment
		sheet      gradedSheet
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		attempt, err = tx.AttemptForUpdate(ctx, attemptID)
		if err != nil {
			return err
		}
		if err := policy.CanSubmitAttempt(caller, attempt); err != nil {
			return err
		}
		if attempt.Status != domain.AttemptInProgress {
			return domain.ErrAlreadySubmitted
		}

		assessment, err = s.catalog.Assessment(ctx, attempt.AssessmentID)
		if err != nil {
			return err
		}

		sheet = grade(assessment, answers)
		for i := range sheet.answers {
			sheet.answers[i].AttemptID = attempt.ID
		}
		if _, err := tx.InsertAttemptAnswers(ctx, sheet.answers); err != nil {
			return err
		}

		ended := s.now()
		score := sheet.score
		attempt.Status = domain.AttemptCompleted
		attempt.Score = &score
		attempt.EndedAt = &ended
		return tx.CompleteAttempt(ctx, attempt)
	})
	if err != nil {
		if kind := domain.KindOf(err); kind != "" {
			s.metrics.SubmissionRejected(kind)
		}
		return domain.Attempt{}, err
	}

	passed := assessment.Passed(sheet.score)
	s.metrics.AttemptGraded(sheet.score, passed)
	s.log.Info("attempt graded",
		zap.Int64("attempt_id", attempt.ID),
		zap.Int64("user_id", attempt.UserID),
		zap.Int64("assessment_id", assessment.ID),
		zap.Float64("earned_points", sheet.earnedPoints),
		zap.Float64("total_points", sheet.totalPoints),
		zap.Float64("score", sheet.score))

	event := domain.AttemptGraded{
		CourseID:        assessment.CourseID,
		AttemptID:       attempt.ID,
		UserID:          attempt.UserID,
		AssessmentID:    assessment.ID,
		AssessmentTitle: assessment.Title,
		Score:           sheet.score,
		Passed:          passed,
		CompletedAt:     *attempt.EndedAt,
	}
	// published after commit; never fails the submission
	if err := s.feed.Publish(ctx, event); err != nil {
		s.log.Warn("publish graded attempt", zap.Int64("attempt_id", attempt.ID), zap.Error(err))
	}
	return attempt, nil
}

// SubmitActive submits the caller's in-progress attempt for an assessment.
func (s *GradingService) SubmitActive(ctx context.Context, caller domain.Caller, assessmentID int64, answers []domain.SubmittedAnswer) (domain.Attempt, error) {
	var active *domain.Attempt
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		active, err = tx.ActiveAttempt(ctx, caller.UserID, assessmentID)
		return err
	})
	if err != nil {
		return domain.Attempt{}, err
	}
	if active == nil {
		return domain.Attempt{}, domain.ErrNoActiveAttempt
	}
	return s.Submit(ctx, caller, active.ID, answers)
}

// AttemptAnswers returns the graded answer records of the caller's own attempt.
func (s *GradingService) AttemptAnswers(ctx context.Context, caller domain.Caller, attemptID int64) ([]domain.AttemptAnswer, error) {
	var answers []domain.AttemptAnswer
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		attempt, err := tx.Attempt(ctx, attemptID)
		if err != nil {
			return err
		}
		if err := policy.CanSubmitAttempt(caller, attempt); err != nil {
			return err
		}
		answers, err = tx.AttemptAnswers(ctx, attemptID)
		return err
	})
	return answers, err
}

// Results summarizes the caller's completed attempts per assessment, latest completion first.
func (s *GradingService) Results(ctx context.Context, caller domain.Caller, page domain.Page) ([]domain.AssessmentResultSummary, error) {
	page = page.Normalize()

	var attempts []domain.Attempt
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		attempts, err = tx.CompletedAttemptsByUser(ctx, caller.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	type standing struct {
		latest domain.Attempt
		count  int
	}
	byAssessment := make(map[int64]*standing)
	order := make([]int64, 0)
	for _, attempt := range attempts {
		st, ok := byAssessment[attempt.AssessmentID]
		if !ok {
			st = &standing{}
			byAssessment[attempt.AssessmentID] = st
			order = append(order, attempt.AssessmentID)
		}
		st.count++
		// attempts arrive in completion order, so the last one seen is the latest
		st.latest = attempt
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := byAssessment[order[i]].latest, byAssessment[order[j]].latest
		if !a.EndedAt.Equal(*b.EndedAt) {
			return a.EndedAt.After(*b.EndedAt)
		}
		return a.ID > b.ID
	})

	if page.Skip >= len(order) {
		return []domain.AssessmentResultSummary{}, nil
	}
	order = order[page.Skip:]
	if len(order) > page.Limit {
		order = order[:page.Limit]
	}

	courseTitles := make(map[int64]string)
	summaries := make([]domain.AssessmentResultSummary, 0, len(order))
	for _, assessmentID := range order {
		st := byAssessment[assessmentID]
		assessment, err := s.catalog.Assessment(ctx, assessmentID)
		if err != nil {
			return nil, err
		}
		title, ok := courseTitles[assessment.CourseID]
		if !ok {
			course, err := s.catalog.Course(ctx, assessment.CourseID)
			if err != nil {
				return nil, err
			}
			title = course.Title
			courseTitles[assessment.CourseID] = title
		}

		score := scoreOf(st.latest)
		summaries = append(summaries, domain.AssessmentResultSummary{
			AssessmentID:    assessmentID,
			AssessmentTitle: assessment.Title,
			CourseTitle:     title,
			Latest: domain.AttemptResult{
				AttemptID:     st.latest.ID,
				Score:         score,
				Passed:        assessment.Passed(score),
				AttemptNumber: st.count,
				CompletedAt:   *st.latest.EndedAt,
			},
			AttemptCount: st.count,
		})
	}
	return summaries, nil
}

// CourseResults lists every graded attempt across a course's assessments for its managers.
func (s *GradingService) CourseResults(ctx context.Context, caller domain.Caller, courseID int64) ([]domain.AttemptGraded, error) {
	course, err := s.catalog.Course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanViewCourseResults(caller, course); err != nil {
		return nil, err
	}

	assessments, err := s.catalog.AssessmentsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if len(assessments) == 0 {
		return []domain.AttemptGraded{}, nil
	}
	byID := make(map[int64]domain.Assessment, len(assessments))
	ids := make([]int64, 0, len(assessments))
	for _, a := range assessments {
		byID[a.ID] = a
		ids = append(ids, a.ID)
	}

	var attempts []domain.Attempt
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		attempts, err = tx.CompletedAttemptsByAssessments(ctx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}

	results := make([]domain.AttemptGraded, 0, len(attempts))
	for _, attempt := range attempts {
		assessment := byID[attempt.AssessmentID]
		score := scoreOf(attempt)
		results = append(results, domain.AttemptGraded{
			CourseID:        courseID,
			AttemptID:       attempt.ID,
			UserID:          attempt.UserID,
			AssessmentID:    attempt.AssessmentID,
			AssessmentTitle: assessment.Title,
			Score:           score,
			Passed:          assessment.Passed(score),
			CompletedAt:     *attempt.EndedAt,
		})
	}
	return results, nil
}

// SubscribeCourseResults streams graded attempts of a course to its managers.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *GradingService) SubscribeCourseResults(ctx context.Context, caller domain.Caller, courseID int64) (<-chan domain.AttemptGraded, func(), error) {
	course, err := s.catalog.Course(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}
	if err := policy.CanViewCourseResults(caller, course); err != nil {
		return nil, nil, err
	}
	return s.feed.Subscribe(ctx, courseID)
}

func scoreOf(attempt domain.Attempt) float64 {
	if attempt.Score == nil {
		return 0
	}
	return *attempt.Score
}

// withoutAnswerKey copies the assessment so cached definitions are never mutated.
func withoutAnswerKey(a domain.Assessment) domain.Assessment {
	questions := make([]domain.Question, len(a.Questions))
	for i, q := range a.Questions {
		answers := make([]domain.Answer, len(q.Answers))
		for j, opt := range q.Answers {
			answers[j] = domain.Answer{ID: opt.ID, QuestionID: opt.QuestionID, Text: opt.Text}
		}
		q.Answers = answers
		questions[i] = q
	}
	a.Questions = questions
	return a
}
