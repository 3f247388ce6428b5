package domain

import "time"

// DefaultCompletionPercentage is stored when a lesson is marked complete without a percentage.
const DefaultCompletionPercentage = 100

// QuestionType is the closed set of supported question kinds.
type QuestionType int

const (
	MultipleChoice QuestionType = iota + 1
	TrueFalse
	ShortAnswer
)

// ParseQuestionType maps the stored discriminator onto a QuestionType.
func ParseQuestionType(raw string) (QuestionType, error) {
	switch raw {
	case "mcq":
		return MultipleChoice, nil
	case "true_false":
		return TrueFalse, nil
	case "short_answer":
		return ShortAnswer, nil
	}
	return 0, Invalid("unknown question type %q", raw)
}

func (t QuestionType) String() string {
	switch t {
	case MultipleChoice:
		return "mcq"
	case TrueFalse:
		return "true_false"
	case ShortAnswer:
		return "short_answer"
	}
	return "unknown"
}

// AutoGradable reports whether answers can be matched against the stored key.
func (t QuestionType) AutoGradable() bool {
	switch t {
	case MultipleChoice, TrueFalse:
		return true
	case ShortAnswer:
		return false
	}
	return false
}

func (t QuestionType) MarshalText() ([]byte, error) {
	if t.String() == "unknown" {
		return nil, ErrUnknownQuestionType
	}
	return []byte(t.String()), nil
}

func (t *QuestionType) UnmarshalText(text []byte) error {
	parsed, err := ParseQuestionType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Course is the root of the content tree.
type Course struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	CreatorID int64  `json:"creatorId"`
	Published bool   `json:"published"`
}

// Module groups lessons within a course.
type Module struct {
	ID         int64    `json:"id"`
	CourseID   int64    `json:"courseId"`
	Title      string   `json:"title"`
	OrderIndex int      `json:"orderIndex"`
	Lessons    []Lesson `json:"lessons,omitempty"`
}

// Lesson is a leaf of the content tree. CourseID is denormalized from its module.
type Lesson struct {
	ID       int64  `json:"id"`
	ModuleID int64  `json:"moduleId"`
	CourseID int64  `json:"courseId"`
	Title    string `json:"title"`
	Order    int    `json:"order"`
}

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentWithdrawn EnrollmentStatus = "withdrawn"
)

// Enrollment grants a student access to a course.
type Enrollment struct {
	ID       int64            `json:"id"`
	UserID   int64            `json:"userId"`
	CourseID int64            `json:"courseId"`
	Status   EnrollmentStatus `json:"status"`
}

func (e Enrollment) Active() bool {
	return e.Status == EnrollmentActive
}

// Assessment is a scored test attached to a course (and optionally a module).
type Assessment struct {
	ID               int64      `json:"id"`
	CourseID         int64      `json:"courseId"`
	ModuleID         *int64     `json:"moduleId,omitempty"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	TimeLimitMinutes *int       `json:"timeLimitMinutes,omitempty"`
	PassingScore     float64    `json:"passingScore"`
	Published        bool       `json:"published"`
	Questions        []Question `json:"questions,omitempty"`
}

// Passed reports whether a percentage score meets the passing threshold.
func (a Assessment) Passed(score float64) bool {
	return score >= a.PassingScore
}

type Question struct {
	ID           int64        `json:"id"`
	AssessmentID int64        `json:"assessmentId"`
	Text         string       `json:"text"`
	Type         QuestionType `json:"type"`
	Points       float64      `json:"points"`
	Answers      []Answer     `json:"answers,omitempty"`
}

// Answer is one option of a multiple-choice or true/false question.
type Answer struct {
	ID          int64   `json:"id"`
	QuestionID  int64   `json:"questionId"`
	Text        string  `json:"text"`
	Correct     bool    `json:"correct"`
	Explanation *string `json:"explanation,omitempty"`
}

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
)

// Attempt is one user's run through an assessment.
type Attempt struct {
	ID           int64         `json:"id"`
	UserID       int64         `json:"userId"`
	AssessmentID int64         `json:"assessmentId"`
	Status       AttemptStatus `json:"status"`
	Score        *float64      `json:"score"`
	StartedAt    time.Time     `json:"startedAt"`
	EndedAt      *time.Time    `json:"endedAt"`
}

// AttemptAnswer is the audit record of a single submitted answer.
// IsCorrect and PointsEarned stay nil for answers that are not auto-graded.
type AttemptAnswer struct {
	ID           int64    `json:"id"`
	AttemptID    int64    `json:"attemptId"`
	QuestionID   int64    `json:"questionId"`
	AnswerID     *int64   `json:"answerId,omitempty"`
	TextAnswer   *string  `json:"textAnswer,omitempty"`
	IsCorrect    *bool    `json:"isCorrect"`
	PointsEarned *float64 `json:"pointsEarned"`
}

// SubmittedAnswer is one entry of a learner's submission.
type SubmittedAnswer struct {
	QuestionID int64   `json:"questionId"`
	AnswerID   *int64  `json:"answerId,omitempty"`
	TextAnswer *string `json:"textAnswer,omitempty"`
}

// LessonCompletion is unique per (user, lesson).
type LessonCompletion struct {
	ID                   int64     `json:"id"`
	UserID               int64     `json:"userId"`
	LessonID             int64     `json:"lessonId"`
	Notes                *string   `json:"notes,omitempty"`
	CompletionPercentage int       `json:"completionPercentage"`
	CompletedAt          time.Time `json:"completedAt"`
}

// LessonCompletionInput carries the fields a caller chose to set; nil fields are left untouched on update.
type LessonCompletionInput struct {
	Notes                *string `json:"notes,omitempty"`
	CompletionPercentage *int    `json:"completionPercentage,omitempty"`
}

func (in LessonCompletionInput) Validate() error {
	if in.CompletionPercentage != nil && (*in.CompletionPercentage < 0 || *in.CompletionPercentage > 100) {
		return ErrInvalidCompletionPercentage
	}
	return nil
}
