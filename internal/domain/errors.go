package domain

import (
	"errors"
	"fmt"
)

// Kind classifies failures so the boundary can map them without string matching.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindInvalidState Kind = "invalid_state"
	KindForbidden    Kind = "forbidden"
	KindValidation   Kind = "validation_error"
)

// Error carries a taxonomy kind plus a human-readable reason.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return string(e.Kind)
	}
	return e.Reason
}

// Is lets errors.Is(err, ErrNotFound) match any error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Reason == "" && t.Kind == e.Kind
}

var (
	// Bare kind sentinels, for errors.Is checks.
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrInvalidState = &Error{Kind: KindInvalidState}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrValidation   = &Error{Kind: KindValidation}
)

var (
	// ErrAssessmentNotFound is returned when the catalog has no such assessment.
	ErrAssessmentNotFound = NotFound("assessment not found")
	// ErrAttemptNotFound is returned when an attempt id does not exist.
	ErrAttemptNotFound = NotFound("assessment submission not found")
	// ErrNoActiveAttempt is returned when a user submits without having started.
	ErrNoActiveAttempt = NotFound("no active assessment found for this user")
	ErrCourseNotFound  = NotFound("course not found")
	ErrLessonNotFound  = NotFound("lesson not found")

	// ErrAlreadySubmitted guards the completed -> * transition.
	ErrAlreadySubmitted = InvalidState("assessment already submitted")

	ErrAssessmentUnpublished = Forbidden("this assessment is not yet published")
	ErrNotEnrolled           = Forbidden("you must be enrolled in this course")
	ErrNotAttemptOwner       = Forbidden("attempt belongs to another user")
	ErrNotCourseManager      = Forbidden("not enough permissions")

	ErrUnknownQuestionType         = Invalid("unknown question type")
	ErrUnknownRole                 = Invalid("unknown role")
	ErrInvalidCompletionPercentage = Invalid("completion percentage must be between 0 and 100")
)

func NotFound(format string, args ...any) error {
	return newError(KindNotFound, format, args...)
}

func InvalidState(format string, args ...any) error {
	return newError(KindInvalidState, format, args...)
}

func Forbidden(format string, args ...any) error {
	return newError(KindForbidden, format, args...)
}

func Invalid(format string, args ...any) error {
	return newError(KindValidation, format, args...)
}

func newError(kind Kind, format string, args ...any) error {
	reason := format
	if len(args) > 0 {
		reason = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: kind, Reason: reason}
}

// KindOf reports the taxonomy kind of err, or "" for unclassified errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
