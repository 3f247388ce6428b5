// Package policy holds the role-based access rules the engine enforces before any mutation.
// Every function is a pure predicate over an already-resolved caller and resource.
package policy

import "lms-grading-service/internal/domain"

// CanModifyCourse allows the course creator and admins.
func CanModifyCourse(caller domain.Caller, course domain.Course) error {
	if caller.IsAdmin() || caller.UserID == course.CreatorID {
		return nil
	}
	return domain.ErrNotCourseManager
}

// CanViewCourseResults gates course-wide result listings and the live results feed.
func CanViewCourseResults(caller domain.Caller, course domain.Course) error {
	return CanModifyCourse(caller, course)
}

// CanViewAssessment hides unpublished assessments from students.
func CanViewAssessment(caller domain.Caller, assessment domain.Assessment) error {
	if caller.IsStudent() && !assessment.Published {
		return domain.ErrAssessmentUnpublished
	}
	return nil
}

// NeedsEnrollment reports whether the caller's role is subject to enrollment checks.
func NeedsEnrollment(caller domain.Caller) bool {
	return caller.IsStudent()
}

// RequireEnrollment rejects students without an active enrollment; staff bypass it.
func RequireEnrollment(caller domain.Caller, enrollment *domain.Enrollment) error {
	if !NeedsEnrollment(caller) {
		return nil
	}
	if enrollment == nil || !enrollment.Active() {
		return domain.ErrNotEnrolled
	}
	return nil
}

// CanStartAssessment requires a published assessment, for every role, plus enrollment for students.
func CanStartAssessment(caller domain.Caller, assessment domain.Assessment, enrollment *domain.Enrollment) error {
	if !assessment.Published {
		return domain.ErrAssessmentUnpublished
	}
	return RequireEnrollment(caller, enrollment)
}

// CanSubmitAttempt restricts submission to the attempt's owner.
func CanSubmitAttempt(caller domain.Caller, attempt domain.Attempt) error {
	if attempt.UserID != caller.UserID {
		return domain.ErrNotAttemptOwner
	}
	return nil
}
