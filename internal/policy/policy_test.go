package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms-grading-service/internal/domain"
)

var (
	student    = domain.Caller{UserID: 1, Role: domain.RoleStudent}
	instructor = domain.Caller{UserID: 2, Role: domain.RoleInstructor}
	admin      = domain.Caller{UserID: 3, Role: domain.RoleAdmin}
)

func TestCanModifyCourse(t *testing.T) {
	course := domain.Course{ID: 10, CreatorID: instructor.UserID}

	assert.NoError(t, CanModifyCourse(instructor, course))
	assert.NoError(t, CanModifyCourse(admin, course))
	assert.ErrorIs(t, CanModifyCourse(student, course), domain.ErrForbidden)

	other := domain.Caller{UserID: 99, Role: domain.RoleInstructor}
	assert.ErrorIs(t, CanModifyCourse(other, course), domain.ErrNotCourseManager)
	assert.ErrorIs(t, CanViewCourseResults(other, course), domain.ErrForbidden)
}

func TestCanViewAssessment(t *testing.T) {
	draft := domain.Assessment{ID: 1, Published: false}
	live := domain.Assessment{ID: 2, Published: true}

	assert.ErrorIs(t, CanViewAssessment(student, draft), domain.ErrAssessmentUnpublished)
	assert.NoError(t, CanViewAssessment(student, live))
	assert.NoError(t, CanViewAssessment(instructor, draft))
	assert.NoError(t, CanViewAssessment(admin, draft))
}

func TestRequireEnrollment(t *testing.T) {
	active := &domain.Enrollment{UserID: student.UserID, CourseID: 10, Status: domain.EnrollmentActive}
	withdrawn := &domain.Enrollment{UserID: student.UserID, CourseID: 10, Status: domain.EnrollmentWithdrawn}

	cases := []struct {
		name       string
		caller     domain.Caller
		enrollment *domain.Enrollment
		wantErr    bool
	}{
		{"student active", student, active, false},
		{"student missing", student, nil, true},
		{"student withdrawn", student, withdrawn, true},
		{"instructor bypass", instructor, nil, false},
		{"admin bypass", admin, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := RequireEnrollment(tc.caller, tc.enrollment)
			if tc.wantErr {
				require.ErrorIs(t, err, domain.ErrNotEnrolled)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCanStartAssessmentRequiresPublished(t *testing.T) {
	draft := domain.Assessment{ID: 1}
	err := CanStartAssessment(admin, draft, nil)
	require.ErrorIs(t, err, domain.ErrAssessmentUnpublished)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	live := domain.Assessment{ID: 1, Published: true}
	require.NoError(t, CanStartAssessment(admin, live, nil))
	require.ErrorIs(t, CanStartAssessment(student, live, nil), domain.ErrNotEnrolled)
}

func TestCanSubmitAttempt(t *testing.T) {
	attempt := domain.Attempt{ID: 5, UserID: student.UserID}
	assert.NoError(t, CanSubmitAttempt(student, attempt))
	assert.ErrorIs(t, CanSubmitAttempt(admin, attempt), domain.ErrNotAttemptOwner)
}
