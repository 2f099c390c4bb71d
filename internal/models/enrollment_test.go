package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionLifecycle(t *testing.T) {
	cases := []struct {
		name string
		from EnrollmentStatus
		to   EnrollmentStatus
		role UserRole
		want bool
	}{
		{"registrar approves pending", EnrollmentStatusPendingApproval, EnrollmentStatusApproved, RoleRegistrar, true},
		{"coordinator approves pending", EnrollmentStatusPendingApproval, EnrollmentStatusApproved, RoleCoordinator, true},
		{"registrar enrolls directly", EnrollmentStatusPendingApproval, EnrollmentStatusEnrolled, RoleRegistrar, true},
		{"faculty cannot approve", EnrollmentStatusPendingApproval, EnrollmentStatusApproved, RoleFaculty, false},
		{"student cannot approve", EnrollmentStatusPendingApproval, EnrollmentStatusApproved, RoleStudent, false},
		{"coordinator evaluates transferee", EnrollmentStatusPendingEvaluation, EnrollmentStatusEvaluated, RoleCoordinator, true},
		{"registrar cannot evaluate", EnrollmentStatusPendingEvaluation, EnrollmentStatusEvaluated, RoleRegistrar, false},
		{"evaluated can be approved", EnrollmentStatusEvaluated, EnrollmentStatusApproved, RoleRegistrar, true},
		{"approved finalizes to enrolled", EnrollmentStatusApproved, EnrollmentStatusEnrolled, RoleRegistrar, true},
		{"student resubmits returned", EnrollmentStatusReturned, EnrollmentStatusPendingApproval, RoleStudent, true},
		{"returned transferee resubmits to evaluation", EnrollmentStatusReturned, EnrollmentStatusPendingEvaluation, RoleStudent, true},
		{"rejected is terminal", EnrollmentStatusRejected, EnrollmentStatusPendingApproval, RoleRegistrar, false},
		{"enrolled is terminal", EnrollmentStatusEnrolled, EnrollmentStatusApproved, RoleRegistrar, false},
		{"no skipping evaluation", EnrollmentStatusPendingEvaluation, EnrollmentStatusApproved, RoleRegistrar, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to, tc.role))
		})
	}
}

func TestCanTransitionSuperAdminBypassesRoleNotTable(t *testing.T) {
	// A superadmin may perform any transition the table allows for anyone.
	assert.True(t, CanTransition(EnrollmentStatusPendingEvaluation, EnrollmentStatusEvaluated, RoleSuperAdmin))
	// But never a transition the table forbids outright.
	assert.False(t, CanTransition(EnrollmentStatusRejected, EnrollmentStatusApproved, RoleSuperAdmin))
	assert.False(t, CanTransition(EnrollmentStatusEnrolled, EnrollmentStatusRejected, RoleSuperAdmin))
}

func TestGradePassed(t *testing.T) {
	passing := 88.0
	failing := 74.9
	exact := PassingGrade

	assert.True(t, Grade{SemesterGrade: &passing}.Passed())
	assert.True(t, Grade{SemesterGrade: &exact}.Passed())
	assert.False(t, Grade{SemesterGrade: &failing}.Passed())
	assert.False(t, Grade{}.Passed(), "missing semester grade counts as failed")
}

func TestStudentFullName(t *testing.T) {
	s := Student{FirstName: "Juan", MiddleName: "Reyes", LastName: "Dela Cruz"}
	assert.Equal(t, "Dela Cruz, Juan Reyes", s.FullName())

	noMiddle := Student{FirstName: "Maria", LastName: "Santos"}
	assert.Equal(t, "Santos, Maria", noMiddle.FullName())
}
