package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment application.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusPendingApproval   EnrollmentStatus = "pending_approval"
	EnrollmentStatusPendingEvaluation EnrollmentStatus = "pending_evaluation"
	EnrollmentStatusApproved          EnrollmentStatus = "approved"
	EnrollmentStatusEvaluated         EnrollmentStatus = "evaluated"
	EnrollmentStatusEnrolled          EnrollmentStatus = "enrolled"
	EnrollmentStatusRejected          EnrollmentStatus = "rejected"
	EnrollmentStatusReturned          EnrollmentStatus = "returned"
)

// EnrollmentType distinguishes how the application entered the system.
type EnrollmentType string

// Possible enrollment types.
const (
	EnrollmentTypeRegular         EnrollmentType = "regular"
	EnrollmentTypeTransferee      EnrollmentType = "transferee"
	EnrollmentTypeSummer          EnrollmentType = "summer"
	EnrollmentTypeAutoProgression EnrollmentType = "auto_progression"
)

// EnrollmentMethod records whether the student applied or was auto-enrolled.
type EnrollmentMethod string

// Possible enrollment methods.
const (
	EnrollmentMethodSelf EnrollmentMethod = "self"
	EnrollmentMethodAuto EnrollmentMethod = "auto"
)

// transitionTable enumerates every legal status transition together with the
// roles allowed to perform it. Anything not listed is rejected outright
// instead of being left to per-handler conditionals.
var transitionTable = map[EnrollmentStatus]map[EnrollmentStatus][]UserRole{
	EnrollmentStatusPendingApproval: {
		EnrollmentStatusApproved: {RoleCoordinator, RoleRegistrar},
		EnrollmentStatusEnrolled: {RoleCoordinator, RoleRegistrar},
		EnrollmentStatusRejected: {RoleCoordinator, RoleRegistrar},
		EnrollmentStatusReturned: {RoleCoordinator, RoleRegistrar},
	},
	EnrollmentStatusPendingEvaluation: {
		EnrollmentStatusEvaluated: {RoleCoordinator},
		EnrollmentStatusRejected:  {RoleCoordinator, RoleRegistrar},
		EnrollmentStatusReturned:  {RoleCoordinator, RoleRegistrar},
	},
	EnrollmentStatusEvaluated: {
		EnrollmentStatusApproved: {RoleCoordinator, RoleRegistrar},
		EnrollmentStatusEnrolled: {RoleCoordinator, RoleRegistrar},
		EnrollmentStatusRejected: {RoleCoordinator, RoleRegistrar},
	},
	EnrollmentStatusApproved: {
		EnrollmentStatusEnrolled: {RoleCoordinator, RoleRegistrar},
	},
	EnrollmentStatusReturned: {
		EnrollmentStatusPendingApproval:   {RoleStudent, RoleRegistrar},
		EnrollmentStatusPendingEvaluation: {RoleStudent, RoleRegistrar},
	},
	// rejected is terminal: reapplying creates a new enrollment row.
}

// CanTransition reports whether role may move an enrollment from one status to
// another according to the transition table. Superadmins bypass role checks
// but not the table itself.
func CanTransition(from, to EnrollmentStatus, role UserRole) bool {
	targets, ok := transitionTable[from]
	if !ok {
		return false
	}
	roles, ok := targets[to]
	if !ok {
		return false
	}
	if role == RoleSuperAdmin {
		return true
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Enrollment captures one student's application for a school year. It is the
// aggregate root of the enrollment lifecycle; strand preferences, documents
// and registration lines hang off it.
type Enrollment struct {
	ID                 string           `db:"id" json:"id"`
	StudentID          string           `db:"student_id" json:"student_id"`
	SchoolYearID       string           `db:"school_year_id" json:"school_year_id"`
	StrandID           *string          `db:"strand_id" json:"strand_id,omitempty"`
	SectionID          *string          `db:"section_id" json:"section_id,omitempty"`
	GradeLevel         int              `db:"grade_level" json:"grade_level"`
	Status             EnrollmentStatus `db:"status" json:"status"`
	Type               EnrollmentType   `db:"enrollment_type" json:"enrollment_type"`
	Method             EnrollmentMethod `db:"enrollment_method" json:"enrollment_method"`
	ReviewerID         *string          `db:"reviewer_id" json:"reviewer_id,omitempty"`
	ReviewNotes        *string          `db:"review_notes" json:"review_notes,omitempty"`
	RejectionReason    *string          `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ReturnReason       *string          `db:"return_reason" json:"return_reason,omitempty"`
	RegistrationNumber *string          `db:"registration_number" json:"registration_number,omitempty"`
	SubmittedAt        time.Time        `db:"submitted_at" json:"submitted_at"`
	ReviewedAt         *time.Time       `db:"reviewed_at" json:"reviewed_at,omitempty"`
	EnrolledAt         *time.Time       `db:"enrolled_at" json:"enrolled_at,omitempty"`
}

// EnrollmentDetail enriches Enrollment with student and assignment context.
type EnrollmentDetail struct {
	Enrollment
	StudentName    string               `db:"student_name" json:"student_name"`
	StudentLRN     string               `db:"student_lrn" json:"student_lrn"`
	SchoolYearName string               `db:"school_year_name" json:"school_year_name"`
	StrandCode     *string              `db:"strand_code" json:"strand_code,omitempty"`
	SectionName    *string              `db:"section_name" json:"section_name,omitempty"`
	Preferences    []StrandPreference   `json:"preferences,omitempty"`
	Documents      []EnrollmentDocument `json:"documents,omitempty"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID    string
	SchoolYearID string
	StrandID     string
	SectionID    string
	Status       EnrollmentStatus
	Type         EnrollmentType
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// DocumentKind identifies the uploaded document categories accepted with an
// application.
type DocumentKind string

// Accepted document kinds.
const (
	DocumentPSABirthCertificate DocumentKind = "psa_birth_certificate"
	DocumentReportCard          DocumentKind = "report_card"
	DocumentGoodMoral           DocumentKind = "good_moral"
)

// EnrollmentDocument records the stored path of an uploaded requirement.
type EnrollmentDocument struct {
	ID           string       `db:"id" json:"id"`
	EnrollmentID string       `db:"enrollment_id" json:"enrollment_id"`
	Kind         DocumentKind `db:"kind" json:"kind"`
	Path         string       `db:"path" json:"path"`
	UploadedAt   time.Time    `db:"uploaded_at" json:"uploaded_at"`
}
