package models

import "time"

// PassingGrade is the DepEd passing threshold for semester grades.
const PassingGrade = 75.0

// GradeApprovalStatus tracks whether a grade has been approved for release.
type GradeApprovalStatus string

// Possible grade approval statuses.
const (
	GradeApprovalPending  GradeApprovalStatus = "pending"
	GradeApprovalApproved GradeApprovalStatus = "approved"
)

// Grade stores quarter scores and the computed semester grade for one
// enrollment and subject.
type Grade struct {
	ID             string              `db:"id" json:"id"`
	EnrollmentID   string              `db:"enrollment_id" json:"enrollment_id"`
	SubjectID      string              `db:"subject_id" json:"subject_id"`
	Semester       string              `db:"semester" json:"semester"`
	FirstQuarter   *float64            `db:"first_quarter" json:"first_quarter,omitempty"`
	SecondQuarter  *float64            `db:"second_quarter" json:"second_quarter,omitempty"`
	SemesterGrade  *float64            `db:"semester_grade" json:"semester_grade,omitempty"`
	ApprovalStatus GradeApprovalStatus `db:"approval_status" json:"approval_status"`
	Remarks        *string             `db:"remarks" json:"remarks,omitempty"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `db:"updated_at" json:"updated_at"`
}

// Passed reports whether the semester grade meets the passing threshold. A
// missing semester grade counts as failed for progression purposes.
func (g Grade) Passed() bool {
	return g.SemesterGrade != nil && *g.SemesterGrade >= PassingGrade
}

// GradeDetail enriches a grade with subject context for reports.
type GradeDetail struct {
	Grade
	SubjectCode string `db:"subject_code" json:"subject_code"`
	SubjectName string `db:"subject_name" json:"subject_name"`
}

// GradeFilter allows querying of grade entries.
type GradeFilter struct {
	EnrollmentID   string
	SubjectID      string
	Semester       string
	ApprovalStatus GradeApprovalStatus
}

// ProgressionOutcome classifies a student's year-end standing.
type ProgressionOutcome string

// Possible progression outcomes.
const (
	ProgressionPromoted       ProgressionOutcome = "promoted"
	ProgressionSummerEligible ProgressionOutcome = "summer_eligible"
	ProgressionRetained       ProgressionOutcome = "retained"
)

// ProgressionResult is the derived summer-eligibility classification for a
// student within a school year. Pure projection over approved grades.
type ProgressionResult struct {
	StudentID      string             `json:"student_id"`
	SchoolYearID   string             `json:"school_year_id"`
	FailedCount    int                `json:"failed_count"`
	FailedSubjects []GradeDetail      `json:"failed_subjects,omitempty"`
	Outcome        ProgressionOutcome `json:"outcome"`
}
