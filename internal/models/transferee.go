package models

import "time"

// TransfereePreviousSchool records where a transferee studied before, one row
// per student.
type TransfereePreviousSchool struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	SchoolName     string    `db:"school_name" json:"school_name"`
	SchoolAddress  string    `db:"school_address" json:"school_address"`
	LastGradeLevel int       `db:"last_grade_level" json:"last_grade_level"`
	LastSchoolYear string    `db:"last_school_year" json:"last_school_year"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// TransfereeCreditedSubject marks a subject the coordinator credited from the
// previous school, exempting the student from retaking it. SchoolYear is never
// null; evaluation supplies a fallback when no school year is active.
type TransfereeCreditedSubject struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	SubjectID  string    `db:"subject_id" json:"subject_id"`
	Semester   string    `db:"semester" json:"semester"`
	SchoolYear string    `db:"school_year" json:"school_year"`
	Grade      float64   `db:"grade" json:"grade"`
	Remarks    *string   `db:"remarks" json:"remarks,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// TransfereeEvaluationDetail bundles the evaluation state for display.
type TransfereeEvaluationDetail struct {
	Enrollment       EnrollmentDetail            `json:"enrollment"`
	PreviousSchool   *TransfereePreviousSchool   `json:"previous_school,omitempty"`
	CreditedSubjects []TransfereeCreditedSubject `json:"credited_subjects"`
}
