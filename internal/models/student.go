package models

import "time"

// Student represents a learner registered with the registrar. The student id is
// the canonical key every enrollment writer resolves to; user_id links back to
// the login account when one exists.
type Student struct {
	ID              string    `db:"id" json:"id"`
	UserID          *string   `db:"user_id" json:"user_id,omitempty"`
	LRN             string    `db:"lrn" json:"lrn"`
	FirstName       string    `db:"first_name" json:"first_name"`
	MiddleName      string    `db:"middle_name" json:"middle_name"`
	LastName        string    `db:"last_name" json:"last_name"`
	Sex             string    `db:"sex" json:"sex"`
	BirthDate       time.Time `db:"birth_date" json:"birth_date"`
	Address         string    `db:"address" json:"address"`
	GuardianName    string    `db:"guardian_name" json:"guardian_name"`
	GuardianContact string    `db:"guardian_contact" json:"guardian_contact"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// FullName joins the student name parts for display and COR rendering.
func (s Student) FullName() string {
	name := s.LastName + ", " + s.FirstName
	if s.MiddleName != "" {
		name += " " + s.MiddleName
	}
	return name
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search       string
	SectionID    string
	SchoolYearID string
	Active       *bool
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// StudentDetail contains student information with current enrollment context.
type StudentDetail struct {
	Student
	CurrentEnrollmentID *string           `db:"current_enrollment_id" json:"current_enrollment_id,omitempty"`
	CurrentStatus       *EnrollmentStatus `db:"current_status" json:"current_status,omitempty"`
	CurrentSectionID    *string           `db:"current_section_id" json:"current_section_id,omitempty"`
	CurrentSectionName  *string           `db:"current_section_name" json:"current_section_name,omitempty"`
	CurrentStrandCode   *string           `db:"current_strand_code" json:"current_strand_code,omitempty"`
}
