package models

import "time"

// RegistrationLine is a roster entry linking an enrollment to a schedule slot.
// The (slot_id, enrollment_id) pair is unique, which is what makes class
// materialization idempotent.
type RegistrationLine struct {
	ID           string    `db:"id" json:"id"`
	SlotID       string    `db:"slot_id" json:"slot_id"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	IsEnrolled   bool      `db:"is_enrolled" json:"is_enrolled"`
	EnrolledAt   time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// CORLine is one printable row of a certificate of registration, projected
// from RegistrationLine joined with its slot and subject at read time.
type CORLine struct {
	SubjectCode string  `db:"subject_code" json:"subject_code"`
	SubjectName string  `db:"subject_name" json:"subject_name"`
	Units       int     `db:"units" json:"units"`
	Semester    string  `db:"semester" json:"semester"`
	DayOfWeek   string  `db:"day_of_week" json:"day_of_week"`
	StartTime   string  `db:"start_time" json:"start_time"`
	EndTime     string  `db:"end_time" json:"end_time"`
	Room        string  `db:"room" json:"room"`
	FacultyName *string `db:"faculty_name" json:"faculty_name,omitempty"`
}

// COR is the full certificate of registration for one enrollment.
type COR struct {
	RegistrationNumber string    `json:"registration_number"`
	StudentName        string    `json:"student_name"`
	StudentLRN         string    `json:"student_lrn"`
	GradeLevel         int       `json:"grade_level"`
	StrandCode         string    `json:"strand_code"`
	SectionName        string    `json:"section_name"`
	SchoolYear         string    `json:"school_year"`
	EnrolledAt         time.Time `json:"enrolled_at"`
	Lines              []CORLine `json:"lines"`
}

// RosterEntry is one student row of a section roster report.
type RosterEntry struct {
	EnrollmentID       string  `db:"enrollment_id" json:"enrollment_id"`
	StudentID          string  `db:"student_id" json:"student_id"`
	StudentName        string  `db:"student_name" json:"student_name"`
	StudentLRN         string  `db:"student_lrn" json:"student_lrn"`
	RegistrationNumber *string `db:"registration_number" json:"registration_number,omitempty"`
	Status             string  `db:"status" json:"status"`
}
