package models

import "time"

// Semester constants used by subjects, schedule slots and grades.
const (
	SemesterFirst  = "1st"
	SemesterSecond = "2nd"
)

// Subject represents an academic subject. Core subjects carry no strand id;
// specialized subjects belong to a single strand.
type Subject struct {
	ID         string    `db:"id" json:"id"`
	Code       string    `db:"code" json:"code"`
	Name       string    `db:"name" json:"name"`
	StrandID   *string   `db:"strand_id" json:"strand_id,omitempty"`
	GradeLevel int       `db:"grade_level" json:"grade_level"`
	Semester   string    `db:"semester" json:"semester"`
	Units      int       `db:"units" json:"units"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	StrandID   string
	GradeLevel int
	Semester   string
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
