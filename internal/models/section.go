package models

import "time"

// Section represents a fixed cohort of students within a strand and grade
// level. Capacity is enforced at approval time, not continuously.
type Section struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	StrandID     string    `db:"strand_id" json:"strand_id"`
	GradeLevel   int       `db:"grade_level" json:"grade_level"`
	Capacity     int       `db:"capacity" json:"capacity"`
	SchoolYearID string    `db:"school_year_id" json:"school_year_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// SectionDetail enriches Section with strand info and the live enrolled count.
type SectionDetail struct {
	Section
	StrandCode    string `db:"strand_code" json:"strand_code"`
	StrandName    string `db:"strand_name" json:"strand_name"`
	EnrolledCount int    `db:"enrolled_count" json:"enrolled_count"`
}

// SectionFilter describes query params for listing sections.
type SectionFilter struct {
	StrandID     string
	SchoolYearID string
	GradeLevel   int
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
