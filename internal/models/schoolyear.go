package models

import "time"

// SchoolYear models one academic year (e.g. "2025-2026"). At most one school
// year is active at a time; the enrollment window is toggled independently so
// the registrar can close submissions before the year ends.
type SchoolYear struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	StartDate      time.Time `db:"start_date" json:"start_date"`
	EndDate        time.Time `db:"end_date" json:"end_date"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	EnrollmentOpen bool      `db:"enrollment_open" json:"enrollment_open"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// SchoolYearFilter defines filters supported by list endpoints.
type SchoolYearFilter struct {
	IsActive  *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
