package models

import "time"

// ScheduleSlot represents one recurring weekly meeting of a subject for a
// section within a school year. It is a pure schedule row; per-student COR
// lines are projected from RegistrationLine at read time.
type ScheduleSlot struct {
	ID           string    `db:"id" json:"id"`
	SubjectID    string    `db:"subject_id" json:"subject_id"`
	FacultyID    *string   `db:"faculty_id" json:"faculty_id,omitempty"`
	SectionID    string    `db:"section_id" json:"section_id"`
	SchoolYearID string    `db:"school_year_id" json:"school_year_id"`
	DayOfWeek    string    `db:"day_of_week" json:"day_of_week"`
	StartTime    string    `db:"start_time" json:"start_time"`
	EndTime      string    `db:"end_time" json:"end_time"`
	Semester     string    `db:"semester" json:"semester"`
	Room         string    `db:"room" json:"room"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ScheduleSlotDetail enriches a slot with subject and faculty names.
type ScheduleSlotDetail struct {
	ScheduleSlot
	SubjectCode string  `db:"subject_code" json:"subject_code"`
	SubjectName string  `db:"subject_name" json:"subject_name"`
	SectionName string  `db:"section_name" json:"section_name"`
	FacultyName *string `db:"faculty_name" json:"faculty_name,omitempty"`
}

// ScheduleSlotFilter describes query params for listing schedule slots.
type ScheduleSlotFilter struct {
	SectionID    string
	SubjectID    string
	FacultyID    string
	SchoolYearID string
	Semester     string
	DayOfWeek    string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// ScheduleConflict describes an existing slot that collides with a proposed
// one on the faculty day/time dimension.
type ScheduleConflict struct {
	SlotID    string `json:"slot_id"`
	SubjectID string `json:"subject_id"`
	SectionID string `json:"section_id"`
	FacultyID string `json:"faculty_id"`
	DayOfWeek string `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ScheduleConflictError is returned when a slot overlaps an existing active
// slot for the same faculty within a school year.
type ScheduleConflictError struct {
	Message  string           `json:"message"`
	Conflict ScheduleConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
