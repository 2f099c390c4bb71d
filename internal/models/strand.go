package models

import "time"

// Strand represents an academic track offered to senior high students
// (e.g. STEM, HUMSS, ABM, GAS, TVL).
type Strand struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// StrandPreference is one of up to three ranked strand choices submitted with
// an enrollment application. Preference orders are distinct per enrollment.
type StrandPreference struct {
	ID              string    `db:"id" json:"id"`
	EnrollmentID    string    `db:"enrollment_id" json:"enrollment_id"`
	StrandID        string    `db:"strand_id" json:"strand_id"`
	PreferenceOrder int       `db:"preference_order" json:"preference_order"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	StrandCode      string    `db:"strand_code" json:"strand_code"`
	StrandName      string    `db:"strand_name" json:"strand_name"`
}
