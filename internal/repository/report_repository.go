package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jmagsino/shs-registrar-api/internal/models"
)

// StatusCount pairs an enrollment status with its count.
type StatusCount struct {
	Status models.EnrollmentStatus `db:"status" json:"status"`
	Count  int                     `db:"count" json:"count"`
}

// StrandCount aggregates enrolled students per strand.
type StrandCount struct {
	StrandID   string `db:"strand_id" json:"strand_id"`
	StrandCode string `db:"strand_code" json:"strand_code"`
	Count      int    `db:"count" json:"count"`
}

// SectionCount aggregates seat usage per section.
type SectionCount struct {
	SectionID   string `db:"section_id" json:"section_id"`
	SectionName string `db:"section_name" json:"section_name"`
	StrandCode  string `db:"strand_code" json:"strand_code"`
	GradeLevel  int    `db:"grade_level" json:"grade_level"`
	Capacity    int    `db:"capacity" json:"capacity"`
	Enrolled    int    `db:"enrolled" json:"enrolled"`
}

// EnrollmentSummary bundles the registrar dashboard aggregates for one
// school year.
type EnrollmentSummary struct {
	SchoolYearID string         `json:"school_year_id"`
	ByStatus     []StatusCount  `json:"by_status"`
	ByStrand     []StrandCount  `json:"by_strand"`
	BySection    []SectionCount `json:"by_section"`
}

// ReportRepository serves read-only projections for dashboards and exports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// EnrollmentSummary aggregates enrollment counts for a school year.
func (r *ReportRepository) EnrollmentSummary(ctx context.Context, schoolYearID string) (*EnrollmentSummary, error) {
	summary := &EnrollmentSummary{SchoolYearID: schoolYearID}

	const byStatus = `SELECT status, COUNT(*) AS count FROM enrollments WHERE school_year_id = $1 GROUP BY status ORDER BY status`
	if err := r.db.SelectContext(ctx, &summary.ByStatus, byStatus, schoolYearID); err != nil {
		return nil, fmt.Errorf("summarize by status: %w", err)
	}

	const byStrand = `SELECT str.id AS strand_id, str.code AS strand_code, COUNT(*) AS count
        FROM enrollments e
        JOIN strands str ON str.id = e.strand_id
        WHERE e.school_year_id = $1 AND e.status IN ('approved', 'enrolled')
        GROUP BY str.id, str.code
        ORDER BY str.code`
	if err := r.db.SelectContext(ctx, &summary.ByStrand, byStrand, schoolYearID); err != nil {
		return nil, fmt.Errorf("summarize by strand: %w", err)
	}

	const bySection = `SELECT s.id AS section_id, s.name AS section_name, str.code AS strand_code, s.grade_level, s.capacity,
        COUNT(e.id) FILTER (WHERE e.status IN ('approved', 'enrolled')) AS enrolled
        FROM sections s
        JOIN strands str ON str.id = s.strand_id
        LEFT JOIN enrollments e ON e.section_id = s.id
        WHERE s.school_year_id = $1
        GROUP BY s.id, s.name, str.code, s.grade_level, s.capacity
        ORDER BY str.code, s.name`
	if err := r.db.SelectContext(ctx, &summary.BySection, bySection, schoolYearID); err != nil {
		return nil, fmt.Errorf("summarize by section: %w", err)
	}

	return summary, nil
}

// PendingByType counts pending applications split by enrollment type, used by
// the coordinator worklist header.
func (r *ReportRepository) PendingByType(ctx context.Context, schoolYearID string) (map[models.EnrollmentType]int, error) {
	const query = `SELECT enrollment_type, COUNT(*) AS count
        FROM enrollments
        WHERE school_year_id = $1 AND status IN ('pending_approval', 'pending_evaluation')
        GROUP BY enrollment_type`
	rows, err := r.db.QueryxContext(ctx, query, schoolYearID)
	if err != nil {
		return nil, fmt.Errorf("count pending by type: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.EnrollmentType]int)
	for rows.Next() {
		var enrollmentType models.EnrollmentType
		var count int
		if err := rows.Scan(&enrollmentType, &count); err != nil {
			return nil, fmt.Errorf("scan pending count: %w", err)
		}
		counts[enrollmentType] = count
	}
	return counts, nil
}
