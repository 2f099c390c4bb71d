package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jmagsino/shs-registrar-api/internal/models"
)

// GradeRepository handles persistence of grades.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// List returns grade entries filtered by the provided criteria.
func (r *GradeRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, error) {
	base := `SELECT g.id, g.enrollment_id, g.subject_id, g.semester, g.first_quarter, g.second_quarter, g.semester_grade, g.approval_status, g.remarks, g.created_at, g.updated_at,
        sub.code AS subject_code, sub.name AS subject_name
        FROM grades g
        JOIN subjects sub ON sub.id = g.subject_id`
	var conditions []string
	var args []interface{}

	if filter.EnrollmentID != "" {
		conditions = append(conditions, fmt.Sprintf("g.enrollment_id = $%d", len(args)+1))
		args = append(args, filter.EnrollmentID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("g.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("g.semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.ApprovalStatus != "" {
		conditions = append(conditions, fmt.Sprintf("g.approval_status = $%d", len(args)+1))
		args = append(args, filter.ApprovalStatus)
	}

	query := base
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY g.semester ASC, sub.code ASC"

	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// ListApprovedByStudentAndYear returns approved grades across the student's
// enrollments for a school year. Used by progression classification.
func (r *GradeRepository) ListApprovedByStudentAndYear(ctx context.Context, studentID, schoolYearID string) ([]models.GradeDetail, error) {
	const query = `SELECT g.id, g.enrollment_id, g.subject_id, g.semester, g.first_quarter, g.second_quarter, g.semester_grade, g.approval_status, g.remarks, g.created_at, g.updated_at,
        sub.code AS subject_code, sub.name AS subject_name
        FROM grades g
        JOIN subjects sub ON sub.id = g.subject_id
        JOIN enrollments e ON e.id = g.enrollment_id
        WHERE e.student_id = $1 AND e.school_year_id = $2 AND g.approval_status = 'approved'
        ORDER BY g.semester ASC, sub.code ASC`
	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, studentID, schoolYearID); err != nil {
		return nil, fmt.Errorf("list approved grades: %w", err)
	}
	return grades, nil
}

// Upsert stores or updates a grade entry keyed by enrollment, subject and
// semester, recomputing the semester grade from the quarter scores.
func (r *GradeRepository) Upsert(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = now
	}
	grade.UpdatedAt = now
	if grade.FirstQuarter != nil && grade.SecondQuarter != nil {
		semesterGrade := (*grade.FirstQuarter + *grade.SecondQuarter) / 2
		grade.SemesterGrade = &semesterGrade
	}
	const query = `INSERT INTO grades (id, enrollment_id, subject_id, semester, first_quarter, second_quarter, semester_grade, approval_status, remarks, created_at, updated_at)
        VALUES (:id, :enrollment_id, :subject_id, :semester, :first_quarter, :second_quarter, :semester_grade, :approval_status, :remarks, :created_at, :updated_at)
        ON CONFLICT (enrollment_id, subject_id, semester) DO UPDATE SET
            first_quarter = EXCLUDED.first_quarter,
            second_quarter = EXCLUDED.second_quarter,
            semester_grade = EXCLUDED.semester_grade,
            approval_status = EXCLUDED.approval_status,
            remarks = EXCLUDED.remarks,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}
	return nil
}

// ApproveByEnrollment marks all pending grades of an enrollment approved.
func (r *GradeRepository) ApproveByEnrollment(ctx context.Context, enrollmentID string) error {
	const query = `UPDATE grades SET approval_status = 'approved', updated_at = $2 WHERE enrollment_id = $1 AND approval_status = 'pending'`
	if _, err := r.db.ExecContext(ctx, query, enrollmentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("approve grades: %w", err)
	}
	return nil
}
