package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jmagsino/shs-registrar-api/internal/models"
)

// TransfereeRepository handles persistence of transferee evaluation records.
type TransfereeRepository struct {
	db *sqlx.DB
}

// NewTransfereeRepository constructs the repository.
func NewTransfereeRepository(db *sqlx.DB) *TransfereeRepository {
	return &TransfereeRepository{db: db}
}

// FindPreviousSchool returns the previous-school record for a student.
func (r *TransfereeRepository) FindPreviousSchool(ctx context.Context, studentID string) (*models.TransfereePreviousSchool, error) {
	const query = `SELECT id, student_id, school_name, school_address, last_grade_level, last_school_year, created_at, updated_at FROM transferee_previous_schools WHERE student_id = $1 LIMIT 1`
	var record models.TransfereePreviousSchool
	if err := r.db.GetContext(ctx, &record, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find previous school: %w", err)
	}
	return &record, nil
}

// ListCreditedSubjects returns the credited subjects of a student.
func (r *TransfereeRepository) ListCreditedSubjects(ctx context.Context, studentID string) ([]models.TransfereeCreditedSubject, error) {
	const query = `SELECT id, student_id, subject_id, semester, school_year, grade, remarks, created_at FROM transferee_credited_subjects WHERE student_id = $1 ORDER BY semester ASC, created_at ASC`
	var subjects []models.TransfereeCreditedSubject
	if err := r.db.SelectContext(ctx, &subjects, query, studentID); err != nil {
		return nil, fmt.Errorf("list credited subjects: %w", err)
	}
	return subjects, nil
}

// CreditedSubjectIDs returns the subject ids credited to the student for a
// semester, consumed by class materialization to skip exempt subjects.
func (r *TransfereeRepository) CreditedSubjectIDs(ctx context.Context, studentID, semester string) (map[string]bool, error) {
	const query = `SELECT subject_id FROM transferee_credited_subjects WHERE student_id = $1 AND semester = $2`
	rows, err := r.db.QueryxContext(ctx, query, studentID, semester)
	if err != nil {
		return nil, fmt.Errorf("list credited subject ids: %w", err)
	}
	defer rows.Close()

	credited := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan credited subject id: %w", err)
		}
		credited[id] = true
	}
	return credited, nil
}

// EvaluateParams carries the full transferee evaluation write set.
type EvaluateParams struct {
	EnrollmentID          string
	StudentID             string
	ReviewerID            string
	ReviewNotes           *string
	RecommendedStrandID   string
	RecommendedGradeLevel int
	PreviousSchool        models.TransfereePreviousSchool
	CreditedSubjects      []models.TransfereeCreditedSubject
}

// Evaluate applies a transferee evaluation in a single transaction: the
// enrollment moves to evaluated, the previous-school record is upserted and
// the credited subjects are replaced.
func (r *TransfereeRepository) Evaluate(ctx context.Context, params EvaluateParams) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin evaluate: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const updateEnrollment = `UPDATE enrollments SET status = $2, strand_id = $3, grade_level = $4, reviewer_id = $5, review_notes = $6, reviewed_at = $7 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, updateEnrollment, params.EnrollmentID, models.EnrollmentStatusEvaluated, params.RecommendedStrandID, params.RecommendedGradeLevel, params.ReviewerID, params.ReviewNotes, now); err != nil {
		return fmt.Errorf("update enrollment evaluation: %w", err)
	}

	school := params.PreviousSchool
	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	school.StudentID = params.StudentID
	school.CreatedAt = now
	school.UpdatedAt = now
	const upsertSchool = `INSERT INTO transferee_previous_schools (id, student_id, school_name, school_address, last_grade_level, last_school_year, created_at, updated_at)
        VALUES (:id, :student_id, :school_name, :school_address, :last_grade_level, :last_school_year, :created_at, :updated_at)
        ON CONFLICT (student_id) DO UPDATE SET
            school_name = EXCLUDED.school_name,
            school_address = EXCLUDED.school_address,
            last_grade_level = EXCLUDED.last_grade_level,
            last_school_year = EXCLUDED.last_school_year,
            updated_at = EXCLUDED.updated_at`
	if _, err = tx.NamedExecContext(ctx, upsertSchool, school); err != nil {
		return fmt.Errorf("upsert previous school: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM transferee_credited_subjects WHERE student_id = $1`, params.StudentID); err != nil {
		return fmt.Errorf("clear credited subjects: %w", err)
	}
	const insertCredit = `INSERT INTO transferee_credited_subjects (id, student_id, subject_id, semester, school_year, grade, remarks, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, credit := range params.CreditedSubjects {
		id := credit.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err = tx.ExecContext(ctx, insertCredit, id, params.StudentID, credit.SubjectID, credit.Semester, credit.SchoolYear, credit.Grade, credit.Remarks, now); err != nil {
			return fmt.Errorf("insert credited subject: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit evaluate: %w", err)
	}
	return nil
}
