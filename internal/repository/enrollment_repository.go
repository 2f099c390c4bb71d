package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jmagsino/shs-registrar-api/internal/models"
	appErrors "github.com/jmagsino/shs-registrar-api/pkg/errors"
)

// EnrollmentRepository handles persistence of enrollment applications, their
// strand preferences and documents, and owns the transactional approve path.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `id, student_id, school_year_id, strand_id, section_id, grade_level, status, enrollment_type, enrollment_method, reviewer_id, review_notes, rejection_reason, return_reason, registration_number, submitted_at, reviewed_at, enrolled_at`

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
JOIN students st ON st.id = e.student_id
JOIN school_years sy ON sy.id = e.school_year_id
LEFT JOIN strands str ON str.id = e.strand_id
LEFT JOIN sections sec ON sec.id = e.section_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.SchoolYearID != "" {
		conditions = append(conditions, fmt.Sprintf("e.school_year_id = $%d", len(args)+1))
		args = append(args, filter.SchoolYearID)
	}
	if filter.StrandID != "" {
		conditions = append(conditions, fmt.Sprintf("e.strand_id = $%d", len(args)+1))
		args = append(args, filter.StrandID)
	}
	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("e.section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("e.enrollment_type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"submitted_at": "e.submitted_at",
		"student_name": "st.last_name",
		"status":       "e.status",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "e.submitted_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.student_id, e.school_year_id, e.strand_id, e.section_id, e.grade_level, e.status, e.enrollment_type, e.enrollment_method, e.reviewer_id, e.review_notes, e.rejection_reason, e.return_reason, e.registration_number, e.submitted_at, e.reviewed_at, e.enrolled_at,
        st.last_name || ', ' || st.first_name AS student_name, st.lrn AS student_lrn,
        sy.name AS school_year_name, str.code AS strand_code, sec.name AS section_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE id = $1`, enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID returns an enrollment with contextual info and preferences.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.school_year_id, e.strand_id, e.section_id, e.grade_level, e.status, e.enrollment_type, e.enrollment_method, e.reviewer_id, e.review_notes, e.rejection_reason, e.return_reason, e.registration_number, e.submitted_at, e.reviewed_at, e.enrolled_at,
        st.last_name || ', ' || st.first_name AS student_name, st.lrn AS student_lrn,
        sy.name AS school_year_name, str.code AS strand_code, sec.name AS section_name
        FROM enrollments e
        JOIN students st ON st.id = e.student_id
        JOIN school_years sy ON sy.id = e.school_year_id
        LEFT JOIN strands str ON str.id = e.strand_id
        LEFT JOIN sections sec ON sec.id = e.section_id
        WHERE e.id = $1`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	preferences, err := r.ListPreferences(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Preferences = preferences
	return &detail, nil
}

// ListPreferences returns the ranked strand preferences of an enrollment.
func (r *EnrollmentRepository) ListPreferences(ctx context.Context, enrollmentID string) ([]models.StrandPreference, error) {
	const query = `SELECT p.id, p.enrollment_id, p.strand_id, p.preference_order, p.created_at,
        str.code AS strand_code, str.name AS strand_name
        FROM strand_preferences p
        JOIN strands str ON str.id = p.strand_id
        WHERE p.enrollment_id = $1
        ORDER BY p.preference_order ASC`
	var preferences []models.StrandPreference
	if err := r.db.SelectContext(ctx, &preferences, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list strand preferences: %w", err)
	}
	return preferences, nil
}

// ExistsActive checks if a non-rejected enrollment exists for the student and
// school year. Rejected rows are history and never block a new application.
func (r *EnrollmentRepository) ExistsActive(ctx context.Context, studentID, schoolYearID, excludeID string) (bool, error) {
	query := `SELECT 1 FROM enrollments WHERE student_id = $1 AND school_year_id = $2 AND status <> $3`
	args := []interface{}{studentID, schoolYearID, models.EnrollmentStatusRejected}
	if excludeID != "" {
		query += fmt.Sprintf(" AND id <> $%d", len(args)+1)
		args = append(args, excludeID)
	}
	query += " LIMIT 1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// CreateWithPreferences inserts an enrollment and its ranked strand
// preferences in one transaction.
func (r *EnrollmentRepository) CreateWithPreferences(ctx context.Context, enrollment *models.Enrollment, strandIDs []string) (err error) {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.SubmittedAt.IsZero() {
		enrollment.SubmittedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create enrollment: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertEnrollment = `INSERT INTO enrollments (id, student_id, school_year_id, strand_id, section_id, grade_level, status, enrollment_type, enrollment_method, submitted_at)
        VALUES (:id, :student_id, :school_year_id, :strand_id, :section_id, :grade_level, :status, :enrollment_type, :enrollment_method, :submitted_at)`
	if _, err = tx.NamedExecContext(ctx, insertEnrollment, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}

	if err = replacePreferences(ctx, tx, enrollment.ID, strandIDs); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create enrollment: %w", err)
	}
	return nil
}

// Resubmit moves a returned enrollment back to its pending status and
// bulk-replaces strand preferences.
func (r *EnrollmentRepository) Resubmit(ctx context.Context, id string, status models.EnrollmentStatus, strandIDs []string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin resubmit: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const update = `UPDATE enrollments SET status = $2, return_reason = NULL, submitted_at = $3 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, update, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("resubmit enrollment: %w", err)
	}

	if err = replacePreferences(ctx, tx, id, strandIDs); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit resubmit: %w", err)
	}
	return nil
}

func replacePreferences(ctx context.Context, tx *sqlx.Tx, enrollmentID string, strandIDs []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM strand_preferences WHERE enrollment_id = $1`, enrollmentID); err != nil {
		return fmt.Errorf("clear strand preferences: %w", err)
	}
	const insert = `INSERT INTO strand_preferences (id, enrollment_id, strand_id, preference_order, created_at) VALUES ($1, $2, $3, $4, $5)`
	now := time.Now().UTC()
	for i, strandID := range strandIDs {
		if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), enrollmentID, strandID, i+1, now); err != nil {
			return fmt.Errorf("insert strand preference: %w", err)
		}
	}
	return nil
}

// ApproveParams carries everything the transactional approve path needs. The
// subject list is resolved by the service beforehand (offered subjects minus
// transferee-credited ones).
type ApproveParams struct {
	EnrollmentID string
	SectionID    string
	StrandID     string
	ReviewerID   string
	ReviewNotes  *string
	Target       models.EnrollmentStatus
	Subjects     []models.Subject
}

// Approve performs the capacity-guarded status transition and, when the
// target status is enrolled, materializes registration lines — all inside a
// single transaction. The section row is locked so concurrent approvals
// cannot oversubscribe a section near capacity.
func (r *EnrollmentRepository) Approve(ctx context.Context, params ApproveParams) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approve: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var section struct {
		Capacity     int    `db:"capacity"`
		SchoolYearID string `db:"school_year_id"`
	}
	const lockSection = `SELECT capacity, school_year_id FROM sections WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &section, lockSection, params.SectionID); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("lock section: %w", err)
	}

	// The enrollment being approved may already hold a seat (approved ->
	// enrolled), so its own row must not count against capacity.
	var enrolled int
	const countEnrolled = `SELECT COUNT(*) FROM enrollments WHERE section_id = $1 AND status IN ('approved', 'enrolled') AND id <> $2`
	if err = tx.GetContext(ctx, &enrolled, countEnrolled, params.SectionID, params.EnrollmentID); err != nil {
		return fmt.Errorf("count section enrollment: %w", err)
	}
	if enrolled >= section.Capacity {
		err = appErrors.Clone(appErrors.ErrSectionFull, fmt.Sprintf("section is full (%d/%d)", enrolled, section.Capacity))
		return err
	}

	var seq int64
	if err = tx.GetContext(ctx, &seq, `SELECT nextval('registration_number_seq')`); err != nil {
		return fmt.Errorf("next registration number: %w", err)
	}
	registrationNumber := fmt.Sprintf("REG%08d", seq)

	now := time.Now().UTC()
	var enrolledAt *time.Time
	if params.Target == models.EnrollmentStatusEnrolled {
		enrolledAt = &now
	}
	const update = `UPDATE enrollments SET status = $2, strand_id = $3, section_id = $4, reviewer_id = $5, review_notes = $6, registration_number = $7, reviewed_at = $8, enrolled_at = $9 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, update, params.EnrollmentID, params.Target, params.StrandID, params.SectionID, params.ReviewerID, params.ReviewNotes, registrationNumber, now, enrolledAt); err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}

	if params.Target == models.EnrollmentStatusEnrolled {
		if err = materializeLines(ctx, tx, params.EnrollmentID, params.SectionID, section.SchoolYearID, params.Subjects); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit approve: %w", err)
	}
	return nil
}

// Finalize transitions an already-approved enrollment to enrolled and
// materializes its registration lines transactionally.
func (r *EnrollmentRepository) Finalize(ctx context.Context, enrollmentID, sectionID, schoolYearID string, subjects []models.Subject) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin finalize: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const update = `UPDATE enrollments SET status = $2, enrolled_at = $3 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, update, enrollmentID, models.EnrollmentStatusEnrolled, now); err != nil {
		return fmt.Errorf("finalize enrollment: %w", err)
	}

	if err = materializeLines(ctx, tx, enrollmentID, sectionID, schoolYearID, subjects); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit finalize: %w", err)
	}
	return nil
}

// materializeLines upserts one registration line per subject, creating an
// unscheduled slot when none exists yet for the section/subject/year. The
// unique (slot_id, enrollment_id) key makes re-runs no-ops.
func materializeLines(ctx context.Context, tx *sqlx.Tx, enrollmentID, sectionID, schoolYearID string, subjects []models.Subject) error {
	const findSlot = `SELECT id FROM schedule_slots WHERE section_id = $1 AND subject_id = $2 AND school_year_id = $3 LIMIT 1`
	const insertSlot = `INSERT INTO schedule_slots (id, subject_id, section_id, school_year_id, day_of_week, start_time, end_time, semester, room, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, '', '', '', $5, '', FALSE, $6, $6)`
	const upsertLine = `INSERT INTO registration_lines (id, slot_id, enrollment_id, is_enrolled, enrolled_at)
        VALUES ($1, $2, $3, TRUE, $4)
        ON CONFLICT (slot_id, enrollment_id) DO NOTHING`

	now := time.Now().UTC()
	for _, subject := range subjects {
		var slotID string
		err := tx.GetContext(ctx, &slotID, findSlot, sectionID, subject.ID, schoolYearID)
		if err == sql.ErrNoRows {
			slotID = uuid.NewString()
			if _, err = tx.ExecContext(ctx, insertSlot, slotID, subject.ID, sectionID, schoolYearID, subject.Semester, now); err != nil {
				return fmt.Errorf("create schedule slot: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("find schedule slot: %w", err)
		}
		if _, err = tx.ExecContext(ctx, upsertLine, uuid.NewString(), slotID, enrollmentID, now); err != nil {
			return fmt.Errorf("upsert registration line: %w", err)
		}
	}
	return nil
}

// UpdateStatus applies a reject or return transition with its reason.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, reviewerID string, reason string) error {
	now := time.Now().UTC()
	var query string
	switch status {
	case models.EnrollmentStatusRejected:
		query = `UPDATE enrollments SET status = $2, reviewer_id = $3, rejection_reason = $4, reviewed_at = $5 WHERE id = $1`
	case models.EnrollmentStatusReturned:
		query = `UPDATE enrollments SET status = $2, reviewer_id = $3, return_reason = $4, reviewed_at = $5 WHERE id = $1`
	default:
		query = `UPDATE enrollments SET status = $2, reviewer_id = $3, review_notes = $4, reviewed_at = $5 WHERE id = $1`
	}
	if _, err := r.db.ExecContext(ctx, query, id, status, reviewerID, reason, now); err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return nil
}

// CreateDocuments records the stored paths of uploaded requirements.
func (r *EnrollmentRepository) CreateDocuments(ctx context.Context, documents []models.EnrollmentDocument) error {
	const query = `INSERT INTO enrollment_documents (id, enrollment_id, kind, path, uploaded_at) VALUES (:id, :enrollment_id, :kind, :path, :uploaded_at)`
	for i := range documents {
		if documents[i].ID == "" {
			documents[i].ID = uuid.NewString()
		}
		if documents[i].UploadedAt.IsZero() {
			documents[i].UploadedAt = time.Now().UTC()
		}
		if _, err := r.db.NamedExecContext(ctx, query, documents[i]); err != nil {
			return fmt.Errorf("create enrollment document: %w", err)
		}
	}
	return nil
}

// ListDocuments returns the stored document records of an enrollment.
func (r *EnrollmentRepository) ListDocuments(ctx context.Context, enrollmentID string) ([]models.EnrollmentDocument, error) {
	const query = `SELECT id, enrollment_id, kind, path, uploaded_at FROM enrollment_documents WHERE enrollment_id = $1 ORDER BY uploaded_at ASC`
	var documents []models.EnrollmentDocument
	if err := r.db.SelectContext(ctx, &documents, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list enrollment documents: %w", err)
	}
	return documents, nil
}
