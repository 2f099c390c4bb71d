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
)

// StudentRepository handles persistence of student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, user_id, lrn, first_name, middle_name, last_name, sex, birth_date, address, guardian_name, guardian_contact, active, created_at, updated_at`

// FindByID returns a student by identifier.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1 LIMIT 1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by id: %w", err)
	}
	return &student, nil
}

// FindByLRN returns a student by learner reference number.
func (r *StudentRepository) FindByLRN(ctx context.Context, lrn string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE lrn = $1 LIMIT 1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, lrn); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by lrn: %w", err)
	}
	return &student, nil
}

// FindByUserID resolves the canonical student key from a login account id.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE user_id = $1 LIMIT 1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by user id: %w", err)
	}
	return &student, nil
}

// ExistsLRN reports whether another student already holds the LRN.
func (r *StudentRepository) ExistsLRN(ctx context.Context, lrn, excludeID string) (bool, error) {
	query := `SELECT 1 FROM students WHERE lrn = $1`
	args := []interface{}{lrn}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	query += " LIMIT 1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check lrn: %w", err)
	}
	return true, nil
}

// Create persists a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, user_id, lrn, first_name, middle_name, last_name, sex, birth_date, address, guardian_name, guardian_contact, active, created_at, updated_at)
        VALUES (:id, :user_id, :lrn, :first_name, :middle_name, :last_name, :sex, :birth_date, :address, :guardian_name, :guardian_contact, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update updates mutable student fields.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET first_name = :first_name, middle_name = :middle_name, last_name = :last_name, sex = :sex, birth_date = :birth_date, address = :address, guardian_name = :guardian_name, guardian_contact = :guardian_contact, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// List returns students filtered by the provided criteria.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := `FROM students st
LEFT JOIN LATERAL (
    SELECT e.id, e.status, e.section_id
    FROM enrollments e
    WHERE e.student_id = st.id AND e.status <> 'rejected'
    ORDER BY e.submitted_at DESC
    LIMIT 1
) cur ON TRUE
LEFT JOIN sections sec ON sec.id = cur.section_id
LEFT JOIN strands str ON str.id = sec.strand_id`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(st.first_name || ' ' || st.last_name) LIKE $%d OR st.lrn LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("cur.section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("st.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"last_name":  "st.last_name",
		"lrn":        "st.lrn",
		"created_at": "st.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "st.last_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf(`SELECT st.id, st.user_id, st.lrn, st.first_name, st.middle_name, st.last_name, st.sex, st.birth_date, st.address, st.guardian_name, st.guardian_contact, st.active, st.created_at, st.updated_at,
        cur.id AS current_enrollment_id, cur.status AS current_status, cur.section_id AS current_section_id, sec.name AS current_section_name, str.code AS current_strand_code
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}
