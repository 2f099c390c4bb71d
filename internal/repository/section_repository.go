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

// enrolledCountExpr counts statuses that occupy a seat. Pending and returned
// applications do not hold seats; only approved and enrolled ones do.
const enrolledCountExpr = `(SELECT COUNT(*) FROM enrollments e WHERE e.section_id = s.id AND e.status IN ('approved', 'enrolled'))`

// SectionRepository handles persistence of sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// FindByID returns a section by identifier.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.Section, error) {
	const query = `SELECT id, name, strand_id, grade_level, capacity, school_year_id, created_at, updated_at FROM sections WHERE id = $1 LIMIT 1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find section: %w", err)
	}
	return &section, nil
}

// FindDetailByID returns a section with strand info and live enrolled count.
func (r *SectionRepository) FindDetailByID(ctx context.Context, id string) (*models.SectionDetail, error) {
	query := fmt.Sprintf(`SELECT s.id, s.name, s.strand_id, s.grade_level, s.capacity, s.school_year_id, s.created_at, s.updated_at,
        str.code AS strand_code, str.name AS strand_name, %s AS enrolled_count
        FROM sections s
        JOIN strands str ON str.id = s.strand_id
        WHERE s.id = $1`, enrolledCountExpr)
	var detail models.SectionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get section detail: %w", err)
	}
	return &detail, nil
}

// List returns sections filtered by the provided criteria.
func (r *SectionRepository) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, int, error) {
	base := `FROM sections s JOIN strands str ON str.id = s.strand_id`
	var conditions []string
	var args []interface{}

	if filter.StrandID != "" {
		conditions = append(conditions, fmt.Sprintf("s.strand_id = $%d", len(args)+1))
		args = append(args, filter.StrandID)
	}
	if filter.SchoolYearID != "" {
		conditions = append(conditions, fmt.Sprintf("s.school_year_id = $%d", len(args)+1))
		args = append(args, filter.SchoolYearID)
	}
	if filter.GradeLevel != 0 {
		conditions = append(conditions, fmt.Sprintf("s.grade_level = $%d", len(args)+1))
		args = append(args, filter.GradeLevel)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(s.name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"name":        "s.name",
		"grade_level": "s.grade_level",
		"strand_code": "str.code",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "s.name"
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

	query := fmt.Sprintf(`SELECT s.id, s.name, s.strand_id, s.grade_level, s.capacity, s.school_year_id, s.created_at, s.updated_at,
        str.code AS strand_code, str.name AS strand_name, %s AS enrolled_count
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, enrolledCountExpr, base+clause, orderBy, order, size, offset)

	var sections []models.SectionDetail
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sections: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sections: %w", err)
	}
	return sections, total, nil
}

// Create persists a new section.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if section.CreatedAt.IsZero() {
		section.CreatedAt = now
	}
	section.UpdatedAt = now
	const query = `INSERT INTO sections (id, name, strand_id, grade_level, capacity, school_year_id, created_at, updated_at)
        VALUES (:id, :name, :strand_id, :grade_level, :capacity, :school_year_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// Update updates mutable section fields.
func (r *SectionRepository) Update(ctx context.Context, section *models.Section) error {
	section.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sections SET name = :name, strand_id = :strand_id, grade_level = :grade_level, capacity = :capacity, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	return nil
}

// Roster lists the approved and enrolled students of a section.
func (r *SectionRepository) Roster(ctx context.Context, sectionID string) ([]models.RosterEntry, error) {
	const query = `SELECT e.id AS enrollment_id, st.id AS student_id,
        st.last_name || ', ' || st.first_name AS student_name, st.lrn AS student_lrn,
        e.registration_number, e.status
        FROM enrollments e
        JOIN students st ON st.id = e.student_id
        WHERE e.section_id = $1 AND e.status IN ('approved', 'enrolled')
        ORDER BY st.last_name ASC, st.first_name ASC`
	var roster []models.RosterEntry
	if err := r.db.SelectContext(ctx, &roster, query, sectionID); err != nil {
		return nil, fmt.Errorf("list section roster: %w", err)
	}
	return roster, nil
}
