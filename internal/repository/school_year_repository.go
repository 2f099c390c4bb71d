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

// SchoolYearRepository handles persistence of school years.
type SchoolYearRepository struct {
	db *sqlx.DB
}

// NewSchoolYearRepository constructs the repository.
func NewSchoolYearRepository(db *sqlx.DB) *SchoolYearRepository {
	return &SchoolYearRepository{db: db}
}

const schoolYearColumns = `id, name, start_date, end_date, is_active, enrollment_open, created_at, updated_at`

// FindByID returns a school year by identifier.
func (r *SchoolYearRepository) FindByID(ctx context.Context, id string) (*models.SchoolYear, error) {
	query := fmt.Sprintf(`SELECT %s FROM school_years WHERE id = $1 LIMIT 1`, schoolYearColumns)
	var year models.SchoolYear
	if err := r.db.GetContext(ctx, &year, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find school year: %w", err)
	}
	return &year, nil
}

// FindActive returns the currently active school year, or sql.ErrNoRows when
// none is marked active.
func (r *SchoolYearRepository) FindActive(ctx context.Context) (*models.SchoolYear, error) {
	query := fmt.Sprintf(`SELECT %s FROM school_years WHERE is_active = TRUE LIMIT 1`, schoolYearColumns)
	var year models.SchoolYear
	if err := r.db.GetContext(ctx, &year, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find active school year: %w", err)
	}
	return &year, nil
}

// List returns school years ordered by start date descending.
func (r *SchoolYearRepository) List(ctx context.Context, filter models.SchoolYearFilter) ([]models.SchoolYear, int, error) {
	base := `FROM school_years`
	clause := ""
	var args []interface{}
	if filter.IsActive != nil {
		clause = " WHERE is_active = $1"
		args = append(args, *filter.IsActive)
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

	query := fmt.Sprintf(`SELECT %s %s ORDER BY start_date DESC LIMIT %d OFFSET %d`, schoolYearColumns, base+clause, size, offset)
	var years []models.SchoolYear
	if err := r.db.SelectContext(ctx, &years, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list school years: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count school years: %w", err)
	}
	return years, total, nil
}

// Create persists a new school year.
func (r *SchoolYearRepository) Create(ctx context.Context, year *models.SchoolYear) error {
	if year.ID == "" {
		year.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if year.CreatedAt.IsZero() {
		year.CreatedAt = now
	}
	year.UpdatedAt = now
	const query = `INSERT INTO school_years (id, name, start_date, end_date, is_active, enrollment_open, created_at, updated_at)
        VALUES (:id, :name, :start_date, :end_date, :is_active, :enrollment_open, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, year); err != nil {
		return fmt.Errorf("create school year: %w", err)
	}
	return nil
}

// Activate marks one school year active and deactivates the rest in a single
// transaction.
func (r *SchoolYearRepository) Activate(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activate school year: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `UPDATE school_years SET is_active = FALSE, updated_at = $1 WHERE is_active = TRUE`, now); err != nil {
		return fmt.Errorf("deactivate school years: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE school_years SET is_active = TRUE, updated_at = $2 WHERE id = $1`, id, now)
	if err != nil {
		return fmt.Errorf("activate school year: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit activate school year: %w", err)
	}
	return nil
}

// SetEnrollmentOpen toggles the enrollment window for a school year.
func (r *SchoolYearRepository) SetEnrollmentOpen(ctx context.Context, id string, open bool) error {
	const query = `UPDATE school_years SET enrollment_open = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, open, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set enrollment window: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
