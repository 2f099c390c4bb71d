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

// StrandRepository handles persistence of academic strands.
type StrandRepository struct {
	db *sqlx.DB
}

// NewStrandRepository constructs the repository.
func NewStrandRepository(db *sqlx.DB) *StrandRepository {
	return &StrandRepository{db: db}
}

// FindByID returns a strand by identifier.
func (r *StrandRepository) FindByID(ctx context.Context, id string) (*models.Strand, error) {
	const query = `SELECT id, code, name, description, created_at, updated_at FROM strands WHERE id = $1 LIMIT 1`
	var strand models.Strand
	if err := r.db.GetContext(ctx, &strand, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find strand: %w", err)
	}
	return &strand, nil
}

// ExistIDs verifies that every provided strand id exists.
func (r *StrandRepository) ExistIDs(ctx context.Context, ids []string) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM strands WHERE id IN (%s)`, strings.Join(placeholders, ","))
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("check strand ids: %w", err)
	}
	return count == len(ids), nil
}

// List returns all strands ordered by code.
func (r *StrandRepository) List(ctx context.Context) ([]models.Strand, error) {
	const query = `SELECT id, code, name, description, created_at, updated_at FROM strands ORDER BY code ASC`
	var strands []models.Strand
	if err := r.db.SelectContext(ctx, &strands, query); err != nil {
		return nil, fmt.Errorf("list strands: %w", err)
	}
	return strands, nil
}

// Create persists a new strand.
func (r *StrandRepository) Create(ctx context.Context, strand *models.Strand) error {
	if strand.ID == "" {
		strand.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if strand.CreatedAt.IsZero() {
		strand.CreatedAt = now
	}
	strand.UpdatedAt = now
	const query = `INSERT INTO strands (id, code, name, description, created_at, updated_at)
        VALUES (:id, :code, :name, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, strand); err != nil {
		return fmt.Errorf("create strand: %w", err)
	}
	return nil
}
