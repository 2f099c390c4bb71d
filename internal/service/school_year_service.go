package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jmagsino/shs-registrar-api/internal/models"
	appErrors "github.com/jmagsino/shs-registrar-api/pkg/errors"
)

type schoolYearRepository interface {
	FindByID(ctx context.Context, id string) (*models.SchoolYear, error)
	FindActive(ctx context.Context) (*models.SchoolYear, error)
	List(ctx context.Context, filter models.SchoolYearFilter) ([]models.SchoolYear, int, error)
	Create(ctx context.Context, year *models.SchoolYear) error
	Activate(ctx context.Context, id string) error
	SetEnrollmentOpen(ctx context.Context, id string, open bool) error
}

// CreateSchoolYearRequest registers a new school year, inactive and closed by
// default.
type CreateSchoolYearRequest struct {
	Name      string    `json:"name" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
}

// SchoolYearService manages school years and the enrollment window.
type SchoolYearService struct {
	repo      schoolYearRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSchoolYearService constructs SchoolYearService.
func NewSchoolYearService(repo schoolYearRepository, validate *validator.Validate, logger *zap.Logger) *SchoolYearService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchoolYearService{repo: repo, validator: validate, logger: logger}
}

// List returns school years, most recent first.
func (s *SchoolYearService) List(ctx context.Context, filter models.SchoolYearFilter) ([]models.SchoolYear, *models.Pagination, error) {
	years, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list school years")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return years, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one school year.
func (s *SchoolYearService) Get(ctx context.Context, id string) (*models.SchoolYear, error) {
	year, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school year")
	}
	return year, nil
}

// Active returns the currently active school year.
func (s *SchoolYearService) Active(ctx context.Context) (*models.SchoolYear, error) {
	year, err := s.repo.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active school year")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active school year")
	}
	return year, nil
}

// Create registers a new school year.
func (s *SchoolYearService) Create(ctx context.Context, req CreateSchoolYearRequest) (*models.SchoolYear, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid school year payload")
	}
	year := &models.SchoolYear{
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}
	if err := s.repo.Create(ctx, year); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create school year")
	}
	return year, nil
}

// Activate makes one school year the active one; any other active year is
// deactivated in the same transaction.
func (s *SchoolYearService) Activate(ctx context.Context, id string) (*models.SchoolYear, error) {
	if err := s.repo.Activate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate school year")
	}
	return s.Get(ctx, id)
}

// SetEnrollmentOpen opens or closes the enrollment window of a school year.
func (s *SchoolYearService) SetEnrollmentOpen(ctx context.Context, id string, open bool) (*models.SchoolYear, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetEnrollmentOpen(ctx, id, open); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment window")
	}
	return s.Get(ctx, id)
}
