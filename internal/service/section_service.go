package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jmagsino/shs-registrar-api/internal/models"
	"github.com/jmagsino/shs-registrar-api/pkg/config"
	appErrors "github.com/jmagsino/shs-registrar-api/pkg/errors"
)

type sectionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
	FindDetailByID(ctx context.Context, id string) (*models.SectionDetail, error)
	List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, int, error)
	Create(ctx context.Context, section *models.Section) error
	Update(ctx context.Context, section *models.Section) error
	Roster(ctx context.Context, sectionID string) ([]models.RosterEntry, error)
}

// SectionRequest creates or updates a section. A zero capacity falls back to
// the configured default.
type SectionRequest struct {
	Name         string `json:"name" validate:"required"`
	StrandID     string `json:"strand_id" validate:"required"`
	GradeLevel   int    `json:"grade_level" validate:"required,oneof=11 12"`
	Capacity     int    `json:"capacity" validate:"gte=0,lte=100"`
	SchoolYearID string `json:"school_year_id" validate:"required"`
}

// SectionService manages sections and their rosters.
type SectionService struct {
	repo            sectionRepository
	strands         strandChecker
	years           schoolYearReader
	defaultCapacity int
	validator       *validator.Validate
	logger          *zap.Logger
}

// NewSectionService constructs SectionService.
func NewSectionService(repo sectionRepository, strands strandChecker, years schoolYearReader, cfg config.EnrollmentConfig, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	capacity := cfg.DefaultSectionCapacity
	if capacity <= 0 {
		capacity = 40
	}
	return &SectionService{
		repo:            repo,
		strands:         strands,
		years:           years,
		defaultCapacity: capacity,
		validator:       validate,
		logger:          logger,
	}
}

// List returns sections with live enrolled counts.
func (s *SectionService) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, *models.Pagination, error) {
	sections, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return sections, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one section with its enrolled count.
func (s *SectionService) Get(ctx context.Context, id string) (*models.SectionDetail, error) {
	section, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return section, nil
}

// Create registers a section under a strand and school year.
func (s *SectionService) Create(ctx context.Context, req SectionRequest) (*models.SectionDetail, error) {
	if err := s.validateRefs(ctx, req); err != nil {
		return nil, err
	}
	section := &models.Section{
		Name:         req.Name,
		StrandID:     req.StrandID,
		GradeLevel:   req.GradeLevel,
		Capacity:     req.Capacity,
		SchoolYearID: req.SchoolYearID,
	}
	if section.Capacity == 0 {
		section.Capacity = s.defaultCapacity
	}
	if err := s.repo.Create(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}
	return s.Get(ctx, section.ID)
}

// Update replaces a section's details. Shrinking capacity below the current
// enrolled count is allowed; the guard only blocks new approvals.
func (s *SectionService) Update(ctx context.Context, id string, req SectionRequest) (*models.SectionDetail, error) {
	if err := s.validateRefs(ctx, req); err != nil {
		return nil, err
	}
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	section := detail.Section
	section.Name = req.Name
	section.StrandID = req.StrandID
	section.GradeLevel = req.GradeLevel
	section.SchoolYearID = req.SchoolYearID
	if req.Capacity > 0 {
		section.Capacity = req.Capacity
	}
	if err := s.repo.Update(ctx, &section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update section")
	}
	return s.Get(ctx, id)
}

// Roster returns the students approved or enrolled into a section.
func (s *SectionService) Roster(ctx context.Context, id string) ([]models.RosterEntry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	roster, err := s.repo.Roster(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return roster, nil
}

func (s *SectionService) validateRefs(ctx context.Context, req SectionRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid section payload")
	}
	if _, err := s.strands.FindByID(ctx, req.StrandID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "strand does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load strand")
	}
	if _, err := s.years.FindByID(ctx, req.SchoolYearID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "school year does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school year")
	}
	return nil
}
