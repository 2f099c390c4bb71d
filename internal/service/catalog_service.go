package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jmagsino/shs-registrar-api/internal/models"
	appErrors "github.com/jmagsino/shs-registrar-api/pkg/errors"
)

type strandRepository interface {
	FindByID(ctx context.Context, id string) (*models.Strand, error)
	List(ctx context.Context) ([]models.Strand, error)
	Create(ctx context.Context, strand *models.Strand) error
}

type subjectRepository interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	Create(ctx context.Context, subject *models.Subject) error
}

// CreateStrandRequest registers an academic track.
type CreateStrandRequest struct {
	Code        string  `json:"code" validate:"required,uppercase,max=10"`
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

// CreateSubjectRequest registers a subject. A nil strand id marks a core
// subject offered to every strand.
type CreateSubjectRequest struct {
	Code       string  `json:"code" validate:"required,max=20"`
	Name       string  `json:"name" validate:"required"`
	StrandID   *string `json:"strand_id"`
	GradeLevel int     `json:"grade_level" validate:"required,oneof=11 12"`
	Semester   string  `json:"semester" validate:"required,oneof=1st 2nd"`
	Units      int     `json:"units" validate:"required,gte=1,lte=10"`
}

// CatalogService manages the strand and subject reference data.
type CatalogService struct {
	strands   strandRepository
	subjects  subjectRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(strands strandRepository, subjects subjectRepository, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{strands: strands, subjects: subjects, validator: validate, logger: logger}
}

// ListStrands returns all strands.
func (s *CatalogService) ListStrands(ctx context.Context) ([]models.Strand, error) {
	strands, err := s.strands.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list strands")
	}
	return strands, nil
}

// GetStrand returns one strand.
func (s *CatalogService) GetStrand(ctx context.Context, id string) (*models.Strand, error) {
	strand, err := s.strands.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "strand not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load strand")
	}
	return strand, nil
}

// CreateStrand registers a new strand.
func (s *CatalogService) CreateStrand(ctx context.Context, req CreateStrandRequest) (*models.Strand, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid strand payload")
	}
	strand := &models.Strand{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.strands.Create(ctx, strand); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create strand")
	}
	return strand, nil
}

// ListSubjects returns subjects matching the filter.
func (s *CatalogService) ListSubjects(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	subjects, total, err := s.subjects.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return subjects, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// CreateSubject registers a subject, validating its strand when specialized.
func (s *CatalogService) CreateSubject(ctx context.Context, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid subject payload")
	}
	if req.StrandID != nil && *req.StrandID != "" {
		if _, err := s.GetStrand(ctx, *req.StrandID); err != nil {
			return nil, err
		}
	} else {
		req.StrandID = nil
	}
	subject := &models.Subject{
		Code:       req.Code,
		Name:       req.Name,
		StrandID:   req.StrandID,
		GradeLevel: req.GradeLevel,
		Semester:   req.Semester,
		Units:      req.Units,
	}
	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return subject, nil
}
