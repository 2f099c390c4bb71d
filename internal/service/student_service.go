package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jmagsino/shs-registrar-api/internal/models"
	appErrors "github.com/jmagsino/shs-registrar-api/pkg/errors"
)

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByLRN(ctx context.Context, lrn string) (*models.Student, error)
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
	ExistsLRN(ctx context.Context, lrn, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
}

// UpdateStudentRequest edits the mutable student fields. The LRN is
// immutable after registration except through this registrar-only surface.
type UpdateStudentRequest struct {
	LRN             string     `json:"lrn" validate:"required,len=12,numeric"`
	FirstName       string     `json:"first_name" validate:"required"`
	MiddleName      string     `json:"middle_name"`
	LastName        string     `json:"last_name" validate:"required"`
	Sex             string     `json:"sex" validate:"required,oneof=male female"`
	BirthDate       *time.Time `json:"birth_date" validate:"required"`
	Address         string     `json:"address" validate:"required"`
	GuardianName    string     `json:"guardian_name" validate:"required"`
	GuardianContact string     `json:"guardian_contact" validate:"required"`
	Active          bool       `json:"active"`
}

// StudentService manages student records.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns students with their current enrollment context.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// GetByLRN looks a student up by learner reference number.
func (s *StudentService) GetByLRN(ctx context.Context, lrn string) (*models.Student, error) {
	student, err := s.repo.FindByLRN(ctx, lrn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// GetByUserID resolves the student record behind a portal account.
func (s *StudentService) GetByUserID(ctx context.Context, userID string) (*models.Student, error) {
	student, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no student record for this account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Update edits a student record, keeping the LRN unique.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.LRN != student.LRN {
		taken, err := s.repo.ExistsLRN(ctx, req.LRN, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate LRN")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrDuplicateLRN, fmt.Sprintf("LRN %s is already registered", req.LRN))
		}
	}

	student.LRN = req.LRN
	student.FirstName = req.FirstName
	student.MiddleName = req.MiddleName
	student.LastName = req.LastName
	student.Sex = req.Sex
	if req.BirthDate != nil {
		student.BirthDate = *req.BirthDate
	}
	student.Address = req.Address
	student.GuardianName = req.GuardianName
	student.GuardianContact = req.GuardianContact
	student.Active = req.Active
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}
