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

type gradeRepository interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, error)
	ListApprovedByStudentAndYear(ctx context.Context, studentID, schoolYearID string) ([]models.GradeDetail, error)
	Upsert(ctx context.Context, grade *models.Grade) error
	ApproveByEnrollment(ctx context.Context, enrollmentID string) error
}

// UpsertGradeRequest records quarter scores for one subject of an enrollment.
type UpsertGradeRequest struct {
	EnrollmentID  string   `json:"enrollment_id" validate:"required"`
	SubjectID     string   `json:"subject_id" validate:"required"`
	Semester      string   `json:"semester" validate:"required,oneof=1st 2nd"`
	FirstQuarter  *float64 `json:"first_quarter" validate:"omitempty,gte=60,lte=100"`
	SecondQuarter *float64 `json:"second_quarter" validate:"omitempty,gte=60,lte=100"`
	Remarks       *string  `json:"remarks"`
}

// ProgressionService derives year-end standing from approved grades. The
// classification is a pure projection; nothing is written back.
type ProgressionService struct {
	grades    gradeRepository
	students  studentStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgressionService constructs ProgressionService.
func NewProgressionService(grades gradeRepository, students studentStore, validate *validator.Validate, logger *zap.Logger) *ProgressionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressionService{grades: grades, students: students, validator: validate, logger: logger}
}

// ListGrades returns grade entries matching the filter.
func (s *ProgressionService) ListGrades(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, error) {
	grades, err := s.grades.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// UpsertGrade records quarter scores; the semester grade is recomputed when
// both quarters are present.
func (s *ProgressionService) UpsertGrade(ctx context.Context, req UpsertGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid grade payload")
	}
	grade := &models.Grade{
		EnrollmentID:  req.EnrollmentID,
		SubjectID:     req.SubjectID,
		Semester:      req.Semester,
		FirstQuarter:  req.FirstQuarter,
		SecondQuarter: req.SecondQuarter,
		Remarks:       req.Remarks,
	}
	if err := s.grades.Upsert(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grade")
	}
	return grade, nil
}

// ApproveGrades releases all grades of an enrollment.
func (s *ProgressionService) ApproveGrades(ctx context.Context, enrollmentID string) error {
	if err := s.grades.ApproveByEnrollment(ctx, enrollmentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve grades")
	}
	return nil
}

// Classify computes a student's year-end standing from approved semester
// grades: no failures promotes, one to three failed subjects allows summer
// remediation, four or more retains the student at the grade level.
func (s *ProgressionService) Classify(ctx context.Context, studentID, schoolYearID string) (*models.ProgressionResult, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	grades, err := s.grades.ListApprovedByStudentAndYear(ctx, studentID, schoolYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}

	result := &models.ProgressionResult{
		StudentID:    studentID,
		SchoolYearID: schoolYearID,
	}
	for _, grade := range grades {
		if !grade.Passed() {
			result.FailedCount++
			result.FailedSubjects = append(result.FailedSubjects, grade)
		}
	}
	result.Outcome = ClassifyOutcome(result.FailedCount)
	return result, nil
}

// ClassifyOutcome maps a failed-subject count to a progression outcome.
func ClassifyOutcome(failedCount int) models.ProgressionOutcome {
	switch {
	case failedCount == 0:
		return models.ProgressionPromoted
	case failedCount <= 3:
		return models.ProgressionSummerEligible
	default:
		return models.ProgressionRetained
	}
}
