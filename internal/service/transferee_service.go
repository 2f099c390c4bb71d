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
	"github.com/jmagsino/shs-registrar-api/internal/repository"
	appErrors "github.com/jmagsino/shs-registrar-api/pkg/errors"
)

type transfereeRepository interface {
	FindPreviousSchool(ctx context.Context, studentID string) (*models.TransfereePreviousSchool, error)
	ListCreditedSubjects(ctx context.Context, studentID string) ([]models.TransfereeCreditedSubject, error)
	Evaluate(ctx context.Context, params repository.EvaluateParams) error
}

type subjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// CreditedSubjectInput marks one subject as credited from the previous
// school. EquivalentGrade is mandatory: a credit without the grade it maps to
// cannot feed progression later.
type CreditedSubjectInput struct {
	SubjectID       string   `json:"subject_id" validate:"required"`
	Semester        string   `json:"semester" validate:"required,oneof=1st 2nd"`
	EquivalentGrade *float64 `json:"equivalent_grade" validate:"required,gte=60,lte=100"`
	Remarks         *string  `json:"remarks"`
}

// EvaluateTransfereeRequest is the coordinator's evaluation payload.
type EvaluateTransfereeRequest struct {
	PreviousSchoolName    string                 `json:"previous_school_name" validate:"required"`
	PreviousSchoolAddress string                 `json:"previous_school_address"`
	LastGradeLevel        int                    `json:"last_grade_level" validate:"required,oneof=10 11 12"`
	LastSchoolYear        string                 `json:"last_school_year"`
	RecommendedStrandID   string                 `json:"recommended_strand_id" validate:"required"`
	RecommendedGradeLevel int                    `json:"recommended_grade_level" validate:"required,oneof=11 12"`
	CreditedSubjects      []CreditedSubjectInput `json:"credited_subjects" validate:"dive"`
	ReviewNotes           *string                `json:"review_notes"`
}

// TransfereeService handles transferee credential evaluation.
type TransfereeService struct {
	repo        transfereeRepository
	enrollments enrollmentRepository
	subjects    subjectReader
	strands     strandChecker
	years       schoolYearReader
	audits      auditWriter
	notifier    *NotificationDispatcher
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTransfereeService constructs TransfereeService.
func NewTransfereeService(
	repo transfereeRepository,
	enrollments enrollmentRepository,
	subjects subjectReader,
	strands strandChecker,
	years schoolYearReader,
	audits auditWriter,
	notifier *NotificationDispatcher,
	validate *validator.Validate,
	logger *zap.Logger,
) *TransfereeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransfereeService{
		repo:        repo,
		enrollments: enrollments,
		subjects:    subjects,
		strands:     strands,
		years:       years,
		audits:      audits,
		notifier:    notifier,
		validator:   validate,
		logger:      logger,
	}
}

// Get returns the evaluation state of a transferee enrollment.
func (s *TransfereeService) Get(ctx context.Context, enrollmentID string) (*models.TransfereeEvaluationDetail, error) {
	detail, err := s.enrollments.FindDetailByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if detail.Type != models.EnrollmentTypeTransferee {
		return nil, appErrors.Clone(appErrors.ErrNotTransferee, "enrollment is not a transferee application")
	}

	result := &models.TransfereeEvaluationDetail{Enrollment: *detail}

	school, err := s.repo.FindPreviousSchool(ctx, detail.StudentID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load previous school")
	}
	result.PreviousSchool = school

	credited, err := s.repo.ListCreditedSubjects(ctx, detail.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load credited subjects")
	}
	result.CreditedSubjects = credited
	return result, nil
}

// Evaluate applies a coordinator's credential evaluation: previous school,
// credited subjects and a strand/grade recommendation, moving the enrollment
// to evaluated.
func (s *TransfereeService) Evaluate(ctx context.Context, enrollmentID string, actor Actor, req EvaluateTransfereeRequest) (*models.TransfereeEvaluationDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid evaluation payload")
	}

	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Type != models.EnrollmentTypeTransferee {
		return nil, appErrors.Clone(appErrors.ErrNotTransferee, "enrollment is not a transferee application")
	}
	if !models.CanTransition(enrollment.Status, models.EnrollmentStatusEvaluated, actor.Role) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move %s to %s", enrollment.Status, models.EnrollmentStatusEvaluated))
	}

	if _, err := s.strands.FindByID(ctx, req.RecommendedStrandID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "recommended strand does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load strand")
	}

	schoolYear, err := s.creditSchoolYear(ctx, req.LastSchoolYear)
	if err != nil {
		return nil, err
	}

	credited := make([]models.TransfereeCreditedSubject, 0, len(req.CreditedSubjects))
	for i, input := range req.CreditedSubjects {
		if _, err := s.subjects.FindByID(ctx, input.SubjectID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "credited subject does not exist").
					WithDetails(map[string]string{fmt.Sprintf("credited_subjects[%d].subject_id", i): "unknown subject"})
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
		}
		credited = append(credited, models.TransfereeCreditedSubject{
			StudentID:  enrollment.StudentID,
			SubjectID:  input.SubjectID,
			Semester:   input.Semester,
			SchoolYear: schoolYear,
			Grade:      *input.EquivalentGrade,
			Remarks:    input.Remarks,
		})
	}

	err = s.repo.Evaluate(ctx, repository.EvaluateParams{
		EnrollmentID:          enrollment.ID,
		StudentID:             enrollment.StudentID,
		ReviewerID:            actor.UserID,
		ReviewNotes:           req.ReviewNotes,
		RecommendedStrandID:   req.RecommendedStrandID,
		RecommendedGradeLevel: req.RecommendedGradeLevel,
		PreviousSchool: models.TransfereePreviousSchool{
			StudentID:      enrollment.StudentID,
			SchoolName:     req.PreviousSchoolName,
			SchoolAddress:  req.PreviousSchoolAddress,
			LastGradeLevel: req.LastGradeLevel,
			LastSchoolYear: schoolYear,
		},
		CreditedSubjects: credited,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save evaluation")
	}

	s.auditEvaluation(ctx, actor, enrollment.ID, req, len(credited))
	if s.notifier != nil {
		s.notifier.Dispatch(EnrollmentEvent{
			Kind:         EventEnrollmentEvaluated,
			EnrollmentID: enrollment.ID,
			StudentID:    enrollment.StudentID,
			Data:         map[string]string{"recommended_strand_id": req.RecommendedStrandID},
		})
	}
	return s.Get(ctx, enrollmentID)
}

// creditSchoolYear resolves the school year stamped on credited subjects:
// the explicit value wins, then the active school year's name, then a year
// range derived from the calendar date. Credits are never stored without one.
func (s *TransfereeService) creditSchoolYear(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	active, err := s.years.FindActive(ctx)
	if err == nil {
		return active.Name, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active school year")
	}
	now := time.Now()
	start := now.Year()
	// School years straddle the calendar year; before June the range that
	// started last year is still current.
	if now.Month() < time.June {
		start--
	}
	return fmt.Sprintf("%d-%d", start, start+1), nil
}

func (s *TransfereeService) auditEvaluation(ctx context.Context, actor Actor, enrollmentID string, req EvaluateTransfereeRequest, creditedCount int) {
	resource := "enrollments"
	payload := fmt.Sprintf(`{"recommended_strand_id":%q,"recommended_grade_level":%d,"credited_subjects":%d}`,
		req.RecommendedStrandID, req.RecommendedGradeLevel, creditedCount)
	if err := s.audits.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionEnrollmentEvaluate,
		Resource:   resource,
		ResourceID: &enrollmentID,
		NewValues:  []byte(payload),
	}); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", models.AuditActionEnrollmentEvaluate), zap.Error(err))
	}
}
