package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jmagsino/shs-registrar-api/internal/models"
	"github.com/jmagsino/shs-registrar-api/internal/repository"
	appErrors "github.com/jmagsino/shs-registrar-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	ListPreferences(ctx context.Context, enrollmentID string) ([]models.StrandPreference, error)
	ExistsActive(ctx context.Context, studentID, schoolYearID, excludeID string) (bool, error)
	CreateWithPreferences(ctx context.Context, enrollment *models.Enrollment, strandIDs []string) error
	Resubmit(ctx context.Context, id string, status models.EnrollmentStatus, strandIDs []string) error
	Approve(ctx context.Context, params repository.ApproveParams) error
	Finalize(ctx context.Context, enrollmentID, sectionID, schoolYearID string, subjects []models.Subject) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, reviewerID, reason string) error
	CreateDocuments(ctx context.Context, documents []models.EnrollmentDocument) error
	ListDocuments(ctx context.Context, enrollmentID string) ([]models.EnrollmentDocument, error)
}

type studentStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
	ExistsLRN(ctx context.Context, lrn, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
}

type schoolYearReader interface {
	FindByID(ctx context.Context, id string) (*models.SchoolYear, error)
	FindActive(ctx context.Context) (*models.SchoolYear, error)
}

type strandChecker interface {
	FindByID(ctx context.Context, id string) (*models.Strand, error)
	ExistIDs(ctx context.Context, ids []string) (bool, error)
}

type sectionReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.SectionDetail, error)
}

type subjectLister interface {
	ListOffered(ctx context.Context, strandID string, gradeLevel int) ([]models.Subject, error)
}

type creditedSubjectReader interface {
	CreditedSubjectIDs(ctx context.Context, studentID, semester string) (map[string]bool, error)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type documentStore interface {
	Save(filename string, data []byte) (string, error)
}

// DocumentUpload carries one uploaded requirement with its raw content.
type DocumentUpload struct {
	Kind     models.DocumentKind `json:"kind" validate:"required,oneof=psa_birth_certificate report_card good_moral"`
	Filename string              `json:"filename" validate:"required"`
	Content  []byte              `json:"content"`
}

// SubmitEnrollmentRequest describes an enrollment application. Either an
// existing student id is supplied or the personal fields create the student
// record inline.
type SubmitEnrollmentRequest struct {
	StudentID    string `json:"student_id"`
	SchoolYearID string `json:"school_year_id" validate:"required"`
	GradeLevel   int    `json:"grade_level" validate:"required,oneof=11 12"`

	EnrollmentType models.EnrollmentType `json:"enrollment_type" validate:"omitempty,oneof=regular transferee summer auto_progression"`

	LRN             string     `json:"lrn" validate:"required_without=StudentID,omitempty,len=12,numeric"`
	FirstName       string     `json:"first_name" validate:"required_without=StudentID"`
	MiddleName      string     `json:"middle_name"`
	LastName        string     `json:"last_name" validate:"required_without=StudentID"`
	Sex             string     `json:"sex" validate:"required_without=StudentID,omitempty,oneof=male female"`
	BirthDate       *time.Time `json:"birth_date" validate:"required_without=StudentID"`
	Address         string     `json:"address" validate:"required_without=StudentID"`
	GuardianName    string     `json:"guardian_name" validate:"required_without=StudentID"`
	GuardianContact string     `json:"guardian_contact" validate:"required_without=StudentID"`

	StrandPreferenceIDs []string         `json:"strand_preference_ids" validate:"required,len=3,dive,required"`
	Documents           []DocumentUpload `json:"documents" validate:"dive"`
}

// ReviewRequest carries the payload of reject and return actions.
type ReviewRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// ApproveEnrollmentRequest describes the approval payload. Direct approvals
// go straight to enrolled; otherwise the enrollment parks at approved until
// finalized.
type ApproveEnrollmentRequest struct {
	SectionID      string   `json:"section_id" validate:"required"`
	Direct         bool     `json:"direct"`
	SubjectIDs     []string `json:"subject_ids"`
	ReviewNotes    *string  `json:"review_notes"`
	OverrideReason string   `json:"override_reason"`
}

// ResubmitEnrollmentRequest replaces the strand preferences of a returned
// application.
type ResubmitEnrollmentRequest struct {
	StrandPreferenceIDs []string `json:"strand_preference_ids" validate:"required,len=3,dive,required"`
}

// Actor identifies who performs a lifecycle action.
type Actor struct {
	UserID string
	Role   models.UserRole
}

// EnrollmentService orchestrates the enrollment lifecycle.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  studentStore
	years     schoolYearReader
	strands   strandChecker
	sections  sectionReader
	subjects  subjectLister
	credits   creditedSubjectReader
	audits    auditWriter
	documents documentStore
	notifier  *NotificationDispatcher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(
	repo enrollmentRepository,
	students studentStore,
	years schoolYearReader,
	strands strandChecker,
	sections sectionReader,
	subjects subjectLister,
	credits creditedSubjectReader,
	audits auditWriter,
	documents documentStore,
	notifier *NotificationDispatcher,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:      repo,
		students:  students,
		years:     years,
		strands:   strands,
		sections:  sections,
		subjects:  subjects,
		credits:   credits,
		audits:    audits,
		documents: documents,
		notifier:  notifier,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return enrollments, pagination, nil
}

// Get returns one enrollment with its preferences and stored documents.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	documents, err := s.repo.ListDocuments(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment documents")
	}
	detail.Documents = documents
	return detail, nil
}

// OwnedBy reports whether the enrollment belongs to the student account of
// the given user. Users without a linked student record own nothing.
func (s *EnrollmentService) OwnedBy(ctx context.Context, enrollmentID, userID string) (bool, error) {
	enrollment, err := s.loadEnrollment(ctx, enrollmentID)
	if err != nil {
		return false, err
	}
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student account")
	}
	return student.ID == enrollment.StudentID, nil
}

// Submit creates an enrollment application with its ranked strand
// preferences, creating the student record inline when needed. The actor is
// the authenticated caller when a token accompanied the request; anonymous
// applications carry a zero actor.
func (s *EnrollmentService) Submit(ctx context.Context, actor Actor, req SubmitEnrollmentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid enrollment payload")
	}
	if details := distinctPreferenceViolations(req.StrandPreferenceIDs); details != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "strand preferences must be distinct").WithDetails(details)
	}

	year, err := s.years.FindByID(ctx, req.SchoolYearID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school year")
	}
	if !year.EnrollmentOpen {
		return nil, appErrors.Clone(appErrors.ErrEnrollmentClosed, "enrollment closed")
	}

	ok, err := s.strands.ExistIDs(ctx, req.StrandPreferenceIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate strand choices")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "one or more strand choices do not exist")
	}

	student, err := s.resolveStudent(ctx, req)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsActive(ctx, student.ID, req.SchoolYearID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrAlreadyApplied, "already applied for this school year")
	}

	enrollmentType := req.EnrollmentType
	if enrollmentType == "" {
		enrollmentType = models.EnrollmentTypeRegular
	}
	status := models.EnrollmentStatusPendingApproval
	if enrollmentType == models.EnrollmentTypeTransferee {
		status = models.EnrollmentStatusPendingEvaluation
	}

	enrollment := &models.Enrollment{
		StudentID:    student.ID,
		SchoolYearID: req.SchoolYearID,
		GradeLevel:   req.GradeLevel,
		Status:       status,
		Type:         enrollmentType,
		Method:       models.EnrollmentMethodSelf,
		SubmittedAt:  time.Now().UTC(),
	}
	if err := s.repo.CreateWithPreferences(ctx, enrollment, req.StrandPreferenceIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.metrics.RecordTransition(string(status))

	if err := s.storeDocuments(ctx, enrollment.ID, req.Documents); err != nil {
		s.logger.Warn("failed to store enrollment documents", zap.String("enrollment_id", enrollment.ID), zap.Error(err))
	}

	var submittedBy *string
	if actor.UserID != "" {
		submittedBy = &actor.UserID
	}
	s.audit(ctx, submittedBy, models.AuditActionEnrollmentSubmit, enrollment.ID, map[string]interface{}{
		"student_id":     student.ID,
		"school_year_id": req.SchoolYearID,
		"type":           enrollmentType,
	})

	return s.repo.FindDetailByID(ctx, enrollment.ID)
}

func (s *EnrollmentService) resolveStudent(ctx context.Context, req SubmitEnrollmentRequest) (*models.Student, error) {
	if req.StudentID != "" {
		student, err := s.students.FindByID(ctx, req.StudentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
		return student, nil
	}

	taken, err := s.students.ExistsLRN(ctx, req.LRN, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate LRN")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrDuplicateLRN, fmt.Sprintf("LRN %s is already registered", req.LRN))
	}

	student := &models.Student{
		LRN:             req.LRN,
		FirstName:       req.FirstName,
		MiddleName:      req.MiddleName,
		LastName:        req.LastName,
		Sex:             req.Sex,
		Address:         req.Address,
		GuardianName:    req.GuardianName,
		GuardianContact: req.GuardianContact,
		Active:          true,
	}
	if req.BirthDate != nil {
		student.BirthDate = *req.BirthDate
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

func (s *EnrollmentService) storeDocuments(ctx context.Context, enrollmentID string, uploads []DocumentUpload) error {
	if len(uploads) == 0 {
		return nil
	}
	documents := make([]models.EnrollmentDocument, 0, len(uploads))
	for _, upload := range uploads {
		path, err := s.documents.Save(fmt.Sprintf("%s/%s_%s", enrollmentID, upload.Kind, upload.Filename), upload.Content)
		if err != nil {
			return fmt.Errorf("store document %s: %w", upload.Kind, err)
		}
		documents = append(documents, models.EnrollmentDocument{
			EnrollmentID: enrollmentID,
			Kind:         upload.Kind,
			Path:         path,
		})
	}
	return s.repo.CreateDocuments(ctx, documents)
}

// Approve transitions an application into a section, guarded by the section
// capacity check, and materializes registration lines on the direct path.
func (s *EnrollmentService) Approve(ctx context.Context, id string, actor Actor, req ApproveEnrollmentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid approval payload")
	}

	enrollment, err := s.loadEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}

	target := models.EnrollmentStatusApproved
	if req.Direct {
		target = models.EnrollmentStatusEnrolled
	}
	if !models.CanTransition(enrollment.Status, target, actor.Role) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move %s to %s", enrollment.Status, target))
	}

	section, err := s.sections.FindDetailByID(ctx, req.SectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if section.SchoolYearID != enrollment.SchoolYearID {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "section belongs to a different school year")
	}
	if section.GradeLevel != enrollment.GradeLevel {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "section grade level does not match the application")
	}

	subjects, err := s.resolveSubjects(ctx, enrollment, section, req.SubjectIDs)
	if err != nil {
		return nil, err
	}

	err = s.repo.Approve(ctx, repository.ApproveParams{
		EnrollmentID: enrollment.ID,
		SectionID:    section.ID,
		StrandID:     section.StrandID,
		ReviewerID:   actor.UserID,
		ReviewNotes:  req.ReviewNotes,
		Target:       target,
		Subjects:     subjects,
	})
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			if appErr.Code == appErrors.ErrSectionFull.Code {
				s.metrics.RecordSectionFull()
			}
			return nil, appErr
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve enrollment")
	}

	s.metrics.RecordTransition(string(target))
	s.auditStrandOverride(ctx, enrollment, section, actor, req.OverrideReason)
	s.audit(ctx, &actor.UserID, models.AuditActionEnrollmentApprove, enrollment.ID, map[string]interface{}{
		"section_id": section.ID,
		"strand_id":  section.StrandID,
		"target":     target,
	})
	s.notify(EnrollmentEvent{
		Kind:         EventEnrollmentApproved,
		EnrollmentID: enrollment.ID,
		StudentID:    enrollment.StudentID,
		Data:         map[string]string{"section": section.Name, "strand": section.StrandCode},
	})

	return s.repo.FindDetailByID(ctx, enrollment.ID)
}

// auditStrandOverride records approvals into a strand outside the student's
// submitted preferences. The action still succeeds; the override is logged.
func (s *EnrollmentService) auditStrandOverride(ctx context.Context, enrollment *models.Enrollment, section *models.SectionDetail, actor Actor, reason string) {
	preferences, err := s.repo.ListPreferences(ctx, enrollment.ID)
	if err != nil {
		s.logger.Warn("failed to load preferences for override audit", zap.String("enrollment_id", enrollment.ID), zap.Error(err))
		return
	}
	for _, preference := range preferences {
		if preference.StrandID == section.StrandID {
			return
		}
	}
	if reason == "" {
		reason = "capacity or evaluation outcome"
	}
	s.audit(ctx, &actor.UserID, models.AuditActionStrandOverride, enrollment.ID, map[string]interface{}{
		"assigned_strand_id": section.StrandID,
		"reason":             reason,
	})
}

func (s *EnrollmentService) resolveSubjects(ctx context.Context, enrollment *models.Enrollment, section *models.SectionDetail, explicitIDs []string) ([]models.Subject, error) {
	offered, err := s.subjects.ListOffered(ctx, section.StrandID, enrollment.GradeLevel)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offered subjects")
	}

	if len(explicitIDs) > 0 {
		wanted := make(map[string]bool, len(explicitIDs))
		for _, id := range explicitIDs {
			wanted[id] = true
		}
		filtered := offered[:0]
		for _, subject := range offered {
			if wanted[subject.ID] {
				filtered = append(filtered, subject)
			}
		}
		offered = filtered
	}

	if enrollment.Type == models.EnrollmentTypeTransferee {
		// Credits are recorded per semester, so the exemption lookup runs
		// once per semester represented in the offering.
		credited := make(map[string]bool)
		seen := make(map[string]bool)
		for _, subject := range offered {
			if seen[subject.Semester] {
				continue
			}
			seen[subject.Semester] = true
			ids, err := s.credits.CreditedSubjectIDs(ctx, enrollment.StudentID, subject.Semester)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load credited subjects")
			}
			for id := range ids {
				credited[id] = true
			}
		}
		kept := offered[:0]
		for _, subject := range offered {
			if !credited[subject.ID] {
				kept = append(kept, subject)
			}
		}
		offered = kept
	}
	return offered, nil
}

// Finalize moves an approved enrollment to enrolled and materializes its
// registration lines.
func (s *EnrollmentService) Finalize(ctx context.Context, id string, actor Actor) (*models.EnrollmentDetail, error) {
	enrollment, err := s.loadEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(enrollment.Status, models.EnrollmentStatusEnrolled, actor.Role) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move %s to %s", enrollment.Status, models.EnrollmentStatusEnrolled))
	}
	if enrollment.SectionID == nil || enrollment.StrandID == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment has no section assignment")
	}

	section, err := s.sections.FindDetailByID(ctx, *enrollment.SectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	subjects, err := s.resolveSubjects(ctx, enrollment, section, nil)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Finalize(ctx, enrollment.ID, section.ID, enrollment.SchoolYearID, subjects); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize enrollment")
	}

	s.metrics.RecordTransition(string(models.EnrollmentStatusEnrolled))
	s.notify(EnrollmentEvent{
		Kind:         EventEnrollmentApproved,
		EnrollmentID: enrollment.ID,
		StudentID:    enrollment.StudentID,
		Data:         map[string]string{"section": section.Name},
	})
	return s.repo.FindDetailByID(ctx, enrollment.ID)
}

// Reject marks an application rejected with a required reason. The row stays
// as history; a new application starts a fresh enrollment.
func (s *EnrollmentService) Reject(ctx context.Context, id string, actor Actor, req ReviewRequest) (*models.EnrollmentDetail, error) {
	return s.review(ctx, id, actor, req, models.EnrollmentStatusRejected, models.AuditActionEnrollmentReject, EventEnrollmentRejected)
}

// Return sends an application back to the student for revision.
func (s *EnrollmentService) Return(ctx context.Context, id string, actor Actor, req ReviewRequest) (*models.EnrollmentDetail, error) {
	return s.review(ctx, id, actor, req, models.EnrollmentStatusReturned, models.AuditActionEnrollmentReturn, EventEnrollmentReturned)
}

func (s *EnrollmentService) review(ctx context.Context, id string, actor Actor, req ReviewRequest, target models.EnrollmentStatus, auditAction string, eventKind EventKind) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "a reason is required")
	}

	enrollment, err := s.loadEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(enrollment.Status, target, actor.Role) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move %s to %s", enrollment.Status, target))
	}

	if err := s.repo.UpdateStatus(ctx, id, target, actor.UserID, req.Reason); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment status")
	}

	s.metrics.RecordTransition(string(target))
	s.audit(ctx, &actor.UserID, auditAction, id, map[string]interface{}{"reason": req.Reason})
	s.notify(EnrollmentEvent{
		Kind:         eventKind,
		EnrollmentID: id,
		StudentID:    enrollment.StudentID,
		Data:         map[string]string{"reason": req.Reason},
	})
	return s.repo.FindDetailByID(ctx, id)
}

// Resubmit reopens a returned application with replacement strand
// preferences.
func (s *EnrollmentService) Resubmit(ctx context.Context, id string, actor Actor, req ResubmitEnrollmentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid resubmission payload")
	}
	if details := distinctPreferenceViolations(req.StrandPreferenceIDs); details != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "strand preferences must be distinct").WithDetails(details)
	}

	enrollment, err := s.loadEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}

	target := models.EnrollmentStatusPendingApproval
	if enrollment.Type == models.EnrollmentTypeTransferee {
		target = models.EnrollmentStatusPendingEvaluation
	}
	if !models.CanTransition(enrollment.Status, target, actor.Role) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only returned applications can be resubmitted")
	}

	ok, err := s.strands.ExistIDs(ctx, req.StrandPreferenceIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate strand choices")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "one or more strand choices do not exist")
	}

	if err := s.repo.Resubmit(ctx, id, target, req.StrandPreferenceIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resubmit enrollment")
	}
	s.metrics.RecordTransition(string(target))
	return s.repo.FindDetailByID(ctx, id)
}

func (s *EnrollmentService) loadEnrollment(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

func (s *EnrollmentService) audit(ctx context.Context, userID *string, action, resourceID string, values map[string]interface{}) {
	payload, _ := json.Marshal(values)
	resource := "enrollments"
	if err := s.audits.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}

// notify enqueues a notification without ever failing the caller. Delivery
// is best effort by policy.
func (s *EnrollmentService) notify(event EnrollmentEvent) {
	if s.notifier == nil {
		return
	}
	s.notifier.Dispatch(event)
}

// distinctPreferenceViolations returns field details when the three strand
// choices are not pairwise distinct.
func distinctPreferenceViolations(ids []string) map[string]string {
	seen := make(map[string]int, len(ids))
	details := make(map[string]string)
	for i, id := range ids {
		if first, ok := seen[id]; ok {
			details[fmt.Sprintf("strand_preference_ids[%d]", i)] = fmt.Sprintf("duplicates choice %d", first+1)
			continue
		}
		seen[id] = i
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

// validationError converts validator output into a field→message map.
func validationError(err error, message string) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	details := make(map[string]string, len(fieldErrors))
	for _, fe := range fieldErrors {
		details[fe.Field()] = fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
	return appErrors.Clone(appErrors.ErrValidation, message).WithDetails(details)
}
