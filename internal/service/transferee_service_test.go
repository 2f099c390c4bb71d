package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmagsino/shs-registrar-api/internal/models"
	"github.com/jmagsino/shs-registrar-api/internal/repository"
	appErrors "github.com/jmagsino/shs-registrar-api/pkg/errors"
)

type mockTransfereeRepo struct {
	school    *models.TransfereePreviousSchool
	credited  []models.TransfereeCreditedSubject
	evaluated *repository.EvaluateParams
}

func (m *mockTransfereeRepo) FindPreviousSchool(ctx context.Context, studentID string) (*models.TransfereePreviousSchool, error) {
	if m.school == nil {
		return nil, sql.ErrNoRows
	}
	return m.school, nil
}

func (m *mockTransfereeRepo) ListCreditedSubjects(ctx context.Context, studentID string) ([]models.TransfereeCreditedSubject, error) {
	return m.credited, nil
}

func (m *mockTransfereeRepo) Evaluate(ctx context.Context, params repository.EvaluateParams) error {
	m.evaluated = &params
	m.school = &params.PreviousSchool
	m.credited = params.CreditedSubjects
	return nil
}

type mockSubjectReader struct {
	known map[string]bool
}

func (m *mockSubjectReader) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if m.known[id] {
		return &models.Subject{ID: id}, nil
	}
	return nil, sql.ErrNoRows
}

type transfereeFixture struct {
	repo        *mockTransfereeRepo
	enrollments *mockEnrollmentRepo
	subjects    *mockSubjectReader
	strands     *mockStrandChecker
	years       *mockSchoolYearReader
	audits      *mockAuditWriter
	service     *TransfereeService
}

func newTransfereeFixture() *transfereeFixture {
	f := &transfereeFixture{
		repo: &mockTransfereeRepo{},
		enrollments: &mockEnrollmentRepo{
			enrollments: map[string]models.Enrollment{
				"enr-1": {ID: "enr-1", StudentID: "stu-1", SchoolYearID: "sy-1", GradeLevel: 11, Status: models.EnrollmentStatusPendingEvaluation, Type: models.EnrollmentTypeTransferee},
			},
		},
		subjects: &mockSubjectReader{known: map[string]bool{"subj-1": true, "subj-2": true}},
		strands:  &mockStrandChecker{known: map[string]bool{"strand-stem": true}},
		years:    &mockSchoolYearReader{},
		audits:   &mockAuditWriter{},
	}
	f.service = NewTransfereeService(f.repo, f.enrollments, f.subjects, f.strands, f.years, f.audits, nil, nil, nil)
	return f
}

func grade(v float64) *float64 { return &v }

func validEvaluateRequest() EvaluateTransfereeRequest {
	return EvaluateTransfereeRequest{
		PreviousSchoolName:    "Don Mariano Marcos Memorial High School",
		LastGradeLevel:        10,
		LastSchoolYear:        "2024-2025",
		RecommendedStrandID:   "strand-stem",
		RecommendedGradeLevel: 11,
		CreditedSubjects: []CreditedSubjectInput{
			{SubjectID: "subj-1", Semester: "1st", EquivalentGrade: grade(88)},
			{SubjectID: "subj-2", Semester: "2nd", EquivalentGrade: grade(91.5)},
		},
	}
}

func TestEvaluateRecordsCreditsAndRecommendation(t *testing.T) {
	f := newTransfereeFixture()
	coordinator := Actor{UserID: "coord-1", Role: models.RoleCoordinator}

	detail, err := f.service.Evaluate(context.Background(), "enr-1", coordinator, validEvaluateRequest())
	require.NoError(t, err)

	require.NotNil(t, f.repo.evaluated)
	assert.Equal(t, "strand-stem", f.repo.evaluated.RecommendedStrandID)
	assert.Equal(t, 11, f.repo.evaluated.RecommendedGradeLevel)
	require.Len(t, f.repo.evaluated.CreditedSubjects, 2)
	assert.Equal(t, "2024-2025", f.repo.evaluated.CreditedSubjects[0].SchoolYear)
	assert.Equal(t, 88.0, f.repo.evaluated.CreditedSubjects[0].Grade)
	assert.Contains(t, f.audits.actions, models.AuditActionEnrollmentEvaluate)
	require.NotNil(t, detail.PreviousSchool)
	assert.Equal(t, 10, detail.PreviousSchool.LastGradeLevel)
}

func TestEvaluateFallsBackToActiveSchoolYear(t *testing.T) {
	f := newTransfereeFixture()
	f.years.active = &models.SchoolYear{ID: "sy-1", Name: "2025-2026"}
	req := validEvaluateRequest()
	req.LastSchoolYear = ""

	_, err := f.service.Evaluate(context.Background(), "enr-1", Actor{UserID: "coord-1", Role: models.RoleCoordinator}, req)
	require.NoError(t, err)
	assert.Equal(t, "2025-2026", f.repo.evaluated.CreditedSubjects[0].SchoolYear)
	assert.Equal(t, "2025-2026", f.repo.evaluated.PreviousSchool.LastSchoolYear)
}

func TestEvaluateDerivesSchoolYearWithoutActiveOne(t *testing.T) {
	f := newTransfereeFixture()
	req := validEvaluateRequest()
	req.LastSchoolYear = ""

	_, err := f.service.Evaluate(context.Background(), "enr-1", Actor{UserID: "coord-1", Role: models.RoleCoordinator}, req)
	require.NoError(t, err)

	now := time.Now()
	start := now.Year()
	if now.Month() < time.June {
		start--
	}
	assert.Equal(t, fmt.Sprintf("%d-%d", start, start+1), f.repo.evaluated.CreditedSubjects[0].SchoolYear)
}

func TestEvaluateRequiresEquivalentGrade(t *testing.T) {
	f := newTransfereeFixture()
	req := validEvaluateRequest()
	req.CreditedSubjects[0].EquivalentGrade = nil

	_, err := f.service.Evaluate(context.Background(), "enr-1", Actor{UserID: "coord-1", Role: models.RoleCoordinator}, req)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestEvaluateRejectsUnknownCreditedSubject(t *testing.T) {
	f := newTransfereeFixture()
	req := validEvaluateRequest()
	req.CreditedSubjects[1].SubjectID = "subj-ghost"

	_, err := f.service.Evaluate(context.Background(), "enr-1", Actor{UserID: "coord-1", Role: models.RoleCoordinator}, req)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Details, "credited_subjects[1].subject_id")
}

func TestEvaluateRejectsNonCoordinator(t *testing.T) {
	f := newTransfereeFixture()

	_, err := f.service.Evaluate(context.Background(), "enr-1", Actor{UserID: "reg-1", Role: models.RoleRegistrar}, validEvaluateRequest())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestEvaluateRejectsRegularEnrollment(t *testing.T) {
	f := newTransfereeFixture()
	f.enrollments.enrollments["enr-2"] = models.Enrollment{
		ID: "enr-2", StudentID: "stu-2", Status: models.EnrollmentStatusPendingApproval, Type: models.EnrollmentTypeRegular,
	}

	_, err := f.service.Evaluate(context.Background(), "enr-2", Actor{UserID: "coord-1", Role: models.RoleCoordinator}, validEvaluateRequest())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotTransferee.Code, appErr.Code)
}

func TestGetRejectsRegularEnrollment(t *testing.T) {
	f := newTransfereeFixture()
	f.enrollments.enrollments["enr-2"] = models.Enrollment{
		ID: "enr-2", StudentID: "stu-2", Status: models.EnrollmentStatusPendingApproval, Type: models.EnrollmentTypeRegular,
	}

	_, err := f.service.Get(context.Background(), "enr-2")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotTransferee.Code, appErr.Code)
}
