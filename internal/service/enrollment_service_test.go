package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmagsino/shs-registrar-api/internal/models"
	"github.com/jmagsino/shs-registrar-api/internal/repository"
	appErrors "github.com/jmagsino/shs-registrar-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollments map[string]models.Enrollment
	preferences map[string][]models.StrandPreference
	active      bool
	created     *models.Enrollment
	createdIDs  []string
	approved    *repository.ApproveParams
	approveErr  error
	status      map[string]models.EnrollmentStatus
	reasons     map[string]string
	resubmitted []string
	documents   []models.EnrollmentDocument
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return nil, 0, nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if e, ok := m.enrollments[id]; ok {
		return &models.EnrollmentDetail{Enrollment: e, Preferences: m.preferences[id]}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) ListPreferences(ctx context.Context, enrollmentID string) ([]models.StrandPreference, error) {
	return m.preferences[enrollmentID], nil
}

func (m *mockEnrollmentRepo) ExistsActive(ctx context.Context, studentID, schoolYearID, excludeID string) (bool, error) {
	return m.active, nil
}

func (m *mockEnrollmentRepo) CreateWithPreferences(ctx context.Context, enrollment *models.Enrollment, strandIDs []string) error {
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.Enrollment)
	}
	if m.preferences == nil {
		m.preferences = make(map[string][]models.StrandPreference)
	}
	if enrollment.ID == "" {
		enrollment.ID = "enr-new"
	}
	prefs := make([]models.StrandPreference, 0, len(strandIDs))
	for i, strandID := range strandIDs {
		prefs = append(prefs, models.StrandPreference{
			EnrollmentID:    enrollment.ID,
			StrandID:        strandID,
			PreferenceOrder: i + 1,
		})
	}
	m.enrollments[enrollment.ID] = *enrollment
	m.preferences[enrollment.ID] = prefs
	m.created = enrollment
	m.createdIDs = strandIDs
	return nil
}

func (m *mockEnrollmentRepo) Resubmit(ctx context.Context, id string, status models.EnrollmentStatus, strandIDs []string) error {
	m.resubmitted = append(m.resubmitted, id)
	if e, ok := m.enrollments[id]; ok {
		e.Status = status
		m.enrollments[id] = e
	}
	return nil
}

func (m *mockEnrollmentRepo) Approve(ctx context.Context, params repository.ApproveParams) error {
	if m.approveErr != nil {
		return m.approveErr
	}
	m.approved = &params
	if e, ok := m.enrollments[params.EnrollmentID]; ok {
		e.Status = params.Target
		e.SectionID = &params.SectionID
		e.StrandID = &params.StrandID
		regNo := "REG00000001"
		e.RegistrationNumber = &regNo
		m.enrollments[params.EnrollmentID] = e
	}
	return nil
}

func (m *mockEnrollmentRepo) Finalize(ctx context.Context, enrollmentID, sectionID, schoolYearID string, subjects []models.Subject) error {
	if e, ok := m.enrollments[enrollmentID]; ok {
		e.Status = models.EnrollmentStatusEnrolled
		m.enrollments[enrollmentID] = e
	}
	return nil
}

func (m *mockEnrollmentRepo) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, reviewerID, reason string) error {
	if m.status == nil {
		m.status = make(map[string]models.EnrollmentStatus)
	}
	if m.reasons == nil {
		m.reasons = make(map[string]string)
	}
	m.status[id] = status
	m.reasons[id] = reason
	if e, ok := m.enrollments[id]; ok {
		e.Status = status
		m.enrollments[id] = e
	}
	return nil
}

func (m *mockEnrollmentRepo) CreateDocuments(ctx context.Context, documents []models.EnrollmentDocument) error {
	m.documents = append(m.documents, documents...)
	return nil
}

func (m *mockEnrollmentRepo) ListDocuments(ctx context.Context, enrollmentID string) ([]models.EnrollmentDocument, error) {
	var documents []models.EnrollmentDocument
	for _, d := range m.documents {
		if d.EnrollmentID == enrollmentID {
			documents = append(documents, d)
		}
	}
	return documents, nil
}

type mockStudentStore struct {
	students map[string]models.Student
	byUser   map[string]models.Student
	lrnTaken bool
	created  *models.Student
}

func (m *mockStudentStore) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentStore) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	if s, ok := m.byUser[userID]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentStore) ExistsLRN(ctx context.Context, lrn, excludeID string) (bool, error) {
	return m.lrnTaken, nil
}

func (m *mockStudentStore) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = "stu-new"
	}
	m.created = student
	return nil
}

type mockSchoolYearReader struct {
	year   *models.SchoolYear
	active *models.SchoolYear
}

func (m *mockSchoolYearReader) FindByID(ctx context.Context, id string) (*models.SchoolYear, error) {
	if m.year == nil || m.year.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.year, nil
}

func (m *mockSchoolYearReader) FindActive(ctx context.Context) (*models.SchoolYear, error) {
	if m.active == nil {
		return nil, sql.ErrNoRows
	}
	return m.active, nil
}

type mockStrandChecker struct {
	known map[string]bool
}

func (m *mockStrandChecker) FindByID(ctx context.Context, id string) (*models.Strand, error) {
	if m.known[id] {
		return &models.Strand{ID: id, Code: "STEM"}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStrandChecker) ExistIDs(ctx context.Context, ids []string) (bool, error) {
	for _, id := range ids {
		if !m.known[id] {
			return false, nil
		}
	}
	return true, nil
}

type mockSectionReader struct {
	sections map[string]models.SectionDetail
}

func (m *mockSectionReader) FindDetailByID(ctx context.Context, id string) (*models.SectionDetail, error) {
	if s, ok := m.sections[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockSubjectLister struct {
	offered []models.Subject
}

func (m *mockSubjectLister) ListOffered(ctx context.Context, strandID string, gradeLevel int) ([]models.Subject, error) {
	return append([]models.Subject(nil), m.offered...), nil
}

type mockCreditedReader struct {
	credited  map[string]bool
	semesters []string
}

func (m *mockCreditedReader) CreditedSubjectIDs(ctx context.Context, studentID, semester string) (map[string]bool, error) {
	m.semesters = append(m.semesters, semester)
	return m.credited, nil
}

type mockAuditWriter struct {
	actions []string
	userIDs []*string
}

func (m *mockAuditWriter) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.actions = append(m.actions, log.Action)
	m.userIDs = append(m.userIDs, log.UserID)
	return nil
}

type mockDocumentStore struct {
	saved []string
}

func (m *mockDocumentStore) Save(filename string, data []byte) (string, error) {
	m.saved = append(m.saved, filename)
	return filename, nil
}

type enrollmentFixture struct {
	repo     *mockEnrollmentRepo
	students *mockStudentStore
	years    *mockSchoolYearReader
	strands  *mockStrandChecker
	sections *mockSectionReader
	subjects *mockSubjectLister
	credits  *mockCreditedReader
	audits   *mockAuditWriter
	docs     *mockDocumentStore
	service  *EnrollmentService
}

func newEnrollmentFixture() *enrollmentFixture {
	f := &enrollmentFixture{
		repo:     &mockEnrollmentRepo{},
		students: &mockStudentStore{},
		years: &mockSchoolYearReader{year: &models.SchoolYear{
			ID: "sy-1", Name: "2025-2026", EnrollmentOpen: true,
		}},
		strands: &mockStrandChecker{known: map[string]bool{
			"strand-stem": true, "strand-humss": true, "strand-abm": true,
		}},
		sections: &mockSectionReader{sections: map[string]models.SectionDetail{}},
		subjects: &mockSubjectLister{},
		credits:  &mockCreditedReader{},
		audits:   &mockAuditWriter{},
		docs:     &mockDocumentStore{},
	}
	f.service = NewEnrollmentService(
		f.repo, f.students, f.years, f.strands, f.sections,
		f.subjects, f.credits, f.audits, f.docs, nil, nil, nil, nil,
	)
	return f
}

func validSubmitRequest() SubmitEnrollmentRequest {
	birth := time.Date(2009, 3, 15, 0, 0, 0, 0, time.UTC)
	return SubmitEnrollmentRequest{
		SchoolYearID:        "sy-1",
		GradeLevel:          11,
		LRN:                 "123456789012",
		FirstName:           "Juan",
		LastName:            "Dela Cruz",
		Sex:                 "male",
		BirthDate:           &birth,
		Address:             "Quezon City",
		GuardianName:        "Maria Dela Cruz",
		GuardianContact:     "09171234567",
		StrandPreferenceIDs: []string{"strand-stem", "strand-humss", "strand-abm"},
	}
}

func TestSubmitCreatesPendingApplicationWithPreferences(t *testing.T) {
	f := newEnrollmentFixture()

	detail, err := f.service.Submit(context.Background(), Actor{}, validSubmitRequest())
	require.NoError(t, err)

	assert.Equal(t, models.EnrollmentStatusPendingApproval, detail.Status)
	assert.Equal(t, models.EnrollmentTypeRegular, detail.Type)
	require.Len(t, detail.Preferences, 3)
	assert.Equal(t, "strand-stem", detail.Preferences[0].StrandID)
	assert.Equal(t, 1, detail.Preferences[0].PreferenceOrder)
	assert.Equal(t, 3, detail.Preferences[2].PreferenceOrder)
	require.NotNil(t, f.students.created)
	assert.Equal(t, "123456789012", f.students.created.LRN)
	assert.Contains(t, f.audits.actions, models.AuditActionEnrollmentSubmit)
}

func TestSubmitTransfereeRoutesToEvaluation(t *testing.T) {
	f := newEnrollmentFixture()
	req := validSubmitRequest()
	req.EnrollmentType = models.EnrollmentTypeTransferee

	detail, err := f.service.Submit(context.Background(), Actor{}, req)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusPendingEvaluation, detail.Status)
}

func TestSubmitRejectsDuplicatePreferences(t *testing.T) {
	f := newEnrollmentFixture()
	req := validSubmitRequest()
	req.StrandPreferenceIDs = []string{"strand-stem", "strand-stem", "strand-abm"}

	_, err := f.service.Submit(context.Background(), Actor{}, req)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Details, "strand_preference_ids[1]")
}

func TestSubmitRejectsClosedWindow(t *testing.T) {
	f := newEnrollmentFixture()
	f.years.year.EnrollmentOpen = false

	_, err := f.service.Submit(context.Background(), Actor{}, validSubmitRequest())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrEnrollmentClosed.Code, appErr.Code)
}

func TestSubmitRejectsSecondActiveApplication(t *testing.T) {
	f := newEnrollmentFixture()
	f.repo.active = true

	_, err := f.service.Submit(context.Background(), Actor{}, validSubmitRequest())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrAlreadyApplied.Code, appErr.Code)
}

func TestSubmitRejectsDuplicateLRN(t *testing.T) {
	f := newEnrollmentFixture()
	f.students.lrnTaken = true

	_, err := f.service.Submit(context.Background(), Actor{}, validSubmitRequest())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrDuplicateLRN.Code, appErr.Code)
}

func TestApproveAssignsSectionAndMaterializes(t *testing.T) {
	f := newEnrollmentFixture()
	f.repo.enrollments = map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", SchoolYearID: "sy-1", GradeLevel: 11, Status: models.EnrollmentStatusPendingApproval, Type: models.EnrollmentTypeRegular},
	}
	f.repo.preferences = map[string][]models.StrandPreference{
		"enr-1": {{StrandID: "strand-stem", PreferenceOrder: 1}},
	}
	f.sections.sections["sec-1"] = models.SectionDetail{
		Section:    models.Section{ID: "sec-1", Name: "11-Rizal", StrandID: "strand-stem", GradeLevel: 11, Capacity: 40, SchoolYearID: "sy-1"},
		StrandCode: "STEM",
	}
	f.subjects.offered = []models.Subject{{ID: "subj-1"}, {ID: "subj-2"}}

	detail, err := f.service.Approve(context.Background(), "enr-1", Actor{UserID: "reg-1", Role: models.RoleRegistrar}, ApproveEnrollmentRequest{
		SectionID: "sec-1",
		Direct:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, models.EnrollmentStatusEnrolled, detail.Status)
	require.NotNil(t, f.repo.approved)
	assert.Equal(t, models.EnrollmentStatusEnrolled, f.repo.approved.Target)
	assert.Len(t, f.repo.approved.Subjects, 2)
	assert.Contains(t, f.audits.actions, models.AuditActionEnrollmentApprove)
	assert.NotContains(t, f.audits.actions, models.AuditActionStrandOverride)
}

func TestApproveExemptsCreditedSubjectsForTransferees(t *testing.T) {
	f := newEnrollmentFixture()
	f.repo.enrollments = map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", SchoolYearID: "sy-1", GradeLevel: 11, Status: models.EnrollmentStatusEvaluated, Type: models.EnrollmentTypeTransferee},
	}
	f.sections.sections["sec-1"] = models.SectionDetail{
		Section: models.Section{ID: "sec-1", StrandID: "strand-stem", GradeLevel: 11, SchoolYearID: "sy-1"},
	}
	f.subjects.offered = []models.Subject{
		{ID: "subj-1", Semester: "1st"},
		{ID: "subj-2", Semester: "1st"},
		{ID: "subj-3", Semester: "2nd"},
	}
	f.credits.credited = map[string]bool{"subj-2": true}

	_, err := f.service.Approve(context.Background(), "enr-1", Actor{UserID: "reg-1", Role: models.RoleRegistrar}, ApproveEnrollmentRequest{
		SectionID: "sec-1",
		Direct:    true,
	})
	require.NoError(t, err)

	require.NotNil(t, f.repo.approved)
	ids := make([]string, 0, len(f.repo.approved.Subjects))
	for _, subject := range f.repo.approved.Subjects {
		ids = append(ids, subject.ID)
	}
	assert.ElementsMatch(t, []string{"subj-1", "subj-3"}, ids)
	assert.ElementsMatch(t, []string{"1st", "2nd"}, f.credits.semesters)
}

func TestApproveAuditsStrandOverride(t *testing.T) {
	f := newEnrollmentFixture()
	f.repo.enrollments = map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", SchoolYearID: "sy-1", GradeLevel: 11, Status: models.EnrollmentStatusPendingApproval},
	}
	f.repo.preferences = map[string][]models.StrandPreference{
		"enr-1": {{StrandID: "strand-humss", PreferenceOrder: 1}, {StrandID: "strand-abm", PreferenceOrder: 2}},
	}
	f.sections.sections["sec-1"] = models.SectionDetail{
		Section: models.Section{ID: "sec-1", StrandID: "strand-stem", GradeLevel: 11, SchoolYearID: "sy-1"},
	}

	_, err := f.service.Approve(context.Background(), "enr-1", Actor{UserID: "reg-1", Role: models.RoleRegistrar}, ApproveEnrollmentRequest{
		SectionID:      "sec-1",
		OverrideReason: "preferred sections full",
	})
	require.NoError(t, err)
	assert.Contains(t, f.audits.actions, models.AuditActionStrandOverride)
}

func TestApprovePropagatesSectionFull(t *testing.T) {
	f := newEnrollmentFixture()
	f.repo.enrollments = map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", SchoolYearID: "sy-1", GradeLevel: 11, Status: models.EnrollmentStatusPendingApproval},
	}
	f.sections.sections["sec-1"] = models.SectionDetail{
		Section: models.Section{ID: "sec-1", StrandID: "strand-stem", GradeLevel: 11, Capacity: 40, SchoolYearID: "sy-1"},
	}
	f.repo.approveErr = appErrors.Clone(appErrors.ErrSectionFull, "section is full (40/40)")

	_, err := f.service.Approve(context.Background(), "enr-1", Actor{UserID: "reg-1", Role: models.RoleRegistrar}, ApproveEnrollmentRequest{SectionID: "sec-1"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrSectionFull.Code, appErr.Code)
}

func TestApproveRejectsWrongSchoolYearSection(t *testing.T) {
	f := newEnrollmentFixture()
	f.repo.enrollments = map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", SchoolYearID: "sy-1", GradeLevel: 11, Status: models.EnrollmentStatusPendingApproval},
	}
	f.sections.sections["sec-other"] = models.SectionDetail{
		Section: models.Section{ID: "sec-other", StrandID: "strand-stem", GradeLevel: 11, SchoolYearID: "sy-2"},
	}

	_, err := f.service.Approve(context.Background(), "enr-1", Actor{UserID: "reg-1", Role: models.RoleRegistrar}, ApproveEnrollmentRequest{SectionID: "sec-other"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestApproveRejectsInvalidTransition(t *testing.T) {
	f := newEnrollmentFixture()
	f.repo.enrollments = map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", Status: models.EnrollmentStatusRejected},
	}

	_, err := f.service.Approve(context.Background(), "enr-1", Actor{UserID: "reg-1", Role: models.RoleRegistrar}, ApproveEnrollmentRequest{SectionID: "sec-1"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestRejectRequiresReasonAndRecordsIt(t *testing.T) {
	f := newEnrollmentFixture()
	f.repo.enrollments = map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", Status: models.EnrollmentStatusPendingApproval},
	}
	actor := Actor{UserID: "reg-1", Role: models.RoleRegistrar}

	_, err := f.service.Reject(context.Background(), "enr-1", actor, ReviewRequest{})
	require.Error(t, err, "a blank reason must be rejected")

	detail, err := f.service.Reject(context.Background(), "enr-1", actor, ReviewRequest{Reason: "missing report card"})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusRejected, detail.Status)
	assert.Equal(t, "missing report card", f.repo.reasons["enr-1"])
	assert.Contains(t, f.audits.actions, models.AuditActionEnrollmentReject)
}

func TestResubmitReopensReturnedApplication(t *testing.T) {
	f := newEnrollmentFixture()
	f.repo.enrollments = map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", Status: models.EnrollmentStatusReturned, Type: models.EnrollmentTypeRegular},
	}

	detail, err := f.service.Resubmit(context.Background(), "enr-1", Actor{UserID: "stu-1", Role: models.RoleStudent}, ResubmitEnrollmentRequest{
		StrandPreferenceIDs: []string{"strand-abm", "strand-stem", "strand-humss"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusPendingApproval, detail.Status)
	assert.Equal(t, []string{"enr-1"}, f.repo.resubmitted)
}

func TestResubmitRejectedIsRefused(t *testing.T) {
	f := newEnrollmentFixture()
	f.repo.enrollments = map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", Status: models.EnrollmentStatusRejected},
	}

	_, err := f.service.Resubmit(context.Background(), "enr-1", Actor{UserID: "stu-1", Role: models.RoleStudent}, ResubmitEnrollmentRequest{
		StrandPreferenceIDs: []string{"strand-abm", "strand-stem", "strand-humss"},
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestFinalizeMovesApprovedToEnrolled(t *testing.T) {
	f := newEnrollmentFixture()
	sectionID := "sec-1"
	strandID := "strand-stem"
	f.repo.enrollments = map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", SchoolYearID: "sy-1", GradeLevel: 11, Status: models.EnrollmentStatusApproved, SectionID: &sectionID, StrandID: &strandID},
	}
	f.sections.sections[sectionID] = models.SectionDetail{
		Section: models.Section{ID: sectionID, StrandID: strandID, GradeLevel: 11, SchoolYearID: "sy-1"},
	}
	f.subjects.offered = []models.Subject{{ID: "subj-1"}}

	detail, err := f.service.Finalize(context.Background(), "enr-1", Actor{UserID: "reg-1", Role: models.RoleRegistrar})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusEnrolled, detail.Status)
}

func TestDistinctPreferenceViolations(t *testing.T) {
	assert.Nil(t, distinctPreferenceViolations([]string{"a", "b", "c"}))
	details := distinctPreferenceViolations([]string{"a", "a", "a"})
	require.NotNil(t, details)
	assert.Len(t, details, 2)
}

func TestOwnedByResolvesStudentAccount(t *testing.T) {
	f := newEnrollmentFixture()
	f.repo.enrollments = map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", SchoolYearID: "sy-1", Status: models.EnrollmentStatusEnrolled},
	}
	f.students.byUser = map[string]models.Student{
		"user-1": {ID: "stu-1"},
		"user-2": {ID: "stu-2"},
	}

	owned, err := f.service.OwnedBy(context.Background(), "enr-1", "user-1")
	require.NoError(t, err)
	assert.True(t, owned)

	owned, err = f.service.OwnedBy(context.Background(), "enr-1", "user-2")
	require.NoError(t, err)
	assert.False(t, owned)
}

func TestOwnedByWithoutStudentRecord(t *testing.T) {
	f := newEnrollmentFixture()
	f.repo.enrollments = map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", SchoolYearID: "sy-1", Status: models.EnrollmentStatusEnrolled},
	}

	owned, err := f.service.OwnedBy(context.Background(), "enr-1", "user-9")
	require.NoError(t, err)
	assert.False(t, owned)
}

func TestGetIncludesStoredDocuments(t *testing.T) {
	f := newEnrollmentFixture()
	f.repo.enrollments = map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", SchoolYearID: "sy-1", Status: models.EnrollmentStatusPendingApproval},
	}
	f.repo.documents = []models.EnrollmentDocument{
		{ID: "doc-1", EnrollmentID: "enr-1", Kind: models.DocumentReportCard},
		{ID: "doc-2", EnrollmentID: "enr-other", Kind: models.DocumentGoodMoral},
	}

	detail, err := f.service.Get(context.Background(), "enr-1")
	require.NoError(t, err)
	require.Len(t, detail.Documents, 1)
	assert.Equal(t, "doc-1", detail.Documents[0].ID)
}

func TestSubmitAttributesAuthenticatedApplicant(t *testing.T) {
	f := newEnrollmentFixture()

	_, err := f.service.Submit(context.Background(), Actor{UserID: "user-1", Role: models.RoleStudent}, validSubmitRequest())
	require.NoError(t, err)

	require.Len(t, f.audits.userIDs, 1)
	require.NotNil(t, f.audits.userIDs[0])
	assert.Equal(t, "user-1", *f.audits.userIDs[0])
}

func TestSubmitAnonymousApplicantLeavesAuditUnattributed(t *testing.T) {
	f := newEnrollmentFixture()

	_, err := f.service.Submit(context.Background(), Actor{}, validSubmitRequest())
	require.NoError(t, err)

	require.Len(t, f.audits.userIDs, 1)
	assert.Nil(t, f.audits.userIDs[0])
}

func TestSubmitUnknownStrandChoice(t *testing.T) {
	f := newEnrollmentFixture()
	req := validSubmitRequest()
	req.StrandPreferenceIDs = []string{"strand-stem", "strand-humss", "strand-tvl"}

	_, err := f.service.Submit(context.Background(), Actor{}, req)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
