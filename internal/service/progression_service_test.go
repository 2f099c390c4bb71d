package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmagsino/shs-registrar-api/internal/models"
)

type mockGradeRepo struct {
	approvedGrades []models.GradeDetail
	upserted       *models.Grade
	released       []string
}

func (m *mockGradeRepo) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, error) {
	return m.approvedGrades, nil
}

func (m *mockGradeRepo) ListApprovedByStudentAndYear(ctx context.Context, studentID, schoolYearID string) ([]models.GradeDetail, error) {
	return m.approvedGrades, nil
}

func (m *mockGradeRepo) Upsert(ctx context.Context, grade *models.Grade) error {
	m.upserted = grade
	return nil
}

func (m *mockGradeRepo) ApproveByEnrollment(ctx context.Context, enrollmentID string) error {
	m.released = append(m.released, enrollmentID)
	return nil
}

func semesterGrade(v float64) *float64 { return &v }

func gradeDetail(subjectID string, final *float64) models.GradeDetail {
	return models.GradeDetail{
		Grade: models.Grade{SubjectID: subjectID, Semester: "1st", SemesterGrade: final},
	}
}

func newProgressionService(grades *mockGradeRepo) *ProgressionService {
	students := &mockStudentStore{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", LRN: "123456789012"},
	}}
	return NewProgressionService(grades, students, nil, nil)
}

func TestClassifyPromotedWithNoFailures(t *testing.T) {
	grades := &mockGradeRepo{approvedGrades: []models.GradeDetail{
		gradeDetail("subj-1", semesterGrade(90)),
		gradeDetail("subj-2", semesterGrade(75)),
	}}

	result, err := newProgressionService(grades).Classify(context.Background(), "stu-1", "sy-1")
	require.NoError(t, err)
	assert.Equal(t, models.ProgressionPromoted, result.Outcome)
	assert.Zero(t, result.FailedCount)
	assert.Empty(t, result.FailedSubjects)
}

func TestClassifySummerEligibleUpToThreeFailures(t *testing.T) {
	grades := &mockGradeRepo{approvedGrades: []models.GradeDetail{
		gradeDetail("subj-1", semesterGrade(74.9)),
		gradeDetail("subj-2", semesterGrade(70)),
		gradeDetail("subj-3", semesterGrade(68)),
		gradeDetail("subj-4", semesterGrade(85)),
	}}

	result, err := newProgressionService(grades).Classify(context.Background(), "stu-1", "sy-1")
	require.NoError(t, err)
	assert.Equal(t, models.ProgressionSummerEligible, result.Outcome)
	assert.Equal(t, 3, result.FailedCount)
}

func TestClassifyRetainedFromFourFailures(t *testing.T) {
	grades := &mockGradeRepo{approvedGrades: []models.GradeDetail{
		gradeDetail("subj-1", semesterGrade(60)),
		gradeDetail("subj-2", semesterGrade(65)),
		gradeDetail("subj-3", semesterGrade(70)),
		gradeDetail("subj-4", semesterGrade(74)),
	}}

	result, err := newProgressionService(grades).Classify(context.Background(), "stu-1", "sy-1")
	require.NoError(t, err)
	assert.Equal(t, models.ProgressionRetained, result.Outcome)
}

func TestClassifyMissingGradeCountsAsFailed(t *testing.T) {
	grades := &mockGradeRepo{approvedGrades: []models.GradeDetail{
		gradeDetail("subj-1", nil),
	}}

	result, err := newProgressionService(grades).Classify(context.Background(), "stu-1", "sy-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, models.ProgressionSummerEligible, result.Outcome)
}

func TestClassifyUnknownStudent(t *testing.T) {
	_, err := newProgressionService(&mockGradeRepo{}).Classify(context.Background(), "stu-ghost", "sy-1")
	require.Error(t, err)
}

func TestClassifyOutcomeBoundaries(t *testing.T) {
	assert.Equal(t, models.ProgressionPromoted, ClassifyOutcome(0))
	assert.Equal(t, models.ProgressionSummerEligible, ClassifyOutcome(1))
	assert.Equal(t, models.ProgressionSummerEligible, ClassifyOutcome(3))
	assert.Equal(t, models.ProgressionRetained, ClassifyOutcome(4))
	assert.Equal(t, models.ProgressionRetained, ClassifyOutcome(9))
}

func TestUpsertGradeValidatesRange(t *testing.T) {
	grades := &mockGradeRepo{}
	service := NewProgressionService(grades, &mockStudentStore{}, nil, nil)

	_, err := service.UpsertGrade(context.Background(), UpsertGradeRequest{
		EnrollmentID: "enr-1",
		SubjectID:    "subj-1",
		Semester:     "1st",
		FirstQuarter: semesterGrade(101),
	})
	require.Error(t, err)
	assert.Nil(t, grades.upserted)
}

func TestApproveGradesReleasesEnrollment(t *testing.T) {
	grades := &mockGradeRepo{}
	service := NewProgressionService(grades, &mockStudentStore{}, nil, nil)

	require.NoError(t, service.ApproveGrades(context.Background(), "enr-1"))
	assert.Equal(t, []string{"enr-1"}, grades.released)
}
