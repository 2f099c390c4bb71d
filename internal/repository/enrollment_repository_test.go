package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/jmagsino/shs-registrar-api/internal/models"
	appErrors "github.com/jmagsino/shs-registrar-api/pkg/errors"
)

func newEnrollmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryApproveRejectsFullSection(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT capacity, school_year_id FROM sections WHERE id = $1 FOR UPDATE")).
		WithArgs("sec-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "school_year_id"}).AddRow(40, "sy-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE section_id = $1 AND status IN ('approved', 'enrolled') AND id <> $2")).
		WithArgs("sec-1", "enr-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(40))
	mock.ExpectRollback()

	err := repo.Approve(context.Background(), ApproveParams{
		EnrollmentID: "enr-1",
		SectionID:    "sec-1",
		StrandID:     "strand-stem",
		ReviewerID:   "reg-1",
		Target:       models.EnrollmentStatusApproved,
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrSectionFull.Code, appErr.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryApproveDirectEnrollMaterializesLines(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT capacity, school_year_id FROM sections WHERE id = $1 FOR UPDATE")).
		WithArgs("sec-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "school_year_id"}).AddRow(40, "sy-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE section_id = $1 AND status IN ('approved', 'enrolled') AND id <> $2")).
		WithArgs("sec-1", "enr-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT nextval('registration_number_seq')")).
		WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(int64(42)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2, strand_id = $3, section_id = $4, reviewer_id = $5, review_notes = $6, registration_number = $7, reviewed_at = $8, enrolled_at = $9 WHERE id = $1")).
		WithArgs("enr-1", models.EnrollmentStatusEnrolled, "strand-stem", "sec-1", "reg-1", nil, "REG00000042", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// First subject already has a slot, the second gets one created.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM schedule_slots WHERE section_id = $1 AND subject_id = $2 AND school_year_id = $3 LIMIT 1")).
		WithArgs("sec-1", "subj-1", "sy-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("slot-1"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registration_lines")).
		WithArgs(sqlmock.AnyArg(), "slot-1", "enr-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM schedule_slots WHERE section_id = $1 AND subject_id = $2 AND school_year_id = $3 LIMIT 1")).
		WithArgs("sec-1", "subj-2", "sy-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_slots")).
		WithArgs(sqlmock.AnyArg(), "subj-2", "sec-1", "sy-1", "1st", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registration_lines")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "enr-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectCommit()

	err := repo.Approve(context.Background(), ApproveParams{
		EnrollmentID: "enr-1",
		SectionID:    "sec-1",
		StrandID:     "strand-stem",
		ReviewerID:   "reg-1",
		Target:       models.EnrollmentStatusEnrolled,
		Subjects: []models.Subject{
			{ID: "subj-1", Semester: "1st"},
			{ID: "subj-2", Semester: "1st"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryApproveExcludesOwnSeatFromCapacity(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	// The enrollment already holds one of the 40 seats from its earlier
	// approval, so the count excluding its own row comes back one short of
	// capacity and the move to enrolled goes through.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT capacity, school_year_id FROM sections WHERE id = $1 FOR UPDATE")).
		WithArgs("sec-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "school_year_id"}).AddRow(40, "sy-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE section_id = $1 AND status IN ('approved', 'enrolled') AND id <> $2")).
		WithArgs("sec-1", "enr-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(39))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT nextval('registration_number_seq')")).
		WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(int64(99)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET")).
		WithArgs("enr-1", models.EnrollmentStatusEnrolled, "strand-stem", "sec-1", "reg-1", nil, "REG00000099", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM schedule_slots WHERE section_id = $1 AND subject_id = $2 AND school_year_id = $3 LIMIT 1")).
		WithArgs("sec-1", "subj-1", "sy-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("slot-1"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registration_lines")).
		WithArgs(sqlmock.AnyArg(), "slot-1", "enr-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Approve(context.Background(), ApproveParams{
		EnrollmentID: "enr-1",
		SectionID:    "sec-1",
		StrandID:     "strand-stem",
		ReviewerID:   "reg-1",
		Target:       models.EnrollmentStatusEnrolled,
		Subjects:     []models.Subject{{ID: "subj-1", Semester: "1st"}},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryApproveSkipsMaterializationUntilEnrolled(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT capacity, school_year_id FROM sections WHERE id = $1 FOR UPDATE")).
		WithArgs("sec-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "school_year_id"}).AddRow(40, "sy-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("sec-1", "enr-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT nextval('registration_number_seq')")).
		WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(int64(7)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET")).
		WithArgs("enr-1", models.EnrollmentStatusApproved, "strand-stem", "sec-1", "reg-1", nil, "REG00000007", sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Approve(context.Background(), ApproveParams{
		EnrollmentID: "enr-1",
		SectionID:    "sec-1",
		StrandID:     "strand-stem",
		ReviewerID:   "reg-1",
		Target:       models.EnrollmentStatusApproved,
		Subjects:     []models.Subject{{ID: "subj-1", Semester: "1st"}},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryExistsActiveIgnoresRejected(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE student_id = $1 AND school_year_id = $2 AND status <> $3 LIMIT 1")).
		WithArgs("stu-1", "sy-1", models.EnrollmentStatusRejected).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ExistsActive(context.Background(), "stu-1", "sy-1", "")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateStatusWritesRejectionReason(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2, reviewer_id = $3, rejection_reason = $4, reviewed_at = $5 WHERE id = $1")).
		WithArgs("enr-1", models.EnrollmentStatusRejected, "reg-1", "missing report card", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "enr-1", models.EnrollmentStatusRejected, "reg-1", "missing report card")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
