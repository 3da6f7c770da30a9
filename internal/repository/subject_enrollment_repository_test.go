package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/liceo-academic-api/internal/models"
)

func TestSubjectEnrollmentFindPriorFailedSubjects(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewSubjectEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"subject_enrollment_id", "offering_id", "subject_code", "subject_name", "school_year_id", "final_grade"}).
		AddRow("se-1", "off-1", "01MAT", "MATEMATICA", int64(4), 7.0)
	mock.ExpectQuery("NOT EXISTS(.|\n)*AND e.school_year_id = \\$4").
		WithArgs("stu-1", models.SubjectStateFailed, models.SubjectStatePassed, int64(4)).
		WillReturnRows(rows)

	failed, err := repo.FindPriorFailedSubjects(context.Background(), "stu-1", 4)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "01MAT", failed[0].SubjectCode)
	require.NotNil(t, failed[0].FinalGrade)
	assert.Equal(t, 7.0, *failed[0].FinalGrade)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectEnrollmentFindPassedSubjects(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewSubjectEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.student_id = $1 AND e.school_year_id < $2 AND se.state = $3")).
		WithArgs("stu-1", int64(5), models.SubjectStatePassed).
		WillReturnRows(sqlmock.NewRows([]string{"offering_id"}).AddRow("off-1").AddRow("off-2"))

	passed, err := repo.FindPassedSubjects(context.Background(), "stu-1", 5)
	require.NoError(t, err)
	assert.Len(t, passed, 2)
	assert.Contains(t, passed, "off-2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectEnrollmentCascadeFailPriorYear(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewSubjectEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE subject_enrollments SET state = $3, updated_at = $4")).
		WithArgs("stu-1", int64(4), models.SubjectStateFailed, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 9))

	affected, err := repo.CascadeFailPriorYear(context.Background(), "stu-1", 4)
	require.NoError(t, err)
	assert.Equal(t, int64(9), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectEnrollmentInsertDefaultsToPending(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewSubjectEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO subject_enrollments").
		WithArgs(sqlmock.AnyArg(), "enr-1", "off-1", models.SubjectStatePending, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	se := &models.SubjectEnrollment{EnrollmentID: "enr-1", OfferingID: "off-1"}
	require.NoError(t, repo.InsertSubjectEnrollment(context.Background(), se))
	assert.NotEmpty(t, se.ID)
	assert.Equal(t, models.SubjectStatePending, se.State)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectEnrollmentSetFinalGrade(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewSubjectEnrollmentRepository(db)

	grade := 13.0
	mock.ExpectExec(regexp.QuoteMeta("UPDATE subject_enrollments SET final_grade = $2, state = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("se-1", grade, models.SubjectStatePassed, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetFinalGrade(context.Background(), "se-1", &grade, models.SubjectStatePassed))
	assert.NoError(t, mock.ExpectationsWereMet())
}
