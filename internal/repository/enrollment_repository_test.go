package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/liceo-academic-api/internal/models"
)

func TestEnrollmentRepositoryExists(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE student_id = $1 AND section_id = $2 AND school_year_id = $3 LIMIT 1")).
		WithArgs("stu-1", "sec-1", int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE student_id = $1 AND section_id = $2 AND school_year_id = $3 AND id <> $4 LIMIT 1")).
		WithArgs("stu-1", "sec-1", int64(2), "enr-1").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.Exists(context.Background(), "stu-1", "sec-1", 2, "")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(context.Background(), "stu-1", "sec-1", 2, "enr-1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("FROM enrollments e(.|\n)*WHERE e.section_id = \\$1 AND e.school_year_id = \\$2 ORDER BY e.school_year_id DESC").
		WithArgs("sec-1", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "section_id", "school_year_id", "student_name"}).
			AddRow("enr-1", "stu-1", "sec-1", int64(3), "Pérez, Ana"))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM enrollments e").
		WithArgs("sec-1", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	items, total, err := repo.List(context.Background(), models.EnrollmentFilter{SectionID: "sec-1", SchoolYearID: 3})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Pérez, Ana", items[0].StudentName)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateSection(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	section := "sec-2"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET section_id = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(section, sqlmock.AnyArg(), "enr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), "enr-1", EnrollmentPatch{SectionID: &section}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDeleteRemovesChildrenFirst(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM evaluations WHERE subject_enrollment_id IN")).
		WithArgs("enr-1").WillReturnResult(sqlmock.NewResult(0, 6))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM subject_enrollments WHERE enrollment_id = $1")).
		WithArgs("enr-1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments WHERE id = $1")).
		WithArgs("enr-1").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "enr-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
