package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/liceo-academic-api/internal/models"
)

func TestTeacherAssignmentListByTeacherAndYear(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "offering_id", "section_id", "school_year_id", "created_at", "teacher_name", "subject_code", "subject_name", "section_name", "grade_level_id", "school_year_name"}).
		AddRow("ta-1", "t1", "off-1", "sec-1", int64(3), time.Now(), "Rojas, Luis", "01MAT", "MATEMATICA", "A", int64(1), "2024-2025")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE ta.teacher_id = $1 AND ta.school_year_id = $2\nORDER BY ta.school_year_id DESC")).
		WithArgs("t1", int64(3)).
		WillReturnRows(rows)

	items, err := repo.List(context.Background(), models.TeacherAssignmentFilter{TeacherID: "t1", SchoolYearID: 3})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "01MAT", items[0].SubjectCode)
	assert.Equal(t, "Rojas, Luis", items[0].TeacherName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherAssignmentExistsAndCreate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	a := models.TeacherAssignment{TeacherID: "t1", OfferingID: "off-1", SectionID: "sec-1", SchoolYearID: 3}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM teacher_assignments WHERE offering_id = $1 AND section_id = $2 AND teacher_id = $3 AND school_year_id = $4 LIMIT 1")).
		WithArgs("off-1", "sec-1", "t1", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectExec("INSERT INTO teacher_assignments").
		WithArgs(sqlmock.AnyArg(), "t1", "off-1", "sec-1", int64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	exists, err := repo.Exists(context.Background(), a)
	require.NoError(t, err)
	assert.False(t, exists)
	require.NoError(t, repo.Create(context.Background(), &a))
	assert.NotEmpty(t, a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
