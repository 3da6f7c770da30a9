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

func TestDashboardRepositoryTotals(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("(SELECT COUNT(*) FROM enrollments WHERE school_year_id = $1) AS enrollments")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"students", "teachers", "subjects", "enrollments"}).AddRow(120, 14, 30, 110))

	stats, err := repo.Totals(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.SchoolYearID)
	assert.Equal(t, 120, stats.Students)
	assert.Equal(t, 110, stats.Enrollments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRepositoryProgressionCounts(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("HAVING COUNT(*) > $3")).
		WithArgs(int64(2), models.SubjectStateFailed, 2).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta("FILTER (WHERE se.state = $2)")).
		WithArgs(int64(2), models.SubjectStatePassed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(80))

	held, err := repo.HeldBackCount(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, held)
	passed, err := repo.AllPassedCount(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 80, passed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
