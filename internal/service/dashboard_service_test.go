package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	appErrors "github.com/noah-isme/liceo-academic-api/pkg/errors"
)

type fakeDashboardRepo struct {
	calls     int
	maxFailed int
	err       error
}

func (f *fakeDashboardRepo) Totals(_ context.Context, yearID int64) (*models.DashboardStats, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.DashboardStats{Students: 40, Teachers: 6, Subjects: 12, Enrollments: 38}, nil
}

func (f *fakeDashboardRepo) StudentsPerLevel(context.Context, int64) ([]models.GradeLevelCount, error) {
	return []models.GradeLevelCount{{GradeLevelID: 1, Students: 20}, {GradeLevelID: 2, Students: 18}}, nil
}

func (f *fakeDashboardRepo) HeldBackCount(_ context.Context, _ int64, maxFailed int) (int, error) {
	f.maxFailed = maxFailed
	return 3, nil
}

func (f *fakeDashboardRepo) AllPassedCount(context.Context, int64) (int, error) {
	return 25, nil
}

type fakeYearLocator struct {
	years []models.SchoolYear
}

func (f fakeYearLocator) FindByID(_ context.Context, id int64) (*models.SchoolYear, error) {
	for i := range f.years {
		if f.years[i].ID == id {
			return &f.years[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f fakeYearLocator) Current(context.Context) (*models.SchoolYear, error) {
	if len(f.years) == 0 {
		return nil, sql.ErrNoRows
	}
	return &f.years[len(f.years)-1], nil
}

func TestDashboardDefaultsToCurrentYearAndCaches(t *testing.T) {
	repo := &fakeDashboardRepo{}
	store := newMemoryCache()
	svc := NewDashboardService(DashboardServiceParams{
		Repo:  repo,
		Years: fakeYearLocator{years: []models.SchoolYear{{ID: 1}, {ID: 2}}},
		Cache: NewCacheService(store, nil, time.Minute, nil, true),
	})

	stats, hit, err := svc.Summary(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, int64(2), stats.SchoolYearID)
	assert.Equal(t, 3, stats.HeldBackStudents)
	assert.Equal(t, 25, stats.AllPassedStudents)
	assert.Len(t, stats.StudentsPerLevel, 2)
	assert.Equal(t, 2, repo.maxFailed)
	assert.Contains(t, store.items, DashboardCacheKey(2))

	cached, hit, err := svc.Summary(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, stats.Students, cached.Students)
	assert.Equal(t, 1, repo.calls)
}

func TestDashboardUnknownYear(t *testing.T) {
	svc := NewDashboardService(DashboardServiceParams{Repo: &fakeDashboardRepo{}, Years: fakeYearLocator{}})

	_, _, err := svc.Summary(context.Background(), 7)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, _, err = svc.Summary(context.Background(), 0)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, _, err = svc.Summary(context.Background(), -1)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestDashboardRepositoryFailure(t *testing.T) {
	svc := NewDashboardService(DashboardServiceParams{
		Repo:  &fakeDashboardRepo{err: errors.New("boom")},
		Years: fakeYearLocator{years: []models.SchoolYear{{ID: 1}}},
	})

	_, _, err := svc.Summary(context.Background(), 1)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
