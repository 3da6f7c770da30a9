package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/liceo-academic-api/internal/grading"
	"github.com/noah-isme/liceo-academic-api/internal/models"
	appErrors "github.com/noah-isme/liceo-academic-api/pkg/errors"
)

type dashboardRepository interface {
	Totals(ctx context.Context, schoolYearID int64) (*models.DashboardStats, error)
	StudentsPerLevel(ctx context.Context, schoolYearID int64) ([]models.GradeLevelCount, error)
	HeldBackCount(ctx context.Context, schoolYearID int64, maxFailed int) (int, error)
	AllPassedCount(ctx context.Context, schoolYearID int64) (int, error)
}

type currentYearLocator interface {
	FindByID(ctx context.Context, id int64) (*models.SchoolYear, error)
	Current(ctx context.Context) (*models.SchoolYear, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService composes the per-year summary shown on the admin
// dashboard.
type DashboardService struct {
	repo   dashboardRepository
	years  currentYearLocator
	cache  *CacheService
	logger *zap.Logger
	cfg    DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Repo   dashboardRepository
	Years  currentYearLocator
	Cache  *CacheService
	Logger *zap.Logger
	Config DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		repo:   params.Repo,
		years:  params.Years,
		cache:  params.Cache,
		logger: logger,
		cfg:    cfg,
	}
}

// Summary returns the dashboard of a school year and whether it came from
// the cache. A zero schoolYearID selects the current year.
func (s *DashboardService) Summary(ctx context.Context, schoolYearID int64) (*models.DashboardStats, bool, error) {
	year, err := s.resolveYear(ctx, schoolYearID)
	if err != nil {
		return nil, false, err
	}

	key := DashboardCacheKey(year.ID)
	var cached models.DashboardStats
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	stats, err := s.compose(ctx, year.ID)
	if err != nil {
		return nil, false, err
	}
	s.cache.Set(ctx, key, stats, s.cfg.CacheTTL)
	return stats, false, nil
}

func (s *DashboardService) resolveYear(ctx context.Context, id int64) (*models.SchoolYear, error) {
	if id < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schoolYearId must be positive")
	}
	if id == 0 {
		year, err := s.years.Current(ctx)
		if err != nil {
			return nil, notFoundOr(err, "current school year", "failed to load current school year")
		}
		return year, nil
	}
	year, err := s.years.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "school year", "failed to load school year")
	}
	return year, nil
}

func (s *DashboardService) compose(ctx context.Context, yearID int64) (*models.DashboardStats, error) {
	stats, err := s.repo.Totals(ctx, yearID)
	if err != nil {
		return nil, s.internal(err, "totals")
	}
	if stats.StudentsPerLevel, err = s.repo.StudentsPerLevel(ctx, yearID); err != nil {
		return nil, s.internal(err, "students per level")
	}
	if stats.StudentsPerLevel == nil {
		stats.StudentsPerLevel = []models.GradeLevelCount{}
	}
	if stats.HeldBackStudents, err = s.repo.HeldBackCount(ctx, yearID, grading.MaxCarryOver); err != nil {
		return nil, s.internal(err, "held back count")
	}
	if stats.AllPassedStudents, err = s.repo.AllPassedCount(ctx, yearID); err != nil {
		return nil, s.internal(err, "all passed count")
	}
	stats.SchoolYearID = yearID
	return stats, nil
}

func (s *DashboardService) internal(err error, part string) error {
	s.logger.Error("dashboard query failed", zap.String("part", part), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build dashboard")
}
