package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/pkg/database"
	appErrors "github.com/noah-isme/liceo-academic-api/pkg/errors"
)

type schoolYearRepository interface {
	List(ctx context.Context) ([]models.SchoolYear, error)
	FindByID(ctx context.Context, id int64) (*models.SchoolYear, error)
	Current(ctx context.Context) (*models.SchoolYear, error)
	Create(ctx context.Context, year *models.SchoolYear) error
	UpdateName(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
}

type gradeLevelRepository interface {
	List(ctx context.Context) ([]models.GradeLevel, error)
	FindByID(ctx context.Context, id int64) (*models.GradeLevel, error)
}

// SchoolYearRequest names a school year, e.g. "2024-2025".
type SchoolYearRequest struct {
	Name string `json:"name" validate:"required,max=20"`
}

// SchoolYearService manages school years and exposes the grade levels.
type SchoolYearService struct {
	years     schoolYearRepository
	levels    gradeLevelRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSchoolYearService constructs the service.
func NewSchoolYearService(years schoolYearRepository, levels gradeLevelRepository, validate *validator.Validate, logger *zap.Logger) *SchoolYearService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchoolYearService{years: years, levels: levels, validator: validate, logger: logger}
}

// List returns school years, most recent first.
func (s *SchoolYearService) List(ctx context.Context) ([]models.SchoolYear, error) {
	years, err := s.years.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list school years")
	}
	if years == nil {
		years = []models.SchoolYear{}
	}
	return years, nil
}

// Get returns one school year.
func (s *SchoolYearService) Get(ctx context.Context, id int64) (*models.SchoolYear, error) {
	year, err := s.years.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "school year", "failed to load school year")
	}
	return year, nil
}

// Current returns the school year with the highest identifier.
func (s *SchoolYearService) Current(ctx context.Context) (*models.SchoolYear, error) {
	year, err := s.years.Current(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no school year registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current school year")
	}
	return year, nil
}

// Create opens a new school year, which becomes the current one.
func (s *SchoolYearService) Create(ctx context.Context, req SchoolYearRequest) (*models.SchoolYear, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school year payload")
	}
	year := &models.SchoolYear{Name: strings.TrimSpace(req.Name)}
	if err := s.years.Create(ctx, year); err != nil {
		return nil, translateWriteError(err, "school year", "failed to create school year")
	}
	s.logger.Info("school year created", zap.Int64("school_year_id", year.ID), zap.String("name", year.Name))
	return year, nil
}

// Rename changes the name of a school year.
func (s *SchoolYearService) Rename(ctx context.Context, id int64, req SchoolYearRequest) (*models.SchoolYear, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school year payload")
	}
	year, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	year.Name = strings.TrimSpace(req.Name)
	if err := s.years.UpdateName(ctx, id, year.Name); err != nil {
		return nil, translateWriteError(err, "school year", "failed to update school year")
	}
	return year, nil
}

// Delete removes a school year that nothing references.
func (s *SchoolYearService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.years.Delete(ctx, id); err != nil {
		if database.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "school year is in use")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete school year")
	}
	return nil
}

// GradeLevels returns the grade levels (años) 1 through 6.
func (s *SchoolYearService) GradeLevels(ctx context.Context) ([]models.GradeLevel, error) {
	levels, err := s.levels.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade levels")
	}
	if levels == nil {
		levels = []models.GradeLevel{}
	}
	return levels, nil
}
