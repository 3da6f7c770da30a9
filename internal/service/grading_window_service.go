package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/internal/repository"
	appErrors "github.com/noah-isme/liceo-academic-api/pkg/errors"
)

type gradingWindowRepository interface {
	List(ctx context.Context) ([]models.GradingWindow, error)
	FindByID(ctx context.Context, id int64) (*models.GradingWindow, error)
	Create(ctx context.Context, window *models.GradingWindow) error
	Update(ctx context.Context, id int64, patch repository.GradingWindowPatch) error
	Delete(ctx context.Context, id int64) error
}

// CreateGradingWindowRequest describes a score capture window.
type CreateGradingWindowRequest struct {
	Name      string    `json:"name" validate:"required,max=60"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

// UpdateGradingWindowRequest changes only the fields present in the payload.
type UpdateGradingWindowRequest struct {
	Name      *string    `json:"name" validate:"omitempty,min=1,max=60"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// GradingWindowService manages grading windows.
type GradingWindowService struct {
	repo      gradingWindowRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradingWindowService constructs the service.
func NewGradingWindowService(repo gradingWindowRepository, validate *validator.Validate, logger *zap.Logger) *GradingWindowService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradingWindowService{repo: repo, validator: validate, logger: logger}
}

// List returns grading windows ordered by start date.
func (s *GradingWindowService) List(ctx context.Context) ([]models.GradingWindow, error) {
	windows, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grading windows")
	}
	if windows == nil {
		windows = []models.GradingWindow{}
	}
	return windows, nil
}

// Get returns a grading window.
func (s *GradingWindowService) Get(ctx context.Context, id int64) (*models.GradingWindow, error) {
	window, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "grading window", "failed to load grading window")
	}
	return window, nil
}

// Create registers a grading window.
func (s *GradingWindowService) Create(ctx context.Context, req CreateGradingWindowRequest) (*models.GradingWindow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grading window payload")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not be before start_date")
	}
	window := &models.GradingWindow{Name: strings.TrimSpace(req.Name), StartDate: req.StartDate, EndDate: req.EndDate}
	if err := s.repo.Create(ctx, window); err != nil {
		return nil, translateWriteError(err, "grading window", "failed to create grading window")
	}
	return window, nil
}

// Update applies the present fields of req, keeping end >= start.
func (s *GradingWindowService) Update(ctx context.Context, id int64, req UpdateGradingWindowRequest) (*models.GradingWindow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grading window payload")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	start, end := current.StartDate, current.EndDate
	if req.StartDate != nil {
		start = *req.StartDate
	}
	if req.EndDate != nil {
		end = *req.EndDate
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not be before start_date")
	}
	patch := repository.GradingWindowPatch{Name: req.Name, StartDate: req.StartDate, EndDate: req.EndDate}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grading window")
	}
	return s.Get(ctx, id)
}

// Delete removes a grading window.
func (s *GradingWindowService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grading window")
	}
	return nil
}
