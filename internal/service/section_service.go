package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/internal/repository"
	"github.com/noah-isme/liceo-academic-api/pkg/database"
	appErrors "github.com/noah-isme/liceo-academic-api/pkg/errors"
)

type sectionRepository interface {
	List(ctx context.Context, gradeLevelID int64) ([]models.Section, error)
	FindByID(ctx context.Context, id string) (*models.Section, error)
	ExistsByName(ctx context.Context, gradeLevelID int64, name, excludeID string) (bool, error)
	Create(ctx context.Context, section *models.Section) error
	Update(ctx context.Context, id string, patch repository.SectionPatch) error
	Delete(ctx context.Context, id string) error
}

// CreateSectionRequest describes a new section.
type CreateSectionRequest struct {
	GradeLevelID int64  `json:"grade_level_id" validate:"required,min=1,max=6"`
	Name         string `json:"name" validate:"required,max=20"`
}

// UpdateSectionRequest changes only the fields present in the payload.
type UpdateSectionRequest struct {
	GradeLevelID *int64  `json:"grade_level_id" validate:"omitempty,min=1,max=6"`
	Name         *string `json:"name" validate:"omitempty,min=1,max=20"`
}

// SectionService manages sections within grade levels.
type SectionService struct {
	repo      sectionRepository
	levels    gradeLevelReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionService constructs the service.
func NewSectionService(repo sectionRepository, levels gradeLevelReader, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{repo: repo, levels: levels, validator: validate, logger: logger}
}

// List returns sections, optionally restricted to one grade level.
func (s *SectionService) List(ctx context.Context, gradeLevelID int64) ([]models.Section, error) {
	sections, err := s.repo.List(ctx, gradeLevelID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	if sections == nil {
		sections = []models.Section{}
	}
	return sections, nil
}

// Get returns a section.
func (s *SectionService) Get(ctx context.Context, id string) (*models.Section, error) {
	section, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "section", "failed to load section")
	}
	return section, nil
}

// Create adds a section; names are unique within a grade level.
func (s *SectionService) Create(ctx context.Context, req CreateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	if _, err := s.levels.FindByID(ctx, req.GradeLevelID); err != nil {
		return nil, notFoundOr(err, "grade level", "failed to load grade level")
	}
	name := strings.ToUpper(strings.TrimSpace(req.Name))
	if err := s.ensureUniqueName(ctx, req.GradeLevelID, name, ""); err != nil {
		return nil, err
	}
	section := &models.Section{GradeLevelID: req.GradeLevelID, Name: name}
	if err := s.repo.Create(ctx, section); err != nil {
		return nil, translateWriteError(err, "section", "failed to create section")
	}
	return s.Get(ctx, section.ID)
}

// Update applies the present fields of req.
func (s *SectionService) Update(ctx context.Context, id string, req UpdateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch := repository.SectionPatch{GradeLevelID: req.GradeLevelID}
	level, name := current.GradeLevelID, current.Name
	if req.GradeLevelID != nil {
		if _, err := s.levels.FindByID(ctx, *req.GradeLevelID); err != nil {
			return nil, notFoundOr(err, "grade level", "failed to load grade level")
		}
		level = *req.GradeLevelID
	}
	if req.Name != nil {
		name = strings.ToUpper(strings.TrimSpace(*req.Name))
		patch.Name = &name
	}
	if err := s.ensureUniqueName(ctx, level, name, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, translateWriteError(err, "section", "failed to update section")
	}
	return s.Get(ctx, id)
}

// Delete removes a section without enrollments.
func (s *SectionService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if database.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "section has enrollments")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete section")
	}
	return nil
}

func (s *SectionService) ensureUniqueName(ctx context.Context, gradeLevelID int64, name, excludeID string) error {
	exists, err := s.repo.ExistsByName(ctx, gradeLevelID, name, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate section name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "section name already used in grade level")
	}
	return nil
}
