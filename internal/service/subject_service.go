package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/liceo-academic-api/internal/grading"
	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/internal/repository"
	"github.com/noah-isme/liceo-academic-api/pkg/database"
	appErrors "github.com/noah-isme/liceo-academic-api/pkg/errors"
)

const (
	minGradeLevel = 1
	maxGradeLevel = 6
)

type subjectRepository interface {
	List(ctx context.Context) ([]models.Subject, error)
	FindByCode(ctx context.Context, code string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, code string, patch repository.SubjectPatch) error
	Delete(ctx context.Context, code string) error
	CreateOffering(ctx context.Context, offering *models.SubjectOffering) error
	OfferingExists(ctx context.Context, subjectCode string, gradeLevelID int64) (bool, error)
	FindOffering(ctx context.Context, id string) (*models.SubjectOfferingDetail, error)
	ListOfferings(ctx context.Context, gradeLevelID int64) ([]models.SubjectOfferingDetail, error)
	DeleteOffering(ctx context.Context, id string) error
}

type gradeLevelReader interface {
	FindByID(ctx context.Context, id int64) (*models.GradeLevel, error)
}

// CreateSubjectRequest registers a subject. Appreciative defaults from the
// subject name when omitted.
type CreateSubjectRequest struct {
	Code         string `json:"code" validate:"required,min=3,max=20"`
	Name         string `json:"name" validate:"required,max=120"`
	Appreciative *bool  `json:"appreciative"`
}

// UpdateSubjectRequest changes only the fields present in the payload.
type UpdateSubjectRequest struct {
	NewCode      *string `json:"new_code" validate:"omitempty,min=3,max=20"`
	Name         *string `json:"name" validate:"omitempty,min=1,max=120"`
	Appreciative *bool   `json:"appreciative"`
}

// CreateOfferingRequest offers a subject in a grade level.
type CreateOfferingRequest struct {
	SubjectCode  string `json:"subject_code" validate:"required"`
	GradeLevelID int64  `json:"grade_level_id" validate:"required,min=1,max=6"`
}

// SubjectService manages the subject catalog and grade level offerings.
type SubjectService struct {
	tx        transactor
	repo      subjectRepository
	levels    gradeLevelReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs the service.
func NewSubjectService(tx transactor, repo subjectRepository, levels gradeLevelReader, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{tx: tx, repo: repo, levels: levels, validator: validate, logger: logger}
}

// CodeGradeLevel returns the grade level named by the first two characters
// of a subject code.
func CodeGradeLevel(code string) (int64, error) {
	if len(code) < 2 {
		return 0, fmt.Errorf("subject code %q is too short", code)
	}
	level, err := strconv.ParseInt(code[:2], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("subject code %q must start with a two digit grade level", code)
	}
	if level < minGradeLevel || level > maxGradeLevel {
		return 0, fmt.Errorf("subject code %q names grade level %d outside %d-%d", code, level, minGradeLevel, maxGradeLevel)
	}
	return level, nil
}

// List returns every subject ordered by code.
func (s *SubjectService) List(ctx context.Context) ([]models.Subject, error) {
	subjects, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	return subjects, nil
}

// Get returns a subject by code.
func (s *SubjectService) Get(ctx context.Context, code string) (*models.Subject, error) {
	subject, err := s.repo.FindByCode(ctx, strings.ToUpper(code))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// Create registers a subject with an upper-cased code and name.
func (s *SubjectService) Create(ctx context.Context, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if _, err := CodeGradeLevel(code); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject code")
	}
	if _, err := s.repo.FindByCode(ctx, code); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate subject code")
	}

	name := strings.ToUpper(strings.TrimSpace(req.Name))
	appreciative := grading.IsAppreciativeName(name)
	if req.Appreciative != nil {
		appreciative = *req.Appreciative
	}
	subject := &models.Subject{Code: code, Name: name, Appreciative: appreciative}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, translateWriteError(err, "subject", "failed to create subject")
	}
	return subject, nil
}

// Update applies the present fields of req to the subject at code.
func (s *SubjectService) Update(ctx context.Context, code string, req UpdateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if req.NewCode == nil && req.Name == nil && req.Appreciative == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one field is required")
	}
	current, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	patch := repository.SubjectPatch{Appreciative: req.Appreciative}
	target := current.Code
	if req.NewCode != nil {
		newCode := strings.ToUpper(strings.TrimSpace(*req.NewCode))
		if _, err := CodeGradeLevel(newCode); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject code")
		}
		patch.NewCode = &newCode
		target = newCode
	}
	if req.Name != nil {
		name := strings.ToUpper(strings.TrimSpace(*req.Name))
		patch.Name = &name
	}
	if err := s.repo.Update(ctx, current.Code, patch); err != nil {
		return nil, translateWriteError(err, "subject", "failed to update subject")
	}
	return s.Get(ctx, target)
}

// Delete removes a subject with its offerings and teacher assignments.
// Subjects already taken by students cannot be removed.
func (s *SubjectService) Delete(ctx context.Context, code string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.Get(ctx, code)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, current.Code); err != nil {
			if database.IsForeignKeyViolation(err) {
				return appErrors.Clone(appErrors.ErrConflict, "subject has enrolled students")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
		}
		return nil
	})
}

// ListOfferings returns offerings, optionally for one grade level.
func (s *SubjectService) ListOfferings(ctx context.Context, gradeLevelID int64) ([]models.SubjectOfferingDetail, error) {
	offerings, err := s.repo.ListOfferings(ctx, gradeLevelID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subject offerings")
	}
	if offerings == nil {
		offerings = []models.SubjectOfferingDetail{}
	}
	return offerings, nil
}

// CreateOffering offers a subject in the grade level its code names.
func (s *SubjectService) CreateOffering(ctx context.Context, req CreateOfferingRequest) (*models.SubjectOfferingDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject offering payload")
	}
	subject, err := s.Get(ctx, req.SubjectCode)
	if err != nil {
		return nil, err
	}
	if _, err := s.levels.FindByID(ctx, req.GradeLevelID); err != nil {
		return nil, notFoundOr(err, "grade level", "failed to load grade level")
	}
	level, err := CodeGradeLevel(subject.Code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject code")
	}
	if level != req.GradeLevelID {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %s belongs to grade level %d", subject.Code, level))
	}
	exists, err := s.repo.OfferingExists(ctx, subject.Code, req.GradeLevelID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate subject offering")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject already offered in grade level")
	}

	offering := &models.SubjectOffering{SubjectCode: subject.Code, GradeLevelID: req.GradeLevelID}
	if err := s.repo.CreateOffering(ctx, offering); err != nil {
		return nil, translateWriteError(err, "subject offering", "failed to create subject offering")
	}
	return &models.SubjectOfferingDetail{SubjectOffering: *offering, SubjectName: subject.Name, Appreciative: subject.Appreciative}, nil
}

// DeleteOffering removes an offering and its teacher assignments.
func (s *SubjectService) DeleteOffering(ctx context.Context, id string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.FindOffering(ctx, id); err != nil {
			return notFoundOr(err, "subject offering", "failed to load subject offering")
		}
		if err := s.repo.DeleteOffering(ctx, id); err != nil {
			if database.IsForeignKeyViolation(err) {
				return appErrors.Clone(appErrors.ErrConflict, "subject offering has enrolled students")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject offering")
		}
		return nil
	})
}
