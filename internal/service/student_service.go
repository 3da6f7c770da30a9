package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/internal/repository"
	appErrors "github.com/noah-isme/liceo-academic-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByNationalID(ctx context.Context, nationalID, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, id string, patch repository.StudentPatch) error
	Delete(ctx context.Context, id string) error
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	NationalID string     `json:"national_id" validate:"required,max=20"`
	FirstName  string     `json:"first_name" validate:"required,max=100"`
	LastName   string     `json:"last_name" validate:"required,max=100"`
	Gender     string     `json:"gender" validate:"required,oneof=M F"`
	BirthDate  *time.Time `json:"birth_date"`
	BirthPlace string     `json:"birth_place" validate:"max=120"`
	Address    string     `json:"address" validate:"max=255"`
	Phone      string     `json:"phone" validate:"max=30"`
}

// UpdateStudentRequest changes only the fields present in the payload.
type UpdateStudentRequest struct {
	NationalID *string    `json:"national_id" validate:"omitempty,min=1,max=20"`
	FirstName  *string    `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName   *string    `json:"last_name" validate:"omitempty,min=1,max=100"`
	Gender     *string    `json:"gender" validate:"omitempty,oneof=M F"`
	BirthDate  *time.Time `json:"birth_date"`
	BirthPlace *string    `json:"birth_place" validate:"omitempty,max=120"`
	Address    *string    `json:"address" validate:"omitempty,max=255"`
	Phone      *string    `json:"phone" validate:"omitempty,max=30"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	nationalID := strings.TrimSpace(req.NationalID)
	exists, err := s.repo.ExistsByNationalID(ctx, nationalID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate national id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "national id already registered")
	}
	student := &models.Student{
		NationalID: nationalID,
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Gender:     req.Gender,
		BirthDate:  req.BirthDate,
		BirthPlace: req.BirthPlace,
		Address:    req.Address,
		Phone:      req.Phone,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, translateWriteError(err, "student", "failed to create student")
	}
	s.cache.Invalidate(ctx, "dashboard:*")
	return student, nil
}

// Update applies the present fields of req.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if req.NationalID != nil {
		exists, err := s.repo.ExistsByNationalID(ctx, *req.NationalID, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate national id")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "national id already registered")
		}
	}
	patch := repository.StudentPatch{
		NationalID: req.NationalID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Gender:     req.Gender,
		BirthDate:  req.BirthDate,
		BirthPlace: req.BirthPlace,
		Address:    req.Address,
		Phone:      req.Phone,
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, translateWriteError(err, "student", "failed to update student")
	}
	s.cache.Invalidate(ctx, "report:card:*")
	return s.Get(ctx, id)
}

// Delete removes a student; enrollments follow by cascade.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.cache.Invalidate(ctx, "dashboard:*")
	s.logger.Info("student deleted", zap.String("student_id", id))
	return nil
}
