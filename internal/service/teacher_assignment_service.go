package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	appErrors "github.com/noah-isme/liceo-academic-api/pkg/errors"
)

type teacherAssignmentRepository interface {
	List(ctx context.Context, filter models.TeacherAssignmentFilter) ([]models.TeacherAssignmentDetail, error)
	FindByID(ctx context.Context, id string) (*models.TeacherAssignmentDetail, error)
	Exists(ctx context.Context, a models.TeacherAssignment) (bool, error)
	Create(ctx context.Context, assignment *models.TeacherAssignment) error
	Delete(ctx context.Context, id string) error
}

type teacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type offeringReader interface {
	FindOffering(ctx context.Context, id string) (*models.SubjectOfferingDetail, error)
}

// AssignTeacherRequest assigns one teacher to one offering in several
// sections of a school year.
type AssignTeacherRequest struct {
	TeacherID    string   `json:"teacher_id" validate:"required"`
	OfferingID   string   `json:"offering_id" validate:"required"`
	SectionIDs   []string `json:"section_ids" validate:"required,min=1,dive,required"`
	SchoolYearID int64    `json:"school_year_id" validate:"required,gt=0"`
}

// TeacherAssignmentService manages which teacher teaches which offering in
// which section.
type TeacherAssignmentService struct {
	tx          transactor
	assignments teacherAssignmentRepository
	teachers    teacherReader
	offerings   offeringReader
	sections    sectionReader
	years       schoolYearReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTeacherAssignmentService constructs the service.
func NewTeacherAssignmentService(tx transactor, assignments teacherAssignmentRepository, teachers teacherReader, offerings offeringReader, sections sectionReader, years schoolYearReader, validate *validator.Validate, logger *zap.Logger) *TeacherAssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherAssignmentService{
		tx:          tx,
		assignments: assignments,
		teachers:    teachers,
		offerings:   offerings,
		sections:    sections,
		years:       years,
		validator:   validate,
		logger:      logger,
	}
}

// List returns assignments matching the filter.
func (s *TeacherAssignmentService) List(ctx context.Context, filter models.TeacherAssignmentFilter) ([]models.TeacherAssignmentDetail, error) {
	items, err := s.assignments.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher assignments")
	}
	if items == nil {
		items = []models.TeacherAssignmentDetail{}
	}
	return items, nil
}

// Get returns one assignment.
func (s *TeacherAssignmentService) Get(ctx context.Context, id string) (*models.TeacherAssignmentDetail, error) {
	item, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher assignment")
	}
	return item, nil
}

// Assign creates one assignment per section. Nothing is written when any
// section is already assigned.
func (s *TeacherAssignmentService) Assign(ctx context.Context, req AssignTeacherRequest) ([]models.TeacherAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher assignment payload")
	}
	if _, err := s.teachers.FindByID(ctx, req.TeacherID); err != nil {
		return nil, notFoundOr(err, "teacher", "failed to load teacher")
	}
	offering, err := s.offerings.FindOffering(ctx, req.OfferingID)
	if err != nil {
		return nil, notFoundOr(err, "subject offering", "failed to load subject offering")
	}
	if _, err := s.years.FindByID(ctx, req.SchoolYearID); err != nil {
		return nil, notFoundOr(err, "school year", "failed to load school year")
	}

	created := make([]models.TeacherAssignment, 0, len(req.SectionIDs))
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, sectionID := range req.SectionIDs {
			section, err := s.sections.FindByID(ctx, sectionID)
			if err != nil {
				return notFoundOr(err, "section", "failed to load section")
			}
			if section.GradeLevelID != offering.GradeLevelID {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("section %s is not in grade level %d", sectionID, offering.GradeLevelID))
			}
			assignment := models.TeacherAssignment{
				TeacherID:    req.TeacherID,
				OfferingID:   req.OfferingID,
				SectionID:    sectionID,
				SchoolYearID: req.SchoolYearID,
			}
			exists, err := s.assignments.Exists(ctx, assignment)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate teacher assignment")
			}
			if exists {
				return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("assignment already exists for section %s", sectionID))
			}
			if err := s.assignments.Create(ctx, &assignment); err != nil {
				return translateWriteError(err, "teacher assignment", "failed to create teacher assignment")
			}
			created = append(created, assignment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("teacher assigned",
		zap.String("teacher_id", req.TeacherID),
		zap.String("offering_id", req.OfferingID),
		zap.Int("sections", len(created)),
	)
	return created, nil
}

// Delete removes an assignment.
func (s *TeacherAssignmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.assignments.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher assignment")
	}
	return nil
}

func notFoundOr(err error, entity, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
