package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/liceo-academic-api/internal/grading"
	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/internal/repository"
	"github.com/noah-isme/liceo-academic-api/pkg/database"
	appErrors "github.com/noah-isme/liceo-academic-api/pkg/errors"
)

type transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	LockByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	Exists(ctx context.Context, studentID, sectionID string, schoolYearID int64, excludeID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, id string, patch repository.EnrollmentPatch) error
	Delete(ctx context.Context, id string) error
}

type subjectEnrollmentStore interface {
	ListOfferingIDsByEnrollment(ctx context.Context, enrollmentID string) (map[string]struct{}, error)
	InsertSubjectEnrollment(ctx context.Context, se *models.SubjectEnrollment) error
	CascadeFailPriorYear(ctx context.Context, studentID string, schoolYearID int64) (int64, error)
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.SubjectEnrollmentDetail, error)
	ListFailedByStudent(ctx context.Context, studentID string) ([]models.FailedSubject, error)
	FindByID(ctx context.Context, id string) (*models.SubjectEnrollment, error)
	Delete(ctx context.Context, id string) error
}

type progressionResolver interface {
	Resolve(ctx context.Context, in ResolveInput) (*ProgressionPlan, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type sectionReader interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
}

type schoolYearReader interface {
	FindByID(ctx context.Context, id int64) (*models.SchoolYear, error)
}

// CreateEnrollmentRequest registers a student in a section for a year.
type CreateEnrollmentRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	SectionID    string `json:"section_id" validate:"required"`
	SchoolYearID int64  `json:"school_year_id" validate:"required,gt=0"`
}

// UpdateEnrollmentRequest moves an enrollment; absent fields are kept.
type UpdateEnrollmentRequest struct {
	SectionID    *string `json:"section_id" validate:"omitempty,min=1"`
	SchoolYearID *int64  `json:"school_year_id" validate:"omitempty,gt=0"`
}

// EnrollSubjectsRequest lists the offerings to attach to an enrollment.
type EnrollSubjectsRequest struct {
	OfferingIDs []string `json:"offering_ids" validate:"required,min=1,dive,required"`
}

// EnrollSubjectsResult reports what happened to every requested offering.
type EnrollSubjectsResult struct {
	EnrollmentID  string                     `json:"enrollment_id"`
	Path          grading.Path               `json:"path"`
	Cascaded      int64                      `json:"cascaded"`
	Inserted      []models.SubjectEnrollment `json:"inserted"`
	Duplicate     []string                   `json:"duplicate"`
	AlreadyPassed []string                   `json:"already_passed"`
	NotOffered    []string                   `json:"not_offered"`
}

// EnrollmentService orchestrates enrollments and subject selection.
type EnrollmentService struct {
	tx          transactor
	repo        enrollmentRepository
	subjects    subjectEnrollmentStore
	progression progressionResolver
	students    studentReader
	sections    sectionReader
	years       schoolYearReader
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(tx transactor, repo enrollmentRepository, subjects subjectEnrollmentStore, progression progressionResolver, students studentReader, sections sectionReader, years schoolYearReader, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		tx:          tx,
		repo:        repo,
		subjects:    subjects,
		progression: progression,
		students:    students,
		sections:    sections,
		years:       years,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single enrollment with display data.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return detail, nil
}

// Create registers a student in a section for a school year.
func (s *EnrollmentService) Create(ctx context.Context, req CreateEnrollmentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if err := s.ensureReferences(ctx, req.StudentID, req.SectionID, req.SchoolYearID); err != nil {
		return nil, err
	}
	exists, err := s.repo.Exists(ctx, req.StudentID, req.SectionID, req.SchoolYearID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled in section for school year")
	}

	enrollment := &models.Enrollment{StudentID: req.StudentID, SectionID: req.SectionID, SchoolYearID: req.SchoolYearID}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, translateWriteError(err, "enrollment", "failed to create enrollment")
	}
	s.cache.Invalidate(ctx, "dashboard:*")
	return s.Get(ctx, enrollment.ID)
}

// Update moves an enrollment to another section or school year.
func (s *EnrollmentService) Update(ctx context.Context, id string, req UpdateEnrollmentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	sectionID, yearID := current.SectionID, current.SchoolYearID
	if req.SectionID != nil {
		sectionID = *req.SectionID
	}
	if req.SchoolYearID != nil {
		yearID = *req.SchoolYearID
	}
	if err := s.ensureReferences(ctx, current.StudentID, sectionID, yearID); err != nil {
		return nil, err
	}
	exists, err := s.repo.Exists(ctx, current.StudentID, sectionID, yearID, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled in section for school year")
	}

	patch := repository.EnrollmentPatch{SectionID: req.SectionID, SchoolYearID: req.SchoolYearID}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, translateWriteError(err, "enrollment", "failed to update enrollment")
	}
	s.cache.InvalidateGrades(ctx, id)
	return s.Get(ctx, id)
}

// Delete removes an enrollment together with its subject enrollments and
// their evaluations.
func (s *EnrollmentService) Delete(ctx context.Context, id string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.LockByID(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.InvalidateGrades(ctx, id)
	return nil
}

// AvailableSubjects previews the progression plan of an enrollment without
// writing anything.
func (s *EnrollmentService) AvailableSubjects(ctx context.Context, enrollmentID string) (*ProgressionPlan, error) {
	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return s.progression.Resolve(ctx, ResolveInput{
		StudentID:    enrollment.StudentID,
		SectionID:    enrollment.SectionID,
		SchoolYearID: enrollment.SchoolYearID,
	})
}

// EnrollSubjects attaches the requested offerings to an enrollment. A
// held-back student first has every prior-year subject marked failed. Each
// request lands in exactly one bucket; when none is inserted the call fails
// with a conflict carrying the buckets.
func (s *EnrollmentService) EnrollSubjects(ctx context.Context, enrollmentID string, req EnrollSubjectsRequest) (*EnrollSubjectsResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject enrollment payload")
	}

	result := &EnrollSubjectsResult{
		EnrollmentID:  enrollmentID,
		Inserted:      []models.SubjectEnrollment{},
		Duplicate:     []string{},
		AlreadyPassed: []string{},
		NotOffered:    []string{},
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		enrollment, err := s.repo.LockByID(ctx, enrollmentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
		}

		plan, err := s.progression.Resolve(ctx, ResolveInput{
			StudentID:    enrollment.StudentID,
			SectionID:    enrollment.SectionID,
			SchoolYearID: enrollment.SchoolYearID,
		})
		if err != nil {
			return err
		}
		result.Path = plan.Path

		if plan.CascadeRequired && plan.PriorSchoolYearID != nil {
			affected, err := s.subjects.CascadeFailPriorYear(ctx, enrollment.StudentID, *plan.PriorSchoolYearID)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply held-back cascade")
			}
			result.Cascaded = affected
			s.logger.Info("held-back cascade applied",
				zap.String("student_id", enrollment.StudentID),
				zap.Int64("school_year_id", *plan.PriorSchoolYearID),
				zap.Int64("subject_enrollments", affected),
			)
		}

		existing, err := s.subjects.ListOfferingIDsByEnrollment(ctx, enrollmentID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject enrollments")
		}

		seen := make(map[string]struct{}, len(req.OfferingIDs))
		for _, offeringID := range req.OfferingIDs {
			_, inRequest := seen[offeringID]
			_, attached := existing[offeringID]
			seen[offeringID] = struct{}{}
			switch {
			case inRequest || attached:
				result.Duplicate = append(result.Duplicate, offeringID)
			case plan.AlreadyPassed(offeringID):
				result.AlreadyPassed = append(result.AlreadyPassed, offeringID)
			case !plan.IsOffered(offeringID):
				result.NotOffered = append(result.NotOffered, offeringID)
			default:
				se := models.SubjectEnrollment{EnrollmentID: enrollmentID, OfferingID: offeringID, State: models.SubjectStatePending}
				if err := s.subjects.InsertSubjectEnrollment(ctx, &se); err != nil {
					return translateWriteError(err, "subject offering", "failed to enroll subject")
				}
				result.Inserted = append(result.Inserted, se)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordEnrollmentBuckets(result)
	if result.Cascaded > 0 {
		s.cache.Invalidate(ctx, "report:card:*")
	}
	s.cache.InvalidateGrades(ctx, enrollmentID)

	if len(result.Inserted) == 0 {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrConflict, "no subject could be enrolled"), result)
	}
	return result, nil
}

// ListSubjects returns the subject enrollments of an enrollment.
func (s *EnrollmentService) ListSubjects(ctx context.Context, enrollmentID string) ([]models.SubjectEnrollmentDetail, error) {
	if _, err := s.repo.FindByID(ctx, enrollmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	items, err := s.subjects.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subject enrollments")
	}
	if items == nil {
		items = []models.SubjectEnrollmentDetail{}
	}
	return items, nil
}

// DropSubject removes one subject enrollment and its evaluations.
func (s *EnrollmentService) DropSubject(ctx context.Context, enrollmentID, subjectEnrollmentID string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		se, err := s.subjects.FindByID(ctx, subjectEnrollmentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "subject enrollment not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject enrollment")
		}
		if se.EnrollmentID != enrollmentID {
			return appErrors.Clone(appErrors.ErrNotFound, "subject enrollment not found")
		}
		if err := s.subjects.Delete(ctx, subjectEnrollmentID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject enrollment")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.InvalidateGrades(ctx, enrollmentID)
	return nil
}

// FailedSubjects returns every failed subject of a student that was not
// passed in a later year, oldest school year last.
func (s *EnrollmentService) FailedSubjects(ctx context.Context, studentID string) ([]models.FailedSubject, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	failed, err := s.subjects.ListFailedByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list failed subjects")
	}
	failed = uniqueFailed(failed)
	sort.SliceStable(failed, func(i, j int) bool { return failed[i].SchoolYearID > failed[j].SchoolYearID })
	return failed, nil
}

func (s *EnrollmentService) ensureReferences(ctx context.Context, studentID, sectionID string, schoolYearID int64) error {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.sections.FindByID(ctx, sectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if _, err := s.years.FindByID(ctx, schoolYearID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "school year not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school year")
	}
	return nil
}

// translateWriteError maps constraint violations to typed errors.
func translateWriteError(err error, entity, message string) error {
	switch {
	case database.IsUniqueViolation(err):
		return appErrors.Clone(appErrors.ErrConflict, entity+" already exists")
	case database.IsForeignKeyViolation(err):
		return appErrors.Clone(appErrors.ErrNotFound, entity+" reference not found")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
	}
}
