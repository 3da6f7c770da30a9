package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/liceo-academic-api/internal/grading"
	"github.com/noah-isme/liceo-academic-api/internal/models"
	appErrors "github.com/noah-isme/liceo-academic-api/pkg/errors"
)

type progressionHistory interface {
	FindPriorFailedSubjects(ctx context.Context, studentID string, schoolYearID int64) ([]models.FailedSubject, error)
	FindPassedSubjects(ctx context.Context, studentID string, beforeYearID int64) (map[string]struct{}, error)
	ListYearOfferings(ctx context.Context, studentID string, schoolYearID int64) ([]models.SubjectOfferingDetail, error)
}

type priorYearLocator interface {
	PriorTo(ctx context.Context, yearID int64) (*models.SchoolYear, error)
}

type sectionOfferingLister interface {
	ListOfferingsForSection(ctx context.Context, sectionID string, schoolYearID int64) ([]models.SubjectOfferingDetail, error)
}

// ResolveInput identifies the enrollment a plan is computed for. The target
// school year is always explicit.
type ResolveInput struct {
	StudentID    string `json:"student_id" validate:"required"`
	SectionID    string `json:"section_id" validate:"required"`
	SchoolYearID int64  `json:"school_year_id" validate:"required,gt=0"`
}

// ProgressionPlan is the set of subjects a student may enroll in for the
// target year and why.
type ProgressionPlan struct {
	Path              grading.Path                   `json:"path"`
	SchoolYearID      int64                          `json:"school_year_id"`
	PriorSchoolYearID *int64                         `json:"prior_school_year_id,omitempty"`
	Failed            []models.FailedSubject         `json:"failed"`
	Offered           []models.SubjectOfferingDetail `json:"offered"`
	Exempt            []string                       `json:"exempt"`
	CascadeRequired   bool                           `json:"cascade_required"`

	passed map[string]struct{}
}

// IsOffered reports whether offeringID is part of the plan's subject list.
func (p *ProgressionPlan) IsOffered(offeringID string) bool {
	for _, o := range p.Offered {
		if o.ID == offeringID {
			return true
		}
	}
	return false
}

// AlreadyPassed reports whether the student passed offeringID in a year
// that exempts it from this plan.
func (p *ProgressionPlan) AlreadyPassed(offeringID string) bool {
	_, ok := p.passed[offeringID]
	return ok
}

// ProgressionService decides which subjects a student is allowed or
// required to take in a school year.
type ProgressionService struct {
	history   progressionHistory
	years     priorYearLocator
	offerings sectionOfferingLister
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgressionService constructs the service.
func NewProgressionService(history progressionHistory, years priorYearLocator, offerings sectionOfferingLister, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ProgressionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressionService{history: history, years: years, offerings: offerings, metrics: metrics, validator: validate, logger: logger}
}

// Resolve computes the progression plan. It only reads; the held-back
// cascade it may call for is applied by the enrollment service.
func (s *ProgressionService) Resolve(ctx context.Context, in ResolveInput) (*ProgressionPlan, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid progression input")
	}

	plan := &ProgressionPlan{
		Path:         grading.PathStandard,
		SchoolYearID: in.SchoolYearID,
		Failed:       []models.FailedSubject{},
		Exempt:       []string{},
	}

	prior, err := s.years.PriorTo(ctx, in.SchoolYearID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		prior = nil
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to locate prior school year")
	}

	if prior != nil {
		priorID := prior.ID
		plan.PriorSchoolYearID = &priorID
		failed, err := s.history.FindPriorFailedSubjects(ctx, in.StudentID, prior.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load failed subjects")
		}
		plan.Failed = uniqueFailed(failed)
		plan.Path = grading.DecidePath(len(plan.Failed))
	}

	passedBefore := in.SchoolYearID
	switch plan.Path {
	case grading.PathStandard:
		plan.Offered, err = s.offerings.ListOfferingsForSection(ctx, in.SectionID, in.SchoolYearID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section subjects")
		}
	case grading.PathCarryOver:
		plan.Offered = offeringsOf(plan.Failed)
	case grading.PathHeldBack:
		plan.CascadeRequired = true
		// prior-year passes are about to be voided by the cascade
		passedBefore = prior.ID
		plan.Offered, err = s.history.ListYearOfferings(ctx, in.StudentID, prior.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prior year subjects")
		}
	}
	if plan.Offered == nil {
		plan.Offered = []models.SubjectOfferingDetail{}
	}

	plan.passed, err = s.history.FindPassedSubjects(ctx, in.StudentID, passedBefore)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load passed subjects")
	}
	for _, o := range plan.Offered {
		if plan.AlreadyPassed(o.ID) {
			plan.Exempt = append(plan.Exempt, o.ID)
		}
	}

	s.metrics.RecordProgression(plan.Path)
	s.logger.Debug("progression resolved",
		zap.String("student_id", in.StudentID),
		zap.Int64("school_year_id", in.SchoolYearID),
		zap.String("path", string(plan.Path)),
		zap.Int("failed", len(plan.Failed)),
		zap.Int("offered", len(plan.Offered)),
	)
	return plan, nil
}

func uniqueFailed(failed []models.FailedSubject) []models.FailedSubject {
	seen := make(map[string]struct{}, len(failed))
	out := make([]models.FailedSubject, 0, len(failed))
	for _, f := range failed {
		if _, ok := seen[f.OfferingID]; ok {
			continue
		}
		seen[f.OfferingID] = struct{}{}
		out = append(out, f)
	}
	return out
}

func offeringsOf(failed []models.FailedSubject) []models.SubjectOfferingDetail {
	out := make([]models.SubjectOfferingDetail, 0, len(failed))
	for _, f := range failed {
		out = append(out, models.SubjectOfferingDetail{
			SubjectOffering: models.SubjectOffering{ID: f.OfferingID, SubjectCode: f.SubjectCode},
			SubjectName:     f.SubjectName,
		})
	}
	return out
}
