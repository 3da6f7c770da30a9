package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/liceo-academic-api/internal/grading"
	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/internal/repository"
	appErrors "github.com/noah-isme/liceo-academic-api/pkg/errors"
)

type evaluationRepository interface {
	GetEvaluations(ctx context.Context, subjectEnrollmentID string) ([]models.Evaluation, error)
	FindByID(ctx context.Context, id string) (*models.Evaluation, error)
	UpsertEvaluation(ctx context.Context, evaluation *models.Evaluation) error
	Update(ctx context.Context, id string, patch repository.EvaluationPatch) error
	Delete(ctx context.Context, id string) error
}

type gradeStore interface {
	FindByID(ctx context.Context, id string) (*models.SubjectEnrollment, error)
	LockByID(ctx context.Context, id string) (*models.SubjectEnrollment, error)
	SetFinalGrade(ctx context.Context, id string, grade *float64, state models.SubjectEnrollmentState) error
}

type gradingWindowReader interface {
	FindByID(ctx context.Context, id int64) (*models.GradingWindow, error)
}

// RecordEvaluationRequest captures a score for one period.
type RecordEvaluationRequest struct {
	SubjectEnrollmentID string   `json:"subject_enrollment_id" validate:"required"`
	Period              int      `json:"period" validate:"required,min=1,max=4"`
	Score               *float64 `json:"score" validate:"omitempty,min=0,max=20"`
	Description         string   `json:"description" validate:"max=255"`
	GradingWindowID     *int64   `json:"grading_window_id" validate:"omitempty,gt=0"`
}

// UpdateEvaluationRequest edits an evaluation. ClearScore empties the score.
type UpdateEvaluationRequest struct {
	Score           *float64 `json:"score" validate:"omitempty,min=0,max=20"`
	ClearScore      bool     `json:"clear_score"`
	Description     *string  `json:"description" validate:"omitempty,max=255"`
	GradingWindowID *int64   `json:"grading_window_id" validate:"omitempty,gt=0"`
}

// EvaluationResult returns the written evaluation with the recomputed
// subject enrollment.
type EvaluationResult struct {
	Evaluation        *models.Evaluation        `json:"evaluation,omitempty"`
	SubjectEnrollment *models.SubjectEnrollment `json:"subject_enrollment"`
}

// EvaluationService writes scores and keeps the final grade of the subject
// enrollment in step with them.
type EvaluationService struct {
	tx          transactor
	evaluations evaluationRepository
	grades      gradeStore
	windows     gradingWindowReader
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEvaluationService constructs EvaluationService.
func NewEvaluationService(tx transactor, evaluations evaluationRepository, grades gradeStore, windows gradingWindowReader, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EvaluationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluationService{
		tx:          tx,
		evaluations: evaluations,
		grades:      grades,
		windows:     windows,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// List returns the evaluations of a subject enrollment ordered by period.
func (s *EvaluationService) List(ctx context.Context, subjectEnrollmentID string) ([]models.Evaluation, error) {
	if _, err := s.grades.FindByID(ctx, subjectEnrollmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject enrollment")
	}
	evaluations, err := s.evaluations.GetEvaluations(ctx, subjectEnrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evaluations")
	}
	if evaluations == nil {
		evaluations = []models.Evaluation{}
	}
	return evaluations, nil
}

// Record stores the score of a period, replacing any previous one, and
// recomputes the final grade.
func (s *EvaluationService) Record(ctx context.Context, req RecordEvaluationRequest) (*EvaluationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}
	if err := s.ensureWindow(ctx, req.GradingWindowID); err != nil {
		return nil, err
	}

	result := &EvaluationResult{}
	var enrollmentID string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		se, err := s.lock(ctx, req.SubjectEnrollmentID)
		if err != nil {
			return err
		}
		enrollmentID = se.EnrollmentID

		evaluation := &models.Evaluation{
			SubjectEnrollmentID: req.SubjectEnrollmentID,
			Period:              req.Period,
			Score:               req.Score,
			Description:         req.Description,
			GradingWindowID:     req.GradingWindowID,
		}
		if err := s.evaluations.UpsertEvaluation(ctx, evaluation); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save evaluation")
		}
		result.Evaluation = evaluation

		result.SubjectEnrollment, err = s.recompute(ctx, se)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateGrades(ctx, enrollmentID)
	return result, nil
}

// Update edits an evaluation and recomputes the final grade.
func (s *EvaluationService) Update(ctx context.Context, id string, req UpdateEvaluationRequest) (*EvaluationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}
	if err := s.ensureWindow(ctx, req.GradingWindowID); err != nil {
		return nil, err
	}

	result := &EvaluationResult{}
	var enrollmentID string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		se, err := s.lockEvaluation(ctx, id)
		if err != nil {
			return err
		}
		enrollmentID = se.EnrollmentID

		patch := repository.EvaluationPatch{
			Score:           req.Score,
			ClearScore:      req.ClearScore,
			Description:     req.Description,
			GradingWindowID: req.GradingWindowID,
		}
		if err := s.evaluations.Update(ctx, id, patch); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update evaluation")
		}
		if result.Evaluation, err = s.find(ctx, id); err != nil {
			return err
		}
		result.SubjectEnrollment, err = s.recompute(ctx, se)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateGrades(ctx, enrollmentID)
	return result, nil
}

// Delete removes an evaluation and recomputes the final grade without it.
func (s *EvaluationService) Delete(ctx context.Context, id string) (*EvaluationResult, error) {
	result := &EvaluationResult{}
	var enrollmentID string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		se, err := s.lockEvaluation(ctx, id)
		if err != nil {
			return err
		}
		enrollmentID = se.EnrollmentID

		if err := s.evaluations.Delete(ctx, id); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete evaluation")
		}
		result.SubjectEnrollment, err = s.recompute(ctx, se)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateGrades(ctx, enrollmentID)
	return result, nil
}

// recompute re-reads every evaluation of se and persists the outcome. It
// must run inside the transaction holding the row lock on se.
func (s *EvaluationService) recompute(ctx context.Context, se *models.SubjectEnrollment) (*models.SubjectEnrollment, error) {
	evaluations, err := s.evaluations.GetEvaluations(ctx, se.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluations")
	}
	outcome := grading.Compute(grading.FromEvaluations(evaluations))
	if err := s.grades.SetFinalGrade(ctx, se.ID, outcome.FinalGrade, outcome.State); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store final grade")
	}
	s.metrics.RecordRecomputation(outcome.State)

	updated := *se
	updated.FinalGrade = outcome.FinalGrade
	updated.State = outcome.State
	updated.UpdatedAt = time.Now().UTC()
	if updated.State != se.State {
		s.logger.Debug("subject enrollment state changed",
			zap.String("subject_enrollment_id", se.ID),
			zap.String("from", string(se.State)),
			zap.String("to", string(updated.State)),
		)
	}
	return &updated, nil
}

// lockEvaluation locks the subject enrollment owning evaluation id and
// re-reads the evaluation under that lock, so a concurrent delete surfaces
// as not found.
func (s *EvaluationService) lockEvaluation(ctx context.Context, id string) (*models.SubjectEnrollment, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	se, err := s.lock(ctx, current.SubjectEnrollmentID)
	if err != nil {
		return nil, err
	}
	locked, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if locked.SubjectEnrollmentID != se.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "evaluation not found")
	}
	return se, nil
}

func (s *EvaluationService) lock(ctx context.Context, subjectEnrollmentID string) (*models.SubjectEnrollment, error) {
	se, err := s.grades.LockByID(ctx, subjectEnrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock subject enrollment")
	}
	return se, nil
}

func (s *EvaluationService) find(ctx context.Context, id string) (*models.Evaluation, error) {
	evaluation, err := s.evaluations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evaluation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation")
	}
	return evaluation, nil
}

func (s *EvaluationService) ensureWindow(ctx context.Context, id *int64) error {
	if id == nil || s.windows == nil {
		return nil
	}
	if _, err := s.windows.FindByID(ctx, *id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "grading window not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grading window")
	}
	return nil
}
