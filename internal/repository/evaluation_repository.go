package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/pkg/database"
)

// EvaluationPatch lists the evaluation fields an edit may change.
// ClearScore empties the score and wins over Score.
type EvaluationPatch struct {
	Score           *float64
	ClearScore      bool
	Description     *string
	GradingWindowID *int64
}

// EvaluationRepository persists per-period scores.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository constructs the repository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

const evaluationColumns = `id, subject_enrollment_id, period, score, description, grading_window_id, created_at, updated_at`

// GetEvaluations returns the evaluations of a subject enrollment by period.
func (r *EvaluationRepository) GetEvaluations(ctx context.Context, subjectEnrollmentID string) ([]models.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE subject_enrollment_id = $1 ORDER BY period`
	var evaluations []models.Evaluation
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &evaluations, query, subjectEnrollmentID); err != nil {
		return nil, fmt.Errorf("get evaluations: %w", err)
	}
	return evaluations, nil
}

// FindByID returns an evaluation.
func (r *EvaluationRepository) FindByID(ctx context.Context, id string) (*models.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE id = $1`
	var evaluation models.Evaluation
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &evaluation, query, id); err != nil {
		return nil, err
	}
	return &evaluation, nil
}

// UpsertEvaluation writes the score for (subject enrollment, period),
// replacing an existing row for the same period.
func (r *EvaluationRepository) UpsertEvaluation(ctx context.Context, evaluation *models.Evaluation) error {
	if evaluation.ID == "" {
		evaluation.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	evaluation.UpdatedAt = now
	const query = `INSERT INTO evaluations (id, subject_enrollment_id, period, score, description, grading_window_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
        ON CONFLICT (subject_enrollment_id, period) DO UPDATE
        SET score = EXCLUDED.score, description = EXCLUDED.description,
            grading_window_id = EXCLUDED.grading_window_id, updated_at = EXCLUDED.updated_at
        RETURNING id, created_at`
	row := database.Conn(ctx, r.db).QueryRowxContext(ctx, query,
		evaluation.ID,
		evaluation.SubjectEnrollmentID,
		evaluation.Period,
		evaluation.Score,
		evaluation.Description,
		evaluation.GradingWindowID,
		now,
	)
	if err := row.Scan(&evaluation.ID, &evaluation.CreatedAt); err != nil {
		return fmt.Errorf("upsert evaluation: %w", err)
	}
	return nil
}

// Update applies the present fields of patch.
func (r *EvaluationRepository) Update(ctx context.Context, id string, patch EvaluationPatch) error {
	var sets []string
	var args []interface{}
	switch {
	case patch.ClearScore:
		sets = append(sets, "score = NULL")
	case patch.Score != nil:
		args = append(args, *patch.Score)
		sets = append(sets, fmt.Sprintf("score = $%d", len(args)))
	}
	if patch.Description != nil {
		args = append(args, *patch.Description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	if patch.GradingWindowID != nil {
		args = append(args, *patch.GradingWindowID)
		sets = append(sets, fmt.Sprintf("grading_window_id = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, time.Now().UTC())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)
	query := fmt.Sprintf("UPDATE evaluations SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	if _, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update evaluation: %w", err)
	}
	return nil
}

// Delete removes an evaluation.
func (r *EvaluationRepository) Delete(ctx context.Context, id string) error {
	if _, err := database.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM evaluations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete evaluation: %w", err)
	}
	return nil
}
