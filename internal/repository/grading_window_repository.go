package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/pkg/database"
)

// GradingWindowPatch lists the mutable grading window fields.
type GradingWindowPatch struct {
	Name      *string
	StartDate *time.Time
	EndDate   *time.Time
}

// GradingWindowRepository persists grading windows (cortes).
type GradingWindowRepository struct {
	db *sqlx.DB
}

// NewGradingWindowRepository constructs the repository.
func NewGradingWindowRepository(db *sqlx.DB) *GradingWindowRepository {
	return &GradingWindowRepository{db: db}
}

// List returns every grading window by start date.
func (r *GradingWindowRepository) List(ctx context.Context) ([]models.GradingWindow, error) {
	const query = `SELECT id, name, start_date, end_date FROM grading_windows ORDER BY start_date, id`
	var windows []models.GradingWindow
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &windows, query); err != nil {
		return nil, fmt.Errorf("list grading windows: %w", err)
	}
	return windows, nil
}

// FindByID returns a grading window.
func (r *GradingWindowRepository) FindByID(ctx context.Context, id int64) (*models.GradingWindow, error) {
	const query = `SELECT id, name, start_date, end_date FROM grading_windows WHERE id = $1`
	var window models.GradingWindow
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &window, query, id); err != nil {
		return nil, err
	}
	return &window, nil
}

// Create inserts a grading window.
func (r *GradingWindowRepository) Create(ctx context.Context, window *models.GradingWindow) error {
	const query = `INSERT INTO grading_windows (name, start_date, end_date) VALUES ($1, $2, $3) RETURNING id`
	if err := database.Conn(ctx, r.db).QueryRowxContext(ctx, query, window.Name, window.StartDate, window.EndDate).Scan(&window.ID); err != nil {
		return fmt.Errorf("create grading window: %w", err)
	}
	return nil
}

// Update applies the present fields of patch.
func (r *GradingWindowRepository) Update(ctx context.Context, id int64, patch GradingWindowPatch) error {
	var sets []string
	var args []interface{}
	if patch.Name != nil {
		args = append(args, *patch.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if patch.StartDate != nil {
		args = append(args, *patch.StartDate)
		sets = append(sets, fmt.Sprintf("start_date = $%d", len(args)))
	}
	if patch.EndDate != nil {
		args = append(args, *patch.EndDate)
		sets = append(sets, fmt.Sprintf("end_date = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE grading_windows SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	if _, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update grading window: %w", err)
	}
	return nil
}

// Delete removes a grading window; evaluations keep their scores.
func (r *GradingWindowRepository) Delete(ctx context.Context, id int64) error {
	if _, err := database.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM grading_windows WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete grading window: %w", err)
	}
	return nil
}
