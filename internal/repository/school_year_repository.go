package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/pkg/database"
)

// SchoolYearRepository persists school years.
type SchoolYearRepository struct {
	db *sqlx.DB
}

// NewSchoolYearRepository constructs the repository.
func NewSchoolYearRepository(db *sqlx.DB) *SchoolYearRepository {
	return &SchoolYearRepository{db: db}
}

// List returns school years, most recent first.
func (r *SchoolYearRepository) List(ctx context.Context) ([]models.SchoolYear, error) {
	const query = `SELECT id, name, created_at FROM school_years ORDER BY id DESC`
	var years []models.SchoolYear
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &years, query); err != nil {
		return nil, fmt.Errorf("list school years: %w", err)
	}
	return years, nil
}

// FindByID returns a school year.
func (r *SchoolYearRepository) FindByID(ctx context.Context, id int64) (*models.SchoolYear, error) {
	const query = `SELECT id, name, created_at FROM school_years WHERE id = $1`
	var year models.SchoolYear
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &year, query, id); err != nil {
		return nil, err
	}
	return &year, nil
}

// Current returns the school year with the highest identifier.
func (r *SchoolYearRepository) Current(ctx context.Context) (*models.SchoolYear, error) {
	const query = `SELECT id, name, created_at FROM school_years ORDER BY id DESC LIMIT 1`
	var year models.SchoolYear
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &year, query); err != nil {
		return nil, err
	}
	return &year, nil
}

// PriorTo returns the most recent school year strictly before yearID.
// sql.ErrNoRows means yearID is the first year on record.
func (r *SchoolYearRepository) PriorTo(ctx context.Context, yearID int64) (*models.SchoolYear, error) {
	const query = `SELECT id, name, created_at FROM school_years WHERE id < $1 ORDER BY id DESC LIMIT 1`
	var year models.SchoolYear
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &year, query, yearID); err != nil {
		return nil, err
	}
	return &year, nil
}

// Create inserts a school year and fills its generated fields.
func (r *SchoolYearRepository) Create(ctx context.Context, year *models.SchoolYear) error {
	const query = `INSERT INTO school_years (name) VALUES ($1) RETURNING id, created_at`
	if err := database.Conn(ctx, r.db).QueryRowxContext(ctx, query, year.Name).Scan(&year.ID, &year.CreatedAt); err != nil {
		return fmt.Errorf("create school year: %w", err)
	}
	return nil
}

// UpdateName renames a school year.
func (r *SchoolYearRepository) UpdateName(ctx context.Context, id int64, name string) error {
	const query = `UPDATE school_years SET name = $2 WHERE id = $1`
	if _, err := database.Conn(ctx, r.db).ExecContext(ctx, query, id, name); err != nil {
		return fmt.Errorf("update school year: %w", err)
	}
	return nil
}

// Delete removes a school year. Referenced years fail with a foreign key error.
func (r *SchoolYearRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM school_years WHERE id = $1`
	if _, err := database.Conn(ctx, r.db).ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete school year: %w", err)
	}
	return nil
}

// GradeLevelRepository reads the fixed grade level catalog.
type GradeLevelRepository struct {
	db *sqlx.DB
}

// NewGradeLevelRepository constructs the repository.
func NewGradeLevelRepository(db *sqlx.DB) *GradeLevelRepository {
	return &GradeLevelRepository{db: db}
}

// List returns grade levels in order.
func (r *GradeLevelRepository) List(ctx context.Context) ([]models.GradeLevel, error) {
	const query = `SELECT id, name FROM grade_levels ORDER BY id`
	var levels []models.GradeLevel
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &levels, query); err != nil {
		return nil, fmt.Errorf("list grade levels: %w", err)
	}
	return levels, nil
}

// FindByID returns one grade level.
func (r *GradeLevelRepository) FindByID(ctx context.Context, id int64) (*models.GradeLevel, error) {
	const query = `SELECT id, name FROM grade_levels WHERE id = $1`
	var level models.GradeLevel
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &level, query, id); err != nil {
		return nil, err
	}
	return &level, nil
}
