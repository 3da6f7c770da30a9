package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/pkg/database"
)

// SectionPatch lists the section fields an update may change.
type SectionPatch struct {
	GradeLevelID *int64
	Name         *string
}

// SectionRepository persists sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

const sectionColumns = `s.id, s.grade_level_id, s.name, s.created_at, g.name AS grade_level_name`

// List returns sections, optionally limited to one grade level.
func (r *SectionRepository) List(ctx context.Context, gradeLevelID int64) ([]models.Section, error) {
	query := `SELECT ` + sectionColumns + ` FROM sections s JOIN grade_levels g ON g.id = s.grade_level_id`
	var args []interface{}
	if gradeLevelID > 0 {
		query += " WHERE s.grade_level_id = $1"
		args = append(args, gradeLevelID)
	}
	query += " ORDER BY s.grade_level_id, s.name"
	var sections []models.Section
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &sections, query, args...); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// FindByID returns a section.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.Section, error) {
	query := `SELECT ` + sectionColumns + ` FROM sections s JOIN grade_levels g ON g.id = s.grade_level_id WHERE s.id = $1`
	var section models.Section
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// ExistsByName checks the per grade level name uniqueness.
func (r *SectionRepository) ExistsByName(ctx context.Context, gradeLevelID int64, name, excludeID string) (bool, error) {
	query := `SELECT 1 FROM sections WHERE grade_level_id = $1 AND UPPER(name) = UPPER($2)`
	args := []interface{}{gradeLevelID, name}
	if excludeID != "" {
		query += fmt.Sprintf(" AND id <> $%d", len(args)+1)
		args = append(args, excludeID)
	}
	query += " LIMIT 1"
	var exists int
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &exists, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check section name: %w", err)
	}
	return true, nil
}

// Create inserts a section.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	section.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO sections (id, grade_level_id, name, created_at) VALUES (:id, :grade_level_id, :name, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, database.Conn(ctx, r.db), query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// Update applies the present fields of patch.
func (r *SectionRepository) Update(ctx context.Context, id string, patch SectionPatch) error {
	var sets []string
	var args []interface{}
	if patch.GradeLevelID != nil {
		args = append(args, *patch.GradeLevelID)
		sets = append(sets, fmt.Sprintf("grade_level_id = $%d", len(args)))
	}
	if patch.Name != nil {
		args = append(args, *patch.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE sections SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	if _, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	return nil
}

// Delete removes a section.
func (r *SectionRepository) Delete(ctx context.Context, id string) error {
	if _, err := database.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM sections WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	return nil
}
