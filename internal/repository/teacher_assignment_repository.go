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

// TeacherAssignmentRepository persists teacher-of-record assignments.
type TeacherAssignmentRepository struct {
	db *sqlx.DB
}

// NewTeacherAssignmentRepository constructs the repository.
func NewTeacherAssignmentRepository(db *sqlx.DB) *TeacherAssignmentRepository {
	return &TeacherAssignmentRepository{db: db}
}

const assignmentDetailQuery = `
SELECT ta.id, ta.teacher_id, ta.offering_id, ta.section_id, ta.school_year_id, ta.created_at,
       tr.last_name || ', ' || tr.first_name AS teacher_name,
       o.subject_code, s.name AS subject_name, sec.name AS section_name,
       o.grade_level_id, sy.name AS school_year_name
FROM teacher_assignments ta
JOIN teachers tr ON tr.id = ta.teacher_id
JOIN subject_offerings o ON o.id = ta.offering_id
JOIN subjects s ON s.code = o.subject_code
JOIN sections sec ON sec.id = ta.section_id
JOIN school_years sy ON sy.id = ta.school_year_id`

// List returns assignments narrowed by filter.
func (r *TeacherAssignmentRepository) List(ctx context.Context, filter models.TeacherAssignmentFilter) ([]models.TeacherAssignmentDetail, error) {
	var conditions []string
	var args []interface{}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		conditions = append(conditions, fmt.Sprintf("ta.teacher_id = $%d", len(args)))
	}
	if filter.SectionID != "" {
		args = append(args, filter.SectionID)
		conditions = append(conditions, fmt.Sprintf("ta.section_id = $%d", len(args)))
	}
	if filter.SchoolYearID > 0 {
		args = append(args, filter.SchoolYearID)
		conditions = append(conditions, fmt.Sprintf("ta.school_year_id = $%d", len(args)))
	}
	query := assignmentDetailQuery
	if len(conditions) > 0 {
		query += "\nWHERE " + strings.Join(conditions, " AND ")
	}
	query += "\nORDER BY ta.school_year_id DESC, sec.name, o.subject_code"

	var assignments []models.TeacherAssignmentDetail
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list teacher assignments: %w", err)
	}
	return assignments, nil
}

// FindByID returns one assignment with display data.
func (r *TeacherAssignmentRepository) FindByID(ctx context.Context, id string) (*models.TeacherAssignmentDetail, error) {
	query := assignmentDetailQuery + "\nWHERE ta.id = $1"
	var assignment models.TeacherAssignmentDetail
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Exists checks the (offering, section, teacher, school year) uniqueness.
func (r *TeacherAssignmentRepository) Exists(ctx context.Context, a models.TeacherAssignment) (bool, error) {
	const query = `SELECT 1 FROM teacher_assignments WHERE offering_id = $1 AND section_id = $2 AND teacher_id = $3 AND school_year_id = $4 LIMIT 1`
	var exists int
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &exists, query, a.OfferingID, a.SectionID, a.TeacherID, a.SchoolYearID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teacher assignment: %w", err)
	}
	return true, nil
}

// Create inserts a new assignment.
func (r *TeacherAssignmentRepository) Create(ctx context.Context, assignment *models.TeacherAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	assignment.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO teacher_assignments (id, teacher_id, offering_id, section_id, school_year_id, created_at)
        VALUES (:id, :teacher_id, :offering_id, :section_id, :school_year_id, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, database.Conn(ctx, r.db), query, assignment); err != nil {
		return fmt.Errorf("create teacher assignment: %w", err)
	}
	return nil
}

// Delete removes an assignment.
func (r *TeacherAssignmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := database.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM teacher_assignments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete teacher assignment: %w", err)
	}
	return nil
}
