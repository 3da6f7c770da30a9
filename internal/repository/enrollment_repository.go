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

// EnrollmentPatch lists the enrollment fields an update may change.
type EnrollmentPatch struct {
	SectionID    *string
	SchoolYearID *int64
}

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentDetailBase = `FROM enrollments e
JOIN students st ON st.id = e.student_id
JOIN sections sec ON sec.id = e.section_id
JOIN school_years sy ON sy.id = e.school_year_id`

const enrollmentDetailColumns = `e.id, e.student_id, e.section_id, e.school_year_id, e.enrolled_at, e.created_at, e.updated_at,
        st.last_name || ', ' || st.first_name AS student_name, st.national_id AS student_national_id,
        sec.name AS section_name, sec.grade_level_id, sy.name AS school_year_name`

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("e.section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.SchoolYearID > 0 {
		conditions = append(conditions, fmt.Sprintf("e.school_year_id = $%d", len(args)+1))
		args = append(args, filter.SchoolYearID)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}
	p := models.NewPagination(filter.Page, filter.PageSize, 0)
	offset := (p.Page - 1) * p.PageSize

	query := fmt.Sprintf(`SELECT %s
        %s ORDER BY e.school_year_id DESC, student_name ASC LIMIT %d OFFSET %d`, enrollmentDetailColumns, enrollmentDetailBase+clause, p.PageSize, offset)

	var enrollments []models.EnrollmentDetail
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", enrollmentDetailBase+clause)
	var total int
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, section_id, school_year_id, enrolled_at, created_at, updated_at FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// LockByID reads an enrollment and holds its row lock until the
// surrounding transaction ends.
func (r *EnrollmentRepository) LockByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, section_id, school_year_id, enrolled_at, created_at, updated_at FROM enrollments WHERE id = $1 FOR UPDATE`
	var enrollment models.Enrollment
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID returns an enrollment with contextual info.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	query := fmt.Sprintf("SELECT %s\n        %s WHERE e.id = $1", enrollmentDetailColumns, enrollmentDetailBase)
	var detail models.EnrollmentDetail
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Exists checks the (student, section, school year) uniqueness.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID, sectionID string, schoolYearID int64, excludeID string) (bool, error) {
	query := "SELECT 1 FROM enrollments WHERE student_id = $1 AND section_id = $2 AND school_year_id = $3"
	args := []interface{}{studentID, sectionID, schoolYearID}
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
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// Create persists a new enrollment record stamped with the current date.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = now.Truncate(24 * time.Hour)
	}
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	const query = `INSERT INTO enrollments (id, student_id, section_id, school_year_id, enrolled_at, created_at, updated_at)
        VALUES (:id, :student_id, :section_id, :school_year_id, :enrolled_at, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, database.Conn(ctx, r.db), query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// Update applies the present fields of patch.
func (r *EnrollmentRepository) Update(ctx context.Context, id string, patch EnrollmentPatch) error {
	var sets []string
	var args []interface{}
	if patch.SectionID != nil {
		args = append(args, *patch.SectionID)
		sets = append(sets, fmt.Sprintf("section_id = $%d", len(args)))
	}
	if patch.SchoolYearID != nil {
		args = append(args, *patch.SchoolYearID)
		sets = append(sets, fmt.Sprintf("school_year_id = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, time.Now().UTC())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)
	query := fmt.Sprintf("UPDATE enrollments SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	if _, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	return nil
}

// Delete removes the enrollment's subject enrollments (and their
// evaluations) before the enrollment itself.
func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	conn := database.Conn(ctx, r.db)
	statements := []struct {
		query string
		label string
	}{
		{`DELETE FROM evaluations WHERE subject_enrollment_id IN (SELECT id FROM subject_enrollments WHERE enrollment_id = $1)`, "evaluations"},
		{`DELETE FROM subject_enrollments WHERE enrollment_id = $1`, "subject enrollments"},
		{`DELETE FROM enrollments WHERE id = $1`, "enrollment"},
	}
	for _, stmt := range statements {
		if _, err := conn.ExecContext(ctx, stmt.query, id); err != nil {
			return fmt.Errorf("delete %s: %w", stmt.label, err)
		}
	}
	return nil
}
