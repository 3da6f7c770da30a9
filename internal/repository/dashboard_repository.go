package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/pkg/database"
)

// DashboardRepository runs the aggregate queries behind the dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Totals returns the catalog-wide counts and the enrollments of the year.
func (r *DashboardRepository) Totals(ctx context.Context, schoolYearID int64) (*models.DashboardStats, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM students) AS students,
        (SELECT COUNT(*) FROM teachers) AS teachers,
        (SELECT COUNT(*) FROM subjects) AS subjects,
        (SELECT COUNT(*) FROM enrollments WHERE school_year_id = $1) AS enrollments`
	var row struct {
		Students    int `db:"students"`
		Teachers    int `db:"teachers"`
		Subjects    int `db:"subjects"`
		Enrollments int `db:"enrollments"`
	}
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &row, query, schoolYearID); err != nil {
		return nil, fmt.Errorf("dashboard totals: %w", err)
	}
	return &models.DashboardStats{
		SchoolYearID: schoolYearID,
		Students:     row.Students,
		Teachers:     row.Teachers,
		Subjects:     row.Subjects,
		Enrollments:  row.Enrollments,
	}, nil
}

// StudentsPerLevel counts enrolled students per grade level.
func (r *DashboardRepository) StudentsPerLevel(ctx context.Context, schoolYearID int64) ([]models.GradeLevelCount, error) {
	const query = `SELECT g.id AS grade_level_id, g.name AS grade_level_name, COUNT(DISTINCT e.student_id) AS students
FROM grade_levels g
LEFT JOIN sections sec ON sec.grade_level_id = g.id
LEFT JOIN enrollments e ON e.section_id = sec.id AND e.school_year_id = $1
GROUP BY g.id, g.name
ORDER BY g.id`
	var counts []models.GradeLevelCount
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &counts, query, schoolYearID); err != nil {
		return nil, fmt.Errorf("students per level: %w", err)
	}
	return counts, nil
}

// HeldBackCount counts students with more than maxFailed failed subjects
// in the year.
func (r *DashboardRepository) HeldBackCount(ctx context.Context, schoolYearID int64, maxFailed int) (int, error) {
	const query = `SELECT COUNT(*) FROM (
    SELECT e.student_id
    FROM subject_enrollments se
    JOIN enrollments e ON e.id = se.enrollment_id
    WHERE e.school_year_id = $1 AND se.state = $2
    GROUP BY e.student_id
    HAVING COUNT(*) > $3) failed`
	var count int
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &count, query, schoolYearID, models.SubjectStateFailed, maxFailed); err != nil {
		return 0, fmt.Errorf("held back count: %w", err)
	}
	return count, nil
}

// AllPassedCount counts students whose subjects in the year are all passed.
func (r *DashboardRepository) AllPassedCount(ctx context.Context, schoolYearID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM (
    SELECT e.student_id
    FROM subject_enrollments se
    JOIN enrollments e ON e.id = se.enrollment_id
    WHERE e.school_year_id = $1
    GROUP BY e.student_id
    HAVING COUNT(*) = COUNT(*) FILTER (WHERE se.state = $2)) passed`
	var count int
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &count, query, schoolYearID, models.SubjectStatePassed); err != nil {
		return 0, fmt.Errorf("all passed count: %w", err)
	}
	return count, nil
}
