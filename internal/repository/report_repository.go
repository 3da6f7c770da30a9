package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/pkg/database"
)

// ReportRepository reads the flat grade records documents are built from.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const gradeRecordQuery = `SELECT se.id AS subject_enrollment_id, st.id AS student_id, st.national_id AS student_national_id,
        st.last_name || ', ' || st.first_name AS student_name,
        o.subject_code, s.name AS subject_name, s.appreciative,
        MAX(CASE WHEN ev.period = 1 THEN ev.score END) AS period_1,
        MAX(CASE WHEN ev.period = 2 THEN ev.score END) AS period_2,
        MAX(CASE WHEN ev.period = 3 THEN ev.score END) AS period_3,
        MAX(CASE WHEN ev.period = 4 THEN ev.score END) AS remedial,
        se.final_grade, se.state
FROM subject_enrollments se
JOIN enrollments e ON e.id = se.enrollment_id
JOIN students st ON st.id = e.student_id
JOIN subject_offerings o ON o.id = se.offering_id
JOIN subjects s ON s.code = o.subject_code
LEFT JOIN evaluations ev ON ev.subject_enrollment_id = se.id`

const gradeRecordGroup = `
GROUP BY se.id, st.id, st.national_id, st.last_name, st.first_name, o.subject_code, s.name, s.appreciative, se.final_grade, se.state`

// ByEnrollment returns one record per subject of the enrollment.
func (r *ReportRepository) ByEnrollment(ctx context.Context, enrollmentID string) ([]models.GradeRecord, error) {
	query := gradeRecordQuery + "\nWHERE e.id = $1" + gradeRecordGroup + "\nORDER BY o.subject_code"
	var records []models.GradeRecord
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &records, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("grade records by enrollment: %w", err)
	}
	return records, nil
}

// ByAssignment returns the records of every student of the section enrolled
// in the offering during the school year.
func (r *ReportRepository) ByAssignment(ctx context.Context, offeringID, sectionID string, schoolYearID int64) ([]models.GradeRecord, error) {
	query := gradeRecordQuery + "\nWHERE se.offering_id = $1 AND e.section_id = $2 AND e.school_year_id = $3" + gradeRecordGroup + "\nORDER BY st.last_name, st.first_name"
	var records []models.GradeRecord
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &records, query, offeringID, sectionID, schoolYearID); err != nil {
		return nil, fmt.Errorf("grade records by assignment: %w", err)
	}
	return records, nil
}

// BySection returns every record of the section for the school year.
func (r *ReportRepository) BySection(ctx context.Context, sectionID string, schoolYearID int64) ([]models.GradeRecord, error) {
	query := gradeRecordQuery + "\nWHERE e.section_id = $1 AND e.school_year_id = $2" + gradeRecordGroup + "\nORDER BY st.last_name, st.first_name, o.subject_code"
	var records []models.GradeRecord
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &records, query, sectionID, schoolYearID); err != nil {
		return nil, fmt.Errorf("grade records by section: %w", err)
	}
	return records, nil
}
