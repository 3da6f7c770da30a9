package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/pkg/database"
)

// SubjectEnrollmentRepository persists subject enrollments and answers the
// history questions asked by the progression rules.
type SubjectEnrollmentRepository struct {
	db *sqlx.DB
}

// NewSubjectEnrollmentRepository constructs the repository.
func NewSubjectEnrollmentRepository(db *sqlx.DB) *SubjectEnrollmentRepository {
	return &SubjectEnrollmentRepository{db: db}
}

const subjectEnrollmentColumns = `id, enrollment_id, offering_id, state, final_grade, created_at, updated_at`

const failedSubjectQuery = `SELECT se.id AS subject_enrollment_id, se.offering_id, o.subject_code, s.name AS subject_name,
        e.school_year_id, se.final_grade
FROM subject_enrollments se
JOIN enrollments e ON e.id = se.enrollment_id
JOIN subject_offerings o ON o.id = se.offering_id
JOIN subjects s ON s.code = o.subject_code
WHERE e.student_id = $1 AND se.state = $2
  AND NOT EXISTS (
        SELECT 1 FROM subject_enrollments passed
        JOIN enrollments pe ON pe.id = passed.enrollment_id
        WHERE pe.student_id = e.student_id AND passed.offering_id = se.offering_id AND passed.state = $3)`

// FindPriorFailedSubjects returns the subjects the student failed in
// schoolYearID and has not passed in any year since.
func (r *SubjectEnrollmentRepository) FindPriorFailedSubjects(ctx context.Context, studentID string, schoolYearID int64) ([]models.FailedSubject, error) {
	query := failedSubjectQuery + "\n  AND e.school_year_id = $4\nORDER BY o.subject_code"
	var failed []models.FailedSubject
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &failed, query,
		studentID, models.SubjectStateFailed, models.SubjectStatePassed, schoolYearID); err != nil {
		return nil, fmt.Errorf("find prior failed subjects: %w", err)
	}
	return failed, nil
}

// ListFailedByStudent returns every unexempted failure of the student.
func (r *SubjectEnrollmentRepository) ListFailedByStudent(ctx context.Context, studentID string) ([]models.FailedSubject, error) {
	query := failedSubjectQuery + "\nORDER BY e.school_year_id DESC, o.subject_code"
	var failed []models.FailedSubject
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &failed, query,
		studentID, models.SubjectStateFailed, models.SubjectStatePassed); err != nil {
		return nil, fmt.Errorf("list failed subjects: %w", err)
	}
	return failed, nil
}

// FindPassedSubjects returns the offerings the student passed in any school
// year strictly before beforeYearID.
func (r *SubjectEnrollmentRepository) FindPassedSubjects(ctx context.Context, studentID string, beforeYearID int64) (map[string]struct{}, error) {
	const query = `SELECT DISTINCT se.offering_id
FROM subject_enrollments se
JOIN enrollments e ON e.id = se.enrollment_id
WHERE e.student_id = $1 AND e.school_year_id < $2 AND se.state = $3`
	var ids []string
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &ids, query, studentID, beforeYearID, models.SubjectStatePassed); err != nil {
		return nil, fmt.Errorf("find passed subjects: %w", err)
	}
	passed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		passed[id] = struct{}{}
	}
	return passed, nil
}

// ListYearOfferings returns every offering the student was enrolled in
// during schoolYearID.
func (r *SubjectEnrollmentRepository) ListYearOfferings(ctx context.Context, studentID string, schoolYearID int64) ([]models.SubjectOfferingDetail, error) {
	const query = `SELECT DISTINCT o.id, o.subject_code, o.grade_level_id, o.created_at, s.name AS subject_name, s.appreciative
FROM subject_enrollments se
JOIN enrollments e ON e.id = se.enrollment_id
JOIN subject_offerings o ON o.id = se.offering_id
JOIN subjects s ON s.code = o.subject_code
WHERE e.student_id = $1 AND e.school_year_id = $2
ORDER BY o.subject_code`
	var offerings []models.SubjectOfferingDetail
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &offerings, query, studentID, schoolYearID); err != nil {
		return nil, fmt.Errorf("list year offerings: %w", err)
	}
	return offerings, nil
}

// CascadeFailPriorYear marks every subject enrollment of the student in
// schoolYearID as failed, passed ones included.
func (r *SubjectEnrollmentRepository) CascadeFailPriorYear(ctx context.Context, studentID string, schoolYearID int64) (int64, error) {
	const query = `UPDATE subject_enrollments SET state = $3, updated_at = $4
WHERE enrollment_id IN (SELECT id FROM enrollments WHERE student_id = $1 AND school_year_id = $2)`
	res, err := database.Conn(ctx, r.db).ExecContext(ctx, query, studentID, schoolYearID, models.SubjectStateFailed, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cascade fail prior year: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cascade fail prior year: %w", err)
	}
	return affected, nil
}

// ListOfferingIDsByEnrollment returns the offerings already attached to
// the enrollment.
func (r *SubjectEnrollmentRepository) ListOfferingIDsByEnrollment(ctx context.Context, enrollmentID string) (map[string]struct{}, error) {
	const query = `SELECT offering_id FROM subject_enrollments WHERE enrollment_id = $1`
	var ids []string
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &ids, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list enrollment offerings: %w", err)
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// InsertSubjectEnrollment creates a subject enrollment.
func (r *SubjectEnrollmentRepository) InsertSubjectEnrollment(ctx context.Context, se *models.SubjectEnrollment) error {
	if se.ID == "" {
		se.ID = uuid.NewString()
	}
	if se.State == "" {
		se.State = models.SubjectStatePending
	}
	now := time.Now().UTC()
	se.CreatedAt = now
	se.UpdatedAt = now
	const query = `INSERT INTO subject_enrollments (id, enrollment_id, offering_id, state, final_grade, created_at, updated_at)
        VALUES (:id, :enrollment_id, :offering_id, :state, :final_grade, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, database.Conn(ctx, r.db), query, se); err != nil {
		return fmt.Errorf("insert subject enrollment: %w", err)
	}
	return nil
}

// FindByID returns a subject enrollment.
func (r *SubjectEnrollmentRepository) FindByID(ctx context.Context, id string) (*models.SubjectEnrollment, error) {
	query := `SELECT ` + subjectEnrollmentColumns + ` FROM subject_enrollments WHERE id = $1`
	var se models.SubjectEnrollment
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &se, query, id); err != nil {
		return nil, err
	}
	return &se, nil
}

// LockByID reads a subject enrollment holding a row lock until the
// surrounding transaction ends.
func (r *SubjectEnrollmentRepository) LockByID(ctx context.Context, id string) (*models.SubjectEnrollment, error) {
	query := `SELECT ` + subjectEnrollmentColumns + ` FROM subject_enrollments WHERE id = $1 FOR UPDATE`
	var se models.SubjectEnrollment
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &se, query, id); err != nil {
		return nil, err
	}
	return &se, nil
}

// SetFinalGrade stores the computed grade and state.
func (r *SubjectEnrollmentRepository) SetFinalGrade(ctx context.Context, id string, grade *float64, state models.SubjectEnrollmentState) error {
	const query = `UPDATE subject_enrollments SET final_grade = $2, state = $3, updated_at = $4 WHERE id = $1`
	if _, err := database.Conn(ctx, r.db).ExecContext(ctx, query, id, grade, state, time.Now().UTC()); err != nil {
		return fmt.Errorf("set final grade: %w", err)
	}
	return nil
}

// ListByEnrollment returns the subject enrollments of an enrollment.
func (r *SubjectEnrollmentRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.SubjectEnrollmentDetail, error) {
	const query = `SELECT se.id, se.enrollment_id, se.offering_id, se.state, se.final_grade, se.created_at, se.updated_at,
        o.subject_code, s.name AS subject_name, s.appreciative, e.school_year_id
FROM subject_enrollments se
JOIN enrollments e ON e.id = se.enrollment_id
JOIN subject_offerings o ON o.id = se.offering_id
JOIN subjects s ON s.code = o.subject_code
WHERE se.enrollment_id = $1
ORDER BY o.subject_code`
	var items []models.SubjectEnrollmentDetail
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &items, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list subject enrollments: %w", err)
	}
	return items, nil
}

// Delete removes a subject enrollment with its evaluations.
func (r *SubjectEnrollmentRepository) Delete(ctx context.Context, id string) error {
	conn := database.Conn(ctx, r.db)
	if _, err := conn.ExecContext(ctx, `DELETE FROM evaluations WHERE subject_enrollment_id = $1`, id); err != nil {
		return fmt.Errorf("delete subject enrollment evaluations: %w", err)
	}
	if _, err := conn.ExecContext(ctx, `DELETE FROM subject_enrollments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete subject enrollment: %w", err)
	}
	return nil
}
