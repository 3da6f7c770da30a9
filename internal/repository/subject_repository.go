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

// SubjectPatch lists the subject fields an update may change. NewCode
// renames the primary key; offerings follow through ON UPDATE CASCADE.
type SubjectPatch struct {
	NewCode      *string
	Name         *string
	Appreciative *bool
}

// SubjectRepository persists subjects and their grade level offerings.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns subjects ordered by code.
func (r *SubjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	const query = `SELECT code, name, appreciative, created_at, updated_at FROM subjects ORDER BY code`
	var subjects []models.Subject
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &subjects, query); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindByCode returns a subject.
func (r *SubjectRepository) FindByCode(ctx context.Context, code string) (*models.Subject, error) {
	const query = `SELECT code, name, appreciative, created_at, updated_at FROM subjects WHERE code = $1`
	var subject models.Subject
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &subject, query, code); err != nil {
		return nil, err
	}
	return &subject, nil
}

// Create inserts a subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	now := time.Now().UTC()
	subject.CreatedAt = now
	subject.UpdatedAt = now
	const query = `INSERT INTO subjects (code, name, appreciative, created_at, updated_at) VALUES (:code, :name, :appreciative, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, database.Conn(ctx, r.db), query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update applies the present fields of patch to the subject at code.
func (r *SubjectRepository) Update(ctx context.Context, code string, patch SubjectPatch) error {
	var sets []string
	var args []interface{}
	if patch.NewCode != nil {
		args = append(args, *patch.NewCode)
		sets = append(sets, fmt.Sprintf("code = $%d", len(args)))
	}
	if patch.Name != nil {
		args = append(args, *patch.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if patch.Appreciative != nil {
		args = append(args, *patch.Appreciative)
		sets = append(sets, fmt.Sprintf("appreciative = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, time.Now().UTC())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, code)
	query := fmt.Sprintf("UPDATE subjects SET %s WHERE code = $%d", strings.Join(sets, ", "), len(args))
	if _, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

// Delete removes a subject with its teacher assignments and offerings.
// Callers run it inside a transaction.
func (r *SubjectRepository) Delete(ctx context.Context, code string) error {
	conn := database.Conn(ctx, r.db)
	statements := []string{
		`DELETE FROM teacher_assignments WHERE offering_id IN (SELECT id FROM subject_offerings WHERE subject_code = $1)`,
		`DELETE FROM subject_offerings WHERE subject_code = $1`,
		`DELETE FROM subjects WHERE code = $1`,
	}
	for _, stmt := range statements {
		if _, err := conn.ExecContext(ctx, stmt, code); err != nil {
			return fmt.Errorf("delete subject: %w", err)
		}
	}
	return nil
}

const offeringDetailQuery = `SELECT o.id, o.subject_code, o.grade_level_id, o.created_at, s.name AS subject_name, s.appreciative
        FROM subject_offerings o JOIN subjects s ON s.code = o.subject_code`

// CreateOffering offers a subject in a grade level.
func (r *SubjectRepository) CreateOffering(ctx context.Context, offering *models.SubjectOffering) error {
	if offering.ID == "" {
		offering.ID = uuid.NewString()
	}
	offering.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO subject_offerings (id, subject_code, grade_level_id, created_at) VALUES (:id, :subject_code, :grade_level_id, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, database.Conn(ctx, r.db), query, offering); err != nil {
		return fmt.Errorf("create subject offering: %w", err)
	}
	return nil
}

// OfferingExists checks the (subject, grade level) uniqueness.
func (r *SubjectRepository) OfferingExists(ctx context.Context, subjectCode string, gradeLevelID int64) (bool, error) {
	const query = `SELECT 1 FROM subject_offerings WHERE subject_code = $1 AND grade_level_id = $2 LIMIT 1`
	var exists int
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &exists, query, subjectCode, gradeLevelID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check subject offering: %w", err)
	}
	return true, nil
}

// FindOffering returns an offering with its subject data.
func (r *SubjectRepository) FindOffering(ctx context.Context, id string) (*models.SubjectOfferingDetail, error) {
	query := offeringDetailQuery + ` WHERE o.id = $1`
	var offering models.SubjectOfferingDetail
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &offering, query, id); err != nil {
		return nil, err
	}
	return &offering, nil
}

// ListOfferings returns offerings, optionally for one grade level.
func (r *SubjectRepository) ListOfferings(ctx context.Context, gradeLevelID int64) ([]models.SubjectOfferingDetail, error) {
	query := offeringDetailQuery
	var args []interface{}
	if gradeLevelID > 0 {
		query += " WHERE o.grade_level_id = $1"
		args = append(args, gradeLevelID)
	}
	query += " ORDER BY o.grade_level_id, o.subject_code"
	var offerings []models.SubjectOfferingDetail
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &offerings, query, args...); err != nil {
		return nil, fmt.Errorf("list subject offerings: %w", err)
	}
	return offerings, nil
}

// ListOfferingsForSection returns the offerings that have a teacher of
// record in the section for the school year: the regular subject list.
func (r *SubjectRepository) ListOfferingsForSection(ctx context.Context, sectionID string, schoolYearID int64) ([]models.SubjectOfferingDetail, error) {
	query := offeringDetailQuery + ` WHERE o.id IN (
            SELECT ta.offering_id FROM teacher_assignments ta WHERE ta.section_id = $1 AND ta.school_year_id = $2)
        ORDER BY o.subject_code`
	var offerings []models.SubjectOfferingDetail
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &offerings, query, sectionID, schoolYearID); err != nil {
		return nil, fmt.Errorf("list section offerings: %w", err)
	}
	return offerings, nil
}

// DeleteOffering removes an offering and its teacher assignments.
func (r *SubjectRepository) DeleteOffering(ctx context.Context, id string) error {
	conn := database.Conn(ctx, r.db)
	if _, err := conn.ExecContext(ctx, `DELETE FROM teacher_assignments WHERE offering_id = $1`, id); err != nil {
		return fmt.Errorf("delete offering assignments: %w", err)
	}
	if _, err := conn.ExecContext(ctx, `DELETE FROM subject_offerings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete subject offering: %w", err)
	}
	return nil
}
