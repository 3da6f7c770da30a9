package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/internal/repository"
	appErrors "github.com/noah-isme/liceo-academic-api/pkg/errors"
)

type mockStudentRepo struct {
	students map[string]models.Student
	deleted  []string
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	out := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	s, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (m *mockStudentRepo) ExistsByNationalID(ctx context.Context, nationalID, excludeID string) (bool, error) {
	for id, s := range m.students {
		if s.NationalID == nationalID && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	student.ID = uuid.NewString()
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, id string, patch repository.StudentPatch) error {
	s := m.students[id]
	if patch.NationalID != nil {
		s.NationalID = *patch.NationalID
	}
	if patch.FirstName != nil {
		s.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		s.LastName = *patch.LastName
	}
	if patch.Phone != nil {
		s.Phone = *patch.Phone
	}
	m.students[id] = s
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) error {
	delete(m.students, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func TestStudentServiceCreate(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{}}
	svc := NewStudentService(repo, nil, validator.New(), zap.NewNop())

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		NationalID: " V-12345678 ",
		FirstName:  "Ana",
		LastName:   "Pérez",
		Gender:     "F",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.Equal(t, "V-12345678", student.NationalID)
	assert.Len(t, repo.students, 1)
}

func TestStudentServiceCreateDuplicate(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"id1": {ID: "id1", NationalID: "V-1"}}}
	svc := NewStudentService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateStudentRequest{NationalID: "V-1", FirstName: "A", LastName: "B", Gender: "M"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Create(context.Background(), CreateStudentRequest{NationalID: "V-2", FirstName: "A", LastName: "B", Gender: "X"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestStudentServiceUpdatePatch(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"id1": {ID: "id1", NationalID: "V-1", FirstName: "Ana", LastName: "Pérez", Phone: "0414"},
		"id2": {ID: "id2", NationalID: "V-2"},
	}}
	svc := NewStudentService(repo, nil, validator.New(), zap.NewNop())

	first := "Ana María"
	updated, err := svc.Update(context.Background(), "id1", UpdateStudentRequest{FirstName: &first})
	require.NoError(t, err)
	assert.Equal(t, "Ana María", updated.FirstName)
	assert.Equal(t, "Pérez", updated.LastName)
	assert.Equal(t, "0414", updated.Phone)

	taken := "V-2"
	_, err = svc.Update(context.Background(), "id1", UpdateStudentRequest{NationalID: &taken})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Update(context.Background(), "missing", UpdateStudentRequest{FirstName: &first})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestStudentServiceDelete(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"id1": {ID: "id1"}}}
	svc := NewStudentService(repo, nil, validator.New(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "id1"))
	assert.Equal(t, []string{"id1"}, repo.deleted)
	assert.ErrorIs(t, svc.Delete(context.Background(), "id1"), appErrors.ErrNotFound)
}
