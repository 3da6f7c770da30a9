package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/internal/repository"
	appErrors "github.com/noah-isme/liceo-academic-api/pkg/errors"
)

type mockTeacherRepo struct {
	teachers map[string]models.Teacher
	seq      int
}

func (m *mockTeacherRepo) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	out := make([]models.Teacher, 0, len(m.teachers))
	for _, t := range m.teachers {
		out = append(out, t)
	}
	return out, len(out), nil
}

func (m *mockTeacherRepo) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	t, ok := m.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &t, nil
}

func (m *mockTeacherRepo) ExistsByNationalID(ctx context.Context, nationalID, excludeID string) (bool, error) {
	for id, t := range m.teachers {
		if t.NationalID == nationalID && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTeacherRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	m.seq++
	teacher.ID = fmt.Sprintf("t%d", m.seq)
	m.teachers[teacher.ID] = *teacher
	return nil
}

func (m *mockTeacherRepo) Update(ctx context.Context, id string, patch repository.TeacherPatch) error {
	t := m.teachers[id]
	if patch.Email != nil {
		t.Email = *patch.Email
	}
	if patch.LastName != nil {
		t.LastName = *patch.LastName
	}
	m.teachers[id] = t
	return nil
}

func (m *mockTeacherRepo) Delete(ctx context.Context, id string) error {
	delete(m.teachers, id)
	return nil
}

func TestTeacherServiceCreate(t *testing.T) {
	repo := &mockTeacherRepo{teachers: map[string]models.Teacher{}}
	svc := NewTeacherService(repo, validator.New(), zap.NewNop())

	teacher, err := svc.Create(context.Background(), CreateTeacherRequest{NationalID: "V-9", FirstName: "Luis", LastName: "Rojas", Email: "luis@liceo.test"})
	require.NoError(t, err)
	assert.Equal(t, "t1", teacher.ID)

	_, err = svc.Create(context.Background(), CreateTeacherRequest{NationalID: "V-9", FirstName: "Otro", LastName: "Rojas"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Create(context.Background(), CreateTeacherRequest{NationalID: "V-10", FirstName: "X", LastName: "Y", Email: "nope"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestTeacherServiceUpdateAndDelete(t *testing.T) {
	repo := &mockTeacherRepo{teachers: map[string]models.Teacher{"t1": {ID: "t1", NationalID: "V-9", FirstName: "Luis", LastName: "Rojas"}}}
	svc := NewTeacherService(repo, validator.New(), zap.NewNop())

	email := "rojas@liceo.test"
	updated, err := svc.Update(context.Background(), "t1", UpdateTeacherRequest{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, email, updated.Email)
	assert.Equal(t, "Rojas", updated.LastName)

	require.NoError(t, svc.Delete(context.Background(), "t1"))
	_, err = svc.Get(context.Background(), "t1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
