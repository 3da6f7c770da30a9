package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/internal/repository"
	appErrors "github.com/noah-isme/liceo-academic-api/pkg/errors"
)

type mockSubjectRepo struct {
	subjects  map[string]models.Subject
	offerings map[string]models.SubjectOffering
	deleteErr error
}

func newMockSubjectRepo() *mockSubjectRepo {
	return &mockSubjectRepo{subjects: map[string]models.Subject{}, offerings: map[string]models.SubjectOffering{}}
}

func (m *mockSubjectRepo) List(context.Context) ([]models.Subject, error) {
	out := make([]models.Subject, 0, len(m.subjects))
	for _, s := range m.subjects {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockSubjectRepo) FindByCode(_ context.Context, code string) (*models.Subject, error) {
	s, ok := m.subjects[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (m *mockSubjectRepo) Create(_ context.Context, subject *models.Subject) error {
	m.subjects[subject.Code] = *subject
	return nil
}

func (m *mockSubjectRepo) Update(_ context.Context, code string, patch repository.SubjectPatch) error {
	s := m.subjects[code]
	if patch.Name != nil {
		s.Name = *patch.Name
	}
	if patch.Appreciative != nil {
		s.Appreciative = *patch.Appreciative
	}
	if patch.NewCode != nil {
		delete(m.subjects, code)
		s.Code = *patch.NewCode
	}
	m.subjects[s.Code] = s
	return nil
}

func (m *mockSubjectRepo) Delete(_ context.Context, code string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.subjects, code)
	return nil
}

func (m *mockSubjectRepo) CreateOffering(_ context.Context, o *models.SubjectOffering) error {
	o.ID = o.SubjectCode + "-offering"
	m.offerings[o.ID] = *o
	return nil
}

func (m *mockSubjectRepo) OfferingExists(_ context.Context, code string, level int64) (bool, error) {
	for _, o := range m.offerings {
		if o.SubjectCode == code && o.GradeLevelID == level {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSubjectRepo) FindOffering(_ context.Context, id string) (*models.SubjectOfferingDetail, error) {
	o, ok := m.offerings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.SubjectOfferingDetail{SubjectOffering: o}, nil
}

func (m *mockSubjectRepo) ListOfferings(context.Context, int64) ([]models.SubjectOfferingDetail, error) {
	return nil, nil
}

func (m *mockSubjectRepo) DeleteOffering(_ context.Context, id string) error {
	delete(m.offerings, id)
	return nil
}

type levelLookup struct{}

func (levelLookup) FindByID(_ context.Context, id int64) (*models.GradeLevel, error) {
	if id < 1 || id > 6 {
		return nil, sql.ErrNoRows
	}
	return &models.GradeLevel{ID: id}, nil
}

func newSubjectFixture() (*SubjectService, *mockSubjectRepo) {
	repo := newMockSubjectRepo()
	return NewSubjectService(&fakeTransactor{}, repo, levelLookup{}, nil, nil), repo
}

func TestCodeGradeLevel(t *testing.T) {
	level, err := CodeGradeLevel("03MAT")
	require.NoError(t, err)
	assert.Equal(t, int64(3), level)

	for _, bad := range []string{"", "M", "MAT", "07FIS", "00FIS"} {
		_, err := CodeGradeLevel(bad)
		assert.Error(t, err, bad)
	}
}

func TestSubjectCreateNormalizesAndDetectsAppreciative(t *testing.T) {
	svc, repo := newSubjectFixture()

	subject, err := svc.Create(context.Background(), CreateSubjectRequest{Code: "01ori", Name: "Orientación y Convivencia"})
	require.NoError(t, err)
	assert.Equal(t, "01ORI", subject.Code)
	assert.Equal(t, "ORIENTACIÓN Y CONVIVENCIA", subject.Name)
	assert.True(t, subject.Appreciative)

	explicit := false
	subject, err = svc.Create(context.Background(), CreateSubjectRequest{Code: "02ori", Name: "Orientación", Appreciative: &explicit})
	require.NoError(t, err)
	assert.False(t, subject.Appreciative)
	assert.Len(t, repo.subjects, 2)

	_, err = svc.Create(context.Background(), CreateSubjectRequest{Code: "01ORI", Name: "Otra"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Create(context.Background(), CreateSubjectRequest{Code: "09FIS", Name: "Física"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSubjectUpdatePatch(t *testing.T) {
	svc, repo := newSubjectFixture()
	repo.subjects["01MAT"] = models.Subject{Code: "01MAT", Name: "MATEMATICA"}

	_, err := svc.Update(context.Background(), "01MAT", UpdateSubjectRequest{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	code := "01mat1"
	updated, err := svc.Update(context.Background(), "01MAT", UpdateSubjectRequest{NewCode: &code})
	require.NoError(t, err)
	assert.Equal(t, "01MAT1", updated.Code)
	assert.Equal(t, "MATEMATICA", updated.Name)
}

func TestSubjectDeleteInUseConflicts(t *testing.T) {
	svc, repo := newSubjectFixture()
	repo.subjects["01MAT"] = models.Subject{Code: "01MAT"}
	repo.deleteErr = &pq.Error{Code: "23503"}

	err := svc.Delete(context.Background(), "01MAT")
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	repo.deleteErr = nil
	require.NoError(t, svc.Delete(context.Background(), "01MAT"))
	assert.ErrorIs(t, svc.Delete(context.Background(), "01MAT"), appErrors.ErrNotFound)
}

func TestCreateOfferingChecksCodePrefix(t *testing.T) {
	svc, repo := newSubjectFixture()
	repo.subjects["02HIS"] = models.Subject{Code: "02HIS", Name: "HISTORIA"}

	_, err := svc.CreateOffering(context.Background(), CreateOfferingRequest{SubjectCode: "02HIS", GradeLevelID: 3})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	offering, err := svc.CreateOffering(context.Background(), CreateOfferingRequest{SubjectCode: "02his", GradeLevelID: 2})
	require.NoError(t, err)
	assert.Equal(t, "HISTORIA", offering.SubjectName)

	_, err = svc.CreateOffering(context.Background(), CreateOfferingRequest{SubjectCode: "02HIS", GradeLevelID: 2})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	require.NoError(t, svc.DeleteOffering(context.Background(), offering.ID))
	assert.ErrorIs(t, svc.DeleteOffering(context.Background(), offering.ID), appErrors.ErrNotFound)
}
