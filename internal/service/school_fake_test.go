package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/internal/repository"
)

// fakeSchool is an in-memory rendition of the enrollment tables used to
// drive the progression, enrollment and evaluation services together.
type fakeSchool struct {
	years              []int64
	students           map[string]bool
	sections           map[string]bool
	offerings          map[string]models.SubjectOfferingDetail
	sectionOfferings   map[string][]string
	enrollments        map[string]models.Enrollment
	subjectEnrollments map[string]*models.SubjectEnrollment
	seOrder            []string
	evaluations        map[string]models.Evaluation
	seq                int
	locks              []string
	onLock             func(subjectEnrollmentID string)
}

func newFakeSchool(years ...int64) *fakeSchool {
	return &fakeSchool{
		years:              years,
		students:           map[string]bool{},
		sections:           map[string]bool{},
		offerings:          map[string]models.SubjectOfferingDetail{},
		sectionOfferings:   map[string][]string{},
		enrollments:        map[string]models.Enrollment{},
		subjectEnrollments: map[string]*models.SubjectEnrollment{},
		evaluations:        map[string]models.Evaluation{},
	}
}

func (f *fakeSchool) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeSchool) addOffering(id, code, name string, gradeLevel int64) {
	f.offerings[id] = models.SubjectOfferingDetail{
		SubjectOffering: models.SubjectOffering{ID: id, SubjectCode: code, GradeLevelID: gradeLevel},
		SubjectName:     name,
	}
}

func (f *fakeSchool) assign(sectionID string, yearID int64, offeringIDs ...string) {
	f.sections[sectionID] = true
	key := fmt.Sprintf("%s/%d", sectionID, yearID)
	f.sectionOfferings[key] = append(f.sectionOfferings[key], offeringIDs...)
}

func (f *fakeSchool) enroll(id, studentID, sectionID string, yearID int64) {
	f.students[studentID] = true
	f.sections[sectionID] = true
	f.enrollments[id] = models.Enrollment{ID: id, StudentID: studentID, SectionID: sectionID, SchoolYearID: yearID}
}

// record inserts a subject enrollment in a final state, as if graded.
func (f *fakeSchool) record(enrollmentID, offeringID string, state models.SubjectEnrollmentState) string {
	id := f.nextID("se")
	f.subjectEnrollments[id] = &models.SubjectEnrollment{ID: id, EnrollmentID: enrollmentID, OfferingID: offeringID, State: state}
	f.seOrder = append(f.seOrder, id)
	return id
}

func (f *fakeSchool) yearOf(se *models.SubjectEnrollment) (string, int64) {
	e := f.enrollments[se.EnrollmentID]
	return e.StudentID, e.SchoolYearID
}

func (f *fakeSchool) statesFor(studentID string, yearID int64) map[string]models.SubjectEnrollmentState {
	out := map[string]models.SubjectEnrollmentState{}
	for _, id := range f.seOrder {
		se := f.subjectEnrollments[id]
		if st, y := f.yearOf(se); st == studentID && y == yearID {
			out[se.OfferingID] = se.State
		}
	}
	return out
}

// history, year and offering lookups

type fakeHistory struct{ *fakeSchool }

func (f fakeHistory) passedEver(studentID, offeringID string) bool {
	for _, id := range f.seOrder {
		se := f.subjectEnrollments[id]
		if st, _ := f.yearOf(se); st == studentID && se.OfferingID == offeringID && se.State == models.SubjectStatePassed {
			return true
		}
	}
	return false
}

func (f fakeHistory) failed(studentID string, match func(int64) bool) []models.FailedSubject {
	var out []models.FailedSubject
	for _, id := range f.seOrder {
		se := f.subjectEnrollments[id]
		st, y := f.yearOf(se)
		if st != studentID || !match(y) || se.State != models.SubjectStateFailed || f.passedEver(studentID, se.OfferingID) {
			continue
		}
		o := f.offerings[se.OfferingID]
		out = append(out, models.FailedSubject{
			SubjectEnrollmentID: se.ID,
			OfferingID:          se.OfferingID,
			SubjectCode:         o.SubjectCode,
			SubjectName:         o.SubjectName,
			SchoolYearID:        y,
			FinalGrade:          se.FinalGrade,
		})
	}
	return out
}

func (f fakeHistory) FindPriorFailedSubjects(ctx context.Context, studentID string, schoolYearID int64) ([]models.FailedSubject, error) {
	return f.failed(studentID, func(y int64) bool { return y == schoolYearID }), nil
}

func (f fakeHistory) FindPassedSubjects(ctx context.Context, studentID string, beforeYearID int64) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	for _, id := range f.seOrder {
		se := f.subjectEnrollments[id]
		if st, y := f.yearOf(se); st == studentID && y < beforeYearID && se.State == models.SubjectStatePassed {
			out[se.OfferingID] = struct{}{}
		}
	}
	return out, nil
}

func (f fakeHistory) ListYearOfferings(ctx context.Context, studentID string, schoolYearID int64) ([]models.SubjectOfferingDetail, error) {
	seen := map[string]bool{}
	var out []models.SubjectOfferingDetail
	for _, id := range f.seOrder {
		se := f.subjectEnrollments[id]
		if st, y := f.yearOf(se); st == studentID && y == schoolYearID && !seen[se.OfferingID] {
			seen[se.OfferingID] = true
			out = append(out, f.offerings[se.OfferingID])
		}
	}
	return out, nil
}

type fakeYears struct{ *fakeSchool }

func (f fakeYears) PriorTo(ctx context.Context, yearID int64) (*models.SchoolYear, error) {
	var best int64
	for _, y := range f.years {
		if y < yearID && y > best {
			best = y
		}
	}
	if best == 0 {
		return nil, sql.ErrNoRows
	}
	return &models.SchoolYear{ID: best}, nil
}

func (f fakeYears) FindByID(ctx context.Context, id int64) (*models.SchoolYear, error) {
	for _, y := range f.years {
		if y == id {
			return &models.SchoolYear{ID: y}, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeSectionOfferings struct{ *fakeSchool }

func (f fakeSectionOfferings) ListOfferingsForSection(ctx context.Context, sectionID string, schoolYearID int64) ([]models.SubjectOfferingDetail, error) {
	var out []models.SubjectOfferingDetail
	for _, id := range f.sectionOfferings[fmt.Sprintf("%s/%d", sectionID, schoolYearID)] {
		out = append(out, f.offerings[id])
	}
	return out, nil
}

type fakeStudents struct{ *fakeSchool }

func (f fakeStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if !f.students[id] {
		return nil, sql.ErrNoRows
	}
	return &models.Student{ID: id}, nil
}

type fakeSections struct{ *fakeSchool }

func (f fakeSections) FindByID(ctx context.Context, id string) (*models.Section, error) {
	if !f.sections[id] {
		return nil, sql.ErrNoRows
	}
	return &models.Section{ID: id}, nil
}

// enrollments

type fakeEnrollments struct{ *fakeSchool }

func (f fakeEnrollments) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	var out []models.EnrollmentDetail
	for _, e := range f.enrollments {
		if filter.StudentID != "" && e.StudentID != filter.StudentID {
			continue
		}
		out = append(out, models.EnrollmentDetail{Enrollment: e})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f fakeEnrollments) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	e, ok := f.enrollments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &e, nil
}

func (f fakeEnrollments) LockByID(ctx context.Context, id string) (*models.Enrollment, error) {
	f.locks = append(f.locks, "enrollment:"+id)
	return f.FindByID(ctx, id)
}

func (f fakeEnrollments) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	e, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.EnrollmentDetail{Enrollment: *e}, nil
}

func (f fakeEnrollments) Exists(ctx context.Context, studentID, sectionID string, schoolYearID int64, excludeID string) (bool, error) {
	for id, e := range f.enrollments {
		if id != excludeID && e.StudentID == studentID && e.SectionID == sectionID && e.SchoolYearID == schoolYearID {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeEnrollments) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = f.nextID("enr")
	}
	f.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (f fakeEnrollments) Update(ctx context.Context, id string, patch repository.EnrollmentPatch) error {
	e := f.enrollments[id]
	if patch.SectionID != nil {
		e.SectionID = *patch.SectionID
	}
	if patch.SchoolYearID != nil {
		e.SchoolYearID = *patch.SchoolYearID
	}
	f.enrollments[id] = e
	return nil
}

func (f fakeEnrollments) Delete(ctx context.Context, id string) error {
	for seID, se := range f.subjectEnrollments {
		if se.EnrollmentID == id {
			f.deleteSubjectEnrollment(seID)
		}
	}
	delete(f.enrollments, id)
	return nil
}

func (f *fakeSchool) deleteSubjectEnrollment(id string) {
	for evID, ev := range f.evaluations {
		if ev.SubjectEnrollmentID == id {
			delete(f.evaluations, evID)
		}
	}
	delete(f.subjectEnrollments, id)
	for i, seID := range f.seOrder {
		if seID == id {
			f.seOrder = append(f.seOrder[:i], f.seOrder[i+1:]...)
			break
		}
	}
}

// subject enrollments

type fakeSubjectEnrollments struct{ *fakeSchool }

func (f fakeSubjectEnrollments) ListOfferingIDsByEnrollment(ctx context.Context, enrollmentID string) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	for _, se := range f.subjectEnrollments {
		if se.EnrollmentID == enrollmentID {
			out[se.OfferingID] = struct{}{}
		}
	}
	return out, nil
}

func (f fakeSubjectEnrollments) InsertSubjectEnrollment(ctx context.Context, se *models.SubjectEnrollment) error {
	if se.ID == "" {
		se.ID = f.nextID("se")
	}
	stored := *se
	f.subjectEnrollments[se.ID] = &stored
	f.seOrder = append(f.seOrder, se.ID)
	return nil
}

func (f fakeSubjectEnrollments) CascadeFailPriorYear(ctx context.Context, studentID string, schoolYearID int64) (int64, error) {
	var affected int64
	for _, se := range f.subjectEnrollments {
		if st, y := f.yearOf(se); st == studentID && y == schoolYearID {
			se.State = models.SubjectStateFailed
			affected++
		}
	}
	return affected, nil
}

func (f fakeSubjectEnrollments) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.SubjectEnrollmentDetail, error) {
	var out []models.SubjectEnrollmentDetail
	for _, id := range f.seOrder {
		se := f.subjectEnrollments[id]
		if se.EnrollmentID == enrollmentID {
			o := f.offerings[se.OfferingID]
			out = append(out, models.SubjectEnrollmentDetail{SubjectEnrollment: *se, SubjectCode: o.SubjectCode, SubjectName: o.SubjectName})
		}
	}
	return out, nil
}

func (f fakeSubjectEnrollments) ListFailedByStudent(ctx context.Context, studentID string) ([]models.FailedSubject, error) {
	return fakeHistory(f).failed(studentID, func(int64) bool { return true }), nil
}

func (f fakeSubjectEnrollments) FindByID(ctx context.Context, id string) (*models.SubjectEnrollment, error) {
	se, ok := f.subjectEnrollments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *se
	return &copied, nil
}

func (f fakeSubjectEnrollments) LockByID(ctx context.Context, id string) (*models.SubjectEnrollment, error) {
	f.locks = append(f.locks, "subject_enrollment:"+id)
	if f.onLock != nil {
		f.onLock(id)
	}
	return f.FindByID(ctx, id)
}

func (f fakeSubjectEnrollments) SetFinalGrade(ctx context.Context, id string, grade *float64, state models.SubjectEnrollmentState) error {
	se, ok := f.subjectEnrollments[id]
	if !ok {
		return sql.ErrNoRows
	}
	se.FinalGrade = grade
	se.State = state
	return nil
}

func (f fakeSubjectEnrollments) Delete(ctx context.Context, id string) error {
	f.deleteSubjectEnrollment(id)
	return nil
}

// evaluations

type fakeEvaluations struct{ *fakeSchool }

func (f fakeEvaluations) GetEvaluations(ctx context.Context, subjectEnrollmentID string) ([]models.Evaluation, error) {
	var out []models.Evaluation
	for _, ev := range f.evaluations {
		if ev.SubjectEnrollmentID == subjectEnrollmentID {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}

func (f fakeEvaluations) FindByID(ctx context.Context, id string) (*models.Evaluation, error) {
	ev, ok := f.evaluations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &ev, nil
}

func (f fakeEvaluations) UpsertEvaluation(ctx context.Context, evaluation *models.Evaluation) error {
	for id, ev := range f.evaluations {
		if ev.SubjectEnrollmentID == evaluation.SubjectEnrollmentID && ev.Period == evaluation.Period {
			evaluation.ID = id
		}
	}
	if evaluation.ID == "" {
		evaluation.ID = f.nextID("ev")
	}
	f.evaluations[evaluation.ID] = *evaluation
	return nil
}

func (f fakeEvaluations) Update(ctx context.Context, id string, patch repository.EvaluationPatch) error {
	ev := f.evaluations[id]
	switch {
	case patch.ClearScore:
		ev.Score = nil
	case patch.Score != nil:
		v := *patch.Score
		ev.Score = &v
	}
	if patch.Description != nil {
		ev.Description = *patch.Description
	}
	if patch.GradingWindowID != nil {
		ev.GradingWindowID = patch.GradingWindowID
	}
	f.evaluations[id] = ev
	return nil
}

func (f fakeEvaluations) Delete(ctx context.Context, id string) error {
	delete(f.evaluations, id)
	return nil
}

type fakeTransactor struct {
	calls int
}

func (t *fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

func newSchoolServices(school *fakeSchool) (*ProgressionService, *EnrollmentService, *EvaluationService, *fakeTransactor) {
	tx := &fakeTransactor{}
	progression := NewProgressionService(fakeHistory{school}, fakeYears{school}, fakeSectionOfferings{school}, nil, nil, nil)
	enrollments := NewEnrollmentService(tx, fakeEnrollments{school}, fakeSubjectEnrollments{school}, progression,
		fakeStudents{school}, fakeSections{school}, fakeYears{school}, nil, nil, nil, nil)
	evaluations := NewEvaluationService(tx, fakeEvaluations{school}, fakeSubjectEnrollments{school}, nil, nil, nil, nil, nil)
	return progression, enrollments, evaluations, tx
}

func scorePtr(v float64) *float64 { return &v }
