package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/liceo-academic-api/internal/grading"
	"github.com/noah-isme/liceo-academic-api/internal/models"
	appErrors "github.com/noah-isme/liceo-academic-api/pkg/errors"
)

func recordScores(t *testing.T, svc *EvaluationService, seID string, scores ...float64) *EvaluationResult {
	t.Helper()
	var res *EvaluationResult
	for i, score := range scores {
		var err error
		res, err = svc.Record(context.Background(), RecordEvaluationRequest{SubjectEnrollmentID: seID, Period: i + 1, Score: scorePtr(score)})
		require.NoError(t, err)
	}
	return res
}

func TestEvaluationRecordRecomputesFinalGrade(t *testing.T) {
	school := secondYearSchool()
	seID := school.record("enr-y1", "math1", models.SubjectStatePending)
	_, _, svc, tx := newSchoolServices(school)

	res := recordScores(t, svc, seID, 12, 14)
	assert.Equal(t, models.SubjectStatePending, res.SubjectEnrollment.State)
	assert.Nil(t, res.SubjectEnrollment.FinalGrade)

	res = recordScores(t, svc, seID, 12, 14, 13)
	require.NotNil(t, res.SubjectEnrollment.FinalGrade)
	assert.Equal(t, 13.0, *res.SubjectEnrollment.FinalGrade)
	assert.Equal(t, models.SubjectStatePassed, school.subjectEnrollments[seID].State)
	assert.Equal(t, 13.0, *school.subjectEnrollments[seID].FinalGrade)
	assert.Equal(t, 5, tx.calls)
	assert.Contains(t, school.locks, "subject_enrollment:"+seID)
	assert.Len(t, school.evaluations, 3)
}

func TestEvaluationRemedialRescuesFailingAverage(t *testing.T) {
	school := secondYearSchool()
	seID := school.record("enr-y1", "math1", models.SubjectStatePending)
	_, _, svc, _ := newSchoolServices(school)

	res := recordScores(t, svc, seID, 8, 9, 9)
	assert.Equal(t, models.SubjectStateFailed, res.SubjectEnrollment.State)
	assert.Equal(t, 9.0, *res.SubjectEnrollment.FinalGrade)

	res, err := svc.Record(context.Background(), RecordEvaluationRequest{SubjectEnrollmentID: seID, Period: models.PeriodRemedial, Score: scorePtr(11)})
	require.NoError(t, err)
	assert.Equal(t, models.SubjectStatePassed, res.SubjectEnrollment.State)
	assert.Equal(t, 9.0, *res.SubjectEnrollment.FinalGrade)
}

func TestEvaluationUpdateAndDeleteRecompute(t *testing.T) {
	school := secondYearSchool()
	seID := school.record("enr-y1", "math1", models.SubjectStatePending)
	_, _, svc, _ := newSchoolServices(school)
	recordScores(t, svc, seID, 10, 10, 10)

	evals, err := svc.List(context.Background(), seID)
	require.NoError(t, err)
	require.Len(t, evals, 3)

	res, err := svc.Update(context.Background(), evals[2].ID, UpdateEvaluationRequest{Score: scorePtr(4)})
	require.NoError(t, err)
	assert.Equal(t, 4.0, *res.Evaluation.Score)
	assert.Equal(t, 8.0, *res.SubjectEnrollment.FinalGrade)
	assert.Equal(t, models.SubjectStateFailed, res.SubjectEnrollment.State)

	res, err = svc.Delete(context.Background(), evals[2].ID)
	require.NoError(t, err)
	assert.Nil(t, res.SubjectEnrollment.FinalGrade)
	assert.Equal(t, models.SubjectStatePending, res.SubjectEnrollment.State)
	assert.Equal(t, models.SubjectStatePending, school.subjectEnrollments[seID].State)

	_, err = svc.Delete(context.Background(), evals[2].ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestEvaluationDeletedWhileWaitingForLock(t *testing.T) {
	school := secondYearSchool()
	seID := school.record("enr-y1", "math1", models.SubjectStatePending)
	_, _, svc, _ := newSchoolServices(school)
	recordScores(t, svc, seID, 10, 10, 10)

	evals, err := svc.List(context.Background(), seID)
	require.NoError(t, err)
	require.Len(t, evals, 3)

	// another writer removes the evaluation before the lock is granted
	school.onLock = func(string) { delete(school.evaluations, evals[1].ID) }
	_, err = svc.Update(context.Background(), evals[1].ID, UpdateEvaluationRequest{Score: scorePtr(4)})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	school.evaluations[evals[1].ID] = evals[1]
	_, err = svc.Delete(context.Background(), evals[1].ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, 10.0, *school.subjectEnrollments[seID].FinalGrade)
}

func TestEvaluationClearScore(t *testing.T) {
	school := secondYearSchool()
	seID := school.record("enr-y1", "math1", models.SubjectStatePending)
	_, _, svc, _ := newSchoolServices(school)
	recordScores(t, svc, seID, 15, 15, 15)

	evals, err := svc.List(context.Background(), seID)
	require.NoError(t, err)
	res, err := svc.Update(context.Background(), evals[0].ID, UpdateEvaluationRequest{ClearScore: true})
	require.NoError(t, err)
	assert.Nil(t, res.Evaluation.Score)
	assert.Equal(t, models.SubjectStatePending, res.SubjectEnrollment.State)
}

func TestEvaluationRecordValidation(t *testing.T) {
	school := secondYearSchool()
	seID := school.record("enr-y1", "math1", models.SubjectStatePending)
	_, _, svc, _ := newSchoolServices(school)

	_, err := svc.Record(context.Background(), RecordEvaluationRequest{SubjectEnrollmentID: seID, Period: 5, Score: scorePtr(10)})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Record(context.Background(), RecordEvaluationRequest{SubjectEnrollmentID: seID, Period: 1, Score: scorePtr(21)})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Record(context.Background(), RecordEvaluationRequest{SubjectEnrollmentID: "missing", Period: 1, Score: scorePtr(10)})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

// Math failed and History passed in the first year: the second year offers
// Math alone.
func TestCarryOverScenarioEndToEnd(t *testing.T) {
	school := secondYearSchool()
	mathSE := school.record("enr-y1", "math1", models.SubjectStatePending)
	histSE := school.record("enr-y1", "hist1", models.SubjectStatePending)
	progression, enrollments, evaluations, _ := newSchoolServices(school)

	recordScores(t, evaluations, mathSE, 6, 8, 7)
	recordScores(t, evaluations, histSE, 14, 16, 15)
	require.Equal(t, models.SubjectStateFailed, school.subjectEnrollments[mathSE].State)
	require.Equal(t, models.SubjectStatePassed, school.subjectEnrollments[histSE].State)

	plan, err := progression.Resolve(context.Background(), ResolveInput{StudentID: "stu-1", SectionID: "sec-2a", SchoolYearID: 2})
	require.NoError(t, err)
	assert.Equal(t, grading.PathCarryOver, plan.Path)
	assert.Equal(t, []string{"math1"}, offeringIDs(plan.Offered))

	res, err := enrollments.EnrollSubjects(context.Background(), "enr-y2", EnrollSubjectsRequest{
		OfferingIDs: []string{"math1", "hist1", "math2", "hist2"},
	})
	require.NoError(t, err)
	require.Len(t, res.Inserted, 1)
	assert.Equal(t, "math1", res.Inserted[0].OfferingID)
	assert.Equal(t, []string{"hist1"}, res.AlreadyPassed)
	assert.ElementsMatch(t, []string{"math2", "hist2"}, res.NotOffered)
}

// Passed in year N, failed on a retake in N+1: year N+2 does not offer it.
func TestPassedSubjectNeverReofferedAfterLaterFailure(t *testing.T) {
	school := newFakeSchool(1, 2, 3)
	school.addOffering("math1", "01MAT", "MATEMATICA", 1)
	school.assign("sec-1a", 3, "math1")
	school.enroll("enr-y1", "stu-1", "sec-1a", 1)
	school.enroll("enr-y2", "stu-1", "sec-1a", 2)
	school.enroll("enr-y3", "stu-1", "sec-1a", 3)
	school.record("enr-y1", "math1", models.SubjectStatePassed)
	school.record("enr-y2", "math1", models.SubjectStateFailed)
	_, enrollments, _, _ := newSchoolServices(school)

	plan, err := enrollments.AvailableSubjects(context.Background(), "enr-y3")
	require.NoError(t, err)
	assert.Equal(t, grading.PathStandard, plan.Path)
	assert.Equal(t, []string{"math1"}, plan.Exempt)

	_, err = enrollments.EnrollSubjects(context.Background(), "enr-y3", EnrollSubjectsRequest{OfferingIDs: []string{"math1"}})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}
