// Package grading holds the pure grading rules: final grade computation,
// qualitative letters and the progression path decision.
package grading

import (
	"math"

	"github.com/noah-isme/liceo-academic-api/internal/models"
)

const (
	// PassingGrade is the minimum rounded final grade, and the minimum
	// remedial score, that passes a subject.
	PassingGrade = 10.0
	// MaxScore is the top of the 0-20 scale.
	MaxScore = 20.0
)

// PeriodScores are the inputs of Compute. A nil entry is a missing score.
type PeriodScores struct {
	Ordinary [models.OrdinaryPeriods]*float64
	Remedial *float64
}

// Outcome is the computed final grade and state of a subject enrollment.
// Determined is false while there is not enough data to decide, in which
// case State is the pending state.
type Outcome struct {
	FinalGrade *float64
	State      models.SubjectEnrollmentState
	Determined bool
}

// FromEvaluations places evaluation rows into their period slots. Rows with
// unknown periods are ignored.
func FromEvaluations(evaluations []models.Evaluation) PeriodScores {
	var scores PeriodScores
	for _, ev := range evaluations {
		switch {
		case ev.Period >= 1 && ev.Period <= models.OrdinaryPeriods:
			scores.Ordinary[ev.Period-1] = ev.Score
		case ev.Period == models.PeriodRemedial:
			scores.Remedial = ev.Score
		}
	}
	return scores
}

// Compute derives the final grade and state from the period scores.
//
// With all three ordinary scores present the final grade is their average
// rounded half up, and it passes at PassingGrade. A failing average is still
// rescued by a passing remedial score. Without the three ordinary scores only
// a remedial score can decide the subject, and the final grade stays empty.
func Compute(scores PeriodScores) Outcome {
	present := make([]float64, 0, models.OrdinaryPeriods)
	for _, s := range scores.Ordinary {
		if valid(s) {
			present = append(present, *s)
		}
	}
	remedial := scores.Remedial
	if !valid(remedial) {
		remedial = nil
	}

	if len(present) == models.OrdinaryPeriods {
		sum := 0.0
		for _, s := range present {
			sum += s
		}
		grade := RoundHalfUp(sum / float64(models.OrdinaryPeriods))
		out := Outcome{FinalGrade: &grade, Determined: true, State: models.SubjectStateFailed}
		switch {
		case grade >= PassingGrade:
			out.State = models.SubjectStatePassed
		case remedial != nil:
			out.State = stateFor(*remedial)
		}
		return out
	}

	if remedial != nil {
		return Outcome{State: stateFor(*remedial), Determined: true}
	}
	return Outcome{State: models.SubjectStatePending}
}

// RoundHalfUp rounds to the nearest integer, halves away from zero on the
// non-negative grade scale.
func RoundHalfUp(v float64) float64 {
	// absorbs float drift such as 9.499999999 from averaging thirds
	return math.Floor(v + 0.5 + 1e-9)
}

func stateFor(remedial float64) models.SubjectEnrollmentState {
	if remedial >= PassingGrade {
		return models.SubjectStatePassed
	}
	return models.SubjectStateFailed
}

func valid(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
