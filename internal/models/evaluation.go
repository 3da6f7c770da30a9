package models

import "time"

const (
	// PeriodRemedial is the evaluation slot holding the make-up score.
	PeriodRemedial = 4
	// OrdinaryPeriods is the number of regular grading periods per year.
	OrdinaryPeriods = 3
)

// Evaluation is the score captured for one period of a subject enrollment.
type Evaluation struct {
	ID                  string    `db:"id" json:"id"`
	SubjectEnrollmentID string    `db:"subject_enrollment_id" json:"subject_enrollment_id"`
	Period              int       `db:"period" json:"period"`
	Score               *float64  `db:"score" json:"score"`
	Description         string    `db:"description" json:"description"`
	GradingWindowID     *int64    `db:"grading_window_id" json:"grading_window_id,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}
