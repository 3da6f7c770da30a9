package models

import "time"

// SchoolYear is one academic year. Higher IDs are more recent and the
// highest one is the current year.
type SchoolYear struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// GradeLevel is a year of study (1 through 6).
type GradeLevel struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Section is a classroom group inside a grade level.
type Section struct {
	ID             string    `db:"id" json:"id"`
	GradeLevelID   int64     `db:"grade_level_id" json:"grade_level_id"`
	Name           string    `db:"name" json:"name"`
	GradeLevelName string    `db:"grade_level_name" json:"grade_level_name,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// GradingWindow (corte) is a dated window in which scores are captured.
type GradingWindow struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
}
