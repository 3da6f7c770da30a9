package models

import "time"

// Subject is a catalog subject. The first two characters of Code name the
// grade level it may be offered in.
type Subject struct {
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	Appreciative bool      `db:"appreciative" json:"appreciative"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectOffering links a subject to the grade level it is taught in.
type SubjectOffering struct {
	ID           string    `db:"id" json:"id"`
	SubjectCode  string    `db:"subject_code" json:"subject_code"`
	GradeLevelID int64     `db:"grade_level_id" json:"grade_level_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// SubjectOfferingDetail carries subject data alongside the offering.
type SubjectOfferingDetail struct {
	SubjectOffering
	SubjectName  string `db:"subject_name" json:"subject_name"`
	Appreciative bool   `db:"appreciative" json:"appreciative"`
}
