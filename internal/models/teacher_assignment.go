package models

import "time"

// TeacherAssignment makes a teacher the teacher of record for an offering
// in one section and school year.
type TeacherAssignment struct {
	ID           string    `db:"id" json:"id"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	OfferingID   string    `db:"offering_id" json:"offering_id"`
	SectionID    string    `db:"section_id" json:"section_id"`
	SchoolYearID int64     `db:"school_year_id" json:"school_year_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// TeacherAssignmentDetail enriches assignments with display data.
type TeacherAssignmentDetail struct {
	TeacherAssignment
	TeacherName    string `db:"teacher_name" json:"teacher_name"`
	SubjectCode    string `db:"subject_code" json:"subject_code"`
	SubjectName    string `db:"subject_name" json:"subject_name"`
	SectionName    string `db:"section_name" json:"section_name"`
	GradeLevelID   int64  `db:"grade_level_id" json:"grade_level_id"`
	SchoolYearName string `db:"school_year_name" json:"school_year_name"`
}

// TeacherAssignmentFilter narrows assignment listings.
type TeacherAssignmentFilter struct {
	TeacherID    string
	SectionID    string
	SchoolYearID int64
}
