package models

// GradeLevelCount is the number of students enrolled in a grade level.
type GradeLevelCount struct {
	GradeLevelID   int64  `db:"grade_level_id" json:"grade_level_id"`
	GradeLevelName string `db:"grade_level_name" json:"grade_level_name"`
	Students       int    `db:"students" json:"students"`
}

// DashboardStats summarises one school year.
type DashboardStats struct {
	SchoolYearID      int64             `json:"school_year_id"`
	Students          int               `json:"students"`
	Teachers          int               `json:"teachers"`
	Subjects          int               `json:"subjects"`
	Enrollments       int               `json:"enrollments"`
	StudentsPerLevel  []GradeLevelCount `json:"students_per_level"`
	HeldBackStudents  int               `json:"held_back_students"`
	AllPassedStudents int               `json:"all_passed_students"`
}
