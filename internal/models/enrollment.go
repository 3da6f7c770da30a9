package models

import "time"

// Enrollment registers a student in a section for one school year.
type Enrollment struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	SectionID    string    `db:"section_id" json:"section_id"`
	SchoolYearID int64     `db:"school_year_id" json:"school_year_id"`
	EnrolledAt   time.Time `db:"enrolled_at" json:"enrolled_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail augments an enrollment with display data.
type EnrollmentDetail struct {
	Enrollment
	StudentName       string `db:"student_name" json:"student_name"`
	StudentNationalID string `db:"student_national_id" json:"student_national_id"`
	SectionName       string `db:"section_name" json:"section_name"`
	GradeLevelID      int64  `db:"grade_level_id" json:"grade_level_id"`
	SchoolYearName    string `db:"school_year_name" json:"school_year_name"`
}

// EnrollmentFilter defines list filtering options.
type EnrollmentFilter struct {
	StudentID    string
	SectionID    string
	SchoolYearID int64
	Page         int
	PageSize     int
}

// SubjectEnrollmentState is the grading state of a subject enrollment.
type SubjectEnrollmentState string

const (
	SubjectStatePending SubjectEnrollmentState = "inscrita"
	SubjectStatePassed  SubjectEnrollmentState = "aprobada"
	SubjectStateFailed  SubjectEnrollmentState = "reprobada"
)

// SubjectEnrollment registers an enrollment into one subject offering.
type SubjectEnrollment struct {
	ID           string                 `db:"id" json:"id"`
	EnrollmentID string                 `db:"enrollment_id" json:"enrollment_id"`
	OfferingID   string                 `db:"offering_id" json:"offering_id"`
	State        SubjectEnrollmentState `db:"state" json:"state"`
	FinalGrade   *float64               `db:"final_grade" json:"final_grade"`
	CreatedAt    time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time              `db:"updated_at" json:"updated_at"`
}

// SubjectEnrollmentDetail joins subject information for listings.
type SubjectEnrollmentDetail struct {
	SubjectEnrollment
	SubjectCode  string `db:"subject_code" json:"subject_code"`
	SubjectName  string `db:"subject_name" json:"subject_name"`
	Appreciative bool   `db:"appreciative" json:"appreciative"`
	SchoolYearID int64  `db:"school_year_id" json:"school_year_id"`
}

// FailedSubject is a failed subject enrollment with no later pass for the
// same offering.
type FailedSubject struct {
	SubjectEnrollmentID string   `db:"subject_enrollment_id" json:"subject_enrollment_id"`
	OfferingID          string   `db:"offering_id" json:"offering_id"`
	SubjectCode         string   `db:"subject_code" json:"subject_code"`
	SubjectName         string   `db:"subject_name" json:"subject_name"`
	SchoolYearID        int64    `db:"school_year_id" json:"school_year_id"`
	FinalGrade          *float64 `db:"final_grade" json:"final_grade"`
}
