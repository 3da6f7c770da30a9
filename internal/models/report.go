package models

import "time"

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatPDF  ReportFormat = "pdf"
	ReportFormatXLSX ReportFormat = "xlsx"
	ReportFormatCSV  ReportFormat = "csv"
)

// GradeRecord is the flat row the report queries return: one subject
// enrollment with all of its period scores.
type GradeRecord struct {
	SubjectEnrollmentID string                 `db:"subject_enrollment_id" json:"subject_enrollment_id"`
	StudentID           string                 `db:"student_id" json:"student_id"`
	StudentNationalID   string                 `db:"student_national_id" json:"student_national_id"`
	StudentName         string                 `db:"student_name" json:"student_name"`
	SubjectCode         string                 `db:"subject_code" json:"subject_code"`
	SubjectName         string                 `db:"subject_name" json:"subject_name"`
	Appreciative        bool                   `db:"appreciative" json:"appreciative"`
	Period1             *float64               `db:"period_1" json:"period_1"`
	Period2             *float64               `db:"period_2" json:"period_2"`
	Period3             *float64               `db:"period_3" json:"period_3"`
	Remedial            *float64               `db:"remedial" json:"remedial"`
	FinalGrade          *float64               `db:"final_grade" json:"final_grade"`
	State               SubjectEnrollmentState `db:"state" json:"state"`
}

// GradeRow is a rendered report line: scores already formatted as numbers
// or letters depending on the subject.
type GradeRow struct {
	StudentNationalID string                 `json:"student_national_id"`
	StudentName       string                 `json:"student_name"`
	SubjectCode       string                 `json:"subject_code"`
	SubjectName       string                 `json:"subject_name"`
	Period1           string                 `json:"period_1"`
	Period2           string                 `json:"period_2"`
	Period3           string                 `json:"period_3"`
	Remedial          string                 `json:"remedial"`
	Final             string                 `json:"final"`
	State             SubjectEnrollmentState `json:"state"`
}

// ReportCard is a student's grades for one enrollment.
type ReportCard struct {
	EnrollmentID   string     `json:"enrollment_id"`
	StudentName    string     `json:"student_name"`
	NationalID     string     `json:"national_id"`
	SectionName    string     `json:"section_name"`
	GradeLevelID   int64      `json:"grade_level_id"`
	SchoolYearName string     `json:"school_year_name"`
	Rows           []GradeRow `json:"rows"`
}

// GradeRegister lists the grades of every student a teacher assignment
// covers.
type GradeRegister struct {
	AssignmentID   string     `json:"assignment_id"`
	TeacherName    string     `json:"teacher_name"`
	SubjectCode    string     `json:"subject_code"`
	SubjectName    string     `json:"subject_name"`
	SectionName    string     `json:"section_name"`
	SchoolYearName string     `json:"school_year_name"`
	Rows           []GradeRow `json:"rows"`
}

// SectionSheetRow holds one student's final grades keyed by subject code.
type SectionSheetRow struct {
	StudentNationalID string            `json:"student_national_id"`
	StudentName       string            `json:"student_name"`
	Finals            map[string]string `json:"finals"`
}

// SectionSheet is the final grade matrix of a section for one year.
type SectionSheet struct {
	SectionID      string            `json:"section_id"`
	SectionName    string            `json:"section_name"`
	SchoolYearID   int64             `json:"school_year_id"`
	SchoolYearName string            `json:"school_year_name"`
	SubjectCodes   []string          `json:"subject_codes"`
	Rows           []SectionSheetRow `json:"rows"`
}

// ReceiptSubject is one subject listed on an enrollment receipt.
type ReceiptSubject struct {
	SubjectCode string                 `json:"subject_code"`
	SubjectName string                 `json:"subject_name"`
	TeacherName string                 `json:"teacher_name"`
	State       SubjectEnrollmentState `json:"state"`
}

// EnrollmentReceipt proves a student was registered in a section, with the
// subjects the registration created.
type EnrollmentReceipt struct {
	EnrollmentID   string           `json:"enrollment_id"`
	StudentName    string           `json:"student_name"`
	NationalID     string           `json:"national_id"`
	SectionName    string           `json:"section_name"`
	GradeLevelID   int64            `json:"grade_level_id"`
	SchoolYearName string           `json:"school_year_name"`
	EnrolledAt     time.Time        `json:"enrolled_at"`
	Subjects       []ReceiptSubject `json:"subjects"`
}
