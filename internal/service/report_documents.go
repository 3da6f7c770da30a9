package service

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	appErrors "github.com/noah-isme/liceo-academic-api/pkg/errors"
	"github.com/noah-isme/liceo-academic-api/pkg/export"
)

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// EnrollmentReceipt lists the subjects an enrollment registered, with the
// teacher assigned to each one in the enrollment's section.
func (s *ReportService) EnrollmentReceipt(ctx context.Context, enrollmentID string) (*models.EnrollmentReceipt, error) {
	detail, err := s.enrollments.FindDetailByID(ctx, enrollmentID)
	if err != nil {
		return nil, notFoundOr(err, "enrollment", "failed to load enrollment")
	}
	records, err := s.records.ByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	assignments, err := s.assignments.List(ctx, models.TeacherAssignmentFilter{SectionID: detail.SectionID, SchoolYearID: detail.SchoolYearID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher assignments")
	}
	teachers := make(map[string]string, len(assignments))
	for _, a := range assignments {
		teachers[a.SubjectCode] = a.TeacherName
	}

	receipt := &models.EnrollmentReceipt{
		EnrollmentID:   detail.ID,
		StudentName:    detail.StudentName,
		NationalID:     detail.StudentNationalID,
		SectionName:    detail.SectionName,
		GradeLevelID:   detail.GradeLevelID,
		SchoolYearName: detail.SchoolYearName,
		EnrolledAt:     detail.EnrolledAt,
		Subjects:       make([]models.ReceiptSubject, 0, len(records)),
	}
	for _, rec := range records {
		receipt.Subjects = append(receipt.Subjects, models.ReceiptSubject{
			SubjectCode: rec.SubjectCode,
			SubjectName: rec.SubjectName,
			TeacherName: teachers[rec.SubjectCode],
			State:       rec.State,
		})
	}
	return receipt, nil
}

// RenderEnrollmentReceipt renders the enrollment receipt handed to the
// student after registration.
func (s *ReportService) RenderEnrollmentReceipt(ctx context.Context, enrollmentID string, format models.ReportFormat) (*RenderedDocument, error) {
	start := time.Now()
	exporter, format, err := s.exporter(format)
	if err != nil {
		return nil, err
	}
	receipt, err := s.EnrollmentReceipt(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(receipt.Subjects))
	for _, sub := range receipt.Subjects {
		rows = append(rows, []string{sub.SubjectCode, sub.SubjectName, sub.TeacherName, stateLabel(sub.State)})
	}
	doc := export.Document{
		Title: "Comprobante de inscripción",
		Heading: s.heading(
			"Alumno: "+receipt.StudentName,
			"Cédula: "+receipt.NationalID,
			fmt.Sprintf("Año: %d  Sección: %s", receipt.GradeLevelID, receipt.SectionName),
			"Año escolar: "+receipt.SchoolYearName,
			"Fecha de inscripción: "+receipt.EnrolledAt.Format("02/01/2006"),
		),
		Data:   export.Dataset{Headers: []string{"Código", "Asignatura", "Docente", "Estado"}, Rows: rows},
		Footer: s.signature(),
	}
	return s.render(ReportKindReceipt, "comprobante inscripcion "+receipt.NationalID, exporter, format, doc, start)
}

// RenderStudentCertificate renders the study certificate of the student
// registered by an enrollment.
func (s *ReportService) RenderStudentCertificate(ctx context.Context, enrollmentID string, format models.ReportFormat) (*RenderedDocument, error) {
	start := time.Now()
	exporter, format, err := s.exporter(format)
	if err != nil {
		return nil, err
	}
	detail, err := s.enrollments.FindDetailByID(ctx, enrollmentID)
	if err != nil {
		return nil, notFoundOr(err, "enrollment", "failed to load enrollment")
	}
	doc := export.Document{
		Title:   "Constancia de estudio",
		Heading: s.heading(),
		Body: []string{
			fmt.Sprintf("Quien suscribe, %s, hace constar por medio de la presente que el(la) estudiante %s, titular de la cédula de identidad N° %s, cursa el %d° año, sección %s, en esta institución durante el año escolar %s.",
				s.signer(), detail.StudentName, detail.StudentNationalID, detail.GradeLevelID, detail.SectionName, detail.SchoolYearName),
			s.issuedAt(),
		},
		Data: export.Dataset{
			Headers: []string{"Dato", "Valor"},
			Rows: [][]string{
				{"Estudiante", detail.StudentName},
				{"Cédula", detail.StudentNationalID},
				{"Año", fmt.Sprintf("%d", detail.GradeLevelID)},
				{"Sección", detail.SectionName},
				{"Año escolar", detail.SchoolYearName},
			},
		},
		Footer: s.signature(),
	}
	return s.render(ReportKindStudy, "constancia estudio "+detail.StudentNationalID, exporter, format, doc, start)
}

// RenderTeacherCertificate renders the work certificate of a teacher with
// the subjects assigned to them in a school year. A teacher without
// assignments in that year gets no certificate.
func (s *ReportService) RenderTeacherCertificate(ctx context.Context, teacherID string, schoolYearID int64, format models.ReportFormat) (*RenderedDocument, error) {
	start := time.Now()
	exporter, format, err := s.exporter(format)
	if err != nil {
		return nil, err
	}
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		return nil, notFoundOr(err, "teacher", "failed to load teacher")
	}
	year, err := s.years.FindByID(ctx, schoolYearID)
	if err != nil {
		return nil, notFoundOr(err, "school year", "failed to load school year")
	}
	assignments, err := s.assignments.List(ctx, models.TeacherAssignmentFilter{TeacherID: teacherID, SchoolYearID: schoolYearID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher assignments")
	}
	if len(assignments) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher has no assignments in the school year")
	}

	rows := make([][]string, 0, len(assignments))
	for _, a := range assignments {
		rows = append(rows, []string{a.SubjectCode, a.SubjectName, fmt.Sprintf("%d", a.GradeLevelID), a.SectionName})
	}
	doc := export.Document{
		Title:   "Constancia de trabajo",
		Heading: s.heading(),
		Body: []string{
			fmt.Sprintf("Quien suscribe, %s, hace constar por medio de la presente que el(la) ciudadano(a) %s, titular de la cédula de identidad N° %s, presta servicios como docente en esta institución durante el año escolar %s, con la carga académica que se detalla a continuación.",
				s.signer(), teacher.FullName(), teacher.NationalID, year.Name),
			s.issuedAt(),
		},
		Data:   export.Dataset{Headers: []string{"Código", "Asignatura", "Año", "Sección"}, Rows: rows},
		Footer: s.signature(),
	}
	return s.render(ReportKindWork, "constancia trabajo "+teacher.NationalID, exporter, format, doc, start)
}

func (s *ReportService) signer() string {
	institution := s.opts.InstitutionName
	if institution == "" {
		institution = "esta institución"
	}
	if s.opts.PrincipalName == "" {
		return "el(la) Director(a) de " + institution
	}
	return s.opts.PrincipalName + ", en su carácter de Director(a) de " + institution
}

func (s *ReportService) issuedAt() string {
	now := s.now()
	place := ""
	if s.opts.Locality != "" {
		place = "en " + s.opts.Locality + ", "
	}
	return fmt.Sprintf("Constancia que se expide a petición de la parte interesada, %sa los %d días del mes de %s de %d.",
		place, now.Day(), monthNames[now.Month()-1], now.Year())
}

func (s *ReportService) signature() []string {
	lines := []string{"______________________________"}
	if s.opts.PrincipalName != "" {
		lines = append(lines, s.opts.PrincipalName)
	}
	return append(lines, "Director(a)")
}
