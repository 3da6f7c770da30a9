package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/liceo-academic-api/internal/grading"
	"github.com/noah-isme/liceo-academic-api/internal/models"
	appErrors "github.com/noah-isme/liceo-academic-api/pkg/errors"
	"github.com/noah-isme/liceo-academic-api/pkg/export"
)

// Document kinds, used in filenames and metrics labels.
const (
	ReportKindCard     = "report_card"
	ReportKindRegister = "grade_register"
	ReportKindSheet    = "section_sheet"
	ReportKindReceipt  = "enrollment_receipt"
	ReportKindStudy    = "study_certificate"
	ReportKindWork     = "teacher_certificate"
)

var gradeHeaders = []string{"Código", "Asignatura", "Lapso 1", "Lapso 2", "Lapso 3", "Reparación", "Definitiva", "Estado"}

type gradeRecordSource interface {
	ByEnrollment(ctx context.Context, enrollmentID string) ([]models.GradeRecord, error)
	ByAssignment(ctx context.Context, offeringID, sectionID string, schoolYearID int64) ([]models.GradeRecord, error)
	BySection(ctx context.Context, sectionID string, schoolYearID int64) ([]models.GradeRecord, error)
}

type enrollmentDetailReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
}

type assignmentDetailReader interface {
	FindByID(ctx context.Context, id string) (*models.TeacherAssignmentDetail, error)
	List(ctx context.Context, filter models.TeacherAssignmentFilter) ([]models.TeacherAssignmentDetail, error)
}

// ReportOptions tunes document rendering.
type ReportOptions struct {
	InstitutionName string
	DefaultFormat   models.ReportFormat
	ReportCardTTL   time.Duration
	PrincipalName   string
	Locality        string
}

// RenderedDocument is a generated file ready to be streamed.
type RenderedDocument struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ReportService builds report cards, grade registers, section sheets,
// enrollment receipts and certificates and renders them through pkg/export.
type ReportService struct {
	records     gradeRecordSource
	enrollments enrollmentDetailReader
	assignments assignmentDetailReader
	teachers    teacherReader
	sections    sectionReader
	years       schoolYearReader
	cache       *CacheService
	metrics     *MetricsService
	opts        ReportOptions
	logger      *zap.Logger
	now         func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(records gradeRecordSource, enrollments enrollmentDetailReader, assignments assignmentDetailReader, teachers teacherReader, sections sectionReader, years schoolYearReader, cache *CacheService, metrics *MetricsService, opts ReportOptions, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DefaultFormat == "" {
		opts.DefaultFormat = models.ReportFormatPDF
	}
	return &ReportService{
		records:     records,
		enrollments: enrollments,
		assignments: assignments,
		teachers:    teachers,
		sections:    sections,
		years:       years,
		cache:       cache,
		metrics:     metrics,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
	}
}

// ReportCard returns the grades of one enrollment. Results are cached until
// a grade of the enrollment changes.
func (s *ReportService) ReportCard(ctx context.Context, enrollmentID string) (*models.ReportCard, error) {
	key := ReportCardCacheKey(enrollmentID)
	var cached models.ReportCard
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	detail, err := s.enrollments.FindDetailByID(ctx, enrollmentID)
	if err != nil {
		return nil, notFoundOr(err, "enrollment", "failed to load enrollment")
	}
	records, err := s.records.ByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}

	card := &models.ReportCard{
		EnrollmentID:   detail.ID,
		StudentName:    detail.StudentName,
		NationalID:     detail.StudentNationalID,
		SectionName:    detail.SectionName,
		GradeLevelID:   detail.GradeLevelID,
		SchoolYearName: detail.SchoolYearName,
		Rows:           make([]models.GradeRow, 0, len(records)),
	}
	for _, rec := range records {
		card.Rows = append(card.Rows, FormatGradeRecord(rec))
	}
	s.cache.Set(ctx, key, card, s.opts.ReportCardTTL)
	return card, nil
}

// GradeRegister returns the grades of the students covered by a teacher
// assignment.
func (s *ReportService) GradeRegister(ctx context.Context, assignmentID string) (*models.GradeRegister, error) {
	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, notFoundOr(err, "teacher assignment", "failed to load teacher assignment")
	}
	records, err := s.records.ByAssignment(ctx, assignment.OfferingID, assignment.SectionID, assignment.SchoolYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}

	register := &models.GradeRegister{
		AssignmentID:   assignment.ID,
		TeacherName:    assignment.TeacherName,
		SubjectCode:    assignment.SubjectCode,
		SubjectName:    assignment.SubjectName,
		SectionName:    assignment.SectionName,
		SchoolYearName: assignment.SchoolYearName,
		Rows:           make([]models.GradeRow, 0, len(records)),
	}
	for _, rec := range records {
		register.Rows = append(register.Rows, FormatGradeRecord(rec))
	}
	return register, nil
}

// SectionSheet returns the final grade of every student of a section in
// every subject they took during the year.
func (s *ReportService) SectionSheet(ctx context.Context, sectionID string, schoolYearID int64) (*models.SectionSheet, error) {
	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		return nil, notFoundOr(err, "section", "failed to load section")
	}
	year, err := s.years.FindByID(ctx, schoolYearID)
	if err != nil {
		return nil, notFoundOr(err, "school year", "failed to load school year")
	}
	records, err := s.records.BySection(ctx, sectionID, schoolYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}

	sheet := &models.SectionSheet{
		SectionID:      section.ID,
		SectionName:    section.Name,
		SchoolYearID:   year.ID,
		SchoolYearName: year.Name,
		SubjectCodes:   []string{},
		Rows:           []models.SectionSheetRow{},
	}
	codes := map[string]struct{}{}
	index := map[string]int{}
	for _, rec := range records {
		if _, ok := codes[rec.SubjectCode]; !ok {
			codes[rec.SubjectCode] = struct{}{}
			sheet.SubjectCodes = append(sheet.SubjectCodes, rec.SubjectCode)
		}
		i, ok := index[rec.StudentID]
		if !ok {
			i = len(sheet.Rows)
			index[rec.StudentID] = i
			sheet.Rows = append(sheet.Rows, models.SectionSheetRow{
				StudentNationalID: rec.StudentNationalID,
				StudentName:       rec.StudentName,
				Finals:            map[string]string{},
			})
		}
		sheet.Rows[i].Finals[rec.SubjectCode] = FormatGradeRecord(rec).Final
	}
	sort.Strings(sheet.SubjectCodes)
	return sheet, nil
}

// RenderReportCard renders a report card in the requested format.
func (s *ReportService) RenderReportCard(ctx context.Context, enrollmentID string, format models.ReportFormat) (*RenderedDocument, error) {
	start := time.Now()
	exporter, format, err := s.exporter(format)
	if err != nil {
		return nil, err
	}
	card, err := s.ReportCard(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	doc := export.Document{
		Title: "Boletín de calificaciones",
		Heading: s.heading(
			"Alumno: "+card.StudentName,
			"Cédula: "+card.NationalID,
			fmt.Sprintf("Año: %d  Sección: %s", card.GradeLevelID, card.SectionName),
			"Año escolar: "+card.SchoolYearName,
		),
		Data: export.Dataset{Headers: gradeHeaders, Rows: subjectRows(card.Rows)},
	}
	return s.render(ReportKindCard, "boletin "+card.NationalID, exporter, format, doc, start)
}

// RenderGradeRegister renders the grade register of a teacher assignment.
func (s *ReportService) RenderGradeRegister(ctx context.Context, assignmentID string, format models.ReportFormat) (*RenderedDocument, error) {
	start := time.Now()
	exporter, format, err := s.exporter(format)
	if err != nil {
		return nil, err
	}
	register, err := s.GradeRegister(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	headers := append([]string{"Cédula", "Alumno"}, gradeHeaders[2:]...)
	rows := make([][]string, 0, len(register.Rows))
	for _, r := range register.Rows {
		rows = append(rows, []string{r.StudentNationalID, r.StudentName, r.Period1, r.Period2, r.Period3, r.Remedial, r.Final, stateLabel(r.State)})
	}
	doc := export.Document{
		Title: "Registro de calificaciones",
		Heading: s.heading(
			fmt.Sprintf("Asignatura: %s %s", register.SubjectCode, register.SubjectName),
			"Docente: "+register.TeacherName,
			"Sección: "+register.SectionName,
			"Año escolar: "+register.SchoolYearName,
		),
		Data: export.Dataset{Headers: headers, Rows: rows},
	}
	return s.render(ReportKindRegister, "registro "+register.SubjectCode+" "+register.SectionName, exporter, format, doc, start)
}

// RenderSectionSheet renders the final grade matrix of a section.
func (s *ReportService) RenderSectionSheet(ctx context.Context, sectionID string, schoolYearID int64, format models.ReportFormat) (*RenderedDocument, error) {
	start := time.Now()
	exporter, format, err := s.exporter(format)
	if err != nil {
		return nil, err
	}
	sheet, err := s.SectionSheet(ctx, sectionID, schoolYearID)
	if err != nil {
		return nil, err
	}
	headers := append([]string{"Cédula", "Alumno"}, sheet.SubjectCodes...)
	rows := make([][]string, 0, len(sheet.Rows))
	for _, r := range sheet.Rows {
		row := []string{r.StudentNationalID, r.StudentName}
		for _, code := range sheet.SubjectCodes {
			row = append(row, r.Finals[code])
		}
		rows = append(rows, row)
	}
	doc := export.Document{
		Title:   "Sábana de calificaciones",
		Heading: s.heading("Sección: "+sheet.SectionName, "Año escolar: "+sheet.SchoolYearName),
		Data:    export.Dataset{Headers: headers, Rows: rows},
	}
	return s.render(ReportKindSheet, "sabana "+sheet.SectionName+" "+sheet.SchoolYearName, exporter, format, doc, start)
}

func (s *ReportService) exporter(format models.ReportFormat) (export.Exporter, models.ReportFormat, error) {
	if format == "" {
		format = s.opts.DefaultFormat
	}
	format = models.ReportFormat(strings.ToLower(string(format)))
	exporter, err := export.For(string(format))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported report format")
	}
	return exporter, format, nil
}

func (s *ReportService) render(kind, name string, exporter export.Exporter, format models.ReportFormat, doc export.Document, start time.Time) (*RenderedDocument, error) {
	content, err := exporter.Render(doc)
	if err != nil {
		s.logger.Error("render document failed", zap.String("kind", kind), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render document")
	}
	s.metrics.ObserveReport(kind, format, time.Since(start))
	return &RenderedDocument{
		Filename:    export.Filename(name, exporter),
		ContentType: exporter.ContentType(),
		Content:     content,
	}, nil
}

func (s *ReportService) heading(lines ...string) []string {
	if s.opts.InstitutionName == "" {
		return lines
	}
	return append([]string{s.opts.InstitutionName}, lines...)
}

// FormatGradeRecord renders the scores of a record. Appreciative subjects
// show letters, with the final letter aggregated from the three periods.
func FormatGradeRecord(rec models.GradeRecord) models.GradeRow {
	row := models.GradeRow{
		StudentNationalID: rec.StudentNationalID,
		StudentName:       rec.StudentName,
		SubjectCode:       rec.SubjectCode,
		SubjectName:       rec.SubjectName,
		State:             rec.State,
	}
	if rec.Appreciative {
		row.Period1 = grading.LetterFor(rec.Period1)
		row.Period2 = grading.LetterFor(rec.Period2)
		row.Period3 = grading.LetterFor(rec.Period3)
		row.Remedial = grading.LetterFor(rec.Remedial)
		row.Final = grading.FinalLetter(row.Period1, row.Period2, row.Period3)
		return row
	}
	row.Period1 = formatScore(rec.Period1)
	row.Period2 = formatScore(rec.Period2)
	row.Period3 = formatScore(rec.Period3)
	row.Remedial = formatScore(rec.Remedial)
	row.Final = formatScore(rec.FinalGrade)
	return row
}

func subjectRows(rows []models.GradeRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.SubjectCode, r.SubjectName, r.Period1, r.Period2, r.Period3, r.Remedial, r.Final, stateLabel(r.State)})
	}
	return out
}

func formatScore(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func stateLabel(state models.SubjectEnrollmentState) string {
	switch state {
	case models.SubjectStatePassed:
		return "Aprobada"
	case models.SubjectStateFailed:
		return "Reprobada"
	default:
		return "Inscrita"
	}
}
