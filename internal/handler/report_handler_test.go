package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/internal/service"
)

func TestReportCardDefaultsToJSON(t *testing.T) {
	srv := &fakeReportSrv{card: &models.ReportCard{EnrollmentID: "enr-1", StudentName: "ANA PEREZ"}}
	h := NewReportHandler(srv)
	c, rec := newGinContext(http.MethodGet, "/reports/report-cards/enr-1", nil)
	withParams(c, "id", "enr-1")

	h.ReportCard(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Contains(t, string(decodeEnvelope(rec).Data), `"student_name":"ANA PEREZ"`)
	assert.Empty(t, srv.format)
}

func TestReportCardStreamsPDF(t *testing.T) {
	srv := &fakeReportSrv{doc: &service.RenderedDocument{
		Filename:    "boletin-enr-1.pdf",
		ContentType: "application/pdf",
		Content:     []byte("%PDF-1.3"),
	}}
	h := NewReportHandler(srv)
	c, rec := newGinContext(http.MethodGet, "/reports/report-cards/enr-1?format=PDF", nil)
	withParams(c, "id", "enr-1")

	h.ReportCard(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ReportFormatPDF, srv.format)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="boletin-enr-1.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.3", rec.Body.String())
}

func TestSectionSheetRequiresSchoolYear(t *testing.T) {
	h := NewReportHandler(&fakeReportSrv{})
	c, rec := newGinContext(http.MethodGet, "/reports/section-sheets/sec-1", nil)
	withParams(c, "id", "sec-1")

	h.SectionSheet(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSectionSheetPassesSchoolYear(t *testing.T) {
	srv := &fakeReportSrv{}
	h := NewReportHandler(srv)
	c, rec := newGinContext(http.MethodGet, "/reports/section-sheets/sec-1?schoolYearId=4", nil)
	withParams(c, "id", "sec-1")

	h.SectionSheet(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(4), srv.sheetYear)
}

func TestEnrollmentReceiptJSONAndDocument(t *testing.T) {
	srv := &fakeReportSrv{
		receipt: &models.EnrollmentReceipt{EnrollmentID: "enr-1", Subjects: []models.ReceiptSubject{{SubjectCode: "01MAT", TeacherName: "GOMEZ, RAUL"}}},
		doc:     &service.RenderedDocument{Filename: "comprobante-inscripcion-v1.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.3")},
	}
	h := NewReportHandler(srv)

	c, rec := newGinContext(http.MethodGet, "/reports/enrollment-receipts/enr-1", nil)
	withParams(c, "id", "enr-1")
	h.EnrollmentReceipt(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decodeEnvelope(rec).Data), `"teacher_name":"GOMEZ, RAUL"`)
	assert.Empty(t, srv.rendered)

	c, rec = newGinContext(http.MethodGet, "/reports/enrollment-receipts/enr-1?format=pdf", nil)
	withParams(c, "id", "enr-1")
	h.EnrollmentReceipt(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "receipt:enr-1", srv.rendered)
	assert.Equal(t, `attachment; filename="comprobante-inscripcion-v1.pdf"`, rec.Header().Get("Content-Disposition"))
}

func TestStudentCertificateUsesDefaultFormat(t *testing.T) {
	srv := &fakeReportSrv{doc: &service.RenderedDocument{Filename: "constancia-estudio-v1.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.3")}}
	h := NewReportHandler(srv)
	c, rec := newGinContext(http.MethodGet, "/reports/study-certificates/enr-1", nil)
	withParams(c, "id", "enr-1")

	h.StudentCertificate(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "study:enr-1", srv.rendered)
	assert.Empty(t, srv.format)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
}

func TestTeacherCertificateRequiresSchoolYear(t *testing.T) {
	srv := &fakeReportSrv{doc: &service.RenderedDocument{Filename: "constancia-trabajo-v9.csv", ContentType: "text/csv", Content: []byte("a,b")}}
	h := NewReportHandler(srv)

	c, rec := newGinContext(http.MethodGet, "/reports/teacher-certificates/tch-1", nil)
	withParams(c, "id", "tch-1")
	h.TeacherCertificate(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, srv.rendered)

	c, rec = newGinContext(http.MethodGet, "/reports/teacher-certificates/tch-1?schoolYearId=3&format=csv", nil)
	withParams(c, "id", "tch-1")
	h.TeacherCertificate(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "work:tch-1", srv.rendered)
	assert.Equal(t, int64(3), srv.sheetYear)
	assert.Equal(t, models.ReportFormatCSV, srv.format)
}
