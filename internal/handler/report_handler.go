package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/liceo-academic-api/internal/middleware"
	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/internal/service"
	appErrors "github.com/noah-isme/liceo-academic-api/pkg/errors"
	"github.com/noah-isme/liceo-academic-api/pkg/response"
)

type reportService interface {
	ReportCard(ctx context.Context, enrollmentID string) (*models.ReportCard, error)
	GradeRegister(ctx context.Context, assignmentID string) (*models.GradeRegister, error)
	SectionSheet(ctx context.Context, sectionID string, schoolYearID int64) (*models.SectionSheet, error)
	RenderReportCard(ctx context.Context, enrollmentID string, format models.ReportFormat) (*service.RenderedDocument, error)
	RenderGradeRegister(ctx context.Context, assignmentID string, format models.ReportFormat) (*service.RenderedDocument, error)
	RenderSectionSheet(ctx context.Context, sectionID string, schoolYearID int64, format models.ReportFormat) (*service.RenderedDocument, error)
	EnrollmentReceipt(ctx context.Context, enrollmentID string) (*models.EnrollmentReceipt, error)
	RenderEnrollmentReceipt(ctx context.Context, enrollmentID string, format models.ReportFormat) (*service.RenderedDocument, error)
	RenderStudentCertificate(ctx context.Context, enrollmentID string, format models.ReportFormat) (*service.RenderedDocument, error)
	RenderTeacherCertificate(ctx context.Context, teacherID string, schoolYearID int64, format models.ReportFormat) (*service.RenderedDocument, error)
}

// ReportHandler serves report data as JSON or as a downloadable document.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// requestedFormat returns the requested document format; empty means JSON.
func requestedFormat(c *gin.Context) models.ReportFormat {
	f := strings.ToLower(strings.TrimSpace(c.Query("format")))
	if f == "json" {
		return ""
	}
	return models.ReportFormat(f)
}

func sendDocument(c *gin.Context, doc *service.RenderedDocument) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", doc.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}

// ReportCard godoc
// @Summary Student report card (boletín)
// @Tags Reports
// @Produce json
// @Produce application/pdf
// @Param id path string true "Enrollment ID"
// @Param format query string false "json (default), pdf, xlsx or csv"
// @Success 200 {object} response.Envelope
// @Router /reports/report-cards/{id} [get]
func (h *ReportHandler) ReportCard(c *gin.Context) {
	id := c.Param("id")
	if format := requestedFormat(c); format != "" {
		doc, err := h.reports.RenderReportCard(c.Request.Context(), id, format)
		if err != nil {
			response.Error(c, err)
			return
		}
		sendDocument(c, doc)
		return
	}
	card, err := h.reports.ReportCard(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card, nil, middleware.ExtractMeta(c))
}

// GradeRegister godoc
// @Summary Grade register of a teacher assignment
// @Tags Reports
// @Produce json
// @Param id path string true "Teacher assignment ID"
// @Param format query string false "json (default), pdf, xlsx or csv"
// @Success 200 {object} response.Envelope
// @Router /reports/grade-registers/{id} [get]
func (h *ReportHandler) GradeRegister(c *gin.Context) {
	id := c.Param("id")
	if format := requestedFormat(c); format != "" {
		doc, err := h.reports.RenderGradeRegister(c.Request.Context(), id, format)
		if err != nil {
			response.Error(c, err)
			return
		}
		sendDocument(c, doc)
		return
	}
	register, err := h.reports.GradeRegister(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, register, nil)
}

// SectionSheet godoc
// @Summary Final grade sheet (sábana) of a section
// @Tags Reports
// @Produce json
// @Param id path string true "Section ID"
// @Param schoolYearId query int true "School year ID"
// @Param format query string false "json (default), pdf, xlsx or csv"
// @Success 200 {object} response.Envelope
// @Router /reports/section-sheets/{id} [get]
func (h *ReportHandler) SectionSheet(c *gin.Context) {
	year, err := int64Query(c, "schoolYearId")
	if err != nil {
		response.Error(c, err)
		return
	}
	if year == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "schoolYearId is required"))
		return
	}
	id := c.Param("id")
	if format := requestedFormat(c); format != "" {
		doc, err := h.reports.RenderSectionSheet(c.Request.Context(), id, year, format)
		if err != nil {
			response.Error(c, err)
			return
		}
		sendDocument(c, doc)
		return
	}
	sheet, err := h.reports.SectionSheet(c.Request.Context(), id, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// EnrollmentReceipt godoc
// @Summary Enrollment receipt (comprobante de inscripción)
// @Tags Reports
// @Produce json
// @Produce application/pdf
// @Param id path string true "Enrollment ID"
// @Param format query string false "json (default), pdf, xlsx or csv"
// @Success 200 {object} response.Envelope
// @Router /reports/enrollment-receipts/{id} [get]
func (h *ReportHandler) EnrollmentReceipt(c *gin.Context) {
	id := c.Param("id")
	if format := requestedFormat(c); format != "" {
		doc, err := h.reports.RenderEnrollmentReceipt(c.Request.Context(), id, format)
		if err != nil {
			response.Error(c, err)
			return
		}
		sendDocument(c, doc)
		return
	}
	receipt, err := h.reports.EnrollmentReceipt(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, receipt, nil)
}

// StudentCertificate godoc
// @Summary Study certificate (constancia de estudio) of an enrolled student
// @Tags Reports
// @Produce application/pdf
// @Param id path string true "Enrollment ID"
// @Param format query string false "pdf, xlsx or csv; defaults to the configured format"
// @Success 200 {file} file
// @Router /reports/study-certificates/{id} [get]
func (h *ReportHandler) StudentCertificate(c *gin.Context) {
	doc, err := h.reports.RenderStudentCertificate(c.Request.Context(), c.Param("id"), requestedFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendDocument(c, doc)
}

// TeacherCertificate godoc
// @Summary Work certificate (constancia de trabajo) of a teacher
// @Tags Reports
// @Produce application/pdf
// @Param id path string true "Teacher ID"
// @Param schoolYearId query int true "School year ID"
// @Param format query string false "pdf, xlsx or csv; defaults to the configured format"
// @Success 200 {file} file
// @Router /reports/teacher-certificates/{id} [get]
func (h *ReportHandler) TeacherCertificate(c *gin.Context) {
	year, err := int64Query(c, "schoolYearId")
	if err != nil {
		response.Error(c, err)
		return
	}
	if year == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "schoolYearId is required"))
		return
	}
	doc, err := h.reports.RenderTeacherCertificate(c.Request.Context(), c.Param("id"), year, requestedFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendDocument(c, doc)
}
