package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/internal/service"
	"github.com/noah-isme/liceo-academic-api/pkg/response"
)

type enrollmentService interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	Create(ctx context.Context, req service.CreateEnrollmentRequest) (*models.EnrollmentDetail, error)
	Update(ctx context.Context, id string, req service.UpdateEnrollmentRequest) (*models.EnrollmentDetail, error)
	Delete(ctx context.Context, id string) error
	AvailableSubjects(ctx context.Context, enrollmentID string) (*service.ProgressionPlan, error)
	EnrollSubjects(ctx context.Context, enrollmentID string, req service.EnrollSubjectsRequest) (*service.EnrollSubjectsResult, error)
	ListSubjects(ctx context.Context, enrollmentID string) ([]models.SubjectEnrollmentDetail, error)
	DropSubject(ctx context.Context, enrollmentID, subjectEnrollmentID string) error
	FailedSubjects(ctx context.Context, studentID string) ([]models.FailedSubject, error)
}

// EnrollmentHandler exposes enrollments and subject selection.
type EnrollmentHandler struct {
	enrollments enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param sectionId query string false "Filter by section"
// @Param schoolYearId query int false "Filter by school year"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	year, err := int64Query(c, "schoolYearId")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.EnrollmentFilter{
		StudentID:    c.Query("studentId"),
		SectionID:    c.Query("sectionId"),
		SchoolYearID: year,
	}
	filter.Page, filter.PageSize = pageQuery(c)
	items, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	item, err := h.enrollments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Enroll a student in a section for a school year
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.CreateEnrollmentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req service.CreateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "enrollment"))
		return
	}
	item, err := h.enrollments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Move an enrollment
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body service.UpdateEnrollmentRequest true "Enrollment payload"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [patch]
func (h *EnrollmentHandler) Update(c *gin.Context) {
	var req service.UpdateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "enrollment"))
		return
	}
	item, err := h.enrollments.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete enrollment
// @Tags Enrollments
// @Param id path string true "Enrollment ID"
// @Success 204
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	if err := h.enrollments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AvailableSubjects godoc
// @Summary Subjects the student may take under this enrollment
// @Description Resolves the progression path from the prior year's failures
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/available-subjects [get]
func (h *EnrollmentHandler) AvailableSubjects(c *gin.Context) {
	plan, err := h.enrollments.AvailableSubjects(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// ListSubjects godoc
// @Summary Subject enrollments of an enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/subjects [get]
func (h *EnrollmentHandler) ListSubjects(c *gin.Context) {
	items, err := h.enrollments.ListSubjects(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// EnrollSubjects godoc
// @Summary Enroll subjects
// @Description Inserts the allowed offerings and reports the rejected ones by reason. Answers 409 when none could be inserted.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body service.EnrollSubjectsRequest true "Offerings"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments/{id}/subjects [post]
func (h *EnrollmentHandler) EnrollSubjects(c *gin.Context) {
	var req service.EnrollSubjectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "subject enrollment"))
		return
	}
	result, err := h.enrollments.EnrollSubjects(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// DropSubject godoc
// @Summary Drop a subject enrollment
// @Tags Enrollments
// @Param id path string true "Enrollment ID"
// @Param subjectEnrollmentId path string true "Subject enrollment ID"
// @Success 204
// @Router /enrollments/{id}/subjects/{subjectEnrollmentId} [delete]
func (h *EnrollmentHandler) DropSubject(c *gin.Context) {
	if err := h.enrollments.DropSubject(c.Request.Context(), c.Param("id"), c.Param("subjectEnrollmentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// FailedSubjects godoc
// @Summary Subjects a student still owes
// @Tags Enrollments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/failed-subjects [get]
func (h *EnrollmentHandler) FailedSubjects(c *gin.Context) {
	items, err := h.enrollments.FailedSubjects(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
