package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/internal/service"
	"github.com/noah-isme/liceo-academic-api/pkg/response"
)

// TeacherAssignmentHandler exposes teacher-of-record assignments.
type TeacherAssignmentHandler struct {
	assignments *service.TeacherAssignmentService
}

// NewTeacherAssignmentHandler constructs TeacherAssignmentHandler.
func NewTeacherAssignmentHandler(assignments *service.TeacherAssignmentService) *TeacherAssignmentHandler {
	return &TeacherAssignmentHandler{assignments: assignments}
}

// List godoc
// @Summary List teacher assignments
// @Tags TeacherAssignments
// @Produce json
// @Param teacherId query string false "Filter by teacher"
// @Param sectionId query string false "Filter by section"
// @Param schoolYearId query int false "Filter by school year"
// @Success 200 {object} response.Envelope
// @Router /teacher-assignments [get]
func (h *TeacherAssignmentHandler) List(c *gin.Context) {
	year, err := int64Query(c, "schoolYearId")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.TeacherAssignmentFilter{
		TeacherID:    c.Query("teacherId"),
		SectionID:    c.Query("sectionId"),
		SchoolYearID: year,
	}
	items, err := h.assignments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get teacher assignment
// @Tags TeacherAssignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /teacher-assignments/{id} [get]
func (h *TeacherAssignmentHandler) Get(c *gin.Context) {
	item, err := h.assignments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Assign godoc
// @Summary Assign a teacher to an offering in one or more sections
// @Description All sections are assigned or none is
// @Tags TeacherAssignments
// @Accept json
// @Produce json
// @Param payload body service.AssignTeacherRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /teacher-assignments [post]
func (h *TeacherAssignmentHandler) Assign(c *gin.Context) {
	var req service.AssignTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "assignment"))
		return
	}
	created, err := h.assignments.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Delete godoc
// @Summary Remove teacher assignment
// @Tags TeacherAssignments
// @Param id path string true "Assignment ID"
// @Success 204
// @Router /teacher-assignments/{id} [delete]
func (h *TeacherAssignmentHandler) Delete(c *gin.Context) {
	if err := h.assignments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
