package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/liceo-academic-api/internal/service"
	"github.com/noah-isme/liceo-academic-api/pkg/response"
)

// SchoolYearHandler exposes school years and grade levels.
type SchoolYearHandler struct {
	years *service.SchoolYearService
}

// NewSchoolYearHandler constructs SchoolYearHandler.
func NewSchoolYearHandler(years *service.SchoolYearService) *SchoolYearHandler {
	return &SchoolYearHandler{years: years}
}

// List godoc
// @Summary List school years
// @Tags SchoolYears
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /school-years [get]
func (h *SchoolYearHandler) List(c *gin.Context) {
	years, err := h.years.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, years, nil)
}

// Current godoc
// @Summary Current school year
// @Description The most recently created school year
// @Tags SchoolYears
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /school-years/current [get]
func (h *SchoolYearHandler) Current(c *gin.Context) {
	year, err := h.years.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// Get godoc
// @Summary Get school year
// @Tags SchoolYears
// @Produce json
// @Param id path int true "School year ID"
// @Success 200 {object} response.Envelope
// @Router /school-years/{id} [get]
func (h *SchoolYearHandler) Get(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	year, err := h.years.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// Create godoc
// @Summary Create school year
// @Tags SchoolYears
// @Accept json
// @Produce json
// @Param payload body service.SchoolYearRequest true "School year payload"
// @Success 201 {object} response.Envelope
// @Router /school-years [post]
func (h *SchoolYearHandler) Create(c *gin.Context) {
	var req service.SchoolYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "school year"))
		return
	}
	year, err := h.years.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, year)
}

// Rename godoc
// @Summary Rename school year
// @Tags SchoolYears
// @Accept json
// @Produce json
// @Param id path int true "School year ID"
// @Param payload body service.SchoolYearRequest true "School year payload"
// @Success 200 {object} response.Envelope
// @Router /school-years/{id} [put]
func (h *SchoolYearHandler) Rename(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.SchoolYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "school year"))
		return
	}
	year, err := h.years.Rename(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// Delete godoc
// @Summary Delete school year
// @Tags SchoolYears
// @Param id path int true "School year ID"
// @Success 204
// @Router /school-years/{id} [delete]
func (h *SchoolYearHandler) Delete(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.years.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GradeLevels godoc
// @Summary List grade levels
// @Tags SchoolYears
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grade-levels [get]
func (h *SchoolYearHandler) GradeLevels(c *gin.Context) {
	levels, err := h.years.GradeLevels(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, levels, nil)
}
