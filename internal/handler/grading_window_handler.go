package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/liceo-academic-api/internal/service"
	"github.com/noah-isme/liceo-academic-api/pkg/response"
)

// GradingWindowHandler exposes grading window (corte) endpoints.
type GradingWindowHandler struct {
	windows *service.GradingWindowService
}

// NewGradingWindowHandler constructs GradingWindowHandler.
func NewGradingWindowHandler(windows *service.GradingWindowService) *GradingWindowHandler {
	return &GradingWindowHandler{windows: windows}
}

// List godoc
// @Summary List grading windows
// @Tags GradingWindows
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grading-windows [get]
func (h *GradingWindowHandler) List(c *gin.Context) {
	windows, err := h.windows.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, windows, nil)
}

// Get godoc
// @Summary Get grading window
// @Tags GradingWindows
// @Produce json
// @Param id path int true "Grading window ID"
// @Success 200 {object} response.Envelope
// @Router /grading-windows/{id} [get]
func (h *GradingWindowHandler) Get(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	window, err := h.windows.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, nil)
}

// Create godoc
// @Summary Create grading window
// @Tags GradingWindows
// @Accept json
// @Produce json
// @Param payload body service.CreateGradingWindowRequest true "Grading window payload"
// @Success 201 {object} response.Envelope
// @Router /grading-windows [post]
func (h *GradingWindowHandler) Create(c *gin.Context) {
	var req service.CreateGradingWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "grading window"))
		return
	}
	window, err := h.windows.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, window)
}

// Update godoc
// @Summary Update grading window
// @Tags GradingWindows
// @Accept json
// @Produce json
// @Param id path int true "Grading window ID"
// @Param payload body service.UpdateGradingWindowRequest true "Grading window payload"
// @Success 200 {object} response.Envelope
// @Router /grading-windows/{id} [patch]
func (h *GradingWindowHandler) Update(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateGradingWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "grading window"))
		return
	}
	window, err := h.windows.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, nil)
}

// Delete godoc
// @Summary Delete grading window
// @Tags GradingWindows
// @Param id path int true "Grading window ID"
// @Success 204
// @Router /grading-windows/{id} [delete]
func (h *GradingWindowHandler) Delete(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.windows.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
