package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/liceo-academic-api/internal/middleware"
	"github.com/noah-isme/liceo-academic-api/internal/models"
	appErrors "github.com/noah-isme/liceo-academic-api/pkg/errors"
	"github.com/noah-isme/liceo-academic-api/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context, schoolYearID int64) (*models.DashboardStats, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary godoc
// @Summary School year summary
// @Description Counts, students per grade level and progression outcomes. Defaults to the current school year.
// @Tags Dashboard
// @Produce json
// @Param schoolYearId query int false "School year ID"
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	year, err := int64Query(c, "schoolYearId")
	if err != nil {
		response.Error(c, err)
		return
	}
	stats, cacheHit, err := h.service.Summary(c.Request.Context(), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetMeta(c, "school_year_id", stats.SchoolYearID)
	response.JSON(c, http.StatusOK, stats, nil, middleware.ExtractMeta(c))
}
