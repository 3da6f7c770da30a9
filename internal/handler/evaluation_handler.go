package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/internal/service"
	"github.com/noah-isme/liceo-academic-api/pkg/response"
)

type evaluationService interface {
	List(ctx context.Context, subjectEnrollmentID string) ([]models.Evaluation, error)
	Record(ctx context.Context, req service.RecordEvaluationRequest) (*service.EvaluationResult, error)
	Update(ctx context.Context, id string, req service.UpdateEvaluationRequest) (*service.EvaluationResult, error)
	Delete(ctx context.Context, id string) (*service.EvaluationResult, error)
}

// EvaluationHandler exposes score capture.
type EvaluationHandler struct {
	evaluations evaluationService
}

// NewEvaluationHandler constructs EvaluationHandler.
func NewEvaluationHandler(evaluations evaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluations: evaluations}
}

// List godoc
// @Summary Evaluations of a subject enrollment
// @Tags Evaluations
// @Produce json
// @Param id path string true "Subject enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /subject-enrollments/{id}/evaluations [get]
func (h *EvaluationHandler) List(c *gin.Context) {
	items, err := h.evaluations.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Record godoc
// @Summary Record a period score
// @Description Periods 1-3 are ordinary, 4 is the remedial exam. Recording a period again replaces it. The final grade is recomputed.
// @Tags Evaluations
// @Accept json
// @Produce json
// @Param payload body service.RecordEvaluationRequest true "Evaluation payload"
// @Success 201 {object} response.Envelope
// @Router /evaluations [post]
func (h *EvaluationHandler) Record(c *gin.Context) {
	var req service.RecordEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "evaluation"))
		return
	}
	result, err := h.evaluations.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Update godoc
// @Summary Edit an evaluation
// @Tags Evaluations
// @Accept json
// @Produce json
// @Param id path string true "Evaluation ID"
// @Param payload body service.UpdateEvaluationRequest true "Evaluation payload"
// @Success 200 {object} response.Envelope
// @Router /evaluations/{id} [patch]
func (h *EvaluationHandler) Update(c *gin.Context) {
	var req service.UpdateEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "evaluation"))
		return
	}
	result, err := h.evaluations.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Delete an evaluation
// @Description Returns the recomputed subject enrollment
// @Tags Evaluations
// @Produce json
// @Param id path string true "Evaluation ID"
// @Success 200 {object} response.Envelope
// @Router /evaluations/{id} [delete]
func (h *EvaluationHandler) Delete(c *gin.Context) {
	result, err := h.evaluations.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
