package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jmagsino/shs-registrar-api/internal/service"
	appErrors "github.com/jmagsino/shs-registrar-api/pkg/errors"
	"github.com/jmagsino/shs-registrar-api/pkg/response"
)

// TransfereeHandler exposes transferee evaluation endpoints.
type TransfereeHandler struct {
	transferees *service.TransfereeService
}

// NewTransfereeHandler constructs TransfereeHandler.
func NewTransfereeHandler(transferees *service.TransfereeService) *TransfereeHandler {
	return &TransfereeHandler{transferees: transferees}
}

// Get godoc
// @Summary Get transferee evaluation state
// @Tags Transferees
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/evaluation [get]
func (h *TransfereeHandler) Get(c *gin.Context) {
	detail, err := h.transferees.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Evaluate godoc
// @Summary Evaluate transferee credentials
// @Tags Transferees
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body service.EvaluateTransfereeRequest true "Evaluation payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/evaluate [post]
func (h *TransfereeHandler) Evaluate(c *gin.Context) {
	var req service.EvaluateTransfereeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.transferees.Evaluate(c.Request.Context(), c.Param("id"), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}
