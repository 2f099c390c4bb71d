package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jmagsino/shs-registrar-api/internal/models"
	"github.com/jmagsino/shs-registrar-api/internal/service"
	appErrors "github.com/jmagsino/shs-registrar-api/pkg/errors"
	"github.com/jmagsino/shs-registrar-api/pkg/response"
)

// GradeHandler exposes grade recording endpoints.
type GradeHandler struct {
	progression *service.ProgressionService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(progression *service.ProgressionService) *GradeHandler {
	return &GradeHandler{progression: progression}
}

// List godoc
// @Summary List grades
// @Tags Grades
// @Produce json
// @Param enrollmentId query string false "Filter by enrollment"
// @Param subjectId query string false "Filter by subject"
// @Param semester query string false "Filter by semester"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	filter := models.GradeFilter{
		EnrollmentID: c.Query("enrollmentId"),
		SubjectID:    c.Query("subjectId"),
		Semester:     c.Query("semester"),
	}
	grades, err := h.progression.ListGrades(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

// Upsert godoc
// @Summary Record quarter grades
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.UpsertGradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /grades [put]
func (h *GradeHandler) Upsert(c *gin.Context) {
	var req service.UpsertGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.progression.UpsertGrade(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// Approve godoc
// @Summary Approve all grades of an enrollment
// @Tags Grades
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/grades/approve [post]
func (h *GradeHandler) Approve(c *gin.Context) {
	if err := h.progression.ApproveGrades(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "approved"}, nil)
}
