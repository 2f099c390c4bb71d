package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jmagsino/shs-registrar-api/internal/models"
	"github.com/jmagsino/shs-registrar-api/internal/service"
	appErrors "github.com/jmagsino/shs-registrar-api/pkg/errors"
	"github.com/jmagsino/shs-registrar-api/pkg/response"
)

// SchoolYearHandler exposes school year administration endpoints.
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
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /school-years [get]
func (h *SchoolYearHandler) List(c *gin.Context) {
	var filter models.SchoolYearFilter
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.IsActive = &active
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	years, pagination, err := h.years.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, years, pagination)
}

// Active godoc
// @Summary Get the active school year
// @Tags SchoolYears
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /school-years/active [get]
func (h *SchoolYearHandler) Active(c *gin.Context) {
	year, err := h.years.Active(c.Request.Context())
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
// @Param payload body service.CreateSchoolYearRequest true "School year payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /school-years [post]
func (h *SchoolYearHandler) Create(c *gin.Context) {
	var req service.CreateSchoolYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	year, err := h.years.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, year)
}

// Activate godoc
// @Summary Activate school year
// @Tags SchoolYears
// @Produce json
// @Param id path string true "School year ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /school-years/{id}/activate [post]
func (h *SchoolYearHandler) Activate(c *gin.Context) {
	year, err := h.years.Activate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// SetEnrollmentOpen godoc
// @Summary Open or close the enrollment window
// @Tags SchoolYears
// @Accept json
// @Produce json
// @Param id path string true "School year ID"
// @Param payload body handler.EnrollmentWindowRequest true "Window payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /school-years/{id}/enrollment-window [put]
func (h *SchoolYearHandler) SetEnrollmentOpen(c *gin.Context) {
	var req EnrollmentWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	year, err := h.years.SetEnrollmentOpen(c.Request.Context(), c.Param("id"), req.Open)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// EnrollmentWindowRequest toggles the submission window.
type EnrollmentWindowRequest struct {
	Open bool `json:"open"`
}
