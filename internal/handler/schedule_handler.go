package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jmagsino/shs-registrar-api/internal/models"
	"github.com/jmagsino/shs-registrar-api/internal/service"
	appErrors "github.com/jmagsino/shs-registrar-api/pkg/errors"
	"github.com/jmagsino/shs-registrar-api/pkg/response"
)

// ScheduleHandler exposes schedule slot endpoints.
type ScheduleHandler struct {
	schedules *service.ScheduleService
}

// NewScheduleHandler constructs ScheduleHandler.
func NewScheduleHandler(schedules *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// List godoc
// @Summary List schedule slots
// @Tags Schedules
// @Produce json
// @Param sectionId query string false "Filter by section"
// @Param subjectId query string false "Filter by subject"
// @Param facultyId query string false "Filter by faculty"
// @Param schoolYearId query string false "Filter by school year"
// @Param semester query string false "Filter by semester"
// @Param day query string false "Filter by day of week"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	var filter models.ScheduleSlotFilter
	filter.SectionID = c.Query("sectionId")
	filter.SubjectID = c.Query("subjectId")
	filter.FacultyID = c.Query("facultyId")
	filter.SchoolYearID = c.Query("schoolYearId")
	filter.Semester = c.Query("semester")
	filter.DayOfWeek = c.Query("day")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	slots, pagination, err := h.schedules.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, pagination)
}

// Create godoc
// @Summary Create schedule slot
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.ScheduleSlotRequest true "Slot payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req service.ScheduleSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	slot, err := h.schedules.Create(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Created(c, slot)
}

// Update godoc
// @Summary Update schedule slot
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Param payload body service.ScheduleSlotRequest true "Slot payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	var req service.ScheduleSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	slot, err := h.schedules.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// respondError surfaces faculty conflicts as a 409 carrying the colliding
// slot so schedulers can resolve it without a second lookup.
func (h *ScheduleHandler) respondError(c *gin.Context, err error) {
	var conflict *models.ScheduleConflictError
	if errors.As(err, &conflict) {
		appErr := appErrors.New("SCHEDULE_CONFLICT", http.StatusConflict, conflict.Message)
		c.JSON(http.StatusConflict, response.Envelope{
			Error: appErr,
			Meta:  map[string]interface{}{"conflict": conflict.Conflict},
		})
		return
	}
	response.Error(c, err)
}
