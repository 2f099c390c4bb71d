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

// CatalogHandler exposes strand and subject reference data.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListStrands godoc
// @Summary List strands
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /strands [get]
func (h *CatalogHandler) ListStrands(c *gin.Context) {
	strands, err := h.catalog.ListStrands(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, strands, nil)
}

// CreateStrand godoc
// @Summary Create strand
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CreateStrandRequest true "Strand payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /strands [post]
func (h *CatalogHandler) CreateStrand(c *gin.Context) {
	var req service.CreateStrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	strand, err := h.catalog.CreateStrand(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, strand)
}

// ListSubjects godoc
// @Summary List subjects
// @Tags Catalog
// @Produce json
// @Param strandId query string false "Filter by strand"
// @Param gradeLevel query int false "Filter by grade level"
// @Param semester query string false "Filter by semester"
// @Param search query string false "Search by code or name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	var filter models.SubjectFilter
	filter.StrandID = c.Query("strandId")
	filter.Semester = c.Query("semester")
	filter.Search = c.Query("search")
	if grade, err := strconv.Atoi(c.Query("gradeLevel")); err == nil {
		filter.GradeLevel = grade
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	subjects, pagination, err := h.catalog.ListSubjects(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, pagination)
}

// CreateSubject godoc
// @Summary Create subject
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CreateSubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /subjects [post]
func (h *CatalogHandler) CreateSubject(c *gin.Context) {
	var req service.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subject, err := h.catalog.CreateSubject(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}
