package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jmagsino/shs-registrar-api/internal/service"
	appErrors "github.com/jmagsino/shs-registrar-api/pkg/errors"
	"github.com/jmagsino/shs-registrar-api/pkg/response"
)

// ReportHandler exposes registrar reporting endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Summary godoc
// @Summary Enrollment summary for a school year
// @Tags Reports
// @Produce json
// @Param schoolYearId query string true "School year"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	schoolYearID := c.Query("schoolYearId")
	if schoolYearID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "schoolYearId is required"))
		return
	}
	summary, err := h.reports.Summary(c.Request.Context(), schoolYearID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Pending godoc
// @Summary Pending applications by type
// @Tags Reports
// @Produce json
// @Param schoolYearId query string true "School year"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/pending [get]
func (h *ReportHandler) Pending(c *gin.Context) {
	schoolYearID := c.Query("schoolYearId")
	if schoolYearID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "schoolYearId is required"))
		return
	}
	counts, err := h.reports.PendingByType(c.Request.Context(), schoolYearID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}

// ExportSummary godoc
// @Summary Export the enrollment summary as CSV or PDF
// @Tags Reports
// @Produce json
// @Param schoolYearId query string true "School year"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/summary/export [post]
func (h *ReportHandler) ExportSummary(c *gin.Context) {
	schoolYearID := c.Query("schoolYearId")
	if schoolYearID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "schoolYearId is required"))
		return
	}
	export, err := h.reports.ExportSummary(c.Request.Context(), schoolYearID, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, export, nil)
}

// ExportRoster godoc
// @Summary Export a section roster as CSV
// @Tags Reports
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/sections/{id}/roster/export [post]
func (h *ReportHandler) ExportRoster(c *gin.Context) {
	export, err := h.reports.ExportRoster(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, export, nil)
}

// COR godoc
// @Summary Certificate of registration
// @Tags Reports
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/cor [get]
func (h *ReportHandler) COR(c *gin.Context) {
	cor, err := h.reports.COR(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cor, nil)
}

// ExportCOR godoc
// @Summary Export the certificate of registration as PDF
// @Tags Reports
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/cor/export [post]
func (h *ReportHandler) ExportCOR(c *gin.Context) {
	export, err := h.reports.ExportCOR(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, export, nil)
}

// Download godoc
// @Summary Download a signed export artifact
// @Tags Reports
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Router /reports/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	path, err := h.reports.OpenExport(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.File(path)
}
