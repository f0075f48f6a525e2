package handler

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/kjebali/stagehub-api/internal/dto"
	"github.com/kjebali/stagehub-api/internal/models"
	"github.com/kjebali/stagehub-api/internal/service"
	appErrors "github.com/kjebali/stagehub-api/pkg/errors"
	"github.com/kjebali/stagehub-api/pkg/response"
)

// ReportHandler exposes reporting and export endpoints.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Summary godoc
// @Summary Aggregate request counts
// @Tags Reports
// @Produce json
// @Param month query string false "Month filter (YYYY-MM)"
// @Param department query string false "Department filter"
// @Success 200 {object} response.Envelope
// @Router /reports/requests [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	query := dto.SummaryQuery{
		Month:      c.Query("month"),
		Department: c.Query("department"),
	}
	summary, err := h.service.Summary(c.Request.Context(), claimsFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Export godoc
// @Summary Queue an asynchronous summary export
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.ExportRequest true "Export parameters"
// @Success 202 {object} response.Envelope
// @Router /reports/requests/export [post]
func (h *ReportHandler) Export(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid export payload"))
		return
	}
	job, err := h.service.Export(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Job godoc
// @Summary Get export job state
// @Tags Reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /reports/jobs/{id} [get]
func (h *ReportHandler) Job(c *gin.Context) {
	job, err := h.service.Job(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a completed export via signed token
// @Tags Reports
// @Param token path string true "Signed download token"
// @Success 200
// @Router /reports/download/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	file, job, err := h.service.Download(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export file"))
		return
	}
	mimeType := "text/csv"
	if job.Format == models.ReportFormatPDF {
		mimeType = "application/pdf"
	}
	filename := filepath.Base(job.FilePath)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, stat.Size(), mimeType, file, nil)
}
