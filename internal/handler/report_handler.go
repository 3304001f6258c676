package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edulog/workload-api/internal/dto"
	"github.com/edulog/workload-api/internal/models"
	"github.com/edulog/workload-api/internal/service"
	appErrors "github.com/edulog/workload-api/pkg/errors"
	"github.com/edulog/workload-api/pkg/response"
)

type reportService interface {
	Submit(ctx context.Context, req dto.ReportRequest, actor *models.JWTClaims) (*dto.ReportJobResponse, error)
	GetStatus(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ReportStatusResponse, error)
	List(ctx context.Context, limit int, actor *models.JWTClaims) ([]dto.ReportStatusResponse, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
	ResolveDownload(ctx context.Context, token string) (*os.File, *models.ReportJob, error)
}

// ReportHandler exposes asynchronous report job endpoints.
type ReportHandler struct {
	service reportService
	metrics *service.MetricsService
}

// NewReportHandler constructs the handler.
func NewReportHandler(svc reportService, metrics *service.MetricsService) *ReportHandler {
	return &ReportHandler{service: svc, metrics: metrics}
}

// Submit godoc
// @Summary Submit a report job
// @Description Resolve the period, create a Pending job and queue generation
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.ReportRequest true "Report request"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Submit(c *gin.Context) {
	var req dto.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}

	res, err := h.service.Submit(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordReportJob("submitted")
	response.Accepted(c, res)
}

// List godoc
// @Summary List report jobs
// @Tags Reports
// @Produce json
// @Param limit query int false "Maximum rows"
// @Success 200 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	res, err := h.service.List(c.Request.Context(), limit, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Status godoc
// @Summary Report job status
// @Tags Reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Status(c *gin.Context) {
	res, err := h.service.GetStatus(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Delete godoc
// @Summary Delete a report job
// @Description Remove the job row and its stored artifact in any state
// @Tags Reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id} [delete]
func (h *ReportHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Download godoc
// @Summary Download a report artifact
// @Description Serve the file referenced by a signed download token
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports/download/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	file, job, err := h.service.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	size := int64(-1)
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}
	filename := filepath.Base(file.Name())
	contentType := "text/csv"
	if job.Format == "pdf" {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, size, contentType, file, nil)
}
