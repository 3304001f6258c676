package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulog/workload-api/internal/dto"
	"github.com/edulog/workload-api/internal/models"
	"github.com/edulog/workload-api/internal/service"
	appErrors "github.com/edulog/workload-api/pkg/errors"
	"github.com/edulog/workload-api/pkg/response"
)

type activityService interface {
	Create(ctx context.Context, req dto.ActivityRequest, actor *models.JWTClaims) (*dto.ActivityResponse, error)
	Update(ctx context.Context, id string, req dto.ActivityRequest, actor *models.JWTClaims) (*dto.ActivityResponse, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ActivityResponse, error)
	List(ctx context.Context, query dto.ActivityListQuery, instructorScope string, actor *models.JWTClaims) ([]dto.ActivityResponse, *models.Pagination, error)
}

// ActivityHandler exposes activity record endpoints.
type ActivityHandler struct {
	service activityService
	metrics *service.MetricsService
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(svc activityService, metrics *service.MetricsService) *ActivityHandler {
	return &ActivityHandler{service: svc, metrics: metrics}
}

// Create godoc
// @Summary Log a work activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param payload body dto.ActivityRequest true "Activity payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /activities [post]
func (h *ActivityHandler) Create(c *gin.Context) {
	var req dto.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid activity payload"))
		return
	}

	res, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordActivityWrite("create", string(res.Type))
	response.Created(c, res)
}

// Update godoc
// @Summary Replace an activity record
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param payload body dto.ActivityRequest true "Activity payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /activities/{id} [put]
func (h *ActivityHandler) Update(c *gin.Context) {
	var req dto.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid activity payload"))
		return
	}

	res, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordActivityWrite("update", string(res.Type))
	response.JSON(c, http.StatusOK, res, nil)
}

// Delete godoc
// @Summary Delete an activity record
// @Tags Activities
// @Produce json
// @Param id path string true "Record ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /activities/{id} [delete]
func (h *ActivityHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordActivityWrite("delete", "")
	response.NoContent(c)
}

// Get godoc
// @Summary Fetch one activity record
// @Tags Activities
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /activities/{id} [get]
func (h *ActivityHandler) Get(c *gin.Context) {
	res, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// List godoc
// @Summary List activity records
// @Description Filter by type, course and inclusive date range
// @Tags Activities
// @Produce json
// @Param type query string false "Activity type"
// @Param course_id query string false "Course ID"
// @Param date_from query string false "Start date (YYYY-MM-DD)"
// @Param date_to query string false "End date (YYYY-MM-DD)"
// @Param instructor_id query string false "Instructor scope (admin only)"
// @Success 200 {object} response.Envelope
// @Router /activities [get]
func (h *ActivityHandler) List(c *gin.Context) {
	var query dto.ActivityListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid list query"))
		return
	}

	records, pagination, err := h.service.List(c.Request.Context(), query, c.Query("instructor_id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Schemas godoc
// @Summary Activity type schemas
// @Description Field definitions for every supported activity type
// @Tags Activities
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /activities/schemas [get]
func (h *ActivityHandler) Schemas(c *gin.Context) {
	response.JSON(c, http.StatusOK, models.AllActivitySchemas(), nil)
}
