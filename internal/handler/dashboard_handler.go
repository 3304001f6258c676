package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulog/workload-api/internal/dto"
	"github.com/edulog/workload-api/internal/models"
	"github.com/edulog/workload-api/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context, period models.PeriodTag, actor *models.JWTClaims) (*dto.DashboardSummary, error)
}

// DashboardHandler serves the instructor workload dashboard.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(svc dashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Summary godoc
// @Summary Workload summary
// @Description Per-type activity counts and recent feed for a period
// @Tags Dashboard
// @Produce json
// @Param period query string false "Period tag" Enums(THIS_WEEK, LAST_WEEK, THIS_MONTH, LAST_MONTH)
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	period := models.PeriodTag(c.DefaultQuery("period", string(models.PeriodThisWeek)))
	summary, err := h.service.Summary(c.Request.Context(), period, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
