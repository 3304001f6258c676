package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulog/workload-api/internal/service"
	"github.com/edulog/workload-api/pkg/response"
)

// DirectoryHandler serves the course and instructor reference data.
type DirectoryHandler struct {
	service *service.DirectoryService
}

// NewDirectoryHandler constructs the handler.
func NewDirectoryHandler(svc *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{service: svc}
}

// Courses godoc
// @Summary List courses
// @Description Active courses visible to the caller
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *DirectoryHandler) Courses(c *gin.Context) {
	courses, err := h.service.Courses(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Instructors godoc
// @Summary List instructors
// @Description Active instructor accounts for report scoping
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /instructors [get]
func (h *DirectoryHandler) Instructors(c *gin.Context) {
	instructors, err := h.service.Instructors(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructors, nil)
}
