package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduattend-api/internal/middleware"
	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/service"
	appErrors "github.com/noah-isme/eduattend-api/pkg/errors"
	"github.com/noah-isme/eduattend-api/pkg/response"
)

type dashboardService interface {
	Parent(ctx context.Context, actor service.Actor) (*models.ParentDashboard, bool, error)
	Teacher(ctx context.Context, actor service.Actor) (*models.TeacherDashboard, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Parent godoc
// @Summary Parent dashboard
// @Description Children with derived attendance, upcoming assignments and unread counts
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /parent/dashboard [get]
func (h *DashboardHandler) Parent(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	a, ok := actor(c)
	if !ok {
		return
	}
	data, cacheHit, err := h.service.Parent(c.Request.Context(), a)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, data, nil, middleware.ExtractMeta(c))
}

// Teacher godoc
// @Summary Teacher dashboard
// @Description Today's per-class attendance overview and unread counts
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/dashboard [get]
func (h *DashboardHandler) Teacher(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	a, ok := actor(c)
	if !ok {
		return
	}
	data, cacheHit, err := h.service.Teacher(c.Request.Context(), a)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, data, nil, middleware.ExtractMeta(c))
}
