package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veritest/assessment-platform/internal/services"
	"github.com/veritest/assessment-platform/internal/utils"
)

type DashboardHandler struct {
	BaseHandler
	dashboardService services.DashboardService
}

func NewDashboardHandler(dashboardService services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler:      NewBaseHandler(logger),
		dashboardService: dashboardService,
	}
}

// GetUserDashboard returns the caller's dashboard
// @Summary Get user dashboard
// @Description Summary counters, pending assignments and recent results
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.UserDashboard
// @Router /dashboard [get]
func (h *DashboardHandler) GetUserDashboard(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	dashboard, err := h.dashboardService.GetUserDashboard(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetAdminDashboard returns platform-wide statistics
// @Summary Get admin dashboard
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.AdminDashboard
// @Router /admin/dashboard [get]
func (h *DashboardHandler) GetAdminDashboard(c *gin.Context) {
	dashboard, err := h.dashboardService.GetAdminDashboard(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetTestProgress returns per-user progress for a test
// @Summary Get test progress
// @Description One row per assigned user with their assignment state and score
// @Tags dashboard
// @Produce json
// @Param id path int true "Test ID"
// @Success 200 {array} models.UserProgress
// @Failure 404 {object} ErrorResponse
// @Router /tests/{id}/progress [get]
func (h *DashboardHandler) GetTestProgress(c *gin.Context) {
	testID := h.parseIDParam(c, "id")
	if testID == 0 {
		return
	}

	progress, err := h.dashboardService.GetTestProgress(c.Request.Context(), testID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}
