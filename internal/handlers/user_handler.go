package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veritest/assessment-platform/internal/services"
	"github.com/veritest/assessment-platform/internal/utils"
)

type UserHandler struct {
	BaseHandler
	userService services.UserService
}

func NewUserHandler(userService services.UserService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
	}
}

// GetProfile returns the caller's own profile
// @Summary Get own profile
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Failure 404 {object} ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers lists known users
// @Summary List users
// @Tags users
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} SuccessResponse{data=[]models.User}
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	limit, offset := parsePagination(c)

	users, total, err := h.userService.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": total,
	})
}

// Onboard ensures the caller has every published test assigned
// @Summary Onboard user
// @Description Stamps the last login and backfills assignments for the caller
// @Tags users
// @Produce json
// @Success 200 {object} services.ReconcileReport
// @Failure 404 {object} ErrorResponse
// @Router /users/onboard [post]
func (h *UserHandler) Onboard(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	report, err := h.userService.Onboard(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
