package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veritest/assessment-platform/internal/proctoring"
	"github.com/veritest/assessment-platform/internal/services"
	"github.com/veritest/assessment-platform/internal/utils"
)

type ProctoringHandler struct {
	BaseHandler
	proctoringService services.ProctoringService
}

func NewProctoringHandler(proctoringService services.ProctoringService, logger utils.Logger) *ProctoringHandler {
	return &ProctoringHandler{
		BaseHandler:       NewBaseHandler(logger),
		proctoringService: proctoringService,
	}
}

type violationRequest struct {
	Type proctoring.ViolationType `json:"type" binding:"required"`
}

// ReportViolation reports one proctoring violation for a running session
// @Summary Report violation
// @Description Applies a violation event to the session monitor and returns the decision
// @Tags proctoring
// @Accept json
// @Produce json
// @Param id path int true "Test ID"
// @Param violation body handlers.violationRequest true "Violation event"
// @Success 200 {object} services.ViolationReport
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /tests/{id}/violations [post]
func (h *ProctoringHandler) ReportViolation(c *gin.Context) {
	testID := h.parseIDParam(c, "id")
	if testID == 0 {
		return
	}

	var req violationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	report, err := h.proctoringService.ReportViolation(c.Request.Context(), userID, testID, req.Type)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
