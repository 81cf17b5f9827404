package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veritest/assessment-platform/internal/models"
	"github.com/veritest/assessment-platform/internal/repositories"
	"github.com/veritest/assessment-platform/internal/services"
	"github.com/veritest/assessment-platform/internal/utils"
	"github.com/veritest/assessment-platform/internal/validator"
)

type AssignmentHandler struct {
	BaseHandler
	assignmentService services.AssignmentService
	proctoringService services.ProctoringService
	validator         *validator.Validator
}

func NewAssignmentHandler(
	assignmentService services.AssignmentService,
	proctoringService services.ProctoringService,
	validator *validator.Validator,
	logger utils.Logger,
) *AssignmentHandler {
	return &AssignmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		assignmentService: assignmentService,
		proctoringService: proctoringService,
		validator:         validator,
	}
}

// ListMyAssignments lists the caller's assignments
// @Summary List own assignments
// @Tags assignments
// @Produce json
// @Param status query string false "Status filter (assigned, started, completed)"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} SuccessResponse{data=[]services.AssignmentResponse}
// @Router /assignments [get]
func (h *AssignmentHandler) ListMyAssignments(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	filters := repositories.AssignmentFilters{}
	if raw := c.Query("status"); raw != "" {
		status := models.AssignmentStatus(raw)
		filters.Status = &status
	}
	filters.Limit, filters.Offset = parsePagination(c)

	assignments, total, err := h.assignmentService.ListForUser(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assignments": assignments,
		"total":       total,
	})
}

// StartTest marks an assignment as started
// @Summary Start test
// @Description Moves the caller's assignment for the test into started state
// @Tags assignments
// @Param id path int true "Test ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /tests/{id}/start [post]
func (h *AssignmentHandler) StartTest(c *gin.Context) {
	testID := h.parseIDParam(c, "id")
	if testID == 0 {
		return
	}
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	if err := h.assignmentService.Start(c.Request.Context(), userID, testID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	// Starting (or re-entering) a test begins a fresh proctoring session
	h.proctoringService.StartSession(userID, testID)

	c.JSON(http.StatusOK, SuccessResponse{Message: "Test started"})
}

// ReconcileAssignments backfills missing assignments for a user
// @Summary Reconcile assignments
// @Description Assigns every published test the user does not already have
// @Tags assignments
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param scope body services.ReconcileRequest false "Optional test id scope"
// @Success 200 {object} services.ReconcileReport
// @Failure 404 {object} ErrorResponse
// @Router /users/{id}/assignments/reconcile [post]
func (h *AssignmentHandler) ReconcileAssignments(c *gin.Context) {
	targetID := c.Param("id")
	if targetID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid id parameter",
		})
		return
	}

	// The body is optional; an empty scope means all published tests.
	var req services.ReconcileRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid request payload",
				Details: err.Error(),
			})
			return
		}
	}

	report, err := h.assignmentService.Reconcile(c.Request.Context(), targetID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Assignments reconciled",
		"target_user_id", targetID, "created", report.Created)
	c.JSON(http.StatusOK, report)
}
