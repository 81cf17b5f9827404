package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veritest/assessment-platform/internal/repositories"
	"github.com/veritest/assessment-platform/internal/services"
	"github.com/veritest/assessment-platform/internal/utils"
	"github.com/veritest/assessment-platform/internal/validator"
)

type ResultHandler struct {
	BaseHandler
	resultService     services.ResultService
	proctoringService services.ProctoringService
	validator         *validator.Validator
}

func NewResultHandler(
	resultService services.ResultService,
	proctoringService services.ProctoringService,
	validator *validator.Validator,
	logger utils.Logger,
) *ResultHandler {
	return &ResultHandler{
		BaseHandler:       NewBaseHandler(logger),
		resultService:     resultService,
		proctoringService: proctoringService,
		validator:         validator,
	}
}

// SubmitTest records a completed test submission
// @Summary Submit test
// @Description Scores the submission and completes the assignment in one transaction
// @Tags results
// @Accept json
// @Produce json
// @Param submission body services.SubmitTestRequest true "Submission data"
// @Success 201 {object} services.ResultResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /submissions [post]
func (h *ResultHandler) SubmitTest(c *gin.Context) {
	var req services.SubmitTestRequest
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

	result, err := h.resultService.Record(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	// The session is over once the submission is on record
	h.proctoringService.EndSession(userID, req.TestID)

	h.LogRequest(c, "Test submission recorded",
		"test_id", req.TestID, "user_id", userID, "score", result.Score)
	c.JSON(http.StatusCreated, result)
}

// GetResult retrieves a single result
// @Summary Get result
// @Description Users may only read their own results; admins may read any
// @Tags results
// @Produce json
// @Param id path int true "Result ID"
// @Success 200 {object} services.ResultResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /results/{id} [get]
func (h *ResultHandler) GetResult(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	result, err := h.resultService.GetByID(c.Request.Context(), id, userID, isAdmin(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListMyResults lists the caller's own results
// @Summary List own results
// @Tags results
// @Produce json
// @Param min_score query int false "Minimum score"
// @Param date_from query string false "RFC3339 lower bound"
// @Param date_to query string false "RFC3339 upper bound"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} services.ResultListResponse
// @Router /results [get]
func (h *ResultHandler) ListMyResults(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	results, err := h.resultService.ListForUser(c.Request.Context(), userID, parseResultFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// ListTestResults lists every result for one test
// @Summary List test results
// @Tags results
// @Produce json
// @Param id path int true "Test ID"
// @Success 200 {object} services.ResultListResponse
// @Failure 404 {object} ErrorResponse
// @Router /tests/{id}/results [get]
func (h *ResultHandler) ListTestResults(c *gin.Context) {
	testID := h.parseIDParam(c, "id")
	if testID == 0 {
		return
	}

	results, err := h.resultService.ListForTest(c.Request.Context(), testID, parseResultFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

func parseResultFilters(c *gin.Context) repositories.ResultFilters {
	filters := repositories.ResultFilters{
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw := c.Query("min_score"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			filters.MinScore = &v
		}
	}
	if raw := c.Query("date_from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.DateFrom = &t
		}
	}
	if raw := c.Query("date_to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.DateTo = &t
		}
	}
	filters.Limit, filters.Offset = parsePagination(c)
	return filters
}
