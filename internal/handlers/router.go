package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veritest/assessment-platform/internal/config"
	"github.com/veritest/assessment-platform/internal/models"
	"github.com/veritest/assessment-platform/internal/repositories"
	"github.com/veritest/assessment-platform/internal/services"
	"github.com/veritest/assessment-platform/internal/utils"
	"github.com/veritest/assessment-platform/internal/validator"
)

type HandlerManager struct {
	serviceManager    services.ServiceManager
	testHandler       *TestHandler
	questionHandler   *QuestionHandler
	assignmentHandler *AssignmentHandler
	resultHandler     *ResultHandler
	userHandler       *UserHandler
	dashboardHandler  *DashboardHandler
	reportHandler     *ReportHandler
	proctoringHandler *ProctoringHandler
	authMiddleware    *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo, logger)

	return &HandlerManager{
		serviceManager:    serviceManager,
		testHandler:       NewTestHandler(serviceManager.Test(), validator, logger),
		questionHandler:   NewQuestionHandler(serviceManager.Question(), validator, logger),
		assignmentHandler: NewAssignmentHandler(serviceManager.Assignment(), serviceManager.Proctoring(), validator, logger),
		resultHandler:     NewResultHandler(serviceManager.Result(), serviceManager.Proctoring(), validator, logger),
		userHandler:       NewUserHandler(serviceManager.User(), logger),
		dashboardHandler:  NewDashboardHandler(serviceManager.Dashboard(), logger),
		reportHandler:     NewReportHandler(serviceManager.Report(), logger),
		proctoringHandler: NewProctoringHandler(serviceManager.Proctoring(), logger),
		authMiddleware:    authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)

	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		adminOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin)

		// Test routes
		tests := v1.Group("/tests")
		{
			// Create/modify tests - Admins only
			tests.POST("", adminOnly, hm.testHandler.CreateTest)
			tests.PUT("/:id", adminOnly, hm.testHandler.UpdateTest)
			tests.DELETE("/:id", adminOnly, hm.testHandler.DeleteTest)
			tests.PUT("/:id/status", adminOnly, hm.testHandler.UpdateTestStatus)
			tests.POST("/:id/publish", adminOnly, hm.testHandler.PublishTest)

			// View tests - all authenticated users
			tests.GET("", hm.testHandler.ListTests)
			tests.GET("/:id", hm.testHandler.GetTest)
			tests.GET("/:id/take", hm.testHandler.GetTestForTaking)
			tests.POST("/:id/start", hm.assignmentHandler.StartTest)
			tests.POST("/:id/violations", hm.proctoringHandler.ReportViolation)

			// Question management - Admins only
			tests.POST("/:id/questions", adminOnly, hm.questionHandler.CreateQuestion)
			tests.POST("/:id/questions/batch", adminOnly, hm.questionHandler.CreateQuestionBatch)
			tests.GET("/:id/questions", adminOnly, hm.questionHandler.ListQuestions)

			// Stats, results and reporting - Admins only
			tests.GET("/:id/stats", adminOnly, hm.testHandler.GetTestStats)
			tests.GET("/:id/results", adminOnly, hm.resultHandler.ListTestResults)
			tests.GET("/:id/progress", adminOnly, hm.dashboardHandler.GetTestProgress)
			tests.GET("/:id/results/export", adminOnly, hm.reportHandler.ExportTestResults)
		}

		// Question routes (addressed by question id)
		questions := v1.Group("/questions")
		{
			questions.PUT("/:id", adminOnly, hm.questionHandler.UpdateQuestion)
			questions.DELETE("/:id", adminOnly, hm.questionHandler.DeleteQuestion)
		}

		// Submission and result routes
		v1.POST("/submissions", hm.resultHandler.SubmitTest)
		results := v1.Group("/results")
		{
			results.GET("", hm.resultHandler.ListMyResults)
			results.GET("/:id", hm.resultHandler.GetResult)
		}

		// Assignment routes
		v1.GET("/assignments", hm.assignmentHandler.ListMyAssignments)

		// User routes
		users := v1.Group("/users")
		{
			users.GET("/me", hm.userHandler.GetProfile)
			users.POST("/onboard", hm.userHandler.Onboard)
			users.GET("", adminOnly, hm.userHandler.ListUsers)
			users.POST("/:id/assignments/reconcile", adminOnly, hm.assignmentHandler.ReconcileAssignments)
		}

		// Dashboard routes
		v1.GET("/dashboard", hm.dashboardHandler.GetUserDashboard)
		v1.GET("/admin/dashboard", adminOnly, hm.dashboardHandler.GetAdminDashboard)
	}
}

// HealthCheck reports the health of the service and its dependencies
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 503 {object} ErrorResponse
// @Router /health [get]
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Message: "Service unhealthy",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "ok"})
}
