package services

import (
	"context"
	"time"

	"github.com/veritest/assessment-platform/internal/models"
	"github.com/veritest/assessment-platform/internal/proctoring"
	"github.com/veritest/assessment-platform/internal/repositories"
	"github.com/veritest/assessment-platform/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateTestRequest = validator.TestCreateRequest
type UpdateTestRequest = validator.TestUpdateRequest
type CreateQuestionRequest = validator.QuestionCreateRequest
type UpdateQuestionRequest = validator.QuestionUpdateRequest
type SubmitTestRequest = validator.SubmissionRequest
type ReconcileRequest = validator.ReconcileRequest

type TestResponse struct {
	*models.Test
	CanEdit bool `json:"can_edit"`
	CanTake bool `json:"can_take"`
}

type TestListResponse struct {
	Tests []*TestResponse `json:"tests"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
}

// TestForTaking is the user-facing view of a test: questions without
// their correct answers or explanations.
type TestForTaking struct {
	ID        uint                `json:"id"`
	Title     string              `json:"title"`
	Topic     string              `json:"topic"`
	Duration  int                 `json:"duration"`
	Questions []QuestionForTaking `json:"questions"`
}

type QuestionForTaking struct {
	ID      uint     `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

type ResultResponse struct {
	*models.TestResult
	TestTitle      string `json:"test_title,omitempty"`
	ViolationTotal int    `json:"violation_total"`
}

type ResultListResponse struct {
	Results []*ResultResponse `json:"results"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	Size    int               `json:"size"`
}

type AssignmentResponse struct {
	*models.UserTest
	TestTitle string `json:"test_title,omitempty"`
	TestTopic string `json:"test_topic,omitempty"`
}

// ReconcileReport describes what a reconciliation pass did.
type ReconcileReport struct {
	UserID       string    `json:"user_id"`
	Published    int       `json:"published_count"`
	Existing     int       `json:"existing_count"`
	Created      int64     `json:"created_count"`
	CreatedIDs   []uint    `json:"created_test_ids"`
	ReconciledAt time.Time `json:"reconciled_at"`
}

type UserDashboard struct {
	Summary       *repositories.UserSummary `json:"summary"`
	Pending       []*AssignmentResponse     `json:"pending_assignments"`
	RecentResults []*ResultResponse         `json:"recent_results"`
}

type AdminDashboard struct {
	Stats            *repositories.PlatformStats     `json:"stats"`
	TopicPerformance []repositories.TopicPerformance `json:"topic_performance"`
}

// ===== SERVICE INTERFACES =====

type TestService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateTestRequest, creatorID string) (*TestResponse, error)
	GetByID(ctx context.Context, id uint, userID string, isAdmin bool) (*TestResponse, error)
	GetForTaking(ctx context.Context, id uint, userID string) (*TestForTaking, error)
	Update(ctx context.Context, id uint, req *UpdateTestRequest, userID string) (*TestResponse, error)
	Delete(ctx context.Context, id uint, userID string) error

	// List operations
	List(ctx context.Context, filters repositories.TestFilters, userID string, isAdmin bool) (*TestListResponse, error)

	// Status management
	UpdateStatus(ctx context.Context, id uint, status models.TestStatus, userID string) error
	Publish(ctx context.Context, id uint, userID string) error

	// Statistics
	GetStats(ctx context.Context, id uint) (*repositories.TestStats, error)
}

type QuestionService interface {
	Create(ctx context.Context, testID uint, req *CreateQuestionRequest, userID string) (*models.Question, error)
	CreateBatch(ctx context.Context, testID uint, reqs []*CreateQuestionRequest, userID string) ([]*models.Question, error)
	GetByTest(ctx context.Context, testID uint) ([]models.Question, error)
	Update(ctx context.Context, id uint, req *UpdateQuestionRequest, userID string) (*models.Question, error)
	Delete(ctx context.Context, id uint, userID string) error
}

type AssignmentService interface {
	// Reconcile brings a user's assignments in line with the published
	// test set. Safe to call any number of times.
	Reconcile(ctx context.Context, userID string, req *ReconcileRequest) (*ReconcileReport, error)

	// FanOut assigns a newly published test to every known user.
	FanOut(ctx context.Context, testID uint) (int64, error)

	ListForUser(ctx context.Context, userID string, filters repositories.AssignmentFilters) ([]*AssignmentResponse, int64, error)
	Start(ctx context.Context, userID string, testID uint) error
}

type ResultService interface {
	// Record scores and persists one submission. The result row and the
	// assignment completion are written in a single transaction.
	Record(ctx context.Context, req *SubmitTestRequest, userID string) (*ResultResponse, error)

	GetByID(ctx context.Context, id uint, userID string, isAdmin bool) (*ResultResponse, error)
	ListForUser(ctx context.Context, userID string, filters repositories.ResultFilters) (*ResultListResponse, error)
	ListForTest(ctx context.Context, testID uint, filters repositories.ResultFilters) (*ResultListResponse, error)
}

type UserService interface {
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, int64, error)

	// Onboard makes sure a user who just registered or logged in has
	// every published test assigned, and stamps their last login.
	Onboard(ctx context.Context, userID string) (*ReconcileReport, error)
}

type DashboardService interface {
	GetUserDashboard(ctx context.Context, userID string) (*UserDashboard, error)
	GetAdminDashboard(ctx context.Context) (*AdminDashboard, error)
	GetTestProgress(ctx context.Context, testID uint) ([]models.UserProgress, error)
}

// ViolationReport is the monitor's decision for one reported event.
type ViolationReport struct {
	Action   proctoring.Action       `json:"action"`
	State    proctoring.MonitorState `json:"state"`
	Counters proctoring.Counters     `json:"counters"`
}

type ProctoringService interface {
	// StartSession resets the violation monitor for a test session.
	StartSession(userID string, testID uint)

	// ReportViolation applies one violation event and returns the
	// resulting action (warn, auto-submit or none).
	ReportViolation(ctx context.Context, userID string, testID uint, violation proctoring.ViolationType) (*ViolationReport, error)

	// EndSession discards the monitor once the session is over.
	EndSession(userID string, testID uint)
}

type ReportService interface {
	// ExportTestResults renders all results for a test as an xlsx
	// workbook and returns the serialized bytes.
	ExportTestResults(ctx context.Context, testID uint) ([]byte, string, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Test() TestService
	Question() QuestionService
	Assignment() AssignmentService
	Result() ResultService
	User() UserService
	Dashboard() DashboardService
	Report() ReportService
	Proctoring() ProctoringService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
