package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/veritest/assessment-platform/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type TestFilters struct {
	Status    *models.TestStatus `json:"status"`
	Topic     *string            `json:"topic"`
	CreatedBy *string            `json:"created_by"`
	Search    string             `json:"search"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
	SortBy    string             `json:"sort_by"`    // "created_at", "title", "topic"
	SortOrder string             `json:"sort_order"` // "asc", "desc"
}

type AssignmentFilters struct {
	Status *models.AssignmentStatus `json:"status"`
	UserID *string                  `json:"user_id"`
	TestID *uint                    `json:"test_id"`
	Limit  int                      `json:"limit"`
	Offset int                      `json:"offset"`
}

type ResultFilters struct {
	UserID    *string    `json:"user_id"`
	TestID    *uint      `json:"test_id"`
	MinScore  *int       `json:"min_score"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortBy    string     `json:"sort_by"`
	SortOrder string     `json:"sort_order"`
}

// ===== SHARED STATISTICS STRUCTS =====

type TestStats struct {
	AttemptCount      int                  `json:"attempt_count"`
	AverageScore      float64              `json:"average_score"`
	HighestScore      int                  `json:"highest_score"`
	LowestScore       int                  `json:"lowest_score"`
	AverageTimeTaken  int                  `json:"average_time_taken"`
	ViolationTotal    int                  `json:"violation_total"`
	ScoreDistribution []models.ScoreBucket `json:"score_distribution"`
}

type UserSummary struct {
	AssignedCount  int     `json:"assigned_count"`
	StartedCount   int     `json:"started_count"`
	CompletedCount int     `json:"completed_count"`
	AverageScore   float64 `json:"average_score"`
	BestScore      int     `json:"best_score"`
	TotalTimeTaken int     `json:"total_time_taken"`
}

type PlatformStats struct {
	TotalUsers       int64   `json:"total_users"`
	TotalTests       int64   `json:"total_tests"`
	PublishedTests   int64   `json:"published_tests"`
	TotalSubmissions int64   `json:"total_submissions"`
	AverageScore     float64 `json:"average_score"`
	ViolationTotal   int64   `json:"violation_total"`
}

type TopicPerformance struct {
	Topic        string  `json:"topic"`
	TestCount    int     `json:"test_count"`
	AttemptCount int     `json:"attempt_count"`
	AverageScore float64 `json:"average_score"`
}

// ===== REPOSITORY INTERFACES =====

type TestRepository interface {
	Create(ctx context.Context, tx *gorm.DB, test *models.Test) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error)
	GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error)
	Update(ctx context.Context, tx *gorm.DB, test *models.Test) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.TestStatus) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB, filters TestFilters) ([]*models.Test, int64, error)
	GetPublishedIDs(ctx context.Context, tx *gorm.DB) ([]uint, error)
	Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
	GetStats(ctx context.Context, tx *gorm.DB, id uint) (*TestStats, error)
}

type QuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	GetByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	CountByTest(ctx context.Context, tx *gorm.DB, testID uint) (int64, error)
}

type AssignmentRepository interface {
	// CreateIgnoreConflicts inserts assignment rows, silently skipping
	// any that collide with the (user_id, test_id) uniqueness
	// constraint. Returns the number of rows actually inserted.
	CreateIgnoreConflicts(ctx context.Context, tx *gorm.DB, assignments []*models.UserTest) (int64, error)

	GetByUserAndTest(ctx context.Context, tx *gorm.DB, userID string, testID uint) (*models.UserTest, error)
	GetTestIDsByUser(ctx context.Context, tx *gorm.DB, userID string) ([]uint, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters AssignmentFilters) ([]*models.UserTest, int64, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, userID string, testID uint, status models.AssignmentStatus) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

type ResultRepository interface {
	Create(ctx context.Context, tx *gorm.DB, result *models.TestResult) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TestResult, error)
	List(ctx context.Context, tx *gorm.DB, filters ResultFilters) ([]*models.TestResult, int64, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters ResultFilters) ([]*models.TestResult, int64, error)
	GetByTest(ctx context.Context, tx *gorm.DB, testID uint, filters ResultFilters) ([]*models.TestResult, int64, error)
}

// UserRepository is backed by the identity provider; the platform only
// reads user records and touches the last-login stamp.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, int64, error)
	ListIDs(ctx context.Context) ([]string, error)
	TouchLastLogin(ctx context.Context, id string) error
}

type DashboardRepository interface {
	GetUserSummary(ctx context.Context, tx *gorm.DB, userID string) (*UserSummary, error)
	GetPlatformStats(ctx context.Context, tx *gorm.DB) (*PlatformStats, error)
	GetTopicPerformance(ctx context.Context, tx *gorm.DB, limit int) ([]TopicPerformance, error)
	GetUserProgress(ctx context.Context, tx *gorm.DB, testID uint) ([]models.UserProgress, error)
}
