package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/veritest/assessment-platform/internal/models"
	"github.com/veritest/assessment-platform/internal/repositories"
)

type dashboardPostgreSQL struct {
	db *gorm.DB
}

func NewDashboardPostgreSQL(db *gorm.DB) repositories.DashboardRepository {
	return &dashboardPostgreSQL{db: db}
}

func (d *dashboardPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return d.db
}

func (d *dashboardPostgreSQL) GetUserSummary(ctx context.Context, tx *gorm.DB, userID string) (*repositories.UserSummary, error) {
	db := d.getDB(tx)
	summary := &repositories.UserSummary{}

	row := db.WithContext(ctx).
		Model(&models.UserTest{}).
		Select(`COUNT(*),
			COUNT(*) FILTER (WHERE status = ?),
			COUNT(*) FILTER (WHERE status = ?)`,
			models.AssignmentStarted, models.AssignmentCompleted).
		Where("user_id = ?", userID).
		Row()
	if err := row.Scan(&summary.AssignedCount, &summary.StartedCount, &summary.CompletedCount); err != nil {
		return nil, fmt.Errorf("failed to aggregate assignments: %w", err)
	}

	row = db.WithContext(ctx).
		Model(&models.TestResult{}).
		Select("COALESCE(AVG(score), 0), COALESCE(MAX(score), 0), COALESCE(SUM(time_taken), 0)").
		Where("user_id = ?", userID).
		Row()
	if err := row.Scan(&summary.AverageScore, &summary.BestScore, &summary.TotalTimeTaken); err != nil {
		return nil, fmt.Errorf("failed to aggregate results: %w", err)
	}

	return summary, nil
}

func (d *dashboardPostgreSQL) GetPlatformStats(ctx context.Context, tx *gorm.DB) (*repositories.PlatformStats, error) {
	db := d.getDB(tx)
	stats := &repositories.PlatformStats{}

	if err := db.WithContext(ctx).
		Model(&models.UserTest{}).
		Distinct("user_id").
		Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).Model(&models.Test{}).Count(&stats.TotalTests).Error; err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).
		Model(&models.Test{}).
		Where("status = ?", models.TestPublished).
		Count(&stats.PublishedTests).Error; err != nil {
		return nil, err
	}

	row := db.WithContext(ctx).
		Model(&models.TestResult{}).
		Select(`COUNT(*),
			COALESCE(AVG(score), 0),
			COALESCE(SUM(tab_switch_attempts + no_face_violations + multiple_faces + face_changed), 0)`).
		Row()
	if err := row.Scan(&stats.TotalSubmissions, &stats.AverageScore, &stats.ViolationTotal); err != nil {
		return nil, fmt.Errorf("failed to aggregate submissions: %w", err)
	}

	return stats, nil
}

func (d *dashboardPostgreSQL) GetTopicPerformance(ctx context.Context, tx *gorm.DB, limit int) ([]repositories.TopicPerformance, error) {
	db := d.getDB(tx)
	if limit <= 0 {
		limit = 10
	}

	var rows []repositories.TopicPerformance
	err := db.WithContext(ctx).
		Model(&models.Test{}).
		Select(`tests.topic AS topic,
			COUNT(DISTINCT tests.id) AS test_count,
			COUNT(test_results.id) AS attempt_count,
			COALESCE(AVG(test_results.score), 0) AS average_score`).
		Joins("LEFT JOIN test_results ON test_results.test_id = tests.id").
		Where("tests.deleted_at IS NULL").
		Group("tests.topic").
		Order("attempt_count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate topic performance: %w", err)
	}
	return rows, nil
}

// GetUserProgress lists every user assigned to a test together with their
// result, if any. Users who have not submitted yet come back with a zero
// score and nil timestamps.
func (d *dashboardPostgreSQL) GetUserProgress(ctx context.Context, tx *gorm.DB, testID uint) ([]models.UserProgress, error) {
	db := d.getDB(tx)

	// Results are append-only, so a retaker has several rows; the lateral
	// join picks the latest submission per user.
	var rows []models.UserProgress
	err := db.WithContext(ctx).
		Model(&models.UserTest{}).
		Select(`user_tests.user_id AS user_id,
			user_tests.status AS status,
			COALESCE(latest.score, 0) AS score,
			COALESCE(latest.time_taken, 0) AS time_taken,
			latest.started_at AS started_at,
			latest.completed_at AS completed_at`).
		Joins(`LEFT JOIN LATERAL (
			SELECT score, time_taken, started_at, completed_at
			FROM test_results
			WHERE test_results.test_id = user_tests.test_id
			AND test_results.user_id = user_tests.user_id
			ORDER BY test_results.completed_at DESC
			LIMIT 1
		) latest ON true`).
		Where("user_tests.test_id = ?", testID).
		Order("user_tests.assigned_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load user progress: %w", err)
	}
	return rows, nil
}
