package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/veritest/assessment-platform/internal/cache"
	"github.com/veritest/assessment-platform/internal/models"
	"github.com/veritest/assessment-platform/internal/repositories"
)

type TestPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewTestPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.TestRepository {
	return &TestPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (t *TestPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return t.db
}

func (t *TestPostgreSQL) Create(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	db := t.getDB(tx)
	return db.WithContext(ctx).Create(test).Error
}

func (t *TestPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	db := t.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var test models.Test

	err := t.cacheManager.Test.CacheOrExecute(ctx, cacheKey, &test, cache.TestCacheConfig.TTL, func() (interface{}, error) {
		var dbTest models.Test
		if err := db.WithContext(ctx).First(&dbTest, id).Error; err != nil {
			return nil, err
		}
		return &dbTest, nil
	})

	if err != nil {
		return nil, err
	}
	return &test, nil
}

func (t *TestPostgreSQL) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	db := t.getDB(tx)
	var test models.Test
	if err := db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.id ASC")
		}).
		First(&test, id).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (t *TestPostgreSQL) Update(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	db := t.getDB(tx)
	if err := db.WithContext(ctx).Save(test).Error; err != nil {
		return err
	}
	cache.InvalidateTestCache(ctx, t.cacheManager, test.ID, test.CreatedBy)
	return nil
}

func (t *TestPostgreSQL) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.TestStatus) error {
	db := t.getDB(tx)
	res := db.WithContext(ctx).
		Model(&models.Test{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.SafeDelete(ctx, t.cacheManager.Test, fmt.Sprintf("id:%d", id))
	return nil
}

func (t *TestPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := t.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.Test{}, id).Error; err != nil {
		return err
	}
	cache.SafeDelete(ctx, t.cacheManager.Test, fmt.Sprintf("id:%d", id))
	return nil
}

func (t *TestPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	db := t.getDB(tx)
	var tests []*models.Test
	var total int64

	// apply filter first
	query := db.WithContext(ctx).Model(&models.Test{})
	query = t.helpers.ApplyTestFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = t.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&tests).Error; err != nil {
		return nil, 0, err
	}

	return tests, total, nil
}

func (t *TestPostgreSQL) GetPublishedIDs(ctx context.Context, tx *gorm.DB) ([]uint, error) {
	db := t.getDB(tx)
	var ids []uint
	err := db.WithContext(ctx).
		Model(&models.Test{}).
		Where("status = ?", models.TestPublished).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list published tests: %w", err)
	}
	return ids, nil
}

func (t *TestPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	db := t.getDB(tx)
	cacheKey := fmt.Sprintf("test:%d", id)
	var exists bool

	err := t.cacheManager.Exists.CacheOrExecute(ctx, cacheKey, &exists, cache.ExistsCacheConfig.TTL, func() (interface{}, error) {
		var count int64
		if err := db.WithContext(ctx).Model(&models.Test{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return nil, err
		}
		return count > 0, nil
	})

	return exists, err
}

func (t *TestPostgreSQL) GetStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.TestStats, error) {
	db := t.getDB(tx)
	stats := &repositories.TestStats{}

	row := db.WithContext(ctx).
		Model(&models.TestResult{}).
		Select(`COUNT(*),
			COALESCE(AVG(score), 0),
			COALESCE(MAX(score), 0),
			COALESCE(MIN(score), 0),
			COALESCE(AVG(time_taken), 0)::bigint,
			COALESCE(SUM(tab_switch_attempts + no_face_violations + multiple_faces + face_changed), 0)`).
		Where("test_id = ?", id).
		Row()
	if err := row.Scan(
		&stats.AttemptCount,
		&stats.AverageScore,
		&stats.HighestScore,
		&stats.LowestScore,
		&stats.AverageTimeTaken,
		&stats.ViolationTotal,
	); err != nil {
		return nil, fmt.Errorf("failed to aggregate test stats: %w", err)
	}

	// 20-point score buckets for the distribution chart
	rows, err := db.WithContext(ctx).
		Model(&models.TestResult{}).
		Select("LEAST(score / 20, 4) AS bucket, COUNT(*) AS count").
		Where("test_id = ?", id).
		Group("bucket").
		Order("bucket ASC").
		Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to load score distribution: %w", err)
	}
	defer rows.Close()

	labels := []string{"0-19", "20-39", "40-59", "60-79", "80-100"}
	counts := make(map[int]int, len(labels))
	for rows.Next() {
		var bucket, count int
		if err := rows.Scan(&bucket, &count); err != nil {
			return nil, err
		}
		counts[bucket] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, label := range labels {
		stats.ScoreDistribution = append(stats.ScoreDistribution, models.ScoreBucket{
			Range: label,
			Count: counts[i],
		})
	}

	return stats, nil
}
