package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/veritest/assessment-platform/internal/models"
	"github.com/veritest/assessment-platform/internal/repositories"
)

type AssignmentPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewAssignmentPostgreSQL(db *gorm.DB) repositories.AssignmentRepository {
	return &AssignmentPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (a *AssignmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

// CreateIgnoreConflicts inserts assignments with ON CONFLICT DO NOTHING on
// the (user_id, test_id) unique index, so a concurrent insert of the same
// pair never fails the batch. RowsAffected only counts rows actually written.
func (a *AssignmentPostgreSQL) CreateIgnoreConflicts(ctx context.Context, tx *gorm.DB, assignments []*models.UserTest) (int64, error) {
	if len(assignments) == 0 {
		return 0, nil
	}
	db := a.getDB(tx)

	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "test_id"}},
			DoNothing: true,
		}).
		Create(&assignments)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to create assignments: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (a *AssignmentPostgreSQL) GetByUserAndTest(ctx context.Context, tx *gorm.DB, userID string, testID uint) (*models.UserTest, error) {
	db := a.getDB(tx)
	var assignment models.UserTest
	if err := db.WithContext(ctx).
		Where("user_id = ? AND test_id = ?", userID, testID).
		First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (a *AssignmentPostgreSQL) GetTestIDsByUser(ctx context.Context, tx *gorm.DB, userID string) ([]uint, error) {
	db := a.getDB(tx)
	var ids []uint
	err := db.WithContext(ctx).
		Model(&models.UserTest{}).
		Where("user_id = ?", userID).
		Order("test_id ASC").
		Pluck("test_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned tests: %w", err)
	}
	return ids, nil
}

func (a *AssignmentPostgreSQL) GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.AssignmentFilters) ([]*models.UserTest, int64, error) {
	db := a.getDB(tx)
	var assignments []*models.UserTest
	var total int64

	query := db.WithContext(ctx).Model(&models.UserTest{}).Where("user_id = ?", userID)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.TestID != nil {
		query = query.Where("test_id = ?", *filters.TestID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("assigned_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Preload("Test").Find(&assignments).Error; err != nil {
		return nil, 0, err
	}

	return assignments, total, nil
}

func (a *AssignmentPostgreSQL) UpdateStatus(ctx context.Context, tx *gorm.DB, userID string, testID uint, status models.AssignmentStatus) error {
	db := a.getDB(tx)
	res := db.WithContext(ctx).
		Model(&models.UserTest{}).
		Where("user_id = ? AND test_id = ?", userID, testID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (a *AssignmentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := a.getDB(tx)
	return db.WithContext(ctx).Delete(&models.UserTest{}, id).Error
}
