package models

import "time"

type AssignmentStatus string

const (
	AssignmentAssigned  AssignmentStatus = "assigned"
	AssignmentStarted   AssignmentStatus = "started"
	AssignmentCompleted AssignmentStatus = "completed"
)

// UserTest links a user to a test they are expected to take.
// At most one row exists per (user, test) pair; the reconciler relies on
// the uniqueness constraint to stay idempotent under concurrent runs.
type UserTest struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_user_test"`
	TestID uint   `json:"test_id" gorm:"not null;uniqueIndex:idx_user_test"`

	Status     AssignmentStatus `json:"status" gorm:"default:assigned;index"`
	AssignedAt time.Time        `json:"assigned_at" gorm:"not null"`
	DueDate    *time.Time       `json:"due_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID"`
	Test Test `json:"test,omitempty" gorm:"foreignKey:TestID"`
}

func (UserTest) TableName() string {
	return "user_tests"
}
