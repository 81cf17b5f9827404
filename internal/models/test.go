package models

import (
	"time"

	"gorm.io/gorm"
)

type TestStatus string

const (
	TestDraft     TestStatus = "draft"
	TestActive    TestStatus = "active"
	TestPublished TestStatus = "published"
	TestCompleted TestStatus = "completed"
)

// IsAssignable reports whether the test may be assigned to or taken by users.
func (s TestStatus) IsAssignable() bool {
	return s == TestPublished
}

type Test struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Topic       string     `json:"topic" gorm:"not null;size:100;index" validate:"required,max=100"`
	Description *string    `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Duration    int        `json:"duration" gorm:"not null" validate:"required,min=5,max=300"` // minutes
	Status      TestStatus `json:"status" gorm:"default:draft;index" validate:"omitempty,oneof=draft active published completed"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions   []Question   `json:"questions,omitempty" gorm:"foreignKey:TestID"`
	Assignments []UserTest   `json:"-" gorm:"foreignKey:TestID"`
	Results     []TestResult `json:"-" gorm:"foreignKey:TestID"`
	Creator     User         `json:"creator" gorm:"foreignKey:CreatedBy"`

	// Computed fields (not stored)
	QuestionCount int     `json:"question_count" gorm:"-"`
	AttemptCount  int     `json:"attempt_count" gorm:"-"`
	AvgScore      float64 `json:"avg_score" gorm:"-"`
}

func (Test) TableName() string {
	return "tests"
}
