package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type DifficultyLevel string

const (
	DifficultyEasy         DifficultyLevel = "easy"
	DifficultyIntermediate DifficultyLevel = "intermediate"
	DifficultyHard         DifficultyLevel = "hard"
)

type Question struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	TestID uint   `json:"test_id" gorm:"not null;index"`
	Text   string `json:"text" gorm:"type:text;not null" validate:"required"`

	// Ordered option strings stored as JSONB
	Options datatypes.JSON `json:"options" gorm:"type:jsonb;not null"`

	// 0-based index into Options
	CorrectAnswer int `json:"correct_answer" gorm:"not null"`

	Difficulty  DifficultyLevel `json:"difficulty" gorm:"default:intermediate;index"`
	Explanation *string         `json:"explanation" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Test Test `json:"-" gorm:"foreignKey:TestID"`
}

func (Question) TableName() string {
	return "questions"
}

// OptionList decodes the stored option strings.
func (q *Question) OptionList() ([]string, error) {
	var options []string
	if err := json.Unmarshal(q.Options, &options); err != nil {
		return nil, err
	}
	return options, nil
}
