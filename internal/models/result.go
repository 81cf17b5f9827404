package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// ViolationCounters are the proctoring counters attached to a submission.
// They are advisory evidence, not an enforcement mechanism.
type ViolationCounters struct {
	TabSwitchAttempts int `json:"tab_switch_attempts"`
	NoFaceViolations  int `json:"no_face_violations"`
	MultipleFaces     int `json:"multiple_faces_violations"`
	FaceChanged       int `json:"face_changed_violations"`
}

func (v ViolationCounters) Total() int {
	return v.TabSwitchAttempts + v.NoFaceViolations + v.MultipleFaces + v.FaceChanged
}

// TestResult is the terminal fact of a completed submission. Rows are
// append-only: retakes create new rows, nothing updates an existing one.
type TestResult struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"not null;index;size:255"`
	TestID uint   `json:"test_id" gorm:"not null;index"`

	// Scoring
	Score        int `json:"score" gorm:"not null"` // 0..100
	CorrectCount int `json:"correct_count" gorm:"not null"`
	TotalCount   int `json:"total_count" gorm:"not null"`

	// Submitted answers: question id -> selected option index
	Answers datatypes.JSON `json:"answers" gorm:"type:jsonb"`

	// Timing
	TimeTaken   int        `json:"time_taken"` // seconds
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt time.Time  `json:"completed_at" gorm:"not null"`

	// Proctoring counters
	TabSwitchAttempts int `json:"tab_switch_attempts" gorm:"default:0"`
	NoFaceViolations  int `json:"no_face_violations" gorm:"default:0"`
	MultipleFaces     int `json:"multiple_faces_violations" gorm:"default:0"`
	FaceChanged       int `json:"face_changed_violations" gorm:"default:0"`

	ClientErrorLog *string `json:"client_error_log,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID"`
	Test Test `json:"test,omitempty" gorm:"foreignKey:TestID"`
}

func (TestResult) TableName() string {
	return "test_results"
}

// AnswerMap decodes the stored answers into question id -> option index.
func (r *TestResult) AnswerMap() (map[uint]int, error) {
	if len(r.Answers) == 0 {
		return map[uint]int{}, nil
	}
	var answers map[uint]int
	if err := json.Unmarshal(r.Answers, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

// Violations bundles the stored counters.
func (r *TestResult) Violations() ViolationCounters {
	return ViolationCounters{
		TabSwitchAttempts: r.TabSwitchAttempts,
		NoFaceViolations:  r.NoFaceViolations,
		MultipleFaces:     r.MultipleFaces,
		FaceChanged:       r.FaceChanged,
	}
}
