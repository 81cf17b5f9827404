package validator

import (
	"encoding/json"
	"time"

	"github.com/veritest/assessment-platform/internal/models"
)

// TestCreateRequest represents the request structure for creating tests
type TestCreateRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=200"`
	Topic       string  `json:"topic" validate:"required,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Duration    int     `json:"duration" validate:"required,test_duration"`
}

// TestUpdateRequest represents the request structure for updating tests
type TestUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Topic       *string `json:"topic" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Duration    *int    `json:"duration" validate:"omitempty,test_duration"`
}

// QuestionCreateRequest represents the request structure for creating questions
type QuestionCreateRequest struct {
	Text          string                 `json:"text" validate:"required,min=1,max=2000"`
	Options       []string               `json:"options" validate:"required,min=2,max=10,dive,required,max=500"`
	CorrectAnswer int                    `json:"correct_answer" validate:"min=0"`
	Difficulty    models.DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	Explanation   *string                `json:"explanation" validate:"omitempty,max=1000"`
}

// QuestionUpdateRequest represents the request structure for updating questions
type QuestionUpdateRequest struct {
	Text          *string                 `json:"text" validate:"omitempty,min=1,max=2000"`
	Options       []string                `json:"options" validate:"omitempty,min=2,max=10,dive,required,max=500"`
	CorrectAnswer *int                    `json:"correct_answer" validate:"omitempty,min=0"`
	Difficulty    *models.DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	Explanation   *string                 `json:"explanation" validate:"omitempty,max=1000"`
}

// SubmissionRequest carries one completed test submission.
type SubmissionRequest struct {
	TestID uint `json:"test_id" validate:"required"`

	// Raw answers object: question id -> selected option index.
	// Decoded by the scoring package; an empty object is a valid
	// (all-incorrect) submission, a missing field is not.
	Answers json.RawMessage `json:"answers" validate:"required"`

	TimeTaken int        `json:"time_taken" validate:"min=0"`
	StartedAt *time.Time `json:"started_at"`

	// Proctoring counters as observed client-side
	TabSwitchAttempts int `json:"tab_switch_attempts" validate:"min=0"`
	NoFaceViolations  int `json:"no_face_violations" validate:"min=0"`
	MultipleFaces     int `json:"multiple_faces_violations" validate:"min=0"`
	FaceChanged       int `json:"face_changed_violations" validate:"min=0"`

	ClientErrorLog *string `json:"client_error_log" validate:"omitempty,max=10000"`
}

// ReconcileRequest scopes an on-demand assignment repair.
type ReconcileRequest struct {
	// Optional explicit scope; empty means "all published tests"
	TestIDs []uint     `json:"test_ids"`
	DueDate *time.Time `json:"due_date"`
}
