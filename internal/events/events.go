package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	Source  = "assessment-platform"
	Version = "1.0"
)

// Event types carried on the platform topic.
const (
	TypeTestPublished  = "test.published"
	TypeResultRecorded = "result.recorded"
	TypeUserRegistered = "user.registered"
)

// Event is the envelope every published message is wrapped in.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an envelope around a payload.
func NewEvent(eventType string, data interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    Source,
		Version:   Version,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// TestPublishedEvent is emitted when an admin publishes a test. Consumers
// (including this service's own assignment fan-out) react to it.
type TestPublishedEvent struct {
	TestID        uint   `json:"test_id"`
	Title         string `json:"title"`
	Topic         string `json:"topic"`
	PublishedBy   string `json:"published_by"`
	QuestionCount int    `json:"question_count"`
}

// ResultRecordedEvent is emitted after a submission has been scored and
// stored.
type ResultRecordedEvent struct {
	ResultID       uint   `json:"result_id"`
	UserID         string `json:"user_id"`
	TestID         uint   `json:"test_id"`
	Score          int    `json:"score"`
	ViolationTotal int    `json:"violation_total"`
}

// UserRegisteredEvent is emitted when a new user registers and receives
// their initial assignments.
type UserRegisteredEvent struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	AssignedTests int    `json:"assigned_tests"`
}
