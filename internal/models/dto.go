package models

import "time"

// ===== STATISTICS & ANALYTICS DTOS =====

type ScoreBucket struct {
	Range string `json:"range"` // "0-19", "20-39", etc.
	Count int    `json:"count"`
}

type UserProgress struct {
	UserID         string     `json:"user_id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	Status         string     `json:"status"`
	Score          int        `json:"score"`
	TimeTaken      int        `json:"time_taken"`
	StartedAt      *time.Time `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	ViolationCount int        `json:"violation_count"`
}
