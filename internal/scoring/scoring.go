// Package scoring computes percentage scores for submitted answer sets.
// Scoring is pure: no store access, no side effects, deterministic.
package scoring

import (
	"encoding/json"
	"errors"

	"github.com/veritest/assessment-platform/internal/models"
)

// ErrEmptyAnswerKey is returned when a test has no questions to score
// against. Publication validation should prevent this upstream.
var ErrEmptyAnswerKey = errors.New("scoring: empty answer key")

// Key maps question id to the correct option index. Keys are immutable
// once built; callers load one per test.
type Key map[uint]int

// KeyFromQuestions builds an answer key from a test's question rows.
func KeyFromQuestions(questions []models.Question) Key {
	key := make(Key, len(questions))
	for _, q := range questions {
		key[q.ID] = q.CorrectAnswer
	}
	return key
}

// Result is the outcome of scoring one submission against a key.
type Result struct {
	Score        int           `json:"score"` // 0..100, round half-up
	CorrectCount int           `json:"correct_count"`
	Total        int           `json:"total"`
	Correct      map[uint]bool `json:"correct"` // per-question correctness
}

// Score grades submitted answers against the key. Every question in the
// key is counted; a missing or out-of-range submission is simply wrong,
// never an error. Answers for questions outside the key are ignored.
func Score(answers map[uint]int, key Key) (Result, error) {
	total := len(key)
	if total == 0 {
		return Result{}, ErrEmptyAnswerKey
	}

	correct := make(map[uint]bool, total)
	correctCount := 0
	for questionID, correctIndex := range key {
		selected, answered := answers[questionID]
		ok := answered && selected == correctIndex
		correct[questionID] = ok
		if ok {
			correctCount++
		}
	}

	return Result{
		Score:        roundPercent(correctCount, total),
		CorrectCount: correctCount,
		Total:        total,
		Correct:      correct,
	}, nil
}

// roundPercent computes round-half-up of 100*correct/total in integer
// arithmetic so results never depend on float formatting.
func roundPercent(correct, total int) int {
	return (200*correct + total) / (2 * total)
}

// DecodeAnswers parses a raw answers object ({"12": 3, ...}) into the
// map form Score expects. An empty payload is a valid empty submission.
func DecodeAnswers(raw json.RawMessage) (map[uint]int, error) {
	if len(raw) == 0 {
		return map[uint]int{}, nil
	}
	var answers map[uint]int
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, err
	}
	if answers == nil {
		answers = map[uint]int{}
	}
	return answers, nil
}
