package validator

import (
	"fmt"
	"strings"

	"github.com/veritest/assessment-platform/internal/models"
)

// BusinessValidator handles domain rules that struct tags cannot express.
type BusinessValidator struct {
	validator *Validator
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator(v *Validator) *BusinessValidator {
	return &BusinessValidator{validator: v}
}

// ValidateQuestionCreate validates question creation, including that the
// correct-answer index points into the option list.
func (bv *BusinessValidator) ValidateQuestionCreate(req *QuestionCreateRequest) ValidationErrors {
	errors := bv.validator.ValidateStruct(req)

	if req.CorrectAnswer >= len(req.Options) {
		errors = append(errors, ValidationError{
			Field:   "correct_answer",
			Message: fmt.Sprintf("must index into the %d options", len(req.Options)),
			Value:   req.CorrectAnswer,
			Rule:    "business_logic",
		})
	}

	for i, option := range req.Options {
		if strings.TrimSpace(option) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("options[%d]", i),
				Message: "option cannot be blank",
				Value:   option,
				Rule:    "business_logic",
			})
		}
	}

	return errors
}

// ValidateQuestionUpdate validates question updates against the stored
// question, since either side of the (options, correct index) pair may
// be changing.
func (bv *BusinessValidator) ValidateQuestionUpdate(req *QuestionUpdateRequest, existing *models.Question) ValidationErrors {
	errors := bv.validator.ValidateStruct(req)

	optionCount := len(req.Options)
	if optionCount == 0 {
		if stored, err := existing.OptionList(); err == nil {
			optionCount = len(stored)
		}
	}

	correctAnswer := existing.CorrectAnswer
	if req.CorrectAnswer != nil {
		correctAnswer = *req.CorrectAnswer
	}

	if optionCount > 0 && correctAnswer >= optionCount {
		errors = append(errors, ValidationError{
			Field:   "correct_answer",
			Message: fmt.Sprintf("must index into the %d options", optionCount),
			Value:   correctAnswer,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateStatusTransition validates test status transitions.
func (bv *BusinessValidator) ValidateStatusTransition(currentStatus, newStatus models.TestStatus, questionCount int) ValidationErrors {
	var errors ValidationErrors

	allowedTransitions := map[models.TestStatus][]models.TestStatus{
		models.TestDraft:     {models.TestActive, models.TestPublished},
		models.TestActive:    {models.TestPublished, models.TestCompleted},
		models.TestPublished: {models.TestCompleted},
		models.TestCompleted: {},
	}

	allowed := false
	for _, status := range allowedTransitions[currentStatus] {
		if newStatus == status {
			allowed = true
			break
		}
	}

	if !allowed {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot transition from %s to %s", currentStatus, newStatus),
			Value:   newStatus,
			Rule:    "status_transition",
		})
	}

	// Publishing a test with no questions would leave an empty answer
	// key for every taker; reject it here.
	if newStatus == models.TestPublished && questionCount == 0 {
		errors = append(errors, ValidationError{
			Field:   "questions",
			Message: "test must have at least one question before publishing",
			Value:   questionCount,
			Rule:    "business_logic",
		})
	}

	return errors
}
