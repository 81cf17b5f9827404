package services

import (
	"errors"
	"fmt"

	"github.com/veritest/assessment-platform/internal/validator"
)

// Sentinel errors returned by services. Handlers map these to HTTP
// statuses; callers match with errors.Is.
var (
	ErrTestNotFound       = errors.New("test not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrResultNotFound     = errors.New("result not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrAssignmentNotFound = errors.New("assignment not found")

	ErrTestNotPublished  = errors.New("test is not published")
	ErrTestNotAssigned   = errors.New("test is not assigned to this user")
	ErrTestHasNoQuestion = errors.New("test has no questions")
	ErrAlreadySubmitted  = errors.New("assignment already completed")
	ErrTestNotEditable   = errors.New("test can no longer be edited")
)

// ValidationErrors re-exports the validator's error list so callers can
// match on it without importing the validator package.
type ValidationErrors = validator.ValidationErrors

// PermissionError is returned when a user attempts something their role
// does not allow.
type PermissionError struct {
	UserID   string
	Action   string
	Resource string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s is not allowed to %s %s", e.UserID, e.Action, e.Resource)
}

func NewPermissionError(userID, action, resource string) *PermissionError {
	return &PermissionError{UserID: userID, Action: action, Resource: resource}
}

// BusinessRuleError is returned when an operation violates a domain rule
// that is not a simple field validation.
type BusinessRuleError struct {
	Rule    string
	Message string
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule, e.Message)
}

func NewBusinessRuleError(rule, message string) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message}
}
