package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/veritest/assessment-platform/internal/events"
	"github.com/veritest/assessment-platform/internal/models"
	"github.com/veritest/assessment-platform/internal/repositories"
	"github.com/veritest/assessment-platform/internal/validator"
)

type testService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	businessRules  *validator.BusinessValidator
	eventPublisher events.EventPublisher
	assignments    AssignmentService
}

func NewTestService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher, assignments AssignmentService) TestService {
	return &testService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      v,
		businessRules:  validator.NewBusinessValidator(v),
		eventPublisher: publisher,
		assignments:    assignments,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *testService) Create(ctx context.Context, req *CreateTestRequest, creatorID string) (*TestResponse, error) {
	s.logger.Info("Creating test", "title", req.Title, "creator_id", creatorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	test := &models.Test{
		Title:       req.Title,
		Topic:       req.Topic,
		Description: req.Description,
		Duration:    req.Duration,
		Status:      models.TestDraft,
		CreatedBy:   creatorID,
	}

	if err := s.repo.Test().Create(ctx, nil, test); err != nil {
		return nil, fmt.Errorf("failed to create test: %w", err)
	}

	return s.toResponse(test, creatorID, true), nil
}

func (s *testService) GetByID(ctx context.Context, id uint, userID string, isAdmin bool) (*TestResponse, error) {
	test, err := s.repo.Test().GetByIDWithQuestions(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	test.QuestionCount = len(test.Questions)

	if !isAdmin {
		// Users never see the answer key
		for i := range test.Questions {
			test.Questions[i].CorrectAnswer = -1
			test.Questions[i].Explanation = nil
		}
		if !test.Status.IsAssignable() {
			return nil, ErrTestNotPublished
		}
	}

	return s.toResponse(test, userID, isAdmin), nil
}

// GetForTaking returns the sanitized question set a user sees while
// taking the test. The test must be published and assigned to them.
func (s *testService) GetForTaking(ctx context.Context, id uint, userID string) (*TestForTaking, error) {
	test, err := s.repo.Test().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	if !test.Status.IsAssignable() {
		return nil, ErrTestNotPublished
	}

	if _, err := s.repo.Assignment().GetByUserAndTest(ctx, nil, userID, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotAssigned
		}
		return nil, fmt.Errorf("failed to check assignment: %w", err)
	}

	questions, err := s.repo.Question().GetByTest(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrTestHasNoQuestion
	}

	out := &TestForTaking{
		ID:       test.ID,
		Title:    test.Title,
		Topic:    test.Topic,
		Duration: test.Duration,
	}
	for _, q := range questions {
		options, err := q.OptionList()
		if err != nil {
			return nil, fmt.Errorf("failed to decode options for question %d: %w", q.ID, err)
		}
		out.Questions = append(out.Questions, QuestionForTaking{
			ID:      q.ID,
			Text:    q.Text,
			Options: options,
		})
	}

	return out, nil
}

func (s *testService) Update(ctx context.Context, id uint, req *UpdateTestRequest, userID string) (*TestResponse, error) {
	s.logger.Info("Updating test", "test_id", id, "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	test, err := s.repo.Test().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	if test.Status == models.TestPublished || test.Status == models.TestCompleted {
		return nil, ErrTestNotEditable
	}

	if req.Title != nil {
		test.Title = *req.Title
	}
	if req.Topic != nil {
		test.Topic = *req.Topic
	}
	if req.Description != nil {
		test.Description = req.Description
	}
	if req.Duration != nil {
		test.Duration = *req.Duration
	}

	if err := s.repo.Test().Update(ctx, nil, test); err != nil {
		return nil, fmt.Errorf("failed to update test: %w", err)
	}

	return s.toResponse(test, userID, true), nil
}

func (s *testService) Delete(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting test", "test_id", id, "user_id", userID)

	test, err := s.repo.Test().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTestNotFound
		}
		return fmt.Errorf("failed to get test: %w", err)
	}

	if test.Status == models.TestPublished {
		return NewBusinessRuleError("test_published",
			"published tests cannot be deleted; mark them completed instead")
	}

	if err := s.repo.Test().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete test: %w", err)
	}
	return nil
}

// ===== LIST OPERATIONS =====

func (s *testService) List(ctx context.Context, filters repositories.TestFilters, userID string, isAdmin bool) (*TestListResponse, error) {
	if !isAdmin {
		// Users only ever see published tests
		published := models.TestPublished
		filters.Status = &published
	}

	tests, total, err := s.repo.Test().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}

	resp := &TestListResponse{
		Total: total,
		Size:  filters.Limit,
	}
	if filters.Limit > 0 {
		resp.Page = (filters.Offset / filters.Limit) + 1
	}
	for _, test := range tests {
		resp.Tests = append(resp.Tests, s.toResponse(test, userID, isAdmin))
	}
	return resp, nil
}

// ===== STATUS MANAGEMENT =====

func (s *testService) UpdateStatus(ctx context.Context, id uint, status models.TestStatus, userID string) error {
	s.logger.Info("Updating test status", "test_id", id, "status", status, "user_id", userID)

	test, err := s.repo.Test().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTestNotFound
		}
		return fmt.Errorf("failed to get test: %w", err)
	}

	count, err := s.repo.Question().CountByTest(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("failed to count questions: %w", err)
	}

	if verrs := s.businessRules.ValidateStatusTransition(test.Status, status, int(count)); len(verrs) > 0 {
		return verrs
	}

	if err := s.repo.Test().UpdateStatus(ctx, nil, id, status); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	if status == models.TestPublished {
		s.afterPublish(ctx, test, int(count), userID)
	}
	return nil
}

// Publish moves a test to published and fans its assignment out to every
// known user. Fan-out failure does not roll the publish back; the
// reconciler repairs any gaps.
func (s *testService) Publish(ctx context.Context, id uint, userID string) error {
	return s.UpdateStatus(ctx, id, models.TestPublished, userID)
}

func (s *testService) afterPublish(ctx context.Context, test *models.Test, questionCount int, userID string) {
	if s.assignments != nil {
		created, err := s.assignments.FanOut(ctx, test.ID)
		if err != nil {
			s.logger.Error("Assignment fan-out failed", "test_id", test.ID, "error", err)
		} else {
			s.logger.Info("Assignments fanned out", "test_id", test.ID, "created", created)
		}
	}

	if s.eventPublisher != nil {
		err := s.eventPublisher.Publish(ctx, events.TypeTestPublished, events.TestPublishedEvent{
			TestID:        test.ID,
			Title:         test.Title,
			Topic:         test.Topic,
			PublishedBy:   userID,
			QuestionCount: questionCount,
		})
		if err != nil {
			s.logger.Error("Failed to publish test event", "test_id", test.ID, "error", err)
		}
	}
}

// ===== STATISTICS =====

func (s *testService) GetStats(ctx context.Context, id uint) (*repositories.TestStats, error) {
	exists, err := s.repo.Test().Exists(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check test: %w", err)
	}
	if !exists {
		return nil, ErrTestNotFound
	}
	return s.repo.Test().GetStats(ctx, nil, id)
}

func (s *testService) toResponse(test *models.Test, userID string, isAdmin bool) *TestResponse {
	return &TestResponse{
		Test:    test,
		CanEdit: isAdmin && test.Status != models.TestPublished && test.Status != models.TestCompleted,
		CanTake: !isAdmin && test.Status.IsAssignable(),
	}
}
