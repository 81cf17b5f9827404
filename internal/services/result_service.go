package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/veritest/assessment-platform/internal/cache"
	"github.com/veritest/assessment-platform/internal/events"
	"github.com/veritest/assessment-platform/internal/models"
	"github.com/veritest/assessment-platform/internal/repositories"
	"github.com/veritest/assessment-platform/internal/scoring"
	"github.com/veritest/assessment-platform/internal/validator"
)

type resultService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	cacheManager   *cache.CacheManager
}

func NewResultService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher, cacheManager *cache.CacheManager) ResultService {
	return &resultService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      v,
		eventPublisher: publisher,
		cacheManager:   cacheManager,
	}
}

// Record scores a submission and persists it. The result insert and the
// assignment completion happen in one transaction, so a crash between
// them can never leave a completed assignment without its result or the
// other way around.
func (s *resultService) Record(ctx context.Context, req *SubmitTestRequest, userID string) (*ResultResponse, error) {
	s.logger.Info("Recording submission", "test_id", req.TestID, "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	test, err := s.repo.Test().GetByID(ctx, nil, req.TestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	if !test.Status.IsAssignable() {
		return nil, ErrTestNotPublished
	}

	assignment, err := s.repo.Assignment().GetByUserAndTest(ctx, nil, userID, req.TestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotAssigned
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment.Status == models.AssignmentCompleted {
		return nil, ErrAlreadySubmitted
	}

	questions, err := s.repo.Question().GetByTest(ctx, nil, req.TestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	answers, err := scoring.DecodeAnswers(req.Answers)
	if err != nil {
		return nil, NewBusinessRuleError("invalid_answers", err.Error())
	}

	scored, err := scoring.Score(answers, scoring.KeyFromQuestions(questions))
	if err != nil {
		// Empty key means the test has no questions; a published
		// test should never be in that state.
		return nil, ErrTestHasNoQuestion
	}

	result := &models.TestResult{
		UserID:            userID,
		TestID:            req.TestID,
		Score:             scored.Score,
		CorrectCount:      scored.CorrectCount,
		TotalCount:        scored.Total,
		Answers:           datatypes.JSON(req.Answers),
		TimeTaken:         req.TimeTaken,
		StartedAt:         req.StartedAt,
		CompletedAt:       time.Now().UTC(),
		TabSwitchAttempts: req.TabSwitchAttempts,
		NoFaceViolations:  req.NoFaceViolations,
		MultipleFaces:     req.MultipleFaces,
		FaceChanged:       req.FaceChanged,
		ClientErrorLog:    req.ClientErrorLog,
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Result().Create(ctx, nil, result); err != nil {
			return err
		}
		return txRepo.Assignment().UpdateStatus(ctx, nil, userID, req.TestID, models.AssignmentCompleted)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record result: %w", err)
	}

	cache.InvalidateUserDashboards(ctx, s.cacheManager, userID, req.TestID)

	if s.eventPublisher != nil {
		err := s.eventPublisher.Publish(ctx, events.TypeResultRecorded, events.ResultRecordedEvent{
			ResultID:       result.ID,
			UserID:         userID,
			TestID:         req.TestID,
			Score:          result.Score,
			ViolationTotal: result.Violations().Total(),
		})
		if err != nil {
			s.logger.Error("Failed to publish result event", "result_id", result.ID, "error", err)
		}
	}

	s.logger.Info("Submission recorded",
		"result_id", result.ID,
		"user_id", userID,
		"test_id", req.TestID,
		"score", result.Score,
		"violations", result.Violations().Total())

	return s.toResponse(result), nil
}

func (s *resultService) GetByID(ctx context.Context, id uint, userID string, isAdmin bool) (*ResultResponse, error) {
	result, err := s.repo.Result().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	if !isAdmin && result.UserID != userID {
		return nil, NewPermissionError(userID, "view", fmt.Sprintf("result %d", id))
	}

	return s.toResponse(result), nil
}

func (s *resultService) ListForUser(ctx context.Context, userID string, filters repositories.ResultFilters) (*ResultListResponse, error) {
	results, total, err := s.repo.Result().GetByUser(ctx, nil, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return s.toListResponse(results, total, filters), nil
}

func (s *resultService) ListForTest(ctx context.Context, testID uint, filters repositories.ResultFilters) (*ResultListResponse, error) {
	exists, err := s.repo.Test().Exists(ctx, nil, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to check test: %w", err)
	}
	if !exists {
		return nil, ErrTestNotFound
	}

	results, total, err := s.repo.Result().GetByTest(ctx, nil, testID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return s.toListResponse(results, total, filters), nil
}

func (s *resultService) toResponse(result *models.TestResult) *ResultResponse {
	resp := &ResultResponse{
		TestResult:     result,
		ViolationTotal: result.Violations().Total(),
	}
	if result.Test.ID != 0 {
		resp.TestTitle = result.Test.Title
	}
	return resp
}

func (s *resultService) toListResponse(results []*models.TestResult, total int64, filters repositories.ResultFilters) *ResultListResponse {
	resp := &ResultListResponse{
		Total: total,
		Size:  filters.Limit,
	}
	if filters.Limit > 0 {
		resp.Page = (filters.Offset / filters.Limit) + 1
	}
	for _, r := range results {
		resp.Results = append(resp.Results, s.toResponse(r))
	}
	return resp
}
