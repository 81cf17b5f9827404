package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/veritest/assessment-platform/internal/models"
	"github.com/veritest/assessment-platform/internal/repositories"
	"github.com/veritest/assessment-platform/internal/validator"
)

type questionService struct {
	repo          repositories.Repository
	db            *gorm.DB
	logger        *slog.Logger
	validator     *validator.Validator
	businessRules *validator.BusinessValidator
}

func NewQuestionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator) QuestionService {
	return &questionService{
		repo:          repo,
		db:            db,
		logger:        logger,
		validator:     v,
		businessRules: validator.NewBusinessValidator(v),
	}
}

func (s *questionService) Create(ctx context.Context, testID uint, req *CreateQuestionRequest, userID string) (*models.Question, error) {
	s.logger.Info("Creating question", "test_id", testID, "user_id", userID)

	question, err := s.buildQuestion(ctx, testID, req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	return question, nil
}

func (s *questionService) CreateBatch(ctx context.Context, testID uint, reqs []*CreateQuestionRequest, userID string) ([]*models.Question, error) {
	s.logger.Info("Creating question batch", "test_id", testID, "count", len(reqs), "user_id", userID)

	if len(reqs) == 0 {
		return nil, NewBusinessRuleError("empty_batch", "at least one question is required")
	}

	questions := make([]*models.Question, 0, len(reqs))
	for i, req := range reqs {
		question, err := s.buildQuestion(ctx, testID, req)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		questions = append(questions, question)
	}

	if err := s.repo.Question().CreateBatch(ctx, nil, questions); err != nil {
		return nil, fmt.Errorf("failed to create questions: %w", err)
	}
	return questions, nil
}

func (s *questionService) GetByTest(ctx context.Context, testID uint) ([]models.Question, error) {
	exists, err := s.repo.Test().Exists(ctx, nil, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to check test: %w", err)
	}
	if !exists {
		return nil, ErrTestNotFound
	}
	return s.repo.Question().GetByTest(ctx, nil, testID)
}

func (s *questionService) Update(ctx context.Context, id uint, req *UpdateQuestionRequest, userID string) (*models.Question, error) {
	s.logger.Info("Updating question", "question_id", id, "user_id", userID)

	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	if err := s.ensureEditable(ctx, question.TestID); err != nil {
		return nil, err
	}

	if verrs := s.businessRules.ValidateQuestionUpdate(req, question); len(verrs) > 0 {
		return nil, verrs
	}

	if req.Text != nil {
		question.Text = *req.Text
	}
	if req.Options != nil {
		encoded, err := json.Marshal(req.Options)
		if err != nil {
			return nil, fmt.Errorf("failed to encode options: %w", err)
		}
		question.Options = encoded
	}
	if req.CorrectAnswer != nil {
		question.CorrectAnswer = *req.CorrectAnswer
	}
	if req.Difficulty != nil {
		question.Difficulty = *req.Difficulty
	}
	if req.Explanation != nil {
		question.Explanation = req.Explanation
	}

	if err := s.repo.Question().Update(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	return question, nil
}

func (s *questionService) Delete(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting question", "question_id", id, "user_id", userID)

	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}

	if err := s.ensureEditable(ctx, question.TestID); err != nil {
		return err
	}

	if err := s.repo.Question().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	return nil
}

func (s *questionService) buildQuestion(ctx context.Context, testID uint, req *CreateQuestionRequest) (*models.Question, error) {
	if verrs := s.businessRules.ValidateQuestionCreate(req); len(verrs) > 0 {
		return nil, verrs
	}

	if err := s.ensureEditable(ctx, testID); err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(req.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to encode options: %w", err)
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyIntermediate
	}

	return &models.Question{
		TestID:        testID,
		Text:          req.Text,
		Options:       encoded,
		CorrectAnswer: req.CorrectAnswer,
		Difficulty:    difficulty,
		Explanation:   req.Explanation,
	}, nil
}

// ensureEditable blocks question changes on published or completed tests.
func (s *questionService) ensureEditable(ctx context.Context, testID uint) error {
	test, err := s.repo.Test().GetByID(ctx, nil, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTestNotFound
		}
		return fmt.Errorf("failed to get test: %w", err)
	}
	if test.Status == models.TestPublished || test.Status == models.TestCompleted {
		return ErrTestNotEditable
	}
	return nil
}
