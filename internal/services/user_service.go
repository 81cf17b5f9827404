package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/veritest/assessment-platform/internal/events"
	"github.com/veritest/assessment-platform/internal/models"
	"github.com/veritest/assessment-platform/internal/repositories"
)

type userService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	assignments    AssignmentService
	eventPublisher events.EventPublisher
}

func NewUserService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, assignments AssignmentService, publisher events.EventPublisher) UserService {
	return &userService{
		repo:           repo,
		db:             db,
		logger:         logger,
		assignments:    assignments,
		eventPublisher: publisher,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, limit, offset int) ([]*models.User, int64, error) {
	return s.repo.User().List(ctx, limit, offset)
}

// Onboard runs whenever a user registers or logs in: it stamps their
// last sign-in and repairs any assignment gap against the published
// test set. New users therefore see every published test immediately.
func (s *userService) Onboard(ctx context.Context, userID string) (*ReconcileReport, error) {
	s.logger.Info("Onboarding user", "user_id", userID)

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.repo.User().TouchLastLogin(ctx, userID); err != nil {
		// Login stamping is best-effort
		s.logger.Warn("Failed to stamp last login", "user_id", userID, "error", err)
	}

	report, err := s.assignments.Reconcile(ctx, userID, nil)
	if err != nil {
		return nil, err
	}

	if report.Created > 0 && s.eventPublisher != nil {
		err := s.eventPublisher.Publish(ctx, events.TypeUserRegistered, events.UserRegisteredEvent{
			UserID:        userID,
			Email:         user.Email,
			AssignedTests: int(report.Created),
		})
		if err != nil {
			s.logger.Error("Failed to publish user event", "user_id", userID, "error", err)
		}
	}

	return report, nil
}
