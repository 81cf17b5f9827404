package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/veritest/assessment-platform/internal/cache"
	"github.com/veritest/assessment-platform/internal/models"
	"github.com/veritest/assessment-platform/internal/repositories"
)

type dashboardService struct {
	repo         repositories.Repository
	db           *gorm.DB
	logger       *slog.Logger
	cacheManager *cache.CacheManager
}

func NewDashboardService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, cacheManager *cache.CacheManager) DashboardService {
	return &dashboardService{
		repo:         repo,
		db:           db,
		logger:       logger,
		cacheManager: cacheManager,
	}
}

func (s *dashboardService) GetUserDashboard(ctx context.Context, userID string) (*UserDashboard, error) {
	cacheKey := fmt.Sprintf("user:%s", userID)
	var dashboard UserDashboard

	err := s.cacheManager.Dashboard.CacheOrExecute(ctx, cacheKey, &dashboard, cache.DashboardCacheConfig.TTL, func() (interface{}, error) {
		return s.buildUserDashboard(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return &dashboard, nil
}

func (s *dashboardService) buildUserDashboard(ctx context.Context, userID string) (*UserDashboard, error) {
	summary, err := s.repo.Dashboard().GetUserSummary(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user summary: %w", err)
	}

	assigned := models.AssignmentAssigned
	pending, _, err := s.repo.Assignment().GetByUser(ctx, nil, userID, repositories.AssignmentFilters{
		Status: &assigned,
		Limit:  20,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load pending assignments: %w", err)
	}

	recent, _, err := s.repo.Result().GetByUser(ctx, nil, userID, repositories.ResultFilters{
		Limit:     5,
		SortBy:    "completed_at",
		SortOrder: "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load recent results: %w", err)
	}

	dashboard := &UserDashboard{Summary: summary}
	for _, a := range pending {
		resp := &AssignmentResponse{UserTest: a}
		if a.Test.ID != 0 {
			resp.TestTitle = a.Test.Title
			resp.TestTopic = a.Test.Topic
		}
		dashboard.Pending = append(dashboard.Pending, resp)
	}
	for _, r := range recent {
		resp := &ResultResponse{TestResult: r, ViolationTotal: r.Violations().Total()}
		if r.Test.ID != 0 {
			resp.TestTitle = r.Test.Title
		}
		dashboard.RecentResults = append(dashboard.RecentResults, resp)
	}
	return dashboard, nil
}

func (s *dashboardService) GetAdminDashboard(ctx context.Context) (*AdminDashboard, error) {
	cacheKey := "admin"
	var dashboard AdminDashboard

	err := s.cacheManager.Dashboard.CacheOrExecute(ctx, cacheKey, &dashboard, cache.DashboardCacheConfig.TTL, func() (interface{}, error) {
		stats, err := s.repo.Dashboard().GetPlatformStats(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to load platform stats: %w", err)
		}

		topics, err := s.repo.Dashboard().GetTopicPerformance(ctx, nil, 10)
		if err != nil {
			return nil, fmt.Errorf("failed to load topic performance: %w", err)
		}

		return &AdminDashboard{Stats: stats, TopicPerformance: topics}, nil
	})
	if err != nil {
		return nil, err
	}
	return &dashboard, nil
}

func (s *dashboardService) GetTestProgress(ctx context.Context, testID uint) ([]models.UserProgress, error) {
	exists, err := s.repo.Test().Exists(ctx, nil, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to check test: %w", err)
	}
	if !exists {
		return nil, ErrTestNotFound
	}

	progress, err := s.repo.Dashboard().GetUserProgress(ctx, nil, testID)
	if err != nil {
		return nil, err
	}

	// Fill in names from the identity provider; missing users keep
	// their bare IDs.
	for i := range progress {
		user, err := s.repo.User().GetByID(ctx, progress[i].UserID)
		if err != nil {
			continue
		}
		progress[i].Username = user.Username
		progress[i].Email = user.Email
	}
	return progress, nil
}
