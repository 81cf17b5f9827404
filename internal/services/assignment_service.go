package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/veritest/assessment-platform/internal/models"
	"github.com/veritest/assessment-platform/internal/repositories"
	"github.com/veritest/assessment-platform/internal/validator"
)

type assignmentService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewAssignmentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator) AssignmentService {
	return &assignmentService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
	}
}

// MissingAssignments returns the published test IDs the user does not
// have an assignment for yet, preserving the order of published. A user
// with extra assignments (for since-unpublished tests) is left alone:
// reconciliation only ever adds.
func MissingAssignments(published, existing []uint) []uint {
	if len(published) == 0 {
		return nil
	}

	have := make(map[uint]struct{}, len(existing))
	for _, id := range existing {
		have[id] = struct{}{}
	}

	var missing []uint
	for _, id := range published {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// Reconcile brings one user's assignments in line with the published
// test set. Running it twice in a row is a no-op the second time, and a
// concurrent publish fan-out never makes it fail: inserts that lose the
// (user, test) uniqueness race are skipped.
func (s *assignmentService) Reconcile(ctx context.Context, userID string, req *ReconcileRequest) (*ReconcileReport, error) {
	s.logger.Info("Reconciling assignments", "user_id", userID)

	if req == nil {
		req = &ReconcileRequest{}
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	published, err := s.publishedScope(ctx, req.TestIDs)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.Assignment().GetTestIDsByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing assignments: %w", err)
	}

	missing := MissingAssignments(published, existing)

	report := &ReconcileReport{
		UserID:       userID,
		Published:    len(published),
		Existing:     len(existing),
		CreatedIDs:   missing,
		ReconciledAt: time.Now().UTC(),
	}
	if len(missing) == 0 {
		return report, nil
	}

	now := time.Now().UTC()
	assignments := make([]*models.UserTest, 0, len(missing))
	for _, testID := range missing {
		assignments = append(assignments, &models.UserTest{
			UserID:     userID,
			TestID:     testID,
			Status:     models.AssignmentAssigned,
			AssignedAt: now,
			DueDate:    req.DueDate,
		})
	}

	created, err := s.repo.Assignment().CreateIgnoreConflicts(ctx, nil, assignments)
	if err != nil {
		return nil, fmt.Errorf("failed to create assignments: %w", err)
	}
	report.Created = created

	s.logger.Info("Assignments reconciled",
		"user_id", userID,
		"published", len(published),
		"missing", len(missing),
		"created", created)

	return report, nil
}

// FanOut assigns a newly published test to every known user.
func (s *assignmentService) FanOut(ctx context.Context, testID uint) (int64, error) {
	userIDs, err := s.repo.User().ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}
	if len(userIDs) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	assignments := make([]*models.UserTest, 0, len(userIDs))
	for _, userID := range userIDs {
		assignments = append(assignments, &models.UserTest{
			UserID:     userID,
			TestID:     testID,
			Status:     models.AssignmentAssigned,
			AssignedAt: now,
		})
	}

	created, err := s.repo.Assignment().CreateIgnoreConflicts(ctx, nil, assignments)
	if err != nil {
		return 0, fmt.Errorf("failed to fan out assignments: %w", err)
	}
	return created, nil
}

func (s *assignmentService) ListForUser(ctx context.Context, userID string, filters repositories.AssignmentFilters) ([]*AssignmentResponse, int64, error) {
	assignments, total, err := s.repo.Assignment().GetByUser(ctx, nil, userID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list assignments: %w", err)
	}

	out := make([]*AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		resp := &AssignmentResponse{UserTest: a}
		if a.Test.ID != 0 {
			resp.TestTitle = a.Test.Title
			resp.TestTopic = a.Test.Topic
		}
		out = append(out, resp)
	}
	return out, total, nil
}

// Start marks an assignment as started when the user opens the test.
// Starting an already started assignment is fine; a completed one is not.
func (s *assignmentService) Start(ctx context.Context, userID string, testID uint) error {
	assignment, err := s.repo.Assignment().GetByUserAndTest(ctx, nil, userID, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTestNotAssigned
		}
		return fmt.Errorf("failed to get assignment: %w", err)
	}

	switch assignment.Status {
	case models.AssignmentCompleted:
		return ErrAlreadySubmitted
	case models.AssignmentStarted:
		return nil
	}

	return s.repo.Assignment().UpdateStatus(ctx, nil, userID, testID, models.AssignmentStarted)
}

// publishedScope resolves which published tests a reconcile pass covers.
func (s *assignmentService) publishedScope(ctx context.Context, requested []uint) ([]uint, error) {
	published, err := s.repo.Test().GetPublishedIDs(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list published tests: %w", err)
	}
	if len(requested) == 0 {
		return published, nil
	}

	isPublished := make(map[uint]struct{}, len(published))
	for _, id := range published {
		isPublished[id] = struct{}{}
	}

	var scoped []uint
	for _, id := range requested {
		if _, ok := isPublished[id]; ok {
			scoped = append(scoped, id)
		}
	}
	return scoped, nil
}
