package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/veritest/assessment-platform/internal/models"
	"github.com/veritest/assessment-platform/internal/proctoring"
	"github.com/veritest/assessment-platform/internal/repositories"
)

// proctoringService keeps one violation monitor per in-progress test
// session. Sessions live in process memory only; a restart (or a page
// reload followed by a new start call) begins with a clean monitor.
type proctoringService struct {
	repo   repositories.Repository
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*proctoring.Monitor
}

func NewProctoringService(repo repositories.Repository, logger *slog.Logger) ProctoringService {
	return &proctoringService{
		repo:     repo,
		logger:   logger,
		sessions: make(map[string]*proctoring.Monitor),
	}
}

func sessionKey(userID string, testID uint) string {
	return fmt.Sprintf("%s:%d", userID, testID)
}

// StartSession resets the monitor for a session. Called when a user
// starts (or re-enters) a test.
func (s *proctoringService) StartSession(userID string, testID uint) {
	key := sessionKey(userID, testID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = proctoring.NewMonitor(func(counters proctoring.Counters) {
		s.logger.Warn("Proctoring monitor forced submission",
			"user_id", userID,
			"test_id", testID,
			"tab_switch", counters.TabSwitch,
			"no_face", counters.NoFace,
			"multiple_faces", counters.MultipleFaces,
			"face_changed", counters.FaceChanged)
	})
}

// ReportViolation applies one violation event to the caller's session
// and returns the monitor's decision. The assignment must be in the
// started state; reports against tests the user never started are
// rejected.
func (s *proctoringService) ReportViolation(ctx context.Context, userID string, testID uint, violation proctoring.ViolationType) (*ViolationReport, error) {
	if !knownViolation(violation) {
		return nil, NewBusinessRuleError("unknown_violation_type",
			fmt.Sprintf("unknown violation type %q", violation))
	}

	assignment, err := s.repo.Assignment().GetByUserAndTest(ctx, nil, userID, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotAssigned
		}
		return nil, fmt.Errorf("failed to load assignment: %w", err)
	}
	switch assignment.Status {
	case models.AssignmentCompleted:
		return nil, ErrAlreadySubmitted
	case models.AssignmentStarted:
	default:
		return nil, NewBusinessRuleError("test_not_started",
			"violations can only be reported for a started test")
	}

	monitor := s.monitorFor(userID, testID)
	action := monitor.RecordViolation(violation)

	report := &ViolationReport{
		Action:   action,
		State:    monitor.State(violation),
		Counters: monitor.Counters(),
	}

	if action != proctoring.ActionNone {
		s.logger.Info("Proctoring violation recorded",
			"user_id", userID,
			"test_id", testID,
			"violation", violation,
			"action", action)
	}
	return report, nil
}

// EndSession drops the monitor for a session, typically after the
// submission was recorded.
func (s *proctoringService) EndSession(userID string, testID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionKey(userID, testID))
}

func (s *proctoringService) monitorFor(userID string, testID uint) *proctoring.Monitor {
	key := sessionKey(userID, testID)

	s.mu.Lock()
	defer s.mu.Unlock()
	monitor, ok := s.sessions[key]
	if !ok {
		monitor = proctoring.NewMonitor(nil)
		s.sessions[key] = monitor
	}
	return monitor
}

func knownViolation(v proctoring.ViolationType) bool {
	switch v {
	case proctoring.ViolationTabSwitch,
		proctoring.ViolationNoFace,
		proctoring.ViolationMultipleFaces,
		proctoring.ViolationFaceChanged:
		return true
	}
	return false
}
