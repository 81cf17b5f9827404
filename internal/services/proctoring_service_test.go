package services

import (
	"context"
	"errors"
	"testing"

	"github.com/veritest/assessment-platform/internal/models"
	"github.com/veritest/assessment-platform/internal/proctoring"
)

func newProctoringFixture(t *testing.T) (*proctoringService, *mockRepository) {
	t.Helper()
	repo := newMockRepository()
	repo.assignment.byUser["user-1"] = map[uint]*models.UserTest{
		1: {ID: 1, UserID: "user-1", TestID: 1, Status: models.AssignmentStarted},
	}
	svc := NewProctoringService(repo, testLogger()).(*proctoringService)
	svc.StartSession("user-1", 1)
	return svc, repo
}

func TestReportViolationWarnsThenAutoSubmits(t *testing.T) {
	svc, _ := newProctoringFixture(t)
	ctx := context.Background()

	report, err := svc.ReportViolation(ctx, "user-1", 1, proctoring.ViolationTabSwitch)
	if err != nil {
		t.Fatalf("ReportViolation: %v", err)
	}
	if report.Action != proctoring.ActionWarn {
		t.Fatalf("first tab switch: action = %q, want %q", report.Action, proctoring.ActionWarn)
	}
	if report.State != proctoring.StateWarned {
		t.Fatalf("first tab switch: state = %q, want %q", report.State, proctoring.StateWarned)
	}

	report, err = svc.ReportViolation(ctx, "user-1", 1, proctoring.ViolationTabSwitch)
	if err != nil {
		t.Fatalf("ReportViolation: %v", err)
	}
	if report.Action != proctoring.ActionAutoSubmit {
		t.Fatalf("second tab switch: action = %q, want %q", report.Action, proctoring.ActionAutoSubmit)
	}
	if report.Counters.TabSwitch != 2 {
		t.Fatalf("tab switch counter = %d, want 2", report.Counters.TabSwitch)
	}

	// Once tripped, further events are counted but trigger nothing
	report, err = svc.ReportViolation(ctx, "user-1", 1, proctoring.ViolationTabSwitch)
	if err != nil {
		t.Fatalf("ReportViolation: %v", err)
	}
	if report.Action != proctoring.ActionNone {
		t.Fatalf("post-submit tab switch: action = %q, want %q", report.Action, proctoring.ActionNone)
	}
	if report.Counters.TabSwitch != 3 {
		t.Fatalf("tab switch counter = %d, want 3", report.Counters.TabSwitch)
	}
}

func TestReportViolationFaceClassGetsTwoWarnings(t *testing.T) {
	svc, _ := newProctoringFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		report, err := svc.ReportViolation(ctx, "user-1", 1, proctoring.ViolationNoFace)
		if err != nil {
			t.Fatalf("ReportViolation #%d: %v", i+1, err)
		}
		if report.Action != proctoring.ActionWarn {
			t.Fatalf("no-face #%d: action = %q, want %q", i+1, report.Action, proctoring.ActionWarn)
		}
	}

	report, err := svc.ReportViolation(ctx, "user-1", 1, proctoring.ViolationNoFace)
	if err != nil {
		t.Fatalf("ReportViolation: %v", err)
	}
	if report.Action != proctoring.ActionAutoSubmit {
		t.Fatalf("third no-face: action = %q, want %q", report.Action, proctoring.ActionAutoSubmit)
	}
}

func TestReportViolationRequiresStartedAssignment(t *testing.T) {
	svc, repo := newProctoringFixture(t)
	ctx := context.Background()

	if _, err := svc.ReportViolation(ctx, "stranger", 1, proctoring.ViolationTabSwitch); !errors.Is(err, ErrTestNotAssigned) {
		t.Fatalf("unassigned user: err = %v, want ErrTestNotAssigned", err)
	}

	repo.assignment.byUser["user-2"] = map[uint]*models.UserTest{
		1: {ID: 2, UserID: "user-2", TestID: 1, Status: models.AssignmentAssigned},
	}
	var ruleErr *BusinessRuleError
	if _, err := svc.ReportViolation(ctx, "user-2", 1, proctoring.ViolationTabSwitch); !errors.As(err, &ruleErr) {
		t.Fatalf("not started: err = %v, want BusinessRuleError", err)
	}

	repo.assignment.byUser["user-1"][1].Status = models.AssignmentCompleted
	if _, err := svc.ReportViolation(ctx, "user-1", 1, proctoring.ViolationTabSwitch); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("completed: err = %v, want ErrAlreadySubmitted", err)
	}
}

func TestStartSessionResetsMonitor(t *testing.T) {
	svc, _ := newProctoringFixture(t)
	ctx := context.Background()

	svc.ReportViolation(ctx, "user-1", 1, proctoring.ViolationTabSwitch)
	svc.ReportViolation(ctx, "user-1", 1, proctoring.ViolationTabSwitch)

	// Re-entering starts over: the first violation warns again
	svc.StartSession("user-1", 1)
	report, err := svc.ReportViolation(ctx, "user-1", 1, proctoring.ViolationTabSwitch)
	if err != nil {
		t.Fatalf("ReportViolation: %v", err)
	}
	if report.Action != proctoring.ActionWarn {
		t.Fatalf("after reset: action = %q, want %q", report.Action, proctoring.ActionWarn)
	}
	if report.Counters.TabSwitch != 1 {
		t.Fatalf("after reset: counter = %d, want 1", report.Counters.TabSwitch)
	}
}

func TestReportViolationRejectsUnknownType(t *testing.T) {
	svc, _ := newProctoringFixture(t)

	var ruleErr *BusinessRuleError
	if _, err := svc.ReportViolation(context.Background(), "user-1", 1, proctoring.ViolationType("teleport")); !errors.As(err, &ruleErr) {
		t.Fatalf("unknown type: err = %v, want BusinessRuleError", err)
	}
}
