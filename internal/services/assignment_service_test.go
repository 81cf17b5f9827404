package services

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/veritest/assessment-platform/internal/models"
	"github.com/veritest/assessment-platform/internal/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMissingAssignments(t *testing.T) {
	tests := []struct {
		name      string
		published []uint
		existing  []uint
		want      []uint
	}{
		{
			name:      "nothing published",
			published: nil,
			existing:  []uint{1, 2},
			want:      nil,
		},
		{
			name:      "nothing existing",
			published: []uint{1, 2, 3},
			existing:  nil,
			want:      []uint{1, 2, 3},
		},
		{
			name:      "fully covered",
			published: []uint{1, 2, 3},
			existing:  []uint{1, 2, 3},
			want:      nil,
		},
		{
			name:      "partial gap",
			published: []uint{1, 2, 3, 4},
			existing:  []uint{2, 4},
			want:      []uint{1, 3},
		},
		{
			name:      "extra existing assignments are ignored",
			published: []uint{1, 2},
			existing:  []uint{1, 2, 99},
			want:      nil,
		},
		{
			name:      "published order preserved",
			published: []uint{7, 3, 5},
			existing:  []uint{3},
			want:      []uint{7, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MissingAssignments(tt.published, tt.existing)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MissingAssignments(%v, %v) = %v, want %v",
					tt.published, tt.existing, got, tt.want)
			}
		})
	}
}

func publishTests(repo *mockRepository, ids ...uint) {
	for _, id := range ids {
		repo.test.addTest(&models.Test{
			ID:     id,
			Title:  "Test",
			Topic:  "topic",
			Status: models.TestPublished,
		})
	}
}

func TestReconcileIdempotent(t *testing.T) {
	repo := newMockRepository()
	publishTests(repo, 1, 2, 3)

	svc := NewAssignmentService(repo, nil, testLogger(), validator.New())
	ctx := context.Background()

	first, err := svc.Reconcile(ctx, "user-1", nil)
	if err != nil {
		t.Fatalf("first reconcile failed: %v", err)
	}
	if first.Created != 3 {
		t.Errorf("first reconcile created %d assignments, want 3", first.Created)
	}

	second, err := svc.Reconcile(ctx, "user-1", nil)
	if err != nil {
		t.Fatalf("second reconcile failed: %v", err)
	}
	if second.Created != 0 {
		t.Errorf("second reconcile created %d assignments, want 0", second.Created)
	}
	if repo.assignment.created != 3 {
		t.Errorf("total rows inserted = %d, want 3", repo.assignment.created)
	}
}

func TestReconcileFillsOnlyTheGap(t *testing.T) {
	repo := newMockRepository()
	publishTests(repo, 1, 2, 3, 4)

	svc := NewAssignmentService(repo, nil, testLogger(), validator.New())
	ctx := context.Background()

	// User already holds two of the four
	repo.assignment.CreateIgnoreConflicts(ctx, nil, []*models.UserTest{
		{UserID: "user-1", TestID: 2, Status: models.AssignmentAssigned},
		{UserID: "user-1", TestID: 4, Status: models.AssignmentAssigned},
	})

	report, err := svc.Reconcile(ctx, "user-1", nil)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if report.Created != 2 {
		t.Errorf("created %d assignments, want 2", report.Created)
	}
	if !reflect.DeepEqual(report.CreatedIDs, []uint{1, 3}) {
		t.Errorf("created test ids = %v, want [1 3]", report.CreatedIDs)
	}

	ids, _ := repo.assignment.GetTestIDsByUser(ctx, nil, "user-1")
	if !reflect.DeepEqual(ids, []uint{1, 2, 3, 4}) {
		t.Errorf("assignments after reconcile = %v, want [1 2 3 4]", ids)
	}
}

func TestReconcileScopedToRequestedTests(t *testing.T) {
	repo := newMockRepository()
	publishTests(repo, 1, 2, 3)
	// Draft test must never be assigned even when asked for
	repo.test.addTest(&models.Test{ID: 9, Title: "Draft", Topic: "t", Status: models.TestDraft})

	svc := NewAssignmentService(repo, nil, testLogger(), validator.New())
	ctx := context.Background()

	report, err := svc.Reconcile(ctx, "user-1", &ReconcileRequest{TestIDs: []uint{2, 9}})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if report.Created != 1 {
		t.Errorf("created %d assignments, want 1", report.Created)
	}

	ids, _ := repo.assignment.GetTestIDsByUser(ctx, nil, "user-1")
	if !reflect.DeepEqual(ids, []uint{2}) {
		t.Errorf("assignments = %v, want [2]", ids)
	}
}

func TestFanOutAssignsEveryUserOnce(t *testing.T) {
	repo := newMockRepository()
	publishTests(repo, 1)
	repo.user.users = []*models.User{
		{ID: "user-1", Email: "a@example.com"},
		{ID: "user-2", Email: "b@example.com"},
		{ID: "user-3", Email: "c@example.com"},
	}

	svc := NewAssignmentService(repo, nil, testLogger(), validator.New())
	ctx := context.Background()

	// user-2 raced ahead via self-reconcile
	repo.assignment.CreateIgnoreConflicts(ctx, nil, []*models.UserTest{
		{UserID: "user-2", TestID: 1, Status: models.AssignmentAssigned},
	})

	created, err := svc.FanOut(ctx, 1)
	if err != nil {
		t.Fatalf("fan-out failed: %v", err)
	}
	if created != 2 {
		t.Errorf("fan-out created %d assignments, want 2", created)
	}

	for _, userID := range []string{"user-1", "user-2", "user-3"} {
		if _, err := repo.assignment.GetByUserAndTest(ctx, nil, userID, 1); err != nil {
			t.Errorf("user %s missing assignment after fan-out", userID)
		}
	}
}

func TestStartAssignment(t *testing.T) {
	repo := newMockRepository()
	publishTests(repo, 1)

	svc := NewAssignmentService(repo, nil, testLogger(), validator.New())
	ctx := context.Background()

	if err := svc.Start(ctx, "user-1", 1); err != ErrTestNotAssigned {
		t.Errorf("Start without assignment = %v, want ErrTestNotAssigned", err)
	}

	repo.assignment.CreateIgnoreConflicts(ctx, nil, []*models.UserTest{
		{UserID: "user-1", TestID: 1, Status: models.AssignmentAssigned},
	})

	if err := svc.Start(ctx, "user-1", 1); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	a, _ := repo.assignment.GetByUserAndTest(ctx, nil, "user-1", 1)
	if a.Status != models.AssignmentStarted {
		t.Errorf("assignment status = %s, want started", a.Status)
	}

	// Starting twice is fine
	if err := svc.Start(ctx, "user-1", 1); err != nil {
		t.Errorf("second Start = %v, want nil", err)
	}

	a.Status = models.AssignmentCompleted
	if err := svc.Start(ctx, "user-1", 1); err != ErrAlreadySubmitted {
		t.Errorf("Start after completion = %v, want ErrAlreadySubmitted", err)
	}
}
