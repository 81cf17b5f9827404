package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"gorm.io/datatypes"

	"github.com/veritest/assessment-platform/internal/cache"
	"github.com/veritest/assessment-platform/internal/events"
	"github.com/veritest/assessment-platform/internal/models"
	"github.com/veritest/assessment-platform/internal/validator"
)

func question(id, testID uint, correct int) models.Question {
	options, _ := json.Marshal([]string{"A", "B", "C", "D"})
	return models.Question{
		ID:            id,
		TestID:        testID,
		Text:          "Q",
		Options:       datatypes.JSON(options),
		CorrectAnswer: correct,
	}
}

func newResultFixture(t *testing.T) (*mockRepository, ResultService, *events.MockEventPublisher) {
	t.Helper()

	repo := newMockRepository()
	repo.test.addTest(&models.Test{ID: 1, Title: "Go Basics", Topic: "go", Status: models.TestPublished})
	repo.question.byTest[1] = []models.Question{
		question(1, 1, 0),
		question(2, 1, 1),
		question(3, 1, 2),
		question(4, 1, 3),
	}
	repo.assignment.CreateIgnoreConflicts(context.Background(), nil, []*models.UserTest{
		{UserID: "user-1", TestID: 1, Status: models.AssignmentStarted},
	})

	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewResultService(repo, nil, testLogger(), validator.New(), publisher, cache.NewCacheManager(nil))
	return repo, svc, publisher
}

func TestRecordScoresAndCompletesAtomically(t *testing.T) {
	repo, svc, publisher := newResultFixture(t)
	ctx := context.Background()

	req := &SubmitTestRequest{
		TestID:            1,
		Answers:           json.RawMessage(`{"1":0,"2":1,"3":0,"4":3}`),
		TimeTaken:         420,
		TabSwitchAttempts: 2,
		NoFaceViolations:  1,
	}

	resp, err := svc.Record(ctx, req, "user-1")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if resp.Score != 75 {
		t.Errorf("score = %d, want 75", resp.Score)
	}
	if resp.CorrectCount != 3 || resp.TotalCount != 4 {
		t.Errorf("counts = %d/%d, want 3/4", resp.CorrectCount, resp.TotalCount)
	}
	if resp.ViolationTotal != 3 {
		t.Errorf("violation total = %d, want 3", resp.ViolationTotal)
	}
	if resp.CompletedAt.IsZero() {
		t.Error("completed_at not set")
	}

	// The assignment flips to completed in the same transaction
	a, _ := repo.assignment.GetByUserAndTest(ctx, nil, "user-1", 1)
	if a.Status != models.AssignmentCompleted {
		t.Errorf("assignment status = %s, want completed", a.Status)
	}

	// One recorded event with the final score
	published := publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("published %d events, want 1", len(published))
	}
	if published[0].Type != events.TypeResultRecorded {
		t.Errorf("event type = %s, want %s", published[0].Type, events.TypeResultRecorded)
	}
	data, ok := published[0].Data.(events.ResultRecordedEvent)
	if !ok {
		t.Fatalf("event payload has type %T", published[0].Data)
	}
	if data.Score != 75 || data.ViolationTotal != 3 {
		t.Errorf("event payload = %+v", data)
	}
}

func TestRecordEmptySubmissionScoresZero(t *testing.T) {
	repo, svc, _ := newResultFixture(t)
	ctx := context.Background()

	resp, err := svc.Record(ctx, &SubmitTestRequest{
		TestID:  1,
		Answers: json.RawMessage(`{}`),
	}, "user-1")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if resp.Score != 0 {
		t.Errorf("score = %d, want 0", resp.Score)
	}
	if resp.CorrectCount != 0 || resp.TotalCount != 4 {
		t.Errorf("counts = %d/%d, want 0/4", resp.CorrectCount, resp.TotalCount)
	}
	if len(repo.result.results) != 1 {
		t.Errorf("stored %d results, want 1", len(repo.result.results))
	}
}

func TestRecordPreconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown test", func(t *testing.T) {
		_, svc, _ := newResultFixture(t)
		_, err := svc.Record(ctx, &SubmitTestRequest{TestID: 99, Answers: json.RawMessage(`{}`)}, "user-1")
		if !errors.Is(err, ErrTestNotFound) {
			t.Errorf("err = %v, want ErrTestNotFound", err)
		}
	})

	t.Run("not published", func(t *testing.T) {
		repo, svc, _ := newResultFixture(t)
		repo.test.tests[1].Status = models.TestDraft
		_, err := svc.Record(ctx, &SubmitTestRequest{TestID: 1, Answers: json.RawMessage(`{}`)}, "user-1")
		if !errors.Is(err, ErrTestNotPublished) {
			t.Errorf("err = %v, want ErrTestNotPublished", err)
		}
	})

	t.Run("not assigned", func(t *testing.T) {
		_, svc, _ := newResultFixture(t)
		_, err := svc.Record(ctx, &SubmitTestRequest{TestID: 1, Answers: json.RawMessage(`{}`)}, "user-2")
		if !errors.Is(err, ErrTestNotAssigned) {
			t.Errorf("err = %v, want ErrTestNotAssigned", err)
		}
	})

	t.Run("already submitted", func(t *testing.T) {
		repo, svc, _ := newResultFixture(t)
		repo.assignment.byUser["user-1"][1].Status = models.AssignmentCompleted
		_, err := svc.Record(ctx, &SubmitTestRequest{TestID: 1, Answers: json.RawMessage(`{}`)}, "user-1")
		if !errors.Is(err, ErrAlreadySubmitted) {
			t.Errorf("err = %v, want ErrAlreadySubmitted", err)
		}
	})

	t.Run("no questions", func(t *testing.T) {
		repo, svc, _ := newResultFixture(t)
		repo.question.byTest[1] = nil
		_, err := svc.Record(ctx, &SubmitTestRequest{TestID: 1, Answers: json.RawMessage(`{}`)}, "user-1")
		if !errors.Is(err, ErrTestHasNoQuestion) {
			t.Errorf("err = %v, want ErrTestHasNoQuestion", err)
		}
	})
}

func TestRecordRollsBackAssignmentOnInsertFailure(t *testing.T) {
	repo, svc, publisher := newResultFixture(t)
	ctx := context.Background()

	repo.result.failing = true

	_, err := svc.Record(ctx, &SubmitTestRequest{TestID: 1, Answers: json.RawMessage(`{}`)}, "user-1")
	if err == nil {
		t.Fatal("Record succeeded despite insert failure")
	}

	// The mock has no real rollback, but the assignment update must not
	// have run at all: the insert comes first inside the transaction.
	a, _ := repo.assignment.GetByUserAndTest(ctx, nil, "user-1", 1)
	if a.Status == models.AssignmentCompleted {
		t.Error("assignment completed despite failed result insert")
	}
	if len(publisher.GetPublishedEvents()) != 0 {
		t.Error("event published despite failed transaction")
	}
}

func TestGetByIDOwnership(t *testing.T) {
	repo, svc, _ := newResultFixture(t)
	ctx := context.Background()

	resp, err := svc.Record(ctx, &SubmitTestRequest{TestID: 1, Answers: json.RawMessage(`{"1":0}`)}, "user-1")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	_ = repo

	if _, err := svc.GetByID(ctx, resp.ID, "user-1", false); err != nil {
		t.Errorf("owner read failed: %v", err)
	}

	var permErr *PermissionError
	if _, err := svc.GetByID(ctx, resp.ID, "user-2", false); !errors.As(err, &permErr) {
		t.Errorf("foreign read = %v, want PermissionError", err)
	}

	if _, err := svc.GetByID(ctx, resp.ID, "user-2", true); err != nil {
		t.Errorf("admin read failed: %v", err)
	}
}
