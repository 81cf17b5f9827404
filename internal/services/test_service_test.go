package services

import (
	"context"
	"errors"
	"testing"

	"github.com/veritest/assessment-platform/internal/events"
	"github.com/veritest/assessment-platform/internal/models"
	"github.com/veritest/assessment-platform/internal/validator"
)

func newTestServiceFixture(t *testing.T) (*mockRepository, TestService, *events.MockEventPublisher) {
	t.Helper()

	repo := newMockRepository()
	repo.user.users = []*models.User{
		{ID: "user-1", Email: "a@example.com"},
		{ID: "user-2", Email: "b@example.com"},
	}

	publisher := events.NewMockEventPublisher(testLogger())
	v := validator.New()
	assignments := NewAssignmentService(repo, nil, testLogger(), v)
	svc := NewTestService(repo, nil, testLogger(), v, publisher, assignments)
	return repo, svc, publisher
}

func TestPublishFansOutAndEmitsEvent(t *testing.T) {
	repo, svc, publisher := newTestServiceFixture(t)
	ctx := context.Background()

	test := repo.test.addTest(&models.Test{Title: "Go Basics", Topic: "go", Status: models.TestDraft})
	repo.question.byTest[test.ID] = []models.Question{question(1, test.ID, 0)}

	if err := svc.Publish(ctx, test.ID, "admin-1"); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if test.Status != models.TestPublished {
		t.Errorf("status = %s, want published", test.Status)
	}

	// Every user got the assignment
	for _, userID := range []string{"user-1", "user-2"} {
		if _, err := repo.assignment.GetByUserAndTest(ctx, nil, userID, test.ID); err != nil {
			t.Errorf("user %s missing assignment", userID)
		}
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.TypeTestPublished {
		t.Fatalf("events = %+v, want one test.published", published)
	}
}

func TestPublishRequiresQuestions(t *testing.T) {
	repo, svc, _ := newTestServiceFixture(t)
	ctx := context.Background()

	test := repo.test.addTest(&models.Test{Title: "Empty", Topic: "go", Status: models.TestDraft})

	err := svc.Publish(ctx, test.ID, "admin-1")
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("Publish of empty test = %v, want validation errors", err)
	}
	if test.Status != models.TestDraft {
		t.Errorf("status changed to %s on failed publish", test.Status)
	}
}

func TestStatusTransitionRules(t *testing.T) {
	repo, svc, _ := newTestServiceFixture(t)
	ctx := context.Background()

	test := repo.test.addTest(&models.Test{Title: "T", Topic: "go", Status: models.TestCompleted})
	repo.question.byTest[test.ID] = []models.Question{question(1, test.ID, 0)}

	err := svc.UpdateStatus(ctx, test.ID, models.TestPublished, "admin-1")
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Errorf("completed->published = %v, want validation errors", err)
	}
}

func TestGetForTakingHidesAnswerKey(t *testing.T) {
	repo, svc, _ := newTestServiceFixture(t)
	ctx := context.Background()

	test := repo.test.addTest(&models.Test{Title: "T", Topic: "go", Status: models.TestPublished})
	repo.question.byTest[test.ID] = []models.Question{question(1, test.ID, 2)}
	repo.assignment.CreateIgnoreConflicts(ctx, nil, []*models.UserTest{
		{UserID: "user-1", TestID: test.ID, Status: models.AssignmentAssigned},
	})

	view, err := svc.GetForTaking(ctx, test.ID, "user-1")
	if err != nil {
		t.Fatalf("GetForTaking failed: %v", err)
	}
	if len(view.Questions) != 1 {
		t.Fatalf("got %d questions, want 1", len(view.Questions))
	}
	if len(view.Questions[0].Options) != 4 {
		t.Errorf("options = %v", view.Questions[0].Options)
	}

	// Unassigned user cannot load it
	if _, err := svc.GetForTaking(ctx, test.ID, "user-2"); !errors.Is(err, ErrTestNotAssigned) {
		t.Errorf("unassigned GetForTaking = %v, want ErrTestNotAssigned", err)
	}
}

func TestDeletePublishedTestRejected(t *testing.T) {
	repo, svc, _ := newTestServiceFixture(t)
	ctx := context.Background()

	test := repo.test.addTest(&models.Test{Title: "T", Topic: "go", Status: models.TestPublished})

	err := svc.Delete(ctx, test.ID, "admin-1")
	var ruleErr *BusinessRuleError
	if !errors.As(err, &ruleErr) {
		t.Errorf("Delete published = %v, want BusinessRuleError", err)
	}
}
