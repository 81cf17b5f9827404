package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestGetUserProgressReturnsOneRowPerUser(t *testing.T) {
	db, mock := newMockGorm(t)
	repo := NewDashboardPostgreSQL(db)

	// Results are append-only, so retakers have several result rows; the
	// query must collapse them to the latest submission per user instead
	// of joining every (assignment, result) pair.
	completed := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)LEFT JOIN LATERAL.*ORDER BY test_results\.completed_at DESC.*LIMIT 1`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{
			"user_id", "status", "score", "time_taken", "started_at", "completed_at",
		}).
			AddRow("user-1", "completed", 85, 400, completed.Add(-10*time.Minute), completed).
			AddRow("user-2", "assigned", 0, 0, nil, nil))

	progress, err := repo.GetUserProgress(context.Background(), nil, 3)
	if err != nil {
		t.Fatalf("GetUserProgress: %v", err)
	}

	if len(progress) != 2 {
		t.Fatalf("got %d rows, want one per assigned user (2)", len(progress))
	}
	if progress[0].UserID != "user-1" || progress[0].Score != 85 {
		t.Fatalf("row 0 = %+v, want user-1 with latest score 85", progress[0])
	}
	if progress[1].UserID != "user-2" || progress[1].CompletedAt != nil {
		t.Fatalf("row 1 = %+v, want user-2 with no submission", progress[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
