package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestGetStatsScansFractionalAverageTime(t *testing.T) {
	db, mock := newMockGorm(t)
	repo := NewTestPostgreSQL(db, nil)

	// AVG(time_taken) is numeric in Postgres; the query must cast it to
	// bigint or scanning into the int stats field fails on values like
	// 415.5 once two submissions with different times exist.
	mock.ExpectQuery(`(?s)COALESCE\(AVG\(time_taken\), 0\)::bigint.*FROM "test_results"`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"count", "avg_score", "max_score", "min_score", "avg_time", "violations",
		}).AddRow(2, 75.5, 90, 61, int64(416), 3))

	mock.ExpectQuery(`LEAST\(score / 20, 4\) AS bucket`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"bucket", "count"}).
			AddRow(3, 1).
			AddRow(4, 1))

	stats, err := repo.GetStats(context.Background(), nil, 7)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}

	if stats.AttemptCount != 2 {
		t.Fatalf("AttemptCount = %d, want 2", stats.AttemptCount)
	}
	if stats.AverageScore != 75.5 {
		t.Fatalf("AverageScore = %v, want 75.5", stats.AverageScore)
	}
	if stats.AverageTimeTaken != 416 {
		t.Fatalf("AverageTimeTaken = %d, want 416", stats.AverageTimeTaken)
	}
	if len(stats.ScoreDistribution) != 5 {
		t.Fatalf("ScoreDistribution has %d buckets, want 5", len(stats.ScoreDistribution))
	}
	if stats.ScoreDistribution[4].Range != "80-100" || stats.ScoreDistribution[4].Count != 1 {
		t.Fatalf("top bucket = %+v, want 80-100 with count 1", stats.ScoreDistribution[4])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
