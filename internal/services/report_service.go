package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/veritest/assessment-platform/internal/repositories"
)

type reportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewReportService(repo repositories.Repository, logger *slog.Logger) ReportService {
	return &reportService{
		repo:   repo,
		logger: logger,
	}
}

var resultHeaders = []string{
	"User ID", "Username", "Email", "Status", "Score",
	"Time Taken (s)", "Started At", "Completed At",
}

// ExportTestResults renders every assignee's progress on a test as an
// xlsx workbook: one row per assigned user, submitted or not.
func (s *reportService) ExportTestResults(ctx context.Context, testID uint) ([]byte, string, error) {
	s.logger.Info("Exporting test results", "test_id", testID)

	test, err := s.repo.Test().GetByID(ctx, nil, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, "", ErrTestNotFound
		}
		return nil, "", fmt.Errorf("failed to get test: %w", err)
	}

	progress, err := s.repo.Dashboard().GetUserProgress(ctx, nil, testID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load progress: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	f.SetSheetName("Sheet1", sheet)

	for col, header := range resultHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for i, row := range progress {
		user, err := s.repo.User().GetByID(ctx, row.UserID)
		username, email := row.Username, row.Email
		if err == nil {
			username, email = user.Username, user.Email
		}

		values := []interface{}{
			row.UserID, username, email, row.Status, row.Score, row.TimeTaken,
			formatTimePtr(row.StartedAt), formatTimePtr(row.CompletedAt),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to serialize workbook: %w", err)
	}

	filename := fmt.Sprintf("results-%d-%s.xlsx", test.ID, time.Now().UTC().Format("20060102"))
	return buf.Bytes(), filename, nil
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
