package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/studyhub-io/exam-service/internal/models"
)

// ExportService renders a user's performance data as a downloadable workbook.
type ExportService interface {
	ExportPerformanceToExcel(ctx context.Context, userID string) ([]byte, error)
}

type exportService struct {
	analytics AnalyticsService
	logger    *slog.Logger
}

func NewExportService(analytics AnalyticsService, logger *slog.Logger) ExportService {
	return &exportService{
		analytics: analytics,
		logger:    logger,
	}
}

// ExportPerformanceToExcel builds a workbook with one sheet per analytics
// dimension: overview, topics, weekly trend, and recent attempts.
func (s *exportService) ExportPerformanceToExcel(ctx context.Context, userID string) ([]byte, error) {
	snapshot, err := s.analytics.GetUserPerformance(ctx, userID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()

	if err := s.writeOverviewSheet(f, snapshot); err != nil {
		return nil, err
	}
	if err := s.writeTopicsSheet(f, snapshot); err != nil {
		return nil, err
	}
	if err := s.writeTrendSheet(f, snapshot); err != nil {
		return nil, err
	}
	if err := s.writeAttemptsSheet(f, snapshot); err != nil {
		return nil, err
	}

	// NewFile seeds a default sheet that none of the writers fill in.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to finalize Excel file: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Performance export generated",
		"user_id", userID,
		"total_exams", snapshot.TotalExams)

	return buf.Bytes(), nil
}

func (s *exportService) writeOverviewSheet(f *excelize.File, snapshot *models.PerformanceSnapshot) error {
	sheetName := "Overview"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	rows := [][]interface{}{
		{"Total Exams", snapshot.TotalExams},
		{"Average Score (%)", snapshot.AverageScore},
		{"Total Time Spent (minutes)", snapshot.TotalTimeSpent / 60},
		{"Current Streak", snapshot.CurrentStreak},
		{"Longest Streak", snapshot.LongestStreak},
		{"XP", snapshot.XP},
		{"Level", snapshot.Level},
		{"Generated At", snapshot.GeneratedAt.Format("2006-01-02 15:04:05")},
	}

	for rowIndex, row := range rows {
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+1)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	return nil
}

func (s *exportService) writeTopicsSheet(f *excelize.File, snapshot *models.PerformanceSnapshot) error {
	sheetName := "Topics"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	headers := []string{"Topic", "Correct", "Total", "Accuracy (%)"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, topic := range snapshot.TopicPerformance {
		row := []interface{}{topic.Topic, topic.Correct, topic.Total, topic.Accuracy}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	return nil
}

func (s *exportService) writeTrendSheet(f *excelize.File, snapshot *models.PerformanceSnapshot) error {
	sheetName := "Weekly Trend"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	headers := []string{"Week Start", "Week End", "Exams", "Average Score (%)"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, point := range snapshot.WeeklyTrend {
		row := []interface{}{
			point.WeekStart.Format("2006-01-02"),
			point.WeekEnd.Format("2006-01-02"),
			point.ExamCount,
			point.AverageScore,
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	return nil
}

func (s *exportService) writeAttemptsSheet(f *excelize.File, snapshot *models.PerformanceSnapshot) error {
	sheetName := "Recent Attempts"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	headers := []string{"Exam", "Questions", "Score", "Percentage", "Completed At"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, attempt := range snapshot.RecentAttempts {
		row := []interface{}{
			attempt.ExamTitle,
			attempt.QuestionCount,
			attempt.Score,
			attempt.Percentage,
		}
		if attempt.CompletedAt != nil {
			row = append(row, attempt.CompletedAt.Format("2006-01-02 15:04:05"))
		} else {
			row = append(row, "")
		}

		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	return nil
}
