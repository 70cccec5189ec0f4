package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/studyhub-io/exam-service/internal/models"
	"github.com/studyhub-io/exam-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a AttemptPostgreSQL) Create(ctx context.Context, attempt *models.ExamAttempt) error {
	return a.db.WithContext(ctx).Create(attempt).Error
}

func (a AttemptPostgreSQL) GetByID(ctx context.Context, id uint) (*models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	if err := a.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}

	return &attempt, nil
}

func (a AttemptPostgreSQL) GetByUser(ctx context.Context, userID string, filters repositories.AttemptFilters) ([]*models.ExamAttempt, int64, error) {
	var attempts []*models.ExamAttempt
	var total int64

	// apply filter first
	query := a.db.WithContext(ctx).Model(&models.ExamAttempt{}).Where("user_id = ?", userID)
	query = a.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = a.applyPaginationAndSort(query, filters)

	if err := query.Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

// GetCompletedByUser returns all completed attempts, most recent first. The
// progress evaluator and the aggregator both rely on this ordering.
func (a AttemptPostgreSQL) GetCompletedByUser(ctx context.Context, userID string) ([]*models.ExamAttempt, error) {
	var attempts []*models.ExamAttempt
	if err := a.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.AttemptCompleted).
		Order("completed_at DESC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}

	return attempts, nil
}

func (a AttemptPostgreSQL) HasCompleted(ctx context.Context, examID uint, userID string) (bool, error) {
	var count int64
	if err := a.db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("exam_id = ? AND user_id = ? AND status = ?", examID, userID, models.AttemptCompleted).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (a AttemptPostgreSQL) CountCompletedByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := a.db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("user_id = ? AND status = ?", userID, models.AttemptCompleted).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (a AttemptPostgreSQL) applyFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.ExamID != nil {
		query = query.Where("exam_id = ?", *filters.ExamID)
	}
	if filters.DateFrom != nil {
		query = query.Where("completed_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("completed_at <= ?", *filters.DateTo)
	}
	return query
}

func (a AttemptPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	sortBy := filters.SortBy
	if sortBy == "" {
		sortBy = "completed_at"
	}
	sortOrder := filters.SortOrder
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	query = query.Order(sortBy + " " + sortOrder)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
