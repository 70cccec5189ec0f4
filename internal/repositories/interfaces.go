package repositories

import (
	"context"
	"time"

	"github.com/studyhub-io/exam-service/internal/models"
)

// Repository is the storage facade used by all services.
type Repository interface {
	Exam() ExamRepository
	Attempt() AttemptRepository
	Achievement() AchievementRepository

	WithTransaction(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}

// ExamRepository persists generated exams. Exams are created once and never
// mutated afterwards except for the active flag.
type ExamRepository interface {
	Create(ctx context.Context, exam *models.Exam) error
	GetByID(ctx context.Context, id uint) (*models.Exam, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Exam, error)
	GetByUser(ctx context.Context, userID string, filters ExamFilters) ([]*models.Exam, int64, error)
	SetActive(ctx context.Context, id uint, active bool) error
	Delete(ctx context.Context, id uint) error
}

// AttemptRepository persists graded attempts. Completed attempts are
// immutable; the unique (exam_id, user_id) constraint rejects duplicates.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.ExamAttempt) error
	GetByID(ctx context.Context, id uint) (*models.ExamAttempt, error)
	GetByUser(ctx context.Context, userID string, filters AttemptFilters) ([]*models.ExamAttempt, int64, error)
	GetCompletedByUser(ctx context.Context, userID string) ([]*models.ExamAttempt, error)
	HasCompleted(ctx context.Context, examID uint, userID string) (bool, error)
	CountCompletedByUser(ctx context.Context, userID string) (int64, error)
}

// AchievementRepository persists unlocked achievements, upsert-keyed on
// (user_id, type).
type AchievementRepository interface {
	// Upsert records the achievement if the user does not already hold its
	// type. Returns true when a new row was written.
	Upsert(ctx context.Context, achievement *models.Achievement) (bool, error)
	GetByUser(ctx context.Context, userID string) ([]*models.Achievement, error)
	HasType(ctx context.Context, userID string, achievementType models.AchievementType) (bool, error)
}

// ===== SHARED FILTER STRUCTS =====

type ExamFilters struct {
	IsActive  *bool      `json:"is_active"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortBy    string     `json:"sort_by"`    // "created_at", "title"
	SortOrder string     `json:"sort_order"` // "asc", "desc"
}

type AttemptFilters struct {
	Status    models.AttemptStatus `json:"status"`
	ExamID    *uint                `json:"exam_id"`
	DateFrom  *time.Time           `json:"date_from"`
	DateTo    *time.Time           `json:"date_to"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
	SortBy    string               `json:"sort_by"`    // "completed_at", "percentage"
	SortOrder string               `json:"sort_order"` // "asc", "desc"
}
