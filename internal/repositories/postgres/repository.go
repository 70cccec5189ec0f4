package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/studyhub-io/exam-service/internal/repositories"
)

type gormRepository struct {
	db          *gorm.DB
	exam        repositories.ExamRepository
	attempt     repositories.AttemptRepository
	achievement repositories.AchievementRepository
}

// NewRepository creates the gorm-backed storage facade.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &gormRepository{
		db:          db,
		exam:        NewExamPostgreSQL(db),
		attempt:     NewAttemptPostgreSQL(db),
		achievement: NewAchievementPostgreSQL(db),
	}
}

func (r *gormRepository) Exam() repositories.ExamRepository {
	return r.exam
}

func (r *gormRepository) Attempt() repositories.AttemptRepository {
	return r.attempt
}

func (r *gormRepository) Achievement() repositories.AchievementRepository {
	return r.achievement
}

func (r *gormRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

func (r *gormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *gormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
