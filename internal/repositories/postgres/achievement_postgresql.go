package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studyhub-io/exam-service/internal/models"
	"github.com/studyhub-io/exam-service/internal/repositories"
)

type AchievementPostgreSQL struct {
	db *gorm.DB
}

func NewAchievementPostgreSQL(db *gorm.DB) repositories.AchievementRepository {
	return &AchievementPostgreSQL{db: db}
}

// Upsert inserts the achievement unless the (user_id, type) pair already
// exists. Re-earning an achievement is a no-op, not a duplicate row.
func (r AchievementPostgreSQL) Upsert(ctx context.Context, achievement *models.Achievement) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "type"}},
			DoNothing: true,
		}).
		Create(achievement)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r AchievementPostgreSQL) GetByUser(ctx context.Context, userID string) ([]*models.Achievement, error) {
	var achievements []*models.Achievement
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Find(&achievements).Error; err != nil {
		return nil, err
	}

	return achievements, nil
}

func (r AchievementPostgreSQL) HasType(ctx context.Context, userID string, achievementType models.AchievementType) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Achievement{}).
		Where("user_id = ? AND type = ?", userID, achievementType).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}
