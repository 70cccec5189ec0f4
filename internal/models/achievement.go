package models

import "time"

type AchievementType string

const (
	AchievementPerfectScore AchievementType = "perfect_score"
	AchievementFirstExam    AchievementType = "first_exam"
	AchievementSpeedDemon   AchievementType = "speed_demon"
)

// Achievement is a gamification badge earned once per user. The composite
// unique index on (user_id, type) makes earning it again a no-op upsert.
type Achievement struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	UserID      string          `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_achievements_user_type"`
	Type        AchievementType `json:"type" gorm:"not null;size:50;uniqueIndex:idx_achievements_user_type" validate:"required,achievement_type"`
	Name        string          `json:"name" gorm:"not null;size:100"`
	Description string          `json:"description" gorm:"size:255"`
	ExamID      uint            `json:"exam_id"`
	EarnedAt    time.Time       `json:"earned_at"`
}

func (Achievement) TableName() string {
	return "achievements"
}
