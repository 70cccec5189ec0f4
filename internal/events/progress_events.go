package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/studyhub-io/exam-service/internal/models"
)

// EventType represents different types of progress events
type EventType string

const (
	// Attempt events
	EventAttemptGraded EventType = "attempt.graded"

	// Progress events
	EventAchievementUnlocked EventType = "achievement.unlocked"
	EventStreakExtended      EventType = "streak.extended"
)

// ProgressEvent is the base event structure for all progress events
type ProgressEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type AttemptGradedEvent struct {
	AttemptID        uint      `json:"attempt_id"`
	ExamID           uint      `json:"exam_id"`
	ExamTitle        string    `json:"exam_title"`
	UserID           string    `json:"user_id"`
	Score            int       `json:"score"`
	Percentage       float64   `json:"percentage"`
	CorrectCount     int       `json:"correct_count"`
	IncorrectCount   int       `json:"incorrect_count"`
	TimeSpentSeconds int       `json:"time_spent_seconds"`
	Passed           bool      `json:"passed"`
	GradedAt         time.Time `json:"graded_at"`
}

type AchievementUnlockedEvent struct {
	UserID          string                 `json:"user_id"`
	AchievementType models.AchievementType `json:"achievement_type"`
	Name            string                 `json:"name"`
	Description     string                 `json:"description"`
	ExamID          uint                   `json:"exam_id"`
	EarnedAt        time.Time              `json:"earned_at"`
}

type StreakExtendedEvent struct {
	UserID        string `json:"user_id"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}

// Event factory functions

func NewAttemptGradedEvent(attempt *models.ExamAttempt, examTitle string) *ProgressEvent {
	gradedAt := time.Now()
	if attempt.CompletedAt != nil {
		gradedAt = *attempt.CompletedAt
	}

	return newProgressEvent(EventAttemptGraded, AttemptGradedEvent{
		AttemptID:        attempt.ID,
		ExamID:           attempt.ExamID,
		ExamTitle:        examTitle,
		UserID:           attempt.UserID,
		Score:            attempt.Score,
		Percentage:       attempt.Percentage,
		CorrectCount:     attempt.CorrectCount,
		IncorrectCount:   attempt.IncorrectCount,
		TimeSpentSeconds: attempt.TimeSpentSeconds,
		Passed:           attempt.IsSuccess(),
		GradedAt:         gradedAt,
	})
}

func NewAchievementUnlockedEvent(achievement *models.Achievement) *ProgressEvent {
	return newProgressEvent(EventAchievementUnlocked, AchievementUnlockedEvent{
		UserID:          achievement.UserID,
		AchievementType: achievement.Type,
		Name:            achievement.Name,
		Description:     achievement.Description,
		ExamID:          achievement.ExamID,
		EarnedAt:        achievement.EarnedAt,
	})
}

func NewStreakExtendedEvent(userID string, currentStreak, longestStreak int) *ProgressEvent {
	return newProgressEvent(EventStreakExtended, StreakExtendedEvent{
		UserID:        userID,
		CurrentStreak: currentStreak,
		LongestStreak: longestStreak,
	})
}

func newProgressEvent(eventType EventType, data interface{}) *ProgressEvent {
	return &ProgressEvent{
		ID:        watermill.NewUUID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "exam-service",
		Version:   "1.0",
		Data:      data,
	}
}
