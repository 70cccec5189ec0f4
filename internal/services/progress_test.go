package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/studyhub-io/exam-service/internal/models"
)

func completedAttempt(id uint, percentage float64, completedAt time.Time) models.ExamAttempt {
	correct := int(percentage / 20) // arbitrary split, only percentage drives streaks
	return models.ExamAttempt{
		ID:             id,
		ExamID:         id,
		UserID:         "user-1",
		Percentage:     percentage,
		CorrectCount:   correct,
		IncorrectCount: 5 - correct,
		Score:          correct * models.PointsPerQuestion,
		Status:         models.AttemptCompleted,
		CompletedAt:    &completedAt,
	}
}

func TestThresholdStreak_Current(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		attempts []models.ExamAttempt
		want     int
	}{
		{
			name:     "no attempts",
			attempts: nil,
			want:     0,
		},
		{
			name: "all successful",
			attempts: []models.ExamAttempt{
				completedAttempt(3, 80, base.AddDate(0, 0, 2)),
				completedAttempt(2, 100, base.AddDate(0, 0, 1)),
				completedAttempt(1, 70, base),
			},
			want: 3,
		},
		{
			name: "failure breaks the run",
			attempts: []models.ExamAttempt{
				completedAttempt(3, 80, base.AddDate(0, 0, 2)),
				completedAttempt(2, 60, base.AddDate(0, 0, 1)),
				completedAttempt(1, 100, base),
			},
			want: 1,
		},
		{
			name: "most recent failure means zero",
			attempts: []models.ExamAttempt{
				completedAttempt(2, 69.9, base.AddDate(0, 0, 1)),
				completedAttempt(1, 100, base),
			},
			want: 0,
		},
		{
			name: "exactly at threshold counts",
			attempts: []models.ExamAttempt{
				completedAttempt(1, 70, base),
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ThresholdStreak{}.Current(tt.attempts))
		})
	}
}

func TestCalendarStreak_Current(t *testing.T) {
	today := time.Date(2026, 8, 30, 18, 0, 0, 0, time.UTC)
	strategy := CalendarStreak{Now: func() time.Time { return today }}

	attempts := []models.ExamAttempt{
		completedAttempt(3, 90, today.Add(-2*time.Hour)),
		completedAttempt(2, 75, today.AddDate(0, 0, -1)),
		completedAttempt(1, 80, today.AddDate(0, 0, -3)), // gap on day -2
	}

	assert.Equal(t, 2, strategy.Current(attempts))

	// A failed attempt today does not extend the streak
	failedToday := []models.ExamAttempt{
		completedAttempt(1, 50, today),
	}
	assert.Equal(t, 0, strategy.Current(failedToday))
}

func TestLongestRun(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	history := []models.ExamAttempt{
		completedAttempt(1, 80, base),
		completedAttempt(2, 90, base.AddDate(0, 0, 1)),
		completedAttempt(3, 50, base.AddDate(0, 0, 2)),
		completedAttempt(4, 100, base.AddDate(0, 0, 3)),
	}
	assert.Equal(t, 2, LongestRun(history))

	// Appending successes can only grow the longest run
	extended := append(history,
		completedAttempt(5, 85, base.AddDate(0, 0, 4)),
		completedAttempt(6, 95, base.AddDate(0, 0, 5)),
	)
	assert.Equal(t, 3, LongestRun(extended))
	assert.GreaterOrEqual(t, LongestRun(extended), LongestRun(history))
}

func TestEvaluateProgress(t *testing.T) {
	base := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	evaluator := NewProgressEvaluator(ThresholdStreak{})

	t.Run("first attempt earns first_exam", func(t *testing.T) {
		newAttempt := completedAttempt(1, 80, base)
		newAttempt.TimeSpentSeconds = 600 // 5 questions, over a minute each

		current, longest, earned := evaluator.EvaluateProgress(nil, newAttempt)

		assert.Equal(t, 1, current)
		assert.Equal(t, 1, longest)
		assert.Len(t, earned, 1)
		assert.Equal(t, models.AchievementFirstExam, earned[0].Type)
	})

	t.Run("perfect fast attempt earns all three", func(t *testing.T) {
		newAttempt := completedAttempt(1, 100, base)
		newAttempt.CorrectCount = 5
		newAttempt.IncorrectCount = 0
		newAttempt.TimeSpentSeconds = 120

		_, _, earned := evaluator.EvaluateProgress(nil, newAttempt)

		types := make([]models.AchievementType, 0, len(earned))
		for _, a := range earned {
			types = append(types, a.Type)
		}
		assert.ElementsMatch(t, []models.AchievementType{
			models.AchievementPerfectScore,
			models.AchievementFirstExam,
			models.AchievementSpeedDemon,
		}, types)
	})

	t.Run("speed_demon requires strictly under a minute per question", func(t *testing.T) {
		history := []models.ExamAttempt{completedAttempt(1, 80, base.AddDate(0, 0, -1))}

		boundary := completedAttempt(2, 80, base)
		boundary.TimeSpentSeconds = boundary.TotalQuestions() * 60 // exactly at the boundary

		_, _, earned := evaluator.EvaluateProgress(history, boundary)
		for _, a := range earned {
			assert.NotEqual(t, models.AchievementSpeedDemon, a.Type)
		}

		justUnder := completedAttempt(3, 80, base)
		justUnder.TimeSpentSeconds = justUnder.TotalQuestions()*60 - 1

		_, _, earned = evaluator.EvaluateProgress(history, justUnder)
		types := make([]models.AchievementType, 0, len(earned))
		for _, a := range earned {
			types = append(types, a.Type)
		}
		assert.Contains(t, types, models.AchievementSpeedDemon)
	})

	t.Run("history already containing the new attempt is deduplicated", func(t *testing.T) {
		newAttempt := completedAttempt(5, 90, base)
		history := []models.ExamAttempt{
			newAttempt, // repository read after the insert
			completedAttempt(4, 80, base.AddDate(0, 0, -1)),
		}

		current, longest, earned := evaluator.EvaluateProgress(history, newAttempt)

		assert.Equal(t, 2, current)
		assert.Equal(t, 2, longest)
		for _, a := range earned {
			assert.NotEqual(t, models.AchievementFirstExam, a.Type,
				"second attempt must not count as the first")
		}
	})

	t.Run("streak resumes after failure", func(t *testing.T) {
		history := []models.ExamAttempt{
			completedAttempt(1, 90, base.AddDate(0, 0, -3)),
			completedAttempt(2, 95, base.AddDate(0, 0, -2)),
			completedAttempt(3, 40, base.AddDate(0, 0, -1)),
		}
		newAttempt := completedAttempt(4, 85, base)

		current, longest, _ := evaluator.EvaluateProgress(history, newAttempt)

		assert.Equal(t, 1, current, "current streak restarts after the failure")
		assert.Equal(t, 2, longest, "longest streak keeps the earlier run")
	})
}
