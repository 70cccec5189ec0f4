package services

import (
	"sort"
	"time"

	"github.com/studyhub-io/exam-service/internal/models"
)

// StreakStrategy computes the current streak from a list of completed
// attempts sorted by completion time descending.
//
// Two interpretations of "streak" exist in the product: consecutive
// successful attempts regardless of spacing, and successful attempts on
// consecutive calendar days. Both are implemented behind this interface so
// the choice can be settled without touching the evaluation pipeline.
// ThresholdStreak is the primary definition.
type StreakStrategy interface {
	Name() string
	Current(attempts []models.ExamAttempt) int
}

// ThresholdStreak counts consecutive successes (percentage >= 70) starting at
// the most recent attempt, regardless of gaps between attempt dates.
type ThresholdStreak struct{}

func (ThresholdStreak) Name() string { return "threshold" }

func (ThresholdStreak) Current(attempts []models.ExamAttempt) int {
	streak := 0
	for _, attempt := range attempts {
		if !attempt.IsSuccess() {
			break
		}
		streak++
	}
	return streak
}

// CalendarStreak counts successful attempts on consecutive calendar days
// walking back from today. A day with at least one successful attempt
// extends the streak; the first day without one ends it.
type CalendarStreak struct {
	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func (CalendarStreak) Name() string { return "calendar" }

func (s CalendarStreak) Current(attempts []models.ExamAttempt) int {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	successDays := make(map[string]bool)
	for _, attempt := range attempts {
		if attempt.IsSuccess() && attempt.CompletedAt != nil {
			successDays[attempt.CompletedAt.Format("2006-01-02")] = true
		}
	}

	streak := 0
	day := now()
	for successDays[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// LongestRun returns the maximum run of consecutive successes anywhere in the
// chronological history. It only grows as successful attempts are appended,
// so the stored longest streak never decreases.
func LongestRun(attempts []models.ExamAttempt) int {
	longest := 0
	run := 0
	for _, attempt := range attempts {
		if attempt.IsSuccess() {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	return longest
}

// ProgressEvaluator derives streaks and achievement unlocks from one freshly
// graded attempt plus the user's attempt history.
type ProgressEvaluator struct {
	streaks StreakStrategy
}

func NewProgressEvaluator(strategy StreakStrategy) *ProgressEvaluator {
	return &ProgressEvaluator{streaks: strategy}
}

// EvaluateProgress computes the current and longest streak and the
// achievements triggered by newAttempt. The history may or may not already
// contain newAttempt; it is deduplicated by attempt id and newAttempt is
// always treated as the most recent entry. Every returned achievement is
// idempotent: the repository upsert keyed on (user_id, type) drops repeats.
func (e *ProgressEvaluator) EvaluateProgress(history []models.ExamAttempt, newAttempt models.ExamAttempt) (currentStreak, longestStreak int, achievements []models.Achievement) {
	ordered := make([]models.ExamAttempt, 0, len(history)+1)
	ordered = append(ordered, newAttempt)
	for _, attempt := range history {
		if attempt.ID != 0 && attempt.ID == newAttempt.ID {
			continue
		}
		ordered = append(ordered, attempt)
	}

	// Most recent first
	sort.SliceStable(ordered[1:], func(i, j int) bool {
		a, b := ordered[i+1], ordered[j+1]
		if a.CompletedAt == nil || b.CompletedAt == nil {
			return false
		}
		return a.CompletedAt.After(*b.CompletedAt)
	})

	currentStreak = e.streaks.Current(ordered)

	chronological := make([]models.ExamAttempt, len(ordered))
	for i, attempt := range ordered {
		chronological[len(ordered)-1-i] = attempt
	}
	longestStreak = LongestRun(chronological)

	achievements = e.evaluateAchievements(ordered, newAttempt)
	return currentStreak, longestStreak, achievements
}

func (e *ProgressEvaluator) evaluateAchievements(ordered []models.ExamAttempt, newAttempt models.ExamAttempt) []models.Achievement {
	var earned []models.Achievement

	earnedAt := time.Now()
	if newAttempt.CompletedAt != nil {
		earnedAt = *newAttempt.CompletedAt
	}

	if newAttempt.Percentage == 100 {
		earned = append(earned, models.Achievement{
			UserID:      newAttempt.UserID,
			Type:        models.AchievementPerfectScore,
			Name:        "Perfect Score",
			Description: "Answered every question of an exam correctly",
			ExamID:      newAttempt.ExamID,
			EarnedAt:    earnedAt,
		})
	}

	if len(ordered) == 1 {
		earned = append(earned, models.Achievement{
			UserID:      newAttempt.UserID,
			Type:        models.AchievementFirstExam,
			Name:        "First Exam",
			Description: "Completed your first exam",
			ExamID:      newAttempt.ExamID,
			EarnedAt:    earnedAt,
		})
	}

	// Strictly under one minute per question
	if newAttempt.TimeSpentSeconds < newAttempt.TotalQuestions()*60 {
		earned = append(earned, models.Achievement{
			UserID:      newAttempt.UserID,
			Type:        models.AchievementSpeedDemon,
			Name:        "Speed Demon",
			Description: "Finished an exam in under a minute per question",
			ExamID:      newAttempt.ExamID,
			EarnedAt:    earnedAt,
		})
	}

	return earned
}
