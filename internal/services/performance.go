package services

import (
	"sort"
	"time"

	"github.com/studyhub-io/exam-service/internal/models"
)

const (
	// Topics below this accuracy with enough samples surface as
	// improvement areas.
	improvementAccuracyCeiling = 70.0
	improvementMinSamples      = 3
	improvementAreaLimit       = 5

	weeklyTrendWindows = 8

	xpPerCorrectAnswer = 10
	xpPerLevel         = 1000
)

// AggregatePerformance computes the full performance read-model from a user's
// completed attempts and the exams they reference. It is a pure function of
// its inputs: calling it twice over the same history yields the same
// snapshot.
//
// Attempts referencing an exam missing from the exams map (deleted exam)
// still count toward totals, averages and timing, but are skipped by the
// difficulty pass that needs question metadata.
func AggregatePerformance(userID string, attempts []models.ExamAttempt, exams map[uint]models.Exam, now time.Time) *models.PerformanceSnapshot {
	snapshot := &models.PerformanceSnapshot{
		UserID:              userID,
		TopicPerformance:    []models.TopicPerformance{},
		DifficultyBreakdown: []models.DifficultyBreakdown{},
		WeeklyTrend:         []models.WeeklyTrendPoint{},
		ImprovementAreas:    []models.ImprovementArea{},
		RecentAttempts:      []models.RecentAttempt{},
		GeneratedAt:         now,
	}

	chronological := sortChronological(attempts)

	snapshot.TotalExams = len(chronological)
	if len(chronological) > 0 {
		var sum float64
		for _, attempt := range chronological {
			sum += attempt.Percentage
			snapshot.TotalTimeSpent += attempt.TimeSpentSeconds
		}
		snapshot.AverageScore = sum / float64(len(chronological))
	}

	snapshot.TopicPerformance = mergeTopicPerformance(chronological)
	snapshot.DifficultyBreakdown = difficultyBreakdown(chronological, exams)
	snapshot.WeeklyTrend = weeklyTrend(chronological, now)
	snapshot.Timing = timingAnalysis(chronological, snapshot.TotalTimeSpent)
	snapshot.ImprovementAreas = improvementAreas(snapshot.TopicPerformance)

	for _, attempt := range chronological {
		snapshot.XP += attempt.CorrectCount * xpPerCorrectAnswer
	}
	snapshot.Level = snapshot.XP/xpPerLevel + 1

	snapshot.LongestStreak = LongestRun(chronological)
	snapshot.CurrentStreak = ThresholdStreak{}.Current(reverseAttempts(chronological))

	return snapshot
}

// ===== AGGREGATION PASSES =====

func mergeTopicPerformance(attempts []models.ExamAttempt) []models.TopicPerformance {
	merged := make(map[string]models.TopicStat)
	for _, attempt := range attempts {
		for topic, stat := range attempt.PerformanceByTopic.Data() {
			total := merged[topic]
			total.Correct += stat.Correct
			total.Total += stat.Total
			merged[topic] = total
		}
	}

	topics := make([]models.TopicPerformance, 0, len(merged))
	for topic, stat := range merged {
		entry := models.TopicPerformance{
			Topic:   topic,
			Correct: stat.Correct,
			Total:   stat.Total,
		}
		if stat.Total > 0 {
			entry.Accuracy = 100 * float64(stat.Correct) / float64(stat.Total)
		}
		topics = append(topics, entry)
	}

	sort.Slice(topics, func(i, j int) bool {
		return topics[i].Topic < topics[j].Topic
	})
	return topics
}

// difficultyBreakdown re-walks each attempt's questions and re-derives
// per-question correctness from the stored answers, since the attempt only
// keeps topic aggregates.
func difficultyBreakdown(attempts []models.ExamAttempt, exams map[uint]models.Exam) []models.DifficultyBreakdown {
	buckets := make(map[models.DifficultyLevel]*models.DifficultyBreakdown)

	for _, attempt := range attempts {
		exam, ok := exams[attempt.ExamID]
		if !ok {
			continue // deleted exam, question metadata unavailable
		}

		answers := attempt.Answers.Data()
		for _, question := range exam.Questions {
			bucket, ok := buckets[question.Difficulty]
			if !ok {
				bucket = &models.DifficultyBreakdown{Difficulty: question.Difficulty}
				buckets[question.Difficulty] = bucket
			}
			bucket.Total++
			if answeredCorrectly(question, answers) {
				bucket.Correct++
			}
		}
	}

	ordered := []models.DifficultyLevel{models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard}
	breakdown := make([]models.DifficultyBreakdown, 0, len(buckets))
	for _, level := range ordered {
		bucket, ok := buckets[level]
		if !ok {
			continue
		}
		if bucket.Total > 0 {
			bucket.Accuracy = 100 * float64(bucket.Correct) / float64(bucket.Total)
		}
		breakdown = append(breakdown, *bucket)
	}
	return breakdown
}

// weeklyTrend partitions the last eight rolling 7-day windows ending at now,
// oldest first. Windows without attempts report zero averages, not nulls.
func weeklyTrend(attempts []models.ExamAttempt, now time.Time) []models.WeeklyTrendPoint {
	trend := make([]models.WeeklyTrendPoint, 0, weeklyTrendWindows)

	for i := weeklyTrendWindows - 1; i >= 0; i-- {
		windowEnd := now.AddDate(0, 0, -7*i)
		windowStart := windowEnd.AddDate(0, 0, -7)

		point := models.WeeklyTrendPoint{
			WeekStart: windowStart,
			WeekEnd:   windowEnd,
		}

		var sum float64
		for _, attempt := range attempts {
			if attempt.CompletedAt == nil {
				continue
			}
			completed := *attempt.CompletedAt
			if completed.After(windowStart) && !completed.After(windowEnd) {
				point.ExamCount++
				sum += attempt.Percentage
			}
		}
		if point.ExamCount > 0 {
			point.AverageScore = sum / float64(point.ExamCount)
		}

		trend = append(trend, point)
	}
	return trend
}

func timingAnalysis(attempts []models.ExamAttempt, totalTimeSpent int) models.TimingAnalysis {
	analysis := models.TimingAnalysis{}

	totalQuestions := 0
	for _, attempt := range attempts {
		totalQuestions += attempt.TotalQuestions()
	}
	if totalQuestions > 0 {
		analysis.AverageTimePerQuestion = float64(totalTimeSpent) / float64(totalQuestions)
	}

	// Chronological iteration: the earliest attempt wins ties
	for i := range attempts {
		attempt := attempts[i]
		timing := models.AttemptTiming{
			AttemptID:        attempt.ID,
			ExamID:           attempt.ExamID,
			TimeSpentSeconds: attempt.TimeSpentSeconds,
		}
		if analysis.FastestExam == nil || timing.TimeSpentSeconds < analysis.FastestExam.TimeSpentSeconds {
			fastest := timing
			analysis.FastestExam = &fastest
		}
		if analysis.SlowestExam == nil || timing.TimeSpentSeconds > analysis.SlowestExam.TimeSpentSeconds {
			slowest := timing
			analysis.SlowestExam = &slowest
		}
	}
	return analysis
}

// improvementAreas selects topics with enough samples and sub-threshold
// accuracy, lowest accuracy first, capped to the five weakest.
func improvementAreas(topics []models.TopicPerformance) []models.ImprovementArea {
	areas := make([]models.ImprovementArea, 0)
	for _, topic := range topics {
		if topic.Total < improvementMinSamples {
			continue
		}
		if topic.Accuracy >= improvementAccuracyCeiling {
			continue
		}
		areas = append(areas, models.ImprovementArea{
			Topic:    topic.Topic,
			Accuracy: topic.Accuracy,
			Total:    topic.Total,
		})
	}

	sort.SliceStable(areas, func(i, j int) bool {
		return areas[i].Accuracy < areas[j].Accuracy
	})

	if len(areas) > improvementAreaLimit {
		areas = areas[:improvementAreaLimit]
	}
	return areas
}

// ===== ORDERING HELPERS =====

func sortChronological(attempts []models.ExamAttempt) []models.ExamAttempt {
	ordered := make([]models.ExamAttempt, len(attempts))
	copy(ordered, attempts)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.CompletedAt == nil || b.CompletedAt == nil {
			return a.CompletedAt != nil
		}
		return a.CompletedAt.Before(*b.CompletedAt)
	})
	return ordered
}

func reverseAttempts(attempts []models.ExamAttempt) []models.ExamAttempt {
	reversed := make([]models.ExamAttempt, len(attempts))
	for i, attempt := range attempts {
		reversed[len(attempts)-1-i] = attempt
	}
	return reversed
}
