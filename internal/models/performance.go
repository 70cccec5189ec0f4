package models

import "time"

// PerformanceSnapshot is the dashboard read-model. It is never persisted as a
// row: every field is derived from the user's completed attempts and the exams
// they reference, so it cannot drift from the ground truth.
type PerformanceSnapshot struct {
	UserID string `json:"user_id"`

	TotalExams     int     `json:"total_exams"`
	AverageScore   float64 `json:"average_score"`
	TotalTimeSpent int     `json:"total_time_spent"`

	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`
	XP            int `json:"xp"`
	Level         int `json:"level"`

	TopicPerformance    []TopicPerformance    `json:"topic_performance"`
	DifficultyBreakdown []DifficultyBreakdown `json:"difficulty_breakdown"`
	WeeklyTrend         []WeeklyTrendPoint    `json:"weekly_trend"`
	Timing              TimingAnalysis        `json:"timing"`
	ImprovementAreas    []ImprovementArea     `json:"improvement_areas"`
	RecentAttempts      []RecentAttempt       `json:"recent_attempts"`

	GeneratedAt time.Time `json:"generated_at"`
}

// TopicPerformance is the merged per-topic accuracy across all attempts.
type TopicPerformance struct {
	Topic    string  `json:"topic"`
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Accuracy float64 `json:"accuracy"`
}

// DifficultyBreakdown tallies correctness per question difficulty, re-derived
// from each attempt's stored answers against the exam's question metadata.
type DifficultyBreakdown struct {
	Difficulty DifficultyLevel `json:"difficulty"`
	Correct    int             `json:"correct"`
	Total      int             `json:"total"`
	Accuracy   float64         `json:"accuracy"`
}

// WeeklyTrendPoint is one rolling 7-day window. Empty windows report zero
// averages, not nulls.
type WeeklyTrendPoint struct {
	WeekStart    time.Time `json:"week_start"`
	WeekEnd      time.Time `json:"week_end"`
	ExamCount    int       `json:"exam_count"`
	AverageScore float64   `json:"average_score"`
}

type TimingAnalysis struct {
	AverageTimePerQuestion float64        `json:"average_time_per_question"`
	FastestExam            *AttemptTiming `json:"fastest_exam"`
	SlowestExam            *AttemptTiming `json:"slowest_exam"`
}

type AttemptTiming struct {
	AttemptID        uint `json:"attempt_id"`
	ExamID           uint `json:"exam_id"`
	TimeSpentSeconds int  `json:"time_spent_seconds"`
}

// ImprovementArea is a topic with enough samples and sub-threshold accuracy.
type ImprovementArea struct {
	Topic    string  `json:"topic"`
	Accuracy float64 `json:"accuracy"`
	Total    int     `json:"total"`
}

// RecentAttempt pairs an attempt with its exam's display data.
type RecentAttempt struct {
	AttemptID     uint       `json:"attempt_id"`
	ExamID        uint       `json:"exam_id"`
	ExamTitle     string     `json:"exam_title"`
	QuestionCount int        `json:"question_count"`
	Score         int        `json:"score"`
	Percentage    float64    `json:"percentage"`
	CompletedAt   *time.Time `json:"completed_at"`
}

// ReviewView is the per-question review of one attempt, visible only to the
// attempt's owner.
type ReviewView struct {
	AttemptID        uint             `json:"attempt_id"`
	ExamID           uint             `json:"exam_id"`
	ExamTitle        string           `json:"exam_title"`
	Score            int              `json:"score"`
	Percentage       float64          `json:"percentage"`
	CorrectCount     int              `json:"correct_count"`
	IncorrectCount   int              `json:"incorrect_count"`
	TimeSpentSeconds int              `json:"time_spent_seconds"`
	CompletedAt      *time.Time       `json:"completed_at"`
	Questions        []QuestionReview `json:"questions"`
}

type QuestionReview struct {
	Question   Question `json:"question"`
	UserAnswer string   `json:"user_answer"`
	Answered   bool     `json:"answered"`
	IsCorrect  bool     `json:"is_correct"`
}
