package models

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in-progress"
	AttemptCompleted  AttemptStatus = "completed"
)

// SuccessThreshold is the minimum percentage for an attempt to count as a
// success for streak purposes.
const SuccessThreshold = 70.0

// PointsPerQuestion is the score awarded for each correct answer.
const PointsPerQuestion = 5

// TopicStat accumulates per-topic correctness within one attempt.
type TopicStat struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// ExamAttempt is one completed grading of an exam by a user. The composite
// unique index on (exam_id, user_id) serializes concurrent submissions: at
// most one completed attempt exists per exam and user.
type ExamAttempt struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	ExamID uint   `json:"exam_id" gorm:"not null;uniqueIndex:idx_attempts_exam_user"`
	UserID string `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_attempts_exam_user;index"`

	// Answers maps question id to the chosen option label. Keys may cover
	// only a subset of the exam's questions; unanswered counts as incorrect.
	Answers datatypes.JSONType[map[string]string] `json:"answers" gorm:"type:jsonb"`

	Score            int     `json:"score"`
	Percentage       float64 `json:"percentage"`
	CorrectCount     int     `json:"correct_count"`
	IncorrectCount   int     `json:"incorrect_count"`
	TimeSpentSeconds int     `json:"time_spent_seconds"`

	PerformanceByTopic datatypes.JSONType[map[string]TopicStat] `json:"performance_by_topic" gorm:"type:jsonb"`

	Status      AttemptStatus `json:"status" gorm:"size:20;index"`
	CompletedAt *time.Time    `json:"completed_at"`
	CreatedAt   time.Time     `json:"created_at"`

	// Relations
	Exam Exam `json:"-" gorm:"foreignKey:ExamID"`
}

func (ExamAttempt) TableName() string {
	return "exam_attempts"
}

// TotalQuestions is the number of questions graded in this attempt.
func (a *ExamAttempt) TotalQuestions() int {
	return a.CorrectCount + a.IncorrectCount
}

// IsSuccess reports whether the attempt clears the streak threshold.
func (a *ExamAttempt) IsSuccess() bool {
	return a.Percentage >= SuccessThreshold
}
