package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/studyhub-io/exam-service/internal/cache"
	"github.com/studyhub-io/exam-service/internal/events"
	"github.com/studyhub-io/exam-service/internal/models"
	"github.com/studyhub-io/exam-service/internal/validator"
)

func testQuestion(id, topic, correct string, difficulty models.DifficultyLevel) models.Question {
	return models.Question{
		ID:   id,
		Text: "What is the answer to " + id + "?",
		Options: []models.QuestionOption{
			{Label: "A", Text: "first"},
			{Label: "B", Text: "second"},
			{Label: "C", Text: "third"},
			{Label: "D", Text: "fourth"},
		},
		CorrectAnswer: correct,
		Topic:         topic,
		Difficulty:    difficulty,
	}
}

func testExam(id uint, userID string, questions ...models.Question) *models.Exam {
	return &models.Exam{
		ID:            id,
		UserID:        userID,
		Title:         "Biology Basics",
		Questions:     datatypes.NewJSONSlice(questions),
		QuestionCount: len(questions),
		Difficulty:    models.DifficultyMixed,
		IsActive:      true,
	}
}

func TestAnsweredCorrectly(t *testing.T) {
	q := testQuestion("q1", "cells", "B", models.DifficultyEasy)

	assert.True(t, answeredCorrectly(q, map[string]string{"q1": "B"}))
	assert.False(t, answeredCorrectly(q, map[string]string{"q1": "A"}))
	assert.False(t, answeredCorrectly(q, map[string]string{"q1": "b"}), "label match is case-sensitive")
	assert.False(t, answeredCorrectly(q, map[string]string{}), "unanswered counts as incorrect")
	assert.False(t, answeredCorrectly(q, map[string]string{"q2": "B"}))
}

func TestGrade(t *testing.T) {
	exam := testExam(1, "user-1",
		testQuestion("q1", "cells", "A", models.DifficultyEasy),
		testQuestion("q2", "cells", "B", models.DifficultyMedium),
		testQuestion("q3", "genetics", "C", models.DifficultyHard),
		testQuestion("q4", "genetics", "D", models.DifficultyHard),
	)

	tests := []struct {
		name          string
		answers       map[string]string
		timeSpent     int
		wantCorrect   int
		wantScore     int
		wantPercent   float64
		wantByTopic   map[string]models.TopicStat
		expectSuccess bool
	}{
		{
			name:          "all correct",
			answers:       map[string]string{"q1": "A", "q2": "B", "q3": "C", "q4": "D"},
			timeSpent:     300,
			wantCorrect:   4,
			wantScore:     20,
			wantPercent:   100,
			wantByTopic:   map[string]models.TopicStat{"cells": {Correct: 2, Total: 2}, "genetics": {Correct: 2, Total: 2}},
			expectSuccess: true,
		},
		{
			name:          "three of four correct",
			answers:       map[string]string{"q1": "A", "q2": "B", "q3": "C", "q4": "A"},
			timeSpent:     300,
			wantCorrect:   3,
			wantScore:     15,
			wantPercent:   75,
			wantByTopic:   map[string]models.TopicStat{"cells": {Correct: 2, Total: 2}, "genetics": {Correct: 1, Total: 2}},
			expectSuccess: true,
		},
		{
			name:          "half correct misses threshold",
			answers:       map[string]string{"q1": "A", "q2": "B"},
			timeSpent:     300,
			wantCorrect:   2,
			wantScore:     10,
			wantPercent:   50,
			wantByTopic:   map[string]models.TopicStat{"cells": {Correct: 2, Total: 2}, "genetics": {Correct: 0, Total: 2}},
			expectSuccess: false,
		},
		{
			name:          "empty answers grade as all incorrect",
			answers:       map[string]string{},
			timeSpent:     0,
			wantCorrect:   0,
			wantScore:     0,
			wantPercent:   0,
			wantByTopic:   map[string]models.TopicStat{"cells": {Correct: 0, Total: 2}, "genetics": {Correct: 0, Total: 2}},
			expectSuccess: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempt, err := Grade(exam, tt.answers, tt.timeSpent)
			assert.NoError(t, err)

			assert.Equal(t, tt.wantCorrect, attempt.CorrectCount)
			assert.Equal(t, 4-tt.wantCorrect, attempt.IncorrectCount)
			assert.Equal(t, 4, attempt.TotalQuestions(), "correct + incorrect must cover every question")
			assert.Equal(t, tt.wantScore, attempt.Score)
			assert.InDelta(t, tt.wantPercent, attempt.Percentage, 0.001)
			assert.Equal(t, tt.wantByTopic, attempt.PerformanceByTopic.Data())
			assert.Equal(t, tt.expectSuccess, attempt.IsSuccess())
			assert.Equal(t, models.AttemptCompleted, attempt.Status)
			assert.NotNil(t, attempt.CompletedAt)
		})
	}
}

func TestGrade_EmptyExam(t *testing.T) {
	exam := testExam(1, "user-1")

	attempt, err := Grade(exam, map[string]string{}, 10)
	assert.Error(t, err)
	assert.Nil(t, attempt)
	assert.True(t, IsValidation(err))
}

func TestGrade_NegativeTime(t *testing.T) {
	exam := testExam(1, "user-1", testQuestion("q1", "cells", "A", models.DifficultyEasy))

	attempt, err := Grade(exam, map[string]string{"q1": "A"}, -5)
	assert.Error(t, err)
	assert.Nil(t, attempt)
	assert.True(t, IsValidation(err))
}

func TestGradingService_Submit(t *testing.T) {
	const userID = "user-1"

	exam := testExam(7, userID,
		testQuestion("q1", "cells", "A", models.DifficultyEasy),
		testQuestion("q2", "genetics", "B", models.DifficultyHard),
	)

	tests := []struct {
		name        string
		request     *SubmitExamRequest
		setupMocks  func(*MockRepository)
		wantErr     error
		checkResult func(*testing.T, *SubmitResult, *events.MockEventPublisher)
	}{
		{
			name: "successful first submission unlocks achievements",
			request: &SubmitExamRequest{
				ExamID:           7,
				Answers:          map[string]string{"q1": "A", "q2": "B"},
				TimeSpentSeconds: 90,
			},
			setupMocks: func(repo *MockRepository) {
				repo.examRepo.On("GetByID", mock.Anything, uint(7)).Return(exam, nil)
				repo.attemptRepo.On("HasCompleted", mock.Anything, uint(7), userID).Return(false, nil)
				repo.attemptRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.ExamAttempt")).Return(nil)
				repo.attemptRepo.On("GetCompletedByUser", mock.Anything, userID).Return([]*models.ExamAttempt{}, nil)
				repo.achievementRepo.On("Upsert", mock.Anything, mock.AnythingOfType("*models.Achievement")).Return(true, nil)
			},
			checkResult: func(t *testing.T, result *SubmitResult, publisher *events.MockEventPublisher) {
				assert.Equal(t, 10, result.Attempt.Score)
				assert.InDelta(t, 100.0, result.Attempt.Percentage, 0.001)
				assert.Equal(t, 1, result.CurrentStreak)
				assert.Equal(t, 1, result.LongestStreak)

				types := make([]models.AchievementType, 0, len(result.NewAchievements))
				for _, a := range result.NewAchievements {
					types = append(types, a.Type)
				}
				assert.ElementsMatch(t, []models.AchievementType{
					models.AchievementPerfectScore,
					models.AchievementFirstExam,
					models.AchievementSpeedDemon,
				}, types)

				// One graded event plus one per unlocked achievement
				assert.Len(t, publisher.GetPublishedEvents(), 4)
				assert.Equal(t, events.EventAttemptGraded, publisher.GetPublishedEvents()[0].Type)
			},
		},
		{
			name: "exam not found",
			request: &SubmitExamRequest{
				ExamID:  99,
				Answers: map[string]string{"q1": "A"},
			},
			setupMocks: func(repo *MockRepository) {
				repo.examRepo.On("GetByID", mock.Anything, uint(99)).Return(nil, gorm.ErrRecordNotFound)
			},
			wantErr: ErrExamNotFound,
		},
		{
			name: "exam owned by someone else",
			request: &SubmitExamRequest{
				ExamID:  7,
				Answers: map[string]string{"q1": "A"},
			},
			setupMocks: func(repo *MockRepository) {
				other := *exam
				other.UserID = "someone-else"
				repo.examRepo.On("GetByID", mock.Anything, uint(7)).Return(&other, nil)
			},
			wantErr: ErrForbidden,
		},
		{
			name: "inactive exam rejects submissions",
			request: &SubmitExamRequest{
				ExamID:  7,
				Answers: map[string]string{"q1": "A"},
			},
			setupMocks: func(repo *MockRepository) {
				inactive := *exam
				inactive.IsActive = false
				repo.examRepo.On("GetByID", mock.Anything, uint(7)).Return(&inactive, nil)
			},
			wantErr: ErrExamNotActive,
		},
		{
			name: "already completed",
			request: &SubmitExamRequest{
				ExamID:  7,
				Answers: map[string]string{"q1": "A"},
			},
			setupMocks: func(repo *MockRepository) {
				repo.examRepo.On("GetByID", mock.Anything, uint(7)).Return(exam, nil)
				repo.attemptRepo.On("HasCompleted", mock.Anything, uint(7), userID).Return(true, nil)
			},
			wantErr: ErrAttemptAlreadyCompleted,
		},
		{
			name: "concurrent duplicate caught by unique constraint",
			request: &SubmitExamRequest{
				ExamID:           7,
				Answers:          map[string]string{"q1": "A", "q2": "B"},
				TimeSpentSeconds: 90,
			},
			setupMocks: func(repo *MockRepository) {
				repo.examRepo.On("GetByID", mock.Anything, uint(7)).Return(exam, nil)
				repo.attemptRepo.On("HasCompleted", mock.Anything, uint(7), userID).Return(false, nil)
				repo.attemptRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.ExamAttempt")).Return(gorm.ErrDuplicatedKey)
			},
			wantErr: ErrAttemptAlreadyCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockRepository()
			tt.setupMocks(repo)

			memCache := cache.NewMemoryCache()
			publisher := events.NewMockEventPublisher(testLogger())
			service := NewGradingService(repo, testLogger(), validator.New(), memCache, publisher)

			result, err := service.Submit(context.Background(), tt.request, userID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, result)
				if tt.checkResult != nil {
					tt.checkResult(t, result, publisher)
				}
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestGradingService_Submit_InvalidatesSnapshot(t *testing.T) {
	const userID = "user-1"
	exam := testExam(3, userID, testQuestion("q1", "cells", "A", models.DifficultyEasy))

	repo := NewMockRepository()
	repo.examRepo.On("GetByID", mock.Anything, uint(3)).Return(exam, nil)
	repo.attemptRepo.On("HasCompleted", mock.Anything, uint(3), userID).Return(false, nil)
	repo.attemptRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.ExamAttempt")).Return(nil)
	repo.attemptRepo.On("GetCompletedByUser", mock.Anything, userID).Return([]*models.ExamAttempt{}, nil)
	repo.achievementRepo.On("Upsert", mock.Anything, mock.AnythingOfType("*models.Achievement")).Return(false, nil)

	memCache := cache.NewMemoryCache()
	key := cache.PerformanceKey(userID)
	err := memCache.Set(context.Background(), key, models.PerformanceSnapshot{UserID: userID}, time.Minute)
	assert.NoError(t, err)

	service := NewGradingService(repo, testLogger(), validator.New(), memCache, events.NewMockEventPublisher(testLogger()))

	_, err = service.Submit(context.Background(), &SubmitExamRequest{
		ExamID:           3,
		Answers:          map[string]string{"q1": "A"},
		TimeSpentSeconds: 30,
	}, userID)
	assert.NoError(t, err)

	var stale models.PerformanceSnapshot
	assert.ErrorIs(t, memCache.Get(context.Background(), key, &stale), cache.ErrCacheMiss,
		"cached snapshot must be dropped after grading")
}
