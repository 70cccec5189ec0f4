package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/studyhub-io/exam-service/internal/cache"
	"github.com/studyhub-io/exam-service/internal/events"
	"github.com/studyhub-io/exam-service/internal/models"
	"github.com/studyhub-io/exam-service/internal/repositories"
	"github.com/studyhub-io/exam-service/internal/validator"
)

// GradingService scores exam submissions and records the resulting attempt
// together with streak and achievement updates.
type GradingService interface {
	Submit(ctx context.Context, req *SubmitExamRequest, userID string) (*SubmitResult, error)
}

type SubmitExamRequest struct {
	ExamID           uint              `json:"exam_id" validate:"required"`
	Answers          map[string]string `json:"answers" validate:"required"`
	TimeSpentSeconds int               `json:"time_spent_seconds" validate:"min=0"`
}

type SubmitResult struct {
	Attempt         *models.ExamAttempt   `json:"attempt"`
	CurrentStreak   int                   `json:"current_streak"`
	LongestStreak   int                   `json:"longest_streak"`
	NewAchievements []*models.Achievement `json:"new_achievements"`
}

type gradingService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	cache     cache.CacheService
	publisher events.EventPublisher
	evaluator *ProgressEvaluator
}

func NewGradingService(
	repo repositories.Repository,
	logger *slog.Logger,
	validator *validator.Validator,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
) GradingService {
	return &gradingService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		cache:     cacheService,
		publisher: publisher,
		evaluator: NewProgressEvaluator(ThresholdStreak{}),
	}
}

// ===== CORE GRADING =====

// answeredCorrectly is the single source of truth for per-question
// correctness. The grader, the aggregator, and the review facade all go
// through it so graded results and re-derived analytics cannot drift.
func answeredCorrectly(q models.Question, answers map[string]string) bool {
	answer, ok := answers[q.ID]
	if !ok {
		return false
	}
	// Exact label match, case-sensitive
	return answer == q.CorrectAnswer
}

// Grade scores one submission against the exam's answer key. It is a pure
// function: persistence and duplicate checks are the caller's responsibility.
// Unanswered questions count as incorrect.
func Grade(exam *models.Exam, answers map[string]string, timeSpentSeconds int) (*models.ExamAttempt, error) {
	if len(exam.Questions) == 0 {
		return nil, NewValidationError("questions", "exam has no questions to grade", exam.ID)
	}
	if timeSpentSeconds < 0 {
		return nil, NewValidationError("time_spent_seconds", "must not be negative", timeSpentSeconds)
	}

	correctCount := 0
	byTopic := make(map[string]models.TopicStat)

	for _, question := range exam.Questions {
		stat := byTopic[question.Topic]
		stat.Total++
		if answeredCorrectly(question, answers) {
			correctCount++
			stat.Correct++
		}
		byTopic[question.Topic] = stat
	}

	totalQuestions := len(exam.Questions)
	now := time.Now()

	return &models.ExamAttempt{
		ExamID:             exam.ID,
		UserID:             exam.UserID,
		Answers:            datatypes.NewJSONType(answers),
		Score:              correctCount * models.PointsPerQuestion,
		Percentage:         100 * float64(correctCount) / float64(totalQuestions),
		CorrectCount:       correctCount,
		IncorrectCount:     totalQuestions - correctCount,
		TimeSpentSeconds:   timeSpentSeconds,
		PerformanceByTopic: datatypes.NewJSONType(byTopic),
		Status:             models.AttemptCompleted,
		CompletedAt:        &now,
	}, nil
}

// ===== SUBMISSION FLOW =====

func (s *gradingService) Submit(ctx context.Context, req *SubmitExamRequest, userID string) (*SubmitResult, error) {
	s.logger.Info("Submitting exam attempt",
		"exam_id", req.ExamID,
		"user_id", userID,
		"answers_count", len(req.Answers))

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exam, err := s.repo.Exam().GetByID(ctx, req.ExamID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	if exam.UserID != userID {
		return nil, NewPermissionError(userID, exam.ID, "exam", "submit", "not owned by user")
	}
	if !exam.IsActive {
		return nil, ErrExamNotActive
	}

	// Reject re-submission before grading runs
	completed, err := s.repo.Attempt().HasCompleted(ctx, exam.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing attempts: %w", err)
	}
	if completed {
		return nil, ErrAttemptAlreadyCompleted
	}

	attempt, err := Grade(exam, req.Answers, req.TimeSpentSeconds)
	if err != nil {
		return nil, err
	}

	// The attempt must be durably written before progress evaluation reads a
	// history that is expected to include it. The unique (exam_id, user_id)
	// constraint makes the duplicate check race-free.
	if err := s.repo.Attempt().Create(ctx, attempt); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrAttemptAlreadyCompleted
		}
		return nil, fmt.Errorf("failed to save attempt: %w", err)
	}

	result, err := s.evaluateAndRecordProgress(ctx, exam, attempt, userID)
	if err != nil {
		return nil, err
	}

	s.invalidateSnapshot(ctx, userID)
	s.publishGradedEvents(ctx, exam, attempt, result)

	s.logger.Info("Exam attempt graded",
		"attempt_id", attempt.ID,
		"exam_id", exam.ID,
		"user_id", userID,
		"percentage", attempt.Percentage,
		"current_streak", result.CurrentStreak)

	return result, nil
}

func (s *gradingService) evaluateAndRecordProgress(ctx context.Context, exam *models.Exam, attempt *models.ExamAttempt, userID string) (*SubmitResult, error) {
	history, err := s.repo.Attempt().GetCompletedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt history: %w", err)
	}

	currentStreak, longestStreak, earned := s.evaluator.EvaluateProgress(dereferenceAttempts(history), *attempt)

	// All-or-nothing: a partially recorded achievement set would be re-earned
	// on the next submit anyway, but the unlock events must match what landed.
	newAchievements := make([]*models.Achievement, 0, len(earned))
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		for i := range earned {
			achievement := earned[i]
			created, err := txRepo.Achievement().Upsert(ctx, &achievement)
			if err != nil {
				return fmt.Errorf("failed to record achievement %s: %w", achievement.Type, err)
			}
			if created {
				newAchievements = append(newAchievements, &achievement)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &SubmitResult{
		Attempt:         attempt,
		CurrentStreak:   currentStreak,
		LongestStreak:   longestStreak,
		NewAchievements: newAchievements,
	}, nil
}

func (s *gradingService) invalidateSnapshot(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.PerformanceKey(userID)); err != nil {
		s.logger.Warn("Failed to invalidate performance snapshot", "user_id", userID, "error", err)
	}
}

func (s *gradingService) publishGradedEvents(ctx context.Context, exam *models.Exam, attempt *models.ExamAttempt, result *SubmitResult) {
	if s.publisher == nil {
		return
	}

	event := events.NewAttemptGradedEvent(attempt, exam.Title)
	if err := s.publisher.PublishProgressEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish attempt graded event", "attempt_id", attempt.ID, "error", err)
	}

	for _, achievement := range result.NewAchievements {
		event := events.NewAchievementUnlockedEvent(achievement)
		if err := s.publisher.PublishProgressEvent(ctx, event); err != nil {
			s.logger.Warn("Failed to publish achievement event", "type", achievement.Type, "error", err)
		}
	}

	if attempt.IsSuccess() && result.CurrentStreak > 1 {
		event := events.NewStreakExtendedEvent(attempt.UserID, result.CurrentStreak, result.LongestStreak)
		if err := s.publisher.PublishProgressEvent(ctx, event); err != nil {
			s.logger.Warn("Failed to publish streak event", "user_id", attempt.UserID, "error", err)
		}
	}
}

func dereferenceAttempts(attempts []*models.ExamAttempt) []models.ExamAttempt {
	out := make([]models.ExamAttempt, len(attempts))
	for i, a := range attempts {
		out[i] = *a
	}
	return out
}
