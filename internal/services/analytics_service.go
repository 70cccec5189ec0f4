package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/studyhub-io/exam-service/internal/cache"
	"github.com/studyhub-io/exam-service/internal/models"
	"github.com/studyhub-io/exam-service/internal/repositories"
)

const (
	snapshotTTL      = 5 * time.Minute
	recentAttemptMax = 10
)

// AnalyticsService serves the dashboard read-models: the aggregated
// performance snapshot, the per-attempt review, and the achievement list.
type AnalyticsService interface {
	GetUserPerformance(ctx context.Context, userID string) (*models.PerformanceSnapshot, error)
	GetAttemptReview(ctx context.Context, attemptID uint, userID string) (*models.ReviewView, error)
	GetUserAchievements(ctx context.Context, userID string) ([]*models.Achievement, error)
}

type analyticsService struct {
	repo   repositories.Repository
	logger *slog.Logger
	cache  cache.CacheService
	now    func() time.Time
}

func NewAnalyticsService(repo repositories.Repository, logger *slog.Logger, cacheService cache.CacheService) AnalyticsService {
	return &analyticsService{
		repo:   repo,
		logger: logger,
		cache:  cacheService,
		now:    time.Now,
	}
}

// ===== PERFORMANCE SNAPSHOT =====

// GetUserPerformance returns the user's aggregated performance snapshot,
// served from cache when a fresh copy exists. A user with no completed
// attempts gets an all-zero snapshot, not an error.
func (s *analyticsService) GetUserPerformance(ctx context.Context, userID string) (*models.PerformanceSnapshot, error) {
	key := cache.PerformanceKey(userID)

	if s.cache != nil {
		var cached models.PerformanceSnapshot
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if err != cache.ErrCacheMiss {
			s.logger.Warn("Performance snapshot cache read failed", "user_id", userID, "error", err)
		}
	}

	snapshot, err := s.buildSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, snapshot, snapshotTTL); err != nil {
			s.logger.Warn("Performance snapshot cache write failed", "user_id", userID, "error", err)
		}
	}

	return snapshot, nil
}

func (s *analyticsService) buildSnapshot(ctx context.Context, userID string) (*models.PerformanceSnapshot, error) {
	attempts, err := s.repo.Attempt().GetCompletedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed attempts: %w", err)
	}

	exams, err := s.loadReferencedExams(ctx, attempts)
	if err != nil {
		return nil, err
	}

	snapshot := AggregatePerformance(userID, dereferenceAttempts(attempts), exams, s.now())
	snapshot.RecentAttempts = recentAttempts(attempts, exams)

	return snapshot, nil
}

// loadReferencedExams fetches every exam the attempts point at. Exams deleted
// since the attempt was graded are simply absent from the map; downstream
// aggregation degrades gracefully instead of failing the whole snapshot.
func (s *analyticsService) loadReferencedExams(ctx context.Context, attempts []*models.ExamAttempt) (map[uint]models.Exam, error) {
	seen := make(map[uint]bool)
	ids := make([]uint, 0, len(attempts))
	for _, attempt := range attempts {
		if !seen[attempt.ExamID] {
			seen[attempt.ExamID] = true
			ids = append(ids, attempt.ExamID)
		}
	}
	if len(ids) == 0 {
		return map[uint]models.Exam{}, nil
	}

	exams, err := s.repo.Exam().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load exams for attempts: %w", err)
	}

	byID := make(map[uint]models.Exam, len(exams))
	for _, exam := range exams {
		byID[exam.ID] = *exam
	}

	if len(byID) < len(ids) {
		s.logger.Warn("Some attempted exams are no longer available",
			"requested", len(ids),
			"found", len(byID))
	}
	return byID, nil
}

// recentAttempts picks the latest attempts and joins the exam display data.
// Attempts whose exam is gone keep a blank title rather than being dropped.
func recentAttempts(attempts []*models.ExamAttempt, exams map[uint]models.Exam) []models.RecentAttempt {
	ordered := make([]*models.ExamAttempt, len(attempts))
	copy(ordered, attempts)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.CompletedAt == nil || b.CompletedAt == nil {
			return b.CompletedAt == nil
		}
		return a.CompletedAt.After(*b.CompletedAt)
	})

	if len(ordered) > recentAttemptMax {
		ordered = ordered[:recentAttemptMax]
	}

	recent := make([]models.RecentAttempt, 0, len(ordered))
	for _, attempt := range ordered {
		entry := models.RecentAttempt{
			AttemptID:   attempt.ID,
			ExamID:      attempt.ExamID,
			Score:       attempt.Score,
			Percentage:  attempt.Percentage,
			CompletedAt: attempt.CompletedAt,
		}
		if exam, ok := exams[attempt.ExamID]; ok {
			entry.ExamTitle = exam.Title
			entry.QuestionCount = exam.QuestionCount
		}
		recent = append(recent, entry)
	}
	return recent
}

// ===== ATTEMPT REVIEW =====

// GetAttemptReview returns the per-question review of one completed attempt.
// Only the attempt's owner may view it.
func (s *analyticsService) GetAttemptReview(ctx context.Context, attemptID uint, userID string) (*models.ReviewView, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	if attempt.UserID != userID {
		return nil, NewPermissionError(userID, attempt.ID, "attempt", "review", "not owned by user")
	}
	if attempt.Status != models.AttemptCompleted {
		return nil, ErrAttemptNotCompleted
	}

	review := &models.ReviewView{
		AttemptID:        attempt.ID,
		ExamID:           attempt.ExamID,
		Score:            attempt.Score,
		Percentage:       attempt.Percentage,
		CorrectCount:     attempt.CorrectCount,
		IncorrectCount:   attempt.IncorrectCount,
		TimeSpentSeconds: attempt.TimeSpentSeconds,
		CompletedAt:      attempt.CompletedAt,
		Questions:        []models.QuestionReview{},
	}

	exam, err := s.repo.Exam().GetByID(ctx, attempt.ExamID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			// The exam was deleted after grading. The stored aggregates still
			// stand, only the per-question breakdown is unavailable.
			s.logger.Warn("Exam for reviewed attempt no longer exists",
				"attempt_id", attempt.ID,
				"exam_id", attempt.ExamID)
			return review, nil
		}
		return nil, fmt.Errorf("failed to get exam for review: %w", err)
	}

	review.ExamTitle = exam.Title

	answers := attempt.Answers.Data()
	for _, question := range exam.Questions {
		answer, answered := answers[question.ID]
		review.Questions = append(review.Questions, models.QuestionReview{
			Question:   question,
			UserAnswer: answer,
			Answered:   answered,
			IsCorrect:  answeredCorrectly(question, answers),
		})
	}

	return review, nil
}

// ===== ACHIEVEMENTS =====

func (s *analyticsService) GetUserAchievements(ctx context.Context, userID string) ([]*models.Achievement, error) {
	achievements, err := s.repo.Achievement().GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}
	return achievements, nil
}
