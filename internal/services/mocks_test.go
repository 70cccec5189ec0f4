package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/studyhub-io/exam-service/internal/models"
	"github.com/studyhub-io/exam-service/internal/repositories"
)

// ===== REPOSITORY MOCKS =====

type MockExamRepository struct {
	mock.Mock
}

func (m *MockExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	args := m.Called(ctx, exam)
	return args.Error(0)
}

func (m *MockExamRepository) GetByID(ctx context.Context, id uint) (*models.Exam, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Exam), args.Error(1)
}

func (m *MockExamRepository) GetByIDs(ctx context.Context, ids []uint) ([]*models.Exam, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Exam), args.Error(1)
}

func (m *MockExamRepository) GetByUser(ctx context.Context, userID string, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	args := m.Called(ctx, userID, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Exam), args.Get(1).(int64), args.Error(2)
}

func (m *MockExamRepository) SetActive(ctx context.Context, id uint, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockExamRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) Create(ctx context.Context, attempt *models.ExamAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetByID(ctx context.Context, id uint) (*models.ExamAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExamAttempt), args.Error(1)
}

func (m *MockAttemptRepository) GetByUser(ctx context.Context, userID string, filters repositories.AttemptFilters) ([]*models.ExamAttempt, int64, error) {
	args := m.Called(ctx, userID, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.ExamAttempt), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttemptRepository) GetCompletedByUser(ctx context.Context, userID string) ([]*models.ExamAttempt, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ExamAttempt), args.Error(1)
}

func (m *MockAttemptRepository) HasCompleted(ctx context.Context, examID uint, userID string) (bool, error) {
	args := m.Called(ctx, examID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttemptRepository) CountCompletedByUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockAchievementRepository struct {
	mock.Mock
}

func (m *MockAchievementRepository) Upsert(ctx context.Context, achievement *models.Achievement) (bool, error) {
	args := m.Called(ctx, achievement)
	return args.Bool(0), args.Error(1)
}

func (m *MockAchievementRepository) GetByUser(ctx context.Context, userID string) ([]*models.Achievement, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Achievement), args.Error(1)
}

func (m *MockAchievementRepository) HasType(ctx context.Context, userID string, achievementType models.AchievementType) (bool, error) {
	args := m.Called(ctx, userID, achievementType)
	return args.Bool(0), args.Error(1)
}

// MockRepository wires the sub-repository mocks behind the Repository facade
type MockRepository struct {
	examRepo        *MockExamRepository
	attemptRepo     *MockAttemptRepository
	achievementRepo *MockAchievementRepository
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		examRepo:        &MockExamRepository{},
		attemptRepo:     &MockAttemptRepository{},
		achievementRepo: &MockAchievementRepository{},
	}
}

func (m *MockRepository) Exam() repositories.ExamRepository { return m.examRepo }

func (m *MockRepository) Attempt() repositories.AttemptRepository { return m.attemptRepo }

func (m *MockRepository) Achievement() repositories.AchievementRepository { return m.achievementRepo }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *MockRepository) Ping(ctx context.Context) error { return nil }

func (m *MockRepository) Close() error { return nil }

func (m *MockRepository) AssertExpectations(t *testing.T) {
	m.examRepo.AssertExpectations(t)
	m.attemptRepo.AssertExpectations(t)
	m.achievementRepo.AssertExpectations(t)
}

// ===== SHARED TEST HELPERS =====

func testLogger() *slog.Logger {
	return slog.Default()
}
