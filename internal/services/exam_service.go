package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	apperrors "github.com/studyhub-io/exam-service/internal/errors"
	"github.com/studyhub-io/exam-service/internal/models"
	"github.com/studyhub-io/exam-service/internal/repositories"
	"github.com/studyhub-io/exam-service/internal/validator"
)

// ExamService manages the exam lifecycle: intake of generated exams, lookup,
// listing, and deactivation. Exams are immutable after creation except for
// the active flag.
type ExamService interface {
	Create(ctx context.Context, req *CreateExamRequest, userID string) (*models.Exam, error)
	GetByID(ctx context.Context, id uint, userID string) (*models.Exam, error)
	ListByUser(ctx context.Context, userID string, filters repositories.ExamFilters) ([]*models.Exam, int64, error)
	Deactivate(ctx context.Context, id uint, userID string) error
	Delete(ctx context.Context, id uint, userID string) error
}

type CreateExamRequest struct {
	Title         string                 `json:"title" validate:"required,min=1,max=200"`
	Difficulty    models.DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	Questions     []models.Question      `json:"questions" validate:"required,min=1,dive"`
	SourceNoteIDs []string               `json:"source_note_ids"`
}

type examService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewExamService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) ExamService {
	return &examService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// ===== CREATE =====

func (s *examService) Create(ctx context.Context, req *CreateExamRequest, userID string) (*models.Exam, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := validateQuestionStructure(req.Questions); err != nil {
		return nil, err
	}

	if req.Difficulty == "" {
		req.Difficulty = models.DifficultyMixed
	}

	exam := &models.Exam{
		UserID:        userID,
		Title:         req.Title,
		Questions:     datatypes.NewJSONSlice(req.Questions),
		QuestionCount: len(req.Questions),
		Difficulty:    req.Difficulty,
		SourceNoteIDs: datatypes.NewJSONSlice(req.SourceNoteIDs),
		IsActive:      true,
	}

	if err := s.repo.Exam().Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}

	s.logger.Info("Exam created",
		"exam_id", exam.ID,
		"user_id", userID,
		"question_count", exam.QuestionCount,
		"difficulty", exam.Difficulty)

	return exam, nil
}

// validateQuestionStructure enforces the cross-field rules the tag validator
// cannot express: the correct answer must name one of the question's option
// labels, and question ids must be unique within the exam.
func validateQuestionStructure(questions []models.Question) error {
	var errs apperrors.ValidationErrors
	seen := make(map[string]bool, len(questions))

	for i, question := range questions {
		field := fmt.Sprintf("questions[%d]", i)

		if seen[question.ID] {
			errs = append(errs, *apperrors.NewValidationError(
				field+".id", "question id is duplicated within the exam", question.ID))
		}
		seen[question.ID] = true

		if !question.HasOption(question.CorrectAnswer) {
			errs = append(errs, *apperrors.NewValidationError(
				field+".correct_answer", "correct answer does not match any option label", question.CorrectAnswer))
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ===== READ =====

func (s *examService) GetByID(ctx context.Context, id uint, userID string) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	if exam.UserID != userID {
		return nil, NewPermissionError(userID, exam.ID, "exam", "read", "not owned by user")
	}
	return exam, nil
}

func (s *examService) ListByUser(ctx context.Context, userID string, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	exams, total, err := s.repo.Exam().GetByUser(ctx, userID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list exams: %w", err)
	}
	return exams, total, nil
}

// ===== LIFECYCLE =====

func (s *examService) Deactivate(ctx context.Context, id uint, userID string) error {
	exam, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Exam().SetActive(ctx, exam.ID, false); err != nil {
		return fmt.Errorf("failed to deactivate exam: %w", err)
	}

	s.logger.Info("Exam deactivated", "exam_id", exam.ID, "user_id", userID)
	return nil
}

// Delete soft-deletes the exam. Attempts already graded against it survive;
// analytics over them degrade to the stored aggregates.
func (s *examService) Delete(ctx context.Context, id uint, userID string) error {
	exam, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Exam().Delete(ctx, exam.ID); err != nil {
		return fmt.Errorf("failed to delete exam: %w", err)
	}

	s.logger.Info("Exam deleted", "exam_id", exam.ID, "user_id", userID)
	return nil
}
