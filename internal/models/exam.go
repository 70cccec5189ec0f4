package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
	DifficultyMixed  DifficultyLevel = "mixed"
)

// QuestionOption is one of the four labeled choices of a question.
type QuestionOption struct {
	Label string `json:"label" validate:"required"`
	Text  string `json:"text" validate:"required"`
}

// Question is a single exam item produced by the generation step.
// Immutable once its exam is created.
type Question struct {
	ID              string           `json:"id" validate:"required"`
	Text            string           `json:"text" validate:"required"`
	Options         []QuestionOption `json:"options" validate:"required,len=4,dive"`
	CorrectAnswer   string           `json:"correct_answer" validate:"required"`
	Explanation     string           `json:"explanation"`
	Topic           string           `json:"topic" validate:"required"`
	Difficulty      DifficultyLevel  `json:"difficulty" validate:"required,difficulty_level"`
	SourceReference string           `json:"source_reference"`
}

// HasOption reports whether label names one of the question's options.
func (q *Question) HasOption(label string) bool {
	for _, opt := range q.Options {
		if opt.Label == label {
			return true
		}
	}
	return false
}

type Exam struct {
	ID            uint                           `json:"id" gorm:"primaryKey"`
	UserID        string                         `json:"user_id" gorm:"not null;size:255;index"`
	Title         string                         `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Questions     datatypes.JSONSlice[Question]  `json:"questions" gorm:"type:jsonb"`
	QuestionCount int                            `json:"question_count" gorm:"not null"`
	Difficulty    DifficultyLevel                `json:"difficulty" gorm:"size:20;default:mixed"`
	SourceNoteIDs datatypes.JSONSlice[string]    `json:"source_note_ids" gorm:"type:jsonb"`
	IsActive      bool                           `json:"is_active" gorm:"default:true;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Attempts []ExamAttempt `json:"-" gorm:"foreignKey:ExamID"`
}

func (Exam) TableName() string {
	return "exams"
}

// QuestionByID returns the question with the given id, if present.
func (e *Exam) QuestionByID(id string) (Question, bool) {
	for _, q := range e.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}
