package errors

import (
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
)

type submissionFixture struct {
	Title      string   `validate:"required"`
	Options    []string `validate:"len=4"`
	Difficulty string   `validate:"omitempty,difficulty_level"`
	Badge      string   `validate:"omitempty,achievement_type"`
	Status     string   `validate:"omitempty,attempt_status"`
}

// newDomainValidator registers the service's custom tags so translated
// messages can be checked without importing the validator package.
func newDomainValidator(t *testing.T) *validator.Validate {
	t.Helper()

	v := validator.New()
	allowed := map[string][]string{
		"difficulty_level": {"easy", "medium", "hard", "mixed"},
		"achievement_type": {"perfect_score", "first_exam", "speed_demon"},
		"attempt_status":   {"in-progress", "completed"},
	}
	for tag, values := range allowed {
		membership := func(fl validator.FieldLevel) bool {
			for _, value := range values {
				if fl.Field().String() == value {
					return true
				}
			}
			return false
		}
		if err := v.RegisterValidation(tag, membership); err != nil {
			t.Fatalf("failed to register %s validator: %v", tag, err)
		}
	}
	return v
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("difficulty", "must be easy, medium, or hard", "extreme")

	if err.Field != "difficulty" {
		t.Errorf("Expected field to be 'difficulty', got '%s'", err.Field)
	}

	if err.Message != "must be easy, medium, or hard" {
		t.Errorf("Expected message to be 'must be easy, medium, or hard', got '%s'", err.Message)
	}

	if err.Value != "extreme" {
		t.Errorf("Expected value to be 'extreme', got '%v'", err.Value)
	}

	expected := "validation error on field 'difficulty': must be easy, medium, or hard"
	if err.Error() != expected {
		t.Errorf("Expected error message to be '%s', got '%s'", expected, err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("Expected 'validation failed' for empty errors, got '%s'", errs.Error())
	}

	errs = append(errs, *NewValidationError("answers", "is required", nil))
	expected := "validation failed: answers is required"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for single error, got '%s'", expected, errs.Error())
	}

	errs = append(errs, *NewValidationError("exam_id", "is required", nil))
	expected = "validation failed: 2 field errors"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for multiple errors, got '%s'", expected, errs.Error())
	}
}

func TestNewValidationErrorWithRule(t *testing.T) {
	err := NewValidationErrorWithRule("time_spent_seconds", "must be at least 0", "min", -5)

	if err.Rule != "min" {
		t.Errorf("Expected rule to be 'min', got '%s'", err.Rule)
	}

	if err.Field != "time_spent_seconds" {
		t.Errorf("Expected field to be 'time_spent_seconds', got '%s'", err.Field)
	}
}

func TestToValidationErrors_CustomTags(t *testing.T) {
	v := newDomainValidator(t)

	err := v.Struct(submissionFixture{
		Title:      "Biology Basics",
		Options:    []string{"A", "B", "C", "D"},
		Difficulty: "extreme",
		Badge:      "night_owl",
		Status:     "abandoned",
	})
	if err == nil {
		t.Fatal("Expected validation to fail for invalid domain values")
	}

	errs := ToValidationErrors(err)
	if len(errs) != 3 {
		t.Fatalf("Expected 3 validation errors, got %d", len(errs))
	}

	messages := make(map[string]ValidationError, len(errs))
	for _, e := range errs {
		messages[e.Field] = e
	}

	cases := []struct {
		field   string
		rule    string
		message string
	}{
		{"Difficulty", "difficulty_level", "must be easy, medium, or hard"},
		{"Badge", "achievement_type", "must be a valid achievement type (perfect_score, first_exam, speed_demon)"},
		{"Status", "attempt_status", "must be in-progress or completed"},
	}
	for _, tc := range cases {
		got, ok := messages[tc.field]
		if !ok {
			t.Errorf("Expected an error for field '%s'", tc.field)
			continue
		}
		if got.Rule != tc.rule {
			t.Errorf("Expected rule '%s' for field '%s', got '%s'", tc.rule, tc.field, got.Rule)
		}
		if got.Message != tc.message {
			t.Errorf("Expected message '%s' for field '%s', got '%s'", tc.message, tc.field, got.Message)
		}
	}
}

func TestToValidationErrors_BuiltinTags(t *testing.T) {
	v := newDomainValidator(t)

	err := v.Struct(submissionFixture{
		Options: []string{"A", "B", "C"},
	})
	if err == nil {
		t.Fatal("Expected validation to fail for missing title and short options")
	}

	errs := ToValidationErrors(err)
	messages := make(map[string]string, len(errs))
	for _, e := range errs {
		messages[e.Field] = e.Message
	}

	if messages["Title"] != "is required" {
		t.Errorf("Expected 'is required' for missing title, got '%s'", messages["Title"])
	}

	if messages["Options"] != "must have exactly 4 entries" {
		t.Errorf("Expected 'must have exactly 4 entries' for short options, got '%s'", messages["Options"])
	}
}

func TestToValidationErrors_NonValidatorError(t *testing.T) {
	errs := ToValidationErrors(fmt.Errorf("connection reset"))
	if len(errs) != 0 {
		t.Errorf("Expected no validation errors for a non-validator error, got %d", len(errs))
	}
}
