// Package validator holds business-rule validation for question sets, the
// checks that struct tags cannot express: cross-question uniqueness and
// per-type content rules.
package validator

import (
	"fmt"

	apperrors "github.com/NarimanMilanfar/exam-analysis-service/internal/errors"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/models"
)

// QuestionValidator handles question-specific validation
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion validates a complete question object
func (v *QuestionValidator) ValidateQuestion(question *models.Question) error {
	if question.Text == "" {
		return apperrors.NewInvalidQuestionError(question.ID, "question text is required")
	}
	if question.Points <= 0 {
		return apperrors.NewInvalidQuestionError(question.Text, "question points must be positive")
	}

	switch question.Type {
	case models.MultipleChoice:
		return v.validateMultipleChoice(question)
	case models.TrueFalse:
		return v.validateTrueFalse(question)
	default:
		return apperrors.NewInvalidQuestionError(question.Text,
			fmt.Sprintf("unsupported question type: %s", question.Type))
	}
}

// ValidateBatch validates a question set as a whole. An empty set is left to
// the generator, whose error message callers depend on; everything else is
// checked here.
func (v *QuestionValidator) ValidateBatch(questions []models.Question) error {
	seen := make(map[string]struct{}, len(questions))
	for i := range questions {
		q := &questions[i]
		if q.ID != "" {
			if _, dup := seen[q.ID]; dup {
				return apperrors.NewInvalidInputError(
					fmt.Sprintf("Duplicate question id: %s", q.ID))
			}
			seen[q.ID] = struct{}{}
		}
		if err := v.ValidateQuestion(q); err != nil {
			return err
		}
	}
	return nil
}

func (v *QuestionValidator) validateMultipleChoice(question *models.Question) error {
	if len(question.Options) < 2 {
		return apperrors.NewInvalidQuestionError(question.Text, "must have at least 2 options")
	}
	if len(question.Options) > 10 {
		return apperrors.NewInvalidQuestionError(question.Text, "cannot have more than 10 options")
	}

	texts := make(map[string]struct{}, len(question.Options))
	for _, option := range question.Options {
		if option == "" {
			return apperrors.NewInvalidQuestionError(question.Text, "option text cannot be empty")
		}
		normalized := models.Normalize(option)
		if _, dup := texts[normalized]; dup {
			return apperrors.NewInvalidQuestionError(question.Text,
				fmt.Sprintf("duplicate option: %s", option))
		}
		texts[normalized] = struct{}{}
	}

	if question.CorrectAnswer == "" {
		return apperrors.NewInvalidQuestionError(question.Text, "correct answer is required")
	}
	return nil
}

func (v *QuestionValidator) validateTrueFalse(question *models.Question) error {
	if question.CorrectAnswer == "" {
		return apperrors.NewInvalidQuestionError(question.Text, "correct answer is required")
	}
	for _, canonical := range models.TrueFalseOptions {
		if models.EqualAnswers(question.CorrectAnswer, canonical) {
			return nil
		}
	}
	return apperrors.NewInvalidQuestionError(question.Text,
		fmt.Sprintf("true/false answer must be True or False, got %q", question.CorrectAnswer))
}
