package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/NarimanMilanfar/exam-analysis-service/internal/errors"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/models"
)

func validMC() models.Question {
	return models.Question{
		ID:            "q1",
		Text:          "Capital of France?",
		Type:          models.MultipleChoice,
		Options:       []string{"Paris", "London", "Berlin"},
		CorrectAnswer: "Paris",
		Points:        1,
	}
}

func TestValidateQuestion(t *testing.T) {
	v := NewQuestionValidator()

	tests := []struct {
		name    string
		mutate  func(*models.Question)
		wantErr string
	}{
		{"valid", func(q *models.Question) {}, ""},
		{"missing text", func(q *models.Question) { q.Text = "" }, "question text is required"},
		{"non-positive points", func(q *models.Question) { q.Points = 0 }, "points must be positive"},
		{"unsupported type", func(q *models.Question) { q.Type = "ESSAY" }, "unsupported question type"},
		{"too few options", func(q *models.Question) { q.Options = []string{"Paris"} }, "at least 2 options"},
		{"empty option", func(q *models.Question) { q.Options[1] = "" }, "option text cannot be empty"},
		{"duplicate option", func(q *models.Question) { q.Options[1] = " PARIS " }, "duplicate option"},
		{"missing answer", func(q *models.Question) { q.CorrectAnswer = "" }, "correct answer is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validMC()
			tt.mutate(&q)
			err := v.ValidateQuestion(&q)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidQuestion)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateQuestion_TooManyOptions(t *testing.T) {
	q := validMC()
	q.Options = make([]string, 11)
	for i := range q.Options {
		q.Options[i] = string(rune('A' + i))
	}
	err := NewQuestionValidator().ValidateQuestion(&q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than 10 options")
}

func TestValidateQuestion_TrueFalse(t *testing.T) {
	v := NewQuestionValidator()
	q := models.Question{ID: "q2", Text: "The Earth is flat.", Type: models.TrueFalse, Points: 1}

	q.CorrectAnswer = " false "
	assert.NoError(t, v.ValidateQuestion(&q))

	q.CorrectAnswer = "TRUE"
	assert.NoError(t, v.ValidateQuestion(&q))

	q.CorrectAnswer = "Maybe"
	err := v.ValidateQuestion(&q)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuestion)
	assert.Contains(t, err.Error(), "must be True or False")
}

func TestValidateBatch(t *testing.T) {
	v := NewQuestionValidator()

	// Empty sets are the generator's concern, not a batch error.
	assert.NoError(t, v.ValidateBatch(nil))

	a := validMC()
	b := validMC()
	b.ID = "q2"
	assert.NoError(t, v.ValidateBatch([]models.Question{a, b}))

	b.ID = "q1"
	err := v.ValidateBatch([]models.Question{a, b})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "Duplicate question id: q1")
}
