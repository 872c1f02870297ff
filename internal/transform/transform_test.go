package transform

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/NarimanMilanfar/exam-analysis-service/internal/errors"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/models"
)

func TestMCQListToCourse(t *testing.T) {
	items := []MCQItem{
		{Question: "Capital of France?", Choices: []string{"Paris", "London"}, Answer: "A", Points: 2},
		{ID: "custom", Question: "2+2?", Choices: []string{"3", "4"}, Answer: "4"},
	}

	questions, err := MCQListToCourse(items)
	require.NoError(t, err)
	require.Len(t, questions, 2)

	assert.Equal(t, "q1", questions[0].ID)
	assert.Equal(t, "Paris", questions[0].CorrectAnswer)
	assert.Equal(t, 2.0, questions[0].Points)
	assert.Equal(t, models.MultipleChoice, questions[0].Type)

	// Full-text answer and default point value.
	assert.Equal(t, "custom", questions[1].ID)
	assert.Equal(t, "4", questions[1].CorrectAnswer)
	assert.Equal(t, 1.0, questions[1].Points)
}

func TestMCQListToCourse_Errors(t *testing.T) {
	_, err := MCQListToCourse([]MCQItem{{Choices: []string{"A"}, Answer: "A"}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = MCQListToCourse([]MCQItem{{Question: "No choices", Answer: "A"}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuestion)

	_, err = MCQListToCourse([]MCQItem{{Question: "Bad answer", Choices: []string{"X", "Y"}, Answer: "Z"}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuestion)
}

func TestCourseToMCQList(t *testing.T) {
	questions := []models.Question{
		{
			ID:            "q1",
			Text:          "Capital of France?",
			Type:          models.MultipleChoice,
			Options:       []string{"London", "Paris"},
			CorrectAnswer: "Paris",
			Points:        1,
		},
		{
			ID:            "q2",
			Text:          "The Earth is flat.",
			Type:          models.TrueFalse,
			CorrectAnswer: "False",
			Points:        1,
		},
	}

	items, err := CourseToMCQList(questions)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "B", items[0].Answer)
	// True/false questions get canonical options.
	assert.Equal(t, []string{"True", "False"}, items[1].Choices)
	assert.Equal(t, "B", items[1].Answer)
}

func TestCourseToMCQList_AnswerNotAmongOptions(t *testing.T) {
	questions := []models.Question{
		{
			ID:            "q1",
			Text:          "Broken",
			Type:          models.MultipleChoice,
			Options:       []string{"A", "B"},
			CorrectAnswer: "C",
		},
	}
	_, err := CourseToMCQList(questions)
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuestion)
}

func TestConvert_RoundTrip(t *testing.T) {
	payload := `[{"question":"Capital of France?","choices":["Paris","London"],"answer":"a"}]`

	course, err := Convert(FormatMCQList, FormatCourse, json.RawMessage(payload))
	require.NoError(t, err)

	back, err := Convert(FormatCourse, FormatMCQList, course)
	require.NoError(t, err)

	var items []MCQItem
	require.NoError(t, json.Unmarshal(back, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "A", items[0].Answer)
	assert.Equal(t, []string{"Paris", "London"}, items[0].Choices)
}

func TestConvert_SameFormatPassthrough(t *testing.T) {
	payload := json.RawMessage(`[{"question":"x"}]`)
	out, err := Convert(FormatMCQList, FormatMCQList, payload)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestConvert_Errors(t *testing.T) {
	_, err := Convert(FormatMCQList, Format("unknown"), json.RawMessage(`[]`))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = Convert(FormatMCQList, FormatCourse, json.RawMessage(`{not json`))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
