package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NarimanMilanfar/exam-analysis-service/internal/models"
)

func analysisQuestions() []models.AnalysisQuestion {
	return []models.AnalysisQuestion{
		{
			ID:            "q1",
			Text:          "Capital of France?",
			Options:       []string{"Paris", "London", "Berlin", "Madrid"},
			CorrectAnswer: "Paris",
			Type:          models.MultipleChoice,
		},
		{
			ID:            "q2",
			Text:          "The Earth is flat.",
			Options:       []string{"True", "False"},
			CorrectAnswer: "False",
			Type:          models.TrueFalse,
		},
	}
}

func TestUnmapResponses_LetterAnswerThroughPermutation(t *testing.T) {
	// Variant shows q1's options as [London, Paris, Madrid, Berlin]:
	// perm[i] is the original index at variant position i.
	variant := models.VariantForAnalysis{
		VariantCode: "var_1",
		OptionPermutations: map[string][]int{
			"q1": {1, 0, 3, 2},
		},
	}
	responses := []models.StudentResponse{
		{
			StudentID:   "s1",
			VariantCode: "var_1",
			Responses: []models.QuestionResponse{
				// "B" is variant position 1 -> original option 0 -> Paris.
				{QuestionID: "q1", StudentAnswer: "B", MaxPoints: 2},
			},
		},
	}

	unmapped := UnmapResponses([]models.VariantForAnalysis{variant}, responses, analysisQuestions())
	require.Len(t, unmapped, 1)
	answer := unmapped[0].Responses[0]

	assert.Equal(t, "Paris", answer.StudentAnswer)
	assert.True(t, answer.IsCorrect)
	assert.Equal(t, 2.0, answer.Points)
	assert.Equal(t, 2.0, unmapped[0].TotalScore)
}

func TestUnmapResponses_LetterWithoutPermutation(t *testing.T) {
	variant := models.VariantForAnalysis{VariantCode: "var_1"}
	responses := []models.StudentResponse{
		{
			StudentID:   "s1",
			VariantCode: "var_1",
			Responses: []models.QuestionResponse{
				// No permutation recorded: "b" is original position 1 -> London.
				{QuestionID: "q1", StudentAnswer: " b ", MaxPoints: 1},
			},
		},
	}

	unmapped := UnmapResponses([]models.VariantForAnalysis{variant}, responses, analysisQuestions())
	answer := unmapped[0].Responses[0]
	assert.Equal(t, "London", answer.StudentAnswer)
	assert.False(t, answer.IsCorrect)
	assert.Equal(t, 0.0, answer.Points)
}

func TestUnmapResponses_FullTextAnswer(t *testing.T) {
	variant := models.VariantForAnalysis{
		VariantCode:        "var_1",
		OptionPermutations: map[string][]int{"q1": {2, 3, 0, 1}},
	}
	responses := []models.StudentResponse{
		{
			StudentID:   "s1",
			VariantCode: "var_1",
			Responses: []models.QuestionResponse{
				// Full text bypasses the permutation entirely.
				{QuestionID: "q1", StudentAnswer: "paris", MaxPoints: 1},
			},
		},
	}

	unmapped := UnmapResponses([]models.VariantForAnalysis{variant}, responses, analysisQuestions())
	answer := unmapped[0].Responses[0]
	assert.Equal(t, "Paris", answer.StudentAnswer)
	assert.True(t, answer.IsCorrect)
}

func TestUnmapResponses_CorrectnessRecomputed(t *testing.T) {
	// The stored IsCorrect flag lies; unmapping must not trust it.
	variant := models.VariantForAnalysis{VariantCode: "var_1"}
	responses := []models.StudentResponse{
		{
			StudentID:   "s1",
			VariantCode: "var_1",
			TotalScore:  99,
			Responses: []models.QuestionResponse{
				{QuestionID: "q2", StudentAnswer: "True", IsCorrect: true, Points: 5, MaxPoints: 5},
			},
		},
	}

	unmapped := UnmapResponses([]models.VariantForAnalysis{variant}, responses, analysisQuestions())
	answer := unmapped[0].Responses[0]
	assert.False(t, answer.IsCorrect)
	assert.Equal(t, 0.0, answer.Points)
	assert.Equal(t, 0.0, unmapped[0].TotalScore)
}

func TestUnmapResponses_BlankAndUnresolvable(t *testing.T) {
	variant := models.VariantForAnalysis{VariantCode: "var_1"}
	responses := []models.StudentResponse{
		{
			StudentID:   "s1",
			VariantCode: "var_1",
			Responses: []models.QuestionResponse{
				{QuestionID: "q1", StudentAnswer: "   ", MaxPoints: 1},
				{QuestionID: "q2", StudentAnswer: "Maybe", MaxPoints: 1},
			},
		},
	}

	unmapped := UnmapResponses([]models.VariantForAnalysis{variant}, responses, analysisQuestions())
	assert.Equal(t, "", unmapped[0].Responses[0].StudentAnswer)
	assert.False(t, unmapped[0].Responses[0].IsCorrect)
	assert.Equal(t, "Maybe", unmapped[0].Responses[1].StudentAnswer)
	assert.False(t, unmapped[0].Responses[1].IsCorrect)
}

func TestUnmapResponses_UnknownVariantPassesThrough(t *testing.T) {
	responses := []models.StudentResponse{
		{
			StudentID:   "s1",
			VariantCode: "unknown",
			TotalScore:  3,
			Responses: []models.QuestionResponse{
				{QuestionID: "q1", StudentAnswer: "B", IsCorrect: true, Points: 3, MaxPoints: 3},
			},
		},
	}

	unmapped := UnmapResponses(nil, responses, analysisQuestions())
	require.Len(t, unmapped, 1)
	assert.Equal(t, responses[0], unmapped[0])
}

func TestOriginalQuestions_InvertsMetadata(t *testing.T) {
	variant := models.ExamVariant{
		ID: "var_1",
		Questions: []models.Question{
			{
				ID:            "q2",
				Text:          "The Earth is flat.",
				Type:          models.TrueFalse,
				Options:       []string{"False", "True"},
				CorrectAnswer: "False",
			},
			{
				ID:            "q1",
				Text:          "Capital of France?",
				Type:          models.MultipleChoice,
				Options:       []string{"London", "Paris", "Madrid", "Berlin"},
				CorrectAnswer: "Paris",
			},
		},
		Metadata: models.VariantMetadata{
			OriginalQuestionCount: 2,
			QuestionOrder:         []int{1, 0},
			OptionPermutations: map[string][]int{
				"q2": {1, 0},
				"q1": {1, 0, 3, 2},
			},
		},
	}

	originals := OriginalQuestions(variant)
	require.Len(t, originals, 2)

	assert.Equal(t, "q1", originals[0].ID)
	assert.Equal(t, []string{"Paris", "London", "Berlin", "Madrid"}, originals[0].Options)
	assert.Equal(t, "Paris", originals[0].CorrectAnswer)

	assert.Equal(t, "q2", originals[1].ID)
	assert.Equal(t, []string{"True", "False"}, originals[1].Options)
}

func TestOriginalQuestions_SubsetCompacted(t *testing.T) {
	variant := models.ExamVariant{
		ID: "var_1",
		Questions: []models.Question{
			{ID: "q3", Text: "Third", Type: models.MultipleChoice, Options: []string{"A", "B"}, CorrectAnswer: "A"},
		},
		Metadata: models.VariantMetadata{
			OriginalQuestionCount: 4,
			QuestionOrder:         []int{2},
		},
	}

	originals := OriginalQuestions(variant)
	require.Len(t, originals, 1)
	assert.Equal(t, "q3", originals[0].ID)
}
