package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/NarimanMilanfar/exam-analysis-service/internal/errors"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/models"
)

func completed() *time.Time {
	t := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return &t
}

func response(studentID, variantCode string, answers map[string]string, key map[string]string) models.StudentResponse {
	r := models.StudentResponse{
		StudentID:   studentID,
		VariantCode: variantCode,
		CompletedAt: completed(),
	}
	for qid, answer := range answers {
		correct := answer == key[qid]
		points := 0.0
		if correct {
			points = 1
		}
		r.Responses = append(r.Responses, models.QuestionResponse{
			QuestionID:    qid,
			StudentAnswer: answer,
			IsCorrect:     correct,
			Points:        points,
			MaxPoints:     1,
		})
		r.TotalScore += points
		r.MaxPossibleScore++
	}
	return r
}

func engineFixture() ([]models.VariantForAnalysis, []models.StudentResponse, []models.AnalysisQuestion) {
	questions := analysisQuestions()
	variants := []models.VariantForAnalysis{
		{VariantCode: "var_a"},
		{VariantCode: "var_b", OptionPermutations: map[string][]int{"q1": {1, 0, 3, 2}}},
	}
	key := map[string]string{"q1": "Paris", "q2": "False"}
	responses := []models.StudentResponse{
		response("s1", "var_a", map[string]string{"q1": "Paris", "q2": "False"}, key),
		response("s2", "var_a", map[string]string{"q1": "London", "q2": "False"}, key),
		response("s3", "var_b", map[string]string{"q1": "Paris", "q2": "True"}, key),
		response("s4", "var_b", map[string]string{"q1": "Berlin", "q2": "True"}, key),
	}
	return variants, responses, questions
}

func TestAnalyzeExam_ProducesPerQuestionResults(t *testing.T) {
	variants, responses, questions := engineFixture()

	result, err := NewEngine().AnalyzeExam("exam-1", variants, responses, questions, models.DefaultAnalysisConfig())
	require.NoError(t, err)

	assert.Equal(t, "exam-1", result.ExamID)
	require.Len(t, result.Questions, 2)

	byID := map[string]models.QuestionAnalysisResult{}
	for _, q := range result.Questions {
		byID[q.QuestionID] = q
	}

	q1 := byID["q1"]
	assert.Equal(t, 4, q1.SampleSize)
	assert.Equal(t, 2, q1.CorrectCount)
	assert.Equal(t, 0.5, q1.DifficultyIndex)
	require.NotNil(t, q1.Distractors)
	require.NotNil(t, q1.Significance)

	q2 := byID["q2"]
	assert.Equal(t, 2, q2.CorrectCount)

	assert.Equal(t, 4, result.Metadata.TotalResponses)
	assert.Equal(t, 4, result.Metadata.IncludedResponses)
	assert.Equal(t, 2, result.Metadata.QuestionCount)
	assert.Equal(t, 2, result.Metadata.VariantCount)
	assert.False(t, result.Metadata.GeneratedAt.IsZero())
}

func TestAnalyzeExam_EmptyResponses(t *testing.T) {
	variants, _, questions := engineFixture()

	_, err := NewEngine().AnalyzeExam("exam-1", variants, nil, questions, models.DefaultAnalysisConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientData)
	assert.Contains(t, err.Error(), "No student responses found for analysis")
}

func TestAnalyzeExam_MinSampleSize(t *testing.T) {
	variants, responses, questions := engineFixture()
	config := models.DefaultAnalysisConfig()
	config.MinSampleSize = 10

	_, err := NewEngine().AnalyzeExam("exam-1", variants, responses, questions, config)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientData)
	assert.Contains(t, err.Error(), "4 responses available, 10 required")
}

func TestAnalyzeExam_ExcludesIncompleteResponses(t *testing.T) {
	variants, responses, questions := engineFixture()
	incomplete := responses[0]
	incomplete.StudentID = "s5"
	incomplete.CompletedAt = nil
	responses = append(responses, incomplete)

	config := models.DefaultAnalysisConfig()
	config.ExcludeIncompleteData = true

	result, err := NewEngine().AnalyzeExam("exam-1", variants, responses, questions, config)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Metadata.TotalResponses)
	assert.Equal(t, 4, result.Metadata.IncludedResponses)
	assert.Equal(t, 1, result.Metadata.ExcludedResponses)
}

func TestAnalyzeExam_InvalidConfidenceFallsBack(t *testing.T) {
	variants, responses, questions := engineFixture()
	config := models.AnalysisConfig{ConfidenceLevel: 7}

	result, err := NewEngine().AnalyzeExam("exam-1", variants, responses, questions, config)
	require.NoError(t, err)
	assert.Equal(t, 0.95, result.Config.ConfidenceLevel)
}

func TestAnalyzeExam_UnmapsBeforeAnalyzing(t *testing.T) {
	questions := analysisQuestions()
	variants := []models.VariantForAnalysis{
		{VariantCode: "var_p", OptionPermutations: map[string][]int{"q1": {1, 0, 3, 2}}},
	}
	// "A" on var_p is variant position 0 -> original option 1 -> London.
	// "B" is position 1 -> original option 0 -> Paris.
	responses := []models.StudentResponse{
		{StudentID: "s1", VariantCode: "var_p", CompletedAt: completed(), Responses: []models.QuestionResponse{
			{QuestionID: "q1", StudentAnswer: "B", MaxPoints: 1},
		}},
		{StudentID: "s2", VariantCode: "var_p", CompletedAt: completed(), Responses: []models.QuestionResponse{
			{QuestionID: "q1", StudentAnswer: "A", MaxPoints: 1},
		}},
	}

	result, err := NewEngine().AnalyzeExam("exam-1", variants, responses, questions, models.DefaultAnalysisConfig())
	require.NoError(t, err)

	require.Len(t, result.Questions, 2)
	var q1 models.QuestionAnalysisResult
	for _, q := range result.Questions {
		if q.QuestionID == "q1" {
			q1 = q
		}
	}
	assert.Equal(t, 1, q1.CorrectCount)
	require.NotNil(t, q1.Distractors)
	assert.Equal(t, 1, q1.Distractors.CorrectOption.Frequency)
}

func TestAnalyzeByVariant_PartitionsResponses(t *testing.T) {
	variants, responses, questions := engineFixture()

	results, err := NewEngine().AnalyzeByVariant("exam-1", variants, responses, questions, models.DefaultAnalysisConfig())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 2, results["var_a"].Metadata.IncludedResponses)
	assert.Equal(t, 2, results["var_b"].Metadata.IncludedResponses)
}

func TestAnalyzeByVariant_OmitsVariantsWithoutResponses(t *testing.T) {
	variants, responses, questions := engineFixture()
	variants = append(variants, models.VariantForAnalysis{VariantCode: "var_empty"})

	results, err := NewEngine().AnalyzeByVariant("exam-1", variants, responses, questions, models.DefaultAnalysisConfig())
	require.NoError(t, err)
	assert.NotContains(t, results, "var_empty")
}

func TestAnalyzeByVariant_EmptyResponses(t *testing.T) {
	variants, _, questions := engineFixture()

	_, err := NewEngine().AnalyzeByVariant("exam-1", variants, nil, questions, models.DefaultAnalysisConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientData)
}

func TestAnalyzeByVariant_PartitionFailureNamesVariant(t *testing.T) {
	variants, responses, questions := engineFixture()
	config := models.DefaultAnalysisConfig()
	config.MinSampleSize = 3 // each partition only has 2

	_, err := NewEngine().AnalyzeByVariant("exam-1", variants, responses, questions, config)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientData)
	assert.Contains(t, err.Error(), "variant var_")
}
