package variantgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/NarimanMilanfar/exam-analysis-service/internal/errors"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/models"
)

func mcQuestion(id, text string, options []string, correct string) models.Question {
	return models.Question{
		ID:            id,
		Text:          text,
		Type:          models.MultipleChoice,
		Options:       options,
		CorrectAnswer: correct,
		Points:        1,
	}
}

func sampleQuestions() []models.Question {
	return []models.Question{
		mcQuestion("q1", "Capital of France?", []string{"Paris", "London", "Berlin", "Madrid"}, "Paris"),
		mcQuestion("q2", "2 + 2 = ?", []string{"3", "4", "5"}, "4"),
		{
			ID:            "q3",
			Text:          "The Earth is flat.",
			Type:          models.TrueFalse,
			CorrectAnswer: "False",
			Points:        1,
		},
		mcQuestion("q4", "Largest planet?", []string{"Mars", "Jupiter", "Venus", "Saturn"}, "Jupiter"),
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	config := models.VariationConfig{
		RandomizeQuestionOrder: true,
		RandomizeOptionOrder:   true,
		Seed:                   "fixed_seed",
		MaxVariations:          3,
		EnforceMaxVariations:   true,
	}

	g := NewGenerator()
	first, err := g.Generate(sampleQuestions(), config)
	require.NoError(t, err)
	second, err := g.Generate(sampleQuestions(), config)
	require.NoError(t, err)

	require.Len(t, first.Variants, 3)
	for i := range first.Variants {
		assert.Equal(t, first.Variants[i].ID, second.Variants[i].ID)
		assert.Equal(t, first.Variants[i].Metadata.QuestionOrder, second.Variants[i].Metadata.QuestionOrder)
		assert.Equal(t, first.Variants[i].Metadata.OptionPermutations, second.Variants[i].Metadata.OptionPermutations)
		assert.Equal(t, first.Variants[i].Questions, second.Variants[i].Questions)
	}
}

func TestGenerate_PerVariantSeeds(t *testing.T) {
	config := models.VariationConfig{
		RandomizeQuestionOrder: true,
		Seed:                   "base",
		MaxVariations:          3,
		EnforceMaxVariations:   true,
	}

	result, err := NewGenerator().Generate(sampleQuestions(), config)
	require.NoError(t, err)
	require.Len(t, result.Variants, 3)

	assert.Equal(t, "base_v0", result.Variants[0].Metadata.Seed)
	assert.Equal(t, "base_v1", result.Variants[1].Metadata.Seed)
	assert.Equal(t, "base_v2", result.Variants[2].Metadata.Seed)
}

func TestGenerate_DerivedSeedStableForSameContent(t *testing.T) {
	config := models.VariationConfig{
		RandomizeQuestionOrder: true,
		MaxVariations:          1,
		EnforceMaxVariations:   true,
	}

	first, err := NewGenerator().Generate(sampleQuestions(), config)
	require.NoError(t, err)
	second, err := NewGenerator().Generate(sampleQuestions(), config)
	require.NoError(t, err)

	assert.NotEmpty(t, first.Config.Seed)
	assert.Equal(t, first.Config.Seed, second.Config.Seed)
	assert.Equal(t, first.Variants[0].Metadata.QuestionOrder, second.Variants[0].Metadata.QuestionOrder)

	// Changing content changes the derived seed.
	changed := sampleQuestions()
	changed[0].CorrectAnswer = "London"
	changed[0].Options = []string{"London", "Paris"}
	third, err := NewGenerator().Generate(changed, config)
	require.NoError(t, err)
	assert.NotEqual(t, first.Config.Seed, third.Config.Seed)
}

func TestGenerate_QuestionOrderIsPermutation(t *testing.T) {
	config := models.VariationConfig{
		RandomizeQuestionOrder: true,
		Seed:                   "perm_check",
		MaxVariations:          5,
		EnforceMaxVariations:   true,
	}

	result, err := NewGenerator().Generate(sampleQuestions(), config)
	require.NoError(t, err)

	for _, v := range result.Variants {
		seen := make(map[int]bool)
		require.Len(t, v.Metadata.QuestionOrder, 4)
		for _, idx := range v.Metadata.QuestionOrder {
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, 4)
			assert.False(t, seen[idx])
			seen[idx] = true
		}
		// Variant questions follow the recorded order.
		questions := sampleQuestions()
		for i, idx := range v.Metadata.QuestionOrder {
			assert.Equal(t, questions[idx].ID, v.Questions[i].ID)
		}
	}
}

func TestGenerate_OptionPermutationPreservesCorrectAnswer(t *testing.T) {
	config := models.VariationConfig{
		RandomizeOptionOrder: true,
		Seed:                 "opt_check",
		MaxVariations:        10,
		EnforceMaxVariations: true,
	}

	result, err := NewGenerator().Generate(sampleQuestions(), config)
	require.NoError(t, err)

	originals := map[string]models.Question{}
	for _, q := range sampleQuestions() {
		originals[q.ID] = q
	}

	for _, v := range result.Variants {
		for _, q := range v.Questions {
			orig := originals[q.ID]
			// Same option multiset, same correct answer text.
			assert.ElementsMatch(t, orig.Options, q.Options)
			if q.Type == models.MultipleChoice {
				assert.Equal(t, orig.CorrectAnswer, q.CorrectAnswer)
			}
			// The correct answer is present at some shuffled position.
			assert.Contains(t, q.Options, q.CorrectAnswer)

			// Recorded permutation maps variant positions back to original
			// option indexes.
			if perm, ok := v.Metadata.OptionPermutations[q.ID]; ok {
				require.Len(t, perm, len(orig.Options))
				for pos, origIdx := range perm {
					assert.Equal(t, orig.Options[origIdx], q.Options[pos])
				}
			}
		}
	}
}

func TestGenerate_TrueFalseNormalization(t *testing.T) {
	questions := []models.Question{
		{
			ID:            "tf1",
			Text:          "Water boils at 100C at sea level.",
			Type:          models.TrueFalse,
			CorrectAnswer: "true",
			Points:        1,
		},
		mcQuestion("q2", "Filler", []string{"A", "B"}, "A"),
	}
	config := models.VariationConfig{
		RandomizeTrueFalseOptions: true,
		Seed:                      "tf_seed",
		MaxVariations:             8,
		EnforceMaxVariations:      true,
	}

	result, err := NewGenerator().Generate(questions, config)
	require.NoError(t, err)

	for _, v := range result.Variants {
		tf := v.Questions[0]
		require.Equal(t, "tf1", tf.ID)
		assert.ElementsMatch(t, []string{"True", "False"}, tf.Options)
		// Lowercase "true" resolves to the canonical option text.
		assert.Equal(t, "True", tf.CorrectAnswer)
	}
}

func TestGenerate_EnforceModeProducesExactCount(t *testing.T) {
	// One TF question with TF randomization: theoretical space is 2, but
	// enforce mode repeats permutations to hit the requested count.
	questions := []models.Question{
		{ID: "tf1", Text: "Go compiles to machine code.", Type: models.TrueFalse, CorrectAnswer: "True", Points: 1},
	}
	config := models.VariationConfig{
		RandomizeTrueFalseOptions: true,
		Seed:                      "enforce",
		MaxVariations:             5,
		EnforceMaxVariations:      true,
	}

	result, err := NewGenerator().Generate(questions, config)
	require.NoError(t, err)
	assert.Len(t, result.Variants, 5)
	assert.Equal(t, 2, result.Statistics.TheoreticalMax)
	assert.False(t, result.Statistics.UniquenessEnforced)
}

func TestGenerate_UniquenessModeCapsAtTheoreticalMax(t *testing.T) {
	questions := []models.Question{
		{ID: "tf1", Text: "Go compiles to machine code.", Type: models.TrueFalse, CorrectAnswer: "True", Points: 1},
	}
	config := models.VariationConfig{
		RandomizeTrueFalseOptions: true,
		Seed:                      "unique",
		MaxVariations:             5,
	}

	result, err := NewGenerator().Generate(questions, config)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Variants), 2)
	assert.True(t, result.Statistics.UniquenessEnforced)

	// All produced variants are structurally distinct.
	seen := make(map[string]bool)
	for _, v := range result.Variants {
		key := variantKey(v)
		assert.False(t, seen[key])
		seen[key] = true
	}
}

func TestGenerate_NoRandomizationSingleVariant(t *testing.T) {
	// Nothing to permute: theoretical space is 1 and uniqueness mode yields
	// exactly one variant in original order.
	questions := []models.Question{
		{ID: "tf1", Text: "Statement.", Type: models.TrueFalse, CorrectAnswer: "False", Points: 1},
	}
	config := models.VariationConfig{Seed: "still", MaxVariations: 3}

	result, err := NewGenerator().Generate(questions, config)
	require.NoError(t, err)
	require.Len(t, result.Variants, 1)
	assert.Equal(t, []int{0}, result.Variants[0].Metadata.QuestionOrder)
	assert.Nil(t, result.Variants[0].Metadata.OptionPermutations)
}

func TestGenerate_SubsetSampling(t *testing.T) {
	config := models.VariationConfig{
		RandomizeQuestionSubset: true,
		QuestionCount:           2,
		Seed:                    "subset",
		MaxVariations:           5,
		EnforceMaxVariations:    true,
	}

	result, err := NewGenerator().Generate(sampleQuestions(), config)
	require.NoError(t, err)

	for _, v := range result.Variants {
		assert.Len(t, v.Questions, 2)
		// Without order randomization the sampled indexes stay sorted.
		order := v.Metadata.QuestionOrder
		require.Len(t, order, 2)
		assert.Less(t, order[0], order[1])
		assert.Equal(t, 4, v.Metadata.OriginalQuestionCount)
	}
	assert.Equal(t, 2, result.Statistics.QuestionsPerVariant)
}

func TestGenerate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		questions []models.Question
		config    models.VariationConfig
		wantMsg   string
		wantIs    error
	}{
		{
			name:      "empty questions",
			questions: nil,
			config:    models.DefaultVariationConfig(),
			wantMsg:   "Questions array cannot be empty",
			wantIs:    apperrors.ErrInvalidInput,
		},
		{
			name:      "single question with order randomization",
			questions: []models.Question{mcQuestion("q1", "Only one", []string{"A", "B"}, "A")},
			config:    models.VariationConfig{RandomizeQuestionOrder: true, MaxVariations: 1},
			wantMsg:   "Cannot randomize a single question",
			wantIs:    apperrors.ErrInvalidInput,
		},
		{
			name:      "subset count zero",
			questions: sampleQuestions(),
			config:    models.VariationConfig{RandomizeQuestionSubset: true, MaxVariations: 1},
			wantMsg:   "Question count must be positive when subset randomization is enabled",
			wantIs:    apperrors.ErrInvalidInput,
		},
		{
			name:      "subset count too large",
			questions: sampleQuestions(),
			config:    models.VariationConfig{RandomizeQuestionSubset: true, QuestionCount: 9, MaxVariations: 1},
			wantMsg:   "Question count 9 exceeds available questions 4",
			wantIs:    apperrors.ErrInvalidInput,
		},
		{
			name: "correct answer not among options",
			questions: []models.Question{
				mcQuestion("q1", "Broken", []string{"A", "B"}, "C"),
				mcQuestion("q2", "Fine", []string{"A", "B"}, "A"),
			},
			config:  models.VariationConfig{MaxVariations: 1},
			wantMsg: "correct answer is not among the options",
			wantIs:  apperrors.ErrInvalidQuestion,
		},
		{
			name: "correct answer differs only by case",
			questions: []models.Question{
				mcQuestion("q1", "Case sensitive", []string{"Paris", "London"}, "paris"),
			},
			config:  models.VariationConfig{MaxVariations: 1},
			wantMsg: "correct answer is not among the options",
			wantIs:  apperrors.ErrInvalidQuestion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGenerator().Generate(tt.questions, tt.config)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantIs)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestGenerate_MaxVariationsCap(t *testing.T) {
	config := models.VariationConfig{
		RandomizeQuestionOrder: true,
		Seed:                   "capped",
		MaxVariations:          50,
		EnforceMaxVariations:   true,
	}

	result, err := NewGenerator(WithMaxVariationsCap(5)).Generate(sampleQuestions(), config)
	require.NoError(t, err)
	assert.Len(t, result.Variants, 5)
}

func TestRecreateVariant_MatchesGeneratedVariant(t *testing.T) {
	config := models.VariationConfig{
		RandomizeQuestionOrder: true,
		RandomizeOptionOrder:   true,
		Seed:                   "recreate_base",
		MaxVariations:          3,
		EnforceMaxVariations:   true,
	}

	g := NewGenerator()
	result, err := g.Generate(sampleQuestions(), config)
	require.NoError(t, err)

	for _, original := range result.Variants {
		recreated, err := g.RecreateVariant(sampleQuestions(), original.Metadata.Seed, config)
		require.NoError(t, err)

		assert.Equal(t, original.Metadata.QuestionOrder, recreated.Metadata.QuestionOrder)
		assert.Equal(t, original.Metadata.OptionPermutations, recreated.Metadata.OptionPermutations)
		assert.Equal(t, original.Questions, recreated.Questions)
	}
}

func TestRecreateVariant_RequiresSeed(t *testing.T) {
	_, err := NewGenerator().RecreateVariant(sampleQuestions(), "", models.DefaultVariationConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestTheoreticalMax_CountsFactorials(t *testing.T) {
	g := NewGenerator(WithMaxVariationsCap(1_000_000))
	questions := []models.Question{
		mcQuestion("q1", "A", []string{"1", "2", "3"}, "1"), // 3! = 6
		mcQuestion("q2", "B", []string{"1", "2"}, "1"),      // 2! = 2
	}

	// Question order only: 2! = 2.
	assert.Equal(t, 2, g.theoreticalMax(questions, models.VariationConfig{RandomizeQuestionOrder: true}))
	// Option order only: 6 * 2 = 12.
	assert.Equal(t, 12, g.theoreticalMax(questions, models.VariationConfig{RandomizeOptionOrder: true}))
	// Both: 2 * 12 = 24.
	assert.Equal(t, 24, g.theoreticalMax(questions, models.VariationConfig{
		RandomizeQuestionOrder: true,
		RandomizeOptionOrder:   true,
	}))
	// Nothing randomized: exactly one rendition.
	assert.Equal(t, 1, g.theoreticalMax(questions, models.VariationConfig{}))
}
