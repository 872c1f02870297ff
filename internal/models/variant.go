package models

import (
	"time"

	"gorm.io/datatypes"
)

// VariationConfig controls how exam variants are generated. Callers usually
// build it through handlers.GenerateVariantsRequest.ApplyDefaults, which
// resolves absent fields to the documented defaults (question and option
// order randomization on, the rest off, 3 variants, uniqueness mode).
type VariationConfig struct {
	RandomizeQuestionOrder    bool   `json:"randomize_question_order"`
	RandomizeOptionOrder      bool   `json:"randomize_option_order"`
	RandomizeTrueFalseOptions bool   `json:"randomize_true_false_options"`
	RandomizeQuestionSubset   bool   `json:"randomize_question_subset"`
	QuestionCount             int    `json:"question_count,omitempty"`
	Seed                      string `json:"seed,omitempty" validate:"omitempty,variation_seed"`
	MaxVariations             int    `json:"max_variations" validate:"min=1"`
	EnforceMaxVariations      bool   `json:"enforce_max_variations"`
}

// DefaultVariationConfig returns the documented default configuration.
func DefaultVariationConfig() VariationConfig {
	return VariationConfig{
		RandomizeQuestionOrder: true,
		RandomizeOptionOrder:   true,
		MaxVariations:          3,
	}
}

// VariantMetadata records, per variant, exactly how the original questions
// were rearranged. It is the only channel through which the analysis engine
// can invert variant-specific shuffling, so its serialized shape is a wire
// contract: QuestionOrder[i] is the original index of the question now at
// position i, and OptionPermutations[questionID][i] is the original option
// index now at variant position i. Questions without an entry in
// OptionPermutations were not permuted.
type VariantMetadata struct {
	OriginalQuestionCount int              `json:"original_question_count"`
	VariantNumber         int              `json:"variant_number"`
	Seed                  string           `json:"seed"`
	Timestamp             time.Time        `json:"timestamp"`
	QuestionOrder         []int            `json:"question_order"`
	OptionPermutations    map[string][]int `json:"option_permutations,omitempty"`
}

// ExamVariant is one materialized, possibly shuffled rendition of an exam.
// Created once by the generator and immutable thereafter.
type ExamVariant struct {
	ID        string          `json:"id"`
	Questions []Question      `json:"questions"`
	Metadata  VariantMetadata `json:"metadata"`
}

// AnswerKeyEntry is one row of a variant's stored answer key.
type AnswerKeyEntry struct {
	QuestionID     string `json:"question_id"`
	QuestionNumber int    `json:"question_number"`
	CorrectAnswer  string `json:"correct_answer"`
	OriginalAnswer string `json:"original_answer"`
}

// AnswerKey builds the per-position answer key for a variant.
func (v ExamVariant) AnswerKey() []AnswerKeyEntry {
	key := make([]AnswerKeyEntry, len(v.Questions))
	for i, q := range v.Questions {
		key[i] = AnswerKeyEntry{
			QuestionID:     q.ID,
			QuestionNumber: i + 1,
			CorrectAnswer:  q.CorrectAnswer,
			OriginalAnswer: q.CorrectAnswer,
		}
	}
	return key
}

// GenerationStatistics summarizes a generation run.
type GenerationStatistics struct {
	TheoreticalMax      int  `json:"theoretical_max"`
	RequestedCount      int  `json:"requested_count"`
	UniquenessEnforced  bool `json:"uniqueness_enforced"`
	DuplicatesRejected  int  `json:"duplicates_rejected"`
	QuestionsPerVariant int  `json:"questions_per_variant"`
}

// GenerationResult is the full output of one generator call.
type GenerationResult struct {
	Variants        []ExamVariant        `json:"variants"`
	TotalVariations int                  `json:"total_variations"`
	Config          VariationConfig      `json:"config"`
	Statistics      GenerationStatistics `json:"statistics"`
}

// ExamVariantRecord is the persisted form of a variant. Metadata and the
// answer key are stored as jsonb; that JSON is what analysis reads back
// later, so any shape change breaks answer-key reconstruction for variants
// generated before the change.
type ExamVariantRecord struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	ExamID        string         `json:"exam_id" gorm:"not null;size:64;index"`
	VariantCode   string         `json:"variant_code" gorm:"not null;size:64;uniqueIndex"`
	VariantNumber int            `json:"variant_number" gorm:"not null"`
	Seed          string         `json:"seed" gorm:"not null;size:128"`
	Questions     datatypes.JSON `json:"questions" gorm:"type:jsonb"`
	Metadata      datatypes.JSON `json:"metadata" gorm:"type:jsonb"`
	AnswerKey     datatypes.JSON `json:"answer_key" gorm:"type:jsonb"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (ExamVariantRecord) TableName() string {
	return "exam_variants"
}
