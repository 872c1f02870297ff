package models

import "time"

// AnalysisQuestion describes a question in original (pre-shuffle) space.
// The analyzer only ever computes statistics against these.
type AnalysisQuestion struct {
	ID            string       `json:"id"`
	Text          string       `json:"text,omitempty"`
	Options       []string     `json:"options"`
	CorrectAnswer string       `json:"correct_answer"`
	Type          QuestionType `json:"type"`
}

// VariantForAnalysis is the slice of variant state the analyzer needs to
// unmap responses: the permutation metadata plus the stored answer key.
type VariantForAnalysis struct {
	VariantCode        string           `json:"variant_code"`
	QuestionOrder      []int            `json:"question_order"`
	OptionPermutations map[string][]int `json:"option_permutations,omitempty"`
	AnswerKey          []AnswerKeyEntry `json:"answer_key"`
}

// AnalysisConfig tunes the analysis run.
type AnalysisConfig struct {
	MinSampleSize         int     `json:"min_sample_size" validate:"min=0"`
	ExcludeIncompleteData bool    `json:"exclude_incomplete_data"`
	ConfidenceLevel       float64 `json:"confidence_level" validate:"omitempty,gt=0,lt=1"`
	IncludeReliability    bool    `json:"include_reliability"`
	IncludeSimilarity     bool    `json:"include_similarity"`
}

// DefaultAnalysisConfig returns the standard analysis settings.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		ConfidenceLevel:    0.95,
		IncludeReliability: true,
	}
}

// OptionStat holds selection statistics for one answer option.
type OptionStat struct {
	OptionText     string  `json:"option_text"`
	Frequency      int     `json:"frequency"`
	Percentage     float64 `json:"percentage"`
	SelectionRate  float64 `json:"selection_rate"`
	PointBiserial  float64 `json:"point_biserial"`
	IsCorrect      bool    `json:"is_correct"`
	ChosenByTopGrp int     `json:"chosen_by_top_group"`
	ChosenByLowGrp int     `json:"chosen_by_low_group"`
}

// DistractorAnalysis separates the correct option's statistics from the
// distractor list and tracks omitted (blank) responses.
type DistractorAnalysis struct {
	CorrectOption  OptionStat   `json:"correct_option"`
	Distractors    []OptionStat `json:"distractors"`
	OmittedCount   int          `json:"omitted_count"`
	OmittedPercent float64      `json:"omitted_percent"`
}

// SignificanceResult reports the goodness-of-fit test against the
// random-guessing null hypothesis.
type SignificanceResult struct {
	TestUsed           string    `json:"test_used"`
	Statistic          float64   `json:"statistic"`
	PValue             float64   `json:"p_value"`
	CriticalValue      float64   `json:"critical_value"`
	DegreesOfFreedom   int       `json:"degrees_of_freedom"`
	ConfidenceLevel    float64   `json:"confidence_level"`
	ConfidenceInterval [2]float64 `json:"confidence_interval"`
	Significant        bool      `json:"significant"`
	Warnings           []string  `json:"warnings,omitempty"`
}

// ReliabilityMetrics is optional per-item reliability data; nil when the
// calculation is degenerate (fewer than 3 responses, zero variance).
type ReliabilityMetrics struct {
	ItemTotalCorrelation    float64 `json:"item_total_correlation"`
	ReliabilityContribution float64 `json:"reliability_contribution"`
}

// QuestionAnalysisResult is the per-question block of an analysis.
type QuestionAnalysisResult struct {
	QuestionID          string              `json:"question_id"`
	QuestionText        string              `json:"question_text,omitempty"`
	QuestionType        QuestionType        `json:"question_type"`
	SampleSize          int                 `json:"sample_size"`
	CorrectCount        int                 `json:"correct_count"`
	DifficultyIndex     float64             `json:"difficulty_index"`
	DiscriminationIndex float64             `json:"discrimination_index"`
	PointBiserial       float64             `json:"point_biserial"`
	Distractors         *DistractorAnalysis `json:"distractor_analysis,omitempty"`
	Significance        *SignificanceResult `json:"significance,omitempty"`
	Reliability         *ReliabilityMetrics `json:"reliability,omitempty"`
}

// ScoreDistribution describes the total-score distribution. Skewness and
// kurtosis are nil when the underlying calculation is degenerate rather
// than being reported as errors.
type ScoreDistribution struct {
	Mean     float64  `json:"mean"`
	Median   float64  `json:"median"`
	StdDev   float64  `json:"std_dev"`
	Skewness *float64 `json:"skewness"`
	Kurtosis *float64 `json:"kurtosis"`
	Min      float64  `json:"min"`
	Max      float64  `json:"max"`
	Q1       float64  `json:"q1"`
	Q2       float64  `json:"q2"`
	Q3       float64  `json:"q3"`
}

// AlphaResult carries Cronbach's alpha with its standard error and
// confidence interval.
type AlphaResult struct {
	Alpha              float64    `json:"alpha"`
	StandardError      float64    `json:"standard_error"`
	ConfidenceInterval [2]float64 `json:"confidence_interval"`
}

// AnalysisSummary aggregates across questions.
type AnalysisSummary struct {
	MeanDifficulty     float64           `json:"mean_difficulty"`
	MeanDiscrimination float64           `json:"mean_discrimination"`
	MeanPointBiserial  float64           `json:"mean_point_biserial"`
	ScoreDistribution  ScoreDistribution `json:"score_distribution"`
	CronbachAlpha      *AlphaResult      `json:"cronbach_alpha,omitempty"`
}

// AnalysisMetadata records what went into the analysis.
type AnalysisMetadata struct {
	TotalResponses    int       `json:"total_responses"`
	IncludedResponses int       `json:"included_responses"`
	ExcludedResponses int       `json:"excluded_responses"`
	QuestionCount     int       `json:"question_count"`
	VariantCount      int       `json:"variant_count"`
	GeneratedAt       time.Time `json:"generated_at"`
}

// BiPointAnalysisResult is the top-level analysis output, created fresh per
// call and never mutated.
type BiPointAnalysisResult struct {
	ExamID    string                   `json:"exam_id"`
	ExamTitle string                   `json:"exam_title,omitempty"`
	Config    AnalysisConfig           `json:"analysis_config"`
	Questions []QuestionAnalysisResult `json:"questions"`
	Summary   AnalysisSummary          `json:"summary"`
	Metadata  AnalysisMetadata         `json:"metadata"`
}

// SimilarityMatrix is a symmetric matrix keyed by the ids in Keys; the
// diagonal is always 1.
type SimilarityMatrix struct {
	Keys   []string    `json:"keys"`
	Values [][]float64 `json:"values"`
}
