// Package analysis computes post-hoc psychometric item statistics over
// unmapped student responses: difficulty, discrimination, point-biserial
// correlation, distractor behavior, significance against random guessing
// and reliability. It is pure computation over in-memory data; callers own
// persistence, caching and transport.
package analysis

import (
	"fmt"
	"time"

	apperrors "github.com/NarimanMilanfar/exam-analysis-service/internal/errors"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/models"
)

// Engine runs bi-serial/point-biserial analyses. It is stateless and
// re-entrant; concurrent analyses need no coordination.
type Engine struct{}

// NewEngine creates an analysis engine.
func NewEngine() *Engine {
	return &Engine{}
}

// AnalyzeExam pools all responses into one analysis. Variant metadata is
// used to unmap each response into original-question space first; every
// statistic is computed there.
func (e *Engine) AnalyzeExam(
	examID string,
	variants []models.VariantForAnalysis,
	responses []models.StudentResponse,
	questions []models.AnalysisQuestion,
	config models.AnalysisConfig,
) (*models.BiPointAnalysisResult, error) {
	if config.ConfidenceLevel <= 0 || config.ConfidenceLevel >= 1 {
		config.ConfidenceLevel = models.DefaultAnalysisConfig().ConfidenceLevel
	}

	unmapped := UnmapResponses(variants, responses, questions)

	included, err := filterSample(unmapped, config)
	if err != nil {
		return nil, err
	}

	byQuestion := groupByQuestion(included, questions)

	results := make([]models.QuestionAnalysisResult, 0, len(questions))
	totalsByStudent := studentTotals(included)
	var diffSum, discSum, pbisSum float64

	for _, q := range questions {
		obs := byQuestion[q.ID]
		qr := models.QuestionAnalysisResult{
			QuestionID:   q.ID,
			QuestionText: q.Text,
			QuestionType: q.Type,
			SampleSize:   len(obs),
		}
		for _, o := range obs {
			if o.correct {
				qr.CorrectCount++
			}
		}
		qr.DifficultyIndex = difficultyIndex(obs)
		qr.DiscriminationIndex = discriminationIndex(obs)
		qr.PointBiserial = pointBiserial(obs, func(o itemObservation) bool { return o.correct })
		qr.Distractors = distractorAnalysis(q, obs)
		qr.Significance = significanceTest(obs, config.ConfidenceLevel)
		if config.IncludeReliability {
			qr.Reliability = reliabilityMetrics(obs)
		}

		diffSum += qr.DifficultyIndex
		discSum += qr.DiscriminationIndex
		pbisSum += qr.PointBiserial
		results = append(results, qr)
	}

	summary := models.AnalysisSummary{}
	if len(results) > 0 {
		n := float64(len(results))
		summary.MeanDifficulty = diffSum / n
		summary.MeanDiscrimination = discSum / n
		summary.MeanPointBiserial = pbisSum / n
	}
	summary.ScoreDistribution = scoreDistribution(totalsByStudent)
	summary.CronbachAlpha = cronbachAlpha(correctnessMatrix(included, questions), config.ConfidenceLevel)

	return &models.BiPointAnalysisResult{
		ExamID:    examID,
		Config:    config,
		Questions: results,
		Summary:   summary,
		Metadata: models.AnalysisMetadata{
			TotalResponses:    len(responses),
			IncludedResponses: len(included),
			ExcludedResponses: len(responses) - len(included),
			QuestionCount:     len(questions),
			VariantCount:      len(variants),
			GeneratedAt:       time.Now().UTC(),
		},
	}, nil
}

// AnalyzeByVariant partitions responses per variant code and produces one
// result per variant that has responses. A partition that fails the sample
// checks fails the whole call; variants without responses are omitted.
func (e *Engine) AnalyzeByVariant(
	examID string,
	variants []models.VariantForAnalysis,
	responses []models.StudentResponse,
	questions []models.AnalysisQuestion,
	config models.AnalysisConfig,
) (map[string]*models.BiPointAnalysisResult, error) {
	if len(responses) == 0 {
		return nil, apperrors.NewInsufficientDataError("No student responses found for analysis", 0, 1)
	}

	partitions := make(map[string][]models.StudentResponse)
	for _, r := range responses {
		partitions[r.VariantCode] = append(partitions[r.VariantCode], r)
	}

	results := make(map[string]*models.BiPointAnalysisResult, len(partitions))
	for _, v := range variants {
		part, ok := partitions[v.VariantCode]
		if !ok {
			continue
		}
		res, err := e.AnalyzeExam(examID, variants, part, questions, config)
		if err != nil {
			return nil, fmt.Errorf("variant %s: %w", v.VariantCode, err)
		}
		results[v.VariantCode] = res
	}
	return results, nil
}

// filterSample applies the empty-set, minimum-size and completeness checks
// in order, re-applying the size checks after incomplete responses are
// dropped.
func filterSample(responses []models.StudentResponse, config models.AnalysisConfig) ([]models.StudentResponse, error) {
	if len(responses) == 0 {
		return nil, apperrors.NewInsufficientDataError("No student responses found for analysis", 0, 1)
	}
	if config.MinSampleSize > len(responses) {
		return nil, apperrors.NewInsufficientDataError(
			fmt.Sprintf("Insufficient sample size: %d responses available, %d required",
				len(responses), config.MinSampleSize),
			len(responses), config.MinSampleSize)
	}

	included := responses
	if config.ExcludeIncompleteData {
		included = included[:0:0]
		for _, r := range responses {
			if r.CompletedAt == nil || len(r.Responses) == 0 {
				continue
			}
			included = append(included, r)
		}
		if len(included) == 0 {
			return nil, apperrors.NewInsufficientDataError("No student responses found for analysis", 0, 1)
		}
		if config.MinSampleSize > len(included) {
			return nil, apperrors.NewInsufficientDataError(
				fmt.Sprintf("Insufficient sample size: %d complete responses available, %d required",
					len(included), config.MinSampleSize),
				len(included), config.MinSampleSize)
		}
	}
	return included, nil
}

func groupByQuestion(responses []models.StudentResponse, questions []models.AnalysisQuestion) map[string][]itemObservation {
	known := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
	}

	grouped := make(map[string][]itemObservation, len(questions))
	for _, r := range responses {
		for _, qr := range r.Responses {
			if _, ok := known[qr.QuestionID]; !ok {
				continue
			}
			grouped[qr.QuestionID] = append(grouped[qr.QuestionID], itemObservation{
				studentID: r.StudentID,
				answer:    qr.StudentAnswer,
				correct:   qr.IsCorrect,
				total:     r.TotalScore,
			})
		}
	}
	return grouped
}

func studentTotals(responses []models.StudentResponse) []float64 {
	totals := make([]float64, len(responses))
	for i, r := range responses {
		totals[i] = r.TotalScore
	}
	return totals
}

// correctnessMatrix builds the student-by-item 0/1 matrix feeding
// Cronbach's alpha. A question a student never saw (subset variants)
// counts as 0 for that student.
func correctnessMatrix(responses []models.StudentResponse, questions []models.AnalysisQuestion) [][]float64 {
	index := make(map[string]int, len(questions))
	for i, q := range questions {
		index[q.ID] = i
	}

	matrix := make([][]float64, len(responses))
	for i, r := range responses {
		row := make([]float64, len(questions))
		for _, qr := range r.Responses {
			if j, ok := index[qr.QuestionID]; ok && qr.IsCorrect {
				row[j] = 1
			}
		}
		matrix[i] = row
	}
	return matrix
}
