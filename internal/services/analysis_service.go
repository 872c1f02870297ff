package services

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/NarimanMilanfar/exam-analysis-service/internal/analysis"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/cache"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/events"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/models"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/repositories"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/utils"
)

// AnalysisService runs item analyses over stored variants and responses.
type AnalysisService interface {
	AnalyzeExam(ctx context.Context, examID string, config models.AnalysisConfig) (*models.BiPointAnalysisResult, error)
	AnalyzeByVariant(ctx context.Context, examID string, config models.AnalysisConfig) (map[string]*models.BiPointAnalysisResult, error)
	StudentSimilarity(ctx context.Context, examID string) (*models.SimilarityMatrix, error)
	VariantSimilarity(ctx context.Context, examID string) (*models.SimilarityMatrix, error)
}

type analysisService struct {
	variantRepo  repositories.VariantRepository
	responseRepo repositories.ResponseRepository
	engine       *analysis.Engine
	publisher    events.EventPublisher
	cache        cache.CacheService
	cacheTTL     time.Duration
	logger       *slog.Logger
	validator    *utils.Validator
}

func NewAnalysisService(
	variantRepo repositories.VariantRepository,
	responseRepo repositories.ResponseRepository,
	engine *analysis.Engine,
	publisher events.EventPublisher,
	cacheService cache.CacheService,
	cacheTTL time.Duration,
	logger *slog.Logger,
	validator *utils.Validator,
) AnalysisService {
	return &analysisService{
		variantRepo:  variantRepo,
		responseRepo: responseRepo,
		engine:       engine,
		publisher:    publisher,
		cache:        cacheService,
		cacheTTL:     cacheTTL,
		logger:       logger,
		validator:    validator,
	}
}

// AnalyzeExam loads everything the engine needs from storage, checks the
// cache keyed by (exam, config) and runs a pooled analysis on a miss.
func (s *analysisService) AnalyzeExam(ctx context.Context, examID string, config models.AnalysisConfig) (*models.BiPointAnalysisResult, error) {
	if err := s.validator.Validate(&config); err != nil {
		return nil, err
	}

	cacheKey := analysisCacheKey(examID, "pooled", config)
	var cached models.BiPointAnalysisResult
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		s.logger.Debug("Analysis cache hit", "exam_id", examID, "key", cacheKey)
		return &cached, nil
	}

	variants, responses, questions, err := s.loadAnalysisInputs(ctx, examID)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.AnalyzeExam(examID, variants, responses, questions, config)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, result, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache analysis result", "exam_id", examID, "error", err)
	}
	s.publishCompleted(ctx, examID, result, false)

	return result, nil
}

// AnalyzeByVariant produces one result per variant that has responses.
func (s *analysisService) AnalyzeByVariant(ctx context.Context, examID string, config models.AnalysisConfig) (map[string]*models.BiPointAnalysisResult, error) {
	if err := s.validator.Validate(&config); err != nil {
		return nil, err
	}

	cacheKey := analysisCacheKey(examID, "by-variant", config)
	var cached map[string]*models.BiPointAnalysisResult
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		s.logger.Debug("Analysis cache hit", "exam_id", examID, "key", cacheKey)
		return cached, nil
	}

	variants, responses, questions, err := s.loadAnalysisInputs(ctx, examID)
	if err != nil {
		return nil, err
	}

	results, err := s.engine.AnalyzeByVariant(examID, variants, responses, questions, config)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, results, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache analysis result", "exam_id", examID, "error", err)
	}
	for _, result := range results {
		s.publishCompleted(ctx, examID, result, true)
		break
	}

	return results, nil
}

// StudentSimilarity computes the pairwise answer-agreement matrix for all
// students of an exam.
func (s *analysisService) StudentSimilarity(ctx context.Context, examID string) (*models.SimilarityMatrix, error) {
	variants, responses, questions, err := s.loadAnalysisInputs(ctx, examID)
	if err != nil {
		return nil, err
	}
	// Compare answers in original-question space so students on different
	// variants are comparable.
	unmapped := analysis.UnmapResponses(variants, responses, questions)
	matrix := analysis.StudentSimilarity(unmapped)
	return &matrix, nil
}

// VariantSimilarity compares stored variants structurally.
func (s *analysisService) VariantSimilarity(ctx context.Context, examID string) (*models.SimilarityMatrix, error) {
	records, _, err := s.variantRepo.GetByExam(ctx, examID, repositories.VariantFilters{})
	if err != nil {
		return nil, wrapRepoErr("failed to load variants", err)
	}
	if len(records) == 0 {
		return nil, ErrExamHasNoVariants
	}

	variants := make([]models.VariantForAnalysis, 0, len(records))
	for _, record := range records {
		v, err := RecordToVariantForAnalysis(record)
		if err != nil {
			return nil, err
		}
		variants = append(variants, *v)
	}

	matrix := analysis.VariantSimilarity(variants)
	return &matrix, nil
}

// loadAnalysisInputs assembles the engine's inputs from storage. The
// original question set is reconstructed from variant metadata, merged
// across variants so subset sampling does not hide any question.
func (s *analysisService) loadAnalysisInputs(ctx context.Context, examID string) ([]models.VariantForAnalysis, []models.StudentResponse, []models.AnalysisQuestion, error) {
	records, _, err := s.variantRepo.GetByExam(ctx, examID, repositories.VariantFilters{})
	if err != nil {
		return nil, nil, nil, wrapRepoErr("failed to load variants", err)
	}
	if len(records) == 0 {
		return nil, nil, nil, ErrExamHasNoVariants
	}

	variants := make([]models.VariantForAnalysis, 0, len(records))
	questionIndex := make(map[string]int)
	var questions []models.AnalysisQuestion
	for _, record := range records {
		forAnalysis, err := RecordToVariantForAnalysis(record)
		if err != nil {
			return nil, nil, nil, err
		}
		variants = append(variants, *forAnalysis)

		variant, err := RecordToVariant(record)
		if err != nil {
			return nil, nil, nil, err
		}
		for _, q := range analysis.OriginalQuestions(*variant) {
			if _, seen := questionIndex[q.ID]; seen {
				continue
			}
			questionIndex[q.ID] = len(questions)
			questions = append(questions, q)
		}
	}

	responseRecords, _, err := s.responseRepo.GetByExam(ctx, examID, repositories.ResponseFilters{})
	if err != nil {
		return nil, nil, nil, wrapRepoErr("failed to load responses", err)
	}

	responses := make([]models.StudentResponse, 0, len(responseRecords))
	for _, record := range responseRecords {
		response, err := recordToResponse(record)
		if err != nil {
			return nil, nil, nil, err
		}
		responses = append(responses, *response)
	}

	return variants, responses, questions, nil
}

func (s *analysisService) publishCompleted(ctx context.Context, examID string, result *models.BiPointAnalysisResult, byVariant bool) {
	event := events.NewEvent(events.EventAnalysisCompleted, events.AnalysisCompletedData{
		ExamID:        examID,
		StudentCount:  result.Metadata.IncludedResponses,
		QuestionCount: result.Metadata.QuestionCount,
		MeanScore:     result.Summary.ScoreDistribution.Mean,
		ByVariant:     byVariant,
	})
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish analysis.completed event", "exam_id", examID, "error", err)
	}
}

func recordToResponse(record *models.StudentResponseRecord) (*models.StudentResponse, error) {
	response := models.StudentResponse{
		StudentID:        record.StudentID,
		VariantCode:      record.VariantCode,
		TotalScore:       record.TotalScore,
		MaxPossibleScore: record.MaxPossibleScore,
		StartedAt:        record.StartedAt,
		CompletedAt:      record.CompletedAt,
	}
	if len(record.Responses) > 0 {
		if err := json.Unmarshal(record.Responses, &response.Responses); err != nil {
			return nil, fmt.Errorf("corrupt responses for student %s: %w", record.StudentID, err)
		}
	}
	return &response, nil
}

// analysisCacheKey folds the config into the key so different settings never
// share a cache entry. Keys share the "analysis:<exam>:" prefix that
// DeletePattern invalidation relies on.
func analysisCacheKey(examID, mode string, config models.AnalysisConfig) string {
	data, _ := json.Marshal(config)
	h := fnv.New32a()
	h.Write(data)
	return fmt.Sprintf("analysis:%s:%s:%08x", examID, mode, h.Sum32())
}
