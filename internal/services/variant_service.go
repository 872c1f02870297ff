package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/NarimanMilanfar/exam-analysis-service/internal/cache"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/events"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/models"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/repositories"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/utils"
	qvalidator "github.com/NarimanMilanfar/exam-analysis-service/internal/validator"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/variantgen"
)

// VariantService generates, persists and retrieves exam variants.
type VariantService interface {
	GenerateVariants(ctx context.Context, examID string, questions []models.Question, config models.VariationConfig) (*models.GenerationResult, error)
	RecreateVariant(ctx context.Context, questions []models.Question, exactSeed string, config models.VariationConfig) (*models.ExamVariant, error)
	GetVariantsByExam(ctx context.Context, examID string, filters repositories.VariantFilters) ([]*models.ExamVariantRecord, int64, error)
	GetVariantByCode(ctx context.Context, code string) (*models.ExamVariant, error)
}

type variantService struct {
	repo      repositories.VariantRepository
	generator *variantgen.Generator
	publisher events.EventPublisher
	cache     cache.CacheService
	logger    *slog.Logger
	validator *utils.Validator
	questions *qvalidator.QuestionValidator
}

func NewVariantService(
	repo repositories.VariantRepository,
	generator *variantgen.Generator,
	publisher events.EventPublisher,
	cacheService cache.CacheService,
	logger *slog.Logger,
	validator *utils.Validator,
) VariantService {
	return &variantService{
		repo:      repo,
		generator: generator,
		publisher: publisher,
		cache:     cacheService,
		logger:    logger,
		validator: validator,
		questions: qvalidator.NewQuestionValidator(),
	}
}

// GenerateVariants runs the generator and replaces any previously stored
// variants for the exam in one transaction. Regenerating invalidates cached
// analyses, which were computed against the old variant metadata.
func (s *variantService) GenerateVariants(ctx context.Context, examID string, questions []models.Question, config models.VariationConfig) (*models.GenerationResult, error) {
	if examID == "" {
		return nil, NewValidationError("exam_id", "exam id is required", examID)
	}
	if err := s.validator.Validate(&config); err != nil {
		return nil, err
	}
	if err := s.questions.ValidateBatch(questions); err != nil {
		return nil, err
	}

	result, err := s.generator.Generate(questions, config)
	if err != nil {
		return nil, err
	}

	records := make([]*models.ExamVariantRecord, 0, len(result.Variants))
	for _, v := range result.Variants {
		record, err := variantToRecord(examID, v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode variant %s: %w", v.ID, err)
		}
		records = append(records, record)
	}

	err = s.repo.WithTransaction(ctx, func(repo repositories.VariantRepository) error {
		if err := repo.DeleteByExam(ctx, examID); err != nil {
			return err
		}
		return repo.CreateBatch(ctx, records)
	})
	if err != nil {
		return nil, wrapRepoErr("failed to persist variants", err)
	}

	if err := s.cache.DeletePattern(ctx, analysisCachePattern(examID)); err != nil {
		s.logger.Warn("Failed to invalidate analysis cache", "exam_id", examID, "error", err)
	}

	event := events.NewEvent(events.EventVariantsGenerated, events.VariantsGeneratedData{
		ExamID:           examID,
		VariantCount:     len(result.Variants),
		Seed:             result.Config.Seed,
		UniquenessMode:   !result.Config.EnforceMaxVariations,
		QuestionsPerExam: result.Statistics.QuestionsPerVariant,
	})
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		// Persisted state is the source of truth; a lost event is logged,
		// not fatal.
		s.logger.Warn("Failed to publish variants.generated event", "exam_id", examID, "error", err)
	}

	s.logger.Info("Generated exam variants",
		"exam_id", examID,
		"variant_count", len(result.Variants),
		"theoretical_max", result.Statistics.TheoreticalMax)

	return result, nil
}

// RecreateVariant rebuilds one variant from its exact per-variant seed
// without touching storage.
func (s *variantService) RecreateVariant(ctx context.Context, questions []models.Question, exactSeed string, config models.VariationConfig) (*models.ExamVariant, error) {
	if exactSeed == "" {
		return nil, NewValidationError("seed", "exact seed is required", exactSeed)
	}
	return s.generator.RecreateVariant(questions, exactSeed, config)
}

func (s *variantService) GetVariantsByExam(ctx context.Context, examID string, filters repositories.VariantFilters) ([]*models.ExamVariantRecord, int64, error) {
	records, total, err := s.repo.GetByExam(ctx, examID, filters)
	if err != nil {
		return nil, 0, wrapRepoErr("failed to load variants", err)
	}
	return records, total, nil
}

func (s *variantService) GetVariantByCode(ctx context.Context, code string) (*models.ExamVariant, error) {
	record, err := s.repo.GetByVariantCode(ctx, code)
	if err != nil {
		return nil, wrapRepoErr("failed to load variant", err)
	}
	if record == nil {
		return nil, ErrVariantNotFound
	}
	return RecordToVariant(record)
}

// variantToRecord flattens a generated variant into its jsonb-backed row.
func variantToRecord(examID string, v models.ExamVariant) (*models.ExamVariantRecord, error) {
	questions, err := json.Marshal(v.Questions)
	if err != nil {
		return nil, err
	}
	metadata, err := json.Marshal(v.Metadata)
	if err != nil {
		return nil, err
	}
	answerKey, err := json.Marshal(v.AnswerKey())
	if err != nil {
		return nil, err
	}
	return &models.ExamVariantRecord{
		ExamID:        examID,
		VariantCode:   v.ID,
		VariantNumber: v.Metadata.VariantNumber,
		Seed:          v.Metadata.Seed,
		Questions:     datatypes.JSON(questions),
		Metadata:      datatypes.JSON(metadata),
		AnswerKey:     datatypes.JSON(answerKey),
	}, nil
}

// RecordToVariant is the inverse of variantToRecord. The analysis service
// uses it to rebuild variant metadata from storage.
func RecordToVariant(record *models.ExamVariantRecord) (*models.ExamVariant, error) {
	var variant models.ExamVariant
	variant.ID = record.VariantCode
	if err := json.Unmarshal(record.Questions, &variant.Questions); err != nil {
		return nil, fmt.Errorf("corrupt variant %s questions: %w", record.VariantCode, err)
	}
	if err := json.Unmarshal(record.Metadata, &variant.Metadata); err != nil {
		return nil, fmt.Errorf("corrupt variant %s metadata: %w", record.VariantCode, err)
	}
	return &variant, nil
}

// RecordToVariantForAnalysis extracts just the unmapping slice of a stored
// variant.
func RecordToVariantForAnalysis(record *models.ExamVariantRecord) (*models.VariantForAnalysis, error) {
	var metadata models.VariantMetadata
	if err := json.Unmarshal(record.Metadata, &metadata); err != nil {
		return nil, fmt.Errorf("corrupt variant %s metadata: %w", record.VariantCode, err)
	}
	var answerKey []models.AnswerKeyEntry
	if len(record.AnswerKey) > 0 {
		if err := json.Unmarshal(record.AnswerKey, &answerKey); err != nil {
			return nil, fmt.Errorf("corrupt variant %s answer key: %w", record.VariantCode, err)
		}
	}
	return &models.VariantForAnalysis{
		VariantCode:        record.VariantCode,
		QuestionOrder:      metadata.QuestionOrder,
		OptionPermutations: metadata.OptionPermutations,
		AnswerKey:          answerKey,
	}, nil
}

func analysisCachePattern(examID string) string {
	return "analysis:" + examID + ":*"
}
