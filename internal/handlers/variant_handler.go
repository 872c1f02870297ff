package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NarimanMilanfar/exam-analysis-service/internal/models"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/repositories"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/services"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/utils"
)

// VariantHandler exposes variant generation and retrieval endpoints.
type VariantHandler struct {
	BaseHandler
	service   services.VariantService
	validator *utils.Validator
}

func NewVariantHandler(service services.VariantService, validator *utils.Validator, logger utils.Logger) *VariantHandler {
	return &VariantHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		validator:   validator,
	}
}

// ===== REQUEST STRUCTURES =====

// VariationConfigRequest mirrors models.VariationConfig with pointer fields
// so "absent" and "false" are distinguishable; absent fields resolve to the
// documented defaults.
type VariationConfigRequest struct {
	RandomizeQuestionOrder    *bool  `json:"randomize_question_order"`
	RandomizeOptionOrder      *bool  `json:"randomize_option_order"`
	RandomizeTrueFalseOptions *bool  `json:"randomize_true_false_options"`
	RandomizeQuestionSubset   *bool  `json:"randomize_question_subset"`
	QuestionCount             int    `json:"question_count"`
	Seed                      string `json:"seed"`
	MaxVariations             *int   `json:"max_variations"`
	EnforceMaxVariations      *bool  `json:"enforce_max_variations"`
}

// ApplyDefaults resolves the request into a concrete config.
func (r *VariationConfigRequest) ApplyDefaults() models.VariationConfig {
	config := models.DefaultVariationConfig()
	if r == nil {
		return config
	}
	if r.RandomizeQuestionOrder != nil {
		config.RandomizeQuestionOrder = *r.RandomizeQuestionOrder
	}
	if r.RandomizeOptionOrder != nil {
		config.RandomizeOptionOrder = *r.RandomizeOptionOrder
	}
	if r.RandomizeTrueFalseOptions != nil {
		config.RandomizeTrueFalseOptions = *r.RandomizeTrueFalseOptions
	}
	if r.RandomizeQuestionSubset != nil {
		config.RandomizeQuestionSubset = *r.RandomizeQuestionSubset
	}
	config.QuestionCount = r.QuestionCount
	config.Seed = r.Seed
	if r.MaxVariations != nil {
		config.MaxVariations = *r.MaxVariations
	}
	if r.EnforceMaxVariations != nil {
		config.EnforceMaxVariations = *r.EnforceMaxVariations
	}
	return config
}

// GenerateVariantsRequest is the payload for POST /variants/generate.
type GenerateVariantsRequest struct {
	ExamID    string                  `json:"exam_id" validate:"required"`
	Questions []models.Question       `json:"questions" validate:"required,min=1,dive"`
	Config    *VariationConfigRequest `json:"config"`
}

// RecreateVariantRequest is the payload for POST /variants/recreate. Seed is
// the exact per-variant seed recorded in the variant's metadata.
type RecreateVariantRequest struct {
	Questions []models.Question       `json:"questions" validate:"required,min=1,dive"`
	Seed      string                  `json:"seed" validate:"required"`
	Config    *VariationConfigRequest `json:"config"`
}

// ===== HANDLER METHODS =====

// GenerateVariants handles POST /api/v1/variants/generate
func (h *VariantHandler) GenerateVariants(c *gin.Context) {
	var req GenerateVariantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, err.Error())
		return
	}

	result, err := h.service.GenerateVariants(c.Request.Context(), req.ExamID, req.Questions, req.Config.ApplyDefaults())
	if err != nil {
		h.HandleServiceError(c, err, "Failed to generate variants")
		return
	}

	h.LogInfo(c, "Variants generated", "exam_id", req.ExamID, "count", len(result.Variants))
	h.RespondWithSuccess(c, http.StatusCreated, "Variants generated successfully", result)
}

// RecreateVariant handles POST /api/v1/variants/recreate
func (h *VariantHandler) RecreateVariant(c *gin.Context) {
	var req RecreateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, err.Error())
		return
	}

	variant, err := h.service.RecreateVariant(c.Request.Context(), req.Questions, req.Seed, req.Config.ApplyDefaults())
	if err != nil {
		h.HandleServiceError(c, err, "Failed to recreate variant")
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Variant recreated successfully", variant)
}

// GetVariantsByExam handles GET /api/v1/variants/exam/:exam_id
func (h *VariantHandler) GetVariantsByExam(c *gin.Context) {
	examID := ParseStringIDParam(c, "exam_id")
	if examID == "" {
		return
	}

	filters := repositories.VariantFilters{
		Limit:     ParseIntQuery(c, "limit", 50),
		Offset:    ParseIntQuery(c, "offset", 0),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	records, total, err := h.service.GetVariantsByExam(c.Request.Context(), examID, filters)
	if err != nil {
		h.HandleServiceError(c, err, "Failed to load variants")
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Variants retrieved successfully", gin.H{
		"variants": records,
		"total":    total,
	})
}

// GetVariantByCode handles GET /api/v1/variants/:variant_code
func (h *VariantHandler) GetVariantByCode(c *gin.Context) {
	code := ParseStringIDParam(c, "variant_code")
	if code == "" {
		return
	}

	variant, err := h.service.GetVariantByCode(c.Request.Context(), code)
	if err != nil {
		h.HandleServiceError(c, err, "Failed to load variant")
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Variant retrieved successfully", variant)
}
