package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NarimanMilanfar/exam-analysis-service/internal/models"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/services"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/utils"
)

// AnalysisHandler exposes item-analysis, similarity and import/export
// endpoints.
type AnalysisHandler struct {
	BaseHandler
	service      services.AnalysisService
	importExport services.ImportExportService
	validator    *utils.Validator
}

func NewAnalysisHandler(
	service services.AnalysisService,
	importExport services.ImportExportService,
	validator *utils.Validator,
	logger utils.Logger,
) *AnalysisHandler {
	return &AnalysisHandler{
		BaseHandler:  NewBaseHandler(logger),
		service:      service,
		importExport: importExport,
		validator:    validator,
	}
}

// ===== REQUEST STRUCTURES =====

// AnalysisConfigRequest mirrors models.AnalysisConfig with pointer fields so
// absent settings fall back to the documented defaults.
type AnalysisConfigRequest struct {
	MinSampleSize         int      `json:"min_sample_size"`
	ExcludeIncompleteData *bool    `json:"exclude_incomplete_data"`
	ConfidenceLevel       *float64 `json:"confidence_level"`
	IncludeReliability    *bool    `json:"include_reliability"`
	IncludeSimilarity     *bool    `json:"include_similarity"`
}

func (r *AnalysisConfigRequest) ApplyDefaults() models.AnalysisConfig {
	config := models.DefaultAnalysisConfig()
	if r == nil {
		return config
	}
	config.MinSampleSize = r.MinSampleSize
	if r.ExcludeIncompleteData != nil {
		config.ExcludeIncompleteData = *r.ExcludeIncompleteData
	}
	if r.ConfidenceLevel != nil {
		config.ConfidenceLevel = *r.ConfidenceLevel
	}
	if r.IncludeReliability != nil {
		config.IncludeReliability = *r.IncludeReliability
	}
	if r.IncludeSimilarity != nil {
		config.IncludeSimilarity = *r.IncludeSimilarity
	}
	return config
}

// ===== HANDLER METHODS =====

// AnalyzeExam handles POST /api/v1/analysis/exams/:exam_id
func (h *AnalysisHandler) AnalyzeExam(c *gin.Context) {
	examID := ParseStringIDParam(c, "exam_id")
	if examID == "" {
		return
	}

	config, ok := h.bindConfig(c)
	if !ok {
		return
	}

	result, err := h.service.AnalyzeExam(c.Request.Context(), examID, config)
	if err != nil {
		h.HandleServiceError(c, err, "Failed to analyze exam")
		return
	}

	h.LogInfo(c, "Exam analyzed", "exam_id", examID,
		"included_responses", result.Metadata.IncludedResponses)
	h.RespondWithSuccess(c, http.StatusOK, "Analysis completed successfully", result)
}

// AnalyzeByVariant handles POST /api/v1/analysis/exams/:exam_id/by-variant
func (h *AnalysisHandler) AnalyzeByVariant(c *gin.Context) {
	examID := ParseStringIDParam(c, "exam_id")
	if examID == "" {
		return
	}

	config, ok := h.bindConfig(c)
	if !ok {
		return
	}

	results, err := h.service.AnalyzeByVariant(c.Request.Context(), examID, config)
	if err != nil {
		h.HandleServiceError(c, err, "Failed to analyze exam by variant")
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Analysis completed successfully", results)
}

// StudentSimilarity handles GET /api/v1/analysis/exams/:exam_id/similarity/students
func (h *AnalysisHandler) StudentSimilarity(c *gin.Context) {
	examID := ParseStringIDParam(c, "exam_id")
	if examID == "" {
		return
	}

	matrix, err := h.service.StudentSimilarity(c.Request.Context(), examID)
	if err != nil {
		h.HandleServiceError(c, err, "Failed to compute student similarity")
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Similarity computed successfully", matrix)
}

// VariantSimilarity handles GET /api/v1/analysis/exams/:exam_id/similarity/variants
func (h *AnalysisHandler) VariantSimilarity(c *gin.Context) {
	examID := ParseStringIDParam(c, "exam_id")
	if examID == "" {
		return
	}

	matrix, err := h.service.VariantSimilarity(c.Request.Context(), examID)
	if err != nil {
		h.HandleServiceError(c, err, "Failed to compute variant similarity")
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Similarity computed successfully", matrix)
}

// ImportResponses handles POST /api/v1/responses/import/:exam_id
func (h *AnalysisHandler) ImportResponses(c *gin.Context) {
	examID := ParseStringIDParam(c, "exam_id")
	if examID == "" {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Missing file upload", err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Failed to open uploaded file", err)
		return
	}
	defer file.Close()

	result, err := h.importExport.ImportResponsesFromFile(c.Request.Context(), examID, file, fileHeader.Filename)
	if err != nil {
		h.HandleServiceError(c, err, "Failed to import responses")
		return
	}

	h.LogInfo(c, "Responses imported", "exam_id", examID,
		"success_count", result.SuccessCount, "error_count", result.ErrorCount)
	h.RespondWithSuccess(c, http.StatusOK, "Responses imported", result)
}

// ExportAnalysis handles GET /api/v1/analysis/exams/:exam_id/export?format=xlsx|csv
func (h *AnalysisHandler) ExportAnalysis(c *gin.Context) {
	examID := ParseStringIDParam(c, "exam_id")
	if examID == "" {
		return
	}

	config := models.DefaultAnalysisConfig()
	format := c.DefaultQuery("format", "xlsx")

	var data []byte
	var contentType, ext string
	var err error
	switch format {
	case "csv":
		data, err = h.importExport.ExportAnalysisToCSV(c.Request.Context(), examID, config)
		contentType, ext = "text/csv", "csv"
	case "xlsx":
		data, err = h.importExport.ExportAnalysisToExcel(c.Request.Context(), examID, config)
		contentType, ext = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"
	default:
		h.RespondWithError(c, http.StatusBadRequest, "Unsupported export format", nil, format)
		return
	}
	if err != nil {
		h.HandleServiceError(c, err, "Failed to export analysis")
		return
	}

	filename := fmt.Sprintf("analysis_%s_%s.%s", examID, time.Now().UTC().Format("20060102"), ext)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

func (h *AnalysisHandler) bindConfig(c *gin.Context) (models.AnalysisConfig, bool) {
	var req AnalysisConfigRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
			return models.AnalysisConfig{}, false
		}
	}
	config := req.ApplyDefaults()
	if err := h.validator.Validate(&config); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, err.Error())
		return models.AnalysisConfig{}, false
	}
	return config, true
}
