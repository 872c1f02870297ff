package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/NarimanMilanfar/exam-analysis-service/internal/services"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/utils"
)

type HandlerManager struct {
	variantHandler  *VariantHandler
	analysisHandler *AnalysisHandler
	questionHandler *QuestionHandler
}

func NewHandlerManager(
	variantService services.VariantService,
	analysisService services.AnalysisService,
	importExportService services.ImportExportService,
	validator *utils.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		variantHandler:  NewVariantHandler(variantService, validator, logger),
		analysisHandler: NewAnalysisHandler(analysisService, importExportService, validator, logger),
		questionHandler: NewQuestionHandler(validator, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Variant routes
		variants := v1.Group("/variants")
		{
			variants.POST("/generate", hm.variantHandler.GenerateVariants)
			variants.POST("/recreate", hm.variantHandler.RecreateVariant)
			variants.GET("/exam/:exam_id", hm.variantHandler.GetVariantsByExam)
			variants.GET("/:variant_code", hm.variantHandler.GetVariantByCode)
		}

		// Analysis routes
		analysis := v1.Group("/analysis")
		{
			analysis.POST("/exams/:exam_id", hm.analysisHandler.AnalyzeExam)
			analysis.POST("/exams/:exam_id/by-variant", hm.analysisHandler.AnalyzeByVariant)
			analysis.GET("/exams/:exam_id/similarity/students", hm.analysisHandler.StudentSimilarity)
			analysis.GET("/exams/:exam_id/similarity/variants", hm.analysisHandler.VariantSimilarity)
			analysis.GET("/exams/:exam_id/export", hm.analysisHandler.ExportAnalysis)
		}

		// Response import
		responses := v1.Group("/responses")
		{
			responses.POST("/import/:exam_id", hm.analysisHandler.ImportResponses)
		}

		// Question format conversion
		questions := v1.Group("/questions")
		{
			questions.POST("/convert", hm.questionHandler.ConvertQuestions)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "exam-analysis-service",
		})
	})
}
