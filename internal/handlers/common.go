package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/NarimanMilanfar/exam-analysis-service/internal/errors"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/services"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging and response functionality for all handlers
type BaseHandler struct {
	logger utils.Logger
}

// NewBaseHandler creates a new base handler with logging capability
func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{
		logger: logger,
	}
}

// LogError logs error details with request context
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"request_id", c.GetHeader("X-Request-ID"),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	fields = append(fields, additionalFields...)

	h.logger.LogError(err, message, fields...)
}

// LogInfo logs informational messages with request context
func (h *BaseHandler) LogInfo(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"request_id", c.GetHeader("X-Request-ID"),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	fields = append(fields, additionalFields...)

	h.logger.Info(message, fields...)
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, message string, err error, details ...interface{}) {
	errorResp := ErrorResponse{
		Message: message,
	}
	if len(details) > 0 {
		errorResp.Details = details[0]
	}

	if err != nil {
		h.LogError(c, err, message, "status_code", statusCode)
	} else {
		h.logger.Warn(message, "status_code", statusCode, "path", c.Request.URL.Path)
	}

	c.JSON(statusCode, errorResp)
}

// RespondWithSuccess sends a consistent success response
func (h *BaseHandler) RespondWithSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, SuccessResponse{
		Message: message,
		Data:    data,
	})
}

// HandleServiceError maps service-layer errors onto HTTP status codes. The
// domain error taxonomy drives the mapping: bad input and bad questions are
// the caller's fault, a too-small sample is unprocessable, unknown exams
// and variants are 404.
func (h *BaseHandler) HandleServiceError(c *gin.Context, err error, message string) {
	switch {
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, message, err, err.Error())
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, message, err, err.Error())
	case apperrors.IsInsufficientData(err):
		h.RespondWithError(c, http.StatusUnprocessableEntity, message, err, err.Error())
	default:
		h.RespondWithError(c, http.StatusInternalServerError, message, err)
	}
}
