package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NarimanMilanfar/exam-analysis-service/internal/services"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/transform"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/utils"
)

// QuestionHandler exposes question payload conversion.
type QuestionHandler struct {
	BaseHandler
	validator *utils.Validator
}

func NewQuestionHandler(validator *utils.Validator, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler: NewBaseHandler(logger),
		validator:   validator,
	}
}

// ConvertQuestionsRequest is the payload for POST /questions/convert.
type ConvertQuestionsRequest struct {
	From transform.Format `json:"from" validate:"required"`
	To   transform.Format `json:"to" validate:"required"`
	Data json.RawMessage  `json:"data" validate:"required"`
}

// ConvertQuestions handles POST /api/v1/questions/convert
func (h *QuestionHandler) ConvertQuestions(c *gin.Context) {
	var req ConvertQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, err.Error())
		return
	}

	converted, err := transform.Convert(req.From, req.To, req.Data)
	if err != nil {
		if services.IsValidation(err) {
			h.RespondWithError(c, http.StatusBadRequest, "Conversion failed", err, err.Error())
			return
		}
		h.RespondWithError(c, http.StatusInternalServerError, "Conversion failed", err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Questions converted successfully", json.RawMessage(converted))
}
