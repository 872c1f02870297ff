package errors

import (
	"errors"
	"fmt"
)

// Sentinel categories. The typed errors below wrap these so callers can use
// errors.Is for the category and errors.As for the detail.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidQuestion  = errors.New("invalid question")
	ErrInsufficientData = errors.New("insufficient data")
)

// InvalidInputError reports malformed or missing configuration, detected
// before any randomization begins. The message is user-facing.
type InvalidInputError struct {
	Message string `json:"message"`
}

func (e *InvalidInputError) Error() string { return e.Message }

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

func NewInvalidInputError(message string) *InvalidInputError {
	return &InvalidInputError{Message: message}
}

// InvalidQuestionError identifies a question that fails structural
// validation, by text, so authoring data can be fixed.
type InvalidQuestionError struct {
	QuestionText string `json:"question_text"`
	Reason       string `json:"reason"`
}

func (e *InvalidQuestionError) Error() string {
	return fmt.Sprintf("invalid question %q: %s", e.QuestionText, e.Reason)
}

func (e *InvalidQuestionError) Unwrap() error { return ErrInvalidQuestion }

func NewInvalidQuestionError(questionText, reason string) *InvalidQuestionError {
	return &InvalidQuestionError{QuestionText: questionText, Reason: reason}
}

// InsufficientDataError reports too few student responses to analyze.
type InsufficientDataError struct {
	Message   string `json:"message"`
	Available int    `json:"available"`
	Required  int    `json:"required"`
}

func (e *InsufficientDataError) Error() string { return e.Message }

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

func NewInsufficientDataError(message string, available, required int) *InsufficientDataError {
	return &InsufficientDataError{Message: message, Available: available, Required: required}
}

// IsInvalidInput checks if error represents an invalid-input condition
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsInvalidQuestion checks if error represents a question validation failure
func IsInvalidQuestion(err error) bool {
	return errors.Is(err, ErrInvalidQuestion)
}

// IsInsufficientData checks if error represents an insufficient-sample condition
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}
