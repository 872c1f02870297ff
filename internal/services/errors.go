package services

import (
	"errors"
	"fmt"

	apperrors "github.com/NarimanMilanfar/exam-analysis-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Variant specific errors
	ErrVariantNotFound  = errors.New("variant not found")
	ErrExamHasNoVariants = errors.New("exam has no generated variants")

	// Import specific errors
	ErrUnsupportedFileFormat = errors.New("unsupported file format")
	ErrEmptyImportFile       = errors.New("import file has no data rows")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrVariantNotFound) ||
		errors.Is(err, ErrExamHasNoVariants)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, apperrors.ErrInvalidInput) ||
		errors.Is(err, apperrors.ErrInvalidQuestion) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsInsufficientData checks if error means the sample was too small to analyze
func IsInsufficientData(err error) bool {
	return errors.Is(err, apperrors.ErrInsufficientData)
}

// wrapRepoErr annotates repository failures uniformly.
func wrapRepoErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
