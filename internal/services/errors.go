package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/wellbeing-service/internal/errors"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
	"github.com/SAP-F-2025/wellbeing-service/internal/survey"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	// Session specific errors
	ErrSessionNotFound = errors.New("survey session not found")
	ErrNoResult        = errors.New("survey session has no result yet")

	// Submission specific errors
	ErrInvalidJSON        = errors.New("invalid JSON")
	ErrSuspiciousContent  = errors.New("submission contains blocked content")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrArchiveDisabled    = errors.New("submission archive is not configured")

	// University lookup errors
	ErrUniversityNotFound = errors.New("university not found")
)

// ===== CUSTOM ERROR TYPES =====

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// SuspiciousContentError names the blocked pattern found in a submission.
type SuspiciousContentError struct {
	Pattern string `json:"pattern"`
}

func (e *SuspiciousContentError) Error() string {
	return fmt.Sprintf("%v: %q", ErrSuspiciousContent, e.Pattern)
}

func (e *SuspiciousContentError) Unwrap() error { return ErrSuspiciousContent }

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSubmissionNotFound) ||
		errors.Is(err, ErrUniversityNotFound) ||
		errors.Is(err, repositories.ErrNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrInvalidJSON) || errors.Is(err, ErrBadRequest) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve) || survey.IsContractViolation(err)
}

// IsConflict covers requests that are valid but not allowed in the current
// session phase.
func IsConflict(err error) bool {
	var cre *survey.ConfirmationRequiredError
	return survey.IsSessionClosed(err) ||
		errors.As(err, &cre) ||
		errors.Is(err, survey.ErrNotLoaded) ||
		errors.Is(err, ErrNoResult)
}

// IsUpstream reports failures of the content backend or the university lookup.
func IsUpstream(err error) bool {
	var ue *repositories.UpstreamError
	var se *survey.SubmissionError
	return survey.IsLoadError(err) || errors.As(err, &ue) || errors.As(err, &se)
}

func IsSecurity(err error) bool {
	return errors.Is(err, ErrSuspiciousContent)
}
