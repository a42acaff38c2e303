package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/SAP-F-2025/wellbeing-service/internal/services"
	"github.com/SAP-F-2025/wellbeing-service/internal/survey"
	"github.com/gin-gonic/gin"
)

func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := c.Param(param)
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}

// bindOptionalJSON decodes the body into dest. An empty body leaves dest
// untouched.
func bindOptionalJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return false
	}
	return true
}

// handleServiceError maps service and survey errors onto HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, validationErrors)
		return
	}

	var suspicious *services.SuspiciousContentError
	if errors.As(err, &suspicious) {
		h.RespondWithError(c, http.StatusBadRequest, "Submission rejected", err, map[string]interface{}{
			"pattern": suspicious.Pattern,
		})
		return
	}

	var confirmation *survey.ConfirmationRequiredError
	if errors.As(err, &confirmation) {
		h.LogWarn(c, "Submission needs confirmation", "unanswered", confirmation.Unanswered)
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Some questions are unanswered, confirm to submit anyway",
			Code:    "confirmation_required",
			Details: map[string]interface{}{"unanswered": confirmation.Unanswered},
		})
		return
	}

	var loadErr *survey.LoadError
	if errors.As(err, &loadErr) {
		h.RespondWithError(c, http.StatusBadGateway, "Failed to load questions", err, map[string]interface{}{
			"stage":       loadErr.Op,
			"status_code": loadErr.StatusCode,
		})
		return
	}

	switch {
	case errors.Is(err, survey.ErrSessionDiscarded):
		h.RespondWithError(c, http.StatusNotFound, "Session was discarded", err)
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, notFoundMessage(err), err)
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request", err, err.Error())
	case services.IsConflict(err):
		h.RespondWithError(c, http.StatusConflict, "Operation not allowed in the current state", err, err.Error())
	case services.IsUpstream(err):
		h.RespondWithError(c, http.StatusBadGateway, "Upstream service failed", err, err.Error())
	case errors.Is(err, services.ErrArchiveDisabled):
		h.RespondWithError(c, http.StatusServiceUnavailable, "Submission archive is not configured", err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return "Session not found"
	case errors.Is(err, services.ErrSubmissionNotFound):
		return "Submission not found"
	default:
		return "Resource not found"
	}
}
