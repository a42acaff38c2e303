package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
	"github.com/SAP-F-2025/wellbeing-service/internal/services"
	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// maxSubmissionBytes caps the body accepted by SubmitResponse.
const maxSubmissionBytes = 64 << 10

// ProxyHandler serves the three endpoints the browser form has always called.
// Responses keep their historical shape: the upstream JSON on success and
// {"error","details"} otherwise.
type ProxyHandler struct {
	BaseHandler
	catalogService    services.CatalogService
	universityService services.UniversityService
	submissionService services.SubmissionService
	allowedOrigin     string
}

func NewProxyHandler(
	catalogService services.CatalogService,
	universityService services.UniversityService,
	submissionService services.SubmissionService,
	allowedOrigin string,
	logger utils.Logger,
) *ProxyHandler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return &ProxyHandler{
		BaseHandler:       NewBaseHandler(logger),
		catalogService:    catalogService,
		universityService: universityService,
		submissionService: submissionService,
		allowedOrigin:     allowedOrigin,
	}
}

type proxyError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Preflight answers CORS preflight requests for the given methods.
func (h *ProxyHandler) Preflight(methods string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", h.allowedOrigin)
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Header("Access-Control-Allow-Methods", methods)
		c.Status(http.StatusOK)
	}
}

// GetQuestions forwards the question catalog of the content backend verbatim.
func (h *ProxyHandler) GetQuestions(c *gin.Context) {
	h.LogRequest(c, "Proxying question catalog")
	c.Header("Access-Control-Allow-Origin", h.allowedOrigin)

	resp, err := h.catalogService.RawQuestions(c.Request.Context())
	if err != nil {
		h.LogError(c, err, "Failed to fetch questions")
		c.JSON(http.StatusInternalServerError, proxyError{
			Error:   err.Error(),
			Details: "Failed to fetch questions from the content backend",
		})
		return
	}

	h.writeUpstream(c, resp)
}

// GetUniversities forwards a name/country lookup to the university directory.
func (h *ProxyHandler) GetUniversities(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", h.allowedOrigin)

	var query models.UniversityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusInternalServerError, proxyError{Error: err.Error(), Details: "Failed to fetch universities"})
		return
	}
	h.LogRequest(c, "Proxying university lookup", "name", query.Name, "country", query.Country)

	resp, err := h.universityService.Search(c.Request.Context(), query)
	if err != nil {
		h.LogError(c, err, "Failed to fetch universities")
		c.JSON(http.StatusInternalServerError, proxyError{
			Error:   err.Error(),
			Details: "Failed to fetch universities",
		})
		return
	}

	h.writeUpstream(c, resp)
}

// SubmitResponse validates, sanitises and forwards a submission posted by the
// form. It is registered for every method and rejects anything but POST.
func (h *ProxyHandler) SubmitResponse(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodOptions:
		h.Preflight("POST, OPTIONS")(c)
		return
	case http.MethodPost:
	default:
		c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	h.LogRequest(c, "Proxying submission")
	c.Header("Access-Control-Allow-Origin", h.allowedOrigin)

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxSubmissionBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.LogWarn(c, "Submission body too large", "limit", tooLarge.Limit)
			c.JSON(http.StatusRequestEntityTooLarge, proxyError{Error: "Payload Too Large"})
			return
		}
		c.JSON(http.StatusBadRequest, proxyError{Error: "Invalid JSON"})
		return
	}

	outcome, err := h.submissionService.SubmitRaw(c.Request.Context(), body)
	if err != nil {
		if errors.Is(err, services.ErrInvalidJSON) {
			h.LogWarn(c, "Submission is not valid JSON", "error", err)
			c.JSON(http.StatusBadRequest, proxyError{Error: "Invalid JSON"})
			return
		}
		h.LogError(c, err, "Submission rejected or failed")
		c.JSON(http.StatusInternalServerError, proxyError{
			Error:   "Validation or processing error",
			Details: legacyDetails(err),
		})
		return
	}

	h.LogInfo(c, "Submission forwarded", "submission_id", outcome.SubmissionID)
	h.writeUpstream(c, outcome.Upstream)
}

// writeUpstream relays a successful upstream body with status 200.
func (h *ProxyHandler) writeUpstream(c *gin.Context, resp *repositories.RawResponse) {
	if resp == nil || len(resp.Body) == 0 {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.Data(http.StatusOK, "application/json", resp.Body)
}

// legacyDetails renders the single-sentence reasons the form has always shown.
func legacyDetails(err error) string {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return validationErrors[0].Message
	}
	if errors.Is(err, services.ErrSuspiciousContent) {
		return "Suspicious content detected"
	}
	return err.Error()
}
