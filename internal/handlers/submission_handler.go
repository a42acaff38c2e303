package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/services"
	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// SubmissionHandler exposes the submission archive.
type SubmissionHandler struct {
	BaseHandler
	submissionService services.SubmissionService
	exportService     services.ExportService
}

func NewSubmissionHandler(
	submissionService services.SubmissionService,
	exportService services.ExportService,
	logger utils.Logger,
) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler:       NewBaseHandler(logger),
		submissionService: submissionService,
		exportService:     exportService,
	}
}

// ListSubmissions lists archived submissions
// @Summary List submissions
// @Tags submissions
// @Produce json
// @Param source query string false "proxy or session"
// @Param country query string false "Country"
// @Param delivered query bool false "Delivery state"
// @Param date_from query string false "YYYY-MM-DD"
// @Param date_to query string false "YYYY-MM-DD"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} ListResponse
// @Failure 503 {object} ErrorResponse
// @Router /submissions [get]
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	filters, ok := h.bindFilters(c)
	if !ok {
		return
	}
	h.LogRequest(c, "Listing submissions", "limit", filters.Limit, "offset", filters.Offset)

	records, total, err := h.submissionService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Items:  records,
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
}

func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	h.LogRequest(c, "Getting submission", "submission_id", id)

	record, err := h.submissionService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *SubmissionHandler) GetStats(c *gin.Context) {
	filters, ok := h.bindFilters(c)
	if !ok {
		return
	}

	stats, err := h.submissionService.Stats(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ExportSubmissions downloads the archive as xlsx, or csv with ?format=csv
// @Summary Export submissions
// @Tags submissions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "xlsx (default) or csv"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /submissions/export [get]
func (h *SubmissionHandler) ExportSubmissions(c *gin.Context) {
	filters, ok := h.bindFilters(c)
	if !ok {
		return
	}
	format := c.DefaultQuery("format", "xlsx")
	h.LogRequest(c, "Exporting submissions", "format", format)

	var (
		data        []byte
		err         error
		contentType string
	)
	switch format {
	case "xlsx":
		data, err = h.exportService.ExportSubmissionsToExcel(c.Request.Context(), filters)
		contentType = xlsxContentType
	case "csv":
		data, err = h.exportService.ExportSubmissionsToCSV(c.Request.Context(), filters)
		contentType = "text/csv"
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid export format",
			Details: "format must be xlsx or csv",
		})
		return
	}
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("submissions_%s.%s", time.Now().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

func (h *SubmissionHandler) bindFilters(c *gin.Context) (models.SubmissionFilters, bool) {
	var filters models.SubmissionFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return filters, false
	}
	return filters, true
}
