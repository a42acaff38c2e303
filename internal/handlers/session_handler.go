package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SAP-F-2025/wellbeing-service/internal/services"
	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
	exportService  services.ExportService
}

func NewSessionHandler(
	sessionService services.SessionService,
	exportService services.ExportService,
	logger utils.Logger,
) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
		exportService:  exportService,
	}
}

// CreateSession starts a session and loads the question catalog
// @Summary Create survey session
// @Tags sessions
// @Accept json
// @Produce json
// @Param session body services.CreateSessionRequest false "Respondent profile"
// @Success 201 {object} services.SessionView
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	h.LogRequest(c, "Creating survey session")

	var req services.CreateSessionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	view, err := h.sessionService.Create(c.Request.Context(), &req)
	if err != nil {
		if view != nil {
			// the session exists but still needs a reload
			c.Header("Location", "/api/v1/sessions/"+view.ID)
		}
		h.handleServiceError(c, err)
		return
	}

	c.Header("Location", "/api/v1/sessions/"+view.ID)
	c.JSON(http.StatusCreated, view)
}

// GetSession returns the current state of a session
// @Summary Get survey session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionView
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	h.withSession(c, func(id string) (*services.SessionView, error) {
		return h.sessionService.Get(c.Request.Context(), id)
	})
}

// ReloadSession retries a failed catalog load
func (h *SessionHandler) ReloadSession(c *gin.Context) {
	h.withSession(c, func(id string) (*services.SessionView, error) {
		return h.sessionService.Reload(c.Request.Context(), id)
	})
}

func (h *SessionHandler) UpdateProfile(c *gin.Context) {
	var req services.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	h.withSession(c, func(id string) (*services.SessionView, error) {
		return h.sessionService.UpdateProfile(c.Request.Context(), id, &req)
	})
}

// ===== NAVIGATION =====

func (h *SessionHandler) SelectQuestion(c *gin.Context) {
	var req services.SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	h.withSession(c, func(id string) (*services.SessionView, error) {
		return h.sessionService.Select(c.Request.Context(), id, &req)
	})
}

func (h *SessionHandler) Advance(c *gin.Context) {
	var req services.AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	h.withSession(c, func(id string) (*services.SessionView, error) {
		return h.sessionService.Advance(c.Request.Context(), id, &req)
	})
}

// Next keeps the displayed slider value and moves forward
func (h *SessionHandler) Next(c *gin.Context) {
	h.withSession(c, func(id string) (*services.SessionView, error) {
		return h.sessionService.Next(c.Request.Context(), id)
	})
}

func (h *SessionHandler) Skip(c *gin.Context) {
	h.withSession(c, func(id string) (*services.SessionView, error) {
		return h.sessionService.Skip(c.Request.Context(), id)
	})
}

// ===== ANSWERS =====

// SetAnswer records a slider value
// @Summary Answer a question
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param answer body services.AnswerRequest true "Answer"
// @Success 200 {object} services.SessionView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/answers [put]
func (h *SessionHandler) SetAnswer(c *gin.Context) {
	var req services.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	h.withSession(c, func(id string) (*services.SessionView, error) {
		return h.sessionService.Answer(c.Request.Context(), id, &req)
	})
}

func (h *SessionHandler) MarkNotRelevant(c *gin.Context) {
	var ref services.QuestionRef
	if !bindOptionalJSON(c, &ref) {
		return
	}
	h.withSession(c, func(id string) (*services.SessionView, error) {
		return h.sessionService.MarkNotRelevant(c.Request.Context(), id, &ref)
	})
}

// DeleteAnswer takes the question from the query string
func (h *SessionHandler) DeleteAnswer(c *gin.Context) {
	ref := services.QuestionRef{
		Category:   c.Query("category"),
		QuestionID: c.Query("question_id"),
	}
	h.withSession(c, func(id string) (*services.SessionView, error) {
		return h.sessionService.DeleteAnswer(c.Request.Context(), id, &ref)
	})
}

// ===== SUBMISSION =====

// Submit computes the result and hands it over for delivery. Without
// "confirmed" it answers 409 while questions are open.
// @Summary Submit survey session
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param submit body services.SubmitRequest false "Confirmation"
// @Success 202 {object} services.SessionView
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/submit [post]
func (h *SessionHandler) Submit(c *gin.Context) {
	var req services.SubmitRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	h.LogRequest(c, "Submitting survey session", "session_id", id, "confirmed", req.Confirmed)

	view, err := h.sessionService.Submit(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, view)
}

// Resume returns a session whose delivery failed to answering
func (h *SessionHandler) Resume(c *gin.Context) {
	h.withSession(c, func(id string) (*services.SessionView, error) {
		return h.sessionService.Resume(c.Request.Context(), id)
	})
}

func (h *SessionHandler) DiscardSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	h.LogRequest(c, "Discarding survey session", "session_id", id)

	if err := h.sessionService.Discard(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportSession downloads the result of a submitted session as a workbook
func (h *SessionHandler) ExportSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	h.LogRequest(c, "Exporting survey session", "session_id", id)

	data, err := h.exportService.ExportSessionToExcel(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("wellbeing_%s_%s.xlsx", id, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *SessionHandler) withSession(c *gin.Context, fn func(id string) (*services.SessionView, error)) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	h.LogDebug(c, "Session request", "session_id", id)

	view, err := fn(id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
