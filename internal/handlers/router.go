package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/wellbeing-service/internal/services"
	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	proxyHandler      *ProxyHandler
	sessionHandler    *SessionHandler
	universityHandler *UniversityHandler
	catalogHandler    *CatalogHandler
	submissionHandler *SubmissionHandler
	allowedOrigin     string
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	allowedOrigin string,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		proxyHandler: NewProxyHandler(
			serviceManager.Catalog(),
			serviceManager.University(),
			serviceManager.Submission(),
			allowedOrigin,
			logger,
		),
		sessionHandler:    NewSessionHandler(serviceManager.Session(), serviceManager.Export(), logger),
		universityHandler: NewUniversityHandler(serviceManager.University(), logger),
		catalogHandler:    NewCatalogHandler(serviceManager.Catalog(), logger),
		submissionHandler: NewSubmissionHandler(serviceManager.Submission(), serviceManager.Export(), logger),
		allowedOrigin:     allowedOrigin,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	// Endpoints called by the browser form
	legacy := router.Group("/api")
	{
		legacy.GET("/getQuestions", hm.proxyHandler.GetQuestions)
		legacy.OPTIONS("/getQuestions", hm.proxyHandler.Preflight("GET, POST, OPTIONS"))
		legacy.GET("/getUniversities", hm.proxyHandler.GetUniversities)
		legacy.OPTIONS("/getUniversities", hm.proxyHandler.Preflight("GET, OPTIONS"))
		legacy.Any("/submitResponse", hm.proxyHandler.SubmitResponse)
	}

	// API v1 routes
	v1 := router.Group("/api/v1", CORSMiddleware(hm.allowedOrigin))
	{
		// preflight for every v1 route, answered by CORSMiddleware
		v1.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusOK) })

		// Survey sessions
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.CreateSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.DELETE("/:id", hm.sessionHandler.DiscardSession)
			sessions.POST("/:id/reload", hm.sessionHandler.ReloadSession)
			sessions.PUT("/:id/profile", hm.sessionHandler.UpdateProfile)

			// Navigation
			sessions.POST("/:id/select", hm.sessionHandler.SelectQuestion)
			sessions.POST("/:id/advance", hm.sessionHandler.Advance)
			sessions.POST("/:id/next", hm.sessionHandler.Next)
			sessions.POST("/:id/skip", hm.sessionHandler.Skip)

			// Answers
			sessions.PUT("/:id/answers", hm.sessionHandler.SetAnswer)
			sessions.POST("/:id/answers/not-relevant", hm.sessionHandler.MarkNotRelevant)
			sessions.DELETE("/:id/answers", hm.sessionHandler.DeleteAnswer)

			// Submission
			sessions.POST("/:id/submit", hm.sessionHandler.Submit)
			sessions.POST("/:id/resume", hm.sessionHandler.Resume)
			sessions.GET("/:id/export", hm.sessionHandler.ExportSession)
		}

		v1.POST("/catalog/refresh", hm.catalogHandler.RefreshCatalog)

		// Intro form pickers
		v1.GET("/countries", hm.universityHandler.ListCountries)
		v1.GET("/universities", hm.universityHandler.ListUniversities)

		// Submission archive
		submissions := v1.Group("/submissions")
		{
			submissions.GET("", hm.submissionHandler.ListSubmissions)
			submissions.GET("/stats", hm.submissionHandler.GetStats)
			submissions.GET("/export", hm.submissionHandler.ExportSubmissions)
			submissions.GET("/:id", hm.submissionHandler.GetSubmission)
		}
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "wellbeing-service",
	})
}

// CORSMiddleware answers preflight requests and tags every response with the
// allowed origin.
func CORSMiddleware(allowedOrigin string) gin.HandlerFunc {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", allowedOrigin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+utils.RequestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
