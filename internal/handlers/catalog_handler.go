package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/wellbeing-service/internal/services"
	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// CatalogHandler manages the cached question catalog.
type CatalogHandler struct {
	BaseHandler
	catalogService services.CatalogService
}

func NewCatalogHandler(catalogService services.CatalogService, logger utils.Logger) *CatalogHandler {
	return &CatalogHandler{
		BaseHandler:    NewBaseHandler(logger),
		catalogService: catalogService,
	}
}

// RefreshCatalog drops the cached catalog so the next load refetches it
// @Summary Refresh question catalog
// @Tags catalog
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 500 {object} ErrorResponse
// @Router /catalog/refresh [post]
func (h *CatalogHandler) RefreshCatalog(c *gin.Context) {
	h.LogRequest(c, "Refreshing question catalog")

	if err := h.catalogService.Invalidate(c.Request.Context()); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Question catalog cache cleared", nil)
}
