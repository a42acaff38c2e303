package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/wellbeing-service/internal/services"
	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// UniversityHandler feeds the country and university pickers of the intro form.
type UniversityHandler struct {
	BaseHandler
	universityService services.UniversityService
}

func NewUniversityHandler(universityService services.UniversityService, logger utils.Logger) *UniversityHandler {
	return &UniversityHandler{
		BaseHandler:       NewBaseHandler(logger),
		universityService: universityService,
	}
}

// ListCountries returns the countries matching ?q=
// @Summary Country suggestions
// @Tags universities
// @Produce json
// @Param q query string true "Country fragment"
// @Success 200 {array} string
// @Failure 502 {object} ErrorResponse
// @Router /countries [get]
func (h *UniversityHandler) ListCountries(c *gin.Context) {
	input := c.Query("q")
	if input == "" {
		c.JSON(http.StatusOK, []string{})
		return
	}
	h.LogRequest(c, "Listing countries", "input", input)

	countries, err := h.universityService.Countries(c.Request.Context(), input)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, countries)
}

// ListUniversities returns picker options for ?country= narrowed by ?name=
func (h *UniversityHandler) ListUniversities(c *gin.Context) {
	country := c.Query("country")
	name := c.Query("name")
	h.LogRequest(c, "Listing universities", "country", country, "name", name)

	options, err := h.universityService.Universities(c.Request.Context(), country, name)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, options)
}
